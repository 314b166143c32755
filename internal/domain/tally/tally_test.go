package tally_test

import (
	"context"
	"testing"

	"github.com/mythra/keymates/internal/domain/tally"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMapStore(t *testing.T) {
	Convey("Given a new tally store", t, func() {
		ctx := context.Background()
		s := tally.NewMapStore()

		Convey("Then it starts empty", func() {
			So(s.Count(ctx), ShouldEqual, 0)
			So(s.TopN(ctx, 10), ShouldBeEmpty)
			So(s.Snapshot(ctx), ShouldBeEmpty)
		})

		Convey("When adding identities", func() {
			So(s.Add(ctx, "Bob-stormrage"), ShouldEqual, 1)
			So(s.Add(ctx, "Bob-stormrage"), ShouldEqual, 2)
			So(s.Add(ctx, "Carol"), ShouldEqual, 1)
			So(s.Add(ctx, "Dave-area-52"), ShouldEqual, 1)
			So(s.Add(ctx, "Dave-area-52"), ShouldEqual, 2)
			So(s.Add(ctx, "Dave-area-52"), ShouldEqual, 3)

			Convey("Then Count reflects distinct identities", func() {
				So(s.Count(ctx), ShouldEqual, 3)
			})

			Convey("Then TopN ranks by count descending", func() {
				top := s.TopN(ctx, 10)
				So(len(top), ShouldEqual, 3)
				So(top[0], ShouldResemble, tally.Entry{Rank: 1, Identity: "Dave-area-52", Count: 3})
				So(top[1], ShouldResemble, tally.Entry{Rank: 2, Identity: "Bob-stormrage", Count: 2})
				So(top[2], ShouldResemble, tally.Entry{Rank: 3, Identity: "Carol", Count: 1})
			})

			Convey("Then TopN truncates to n", func() {
				top := s.TopN(ctx, 2)
				So(len(top), ShouldEqual, 2)
				So(top[1].Identity, ShouldEqual, "Bob-stormrage")
			})

			Convey("Then ties break on identity ascending", func() {
				s.Add(ctx, "Carol") // Carol now 2, tied with Bob-stormrage
				top := s.TopN(ctx, 10)
				So(top[1].Identity, ShouldEqual, "Bob-stormrage")
				So(top[2].Identity, ShouldEqual, "Carol")
			})

			Convey("Then Snapshot copies the mapping", func() {
				snap := s.Snapshot(ctx)
				So(snap["Bob-stormrage"], ShouldEqual, 2)

				snap["Bob-stormrage"] = 99
				So(s.Snapshot(ctx)["Bob-stormrage"], ShouldEqual, 2)
			})
		})

		Convey("When asking for a non-positive N", func() {
			s.Add(ctx, "Bob")

			Convey("Then TopN returns nothing", func() {
				So(s.TopN(ctx, 0), ShouldBeEmpty)
				So(s.TopN(ctx, -1), ShouldBeEmpty)
			})
		})
	})
}

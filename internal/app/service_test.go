package service_test

import (
	"context"
	"errors"
	"os"
	"testing"

	app "github.com/mythra/keymates/internal/app"
	"github.com/mythra/keymates/internal/domain/model"
	"github.com/mythra/keymates/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// fakeClient is a scriptable stand-in for the remote service client.
type fakeClient struct {
	characterID int64
	resolveErr  error

	dungeonIDs []int64
	dungeonErr error

	runsByDungeon map[int64][]model.Run

	bulkRuns []model.Run
	bulkErr  error

	rosters    map[int64][]model.RosterMember
	rosterErrs map[int64]error

	bulkCalls    int
	dungeonCalls int
	rosterCalls  []int64
}

func (f *fakeClient) ResolveCharacterID(_ context.Context, _, _, _ string) (int64, error) {
	if f.resolveErr != nil {
		return 0, f.resolveErr
	}
	return f.characterID, nil
}

func (f *fakeClient) DungeonIDs(_ context.Context, _, _, _ string) ([]int64, error) {
	f.dungeonCalls++
	if f.dungeonErr != nil {
		return nil, f.dungeonErr
	}
	return f.dungeonIDs, nil
}

func (f *fakeClient) RunsForDungeon(_ context.Context, _, dungeonID int64) ([]model.Run, error) {
	return f.runsByDungeon[dungeonID], nil
}

func (f *fakeClient) RunsForCharacter(_ context.Context, _ int64) ([]model.Run, error) {
	f.bulkCalls++
	if f.bulkErr != nil {
		return nil, f.bulkErr
	}
	return f.bulkRuns, nil
}

func (f *fakeClient) RunRoster(_ context.Context, runID int64) ([]model.RosterMember, error) {
	f.rosterCalls = append(f.rosterCalls, runID)
	if err, ok := f.rosterErrs[runID]; ok {
		return nil, err
	}
	return f.rosters[runID], nil
}

func TestPipelineRun(t *testing.T) {
	Convey("Given a character with two runs", t, func() {
		ctx := context.Background()

		client := &fakeClient{
			characterID: 42,
			dungeonIDs:  []int64{14032},
			runsByDungeon: map[int64][]model.Run{
				14032: {{ID: 100, ZoneID: 14032}, {ID: 101, ZoneID: 14032}},
			},
			rosters: map[int64][]model.RosterMember{
				100: {
					{Name: "Alice", Realm: "area-52"},
					{Name: "Bob", Realm: "stormrage"},
				},
				101: {
					{Name: "alice", Realm: "Area-52"},
					{Name: "Carol"},
				},
			},
		}

		svc := app.New(client, app.WithRosterDelay(0))

		Convey("When the pipeline runs for subject Alice", func() {
			report, err := svc.Run(ctx, "us", "area-52", "Alice")

			Convey("Then the mapping excludes Alice in every casing and realm form", func() {
				So(err, ShouldBeNil)
				So(report.TeammateCounts, ShouldResemble, map[string]int{
					"Bob-stormrage": 1,
					"Carol":         1,
				})
			})

			Convey("Then the report carries identity and counts", func() {
				So(report.Identity.ID, ShouldEqual, 42)
				So(report.Identity.Name, ShouldEqual, "Alice")
				So(report.RunsDiscovered, ShouldEqual, 2)
				So(report.RunsProcessed, ShouldEqual, 2)
				So(report.RostersSkipped, ShouldEqual, 0)
				So(len(report.Top), ShouldEqual, 2)
				So(report.Top[0].Rank, ShouldEqual, 1)
			})
		})
	})
}

func TestDiscoveryDeduplication(t *testing.T) {
	Convey("Given overlapping runs across dungeons", t, func() {
		ctx := context.Background()

		client := &fakeClient{
			characterID: 42,
			dungeonIDs:  []int64{1, 2},
			runsByDungeon: map[int64][]model.Run{
				1: {{ID: 100}, {ID: 101}, {}}, // last record has no extractable id
				2: {{ID: 101}, {ID: 102}},
			},
			rosters: map[int64][]model.RosterMember{
				100: {{Name: "Bob"}},
				101: {{Name: "Bob"}},
				102: {{Name: "Bob"}},
			},
		}

		svc := app.New(client, app.WithRosterDelay(0))

		Convey("When the pipeline runs", func() {
			report, err := svc.Run(ctx, "us", "area-52", "Alice")

			Convey("Then each run id is processed exactly once, first-seen order", func() {
				So(err, ShouldBeNil)
				So(report.RunsDiscovered, ShouldEqual, 3)
				So(client.rosterCalls, ShouldResemble, []int64{100, 101, 102})
				So(report.TeammateCounts["Bob"], ShouldEqual, 3)
			})
		})
	})
}

func TestBulkStrategy(t *testing.T) {
	Convey("Given the bulk discovery strategy", t, func() {
		ctx := context.Background()

		client := &fakeClient{
			characterID: 42,
			bulkRuns:    []model.Run{{ID: 100}, {ID: 100}, {ID: 101}},
			rosters: map[int64][]model.RosterMember{
				100: {{Name: "Bob"}},
				101: {{Name: "Carol"}},
			},
		}

		svc := app.New(client,
			app.WithStrategy(app.StrategyBulk),
			app.WithRosterDelay(0),
		)

		Convey("When the pipeline runs", func() {
			report, err := svc.Run(ctx, "us", "area-52", "Alice")

			Convey("Then one bulk call replaces dungeon enumeration", func() {
				So(err, ShouldBeNil)
				So(client.bulkCalls, ShouldEqual, 1)
				So(client.dungeonCalls, ShouldEqual, 0)
				So(report.RunsDiscovered, ShouldEqual, 2)
			})
		})
	})
}

func TestPartialFailure(t *testing.T) {
	Convey("Given a roster fetch that fails for one run", t, func() {
		ctx := context.Background()

		client := &fakeClient{
			characterID: 42,
			dungeonIDs:  []int64{1},
			runsByDungeon: map[int64][]model.Run{
				1: {{ID: 100}, {ID: 101}, {ID: 102}},
			},
			rosters: map[int64][]model.RosterMember{
				100: {{Name: "Bob"}},
				102: {{Name: "Bob"}},
			},
			rosterErrs: map[int64]error{
				101: errors.New("status 502"),
			},
		}

		svc := app.New(client, app.WithRosterDelay(0))

		Convey("When the pipeline runs", func() {
			report, err := svc.Run(ctx, "us", "area-52", "Alice")

			Convey("Then the failure never escapes the aggregation loop", func() {
				So(err, ShouldBeNil)
				So(report.RunsProcessed, ShouldEqual, 2)
				So(report.RostersSkipped, ShouldEqual, 1)
				So(report.TeammateCounts["Bob"], ShouldEqual, 2)
			})
		})
	})
}

func TestFatalStages(t *testing.T) {
	Convey("Given failures in the fatal stages", t, func() {
		ctx := context.Background()

		Convey("When identity resolution fails", func() {
			client := &fakeClient{resolveErr: errors.New("page structure changed")}
			svc := app.New(client, app.WithRosterDelay(0))

			_, err := svc.Run(ctx, "us", "area-52", "Alice")

			Convey("Then the pipeline aborts with the resolution kind", func() {
				So(errors.Is(err, app.ErrResolveIdentity), ShouldBeTrue)
			})
		})

		Convey("When the dungeon list fetch fails", func() {
			client := &fakeClient{characterID: 42, dungeonErr: errors.New("status 500")}
			svc := app.New(client, app.WithRosterDelay(0))

			_, err := svc.Run(ctx, "us", "area-52", "Alice")

			Convey("Then the pipeline aborts with the discovery kind", func() {
				So(errors.Is(err, app.ErrDiscovery), ShouldBeTrue)
			})
		})

		Convey("When the bulk fetch fails", func() {
			client := &fakeClient{characterID: 42, bulkErr: errors.New("status 500")}
			svc := app.New(client,
				app.WithStrategy(app.StrategyBulk),
				app.WithRosterDelay(0),
			)

			_, err := svc.Run(ctx, "us", "area-52", "Alice")

			So(errors.Is(err, app.ErrDiscovery), ShouldBeTrue)
		})
	})
}

func TestTopNCap(t *testing.T) {
	Convey("Given more teammates than the configured cap", t, func() {
		ctx := context.Background()

		client := &fakeClient{
			characterID: 42,
			dungeonIDs:  []int64{1},
			runsByDungeon: map[int64][]model.Run{
				1: {{ID: 100}},
			},
			rosters: map[int64][]model.RosterMember{
				100: {
					{Name: "Bob"}, {Name: "Carol"}, {Name: "Dave"}, {Name: "Erin"},
				},
			},
		}

		svc := app.New(client,
			app.WithRosterDelay(0),
			app.WithTopN(2),
		)

		Convey("When the pipeline runs", func() {
			report, err := svc.Run(ctx, "us", "area-52", "Alice")

			Convey("Then the ranked list is capped while the mapping is complete", func() {
				So(err, ShouldBeNil)
				So(len(report.Top), ShouldEqual, 2)
				So(len(report.TeammateCounts), ShouldEqual, 4)
			})
		})
	})
}

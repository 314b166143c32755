// Package extract holds the ordered extraction rules that project the
// service's weakly-typed payloads into domain entities.
//
// The remote service answers the same logical query with several distinct
// envelope and record shapes. Each rule set below is an explicit ordered
// sequence of probes tried in fixed priority order; the first match wins.
package extract

import (
	"sort"

	"github.com/tidwall/gjson"

	"github.com/mythra/keymates/internal/domain/model"
)

// runIDPaths is the priority order for the canonical run identifier.
var runIDPaths = []string{
	"keystone_run_id",
	"id",
	"summary.keystone_run_id",
	"summary.id",
}

// profileRunFields are the profile sections harvested for dungeon ids.
var profileRunFields = []string{
	"mythic_plus_best_runs",
	"mythic_plus_alternate_runs",
	"mythic_plus_recent_runs",
}

// RunID extracts the canonical run identifier from a run record.
// Returns 0 when no probe yields a positive id; such records are unusable.
func RunID(run gjson.Result) int64 {
	for _, path := range runIDPaths {
		if id := run.Get(path).Int(); id > 0 {
			return id
		}
	}
	return 0
}

// Run projects a raw run record into the typed domain run.
func Run(raw gjson.Result) model.Run {
	return model.Run{
		ID:          RunID(raw),
		ZoneID:      raw.Get("zone_id").Int(),
		MythicLevel: int(raw.Get("mythic_level").Int()),
	}
}

// Runs normalizes the run-list envelope: a bare array, or an object
// wrapping the list under "runs" or "data".
func Runs(root gjson.Result) []gjson.Result {
	if root.IsArray() {
		return root.Array()
	}
	if runs := root.Get("runs"); runs.IsArray() && len(runs.Array()) > 0 {
		return runs.Array()
	}
	if data := root.Get("data"); data.IsArray() {
		return data.Array()
	}
	return nil
}

// Roster extracts the participant list from a run-details payload.
// Shapes are tried in fixed priority order:
//  1. "roster" list, each member optionally wrapped under "character"
//  2. "participants" list used directly
//  3. "logged_details.encounters[*].roster[*]" with optional "character" unwrap
//  4. top-level "characters" list as last resort
//
// The first shape yielding at least one usable member wins; members without
// a name are dropped at this boundary.
func Roster(root gjson.Result) []model.RosterMember {
	if roster := root.Get("roster"); roster.IsArray() {
		if members := membersOf(roster.Array(), true); len(members) > 0 {
			return members
		}
	}

	if participants := root.Get("participants"); participants.IsArray() {
		if members := membersOf(participants.Array(), false); len(members) > 0 {
			return members
		}
	}

	var members []model.RosterMember
	for _, enc := range root.Get("logged_details.encounters").Array() {
		members = append(members, membersOf(enc.Get("roster").Array(), true)...)
	}
	if len(members) > 0 {
		return members
	}

	if characters := root.Get("characters"); characters.IsArray() {
		return membersOf(characters.Array(), false)
	}
	return nil
}

// membersOf projects raw roster entries, optionally unwrapping a nested
// "character" object first.
func membersOf(entries []gjson.Result, unwrap bool) []model.RosterMember {
	members := make([]model.RosterMember, 0, len(entries))
	for _, entry := range entries {
		raw := entry
		if unwrap {
			if char := entry.Get("character"); char.IsObject() {
				raw = char
			}
		}
		if member, ok := Member(raw); ok {
			members = append(members, member)
		}
	}
	return members
}

// Member projects one raw character object into a roster member.
// Returns false for entries lacking a usable name; those are expected noise
// in third-party data, not errors.
func Member(raw gjson.Result) (model.RosterMember, bool) {
	name := raw.Get("name").String()
	if name == "" {
		return model.RosterMember{}, false
	}
	return model.RosterMember{Name: name, Realm: realmOf(raw)}, true
}

// realmOf normalizes the realm value: a plain string, an object carrying
// "slug" or "name", a "realm_slug" fallback field, or nothing at all.
func realmOf(raw gjson.Result) string {
	realm := raw.Get("realm")
	switch {
	case realm.IsObject():
		if slug := realm.Get("slug").String(); slug != "" {
			return slug
		}
		return realm.Get("name").String()
	case realm.Type == gjson.String && realm.String() != "":
		return realm.String()
	default:
		return raw.Get("realm_slug").String()
	}
}

// ZoneIDs harvests the distinct dungeon/zone ids referenced by the
// profile's best, alternate, and recent run sections. Set semantics;
// returned sorted ascending for deterministic enumeration.
func ZoneIDs(profile gjson.Result) []int64 {
	seen := make(map[int64]struct{})
	for _, field := range profileRunFields {
		for _, run := range profile.Get(field).Array() {
			if zone := run.Get("zone_id").Int(); zone > 0 {
				seen[zone] = struct{}{}
			}
		}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Package model contains domain models passed between layers.
package model

// CharacterIdentity identifies the subject character once resolved.
// Immutable after resolution.
type CharacterIdentity struct {
	Region string
	Realm  string
	Name   string
	ID     int64 // numeric id scraped from the profile page
}

// Run represents a single keystone run surfaced by discovery.
// ID is the canonical run identifier; a zero ID means the record carried
// no extractable identifier and must be discarded, never mis-keyed.
type Run struct {
	ID          int64
	ZoneID      int64 // dungeon/zone the run took place in, when known
	MythicLevel int   // keystone level, when known
}

// Identified reports whether the run carries a usable identifier.
func (r Run) Identified() bool {
	return r.ID > 0
}

// RosterMember is one participant of a run. Realm is already normalized to
// a plain slug/name string; it is empty when the service supplied none.
type RosterMember struct {
	Name  string
	Realm string
}

// FullIdentity composes the normalized teammate identity used as the
// frequency-table key: "name-realm" when the realm is known, else "name".
func (m RosterMember) FullIdentity() string {
	if m.Realm == "" {
		return m.Name
	}
	return m.Name + "-" + m.Realm
}

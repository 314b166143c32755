// Package tally defines the teammate frequency store and ranked retrieval.
package tally

import (
	"context"
	"sort"
)

// Entry represents a ranked teammate row.
type Entry struct {
	Rank     int
	Identity string
	Count    int
}

// Store accumulates co-occurrence counts per teammate identity.
type Store interface {
	// Add increments the count for identity and returns the new count.
	Add(ctx context.Context, identity string) int

	// TopN returns the top-N entries ordered by count desc.
	// Ties break on identity ascending for deterministic output.
	TopN(ctx context.Context, n int) []Entry

	// Count returns the number of distinct identities tracked.
	Count(ctx context.Context) int

	// Snapshot returns a copy of the full identity -> count mapping.
	Snapshot(ctx context.Context) map[string]int
}

// mapStore implements Store with a plain map. The aggregation loop is the
// single writer, so no locking is needed; ranking is a sort at read time.
type mapStore struct {
	counts       map[string]int
	capacityHint int
}

// NewMapStore creates a new in-memory tally store.
func NewMapStore(opts ...Option) Store {
	s := &mapStore{
		capacityHint: 64,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.counts = make(map[string]int, s.capacityHint)
	return s
}

// Add increments the count for identity.
func (s *mapStore) Add(_ context.Context, identity string) int {
	s.counts[identity]++
	return s.counts[identity]
}

// TopN returns the top-N entries ordered by count desc, identity asc.
func (s *mapStore) TopN(_ context.Context, n int) []Entry {
	if n <= 0 {
		return nil
	}

	entries := make([]Entry, 0, len(s.counts))
	for identity, count := range s.counts {
		entries = append(entries, Entry{Identity: identity, Count: count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Identity < entries[j].Identity
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Count returns the number of distinct identities tracked.
func (s *mapStore) Count(_ context.Context) int {
	return len(s.counts)
}

// Snapshot returns a copy of the full mapping.
func (s *mapStore) Snapshot(_ context.Context) map[string]int {
	out := make(map[string]int, len(s.counts))
	for identity, count := range s.counts {
		out[identity] = count
	}
	return out
}

// Package dedupe tracks run identifiers already accepted by discovery.
package dedupe

import (
	"context"
)

// Deduper records seen run ids so that overlapping discovery paths
// (bulk fetch vs per-dungeon enumeration) surface each run exactly once.
type Deduper interface {
	// SeenAndRecord checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id int64) bool

	Size() int
}

// inMemoryDeduper implements Deduper with a plain map. Discovery is strictly
// sequential with a single writer, and a character's run history is small
// and bounded, so no locking or eviction is needed.
type inMemoryDeduper struct {
	seen         map[int64]struct{}
	capacityHint int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		capacityHint: 256,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[int64]struct{}, d.capacityHint)
	return d
}

// SeenAndRecord checks if id was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id int64) bool {
	if _, exists := d.seen[id]; exists {
		return true
	}
	d.seen[id] = struct{}{}
	return false
}

// Size returns the current number of recorded ids.
func (d *inMemoryDeduper) Size() int {
	return len(d.seen)
}

package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithCapacityHint pre-sizes the seen-id map for the expected run count.
func WithCapacityHint(hint int) Option {
	return func(d *inMemoryDeduper) {
		if hint > 0 {
			d.capacityHint = hint
		}
	}
}

package tally

// Option applies a configuration option to the map store.
type Option func(*mapStore)

// WithCapacityHint pre-sizes the counts map for the expected teammate pool.
func WithCapacityHint(hint int) Option {
	return func(s *mapStore) {
		if hint > 0 {
			s.capacityHint = hint
		}
	}
}

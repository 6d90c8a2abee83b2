package repository

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMaxEntries bounds the leaderboard; the lowest-ranked entry is dropped
// once the bound is exceeded. Zero or less means unbounded.
func WithMaxEntries(n int) Option {
	return func(s *TreapStore) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

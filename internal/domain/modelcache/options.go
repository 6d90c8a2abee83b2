package modelcache

import (
	"time"

	"github.com/okian/resonance/pkg/logger"
)

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithMaxSize sets the maximum number of cached models.
// If maxSize > 0: bounded mode, the oldest inserted model is evicted.
// If maxSize <= 0: unbounded mode.
func WithMaxSize(maxSize int) Option {
	return func(c *Cache) {
		c.maxSize = maxSize
	}
}

// WithTrainTimeout bounds a single training run. Zero or less disables the
// bound.
func WithTrainTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.trainTimeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

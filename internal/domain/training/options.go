package training

import (
	"github.com/okian/resonance/internal/domain/regress"
	"github.com/okian/resonance/pkg/logger"
)

// Option configures a Trainer.
type Option func(*Trainer)

// WithGBMConfig sets the gradient boosting parameters. Depth is capped at 6
// and tree count at 100.
func WithGBMConfig(cfg regress.GBMConfig) Option {
	return func(t *Trainer) {
		if cfg.MaxDepth > maxDepth {
			cfg.MaxDepth = maxDepth
		}
		if cfg.Trees > maxTrees {
			cfg.Trees = maxTrees
		}
		t.gbm = cfg
	}
}

// WithSeed pins the split and corpus randomness. Zero draws a fresh seed per
// pass.
func WithSeed(seed uint64) Option {
	return func(t *Trainer) {
		t.seed = seed
	}
}

// WithSamples sets the synthetic corpus size used by TrainAround.
func WithSamples(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.samples = n
		}
	}
}

// WithTestFraction sets the held-out fraction.
func WithTestFraction(f float64) Option {
	return func(t *Trainer) {
		if f > 0 && f < 1 {
			t.testFraction = f
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Trainer) {
		if l != nil {
			t.log = l
		}
	}
}

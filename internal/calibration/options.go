package calibration

import (
	"github.com/okian/resonance/internal/domain/regress"
	"github.com/okian/resonance/pkg/logger"
)

// Option configures a Calibrator.
type Option func(*Calibrator)

// WithSeed pins corpus generation, the split, folds and forest bootstraps.
func WithSeed(seed uint64) Option {
	return func(c *Calibrator) {
		c.seed = seed
	}
}

// WithWorkers sets the grid search worker count. Zero or less uses one
// worker per CPU.
func WithWorkers(n int) Option {
	return func(c *Calibrator) {
		c.workers = n
	}
}

// WithStep sets the blend weight discretization. It is validated by Calibrate.
func WithStep(step float64) Option {
	return func(c *Calibrator) {
		c.step = step
	}
}

// WithFolds sets the cross-validation fold count.
func WithFolds(k int) Option {
	return func(c *Calibrator) {
		if k > 1 {
			c.folds = k
		}
	}
}

// WithTopN sets how many grid candidates the report keeps.
func WithTopN(n int) Option {
	return func(c *Calibrator) {
		if n > 0 {
			c.topN = n
		}
	}
}

// WithForestConfig overrides the random forest parameters.
func WithForestConfig(cfg regress.ForestConfig) Option {
	return func(c *Calibrator) {
		c.forest = cfg
	}
}

// WithGBMConfig overrides the gradient boosting parameters.
func WithGBMConfig(cfg regress.GBMConfig) Option {
	return func(c *Calibrator) {
		c.gbm = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Calibrator) {
		if l != nil {
			c.log = l
		}
	}
}

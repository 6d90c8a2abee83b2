// Package config defines service configuration and its layered loading.
package config

import (
	"fmt"
	"math"
	"runtime"
)

// Model scopes.
const (
	// ScopeProcess trains one model per process and reuses it for every query.
	ScopeProcess = "process"
	// ScopeInput trains one model per distinct query vector.
	ScopeInput = "input"
)

const (
	maxGBMDepth = 6
	maxGBMTrees = 100
	weightSlack = 0.01
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// TrainingSamples is the synthetic corpus size per training pass.
	TrainingSamples int `koanf:"training_samples"`

	// TrainingSeed pins training randomness; 0 seeds each pass from entropy.
	TrainingSeed uint64 `koanf:"training_seed"`

	// ModelScope is ScopeProcess or ScopeInput.
	ModelScope string `koanf:"model_scope"`

	// ModelCacheSize bounds the number of per-input models kept.
	ModelCacheSize int `koanf:"model_cache_size"`

	GBMTrees        int     `koanf:"gbm_trees"`
	GBMMaxDepth     int     `koanf:"gbm_max_depth"`
	GBMLearningRate float64 `koanf:"gbm_learning_rate"`

	// StrictInvariants panics on invariant violations instead of falling back.
	StrictInvariants bool `koanf:"strict_invariants"`

	CalibrationSamples int     `koanf:"calibration_samples"`
	CalibrationSeed    uint64  `koanf:"calibration_seed"`
	CalibrationWorkers int     `koanf:"calibration_workers"`
	CalibrationStep    float64 `koanf:"calibration_step"`

	// BlendWeights is the ensemble weighting chosen by an offline calibration
	// run, keyed by model family.
	BlendWeights map[string]float64 `koanf:"blend_weights"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		TrainingSamples:    1000,
		ModelScope:         ScopeProcess,
		ModelCacheSize:     64,
		GBMTrees:           100,
		GBMMaxDepth:        3,
		GBMLearningRate:    0.1,
		CalibrationSamples: 2000,
		CalibrationSeed:    42,
		CalibrationWorkers: runtime.NumCPU(),
		CalibrationStep:    0.05,
		BlendWeights: map[string]float64{
			"random_forest":     0.35,
			"gradient_boosting": 0.45,
			"ridge":             0.1,
			"elastic_net":       0.1,
		},
	}
}

// Validate reports the first field outside its domain.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TrainingSamples <= 0:
		return fmt.Errorf("%w: training_samples must be positive", ErrInvalidConfig)
	case c.CalibrationSamples <= 0:
		return fmt.Errorf("%w: calibration_samples must be positive", ErrInvalidConfig)
	case c.GBMMaxDepth < 1 || c.GBMMaxDepth > maxGBMDepth:
		return fmt.Errorf("%w: gbm_max_depth must be in [1,%d]", ErrInvalidConfig, maxGBMDepth)
	case c.GBMTrees < 1 || c.GBMTrees > maxGBMTrees:
		return fmt.Errorf("%w: gbm_trees must be in [1,%d]", ErrInvalidConfig, maxGBMTrees)
	case c.GBMLearningRate <= 0 || c.GBMLearningRate > 1:
		return fmt.Errorf("%w: gbm_learning_rate must be in (0,1]", ErrInvalidConfig)
	case c.ModelScope != ScopeProcess && c.ModelScope != ScopeInput:
		return fmt.Errorf("%w: model_scope must be %q or %q", ErrInvalidConfig, ScopeProcess, ScopeInput)
	case c.CalibrationStep <= 0 || c.CalibrationStep > 1:
		return fmt.Errorf("%w: calibration_step must be in (0,1]", ErrInvalidConfig)
	}

	sum := 0.0
	for name, w := range c.BlendWeights {
		if w < 0 {
			return fmt.Errorf("%w: blend weight %s is negative", ErrInvalidConfig, name)
		}
		sum += w
	}
	if len(c.BlendWeights) > 0 && math.Abs(sum-1) > weightSlack {
		return fmt.Errorf("%w: blend weights sum to %v", ErrInvalidConfig, sum)
	}
	return nil
}

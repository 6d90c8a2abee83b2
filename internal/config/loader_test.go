package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/resonance/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.TrainingSamples, convey.ShouldEqual, 1000)
				convey.So(cfg.ModelScope, convey.ShouldEqual, config.ScopeProcess)
				convey.So(len(cfg.BlendWeights), convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RESONANCE_ADDR", ":8080")
			_ = os.Setenv("RESONANCE_TRAINING_SAMPLES", "500")
			_ = os.Setenv("RESONANCE_TRAINING_SEED", "7")
			_ = os.Setenv("RESONANCE_MODEL_SCOPE", "input")
			_ = os.Setenv("RESONANCE_STRICT_INVARIANTS", "true")
			_ = os.Setenv("RESONANCE_GBM_LEARNING_RATE", "0.2")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.TrainingSamples, convey.ShouldEqual, 500)
				convey.So(cfg.TrainingSeed, convey.ShouldEqual, 7)
				convey.So(cfg.ModelScope, convey.ShouldEqual, config.ScopeInput)
				convey.So(cfg.StrictInvariants, convey.ShouldBeTrue)
				convey.So(cfg.GBMLearningRate, convey.ShouldEqual, 0.2)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
training_samples: 2000
gbm_max_depth: 4
calibration_step: 0.1
blend_weights:
  gradient_boosting: 0.6
  ridge: 0.4
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RESONANCE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.TrainingSamples, convey.ShouldEqual, 2000)
				convey.So(cfg.GBMMaxDepth, convey.ShouldEqual, 4)
				convey.So(cfg.CalibrationStep, convey.ShouldEqual, 0.1)
			})

			convey.Convey("Then the configured blend should replace the default", func() {
				convey.So(cfg.BlendWeights, convey.ShouldResemble, map[string]float64{
					"gradient_boosting": 0.6,
					"ridge":             0.4,
				})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
training_samples: 2000
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RESONANCE_CONFIG", tmpFile)
			_ = os.Setenv("RESONANCE_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.TrainingSamples, convey.ShouldEqual, 2000)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile("addr: [unterminated\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("RESONANCE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RESONANCE_CONFIG", "/nonexistent/resonance.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("RESONANCE_TRAINING_SAMPLES", "many")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with an out-of-range value", func() {
			_ = os.Setenv("RESONANCE_GBM_MAX_DEPTH", "9")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"RESONANCE_CONFIG",
		"RESONANCE_ADDR",
		"RESONANCE_TRAINING_SAMPLES",
		"RESONANCE_TRAINING_SEED",
		"RESONANCE_MODEL_SCOPE",
		"RESONANCE_STRICT_INVARIANTS",
		"RESONANCE_GBM_LEARNING_RATE",
		"RESONANCE_GBM_MAX_DEPTH",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "resonance-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}

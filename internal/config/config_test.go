package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/resonance/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.TrainingSamples, convey.ShouldEqual, 1000)
			convey.So(cfg.TrainingSeed, convey.ShouldEqual, 0)
			convey.So(cfg.ModelScope, convey.ShouldEqual, config.ScopeProcess)
			convey.So(cfg.GBMTrees, convey.ShouldEqual, 100)
			convey.So(cfg.GBMMaxDepth, convey.ShouldEqual, 3)
			convey.So(cfg.CalibrationWorkers, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.CalibrationStep, convey.ShouldEqual, 0.05)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one field out of range", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"zero samples", func(c *config.Config) { c.TrainingSamples = 0 }},
			{"zero calibration samples", func(c *config.Config) { c.CalibrationSamples = 0 }},
			{"deep trees", func(c *config.Config) { c.GBMMaxDepth = 7 }},
			{"too many trees", func(c *config.Config) { c.GBMTrees = 101 }},
			{"no trees", func(c *config.Config) { c.GBMTrees = 0 }},
			{"zero learning rate", func(c *config.Config) { c.GBMLearningRate = 0 }},
			{"unknown scope", func(c *config.Config) { c.ModelScope = "global" }},
			{"zero step", func(c *config.Config) { c.CalibrationStep = 0 }},
			{"negative weight", func(c *config.Config) { c.BlendWeights["ridge"] = -0.1 }},
			{"unnormalised blend", func(c *config.Config) { c.BlendWeights["ridge"] = 0.5 }},
		}

		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)

			convey.Convey("Then "+tc.name+" should be rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}

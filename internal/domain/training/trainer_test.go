package training_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/okian/resonance/internal/domain/features"
	"github.com/okian/resonance/internal/domain/model"
	"github.com/okian/resonance/internal/domain/regress"
	"github.com/okian/resonance/internal/domain/synth"
	"github.com/okian/resonance/internal/domain/training"
	. "github.com/smartystreets/goconvey/convey"
)

func midVector() model.FeatureVector {
	var v model.FeatureVector
	for i := range v {
		v[i] = 5
	}
	v[features.NetWorthLog] = 2
	return v
}

func topFeatures(imp map[string]float64, k int) []string {
	names := make([]string, 0, len(imp))
	for n := range imp {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return imp[names[i]] > imp[names[j]] })
	return names[:k]
}

func TestTrainer(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded trainer", t, func() {
		tr := training.NewTrainer(training.WithSeed(5), training.WithSamples(300), training.WithGBMConfig(regress.GBMConfig{Trees: 20, MaxDepth: 3}))

		Convey("When training around a query vector", func() {
			m, err := tr.TrainAround(ctx, midVector())
			So(err, ShouldBeNil)

			Convey("Then the model should be fully populated", func() {
				So(m.ID, ShouldNotBeEmpty)
				So(m.Samples, ShouldEqual, 300)
				So(m.Degenerate, ShouldBeFalse)
				So(m.TrainedAt.IsZero(), ShouldBeFalse)
				So(len(m.Importance), ShouldEqual, model.NumFeatures)

				var sum float64
				for _, w := range m.Importance {
					So(w, ShouldBeGreaterThanOrEqualTo, 0)
					sum += w
				}
				So(sum, ShouldAlmostEqual, 1, 1e-9)
			})

			Convey("Then the same seed should reproduce the fit", func() {
				again, err := tr.TrainAround(ctx, midVector())
				So(err, ShouldBeNil)
				So(again.ID, ShouldNotEqual, m.ID)
				So(again.Importance, ShouldResemble, m.Importance)

				a, _ := m.Predict(midVector())
				b, _ := again.Predict(midVector())
				So(a, ShouldEqual, b)
			})
		})
	})

	Convey("Given a corpus with a strong prior signal", t, func() {
		samples := synth.NewSeeded(3, synth.WithFeatureNoise(2), synth.WithTargetNoise(1)).Generate(midVector(), 600)
		m, err := training.NewTrainer(training.WithSeed(8)).Train(ctx, samples)
		So(err, ShouldBeNil)

		Convey("Then the prior features should dominate importance", func() {
			So(topFeatures(m.Importance, 3), ShouldContain, "spotify_followers_log")
			So(topFeatures(m.Importance, 3), ShouldContain, "popularity")
			So(topFeatures(m.Importance, 3), ShouldContain, "net_worth_log")
			So(m.R2, ShouldBeGreaterThan, 0.7)
			So(m.RMSE, ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given a corpus with a constant target", t, func() {
		samples := make([]model.Sample, 50)
		for i := range samples {
			samples[i] = model.Sample{Features: midVector(), Target: 37.5}
			samples[i].Features[features.Energy] = float64(i % 10)
		}
		m, err := training.NewTrainer(training.WithSeed(1)).Train(ctx, samples)

		Convey("Then a constant-mean model should be returned", func() {
			So(err, ShouldBeNil)
			So(m.Degenerate, ShouldBeTrue)
			p, err := m.Predict(midVector())
			So(err, ShouldBeNil)
			So(p, ShouldEqual, 37.5)
			for _, w := range m.Importance {
				So(w, ShouldAlmostEqual, 1.0/float64(model.NumFeatures), 1e-12)
			}
		})
	})

	Convey("Given no samples", t, func() {
		_, err := training.NewTrainer().Train(ctx, nil)

		Convey("Then ErrEmptyCorpus should be returned", func() {
			So(errors.Is(err, training.ErrEmptyCorpus), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := training.NewTrainer(training.WithSamples(10)).TrainAround(cctx, midVector())

		Convey("Then training should stop with the context error", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given a nil model", t, func() {
		var m *training.FittedModel
		_, err := m.Predict(midVector())

		Convey("Then Predict should report it is not fitted", func() {
			So(errors.Is(err, regress.ErrNotFitted), ShouldBeTrue)
		})
	})
}

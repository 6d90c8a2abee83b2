// Package training fits the request-path regression model on a synthetic
// corpus.
//
// The corpus is drawn around the query point from a fixed prior, so the
// feature importances a FittedModel reports describe that prior and not any
// observed data. calibration.AuditPrior makes this measurable.
package training

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/resonance/internal/domain/features"
	"github.com/okian/resonance/internal/domain/model"
	"github.com/okian/resonance/internal/domain/regress"
	"github.com/okian/resonance/internal/domain/synth"
	"github.com/okian/resonance/pkg/logger"
	"github.com/okian/resonance/pkg/metrics"
	"gonum.org/v1/gonum/floats"
)

const (
	defaultSamples      = 1000
	defaultTestFraction = 0.2
	maxDepth            = 6
	maxTrees            = 100
)

// FittedModel is an immutable trained model. It is safe for concurrent use.
type FittedModel struct {
	ID         string
	Scaler     *regress.Scaler
	Regressor  regress.Regressor
	Importance map[string]float64
	R2         float64
	RMSE       float64
	Samples    int
	TrainedAt  time.Time
	// Degenerate is set when the corpus target had zero variance and the
	// model predicts the constant mean.
	Degenerate bool
}

// Predict scales v with the training scaler and returns the raw estimate.
func (m *FittedModel) Predict(v model.FeatureVector) (float64, error) {
	if m == nil || m.Regressor == nil {
		return 0, regress.ErrNotFitted
	}
	x, err := m.Scaler.Transform(v[:])
	if err != nil {
		return 0, err
	}
	return m.Regressor.Predict(x), nil
}

// Trainer fits gradient-boosted models. A Trainer holds no mutable state and
// may be shared.
type Trainer struct {
	gbm          regress.GBMConfig
	seed         uint64
	samples      int
	testFraction float64
	log          logger.Logger
}

// NewTrainer builds a Trainer with the given options.
func NewTrainer(opts ...Option) *Trainer {
	t := &Trainer{
		gbm:          regress.DefaultGBMConfig(),
		samples:      defaultSamples,
		testFraction: defaultTestFraction,
		log:          logger.Get().Named("trainer"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TrainAround generates a synthetic corpus around base and trains on it.
func (t *Trainer) TrainAround(ctx context.Context, base model.FeatureVector) (*FittedModel, error) {
	rng := t.rng()
	samples := synth.NewGenerator(rng).Generate(base, t.samples)
	return t.train(ctx, rng, samples)
}

// Train fits a model on samples using an 80/20 split. A corpus whose target
// has zero variance yields a constant-mean model rather than an error.
func (t *Trainer) Train(ctx context.Context, samples []model.Sample) (*FittedModel, error) {
	return t.train(ctx, t.rng(), samples)
}

func (t *Trainer) rng() *rand.Rand {
	seed := t.seed
	if seed == 0 {
		seed = rand.Uint64() //nolint:gosec // not security sensitive
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // seeded for reproducibility
}

func (t *Trainer) train(ctx context.Context, rng *rand.Rand, samples []model.Sample) (*FittedModel, error) {
	start := time.Now()
	if len(samples) == 0 {
		metrics.RecordTrainingFailure()
		return nil, ErrEmptyCorpus
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordTrainingFailure()
		return nil, fmt.Errorf("training cancelled: %w", err)
	}

	X := make([][]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		X[i] = s.Features.Slice()
		y[i] = s.Target
	}

	trainIdx, testIdx, err := regress.Split(rng, len(samples), t.testFraction)
	if err != nil {
		metrics.RecordTrainingFailure()
		return nil, fmt.Errorf("split corpus: %w", err)
	}
	xTrain, yTrain := regress.Take(X, y, trainIdx)
	xTest, yTest := regress.Take(X, y, testIdx)

	scaler, err := regress.FitScaler(xTrain)
	if err != nil {
		metrics.RecordTrainingFailure()
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	xTrainScaled, err := scaler.TransformAll(xTrain)
	if err != nil {
		metrics.RecordTrainingFailure()
		return nil, fmt.Errorf("scale train split: %w", err)
	}
	xTestScaled, err := scaler.TransformAll(xTest)
	if err != nil {
		metrics.RecordTrainingFailure()
		return nil, fmt.Errorf("scale test split: %w", err)
	}

	t.log.Info(ctx, "training started",
		logger.Int("samples", len(samples)),
		logger.Int("trees", t.gbm.Trees),
		logger.Int("max_depth", t.gbm.MaxDepth),
	)

	var (
		reg        regress.Regressor
		degenerate bool
	)
	if floats.Min(y) == floats.Max(y) {
		degenerate = true
		reg = regress.NewConstant(0, model.NumFeatures)
		t.log.Warn(ctx, "degenerate corpus, falling back to constant-mean model",
			logger.Int("samples", len(samples)),
			logger.Float64("target", y[0]),
		)
		metrics.RecordDegenerateCorpus()
	} else {
		reg = regress.NewGradientBoosting(t.gbm)
	}
	if err := reg.Fit(xTrainScaled, yTrain); err != nil {
		metrics.RecordTrainingFailure()
		return nil, fmt.Errorf("fit regressor: %w", err)
	}

	imp, err := importanceMap(reg)
	if err != nil {
		metrics.RecordTrainingFailure()
		return nil, err
	}

	pred := regress.PredictAll(reg, xTestScaled)
	m := &FittedModel{
		ID:         uuid.NewString(),
		Scaler:     scaler,
		Regressor:  reg,
		Importance: imp,
		R2:         regress.R2(yTest, pred),
		RMSE:       regress.RMSE(yTest, pred),
		Samples:    len(samples),
		TrainedAt:  time.Now(),
		Degenerate: degenerate,
	}

	took := time.Since(start)
	metrics.RecordTraining(float64(took.Milliseconds()), len(samples), m.R2)
	t.log.Info(ctx, "training finished",
		logger.String("model_id", m.ID),
		logger.Float64("r2", m.R2),
		logger.Float64("rmse", m.RMSE),
		logger.Bool("degenerate", degenerate),
		logger.Duration("took", took),
	)
	return m, nil
}

func importanceMap(reg regress.Regressor) (map[string]float64, error) {
	imp, ok := reg.(regress.Importancer)
	if !ok {
		return nil, fmt.Errorf("%w: %T reports no importances", ErrFeatureMismatch, reg)
	}
	weights := imp.Importance()
	if len(weights) != model.NumFeatures {
		return nil, fmt.Errorf("%w: %d importances for %d features", ErrFeatureMismatch, len(weights), model.NumFeatures)
	}
	out := make(map[string]float64, model.NumFeatures)
	for i, name := range features.Names {
		out[name] = weights[i]
	}
	return out, nil
}

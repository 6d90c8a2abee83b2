// Package calibration fits the four regressor families on a realistic
// synthetic corpus, validates the best one against its benchmark and searches
// blend weights over the held-out predictions. It runs offline; the request
// path only consumes the resulting weight constant.
package calibration

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/resonance/internal/domain/regress"
	"github.com/okian/resonance/internal/domain/synth"
	"github.com/okian/resonance/pkg/logger"
	"github.com/okian/resonance/pkg/metrics"
	"gonum.org/v1/gonum/stat"
)

// Model family names, in blend weight order.
const (
	RandomForest     = "random_forest"
	GradientBoosting = "gradient_boosting"
	Ridge            = "ridge"
	ElasticNet       = "elastic_net"
)

// ModelNames lists the families in the order their weights appear in a
// blend candidate.
var ModelNames = []string{RandomForest, GradientBoosting, Ridge, ElasticNet}

// Benchmarks is the reference R² per family.
var Benchmarks = map[string]float64{
	RandomForest:     0.85,
	GradientBoosting: 0.87,
	Ridge:            0.72,
	ElasticNet:       0.70,
}

const (
	// PassRatio is the share of the benchmark a model must reach.
	PassRatio = 0.9

	// WeightTolerance bounds how far a returned blend may sum away from 1.
	WeightTolerance = 0.01
)

const (
	testFraction    = 0.2
	minSamples      = 50
	defaultSamples  = 2000
	defaultSeed     = 42
	defaultStep     = 0.05
	defaultFolds    = 5
	defaultTopN     = 10
	ridgeAlpha      = 1.0
	elasticAlpha    = 0.1
	elasticL1Ratio  = 0.5
	stepGranularity = 1e-9
)

// DefaultSamples is the corpus size used when a caller has no preference.
const DefaultSamples = defaultSamples

// ModelReport holds one family's held-out and cross-validated scores.
type ModelReport struct {
	Name      string    `json:"name"`
	R2        float64   `json:"r2"`
	RMSE      float64   `json:"rmse"`
	MAE       float64   `json:"mae"`
	CVR2      float64   `json:"cv_r2"`
	CVStd     float64   `json:"cv_r2_std"`
	CVScores  []float64 `json:"cv_scores"`
	Benchmark float64   `json:"benchmark"`
	Passed    bool      `json:"passed"`
	BlendRank int       `json:"blend_rank"`
}

// Validation is the benchmark check of the best single model.
type Validation struct {
	Model     string  `json:"model"`
	R2        float64 `json:"r2"`
	Benchmark float64 `json:"benchmark"`
	Threshold float64 `json:"threshold"`
	Passed    bool    `json:"passed"`
}

// Blend is one evaluated weight combination.
type Blend struct {
	Rank    int                `json:"rank"`
	Weights map[string]float64 `json:"weights"`
	R2      float64            `json:"r2"`
}

// Report is the outcome of a calibration run. A model's BlendRank is the grid
// rank of the blend weighting that family alone.
type Report struct {
	RunID            string             `json:"run_id"`
	Samples          int                `json:"samples"`
	Seed             uint64             `json:"seed"`
	Step             float64            `json:"step"`
	Models           []ModelReport      `json:"models"`
	Validation       Validation         `json:"validation"`
	BestWeights      map[string]float64 `json:"best_weights"`
	BestR2           float64            `json:"best_r2"`
	Evaluated        int                `json:"evaluated"`
	Top              []Blend            `json:"top"`
	CandidatesPerSec float64            `json:"candidates_per_sec"`
	DurationMs       int64              `json:"duration_ms"`
}

// Calibrator runs the offline calibration.
type Calibrator struct {
	seed    uint64
	workers int
	step    float64
	folds   int
	topN    int
	forest  regress.ForestConfig
	gbm     regress.GBMConfig
	log     logger.Logger
}

// New returns a Calibrator with the default seed, step and model settings.
func New(opts ...Option) *Calibrator {
	c := &Calibrator{
		seed:   defaultSeed,
		step:   defaultStep,
		folds:  defaultFolds,
		topN:   defaultTopN,
		forest: regress.DefaultForestConfig(),
		gbm:    regress.DefaultGBMConfig(),
		log:    logger.Get().Named("calibration"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calibrate draws n samples, fits and scores every family, validates the
// best and grid-searches blend weights over the held-out predictions.
func (c *Calibrator) Calibrate(ctx context.Context, n int) (*Report, error) {
	start := time.Now()
	if n < minSamples {
		return nil, fmt.Errorf("%w: samples %d below %d", ErrInvalidConfig, n, minSamples)
	}
	units, err := stepUnits(c.step)
	if err != nil {
		return nil, err
	}

	rng := c.rng(0)
	samples := synth.NewCorpus(rng).Generate(n)
	X := make([][]float64, n)
	y := make([]float64, n)
	for i, s := range samples {
		X[i] = s.Features.Slice()
		y[i] = s.Target
	}

	trainIdx, testIdx, err := regress.Split(rng, n, testFraction)
	if err != nil {
		return nil, fmt.Errorf("split corpus: %w", err)
	}
	xTrain, yTrain := regress.Take(X, y, trainIdx)
	xTest, yTest := regress.Take(X, y, testIdx)

	scaler, err := regress.FitScaler(xTrain)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	if xTrain, err = scaler.TransformAll(xTrain); err != nil {
		return nil, fmt.Errorf("scale train split: %w", err)
	}
	if xTest, err = scaler.TransformAll(xTest); err != nil {
		return nil, fmt.Errorf("scale test split: %w", err)
	}

	c.log.Info(ctx, "calibration started",
		logger.Int("samples", n),
		logger.Int("train", len(trainIdx)),
		logger.Int("test", len(testIdx)),
		logger.Any("seed", c.seed),
	)

	report := &Report{
		RunID:   uuid.NewString(),
		Samples: n,
		Seed:    c.seed,
		Step:    c.step,
	}
	predictions := make([][]float64, len(ModelNames))
	for i, name := range ModelNames {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("calibration cancelled: %w", err)
		}
		mr, pred, err := c.evaluateModel(name, uint64(i+1), xTrain, yTrain, xTest, yTest)
		if err != nil {
			return nil, err
		}
		predictions[i] = pred
		report.Models = append(report.Models, mr)
		metrics.UpdateCalibrationModelR2(name, mr.R2)
		c.log.Info(ctx, "model evaluated",
			logger.String("model", name),
			logger.Float64("r2", mr.R2),
			logger.Float64("rmse", mr.RMSE),
			logger.Float64("mae", mr.MAE),
			logger.Float64("cv_r2", mr.CVR2),
			logger.Bool("passed", mr.Passed),
		)
	}
	report.Validation = validate(report.Models)

	grid, err := c.searchBlends(ctx, units, predictions, yTest)
	if err != nil {
		return nil, err
	}
	report.BestWeights = grid.best.Weights
	report.BestR2 = grid.best.R2
	report.Evaluated = grid.evaluated
	report.Top = grid.top
	report.CandidatesPerSec = grid.throughput
	for i := range report.Models {
		report.Models[i].BlendRank = grid.modelRanks[i]
	}
	report.DurationMs = time.Since(start).Milliseconds()

	metrics.UpdateCalibrationEnsembleR2(report.BestR2)
	c.log.Info(ctx, "calibration finished",
		logger.String("run_id", report.RunID),
		logger.String("best_model", report.Validation.Model),
		logger.Bool("validated", report.Validation.Passed),
		logger.Float64("ensemble_r2", report.BestR2),
		logger.Any("weights", report.BestWeights),
		logger.Int("evaluated", report.Evaluated),
		logger.Float64("candidates_per_sec", report.CandidatesPerSec),
		logger.Duration("took", time.Since(start)),
	)
	return report, nil
}

func (c *Calibrator) evaluateModel(name string, stream uint64, xTrain [][]float64, yTrain []float64, xTest [][]float64, yTest []float64) (ModelReport, []float64, error) {
	m := c.newModel(name, stream)
	if err := m.Fit(xTrain, yTrain); err != nil {
		return ModelReport{}, nil, fmt.Errorf("fit %s: %w", name, err)
	}
	pred := regress.PredictAll(m, xTest)

	var cvStream uint64
	scores, err := regress.CrossValidate(c.rng(stream<<8), func() regress.Regressor {
		cvStream++
		return c.newModel(name, stream<<8+cvStream)
	}, xTrain, yTrain, c.folds)
	if err != nil {
		return ModelReport{}, nil, fmt.Errorf("cross-validate %s: %w", name, err)
	}
	cvMean, cvStd := stat.PopMeanStdDev(scores, nil)

	r2 := regress.R2(yTest, pred)
	bench := Benchmarks[name]
	return ModelReport{
		Name:      name,
		R2:        r2,
		RMSE:      regress.RMSE(yTest, pred),
		MAE:       regress.MAE(yTest, pred),
		CVR2:      cvMean,
		CVStd:     cvStd,
		CVScores:  scores,
		Benchmark: bench,
		Passed:    r2 >= PassRatio*bench,
	}, pred, nil
}

func (c *Calibrator) newModel(name string, stream uint64) regress.Regressor {
	switch name {
	case RandomForest:
		return regress.NewRandomForest(c.forest, c.rng(stream))
	case GradientBoosting:
		return regress.NewGradientBoosting(c.gbm)
	case Ridge:
		return regress.NewRidge(ridgeAlpha)
	default:
		return regress.NewElasticNet(elasticAlpha, elasticL1Ratio)
	}
}

// rng derives an independent stream from the calibrator seed.
func (c *Calibrator) rng(stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(c.seed, stream)) //nolint:gosec // seeded for reproducibility
}

// validate checks the best single model against its benchmark.
func validate(models []ModelReport) Validation {
	best := models[0]
	for _, m := range models[1:] {
		if m.R2 > best.R2 {
			best = m
		}
	}
	threshold := PassRatio * best.Benchmark
	return Validation{
		Model:     best.Name,
		R2:        best.R2,
		Benchmark: best.Benchmark,
		Threshold: threshold,
		Passed:    best.R2 >= threshold,
	}
}

// stepUnits returns 1/step, requiring it to be a whole number.
func stepUnits(step float64) (int, error) {
	if !(step > 0 && step <= 1) {
		return 0, fmt.Errorf("%w: step %v outside (0,1]", ErrInvalidConfig, step)
	}
	u := math.Round(1 / step)
	if math.Abs(u*step-1) > stepGranularity*u {
		return 0, fmt.Errorf("%w: step %v does not divide 1", ErrInvalidConfig, step)
	}
	return int(u), nil
}

// Package service is the explicit context object built once at process start.
// It owns the model cache and the stateless scoring components and is shared
// by every request handler.
package service

import (
	"context"
	"fmt"
	"maps"
	"sync/atomic"
	"time"

	"github.com/okian/resonance/internal/config"
	"github.com/okian/resonance/internal/domain/features"
	"github.com/okian/resonance/internal/domain/insight"
	"github.com/okian/resonance/internal/domain/model"
	"github.com/okian/resonance/internal/domain/modelcache"
	"github.com/okian/resonance/internal/domain/regress"
	"github.com/okian/resonance/internal/domain/scoring"
	"github.com/okian/resonance/internal/domain/tier"
	"github.com/okian/resonance/internal/domain/training"
	"github.com/okian/resonance/pkg/logger"
	"github.com/okian/resonance/pkg/metrics"
)

// ModelInfo summarises a fitted model.
type ModelInfo struct {
	ID         string    `json:"model_id"`
	Key        string    `json:"key"`
	R2         float64   `json:"r2"`
	RMSE       float64   `json:"rmse"`
	Samples    int       `json:"samples"`
	Degenerate bool      `json:"degenerate"`
	TrainedAt  time.Time `json:"trained_at"`
}

// Service implements the resonance and tier operations.
type Service struct {
	cache       *modelcache.Cache
	trainer     *training.Trainer
	predictor   *scoring.Predictor
	synthesizer *insight.Synthesizer

	scope        string
	blendWeights map[string]float64

	startedAt time.Time
	requests  atomic.Int64
	fallbacks atomic.Int64
	tiers     atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTrainer sets the trainer used on cache misses and retrains.
func WithTrainer(t *training.Trainer) Option {
	return func(s *Service) {
		if t != nil {
			s.trainer = t
		}
	}
}

// WithPredictor sets the predictor.
func WithPredictor(p *scoring.Predictor) Option {
	return func(s *Service) {
		if p != nil {
			s.predictor = p
		}
	}
}

// WithCache sets the model cache.
func WithCache(c *modelcache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithScope selects per-process or per-input models.
func WithScope(scope string) Option {
	return func(s *Service) {
		if scope == config.ScopeProcess || scope == config.ScopeInput {
			s.scope = scope
		}
	}
}

// WithBlendWeights records the deployed ensemble weighting.
func WithBlendWeights(w map[string]float64) Option {
	return func(s *Service) {
		s.blendWeights = maps.Clone(w)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Components not supplied by options get their
// defaults.
func New(opts ...Option) *Service {
	s := &Service{
		scope:     config.ScopeProcess,
		startedAt: time.Now(),
		logger:    logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = modelcache.New()
	}
	if s.trainer == nil {
		s.trainer = training.NewTrainer()
	}
	if s.predictor == nil {
		s.predictor = scoring.NewPredictor()
	}
	s.synthesizer = insight.NewSynthesizer()
	return s
}

// FromConfig builds a Service wired from cfg.
func FromConfig(cfg *config.Config) *Service {
	trainer := training.NewTrainer(
		training.WithSamples(cfg.TrainingSamples),
		training.WithSeed(cfg.TrainingSeed),
		training.WithGBMConfig(gbmConfig(cfg)),
	)
	return New(
		WithTrainer(trainer),
		WithPredictor(scoring.NewPredictor(scoring.WithStrictInvariants(cfg.StrictInvariants))),
		WithCache(modelcache.New(modelcache.WithMaxSize(cfg.ModelCacheSize))),
		WithScope(cfg.ModelScope),
		WithBlendWeights(cfg.BlendWeights),
	)
}

// Resonance scores artist, with comparable as the reference for scale and
// positioning. It always returns a complete result: any failure yields the
// neutral fallback.
func (s *Service) Resonance(ctx context.Context, artist, comparable model.MetricsRecord) model.ResonanceResult {
	s.requests.Add(1)

	artist = withTierScore(artist)
	v := features.Vectorize(artist)
	key := s.key(v)

	m, err := s.cache.GetOrTrain(ctx, key, func(ctx context.Context) (*training.FittedModel, error) {
		return s.trainer.TrainAround(ctx, v)
	})
	if err != nil {
		s.logger.Warn(ctx, "no model available", logger.String("key", key), logger.Error(err))
	}

	res := s.predictor.Predict(ctx, m, v, artist)
	if res.Fallback {
		s.fallbacks.Add(1)
		return res
	}
	res.Insights = s.synthesizer.Synthesize(v, res.FeatureImportance, res.PredictedScore, artist, comparable)
	return res
}

// Tier classifies rec.
func (s *Service) Tier(ctx context.Context, rec model.MetricsRecord) model.TierResult {
	s.tiers.Add(1)
	res := tier.Classify(rec)
	metrics.RecordTierClassification(res.Tier)
	s.logger.Debug(ctx, "tier classified",
		logger.String("tier", res.Tier),
		logger.Float64("composite", res.CompositeScore),
	)
	return res
}

// Retrain trains a fresh model for the key rec maps to and replaces the
// cached one.
func (s *Service) Retrain(ctx context.Context, rec model.MetricsRecord) (ModelInfo, error) {
	v := features.Vectorize(withTierScore(rec))
	key := s.key(v)
	m, err := s.cache.Retrain(ctx, key, func(ctx context.Context) (*training.FittedModel, error) {
		return s.trainer.TrainAround(ctx, v)
	})
	if err != nil {
		return ModelInfo{}, fmt.Errorf("retrain %s: %w", key, err)
	}
	return ModelInfo{
		ID:         m.ID,
		Key:        key,
		R2:         m.R2,
		RMSE:       m.RMSE,
		Samples:    m.Samples,
		Degenerate: m.Degenerate,
		TrainedAt:  m.TrainedAt,
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"model_scope":    s.scope,
		"cached_models":  s.cache.Len(),
		"trainings":      s.cache.Trainings(),
		"requests":       s.requests.Load(),
		"fallbacks":      s.fallbacks.Load(),
		"tier_requests":  s.tiers.Load(),
		"blend_weights":  maps.Clone(s.blendWeights),
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
	}
}

func (s *Service) key(v model.FeatureVector) string {
	if s.scope == config.ScopeInput {
		return modelcache.Fingerprint(v)
	}
	return modelcache.ProcessKey
}

// withTierScore fills an absent tier score from the classifier's composite.
func withTierScore(rec model.MetricsRecord) model.MetricsRecord {
	if rec.TierScore == nil {
		rec.TierScore = model.Float(tier.Classify(rec).CompositeScore)
	}
	return rec
}

func gbmConfig(cfg *config.Config) regress.GBMConfig {
	return regress.GBMConfig{
		Trees:        cfg.GBMTrees,
		MaxDepth:     cfg.GBMMaxDepth,
		LearningRate: cfg.GBMLearningRate,
	}
}

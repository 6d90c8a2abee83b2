// Package scoring turns a fitted model and a query vector into a bounded
// resonance score with a heuristic confidence band.
package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/resonance/internal/domain/model"
	"github.com/okian/resonance/internal/domain/training"
	"github.com/okian/resonance/pkg/logger"
	"github.com/okian/resonance/pkg/metrics"
)

// Scoring constants.
const (
	minScore     = 0.0
	maxScore     = 100.0
	neutralScore = 50.0

	baseConfidence  = 50.0
	confidenceBonus = 10.0
	maxConfidence   = 95.0

	minHalfWidth      = 5.0
	baseHalfWidth     = 20.0
	halfWidthPerPoint = 0.15

	followerThreshold   = 1000
	subscriberThreshold = 1000
	popularityThreshold = 0

	importanceTolerance = 1e-6
)

// Fallback reasons.
const (
	ReasonModelUnavailable = "model_unavailable"
	ReasonInvariant        = "invariant_violation"
)

// Predictor scores query vectors. It holds no mutable state and is safe for
// concurrent use.
type Predictor struct {
	strict bool
	log    logger.Logger
}

// NewPredictor creates a Predictor with configuration options.
func NewPredictor(opts ...Option) *Predictor {
	p := &Predictor{
		log: logger.Get().Named("predictor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict scores v with m. The score is clipped to [0,100]; confidence
// reflects how complete rec is, not statistical certainty. Insights are left
// empty for the synthesizer to fill.
//
// Predict never returns an error: an absent model or a failed prediction
// yields Fallback(ReasonModelUnavailable), and an invariant violation yields
// Fallback(ReasonInvariant) unless strict mode is on, in which case it panics.
func (p *Predictor) Predict(ctx context.Context, m *training.FittedModel, v model.FeatureVector, rec model.MetricsRecord) model.ResonanceResult {
	start := time.Now()
	defer func() {
		metrics.RecordPredictionLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	raw, err := m.Predict(v)
	if err != nil {
		p.log.Warn(ctx, "prediction failed, using fallback", logger.Error(err))
		return p.fallback(ReasonModelUnavailable)
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return p.violation(ctx, fmt.Errorf("%w: non-finite prediction %v", ErrInvariant, raw))
	}

	score := clip(raw, minScore, maxScore)
	conf := Confidence(rec)
	res := model.ResonanceResult{
		PredictedScore:     score,
		ConfidenceInterval: Interval(score, conf),
		Confidence:         conf,
		FeatureImportance:  copyImportance(m.Importance),
		ModelID:            m.ID,
	}
	if err := Check(res); err != nil {
		return p.violation(ctx, err)
	}
	metrics.RecordPrediction(score)
	return res
}

// Fallback returns the neutral, fully populated result used when no model can
// serve a request: score 50, interval [0,100], confidence 50, no importances
// and generic insights.
func Fallback(reason string) model.ResonanceResult {
	return model.ResonanceResult{
		PredictedScore:     neutralScore,
		ConfidenceInterval: [2]float64{minScore, maxScore},
		Confidence:         baseConfidence,
		FeatureImportance:  map[string]float64{},
		Insights:           genericInsights(reason),
		Fallback:           true,
	}
}

// Confidence is 50 plus 10 for each present signal (followers over 1000,
// positive popularity, subscribers over 1000, positive net worth, any genre),
// capped at 95.
func Confidence(rec model.MetricsRecord) float64 {
	c := baseConfidence
	if present(rec.SpotifyFollowers, followerThreshold) {
		c += confidenceBonus
	}
	if present(rec.Popularity, popularityThreshold) {
		c += confidenceBonus
	}
	if present(rec.YouTubeSubscribers, subscriberThreshold) {
		c += confidenceBonus
	}
	if present(rec.NetWorthMillions, 0) {
		c += confidenceBonus
	}
	if len(rec.Genres) > 0 {
		c += confidenceBonus
	}
	return math.Min(c, maxConfidence)
}

// HalfWidth is max(5, 20 - 0.15*confidence).
func HalfWidth(confidence float64) float64 {
	return math.Max(minHalfWidth, baseHalfWidth-halfWidthPerPoint*confidence)
}

// Interval is the heuristic band score ± HalfWidth(confidence) clipped to
// [0,100]. It is an uncertainty proxy, not a calibrated statistical interval.
func Interval(score, confidence float64) [2]float64 {
	hw := HalfWidth(confidence)
	return [2]float64{
		clip(score-hw, minScore, maxScore),
		clip(score+hw, minScore, maxScore),
	}
}

// Check validates the output invariants of r.
func Check(r model.ResonanceResult) error {
	lo, hi := r.ConfidenceInterval[0], r.ConfidenceInterval[1]
	switch {
	case !finite(r.PredictedScore) || !finite(lo) || !finite(hi) || !finite(r.Confidence):
		return fmt.Errorf("%w: non-finite output", ErrInvariant)
	case r.PredictedScore < minScore || r.PredictedScore > maxScore:
		return fmt.Errorf("%w: score %v outside [0,100]", ErrInvariant, r.PredictedScore)
	case lo < minScore || hi > maxScore:
		return fmt.Errorf("%w: interval [%v,%v] outside [0,100]", ErrInvariant, lo, hi)
	case lo > r.PredictedScore || r.PredictedScore > hi:
		return fmt.Errorf("%w: interval [%v,%v] does not bracket %v", ErrInvariant, lo, hi, r.PredictedScore)
	case r.Confidence < minScore || r.Confidence > maxScore:
		return fmt.Errorf("%w: confidence %v outside [0,100]", ErrInvariant, r.Confidence)
	}
	if len(r.FeatureImportance) > 0 {
		var sum float64
		for _, w := range r.FeatureImportance {
			sum += w
		}
		if math.Abs(sum-1) > importanceTolerance {
			return fmt.Errorf("%w: importances sum to %v", ErrInvariant, sum)
		}
	}
	return nil
}

func (p *Predictor) violation(ctx context.Context, err error) model.ResonanceResult {
	if p.strict {
		panic(err)
	}
	p.log.Error(ctx, "invariant violated, using fallback", logger.Error(err))
	return p.fallback(ReasonInvariant)
}

func (p *Predictor) fallback(reason string) model.ResonanceResult {
	metrics.RecordPredictionFallback(reason)
	return Fallback(reason)
}

func genericInsights(reason string) model.InsightBundle {
	return model.InsightBundle{
		DrivingFactors: []model.DrivingFactor{},
		GrowthPotential: model.GrowthPotential{
			ShortTerm:  0.3 * neutralScore,
			MediumTerm: 0.6 * neutralScore,
			LongTerm:   0.9 * neutralScore,
		},
		RiskAssessment: model.RiskAssessment{
			Level: model.RiskMedium,
			Factors: []model.RiskFactor{{
				Factor:     "Limited model insight (" + reason + ")",
				Severity:   model.RiskMedium,
				Mitigation: "Provide more complete platform metrics and retry",
			}},
		},
		MarketTiming: model.MarketTiming{
			Window:         "unknown",
			Recommendation: "Gather more data before committing to a release plan",
		},
		CompetitivePosition: model.PositionEmerging,
	}
}

func copyImportance(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func present(p *float64, threshold float64) bool {
	return p != nil && finite(*p) && *p > threshold
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func clip(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

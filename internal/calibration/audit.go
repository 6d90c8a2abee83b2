package calibration

import (
	"context"
	"fmt"

	"github.com/okian/resonance/internal/domain/features"
	"github.com/okian/resonance/internal/domain/model"
	"github.com/okian/resonance/internal/domain/synth"
	"github.com/okian/resonance/pkg/logger"
	"github.com/sajari/regression"
)

// PriorAudit compares an ordinary least squares fit of the request-path
// corpus with the generator's built-in prior. Close agreement shows that
// what the trainer learns around a query point is the prior itself.
type PriorAudit struct {
	Samples      int                `json:"samples"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
	Prior        map[string]float64 `json:"prior"`
	R2           float64            `json:"r2"`
}

// AuditPrior draws n request-path samples around base and fits them with OLS.
func (c *Calibrator) AuditPrior(ctx context.Context, base model.FeatureVector, n int, opts ...synth.Option) (*PriorAudit, error) {
	if n <= model.NumFeatures+1 {
		return nil, fmt.Errorf("%w: audit needs more than %d samples, got %d", ErrInvalidConfig, model.NumFeatures+1, n)
	}
	samples := synth.NewGenerator(c.rng(0), opts...).Generate(base, n)

	var r regression.Regression
	r.SetObserved("target")
	for i, name := range features.Names {
		r.SetVar(i, name)
	}
	for _, s := range samples {
		r.Train(regression.DataPoint(s.Target, s.Features.Slice()))
	}
	if err := r.Run(); err != nil {
		return nil, fmt.Errorf("fit prior audit: %w", err)
	}

	coeffs := r.GetCoeffs()
	audit := &PriorAudit{
		Samples:      n,
		Intercept:    coeffs[0],
		Coefficients: make(map[string]float64, model.NumFeatures),
		Prior:        synth.PriorWeights(),
		R2:           r.R2,
	}
	for i, name := range features.Names {
		audit.Coefficients[name] = coeffs[i+1]
	}

	c.log.Info(ctx, "prior audit finished",
		logger.Int("samples", n),
		logger.Float64("intercept", audit.Intercept),
		logger.Float64("r2", audit.R2),
	)
	return audit, nil
}

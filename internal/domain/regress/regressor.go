// Package regress holds the regression primitives used by the trainer and the
// calibrator: feature scaling, data splits, tree ensembles, regularised linear
// models and goodness-of-fit metrics.
//
// Fitted models are read-only and safe for concurrent Predict calls.
package regress

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Regressor is a fitted or fittable single-output regression model.
type Regressor interface {
	// Fit trains on rows X and targets y.
	Fit(X [][]float64, y []float64) error
	// Predict returns the estimate for a single row.
	Predict(x []float64) float64
}

// Importancer is implemented by models that report per-feature importances.
// Importances are non-negative and sum to 1.
type Importancer interface {
	Importance() []float64
}

// PredictAll applies r to every row of X.
func PredictAll(r Regressor, X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = r.Predict(x)
	}
	return out
}

// Constant predicts a fixed value. It is the fallback for degenerate corpora.
type Constant struct {
	Value     float64
	nFeatures int
}

// NewConstant returns a Constant over nFeatures inputs.
func NewConstant(value float64, nFeatures int) *Constant {
	return &Constant{Value: value, nFeatures: nFeatures}
}

// Fit sets Value to the mean of y.
func (c *Constant) Fit(X [][]float64, y []float64) error {
	p, err := checkXY(X, y, 1)
	if err != nil {
		return err
	}
	c.Value = floats.Sum(y) / float64(len(y))
	c.nFeatures = p
	return nil
}

// Predict returns Value.
func (c *Constant) Predict([]float64) float64 { return c.Value }

// Importance is uniform: a constant model attributes nothing to any feature.
func (c *Constant) Importance() []float64 {
	return normalize(make([]float64, c.nFeatures))
}

// checkXY validates shapes and returns the feature count.
func checkXY(X [][]float64, y []float64, minRows int) (int, error) {
	if len(X) != len(y) {
		return 0, fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(X), len(y))
	}
	if len(X) < minRows {
		return 0, fmt.Errorf("%w: %d rows, need %d", ErrTooFewSamples, len(X), minRows)
	}
	p := len(X[0])
	for i, row := range X {
		if len(row) != p {
			return 0, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), p)
		}
	}
	return p, nil
}

// normalize returns a copy of v scaled to sum to 1, or a uniform vector when
// v sums to zero.
func normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	if len(v) == 0 {
		return out
	}
	copy(out, v)
	s := floats.Sum(out)
	if s <= 0 {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out
	}
	floats.Scale(1/s, out)
	return out
}

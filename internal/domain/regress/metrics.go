package regress

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// R2 is the coefficient of determination of pred against truth. Undefined
// cases (fewer than two rows, constant truth) report 0.
func R2(truth, pred []float64) float64 {
	if len(truth) < 2 || len(truth) != len(pred) {
		return 0
	}
	r := stat.RSquaredFrom(pred, truth, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// RMSE is the root mean squared error.
func RMSE(truth, pred []float64) float64 {
	if len(truth) == 0 || len(truth) != len(pred) {
		return 0
	}
	return floats.Distance(truth, pred, 2) / math.Sqrt(float64(len(truth)))
}

// MAE is the mean absolute error.
func MAE(truth, pred []float64) float64 {
	if len(truth) == 0 || len(truth) != len(pred) {
		return 0
	}
	return floats.Distance(truth, pred, 1) / float64(len(truth))
}

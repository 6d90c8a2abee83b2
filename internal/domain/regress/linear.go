package regress

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// linear holds a fitted intercept and coefficients.
type linear struct {
	intercept float64
	coef      []float64
}

// Predict returns intercept + coef·x.
func (l *linear) Predict(x []float64) float64 {
	if len(l.coef) == 0 {
		return l.intercept
	}
	return l.intercept + floats.Dot(l.coef, x)
}

// Coefficients returns a copy of the fitted coefficients.
func (l *linear) Coefficients() []float64 {
	out := make([]float64, len(l.coef))
	copy(out, l.coef)
	return out
}

// Intercept returns the fitted intercept.
func (l *linear) Intercept() float64 { return l.intercept }

// Importance is the normalised absolute coefficient; it is meaningful on
// standardised inputs.
func (l *linear) Importance() []float64 {
	abs := make([]float64, len(l.coef))
	for i, c := range l.coef {
		abs[i] = math.Abs(c)
	}
	return normalize(abs)
}

// centered returns X and y minus their column means, with the means.
func centered(X [][]float64, y []float64, p int) (xc *mat.Dense, yc []float64, xMean []float64, yMean float64) {
	n := len(y)
	xMean = make([]float64, p)
	for _, row := range X {
		floats.Add(xMean, row)
	}
	floats.Scale(1/float64(n), xMean)
	yMean = floats.Sum(y) / float64(n)

	xc = mat.NewDense(n, p, nil)
	yc = make([]float64, n)
	for i, row := range X {
		for j, v := range row {
			xc.Set(i, j, v-xMean[j])
		}
		yc[i] = y[i] - yMean
	}
	return xc, yc, xMean, yMean
}

// Ridge is least squares with an L2 penalty Alpha·‖w‖², solved in closed
// form on centred data.
type Ridge struct {
	linear
	Alpha float64
}

// NewRidge returns an unfitted ridge model.
func NewRidge(alpha float64) *Ridge {
	return &Ridge{Alpha: alpha}
}

// Fit solves (XᵀX + αI)w = Xᵀy.
func (r *Ridge) Fit(X [][]float64, y []float64) error {
	p, err := checkXY(X, y, 2)
	if err != nil {
		return err
	}
	xc, yc, xMean, yMean := centered(X, y, p)

	var gram mat.Dense
	gram.Mul(xc.T(), xc)
	for j := 0; j < p; j++ {
		gram.Set(j, j, gram.At(j, j)+r.Alpha)
	}
	var rhs mat.VecDense
	rhs.MulVec(xc.T(), mat.NewVecDense(len(yc), yc))

	var w mat.VecDense
	if err := w.SolveVec(&gram, &rhs); err != nil {
		return fmt.Errorf("ridge solve: %w", err)
	}
	r.coef = make([]float64, p)
	for j := range r.coef {
		r.coef[j] = w.AtVec(j)
	}
	r.intercept = yMean - floats.Dot(r.coef, xMean)
	return nil
}

// ElasticNet minimises
//
//	1/(2n)‖y − Xw‖² + α·ρ·‖w‖₁ + α·(1−ρ)/2·‖w‖²
//
// by cyclic coordinate descent, where ρ is L1Ratio.
type ElasticNet struct {
	linear
	Alpha   float64
	L1Ratio float64
	MaxIter int
	Tol     float64
}

// NewElasticNet returns an unfitted elastic net.
func NewElasticNet(alpha, l1Ratio float64) *ElasticNet {
	return &ElasticNet{Alpha: alpha, L1Ratio: l1Ratio, MaxIter: 1000, Tol: 1e-4}
}

// Fit runs coordinate descent until the largest coefficient update drops
// below Tol or MaxIter sweeps complete.
func (e *ElasticNet) Fit(X [][]float64, y []float64) error {
	p, err := checkXY(X, y, 2)
	if err != nil {
		return err
	}
	n := float64(len(y))
	xc, yc, xMean, yMean := centered(X, y, p)

	cols := make([][]float64, p)
	colNorm := make([]float64, p)
	for j := range cols {
		cols[j] = mat.Col(nil, j, xc)
		colNorm[j] = floats.Dot(cols[j], cols[j]) / n
	}
	l1 := e.Alpha * e.L1Ratio
	l2 := e.Alpha * (1 - e.L1Ratio)

	w := make([]float64, p)
	resid := make([]float64, len(yc))
	copy(resid, yc)
	for iter := 0; iter < e.MaxIter; iter++ {
		var maxDelta float64
		for j := 0; j < p; j++ {
			if colNorm[j] == 0 {
				continue
			}
			old := w[j]
			rho := floats.Dot(cols[j], resid)/n + colNorm[j]*old
			w[j] = softThreshold(rho, l1) / (colNorm[j] + l2)
			if delta := w[j] - old; delta != 0 {
				floats.AddScaled(resid, -delta, cols[j])
				maxDelta = math.Max(maxDelta, math.Abs(delta))
			}
		}
		if maxDelta < e.Tol {
			break
		}
	}
	e.coef = w
	e.intercept = yMean - floats.Dot(w, xMean)
	return nil
}

func softThreshold(x, lambda float64) float64 {
	switch {
	case x > lambda:
		return x - lambda
	case x < -lambda:
		return x + lambda
	default:
		return 0
	}
}

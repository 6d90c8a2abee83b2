package regress

import (
	"fmt"
	"math/rand/v2"
)

// Split partitions n row indexes into a shuffled train set and a test set of
// round(n*testFraction) rows. Both sides get at least one row.
func Split(rng *rand.Rand, n int, testFraction float64) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: %d rows cannot be split", ErrTooFewSamples, n)
	}
	perm := rng.Perm(n)
	nTest := int(float64(n)*testFraction + 0.5)
	if nTest < 1 {
		nTest = 1
	}
	if nTest > n-1 {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest], nil
}

// KFold returns k disjoint shuffled folds covering n rows.
func KFold(rng *rand.Rand, n, k int) ([][]int, error) {
	if k < 2 || n < k {
		return nil, fmt.Errorf("%w: %d rows into %d folds", ErrTooFewSamples, n, k)
	}
	perm := rng.Perm(n)
	folds := make([][]int, k)
	for i, idx := range perm {
		folds[i%k] = append(folds[i%k], idx)
	}
	return folds, nil
}

// Take gathers the rows and targets at idx.
func Take(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = X[j]
		ys[i] = y[j]
	}
	return xs, ys
}

// CrossValidate fits a fresh model from newModel on each k-1 fold union and
// returns the R² on each held-out fold.
func CrossValidate(rng *rand.Rand, newModel func() Regressor, X [][]float64, y []float64, k int) ([]float64, error) {
	if _, err := checkXY(X, y, k); err != nil {
		return nil, err
	}
	folds, err := KFold(rng, len(y), k)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, k)
	for f, held := range folds {
		var trainIdx []int
		for g, other := range folds {
			if g != f {
				trainIdx = append(trainIdx, other...)
			}
		}
		xTrain, yTrain := Take(X, y, trainIdx)
		xTest, yTest := Take(X, y, held)
		m := newModel()
		if err := m.Fit(xTrain, yTrain); err != nil {
			return nil, fmt.Errorf("fold %d: %w", f, err)
		}
		scores[f] = R2(yTest, PredictAll(m, xTest))
	}
	return scores, nil
}

package regress

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

// TreeConfig configures a CART regression tree.
type TreeConfig struct {
	MaxDepth       int
	MinSamplesLeaf int
	// MaxFeatures limits the candidate features per split; 0 means all.
	MaxFeatures int
	// Rand draws the candidate features when MaxFeatures is set.
	Rand *rand.Rand
}

// Tree is a binary regression tree grown greedily on squared error.
type Tree struct {
	cfg        TreeConfig
	root       *treeNode
	importance []float64
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

type candidateSplit struct {
	ok        bool
	feature   int
	threshold float64
	gain      float64
}

// NewTree returns an unfitted tree.
func NewTree(cfg TreeConfig) *Tree {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 3
	}
	if cfg.MinSamplesLeaf <= 0 {
		cfg.MinSamplesLeaf = 1
	}
	return &Tree{cfg: cfg}
}

// Fit grows the tree on X and y.
func (t *Tree) Fit(X [][]float64, y []float64) error {
	if _, err := checkXY(X, y, 1); err != nil {
		return err
	}
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	t.fitIndices(X, y, idx)
	return nil
}

// fitIndices grows the tree on the rows at idx. idx may repeat rows.
func (t *Tree) fitIndices(X [][]float64, y []float64, idx []int) {
	t.importance = make([]float64, len(X[0]))
	t.root = t.grow(X, y, idx, 0)
}

// Predict walks x to a leaf. An unfitted tree predicts 0.
func (t *Tree) Predict(x []float64) float64 {
	n := t.root
	if n == nil {
		return 0
	}
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// Importance returns normalised impurity decrease per feature.
func (t *Tree) Importance() []float64 { return normalize(t.importance) }

// rawImportance is the unnormalised total squared-error decrease per feature.
func (t *Tree) rawImportance() []float64 { return t.importance }

func (t *Tree) grow(X [][]float64, y []float64, idx []int, depth int) *treeNode {
	var sum, sumSq float64
	for _, i := range idx {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	count := float64(len(idx))
	node := &treeNode{leaf: true, value: sum / count}

	if depth >= t.cfg.MaxDepth || len(idx) < 2*t.cfg.MinSamplesLeaf || sumSq-sum*sum/count <= 1e-12 {
		return node
	}
	best := t.bestSplit(X, y, idx, sum)
	if !best.ok {
		return node
	}
	t.importance[best.feature] += best.gain

	var left, right []int
	for _, i := range idx {
		if X[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	node.leaf = false
	node.feature = best.feature
	node.threshold = best.threshold
	node.left = t.grow(X, y, left, depth+1)
	node.right = t.grow(X, y, right, depth+1)
	return node
}

// bestSplit scans candidate features for the threshold maximising the
// squared-error decrease sumL²/nL + sumR²/nR - sum²/n.
func (t *Tree) bestSplit(X [][]float64, y []float64, idx []int, sum float64) candidateSplit {
	var best candidateSplit
	n := len(idx)
	parent := sum * sum / float64(n)
	minLeaf := t.cfg.MinSamplesLeaf
	sorted := make([]int, n)

	for _, f := range t.candidates(len(X[0])) {
		copy(sorted, idx)
		slices.SortStableFunc(sorted, func(a, b int) int { return cmp.Compare(X[a][f], X[b][f]) })

		var leftSum float64
		for k := 0; k < n-1; k++ {
			leftSum += y[sorted[k]]
			nl := k + 1
			if nl < minLeaf || n-nl < minLeaf {
				continue
			}
			lo, hi := X[sorted[k]][f], X[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			rightSum := sum - leftSum
			gain := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(n-nl) - parent
			if gain > best.gain+1e-12 {
				best = candidateSplit{ok: true, feature: f, threshold: lo + (hi-lo)/2, gain: gain}
			}
		}
	}
	return best
}

func (t *Tree) candidates(p int) []int {
	if t.cfg.MaxFeatures <= 0 || t.cfg.MaxFeatures >= p || t.cfg.Rand == nil {
		all := make([]int, p)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return t.cfg.Rand.Perm(p)[:t.cfg.MaxFeatures]
}

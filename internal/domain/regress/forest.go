package regress

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// ForestConfig configures a random forest.
type ForestConfig struct {
	Trees          int
	MaxDepth       int
	MinSamplesLeaf int
	// MaxFeatures per split; 0 means a third of the features.
	MaxFeatures int
}

// DefaultForestConfig is a 100-tree forest of depth 10.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{Trees: 100, MaxDepth: 10, MinSamplesLeaf: 2}
}

// RandomForest averages trees grown on bootstrap resamples with random
// feature subsets.
type RandomForest struct {
	cfg        ForestConfig
	rng        *rand.Rand
	trees      []*Tree
	importance []float64
}

// NewRandomForest returns an unfitted forest drawing from rng.
func NewRandomForest(cfg ForestConfig, rng *rand.Rand) *RandomForest {
	def := DefaultForestConfig()
	if cfg.Trees <= 0 {
		cfg.Trees = def.Trees
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.MinSamplesLeaf <= 0 {
		cfg.MinSamplesLeaf = def.MinSamplesLeaf
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // not security sensitive
	}
	return &RandomForest{cfg: cfg, rng: rng}
}

// Fit grows the forest sequentially so a seeded rng reproduces it.
func (f *RandomForest) Fit(X [][]float64, y []float64) error {
	p, err := checkXY(X, y, 1)
	if err != nil {
		return err
	}
	maxFeatures := f.cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, p/3)
	}
	f.trees = make([]*Tree, 0, f.cfg.Trees)
	f.importance = make([]float64, p)

	n := len(y)
	boot := make([]int, n)
	for m := 0; m < f.cfg.Trees; m++ {
		for i := range boot {
			boot[i] = f.rng.IntN(n)
		}
		tree := NewTree(TreeConfig{
			MaxDepth:       f.cfg.MaxDepth,
			MinSamplesLeaf: f.cfg.MinSamplesLeaf,
			MaxFeatures:    maxFeatures,
			Rand:           f.rng,
		})
		tree.fitIndices(X, y, boot)
		floats.Add(f.importance, tree.rawImportance())
		f.trees = append(f.trees, tree)
	}
	return nil
}

// Predict averages the trees.
func (f *RandomForest) Predict(x []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	var s float64
	for _, t := range f.trees {
		s += t.Predict(x)
	}
	return s / float64(len(f.trees))
}

// Importance returns normalised impurity importance summed over trees.
func (f *RandomForest) Importance() []float64 { return normalize(f.importance) }

package regress

import "gonum.org/v1/gonum/floats"

// GBMConfig configures gradient boosting.
type GBMConfig struct {
	Trees          int
	MaxDepth       int
	LearningRate   float64
	MinSamplesLeaf int
}

// DefaultGBMConfig is a shallow 100-tree ensemble with learning rate 0.1.
func DefaultGBMConfig() GBMConfig {
	return GBMConfig{Trees: 100, MaxDepth: 3, LearningRate: 0.1, MinSamplesLeaf: 1}
}

// GradientBoosting fits trees to squared-error residuals in sequence.
type GradientBoosting struct {
	cfg        GBMConfig
	init       float64
	trees      []*Tree
	importance []float64
}

// NewGradientBoosting returns an unfitted booster. Zero config fields take
// DefaultGBMConfig values.
func NewGradientBoosting(cfg GBMConfig) *GradientBoosting {
	def := DefaultGBMConfig()
	if cfg.Trees <= 0 {
		cfg.Trees = def.Trees
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.MinSamplesLeaf <= 0 {
		cfg.MinSamplesLeaf = def.MinSamplesLeaf
	}
	return &GradientBoosting{cfg: cfg}
}

// Fit boosts from the target mean.
func (g *GradientBoosting) Fit(X [][]float64, y []float64) error {
	p, err := checkXY(X, y, 1)
	if err != nil {
		return err
	}
	g.init = floats.Sum(y) / float64(len(y))
	g.trees = make([]*Tree, 0, g.cfg.Trees)
	g.importance = make([]float64, p)

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = g.init
	}
	resid := make([]float64, len(y))
	for m := 0; m < g.cfg.Trees; m++ {
		floats.SubTo(resid, y, pred)
		tree := NewTree(TreeConfig{MaxDepth: g.cfg.MaxDepth, MinSamplesLeaf: g.cfg.MinSamplesLeaf})
		if err := tree.Fit(X, resid); err != nil {
			return err
		}
		for i, x := range X {
			pred[i] += g.cfg.LearningRate * tree.Predict(x)
		}
		floats.Add(g.importance, tree.rawImportance())
		g.trees = append(g.trees, tree)
	}
	return nil
}

// Predict sums the shrunken tree outputs.
func (g *GradientBoosting) Predict(x []float64) float64 {
	out := g.init
	for _, t := range g.trees {
		out += g.cfg.LearningRate * t.Predict(x)
	}
	return out
}

// Importance returns normalised impurity importance summed over trees.
func (g *GradientBoosting) Importance() []float64 { return normalize(g.importance) }

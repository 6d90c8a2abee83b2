// Package synth produces labelled synthetic corpora. The request path perturbs
// a single query vector around a fixed prior; the calibration path draws a
// larger corpus from per-feature distributions.
//
// Targets are generated, never observed. A model fitted on them learns the
// generator's prior, so its feature importances describe that prior rather
// than any real-world signal.
package synth

import (
	"math"
	"math/rand/v2"

	"github.com/okian/resonance/internal/domain/features"
	"github.com/okian/resonance/internal/domain/model"
	"gonum.org/v1/gonum/stat/distuv"
)

// Default generator parameters.
const (
	defaultFeatureNoise = 0.1
	defaultTargetNoise  = 10.0

	targetIntercept  = 20.0
	followersWeight  = 4.0
	popularityWeight = 3.0
	netWorthWeight   = 2.0
	minTarget        = 0.0
	maxTarget        = 100.0
	minFeature       = 0.0
)

// Option configures a Generator.
type Option func(*Generator)

// WithFeatureNoise sets the standard deviation of per-feature noise.
func WithFeatureNoise(std float64) Option {
	return func(g *Generator) {
		if std >= 0 {
			g.featureNoise = std
		}
	}
}

// WithTargetNoise sets the standard deviation of target noise.
func WithTargetNoise(std float64) Option {
	return func(g *Generator) {
		if std >= 0 {
			g.targetNoise = std
		}
	}
}

// Generator perturbs a base vector into n labelled samples. It owns its random
// source and is not safe for concurrent use; build one per training pass.
type Generator struct {
	rng          *rand.Rand
	featureNoise float64
	targetNoise  float64
}

// NewGenerator returns a Generator drawing from rng. A nil rng is replaced by
// an entropy-seeded source.
func NewGenerator(rng *rand.Rand, opts ...Option) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // not security sensitive
	}
	g := &Generator{
		rng:          rng,
		featureNoise: defaultFeatureNoise,
		targetNoise:  defaultTargetNoise,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewSeeded returns a Generator on a PCG source seeded with seed.
func NewSeeded(seed uint64, opts ...Option) *Generator {
	return NewGenerator(rand.New(rand.NewPCG(seed, seed)), opts...) //nolint:gosec // seeded for reproducibility
}

// Generate returns n samples around base. n <= 0 yields nil.
func (g *Generator) Generate(base model.FeatureVector, n int) []model.Sample {
	if n <= 0 {
		return nil
	}
	featureNoise := distuv.Normal{Mu: 0, Sigma: g.featureNoise, Src: g.rng}
	targetNoise := distuv.Normal{Mu: 0, Sigma: g.targetNoise, Src: g.rng}

	out := make([]model.Sample, n)
	for i := range out {
		var v model.FeatureVector
		for j := range v {
			x := base[j]
			if g.featureNoise > 0 {
				x += featureNoise.Rand()
			}
			v[j] = clip(x, minFeature, features.MaxValue)
		}
		t := PriorTarget(v)
		if g.targetNoise > 0 {
			t = clip(t+targetNoise.Rand(), minTarget, maxTarget)
		}
		out[i] = model.Sample{Features: v, Target: t}
	}
	return out
}

// PriorTarget is the noise-free affine prior over following, popularity and
// net worth, clipped to [0,100].
func PriorTarget(v model.FeatureVector) float64 {
	t := targetIntercept +
		followersWeight*v[features.SpotifyFollowersLog] +
		popularityWeight*v[features.Popularity] +
		netWorthWeight*v[features.NetWorthLog]
	return clip(t, minTarget, maxTarget)
}

// PriorWeights returns the prior's coefficients keyed by feature name.
func PriorWeights() map[string]float64 {
	w := make(map[string]float64, 4)
	w["intercept"] = targetIntercept
	w[features.Names[features.SpotifyFollowersLog]] = followersWeight
	w[features.Names[features.Popularity]] = popularityWeight
	w[features.Names[features.NetWorthLog]] = netWorthWeight
	return w
}

func clip(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

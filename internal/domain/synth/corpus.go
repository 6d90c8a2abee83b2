package synth

import (
	"math"
	"math/rand/v2"

	"github.com/okian/resonance/internal/domain/features"
	"github.com/okian/resonance/internal/domain/model"
	"gonum.org/v1/gonum/stat/distuv"
)

// Calibration corpus genre pool; the first half is mainstream vocabulary.
var genrePool = []string{
	"pop", "hip hop", "rock", "latin", "dance pop", "country",
	"ambient", "shoegaze", "math rock", "jazz fusion", "drill", "folk",
}

const (
	maxComposite      = 360.0
	calibrationNoise  = 4.0
	maxCorpusGenres   = 6
	averageGenreCount = 2.0
)

// Corpus draws labelled samples whose raw records follow plausible per-field
// distributions: log-normal counts, Beta ratios and Poisson genre counts. The
// target is a fixed nonlinear function of the vectorized record.
type Corpus struct {
	rng *rand.Rand

	followers  distuv.LogNormal
	youtube    distuv.LogNormal
	instagram  distuv.LogNormal
	tiktok     distuv.LogNormal
	netWorth   distuv.LogNormal
	streams    distuv.LogNormal
	popularity distuv.Beta
	energy     distuv.Beta
	dance      distuv.Beta
	valence    distuv.Beta
	acoustic   distuv.Beta
	instrument distuv.Beta
	chart      distuv.Beta
	engagement distuv.Beta
	lyrics     distuv.Beta
	tierScore  distuv.Beta
	genres     distuv.Poisson
	noise      distuv.Normal
}

// NewCorpus returns a Corpus drawing from rng. A nil rng is entropy-seeded.
func NewCorpus(rng *rand.Rand) *Corpus {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // not security sensitive
	}
	return &Corpus{
		rng:        rng,
		followers:  distuv.LogNormal{Mu: 11.5, Sigma: 2.2, Src: rng},
		youtube:    distuv.LogNormal{Mu: 10.5, Sigma: 2.0, Src: rng},
		instagram:  distuv.LogNormal{Mu: 11.0, Sigma: 2.0, Src: rng},
		tiktok:     distuv.LogNormal{Mu: 10.0, Sigma: 2.5, Src: rng},
		netWorth:   distuv.LogNormal{Mu: 0.5, Sigma: 1.5, Src: rng},
		streams:    distuv.LogNormal{Mu: 0.0, Sigma: 1.8, Src: rng},
		popularity: distuv.Beta{Alpha: 2.5, Beta: 2.5, Src: rng},
		energy:     distuv.Beta{Alpha: 5, Beta: 2.5, Src: rng},
		dance:      distuv.Beta{Alpha: 4, Beta: 3, Src: rng},
		valence:    distuv.Beta{Alpha: 2, Beta: 2, Src: rng},
		acoustic:   distuv.Beta{Alpha: 1.2, Beta: 3, Src: rng},
		instrument: distuv.Beta{Alpha: 0.6, Beta: 5, Src: rng},
		chart:      distuv.Beta{Alpha: 2, Beta: 5, Src: rng},
		engagement: distuv.Beta{Alpha: 2, Beta: 30, Src: rng},
		lyrics:     distuv.Beta{Alpha: 4, Beta: 4, Src: rng},
		tierScore:  distuv.Beta{Alpha: 2, Beta: 6, Src: rng},
		genres:     distuv.Poisson{Lambda: averageGenreCount, Src: rng},
		noise:      distuv.Normal{Mu: 0, Sigma: calibrationNoise, Src: rng},
	}
}

// Record draws one raw metrics record.
func (c *Corpus) Record() model.MetricsRecord {
	return model.MetricsRecord{
		SpotifyFollowers:       model.Float(math.Round(c.followers.Rand())),
		YouTubeSubscribers:     model.Float(math.Round(c.youtube.Rand())),
		InstagramFollowers:     model.Float(math.Round(c.instagram.Rand())),
		TikTokFollowers:        model.Float(math.Round(c.tiktok.Rand())),
		Popularity:             model.Float(100 * c.popularity.Rand()),
		NetWorthMillions:       model.Float(c.netWorth.Rand()),
		MonthlyStreamsMillions: model.Float(c.streams.Rand()),
		Energy:                 model.Float(c.energy.Rand()),
		Danceability:           model.Float(c.dance.Rand()),
		Valence:                model.Float(c.valence.Rand()),
		Acousticness:           model.Float(c.acoustic.Rand()),
		Instrumentalness:       model.Float(c.instrument.Rand()),
		Genres:                 c.drawGenres(),
		TierScore:              model.Float(maxComposite * c.tierScore.Rand()),
		ChartPerformance:       model.Float(100 * c.chart.Rand()),
		EngagementRate:         model.Float(c.engagement.Rand()),
		LyricSentiment:         model.Float(100 * c.lyrics.Rand()),
		LyricComplexity:        model.Float(100 * c.lyrics.Rand()),
	}
}

// Generate returns n vectorized samples. n <= 0 yields nil.
func (c *Corpus) Generate(n int) []model.Sample {
	if n <= 0 {
		return nil
	}
	out := make([]model.Sample, n)
	for i := range out {
		v := features.Vectorize(c.Record())
		t := clip(RealisticTarget(v)+c.noise.Rand(), minTarget, maxTarget)
		out[i] = model.Sample{Features: v, Target: t}
	}
	return out
}

// RealisticTarget is the noise-free nonlinear target used for calibration.
func RealisticTarget(v model.FeatureVector) float64 {
	spotify := v[features.SpotifyFollowersLog]
	pop := v[features.Popularity]

	t := 5 +
		5*spotify +
		2.5*pop +
		0.3*pop*v[features.NetWorthLog] +
		1.5*v[features.MonthlyStreamsLog] +
		10*v[features.Energy]*v[features.Danceability] +
		4*math.Sin(math.Pi*v[features.Valence]) -
		6*v[features.Acousticness] +
		8*v[features.GenreMainstream] +
		12*v[features.ChartPerformance] +
		40*v[features.EngagementRate]
	return clip(t, minTarget, maxTarget)
}

func (c *Corpus) drawGenres() []string {
	k := int(math.Min(c.genres.Rand(), maxCorpusGenres))
	if k == 0 {
		return nil
	}
	out := make([]string, k)
	for i := range out {
		out[i] = genrePool[c.rng.IntN(len(genrePool))]
	}
	return out
}

// Package features maps a sparse MetricsRecord into the fixed-order
// FeatureVector shared by training and prediction.
package features

import (
	"math"
	"strings"

	"github.com/okian/resonance/internal/domain/model"
)

// Feature indexes into model.FeatureVector.
const (
	SpotifyFollowersLog = iota
	YouTubeSubscribersLog
	InstagramFollowersLog
	TikTokFollowersLog
	Popularity
	NetWorthLog
	MonthlyStreamsLog
	Energy
	Danceability
	Valence
	Acousticness
	Instrumentalness
	GenreMainstream
	GenreDiversity
	TierScore
	ChartPerformance
	EngagementRate
	LyricSentiment
	LyricComplexity
)

// Names lists feature names in vector order.
var Names = [model.NumFeatures]string{
	SpotifyFollowersLog:   "spotify_followers_log",
	YouTubeSubscribersLog: "youtube_subscribers_log",
	InstagramFollowersLog: "instagram_followers_log",
	TikTokFollowersLog:    "tiktok_followers_log",
	Popularity:            "popularity",
	NetWorthLog:           "net_worth_log",
	MonthlyStreamsLog:     "monthly_streams_log",
	Energy:                "energy",
	Danceability:          "danceability",
	Valence:               "valence",
	Acousticness:          "acousticness",
	Instrumentalness:      "instrumentalness",
	GenreMainstream:       "genre_mainstream",
	GenreDiversity:        "genre_diversity",
	TierScore:             "tier_score",
	ChartPerformance:      "chart_performance",
	EngagementRate:        "engagement_rate",
	LyricSentiment:        "lyric_sentiment",
	LyricComplexity:       "lyric_complexity",
}

// Defaults holds the value substituted for each absent record field, in the
// record's own units.
var Defaults = struct {
	Popularity       float64
	Energy           float64
	Danceability     float64
	Valence          float64
	Acousticness     float64
	Instrumentalness float64
	ChartPerformance float64
	EngagementRate   float64
	LyricSentiment   float64
	LyricComplexity  float64
	TierScore        float64
	Count            float64
	GenreMainstream  float64
}{
	Popularity:       50,
	Energy:           0.7,
	Danceability:     0.6,
	Valence:          0.5,
	Acousticness:     0.3,
	Instrumentalness: 0.1,
	ChartPerformance: 50,
	EngagementRate:   0.05,
	LyricSentiment:   50,
	LyricComplexity:  50,
	TierScore:        0,
	Count:            0,
	GenreMainstream:  0.5,
}

// Scaling constants.
const (
	// MaxValue bounds every feature; the synthetic generator clips to [0, MaxValue].
	MaxValue = 10.0

	popularityScale = 10.0
	tierScoreScale  = 36.0 // composite max ~360 -> [0,10]
	percentScale    = 100.0
	maxGenres       = 5.0
)

// MainstreamKeywords is the closed vocabulary for the mainstream score.
var MainstreamKeywords = []string{
	"pop", "rock", "hip hop", "hip-hop", "rap", "r&b", "country",
	"edm", "dance", "latin", "k-pop", "reggaeton", "indie pop",
}

// Vectorize maps rec into a FeatureVector. It never fails: absent or
// non-finite fields take their documented defaults.
func Vectorize(rec model.MetricsRecord) model.FeatureVector {
	var v model.FeatureVector

	v[SpotifyFollowersLog] = logCount(rec.SpotifyFollowers)
	v[YouTubeSubscribersLog] = logCount(rec.YouTubeSubscribers)
	v[InstagramFollowersLog] = logCount(rec.InstagramFollowers)
	v[TikTokFollowersLog] = logCount(rec.TikTokFollowers)
	v[NetWorthLog] = logCount(rec.NetWorthMillions)
	v[MonthlyStreamsLog] = logCount(rec.MonthlyStreamsMillions)

	v[Popularity] = clamp(value(rec.Popularity, Defaults.Popularity), 0, percentScale) / popularityScale

	v[Energy] = unit(rec.Energy, Defaults.Energy)
	v[Danceability] = unit(rec.Danceability, Defaults.Danceability)
	v[Valence] = unit(rec.Valence, Defaults.Valence)
	v[Acousticness] = unit(rec.Acousticness, Defaults.Acousticness)
	v[Instrumentalness] = unit(rec.Instrumentalness, Defaults.Instrumentalness)

	v[GenreMainstream] = MainstreamScore(rec.Genres)
	v[GenreDiversity] = DiversityScore(rec.Genres)

	v[TierScore] = clamp(value(rec.TierScore, Defaults.TierScore)/tierScoreScale, 0, MaxValue)

	v[ChartPerformance] = percent(rec.ChartPerformance, Defaults.ChartPerformance)
	v[EngagementRate] = engagement(rec.EngagementRate)
	v[LyricSentiment] = percent(rec.LyricSentiment, Defaults.LyricSentiment)
	v[LyricComplexity] = percent(rec.LyricComplexity, Defaults.LyricComplexity)

	return v
}

// Map returns the vector keyed by feature name.
func Map(v model.FeatureVector) map[string]float64 {
	out := make(map[string]float64, model.NumFeatures)
	for i, name := range Names {
		out[name] = v[i]
	}
	return out
}

// MainstreamScore is the fraction of genres matching the mainstream
// vocabulary (case-insensitive substring), or 0.5 when genres is empty.
func MainstreamScore(genres []string) float64 {
	if len(genres) == 0 {
		return Defaults.GenreMainstream
	}
	matched := 0
	for _, g := range genres {
		g = strings.ToLower(g)
		for _, kw := range MainstreamKeywords {
			if strings.Contains(g, kw) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(genres))
}

// DiversityScore is min(len(genres)/5, 1).
func DiversityScore(genres []string) float64 {
	return math.Min(float64(len(genres))/maxGenres, 1.0)
}

func value(p *float64, def float64) float64 {
	v := model.ValueOr(p, def)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// logCount compresses counts spanning many orders of magnitude. Counts are
// floored at 1 so the logarithm is never taken of zero.
func logCount(p *float64) float64 {
	return clamp(math.Log10(math.Max(value(p, Defaults.Count), 1)), 0, MaxValue)
}

func unit(p *float64, def float64) float64 {
	return clamp(value(p, def), 0, 1)
}

func percent(p *float64, def float64) float64 {
	return clamp(value(p, def)/percentScale, 0, 1)
}

// engagement accepts either a fraction (<= 1) or a percentage.
func engagement(p *float64) float64 {
	v := value(p, Defaults.EngagementRate)
	if v > 1 {
		v /= percentScale
	}
	return clamp(v, 0, 1)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

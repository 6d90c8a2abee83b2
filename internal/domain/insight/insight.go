// Package insight turns a prediction and its feature importances into a
// structured, explainable summary.
package insight

import (
	"cmp"
	"math"
	"slices"

	"github.com/okian/resonance/internal/domain/features"
	"github.com/okian/resonance/internal/domain/model"
)

// Insight constants.
const (
	topFactors = 5

	shortTermRate  = 0.3
	mediumTermRate = 0.6
	longTermRate   = 0.9
	shortTermCap   = 30.0
	mediumTermCap  = 60.0
	longTermCap    = 100.0

	lowRiskAbove    = 70.0
	mediumRiskAbove = 40.0

	fanbaseThreshold = 10_000.0
	scaleMismatch    = 10.0

	leaderRatio     = 0.8
	challengerRatio = 0.3
	nicheRatio      = 0.1
)

// Risk factor names.
const (
	RiskLimitedFanbase    = "Limited fanbase"
	RiskScaleMismatch     = "Audience scale mismatch"
	RiskUndefinedGenre    = "Undefined genre identity"
	RiskMarketCompetition = "Market competition"
)

// explanations maps feature names to the sentence shown for a driving factor.
var explanations = map[string]string{
	"spotify_followers_log":   "Streaming audience size drives reach and playlist placement.",
	"youtube_subscribers_log": "Video audience extends reach beyond audio platforms.",
	"instagram_followers_log": "Social following supports direct fan engagement.",
	"tiktok_followers_log":    "Short-form video presence signals viral potential.",
	"popularity":              "Current platform popularity reflects listening momentum.",
	"net_worth_log":           "Commercial scale indicates resources for promotion.",
	"monthly_streams_log":     "Monthly streams show sustained listening demand.",
	"energy":                  "Energy level shapes fit with high-tempo audiences.",
	"danceability":            "Danceability favours club and playlist rotation.",
	"valence":                 "Musical mood affects emotional alignment between audiences.",
	"acousticness":            "Acoustic character narrows or widens stylistic overlap.",
	"instrumentalness":        "Vocal presence affects mainstream accessibility.",
	"genre_mainstream":        "Mainstream genre alignment broadens the addressable market.",
	"genre_diversity":         "Genre breadth opens cross-over opportunities.",
	"tier_score":              "Overall career tier anchors market standing.",
	"chart_performance":       "Chart presence validates commercial traction.",
	"engagement_rate":         "Fan engagement converts reach into loyalty.",
	"lyric_sentiment":         "Lyrical tone shapes audience resonance.",
	"lyric_complexity":        "Lyrical depth appeals to dedicated listeners.",
}

var featureIndex = func() map[string]int {
	m := make(map[string]int, len(features.Names))
	for i, n := range features.Names {
		m[n] = i
	}
	return m
}()

// Synthesizer builds InsightBundles. It is stateless and safe for concurrent
// use.
type Synthesizer struct{}

// NewSynthesizer returns a Synthesizer.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// Synthesize builds the bundle for an artist scored against comparable.
func (s *Synthesizer) Synthesize(v model.FeatureVector, importance map[string]float64, prediction float64, rec, comparable model.MetricsRecord) model.InsightBundle {
	return model.InsightBundle{
		DrivingFactors:      DrivingFactors(v, importance),
		GrowthPotential:     Growth(prediction),
		RiskAssessment:      Risk(prediction, rec, comparable),
		MarketTiming:        Timing(prediction),
		CompetitivePosition: Position(rec, comparable),
	}
}

// DrivingFactors returns up to five features by descending importance (ties
// by name). A factor is positive when its value exceeds the vector mean.
func DrivingFactors(v model.FeatureVector, importance map[string]float64) []model.DrivingFactor {
	names := make([]string, 0, len(importance))
	for n := range importance {
		names = append(names, n)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(importance[b], importance[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(names) > topFactors {
		names = names[:topFactors]
	}

	var mean float64
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))

	out := make([]model.DrivingFactor, 0, len(names))
	for _, n := range names {
		impact := model.ImpactNegative
		if i, ok := featureIndex[n]; ok && v[i] > mean {
			impact = model.ImpactPositive
		}
		out = append(out, model.DrivingFactor{
			Feature:     n,
			Importance:  importance[n],
			Impact:      impact,
			Explanation: Explain(n),
		})
	}
	return out
}

// Explain returns the fixed sentence for a feature, or a generic one.
func Explain(feature string) string {
	if e, ok := explanations[feature]; ok {
		return e
	}
	return "The " + feature + " metric contributes to the overall resonance estimate."
}

// Growth returns bounded growth estimates that never decrease with the
// horizon for a non-negative prediction.
func Growth(prediction float64) model.GrowthPotential {
	return model.GrowthPotential{
		ShortTerm:  math.Min(shortTermCap, shortTermRate*prediction),
		MediumTerm: math.Min(mediumTermCap, mediumTermRate*prediction),
		LongTerm:   math.Min(longTermCap, longTermRate*prediction),
	}
}

// RiskLevel maps a prediction to low (>70), medium (>40) or high.
func RiskLevel(prediction float64) string {
	switch {
	case prediction > lowRiskAbove:
		return model.RiskLow
	case prediction > mediumRiskAbove:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

// Risk assesses the artist. The factor list is never empty: a single low
// market-competition factor stands in when nothing else applies.
func Risk(prediction float64, rec, comparable model.MetricsRecord) model.RiskAssessment {
	var factors []model.RiskFactor

	followers := model.ValueOr(rec.SpotifyFollowers, 0)
	if followers < fanbaseThreshold {
		factors = append(factors, model.RiskFactor{
			Factor:     RiskLimitedFanbase,
			Severity:   model.RiskHigh,
			Mitigation: "Invest in audience growth before large collaborations",
		})
	}
	if comparable.SpotifyFollowers != nil {
		other := *comparable.SpotifyFollowers
		hi, lo := math.Max(followers, other), math.Max(math.Min(followers, other), 1)
		if hi/lo > scaleMismatch {
			factors = append(factors, model.RiskFactor{
				Factor:     RiskScaleMismatch,
				Severity:   model.RiskMedium,
				Mitigation: "Frame the collaboration as a feature or support slot",
			})
		}
	}
	if len(rec.Genres) == 0 {
		factors = append(factors, model.RiskFactor{
			Factor:     RiskUndefinedGenre,
			Severity:   model.RiskMedium,
			Mitigation: "Establish clear genre positioning across platforms",
		})
	}
	if len(factors) == 0 {
		factors = append(factors, model.RiskFactor{
			Factor:     RiskMarketCompetition,
			Severity:   model.RiskLow,
			Mitigation: "Differentiate through a distinctive sound and release cadence",
		})
	}
	return model.RiskAssessment{Level: RiskLevel(prediction), Factors: factors}
}

// Timing suggests a window from the prediction band.
func Timing(prediction float64) model.MarketTiming {
	switch {
	case prediction > lowRiskAbove:
		return model.MarketTiming{Window: "immediate", Recommendation: "Strong fit: pursue the collaboration in the next release cycle"}
	case prediction > mediumRiskAbove:
		return model.MarketTiming{Window: "near-term", Recommendation: "Test the pairing with a single or live appearance within six months"}
	default:
		return model.MarketTiming{Window: "long-term", Recommendation: "Build audience overlap before committing to a joint release"}
	}
}

// Position buckets the follower ratio of rec to comparable. The comparable's
// followers are floored at 1.
func Position(rec, comparable model.MetricsRecord) string {
	ratio := model.ValueOr(rec.SpotifyFollowers, 0) / math.Max(model.ValueOr(comparable.SpotifyFollowers, 0), 1)
	switch {
	case ratio >= leaderRatio:
		return model.PositionLeader
	case ratio >= challengerRatio:
		return model.PositionChallenger
	case ratio >= nicheRatio:
		return model.PositionNiche
	default:
		return model.PositionEmerging
	}
}

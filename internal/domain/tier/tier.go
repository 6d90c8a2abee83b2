// Package tier classifies an artist's career stature from platform metrics.
package tier

import (
	"math"

	"github.com/okian/resonance/internal/domain/model"
)

// Tier labels, lowest to highest.
const (
	Emerging       = "Emerging"
	Developing     = "Developing"
	ViralSensation = "Viral Sensation"
	Rising         = "Rising"
	Established    = "Established"
	Mainstream     = "Mainstream"
	Star           = "Star"
	Superstar      = "Superstar"
	GlobalIcon     = "Global Icon"
)

// viralPopularity is the popularity at which a low tier becomes Viral Sensation.
const viralPopularity = 90.0

// MaxComposite is the largest composite score the sub-score caps allow.
const MaxComposite = 360.0

// Info is the static display data of a tier.
type Info struct {
	Label       string
	Rank        int
	Color       string
	Description string
}

// table holds every tier, keyed by label. Viral Sensation ranks between
// Developing and Rising so rank never decreases as followers grow.
var table = map[string]Info{
	Emerging:       {Emerging, 1, "#9E9E9E", "Early-stage artist building an initial audience."},
	Developing:     {Developing, 2, "#8BC34A", "Growing artist with a measurable, engaged fanbase."},
	ViralSensation: {ViralSensation, 3, "#E91E63", "Breakout popularity well ahead of audience size."},
	Rising:         {Rising, 4, "#03A9F4", "Artist gaining momentum across platforms."},
	Established:    {Established, 5, "#3F51B5", "Consistent performer with a stable market presence."},
	Mainstream:     {Mainstream, 6, "#673AB7", "Broad recognition with mass-market reach."},
	Star:           {Star, 7, "#FF9800", "Major artist with strong commercial pull."},
	Superstar:      {Superstar, 8, "#FF5722", "Top-tier artist with international influence."},
	GlobalIcon:     {GlobalIcon, 9, "#FFD700", "Era-defining artist with worldwide cultural impact."},
}

// rung is one step of the ladder: a raw follower threshold or a composite
// threshold promotes to label.
type rung struct {
	label     string
	followers float64
	composite float64
}

// ladder is evaluated top-down; the first satisfied rung wins.
var ladder = []rung{
	{GlobalIcon, 80_000_000, 250},
	{Superstar, 40_000_000, 200},
	{Star, 20_000_000, 160},
	{Mainstream, 10_000_000, 130},
	{Established, 5_000_000, 110},
	{Rising, 1_000_000, 95},
	{Developing, 100_000, 40},
}

// subScore divides a raw metric and caps the result.
type subScore struct {
	divisor float64
	cap     float64
}

var (
	spotifyScore    = subScore{divisor: 1_000_000, cap: 100}
	instagramScore  = subScore{divisor: 5_000_000, cap: 20}
	netWorthScore   = subScore{divisor: 4, cap: 100}
	youtubeScore    = subScore{divisor: 2_500_000, cap: 20}
	streamsScore    = subScore{divisor: 4, cap: 15}
	awardsScore     = subScore{divisor: 2, cap: 5}
	popularityScore = subScore{divisor: 1, cap: 100}
)

func (s subScore) of(raw float64) float64 {
	return math.Min(raw/s.divisor, s.cap)
}

// Lookup returns the static info for label.
func Lookup(label string) (Info, bool) {
	info, ok := table[label]
	return info, ok
}

// Classify computes the composite score and tier for rec. Absent and
// negative metrics count as zero. It is pure and deterministic.
func Classify(rec model.MetricsRecord) model.TierResult {
	b := model.TierBreakdown{
		SpotifyFollowers:       raw(rec.SpotifyFollowers),
		InstagramFollowers:     raw(rec.InstagramFollowers),
		NetWorthMillions:       raw(rec.NetWorthMillions),
		YouTubeSubscribers:     raw(rec.YouTubeSubscribers),
		MonthlyStreamsMillions: raw(rec.MonthlyStreamsMillions),
		AwardsCount:            raw(rec.AwardsCount),
		Popularity:             raw(rec.Popularity),
	}
	b.SpotifyScore = spotifyScore.of(b.SpotifyFollowers)
	b.InstagramScore = instagramScore.of(b.InstagramFollowers)
	b.NetWorthScore = netWorthScore.of(b.NetWorthMillions)
	b.YouTubeScore = youtubeScore.of(b.YouTubeSubscribers)
	b.StreamsScore = streamsScore.of(b.MonthlyStreamsMillions)
	b.AwardsScore = awardsScore.of(b.AwardsCount)
	b.PopularityScore = popularityScore.of(b.Popularity)

	composite := b.SpotifyScore + b.InstagramScore + b.NetWorthScore +
		b.YouTubeScore + b.StreamsScore + b.AwardsScore + b.PopularityScore

	label := climb(b.SpotifyFollowers, composite)
	// The viral override depends on the ladder's output, so it runs after it.
	if b.Popularity >= viralPopularity && (label == Emerging || label == Developing) {
		label = ViralSensation
	}

	info := table[label]
	return model.TierResult{
		Tier:           info.Label,
		Rank:           info.Rank,
		Color:          info.Color,
		Description:    info.Description,
		CompositeScore: composite,
		Breakdown:      b,
	}
}

func climb(followers, composite float64) string {
	for _, r := range ladder {
		if followers >= r.followers || composite >= r.composite {
			return r.label
		}
	}
	return Emerging
}

func raw(p *float64) float64 {
	v := model.ValueOr(p, 0)
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

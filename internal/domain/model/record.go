// Package model contains domain models passed between layers.
package model

// NumFeatures is the fixed length of a FeatureVector.
const NumFeatures = 19

// MetricsRecord is the merged per-artist metrics record supplied by upstream
// collaborators. Every field is optional: a nil pointer or nil slice means
// the metric is absent, which is distinct from zero. Defaults live in the
// features package.
type MetricsRecord struct {
	Name string `json:"name,omitempty"`

	SpotifyFollowers   *float64 `json:"spotify_followers,omitempty" validate:"omitempty,gte=0"`
	InstagramFollowers *float64 `json:"instagram_followers,omitempty" validate:"omitempty,gte=0"`
	YouTubeSubscribers *float64 `json:"youtube_subscribers,omitempty" validate:"omitempty,gte=0"`
	TikTokFollowers    *float64 `json:"tiktok_followers,omitempty" validate:"omitempty,gte=0"`
	Popularity         *float64 `json:"popularity,omitempty" validate:"omitempty,gte=0,lte=100"`

	NetWorthMillions       *float64 `json:"net_worth_millions,omitempty" validate:"omitempty,gte=0"`
	MonthlyStreamsMillions *float64 `json:"monthly_streams_millions,omitempty" validate:"omitempty,gte=0"`
	AwardsCount            *float64 `json:"awards_count,omitempty" validate:"omitempty,gte=0"`

	Energy           *float64 `json:"energy,omitempty" validate:"omitempty,gte=0,lte=1"`
	Danceability     *float64 `json:"danceability,omitempty" validate:"omitempty,gte=0,lte=1"`
	Valence          *float64 `json:"valence,omitempty" validate:"omitempty,gte=0,lte=1"`
	Acousticness     *float64 `json:"acousticness,omitempty" validate:"omitempty,gte=0,lte=1"`
	Instrumentalness *float64 `json:"instrumentalness,omitempty" validate:"omitempty,gte=0,lte=1"`

	Genres []string `json:"genres,omitempty"`

	TierScore        *float64 `json:"tier_score,omitempty" validate:"omitempty,gte=0"`
	ChartPerformance *float64 `json:"chart_performance,omitempty" validate:"omitempty,gte=0,lte=100"`
	EngagementRate   *float64 `json:"engagement_rate,omitempty" validate:"omitempty,gte=0"`
	LyricSentiment   *float64 `json:"lyric_sentiment,omitempty" validate:"omitempty,gte=0,lte=100"`
	LyricComplexity  *float64 `json:"lyric_complexity,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// Float returns a pointer to v, for building records in code.
func Float(v float64) *float64 { return &v }

// ValueOr returns *p, or def when p is nil.
func ValueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// FeatureVector is the fixed-order numeric representation of a record. The
// order is defined by features.Names and is shared by training and
// prediction.
type FeatureVector [NumFeatures]float64

// Slice returns a copy of the vector as a slice.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, NumFeatures)
	copy(out, v[:])
	return out
}

// Sample is one synthetic training row. Targets are generated, never
// observed.
type Sample struct {
	Features FeatureVector
	Target   float64
}

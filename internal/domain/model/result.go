package model

// ResonanceResult is the output of the resonance path.
//
// ConfidenceInterval is a heuristic uncertainty band derived from input
// completeness. It is not a calibrated statistical interval.
type ResonanceResult struct {
	PredictedScore     float64            `json:"predicted_score"`
	ConfidenceInterval [2]float64         `json:"confidence_interval"`
	Confidence         float64            `json:"confidence"`
	FeatureImportance  map[string]float64 `json:"feature_importance"`
	Insights           InsightBundle      `json:"insights"`
	ModelID            string             `json:"model_id,omitempty"`
	Fallback           bool               `json:"fallback"`
}

// Impact tags for driving factors.
const (
	ImpactPositive = "positive"
	ImpactNegative = "negative"
)

// DrivingFactor is one of the top features behind a prediction.
type DrivingFactor struct {
	Feature     string  `json:"feature"`
	Importance  float64 `json:"importance"`
	Impact      string  `json:"impact"`
	Explanation string  `json:"explanation"`
}

// GrowthPotential holds bounded growth estimates (percent) per horizon.
// ShortTerm <= MediumTerm <= LongTerm for any non-negative prediction.
type GrowthPotential struct {
	ShortTerm  float64 `json:"short_term"`
	MediumTerm float64 `json:"medium_term"`
	LongTerm   float64 `json:"long_term"`
}

// Risk levels.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// RiskFactor is a named risk with a mitigation.
type RiskFactor struct {
	Factor     string `json:"factor"`
	Severity   string `json:"severity"`
	Mitigation string `json:"mitigation"`
}

// RiskAssessment carries the overall level and never-empty factor list.
type RiskAssessment struct {
	Level   string       `json:"level"`
	Factors []RiskFactor `json:"factors"`
}

// MarketTiming is a coarse hint on when to act.
type MarketTiming struct {
	Window         string `json:"window"`
	Recommendation string `json:"recommendation"`
}

// Competitive positions.
const (
	PositionLeader     = "leader"
	PositionChallenger = "challenger"
	PositionNiche      = "niche"
	PositionEmerging   = "emerging"
)

// InsightBundle is the explainable summary attached to a ResonanceResult.
type InsightBundle struct {
	DrivingFactors      []DrivingFactor `json:"driving_factors"`
	GrowthPotential     GrowthPotential `json:"growth_potential"`
	RiskAssessment      RiskAssessment  `json:"risk_assessment"`
	MarketTiming        MarketTiming    `json:"market_timing"`
	CompetitivePosition string          `json:"competitive_position"`
}

// TierBreakdown lists the raw inputs and capped sub-scores behind a tier.
type TierBreakdown struct {
	SpotifyFollowers       float64 `json:"spotify_followers"`
	InstagramFollowers     float64 `json:"instagram_followers"`
	NetWorthMillions       float64 `json:"net_worth_millions"`
	YouTubeSubscribers     float64 `json:"youtube_subscribers"`
	MonthlyStreamsMillions float64 `json:"monthly_streams_millions"`
	AwardsCount            float64 `json:"awards_count"`
	Popularity             float64 `json:"popularity"`

	SpotifyScore    float64 `json:"spotify_score"`
	InstagramScore  float64 `json:"instagram_score"`
	NetWorthScore   float64 `json:"net_worth_score"`
	YouTubeScore    float64 `json:"youtube_score"`
	StreamsScore    float64 `json:"streams_score"`
	AwardsScore     float64 `json:"awards_score"`
	PopularityScore float64 `json:"popularity_score"`
}

// TierResult is the output of the tier classifier. It is never mutated
// after construction.
type TierResult struct {
	Tier           string        `json:"tier_label"`
	Rank           int           `json:"rank"`
	Color          string        `json:"color"`
	Description    string        `json:"description"`
	CompositeScore float64       `json:"composite_score"`
	Breakdown      TierBreakdown `json:"breakdown"`
}

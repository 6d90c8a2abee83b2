package loadtest

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/okian/resonance/internal/domain/model"
	"github.com/okian/resonance/internal/domain/synth"
	"github.com/okian/resonance/pkg/logger"
)

// generateRequests draws realistic artist records and pairs each with the
// next record as its comparable. Fields are dropped with probability
// cfg.Sparsity so partially filled records are exercised too.
func generateRequests(ctx context.Context, cfg *Config, stats *Stats) ([]request, error) {
	if cfg.Artists <= 0 {
		return nil, fmt.Errorf("%w: artists must be positive, got %d", ErrInvalidConfig, cfg.Artists)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64() //nolint:gosec // not security sensitive
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1)) //nolint:gosec // seeded for reproducibility
	corpus := synth.NewCorpus(rng)

	records := make([]model.MetricsRecord, cfg.Artists)
	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		records[i] = sparsify(rng, corpus.Record(), cfg.Sparsity)
		records[i].Name = fmt.Sprintf("artist-%05d", i)
	}

	reqs := make([]request, len(records))
	for i, r := range records {
		reqs[i] = request{Artist: r, Comparable: records[(i+1)%len(records)]}
	}

	stats.Generated = len(reqs)
	logger.Get().Info(ctx, "generated artist records",
		logger.Int("count", len(reqs)),
		logger.Any("seed", seed),
		logger.Float64("sparsity", cfg.Sparsity),
	)
	return reqs, nil
}

// sparsify drops each optional field of rec with probability p.
func sparsify(rng *rand.Rand, rec model.MetricsRecord, p float64) model.MetricsRecord {
	if p <= 0 {
		return rec
	}
	fields := []**float64{
		&rec.SpotifyFollowers, &rec.InstagramFollowers, &rec.YouTubeSubscribers, &rec.TikTokFollowers,
		&rec.Popularity, &rec.NetWorthMillions, &rec.MonthlyStreamsMillions, &rec.AwardsCount,
		&rec.Energy, &rec.Danceability, &rec.Valence, &rec.Acousticness, &rec.Instrumentalness,
		&rec.TierScore, &rec.ChartPerformance, &rec.EngagementRate, &rec.LyricSentiment, &rec.LyricComplexity,
	}
	for _, f := range fields {
		if rng.Float64() < p {
			*f = nil
		}
	}
	if rng.Float64() < p {
		rec.Genres = nil
	}
	return rec
}

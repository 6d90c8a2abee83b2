// Package repository keeps the calibration leaderboard: every evaluated blend
// candidate ranked by held-out score.
package repository

import "context"

// Entry represents a leaderboard row.
type Entry struct {
	Rank    int
	ID      string
	Score   float64
	Weights []float64
}

// Store provides read/write access to the ranking state.
type Store interface {
	// UpdateBest stores the candidate's score if it is new or higher than the
	// one already held. Returns true if the store changed.
	UpdateBest(ctx context.Context, c Candidate, score float64) (bool, error)

	// Rank returns the current rank and score for a candidate.
	// Returns ErrNotFound if the candidate is unknown.
	Rank(ctx context.Context, id string) (Entry, error)

	// TopN returns the top-N entries ordered by score desc, then id asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of candidates tracked.
	Count(ctx context.Context) int
}

package loadtest

import (
	"time"

	"github.com/okian/resonance/internal/domain/model"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Artists    int           // Number of artist records to score
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Record generator seed; 0 draws one
	Sparsity   float64       // Probability that a field is dropped from a record
	OutputFile string        // Optional JSON dump of the generated records
	Verbose    bool          // Log every failed request
}

// request pairs an artist with the comparable it is scored against.
type request struct {
	Artist     model.MetricsRecord `json:"artist"`
	Comparable model.MetricsRecord `json:"comparable"`
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Successful int
	Fallbacks  int
	Violations int
	Failed     int
	Tiers      map[string]int
	Trainings  int64
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

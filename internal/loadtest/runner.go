// Package loadtest drives a running resonance service with generated artist
// records and checks every response against the result invariants.
package loadtest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/okian/resonance/pkg/logger"
)

const (
	directoryPermission = 0750
	filePermission      = 0600
	workerBuffer        = 2
	percent             = 100
)

// Run executes the complete load test and writes a summary table to out.
func Run(ctx context.Context, cfg *Config, out io.Writer) (*Stats, error) {
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, cfg.Workers)
	}
	stats := &Stats{StartTime: time.Now(), Tiers: make(map[string]int)}
	log := logger.Get().Named("loadtest")

	log.Info(ctx, "starting resonance load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("artists", cfg.Artists),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := checkServiceHealth(ctx, client); err != nil {
		return nil, err
	}

	reqs, err := generateRequests(ctx, cfg, stats)
	if err != nil {
		return nil, fmt.Errorf("record generation failed: %w", err)
	}
	if cfg.OutputFile != "" {
		if err := saveRequests(cfg.OutputFile, reqs); err != nil {
			log.Warn(ctx, "failed to save records", logger.Error(err))
		}
	}

	submit(ctx, cfg, client, reqs, stats)

	if err := collectServiceStats(ctx, client, stats); err != nil {
		log.Warn(ctx, "failed to read service stats", logger.Error(err))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	if err := writeSummary(out, stats); err != nil {
		return stats, fmt.Errorf("write summary: %w", err)
	}

	log.Info(ctx, "load test finished",
		logger.Int("successful", stats.Successful),
		logger.Int("fallbacks", stats.Fallbacks),
		logger.Int("violations", stats.Violations),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
	)
	if stats.Violations > 0 {
		return stats, fmt.Errorf("%w: %d of %d responses", ErrViolations, stats.Violations, stats.Submitted)
	}
	return stats, nil
}

// submit scores every request and classifies every artist with cfg.Workers
// concurrent workers.
func submit(ctx context.Context, cfg *Config, client *httpClient, reqs []request, stats *Stats) {
	jobs := make(chan request, cfg.Workers*workerBuffer)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range jobs {
				o := scoreOne(ctx, client, req)
				mu.Lock()
				o.apply(stats)
				mu.Unlock()
				if o.err != nil && cfg.Verbose {
					logger.Get().Warn(ctx, "request failed",
						logger.String("artist", req.Artist.Name),
						logger.Error(o.err),
					)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, req := range reqs {
			select {
			case <-ctx.Done():
				return
			case jobs <- req:
			}
		}
	}()

	wg.Wait()
}

func checkServiceHealth(ctx context.Context, client *httpClient) error {
	status, _, err := client.get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

func collectServiceStats(ctx context.Context, client *httpClient, stats *Stats) error {
	status, raw, err := client.get(ctx, "/stats")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("stats returned %d", status)
	}
	var body struct {
		Trainings int64 `json:"trainings"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return fmt.Errorf("decode stats: %w", err)
	}
	stats.Trainings = body.Trainings
	return nil
}

// saveRequests writes the generated records as a JSON array.
func saveRequests(filename string, reqs []request) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(reqs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}

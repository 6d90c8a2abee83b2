// Command loadtest drives a running resonance service with generated artist
// records and verifies every response.
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/resonance/internal/loadtest"
	"github.com/okian/resonance/pkg/logger"
	"github.com/spf13/cobra"
)

// Default configuration constants.
const (
	defaultArtists     = 1000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
	defaultSparsity    = 0.2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("load test failed: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &loadtest.Config{}
	var deadline time.Duration

	cmd := &cobra.Command{
		Use:           "loadtest",
		Short:         "Scores generated artists against a running service and checks every result",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWithWriter(cmd.ErrOrStderr(), false); err != nil {
				return err
			}
			if !cfg.Verbose {
				_ = logger.SetLevelString("warn")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), deadline)
			defer cancel()
			_, err := loadtest.Run(ctx, cfg, cmd.OutOrStdout())
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	flags.IntVarP(&cfg.Artists, "artists", "n", defaultArtists, "number of artist records to score")
	flags.IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU()*defaultWorkers, "number of concurrent workers")
	flags.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	flags.DurationVar(&deadline, "deadline", defaultTestTimeout, "overall run deadline")
	flags.Uint64Var(&cfg.Seed, "seed", 0, "record generator seed (0 = random)")
	flags.Float64Var(&cfg.Sparsity, "sparsity", defaultSparsity, "probability of dropping each field")
	flags.StringVarP(&cfg.OutputFile, "output", "o", "", "write the generated records to FILE")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log progress and every failed request")
	return cmd
}

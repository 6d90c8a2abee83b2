package main

import (
	"github.com/okian/resonance/internal/calibration"
	"github.com/okian/resonance/internal/domain/features"
	"github.com/okian/resonance/internal/domain/model"
	"github.com/okian/resonance/internal/domain/synth"
	"github.com/spf13/cobra"
)

const (
	defaultAuditSamples = 2000
	defaultFeatureNoise = 0.1
	defaultTargetNoise  = 10.0
)

func newAuditCmd(opts *options) *cobra.Command {
	var (
		samples      int
		seed         uint64
		featureNoise float64
		targetNoise  float64
	)
	cmd := &cobra.Command{
		Use:   "audit-prior",
		Short: "Fits OLS to the request-path corpus and compares it with the generator prior",
		Long:  `Draws the corpus the service trains on for an artist with every metric absent and fits ordinary least squares to it. Agreement between fitted and prior coefficients means request-path importances restate the prior.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = opts.cfg.CalibrationSeed
			}
			base := features.Vectorize(model.MetricsRecord{})
			audit, err := calibration.New(calibration.WithSeed(seed)).AuditPrior(cmd.Context(), base, samples,
				synth.WithFeatureNoise(featureNoise),
				synth.WithTargetNoise(targetNoise),
			)
			if err != nil {
				return err
			}
			return opts.write(cmd, audit)
		},
	}

	cmd.Flags().IntVarP(&samples, "samples", "n", defaultAuditSamples, "request-path corpus size")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "corpus seed")
	cmd.Flags().Float64Var(&featureNoise, "feature-noise", defaultFeatureNoise, "per-feature noise standard deviation")
	cmd.Flags().Float64Var(&targetNoise, "target-noise", defaultTargetNoise, "target noise standard deviation")
	return cmd
}

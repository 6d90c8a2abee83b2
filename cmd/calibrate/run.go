package main

import (
	"fmt"

	"github.com/okian/resonance/internal/calibration"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *options) *cobra.Command {
	var (
		samples int
		seed    uint64
		step    float64
		workers int
		folds   int
		strict  bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scores every model family and searches blend weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if !flags.Changed("samples") {
				samples = opts.cfg.CalibrationSamples
			}
			if !flags.Changed("seed") {
				seed = opts.cfg.CalibrationSeed
			}
			if !flags.Changed("step") {
				step = opts.cfg.CalibrationStep
			}
			if !flags.Changed("workers") {
				workers = opts.cfg.CalibrationWorkers
			}

			report, err := calibration.New(
				calibration.WithSeed(seed),
				calibration.WithStep(step),
				calibration.WithWorkers(workers),
				calibration.WithFolds(folds),
			).Calibrate(cmd.Context(), samples)
			if err != nil {
				return err
			}
			if err := opts.write(cmd, report); err != nil {
				return err
			}
			if strict && !report.Validation.Passed {
				return errValidationFailed(report.Validation)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&samples, "samples", "n", calibration.DefaultSamples, "synthetic corpus size")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "corpus and model seed")
	cmd.Flags().Float64Var(&step, "step", 0.05, "blend weight step; 1/step must be whole")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "grid search workers (0 = one per CPU)")
	cmd.Flags().IntVar(&folds, "folds", 5, "cross-validation folds")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when the best model misses its benchmark")
	return cmd
}

func errValidationFailed(v calibration.Validation) error {
	return fmt.Errorf("%s R2 %.4f below threshold %.4f", v.Model, v.R2, v.Threshold)
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/resonance/internal/calibration"
	"github.com/okian/resonance/internal/config"
	"github.com/okian/resonance/pkg/logger"
	"github.com/spf13/cobra"
)

const outputPermission = 0o644

// options carries the flags shared by every subcommand.
type options struct {
	cfg     *config.Config
	format  string
	out     string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "calibrate",
		Short:         "Calibrates the resonance ensemble offline",
		Long:          `Fits every regressor family on a realistic synthetic corpus, validates the best one against its benchmark and grid-searches blend weights. Defaults come from RESONANCE_* settings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			w := io.Discard
			if opts.verbose {
				w = cmd.ErrOrStderr()
			}
			if err := logger.InitWithWriter(w, false); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.format, "format", "f", calibration.FormatTable, "output format: table or json")
	root.PersistentFlags().StringVarP(&opts.out, "out", "o", "", "write the report to FILE instead of stdout")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")

	root.AddCommand(newRunCmd(opts), newAuditCmd(opts))
	return root
}

// write renders v to the configured destination.
func (o *options) write(cmd *cobra.Command, v any) error {
	if o.out == "" {
		return calibration.Write(cmd.OutOrStdout(), o.format, v)
	}
	f, err := os.OpenFile(o.out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputPermission)
	if err != nil {
		return fmt.Errorf("open %s: %w", o.out, err)
	}
	if err := calibration.Write(f, o.format, v); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

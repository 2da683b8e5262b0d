package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/maltedev/brain-product-parser/internal/config"
	"github.com/maltedev/brain-product-parser/internal/metrics"
	"github.com/maltedev/brain-product-parser/pkg/logger"
	"github.com/spf13/cobra"
)

var version = "dev"

// app holds what every subcommand needs; it is filled in before any
// subcommand runs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

var (
	logLevel  string
	logFormat string
)

func main() {
	a := &app{}
	rootCmd := newRootCmd(a)

	if err := rootCmd.Execute(); err != nil {
		if a.logger != nil {
			a.logger.Error("command failed", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "brainparser",
		Short:   "Scrape one product from brain.com.ua into Postgres",
		Version: version,
		Long: `brainparser drives a Chromium browser to brain.com.ua, searches for a
product, opens the first result that is in stock and stores the title,
price, photos, review count, code and the full characteristics table.`,
		Example: `  # Parse the default product and store it
  brainparser run

  # Parse another product and keep a snapshot of its page
  TARGET_SEARCH_QUERY="Samsung Galaxy S24" brainparser run --snapshot-dir snapshots

  # Re-run the extractors on the latest snapshot without a browser
  brainparser replay --snapshot-dir snapshots

  # Export everything stored so far
  brainparser export -o results/products.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.Logging.Format = logFormat
			}

			a.cfg = cfg
			a.logger = logger.New(cfg.Logging.Level, cfg.Logging.Format)
			a.metrics = metrics.New()
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log format (json, text)")

	rootCmd.AddCommand(
		newRunCmd(a),
		newReplayCmd(a),
		newExportCmd(a),
		newServeCmd(a),
		newMigrateCmd(a),
	)

	return rootCmd
}

// guarded turns a panic inside a command into an error so it is logged and
// the process exits non-zero after deferred cleanup has run.
func guarded(a *app, fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("unexpected error", "panic", r)
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn(cmd, args)
	}
}

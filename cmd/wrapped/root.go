package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"viewing-wrapped/internal/app"
	"viewing-wrapped/internal/config"
	"viewing-wrapped/pkg/logging"
	"viewing-wrapped/pkg/metrics"
)

// Global flag values.
var (
	configPath string
	year       int
	verbose    bool
)

// rootCmd is the base command for wrapped.
var rootCmd = &cobra.Command{
	Use:   "wrapped",
	Short: "Summarise a year of viewing history",
	Long: `Wrapped reads a viewing history export and a genre count document and
summarises one calendar year: total hours, watch time per weekday and month,
the most watched shows and the genre mix.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().IntVarP(&year, "year", "y", 0, "year to summarise (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")

	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(genresCmd)
}

// session is the configured pipeline a subcommand runs against
type session struct {
	cfg      *config.Config
	logger   *logging.StructuredLogger
	pipeline *app.Pipeline
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if year != 0 {
		cfg.Dashboard.Year = year
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if !verbose {
		cfg.Logging.Level = "warn"
	}
	logger := app.NewLogger(cfg.Logging, "wrapped-cli")
	logger.SetOutput(os.Stderr)

	// Nothing scrapes a CLI run, so collectors go to a private registry.
	collector := metrics.NewCollector("viewing_wrapped", prometheus.NewRegistry())

	pipeline, err := app.NewPipeline(ctx, cfg, logger, collector)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, logger: logger, pipeline: pipeline}, nil
}

func (s *session) Close() error {
	return s.pipeline.Close()
}

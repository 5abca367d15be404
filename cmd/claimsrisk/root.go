package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/claims-risk/internal/adapter/mapbox"
	"github.com/couchcryptid/claims-risk/internal/config"
	"github.com/couchcryptid/claims-risk/internal/domain"
	"github.com/couchcryptid/claims-risk/internal/observability"
)

// app carries what every subcommand needs once flags and environment are read.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	resolver domain.AreaResolver
}

func newRootCmd(metrics *observability.Metrics) *cobra.Command {
	a := &app{metrics: metrics}

	var (
		logLevel  string
		dataDir   string
		outputDir string
	)

	root := &cobra.Command{
		Use:   "claimsrisk",
		Short: "Evaluate precipitation signals against insurance claims",
		Long: `claimsrisk tests whether quarterly precipitation signals (ERA5 reanalysis or
seasonal forecasts) anticipate insurance claims.

Data flow:
  generate / nask   claims series          -> DATA_DIR
  precip / forecast quarterly precipitation -> DATA_DIR
  merge             joined quarterly table  -> DATA_DIR
  analyze           labels, statistics and reports -> OUTPUT_DIR
  serve             POST /v1/evaluate over HTTP`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			if cmd.Flags().Changed("output-dir") {
				cfg.OutputDir = outputDir
			}
			a.cfg = cfg
			a.logger = observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

			// Area lookup is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
			if cfg.MapboxEnabled {
				client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, cfg.MapboxRPS, metrics, a.logger)
				a.resolver = mapbox.NewCachedResolver(client, cfg.MapboxCacheSize, metrics)
				a.logger.Debug("mapbox area lookup enabled", "cache_size", cfg.MapboxCacheSize, "rps", cfg.MapboxRPS)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error), overrides LOG_LEVEL")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for generated and processed data, overrides DATA_DIR")
	root.PersistentFlags().StringVar(&outputDir, "output-dir", "", "directory for analysis outputs, overrides OUTPUT_DIR")

	root.AddCommand(
		newGenerateCmd(a),
		newValidateCmd(a),
		newNASKCmd(a),
		newPrecipCmd(a),
		newForecastCmd(a),
		newMergeCmd(a),
		newAnalyzeCmd(a),
		newServeCmd(a),
	)
	return root
}

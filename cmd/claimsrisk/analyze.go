package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/claims-risk/internal/adapter/kafka"
	"github.com/couchcryptid/claims-risk/internal/dataset"
	"github.com/couchcryptid/claims-risk/internal/domain"
	"github.com/couchcryptid/claims-risk/internal/pipeline"
	"github.com/couchcryptid/claims-risk/internal/report"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		signalCol      string
		claimsCol      string
		kind           string
		quantile       float64
		threshold      float64
		dropIncomplete bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <joined.csv>...",
		Short: "Classify quarters and evaluate the precipitation signal",
		Long: `Load one or more joined quarterly tables, classify forecast and actual risk,
score high-loss detection and compute correlations. Per-city CSV and Excel
outputs plus report.md, report.html and summary.json are written to the output
directory. Labeled quarters are also published to Kafka when KAFKA_ENABLED is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			if !cmd.Flags().Changed("quantile") {
				quantile = cfg.HighLossQuantile
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.HighSignalThreshold
			}
			signalKind, err := domain.ParseSignalKind(kind)
			if err != nil {
				return err
			}

			inputs := make([]pipeline.FileInput, len(args))
			for i, path := range args {
				inputs[i] = pipeline.FileInput{Path: path, Options: dataset.LoadOptions{
					SignalColumn:   signalCol,
					ClaimsColumn:   claimsCol,
					Kind:           signalKind,
					DropIncomplete: dropIncomplete,
				}}
			}
			src := pipeline.FileSource{
				Inputs: inputs,
				OnDropped: func(city string, dropped []domain.Period) {
					a.logger.Warn("dropped incomplete rows", "city", city, "count", len(dropped), "periods", dropped)
				},
			}

			sinks := []pipeline.Sink{pipeline.DirSink{Dir: cfg.OutputDir}}
			if cfg.KafkaEnabled {
				pub := kafka.NewPublisher(cfg, a.logger, a.metrics)
				defer func() {
					if err := pub.Close(); err != nil {
						a.logger.Error("kafka publisher close error", "error", err)
					}
				}()
				sinks = append(sinks, pub)
			}

			analyzer := pipeline.NewAnalyzer(a.logger, a.metrics,
				pipeline.WithHighLossQuantile(quantile),
				pipeline.WithHighSignalThreshold(threshold),
			)
			p := pipeline.New(analyzer, sinks, a.logger, a.metrics)

			analyses, runErr := p.Run(ctx, src)
			if len(analyses) > 0 {
				if err := writeReports(cfg.OutputDir, analyses); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}
			if cfg.MetricsTextfile != "" {
				if err := a.metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&signalCol, "signal", dataset.DefaultSignalColumn, "signal column name")
	cmd.Flags().StringVar(&claimsCol, "claims", dataset.DefaultClaimsColumn, "claims column name")
	cmd.Flags().StringVar(&kind, "kind", string(domain.SignalAnomaly), "signal kind (anomaly|raw)")
	cmd.Flags().Float64Var(&quantile, "quantile", 0, "high-loss claims quantile, overrides HIGH_LOSS_QUANTILE")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "high-signal threshold, overrides HIGH_SIGNAL_THRESHOLD")
	cmd.Flags().BoolVar(&dropIncomplete, "drop-incomplete", false, "skip rows with missing signal or claims")
	return cmd
}

// writeReports renders the cross-city reports into dir.
func writeReports(dir string, analyses []*domain.Analysis) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	md, err := report.Markdown(analyses)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "report.md"), md, 0o644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	page := report.RenderHTML(md, "Precipitation signal vs claims")
	if err := os.WriteFile(filepath.Join(dir, "report.html"), page, 0o644); err != nil {
		return fmt.Errorf("write html report: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "summary.json"))
	if err != nil {
		return fmt.Errorf("create summary: %w", err)
	}
	if err := report.WriteJSON(f, analyses); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/claims-risk/internal/adapter/http"
	"github.com/couchcryptid/claims-risk/internal/adapter/kafka"
	"github.com/couchcryptid/claims-risk/internal/pipeline"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /v1/evaluate with health and metrics endpoints",
		Long: `Run the HTTP API. POST /v1/evaluate accepts a joined quarterly CSV and returns
the analysis as JSON, Markdown or HTML. /healthz, /readyz and /metrics are
served alongside. When KAFKA_ENABLED is set every evaluation is also published
and readiness reflects broker reachability.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			logger := a.logger

			var sinks []pipeline.Sink
			var pub *kafka.Publisher
			if cfg.KafkaEnabled {
				pub = kafka.NewPublisher(cfg, logger, a.metrics)
				sinks = append(sinks, pub)
			}

			analyzer := pipeline.NewAnalyzer(logger, a.metrics,
				pipeline.WithHighLossQuantile(cfg.HighLossQuantile),
				pipeline.WithHighSignalThreshold(cfg.HighSignalThreshold),
			)
			p := pipeline.New(analyzer, sinks, logger, a.metrics)
			srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, a.metrics.Gatherer(), logger)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				logger.Info("shutting down")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
				defer cancel()

				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Error("http server shutdown error", "error", err)
				}
				if pub != nil {
					if err := pub.Close(); err != nil {
						logger.Error("kafka publisher close error", "error", err)
					}
				}
				return nil
			})

			err := g.Wait()
			logger.Info("shutdown complete")
			return err
		},
	}
}

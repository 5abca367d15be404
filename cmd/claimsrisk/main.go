// Command claimsrisk evaluates whether quarterly precipitation signals anticipate
// insurance claims. It generates the synthetic claims series, aggregates ERA5 and
// seasonal forecast NetCDF files, joins them, and runs the risk analysis either
// as a batch or behind an HTTP endpoint.
//
// Usage:
//
//	claimsrisk generate --city all
//	claimsrisk precip --city bergen --file data/raw/era5_bergen.nc
//	claimsrisk merge data/bergen_quarterly_claims.csv data/bergen_precip_quarterly.csv --out data/bergen_joined.csv
//	claimsrisk analyze data/bergen_joined.csv data/oslo_joined.csv
//	claimsrisk serve
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/claims-risk/internal/config"
	"github.com/couchcryptid/claims-risk/internal/observability"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(observability.NewMetrics())
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/claims-risk/internal/climate"
	"github.com/couchcryptid/claims-risk/internal/dataset"
	"github.com/couchcryptid/claims-risk/internal/domain"
)

func newPrecipCmd(a *app) *cobra.Command {
	var (
		city string
		file string
		out  string
	)

	cmd := &cobra.Command{
		Use:   "precip",
		Short: "Aggregate an ERA5 precipitation grid to quarterly anomalies",
		Long: `Read an ERA5 reanalysis NetCDF file, average it over the city's bounding box,
sum it by calendar quarter and write <city>_precip_quarterly.csv with pooled
anomalies and risk levels. Unknown cities are resolved through Mapbox when
MAPBOX_ENABLED is set; otherwise every grid cell is used.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			area, ok := domain.ResolveArea(cmd.Context(), city, a.resolver, a.logger)
			if !ok {
				a.logger.Warn("no bounding box for city, averaging the full grid", "city", city)
			}

			series, err := climate.ReadPrecipitation(file, area)
			if err != nil {
				return err
			}
			values := series.Members[0]
			if series.IsEnsemble() {
				ens, err := climate.EnsembleStats(series)
				if err != nil {
					return err
				}
				values = ens.Mean
				a.logger.Info("ensemble input reduced to member mean", "members", len(series.Members))
			}

			totals, err := climate.QuarterlyTotals(series.Times, values)
			if err != nil {
				return err
			}
			anomalies, err := climate.PooledAnomalies(totals)
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Join(a.cfg.DataDir, strings.ToLower(city)+"_precip_quarterly.csv")
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			if err := dataset.PrecipTable(anomalies).WriteCSVFile(out); err != nil {
				return err
			}
			a.logger.Info("precipitation aggregated",
				"city", city,
				"variable", series.Variable,
				"area", area.String(),
				"timesteps", len(series.Times),
				"quarters", len(anomalies),
				"path", out,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "city whose bounding box to average over")
	cmd.Flags().StringVar(&file, "file", "", "ERA5 NetCDF file")
	cmd.Flags().StringVar(&out, "out", "", "output CSV (default <data-dir>/<city>_precip_quarterly.csv)")
	_ = cmd.MarkFlagRequired("city")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newForecastCmd(a *app) *cobra.Command {
	var (
		city     string
		forecast string
		observed string
		out      string
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Reduce a seasonal forecast ensemble to quarterly statistics",
		Long: `Read a seasonal forecast NetCDF ensemble and, optionally, an ERA5 file for the
same area. Writes <city>_forecast_quarterly.csv with the quarterly ensemble
mean, median and 90th percentile, the observed total, and the seasonal anomaly
of the forecast mean.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			area, ok := domain.ResolveArea(cmd.Context(), city, a.resolver, a.logger)
			if !ok {
				a.logger.Warn("no bounding box for city, averaging the full grid", "city", city)
			}

			fc, err := climate.ReadPrecipitation(forecast, area)
			if err != nil {
				return err
			}
			var obs *climate.Series
			if observed != "" {
				if obs, err = climate.ReadPrecipitation(observed, area); err != nil {
					return err
				}
			}

			quarters, err := climate.BuildForecast(fc, obs)
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Join(a.cfg.DataDir, strings.ToLower(city)+"_forecast_quarterly.csv")
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			if err := dataset.ForecastTable(quarters).WriteCSVFile(out); err != nil {
				return err
			}
			a.logger.Info("forecast aggregated",
				"city", city,
				"members", len(fc.Members),
				"observed", observed != "",
				"quarters", len(quarters),
				"path", out,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "city whose bounding box to average over")
	cmd.Flags().StringVar(&forecast, "forecast", "", "seasonal forecast NetCDF file")
	cmd.Flags().StringVar(&observed, "observed", "", "optional ERA5 NetCDF file for observed totals")
	cmd.Flags().StringVar(&out, "out", "", "output CSV (default <data-dir>/<city>_forecast_quarterly.csv)")
	_ = cmd.MarkFlagRequired("city")
	_ = cmd.MarkFlagRequired("forecast")
	return cmd
}

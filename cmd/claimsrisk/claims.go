package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/claims-risk/internal/claims"
	"github.com/couchcryptid/claims-risk/internal/dataset"
)

func profilesFor(city string) ([]claims.Profile, error) {
	if strings.EqualFold(city, "all") {
		return []claims.Profile{claims.Bergen(), claims.Oslo()}, nil
	}
	p, err := claims.ProfileFor(city)
	if err != nil {
		return nil, err
	}
	return []claims.Profile{p}, nil
}

func newGenerateCmd(a *app) *cobra.Command {
	var (
		city string
		seed uint64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate synthetic daily and quarterly claims",
		Long: `Generate the calibrated synthetic claims series for Bergen and/or Oslo and
write <city>_daily_claims.csv and <city>_quarterly_claims.csv to the data
directory. The series is validated against its profile after generation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = a.cfg.ClaimsSeed
			}
			profiles, err := profilesFor(city)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}

			for _, p := range profiles {
				days, err := claims.Generate(p, seed)
				if err != nil {
					return fmt.Errorf("generate %s: %w", p.City, err)
				}
				quarters := claims.AggregateQuarterly(days)

				stem := strings.ToLower(p.City)
				dailyPath := filepath.Join(a.cfg.DataDir, stem+"_daily_claims.csv")
				quarterlyPath := filepath.Join(a.cfg.DataDir, stem+"_quarterly_claims.csv")
				if err := dataset.DailyClaimsTable(days).WriteCSVFile(dailyPath); err != nil {
					return err
				}
				if err := dataset.QuarterlyClaimsTable(quarters).WriteCSVFile(quarterlyPath); err != nil {
					return err
				}

				report := claims.Validate(p, days, quarters)
				a.logger.Info("claims generated",
					"city", p.City,
					"seed", seed,
					"days", report.Days,
					"quarters", report.Quarters,
					"total_claims", report.TotalClaims,
					"natural_perils", report.NaturalPerils,
					"daily", dailyPath,
					"quarterly", quarterlyPath,
				)
				if !report.Passed() {
					a.logger.Warn("generated series outside expected bands", "city", p.City, "error", report.Err())
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&city, "city", "all", "city to generate (bergen|oslo|all)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed, overrides CLAIMS_SEED")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var (
		city string
		seed uint64
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a generated claims series against its calibration",
		Long: `Regenerate the claims series with the given seed and check its day-count
distribution, natural-peril share and calendar against the city profile.
Exits non-zero if any check fails.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = a.cfg.ClaimsSeed
			}
			profiles, err := profilesFor(city)
			if err != nil {
				return err
			}

			var failed []error
			for _, p := range profiles {
				days, err := claims.Generate(p, seed)
				if err != nil {
					return fmt.Errorf("generate %s: %w", p.City, err)
				}
				report := claims.Validate(p, days, claims.AggregateQuarterly(days))
				printReport(cmd.OutOrStdout(), report)
				if err := report.Err(); err != nil {
					failed = append(failed, err)
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d of %d series failed validation: %w", len(failed), len(profiles), failed[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&city, "city", "all", "city to validate (bergen|oslo|all)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed, overrides CLAIMS_SEED")
	return cmd
}

func printReport(w io.Writer, r claims.Report) {
	fmt.Fprintf(w, "%s: %d days, %d quarters, %d claims (%.2f/week), %d natural perils\n",
		r.City, r.Days, r.Quarters, r.TotalClaims, r.AvgPerWeek, r.NaturalPerils)
	for _, c := range r.Checks {
		status := "ok"
		if !c.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "  %-4s %-20s %8.2f  [%.2f, %.2f]\n", status, c.Name, c.Value, c.Min, c.Max)
	}
	for _, q := range r.TopQuarters {
		fmt.Fprintf(w, "  top quarter %s: %d claims\n", q.Period, q.TotalClaims)
	}
}

func newNASKCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "nask",
		Short: "Write the Oslo natural-peril payout series",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			quarters := claims.OsloNASK()
			path := filepath.Join(a.cfg.DataDir, "oslo_nask_quarterly.csv")
			if err := dataset.NASKTable(quarters).WriteCSVFile(path); err != nil {
				return err
			}
			a.logger.Info("nask payouts written", "quarters", len(quarters), "path", path)
			return nil
		},
	}
}

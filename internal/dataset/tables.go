package dataset

import (
	"strconv"
	"time"

	"github.com/couchcryptid/claims-risk/internal/claims"
	"github.com/couchcryptid/claims-risk/internal/climate"
	"github.com/couchcryptid/claims-risk/internal/domain"
)

func periodCells(p domain.Period) []string {
	return []string{p.String(), formatInt(p.Year), formatInt(p.Quarter)}
}

// DailyClaimsTable lays out generated days one per row.
func DailyClaimsTable(days []claims.DailyClaims) *Table {
	t := NewTable("date", "total_claims", "natural_perils", "rain_associated", "year", "month", ColQuarter)
	for _, d := range days {
		t.Rows = append(t.Rows, []string{
			d.Date.Format(time.DateOnly),
			formatInt(d.TotalClaims),
			formatInt(d.NaturalPerils),
			formatInt(d.RainAssociated),
			formatInt(d.Date.Year()),
			formatInt(int(d.Date.Month())),
			formatInt(domain.PeriodOf(d.Date).Quarter),
		})
	}
	return t
}

// QuarterlyClaimsTable lays out aggregated claims quarters.
func QuarterlyClaimsTable(quarters []claims.Quarter) *Table {
	t := NewTable(ColPeriod, ColYear, ColQuarter, "total_claims", "natural_perils",
		"rain_associated", "days_with_claims", "max_daily_claims")
	for _, q := range quarters {
		t.Rows = append(t.Rows, append(periodCells(q.Period),
			formatInt(q.TotalClaims),
			formatInt(q.NaturalPerils),
			formatInt(q.RainAssociated),
			formatInt(q.DaysWithClaims),
			formatInt(q.MaxDailyClaims),
		))
	}
	return t
}

// NASKTable lays out payout quarters.
func NASKTable(quarters []claims.NASKQuarter) *Table {
	t := NewTable(ColPeriod, ColYear, ColQuarter, "payout_1000nok", "payout_nok",
		"payout_million_nok", "date", "is_extreme", "is_high")
	for _, q := range quarters {
		t.Rows = append(t.Rows, append(periodCells(q.Period),
			formatFloat(q.PayoutKNOK),
			formatFloat(q.PayoutNOK),
			formatFloat(q.PayoutMillionNOK),
			q.Date.Format(time.DateOnly),
			strconv.FormatBool(q.IsExtreme),
			strconv.FormatBool(q.IsHigh),
		))
	}
	return t
}

// PrecipTable lays out observed quarterly precipitation with pooled anomalies.
func PrecipTable(anomalies []climate.Anomaly) *Table {
	t := NewTable(ColPeriod, ColYear, ColQuarter, "total_precip_mm", "quarter_start_date",
		"precip_anomaly", "precip_anomaly_mm", "risk_level")
	for _, a := range anomalies {
		t.Rows = append(t.Rows, append(periodCells(a.Period),
			formatFloat(a.TotalMM),
			a.Start.Format(time.DateOnly),
			formatFloat(a.Anomaly),
			formatFloat(a.AnomalyMM),
			string(a.Risk),
		))
	}
	return t
}

// ForecastTable lays out forecast/observation pairs.
func ForecastTable(quarters []climate.ForecastQuarter) *Table {
	t := NewTable(ColPeriod, ColYear, ColQuarter, "forecast_mean_precip", "forecast_median_precip",
		"forecast_90th_precip", "observed_precip", "precip_anomaly")
	for _, q := range quarters {
		t.Rows = append(t.Rows, append(periodCells(q.Period),
			formatFloat(q.ForecastMean),
			formatFloat(q.ForecastMedian),
			formatFloat(q.ForecastP90),
			formatFloat(q.Observed),
			formatFloat(q.Anomaly),
		))
	}
	return t
}

// AnalysisTable lays out the labeled quarters of an analysis.
func AnalysisTable(a *domain.Analysis) *Table {
	t := NewTable(ColPeriod, ColYear, ColQuarter, "precip_signal", "precip_anomaly", "total_claims",
		"forecast_risk", "actual_risk", "is_high_loss", "forecast_high")
	for _, q := range a.Quarters {
		t.Rows = append(t.Rows, append(periodCells(q.Period),
			formatFloat(q.PrecipSignal),
			formatFloat(q.PrecipAnomaly),
			formatFloat(q.ClaimsTotal),
			string(q.ForecastRisk),
			string(q.ActualRisk),
			strconv.FormatBool(q.IsHighLoss),
			strconv.FormatBool(q.ForecastHigh),
		))
	}
	return t
}

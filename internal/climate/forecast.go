package climate

import (
	"fmt"
	"math"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

// ForecastQuarter pairs seasonal forecast statistics with the observed total
// for one quarter. Observed is NaN when no reanalysis series was supplied.
type ForecastQuarter struct {
	Period         domain.Period `json:"period"`
	ForecastMean   float64       `json:"forecast_mean_precip"`
	ForecastMedian float64       `json:"forecast_median_precip"`
	ForecastP90    float64       `json:"forecast_90th_precip"`
	Observed       float64       `json:"observed_precip"`
	// Anomaly is the seasonal anomaly of ForecastMean.
	Anomaly float64 `json:"precip_anomaly"`
}

// BuildForecast reduces a forecast ensemble to quarterly totals of its mean,
// median and 90th percentile, attaches observed totals when observed is
// non-nil, and deseasonalizes the forecast mean.
func BuildForecast(forecast, observed *Series) ([]ForecastQuarter, error) {
	ens, err := EnsembleStats(forecast)
	if err != nil {
		return nil, fmt.Errorf("forecast ensemble: %w", err)
	}
	mean, err := QuarterlyTotals(ens.Times, ens.Mean)
	if err != nil {
		return nil, err
	}
	median, err := QuarterlyTotals(ens.Times, ens.Median)
	if err != nil {
		return nil, err
	}
	p90, err := QuarterlyTotals(ens.Times, ens.P90)
	if err != nil {
		return nil, err
	}

	obs := make(map[domain.Period]float64)
	if observed != nil {
		if len(observed.Members) == 0 {
			return nil, fmt.Errorf("observed series has no members: %w", domain.ErrInvalidInput)
		}
		totals, err := QuarterlyTotals(observed.Times, observed.Members[0])
		if err != nil {
			return nil, err
		}
		for _, q := range totals {
			obs[q.Period] = q.TotalMM
		}
	}

	byPeriod := func(qs []QuarterTotal) map[domain.Period]float64 {
		m := make(map[domain.Period]float64, len(qs))
		for _, q := range qs {
			m[q.Period] = q.TotalMM
		}
		return m
	}
	medians, p90s := byPeriod(median), byPeriod(p90)

	out := make([]ForecastQuarter, len(mean))
	periods := make([]domain.Period, len(mean))
	means := make([]float64, len(mean))
	for i, q := range mean {
		o, ok := obs[q.Period]
		if !ok {
			o = math.NaN()
		}
		out[i] = ForecastQuarter{
			Period:         q.Period,
			ForecastMean:   q.TotalMM,
			ForecastMedian: medians[q.Period],
			ForecastP90:    p90s[q.Period],
			Observed:       o,
		}
		periods[i] = q.Period
		means[i] = q.TotalMM
	}

	anomalies, err := SeasonalAnomalies(periods, means)
	if err != nil {
		return nil, fmt.Errorf("forecast anomalies: %w", err)
	}
	for i := range out {
		out[i].Anomaly = anomalies[i]
	}
	return out, nil
}

package climate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/couchcryptid/claims-risk/internal/domain"
	"github.com/couchcryptid/claims-risk/internal/risk"
)

// QuarterTotal is the precipitation summed over one calendar quarter.
type QuarterTotal struct {
	Period  domain.Period `json:"period"`
	TotalMM float64       `json:"total_precip_mm"`
	Steps   int           `json:"steps"`
	Start   time.Time     `json:"quarter_start_date"`
}

// QuarterlyTotals sums values by calendar quarter, skipping NaN steps. A
// quarter whose steps are all NaN is omitted.
func QuarterlyTotals(times []time.Time, values []float64) ([]QuarterTotal, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("quarterly totals: %d times vs %d values: %w",
			len(times), len(values), domain.ErrInvalidInput)
	}

	byPeriod := make(map[domain.Period]*QuarterTotal)
	for i, t := range times {
		if math.IsNaN(values[i]) {
			continue
		}
		p := domain.PeriodOf(t.UTC())
		q, ok := byPeriod[p]
		if !ok {
			q = &QuarterTotal{Period: p, Start: t.UTC()}
			byPeriod[p] = q
		}
		q.TotalMM += values[i]
		q.Steps++
		if t.Before(q.Start) {
			q.Start = t.UTC()
		}
	}

	out := make([]QuarterTotal, 0, len(byPeriod))
	for _, q := range byPeriod {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}

// Anomaly is a quarterly total expressed against the pooled climatology.
type Anomaly struct {
	QuarterTotal
	Anomaly   float64           `json:"precip_anomaly"`
	AnomalyMM float64           `json:"precip_anomaly_mm"`
	Risk      domain.PrecipRisk `json:"risk_level"`
}

// PooledAnomalies standardizes every quarter against the mean and sample
// standard deviation of all quarters together. The result still carries the
// seasonal cycle, so it is for reporting only.
func PooledAnomalies(quarters []QuarterTotal) ([]Anomaly, error) {
	if len(quarters) < 2 {
		return nil, fmt.Errorf("pooled anomalies need at least 2 quarters, got %d: %w",
			len(quarters), domain.ErrInsufficientData)
	}
	totals := make([]float64, len(quarters))
	for i, q := range quarters {
		totals[i] = q.TotalMM
	}
	mean, err := stats.Mean(totals)
	if err != nil {
		return nil, err
	}
	std, err := stats.StandardDeviationSample(totals)
	if err != nil {
		return nil, err
	}

	out := make([]Anomaly, len(quarters))
	for i, q := range quarters {
		a := Anomaly{QuarterTotal: q, AnomalyMM: q.TotalMM - mean}
		if std > 0 {
			a.Anomaly = a.AnomalyMM / std
		}
		a.Risk = risk.ClassifyPrecipAnomaly(a.Anomaly)
		out[i] = a
	}
	return out, nil
}

// SeasonalAnomalies standardizes each value against the mean and sample
// standard deviation of the values sharing its quarter-of-year. Every
// quarter-of-year present needs at least two observations; a group with zero
// spread yields anomalies of 0.
func SeasonalAnomalies(periods []domain.Period, values []float64) ([]float64, error) {
	if len(periods) != len(values) {
		return nil, fmt.Errorf("seasonal anomalies: %d periods vs %d values: %w",
			len(periods), len(values), domain.ErrInvalidInput)
	}
	groups := make(map[int][]float64)
	for i, p := range periods {
		if math.IsNaN(values[i]) {
			return nil, fmt.Errorf("seasonal anomalies: %s is NaN: %w", p, domain.ErrInvalidInput)
		}
		groups[p.Quarter] = append(groups[p.Quarter], values[i])
	}

	type climatology struct{ mean, std float64 }
	clim := make(map[int]climatology, len(groups))
	for quarter, vals := range groups {
		if len(vals) < 2 {
			return nil, fmt.Errorf("seasonal anomalies: Q%d has %d observation: %w",
				quarter, len(vals), domain.ErrInsufficientData)
		}
		mean, err := stats.Mean(vals)
		if err != nil {
			return nil, err
		}
		std, err := stats.StandardDeviationSample(vals)
		if err != nil {
			return nil, err
		}
		clim[quarter] = climatology{mean: mean, std: std}
	}

	out := make([]float64, len(values))
	for i, p := range periods {
		c := clim[p.Quarter]
		if c.std > 0 {
			out[i] = (values[i] - c.mean) / c.std
		}
	}
	return out, nil
}

package claims

import (
	"github.com/couchcryptid/claims-risk/internal/domain"
)

// Quarter aggregates daily claims over a calendar quarter.
type Quarter struct {
	Period         domain.Period `json:"period"`
	TotalClaims    int           `json:"total_claims"`
	NaturalPerils  int           `json:"natural_perils"`
	RainAssociated int           `json:"rain_associated"`
	DaysWithClaims int           `json:"days_with_claims"`
	MaxDailyClaims int           `json:"max_daily_claims"`
	DaysInQuarter  int           `json:"days_in_quarter"`
}

// AggregateQuarterly groups days by quarter, in chronological order.
func AggregateQuarterly(days []DailyClaims) []Quarter {
	var out []Quarter
	index := make(map[domain.Period]int)
	for _, d := range days {
		p := domain.PeriodOf(d.Date)
		i, ok := index[p]
		if !ok {
			i = len(out)
			index[p] = i
			out = append(out, Quarter{Period: p})
		}
		q := &out[i]
		q.TotalClaims += d.TotalClaims
		q.NaturalPerils += d.NaturalPerils
		q.RainAssociated += d.RainAssociated
		q.DaysInQuarter++
		if d.TotalClaims > 0 {
			q.DaysWithClaims++
		}
		q.MaxDailyClaims = max(q.MaxDailyClaims, d.TotalClaims)
	}
	return out
}

// Columns returns the optional per-period columns a quarter contributes to a
// dataset, keyed by column name.
func Columns(quarters []Quarter) map[string]map[domain.Period]float64 {
	cols := map[string]map[domain.Period]float64{
		"natural_perils":   {},
		"rain_associated":  {},
		"days_with_claims": {},
		"max_daily_claims": {},
	}
	for _, q := range quarters {
		cols["natural_perils"][q.Period] = float64(q.NaturalPerils)
		cols["rain_associated"][q.Period] = float64(q.RainAssociated)
		cols["days_with_claims"][q.Period] = float64(q.DaysWithClaims)
		cols["max_daily_claims"][q.Period] = float64(q.MaxDailyClaims)
	}
	return cols
}

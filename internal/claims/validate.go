package claims

import (
	"errors"
	"fmt"
	"sort"
)

// ErrValidation is wrapped by Report.Err when a generated series falls
// outside its profile's expected bands.
var ErrValidation = errors.New("claims validation failed")

// Check is one expectation evaluated against a generated series.
type Check struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Passed bool    `json:"passed"`
}

// Report summarizes a generated series and the checks run against it.
type Report struct {
	City          string        `json:"city"`
	Days          int           `json:"days"`
	ZeroDays      int           `json:"zero_days"`
	OneDays       int           `json:"one_days"`
	MultiDays     int           `json:"multi_days"`
	TotalClaims   int           `json:"total_claims"`
	NaturalPerils int           `json:"natural_perils"`
	HighClaimDays int           `json:"high_claim_days"`
	AvgPerWeek    float64       `json:"avg_per_week"`
	Quarters      int           `json:"quarters"`
	TopDays       []DailyClaims `json:"top_days"`
	TopQuarters   []Quarter     `json:"top_quarters"`
	Checks        []Check       `json:"checks"`
}

// Passed reports whether every check passed.
func (r Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Err joins the failed checks into one error, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, c := range r.Checks {
		if !c.Passed {
			errs = append(errs, fmt.Errorf("%s: %s = %.2f, want [%.2f, %.2f]: %w",
				r.City, c.Name, c.Value, c.Min, c.Max, ErrValidation))
		}
	}
	return errors.Join(errs...)
}

// Validate checks a generated series against the profile's expectation.
func Validate(p Profile, days []DailyClaims, quarters []Quarter) Report {
	r := Report{City: p.City, Days: len(days), Quarters: len(quarters)}
	for _, d := range days {
		switch {
		case d.TotalClaims == 0:
			r.ZeroDays++
		case d.TotalClaims == 1:
			r.OneDays++
		default:
			r.MultiDays++
		}
		if d.TotalClaims >= 10 {
			r.HighClaimDays++
		}
		r.TotalClaims += d.TotalClaims
		r.NaturalPerils += d.NaturalPerils
	}
	if len(days) > 0 {
		r.AvgPerWeek = float64(r.TotalClaims) / (float64(len(days)) / 7)
	}

	exp := p.Expect
	r.Checks = []Check{
		exact("days", r.Days, exp.Days),
		band("zero-claim days %", pct(r.ZeroDays, r.Days), exp.ZeroDays),
		band("one-claim days %", pct(r.OneDays, r.Days), exp.OneDays),
		band("2+ claim days %", pct(r.MultiDays, r.Days), exp.MultiDays),
		band("natural perils %", pct(r.NaturalPerils, r.TotalClaims), exp.NaturalPerils),
		exact("quarters", r.Quarters, exp.Quarters),
	}

	r.TopDays = topDays(days, 5)
	r.TopQuarters = topQuarters(quarters, 5)
	return r
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func band(name string, v float64, r Range) Check {
	return Check{Name: name, Value: v, Min: r.Min, Max: r.Max, Passed: r.Contains(v)}
}

// exact checks an integer expectation; a zero expectation always passes.
func exact(name string, got, want int) Check {
	c := Check{Name: name, Value: float64(got), Min: float64(want), Max: float64(want), Passed: true}
	if want > 0 {
		c.Passed = got == want
	}
	return c
}

func topDays(days []DailyClaims, n int) []DailyClaims {
	var high []DailyClaims
	for _, d := range days {
		if d.TotalClaims >= 10 {
			high = append(high, d)
		}
	}
	sort.SliceStable(high, func(i, j int) bool { return high[i].TotalClaims > high[j].TotalClaims })
	if len(high) > n {
		high = high[:n]
	}
	return high
}

func topQuarters(quarters []Quarter, n int) []Quarter {
	sorted := make([]Quarter, len(quarters))
	copy(sorted, quarters)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TotalClaims > sorted[j].TotalClaims })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

package claims

import (
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

// Extreme pins a known event onto a calendar day.
type Extreme struct {
	Date   string
	Claims int
	// NaturalPerils overrides the binomial draw when positive.
	NaturalPerils int
}

// Range is an inclusive percentage band used by Validate.
type Range struct {
	Min, Max float64
}

// Contains reports whether pct lies inside the band.
func (r Range) Contains(pct float64) bool { return pct >= r.Min && pct <= r.Max }

// Expectation is the set of bands a generated series must fall into.
type Expectation struct {
	ZeroDays      Range
	OneDays       Range
	MultiDays     Range
	NaturalPerils Range
	Days          int
	Quarters      int
}

// Profile calibrates the generator for one city.
type Profile struct {
	City string

	Start, End time.Time

	ZeroShare float64
	OneShare  float64

	// Claim counts for ordinary 2+ days and their weights.
	MultiValues  []int
	MultiWeights []float64

	// HighDays days get a uniform count in [HighMin, HighMax).
	HighDays int
	HighMin  int
	HighMax  int

	Extremes []Extreme

	NaturalPerilRate float64
	RainFromNatural  float64
	RainFromOther    float64

	Expect Expectation
}

var (
	studyStart = time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC)
	studyEnd   = time.Date(2021, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// Bergen is calibrated to 80.5% zero-claim days, 15.4% one-claim days and a
// 55% natural-peril share, with storms Nina and Tor and the 2019 flood pinned.
func Bergen() Profile {
	return Profile{
		City:         "Bergen",
		Start:        studyStart,
		End:          studyEnd,
		ZeroShare:    0.805,
		OneShare:     0.154,
		MultiValues:  []int{2, 3, 4, 5},
		MultiWeights: []float64{0.6, 0.25, 0.10, 0.05},
		HighDays:     8,
		HighMin:      10,
		HighMax:      30,
		Extremes: []Extreme{
			{Date: "2015-01-10", Claims: 291},
			{Date: "2019-09-19", Claims: 29},
			{Date: "2016-01-29", Claims: 25},
		},
		NaturalPerilRate: 0.55,
		RainFromNatural:  0.80,
		RainFromOther:    0.10,
		Expect: Expectation{
			ZeroDays:      Range{79, 82},
			OneDays:       Range{14, 17},
			MultiDays:     Range{3, 6},
			NaturalPerils: Range{50, 60},
			Days:          2922,
			Quarters:      32,
		},
	}
}

// Oslo is calibrated to 76.2% zero-claim days and a 14% natural-peril share,
// with the 2016 Asker cloudburst and the September 2015 floods pinned.
func Oslo() Profile {
	return Profile{
		City:         "Oslo",
		Start:        studyStart,
		End:          studyEnd,
		ZeroShare:    0.762,
		OneShare:     0.178,
		MultiValues:  []int{2, 3, 4, 5, 6},
		MultiWeights: []float64{0.5, 0.25, 0.15, 0.05, 0.05},
		HighDays:     8,
		HighMin:      10,
		HighMax:      45,
		Extremes: []Extreme{
			{Date: "2016-08-06", Claims: 220, NaturalPerils: 36},
			{Date: "2015-09-03", Claims: 45, NaturalPerils: 4},
			{Date: "2015-09-04", Claims: 40, NaturalPerils: 4},
			{Date: "2015-09-05", Claims: 40, NaturalPerils: 4},
		},
		NaturalPerilRate: 0.14,
		RainFromNatural:  0.85,
		RainFromOther:    0.08,
		Expect: Expectation{
			ZeroDays:      Range{75, 78},
			OneDays:       Range{16, 19},
			MultiDays:     Range{5, 7},
			NaturalPerils: Range{10, 18},
			Days:          2922,
			Quarters:      32,
		},
	}
}

// ProfileFor looks up a built-in profile by city name, case-insensitively.
func ProfileFor(city string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(city)) {
	case "bergen":
		return Bergen(), nil
	case "oslo":
		return Oslo(), nil
	default:
		return Profile{}, fmt.Errorf("no claims profile for %q: %w", city, domain.ErrInvalidInput)
	}
}

func (p Profile) validate() error {
	switch {
	case p.End.Before(p.Start):
		return fmt.Errorf("profile %s: end before start: %w", p.City, domain.ErrInvalidInput)
	case p.ZeroShare < 0 || p.OneShare < 0 || p.ZeroShare+p.OneShare > 1:
		return fmt.Errorf("profile %s: day shares out of range: %w", p.City, domain.ErrInvalidInput)
	case len(p.MultiValues) == 0 || len(p.MultiValues) != len(p.MultiWeights):
		return fmt.Errorf("profile %s: multi-claim values and weights differ: %w", p.City, domain.ErrInvalidInput)
	case p.HighDays > 0 && p.HighMax <= p.HighMin:
		return fmt.Errorf("profile %s: empty high-claim range: %w", p.City, domain.ErrInvalidInput)
	}
	return nil
}

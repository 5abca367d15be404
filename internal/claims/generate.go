package claims

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

// DailyClaims is one generated day.
type DailyClaims struct {
	Date           time.Time `json:"date"`
	TotalClaims    int       `json:"total_claims"`
	NaturalPerils  int       `json:"natural_perils"`
	RainAssociated int       `json:"rain_associated"`
}

// Generate produces one DailyClaims per calendar day between the profile's
// start and end dates inclusive. The same profile and seed always yield the
// same series; different cities draw from different streams.
func Generate(p Profile, seed uint64) ([]DailyClaims, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(seed, streamFor(p.City)))

	days := int(p.End.Sub(p.Start).Hours()/24) + 1
	out := make([]DailyClaims, days)
	for i := range out {
		out[i].Date = p.Start.AddDate(0, 0, i)
	}

	oneDays := int(float64(days) * p.OneShare)
	zeroDays := int(float64(days) * p.ZeroShare)
	multiDays := days - zeroDays - oneDays
	if multiDays < p.HighDays {
		return nil, fmt.Errorf("profile %s: %d multi-claim days cannot hold %d high days: %w",
			p.City, multiDays, p.HighDays, domain.ErrInvalidInput)
	}

	order := rng.Perm(days)
	for _, idx := range order[:oneDays] {
		out[idx].TotalClaims = 1
	}

	multi := order[oneDays : oneDays+multiDays]
	ordinary := multi[:multiDays-p.HighDays]
	choice := distuv.NewCategorical(p.MultiWeights, rng)
	for _, idx := range ordinary {
		out[idx].TotalClaims = p.MultiValues[int(choice.Rand())]
	}
	for _, idx := range multi[len(ordinary):] {
		out[idx].TotalClaims = p.HighMin + rng.IntN(p.HighMax-p.HighMin)
	}

	overrides := make(map[int]int)
	for _, ev := range p.Extremes {
		day, err := time.Parse(time.DateOnly, ev.Date)
		if err != nil {
			return nil, fmt.Errorf("profile %s: extreme date %q: %w", p.City, ev.Date, domain.ErrInvalidInput)
		}
		idx := int(day.Sub(p.Start).Hours() / 24)
		if idx < 0 || idx >= days {
			continue
		}
		out[idx].TotalClaims = ev.Claims
		if ev.NaturalPerils > 0 {
			overrides[idx] = ev.NaturalPerils
		}
	}

	for i := range out {
		out[i].NaturalPerils = binomial(out[i].TotalClaims, p.NaturalPerilRate, rng)
	}
	for idx, n := range overrides {
		out[idx].NaturalPerils = n
	}

	for i := range out {
		d := &out[i]
		rain := binomial(d.NaturalPerils, p.RainFromNatural, rng) +
			binomial(d.TotalClaims-d.NaturalPerils, p.RainFromOther, rng)
		d.RainAssociated = min(d.TotalClaims, rain)
	}

	return out, nil
}

// binomial draws from B(n, p), returning 0 without consuming randomness when n is 0.
func binomial(n int, p float64, src rand.Source) int {
	if n <= 0 {
		return 0
	}
	b := distuv.Binomial{N: float64(n), P: p, Src: src}
	return int(b.Rand())
}

// streamFor derives a PCG stream from the city name.
func streamFor(city string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(city))
	return h.Sum64()
}

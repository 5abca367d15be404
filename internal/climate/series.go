package climate

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/couchcryptid/claims-risk/internal/domain"
	"github.com/couchcryptid/claims-risk/internal/risk"
)

// EnsembleP90 is the upper ensemble quantile reported alongside mean and median.
const EnsembleP90 = 0.90

// Series is an area-averaged precipitation time series in millimetres. A
// reanalysis file yields one member; a seasonal forecast yields one per
// ensemble member.
type Series struct {
	Variable string
	Times    []time.Time
	Members  [][]float64
}

// IsEnsemble reports whether the series has more than one member.
func (s *Series) IsEnsemble() bool { return len(s.Members) > 1 }

// Ensemble holds per-timestep statistics across members.
type Ensemble struct {
	Times  []time.Time
	Mean   []float64
	Median []float64
	P90    []float64
}

// EnsembleStats reduces the members of s at every timestep, ignoring NaNs. A
// single-member series passes through unchanged in all three statistics.
func EnsembleStats(s *Series) (Ensemble, error) {
	if s == nil || len(s.Members) == 0 {
		return Ensemble{}, fmt.Errorf("ensemble of empty series: %w", domain.ErrInvalidInput)
	}
	n := len(s.Times)
	e := Ensemble{
		Times:  s.Times,
		Mean:   make([]float64, n),
		Median: make([]float64, n),
		P90:    make([]float64, n),
	}

	column := make([]float64, 0, len(s.Members))
	for t := 0; t < n; t++ {
		column = column[:0]
		for _, m := range s.Members {
			if len(m) != n {
				return Ensemble{}, fmt.Errorf("member has %d steps, want %d: %w", len(m), n, domain.ErrInvalidInput)
			}
			if !math.IsNaN(m[t]) {
				column = append(column, m[t])
			}
		}
		if len(column) == 0 {
			e.Mean[t], e.Median[t], e.P90[t] = math.NaN(), math.NaN(), math.NaN()
			continue
		}

		var err error
		if e.Mean[t], err = stats.Mean(column); err != nil {
			return Ensemble{}, err
		}
		if e.Median[t], err = stats.Median(column); err != nil {
			return Ensemble{}, err
		}
		if e.P90[t], err = risk.Quantile(column, EnsembleP90); err != nil {
			return Ensemble{}, err
		}
	}
	return e, nil
}

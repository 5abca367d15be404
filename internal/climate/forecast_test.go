package climate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

// quarterlySeries builds a monthly series over two years where every month of
// quarter q holds base*q plus a per-year bump.
func quarterlySeries(members int) *Series {
	s := &Series{Members: make([][]float64, members)}
	for y := 2014; y <= 2015; y++ {
		for m := time.January; m <= time.December; m++ {
			s.Times = append(s.Times, month(y, m))
		}
	}
	for k := range s.Members {
		for _, t := range s.Times {
			q := domain.PeriodOf(t).Quarter
			s.Members[k] = append(s.Members[k], float64(q*10+(t.Year()-2014)*3+k))
		}
	}
	return s
}

func TestBuildForecast(t *testing.T) {
	forecast := quarterlySeries(3)
	observed := quarterlySeries(1)

	got, err := BuildForecast(forecast, observed)
	require.NoError(t, err)
	require.Len(t, got, 8)

	first := got[0]
	assert.Equal(t, domain.Period{Year: 2014, Quarter: 1}, first.Period)
	// Members hold 10, 11, 12 each month: mean 11 x 3 months.
	assert.InDelta(t, 33, first.ForecastMean, 1e-9)
	assert.InDelta(t, 33, first.ForecastMedian, 1e-9)
	assert.InDelta(t, 3*11.8, first.ForecastP90, 1e-9)
	assert.InDelta(t, 30, first.Observed, 1e-9)

	// Two years per quarter-of-year: the wetter year sits at +1/sqrt(2).
	assert.InDelta(t, -1/math.Sqrt2, got[0].Anomaly, 1e-9)
	assert.InDelta(t, 1/math.Sqrt2, got[4].Anomaly, 1e-9)
}

func TestBuildForecast_NoObservations(t *testing.T) {
	got, err := BuildForecast(quarterlySeries(2), nil)
	require.NoError(t, err)
	for _, q := range got {
		assert.True(t, math.IsNaN(q.Observed))
	}
}

func TestBuildForecast_TooShortForClimatology(t *testing.T) {
	s := &Series{
		Times:   []time.Time{month(2014, time.January)},
		Members: [][]float64{{1}, {2}},
	}
	_, err := BuildForecast(s, nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

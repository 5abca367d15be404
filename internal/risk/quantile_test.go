package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		q      float64
		want   float64
	}{
		{"single value", []float64{7}, 0.95, 7},
		{"minimum", []float64{3, 1, 2}, 0, 1},
		{"maximum", []float64{3, 1, 2}, 1, 3},
		{"median even", []float64{4, 1, 3, 2}, 0.5, 2.5},
		{"interpolated", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, 0.33, 3.64},
		{"spike", []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 100}, 0.95, 50.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Quantile(tt.values, tt.q)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestQuantile_DoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_, err := Quantile(values, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestQuantile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		q      float64
	}{
		{"empty", nil, 0.5},
		{"q below range", []float64{1}, -0.1},
		{"q above range", []float64{1}, 1.1},
		{"q NaN", []float64{1}, math.NaN()},
		{"value NaN", []float64{1, math.NaN()}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Quantile(tt.values, tt.q)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

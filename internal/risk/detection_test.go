package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

func spikeClaims() []float64 {
	return []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 100}
}

func TestEvaluateEventDetection_SingleSpikeDetected(t *testing.T) {
	signal := []float64{0, 0.2, -0.4, 0.1, 0.9, 0, 0.3, -1, 0.5, 0.7, 0, 2.1}

	res, err := EvaluateEventDetection(spikeClaims(), signal)
	require.NoError(t, err)

	assert.Equal(t, 1, res.TP)
	assert.Equal(t, 0, res.FP)
	assert.Equal(t, 0, res.FN)
	assert.Equal(t, 11, res.TN)
	assert.InDelta(t, 1.0, res.Precision, 1e-12)
	assert.InDelta(t, 1.0, res.Recall, 1e-12)
	assert.InDelta(t, 1.0, res.F1, 1e-12)
	assert.InDelta(t, 1.0, res.Accuracy, 1e-12)

	assert.Greater(t, res.LossThreshold, 10.0)
	assert.Less(t, res.LossThreshold, 100.0)
	assert.Equal(t, DefaultHighLossQuantile, res.LossQuantile)
	assert.Equal(t, DefaultHighSignalThreshold, res.SignalThreshold)
	assert.Equal(t, []bool{false, false, false, false, false, false, false, false, false, false, false, true}, res.ActualHigh)
}

func TestEvaluateEventDetection_NoForecastPositives(t *testing.T) {
	signal := make([]float64, 12)

	res, err := EvaluateEventDetection(spikeClaims(), signal)
	require.NoError(t, err)

	assert.Equal(t, 0, res.TP)
	assert.Equal(t, 1, res.FN)
	assert.Equal(t, 11, res.TN)
	assert.Zero(t, res.Precision)
	assert.Zero(t, res.Recall)
	assert.Zero(t, res.F1)
}

func TestEvaluateEventDetection_Options(t *testing.T) {
	claims := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	signal := []float64{0, 0, 0, 0, 0.6, 0.6, 0.6, 0.6}

	res, err := EvaluateEventDetection(claims, signal,
		WithHighLossQuantile(0.5),
		WithHighSignalThreshold(0.5),
	)
	require.NoError(t, err)

	assert.InDelta(t, 4.5, res.LossThreshold, 1e-12)
	assert.Equal(t, 4, res.TP)
	assert.Equal(t, 4, res.TN)
	assert.Equal(t, 0.5, res.SignalThreshold)
}

func TestEvaluateEventDetection_Properties(t *testing.T) {
	claims := []float64{4, 18, 9, 2, 27, 14, 3, 9, 41, 6, 12, 7, 5, 22, 8, 1}
	signal := []float64{-0.3, 1.2, 0.4, -1.1, 2.2, 0.9, 1.4, -0.2, 1.7, 0.1, 1.05, -0.6, 0.0, 0.8, 1.3, -1.9}

	for _, q := range []float64{0, 0.25, 0.5, 0.75, 0.95, 1} {
		for _, th := range []float64{-1, 0, 1, 2} {
			first, err := EvaluateEventDetection(claims, signal, WithHighLossQuantile(q), WithHighSignalThreshold(th))
			require.NoError(t, err)
			second, err := EvaluateEventDetection(claims, signal, WithHighLossQuantile(q), WithHighSignalThreshold(th))
			require.NoError(t, err)

			assert.Equal(t, len(claims), first.Total())
			assert.Equal(t, first, second)
			for _, m := range []float64{first.Precision, first.Recall, first.F1, first.Accuracy} {
				assert.GreaterOrEqual(t, m, 0.0)
				assert.LessOrEqual(t, m, 1.0)
			}
		}
	}
}

func TestEvaluateEventDetection_InvalidInput(t *testing.T) {
	tests := []struct {
		name           string
		claims, signal []float64
	}{
		{"both empty", nil, nil},
		{"empty claims", nil, []float64{1}},
		{"length mismatch", []float64{1, 2, 3}, []float64{1, 2}},
		{"NaN claims", []float64{1, math.NaN()}, []float64{1, 2}},
		{"NaN signal", []float64{1, 2}, []float64{math.NaN(), 2}},
		{"infinite claims spike",
			[]float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, math.Inf(1)},
			[]float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2}},
		{"infinite signal", []float64{1, 2}, []float64{math.Inf(-1), 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvaluateEventDetection(tt.claims, tt.signal)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := EvaluateEventDetection([]float64{1}, []float64{1}, WithHighLossQuantile(1.5))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEvaluateTopQuantile(t *testing.T) {
	claims := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	signal := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.8, 0.7}

	res, err := EvaluateTopQuantile(claims, signal, TopQuartile)
	require.NoError(t, err)

	// Top quartile: claims > 6.25 are {7, 8}; signal > 0.625 are {0.8, 0.7}.
	assert.Equal(t, 2, res.TP)
	assert.Equal(t, 6, res.TN)
	assert.InDelta(t, 1.0, res.Accuracy, 1e-12)
	assert.InDelta(t, 6.25, res.LossThreshold, 1e-12)
	assert.InDelta(t, 0.625, res.SignalThreshold, 1e-12)
}

func TestConfusion_ZeroDenominators(t *testing.T) {
	res, err := Confusion([]bool{false, false}, []bool{false, false})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TN)
	assert.Zero(t, res.Precision)
	assert.Zero(t, res.Recall)
	assert.Zero(t, res.F1)
	assert.InDelta(t, 1.0, res.Accuracy, 1e-12)

	empty, err := Confusion(nil, nil)
	require.NoError(t, err)
	assert.Zero(t, empty.Accuracy)
}

func TestConfusion_LengthMismatch(t *testing.T) {
	_, err := Confusion([]bool{true, true}, []bool{true})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

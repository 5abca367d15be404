package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

func TestOrdinalRisk_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		anomaly float64
		want    domain.RiskLevel
	}{
		{"well below", -2.3, domain.RiskLow},
		{"just below medium", 0.49999, domain.RiskLow},
		{"exactly medium", 0.5, domain.RiskMedium},
		{"just below high", 1.49999, domain.RiskMedium},
		{"exactly high", 1.5, domain.RiskHigh},
		{"well above", 3.2, domain.RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrdinalRisk(tt.anomaly))
		})
	}
}

func TestClassifyOrdinalRisk(t *testing.T) {
	signal := []float64{0.5, 1.49999, 1.5, -0.2}

	got, err := ClassifyOrdinalRisk(signal)
	require.NoError(t, err)
	assert.Equal(t, []domain.RiskLevel{domain.RiskMedium, domain.RiskMedium, domain.RiskHigh, domain.RiskLow}, got)

	// Each label depends only on its own value.
	for i, v := range signal {
		single, err := ClassifyOrdinalRisk([]float64{v})
		require.NoError(t, err)
		assert.Equal(t, got[i], single[0])
	}
}

func TestClassifyOrdinalRisk_Empty(t *testing.T) {
	got, err := ClassifyOrdinalRisk(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClassifyOrdinalRisk_RejectsNaN(t *testing.T) {
	_, err := ClassifyOrdinalRisk([]float64{0.1, math.NaN()})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClassifyActualRisk(t *testing.T) {
	claims := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}

	got, err := ClassifyActualRisk(claims)
	require.NoError(t, err)
	require.Len(t, got, len(claims))

	// p33 = 3.64, p67 = 6.36
	want := []domain.RiskLevel{
		domain.RiskLow, domain.RiskLow, domain.RiskLow,
		domain.RiskMedium, domain.RiskMedium, domain.RiskMedium,
		domain.RiskHigh, domain.RiskHigh, domain.RiskHigh,
	}
	assert.Equal(t, want, got)
}

func TestClassifyActualRisk_ValueOnThresholdGoesUp(t *testing.T) {
	// Both terciles equal 5, and v < p67 is false for every value.
	claims := []float64{5, 5, 5, 5}

	got, err := ClassifyActualRisk(claims)
	require.NoError(t, err)
	for _, l := range got {
		assert.Equal(t, domain.RiskHigh, l)
	}
}

func TestClassifyActualRisk_Idempotent(t *testing.T) {
	claims := []float64{12, 3, 48, 7, 7, 19, 2, 30, 11, 5, 64, 9}

	first, err := ClassifyActualRisk(claims)
	require.NoError(t, err)
	second, err := ClassifyActualRisk(claims)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	low := 0
	for _, l := range first {
		if l == domain.RiskLow {
			low++
		}
	}
	expected := 0.33 * float64(len(claims))
	assert.InDelta(t, expected, float64(low), 1.0)
}

func TestClassifyActualRisk_InsufficientData(t *testing.T) {
	for _, claims := range [][]float64{nil, {1}, {1, 2}} {
		_, err := ClassifyActualRisk(claims)
		assert.ErrorIs(t, err, domain.ErrInsufficientData)
	}
}

func TestClassifyActualRisk_RejectsNonFinite(t *testing.T) {
	tests := []struct {
		name   string
		claims []float64
	}{
		{"NaN", []float64{1, math.NaN(), 3}},
		{"positive infinity", []float64{1, 2, math.Inf(1)}},
		{"both infinities", []float64{math.Inf(-1), 1, 2, math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ClassifyActualRisk(tt.claims)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestClassifyOrdinalRisk_RejectsInfinity(t *testing.T) {
	_, err := ClassifyOrdinalRisk([]float64{0.1, math.Inf(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClassifyActualRisk_ExtremeRecordRelabelsHistory(t *testing.T) {
	claims := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	signal := []float64{0.1, 0.7, 1.6, 0.2, 0.9, 2.0, -0.3, 0.5, 1.4}

	before, err := ClassifyActualRisk(claims)
	require.NoError(t, err)
	ordinalBefore, err := ClassifyOrdinalRisk(signal)
	require.NoError(t, err)

	after, err := ClassifyActualRisk(append(append([]float64{}, claims...), 1000))
	require.NoError(t, err)
	ordinalAfter, err := ClassifyOrdinalRisk(append(append([]float64{}, signal...), 3.0))
	require.NoError(t, err)

	// p33 moves from 3.64 to 3.97 and p67 from 6.36 to 7.03, so quarter 7
	// drops from HIGH to MEDIUM.
	assert.NotEqual(t, before, after[:len(claims)])
	assert.Equal(t, domain.RiskHigh, before[6])
	assert.Equal(t, domain.RiskMedium, after[6])

	assert.Equal(t, ordinalBefore, ordinalAfter[:len(signal)])
}

func TestClassifyPrecipAnomaly(t *testing.T) {
	tests := []struct {
		anomaly float64
		want    domain.PrecipRisk
	}{
		{1.51, domain.PrecipExtreme},
		{1.5, domain.PrecipHigh},
		{1.01, domain.PrecipHigh},
		{1.0, domain.PrecipMedium},
		{0.5, domain.PrecipNormal},
		{0, domain.PrecipNormal},
		{-0.5, domain.PrecipLow},
		{-2, domain.PrecipLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyPrecipAnomaly(tt.anomaly), "anomaly %v", tt.anomaly)
	}
}

func TestBuildRiskMatrix(t *testing.T) {
	actual := []domain.RiskLevel{domain.RiskLow, domain.RiskHigh, domain.RiskHigh, domain.RiskMedium}
	forecast := []domain.RiskLevel{domain.RiskLow, domain.RiskHigh, domain.RiskLow, domain.RiskMedium}

	m, err := BuildRiskMatrix(actual, forecast)
	require.NoError(t, err)
	assert.Equal(t, 1, m[0][0])
	assert.Equal(t, 1, m[1][1])
	assert.Equal(t, 1, m[2][2])
	assert.Equal(t, 1, m[2][0])

	_, err = BuildRiskMatrix(actual, forecast[:2])
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = BuildRiskMatrix([]domain.RiskLevel{"SEVERE"}, []domain.RiskLevel{domain.RiskLow})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

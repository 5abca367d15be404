package risk

import (
	"fmt"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

// Fixed anomaly thresholds, in standard deviations, for forecast risk.
const (
	MediumAnomaly = 0.5
	HighAnomaly   = 1.5
)

// Percentiles that split claims into actual-risk terciles.
const (
	lowerTercile = 0.33
	upperTercile = 0.67
)

// OrdinalRisk maps a single deseasonalized anomaly to a risk level.
// A value sitting exactly on a threshold belongs to the higher bucket.
func OrdinalRisk(anomaly float64) domain.RiskLevel {
	switch {
	case anomaly < MediumAnomaly:
		return domain.RiskLow
	case anomaly < HighAnomaly:
		return domain.RiskMedium
	default:
		return domain.RiskHigh
	}
}

// ClassifyOrdinalRisk labels each anomaly against the fixed thresholds. The
// labels do not depend on the rest of the sample.
func ClassifyOrdinalRisk(signal []float64) ([]domain.RiskLevel, error) {
	if err := rejectNonFinite("signal", signal); err != nil {
		return nil, err
	}
	out := make([]domain.RiskLevel, len(signal))
	for i, v := range signal {
		out[i] = OrdinalRisk(v)
	}
	return out, nil
}

// ActualRiskThresholds returns the 33rd and 67th percentiles of claims.
func ActualRiskThresholds(claims []float64) (domain.Thresholds, error) {
	if len(claims) < 3 {
		return domain.Thresholds{}, fmt.Errorf("actual risk needs at least 3 values, got %d: %w",
			len(claims), domain.ErrInsufficientData)
	}
	p33, err := Quantile(claims, lowerTercile)
	if err != nil {
		return domain.Thresholds{}, err
	}
	p67, err := Quantile(claims, upperTercile)
	if err != nil {
		return domain.Thresholds{}, err
	}
	return domain.Thresholds{P33: p33, P67: p67}, nil
}

// ClassifyActualRisk buckets claims relative to the sample's own terciles, so
// adding one extreme quarter can relabel every other quarter.
func ClassifyActualRisk(claims []float64) ([]domain.RiskLevel, error) {
	th, err := ActualRiskThresholds(claims)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RiskLevel, len(claims))
	for i, v := range claims {
		out[i] = actualRisk(v, th)
	}
	return out, nil
}

func actualRisk(v float64, th domain.Thresholds) domain.RiskLevel {
	switch {
	case v < th.P33:
		return domain.RiskLow
	case v < th.P67:
		return domain.RiskMedium
	default:
		return domain.RiskHigh
	}
}

// ClassifyPrecipAnomaly maps an anomaly onto the five-level reanalysis scale.
// All comparisons are strict, so 1.5 itself is HIGH rather than EXTREME.
func ClassifyPrecipAnomaly(anomaly float64) domain.PrecipRisk {
	switch {
	case anomaly > 1.5:
		return domain.PrecipExtreme
	case anomaly > 1.0:
		return domain.PrecipHigh
	case anomaly > 0.5:
		return domain.PrecipMedium
	case anomaly > -0.5:
		return domain.PrecipNormal
	default:
		return domain.PrecipLow
	}
}

// BuildRiskMatrix tallies actual (rows) against forecast (columns) labels.
func BuildRiskMatrix(actual, forecast []domain.RiskLevel) (domain.RiskMatrix, error) {
	var m domain.RiskMatrix
	if len(actual) != len(forecast) {
		return m, fmt.Errorf("risk matrix: %d actual vs %d forecast labels: %w",
			len(actual), len(forecast), domain.ErrInvalidInput)
	}
	for i := range actual {
		r, c := actual[i].Index(), forecast[i].Index()
		if r < 0 || c < 0 {
			return m, fmt.Errorf("risk matrix: unknown label at %d: %w", i, domain.ErrInvalidInput)
		}
		m[r][c]++
	}
	return m, nil
}

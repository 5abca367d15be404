package risk

import (
	"fmt"
	"math"
	"sort"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

// Quantile returns the q-th sample quantile of values using linear
// interpolation between closest ranks: with h = (n-1)q the result is
// sorted[floor(h)] + (h-floor(h)) * (sorted[ceil(h)] - sorted[floor(h)]).
// This matches the default method of pandas and NumPy, which the reporting
// thresholds were calibrated against.
func Quantile(values []float64, q float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("quantile of empty sample: %w", domain.ErrInvalidInput)
	}
	if math.IsNaN(q) || q < 0 || q > 1 {
		return 0, fmt.Errorf("quantile %v outside [0, 1]: %w", q, domain.ErrInvalidInput)
	}
	if err := rejectNonFinite("values", values); err != nil {
		return 0, err
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo]), nil
}

// rejectNonFinite fails with ErrInvalidInput on the first NaN or infinity in values.
func rejectNonFinite(name string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s[%d] is %v: %w", name, i, v, domain.ErrInvalidInput)
		}
	}
	return nil
}

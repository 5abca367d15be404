package risk

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

// PearsonAndSpearman computes product-moment and rank correlation with
// two-sided p-values from a Student's t distribution with n-2 degrees of
// freedom. NaN and infinite values are rejected rather than dropped so both statistics always
// see the same sample.
func PearsonAndSpearman(x, y []float64) (domain.Correlation, error) {
	if len(x) < 3 || len(x) != len(y) {
		return domain.Correlation{}, fmt.Errorf("correlation needs two equal-length samples of at least 3, got %d and %d: %w",
			len(x), len(y), domain.ErrInsufficientData)
	}
	if err := rejectNonFinite("x", x); err != nil {
		return domain.Correlation{}, err
	}
	if err := rejectNonFinite("y", y); err != nil {
		return domain.Correlation{}, err
	}
	if isConstant(x) || isConstant(y) {
		return domain.Correlation{}, fmt.Errorf("correlation of a constant sample is undefined: %w", domain.ErrInvalidInput)
	}

	n := len(x)
	pr := clampUnit(stat.Correlation(x, y, nil))
	sr := clampUnit(stat.Correlation(Ranks(x), Ranks(y), nil))

	return domain.Correlation{
		N:         n,
		PearsonR:  pr,
		PearsonP:  twoSidedP(pr, n),
		SpearmanR: sr,
		SpearmanP: twoSidedP(sr, n),
	}, nil
}

// Ranks assigns 1-based ranks, giving tied values the mean of their positions.
func Ranks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && values[idx[j]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2 // mean of 1-based positions i+1..j
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}

func twoSidedP(r float64, n int) float64 {
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))
	return math.Min(1, math.Max(0, p))
}

// clampUnit absorbs floating-point drift just past ±1.
func clampUnit(r float64) float64 {
	return math.Max(-1, math.Min(1, r))
}

func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// Significance renders the conventional star marker for a p-value.
func Significance(p float64) string {
	switch {
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	default:
		return "ns"
	}
}

// Strength describes a correlation coefficient in words.
func Strength(r float64) string {
	switch {
	case r > 0.5:
		return "strong positive"
	case r > 0.3:
		return "moderate positive"
	case r > 0:
		return "weak positive"
	default:
		return "negative or none"
	}
}

package risk

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

// Summarize describes a numeric column. The standard deviation is the sample
// (n-1) estimate and is 0 for a single value.
func Summarize(values []float64) (domain.Summary, error) {
	if len(values) == 0 {
		return domain.Summary{}, fmt.Errorf("summary of empty column: %w", domain.ErrInvalidInput)
	}
	if err := rejectNonFinite("values", values); err != nil {
		return domain.Summary{}, err
	}

	data := stats.Float64Data(values)
	s := domain.Summary{Count: len(values)}
	var err error
	if s.Total, err = data.Sum(); err != nil {
		return domain.Summary{}, err
	}
	if s.Mean, err = data.Mean(); err != nil {
		return domain.Summary{}, err
	}
	if s.Median, err = data.Median(); err != nil {
		return domain.Summary{}, err
	}
	if s.Min, err = data.Min(); err != nil {
		return domain.Summary{}, err
	}
	if s.Max, err = data.Max(); err != nil {
		return domain.Summary{}, err
	}
	if len(values) > 1 {
		if s.StdDev, err = data.StandardDeviationSample(); err != nil {
			return domain.Summary{}, err
		}
	}
	return s, nil
}

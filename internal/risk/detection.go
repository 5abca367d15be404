package risk

import (
	"fmt"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

// Defaults for EvaluateEventDetection.
const (
	DefaultHighLossQuantile    = 0.95
	DefaultHighSignalThreshold = 1.0

	// TopQuartile is the quantile used by the relative top-25% evaluation.
	TopQuartile = 0.75
)

type detectionOptions struct {
	lossQuantile    float64
	signalThreshold float64
}

// DetectionOption tunes EvaluateEventDetection.
type DetectionOption func(*detectionOptions)

// WithHighLossQuantile sets the claims quantile above which a quarter is high-loss.
func WithHighLossQuantile(q float64) DetectionOption {
	return func(o *detectionOptions) { o.lossQuantile = q }
}

// WithHighSignalThreshold sets the signal value above which a quarter is forecast high.
func WithHighSignalThreshold(t float64) DetectionOption {
	return func(o *detectionOptions) { o.signalThreshold = t }
}

// EvaluateEventDetection labels claims[i] > quantile(claims, q) as high-loss and
// signal[i] > threshold as forecast-positive, then scores the forecast.
func EvaluateEventDetection(claims, signal []float64, opts ...DetectionOption) (domain.ConfusionResult, error) {
	o := detectionOptions{
		lossQuantile:    DefaultHighLossQuantile,
		signalThreshold: DefaultHighSignalThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := checkPaired(claims, signal); err != nil {
		return domain.ConfusionResult{}, err
	}
	if err := rejectNonFinite("signal", signal); err != nil {
		return domain.ConfusionResult{}, err
	}
	lossThreshold, err := Quantile(claims, o.lossQuantile)
	if err != nil {
		return domain.ConfusionResult{}, err
	}

	actual := make([]bool, len(claims))
	forecast := make([]bool, len(signal))
	for i := range claims {
		actual[i] = claims[i] > lossThreshold
		forecast[i] = signal[i] > o.signalThreshold
	}

	res, err := Confusion(actual, forecast)
	if err != nil {
		return domain.ConfusionResult{}, err
	}
	res.LossQuantile = o.lossQuantile
	res.LossThreshold = lossThreshold
	res.SignalThreshold = o.signalThreshold
	return res, nil
}

// EvaluateTopQuantile is the relative variant: both labels use the same
// quantile of their own column, so "high" means "in the top 1-q of the sample".
func EvaluateTopQuantile(claims, signal []float64, q float64) (domain.ConfusionResult, error) {
	if err := checkPaired(claims, signal); err != nil {
		return domain.ConfusionResult{}, err
	}
	signalThreshold, err := Quantile(signal, q)
	if err != nil {
		return domain.ConfusionResult{}, err
	}
	return EvaluateEventDetection(claims, signal,
		WithHighLossQuantile(q),
		WithHighSignalThreshold(signalThreshold),
	)
}

// Confusion counts paired labels and derives precision, recall, F1 and
// accuracy. Ratios with a zero denominator are reported as 0. The label
// slices must have equal length.
func Confusion(actual, forecast []bool) (domain.ConfusionResult, error) {
	var res domain.ConfusionResult
	if len(actual) != len(forecast) {
		return res, fmt.Errorf("label length mismatch %d vs %d: %w", len(actual), len(forecast), domain.ErrInvalidInput)
	}
	for i := range actual {
		switch {
		case actual[i] && forecast[i]:
			res.TP++
		case !actual[i] && forecast[i]:
			res.FP++
		case actual[i] && !forecast[i]:
			res.FN++
		default:
			res.TN++
		}
	}

	res.Precision = ratio(res.TP, res.TP+res.FP)
	res.Recall = ratio(res.TP, res.TP+res.FN)
	if sum := res.Precision + res.Recall; sum > 0 {
		res.F1 = 2 * res.Precision * res.Recall / sum
	}
	res.Accuracy = ratio(res.TP+res.TN, res.Total())
	res.ActualHigh = actual
	res.ForecastHigh = forecast
	return res, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func checkPaired(a, b []float64) error {
	if len(a) == 0 || len(b) == 0 {
		return fmt.Errorf("empty input: %w", domain.ErrInvalidInput)
	}
	if len(a) != len(b) {
		return fmt.Errorf("length mismatch %d vs %d: %w", len(a), len(b), domain.ErrInvalidInput)
	}
	return nil
}

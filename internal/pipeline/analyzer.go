package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/claims-risk/internal/climate"
	"github.com/couchcryptid/claims-risk/internal/domain"
	"github.com/couchcryptid/claims-risk/internal/observability"
	"github.com/couchcryptid/claims-risk/internal/risk"
)

// MinRecordsForThresholds is the dataset size below which percentile-based
// labels are flagged as unreliable.
const MinRecordsForThresholds = 4

// Optional columns looked up on a Dataset.
const (
	ColObservedPrecip = "observed_precip"
	ColForecastMean   = "forecast_mean_precip"
	ColNaturalPerils  = "natural_perils"
)

// pair names one correlation and where its samples come from.
type pair struct {
	name string
	x, y string
}

var optionalPairs = []pair{
	{name: "observed_precip_vs_claims", x: ColObservedPrecip, y: colClaims},
	{name: "forecast_precip_vs_claims", x: ColForecastMean, y: colClaims},
	{name: "forecast_precip_vs_natural_perils", x: ColForecastMean, y: ColNaturalPerils},
}

const (
	colClaims  = "claims_total"
	colSignal  = "precip_signal"
	colAnomaly = "precip_anomaly"
)

// Analyzer evaluates a Dataset into an Analysis.
type Analyzer struct {
	lossQuantile    float64
	signalThreshold float64
	logger          *slog.Logger
	metrics         *observability.Metrics
}

// AnalyzerOption tunes an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithHighLossQuantile overrides the claims quantile that marks high-loss quarters.
func WithHighLossQuantile(q float64) AnalyzerOption {
	return func(a *Analyzer) { a.lossQuantile = q }
}

// WithHighSignalThreshold overrides the anomaly above which a quarter is forecast high.
func WithHighSignalThreshold(t float64) AnalyzerOption {
	return func(a *Analyzer) { a.signalThreshold = t }
}

// NewAnalyzer creates an Analyzer with the default detection thresholds.
func NewAnalyzer(logger *slog.Logger, metrics *observability.Metrics, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		lossQuantile:    risk.DefaultHighLossQuantile,
		signalThreshold: risk.DefaultHighSignalThreshold,
		logger:          logger,
		metrics:         metrics,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// With returns a copy of the analyzer with opts applied.
func (a *Analyzer) With(opts ...AnalyzerOption) *Analyzer {
	c := *a
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Analyze labels every quarter and computes correlations, event detection and
// the risk matrix. Failures of the primary computations abort the analysis;
// optional correlations that cannot be computed are recorded as skipped.
func (a *Analyzer) Analyze(ds *domain.Dataset) (*domain.Analysis, error) {
	start := time.Now()
	out, err := a.analyze(ds)
	a.metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		a.metrics.Runs.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("analyze %s: %w", ds.City, err)
	}
	a.metrics.Runs.WithLabelValues("success").Inc()
	a.metrics.QuartersAnalyzed.Add(float64(len(out.Quarters)))
	a.metrics.HighLossQuarters.Add(float64(out.EventDetection.TP + out.EventDetection.FN))

	a.logger.Info("analysis complete",
		"city", out.City,
		"run_id", out.RunID,
		"quarters", len(out.Quarters),
		"high_loss", out.EventDetection.TP+out.EventDetection.FN,
		"f1", out.EventDetection.F1,
	)
	return out, nil
}

func (a *Analyzer) analyze(ds *domain.Dataset) (*domain.Analysis, error) {
	out := &domain.Analysis{
		RunID:       uuid.NewString(),
		City:        ds.City,
		GeneratedAt: domain.Now(),
		SignalKind:  ds.SignalKind,
	}

	n := ds.Len()
	if n < MinRecordsForThresholds {
		msg := fmt.Sprintf("only %d quarters: percentile thresholds are unreliable", n)
		out.Warnings = append(out.Warnings, msg)
		a.logger.Warn("small dataset", "city", ds.City, "quarters", n)
	}

	claimsCol := ds.Claims()
	signal := ds.Signals()
	anomaly := signal
	if ds.SignalKind == domain.SignalRaw {
		var err error
		anomaly, err = climate.SeasonalAnomalies(ds.Periods(), signal)
		if err != nil {
			return nil, fmt.Errorf("deseasonalize signal: %w", err)
		}
		out.Warnings = append(out.Warnings, "raw signal standardized against per-quarter climatology before classification")
	}

	forecastRisk, err := risk.ClassifyOrdinalRisk(anomaly)
	if err != nil {
		return nil, fmt.Errorf("forecast risk: %w", err)
	}
	actualRisk, err := risk.ClassifyActualRisk(claimsCol)
	if err != nil {
		return nil, fmt.Errorf("actual risk: %w", err)
	}
	if out.ActualRisk, err = risk.ActualRiskThresholds(claimsCol); err != nil {
		return nil, fmt.Errorf("actual risk: %w", err)
	}
	if out.RiskMatrix, err = risk.BuildRiskMatrix(actualRisk, forecastRisk); err != nil {
		return nil, fmt.Errorf("risk matrix: %w", err)
	}

	out.EventDetection, err = risk.EvaluateEventDetection(claimsCol, anomaly,
		risk.WithHighLossQuantile(a.lossQuantile),
		risk.WithHighSignalThreshold(a.signalThreshold),
	)
	if err != nil {
		return nil, fmt.Errorf("event detection: %w", err)
	}

	top, err := risk.EvaluateTopQuantile(claimsCol, anomaly, risk.TopQuartile)
	if err != nil {
		out.Warnings = append(out.Warnings, "top-quartile detection skipped: "+err.Error())
	} else {
		out.TopQuartile = &top
	}

	out.Quarters = make([]domain.LabeledQuarter, n)
	for i, r := range ds.Records {
		out.Quarters[i] = domain.LabeledQuarter{
			Period:        r.Period,
			PrecipSignal:  r.PrecipSignal,
			PrecipAnomaly: anomaly[i],
			ClaimsTotal:   r.ClaimsTotal,
			ForecastRisk:  forecastRisk[i],
			ActualRisk:    actualRisk[i],
			IsHighLoss:    out.EventDetection.ActualHigh[i],
			ForecastHigh:  out.EventDetection.ForecastHigh[i],
		}
	}

	out.Correlations = a.correlations(ds, claimsCol, signal, anomaly)

	if out.ClaimsSummary, err = risk.Summarize(claimsCol); err != nil {
		return nil, fmt.Errorf("claims summary: %w", err)
	}
	if out.SignalSummary, err = risk.Summarize(signal); err != nil {
		return nil, fmt.Errorf("signal summary: %w", err)
	}
	return out, nil
}

func (a *Analyzer) correlations(ds *domain.Dataset, claimsCol, signal, anomaly []float64) []domain.CorrelationResult {
	columns := map[string][]float64{
		colClaims:  claimsCol,
		colAnomaly: anomaly,
	}
	pairs := []pair{{name: "precip_anomaly_vs_claims", x: colAnomaly, y: colClaims}}
	if ds.SignalKind == domain.SignalRaw {
		columns[colSignal] = signal
		pairs = append(pairs, pair{name: "precip_signal_vs_claims", x: colSignal, y: colClaims})
	}
	pairs = append(pairs, optionalPairs...)

	results := make([]domain.CorrelationResult, 0, len(pairs))
	for _, p := range pairs {
		res := domain.CorrelationResult{Name: p.name, X: p.x, Y: p.y}

		x, okX := lookup(ds, columns, p.x)
		y, okY := lookup(ds, columns, p.y)
		switch {
		case !okX:
			res.Skipped = "column " + p.x + " not available"
		case !okY:
			res.Skipped = "column " + p.y + " not available"
		default:
			x, y = completePairs(x, y)
			c, err := risk.PearsonAndSpearman(x, y)
			if err != nil {
				res.Skipped = skipReason(err)
			} else {
				res.Correlation = &c
			}
		}

		if res.Correlation != nil {
			a.metrics.CorrelationsComputed.Inc()
		} else {
			a.metrics.CorrelationsSkipped.Inc()
			a.logger.Debug("correlation skipped", "city", ds.City, "pair", p.name, "reason", res.Skipped)
		}
		results = append(results, res)
	}
	return results
}

func lookup(ds *domain.Dataset, columns map[string][]float64, name string) ([]float64, bool) {
	if v, ok := columns[name]; ok {
		return v, true
	}
	return ds.Column(name)
}

// completePairs keeps positions where both samples are present. Optional
// columns from a left join may have gaps; the primary columns never do.
func completePairs(x, y []float64) ([]float64, []float64) {
	outX := make([]float64, 0, len(x))
	outY := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		outX = append(outX, x[i])
		outY = append(outY, y[i])
	}
	return outX, outY
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		return "insufficient data"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid input: " + err.Error()
	default:
		return err.Error()
	}
}

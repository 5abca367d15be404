package domain

import (
	"sort"
	"time"
)

// ConfusionResult compares a binary forecast-positive label against a binary
// actual-positive label. Every record lands in exactly one cell.
type ConfusionResult struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TN int `json:"tn"`

	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Accuracy  float64 `json:"accuracy"`

	// Thresholds used to derive the labels.
	LossQuantile    float64 `json:"loss_quantile"`
	LossThreshold   float64 `json:"loss_threshold"`
	SignalThreshold float64 `json:"signal_threshold"`

	ActualHigh   []bool `json:"actual_high,omitempty"`
	ForecastHigh []bool `json:"forecast_high,omitempty"`
}

// Total returns tp+fp+fn+tn.
func (c ConfusionResult) Total() int { return c.TP + c.FP + c.FN + c.TN }

// Correlation holds product-moment and rank correlation with two-sided p-values.
type Correlation struct {
	N         int     `json:"n"`
	PearsonR  float64 `json:"pearson_r"`
	PearsonP  float64 `json:"pearson_p"`
	SpearmanR float64 `json:"spearman_r"`
	SpearmanP float64 `json:"spearman_p"`
}

// CorrelationResult is one named correlation of an analysis. Exactly one of
// Correlation and Skipped is set.
type CorrelationResult struct {
	Name        string       `json:"name"`
	X           string       `json:"x"`
	Y           string       `json:"y"`
	Correlation *Correlation `json:"correlation,omitempty"`
	Skipped     string       `json:"skipped,omitempty"`
}

// RiskMatrix counts quarters by actual risk (rows) and forecast risk (columns),
// both indexed by RiskLevel.Index.
type RiskMatrix [3][3]int

// Thresholds are the sample percentiles used for actual risk.
type Thresholds struct {
	P33 float64 `json:"p33"`
	P67 float64 `json:"p67"`
}

// Summary describes one numeric column.
type Summary struct {
	Count  int     `json:"count"`
	Total  float64 `json:"total"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// LabeledQuarter is a QuarterRecord plus the columns derived during analysis.
type LabeledQuarter struct {
	Period        Period    `json:"period"`
	PrecipSignal  float64   `json:"precip_signal"`
	PrecipAnomaly float64   `json:"precip_anomaly"`
	ClaimsTotal   float64   `json:"claims_total"`
	ForecastRisk  RiskLevel `json:"forecast_risk"`
	ActualRisk    RiskLevel `json:"actual_risk"`
	IsHighLoss    bool      `json:"is_high_loss"`
	ForecastHigh  bool      `json:"forecast_high"`
}

// Analysis is the full evaluation of one dataset.
type Analysis struct {
	RunID       string     `json:"run_id"`
	City        string     `json:"city"`
	GeneratedAt time.Time  `json:"generated_at"`
	SignalKind  SignalKind `json:"signal_kind"`

	Quarters       []LabeledQuarter    `json:"quarters"`
	Correlations   []CorrelationResult `json:"correlations"`
	EventDetection ConfusionResult     `json:"event_detection"`
	TopQuartile    *ConfusionResult    `json:"top_quartile,omitempty"`
	RiskMatrix     RiskMatrix          `json:"risk_matrix"`
	ActualRisk     Thresholds          `json:"actual_risk_thresholds"`

	ClaimsSummary Summary `json:"claims_summary"`
	SignalSummary Summary `json:"signal_summary"`

	Warnings []string `json:"warnings,omitempty"`
}

// HighLossQuarters returns the quarters flagged high-loss, largest claims first.
func (a *Analysis) HighLossQuarters() []LabeledQuarter {
	var out []LabeledQuarter
	for _, q := range a.Quarters {
		if q.IsHighLoss {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ClaimsTotal > out[j].ClaimsTotal
	})
	return out
}

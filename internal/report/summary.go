package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

// CitySummary is the headline numbers of one analysis.
type CitySummary struct {
	City             string                     `json:"city"`
	RunID            string                     `json:"run_id"`
	Quarters         int                        `json:"quarters"`
	HighLossQuarters []domain.Period            `json:"high_loss_quarters"`
	Correlations     []domain.CorrelationResult `json:"correlations"`
	Precision        float64                    `json:"precision"`
	Recall           float64                    `json:"recall"`
	F1               float64                    `json:"f1"`
	Warnings         []string                   `json:"warnings,omitempty"`
}

// Summary is the machine-readable companion of the Markdown report.
type Summary struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Cities      []CitySummary `json:"cities"`
}

// Summarize condenses analyses into a Summary.
func Summarize(analyses []*domain.Analysis) Summary {
	s := Summary{GeneratedAt: domain.Now(), Cities: make([]CitySummary, 0, len(analyses))}
	for _, a := range analyses {
		high := a.HighLossQuarters()
		periods := make([]domain.Period, len(high))
		for i, q := range high {
			periods[i] = q.Period
		}
		s.Cities = append(s.Cities, CitySummary{
			City:             a.City,
			RunID:            a.RunID,
			Quarters:         len(a.Quarters),
			HighLossQuarters: periods,
			Correlations:     a.Correlations,
			Precision:        a.EventDetection.Precision,
			Recall:           a.EventDetection.Recall,
			F1:               a.EventDetection.F1,
			Warnings:         a.Warnings,
		})
	}
	return s
}

// WriteJSON writes the indented summary of analyses to w.
func WriteJSON(w io.Writer, analyses []*domain.Analysis) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Summarize(analyses)); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

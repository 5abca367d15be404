package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/claims-risk/internal/domain"
)

// Workbook sheet names.
const (
	SheetQuarters     = "Quarters"
	SheetCorrelations = "Correlations"
	SheetDetection    = "Event Detection"
	SheetRiskMatrix   = "Risk Matrix"
)

// WriteWorkbook saves an analysis as an .xlsx workbook with one sheet per
// result block.
func WriteWorkbook(path string, a *domain.Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetQuarters); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetCorrelations, SheetDetection, SheetRiskMatrix} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %s: %w", name, err)
		}
	}

	if err := writeRows(f, SheetQuarters, quarterRows(a)); err != nil {
		return err
	}
	if err := writeRows(f, SheetCorrelations, correlationRows(a)); err != nil {
		return err
	}
	if err := writeRows(f, SheetDetection, detectionRows(a)); err != nil {
		return err
	}
	if err := writeRows(f, SheetRiskMatrix, matrixRows(a)); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func quarterRows(a *domain.Analysis) [][]any {
	rows := [][]any{{"period", "precip_signal", "precip_anomaly", "total_claims",
		"forecast_risk", "actual_risk", "is_high_loss", "forecast_high"}}
	for _, q := range a.Quarters {
		rows = append(rows, []any{q.Period.String(), q.PrecipSignal, q.PrecipAnomaly, q.ClaimsTotal,
			string(q.ForecastRisk), string(q.ActualRisk), q.IsHighLoss, q.ForecastHigh})
	}
	return rows
}

func correlationRows(a *domain.Analysis) [][]any {
	rows := [][]any{{"name", "x", "y", "n", "pearson_r", "pearson_p", "spearman_r", "spearman_p", "skipped"}}
	for _, c := range a.Correlations {
		if c.Correlation == nil {
			rows = append(rows, []any{c.Name, c.X, c.Y, nil, nil, nil, nil, nil, c.Skipped})
			continue
		}
		rows = append(rows, []any{c.Name, c.X, c.Y, c.Correlation.N,
			c.Correlation.PearsonR, c.Correlation.PearsonP,
			c.Correlation.SpearmanR, c.Correlation.SpearmanP, ""})
	}
	return rows
}

func detectionRows(a *domain.Analysis) [][]any {
	rows := [][]any{{"evaluation", "tp", "fp", "fn", "tn", "precision", "recall", "f1", "accuracy",
		"loss_threshold", "signal_threshold"}}
	add := func(name string, c domain.ConfusionResult) {
		rows = append(rows, []any{name, c.TP, c.FP, c.FN, c.TN, c.Precision, c.Recall, c.F1, c.Accuracy,
			c.LossThreshold, c.SignalThreshold})
	}
	add("high_loss", a.EventDetection)
	if a.TopQuartile != nil {
		add("top_quartile", *a.TopQuartile)
	}
	return rows
}

func matrixRows(a *domain.Analysis) [][]any {
	header := []any{"actual \\ forecast"}
	for _, l := range domain.RiskLevels {
		header = append(header, string(l))
	}
	rows := [][]any{header}
	for i, l := range domain.RiskLevels {
		row := []any{string(l)}
		for j := range domain.RiskLevels {
			row = append(row, a.RiskMatrix[i][j])
		}
		rows = append(rows, row)
	}
	return rows
}

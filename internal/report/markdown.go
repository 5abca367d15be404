package report

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/couchcryptid/claims-risk/internal/domain"
	"github.com/couchcryptid/claims-risk/internal/risk"
)

//go:embed templates/*.md.tmpl
var templateFS embed.FS

var reportTmpl = template.Must(
	template.New("report.md.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/*.md.tmpl"),
)

var funcs = template.FuncMap{
	"f3":           func(v float64) string { return fmt.Sprintf("%.3f", v) },
	"f4":           func(v float64) string { return fmt.Sprintf("%.4f", v) },
	"claims":       func(v float64) string { return fmt.Sprintf("%.0f", v) },
	"signed":       func(v float64) string { return fmt.Sprintf("%+.2f", v) },
	"pct":          func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
	"significance": risk.Significance,
	"strength":     risk.Strength,
	"upper":        strings.ToUpper,
	"levels":       func() []domain.RiskLevel { return domain.RiskLevels },
	"cell": func(m domain.RiskMatrix, actual, forecast domain.RiskLevel) int {
		return m[actual.Index()][forecast.Index()]
	},
	"date": func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04 UTC") },
}

type reportData struct {
	GeneratedAt time.Time
	Analyses    []*domain.Analysis
}

// Markdown renders one report covering every analysis, in the order given.
func Markdown(analyses []*domain.Analysis) ([]byte, error) {
	if len(analyses) == 0 {
		return nil, errors.New("report: no analyses")
	}

	var buf bytes.Buffer
	err := reportTmpl.Execute(&buf, reportData{
		GeneratedAt: domain.Now(),
		Analyses:    analyses,
	})
	if err != nil {
		return nil, fmt.Errorf("render markdown report: %w", err)
	}
	return buf.Bytes(), nil
}

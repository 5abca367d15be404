package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/claims-risk/internal/dataset"
	"github.com/couchcryptid/claims-risk/internal/domain"
	"github.com/couchcryptid/claims-risk/internal/pipeline"
	"github.com/couchcryptid/claims-risk/internal/report"
)

// maxBodyBytes caps the CSV upload of one evaluate request.
const maxBodyBytes = 10 << 20

// Evaluator analyzes a dataset, optionally overriding analyzer settings.
type Evaluator interface {
	Evaluate(ctx context.Context, ds *domain.Dataset, opts ...pipeline.AnalyzerOption) (*domain.Analysis, error)
}

// Server exposes the evaluate endpoint plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	evaluator  Evaluator
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// POST /v1/evaluate routes.
func NewServer(addr string, evaluator Evaluator, ready sharedobs.ReadinessChecker, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		evaluator: evaluator,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /v1/evaluate", s.handleEvaluate)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleEvaluate reads a joined quarterly CSV from the body. Query parameters:
// city, signal and claims (column names), kind (raw|anomaly), quantile,
// threshold, drop_incomplete, and format (json|markdown|html). A sink failure
// after a successful analysis is reported as a warning on the result.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts, err := loadOptions(q.Get)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	analyzerOpts, err := analyzerOptions(q.Get)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	table, err := dataset.ReadCSV(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ds, dropped, err := dataset.ToDataset(table, opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	a, err := s.evaluator.Evaluate(r.Context(), ds, analyzerOpts...)
	if err != nil && a != nil {
		// Analysis succeeded but a sink did not; the caller still gets the result.
		s.logger.Warn("evaluate sink write failed", "city", ds.City, "run_id", a.RunID, "error", err)
		a.Warnings = append(a.Warnings, "result not delivered to every sink: "+err.Error())
		err = nil
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrInsufficientData) {
			status = http.StatusUnprocessableEntity
		}
		s.logger.Warn("evaluate failed", "city", ds.City, "error", err)
		writeError(w, status, err)
		return
	}
	for _, p := range dropped {
		a.Warnings = append(a.Warnings, "dropped incomplete quarter "+p.String())
	}

	switch format := q.Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, a)
	case "markdown", "html":
		md, err := report.Markdown([]*domain.Analysis{a})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if format == "markdown" {
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
			_, _ = w.Write(md)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(report.RenderHTML(md, a.City+" claims risk"))
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown format %q", format))
	}
}

func loadOptions(get func(string) string) (dataset.LoadOptions, error) {
	opts := dataset.LoadOptions{
		City:         get("city"),
		SignalColumn: get("signal"),
		ClaimsColumn: get("claims"),
	}
	if opts.City == "" {
		opts.City = "dataset"
	}
	if k := get("kind"); k != "" {
		kind, err := domain.ParseSignalKind(k)
		if err != nil {
			return opts, err
		}
		opts.Kind = kind
	}
	if v := get("drop_incomplete"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("drop_incomplete: %w", err)
		}
		opts.DropIncomplete = b
	}
	return opts, nil
}

func analyzerOptions(get func(string) string) ([]pipeline.AnalyzerOption, error) {
	var opts []pipeline.AnalyzerOption
	if v := get("quantile"); v != "" {
		q, err := strconv.ParseFloat(v, 64)
		if err != nil || q <= 0 || q >= 1 {
			return nil, fmt.Errorf("quantile must be between 0 and 1 exclusive, got %q", v)
		}
		opts = append(opts, pipeline.WithHighLossQuantile(q))
	}
	if v := get("threshold"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("threshold: %w", err)
		}
		opts = append(opts, pipeline.WithHighSignalThreshold(t))
	}
	return opts, nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

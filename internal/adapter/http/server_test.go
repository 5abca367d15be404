package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/claims-risk/internal/adapter/http"
	"github.com/couchcryptid/claims-risk/internal/domain"
	"github.com/couchcryptid/claims-risk/internal/observability"
	"github.com/couchcryptid/claims-risk/internal/pipeline"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(readyErr error) *httpadapter.Server {
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(pipeline.NewAnalyzer(discardLogger(), metrics), nil, discardLogger(), metrics)
	return httpadapter.NewServer(":0", p, &mockReadiness{err: readyErr}, metrics.Gatherer(), discardLogger())
}

// spikeCSV is twelve quiet quarters followed by one extreme quarter.
func spikeCSV() string {
	var b strings.Builder
	b.WriteString("period,precip_anomaly,total_claims\n")
	for i := 0; i < 12; i++ {
		p := domain.Period{Year: 2014 + i/4, Quarter: i%4 + 1}
		if i == 11 {
			fmt.Fprintf(&b, "%s,2.0,100\n", p)
			continue
		}
		fmt.Fprintf(&b, "%s,0.0,10\n", p)
	}
	return b.String()
}

func evaluate(t *testing.T, srv *httpadapter.Server, query, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate"+query, strings.NewReader(body))
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("not ready yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	require.Equal(t, http.StatusOK, evaluate(t, srv, "?city=Bergen", spikeCSV()).Code)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "claims_risk_quarters_analyzed_total 12")
}

func TestEvaluate_JSON(t *testing.T) {
	rec := evaluate(t, newTestServer(nil), "?city=Bergen", spikeCSV())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var a domain.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, "Bergen", a.City)
	assert.Len(t, a.Quarters, 12)
	assert.Equal(t, 1, a.EventDetection.TP)
	assert.Equal(t, 11, a.EventDetection.TN)
	assert.InDelta(t, 50.5, a.EventDetection.LossThreshold, 1e-9)
}

// sinkFailingEvaluator analyzes normally, then reports a sink failure
// alongside the result, as Pipeline.Evaluate does when Kafka is down.
type sinkFailingEvaluator struct {
	analyzer *pipeline.Analyzer
}

func (e sinkFailingEvaluator) Evaluate(_ context.Context, ds *domain.Dataset, _ ...pipeline.AnalyzerOption) (*domain.Analysis, error) {
	a, err := e.analyzer.Analyze(ds)
	if err != nil {
		return nil, err
	}
	return a, errors.New("kafka: broker unreachable")
}

func TestEvaluate_SinkFailureKeepsResult(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	eval := sinkFailingEvaluator{analyzer: pipeline.NewAnalyzer(discardLogger(), metrics)}
	srv := httpadapter.NewServer(":0", eval, &mockReadiness{}, metrics.Gatherer(), discardLogger())

	rec := evaluate(t, srv, "?city=Bergen", spikeCSV())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var a domain.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Len(t, a.Quarters, 12)
	require.NotEmpty(t, a.Warnings)
	assert.Contains(t, a.Warnings[len(a.Warnings)-1], "kafka: broker unreachable")
}

func TestEvaluate_QueryOverrides(t *testing.T) {
	body := strings.ReplaceAll(spikeCSV(), "precip_anomaly,total_claims", "anom,claims")
	rec := evaluate(t, newTestServer(nil), "?signal=anom&claims=claims&quantile=0.5&threshold=3", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var a domain.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, 0.5, a.EventDetection.LossQuantile)
	assert.Equal(t, 3.0, a.EventDetection.SignalThreshold)
	assert.Equal(t, "dataset", a.City)
}

func TestEvaluate_DropIncomplete(t *testing.T) {
	body := spikeCSV() + "2017-Q1,,20\n"

	rec := evaluate(t, newTestServer(nil), "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = evaluate(t, newTestServer(nil), "?drop_incomplete=true", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var a domain.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Contains(t, a.Warnings, "dropped incomplete quarter 2017-Q1")
}

func TestEvaluate_Markdown(t *testing.T) {
	rec := evaluate(t, newTestServer(nil), "?city=Oslo&format=markdown", spikeCSV())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, rec.Body.String(), "## Oslo")
}

func TestEvaluate_HTML(t *testing.T) {
	rec := evaluate(t, newTestServer(nil), "?city=Oslo&format=html", spikeCSV())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<title>Oslo claims risk</title>")
}

func TestEvaluate_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		body   string
		status int
	}{
		{"bad kind", "?kind=percent", spikeCSV(), http.StatusBadRequest},
		{"bad quantile", "?quantile=1.5", spikeCSV(), http.StatusBadRequest},
		{"bad threshold", "?threshold=high", spikeCSV(), http.StatusBadRequest},
		{"bad format", "?format=pdf", spikeCSV(), http.StatusBadRequest},
		{"missing column", "?signal=nope", spikeCSV(), http.StatusBadRequest},
		{"empty body", "", "", http.StatusBadRequest},
		{"too few quarters", "", "period,precip_anomaly,total_claims\n2020-Q1,0.1,4\n2020-Q2,0.2,5\n", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := evaluate(t, newTestServer(nil), tt.query, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestEvaluate_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/evaluate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

package mapbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/claims-risk/internal/domain"
	"github.com/couchcryptid/claims-risk/internal/observability"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		token:      testToken,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_ResolveArea_BBox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "Trondheim")
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))

		resp := response{
			Features: []feature{
				{
					Center:    []float64{10.3951, 63.4305},
					BBox:      []float64{10.0, 63.2, 10.7, 63.5},
					PlaceName: "Trondheim, Trøndelag, Norway",
					Text:      "Trondheim",
					Relevance: 1,
				},
			},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	area, err := c.ResolveArea(context.Background(), "Trondheim")
	require.NoError(t, err)

	assert.Equal(t, domain.Area{North: 63.5, South: 63.2, East: 10.7, West: 10.0}, area)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("success")))
}

func TestClient_ResolveArea_CentreOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := response{Features: []feature{{Center: []float64{5.73, 58.97}, Text: "Stavanger"}}}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	area, err := testClient(srv.URL).ResolveArea(context.Background(), "Stavanger")
	require.NoError(t, err)

	assert.InDelta(t, 59.07, area.North, 1e-9)
	assert.InDelta(t, 58.87, area.South, 1e-9)
	assert.InDelta(t, 5.88, area.East, 1e-9)
	assert.InDelta(t, 5.58, area.West, 1e-9)
}

func TestClient_ResolveArea_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(response{Features: []feature{}}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	area, err := c.ResolveArea(context.Background(), "Nowhere")
	require.NoError(t, err)
	assert.True(t, area.IsZero())
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("empty")))
}

func TestClient_ResolveArea_EmptyQuerySkipsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("unexpected request")
	}))
	defer srv.Close()

	area, err := testClient(srv.URL).ResolveArea(context.Background(), "  ")
	require.NoError(t, err)
	assert.True(t, area.IsZero())
}

func TestClient_ResolveArea_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.token = "bad-token"

	_, err := c.ResolveArea(context.Background(), "Trondheim")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("error")))
}

func TestClient_ResolveArea_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := c.ResolveArea(context.Background(), "Trondheim")
	require.Error(t, err)
}

func TestClient_ResolveArea_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(response{}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	_, err := c.ResolveArea(context.Background(), "Trondheim")
	require.NoError(t, err, "first request uses the burst")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.ResolveArea(ctx, "Trondheim")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestNewClient(t *testing.T) {
	c := NewClient(testToken, time.Second, 5, testMetrics(), slog.Default())
	assert.Equal(t, defaultBaseURL, c.baseURL)
	assert.Equal(t, rate.Limit(5), c.limiter.Limit())
	assert.Equal(t, time.Second, c.httpClient.Timeout)
}

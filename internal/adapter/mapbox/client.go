package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/claims-risk/internal/domain"
	"github.com/couchcryptid/claims-risk/internal/observability"
)

const defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// Half-extents of the box drawn around a feature centre when Mapbox returns
// no bbox. Matches the size of the built-in city areas.
const (
	centreHalfLat = 0.1
	centreHalfLon = 0.15
)

// Client implements domain.AreaResolver using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox client that issues at most rps requests per second.
func NewClient(token string, timeout time.Duration, rps float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		metrics: metrics,
		logger:  logger,
	}
}

// ResolveArea converts a place name to a bounding box. An unknown place yields
// the zero Area and no error.
func (c *Client) ResolveArea(ctx context.Context, city string) (domain.Area, error) {
	query := strings.TrimSpace(city)
	if query == "" {
		return domain.Area{}, nil
	}

	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(query))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"place,locality"},
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.Area{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()
	area, err := c.doRequest(ctx, u+"?"+params.Encode())
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
	case area.IsZero():
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
	default:
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
		c.logger.Debug("area resolved", "city", query, "area", area.String())
	}
	return area, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.Area, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Area{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Area{}, fmt.Errorf("area lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.Area{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return domain.Area{}, fmt.Errorf("decode response: %w", err)
	}

	if len(mapboxResp.Features) == 0 {
		return domain.Area{}, nil
	}
	return mapboxResp.Features[0].area(), nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	BBox      []float64 `json:"bbox"`   // [minLon, minLat, maxLon, maxLat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}

func (f feature) area() domain.Area {
	if len(f.BBox) == 4 {
		return domain.Area{West: f.BBox[0], South: f.BBox[1], East: f.BBox[2], North: f.BBox[3]}
	}
	if len(f.Center) == 2 {
		return domain.AreaAround(f.Center[1], f.Center[0], centreHalfLat, centreHalfLon)
	}
	return domain.Area{}
}

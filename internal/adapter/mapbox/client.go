// Package mapbox resolves region names to bounding boxes with the Mapbox
// Geocoding API.
package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/deforestation-alerts/internal/domain"
	"github.com/couchcryptid/deforestation-alerts/internal/observability"
)

// fallbackPadDegrees is the half-width of the box synthesized around a
// feature center when Mapbox returns no bbox (point features).
const fallbackPadDegrees = 0.1

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		metrics: metrics,
		logger:  logger,
	}
}

// RegionBounds resolves a free-text region name to a WGS-84 bounding box.
// Features without a bbox (points) get a small box padded around their
// center. Unresolvable names fail with domain.ErrRegionNotFound.
func (c *Client) RegionBounds(ctx context.Context, name string) (domain.BBox, error) {
	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(name))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"place,region,locality"},
	}

	f, err := c.doRequest(ctx, u+"?"+params.Encode())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.BBox{}, err
	}
	if f == nil {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return domain.BBox{}, fmt.Errorf("%w: %q", domain.ErrRegionNotFound, name)
	}
	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()

	if len(f.BBox) == 4 {
		return domain.BBox{West: f.BBox[0], South: f.BBox[1], East: f.BBox[2], North: f.BBox[3]}, nil
	}
	if len(f.Center) == 2 {
		lon, lat := f.Center[0], f.Center[1]
		c.logger.Debug("feature has no bbox, padding center", "name", name, "lon", lon, "lat", lat)
		return domain.BBox{
			West:  lon - fallbackPadDegrees,
			South: lat - fallbackPadDegrees,
			East:  lon + fallbackPadDegrees,
			North: lat + fallbackPadDegrees,
		}, nil
	}
	return domain.BBox{}, fmt.Errorf("%w: %q has no usable geometry", domain.ErrRegionNotFound, name)
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (*feature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(mapboxResp.Features) == 0 {
		return nil, nil
	}
	return &mapboxResp.Features[0], nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	BBox      []float64 `json:"bbox"`   // [west, south, east, north]
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Relevance float64   `json:"relevance"`
}

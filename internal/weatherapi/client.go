// Package weatherapi talks to the OpenWeatherMap HTTP API.
//
// Every call soft-fails: errors are logged here and surface to callers only as
// a nil result (current conditions, forecast) or an empty slice (geocoding).
package weatherapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"weather-dashboard/internal/config"
	"weather-dashboard/internal/models"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

// SearchLimit is the number of geocoding candidates requested per search.
const SearchLimit = 5

const (
	endpointCurrent  = "weather"
	endpointForecast = "forecast"
	endpointGeocode  = "direct"
)

// StatusError is returned for non-2xx provider responses.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d for %s: %s", e.StatusCode, e.Endpoint, e.Body)
}

// IsTransient reports whether retrying later could succeed.
func (e *StatusError) IsTransient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client is the OpenWeatherMap client used by every view.
type Client struct {
	apiKey      string
	baseURL     string
	geoURL      string
	iconBaseURL string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter replaces the outbound rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient creates a new provider client
func NewClient(cfg config.WeatherConfig, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, opts ...Option) *Client {
	c := &Client{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		geoURL:      cfg.GeoURL,
		iconBaseURL: cfg.IconBaseURL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		logger:      logger,
		metrics:     metricsCollector,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentConditions fetches the current observation at lat/lon, or nil on any failure.
func (c *Client) CurrentConditions(ctx context.Context, lat, lon float64) *models.CurrentConditions {
	var dto currentDTO
	if err := c.get(ctx, endpointCurrent, c.baseURL+"/weather", coordParams(lat, lon), &dto); err != nil {
		c.logFailure(ctx, endpointCurrent, err, logging.Fields{"lat": lat, "lon": lon})
		return nil
	}
	if err := dto.validate(); err != nil {
		c.logFailure(ctx, endpointCurrent, err, logging.Fields{"lat": lat, "lon": lon})
		return nil
	}
	return dto.toModel()
}

// Forecast fetches the 5-day/3-hour forecast at lat/lon, or nil on any failure.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) []models.ForecastEntry {
	var dto forecastDTO
	if err := c.get(ctx, endpointForecast, c.baseURL+"/forecast", coordParams(lat, lon), &dto); err != nil {
		c.logFailure(ctx, endpointForecast, err, logging.Fields{"lat": lat, "lon": lon})
		return nil
	}
	if err := dto.validate(); err != nil {
		c.logFailure(ctx, endpointForecast, err, logging.Fields{"lat": lat, "lon": lon})
		return nil
	}
	return dto.toModel()
}

// SearchCities geocodes query into at most SearchLimit cities in provider order.
// The result is never nil; failures yield an empty slice.
func (c *Client) SearchCities(ctx context.Context, query string) []models.City {
	cities := []models.City{}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(SearchLimit))

	var dtos []geoDTO
	if err := c.get(ctx, endpointGeocode, c.geoURL+"/direct", params, &dtos); err != nil {
		c.logFailure(ctx, endpointGeocode, err, logging.Fields{"query": query})
		return cities
	}

	for _, d := range dtos {
		if len(cities) == SearchLimit {
			break
		}
		if !d.valid() {
			c.logger.Warn(ctx, "[WEATHER_API] Skipping geocoding result without coordinates", logging.Fields{
				"query": query,
				"name":  d.Name,
			})
			continue
		}
		cities = append(cities, d.toModel())
	}
	return cities
}

// IconURL returns the provider's 2x icon image for a condition code.
func (c *Client) IconURL(code string) string {
	return fmt.Sprintf("%s/%s@2x.png", c.iconBaseURL, code)
}

func coordParams(lat, lon float64) url.Values {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("units", "metric")
	return params
}

// get performs one rate-limited GET and decodes the JSON body into dst.
func (c *Client) get(ctx context.Context, endpoint, base string, params url.Values, dst interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		c.metrics.RecordUpstream(endpoint, "rate_limited", 0)
		return fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	params.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstream(endpoint, "transport_error", time.Since(start))
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordUpstream(endpoint, "transport_error", time.Since(start))
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.RecordUpstream(endpoint, "http_"+strconv.Itoa(resp.StatusCode), time.Since(start))
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		c.metrics.RecordUpstream(endpoint, "decode_error", time.Since(start))
		return fmt.Errorf("failed to parse response: %w", err)
	}

	c.metrics.RecordUpstream(endpoint, "ok", time.Since(start))
	return nil
}

func (c *Client) logFailure(ctx context.Context, endpoint string, err error, fields logging.Fields) {
	fields["endpoint"] = endpoint
	c.logger.Error(ctx, "[WEATHER_API] Provider call failed", fields, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package weatherapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tj/assert"
	"golang.org/x/time/rate"

	"weather-dashboard/internal/config"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

const currentOK = `{
  "name": "London",
  "dt": 1710000000,
  "visibility": 10000,
  "main": {"temp": 11.6, "feels_like": 10.2, "humidity": 81, "pressure": 1012},
  "wind": {"speed": 4.1, "deg": 240},
  "weather": [{"id": 803, "main": "Clouds", "description": "broken clouds", "icon": "04d"}],
  "sys": {"country": "GB", "sunrise": 1709965000, "sunset": 1710006000}
}`

const forecastOK = `{
  "list": [
    {"dt": 1710000000, "main": {"temp": 9.5, "temp_min": 8.1, "temp_max": 10.0, "humidity": 70},
     "wind": {"speed": 3.2}, "weather": [{"main": "Rain", "description": "light rain", "icon": "10d"}]},
    {"dt": 1710010800, "main": {"temp": 7.0, "humidity": 75},
     "weather": [{"main": "Clouds", "description": "few clouds", "icon": "02n"}]}
  ]
}`

const geocodeOK = `[
  {"name": "Paris", "country": "FR", "state": "Ile-de-France", "lat": 48.8589, "lon": 2.32},
  {"name": "Paris", "country": "US", "state": "Texas", "lat": 33.6609, "lon": -95.5555},
  {"name": "Paris", "country": "US", "state": "Tennessee", "lat": 36.302, "lon": -88.3267},
  {"name": "Broken"},
  {"name": "Paris", "country": "US", "state": "Illinois", "lat": 39.611, "lon": -87.6961},
  {"name": "Paris", "country": "US", "state": "Kentucky", "lat": 38.2098, "lon": -84.2529},
  {"name": "Paris", "country": "CA", "state": "Ontario", "lat": 43.1934, "lon": -80.3842}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.WeatherConfig{
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/data/2.5",
		GeoURL:      srv.URL + "/geo/1.0",
		IconBaseURL: "https://openweathermap.org/img/wn",
		Timeout:     2 * time.Second,
		RateLimit:   1,
		RateBurst:   1,
	}
	return NewClient(cfg, logging.NewNopLogger(), metrics.NewTestCollector(),
		WithLimiter(rate.NewLimiter(rate.Inf, 1)))
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_CurrentConditions(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantNil bool
	}{
		{name: "ok", status: http.StatusOK, body: currentOK},
		{name: "server error", status: http.StatusInternalServerError, body: `{"cod":500}`, wantNil: true},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"cod":401,"message":"Invalid API key"}`, wantNil: true},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantNil: true},
		{name: "missing weather block", status: http.StatusOK, body: `{"name":"X","main":{"temp":1}}`, wantNil: true},
		{name: "missing main block", status: http.StatusOK, body: `{"name":"X","weather":[{"icon":"01d"}]}`, wantNil: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, respond(tc.status, tc.body))

			got := c.CurrentConditions(context.Background(), 51.5074, -0.1278)
			if tc.wantNil {
				assert.Nil(t, got)
				return
			}

			assert.NotNil(t, got)
			assert.Equal(t, "London", got.CityName)
			assert.Equal(t, "GB", got.Country)
			assert.Equal(t, 11.6, got.Temperature)
			assert.Equal(t, 10.2, got.FeelsLike)
			assert.Equal(t, 81, got.Humidity)
			assert.Equal(t, 1012, got.Pressure)
			assert.Equal(t, 4.1, got.WindSpeed)
			assert.Equal(t, "04d", got.ConditionCode)
			assert.Equal(t, "Clouds", got.Condition)
			assert.Equal(t, "broken clouds", got.Description)
			assert.Equal(t, 10000, *got.Visibility)
			assert.Nil(t, got.UVIndex)
			assert.Equal(t, int64(1709965000), got.Sunrise.Unix())
		})
	}
}

func TestClient_CurrentConditions_Request(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		q := r.URL.Query()
		gotQuery = map[string]string{
			"lat":   q.Get("lat"),
			"lon":   q.Get("lon"),
			"appid": q.Get("appid"),
			"units": q.Get("units"),
		}
		respond(http.StatusOK, currentOK)(w, r)
	})

	c.CurrentConditions(context.Background(), 35.6895, 139.6917)

	assert.Equal(t, "/data/2.5/weather", gotPath)
	assert.Equal(t, "35.6895", gotQuery["lat"])
	assert.Equal(t, "139.6917", gotQuery["lon"])
	assert.Equal(t, "test-key", gotQuery["appid"])
	assert.Equal(t, "metric", gotQuery["units"])
}

func TestClient_Forecast(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		c := newTestClient(t, respond(http.StatusOK, forecastOK))

		got := c.Forecast(context.Background(), 1, 2)
		assert.Len(t, got, 2)
		assert.Equal(t, 9.5, got[0].Temperature)
		assert.Equal(t, 8.1, got[0].TempMin)
		assert.Equal(t, 3.2, got[0].WindSpeed)
		assert.Equal(t, "10d", got[0].ConditionCode)
		// optional min/max fall back to temp
		assert.Equal(t, 7.0, got[1].TempMin)
		assert.Equal(t, 7.0, got[1].TempMax)
		assert.True(t, got[0].Timestamp.Before(got[1].Timestamp))
	})

	t.Run("empty list is not a failure", func(t *testing.T) {
		c := newTestClient(t, respond(http.StatusOK, `{"list": []}`))
		got := c.Forecast(context.Background(), 1, 2)
		assert.NotNil(t, got)
		assert.Len(t, got, 0)
	})

	for name, body := range map[string]string{
		"missing list":       `{"cod":"200"}`,
		"entry without main": `{"list":[{"dt":1,"weather":[{"icon":"01d"}]}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, respond(http.StatusOK, body))
			assert.Nil(t, c.Forecast(context.Background(), 1, 2))
		})
	}

	t.Run("bad gateway", func(t *testing.T) {
		c := newTestClient(t, respond(http.StatusBadGateway, ""))
		assert.Nil(t, c.Forecast(context.Background(), 1, 2))
	})
}

func TestClient_SearchCities(t *testing.T) {
	t.Run("capped and ordered", func(t *testing.T) {
		var limit, query string
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/geo/1.0/direct", r.URL.Path)
			limit = r.URL.Query().Get("limit")
			query = r.URL.Query().Get("q")
			respond(http.StatusOK, geocodeOK)(w, r)
		})

		got := c.SearchCities(context.Background(), "Paris & co")
		assert.Equal(t, "5", limit)
		assert.Equal(t, "Paris & co", query)
		assert.Len(t, got, SearchLimit)
		assert.Equal(t, "FR", got[0].Country)
		assert.Equal(t, "Illinois", got[3].State)
		assert.Equal(t, "Kentucky", got[4].State)
	})

	t.Run("failure yields empty slice", func(t *testing.T) {
		c := newTestClient(t, respond(http.StatusServiceUnavailable, ""))
		got := c.SearchCities(context.Background(), "Qwxyzzy123")
		assert.NotNil(t, got)
		assert.Len(t, got, 0)
	})

	t.Run("no matches", func(t *testing.T) {
		c := newTestClient(t, respond(http.StatusOK, `[]`))
		got := c.SearchCities(context.Background(), "Qwxyzzy123")
		assert.NotNil(t, got)
		assert.Len(t, got, 0)
	})
}

func TestClient_CancelledContext(t *testing.T) {
	c := newTestClient(t, respond(http.StatusOK, currentOK))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Nil(t, c.CurrentConditions(ctx, 0, 0))
}

func TestClient_IconURL(t *testing.T) {
	c := newTestClient(t, respond(http.StatusOK, ""))
	assert.Equal(t, "https://openweathermap.org/img/wn/10d@2x.png", c.IconURL("10d"))
}

func TestStatusError_IsTransient(t *testing.T) {
	assert.True(t, (&StatusError{StatusCode: 503}).IsTransient())
	assert.True(t, (&StatusError{StatusCode: 429}).IsTransient())
	assert.False(t, (&StatusError{StatusCode: 401}).IsTransient())
}

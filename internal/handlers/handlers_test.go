package handlers

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"github.com/tj/assert"
	"golang.org/x/net/html"

	"weather-dashboard/internal/config"
	"weather-dashboard/internal/globe"
	"weather-dashboard/internal/models"
	"weather-dashboard/internal/repository"
	"weather-dashboard/internal/services"
	"weather-dashboard/internal/views"
	"weather-dashboard/internal/views/mock"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

var paris = models.City{Name: "Paris", Country: "FR", Lat: 48.8566, Lon: 2.3522}

type memoryPreferences struct {
	mu        sync.Mutex
	values    map[string]string
	unhealthy bool
}

func (m *memoryPreferences) Get(_ context.Context, key string) (*models.Preference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, &repository.NotFoundError{Resource: "preference", ID: key}
	}
	return &models.Preference{Key: key, Value: v}, nil
}

func (m *memoryPreferences) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memoryPreferences) value(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

func (m *memoryPreferences) List(context.Context) ([]*models.Preference, error) { return nil, nil }
func (m *memoryPreferences) Delete(context.Context, string) error               { return nil }
func (m *memoryPreferences) EnsureSchema(context.Context) error                 { return nil }

func (m *memoryPreferences) HealthCheck(context.Context) error {
	if m.unhealthy {
		return errors.New("database is locked")
	}
	return nil
}

type testApp struct {
	client  *mock.MockWeatherClient
	prefs   *memoryPreferences
	active  *services.ActiveCity
	globe   *views.GlobeView
	shell   *Shell
	handler http.Handler
}

func newTestApp(t *testing.T) *testApp {
	ctrl := gomock.NewController(t)
	client := mock.NewMockWeatherClient(ctrl)
	client.EXPECT().IconURL(gomock.Any()).DoAndReturn(func(code string) string {
		return "https://icons.test/" + code + "@2x.png"
	}).AnyTimes()

	logger := logging.NewNopLogger()
	collector := metrics.NewTestCollector()
	prefs := &memoryPreferences{values: map[string]string{}}
	active := services.NewActiveCity(models.DefaultCity)
	cities := services.NewCityService(client, logger, collector)
	settings := services.NewSettingsService(prefs, active, logger, collector)

	opts := views.Options{Location: time.UTC}
	dashboard := views.NewDashboardView(client, cities, active, logger, collector, opts)
	forecast := views.NewForecastView(client, cities, active, logger, collector, opts)
	globeView := views.NewGlobeView(context.Background(), client, cities, active, logger, collector, opts, views.GlobeOptions{
		Width:         400,
		Height:        400,
		FrameInterval: 5 * time.Millisecond,
		SceneOptions:  []globe.SceneOption{globe.WithRand(rand.New(rand.NewSource(1)))},
	})
	settings.Register(dashboard)
	settings.Register(forecast)
	settings.Register(globeView)

	shell, err := NewShell(dashboard, forecast, globeView, settings, cities, active, logger, collector)
	assert.NoError(t, err)
	t.Cleanup(func() { shell.Close(context.Background()) })

	api := NewWeatherHandler(client, cities, active, globeView, prefs, time.UTC, logger, collector)

	router := mux.NewRouter()
	router.Use(RequestID, Instrument(logger, collector))
	api.RegisterRoutes(router)
	shell.RegisterRoutes(router)

	return &testApp{
		client:  client,
		prefs:   prefs,
		active:  active,
		globe:   globeView,
		shell:   shell,
		handler: Wrap(router, config.ServerConfig{}, logger),
	}
}

func (a *testApp) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	r := httptest.NewRequest(method, target, body)
	if form != nil {
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)
	return w
}

func conditions(name string, temp float64) *models.CurrentConditions {
	return &models.CurrentConditions{
		CityName:      name,
		Temperature:   temp,
		FeelsLike:     temp,
		Humidity:      70,
		Pressure:      1015,
		WindSpeed:     2.5,
		ConditionCode: "01d",
		Condition:     "Clear",
		Description:   "clear sky",
	}
}

func entries(n int) []models.ForecastEntry {
	start := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.ForecastEntry, n)
	for i := range out {
		out[i] = models.ForecastEntry{
			Timestamp:     start.Add(time.Duration(i) * 3 * time.Hour),
			Temperature:   12 + float64(i%8),
			ConditionCode: "02d",
			Condition:     "Clouds",
		}
	}
	return out
}

func parseHTML(t *testing.T, w *httptest.ResponseRecorder) *html.Node {
	t.Helper()
	doc, err := html.Parse(w.Body)
	assert.NoError(t, err)
	return doc
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func byID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool { return attr(n, "id") == id }
}

func byTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == tag }
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

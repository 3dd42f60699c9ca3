package views

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/services"
	"weather-dashboard/internal/units"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

// HourlySlots is the number of forecast entries on the hourly strip.
const HourlySlots = 6

const dateLayout = "2 January, 15:04"

// HourlyDisplay is one slot of the hourly strip.
type HourlyDisplay struct {
	Time        string  `json:"time"`
	IconURL     string  `json:"icon_url"`
	IconClass   string  `json:"icon_class"`
	Temperature Reading `json:"temperature"`
}

// CityCardDisplay is a preset city summary card.
type CityCardDisplay struct {
	Name        string  `json:"name"`
	Loaded      bool    `json:"loaded"`
	Temperature Reading `json:"temperature"`
	Condition   string  `json:"condition"`
}

// DashboardDisplay is everything the dashboard page renders.
type DashboardDisplay struct {
	Date    string            `json:"date"`
	Loaded  bool              `json:"loaded"`
	Current CurrentDisplay    `json:"current"`
	Hourly  []HourlyDisplay   `json:"hourly"`
	Cards   []CityCardDisplay `json:"cards"`
}

// DashboardView shows current conditions for the active city, the next hours of
// forecast and the preset city cards.
type DashboardView struct {
	client  WeatherClient
	cities  *services.CityService
	active  *services.ActiveCity
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	opts    Options
	presets []models.City

	mu      sync.RWMutex
	units   unitState
	display DashboardDisplay
}

// NewDashboardView creates a dashboard with empty cards for the preset cities.
func NewDashboardView(client WeatherClient, cities *services.CityService, active *services.ActiveCity, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, opts Options) *DashboardView {
	opts = opts.withDefaults()
	v := &DashboardView{
		client:  client,
		cities:  cities,
		active:  active,
		logger:  logger,
		metrics: metricsCollector,
		opts:    opts,
		presets: models.DashboardPresets,
		units:   unitState{unit: units.Celsius, legacy: opts.LegacyUnitConversion},
	}
	v.display.Cards = make([]CityCardDisplay, len(v.presets))
	for i, c := range v.presets {
		v.display.Cards[i] = CityCardDisplay{Name: c.Name, Temperature: v.units.placeholder()}
	}
	return v
}

// Load refreshes the date line, the active city and the preset cards.
func (v *DashboardView) Load(ctx context.Context) {
	v.mu.Lock()
	v.display.Date = v.opts.Now().In(v.opts.Location).Format(dateLayout)
	v.mu.Unlock()

	v.Refresh(ctx)
	v.loadCityCards(ctx)
}

// Refresh fetches current conditions and forecast for the active city. A failed
// fetch leaves the previously rendered fields as they were.
func (v *DashboardView) Refresh(ctx context.Context) {
	city, tok := v.active.Get()

	var (
		current  *models.CurrentConditions
		forecast []models.ForecastEntry
		g        errgroup.Group
	)
	g.Go(func() error {
		current = v.client.CurrentConditions(ctx, city.Lat, city.Lon)
		return nil
	})
	g.Go(func() error {
		forecast = v.client.Forecast(ctx, city.Lat, city.Lon)
		return nil
	})
	_ = g.Wait()

	// the token is checked under v.mu so a Set racing this write cannot be overtaken
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.active.IsCurrent(tok) {
		v.metrics.RecordViewRefresh("dashboard", "stale")
		v.logger.Debug(ctx, "[DASHBOARD] Dropped response for superseded city", logging.Fields{
			"city": city.Name,
		})
		return
	}

	if current == nil {
		v.logger.Warn(ctx, "[DASHBOARD] Failed to load current weather", logging.Fields{
			"city": city.Name,
		})
	} else {
		v.display.Current = newCurrentDisplay(current, city.Name, v.units, v.client.IconURL, v.opts.Location)
		v.display.Loaded = true
	}

	if forecast == nil {
		v.logger.Warn(ctx, "[DASHBOARD] Failed to load hourly forecast", logging.Fields{
			"city": city.Name,
		})
	} else {
		next := models.NextEntries(forecast, HourlySlots)
		hourly := make([]HourlyDisplay, len(next))
		for i, e := range next {
			hourly[i] = HourlyDisplay{
				Time:        e.Timestamp.In(v.opts.Location).Format("15:04"),
				IconURL:     v.client.IconURL(e.ConditionCode),
				IconClass:   IconClass(e.ConditionCode),
				Temperature: v.units.reading(e.Temperature),
			}
		}
		v.display.Hourly = hourly
	}

	result := "ok"
	if current == nil && forecast == nil {
		result = "no_data"
	}
	v.metrics.RecordViewRefresh("dashboard", result)
}

func (v *DashboardView) loadCityCards(ctx context.Context) {
	results := make([]*models.CurrentConditions, len(v.presets))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range v.presets {
		g.Go(func() error {
			results[i] = v.client.CurrentConditions(gctx, c.Lat, c.Lon)
			return nil
		})
	}
	_ = g.Wait()

	v.mu.Lock()
	defer v.mu.Unlock()
	for i, w := range results {
		if w == nil {
			v.logger.Warn(ctx, "[DASHBOARD] Failed to load city card", logging.Fields{
				"city": v.presets[i].Name,
			})
			continue
		}
		v.display.Cards[i] = CityCardDisplay{
			Name:        v.presets[i].Name,
			Loaded:      true,
			Temperature: v.units.reading(w.Temperature),
			Condition:   w.Condition,
		}
	}
}

// Search resolves query to its first match, makes it the active city and refreshes.
// On no match it returns services.ErrCityNotFound and nothing changes.
func (v *DashboardView) Search(ctx context.Context, query string) error {
	city, err := v.cities.Resolve(ctx, "dashboard", query)
	if err != nil {
		return err
	}
	v.active.Set(city)
	v.Refresh(ctx)
	return nil
}

// ApplyUnit re-derives every rendered temperature for u.
func (v *DashboardView) ApplyUnit(u units.Unit) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.units.unit = u
	if v.display.Loaded {
		v.display.Current.reapply(v.units)
	}
	for i := range v.display.Hourly {
		v.units.reapply(&v.display.Hourly[i].Temperature)
	}
	for i := range v.display.Cards {
		v.units.reapply(&v.display.Cards[i].Temperature)
	}
}

// Display returns a copy of the current display.
func (v *DashboardView) Display() DashboardDisplay {
	v.mu.RLock()
	defer v.mu.RUnlock()

	d := v.display
	d.Hourly = append([]HourlyDisplay(nil), v.display.Hourly...)
	d.Cards = append([]CityCardDisplay(nil), v.display.Cards...)
	return d
}

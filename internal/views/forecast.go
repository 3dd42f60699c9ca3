package views

import (
	"context"
	"strconv"
	"sync"

	"weather-dashboard/internal/chart"
	"weather-dashboard/internal/models"
	"weather-dashboard/internal/services"
	"weather-dashboard/internal/units"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

// Chart geometry and series styling.
const (
	ChartWidth  = 640
	ChartHeight = 300

	maxSeriesColor = "#4cc9f0"
	minSeriesColor = "#ff6384"
)

// DayCardDisplay is one day of the forecast.
type DayCardDisplay struct {
	Date      string  `json:"date"`
	Weekday   string  `json:"weekday"`
	IconClass string  `json:"icon_class"`
	IconURL   string  `json:"icon_url"`
	Max       Reading `json:"max"`
	Min       Reading `json:"min"`
	Condition string  `json:"condition"`
	Humidity  string  `json:"humidity"`
	Wind      string  `json:"wind"`
}

// ForecastDisplay is everything the forecast page renders.
type ForecastDisplay struct {
	Loaded      bool             `json:"loaded"`
	CityName    string           `json:"city_name"`
	Coordinates string           `json:"coordinates"`
	Days        []DayCardDisplay `json:"days"`
	// Chart is the rendered SVG, empty until the first successful refresh.
	Chart string `json:"-"`
}

// ForecastView reduces the 5-day forecast to daily cards and a min/max chart.
type ForecastView struct {
	client  WeatherClient
	cities  *services.CityService
	active  *services.ActiveCity
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	opts    Options
	charts  *chart.Tracker

	mu      sync.RWMutex
	units   unitState
	display ForecastDisplay
	days    []models.DailyAggregate
	chart   *chart.Chart
}

// NewForecastView creates an empty forecast view.
func NewForecastView(client WeatherClient, cities *services.CityService, active *services.ActiveCity, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, opts Options) *ForecastView {
	opts = opts.withDefaults()
	return &ForecastView{
		client:  client,
		cities:  cities,
		active:  active,
		logger:  logger,
		metrics: metricsCollector,
		opts:    opts,
		charts:  chart.NewTracker(metricsCollector.ChartInstancesActive),
		units:   unitState{unit: units.Celsius, legacy: opts.LegacyUnitConversion},
	}
}

// Refresh fetches the forecast for the active city and rebuilds the cards and chart.
func (v *ForecastView) Refresh(ctx context.Context) {
	city, tok := v.active.Get()

	entries := v.client.Forecast(ctx, city.Lat, city.Lon)
	if entries == nil {
		v.metrics.RecordViewRefresh("forecast", "no_data")
		v.logger.Warn(ctx, "[FORECAST] Failed to load forecast data", logging.Fields{
			"city": city.Name,
		})
		return
	}
	days := models.AggregateDaily(entries, v.opts.Location)

	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.active.IsCurrent(tok) {
		v.metrics.RecordViewRefresh("forecast", "stale")
		v.logger.Debug(ctx, "[FORECAST] Dropped response for superseded city", logging.Fields{
			"city": city.Name,
		})
		return
	}

	cards := make([]DayCardDisplay, len(days))
	for i, d := range days {
		cards[i] = DayCardDisplay{
			Date:      d.Date,
			Weekday:   d.Weekday(),
			IconClass: IconClass(d.First.ConditionCode),
			IconURL:   v.client.IconURL(d.First.ConditionCode),
			Max:       v.units.bareReading(d.Max),
			Min:       v.units.bareReading(d.Min),
			Condition: d.First.Condition,
			Humidity:  strconv.Itoa(d.First.Humidity) + "%",
			Wind:      formatNumber(d.First.WindSpeed) + " m/s",
		}
	}

	v.days = days
	v.display = ForecastDisplay{
		Loaded:      true,
		CityName:    city.Name,
		Coordinates: city.CoordinateLabel(),
		Days:        cards,
	}
	v.rebuildChart(ctx)

	v.metrics.RecordViewRefresh("forecast", "ok")
	v.logger.Debug(ctx, "[FORECAST] Forecast rendered", logging.Fields{
		"city":    city.Name,
		"entries": len(entries),
		"days":    len(days),
	})
}

// rebuildChart destroys the previous chart before building its replacement.
// Callers hold v.mu.
func (v *ForecastView) rebuildChart(ctx context.Context) {
	v.chart.Destroy()
	v.chart = nil
	v.display.Chart = ""

	if len(v.days) == 0 {
		return
	}

	labels := make([]string, len(v.days))
	maxValues := make([]float64, len(v.days))
	minValues := make([]float64, len(v.days))
	for i, d := range v.days {
		labels[i] = d.Weekday()
		maxValues[i] = v.units.chartValue(d.Max)
		minValues[i] = v.units.chartValue(d.Min)
	}

	symbol := v.units.chartSymbol()
	v.chart = v.charts.New(labels,
		chart.Series{Label: "Max Temperature (" + symbol + ")", Color: maxSeriesColor, Fill: true, Values: maxValues},
		chart.Series{Label: "Min Temperature (" + symbol + ")", Color: minSeriesColor, Values: minValues},
	)

	svg, err := v.chart.SVG(ChartWidth, ChartHeight)
	if err != nil {
		v.logger.Error(ctx, "[FORECAST_CHART_ERROR] Failed to render chart", logging.Fields{}, err)
		return
	}
	v.display.Chart = svg
}

// Search resolves query to its first match, makes it the active city and refreshes.
func (v *ForecastView) Search(ctx context.Context, query string) error {
	city, err := v.cities.Resolve(ctx, "forecast", query)
	if err != nil {
		return err
	}
	v.active.Set(city)
	v.Refresh(ctx)
	return nil
}

// ApplyUnit re-derives the day card temperatures and, in canonical mode, redraws the chart.
func (v *ForecastView) ApplyUnit(u units.Unit) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.units.unit = u
	for i := range v.display.Days {
		v.units.reapply(&v.display.Days[i].Max)
		v.units.reapply(&v.display.Days[i].Min)
	}
	if !v.units.legacy && v.chart != nil {
		v.rebuildChart(context.Background())
	}
}

// ChartsLive returns the number of chart instances this view has not destroyed.
func (v *ForecastView) ChartsLive() int64 {
	return v.charts.Live()
}

// Close destroys the current chart.
func (v *ForecastView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.chart.Destroy()
	v.chart = nil
	v.display.Chart = ""
}

// Display returns a copy of the current display.
func (v *ForecastView) Display() ForecastDisplay {
	v.mu.RLock()
	defer v.mu.RUnlock()

	d := v.display
	d.Days = append([]DayCardDisplay(nil), v.display.Days...)
	return d
}

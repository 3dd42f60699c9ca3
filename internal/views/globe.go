package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/umahmood/haversine"
	"golang.org/x/sync/errgroup"

	"weather-dashboard/internal/globe"
	"weather-dashboard/internal/models"
	"weather-dashboard/internal/services"
	"weather-dashboard/internal/units"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

// NoWeatherNotice is shown in the detail panel when a city has no conditions.
const NoWeatherNotice = "No weather data available."

var (
	// ErrGlobeUnavailable is returned for globe frames when the renderer could not be created.
	ErrGlobeUnavailable = errors.New("globe renderer unavailable")
	// ErrUnknownMarker is returned when selecting a marker or card that does not exist.
	ErrUnknownMarker = errors.New("unknown globe marker")
)

// RendererFactory creates the globe renderer for a viewport.
type RendererFactory func(width, height int) (globe.Renderer, error)

// SVGRendererFactory builds globe.SVGRenderer instances.
func SVGRendererFactory(width, height int) (globe.Renderer, error) {
	return globe.NewSVGRenderer(width, height)
}

// GlobeOptions configures the globe viewport and render loop.
type GlobeOptions struct {
	Width         int
	Height        int
	FrameInterval time.Duration
	NewRenderer   RendererFactory
	SceneOptions  []globe.SceneOption
}

// GlobeCardDisplay is a city card beside the globe.
type GlobeCardDisplay struct {
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	Coordinates string  `json:"coordinates"`
	HasData     bool    `json:"has_data"`
	Temperature Reading `json:"temperature"`
	IconURL     string  `json:"icon_url,omitempty"`
	Description string  `json:"description,omitempty"`
	Distance    string  `json:"distance"`
	MarkerIndex int     `json:"marker_index"`

	city models.City
}

// PanelDisplay is the detail panel of the selected city.
type PanelDisplay struct {
	Open    bool           `json:"open"`
	City    models.City    `json:"city"`
	HasData bool           `json:"has_data"`
	Current CurrentDisplay `json:"current"`
	Message string         `json:"message,omitempty"`
}

// GlobeDisplay is everything the locations page renders.
type GlobeDisplay struct {
	Degraded bool               `json:"degraded"`
	Running  bool               `json:"running"`
	Markers  int                `json:"markers"`
	Cards    []GlobeCardDisplay `json:"cards"`
	Panel    PanelDisplay       `json:"panel"`
}

// CameraInput is one batch of pointer and viewport events.
type CameraInput struct {
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Zoom   float64 `json:"zoom"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// GlobeView owns the globe scene, its render loop, the city cards and the detail panel.
//
// Cards and markers are appended together, so card i always belongs to marker i.
type GlobeView struct {
	client  WeatherClient
	cities  *services.CityService
	active  *services.ActiveCity
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	opts    Options
	gopts   GlobeOptions

	scene    *globe.Scene
	renderer globe.Renderer
	loop     *globe.Loop

	mu     sync.RWMutex
	units  unitState
	loaded bool
	cards  []GlobeCardDisplay
	panel  PanelDisplay
}

// NewGlobeView creates the scene and renderer. If the renderer cannot be created the
// view is degraded: cards, search and the panel keep working without frames.
func NewGlobeView(ctx context.Context, client WeatherClient, cities *services.CityService, active *services.ActiveCity, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, opts Options, gopts GlobeOptions) *GlobeView {
	opts = opts.withDefaults()
	if gopts.NewRenderer == nil {
		gopts.NewRenderer = SVGRendererFactory
	}

	v := &GlobeView{
		client:  client,
		cities:  cities,
		active:  active,
		logger:  logger,
		metrics: metricsCollector,
		opts:    opts,
		gopts:   gopts,
		units:   unitState{unit: units.Celsius, legacy: opts.LegacyUnitConversion},
	}
	v.setupScene(ctx)
	return v
}

func (v *GlobeView) setupScene(ctx context.Context) {
	v.scene = globe.NewScene(v.gopts.SceneOptions...)
	v.scene.Resize(v.gopts.Width, v.gopts.Height)

	renderer, err := v.gopts.NewRenderer(v.gopts.Width, v.gopts.Height)
	if err != nil {
		v.logger.Error(ctx, "[GLOBE_INIT_ERROR] Failed to create globe renderer, showing cards only", logging.Fields{
			"width":  v.gopts.Width,
			"height": v.gopts.Height,
		}, err)
		return
	}
	v.renderer = renderer
	v.loop = globe.NewLoop(v.scene, renderer, v.gopts.FrameInterval, v.logger, v.metrics)
}

// Degraded reports whether the globe runs without a renderer.
func (v *GlobeView) Degraded() bool {
	return v.renderer == nil
}

// Load places the preset city markers once, fetching their conditions concurrently.
func (v *GlobeView) Load(ctx context.Context) {
	v.mu.RLock()
	loaded := v.loaded
	v.mu.RUnlock()
	if loaded {
		return
	}

	presets := models.GlobePresets
	results := make([]*models.CurrentConditions, len(presets))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range presets {
		g.Go(func() error {
			results[i] = v.client.CurrentConditions(gctx, c.Lat, c.Lon)
			return nil
		})
	}
	_ = g.Wait()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loaded {
		return
	}
	for i, c := range presets {
		if results[i] == nil {
			v.logger.Warn(ctx, "[GLOBE] No weather for preset city", logging.Fields{"city": c.Name})
		}
		v.placeLocked(c, results[i])
	}
	v.loaded = true
	v.metrics.GlobeMarkers.Set(float64(v.scene.MarkerCount()))
}

// placeLocked adds a marker and its card, or upgrades an existing card with weather.
func (v *GlobeView) placeLocked(city models.City, weather *models.CurrentConditions) int {
	idx, added := v.scene.AddMarker(city, weather)
	if added {
		v.cards = append(v.cards, v.newCard(city, weather, idx))
		return idx
	}
	if idx < len(v.cards) && !v.cards[idx].HasData && weather != nil {
		v.cards[idx] = v.newCard(v.cards[idx].city, weather, idx)
	}
	return idx
}

func (v *GlobeView) newCard(city models.City, weather *models.CurrentConditions, idx int) GlobeCardDisplay {
	card := GlobeCardDisplay{
		Name:        city.Name,
		Country:     city.Country,
		Coordinates: city.CoordinateLabel(),
		Temperature: v.units.placeholder(),
		MarkerIndex: idx,
		city:        city,
	}
	if weather != nil {
		card.HasData = true
		card.Temperature = v.units.reading(weather.Temperature)
		card.IconURL = v.client.IconURL(weather.ConditionCode)
		card.Description = titleCase(weather.Description)
	}
	return card
}

// Start runs the render loop. It returns false when degraded or already running.
func (v *GlobeView) Start(ctx context.Context) bool {
	if v.loop == nil {
		return false
	}
	return v.loop.Start(ctx)
}

// Stop halts the render loop.
func (v *GlobeView) Stop() {
	if v.loop != nil {
		v.loop.Stop()
	}
}

// Running reports whether the render loop is active.
func (v *GlobeView) Running() bool {
	return v.loop != nil && v.loop.Running()
}

// Suggest returns up to five candidate cities for a partial query.
func (v *GlobeView) Suggest(ctx context.Context, query string) []models.City {
	return v.cities.Suggest(ctx, query)
}

// Search resolves query to its first match and selects it.
func (v *GlobeView) Search(ctx context.Context, query string) error {
	city, err := v.cities.Resolve(ctx, "locations", query)
	if err != nil {
		return err
	}
	v.SelectCity(ctx, city)
	return nil
}

// SelectCity makes city active, pins it on the globe, focuses the camera on it
// and opens its detail panel.
func (v *GlobeView) SelectCity(ctx context.Context, city models.City) {
	tok := v.active.Set(city)
	weather := v.client.CurrentConditions(ctx, city.Lat, city.Lon)

	v.mu.Lock()
	defer v.mu.Unlock()

	v.placeLocked(city, weather)
	v.metrics.GlobeMarkers.Set(float64(v.scene.MarkerCount()))

	if !v.active.IsCurrent(tok) {
		v.metrics.RecordViewRefresh("globe", "stale")
		v.logger.Debug(ctx, "[GLOBE] Dropped selection for superseded city", logging.Fields{"city": city.Name})
		return
	}

	v.scene.FocusOn(city.Lat, city.Lon)
	v.openPanelLocked(city, weather)
	v.recordPanel(weather)
}

// SelectMarker selects the city behind marker i.
func (v *GlobeView) SelectMarker(ctx context.Context, i int) error {
	m, ok := v.scene.Marker(i)
	if !ok {
		return fmt.Errorf("marker %d: %w", i, ErrUnknownMarker)
	}

	v.active.Set(m.City)
	v.scene.FocusOn(m.City.Lat, m.City.Lon)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.openPanelLocked(m.City, m.Weather)
	v.recordPanel(m.Weather)
	return nil
}

// SelectCard selects the marker behind the card named name (case-insensitive).
func (v *GlobeView) SelectCard(ctx context.Context, name string) error {
	v.mu.RLock()
	idx := -1
	for _, c := range v.cards {
		if strings.EqualFold(c.Name, name) {
			idx = c.MarkerIndex
			break
		}
	}
	v.mu.RUnlock()

	if idx < 0 {
		return fmt.Errorf("card %q: %w", name, ErrUnknownMarker)
	}
	return v.SelectMarker(ctx, idx)
}

func (v *GlobeView) openPanelLocked(city models.City, weather *models.CurrentConditions) {
	v.panel = PanelDisplay{Open: true, City: city}
	if weather == nil {
		v.panel.Message = NoWeatherNotice
		return
	}
	v.panel.HasData = true
	v.panel.Current = newCurrentDisplay(weather, city.Name, v.units, v.client.IconURL, v.opts.Location)
}

func (v *GlobeView) recordPanel(weather *models.CurrentConditions) {
	if weather == nil {
		v.metrics.RecordViewRefresh("globe", "no_data")
		return
	}
	v.metrics.RecordViewRefresh("globe", "ok")
}

// ClosePanel hides the detail panel.
func (v *GlobeView) ClosePanel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.panel = PanelDisplay{}
}

// Camera applies pointer input and viewport changes to the scene.
func (v *GlobeView) Camera(in CameraInput) {
	if in.DX != 0 || in.DY != 0 {
		v.scene.Drag(in.DX, in.DY)
	}
	if in.Zoom > 0 {
		v.scene.Zoom(in.Zoom)
	}
	if in.Width > 0 && in.Height > 0 {
		v.scene.Resize(in.Width, in.Height)
	}
}

// Frame returns the scene state without advancing it.
func (v *GlobeView) Frame() globe.Frame {
	return v.scene.Snapshot()
}

// SVG returns the latest globe frame. While the loop is stopped the current state
// is rendered on demand.
func (v *GlobeView) SVG(ctx context.Context) ([]byte, error) {
	if v.renderer == nil {
		return nil, ErrGlobeUnavailable
	}
	if !v.Running() {
		if err := v.renderer.Render(v.scene.Snapshot()); err != nil {
			v.logger.Error(ctx, "[GLOBE_RENDER_ERROR] Failed to render globe frame", logging.Fields{}, err)
			return nil, fmt.Errorf("failed to render globe: %w", err)
		}
	}
	return v.renderer.Last()
}

// ApplyUnit re-derives card and panel temperatures for u.
func (v *GlobeView) ApplyUnit(u units.Unit) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.units.unit = u
	for i := range v.cards {
		v.units.reapply(&v.cards[i].Temperature)
	}
	if v.panel.HasData {
		v.panel.Current.reapply(v.units)
	}
}

// Display returns the cards, with distances from the active city, and the panel.
func (v *GlobeView) Display() GlobeDisplay {
	origin := v.active.City()

	v.mu.RLock()
	defer v.mu.RUnlock()

	cards := make([]GlobeCardDisplay, len(v.cards))
	for i, c := range v.cards {
		c.Distance = distance(origin, c.city)
		cards[i] = c
	}
	return GlobeDisplay{
		Degraded: v.renderer == nil,
		Running:  v.Running(),
		Markers:  v.scene.MarkerCount(),
		Cards:    cards,
		Panel:    v.panel,
	}
}

func distance(from, to models.City) string {
	_, km := haversine.Distance(
		haversine.Coord{Lat: from.Lat, Lon: from.Lon},
		haversine.Coord{Lat: to.Lat, Lon: to.Lon},
	)
	return fmt.Sprintf("%.0f km", km)
}

// Teardown stops the loop, releases the renderer and clears markers, cards and the panel.
func (v *GlobeView) Teardown(ctx context.Context) {
	v.Stop()

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.renderer != nil {
		if err := v.renderer.Close(); err != nil {
			v.logger.Warn(ctx, "[GLOBE] Failed to release renderer", logging.Fields{"error": err.Error()})
		}
	}
	v.scene.Clear()
	v.cards = nil
	v.panel = PanelDisplay{}
	v.loaded = false
	v.metrics.GlobeMarkers.Set(0)
}

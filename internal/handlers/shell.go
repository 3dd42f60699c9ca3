package handlers

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/services"
	"weather-dashboard/internal/units"
	"weather-dashboard/internal/views"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page identifies one of the dashboard pages.
type Page string

const (
	PageDashboard Page = "dashboard"
	PageLocations Page = "locations"
	PageForecast  Page = "forecast"
	PageSettings  Page = "settings"
)

// Pages lists the pages in navigation order.
var Pages = []Page{PageDashboard, PageLocations, PageForecast, PageSettings}

var pageTitles = map[Page]string{
	PageDashboard: "Dashboard",
	PageLocations: "Locations",
	PageForecast:  "Forecast",
	PageSettings:  "Settings",
}

// ParsePage maps a path segment onto a page.
func ParsePage(s string) (Page, bool) {
	p := Page(strings.ToLower(s))
	_, ok := pageTitles[p]
	return p, ok
}

type navItem struct {
	Page   Page
	Label  string
	Active bool
}

type pageData struct {
	Page     Page
	Title    string
	Nav      []navItem
	Settings services.Settings
	Notice   string

	Dashboard views.DashboardDisplay
	Forecast  views.ForecastDisplay
	Globe     views.GlobeDisplay
	GlobeSVG  template.HTML
	Chart     template.HTML

	Themes []services.Theme
	Units  []units.Unit
}

// Shell owns page switching and the global search. Exactly one page is current;
// activating a page runs only that page's refresh.
type Shell struct {
	dashboard *views.DashboardView
	forecast  *views.ForecastView
	globe     *views.GlobeView
	settings  *services.SettingsService
	cities    *services.CityService
	active    *services.ActiveCity
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
	templates map[Page]*template.Template

	mu      sync.Mutex
	current Page
}

// NewShell parses the page templates and starts on the dashboard.
func NewShell(
	dashboard *views.DashboardView,
	forecast *views.ForecastView,
	globe *views.GlobeView,
	settings *services.SettingsService,
	cities *services.CityService,
	active *services.ActiveCity,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) (*Shell, error) {
	templates := make(map[Page]*template.Template, len(Pages))
	for _, p := range Pages {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+string(p)+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", p, err)
		}
		templates[p] = t
	}

	return &Shell{
		dashboard: dashboard,
		forecast:  forecast,
		globe:     globe,
		settings:  settings,
		cities:    cities,
		active:    active,
		logger:    logger,
		metrics:   metricsCollector,
		templates: templates,
		current:   PageDashboard,
	}, nil
}

// Current returns the active page.
func (s *Shell) Current() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// switchTo makes p current and stops the globe loop when leaving the locations page.
func (s *Shell) switchTo(p Page) Page {
	s.mu.Lock()
	prev := s.current
	s.current = p
	s.mu.Unlock()

	if prev == PageLocations && p != PageLocations {
		s.globe.Stop()
	}
	return prev
}

// Activate switches to p and runs its refresh entry point.
func (s *Shell) Activate(ctx context.Context, p Page) {
	prev := s.switchTo(p)

	s.logger.Debug(ctx, "[SHELL] Page activated", logging.Fields{
		"page":     p,
		"previous": prev,
	})

	switch p {
	case PageDashboard:
		s.dashboard.Load(ctx)
	case PageForecast:
		s.forecast.Refresh(ctx)
	case PageLocations:
		s.globe.Load(ctx)
		s.globe.Start(ctx)
	}
}

// Search resolves query, makes it the active city and refreshes the dashboard, plus the
// forecast when it is the current page, then switches to the dashboard.
func (s *Shell) Search(ctx context.Context, query string) error {
	city, err := s.cities.Resolve(ctx, "shell", query)
	if err != nil {
		return err
	}

	s.active.Set(city)
	s.dashboard.Refresh(ctx)
	if s.Current() == PageForecast {
		s.forecast.Refresh(ctx)
	}
	s.switchTo(PageDashboard)
	return nil
}

// Close stops background work owned by the views.
func (s *Shell) Close(ctx context.Context) {
	s.globe.Teardown(ctx)
	s.forecast.Close()
}

// ShowPage handles GET /{page}
func (s *Shell) ShowPage(w http.ResponseWriter, r *http.Request) {
	p, ok := ParsePage(mux.Vars(r)["page"])
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.Activate(r.Context(), p)
	s.render(w, r, p, http.StatusOK, "")
}

// GlobalSearch handles POST /search
func (s *Shell) GlobalSearch(w http.ResponseWriter, r *http.Request) {
	err := s.Search(r.Context(), r.FormValue("q"))
	if err != nil {
		s.searchFailed(w, r, s.Current(), err)
		return
	}
	s.redirect(w, r, PageDashboard)
}

// PageSearch handles POST /{page}/search for the pages with their own search box.
func (s *Shell) PageSearch(w http.ResponseWriter, r *http.Request) {
	p, _ := ParsePage(mux.Vars(r)["page"])
	ctx := r.Context()
	query := r.FormValue("q")

	var err error
	switch p {
	case PageDashboard:
		err = s.dashboard.Search(ctx, query)
	case PageForecast:
		err = s.forecast.Search(ctx, query)
	case PageLocations:
		err = s.globe.Search(ctx, query)
	default:
		http.NotFound(w, r)
		return
	}

	if err != nil {
		s.searchFailed(w, r, p, err)
		return
	}
	s.redirect(w, r, p)
}

func (s *Shell) searchFailed(w http.ResponseWriter, r *http.Request, p Page, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyQuery):
		s.redirect(w, r, p)
	case errors.Is(err, services.ErrCityNotFound):
		s.render(w, r, p, http.StatusNotFound, services.NotFoundNotice)
	default:
		s.logger.Error(r.Context(), "[SHELL_SEARCH_ERROR] Search failed", logging.Fields{"page": p}, err)
		s.metrics.RecordAPIError("search_failed", "/"+string(p))
		s.render(w, r, p, http.StatusInternalServerError, "Search failed. Please try again.")
	}
}

// Suggest handles GET /locations/suggest
func (s *Shell) Suggest(w http.ResponseWriter, r *http.Request) {
	matches := s.globe.Suggest(r.Context(), r.URL.Query().Get("q"))
	writeJSON(w, s.logger, DataResponse{Data: matches, Total: len(matches)}, http.StatusOK)
}

// SelectCity handles POST /locations/select with a suggestion the user picked.
func (s *Shell) SelectCity(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.FormValue("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.FormValue("lon"), 64)
	city := models.City{
		Name:    r.FormValue("name"),
		Country: r.FormValue("country"),
		State:   r.FormValue("state"),
		Lat:     lat,
		Lon:     lon,
	}
	if errLat != nil || errLon != nil || city.Name == "" {
		http.Error(w, "name, lat and lon are required", http.StatusBadRequest)
		return
	}
	if err := city.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.globe.SelectCity(r.Context(), city)
	s.redirect(w, r, PageLocations)
}

// SelectMarker handles POST /locations/markers/{index}/select
func (s *Shell) SelectMarker(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err == nil {
		err = s.globe.SelectMarker(r.Context(), idx)
	}
	if err != nil {
		http.Error(w, "unknown marker", http.StatusNotFound)
		return
	}
	s.redirect(w, r, PageLocations)
}

// SelectCard handles POST /locations/cards/{name}/select
func (s *Shell) SelectCard(w http.ResponseWriter, r *http.Request) {
	if err := s.globe.SelectCard(r.Context(), mux.Vars(r)["name"]); err != nil {
		http.Error(w, "unknown city card", http.StatusNotFound)
		return
	}
	s.redirect(w, r, PageLocations)
}

// ClosePanel handles POST /locations/panel/close
func (s *Shell) ClosePanel(w http.ResponseWriter, r *http.Request) {
	s.globe.ClosePanel()
	s.redirect(w, r, PageLocations)
}

// Camera handles POST /locations/camera with a JSON CameraInput body.
func (s *Shell) Camera(w http.ResponseWriter, r *http.Request) {
	var in views.CameraInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid camera input", http.StatusBadRequest)
		return
	}
	s.globe.Camera(in)
	w.WriteHeader(http.StatusNoContent)
}

// GlobeSVG handles GET /locations/globe.svg
func (s *Shell) GlobeSVG(w http.ResponseWriter, r *http.Request) {
	svg, err := s.globe.SVG(r.Context())
	if err != nil {
		http.Error(w, "globe unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(svg)
}

// SetTheme handles POST /settings/theme
func (s *Shell) SetTheme(w http.ResponseWriter, r *http.Request) {
	_, err := s.settings.SetTheme(r.Context(), r.FormValue("theme"))
	s.settingChanged(w, r, err)
}

// ToggleTheme handles POST /settings/theme/toggle
func (s *Shell) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	_, err := s.settings.ToggleTheme(r.Context())
	s.settingChanged(w, r, err)
}

// SetUnit handles POST /settings/unit
func (s *Shell) SetUnit(w http.ResponseWriter, r *http.Request) {
	_, err := s.settings.SetUnit(r.Context(), r.FormValue("unit"))
	s.settingChanged(w, r, err)
}

// SetNotifications handles POST /settings/notifications
func (s *Shell) SetNotifications(w http.ResponseWriter, r *http.Request) {
	err := s.settings.SetNotifications(r.Context(), formBool(r, "enabled"))
	s.settingChanged(w, r, err)
}

// SetLocationAccess handles POST /settings/location
func (s *Shell) SetLocationAccess(w http.ResponseWriter, r *http.Request) {
	var lat, lon *float64
	if v, err := strconv.ParseFloat(r.FormValue("lat"), 64); err == nil {
		lat = &v
	}
	if v, err := strconv.ParseFloat(r.FormValue("lon"), 64); err == nil {
		lon = &v
	}
	err := s.settings.SetLocationAccess(r.Context(), formBool(r, "enabled"), lat, lon)
	s.settingChanged(w, r, err)
}

func (s *Shell) settingChanged(w http.ResponseWriter, r *http.Request, err error) {
	var validation *models.ValidationError
	switch {
	case err == nil:
	case errors.Is(err, services.ErrInvalidTheme), errors.Is(err, services.ErrInvalidUnit), errors.As(err, &validation):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	default:
		// applied in memory, only persisting failed
		s.logger.Warn(r.Context(), "[SHELL] Setting not persisted", logging.Fields{"error": err.Error()})
	}
	s.redirect(w, r, s.Current())
}

func formBool(r *http.Request, key string) bool {
	switch strings.ToLower(r.FormValue(key)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func (s *Shell) redirect(w http.ResponseWriter, r *http.Request, p Page) {
	http.Redirect(w, r, "/"+string(p), http.StatusSeeOther)
}

func (s *Shell) render(w http.ResponseWriter, r *http.Request, p Page, status int, notice string) {
	ctx := r.Context()

	data := pageData{
		Page:     p,
		Title:    pageTitles[p],
		Settings: s.settings.Snapshot(),
		Notice:   notice,
		Themes:   []services.Theme{services.ThemeLight, services.ThemeDark},
		Units:    []units.Unit{units.Celsius, units.Fahrenheit},
	}
	for _, np := range Pages {
		data.Nav = append(data.Nav, navItem{Page: np, Label: pageTitles[np], Active: np == p})
	}

	switch p {
	case PageDashboard:
		data.Dashboard = s.dashboard.Display()
	case PageForecast:
		data.Forecast = s.forecast.Display()
		// produced by the chart package with every label escaped
		data.Chart = template.HTML(data.Forecast.Chart)
	case PageLocations:
		data.Globe = s.globe.Display()
		if svg, err := s.globe.SVG(ctx); err == nil {
			data.GlobeSVG = template.HTML(svg)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates[p].ExecuteTemplate(w, "layout", data); err != nil {
		s.logger.Error(ctx, "[SHELL_RENDER_ERROR] Failed to render page", logging.Fields{"page": p}, err)
	}
}

// RegisterRoutes registers the page routes
func (s *Shell) RegisterRoutes(router *mux.Router) {
	router.Handle("/", http.RedirectHandler("/"+string(PageDashboard), http.StatusFound)).Methods("GET")
	router.HandleFunc("/search", s.GlobalSearch).Methods("POST")

	router.HandleFunc("/locations/suggest", s.Suggest).Methods("GET")
	router.HandleFunc("/locations/globe.svg", s.GlobeSVG).Methods("GET")
	router.HandleFunc("/locations/select", s.SelectCity).Methods("POST")
	router.HandleFunc("/locations/markers/{index:[0-9]+}/select", s.SelectMarker).Methods("POST")
	router.HandleFunc("/locations/cards/{name}/select", s.SelectCard).Methods("POST")
	router.HandleFunc("/locations/panel/close", s.ClosePanel).Methods("POST")
	router.HandleFunc("/locations/camera", s.Camera).Methods("POST")

	router.HandleFunc("/settings/theme", s.SetTheme).Methods("POST")
	router.HandleFunc("/settings/theme/toggle", s.ToggleTheme).Methods("POST")
	router.HandleFunc("/settings/unit", s.SetUnit).Methods("POST")
	router.HandleFunc("/settings/notifications", s.SetNotifications).Methods("POST")
	router.HandleFunc("/settings/location", s.SetLocationAccess).Methods("POST")

	router.HandleFunc("/{page:dashboard|forecast|locations}/search", s.PageSearch).Methods("POST")
	router.HandleFunc("/{page:dashboard|locations|forecast|settings}", s.ShowPage).Methods("GET")
}

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/services"
	"weather-dashboard/internal/views"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

// HealthChecker reports whether a dependency is usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// WeatherHandler serves the JSON API
type WeatherHandler struct {
	client  views.WeatherClient
	cities  *services.CityService
	active  *services.ActiveCity
	globe   *views.GlobeView
	store   HealthChecker
	loc     *time.Location
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewWeatherHandler creates a new weather API handler
func NewWeatherHandler(
	client views.WeatherClient,
	cities *services.CityService,
	active *services.ActiveCity,
	globe *views.GlobeView,
	store HealthChecker,
	loc *time.Location,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *WeatherHandler {
	return &WeatherHandler{
		client:  client,
		cities:  cities,
		active:  active,
		globe:   globe,
		store:   store,
		loc:     loc,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// DataResponse wraps a list result
type DataResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
}

// CurrentResponse is the body of GET /api/weather/current
type CurrentResponse struct {
	City    models.City               `json:"city"`
	Weather *models.CurrentConditions `json:"weather"`
}

// ForecastResponse is the body of GET /api/weather/forecast
type ForecastResponse struct {
	City    models.City             `json:"city"`
	Entries []models.ForecastEntry  `json:"entries,omitempty"`
	Daily   []models.DailyAggregate `json:"daily,omitempty"`
}

// GetCurrent handles GET /api/weather/current
func (h *WeatherHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	city, err := h.cityFromQuery(r)
	if err != nil {
		h.metrics.RecordAPIError("validation_error", "/api/weather/current")
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	weather := h.client.CurrentConditions(ctx, city.Lat, city.Lon)
	if weather == nil {
		h.logger.Warn(ctx, "[API_GET_CURRENT] Provider returned no data", logging.Fields{
			"lat": city.Lat,
			"lon": city.Lon,
		})
		h.metrics.RecordAPIError("upstream_unavailable", "/api/weather/current")
		h.sendError(w, "weather data unavailable", http.StatusBadGateway)
		return
	}

	h.sendJSON(w, CurrentResponse{City: city, Weather: weather}, http.StatusOK)
}

// GetForecast handles GET /api/weather/forecast
func (h *WeatherHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	city, err := h.cityFromQuery(r)
	if err != nil {
		h.metrics.RecordAPIError("validation_error", "/api/weather/forecast")
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	daily := false
	if s := r.URL.Query().Get("daily"); s != "" {
		daily, err = strconv.ParseBool(s)
		if err != nil {
			h.sendError(w, "invalid daily flag, expected true or false", http.StatusBadRequest)
			return
		}
	}

	entries := h.client.Forecast(ctx, city.Lat, city.Lon)
	if entries == nil {
		h.logger.Warn(ctx, "[API_GET_FORECAST] Provider returned no data", logging.Fields{
			"lat": city.Lat,
			"lon": city.Lon,
		})
		h.metrics.RecordAPIError("upstream_unavailable", "/api/weather/forecast")
		h.sendError(w, "forecast data unavailable", http.StatusBadGateway)
		return
	}

	resp := ForecastResponse{City: city}
	if daily {
		resp.Daily = models.AggregateDaily(entries, h.loc)
	} else {
		resp.Entries = entries
	}
	h.sendJSON(w, resp, http.StatusOK)
}

// SearchCities handles GET /api/cities
func (h *WeatherHandler) SearchCities(w http.ResponseWriter, r *http.Request) {
	matches := h.cities.Suggest(r.Context(), r.URL.Query().Get("q"))
	h.sendJSON(w, DataResponse{Data: matches, Total: len(matches)}, http.StatusOK)
}

// GetGlobeScene handles GET /api/globe/scene
func (h *WeatherHandler) GetGlobeScene(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, h.globe.Frame(), http.StatusOK)
}

// HealthCheck handles GET /health
func (h *WeatherHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"store":     "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	code := http.StatusOK
	if err := h.store.HealthCheck(ctx); err != nil {
		h.logger.Error(ctx, "[HEALTH_CHECK_ERROR] Preference store unhealthy", logging.Fields{}, err)
		status["status"] = "degraded"
		status["store"] = err.Error()
		code = http.StatusServiceUnavailable
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{"status": status["status"]})
	h.sendJSON(w, status, code)
}

// cityFromQuery reads lat/lon from the query, defaulting to the active city when both are absent.
func (h *WeatherHandler) cityFromQuery(r *http.Request) (models.City, error) {
	q := r.URL.Query()
	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr == "" && lonStr == "" {
		return h.active.City(), nil
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return models.City{}, &models.ValidationError{Field: "lat", Value: latStr, Message: "invalid lat, expected a number"}
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return models.City{}, &models.ValidationError{Field: "lon", Value: lonStr, Message: "invalid lon, expected a number"}
	}

	city := models.City{Name: q.Get("name"), Country: q.Get("country"), Lat: lat, Lon: lon}
	if err := city.Validate(); err != nil {
		return models.City{}, err
	}
	return city, nil
}

// sendJSON sends a JSON response
func (h *WeatherHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	writeJSON(w, h.logger, data, statusCode)
}

// sendError sends an error response
func (h *WeatherHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, h.logger, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}, statusCode)
}

func writeJSON(w http.ResponseWriter, logger *logging.StructuredLogger, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn(context.Background(), "[API_ENCODE_ERROR] Failed to write response", logging.Fields{
			"error": err.Error(),
		})
	}
}

// RegisterRoutes registers all JSON API routes
func (h *WeatherHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/weather/current", h.GetCurrent).Methods("GET")
	router.HandleFunc("/api/weather/forecast", h.GetForecast).Methods("GET")
	router.HandleFunc("/api/cities", h.SearchCities).Methods("GET")
	router.HandleFunc("/api/globe/scene", h.GetGlobeScene).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}

package services

import (
	"context"
	"errors"
	"strings"

	"weather-dashboard/internal/models"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

// MinSuggestLength is the shortest query that produces suggestions.
const MinSuggestLength = 2

var (
	// ErrCityNotFound is returned when geocoding yields no candidate.
	ErrCityNotFound = errors.New("city not found")
	// ErrEmptyQuery is returned for a blank search.
	ErrEmptyQuery = errors.New("search query is empty")
)

// NotFoundNotice is the message shown to the user when a search has no match.
const NotFoundNotice = "City not found. Please try a different search term."

// Geocoder resolves free text into candidate cities.
type Geocoder interface {
	SearchCities(ctx context.Context, query string) []models.City
}

// CityService handles city resolution for every search box
type CityService struct {
	geocoder Geocoder
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewCityService creates a new city service
func NewCityService(geocoder Geocoder, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *CityService {
	return &CityService{
		geocoder: geocoder,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// Resolve returns the first geocoding match for query. origin labels the search box
// ("shell", "dashboard", "forecast", "locations") in logs and metrics.
func (s *CityService) Resolve(ctx context.Context, origin, query string) (models.City, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		s.metrics.RecordCitySearch(origin, "empty")
		return models.City{}, ErrEmptyQuery
	}

	candidates := s.geocoder.SearchCities(ctx, query)
	if len(candidates) == 0 {
		s.metrics.RecordCitySearch(origin, "not_found")
		s.logger.Info(ctx, "[CITY_SEARCH] No match", logging.Fields{
			"origin": origin,
			"query":  query,
		})
		return models.City{}, ErrCityNotFound
	}

	city := candidates[0]
	s.metrics.RecordCitySearch(origin, "found")
	s.logger.Info(ctx, "[CITY_SEARCH] Resolved city", logging.Fields{
		"origin":     origin,
		"query":      query,
		"city":       city.Name,
		"country":    city.Country,
		"candidates": len(candidates),
	})
	return city, nil
}

// Suggest returns up to five candidates for query, or none when it is shorter
// than MinSuggestLength.
func (s *CityService) Suggest(ctx context.Context, query string) []models.City {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSuggestLength {
		return []models.City{}
	}
	return s.geocoder.SearchCities(ctx, query)
}

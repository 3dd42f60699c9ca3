// Package views holds the display models behind each dashboard page.
//
// A view fetches through a WeatherClient, keeps the result in a display struct
// guarded by its own lock, and hands out copies for rendering.
package views

import (
	"context"
	"time"

	"weather-dashboard/internal/models"
)

//go:generate mockgen -destination=mock/mock.go -package=mock weather-dashboard/internal/views WeatherClient

// WeatherClient is the provider surface the views depend on.
type WeatherClient interface {
	CurrentConditions(ctx context.Context, lat, lon float64) *models.CurrentConditions
	Forecast(ctx context.Context, lat, lon float64) []models.ForecastEntry
	SearchCities(ctx context.Context, query string) []models.City
	IconURL(code string) string
}

// Options are shared by every view.
type Options struct {
	// Location decides calendar days and clock times. Defaults to time.Local.
	Location *time.Location
	// LegacyUnitConversion re-derives temperatures from the rendered text instead of
	// the canonical Celsius values.
	LegacyUnitConversion bool
	// Now replaces time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

package models

import (
	"fmt"
	"math"
	"time"
)

// nearTolerance is the lat/lon delta, in degrees, under which two cities are the same place.
const nearTolerance = 0.1

// City is a geocoded place. Produced by the geocoding call or by a preset list.
// Country and State are optional.
type City struct {
	Name    string  `json:"name"`
	Country string  `json:"country,omitempty"`
	State   string  `json:"state,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Near reports whether c and other are within 0.1 degree on both axes.
func (c City) Near(other City) bool {
	return math.Abs(c.Lat-other.Lat) < nearTolerance && math.Abs(c.Lon-other.Lon) < nearTolerance
}

// Label renders "name, country", or just the name when the country is unknown.
func (c City) Label() string {
	if c.Country == "" {
		return c.Name
	}
	return c.Name + ", " + c.Country
}

// Region renders "country, state" the way the suggestion list shows it.
func (c City) Region() string {
	switch {
	case c.Country != "" && c.State != "":
		return c.Country + ", " + c.State
	default:
		return c.Country
	}
}

// CoordinateLabel renders "Lat: x.xx, Lon: y.yy".
func (c City) CoordinateLabel() string {
	return fmt.Sprintf("Lat: %.2f, Lon: %.2f", c.Lat, c.Lon)
}

// Validate checks the coordinates are on the globe.
func (c City) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return &ValidationError{Field: "lat", Value: fmt.Sprint(c.Lat), Message: "latitude must be within [-90, 90]"}
	}
	if c.Lon < -180 || c.Lon > 180 {
		return &ValidationError{Field: "lon", Value: fmt.Sprint(c.Lon), Message: "longitude must be within [-180, 180]"}
	}
	return nil
}

// CurrentConditions is a point-in-time observation for one location.
// Temperatures are canonical degrees Celsius.
type CurrentConditions struct {
	CityName      string    `json:"city_name"`
	Country       string    `json:"country,omitempty"`
	Temperature   float64   `json:"temperature"`
	FeelsLike     float64   `json:"feels_like"`
	Humidity      int       `json:"humidity"`
	Pressure      int       `json:"pressure"`
	WindSpeed     float64   `json:"wind_speed"`
	Visibility    *int      `json:"visibility,omitempty"` // metres
	UVIndex       *float64  `json:"uv_index,omitempty"`
	Sunrise       time.Time `json:"sunrise"`
	Sunset        time.Time `json:"sunset"`
	ConditionCode string    `json:"condition_code"`
	Condition     string    `json:"condition"`
	Description   string    `json:"description"`
	Timestamp     time.Time `json:"timestamp"`
}

// Location renders the "name, country" label for the conditions.
func (c *CurrentConditions) Location() string {
	return City{Name: c.CityName, Country: c.Country}.Label()
}

// VisibilityKm returns visibility in kilometres, or nil when the provider omitted it.
func (c *CurrentConditions) VisibilityKm() *float64 {
	if c.Visibility == nil {
		return nil
	}
	km := float64(*c.Visibility) / 1000.0
	return &km
}

// ForecastEntry is one 3-hour step of the forecast.
type ForecastEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	Temperature   float64   `json:"temperature"`
	TempMin       float64   `json:"temp_min"`
	TempMax       float64   `json:"temp_max"`
	Humidity      int       `json:"humidity"`
	WindSpeed     float64   `json:"wind_speed"`
	ConditionCode string    `json:"condition_code"`
	Condition     string    `json:"condition"`
	Description   string    `json:"description"`
}

// DailyAggregate reduces the forecast entries of one calendar day.
// First carries the descriptive fields of the day's earliest entry.
type DailyAggregate struct {
	Date  string        `json:"date"` // YYYY-MM-DD in the aggregation location
	First ForecastEntry `json:"first"`
	Min   float64       `json:"min"`
	Max   float64       `json:"max"`
}

// Weekday renders the short weekday label ("Mon") of the aggregate's day.
func (d DailyAggregate) Weekday() string {
	t, err := time.Parse(dayKeyLayout, d.Date)
	if err != nil {
		return d.First.Timestamp.Format("Mon")
	}
	return t.Format("Mon")
}

// DefaultCity is the active city until the user picks another.
var DefaultCity = City{Name: "London", Country: "GB", Lat: 51.5074, Lon: -0.1278}

// DashboardPresets are the cities summarised on the dashboard cards.
var DashboardPresets = []City{
	{Name: "New York", Country: "US", Lat: 40.7128, Lon: -74.006},
	{Name: "Tokyo", Country: "JP", Lat: 35.6895, Lon: 139.6917},
	{Name: "Sydney", Country: "AU", Lat: -33.8688, Lon: 151.2093},
}

// GlobePresets are the cities marked on the globe before any search.
var GlobePresets = []City{
	{Name: "London", Country: "GB", Lat: 51.5074, Lon: -0.1278},
	{Name: "New York", Country: "US", Lat: 40.7128, Lon: -74.006},
	{Name: "Tokyo", Country: "JP", Lat: 35.6895, Lon: 139.6917},
	{Name: "Sydney", Country: "AU", Lat: -33.8688, Lon: 151.2093},
	{Name: "Paris", Country: "FR", Lat: 48.8566, Lon: 2.3522},
	{Name: "Cairo", Country: "EG", Lat: 30.0444, Lon: 31.2357},
	{Name: "Rio de Janeiro", Country: "BR", Lat: -22.9068, Lon: -43.1729},
	{Name: "Mumbai", Country: "IN", Lat: 19.076, Lon: 72.8777},
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}

package weatherapi

import (
	"errors"
	"fmt"
	"time"

	"weather-dashboard/internal/models"
)

// ErrMalformedPayload marks a 2xx response that does not carry the fields the dashboard needs.
var ErrMalformedPayload = errors.New("malformed provider payload")

type conditionDTO struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type mainDTO struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	TempMin   *float64 `json:"temp_min"`
	TempMax   *float64 `json:"temp_max"`
	Humidity  int      `json:"humidity"`
	Pressure  int      `json:"pressure"`
}

type windDTO struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
}

type sysDTO struct {
	Country string `json:"country"`
	Sunrise int64  `json:"sunrise"`
	Sunset  int64  `json:"sunset"`
}

// currentDTO mirrors /data/2.5/weather.
type currentDTO struct {
	Name       string         `json:"name"`
	Dt         int64          `json:"dt"`
	Visibility *int           `json:"visibility"`
	UVI        *float64       `json:"uvi"`
	Main       *mainDTO       `json:"main"`
	Wind       *windDTO       `json:"wind"`
	Weather    []conditionDTO `json:"weather"`
	Sys        sysDTO         `json:"sys"`
}

func (d *currentDTO) validate() error {
	if d.Main == nil || d.Main.Temp == nil {
		return fmt.Errorf("%w: missing main block", ErrMalformedPayload)
	}
	if len(d.Weather) == 0 {
		return fmt.Errorf("%w: missing weather condition", ErrMalformedPayload)
	}
	return nil
}

func (d *currentDTO) toModel() *models.CurrentConditions {
	cond := d.Weather[0]
	out := &models.CurrentConditions{
		CityName:      d.Name,
		Country:       d.Sys.Country,
		Temperature:   *d.Main.Temp,
		FeelsLike:     *d.Main.Temp,
		Humidity:      d.Main.Humidity,
		Pressure:      d.Main.Pressure,
		Visibility:    d.Visibility,
		UVIndex:       d.UVI,
		ConditionCode: cond.Icon,
		Condition:     cond.Main,
		Description:   cond.Description,
		Timestamp:     time.Unix(d.Dt, 0).UTC(),
	}
	if d.Main.FeelsLike != nil {
		out.FeelsLike = *d.Main.FeelsLike
	}
	if d.Wind != nil {
		out.WindSpeed = d.Wind.Speed
	}
	if d.Sys.Sunrise > 0 {
		out.Sunrise = time.Unix(d.Sys.Sunrise, 0).UTC()
	}
	if d.Sys.Sunset > 0 {
		out.Sunset = time.Unix(d.Sys.Sunset, 0).UTC()
	}
	return out
}

type forecastItemDTO struct {
	Dt      int64          `json:"dt"`
	Main    *mainDTO       `json:"main"`
	Wind    *windDTO       `json:"wind"`
	Weather []conditionDTO `json:"weather"`
}

// forecastDTO mirrors /data/2.5/forecast.
type forecastDTO struct {
	List *[]forecastItemDTO `json:"list"`
}

func (d *forecastDTO) validate() error {
	if d.List == nil {
		return fmt.Errorf("%w: missing list", ErrMalformedPayload)
	}
	for i, item := range *d.List {
		if item.Main == nil || item.Main.Temp == nil {
			return fmt.Errorf("%w: entry %d missing main block", ErrMalformedPayload, i)
		}
		if len(item.Weather) == 0 {
			return fmt.Errorf("%w: entry %d missing weather condition", ErrMalformedPayload, i)
		}
	}
	return nil
}

func (d *forecastDTO) toModel() []models.ForecastEntry {
	out := make([]models.ForecastEntry, 0, len(*d.List))
	for _, item := range *d.List {
		temp := *item.Main.Temp
		entry := models.ForecastEntry{
			Timestamp:     time.Unix(item.Dt, 0).UTC(),
			Temperature:   temp,
			TempMin:       temp,
			TempMax:       temp,
			Humidity:      item.Main.Humidity,
			ConditionCode: item.Weather[0].Icon,
			Condition:     item.Weather[0].Main,
			Description:   item.Weather[0].Description,
		}
		if item.Main.TempMin != nil {
			entry.TempMin = *item.Main.TempMin
		}
		if item.Main.TempMax != nil {
			entry.TempMax = *item.Main.TempMax
		}
		if item.Wind != nil {
			entry.WindSpeed = item.Wind.Speed
		}
		out = append(out, entry)
	}
	return out
}

// geoDTO is one element of the /geo/1.0/direct array.
type geoDTO struct {
	Name    string   `json:"name"`
	Country string   `json:"country"`
	State   string   `json:"state"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

func (d geoDTO) valid() bool {
	return d.Name != "" && d.Lat != nil && d.Lon != nil
}

func (d geoDTO) toModel() models.City {
	return models.City{
		Name:    d.Name,
		Country: d.Country,
		State:   d.State,
		Lat:     *d.Lat,
		Lon:     *d.Lon,
	}
}

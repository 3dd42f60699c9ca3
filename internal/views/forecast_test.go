package views

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/tj/assert"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/services"
	"weather-dashboard/internal/units"
)

var forecastStart = time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

func newForecast(f *fixture) *ForecastView {
	return NewForecastView(f.client, f.cities, f.active, f.logger, f.metrics, f.opts)
}

func TestForecastView_Refresh(t *testing.T) {
	f := newFixture(t)
	f.client.EXPECT().Forecast(gomock.Any(), models.DefaultCity.Lat, models.DefaultCity.Lon).
		Return(forecastEntries(forecastStart, 16))

	v := newForecast(f)
	v.Refresh(context.Background())
	d := v.Display()

	assert.True(t, d.Loaded)
	assert.Equal(t, "London", d.CityName)
	assert.Equal(t, "Lat: 51.51, Lon: -0.13", d.Coordinates)
	assert.Len(t, d.Days, 2)

	first := d.Days[0]
	assert.Equal(t, "2026-06-01", first.Date)
	assert.Equal(t, "Mon", first.Weekday)
	assert.Equal(t, "17°", first.Max.Text)
	assert.Equal(t, "10°", first.Min.Text)
	assert.Equal(t, "fas fa-cloud-sun-rain", first.IconClass)
	assert.Equal(t, "Rain", first.Condition)
	assert.Equal(t, "60%", first.Humidity)
	assert.Equal(t, "3 m/s", first.Wind)
	assert.Equal(t, "25°", d.Days[1].Max.Text)

	assert.True(t, strings.HasPrefix(d.Chart, "<svg"))
	assert.True(t, strings.Contains(d.Chart, "Max Temperature (°C)"))
	assert.True(t, strings.Contains(d.Chart, "Min Temperature (°C)"))
	assert.Equal(t, int64(1), v.ChartsLive())
}

func TestForecastView_ChartDoesNotAccumulate(t *testing.T) {
	f := newFixture(t)
	f.client.EXPECT().Forecast(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(forecastEntries(forecastStart, 40)).Times(3)

	v := newForecast(f)
	for i := 0; i < 3; i++ {
		v.Refresh(context.Background())
		assert.Equal(t, int64(1), v.ChartsLive())
	}

	v.ApplyUnit(units.Fahrenheit)
	assert.Equal(t, int64(1), v.ChartsLive())
	assert.True(t, strings.Contains(v.Display().Chart, "Max Temperature (°F)"))

	v.Close()
	assert.Equal(t, int64(0), v.ChartsLive())
	assert.Empty(t, v.Display().Chart)
}

func TestForecastView_FailedFetch(t *testing.T) {
	f := newFixture(t)
	gomock.InOrder(
		f.client.EXPECT().Forecast(gomock.Any(), gomock.Any(), gomock.Any()).Return(forecastEntries(forecastStart, 16)),
		f.client.EXPECT().Forecast(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
	)

	v := newForecast(f)
	v.Refresh(context.Background())
	before := v.Display()

	v.Refresh(context.Background())
	assert.Equal(t, before, v.Display())
	assert.Equal(t, int64(1), v.ChartsLive())
}

func TestForecastView_SearchNotFound(t *testing.T) {
	f := newFixture(t)
	f.client.EXPECT().SearchCities(gomock.Any(), "Qwxyzzy123").Return([]models.City{})

	v := newForecast(f)
	err := v.Search(context.Background(), "Qwxyzzy123")

	assert.True(t, errors.Is(err, services.ErrCityNotFound))
	assert.Equal(t, models.DefaultCity, f.active.City())
	assert.False(t, v.Display().Loaded)
}

func TestForecastView_ApplyUnit(t *testing.T) {
	cases := []struct {
		name   string
		legacy bool
		max    string
		label  string
	}{
		// 17°C is 62.6°F
		{name: "canonical", legacy: false, max: "63°", label: "Max Temperature (°F)"},
		// bare degrees carry no unit suffix, so the legacy transform leaves them alone
		{name: "legacy", legacy: true, max: "17°", label: "Max Temperature (°C)"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.opts.LegacyUnitConversion = tc.legacy
			f.client.EXPECT().Forecast(gomock.Any(), gomock.Any(), gomock.Any()).Return(forecastEntries(forecastStart, 16))

			v := newForecast(f)
			v.Refresh(context.Background())
			v.ApplyUnit(units.Fahrenheit)

			d := v.Display()
			assert.Equal(t, tc.max, d.Days[0].Max.Text)
			assert.True(t, strings.Contains(d.Chart, tc.label))
		})
	}
}

func TestForecastView_SelectionDuringWriteWins(t *testing.T) {
	f := newFixture(t)
	fetched := make(chan struct{}, 1)
	f.client.EXPECT().Forecast(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, float64, float64) []models.ForecastEntry {
			fetched <- struct{}{}
			return forecastEntries(forecastStart, 16)
		})

	v := newForecast(f)
	defer v.Close()

	v.mu.Lock()
	done := make(chan struct{})
	go func() {
		v.Refresh(context.Background())
		close(done)
	}()
	<-fetched
	f.active.Set(paris)
	v.mu.Unlock()
	<-done

	d := v.Display()
	assert.False(t, d.Loaded)
	assert.Empty(t, d.Days)
	assert.Equal(t, int64(0), v.ChartsLive())
}

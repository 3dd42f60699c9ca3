package models

import (
	"errors"
	"testing"
	"time"

	"github.com/tj/assert"
)

func TestCity_Near(t *testing.T) {
	london := City{Name: "London", Lat: 51.5074, Lon: -0.1278}

	tests := []struct {
		name  string
		other City
		want  bool
	}{
		{"identical", london, true},
		{"within tolerance", City{Lat: 51.55, Lon: -0.08}, true},
		{"latitude off by exactly 0.1", City{Lat: 51.6074, Lon: -0.1278}, false},
		{"longitude too far", City{Lat: 51.5074, Lon: 0.0}, false},
		{"other hemisphere", City{Lat: -51.5074, Lon: -0.1278}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, london.Near(tt.other))
			assert.Equal(t, tt.want, tt.other.Near(london))
		})
	}
}

func TestCity_Labels(t *testing.T) {
	c := City{Name: "Springfield", Country: "US", State: "Illinois", Lat: 39.7817, Lon: -89.6501}

	assert.Equal(t, "Springfield, US", c.Label())
	assert.Equal(t, "US, Illinois", c.Region())
	assert.Equal(t, "Lat: 39.78, Lon: -89.65", c.CoordinateLabel())

	bare := City{Name: "Current Location"}
	assert.Equal(t, "Current Location", bare.Label())
	assert.Equal(t, "", bare.Region())
}

func TestCity_Validate(t *testing.T) {
	tests := []struct {
		name      string
		city      City
		wantField string
	}{
		{"valid", City{Lat: 10, Lon: 10}, ""},
		{"latitude too high", City{Lat: 90.5, Lon: 0}, "lat"},
		{"longitude too low", City{Lat: 0, Lon: -181}, "lon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.city.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			assert.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantField, vErr.Field)
			assert.False(t, vErr.IsTransient())
		})
	}
}

func TestCurrentConditions_VisibilityKm(t *testing.T) {
	c := &CurrentConditions{CityName: "London", Country: "GB"}
	assert.Nil(t, c.VisibilityKm())
	assert.Equal(t, "London, GB", c.Location())

	v := 9500
	c.Visibility = &v
	assert.Equal(t, 9.5, *c.VisibilityKm())
}

func TestAggregateDaily(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2024, 3, d, h, 0, 0, 0, time.UTC) }
	entry := func(ts time.Time, temp float64, cond string) ForecastEntry {
		return ForecastEntry{Timestamp: ts, Temperature: temp, Condition: cond}
	}

	tests := []struct {
		name        string
		entries     []ForecastEntry
		checkValues func(*testing.T, []DailyAggregate)
	}{
		{
			name:    "empty forecast",
			entries: nil,
			checkValues: func(t *testing.T, got []DailyAggregate) {
				assert.Len(t, got, 0)
			},
		},
		{
			name: "min and max over one day keep first entry",
			entries: []ForecastEntry{
				entry(day(1, 0), 7, "Clouds"),
				entry(day(1, 3), 4.5, "Rain"),
				entry(day(1, 12), 13.2, "Clear"),
			},
			checkValues: func(t *testing.T, got []DailyAggregate) {
				assert.Len(t, got, 1)
				assert.Equal(t, "2024-03-01", got[0].Date)
				assert.Equal(t, 4.5, got[0].Min)
				assert.Equal(t, 13.2, got[0].Max)
				assert.Equal(t, "Clouds", got[0].First.Condition)
				assert.Equal(t, "Fri", got[0].Weekday())
			},
		},
		{
			name: "first occurrence order is preserved",
			entries: []ForecastEntry{
				entry(day(2, 6), 10, "Clear"),
				entry(day(1, 6), 5, "Snow"),
				entry(day(2, 9), 12, "Clear"),
			},
			checkValues: func(t *testing.T, got []DailyAggregate) {
				assert.Len(t, got, 2)
				assert.Equal(t, "2024-03-02", got[0].Date)
				assert.Equal(t, "2024-03-01", got[1].Date)
				assert.Equal(t, 12.0, got[0].Max)
			},
		},
		{
			name: "truncated to seven days",
			entries: func() []ForecastEntry {
				var es []ForecastEntry
				for d := 1; d <= 10; d++ {
					for h := 0; h < 24; h += 3 {
						es = append(es, entry(day(d, h), float64(d*10+h), "Clear"))
					}
				}
				return es
			}(),
			checkValues: func(t *testing.T, got []DailyAggregate) {
				assert.Len(t, got, MaxDailyAggregates)
				assert.Equal(t, "2024-03-07", got[6].Date)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregateDaily(tt.entries, time.UTC)
			tt.checkValues(t, got)

			seen := map[string]bool{}
			for _, agg := range got {
				assert.False(t, seen[agg.Date], "duplicate day %s", agg.Date)
				seen[agg.Date] = true
				assert.True(t, agg.Min <= agg.Max)
			}
		})
	}
}

func TestAggregateDaily_UsesLocationForDayBoundary(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	entries := []ForecastEntry{
		{Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), Temperature: 1},
		{Timestamp: time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC), Temperature: 2},
	}

	assert.Len(t, AggregateDaily(entries, time.UTC), 1)

	// 18:00 UTC is already the next day in Tokyo.
	inTokyo := AggregateDaily(entries, tokyo)
	assert.Len(t, inTokyo, 2)
	assert.Equal(t, "2024-03-02", inTokyo[1].Date)
}

func TestNextEntries(t *testing.T) {
	entries := make([]ForecastEntry, 40)
	assert.Len(t, NextEntries(entries, 6), 6)
	assert.Len(t, NextEntries(entries[:3], 6), 3)
	assert.Len(t, NextEntries(entries, -1), 0)
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tj/assert"

	"weather-dashboard/internal/models"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

type stubGeocoder struct {
	results map[string][]models.City
	calls   []string
}

func (g *stubGeocoder) SearchCities(_ context.Context, query string) []models.City {
	g.calls = append(g.calls, query)
	if r, ok := g.results[query]; ok {
		return r
	}
	return []models.City{}
}

func newCityService(g Geocoder) *CityService {
	return NewCityService(g, logging.NewNopLogger(), metrics.NewTestCollector())
}

func TestCityService_Resolve(t *testing.T) {
	geo := &stubGeocoder{results: map[string][]models.City{
		"Paris": {
			{Name: "Paris", Country: "FR", Lat: 48.8589, Lon: 2.32},
			{Name: "Paris", Country: "US", Lat: 33.6609, Lon: -95.5555},
		},
	}}
	s := newCityService(geo)

	cases := []struct {
		name    string
		query   string
		want    string
		wantErr error
	}{
		{name: "first match wins", query: "  Paris ", want: "FR"},
		{name: "no match", query: "Qwxyzzy123", wantErr: ErrCityNotFound},
		{name: "blank", query: "   ", wantErr: ErrEmptyQuery},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			city, err := s.Resolve(context.Background(), "shell", tc.query)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, city.Country)
		})
	}

	// blank queries never reach the provider
	assert.Equal(t, []string{"Paris", "Qwxyzzy123"}, geo.calls)
}

func TestCityService_Suggest(t *testing.T) {
	geo := &stubGeocoder{results: map[string][]models.City{
		"To": {{Name: "Tokyo"}, {Name: "Toronto"}},
	}}
	s := newCityService(geo)

	assert.Len(t, s.Suggest(context.Background(), "T"), 0)
	assert.NotNil(t, s.Suggest(context.Background(), "T"))
	assert.Len(t, s.Suggest(context.Background(), "To"), 2)
	assert.Equal(t, []string{"To"}, geo.calls)
}

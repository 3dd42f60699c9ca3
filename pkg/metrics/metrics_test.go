package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/tj/assert"
)

func TestNewCollector_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("dash", reg)

	c.RecordAPIRequest("/health", "GET", "200")
	c.GlobeLoopActive.Set(1)

	families, err := reg.Gather()
	assert.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["dash_api_requests_total"])
	assert.True(t, names["dash_globe_loop_active"])

	// a second collector on the same registry collides
	assert.Panics(t, func() { NewCollector("dash", reg) })
}

func TestNewTestCollector_IsIsolated(t *testing.T) {
	// private registries never collide
	a := NewTestCollector()
	b := NewTestCollector()

	a.RecordCitySearch("shell", "ok")
	assert.Equal(t, 1.0, testutil.ToFloat64(a.CitySearchesTotal.WithLabelValues("shell", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CitySearchesTotal.WithLabelValues("shell", "ok")))
}

func TestCollector_RecordViewRefresh(t *testing.T) {
	cases := []struct {
		result    string
		wantStale float64
	}{
		{"ok", 0},
		{"no_data", 0},
		{"stale", 1},
	}

	for _, tc := range cases {
		t.Run(tc.result, func(t *testing.T) {
			c := NewTestCollector()
			c.RecordViewRefresh("dashboard", tc.result)

			assert.Equal(t, 1.0, testutil.ToFloat64(c.ViewRefreshTotal.WithLabelValues("dashboard", tc.result)))
			assert.Equal(t, tc.wantStale, testutil.ToFloat64(c.StaleResponsesTotal.WithLabelValues("dashboard")))
		})
	}
}

func TestCollector_UpdateDBConnectionPool(t *testing.T) {
	c := NewTestCollector()
	c.UpdateDBConnectionPool(2, 3, 5)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.DBConnectionPool.WithLabelValues("in_use")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.DBConnectionPool.WithLabelValues("idle")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.DBConnectionPool.WithLabelValues("total")))
}

func TestTimer_ObserveDuration(t *testing.T) {
	c := NewTestCollector()
	timer := c.NewTimer(c.UpstreamRequestDuration.WithLabelValues("weather"))
	time.Sleep(time.Millisecond)

	assert.True(t, timer.ObserveDuration() >= time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(c.UpstreamRequestDuration))

	// a nil observer only measures
	assert.True(t, (&Timer{start: time.Now()}).ObserveDuration() >= 0)
}

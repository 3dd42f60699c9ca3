// Package chart builds the forecast line chart and tracks live chart instances.
package chart

import (
	"errors"
	"fmt"
	"html"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrDestroyed is returned when rendering a chart after Destroy.
var ErrDestroyed = errors.New("chart has been destroyed")

// Series is one line of the chart.
type Series struct {
	Label  string
	Color  string
	Fill   bool
	Values []float64
}

// Tracker counts charts that have been built but not destroyed.
type Tracker struct {
	live  atomic.Int64
	gauge prometheus.Gauge
}

// NewTracker returns a tracker that mirrors its count into gauge when non-nil.
func NewTracker(gauge prometheus.Gauge) *Tracker {
	return &Tracker{gauge: gauge}
}

// Live returns the number of charts not yet destroyed.
func (t *Tracker) Live() int64 {
	return t.live.Load()
}

func (t *Tracker) add(delta int64) {
	t.live.Add(delta)
	if t.gauge != nil {
		t.gauge.Add(float64(delta))
	}
}

// Chart is a line chart over a shared set of x labels.
type Chart struct {
	tracker *Tracker
	labels  []string
	series  []Series

	once      sync.Once
	destroyed atomic.Bool
}

// New builds a chart. Every chart must be destroyed before it is replaced.
func (t *Tracker) New(labels []string, series ...Series) *Chart {
	c := &Chart{
		tracker: t,
		labels:  append([]string(nil), labels...),
		series:  append([]Series(nil), series...),
	}
	t.add(1)
	return c
}

// Destroy releases the chart. Calling it more than once is a no-op.
func (c *Chart) Destroy() {
	if c == nil {
		return
	}
	c.once.Do(func() {
		c.destroyed.Store(true)
		c.tracker.add(-1)
	})
}

// Destroyed reports whether Destroy has been called.
func (c *Chart) Destroyed() bool {
	return c.destroyed.Load()
}

// Labels returns the x-axis labels.
func (c *Chart) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Series returns the chart's lines.
func (c *Chart) Series() []Series {
	return append([]Series(nil), c.series...)
}

const (
	padLeft   = 40.0
	padRight  = 16.0
	padTop    = 28.0
	padBottom = 28.0
)

// SVG renders the chart as an inline SVG document of the given size.
func (c *Chart) SVG(width, height int) (string, error) {
	if c.Destroyed() {
		return "", ErrDestroyed
	}
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("invalid chart size %dx%d", width, height)
	}

	lo, hi := c.bounds()
	plotW := float64(width) - padLeft - padRight
	plotH := float64(height) - padTop - padBottom

	x := func(i int) float64 {
		if len(c.labels) <= 1 {
			return padLeft + plotW/2
		}
		return padLeft + plotW*float64(i)/float64(len(c.labels)-1)
	}
	y := func(v float64) float64 {
		return padTop + plotH*(hi-v)/(hi-lo)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" class="temperature-chart" viewBox="0 0 %d %d" width="%d" height="%d">`, width, height, width, height)

	// horizontal grid with value ticks
	for i := 0; i <= 4; i++ {
		v := lo + (hi-lo)*float64(i)/4
		gy := y(v)
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="rgba(255,255,255,0.1)"/>`, padLeft, gy, float64(width)-padRight, gy)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-size="10" text-anchor="end" fill="rgba(255,255,255,0.7)">%.0f</text>`, padLeft-6, gy+3, v)
	}

	for i, label := range c.labels {
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-size="11" text-anchor="middle" fill="rgba(255,255,255,0.7)">%s</text>`,
			x(i), float64(height)-8, html.EscapeString(label))
	}

	for si, s := range c.series {
		if len(s.Values) == 0 {
			continue
		}
		points := make([]string, 0, len(s.Values))
		for i, v := range s.Values {
			points = append(points, fmt.Sprintf("%.1f,%.1f", x(i), y(v)))
		}
		if s.Fill {
			area := append([]string{fmt.Sprintf("%.1f,%.1f", x(0), padTop+plotH)}, points...)
			area = append(area, fmt.Sprintf("%.1f,%.1f", x(len(s.Values)-1), padTop+plotH))
			fmt.Fprintf(&b, `<polygon points="%s" fill="%s" fill-opacity="0.25"/>`, strings.Join(area, " "), s.Color)
		}
		fmt.Fprintf(&b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`, strings.Join(points, " "), s.Color)

		// legend
		lx := padLeft + float64(si)*160
		fmt.Fprintf(&b, `<rect x="%.1f" y="8" width="12" height="12" fill="%s"/>`, lx, s.Color)
		fmt.Fprintf(&b, `<text x="%.1f" y="18" font-size="11" fill="rgba(255,255,255,0.85)">%s</text>`, lx+16, html.EscapeString(s.Label))
	}

	b.WriteString(`</svg>`)
	return b.String(), nil
}

// bounds returns the padded value range across all series.
func (c *Chart) bounds() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range c.series {
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	lo, hi = math.Floor(lo-2), math.Ceil(hi+2)
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

package globe

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tj/assert"

	"weather-dashboard/internal/models"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

func approx(t *testing.T, want, got float64) {
	t.Helper()
	assert.True(t, math.Abs(want-got) < 1e-9, "want %v, got %v", want, got)
}

func TestProject(t *testing.T) {
	cases := []struct {
		name     string
		lat, lon float64
		want     Vec3
	}{
		{"north pole", 90, 0, Vec3{0, 5, 0}},
		{"south pole", -90, 0, Vec3{0, -5, 0}},
		{"prime meridian", 0, 0, Vec3{5, 0, 0}},
		{"antimeridian", 0, 180, Vec3{-5, 0, 0}},
		{"ninety east", 0, 90, Vec3{0, 0, -5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Project(tc.lat, tc.lon, 5)
			approx(t, tc.want.X, got.X)
			approx(t, tc.want.Y, got.Y)
			approx(t, tc.want.Z, got.Z)
		})
	}
}

func TestProject_RadiusProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		lat := rng.Float64()*180 - 90
		lon := rng.Float64()*360 - 180
		for _, r := range []float64{SphereRadius, MarkerRadius, FocusRadius} {
			p := Project(lat, lon, r)
			assert.True(t, math.Abs(p.Length()-r) < 1e-9)
		}
	}
}

func TestEaseOutCubic(t *testing.T) {
	approx(t, 0, EaseOutCubic(0))
	approx(t, 0.875, EaseOutCubic(0.5))
	approx(t, 1, EaseOutCubic(1))
	approx(t, 1, EaseOutCubic(3))
}

func TestTween_At(t *testing.T) {
	start := time.Unix(0, 0)
	tw := &Tween{From: Vec3{Z: 15}, To: Vec3{X: 15}, Start: start, Duration: time.Second}

	p, done := tw.At(start.Add(500 * time.Millisecond))
	assert.False(t, done)
	approx(t, 15*0.875, p.X)

	p, done = tw.At(start.Add(2 * time.Second))
	assert.True(t, done)
	assert.Equal(t, Vec3{X: 15}, p)
}

func TestControls_ZoomIsClamped(t *testing.T) {
	c := NewControls()
	cam := Camera{Position: Vec3{Z: 15}}

	c.Zoom(10)
	c.Update(&cam)
	approx(t, DefaultMaxDistance, cam.Distance())

	c.Zoom(0.01)
	c.Update(&cam)
	approx(t, DefaultMinDistance, cam.Distance())
}

func TestControls_DragIsDamped(t *testing.T) {
	c := NewControls()
	cam := Camera{Position: Vec3{Z: 15}}

	c.Drag(100, 0)
	c.Update(&cam)
	first := math.Atan2(cam.Position.X, cam.Position.Z)
	// one frame applies only the damping share of the 0.5 rad drag
	approx(t, -0.5*DefaultDamping, first)
	assert.False(t, c.Settled())

	for i := 0; i < 2000; i++ {
		c.Update(&cam)
	}
	assert.True(t, c.Settled())
	approx(t, 15, cam.Distance())
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestScene(clock *fakeClock) *Scene {
	return NewScene(WithRand(rand.New(rand.NewSource(7))), WithClock(clock.Now))
}

func TestScene_AddMarkerDeduplicates(t *testing.T) {
	s := newTestScene(&fakeClock{t: time.Unix(0, 0)})

	idx, added := s.AddMarker(models.City{Name: "London", Lat: 51.5074, Lon: -0.1278}, nil)
	assert.True(t, added)
	assert.Equal(t, 0, idx)

	idx, added = s.AddMarker(models.City{Name: "City of London", Lat: 51.5156, Lon: -0.0919}, &models.CurrentConditions{})
	assert.False(t, added)
	assert.Equal(t, 0, idx)

	m, ok := s.Marker(0)
	assert.True(t, ok)
	assert.Equal(t, "London", m.City.Name)
	assert.Equal(t, colorWithData, m.Color)
	approx(t, MarkerRadius, m.Position.Length())

	_, added = s.AddMarker(models.City{Name: "Paris", Lat: 48.8566, Lon: 2.3522}, nil)
	assert.True(t, added)
	assert.Equal(t, 2, s.MarkerCount())

	_, ok = s.Marker(5)
	assert.False(t, ok)
}

func TestScene_MarkerPulseIsDesynchronised(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	s := newTestScene(clock)
	for _, c := range models.GlobePresets {
		s.AddMarker(c, nil)
	}

	clock.Advance(1234 * time.Millisecond)
	f := s.Step()

	distinct := map[float64]bool{}
	for _, m := range f.Markers {
		assert.True(t, m.Speed >= MinPulseSpeed && m.Speed < MaxPulseSpeed)
		assert.True(t, m.Scale >= 1-PulseAmplitude && m.Scale <= 1+PulseAmplitude)
		approx(t, 1+math.Sin(1234*m.Speed+m.Phase)*PulseAmplitude, m.Scale)
		distinct[m.Scale] = true
	}
	assert.True(t, len(distinct) > 1)
}

func TestScene_StepRotatesUntilDragged(t *testing.T) {
	s := newTestScene(&fakeClock{t: time.Unix(0, 0)})

	s.Step()
	f := s.Step()
	approx(t, 2*RotationPerFrame, f.Rotation)

	s.Drag(10, 0)
	f = s.Step()
	assert.False(t, f.AutoRotate)
	approx(t, 2*RotationPerFrame, f.Rotation)
}

func TestScene_FocusOnTweensCamera(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	s := newTestScene(clock)

	s.FocusOn(35.6895, 139.6917)
	assert.True(t, s.Snapshot().Focusing)

	clock.Advance(FocusDuration)
	f := s.Step()
	assert.False(t, f.Focusing)

	want := Project(35.6895, 139.6917, FocusRadius)
	approx(t, want.X, f.Camera.Position.X)
	approx(t, want.Y, f.Camera.Position.Y)
	approx(t, want.Z, f.Camera.Position.Z)
}

func TestSVGRenderer(t *testing.T) {
	_, err := NewSVGRenderer(0, 400)
	assert.Error(t, err)

	r, err := NewSVGRenderer(400, 300)
	assert.NoError(t, err)

	_, err = r.Last()
	assert.True(t, errors.Is(err, ErrNoFrame))

	s := newTestScene(&fakeClock{t: time.Unix(0, 0)})
	// lon -90 projects onto +Z, facing the default camera
	s.AddMarker(models.City{Name: "Front", Lat: 0, Lon: -90}, nil)
	s.AddMarker(models.City{Name: "Back", Lat: 0, Lon: 90}, nil)

	assert.NoError(t, r.Render(s.Step()))
	svg, err := r.Last()
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(svg), "<svg"))
	assert.True(t, strings.Contains(string(svg), "<title>Front</title>"))
	assert.False(t, strings.Contains(string(svg), "<title>Back</title>"))

	assert.Error(t, r.Render(Frame{Camera: Camera{Position: Vec3{Z: 1}}}))

	assert.NoError(t, r.Close())
	assert.True(t, errors.Is(r.Render(s.Step()), ErrRendererClosed))
}

type scriptedRenderer struct {
	mu    sync.Mutex
	fail  func(call int) bool
	calls int
}

func (r *scriptedRenderer) Render(Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.fail(r.calls) {
		return errors.New("render failed")
	}
	return nil
}

func (r *scriptedRenderer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *scriptedRenderer) Last() ([]byte, error) { return nil, ErrNoFrame }
func (r *scriptedRenderer) Close() error          { return nil }

func newTestLoop(r Renderer) *Loop {
	return NewLoop(NewScene(), r, time.Millisecond, logging.NewNopLogger(), metrics.NewTestCollector())
}

func TestLoop_TerminatesOnRecurringRenderError(t *testing.T) {
	r := &scriptedRenderer{fail: func(int) bool { return true }}
	l := newTestLoop(r)

	assert.True(t, l.Start(context.Background()))

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop kept running after repeated render errors")
	}
	assert.False(t, l.Running())
	assert.Equal(t, MaxConsecutiveRenderErrors, r.Calls())
}

func TestLoop_SurvivesIsolatedErrors(t *testing.T) {
	// every third frame fails; failures never come back to back
	r := &scriptedRenderer{fail: func(call int) bool { return call%3 == 0 }}
	l := newTestLoop(r)

	assert.True(t, l.Start(context.Background()))
	assert.False(t, l.Start(context.Background()))

	deadline := time.After(2 * time.Second)
	for r.Calls() < 10 {
		select {
		case <-deadline:
			t.Fatal("loop stopped early")
		case <-time.After(time.Millisecond):
		}
	}
	assert.True(t, l.Running())

	l.Stop()
	assert.False(t, l.Running())

	// restartable after Stop
	assert.True(t, l.Start(context.Background()))
	l.Stop()
}

func TestLoop_StopWithoutStart(t *testing.T) {
	l := newTestLoop(&scriptedRenderer{fail: func(int) bool { return false }})
	l.Stop()
	assert.False(t, l.Running())
}

package globe

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"weather-dashboard/internal/models"
)

// Scene tuning.
const (
	RotationPerFrame = 0.005
	PulseAmplitude   = 0.3
	MinPulseSpeed    = 0.01
	MaxPulseSpeed    = 0.03

	colorWithData    = "#ff6b6b"
	colorWithoutData = "#4ecdc4"
)

// Marker is a city pinned to the globe.
type Marker struct {
	City     models.City               `json:"city"`
	Weather  *models.CurrentConditions `json:"weather,omitempty"`
	Position Vec3                      `json:"position"`
	Color    string                    `json:"color"`
	Phase    float64                   `json:"phase"`
	Speed    float64                   `json:"speed"`
	Scale    float64                   `json:"scale"`
}

// PulseScale returns 1 + sin(t*speed + phase)*0.3, t in milliseconds.
func (m *Marker) PulseScale(t float64) float64 {
	return 1 + math.Sin(t*m.Speed+m.Phase)*PulseAmplitude
}

// Frame is an immutable snapshot of the scene handed to a Renderer.
type Frame struct {
	Rotation   float64  `json:"rotation"`
	AutoRotate bool     `json:"auto_rotate"`
	Camera     Camera   `json:"camera"`
	Focusing   bool     `json:"focusing"`
	Markers    []Marker `json:"markers"`
}

// Scene owns the sphere rotation, the camera and the markers.
type Scene struct {
	mu sync.Mutex

	rotation   float64
	autoRotate bool
	camera     Camera
	controls   *Controls
	tween      *Tween
	markers    []*Marker

	rng   *rand.Rand
	start time.Time
	now   func() time.Time
}

// SceneOption customises a Scene.
type SceneOption func(*Scene)

// WithRand fixes the source of marker pulse randomness.
func WithRand(r *rand.Rand) SceneOption {
	return func(s *Scene) { s.rng = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SceneOption {
	return func(s *Scene) { s.now = now }
}

// NewScene returns an auto-rotating scene with the camera at (0, 0, 15).
func NewScene(opts ...SceneOption) *Scene {
	s := &Scene{
		autoRotate: true,
		camera:     Camera{Position: Vec3{Z: FocusRadius}, Aspect: 1},
		controls:   NewControls(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s.start = s.now()
	return s
}

// AddMarker pins city unless an existing marker is Near it. It returns the
// index of the new or existing marker and whether a marker was added.
func (s *Scene) AddMarker(city models.City, weather *models.CurrentConditions) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.markers {
		if m.City.Near(city) {
			if m.Weather == nil && weather != nil {
				m.Weather = weather
				m.Color = colorWithData
			}
			return i, false
		}
	}

	m := &Marker{
		City:     city,
		Weather:  weather,
		Position: Project(city.Lat, city.Lon, MarkerRadius),
		Color:    colorWithoutData,
		Phase:    s.rng.Float64() * 2 * math.Pi,
		Speed:    MinPulseSpeed + s.rng.Float64()*(MaxPulseSpeed-MinPulseSpeed),
		Scale:    1,
	}
	if weather != nil {
		m.Color = colorWithData
	}
	s.markers = append(s.markers, m)
	return len(s.markers) - 1, true
}

// Marker returns a copy of marker i.
func (s *Scene) Marker(i int) (Marker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.markers) {
		return Marker{}, false
	}
	return *s.markers[i], true
}

// MarkerCount returns the number of markers.
func (s *Scene) MarkerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.markers)
}

// FocusOn starts a camera pan onto lat/lon at FocusRadius.
func (s *Scene) FocusOn(lat, lon float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tween = &Tween{
		From:     s.camera.Position,
		To:       Project(lat, lon, FocusRadius),
		Start:    s.now(),
		Duration: FocusDuration,
	}
}

// Drag applies a user drag: auto-rotation stops and any camera pan is abandoned.
func (s *Scene) Drag(dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoRotate = false
	s.tween = nil
	s.controls.Drag(dx, dy)
}

// Zoom dollies the camera; the distance stays within the controls' range.
func (s *Scene) Zoom(factor float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls.Zoom(factor)
}

// Resize updates the camera aspect ratio.
func (s *Scene) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera.Aspect = float64(width) / float64(height)
}

// SetAutoRotate turns the idle rotation on or off.
func (s *Scene) SetAutoRotate(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoRotate = on
}

// Step advances the scene by one frame and returns the resulting snapshot.
func (s *Scene) Step() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.autoRotate {
		s.rotation = math.Mod(s.rotation+RotationPerFrame, 2*math.Pi)
	}

	if s.tween != nil {
		pos, done := s.tween.At(now)
		s.camera.Position = pos
		if done {
			s.tween = nil
		}
	} else {
		s.controls.Update(&s.camera)
	}

	t := float64(now.Sub(s.start).Milliseconds())
	for _, m := range s.markers {
		m.Scale = m.PulseScale(t)
	}

	return s.snapshot()
}

// Snapshot returns the current state without advancing it.
func (s *Scene) Snapshot() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Scene) snapshot() Frame {
	markers := make([]Marker, len(s.markers))
	for i, m := range s.markers {
		markers[i] = *m
	}
	return Frame{
		Rotation:   s.rotation,
		AutoRotate: s.autoRotate,
		Camera:     s.camera,
		Focusing:   s.tween != nil,
		Markers:    markers,
	}
}

// Clear removes every marker and resets the camera.
func (s *Scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = nil
	s.tween = nil
	s.autoRotate = true
	s.camera.Position = Vec3{Z: FocusRadius}
}

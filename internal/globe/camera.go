package globe

import (
	"math"
	"time"
)

// Orbit control defaults.
const (
	DefaultDamping     = 0.05
	DefaultMinDistance = 8.0
	DefaultMaxDistance = 25.0

	// FocusDuration is how long the camera takes to pan onto a selected city.
	FocusDuration = time.Second

	dragSpeed = 0.005 // radians per pixel
	minPolar  = 1e-6
)

// Camera looks at the origin from Position.
type Camera struct {
	Position Vec3    `json:"position"`
	Aspect   float64 `json:"aspect"`
}

// Distance is the camera's distance from the origin.
func (c Camera) Distance() float64 {
	return c.Position.Length()
}

// Controls is an orbit controller with damped rotation and clamped zoom.
//
// Drag and Zoom queue deltas; Update applies a fraction of the queued rotation
// each frame and decays the remainder by the damping factor.
type Controls struct {
	Damping     float64
	MinDistance float64
	MaxDistance float64

	deltaAzimuth float64
	deltaPolar   float64
	scale        float64
}

// NewControls returns controls with the default damping and zoom range.
func NewControls() *Controls {
	return &Controls{
		Damping:     DefaultDamping,
		MinDistance: DefaultMinDistance,
		MaxDistance: DefaultMaxDistance,
		scale:       1,
	}
}

// Drag queues a rotation from a pointer drag of dx/dy pixels.
func (c *Controls) Drag(dx, dy float64) {
	c.deltaAzimuth -= dx * dragSpeed
	c.deltaPolar -= dy * dragSpeed
}

// Zoom queues a dolly; factors above 1 move the camera away.
func (c *Controls) Zoom(factor float64) {
	if factor > 0 {
		c.scale *= factor
	}
}

// Settled reports whether no rotation is pending.
func (c *Controls) Settled() bool {
	return math.Abs(c.deltaAzimuth) < 1e-9 && math.Abs(c.deltaPolar) < 1e-9
}

// Update moves cam by the damped share of the queued deltas and clamps the distance.
func (c *Controls) Update(cam *Camera) {
	r := cam.Position.Length()
	if r == 0 {
		r = FocusRadius
	}
	polar := math.Acos(clamp(cam.Position.Y/r, -1, 1))
	azimuth := math.Atan2(cam.Position.X, cam.Position.Z)

	azimuth += c.deltaAzimuth * c.Damping
	polar += c.deltaPolar * c.Damping
	polar = clamp(polar, minPolar, math.Pi-minPolar)

	r = clamp(r*c.scale, c.MinDistance, c.MaxDistance)

	cam.Position = Vec3{
		X: r * math.Sin(polar) * math.Sin(azimuth),
		Y: r * math.Cos(polar),
		Z: r * math.Sin(polar) * math.Cos(azimuth),
	}

	c.deltaAzimuth *= 1 - c.Damping
	c.deltaPolar *= 1 - c.Damping
	c.scale = 1
}

// EaseOutCubic maps linear progress p in [0,1] onto 1-(1-p)^3.
func EaseOutCubic(p float64) float64 {
	p = clamp(p, 0, 1)
	return 1 - math.Pow(1-p, 3)
}

// Tween pans the camera between two positions over a fixed duration.
type Tween struct {
	From     Vec3
	To       Vec3
	Start    time.Time
	Duration time.Duration
}

// At returns the eased position at now and whether the tween has finished.
func (t *Tween) At(now time.Time) (Vec3, bool) {
	if t.Duration <= 0 {
		return t.To, true
	}
	p := float64(now.Sub(t.Start)) / float64(t.Duration)
	if p >= 1 {
		return t.To, true
	}
	return Lerp(t.From, t.To, EaseOutCubic(p)), false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

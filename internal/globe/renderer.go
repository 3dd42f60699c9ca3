package globe

import (
	"errors"
	"fmt"
	"html"
	"math"
	"strings"
	"sync"
)

var (
	// ErrRendererClosed is returned by Render after Close.
	ErrRendererClosed = errors.New("renderer closed")
	// ErrNoFrame is returned by Last before anything has been rendered.
	ErrNoFrame = errors.New("no frame rendered yet")
)

// Renderer turns scene frames into an image.
type Renderer interface {
	Render(f Frame) error
	Last() ([]byte, error)
	Close() error
}

// SVGRenderer draws an orthographic view of the globe as SVG.
type SVGRenderer struct {
	width  int
	height int

	mu     sync.RWMutex
	last   []byte
	closed bool
}

// NewSVGRenderer creates a renderer for a width x height viewport.
func NewSVGRenderer(width, height int) (*SVGRenderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid viewport %dx%d", width, height)
	}
	return &SVGRenderer{width: width, height: height}, nil
}

// Render draws f and keeps the result for Last.
func (r *SVGRenderer) Render(f Frame) error {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return ErrRendererClosed
	}

	dist := f.Camera.Distance()
	if dist <= SphereRadius || math.IsNaN(dist) {
		return fmt.Errorf("camera inside globe (distance %.2f)", dist)
	}

	v := newView(f.Camera, r.width, r.height)
	var b strings.Builder

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" class="globe" viewBox="0 0 %d %d" width="%d" height="%d">`,
		r.width, r.height, r.width, r.height)
	b.WriteString(`<defs><radialGradient id="globe-fill" cx="40%" cy="35%" r="65%">` +
		`<stop offset="0%" stop-color="#87CEEB"/><stop offset="55%" stop-color="#228B22"/>` +
		`<stop offset="100%" stop-color="#4169E1"/></radialGradient></defs>`)
	fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="url(#globe-fill)" fill-opacity="0.95"/>`,
		v.cx, v.cy, SphereRadius*v.scale)

	// graticule: meridians turn with the sphere, parallels are fixed
	for lon := -180.0; lon < 180; lon += 30 {
		var pts []Vec3
		for lat := -90.0; lat <= 90; lat += 5 {
			pts = append(pts, Project(lat, lon, SphereRadius).RotateY(f.Rotation))
		}
		v.polyline(&b, pts)
	}
	for lat := -60.0; lat <= 60; lat += 30 {
		var pts []Vec3
		for lon := -180.0; lon <= 180; lon += 5 {
			pts = append(pts, Project(lat, lon, SphereRadius).RotateY(f.Rotation))
		}
		v.polyline(&b, pts)
	}

	for i, m := range f.Markers {
		if !v.facing(m.Position) {
			continue
		}
		x, y := v.screen(m.Position)
		fmt.Fprintf(&b, `<circle class="marker" data-index="%d" cx="%.1f" cy="%.1f" r="%.1f" fill="%s" fill-opacity="0.9"><title>%s</title></circle>`,
			i, x, y, 0.12*v.scale*m.Scale, m.Color, html.EscapeString(m.City.Name))
	}

	b.WriteString(`</svg>`)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRendererClosed
	}
	r.last = []byte(b.String())
	return nil
}

// Last returns the most recent frame.
func (r *SVGRenderer) Last() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrRendererClosed
	}
	if r.last == nil {
		return nil, ErrNoFrame
	}
	return append([]byte(nil), r.last...), nil
}

// Close releases the renderer; further renders fail.
func (r *SVGRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.last = nil
	return nil
}

// view is the camera basis for one frame.
type view struct {
	forward, right, up Vec3
	cx, cy, scale      float64
}

func newView(cam Camera, width, height int) view {
	forward := cam.Position.Scale(-1).Normalize()
	worldUp := Vec3{Y: 1}
	right := forward.Cross(worldUp)
	if right.Length() < 1e-9 {
		// looking straight down the Y axis
		right = Vec3{X: 1}
	}
	right = right.Normalize()
	up := right.Cross(forward).Normalize()

	half := math.Min(float64(width), float64(height)) / 2
	// the sphere fills 90% of the viewport at the default distance
	scale := half * 0.9 / SphereRadius * (FocusRadius / cam.Distance())

	return view{
		forward: forward,
		right:   right,
		up:      up,
		cx:      float64(width) / 2,
		cy:      float64(height) / 2,
		scale:   scale,
	}
}

func (v view) screen(p Vec3) (float64, float64) {
	return v.cx + p.Dot(v.right)*v.scale, v.cy - p.Dot(v.up)*v.scale
}

func (v view) facing(p Vec3) bool {
	return p.Dot(v.forward) < 0
}

// polyline draws the camera-facing runs of pts.
func (v view) polyline(b *strings.Builder, pts []Vec3) {
	var run []string
	flush := func() {
		if len(run) > 1 {
			fmt.Fprintf(b, `<polyline points="%s" fill="none" stroke="rgba(255,255,255,0.35)" stroke-width="0.6"/>`, strings.Join(run, " "))
		}
		run = run[:0]
	}
	for _, p := range pts {
		if !v.facing(p) {
			flush()
			continue
		}
		x, y := v.screen(p)
		run = append(run, fmt.Sprintf("%.1f,%.1f", x, y))
	}
	flush()
}

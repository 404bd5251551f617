// Package profile builds closed 2D outlines for extrusion. An Outline
// accumulates vertices through MoveTo/LineTo/SplineTo calls and reports
// the first construction error through Err, so call sites can draw a
// whole profile and check once.
package profile

import (
	"fmt"
	"math"

	"github.com/timcash/code-cad/pkg/kernel"
)

// splineSegments is the number of line segments each spline span is
// sampled into.
const splineSegments = 16

// coincident is the distance below which two outline vertices are
// considered the same point.
const coincident = 1e-9

// Outline is a 2D closed profile under construction. The zero value is
// not usable; call NewOutline.
type Outline struct {
	verts  []kernel.Vec2
	closed bool
	err    error
}

// NewOutline returns an empty outline.
func NewOutline() *Outline {
	return &Outline{}
}

func (o *Outline) setErr(format string, args ...any) {
	if o.err == nil {
		o.err = fmt.Errorf(format, args...)
	}
}

// Err returns the first error encountered while building the outline.
func (o *Outline) Err() error {
	return o.err
}

// Vertices returns a copy of the accumulated outline vertices.
func (o *Outline) Vertices() []kernel.Vec2 {
	out := make([]kernel.Vec2, len(o.verts))
	copy(out, o.verts)
	return out
}

// append adds a vertex, dropping consecutive duplicates.
func (o *Outline) append(p kernel.Vec2) {
	if n := len(o.verts); n > 0 {
		last := o.verts[n-1]
		if math.Hypot(p.X-last.X, p.Y-last.Y) < coincident {
			return
		}
	}
	o.verts = append(o.verts, p)
}

// MoveTo starts the outline at (x, y). It must be the first drawing call.
func (o *Outline) MoveTo(x, y float64) {
	if o.err != nil {
		return
	}
	if o.closed {
		o.setErr("profile: MoveTo after Close")
		return
	}
	if len(o.verts) > 0 {
		o.setErr("profile: MoveTo after drawing started")
		return
	}
	o.verts = append(o.verts, kernel.Vec2{X: x, Y: y})
}

// LineTo draws a straight segment from the current point to (x, y).
func (o *Outline) LineTo(x, y float64) {
	if o.err != nil {
		return
	}
	if o.closed {
		o.setErr("profile: LineTo after Close")
		return
	}
	if len(o.verts) == 0 {
		o.setErr("profile: LineTo before MoveTo")
		return
	}
	o.append(kernel.Vec2{X: x, Y: y})
}

// SplineTo draws a smooth curve from the current point through each of the
// given points in order. Tangents constrain the curve direction at the
// knots: nil leaves all tangents estimated, a pair sets the start and end
// directions, and a slice of len(points)+1 sets every knot (current point
// first). Tangent magnitudes are ignored; only directions matter.
func (o *Outline) SplineTo(points []kernel.Vec2, tangents []kernel.Vec2) {
	if o.err != nil {
		return
	}
	if o.closed {
		o.setErr("profile: SplineTo after Close")
		return
	}
	if len(o.verts) == 0 {
		o.setErr("profile: SplineTo before MoveTo")
		return
	}
	if len(points) == 0 {
		o.setErr("profile: SplineTo needs at least one point")
		return
	}

	// Knots are the current point plus the targets.
	knots := make([]kernel.Vec2, 0, len(points)+1)
	knots = append(knots, o.verts[len(o.verts)-1])
	knots = append(knots, points...)

	switch len(tangents) {
	case 0, 2, len(knots):
	default:
		o.setErr("profile: SplineTo got %d tangents, want 0, 2 or %d", len(tangents), len(knots))
		return
	}

	samples, err := sampleSpline(knots, tangents)
	if err != nil {
		o.setErr("profile: %v", err)
		return
	}
	for _, p := range samples {
		o.append(p)
	}
}

// Close finishes the outline. A coincident final vertex is merged into
// the start. Closing with fewer than 3 vertices is an error.
func (o *Outline) Close() {
	if o.err != nil {
		return
	}
	if o.closed {
		o.setErr("profile: Close called twice")
		return
	}
	if n := len(o.verts); n > 1 {
		first, last := o.verts[0], o.verts[n-1]
		if math.Hypot(first.X-last.X, first.Y-last.Y) < coincident {
			o.verts = o.verts[:n-1]
		}
	}
	if len(o.verts) < 3 {
		o.setErr("profile: Close with %d vertices, need at least 3", len(o.verts))
		return
	}
	o.closed = true
}

// sampleSpline evaluates a C1 cubic Hermite curve through the knots and
// returns the sampled points after the first knot. Knot tangents not pinned
// by the caller use the Catmull-Rom estimate (half the vector between the
// neighboring knots).
func sampleSpline(knots, tangents []kernel.Vec2) ([]kernel.Vec2, error) {
	n := len(knots)

	// Estimated tangent at every knot.
	m := make([]kernel.Vec2, n)
	for i := range knots {
		switch i {
		case 0:
			m[i] = kernel.Vec2{X: knots[1].X - knots[0].X, Y: knots[1].Y - knots[0].Y}
		case n - 1:
			m[i] = kernel.Vec2{X: knots[n-1].X - knots[n-2].X, Y: knots[n-1].Y - knots[n-2].Y}
		default:
			m[i] = kernel.Vec2{X: (knots[i+1].X - knots[i-1].X) / 2, Y: (knots[i+1].Y - knots[i-1].Y) / 2}
		}
	}

	// Pin caller-provided directions, rescaled to the local chord length
	// so unit direction vectors produce natural curvature.
	pin := func(i int, dir kernel.Vec2) error {
		length := math.Hypot(dir.X, dir.Y)
		if length < coincident {
			return fmt.Errorf("zero-length tangent at knot %d", i)
		}
		scale := math.Hypot(m[i].X, m[i].Y) / length
		if scale < coincident {
			scale = 1
		}
		m[i] = kernel.Vec2{X: dir.X * scale, Y: dir.Y * scale}
		return nil
	}
	switch len(tangents) {
	case 2:
		if err := pin(0, tangents[0]); err != nil {
			return nil, err
		}
		if err := pin(n-1, tangents[1]); err != nil {
			return nil, err
		}
	case n:
		for i, dir := range tangents {
			if err := pin(i, dir); err != nil {
				return nil, err
			}
		}
	}

	var out []kernel.Vec2
	for i := 0; i < n-1; i++ {
		p0, p1 := knots[i], knots[i+1]
		m0, m1 := m[i], m[i+1]
		for s := 1; s <= splineSegments; s++ {
			t := float64(s) / float64(splineSegments)
			t2 := t * t
			t3 := t2 * t
			h00 := 2*t3 - 3*t2 + 1
			h10 := t3 - 2*t2 + t
			h01 := -2*t3 + 3*t2
			h11 := t3 - t2
			out = append(out, kernel.Vec2{
				X: h00*p0.X + h10*m0.X + h01*p1.X + h11*m1.X,
				Y: h00*p0.Y + h10*m0.Y + h01*p1.Y + h11*m1.Y,
			})
		}
	}
	return out, nil
}

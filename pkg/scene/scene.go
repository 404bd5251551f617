// Package scene groups named, colored, placed parts and meshes them for
// viewing and export. A Scene is the in-memory form of an assembly: each
// part owns a kernel solid plus display metadata, and Mesh produces one
// triangle mesh per part with its placement baked in.
package scene

import (
	"fmt"

	"github.com/timcash/code-cad/pkg/kernel"
)

// Color is a display color with components in [0, 1]. The zero value
// means "no color assigned"; such parts pick up a palette color when
// the scene is meshed.
type Color struct {
	R, G, B, A float64
}

// RGB returns an opaque color.
func RGB(r, g, b float64) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// FromRGBA8 converts 8-bit color channels to a Color.
func FromRGBA8(r, g, b, a uint8) Color {
	return Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: float64(a) / 255,
	}
}

// RGBA8 returns the color as 8-bit channels.
func (c Color) RGBA8() (r, g, b, a uint8) {
	clamp := func(v float64) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	return clamp(c.R), clamp(c.G), clamp(c.B), clamp(c.A)
}

// IsZero reports whether the color is unset.
func (c Color) IsZero() bool {
	return c == Color{}
}

// Scaled returns the color with its RGB channels multiplied by k,
// alpha unchanged. Used for shading.
func (c Color) Scaled(k float64) Color {
	return Color{R: c.R * k, G: c.G * k, B: c.B * k, A: c.A}
}

// Basic colors.
var (
	Red   = RGB(1, 0, 0)
	Green = RGB(0, 1, 0)
	Blue  = RGB(0, 0, 1)
)

// defaultPalette assigns distinct colors to parts that were added
// without one.
var defaultPalette = []Color{
	{R: 0.290, G: 0.565, B: 0.851, A: 1}, // #4A90D9
	{R: 0.902, G: 0.494, B: 0.133, A: 1}, // #E67E22
	{R: 0.180, G: 0.800, B: 0.443, A: 1}, // #2ECC71
	{R: 0.608, G: 0.349, B: 0.714, A: 1}, // #9B59B6
	{R: 0.906, G: 0.298, B: 0.235, A: 1}, // #E74C3C
	{R: 0.102, G: 0.737, B: 0.612, A: 1}, // #1ABC9C
	{R: 0.953, G: 0.612, B: 0.071, A: 1}, // #F39C12
	{R: 0.204, G: 0.596, B: 0.859, A: 1}, // #3498DB
)

// Location places a part in the assembly.
type Location struct {
	X, Y, Z float64
}

// IsZero reports whether the location is the origin.
func (l Location) IsZero() bool {
	return l == Location{}
}

// Part is one named solid in a scene.
type Part struct {
	Name     string
	Solid    kernel.Solid
	Color    Color
	Location Location
}

// Scene is an ordered collection of uniquely named parts.
type Scene struct {
	name  string
	parts []*Part
	index map[string]*Part
}

// New returns an empty scene.
func New(name string) *Scene {
	return &Scene{
		name:  name,
		index: make(map[string]*Part),
	}
}

// Name returns the scene name.
func (s *Scene) Name() string {
	return s.name
}

// Len returns the number of parts.
func (s *Scene) Len() int {
	return len(s.parts)
}

// Parts returns the parts in insertion order.
func (s *Scene) Parts() []*Part {
	out := make([]*Part, len(s.parts))
	copy(out, s.parts)
	return out
}

// Lookup finds a part by name.
func (s *Scene) Lookup(name string) (*Part, bool) {
	p, ok := s.index[name]
	return p, ok
}

// Add appends a part. Parts without a name are auto-named part-N;
// duplicate names are rejected.
func (s *Scene) Add(p *Part) error {
	if p == nil || p.Solid == nil {
		return fmt.Errorf("scene: part has no solid")
	}
	if p.Name == "" {
		p.Name = fmt.Sprintf("part-%d", len(s.parts)+1)
	}
	if _, exists := s.index[p.Name]; exists {
		return fmt.Errorf("scene: part name %q already defined", p.Name)
	}
	s.parts = append(s.parts, p)
	s.index[p.Name] = p
	return nil
}

// PartMesh is a meshed part with its display metadata.
type PartMesh struct {
	Name  string
	Color Color
	Mesh  *kernel.Mesh
}

// Mesh triangulates every part with the given kernel, baking each part's
// location into its solid first. Parts added without a color receive one
// from the default palette in insertion order.
func (s *Scene) Mesh(k kernel.Kernel, cells int) ([]*PartMesh, error) {
	out := make([]*PartMesh, 0, len(s.parts))
	for i, p := range s.parts {
		solid := p.Solid
		if !p.Location.IsZero() {
			placed, err := k.Translate(solid, p.Location.X, p.Location.Y, p.Location.Z)
			if err != nil {
				return nil, fmt.Errorf("scene: place part %q: %w", p.Name, err)
			}
			solid = placed
		}

		mesh, err := k.Mesh(solid, cells)
		if err != nil {
			return nil, fmt.Errorf("scene: mesh part %q: %w", p.Name, err)
		}

		color := p.Color
		if color.IsZero() {
			color = defaultPalette[i%len(defaultPalette)]
		}

		out = append(out, &PartMesh{
			Name:  p.Name,
			Color: color,
			Mesh:  mesh,
		})
	}
	return out, nil
}

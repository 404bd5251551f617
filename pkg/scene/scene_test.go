package scene

import (
	"strings"
	"testing"

	"github.com/timcash/code-cad/pkg/kernel"
)

// fakeSolid records the translation applied to it.
type fakeSolid struct {
	dx, dy, dz float64
}

func (s *fakeSolid) BoundingBox() (min, max [3]float64) {
	return [3]float64{s.dx, s.dy, s.dz}, [3]float64{s.dx + 1, s.dy + 1, s.dz + 1}
}

// fakeKernel implements just enough of kernel.Kernel for scene tests.
type fakeKernel struct {
	meshCalls int
}

func (k *fakeKernel) Box(x, y, z float64) (kernel.Solid, error)      { return &fakeSolid{}, nil }
func (k *fakeKernel) Cylinder(h, r float64) (kernel.Solid, error)    { return &fakeSolid{}, nil }
func (k *fakeKernel) Sphere(r float64) (kernel.Solid, error)         { return &fakeSolid{}, nil }
func (k *fakeKernel) Union(a, b kernel.Solid) (kernel.Solid, error)  { return a, nil }
func (k *fakeKernel) Difference(a, b kernel.Solid) (kernel.Solid, error) {
	return a, nil
}
func (k *fakeKernel) Intersect(a, b kernel.Solid) (kernel.Solid, error) { return a, nil }
func (k *fakeKernel) Extrude(outline []kernel.Vec2, h float64) (kernel.Solid, error) {
	return &fakeSolid{}, nil
}
func (k *fakeKernel) Rotate(s kernel.Solid, x, y, z float64) (kernel.Solid, error) {
	return s, nil
}
func (k *fakeKernel) Shell(s kernel.Solid, t float64) (kernel.Solid, error) {
	return s, nil
}

func (k *fakeKernel) Translate(s kernel.Solid, x, y, z float64) (kernel.Solid, error) {
	fs := s.(*fakeSolid)
	return &fakeSolid{dx: fs.dx + x, dy: fs.dy + y, dz: fs.dz + z}, nil
}

func (k *fakeKernel) Mesh(s kernel.Solid, cells int) (*kernel.Mesh, error) {
	k.meshCalls++
	fs := s.(*fakeSolid)
	// One triangle placed at the solid's offset, enough to see the
	// baked location in the output.
	return &kernel.Mesh{
		Vertices: []float32{
			float32(fs.dx), float32(fs.dy), float32(fs.dz),
			float32(fs.dx) + 1, float32(fs.dy), float32(fs.dz),
			float32(fs.dx), float32(fs.dy) + 1, float32(fs.dz),
		},
		Indices: []uint32{0, 1, 2},
	}, nil
}

func TestAddAndLookup(t *testing.T) {
	s := New("assembly")
	if s.Name() != "assembly" {
		t.Errorf("Name() = %q, want %q", s.Name(), "assembly")
	}

	if err := s.Add(&Part{Name: "box", Solid: &fakeSolid{}}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	p, ok := s.Lookup("box")
	if !ok {
		t.Fatal("Lookup(box) not found")
	}
	if p.Name != "box" {
		t.Errorf("part name = %q, want %q", p.Name, "box")
	}
	if _, ok := s.Lookup("missing"); ok {
		t.Error("Lookup(missing) found a part")
	}
}

func TestAddDuplicateName(t *testing.T) {
	s := New("assembly")
	if err := s.Add(&Part{Name: "box", Solid: &fakeSolid{}}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	err := s.Add(&Part{Name: "box", Solid: &fakeSolid{}})
	if err == nil {
		t.Fatal("Add() with duplicate name: error = nil, want non-nil")
	}
	if !strings.Contains(err.Error(), "already defined") {
		t.Errorf("Add() error = %q, want it to mention already defined", err)
	}
}

func TestAddAutoNames(t *testing.T) {
	s := New("assembly")
	if err := s.Add(&Part{Solid: &fakeSolid{}}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := s.Add(&Part{Solid: &fakeSolid{}}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	parts := s.Parts()
	if parts[0].Name != "part-1" || parts[1].Name != "part-2" {
		t.Errorf("auto names = %q, %q, want part-1, part-2", parts[0].Name, parts[1].Name)
	}
}

func TestAddRejectsNilSolid(t *testing.T) {
	s := New("assembly")
	if err := s.Add(&Part{Name: "ghost"}); err == nil {
		t.Error("Add() with nil solid: error = nil, want non-nil")
	}
}

func TestMeshBakesLocation(t *testing.T) {
	s := New("assembly")
	if err := s.Add(&Part{Name: "moved", Solid: &fakeSolid{}, Location: Location{X: 20, Y: 0, Z: 0}}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	k := &fakeKernel{}
	meshes, err := s.Mesh(k, 0)
	if err != nil {
		t.Fatalf("Mesh() error = %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(meshes))
	}
	if k.meshCalls != 1 {
		t.Errorf("kernel meshed %d times, want 1", k.meshCalls)
	}

	min, _ := meshes[0].Mesh.BoundingBox()
	if min[0] != 20 {
		t.Errorf("meshed part min X = %f, want 20 (location baked in)", min[0])
	}
}

func TestMeshAssignsPaletteColors(t *testing.T) {
	s := New("assembly")
	if err := s.Add(&Part{Name: "plain", Solid: &fakeSolid{}}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := s.Add(&Part{Name: "red", Solid: &fakeSolid{}, Color: Red}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	meshes, err := s.Mesh(&fakeKernel{}, 0)
	if err != nil {
		t.Fatalf("Mesh() error = %v", err)
	}

	if meshes[0].Color.IsZero() {
		t.Error("uncolored part got no palette color")
	}
	if meshes[0].Color != defaultPalette[0] {
		t.Errorf("uncolored part color = %v, want palette[0] %v", meshes[0].Color, defaultPalette[0])
	}
	if meshes[1].Color != Red {
		t.Errorf("colored part color = %v, want %v", meshes[1].Color, Red)
	}
}

func TestColorRGBA8(t *testing.T) {
	tests := []struct {
		name    string
		color   Color
		r, g, b uint8
		a       uint8
	}{
		{"red", Red, 255, 0, 0, 255},
		{"half gray", Color{R: 0.5, G: 0.5, B: 0.5, A: 1}, 128, 128, 128, 255},
		{"clamped", Color{R: 2, G: -1, B: 0, A: 1}, 255, 0, 0, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := tt.color.RGBA8()
			if r != tt.r || g != tt.g || b != tt.b || a != tt.a {
				t.Errorf("RGBA8() = (%d, %d, %d, %d), want (%d, %d, %d, %d)",
					r, g, b, a, tt.r, tt.g, tt.b, tt.a)
			}
		})
	}
}

func TestColorRoundTrip(t *testing.T) {
	c := Color{R: 0.25, G: 0.5, B: 0.75, A: 1}
	r, g, b, a := c.RGBA8()
	back := FromRGBA8(r, g, b, a)

	const tol = 1.0 / 255
	if diff := back.R - c.R; diff > tol || diff < -tol {
		t.Errorf("R round trip: %f -> %f", c.R, back.R)
	}
	if diff := back.G - c.G; diff > tol || diff < -tol {
		t.Errorf("G round trip: %f -> %f", c.G, back.G)
	}
	if diff := back.B - c.B; diff > tol || diff < -tol {
		t.Errorf("B round trip: %f -> %f", c.B, back.B)
	}
}

func TestColorScaled(t *testing.T) {
	c := Color{R: 1, G: 0.5, B: 0.2, A: 1}
	got := c.Scaled(0.5)
	want := Color{R: 0.5, G: 0.25, B: 0.1, A: 1}
	if got != want {
		t.Errorf("Scaled(0.5) = %v, want %v", got, want)
	}
	if got.A != c.A {
		t.Errorf("Scaled changed alpha: %f -> %f", c.A, got.A)
	}
}

// Package exchange saves and loads models as 3MF files. The file format
// itself is handled entirely by github.com/hpinc/go3mf; this package maps
// between that object model and kernel meshes: triangle soups are welded
// into indexed objects on save, and build items are flattened back into
// per-part meshes with their transforms baked in on load.
package exchange

import (
	"fmt"
	"image/color"
	"log/slog"

	"github.com/hpinc/go3mf"

	"github.com/timcash/code-cad/pkg/kernel"
	"github.com/timcash/code-cad/pkg/scene"
)

// weldTolerance merges coincident vertices when indexing a triangle
// soup for writing.
const weldTolerance = 1e-5

// Part is one named mesh in an exchange model. A zero Color means the
// part carries no material.
type Part struct {
	Name  string
	Mesh  *kernel.Mesh
	Color scene.Color
}

// Model is the content of an exchange file.
type Model struct {
	Parts []*Part
}

// FromScene wraps meshed scene parts for saving.
func FromScene(parts []*scene.PartMesh) *Model {
	m := &Model{}
	for _, p := range parts {
		m.Parts = append(m.Parts, &Part{
			Name:  p.Name,
			Mesh:  p.Mesh,
			Color: p.Color,
		})
	}
	return m
}

// Save writes the model to a 3MF file. Each part becomes one object and
// one build item; colored parts share a base-materials group. Parts whose
// meshes are empty are skipped.
func Save(path string, m *Model) error {
	if m == nil || len(m.Parts) == 0 {
		return fmt.Errorf("exchange: save %s: model has no parts", path)
	}

	doc := &go3mf.Model{Units: go3mf.UnitMillimeter}

	// One material per colored part, all in a single group.
	var materials *go3mf.BaseMaterials
	materialIndex := make(map[string]uint32)
	for _, p := range m.Parts {
		if p.Color.IsZero() {
			continue
		}
		if materials == nil {
			materials = &go3mf.BaseMaterials{ID: 1}
			doc.Resources.Assets = append(doc.Resources.Assets, materials)
		}
		r, g, b, a := p.Color.RGBA8()
		materialIndex[p.Name] = uint32(len(materials.Materials))
		materials.Materials = append(materials.Materials, go3mf.Base{
			Name:  p.Name,
			Color: color.RGBA{R: r, G: g, B: b, A: a},
		})
	}

	nextID := uint32(1)
	if materials != nil {
		nextID = 2
	}

	wrote := 0
	for _, p := range m.Parts {
		if p.Mesh == nil || p.Mesh.IsEmpty() {
			slog.Warn("skipping part with empty mesh", "part", p.Name)
			continue
		}
		welded := p.Mesh.Weld(weldTolerance)
		if welded.TriangleCount() == 0 {
			slog.Warn("skipping part with empty mesh", "part", p.Name)
			continue
		}

		obj := &go3mf.Object{
			ID:   nextID,
			Name: p.Name,
			Mesh: &go3mf.Mesh{},
		}
		nextID++

		for i := 0; i < welded.VertexCount(); i++ {
			v := welded.Vertex(i)
			obj.Mesh.Vertices.Vertex = append(obj.Mesh.Vertices.Vertex,
				go3mf.Point3D{v[0], v[1], v[2]})
		}
		for t := 0; t < welded.TriangleCount(); t++ {
			tri := welded.Triangle(t)
			obj.Mesh.Triangles.Triangle = append(obj.Mesh.Triangles.Triangle,
				go3mf.Triangle{V1: tri[0], V2: tri[1], V3: tri[2]})
		}

		if idx, colored := materialIndex[p.Name]; colored {
			obj.PID = materials.ID
			obj.PIndex = idx
		}

		doc.Resources.Objects = append(doc.Resources.Objects, obj)
		doc.Build.Items = append(doc.Build.Items, &go3mf.Item{
			ObjectID:  obj.ID,
			Transform: go3mf.Identity(),
		})
		wrote++
	}

	if wrote == 0 {
		return fmt.Errorf("exchange: save %s: every part mesh was empty", path)
	}

	w, err := go3mf.CreateWriter(path)
	if err != nil {
		return fmt.Errorf("exchange: save %s: %w", path, err)
	}
	if err := w.Encode(doc); err != nil {
		w.Close()
		return fmt.Errorf("exchange: save %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("exchange: save %s: %w", path, err)
	}
	return nil
}

// Load reads a 3MF file and flattens its build items into parts. Item and
// component transforms are baked into the returned meshes. Files without
// build items fall back to loading every mesh object directly.
func Load(path string) (*Model, error) {
	r, err := go3mf.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("exchange: load %s: %w", path, err)
	}
	defer r.Close()

	var doc go3mf.Model
	if err := r.Decode(&doc); err != nil {
		return nil, fmt.Errorf("exchange: load %s: %w", path, err)
	}

	objects := make(map[uint32]*go3mf.Object, len(doc.Resources.Objects))
	for _, obj := range doc.Resources.Objects {
		objects[obj.ID] = obj
	}

	colors := loadMaterials(&doc)

	m := &Model{}
	if len(doc.Build.Items) > 0 {
		for _, item := range doc.Build.Items {
			obj, ok := objects[item.ObjectID]
			if !ok {
				return nil, fmt.Errorf("exchange: load %s: build item references missing object %d", path, item.ObjectID)
			}
			if err := collectObject(objects, obj, normalize(item.Transform), colors, m); err != nil {
				return nil, fmt.Errorf("exchange: load %s: %w", path, err)
			}
		}
	} else {
		for _, obj := range doc.Resources.Objects {
			if obj.Mesh == nil {
				continue
			}
			if err := collectObject(objects, obj, go3mf.Identity(), colors, m); err != nil {
				return nil, fmt.Errorf("exchange: load %s: %w", path, err)
			}
		}
	}

	return m, nil
}

// loadMaterials indexes base-material colors by (group ID, index).
func loadMaterials(doc *go3mf.Model) map[[2]uint32]scene.Color {
	colors := make(map[[2]uint32]scene.Color)
	for _, asset := range doc.Resources.Assets {
		group, ok := asset.(*go3mf.BaseMaterials)
		if !ok {
			continue
		}
		for i, base := range group.Materials {
			c := base.Color
			colors[[2]uint32{group.ID, uint32(i)}] = scene.FromRGBA8(c.R, c.G, c.B, c.A)
		}
	}
	return colors
}

// collectObject appends an object's mesh (and, recursively, its
// components' meshes) to the model with the accumulated transform baked in.
func collectObject(objects map[uint32]*go3mf.Object, obj *go3mf.Object, xf go3mf.Matrix, colors map[[2]uint32]scene.Color, m *Model) error {
	if obj.Mesh != nil {
		mesh := convertMesh(obj.Mesh)
		if xf != go3mf.Identity() {
			applyMatrix(mesh, xf)
		}
		mesh.ComputeNormals()

		name := obj.Name
		if name == "" {
			name = fmt.Sprintf("object-%d", obj.ID)
		}
		part := &Part{Name: name, Mesh: mesh}
		if obj.PID != 0 {
			part.Color = colors[[2]uint32{obj.PID, obj.PIndex}]
		}
		m.Parts = append(m.Parts, part)
	}

	if obj.Components != nil {
		for _, comp := range obj.Components.Component {
			child, ok := objects[comp.ObjectID]
			if !ok {
				return fmt.Errorf("component references missing object %d", comp.ObjectID)
			}
			if err := collectObject(objects, child, mul4(normalize(comp.Transform), xf), colors, m); err != nil {
				return err
			}
		}
	}
	return nil
}

// convertMesh copies a go3mf mesh into the kernel layout.
func convertMesh(src *go3mf.Mesh) *kernel.Mesh {
	mesh := &kernel.Mesh{
		Vertices: make([]float32, 0, len(src.Vertices.Vertex)*3),
		Indices:  make([]uint32, 0, len(src.Triangles.Triangle)*3),
	}
	for _, v := range src.Vertices.Vertex {
		mesh.Vertices = append(mesh.Vertices, v[0], v[1], v[2])
	}
	for _, t := range src.Triangles.Triangle {
		mesh.Indices = append(mesh.Indices, t.V1, t.V2, t.V3)
	}
	return mesh
}

// normalize maps the zero matrix (absent transform attribute) to identity.
func normalize(m go3mf.Matrix) go3mf.Matrix {
	if m == (go3mf.Matrix{}) {
		return go3mf.Identity()
	}
	return m
}

// mul4 multiplies two row-major 4x4 matrices (a then b, row vector
// convention).
func mul4(a, b go3mf.Matrix) go3mf.Matrix {
	var out go3mf.Matrix
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[4*r+k] * b[4*k+c]
			}
			out[4*r+c] = sum
		}
	}
	return out
}

// applyMatrix transforms every vertex in place (row vector convention,
// translation in the fourth row).
func applyMatrix(mesh *kernel.Mesh, m go3mf.Matrix) {
	for i := 0; i < mesh.VertexCount(); i++ {
		x := mesh.Vertices[i*3+0]
		y := mesh.Vertices[i*3+1]
		z := mesh.Vertices[i*3+2]
		mesh.Vertices[i*3+0] = x*m[0] + y*m[4] + z*m[8] + m[12]
		mesh.Vertices[i*3+1] = x*m[1] + y*m[5] + z*m[9] + m[13]
		mesh.Vertices[i*3+2] = x*m[2] + y*m[6] + z*m[10] + m[14]
	}
}

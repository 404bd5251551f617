package kernel

import "math"

// Mesh is a triangle mesh suitable for rendering and export.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 // [nx0,ny0,nz0, ...]
	Indices  []uint32  // [i0,i1,i2, ...] triangles
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i int) [3]float32 {
	return [3]float32{m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]}
}

// Triangle returns the vertex indices of triangle t.
func (m *Mesh) Triangle(t int) [3]uint32 {
	return [3]uint32{m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]}
}

// BoundingBox returns the axis-aligned bounds of the mesh vertices.
// An empty mesh yields the zero box.
func (m *Mesh) BoundingBox() (min, max [3]float64) {
	if m.IsEmpty() {
		return min, max
	}
	for i := 0; i < 3; i++ {
		min[i] = float64(m.Vertices[i])
		max[i] = float64(m.Vertices[i])
	}
	for v := 1; v < m.VertexCount(); v++ {
		for i := 0; i < 3; i++ {
			c := float64(m.Vertices[v*3+i])
			if c < min[i] {
				min[i] = c
			}
			if c > max[i] {
				max[i] = c
			}
		}
	}
	return min, max
}

// Translate shifts every vertex by (x, y, z) in place.
func (m *Mesh) Translate(x, y, z float64) {
	for v := 0; v < m.VertexCount(); v++ {
		m.Vertices[v*3+0] += float32(x)
		m.Vertices[v*3+1] += float32(y)
		m.Vertices[v*3+2] += float32(z)
	}
}

// Weld returns a copy of the mesh with vertices closer than tolerance
// merged, so triangles that meet at a corner share one vertex index.
// Triangles collapsed by the merge are dropped and normals recomputed.
func (m *Mesh) Weld(tolerance float64) *Mesh {
	if tolerance <= 0 {
		tolerance = 1e-9
	}
	type cell struct{ x, y, z int64 }
	quantize := func(v [3]float32) cell {
		return cell{
			x: int64(math.Round(float64(v[0]) / tolerance)),
			y: int64(math.Round(float64(v[1]) / tolerance)),
			z: int64(math.Round(float64(v[2]) / tolerance)),
		}
	}

	lookup := make(map[cell]uint32)
	remap := make([]uint32, m.VertexCount())
	var vertices []float32

	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		key := quantize(v)
		idx, seen := lookup[key]
		if !seen {
			idx = uint32(len(vertices) / 3)
			lookup[key] = idx
			vertices = append(vertices, v[0], v[1], v[2])
		}
		remap[i] = idx
	}

	var indices []uint32
	for t := 0; t < m.TriangleCount(); t++ {
		a := remap[m.Indices[t*3+0]]
		b := remap[m.Indices[t*3+1]]
		c := remap[m.Indices[t*3+2]]
		if a == b || b == c || a == c {
			continue
		}
		indices = append(indices, a, b, c)
	}

	welded := &Mesh{Vertices: vertices, Indices: indices}
	welded.ComputeNormals()
	return welded
}

// Merge concatenates meshes into one, offsetting triangle indices.
func Merge(meshes ...*Mesh) *Mesh {
	out := &Mesh{}
	for _, m := range meshes {
		if m == nil || m.IsEmpty() {
			continue
		}
		offset := uint32(out.VertexCount())
		out.Vertices = append(out.Vertices, m.Vertices...)
		out.Normals = append(out.Normals, m.Normals...)
		for _, idx := range m.Indices {
			out.Indices = append(out.Indices, idx+offset)
		}
	}
	// Inputs without normals would leave the arrays misaligned.
	if len(out.Normals) != len(out.Vertices) {
		out.ComputeNormals()
	}
	return out
}

// ComputeNormals regenerates per-vertex normals by accumulating the face
// normals of all triangles incident on each vertex. Backends that cannot
// supply normals (and loaders of normal-free exchange files) call this.
func (m *Mesh) ComputeNormals() {
	numVerts := m.VertexCount()
	normals := make([]float32, numVerts*3)

	numTris := m.TriangleCount()
	for t := 0; t < numTris; t++ {
		i0 := m.Indices[t*3+0]
		i1 := m.Indices[t*3+1]
		i2 := m.Indices[t*3+2]

		// Triangle vertex positions.
		ax, ay, az := float64(m.Vertices[i0*3]), float64(m.Vertices[i0*3+1]), float64(m.Vertices[i0*3+2])
		bx, by, bz := float64(m.Vertices[i1*3]), float64(m.Vertices[i1*3+1]), float64(m.Vertices[i1*3+2])
		cx, cy, cz := float64(m.Vertices[i2*3]), float64(m.Vertices[i2*3+1]), float64(m.Vertices[i2*3+2])

		// Edge vectors.
		e1x, e1y, e1z := bx-ax, by-ay, bz-az
		e2x, e2y, e2z := cx-ax, cy-ay, cz-az

		// Cross product (unnormalized face normal).
		nx := float32(e1y*e2z - e1z*e2y)
		ny := float32(e1z*e2x - e1x*e2z)
		nz := float32(e1x*e2y - e1y*e2x)

		// Accumulate into each vertex of this triangle.
		for _, idx := range []uint32{i0, i1, i2} {
			normals[idx*3+0] += nx
			normals[idx*3+1] += ny
			normals[idx*3+2] += nz
		}
	}

	// Normalize.
	for i := 0; i < numVerts; i++ {
		nx := float64(normals[i*3+0])
		ny := float64(normals[i*3+1])
		nz := float64(normals[i*3+2])
		length := math.Sqrt(nx*nx + ny*ny + nz*nz)
		if length > 1e-12 {
			normals[i*3+0] = float32(nx / length)
			normals[i*3+1] = float32(ny / length)
			normals[i*3+2] = float32(nz / length)
		}
	}

	m.Normals = normals
}

// Package inspect recovers body-level structure from triangle meshes:
// how many separate solids a mesh contains, the face/edge/vertex counts
// of each, and their bounding boxes. Connected surface shells are found
// with a union-find over welded vertices; a shell enclosing negative
// volume is a cavity and belongs to the solid that surrounds it.
package inspect

import (
	"sort"

	"github.com/timcash/code-cad/pkg/kernel"
)

// weldTolerance merges coincident vertices before topology analysis.
const weldTolerance = 1e-4

// Solid describes one body found in a mesh. Counts include the body's
// cavity shells, matching how boundary representations count a hollow
// solid's inner surfaces.
type Solid struct {
	Shells   int
	Faces    int
	Edges    int
	Vertices int
	Min, Max [3]float64
}

// Size returns the bounding box extents (X, Y, Z).
func (s Solid) Size() (x, y, z float64) {
	return s.Max[0] - s.Min[0], s.Max[1] - s.Min[1], s.Max[2] - s.Min[2]
}

// Summary describes every solid in a mesh.
type Summary struct {
	Solids []Solid
}

// Bounds returns the bounding box over all solids.
func (s Summary) Bounds() (min, max [3]float64) {
	for i, solid := range s.Solids {
		if i == 0 {
			min, max = solid.Min, solid.Max
			continue
		}
		for a := 0; a < 3; a++ {
			if solid.Min[a] < min[a] {
				min[a] = solid.Min[a]
			}
			if solid.Max[a] > max[a] {
				max[a] = solid.Max[a]
			}
		}
	}
	return min, max
}

// shell is one connected component of the welded mesh.
type shell struct {
	faces    int
	edges    int
	vertices int
	min, max [3]float64
	volume   float64
	tris     []int
}

// Summarize splits a mesh into solids and reports their topology.
func Summarize(m *kernel.Mesh) Summary {
	welded := m.Weld(weldTolerance)
	shells := splitShells(welded)
	return groupShells(shells)
}

// Shells splits a mesh into its connected surface components, outermost
// (largest) first. Each returned mesh is welded with fresh normals.
func Shells(m *kernel.Mesh) []*kernel.Mesh {
	welded := m.Weld(weldTolerance)
	shells := splitShells(welded)

	out := make([]*kernel.Mesh, 0, len(shells))
	for _, sh := range shells {
		sub := &kernel.Mesh{}
		remap := make(map[uint32]uint32)
		for _, t := range sh.tris {
			for j := 0; j < 3; j++ {
				old := welded.Indices[t*3+j]
				idx, seen := remap[old]
				if !seen {
					idx = uint32(sub.VertexCount())
					remap[old] = idx
					v := welded.Vertex(int(old))
					sub.Vertices = append(sub.Vertices, v[0], v[1], v[2])
				}
				sub.Indices = append(sub.Indices, idx)
			}
		}
		sub.ComputeNormals()
		out = append(out, sub)
	}
	return out
}

// splitShells finds connected components of a welded mesh and measures
// each one. Components are returned sorted by enclosed volume magnitude,
// largest first, with bounding box order breaking ties.
func splitShells(m *kernel.Mesh) []*shell {
	numVerts := m.VertexCount()
	if numVerts == 0 {
		return nil
	}

	// Union-find over vertex indices.
	parent := make([]int, numVerts)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	numTris := m.TriangleCount()
	for t := 0; t < numTris; t++ {
		a := int(m.Indices[t*3+0])
		b := int(m.Indices[t*3+1])
		c := int(m.Indices[t*3+2])
		union(a, b)
		union(b, c)
	}

	shellOf := make(map[int]*shell)
	var shells []*shell

	type edgeKey struct{ a, b uint32 }
	edgeSets := make(map[*shell]map[edgeKey]struct{})
	vertSets := make(map[*shell]map[uint32]struct{})

	for t := 0; t < numTris; t++ {
		i0 := m.Indices[t*3+0]
		i1 := m.Indices[t*3+1]
		i2 := m.Indices[t*3+2]

		root := find(int(i0))
		sh, ok := shellOf[root]
		if !ok {
			sh = &shell{
				min: [3]float64{1e308, 1e308, 1e308},
				max: [3]float64{-1e308, -1e308, -1e308},
			}
			shellOf[root] = sh
			shells = append(shells, sh)
			edgeSets[sh] = make(map[edgeKey]struct{})
			vertSets[sh] = make(map[uint32]struct{})
		}

		sh.faces++
		sh.tris = append(sh.tris, t)

		for _, pair := range [3][2]uint32{{i0, i1}, {i1, i2}, {i2, i0}} {
			a, b := pair[0], pair[1]
			if a > b {
				a, b = b, a
			}
			edgeSets[sh][edgeKey{a, b}] = struct{}{}
		}

		for _, idx := range [3]uint32{i0, i1, i2} {
			vertSets[sh][idx] = struct{}{}
			v := m.Vertex(int(idx))
			for axis := 0; axis < 3; axis++ {
				c := float64(v[axis])
				if c < sh.min[axis] {
					sh.min[axis] = c
				}
				if c > sh.max[axis] {
					sh.max[axis] = c
				}
			}
		}

		// Signed tetrahedron volume against the origin. Summed over a
		// closed surface this gives the enclosed volume, negative when
		// the winding faces inward.
		v0 := m.Vertex(int(i0))
		v1 := m.Vertex(int(i1))
		v2 := m.Vertex(int(i2))
		sh.volume += signedTetraVolume(v0, v1, v2)
	}

	for _, sh := range shells {
		sh.edges = len(edgeSets[sh])
		sh.vertices = len(vertSets[sh])
	}

	sort.Slice(shells, func(i, j int) bool {
		vi, vj := abs(shells[i].volume), abs(shells[j].volume)
		if vi != vj {
			return vi > vj
		}
		for a := 0; a < 3; a++ {
			if shells[i].min[a] != shells[j].min[a] {
				return shells[i].min[a] < shells[j].min[a]
			}
		}
		return false
	})
	return shells
}

// groupShells assigns cavity shells (negative volume) to the enclosing
// outer shell and emits one Solid per outer shell, ordered by bounding
// box minimum for stable reports.
func groupShells(shells []*shell) Summary {
	type body struct {
		outer    *shell
		cavities []*shell
	}
	var bodies []*body

	for _, sh := range shells {
		if sh.volume >= 0 {
			bodies = append(bodies, &body{outer: sh})
			continue
		}
		// Find an outer shell whose box contains this cavity.
		attached := false
		for _, b := range bodies {
			if boxContains(b.outer.min, b.outer.max, sh.min, sh.max) {
				b.cavities = append(b.cavities, sh)
				attached = true
				break
			}
		}
		if !attached {
			bodies = append(bodies, &body{outer: sh})
		}
	}

	sort.Slice(bodies, func(i, j int) bool {
		for a := 0; a < 3; a++ {
			if bodies[i].outer.min[a] != bodies[j].outer.min[a] {
				return bodies[i].outer.min[a] < bodies[j].outer.min[a]
			}
		}
		return false
	})

	var sum Summary
	for _, b := range bodies {
		s := Solid{
			Shells:   1 + len(b.cavities),
			Faces:    b.outer.faces,
			Edges:    b.outer.edges,
			Vertices: b.outer.vertices,
			Min:      b.outer.min,
			Max:      b.outer.max,
		}
		for _, c := range b.cavities {
			s.Faces += c.faces
			s.Edges += c.edges
			s.Vertices += c.vertices
		}
		sum.Solids = append(sum.Solids, s)
	}
	return sum
}

func signedTetraVolume(a, b, c [3]float32) float64 {
	ax, ay, az := float64(a[0]), float64(a[1]), float64(a[2])
	bx, by, bz := float64(b[0]), float64(b[1]), float64(b[2])
	cx, cy, cz := float64(c[0]), float64(c[1]), float64(c[2])
	return (ax*(by*cz-bz*cy) - ay*(bx*cz-bz*cx) + az*(bx*cy-by*cx)) / 6
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// boxContains reports whether box (innerMin, innerMax) lies inside box
// (outerMin, outerMax), with a little slack for welded coordinates.
func boxContains(outerMin, outerMax, innerMin, innerMax [3]float64) bool {
	const slack = 1e-6
	for a := 0; a < 3; a++ {
		if innerMin[a] < outerMin[a]-slack || innerMax[a] > outerMax[a]+slack {
			return false
		}
	}
	return true
}

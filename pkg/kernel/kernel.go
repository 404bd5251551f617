// Package kernel defines the abstract geometry kernel interface.
// Implementations (sdfx, manifold) provide solid modeling and
// boolean operations behind this interface. The kernel abstraction
// allows swapping backends without changing the rest of the system.
package kernel

import "errors"

// ErrUnsupported is returned by backends for operations they cannot express.
var ErrUnsupported = errors.New("kernel: operation not supported by this backend")

// DefaultMeshCells is the marching cubes resolution used when callers have
// no reason to pick their own.
const DefaultMeshCells = 200

// Vec2 is a point on a 2D outline, in model units.
type Vec2 struct {
	X, Y float64
}

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
// All operations are pure: inputs are never mutated, every result is a new
// solid. Primitives are centered at the origin.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) (Solid, error)
	Cylinder(height, radius float64) (Solid, error)
	Sphere(radius float64) (Solid, error)

	// Extrude sweeps a closed 2D outline along Z. The result spans
	// -height/2..height/2, matching the primitive centering convention.
	Extrude(outline []Vec2, height float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) (Solid, error)
	Difference(a, b Solid) (Solid, error)
	Intersect(a, b Solid) (Solid, error)

	// Transforms
	Translate(s Solid, x, y, z float64) (Solid, error)
	Rotate(s Solid, xDeg, yDeg, zDeg float64) (Solid, error) // Euler angles in degrees

	// Shell hollows a solid into a closed thin wall of the given thickness.
	Shell(s Solid, thickness float64) (Solid, error)

	// Mesh triangulates the solid surface. cells is the tessellation
	// resolution along the longest bounding box axis.
	Mesh(s Solid, cells int) (*Mesh, error)
}

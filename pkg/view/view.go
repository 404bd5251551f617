// Package view renders meshed parts to offscreen images: shaded PNG
// screenshots via gg and flat-filled SVG projections via svgo. The
// projection is orthographic with a tilt-and-roll camera, triangles
// painted back to front.
package view

import (
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	svg "github.com/ajstarks/svgo"
	"github.com/gogpu/gg"

	"github.com/timcash/code-cad/pkg/scene"
)

// Camera describes the offscreen viewport. Angles are in degrees:
// elevation tilts the model about the X axis, roll turns it about the
// view axis. Zoom scales the fitted model; zoom 2 fills the viewport.
type Camera struct {
	Width        int
	Height       int
	Zoom         float64
	RollDeg      float64
	ElevationDeg float64
}

// DefaultCamera returns the standard screenshot camera.
func DefaultCamera() Camera {
	return Camera{Width: 800, Height: 800, Zoom: 2, RollDeg: -20, ElevationDeg: -30}
}

func (c Camera) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("view: invalid viewport %dx%d", c.Width, c.Height)
	}
	if c.Zoom <= 0 {
		return fmt.Errorf("view: invalid zoom %g", c.Zoom)
	}
	return nil
}

// neutral fill for parts that carry no color of their own
var neutralColor = scene.Color{R: 0.62, G: 0.66, B: 0.70, A: 1}

// lightDir is the fixed shading light, pointing from the scene toward
// the upper-left of the viewer. Normalized at init.
var lightDir = normalize3(-0.4, 0.6, 1.0)

func normalize3(x, y, z float64) [3]float64 {
	n := math.Sqrt(x*x + y*y + z*z)
	return [3]float64{x / n, y / n, z / n}
}

// rotator applies the camera orientation: elevation about X first,
// then roll about the view (Z) axis.
type rotator struct {
	sinE, cosE float64
	sinR, cosR float64
}

func newRotator(cam Camera) rotator {
	e := cam.ElevationDeg * math.Pi / 180
	r := cam.RollDeg * math.Pi / 180
	return rotator{
		sinE: math.Sin(e), cosE: math.Cos(e),
		sinR: math.Sin(r), cosR: math.Cos(r),
	}
}

func (r rotator) apply(x, y, z float64) (float64, float64, float64) {
	y, z = y*r.cosE-z*r.sinE, y*r.sinE+z*r.cosE
	x, y = x*r.cosR-y*r.sinR, x*r.sinR+y*r.cosR
	return x, y, z
}

// face is one projected triangle ready to paint. Screen coordinates
// are in image space (Y down); depth is view-space Z, larger is
// closer to the camera.
type face struct {
	x, y  [3]float64
	depth float64
	shade float64
	col   scene.Color
}

// project rotates, fits and depth-sorts every triangle of every part.
// The returned faces are ordered far to near.
func project(parts []*scene.PartMesh, cam Camera) []face {
	rot := newRotator(cam)

	type viewTri struct {
		v   [3][3]float64
		col scene.Color
	}
	var tris []viewTri

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range parts {
		if p == nil || p.Mesh == nil || p.Mesh.IsEmpty() {
			continue
		}
		col := p.Color
		if col.IsZero() {
			col = neutralColor
		}
		for t := 0; t < p.Mesh.TriangleCount(); t++ {
			a, b, c := p.Mesh.Triangle(t)
			var vt viewTri
			vt.col = col
			for i, v := range [3][3]float32{a, b, c} {
				x, y, z := rot.apply(float64(v[0]), float64(v[1]), float64(v[2]))
				vt.v[i] = [3]float64{x, y, z}
				minX, maxX = math.Min(minX, x), math.Max(maxX, x)
				minY, maxY = math.Min(minY, y), math.Max(maxY, y)
			}
			tris = append(tris, vt)
		}
	}
	if len(tris) == 0 {
		return nil
	}

	spanX, spanY := maxX-minX, maxY-minY
	if spanX <= 0 {
		spanX = 1
	}
	if spanY <= 0 {
		spanY = 1
	}
	fit := math.Min(float64(cam.Width)/spanX, float64(cam.Height)/spanY)
	scale := 0.5 * cam.Zoom * fit
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	halfW, halfH := float64(cam.Width)/2, float64(cam.Height)/2

	faces := make([]face, 0, len(tris))
	for _, vt := range tris {
		e1 := [3]float64{vt.v[1][0] - vt.v[0][0], vt.v[1][1] - vt.v[0][1], vt.v[1][2] - vt.v[0][2]}
		e2 := [3]float64{vt.v[2][0] - vt.v[0][0], vt.v[2][1] - vt.v[0][1], vt.v[2][2] - vt.v[0][2]}
		nx := e1[1]*e2[2] - e1[2]*e2[1]
		ny := e1[2]*e2[0] - e1[0]*e2[2]
		nz := e1[0]*e2[1] - e1[1]*e2[0]
		nlen := math.Sqrt(nx*nx + ny*ny + nz*nz)
		if nlen == 0 {
			continue
		}
		nx, ny, nz = nx/nlen, ny/nlen, nz/nlen
		// Face the normal toward the viewer so both sides shade alike.
		if nz < 0 {
			nx, ny, nz = -nx, -ny, -nz
		}
		lambert := nx*lightDir[0] + ny*lightDir[1] + nz*lightDir[2]
		if lambert < 0 {
			lambert = 0
		}

		var f face
		f.col = vt.col
		f.shade = 0.35 + 0.65*lambert
		for i := range vt.v {
			f.x[i] = (vt.v[i][0]-cx)*scale + halfW
			f.y[i] = halfH - (vt.v[i][1]-cy)*scale
			f.depth += vt.v[i][2] / 3
		}
		faces = append(faces, f)
	}

	sort.SliceStable(faces, func(i, j int) bool { return faces[i].depth < faces[j].depth })
	return faces
}

// RenderPNG paints the parts into a shaded screenshot at path.
func RenderPNG(path string, parts []*scene.PartMesh, cam Camera) error {
	if err := cam.validate(); err != nil {
		return err
	}
	start := time.Now()
	faces := project(parts, cam)

	dc := gg.NewContext(cam.Width, cam.Height)
	dc.ClearWithColor(gg.White)
	for _, f := range faces {
		dc.SetRGB(f.col.R*f.shade, f.col.G*f.shade, f.col.B*f.shade)
		dc.MoveTo(f.x[0], f.y[0])
		dc.LineTo(f.x[1], f.y[1])
		dc.LineTo(f.x[2], f.y[2])
		dc.ClosePath()
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("view: render %s: %w", path, err)
		}
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("view: save %s: %w", path, err)
	}
	logger().Debug("rendered png",
		"path", path, "triangles", len(faces),
		"size", fmt.Sprintf("%dx%d", cam.Width, cam.Height),
		"elapsed", time.Since(start))
	return nil
}

// RenderSVG writes the parts as a flat polygon projection at path.
func RenderSVG(path string, parts []*scene.PartMesh, cam Camera) error {
	if err := cam.validate(); err != nil {
		return err
	}
	start := time.Now()
	faces := project(parts, cam)

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("view: save %s: %w", path, err)
	}
	canvas := svg.New(out)
	canvas.Start(cam.Width, cam.Height)
	canvas.Rect(0, 0, cam.Width, cam.Height, "fill:white")
	for _, f := range faces {
		xs := make([]int, 3)
		ys := make([]int, 3)
		for i := 0; i < 3; i++ {
			xs[i] = int(math.Round(f.x[i]))
			ys[i] = int(math.Round(f.y[i]))
		}
		fr, fg, fb, _ := f.col.Scaled(f.shade).RGBA8()
		er, eg, eb, _ := f.col.Scaled(f.shade * 0.8).RGBA8()
		style := fmt.Sprintf("fill:rgb(%d,%d,%d);stroke:rgb(%d,%d,%d);stroke-width:0.5",
			fr, fg, fb, er, eg, eb)
		canvas.Polygon(xs, ys, style)
	}
	canvas.End()
	if err := out.Close(); err != nil {
		return fmt.Errorf("view: save %s: %w", path, err)
	}
	logger().Debug("rendered svg",
		"path", path, "triangles", len(faces),
		"elapsed", time.Since(start))
	return nil
}

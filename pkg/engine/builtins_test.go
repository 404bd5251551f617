package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/timcash/code-cad/pkg/scene"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(cylinder :radius 40)`,
			expect: `(cylinder "__kw_radius" 40)`,
		},
		{
			name:   "multiple keywords",
			input:  `(cylinder :height 8 :radius 40)`,
			expect: `(cylinder "__kw_height" 8 "__kw_radius" 40)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def wall-thickness 1)`,
			expect: `(def wall_thickness 1)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:skip-threshold`,
			expect: `"__kw_skip-threshold"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Evaluation helpers
// ---------------------------------------------------------------------------

func evalOK(t *testing.T, source string) *scene.Scene {
	t.Helper()
	sc, evalErrs, err := newTestEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if sc == nil {
		t.Fatal("expected non-nil scene")
	}
	return sc
}

func evalFails(t *testing.T, source string) string {
	t.Helper()
	sc, evalErrs, err := newTestEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if sc != nil {
		t.Fatal("expected nil scene on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	var sb strings.Builder
	for _, e := range evalErrs {
		sb.WriteString(e.Message)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func partBounds(t *testing.T, sc *scene.Scene, name string) (min, max [3]float64) {
	t.Helper()
	p, ok := sc.Lookup(name)
	if !ok {
		t.Fatalf("part %q not found in scene", name)
	}
	return p.Solid.BoundingBox()
}

func within(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}

// ---------------------------------------------------------------------------
// Primitive builtins
// ---------------------------------------------------------------------------

func TestBoxBuiltin(t *testing.T) {
	sc := evalOK(t, `(part "plate" (box 10 10 1))`)
	if sc.Len() != 1 {
		t.Fatalf("expected 1 part, got %d", sc.Len())
	}
	min, max := partBounds(t, sc, "plate")
	const tol = 0.01
	if !within(min[0], -5, tol) || !within(max[0], 5, tol) {
		t.Errorf("X bounds = [%f, %f], want [-5, 5]", min[0], max[0])
	}
	if !within(min[2], -0.5, tol) || !within(max[2], 0.5, tol) {
		t.Errorf("Z bounds = [%f, %f], want [-0.5, 0.5]", min[2], max[2])
	}
}

func TestBoxWrongArity(t *testing.T) {
	msg := evalFails(t, `(box 10 10)`)
	if !strings.Contains(msg, "box requires") {
		t.Errorf("error = %q, want mention of box arity", msg)
	}
}

func TestCylinderKeywords(t *testing.T) {
	sc := evalOK(t, `(part "wheel" (cylinder :height 8 :radius 40))`)
	min, max := partBounds(t, sc, "wheel")
	const tol = 0.01
	if !within(min[0], -40, tol) || !within(max[0], 40, tol) {
		t.Errorf("X bounds = [%f, %f], want [-40, 40]", min[0], max[0])
	}
	if !within(min[2], -4, tol) || !within(max[2], 4, tol) {
		t.Errorf("Z bounds = [%f, %f], want [-4, 4]", min[2], max[2])
	}
}

func TestCylinderMissingRadius(t *testing.T) {
	msg := evalFails(t, `(cylinder :height 8)`)
	if !strings.Contains(msg, "radius") {
		t.Errorf("error = %q, want mention of missing radius", msg)
	}
}

func TestSphereBuiltin(t *testing.T) {
	sc := evalOK(t, `(part "ball" (sphere :radius 6))`)
	min, max := partBounds(t, sc, "ball")
	const tol = 0.01
	for i := 0; i < 3; i++ {
		if !within(min[i], -6, tol) || !within(max[i], 6, tol) {
			t.Errorf("axis %d bounds = [%f, %f], want [-6, 6]", i, min[i], max[i])
		}
	}
}

func TestExtrudeOutline(t *testing.T) {
	sc := evalOK(t, `(part "slab" (extrude :height 1 :outline [[0 0] [10 0] [10 10] [0 10]]))`)
	min, max := partBounds(t, sc, "slab")
	const tol = 0.5
	if !within(min[0], 0, tol) || !within(max[0], 10, tol) {
		t.Errorf("X bounds = [%f, %f], want about [0, 10]", min[0], max[0])
	}
	if !within(min[2], -0.5, tol) || !within(max[2], 0.5, tol) {
		t.Errorf("Z bounds = [%f, %f], want about [-0.5, 0.5]", min[2], max[2])
	}
}

func TestExtrudeMissingOutline(t *testing.T) {
	msg := evalFails(t, `(extrude :height 1)`)
	if !strings.Contains(msg, "outline") {
		t.Errorf("error = %q, want mention of missing outline", msg)
	}
}

// ---------------------------------------------------------------------------
// Booleans and transforms
// ---------------------------------------------------------------------------

func TestUnionGrowsBounds(t *testing.T) {
	sc := evalOK(t, `(part "pair" (union (box 10 10 10) (translate (box 10 10 10) (vec3 30 0 0))))`)
	min, max := partBounds(t, sc, "pair")
	const tol = 0.1
	if !within(min[0], -5, tol) || !within(max[0], 35, tol) {
		t.Errorf("X bounds = [%f, %f], want [-5, 35]", min[0], max[0])
	}
}

func TestCutKeepsBaseBounds(t *testing.T) {
	sc := evalOK(t, `(part "plate" (cut (box 10 10 10) (cylinder :height 12 :radius 2)))`)
	min, max := partBounds(t, sc, "plate")
	const tol = 0.1
	if !within(min[0], -5, tol) || !within(max[0], 5, tol) {
		t.Errorf("X bounds = [%f, %f], want [-5, 5]", min[0], max[0])
	}
}

func TestIntersectBuiltin(t *testing.T) {
	sc := evalOK(t, `(part "core" (intersect (box 10 10 10) (sphere :radius 5)))`)
	if sc.Len() != 1 {
		t.Fatalf("expected 1 part, got %d", sc.Len())
	}
}

func TestBooleanTooFewArgs(t *testing.T) {
	msg := evalFails(t, `(union (box 1 1 1))`)
	if !strings.Contains(msg, "at least 2") {
		t.Errorf("error = %q, want arity complaint", msg)
	}
}

func TestTranslateNumbers(t *testing.T) {
	sc := evalOK(t, `(part "moved" (translate (box 2 2 2) 10 0 0))`)
	min, max := partBounds(t, sc, "moved")
	const tol = 0.01
	if !within(min[0], 9, tol) || !within(max[0], 11, tol) {
		t.Errorf("X bounds = [%f, %f], want [9, 11]", min[0], max[0])
	}
}

func TestRotateSwapsExtents(t *testing.T) {
	sc := evalOK(t, `(part "turned" (rotate (box 20 10 10) :z 90))`)
	min, max := partBounds(t, sc, "turned")
	const tol = 0.1
	if !within(min[1], -10, tol) || !within(max[1], 10, tol) {
		t.Errorf("Y bounds = [%f, %f], want [-10, 10] after z rotation", min[1], max[1])
	}
}

func TestShellBuiltin(t *testing.T) {
	sc := evalOK(t, `(part "hollow" (shell (box 10 10 10) :thickness 1))`)
	min, max := partBounds(t, sc, "hollow")
	if max[0]-min[0] < 10 || max[0]-min[0] > 12 {
		t.Errorf("X extent = %f, want about 10", max[0]-min[0])
	}
}

func TestShellMissingThickness(t *testing.T) {
	msg := evalFails(t, `(shell (box 10 10 10))`)
	if !strings.Contains(msg, "thickness") {
		t.Errorf("error = %q, want mention of missing thickness", msg)
	}
}

// ---------------------------------------------------------------------------
// Color and part registration
// ---------------------------------------------------------------------------

func TestColorBuiltin(t *testing.T) {
	sc := evalOK(t, `(part "red" (color (box 1 1 1) 1 0 0))`)
	p, ok := sc.Lookup("red")
	if !ok {
		t.Fatal("part 'red' not found")
	}
	if p.Color != scene.Red {
		t.Errorf("color = %v, want %v", p.Color, scene.Red)
	}
}

func TestColorSurvivesTranslate(t *testing.T) {
	sc := evalOK(t, `(part "blue" (translate (color (box 1 1 1) 0 0 1) 1 0 0))`)
	p, ok := sc.Lookup("blue")
	if !ok {
		t.Fatal("part 'blue' not found")
	}
	if p.Color != scene.Blue {
		t.Errorf("color = %v, want %v", p.Color, scene.Blue)
	}
}

func TestColorWithAlpha(t *testing.T) {
	sc := evalOK(t, `(part "glass" (color (box 1 1 1) 0 1 0 0.5))`)
	p, ok := sc.Lookup("glass")
	if !ok {
		t.Fatal("part 'glass' not found")
	}
	if p.Color.A != 0.5 {
		t.Errorf("alpha = %f, want 0.5", p.Color.A)
	}
}

func TestPartDuplicateName(t *testing.T) {
	msg := evalFails(t, `
(part "a" (box 1 1 1))
(part "a" (box 2 2 2))
`)
	if !strings.Contains(msg, "already defined") {
		t.Errorf("error = %q, want duplicate-name complaint", msg)
	}
}

func TestPartReturnsSolid(t *testing.T) {
	sc := evalOK(t, `(part "b" (translate (part "a" (box 2 2 2)) 10 0 0))`)
	if sc.Len() != 2 {
		t.Fatalf("expected 2 parts, got %d", sc.Len())
	}
	min, max := partBounds(t, sc, "b")
	const tol = 0.01
	if !within(min[0], 9, tol) || !within(max[0], 11, tol) {
		t.Errorf("X bounds = [%f, %f], want [9, 11]", min[0], max[0])
	}
}

// ---------------------------------------------------------------------------
// Script-level tests
// ---------------------------------------------------------------------------

func TestPlateWithHoleScript(t *testing.T) {
	sc := evalOK(t, `
(def size 10)
(part "plate"
  (cut (box size size 1)
       (cylinder :height 2 :radius 2.5)))
`)
	if sc.Len() != 1 {
		t.Fatalf("expected 1 part, got %d", sc.Len())
	}
	min, max := partBounds(t, sc, "plate")
	const tol = 0.1
	if !within(min[0], -5, tol) || !within(max[0], 5, tol) {
		t.Errorf("X bounds = [%f, %f], want [-5, 5]", min[0], max[0])
	}
}

func TestColoredAssemblyScript(t *testing.T) {
	sc := evalOK(t, `
(part "base" (color (box 10 10 10) 1 0 0))
(part "rod"  (color (translate (cylinder :height 15 :radius 5) (vec3 20 0 0)) 0 0 1))
(part "ball" (color (translate (sphere :radius 6) (vec3 0 20 0)) 0 1 0))
`)
	if sc.Len() != 3 {
		t.Fatalf("expected 3 parts, got %d", sc.Len())
	}

	base, _ := sc.Lookup("base")
	if base == nil || base.Color != scene.Red {
		t.Error("base should be red")
	}
	rod, _ := sc.Lookup("rod")
	if rod == nil || rod.Color != scene.Blue {
		t.Error("rod should be blue")
	}
	ball, _ := sc.Lookup("ball")
	if ball == nil || ball.Color != scene.Green {
		t.Error("ball should be green")
	}

	min, max := partBounds(t, sc, "rod")
	const tol = 0.1
	if !within(min[0], 15, tol) || !within(max[0], 25, tol) {
		t.Errorf("rod X bounds = [%f, %f], want [15, 25]", min[0], max[0])
	}
}

func TestVariablesInScript(t *testing.T) {
	sc := evalOK(t, `
(def wall-thickness 1)
(part "shell" (shell (box 10 10 10) :thickness wall-thickness))
`)
	if sc.Len() != 1 {
		t.Fatalf("expected 1 part, got %d", sc.Len())
	}
}

func TestCommentsInScript(t *testing.T) {
	sc := evalOK(t, `
; build a simple plate
(part "plate" (box 10 10 1)) ; ten by ten
`)
	if sc.Len() != 1 {
		t.Fatalf("expected 1 part, got %d", sc.Len())
	}
}

// ---------------------------------------------------------------------------
// Regressions
// ---------------------------------------------------------------------------

func TestEmptySourceStillWorks(t *testing.T) {
	sc := evalOK(t, "")
	if sc.Len() != 0 {
		t.Errorf("expected empty scene, got %d parts", sc.Len())
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	sc := evalOK(t, "(+ 1 2)")
	if sc.Len() != 0 {
		t.Errorf("expected empty scene, got %d parts", sc.Len())
	}
}

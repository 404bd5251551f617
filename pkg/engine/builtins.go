package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/timcash/code-cad/pkg/kernel"
	"github.com/timcash/code-cad/pkg/scene"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms modeling Lisp source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: wall-thickness -> wall_thickness
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSolid wraps a kernel solid, carrying an optional display color,
// so geometry can flow between builtins.
type sexpSolid struct {
	solid kernel.Solid
	color scene.Color
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	min, max := s.solid.BoundingBox()
	return fmt.Sprintf("(solid %.1fx%.1fx%.1f)",
		max[0]-min[0], max[1]-min[1], max[2]-min[2])
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// vec3 is a 3-component vector used by translate.
type vec3 struct {
	x, y, z float64
}

// sexpVec3 wraps a vec3.
type sexpVec3 struct {
	vec vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.1f %.1f %.1f)", v.vec.x, v.vec.y, v.vec.z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Trailing keyword with no value becomes a nil flag.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toSolid extracts a solid value produced by another builtin.
func toSolid(s zygo.Sexp) (*sexpSolid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// requireFloat reads a mandatory keyword number argument.
func requireFloat(pa kwArgs, fn, name string) (float64, error) {
	v, ok := pa.kw[name]
	if !ok {
		return 0, fmt.Errorf("%s requires :%s", fn, name)
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", fn, name, err)
	}
	return f, nil
}

// optionalFloat reads a keyword number argument, defaulting when absent.
func optionalFloat(pa kwArgs, fn, name string, def float64) (float64, error) {
	v, ok := pa.kw[name]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", fn, name, err)
	}
	return f, nil
}

// toOutline converts a list of [x y] pairs into outline vertices.
func toOutline(s zygo.Sexp) ([]kernel.Vec2, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	pts := make([]kernel.Vec2, 0, len(items))
	for i, item := range items {
		pair, err := sexpListToSlice(item)
		if err != nil {
			return nil, fmt.Errorf("outline point %d: %w", i, err)
		}
		if len(pair) != 2 {
			return nil, fmt.Errorf("outline point %d: expected [x y], got %d values", i, len(pair))
		}
		x, err := toFloat64(pair[0])
		if err != nil {
			return nil, fmt.Errorf("outline point %d: x: %w", i, err)
		}
		y, err := toFloat64(pair[1])
		if err != nil {
			return nil, fmt.Errorf("outline point %d: y: %w", i, err)
		}
		pts = append(pts, kernel.Vec2{X: x, Y: y})
	}
	return pts, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the modeling DSL builtins into a zygomys
// environment. The builtins construct solids with the given kernel and
// register named parts into the provided scene during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, k kernel.Kernel, sc *scene.Scene) {

	// -----------------------------------------------------------------------
	// (box 10 10 1)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 3 {
			return zygo.SexpNull, fmt.Errorf("box requires x y z dimensions, got %d arguments", len(pa.positional))
		}
		var dims [3]float64
		for i, a := range pa.positional {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: dimension %d: %w", i+1, err)
			}
			dims[i] = f
		}
		s, err := k.Box(dims[0], dims[1], dims[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return &sexpSolid{solid: s}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :height 8 :radius 40)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		h, err := requireFloat(pa, "cylinder", "height")
		if err != nil {
			return zygo.SexpNull, err
		}
		r, err := requireFloat(pa, "cylinder", "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		s, err := k.Cylinder(h, r)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		return &sexpSolid{solid: s}, nil
	})

	// -----------------------------------------------------------------------
	// (sphere :radius 6)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		r, err := requireFloat(pa, "sphere", "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		s, err := k.Sphere(r)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		return &sexpSolid{solid: s}, nil
	})

	// -----------------------------------------------------------------------
	// (extrude :height 1 :outline [[0 0] [10 0] [10 10] [0 10]])
	// -----------------------------------------------------------------------
	env.AddFunction("extrude", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		h, err := requireFloat(pa, "extrude", "height")
		if err != nil {
			return zygo.SexpNull, err
		}
		v, ok := pa.kw["outline"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("extrude requires :outline")
		}
		outline, err := toOutline(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude: %w", err)
		}
		s, err := k.Extrude(outline, h)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude: %w", err)
		}
		return &sexpSolid{solid: s}, nil
	})

	// -----------------------------------------------------------------------
	// (union a b ...) combines two or more solids
	// -----------------------------------------------------------------------
	env.AddFunction("union", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return foldBoolean("union", k.Union, args)
	})

	// -----------------------------------------------------------------------
	// (cut base tool ...) subtracts each tool from the base
	// -----------------------------------------------------------------------
	env.AddFunction("cut", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return foldBoolean("cut", k.Difference, args)
	})

	// -----------------------------------------------------------------------
	// (intersect a b ...)
	// -----------------------------------------------------------------------
	env.AddFunction("intersect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return foldBoolean("intersect", k.Intersect, args)
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}
		return &sexpVec3{vec: vec3{x: x, y: y, z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (translate s (vec3 20 0 0))  or  (translate s 20 0 0)
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("translate requires a solid and an offset")
		}
		sol, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}

		var v vec3
		switch len(args) {
		case 2:
			v, err = toVec3(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("translate: %w", err)
			}
		case 4:
			var c [3]float64
			for i := 0; i < 3; i++ {
				c[i], err = toFloat64(args[i+1])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("translate: offset %d: %w", i+1, err)
				}
			}
			v = vec3{x: c[0], y: c[1], z: c[2]}
		default:
			return zygo.SexpNull, fmt.Errorf("translate requires a vec3 or three numbers, got %d arguments", len(args)-1)
		}

		moved, err := k.Translate(sol.solid, v.x, v.y, v.z)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		return &sexpSolid{solid: moved, color: sol.color}, nil
	})

	// -----------------------------------------------------------------------
	// (rotate s :x 0 :y 0 :z 18) with angles in degrees
	// -----------------------------------------------------------------------
	env.AddFunction("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("rotate requires a solid")
		}
		sol, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		x, err := optionalFloat(pa, "rotate", "x", 0)
		if err != nil {
			return zygo.SexpNull, err
		}
		y, err := optionalFloat(pa, "rotate", "y", 0)
		if err != nil {
			return zygo.SexpNull, err
		}
		z, err := optionalFloat(pa, "rotate", "z", 0)
		if err != nil {
			return zygo.SexpNull, err
		}
		turned, err := k.Rotate(sol.solid, x, y, z)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		return &sexpSolid{solid: turned, color: sol.color}, nil
	})

	// -----------------------------------------------------------------------
	// (shell s :thickness 1)
	// -----------------------------------------------------------------------
	env.AddFunction("shell", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("shell requires a solid")
		}
		sol, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shell: %w", err)
		}
		th, err := requireFloat(pa, "shell", "thickness")
		if err != nil {
			return zygo.SexpNull, err
		}
		hollowed, err := k.Shell(sol.solid, th)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shell: %w", err)
		}
		return &sexpSolid{solid: hollowed, color: sol.color}, nil
	})

	// -----------------------------------------------------------------------
	// (color s 1 0 0)  or  (color s 1 0 0 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("color", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 && len(args) != 5 {
			return zygo.SexpNull, fmt.Errorf("color requires a solid and r g b [a], got %d arguments", len(args))
		}
		sol, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("color: %w", err)
		}
		var ch [4]float64
		ch[3] = 1
		for i := 1; i < len(args); i++ {
			ch[i-1], err = toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("color: channel %d: %w", i, err)
			}
		}
		return &sexpSolid{
			solid: sol.solid,
			color: scene.Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3]},
		}, nil
	})

	// -----------------------------------------------------------------------
	// (part "name" s) registers a named part in the result scene
	// -----------------------------------------------------------------------
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("part requires a name and a solid")
		}
		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}
		sol, err := toSolid(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: %w", err)
		}
		if err := sc.Add(&scene.Part{Name: partName, Solid: sol.solid, Color: sol.color}); err != nil {
			return zygo.SexpNull, err
		}
		// Hand the solid back so it can feed further operations.
		return args[1], nil
	})
}

// foldBoolean left-folds a binary kernel operation over two or more
// solid arguments. The result keeps the first operand's color.
func foldBoolean(fn string, op func(a, b kernel.Solid) (kernel.Solid, error), args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) < 2 {
		return zygo.SexpNull, fmt.Errorf("%s requires at least 2 solids, got %d", fn, len(args))
	}
	first, err := toSolid(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: argument 1: %w", fn, err)
	}
	acc := first.solid
	for i, a := range args[1:] {
		sol, err := toSolid(a)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: argument %d: %w", fn, i+2, err)
		}
		acc, err = op(acc, sol.solid)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
		}
	}
	return &sexpSolid{solid: acc, color: first.color}, nil
}

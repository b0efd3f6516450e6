package geom

import (
	"fmt"
	"strconv"
	"strings"
)

// TransformType identifies one transform channel.
type TransformType int

const (
	// TransformNone marks a descriptor that does not target a transform.
	TransformNone TransformType = iota
	TransformTranslate
	TransformScale
	TransformRotate
	TransformSkewX
	TransformSkewY
)

var transformNames = map[TransformType]string{
	TransformNone:      "",
	TransformTranslate: "translate",
	TransformScale:     "scale",
	TransformRotate:    "rotate",
	TransformSkewX:     "skewX",
	TransformSkewY:     "skewY",
}

// String returns the SVG name of the transform type.
func (t TransformType) String() string {
	return transformNames[t]
}

// ParseTransformType maps an SVG transform name to its TransformType.
func ParseTransformType(s string) (TransformType, error) {
	for t, name := range transformNames {
		if t != TransformNone && strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return TransformNone, fmt.Errorf("unknown transform type %q", s)
}

// MarshalText encodes the type by its SVG name.
func (t TransformType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts an SVG name; the empty string is TransformNone.
func (t *TransformType) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*t = TransformNone
		return nil
	}
	v, err := ParseTransformType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Transform is one entry of a transform list.
type Transform struct {
	Type   TransformType `json:"type"`
	Params []float64     `json:"params"`
	// Origin, when set, makes the transform act around this point
	// (translate to origin, apply, translate back).
	Origin *Point `json:"origin,omitempty"`
}

// ComposeMatrix builds the matrix for a single transform.
//
// Parameter arity follows SVG: translate(tx [ty]), scale(sx [sy]),
// rotate(a [cx cy]), skewX(a), skewY(a).
func ComposeMatrix(typ TransformType, params []float64) (Matrix2D, error) {
	n := len(params)
	switch typ {
	case TransformTranslate:
		switch n {
		case 1:
			return Translate(params[0], 0), nil
		case 2:
			return Translate(params[0], params[1]), nil
		}
	case TransformScale:
		switch n {
		case 1:
			return Scale(params[0], params[0]), nil
		case 2:
			return Scale(params[0], params[1]), nil
		}
	case TransformRotate:
		switch n {
		case 1:
			return Rotate(params[0]), nil
		case 3:
			cx, cy := params[1], params[2]
			return Translate(cx, cy).Multiply(Rotate(params[0])).Multiply(Translate(-cx, -cy)), nil
		}
	case TransformSkewX:
		if n == 1 {
			return SkewX(params[0]), nil
		}
	case TransformSkewY:
		if n == 1 {
			return SkewY(params[0]), nil
		}
	default:
		return Identity(), fmt.Errorf("cannot compose transform type %d", typ)
	}
	return Identity(), fmt.Errorf("%s: unexpected parameter count %d", typ, n)
}

// Matrix returns the transform's matrix with its origin applied.
func (t Transform) Matrix() (Matrix2D, error) {
	m, err := ComposeMatrix(t.Type, t.Params)
	if err != nil {
		return m, err
	}
	if t.Origin != nil {
		o := *t.Origin
		m = Translate(o.X, o.Y).Multiply(m).Multiply(Translate(-o.X, -o.Y))
	}
	return m, nil
}

// Compose multiplies a transform list in declaration order. The last
// declared transform is innermost, i.e. applied to points first.
func Compose(ts []Transform) (Matrix2D, error) {
	m := Identity()
	for i, t := range ts {
		tm, err := t.Matrix()
		if err != nil {
			return Identity(), fmt.Errorf("transform[%d]: %w", i, err)
		}
		m = m.Multiply(tm)
	}
	return m, nil
}

// ApplyTransforms applies a transform list to points. Transforms are applied
// in reverse declaration order, each honouring its origin. The input slice
// is not modified.
func ApplyTransforms(ts []Transform, pts []Point) ([]Point, error) {
	out := make([]Point, len(pts))
	copy(out, pts)
	for i := len(ts) - 1; i >= 0; i-- {
		m, err := ts[i].Matrix()
		if err != nil {
			return nil, fmt.Errorf("transform[%d]: %w", i, err)
		}
		for j := range out {
			out[j] = m.Apply(out[j])
		}
	}
	return out, nil
}

// ParseTransformList parses an SVG transform attribute such as
// "translate(10,20) rotate(45 5 5)".
func ParseTransformList(s string) ([]Transform, error) {
	var ts []Transform
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		closing := strings.IndexByte(rest, ')')
		if open <= 0 || closing < open {
			return nil, fmt.Errorf("malformed transform list %q", s)
		}
		name := strings.TrimSpace(rest[:open])
		typ, err := ParseTransformType(name)
		if err != nil {
			return nil, err
		}
		params, err := ParseNumbers(rest[open+1 : closing])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if _, err := ComposeMatrix(typ, params); err != nil {
			return nil, err
		}
		ts = append(ts, Transform{Type: typ, Params: params})
		rest = strings.TrimLeft(rest[closing+1:], " \t\n\r,")
	}
	return ts, nil
}

// ParseNumbers splits a comma/whitespace separated number list.
func ParseNumbers(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	nums := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		nums = append(nums, v)
	}
	return nums, nil
}

// FormatFloat renders v with at most prec fractional digits and no
// trailing zeros. A negative prec keeps full precision.
func FormatFloat(v float64, prec int) string {
	var s string
	if prec < 0 {
		s = strconv.FormatFloat(v, 'f', -1, 64)
	} else {
		s = strconv.FormatFloat(v, 'f', prec, 64)
	}
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

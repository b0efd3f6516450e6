package ir

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/animsync/internal/geom"
)

// SplineKind distinguishes timing curves.
type SplineKind uint8

const (
	SplineLinear SplineKind = iota
	SplineBezier
	SplineStepStart
	SplineStepEnd
)

// Spline is the easing of one keyframe segment: a cubic bezier timing curve
// through (0,0) and (1,1), or a single step.
type Spline struct {
	Kind           SplineKind
	X1, Y1, X2, Y2 float64
}

// Linear is the identity easing.
var Linear = Spline{Kind: SplineLinear}

// Bezier returns a cubic-bezier spline, collapsing the identity curve to
// Linear.
func Bezier(x1, y1, x2, y2 float64) Spline {
	if x1 == y1 && x2 == y2 {
		return Linear
	}
	return Spline{Kind: SplineBezier, X1: x1, Y1: y1, X2: x2, Y2: y2}
}

var namedSplines = map[string]Spline{
	"linear":      Linear,
	"ease":        Bezier(0.25, 0.1, 0.25, 1),
	"ease-in":     Bezier(0.42, 0, 1, 1),
	"ease-out":    Bezier(0, 0, 0.58, 1),
	"ease-in-out": Bezier(0.42, 0, 0.58, 1),
	"step-start":  {Kind: SplineStepStart},
	"step-end":    {Kind: SplineStepEnd},
}

// ParseSpline accepts "x1 y1 x2 y2" (comma or space separated),
// cubic-bezier(...), and the CSS keywords linear, ease*, step-start and
// step-end. Control x values must lie in [0,1].
func ParseSpline(s string) (Spline, error) {
	s = strings.TrimSpace(s)
	if sp, ok := namedSplines[strings.ToLower(s)]; ok {
		return sp, nil
	}
	if inner, ok := strings.CutPrefix(s, "cubic-bezier("); ok {
		s = strings.TrimSuffix(inner, ")")
	}
	nums, err := geom.ParseNumbers(s)
	if err != nil {
		return Spline{}, fmt.Errorf("key spline %q: %w", s, err)
	}
	if len(nums) != 4 {
		return Spline{}, fmt.Errorf("key spline %q: want 4 numbers, got %d", s, len(nums))
	}
	for _, n := range nums {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return Spline{}, fmt.Errorf("key spline %q: non-finite control value", s)
		}
	}
	if nums[0] < 0 || nums[0] > 1 || nums[2] < 0 || nums[2] > 1 {
		return Spline{}, fmt.Errorf("key spline %q: x control values must be in [0,1]", s)
	}
	return Bezier(nums[0], nums[1], nums[2], nums[3]), nil
}

// IsLinear reports whether the spline is the identity easing.
func (s Spline) IsLinear() bool {
	return s.Kind == SplineLinear
}

// IsStep reports whether the spline is a step-start or step-end.
func (s Spline) IsStep() bool {
	return s.Kind == SplineStepStart || s.Kind == SplineStepEnd
}

func (s Spline) curve() geom.CubicBez {
	return geom.CubicBez{
		P0: geom.Pt(0, 0),
		P1: geom.Pt(s.X1, s.Y1),
		P2: geom.Pt(s.X2, s.Y2),
		P3: geom.Pt(1, 1),
	}
}

// Ease maps a time fraction x in [0,1] to a progress fraction.
func (s Spline) Ease(x float64) float64 {
	switch s.Kind {
	case SplineBezier:
		c := s.curve()
		return c.Eval(c.SolveX(x)).Y
	case SplineStepStart:
		if x > 0 {
			return 1
		}
		return 0
	case SplineStepEnd:
		if x >= 1 {
			return 1
		}
		return 0
	default:
		return x
	}
}

// Reversed returns the easing for the same segment played backwards.
func (s Spline) Reversed() Spline {
	switch s.Kind {
	case SplineBezier:
		return Bezier(1-s.X2, 1-s.Y2, 1-s.X1, 1-s.Y1)
	case SplineStepStart:
		return Spline{Kind: SplineStepEnd}
	case SplineStepEnd:
		return Spline{Kind: SplineStepStart}
	}
	return s
}

// Sub returns the easing of the time window [x0,x1] of the segment,
// renormalised to the unit square. A window with no progress change is
// Linear, since both of its endpoint values are equal.
func (s Spline) Sub(x0, x1 float64) Spline {
	if s.Kind != SplineBezier || (x0 <= 0 && x1 >= 1) {
		if s.IsStep() && (x0 > 0 || x1 < 1) {
			return Linear
		}
		return s
	}
	c := s.curve()
	sub := c.Subsegment(c.SolveX(x0), c.SolveX(x1))
	dx := sub.P3.X - sub.P0.X
	dy := sub.P3.Y - sub.P0.Y
	if dx <= 0 || math.Abs(dy) < 1e-12 {
		return Linear
	}
	nx := func(v float64) float64 { return math.Max(0, math.Min(1, (v-sub.P0.X)/dx)) }
	ny := func(v float64) float64 { return (v - sub.P0.Y) / dy }
	return Bezier(nx(sub.P1.X), ny(sub.P1.Y), nx(sub.P2.X), ny(sub.P2.Y))
}

// Format renders the spline as "x1 y1 x2 y2" or its step keyword.
func (s Spline) Format(prec int) string {
	switch s.Kind {
	case SplineStepStart:
		return "step-start"
	case SplineStepEnd:
		return "step-end"
	case SplineLinear:
		return "0 0 1 1"
	}
	return strings.Join([]string{
		geom.FormatFloat(s.X1, prec),
		geom.FormatFloat(s.Y1, prec),
		geom.FormatFloat(s.X2, prec),
		geom.FormatFloat(s.Y2, prec),
	}, " ")
}

// String renders the spline at full precision.
func (s Spline) String() string {
	return s.Format(-1)
}

// MarshalText encodes the spline in its string form.
func (s Spline) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses any form accepted by ParseSpline.
func (s *Spline) UnmarshalText(b []byte) error {
	v, err := ParseSpline(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

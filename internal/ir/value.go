package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/roach88/animsync/internal/geom"
)

// ValueKind classifies a parsed attribute value.
type ValueKind uint8

const (
	// ValueLiteral is not interpolable; it switches discretely.
	ValueLiteral ValueKind = iota
	ValueNumber
	ValueTuple
	ValuePoints
	ValueColor
)

// Value is a parsed attribute value.
//
// Numbers and tuples keep their components in Nums. Point lists store
// x,y pairs flattened. Colours store R, G, B, A in 0..255.
type Value struct {
	Kind ValueKind
	Nums []float64
	// Unit is the suffix of a single number ("px", "%").
	Unit string
	// Text is the raw literal.
	Text string
}

// Literal wraps s as a non-interpolable value.
func Literal(s string) Value {
	return Value{Kind: ValueLiteral, Text: s}
}

// Number wraps a single unitless number.
func Number(v float64) Value {
	return Value{Kind: ValueNumber, Nums: []float64{v}}
}

// Tuple wraps a space separated number list.
func Tuple(v ...float64) Value {
	if len(v) == 1 {
		return Number(v[0])
	}
	return Value{Kind: ValueTuple, Nums: v}
}

// ParseValue classifies s in the context of attribute attr. It never fails:
// anything that is not numeric, a colour or a point list is a literal.
func ParseValue(attr, s string) Value {
	s = strings.TrimSpace(s)
	if attr == "points" {
		if nums, ok := parseFinite(s); ok && len(nums) > 0 && len(nums)%2 == 0 {
			return Value{Kind: ValuePoints, Nums: nums}
		}
		return Literal(s)
	}
	if c, ok := parseColor(s); ok {
		return c
	}
	if nums, ok := parseFinite(s); ok && len(nums) > 0 {
		return Tuple(nums...)
	}
	if v, unit, ok := splitUnit(s); ok {
		return Value{Kind: ValueNumber, Nums: []float64{v}, Unit: unit}
	}
	return Literal(s)
}

func parseFinite(s string) ([]float64, bool) {
	nums, err := geom.ParseNumbers(s)
	if err != nil {
		return nil, false
	}
	for _, n := range nums {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, false
		}
	}
	return nums, true
}

var units = []string{"px", "%", "rem", "em", "pt", "deg", "vw", "vh"}

func splitUnit(s string) (float64, string, bool) {
	for _, u := range units {
		num, ok := strings.CutSuffix(s, u)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, "", false
		}
		return v, u, true
	}
	return 0, "", false
}

func parseColor(s string) (Value, bool) {
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "#"):
		return parseHexColor(lower[1:])
	case strings.HasPrefix(lower, "rgba(") || strings.HasPrefix(lower, "rgb("):
		inner := lower[strings.IndexByte(lower, '(')+1:]
		inner, ok := strings.CutSuffix(inner, ")")
		if !ok {
			return Value{}, false
		}
		nums, ok := parseFinite(inner)
		if !ok || (len(nums) != 3 && len(nums) != 4) {
			return Value{}, false
		}
		a := 255.0
		if len(nums) == 4 {
			a = math.Round(clamp(nums[3], 0, 1) * 255)
		}
		return colorValue(nums[0], nums[1], nums[2], a), true
	}
	if c, ok := colornames.Map[lower]; ok {
		return colorValue(float64(c.R), float64(c.G), float64(c.B), float64(c.A)), true
	}
	return Value{}, false
}

func parseHexColor(h string) (Value, bool) {
	switch len(h) {
	case 3, 4:
		var expanded strings.Builder
		for _, c := range h {
			expanded.WriteRune(c)
			expanded.WriteRune(c)
		}
		h = expanded.String()
	case 6, 8:
	default:
		return Value{}, false
	}
	if len(h) == 6 {
		h += "ff"
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Value{}, false
	}
	return colorValue(float64(n>>24&0xff), float64(n>>16&0xff), float64(n>>8&0xff), float64(n&0xff)), true
}

func colorValue(r, g, b, a float64) Value {
	return Value{Kind: ValueColor, Nums: []float64{
		clamp(r, 0, 255), clamp(g, 0, 255), clamp(b, 0, 255), clamp(a, 0, 255),
	}}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// compatible reports whether a and b can be combined component-wise. A
// unitless value takes the unit of the other one.
func compatible(a, b Value) bool {
	return a.Kind == b.Kind && a.Kind != ValueLiteral &&
		len(a.Nums) == len(b.Nums) &&
		(a.Unit == b.Unit || a.Unit == "" || b.Unit == "")
}

// commonUnit is the unit of a combination of compatible values.
func commonUnit(a, b Value) string {
	if a.Unit != "" {
		return a.Unit
	}
	return b.Unit
}

// Interpolate returns the value a fraction t of the way from a to b.
// Literals switch to b only at t >= 1. When a and b are not compatible
// (kind, cardinality or unit differ) b is returned verbatim with ok false.
func Interpolate(a, b Value, t float64) (Value, bool) {
	if a.Kind == ValueLiteral && b.Kind == ValueLiteral {
		if t >= 1 {
			return b, true
		}
		return a, true
	}
	if !compatible(a, b) {
		return b, false
	}
	unit := commonUnit(a, b)
	if t <= 0 {
		a.Unit = unit
		return a, true
	}
	if t >= 1 {
		b.Unit = unit
		return b, true
	}
	out := Value{Kind: a.Kind, Unit: unit, Nums: make([]float64, len(a.Nums))}
	for i := range a.Nums {
		out.Nums[i] = a.Nums[i] + (b.Nums[i]-a.Nums[i])*t
		if a.Kind == ValueColor {
			out.Nums[i] = clamp(math.Round(out.Nums[i]), 0, 255)
		}
	}
	return out, true
}

// Add returns a + b component-wise; ok is false when incompatible.
func Add(a, b Value) (Value, bool) {
	if !compatible(a, b) {
		return a, false
	}
	out := Value{Kind: a.Kind, Unit: commonUnit(a, b), Nums: make([]float64, len(a.Nums))}
	for i := range a.Nums {
		out.Nums[i] = a.Nums[i] + b.Nums[i]
		if a.Kind == ValueColor {
			out.Nums[i] = clamp(out.Nums[i], 0, 255)
		}
	}
	return out, true
}

// Scale multiplies every component by k. Literals are returned unchanged.
func Scale(v Value, k float64) Value {
	if v.Kind == ValueLiteral {
		return v
	}
	out := Value{Kind: v.Kind, Unit: v.Unit, Nums: make([]float64, len(v.Nums))}
	for i, n := range v.Nums {
		out.Nums[i] = n * k
		if v.Kind == ValueColor {
			out.Nums[i] = clamp(out.Nums[i], 0, 255)
		}
	}
	return out
}

// Distance is the euclidean distance between compatible values.
func Distance(a, b Value) (float64, bool) {
	if !compatible(a, b) {
		return 0, false
	}
	var sum float64
	for i := range a.Nums {
		d := b.Nums[i] - a.Nums[i]
		sum += d * d
	}
	return math.Sqrt(sum), true
}

// Equal reports whether two values format identically at full precision.
func (v Value) Equal(o Value) bool {
	return v.Format(-1) == o.Format(-1)
}

// Format renders the value with at most prec fractional digits.
func (v Value) Format(prec int) string {
	switch v.Kind {
	case ValueNumber:
		return geom.FormatFloat(v.Nums[0], prec) + v.Unit
	case ValueTuple:
		parts := make([]string, len(v.Nums))
		for i, n := range v.Nums {
			parts[i] = geom.FormatFloat(n, prec)
		}
		return strings.Join(parts, " ")
	case ValuePoints:
		parts := make([]string, 0, len(v.Nums)/2)
		for i := 0; i+1 < len(v.Nums); i += 2 {
			parts = append(parts, geom.FormatFloat(v.Nums[i], prec)+","+geom.FormatFloat(v.Nums[i+1], prec))
		}
		return strings.Join(parts, " ")
	case ValueColor:
		r, g, b, a := byte(v.Nums[0]+0.5), byte(v.Nums[1]+0.5), byte(v.Nums[2]+0.5), byte(v.Nums[3]+0.5)
		if a == 0xff {
			return fmt.Sprintf("#%02x%02x%02x", r, g, b)
		}
		return fmt.Sprintf("#%02x%02x%02x%02x", r, g, b, a)
	}
	return v.Text
}

// String renders the value at full precision.
func (v Value) String() string {
	return v.Format(-1)
}

// PadTransformValues brings every value of a transform channel to the same
// arity so they interpolate component-wise: translate and scale to two
// components (ty defaults to 0, sy to sx), rotate to three when any value
// carries a centre. Values that are not numeric are left untouched.
func PadTransformValues(typ geom.TransformType, vals []Value) []Value {
	width := 1
	switch typ {
	case geom.TransformTranslate, geom.TransformScale:
		width = 2
	case geom.TransformRotate:
		for _, v := range vals {
			if len(v.Nums) == 3 && v.Kind != ValueLiteral {
				width = 3
			}
		}
	}
	out := make([]Value, len(vals))
	for i, v := range vals {
		out[i] = v
		if (v.Kind != ValueNumber && v.Kind != ValueTuple) || v.Unit != "" || len(v.Nums) >= width {
			continue
		}
		nums := make([]float64, width)
		copy(nums, v.Nums)
		if typ == geom.TransformScale && len(v.Nums) == 1 {
			nums[1] = v.Nums[0]
		}
		out[i] = Tuple(nums...)
	}
	return out
}

package geom

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Matrix2D is an affine transformation stored as an f64.Aff3:
//
//	| m[0] m[1] m[2] |
//	| m[3] m[4] m[5] |
//
// which maps
//
//	x' = m[0]*x + m[1]*y + m[2]
//	y' = m[3]*x + m[4]*y + m[5]
type Matrix2D f64.Aff3

// Identity returns the identity transformation.
func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 0, 1, 0}
}

// Translate creates a translation matrix.
func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, tx, 0, 1, ty}
}

// Scale creates a scaling matrix.
func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, 0, sy, 0}
}

// Rotate creates a rotation matrix. The angle is in degrees.
func Rotate(deg float64) Matrix2D {
	sin, cos := math.Sincos(Radians(deg))
	return Matrix2D{cos, -sin, 0, sin, cos, 0}
}

// SkewX creates a horizontal skew matrix. The angle is in degrees.
func SkewX(deg float64) Matrix2D {
	return Matrix2D{1, math.Tan(Radians(deg)), 0, 0, 1, 0}
}

// SkewY creates a vertical skew matrix. The angle is in degrees.
func SkewY(deg float64) Matrix2D {
	return Matrix2D{1, 0, 0, math.Tan(Radians(deg)), 1, 0}
}

// Multiply returns m * o: the result applies o first, then m.
func (m Matrix2D) Multiply(o Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*o[0] + m[1]*o[3],
		m[0]*o[1] + m[1]*o[4],
		m[0]*o[2] + m[1]*o[5] + m[2],
		m[3]*o[0] + m[4]*o[3],
		m[3]*o[1] + m[4]*o[4],
		m[3]*o[2] + m[4]*o[5] + m[5],
	}
}

// Apply transforms a point.
func (m Matrix2D) Apply(p Point) Point {
	return Point{
		X: m[0]*p.X + m[1]*p.Y + m[2],
		Y: m[3]*p.X + m[4]*p.Y + m[5],
	}
}

// ApplyVector transforms a direction (translation ignored).
func (m Matrix2D) ApplyVector(p Point) Point {
	return Point{
		X: m[0]*p.X + m[1]*p.Y,
		Y: m[3]*p.X + m[4]*p.Y,
	}
}

// Invert returns the inverse matrix. ok is false when m is singular.
func (m Matrix2D) Invert() (inv Matrix2D, ok bool) {
	det := m[0]*m[4] - m[1]*m[3]
	if math.Abs(det) < 1e-12 {
		return Identity(), false
	}
	d := 1 / det
	return Matrix2D{
		m[4] * d,
		-m[1] * d,
		(m[1]*m[5] - m[2]*m[4]) * d,
		-m[3] * d,
		m[0] * d,
		(m[2]*m[3] - m[0]*m[5]) * d,
	}, true
}

// IsIdentity reports whether m is exactly the identity.
func (m Matrix2D) IsIdentity() bool {
	return m == Identity()
}

// Aff3 exposes the underlying x/image representation.
func (m Matrix2D) Aff3() f64.Aff3 {
	return f64.Aff3(m)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Point is a 2D point or vector.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Vec2 converts to the x/image vector type.
func (p Point) Vec2() f64.Vec2 {
	return f64.Vec2{p.X, p.Y}
}

// PointFromVec2 converts from the x/image vector type.
func PointFromVec2(v f64.Vec2) Point {
	return Point{X: v[0], Y: v[1]}
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Mul returns p scaled by s.
func (p Point) Mul(s float64) Point { return Point{p.X * s, p.Y * s} }

// Len returns the vector length.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Lerp interpolates between p and q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

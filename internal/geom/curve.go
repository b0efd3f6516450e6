package geom

import "math"

// CubicBez is a cubic Bezier curve.
type CubicBez struct {
	P0, P1, P2, P3 Point
}

// Eval evaluates the curve at parameter t in [0,1].
func (c CubicBez) Eval(t float64) Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	d := 3 * mt * t * t
	e := t * t * t
	return Point{
		X: a*c.P0.X + b*c.P1.X + d*c.P2.X + e*c.P3.X,
		Y: a*c.P0.Y + b*c.P1.Y + d*c.P2.Y + e*c.P3.Y,
	}
}

// Deriv evaluates the first derivative at t.
func (c CubicBez) Deriv(t float64) Point {
	mt := 1 - t
	d0 := c.P1.Sub(c.P0)
	d1 := c.P2.Sub(c.P1)
	d2 := c.P3.Sub(c.P2)
	return Point{
		X: 3 * (d0.X*mt*mt + 2*d1.X*mt*t + d2.X*t*t),
		Y: 3 * (d0.Y*mt*mt + 2*d1.Y*mt*t + d2.Y*t*t),
	}
}

// Subsegment returns the portion of the curve between t0 and t1.
func (c CubicBez) Subsegment(t0, t1 float64) CubicBez {
	p0 := c.Eval(t0)
	p3 := c.Eval(t1)
	scale := (t1 - t0) / 3
	return CubicBez{
		P0: p0,
		P1: p0.Add(c.Deriv(t0).Mul(scale)),
		P2: p3.Sub(c.Deriv(t1).Mul(scale)),
		P3: p3,
	}
}

// SolveX finds the parameter t whose x coordinate equals x, for curves whose
// x is monotonic on [0,1] (timing functions). Newton iterations with a
// bisection fallback.
func (c CubicBez) SolveX(x float64) float64 {
	if x <= c.P0.X {
		return 0
	}
	if x >= c.P3.X {
		return 1
	}
	span := c.P3.X - c.P0.X
	u := (x - c.P0.X) / span
	for range 8 {
		dx := c.Eval(u).X - x
		if math.Abs(dx) < 1e-9 {
			return u
		}
		d := c.Deriv(u).X
		if math.Abs(d) < 1e-9 {
			break
		}
		u -= dx / d
		if u < 0 || u > 1 {
			break
		}
	}
	lo, hi := 0.0, 1.0
	u = (lo + hi) / 2
	for range 60 {
		dx := c.Eval(u).X - x
		if math.Abs(dx) < 1e-9 {
			break
		}
		if dx > 0 {
			hi = u
		} else {
			lo = u
		}
		u = (lo + hi) / 2
	}
	return u
}

// quadToCubic raises a quadratic Bezier to a cubic.
func quadToCubic(p0, q, p2 Point) CubicBez {
	return CubicBez{
		P0: p0,
		P1: p0.Add(q.Sub(p0).Mul(2.0 / 3)),
		P2: p2.Add(q.Sub(p2).Mul(2.0 / 3)),
		P3: p2,
	}
}

// arcToCubics converts an SVG elliptical arc (endpoint parameterisation) to
// cubic Beziers, each spanning at most 90 degrees.
func arcToCubics(p0 Point, rx, ry, xRotDeg float64, large, sweep bool, p1 Point) []CubicBez {
	if p0 == p1 {
		return nil
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		return []CubicBez{{P0: p0, P1: p0.Lerp(p1, 1.0/3), P2: p0.Lerp(p1, 2.0/3), P3: p1}}
	}
	sinPhi, cosPhi := math.Sincos(Radians(xRotDeg))

	dx := (p0.X - p1.X) / 2
	dy := (p0.Y - p1.Y) / 2
	x1p := cosPhi*dx + sinPhi*dy
	y1p := -sinPhi*dx + cosPhi*dy

	lambda := (x1p*x1p)/(rx*rx) + (y1p*y1p)/(ry*ry)
	if lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}

	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	coef := 0.0
	if den != 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx
	cx := cosPhi*cxp - sinPhi*cyp + (p0.X+p1.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (p0.Y+p1.Y)/2

	theta1 := vecAngle(1, 0, (x1p-cxp)/rx, (y1p-cyp)/ry)
	delta := vecAngle((x1p-cxp)/rx, (y1p-cyp)/ry, (-x1p-cxp)/rx, (-y1p-cyp)/ry)
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	n := int(math.Ceil(math.Abs(delta) / (math.Pi / 2)))
	if n < 1 {
		n = 1
	}
	step := delta / float64(n)
	k := 4.0 / 3 * math.Tan(step/4)

	point := func(theta float64) (Point, Point) {
		sin, cos := math.Sincos(theta)
		p := Point{
			X: cx + rx*cos*cosPhi - ry*sin*sinPhi,
			Y: cy + rx*cos*sinPhi + ry*sin*cosPhi,
		}
		d := Point{
			X: -rx*sin*cosPhi - ry*cos*sinPhi,
			Y: -rx*sin*sinPhi + ry*cos*cosPhi,
		}
		return p, d
	}

	out := make([]CubicBez, 0, n)
	start := p0
	for i := 0; i < n; i++ {
		a0 := theta1 + float64(i)*step
		a1 := a0 + step
		_, d0 := point(a0)
		e, d1 := point(a1)
		if i == n-1 {
			e = p1
		}
		out = append(out, CubicBez{
			P0: start,
			P1: start.Add(d0.Mul(k)),
			P2: e.Sub(d1.Mul(k)),
			P3: e,
		})
		start = e
	}
	return out
}

func vecAngle(ux, uy, vx, vy float64) float64 {
	return math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
}

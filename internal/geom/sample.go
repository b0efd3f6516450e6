package geom

import "math"

// flattenSteps is the number of chords each cubic is split into.
const flattenSteps = 32

// Sample is one point of a sampled path.
type Sample struct {
	// Fraction is the distance along the path as a fraction of its length.
	Fraction float64
	Position Point
	// Angle is the tangent direction in degrees.
	Angle float64
}

type chord struct {
	a, b  Point
	start float64 // cumulative length at a
	len   float64
}

// PathSampler answers distance-fraction queries on a flattened path.
type PathSampler struct {
	chords []chord
	length float64
	first  Point
}

// NewPathSampler flattens p into chords. Move-to jumps contribute no length.
func NewPathSampler(p *Path) *PathSampler {
	s := &PathSampler{}
	var cur, start Point
	started := false
	add := func(a, b Point) {
		l := b.Sub(a).Len()
		s.chords = append(s.chords, chord{a: a, b: b, start: s.length, len: l})
		s.length += l
	}
	for _, e := range p.Elements() {
		switch el := e.(type) {
		case MoveTo:
			cur, start = el.Point, el.Point
			if !started {
				s.first = cur
				started = true
			}
		case LineTo:
			add(cur, el.Point)
			cur = el.Point
		case CubicTo:
			c := CubicBez{P0: cur, P1: el.Control1, P2: el.Control2, P3: el.Point}
			prev := cur
			for i := 1; i <= flattenSteps; i++ {
				q := c.Eval(float64(i) / flattenSteps)
				if i == flattenSteps {
					q = el.Point
				}
				add(prev, q)
				prev = q
			}
			cur = el.Point
		case Close:
			if cur != start {
				add(cur, start)
			}
			cur = start
		}
	}
	return s
}

// Length returns the total path length.
func (s *PathSampler) Length() float64 {
	return s.length
}

// At returns the sample at distance fraction f, clamped to [0,1].
func (s *PathSampler) At(f float64) Sample {
	f = math.Max(0, math.Min(1, f))
	if len(s.chords) == 0 {
		return Sample{Fraction: f, Position: s.first}
	}
	d := f * s.length

	idx := -1
	for i, c := range s.chords {
		if c.len == 0 {
			continue
		}
		idx = i
		if d <= c.start+c.len {
			break
		}
	}
	if idx < 0 {
		c := s.chords[0]
		return Sample{Fraction: f, Position: c.a}
	}
	c := s.chords[idx]
	t := (d - c.start) / c.len
	t = math.Max(0, math.Min(1, t))
	pos := c.a.Lerp(c.b, t)
	if f == 1 {
		pos = c.b
	}
	dir := c.b.Sub(c.a)
	return Sample{
		Fraction: f,
		Position: pos,
		Angle:    Degrees(math.Atan2(dir.Y, dir.X)),
	}
}

// Sample returns n samples at uniform distance fractions. Fractions 0 and 1
// are always included exactly once; n below 2 is raised to 2.
func (s *PathSampler) Sample(n int) []Sample {
	if n < 2 {
		n = 2
	}
	out := make([]Sample, n)
	for i := range out {
		f := float64(i) / float64(n-1)
		if i == n-1 {
			f = 1
		}
		out[i] = s.At(f)
	}
	return out
}

// SamplePath parses d and returns n uniform samples. Malformed or empty path
// data yields an empty slice; callers treat that as an animation with no
// visual effect.
func SamplePath(d string, n int) []Sample {
	p, err := ParsePath(d)
	if err != nil || p.Empty() {
		return nil
	}
	return NewPathSampler(p).Sample(n)
}

// PathLength returns the length of path data, or 0 when malformed.
func PathLength(d string) float64 {
	p, err := ParsePath(d)
	if err != nil {
		return 0
	}
	return NewPathSampler(p).Length()
}

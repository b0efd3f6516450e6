package geom

import (
	"fmt"
	"strconv"
	"strings"
)

// PathElement is a single absolute path command. Quadratic curves and arcs
// are normalised to cubics at parse time.
type PathElement interface {
	isPathElement()
}

// MoveTo starts a new subpath.
type MoveTo struct {
	Point Point
}

func (MoveTo) isPathElement() {}

// LineTo draws a straight line.
type LineTo struct {
	Point Point
}

func (LineTo) isPathElement() {}

// CubicTo draws a cubic Bezier curve.
type CubicTo struct {
	Control1 Point
	Control2 Point
	Point    Point
}

func (CubicTo) isPathElement() {}

// Close closes the current subpath.
type Close struct{}

func (Close) isPathElement() {}

// Path is a parsed vector path.
type Path struct {
	elements []PathElement
}

// Elements returns the path commands.
func (p *Path) Elements() []PathElement {
	return p.elements
}

// Empty reports whether the path has no drawing commands.
func (p *Path) Empty() bool {
	for _, e := range p.elements {
		if _, ok := e.(MoveTo); !ok {
			return false
		}
	}
	return true
}

// Transform returns a copy of the path with m applied to every point.
func (p *Path) Transform(m Matrix2D) *Path {
	out := &Path{elements: make([]PathElement, len(p.elements))}
	for i, e := range p.elements {
		switch el := e.(type) {
		case MoveTo:
			out.elements[i] = MoveTo{Point: m.Apply(el.Point)}
		case LineTo:
			out.elements[i] = LineTo{Point: m.Apply(el.Point)}
		case CubicTo:
			out.elements[i] = CubicTo{
				Control1: m.Apply(el.Control1),
				Control2: m.Apply(el.Control2),
				Point:    m.Apply(el.Point),
			}
		case Close:
			out.elements[i] = el
		}
	}
	return out
}

// Format serialises the path as absolute SVG path data.
func (p *Path) Format(prec int) string {
	var b strings.Builder
	pt := func(q Point) {
		b.WriteString(FormatFloat(q.X, prec))
		b.WriteByte(',')
		b.WriteString(FormatFloat(q.Y, prec))
	}
	for i, e := range p.elements {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch el := e.(type) {
		case MoveTo:
			b.WriteByte('M')
			pt(el.Point)
		case LineTo:
			b.WriteByte('L')
			pt(el.Point)
		case CubicTo:
			b.WriteByte('C')
			pt(el.Control1)
			b.WriteByte(' ')
			pt(el.Control2)
			b.WriteByte(' ')
			pt(el.Point)
		case Close:
			b.WriteByte('Z')
		}
	}
	return b.String()
}

// String serialises the path with three fractional digits.
func (p *Path) String() string {
	return p.Format(3)
}

// Points returns the on-curve end points of every command, in order.
func (p *Path) Points() []Point {
	var pts []Point
	for _, e := range p.elements {
		switch el := e.(type) {
		case MoveTo:
			pts = append(pts, el.Point)
		case LineTo:
			pts = append(pts, el.Point)
		case CubicTo:
			pts = append(pts, el.Point)
		}
	}
	return pts
}

// PolylinePath builds "M p0 L p1 L p2 ..." from a point sequence.
func PolylinePath(pts []Point) *Path {
	p := &Path{}
	for i, q := range pts {
		if i == 0 {
			p.elements = append(p.elements, MoveTo{Point: q})
			continue
		}
		p.elements = append(p.elements, LineTo{Point: q})
	}
	return p
}

// ParsePath parses SVG path data. All commands of SVG 1.1 are accepted.
func ParsePath(d string) (*Path, error) {
	s := &pathScanner{src: d}
	p := &Path{}
	var (
		cmd          byte
		cur, start   Point
		lastCtrl     Point
		lastWasCubic bool
		lastWasQuad  bool
		lastQuadCtrl Point
	)

	for {
		s.skipSeparators()
		if s.done() {
			break
		}
		if c := s.peek(); isCommand(c) {
			cmd = c
			s.pos++
		} else if cmd == 0 {
			return nil, fmt.Errorf("path data must begin with a command at offset %d", s.pos)
		}

		rel := cmd >= 'a' && cmd <= 'z'
		abs := func(q Point) Point {
			if rel {
				return q.Add(cur)
			}
			return q
		}

		cubic, quad := false, false
		switch cmd {
		case 'M', 'm':
			q, err := s.point()
			if err != nil {
				return nil, err
			}
			cur = abs(q)
			start = cur
			p.elements = append(p.elements, MoveTo{Point: cur})
			// Implicit repeats after a moveto are linetos.
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'L', 'l':
			q, err := s.point()
			if err != nil {
				return nil, err
			}
			cur = abs(q)
			p.elements = append(p.elements, LineTo{Point: cur})
		case 'H', 'h':
			x, err := s.number()
			if err != nil {
				return nil, err
			}
			if rel {
				x += cur.X
			}
			cur = Point{X: x, Y: cur.Y}
			p.elements = append(p.elements, LineTo{Point: cur})
		case 'V', 'v':
			y, err := s.number()
			if err != nil {
				return nil, err
			}
			if rel {
				y += cur.Y
			}
			cur = Point{X: cur.X, Y: y}
			p.elements = append(p.elements, LineTo{Point: cur})
		case 'C', 'c':
			pts, err := s.points(3)
			if err != nil {
				return nil, err
			}
			c1, c2, end := abs(pts[0]), abs(pts[1]), abs(pts[2])
			p.elements = append(p.elements, CubicTo{Control1: c1, Control2: c2, Point: end})
			lastCtrl, cur, cubic = c2, end, true
		case 'S', 's':
			pts, err := s.points(2)
			if err != nil {
				return nil, err
			}
			c1 := cur
			if lastWasCubic {
				c1 = cur.Mul(2).Sub(lastCtrl)
			}
			c2, end := abs(pts[0]), abs(pts[1])
			p.elements = append(p.elements, CubicTo{Control1: c1, Control2: c2, Point: end})
			lastCtrl, cur, cubic = c2, end, true
		case 'Q', 'q':
			pts, err := s.points(2)
			if err != nil {
				return nil, err
			}
			q, end := abs(pts[0]), abs(pts[1])
			c := quadToCubic(cur, q, end)
			p.elements = append(p.elements, CubicTo{Control1: c.P1, Control2: c.P2, Point: end})
			lastQuadCtrl, cur, quad = q, end, true
		case 'T', 't':
			pt, err := s.point()
			if err != nil {
				return nil, err
			}
			q := cur
			if lastWasQuad {
				q = cur.Mul(2).Sub(lastQuadCtrl)
			}
			end := abs(pt)
			c := quadToCubic(cur, q, end)
			p.elements = append(p.elements, CubicTo{Control1: c.P1, Control2: c.P2, Point: end})
			lastQuadCtrl, cur, quad = q, end, true
		case 'A', 'a':
			rx, err := s.number()
			if err != nil {
				return nil, err
			}
			ry, err := s.number()
			if err != nil {
				return nil, err
			}
			rot, err := s.number()
			if err != nil {
				return nil, err
			}
			large, err := s.flag()
			if err != nil {
				return nil, err
			}
			sweep, err := s.flag()
			if err != nil {
				return nil, err
			}
			pt, err := s.point()
			if err != nil {
				return nil, err
			}
			end := abs(pt)
			for _, c := range arcToCubics(cur, rx, ry, rot, large, sweep, end) {
				p.elements = append(p.elements, CubicTo{Control1: c.P1, Control2: c.P2, Point: c.P3})
			}
			cur = end
		case 'Z', 'z':
			p.elements = append(p.elements, Close{})
			cur = start
			cmd = 0
		default:
			return nil, fmt.Errorf("unknown path command %q", cmd)
		}
		lastWasCubic, lastWasQuad = cubic, quad
	}

	if len(p.elements) == 0 {
		return nil, fmt.Errorf("empty path data")
	}
	if _, ok := p.elements[0].(MoveTo); !ok {
		return nil, fmt.Errorf("path data must begin with moveto")
	}
	return p, nil
}

func isCommand(c byte) bool {
	return strings.IndexByte("MmLlHhVvCcSsQqTtAaZz", c) >= 0
}

type pathScanner struct {
	src string
	pos int
}

func (s *pathScanner) done() bool { return s.pos >= len(s.src) }

func (s *pathScanner) peek() byte { return s.src[s.pos] }

func (s *pathScanner) skipSeparators() {
	for !s.done() {
		switch s.peek() {
		case ' ', '\t', '\n', '\r', ',':
			s.pos++
		default:
			return
		}
	}
}

func (s *pathScanner) number() (float64, error) {
	s.skipSeparators()
	start := s.pos
	if !s.done() && (s.peek() == '+' || s.peek() == '-') {
		s.pos++
	}
	digits, dot, exp := false, false, false
scan:
	for !s.done() {
		c := s.peek()
		switch {
		case c >= '0' && c <= '9':
			digits = true
			s.pos++
		case c == '.' && !dot && !exp:
			dot = true
			s.pos++
		case (c == 'e' || c == 'E') && digits && !exp:
			exp = true
			s.pos++
			if !s.done() && (s.peek() == '+' || s.peek() == '-') {
				s.pos++
			}
		default:
			break scan
		}
	}
	if !digits {
		return 0, fmt.Errorf("expected number at offset %d", start)
	}
	v, err := strconv.ParseFloat(s.src[start:s.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q at offset %d", s.src[start:s.pos], start)
	}
	return v, nil
}

func (s *pathScanner) flag() (bool, error) {
	s.skipSeparators()
	if s.done() {
		return false, fmt.Errorf("expected arc flag at end of path data")
	}
	switch s.peek() {
	case '0':
		s.pos++
		return false, nil
	case '1':
		s.pos++
		return true, nil
	}
	return false, fmt.Errorf("invalid arc flag at offset %d", s.pos)
}

func (s *pathScanner) point() (Point, error) {
	x, err := s.number()
	if err != nil {
		return Point{}, err
	}
	y, err := s.number()
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

func (s *pathScanner) points(n int) ([]Point, error) {
	pts := make([]Point, n)
	for i := range pts {
		p, err := s.point()
		if err != nil {
			return nil, err
		}
		pts[i] = p
	}
	return pts, nil
}

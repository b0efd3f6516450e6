package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func assertPoint(t *testing.T, want, got Point) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-6, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-6, "y")
}

func TestComposeMatrixTypes(t *testing.T) {
	tests := []struct {
		name   string
		typ    TransformType
		params []float64
		in     Point
		want   Point
	}{
		{"translate", TransformTranslate, []float64{10, 5}, Pt(1, 1), Pt(11, 6)},
		{"translate x only", TransformTranslate, []float64{10}, Pt(1, 1), Pt(11, 1)},
		{"uniform scale", TransformScale, []float64{2}, Pt(3, 4), Pt(6, 8)},
		{"scale xy", TransformScale, []float64{2, 3}, Pt(3, 4), Pt(6, 12)},
		{"rotate 90", TransformRotate, []float64{90}, Pt(1, 0), Pt(0, 1)},
		{"rotate about center", TransformRotate, []float64{90, 10, 10}, Pt(20, 10), Pt(10, 20)},
		{"skewX 45", TransformSkewX, []float64{45}, Pt(0, 10), Pt(10, 10)},
		{"skewY 45", TransformSkewY, []float64{45}, Pt(10, 0), Pt(10, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ComposeMatrix(tt.typ, tt.params)
			require.NoError(t, err)
			assertPoint(t, tt.want, m.Apply(tt.in))
		})
	}
}

func TestComposeMatrixRejectsArity(t *testing.T) {
	_, err := ComposeMatrix(TransformRotate, []float64{1, 2})
	assert.Error(t, err)

	_, err = ComposeMatrix(TransformSkewX, nil)
	assert.Error(t, err)

	_, err = ComposeMatrix(TransformNone, []float64{1})
	assert.Error(t, err)
}

func TestApplyTransformsReverseOrder(t *testing.T) {
	// translate(100,0) scale(2): the scale is innermost.
	ts := []Transform{
		{Type: TransformTranslate, Params: []float64{100, 0}},
		{Type: TransformScale, Params: []float64{2}},
	}
	out, err := ApplyTransforms(ts, []Point{Pt(1, 1)})
	require.NoError(t, err)
	assertPoint(t, Pt(102, 2), out[0])

	m, err := Compose(ts)
	require.NoError(t, err)
	assertPoint(t, out[0], m.Apply(Pt(1, 1)))
}

func TestApplyTransformsOrigin(t *testing.T) {
	origin := Pt(50, 50)
	ts := []Transform{{Type: TransformScale, Params: []float64{2}, Origin: &origin}}

	out, err := ApplyTransforms(ts, []Point{Pt(50, 50), Pt(60, 50)})
	require.NoError(t, err)
	assertPoint(t, Pt(50, 50), out[0])
	assertPoint(t, Pt(70, 50), out[1])
}

func TestApplyTransformsDoesNotMutateInput(t *testing.T) {
	in := []Point{Pt(1, 2)}
	_, err := ApplyTransforms([]Transform{{Type: TransformTranslate, Params: []float64{5, 5}}}, in)
	require.NoError(t, err)
	assert.Equal(t, Pt(1, 2), in[0])
}

func TestMatrixInvert(t *testing.T) {
	m := Translate(3, 4).Multiply(Rotate(30)).Multiply(Scale(2, 2))
	inv, ok := m.Invert()
	require.True(t, ok)
	assert.True(t, approxIdentity(m.Multiply(inv)))

	_, ok = Scale(0, 1).Invert()
	assert.False(t, ok)
}

func approxIdentity(m Matrix2D) bool {
	id := Identity()
	for i := range m {
		if math.Abs(m[i]-id[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestParseTransformList(t *testing.T) {
	ts, err := ParseTransformList("translate(10,20) rotate(45 5 5)  scale(2)")
	require.NoError(t, err)
	require.Len(t, ts, 3)
	assert.Equal(t, TransformTranslate, ts[0].Type)
	assert.Equal(t, []float64{10, 20}, ts[0].Params)
	assert.Equal(t, TransformRotate, ts[1].Type)
	assert.Equal(t, []float64{45, 5, 5}, ts[1].Params)
	assert.Equal(t, TransformScale, ts[2].Type)

	_, err = ParseTransformList("matrix(1 0 0 1 0 0)")
	assert.Error(t, err)

	_, err = ParseTransformList("rotate(1 2)")
	assert.Error(t, err)
}

func TestParsePathRoundTrip(t *testing.T) {
	p, err := ParsePath("M10 10 h 20 v20 H10 z")
	require.NoError(t, err)
	assert.Equal(t, "M10,10 L30,10 L30,30 L10,30 Z", p.String())
	assert.Equal(t, []Point{Pt(10, 10), Pt(30, 10), Pt(30, 30), Pt(10, 30)}, p.Points())

	again, err := ParsePath(p.String())
	require.NoError(t, err)
	assert.Equal(t, p.Elements(), again.Elements())
}

func TestParsePathCompactNumbers(t *testing.T) {
	p, err := ParsePath("m0-5l.5.5-1e1,0")
	require.NoError(t, err)
	assert.Equal(t, []Point{Pt(0, -5), Pt(0.5, -4.5), Pt(-9.5, -4.5)}, p.Points())
}

func TestParsePathMalformed(t *testing.T) {
	for _, d := range []string{"", "10 10", "M10", "M0 0 X 5 5", "M0 0 A 5 5 0 2 0 10 10"} {
		_, err := ParsePath(d)
		assert.Error(t, err, "path %q", d)
	}
}

func TestPathTransform(t *testing.T) {
	p, err := ParsePath("M0 0 L10 0")
	require.NoError(t, err)
	moved := p.Transform(Translate(5, 5))
	assert.Equal(t, "M5,5 L15,5", moved.String())
	assert.Equal(t, "M0,0 L10,0", p.String(), "original untouched")
}

func TestSampleStraightLine(t *testing.T) {
	samples := SamplePath("M0 0 L100 0", 2)
	require.Len(t, samples, 2)

	assert.Equal(t, 0.0, samples[0].Fraction)
	assert.Equal(t, 1.0, samples[1].Fraction)
	assertPoint(t, Pt(0, 0), samples[0].Position)
	assertPoint(t, Pt(100, 0), samples[1].Position)
	assert.InDelta(t, 0, samples[0].Angle, eps)
	assert.InDelta(t, 0, samples[1].Angle, eps)
}

func TestSampleDiagonalAngle(t *testing.T) {
	samples := SamplePath("M0 0 L10 10", 3)
	require.Len(t, samples, 3)
	for _, s := range samples {
		assert.InDelta(t, 45, s.Angle, 1e-9)
	}
	assertPoint(t, Pt(5, 5), samples[1].Position)
}

func TestSampleAcrossCorner(t *testing.T) {
	s, err := ParsePath("M0 0 L10 0 L10 10")
	require.NoError(t, err)
	sampler := NewPathSampler(s)
	assert.InDelta(t, 20, sampler.Length(), eps)

	q := sampler.At(0.75)
	assertPoint(t, Pt(10, 5), q.Position)
	assert.InDelta(t, 90, q.Angle, eps)
}

func TestSampleMalformedIsEmpty(t *testing.T) {
	assert.Empty(t, SamplePath("M0 0 L", 5))
	assert.Empty(t, SamplePath("not a path", 5))
	assert.Empty(t, SamplePath("M5 5", 5))
}

func TestSampleMinimumCount(t *testing.T) {
	samples := SamplePath("M0 0 L1 0", 0)
	require.Len(t, samples, 2)
	assert.Equal(t, 1.0, samples[1].Fraction)
}

func TestArcLengthHalfCircle(t *testing.T) {
	l := PathLength("M0 0 A 50 50 0 0 1 100 0")
	assert.InDelta(t, math.Pi*50, l, 0.1)
}

func TestQuadraticPathEndpoints(t *testing.T) {
	p, err := ParsePath("M0 0 Q 50 100 100 0 T 200 0")
	require.NoError(t, err)
	pts := p.Points()
	assertPoint(t, Pt(100, 0), pts[1])
	assertPoint(t, Pt(200, 0), pts[2])
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "1.5", FormatFloat(1.5, 3))
	assert.Equal(t, "2", FormatFloat(2.0004, 3))
	assert.Equal(t, "0", FormatFloat(-0.0001, 3))
	assert.Equal(t, "0.125", FormatFloat(0.125, -1))
}

func TestVec2Conversion(t *testing.T) {
	p := Pt(3, -4)
	assert.Equal(t, p, PointFromVec2(p.Vec2()))
	assert.InDelta(t, 5, p.Len(), eps)
}

func TestTransformTypeText(t *testing.T) {
	b, err := TransformSkewX.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "skewX", string(b))

	var tt TransformType
	require.NoError(t, tt.UnmarshalText([]byte("rotate")))
	assert.Equal(t, TransformRotate, tt)
	require.NoError(t, tt.UnmarshalText(nil))
	assert.Equal(t, TransformNone, tt)
	assert.Error(t, tt.UnmarshalText([]byte("matrix")))
}

package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/animsync/internal/geom"
	"github.com/roach88/animsync/internal/ir"
)

func line(rotate ir.RotatePolicy) *ir.MotionKeyframe {
	return &ir.MotionKeyframe{
		TransformKeyframe: ir.TransformKeyframe{
			Keyframe: ir.Keyframe{Base: ir.Base{
				AttributeName: "transform", Duration: 1000, IterationCount: 1, GroupID: 3,
			}},
			Type: geom.TransformTranslate,
		},
		PathData: "M0 0 L100 0",
		Rotate:   rotate,
	}
}

func TestExpandStraightLineAutoRotate(t *testing.T) {
	exp, err := Expand(line(ir.RotatePolicy{Mode: ir.RotateAuto}), Options{SampleCount: 5})
	require.NoError(t, err)

	tr := exp.Translate
	assert.Equal(t, []string{"0 0", "25 0", "50 0", "75 0", "100 0"}, tr.Values)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, tr.KeyTimes)
	assert.Equal(t, geom.TransformTranslate, tr.Type)
	assert.Equal(t, int64(3), tr.GroupID, "timing and grouping are copied")
	assert.Equal(t, 1000.0, tr.Duration)

	require.NotNil(t, exp.Rotate)
	assert.Equal(t, geom.TransformRotate, exp.Rotate.Type)
	for _, v := range exp.Rotate.Values {
		assert.Equal(t, "0", v)
	}
}

func TestExpandAutoReverse(t *testing.T) {
	exp, err := Expand(line(ir.RotatePolicy{Mode: ir.RotateAutoReverse}), Options{SampleCount: 3})
	require.NoError(t, err)
	require.NotNil(t, exp.Rotate)
	assert.Equal(t, []string{"180", "180", "180"}, exp.Rotate.Values)
}

func TestExpandFixedAngle(t *testing.T) {
	exp, err := Expand(line(ir.RotatePolicy{Mode: ir.RotateFixed}), Options{SampleCount: 3})
	require.NoError(t, err)
	assert.Nil(t, exp.Rotate, "zero fixed angle adds no rotation")

	exp, err = Expand(line(ir.RotatePolicy{Mode: ir.RotateFixed, Angle: 45}), Options{SampleCount: 3})
	require.NoError(t, err)
	require.NotNil(t, exp.Rotate)
	assert.Equal(t, []string{"45", "45", "45"}, exp.Rotate.Values)
}

func TestExpandFrameRate(t *testing.T) {
	exp, err := Expand(line(ir.RotatePolicy{}), Options{FrameRate: 10})
	require.NoError(t, err)
	assert.Len(t, exp.Translate.Values, 11)
}

func TestExpandKeyPoints(t *testing.T) {
	m := line(ir.RotatePolicy{})
	m.KeyTimes = []float64{0, 1}
	m.KeyPoints = []float64{0, 0.5}
	exp, err := Expand(m, Options{SampleCount: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"0 0", "25 0", "50 0"}, exp.Translate.Values)
}

func TestExpandKeyPointsIgnoredWhenMismatched(t *testing.T) {
	m := line(ir.RotatePolicy{})
	m.KeyTimes = []float64{0, 0.5, 1}
	m.KeyPoints = []float64{0, 0.5}
	exp, err := Expand(m, Options{SampleCount: 3})
	require.NoError(t, err)
	assert.Equal(t, "100 0", exp.Translate.Values[len(exp.Translate.Values)-1])
}

func TestExpandPathRefTransform(t *testing.T) {
	m := line(ir.RotatePolicy{})
	m.PathData = ""
	m.PathRef = &ir.PathRef{
		ID:       "track",
		PathData: "M0 0 L10 0",
		Transforms: []geom.Transform{
			{Type: geom.TransformTranslate, Params: []float64{5, 5}},
		},
	}
	exp, err := Expand(m, Options{SampleCount: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"5 5", "15 5"}, exp.Translate.Values)
}

func TestExpandValuesWaypoints(t *testing.T) {
	m := line(ir.RotatePolicy{Mode: ir.RotateAuto})
	m.PathData = ""
	m.Values = []string{"0,0", "10,0", "10,10"}
	exp, err := Expand(m, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"0 0", "10 0", "10 0", "10 10"}, exp.Translate.Values)
	assert.Equal(t, []float64{0, 0.5, 0.5, 1}, exp.Translate.KeyTimes)
	require.NotNil(t, exp.Rotate)
	assert.Equal(t, []string{"0", "0", "90", "90"}, exp.Rotate.Values)
}

func TestExpandEmptyPath(t *testing.T) {
	for _, data := range []string{"M", "Mx 0", "M0 0", "M5 5 L5 5"} {
		m := line(ir.RotatePolicy{})
		m.PathData = data
		_, err := Expand(m, Options{})
		assert.ErrorIs(t, err, ErrEmptyPath, data)
	}
}

func TestExpandLeavesInputUntouched(t *testing.T) {
	m := line(ir.RotatePolicy{Mode: ir.RotateAuto})
	before := m.Clone()
	_, err := Expand(m, Options{SampleCount: 4})
	require.NoError(t, err)
	assert.Equal(t, before, ir.Descriptor(m))
}

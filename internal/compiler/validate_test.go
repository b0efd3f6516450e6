package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/animsync/internal/geom"
	"github.com/roach88/animsync/internal/ir"
)

func validKeyframe() *ir.Keyframe {
	return &ir.Keyframe{
		Base: ir.Base{
			AttributeName:  "opacity",
			Duration:       1000,
			IterationCount: 1,
			GroupID:        1,
		},
		Values: []string{"0", "1"},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	assert.Empty(t, Validate(validKeyframe()))
	assert.Empty(t, Validate(&ir.Setter{Base: ir.Base{AttributeName: "x"}, To: "1"}))
	assert.Empty(t, Validate([]ir.Descriptor{validKeyframe()}))
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate("not a descriptor")
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedType, errs[0].Code)
}

func TestValidateKeyframe(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(k *ir.Keyframe)
		code   string
	}{
		{"attribute", func(k *ir.Keyframe) { k.AttributeName = " " }, ErrAttributeEmpty},
		{"duration", func(k *ir.Keyframe) { k.Duration = ir.Undefined }, ErrDurationUndefined},
		{"values", func(k *ir.Keyframe) { k.Values = nil }, ErrNoValues},
		{"key times length", func(k *ir.Keyframe) { k.KeyTimes = []float64{0} }, ErrKeyTimesLength},
		{"key times order", func(k *ir.Keyframe) { k.KeyTimes = []float64{0.5, 0.2} }, ErrKeyTimesOrder},
		{"key times range", func(k *ir.Keyframe) { k.KeyTimes = []float64{0, 1.5} }, ErrKeyTimesOrder},
		{"key splines", func(k *ir.Keyframe) { k.CalcMode = ir.CalcSpline }, ErrKeySplinesLength},
		{"iteration count", func(k *ir.Keyframe) { k.IterationCount = 0 }, ErrIterationCount},
		{"repeat duration", func(k *ir.Keyframe) { k.RepeatDuration = -5 }, ErrRepeatDuration},
		{"interpolation", func(k *ir.Keyframe) { k.Values = []string{"0", "10px"} }, ErrInterpolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := validKeyframe()
			tt.mutate(k)
			assert.Contains(t, codes(Validate(k)), tt.code)
		})
	}
}

func TestValidateDiscreteSkipsInterpolation(t *testing.T) {
	k := validKeyframe()
	k.AttributeName = "visibility"
	k.Values = []string{"visible", "10px"}
	k.CalcMode = ir.CalcDiscrete
	assert.Empty(t, Validate(k))
}

func TestValidateCollectsAll(t *testing.T) {
	k := validKeyframe()
	k.AttributeName = ""
	k.Duration = 0
	k.IterationCount = -3
	errs := Validate(k)
	assert.ElementsMatch(t,
		[]string{ErrAttributeEmpty, ErrDurationUndefined, ErrIterationCount},
		codes(errs))
	for _, e := range errs {
		assert.Contains(t, e.Error(), "descriptor.")
	}
}

func TestValidateTransformOrigins(t *testing.T) {
	tk := &ir.TransformKeyframe{
		Keyframe: *validKeyframe(),
		Type:     geom.TransformRotate,
		Origins:  []geom.Point{geom.Pt(0, 0), geom.Pt(1, 1), geom.Pt(2, 2)},
	}
	tk.AttributeName = "transform"
	assert.Equal(t, []string{ErrOriginsLength}, codes(Validate(tk)))

	tk.Origins = tk.Origins[:1]
	assert.Empty(t, Validate(tk))
}

func TestValidateMotion(t *testing.T) {
	motion := func() *ir.MotionKeyframe {
		m := &ir.MotionKeyframe{PathData: "M0,0 L10,0", Rotate: ir.RotatePolicy{Mode: ir.RotateAuto}}
		m.Keyframe = *validKeyframe()
		m.AttributeName = "transform"
		m.Values = nil
		return m
	}
	assert.Empty(t, Validate(motion()))

	m := motion()
	m.PathData = ""
	assert.Equal(t, []string{ErrMotionNoPath}, codes(Validate(m)))

	m = motion()
	m.PathData = "M0,0 Q"
	assert.Equal(t, []string{ErrMotionBadPath}, codes(Validate(m)))

	m = motion()
	m.PathData = ""
	m.PathRef = &ir.PathRef{PathData: "M0 0 L5 5"}
	assert.Empty(t, Validate(m))

	m = motion()
	m.KeyPoints = []float64{0, 1}
	assert.Equal(t, []string{ErrMotionKeyPoints}, codes(Validate(m)))

	m = motion()
	m.Rotate.Mode = "spin"
	assert.Equal(t, []string{ErrMotionRotate}, codes(Validate(m)))
}

func TestValidateDuplicateGroupID(t *testing.T) {
	errs := Validate([]ir.Descriptor{validKeyframe(), validKeyframe()})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateGroupID, errs[0].Code)
	assert.Equal(t, "descriptors[1].group_id", errs[0].Field)
}

func TestValidateCompiled(t *testing.T) {
	c := &Compiled{Targets: []CompiledTarget{
		{ID: "a", Descriptors: []ir.Descriptor{validKeyframe()}},
		{ID: "a", Descriptors: []ir.Descriptor{validKeyframe()}},
	}}
	errs := Validate(c)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateTargetID, errs[0].Code)
}

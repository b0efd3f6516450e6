package testutil

import (
	"github.com/roach88/animsync/internal/geom"
	"github.com/roach88/animsync/internal/ir"
)

// Descriptor builders for tests. Every builder returns a descriptor that
// plays once with no fill and GroupID 0; use Stamp to assign ids.

// Keyframe builds a plain attribute keyframe with uniform key times.
func Keyframe(attr string, delay, dur float64, values ...string) *ir.Keyframe {
	return &ir.Keyframe{
		Base: ir.Base{
			AttributeName:  attr,
			Delay:          delay,
			Duration:       dur,
			IterationCount: 1,
		},
		Values: values,
	}
}

// Setter builds a setter of attr at delay.
func Setter(attr string, delay float64, to string) *ir.Setter {
	return &ir.Setter{
		Base: ir.Base{AttributeName: attr, Delay: delay, IterationCount: 1},
		To:   to,
	}
}

// Transform builds a transform keyframe on one channel.
func Transform(typ geom.TransformType, delay, dur float64, values ...string) *ir.TransformKeyframe {
	k := Keyframe("transform", delay, dur, values...)
	return &ir.TransformKeyframe{Keyframe: *k, Type: typ}
}

// Motion builds a motion keyframe along path data d.
func Motion(d string, delay, dur float64) *ir.MotionKeyframe {
	k := Keyframe("transform", delay, dur)
	return &ir.MotionKeyframe{
		TransformKeyframe: ir.TransformKeyframe{Keyframe: *k, Type: geom.TransformTranslate},
		PathData:          d,
		Rotate:            ir.RotatePolicy{Mode: ir.RotateFixed},
	}
}

// Frozen sets fill freeze on d and returns it.
func Frozen[D ir.Descriptor](d D) D {
	d.Common().Fill |= ir.FillFreeze
	return d
}

// Repeat sets the iteration count of d and returns it. Use ir.Infinite to
// repeat forever.
func Repeat[D ir.Descriptor](d D, count float64) D {
	d.Common().IterationCount = count
	return d
}

// Stamp assigns groupIds from ids in argument order and returns the list.
// A nil ids numbers the descriptors from 1.
func Stamp(ids interface{ Next() int64 }, ds ...ir.Descriptor) []ir.Descriptor {
	if ids == nil {
		ids = NewDeterministicClock()
	}
	for _, d := range ds {
		d.Common().GroupID = ids.Next()
	}
	return ds
}

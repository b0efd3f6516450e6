package ir

import (
	"fmt"
	"math"
	"slices"

	"github.com/roach88/animsync/internal/geom"
)

// Sentinel timing values.
const (
	// Undefined marks a duration that never resolves.
	Undefined = -1
	// Infinite marks an iteration count or repeat duration that never ends.
	Infinite = -1
)

// Kind names a Descriptor variant.
type Kind string

const (
	KindSetter            Kind = "setter"
	KindKeyframe          Kind = "keyframe"
	KindTransformKeyframe Kind = "transform_keyframe"
	KindMotionKeyframe    Kind = "motion_keyframe"
)

// Descriptor is one declarative animation unit.
//
// Sealed: only *Setter, *Keyframe, *TransformKeyframe and *MotionKeyframe
// implement it. Consumers switch on the concrete type and treat any other
// case as a programming error.
type Descriptor interface {
	// Common returns the shared timing and grouping fields.
	Common() *Base
	// Kind returns the variant tag used in serialised form.
	Kind() Kind
	// Key returns the merge group the descriptor belongs to.
	Key() Key
	// Clone returns a deep copy.
	Clone() Descriptor

	sealed()
}

// Base holds the fields every descriptor carries.
type Base struct {
	AttributeName string `json:"attribute_name"`
	// Delay is the resolved start time in milliseconds.
	Delay float64 `json:"delay"`
	// Duration is the simple duration in milliseconds, or Undefined.
	Duration float64 `json:"duration"`
	// IterationCount may be fractional, or Infinite.
	IterationCount float64  `json:"iteration_count"`
	Fill           FillMode `json:"fill,omitempty"`
	// GroupID is the creation order; higher wins ties.
	GroupID int64 `json:"group_id"`
	// GroupName and Ordering identify siblings declared together.
	GroupName string    `json:"group_name,omitempty"`
	Ordering  int       `json:"ordering,omitempty"`
	State     SyncState `json:"state,omitempty"`
}

// Common implements Descriptor for every embedding variant.
func (b *Base) Common() *Base { return b }

// Setter assigns a literal value at Delay with zero duration.
type Setter struct {
	Base
	// Transform narrows the setter to a transform channel when set.
	Transform geom.TransformType `json:"transform_type,omitempty"`
	To        string             `json:"to"`
}

// CalcMode selects keyframe interpolation.
type CalcMode string

const (
	CalcLinear   CalcMode = "linear"
	CalcDiscrete CalcMode = "discrete"
	CalcPaced    CalcMode = "paced"
	CalcSpline   CalcMode = "spline"
)

// Keyframe animates through Values at KeyTimes within each iteration.
type Keyframe struct {
	Base
	Values     []string  `json:"values"`
	KeyTimes   []float64 `json:"key_times,omitempty"`
	KeySplines []Spline  `json:"key_splines,omitempty"`
	CalcMode   CalcMode  `json:"calc_mode,omitempty"`
	Reverse    bool      `json:"reverse,omitempty"`
	Alternate  bool      `json:"alternate,omitempty"`
	// AdditiveSum adds the underlying value; AccumulateSum adds
	// iteration × last value.
	AdditiveSum   bool `json:"additive_sum,omitempty"`
	AccumulateSum bool `json:"accumulate_sum,omitempty"`
	// RepeatDuration caps the active duration when positive, or is Infinite.
	RepeatDuration float64 `json:"repeat_duration,omitempty"`
}

// TransformKeyframe animates one transform channel.
type TransformKeyframe struct {
	Keyframe
	Type geom.TransformType `json:"transform_type"`
	// Origins is empty or holds one origin per value.
	Origins []geom.Point `json:"transform_origins,omitempty"`
}

// RotateMode is the rotation policy of a motion path.
type RotateMode string

const (
	RotateFixed       RotateMode = "fixed"
	RotateAuto        RotateMode = "auto"
	RotateAutoReverse RotateMode = "auto-reverse"
)

// RotatePolicy pairs a mode with the fixed angle in degrees.
type RotatePolicy struct {
	Mode  RotateMode `json:"mode"`
	Angle float64    `json:"angle,omitempty"`
}

// PathRef is a referenced path element: its data and static transform.
type PathRef struct {
	ID         string           `json:"id,omitempty"`
	PathData   string           `json:"path_data"`
	Transforms []geom.Transform `json:"transforms,omitempty"`
}

// MotionKeyframe moves the target along a path. Type is always translate.
type MotionKeyframe struct {
	TransformKeyframe
	PathData  string       `json:"path_data,omitempty"`
	PathRef   *PathRef     `json:"path_ref,omitempty"`
	Rotate    RotatePolicy `json:"rotate"`
	KeyPoints []float64    `json:"key_points,omitempty"`
}

func (*Setter) sealed()            {}
func (*Keyframe) sealed()          {}
func (*TransformKeyframe) sealed() {}
func (*MotionKeyframe) sealed()    {}

func (*Setter) Kind() Kind            { return KindSetter }
func (*Keyframe) Kind() Kind          { return KindKeyframe }
func (*TransformKeyframe) Kind() Kind { return KindTransformKeyframe }
func (*MotionKeyframe) Kind() Kind    { return KindMotionKeyframe }

func (s *Setter) Key() Key {
	if s.Transform != geom.TransformNone {
		return TransformKey(s.Transform)
	}
	return AttrKey(s.AttributeName)
}

func (k *Keyframe) Key() Key { return AttrKey(k.AttributeName) }

func (k *TransformKeyframe) Key() Key { return TransformKey(k.Type) }

func (m *MotionKeyframe) Key() Key { return TransformKey(geom.TransformTranslate) }

func (s *Setter) Clone() Descriptor {
	c := *s
	return &c
}

func (k *Keyframe) Clone() Descriptor {
	c := k.clone()
	return &c
}

func (k *Keyframe) clone() Keyframe {
	c := *k
	c.Values = slices.Clone(k.Values)
	c.KeyTimes = slices.Clone(k.KeyTimes)
	c.KeySplines = slices.Clone(k.KeySplines)
	return c
}

func (k *TransformKeyframe) Clone() Descriptor {
	c := k.clone()
	return &c
}

func (k *TransformKeyframe) clone() TransformKeyframe {
	c := *k
	c.Keyframe = k.Keyframe.clone()
	c.Origins = slices.Clone(k.Origins)
	return c
}

func (m *MotionKeyframe) Clone() Descriptor {
	c := *m
	c.TransformKeyframe = m.TransformKeyframe.clone()
	c.KeyPoints = slices.Clone(m.KeyPoints)
	if m.PathRef != nil {
		ref := *m.PathRef
		ref.Transforms = make([]geom.Transform, len(m.PathRef.Transforms))
		for i, t := range m.PathRef.Transforms {
			t.Params = slices.Clone(t.Params)
			if t.Origin != nil {
				o := *t.Origin
				t.Origin = &o
			}
			ref.Transforms[i] = t
		}
		c.PathRef = &ref
	}
	return &c
}

// KeyframeOf returns the keyframe body of any keyframe-bearing variant.
func KeyframeOf(d Descriptor) (*Keyframe, bool) {
	switch v := d.(type) {
	case *Keyframe:
		return v, true
	case *TransformKeyframe:
		return &v.Keyframe, true
	case *MotionKeyframe:
		return &v.Keyframe, true
	case *Setter:
		return nil, false
	default:
		panic(fmt.Sprintf("ir: unknown descriptor type %T", d))
	}
}

// ActiveDuration returns the length of the active interval in milliseconds:
// zero for setters, +Inf for infinite repetition.
func ActiveDuration(d Descriptor) float64 {
	k, ok := KeyframeOf(d)
	if !ok {
		return 0
	}
	if k.Duration <= 0 {
		return 0
	}
	total := math.Inf(1)
	if k.IterationCount != Infinite {
		count := k.IterationCount
		if count <= 0 {
			count = 1
		}
		total = k.Duration * count
	}
	switch {
	case k.RepeatDuration == Infinite:
		return math.Inf(1)
	case k.RepeatDuration > 0:
		return math.Min(total, k.RepeatDuration)
	}
	return total
}

// End returns Delay + ActiveDuration.
func End(d Descriptor) float64 {
	return d.Common().Delay + ActiveDuration(d)
}

// Package motion expands motion-path descriptors into ordinary transform
// keyframes: a translate channel of sampled positions and, when the rotate
// policy asks for it, a rotate channel of tangent angles.
package motion

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/animsync/internal/geom"
	"github.com/roach88/animsync/internal/ir"
)

// DefaultSampleCount is used when neither a frame rate nor a sample count
// is configured.
const DefaultSampleCount = 30

// ErrEmptyPath reports path data that is malformed or draws nothing. The
// motion has no visual effect.
var ErrEmptyPath = errors.New("motion path is empty or malformed")

// Options controls sampling resolution.
type Options struct {
	// FrameRate, when positive, samples once per frame of the simple
	// duration (plus the end point).
	FrameRate float64
	// SampleCount is the fixed count used when FrameRate is zero.
	SampleCount int
}

// Expansion is the result of expanding one motion descriptor.
type Expansion struct {
	Translate *ir.TransformKeyframe
	// Rotate is nil when the policy adds no rotation.
	Rotate *ir.TransformKeyframe
}

// sample is one timed point of the expanded motion.
type sample struct {
	at    float64
	pos   geom.Point
	angle float64
}

// Expand samples m's path and converts it to transform keyframes. The
// input is not modified.
func Expand(m *ir.MotionKeyframe, opts Options) (Expansion, error) {
	var samples []sample
	var err error
	if m.PathData == "" && m.PathRef == nil && len(m.Values) > 0 {
		samples, err = fromValues(m)
	} else {
		samples, err = fromPath(m, opts)
	}
	if err != nil {
		return Expansion{}, err
	}

	translate := channel(m, geom.TransformTranslate)
	for _, s := range samples {
		translate.Values = append(translate.Values, geom.FormatFloat(s.pos.X, -1)+" "+geom.FormatFloat(s.pos.Y, -1))
		translate.KeyTimes = append(translate.KeyTimes, s.at)
	}

	out := Expansion{Translate: translate}
	if angles, ok := rotation(m.Rotate, samples); ok {
		rotate := channel(m, geom.TransformRotate)
		for i, s := range samples {
			rotate.Values = append(rotate.Values, geom.FormatFloat(angles[i], -1))
			rotate.KeyTimes = append(rotate.KeyTimes, s.at)
		}
		out.Rotate = rotate
	}
	return out, nil
}

// channel copies the timing of m into an empty transform keyframe.
func channel(m *ir.MotionKeyframe, typ geom.TransformType) *ir.TransformKeyframe {
	src := m.Keyframe
	return &ir.TransformKeyframe{
		Keyframe: ir.Keyframe{
			Base:           src.Base,
			CalcMode:       ir.CalcLinear,
			Reverse:        src.Reverse,
			Alternate:      src.Alternate,
			AdditiveSum:    src.AdditiveSum,
			AccumulateSum:  src.AccumulateSum,
			RepeatDuration: src.RepeatDuration,
		},
		Type: typ,
	}
}

// resolvePath returns the path to sample, with a referenced element's
// static transform applied.
func resolvePath(m *ir.MotionKeyframe) (*geom.Path, error) {
	data := m.PathData
	var transforms []geom.Transform
	if data == "" && m.PathRef != nil {
		data = m.PathRef.PathData
		transforms = m.PathRef.Transforms
	}
	p, err := geom.ParsePath(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmptyPath, err)
	}
	if p.Empty() {
		return nil, ErrEmptyPath
	}
	if len(transforms) > 0 {
		mat, err := geom.Compose(transforms)
		if err != nil {
			return nil, fmt.Errorf("path transform: %w", err)
		}
		p = p.Transform(mat)
	}
	return p, nil
}

// sampleCount picks the resolution: one sample per frame plus the end
// point, else the fixed count.
func sampleCount(dur float64, opts Options) int {
	n := opts.SampleCount
	if opts.FrameRate > 0 && dur > 0 {
		n = int(math.Ceil(dur/1000*opts.FrameRate)) + 1
	}
	if n <= 0 {
		n = DefaultSampleCount
	}
	return max(n, 2)
}

func fromPath(m *ir.MotionKeyframe, opts Options) ([]sample, error) {
	p, err := resolvePath(m)
	if err != nil {
		return nil, err
	}
	sampler := geom.NewPathSampler(p)
	if sampler.Length() == 0 {
		return nil, ErrEmptyPath
	}

	n := sampleCount(m.Duration, opts)
	times := make([]float64, 0, n+len(m.KeyTimes))
	for i := range n {
		times = append(times, float64(i)/float64(n-1))
	}
	remap := keyPointsUsable(m)
	if remap {
		times = append(times, m.KeyTimes...)
	}
	slices.Sort(times)
	times = slices.Compact(times)

	out := make([]sample, 0, len(times))
	for _, u := range times {
		f := u
		if remap {
			f = distanceAt(m.KeyTimes, m.KeyPoints, u)
		}
		s := sampler.At(f)
		out = append(out, sample{at: u, pos: s.Position, angle: s.Angle})
	}
	return out, nil
}

// keyPointsUsable reports whether keyPoints may remap time to distance:
// linear calc mode and one key point per key time.
func keyPointsUsable(m *ir.MotionKeyframe) bool {
	if len(m.KeyPoints) == 0 || len(m.KeyPoints) != len(m.KeyTimes) {
		return false
	}
	return m.CalcMode == "" || m.CalcMode == ir.CalcLinear
}

// distanceAt maps a time fraction to a distance fraction through the
// piecewise-linear keyTimes -> keyPoints function.
func distanceAt(keyTimes, keyPoints []float64, u float64) float64 {
	if u <= keyTimes[0] {
		return keyPoints[0]
	}
	for i := 1; i < len(keyTimes); i++ {
		if u <= keyTimes[i] {
			span := keyTimes[i] - keyTimes[i-1]
			if span <= 0 {
				return keyPoints[i]
			}
			x := (u - keyTimes[i-1]) / span
			return keyPoints[i-1] + (keyPoints[i]-keyPoints[i-1])*x
		}
	}
	return keyPoints[len(keyPoints)-1]
}

// fromValues treats each value ("x,y" or "x y") as a waypoint reached at
// its key time. The heading is constant along each leg.
func fromValues(m *ir.MotionKeyframe) ([]sample, error) {
	pts := make([]geom.Point, len(m.Values))
	for i, v := range m.Values {
		nums, err := geom.ParseNumbers(strings.ReplaceAll(v, ";", " "))
		if err != nil || len(nums) != 2 {
			return nil, fmt.Errorf("%w: waypoint %q", ErrEmptyPath, v)
		}
		pts[i] = geom.Pt(nums[0], nums[1])
	}
	if len(pts) < 2 {
		return nil, ErrEmptyPath
	}
	times := m.KeyTimes
	if len(times) != len(pts) {
		times = make([]float64, len(pts))
		for i := range times {
			times[i] = float64(i) / float64(len(pts)-1)
		}
	}

	heading := func(i int) float64 {
		d := pts[i+1].Sub(pts[i])
		return geom.Degrees(math.Atan2(d.Y, d.X))
	}
	out := make([]sample, 0, 2*len(pts))
	for i, p := range pts {
		if i == 0 {
			out = append(out, sample{at: times[i], pos: p, angle: heading(0)})
			continue
		}
		out = append(out, sample{at: times[i], pos: p, angle: heading(i - 1)})
		if i < len(pts)-1 && heading(i) != heading(i-1) {
			out = append(out, sample{at: times[i], pos: p, angle: heading(i)})
		}
	}
	return out, nil
}

// rotation applies the rotate policy. Auto angles are unwrapped so that
// consecutive samples never turn by more than 180 degrees.
func rotation(policy ir.RotatePolicy, samples []sample) ([]float64, bool) {
	angles := make([]float64, len(samples))
	switch policy.Mode {
	case ir.RotateAuto, ir.RotateAutoReverse:
		offset := 0.0
		if policy.Mode == ir.RotateAutoReverse {
			offset = 180
		}
		for i, s := range samples {
			a := s.angle + offset
			if i > 0 {
				for a-angles[i-1] > 180 {
					a -= 360
				}
				for a-angles[i-1] < -180 {
					a += 360
				}
			}
			angles[i] = a
		}
		return angles, true
	case ir.RotateFixed, "":
		if policy.Angle == 0 {
			return nil, false
		}
		for i := range angles {
			angles[i] = policy.Angle
		}
		return angles, true
	}
	return nil, false
}

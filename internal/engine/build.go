package engine

import (
	"fmt"
	"math"
	"slices"

	"github.com/roach88/animsync/internal/geom"
	"github.com/roach88/animsync/internal/ir"
	"github.com/roach88/animsync/internal/motion"
)

// malformedError marks a descriptor that is dropped with a
// malformed_descriptor condition.
type malformedError struct {
	reason string
}

func (e *malformedError) Error() string { return e.reason }

func malformed(format string, args ...any) error {
	return &malformedError{reason: fmt.Sprintf(format, args...)}
}

// keyTimeTolerance absorbs rounding in authored keyTimes.
const keyTimeTolerance = 1e-9

// buildTracks converts the clones in descs into tracks. Dropped descriptors
// are marked INVALID and reported as conditions.
func (r *run) buildTracks(descs []ir.Descriptor) []*track {
	var tracks []*track
	for src, d := range descs {
		built, err := r.buildDescriptor(src, d)
		if err != nil {
			d.Common().State |= ir.StateInvalid
			r.condition(CondMalformed, d.Key(), src, err.Error())
			continue
		}
		tracks = append(tracks, built...)
	}
	for i, tr := range tracks {
		tr.id = i
	}
	return tracks
}

func (r *run) buildDescriptor(src int, d ir.Descriptor) ([]*track, error) {
	switch v := d.(type) {
	case *ir.Setter:
		return []*track{r.setterTrack(src, v)}, nil
	case *ir.Keyframe:
		tr, err := r.keyframeTrack(src, d, v, geom.TransformNone, nil)
		if err != nil {
			return nil, err
		}
		return []*track{tr}, nil
	case *ir.TransformKeyframe:
		tr, err := r.keyframeTrack(src, d, &v.Keyframe, v.Type, v.Origins)
		if err != nil {
			return nil, err
		}
		return []*track{tr}, nil
	case *ir.MotionKeyframe:
		exp, err := motion.Expand(v, motion.Options{FrameRate: r.e.frameRate, SampleCount: r.e.sampleCount})
		if err != nil {
			return nil, err
		}
		channels := []*ir.TransformKeyframe{exp.Translate}
		if exp.Rotate != nil {
			channels = append(channels, exp.Rotate)
		}
		var out []*track
		for _, ch := range channels {
			tr, err := r.keyframeTrack(src, d, &ch.Keyframe, ch.Type, nil)
			if err != nil {
				return nil, err
			}
			tr.key = ch.Key()
			out = append(out, tr)
		}
		return out, nil
	default:
		panic(fmt.Sprintf("engine: unknown descriptor type %T", d))
	}
}

func baseTrack(src int, d ir.Descriptor) *track {
	b := d.Common()
	return &track{
		src:       src,
		desc:      d,
		key:       d.Key(),
		start:     b.Delay,
		fill:      b.Fill,
		group:     b.GroupID,
		groupName: b.GroupName,
		ordering:  b.Ordering,
	}
}

func (r *run) setterTrack(src int, s *ir.Setter) *track {
	tr := baseTrack(src, s)
	tr.setter = true
	tr.end = tr.start
	v := ir.ParseValue(tr.key.Attribute, s.To)
	if s.Transform != geom.TransformNone {
		v = ir.PadTransformValues(s.Transform, []ir.Value{v})[0]
	}
	tr.value = v
	tr.last = v
	return tr
}

// keyframeTrack builds the local frames of a keyframe body. typ is the
// transform channel, or TransformNone for plain attributes.
func (r *run) keyframeTrack(src int, d ir.Descriptor, k *ir.Keyframe, typ geom.TransformType, origins []geom.Point) (*track, error) {
	tr := baseTrack(src, d)
	if k.Duration <= 0 {
		return nil, malformed("duration is undefined")
	}
	n := len(k.Values)
	if n == 0 {
		return nil, malformed("no values")
	}
	tr.dur = k.Duration
	tr.end = tr.start + ir.ActiveDuration(d)
	tr.additive = k.AdditiveSum
	tr.accumulate = k.AccumulateSum
	tr.alternate = k.Alternate
	tr.reverse = k.Reverse

	vals := make([]ir.Value, n)
	for i, s := range k.Values {
		vals[i] = ir.ParseValue(tr.key.Attribute, s)
	}
	if typ != geom.TransformNone {
		vals = ir.PadTransformValues(typ, vals)
		var err error
		if vals, err = applyOrigins(tr, typ, vals, origins); err != nil {
			return nil, err
		}
	}

	mode := k.CalcMode
	if mode == "" {
		mode = ir.CalcLinear
	}
	times, err := keyTimes(k.KeyTimes, n, mode)
	if err != nil {
		return nil, err
	}

	eases := make([]ir.Spline, max(n-1, 0))
	for i := range eases {
		eases[i] = ir.Linear
	}
	switch mode {
	case ir.CalcPaced:
		if paced, ok := pacedKeyTimes(vals); ok {
			times = paced
		} else {
			r.condition(CondSplineFallback, tr.key, src, "paced calc mode needs measurable values; using linear")
		}
	case ir.CalcSpline:
		if len(k.KeySplines) == n-1 {
			copy(eases, k.KeySplines)
		} else {
			r.condition(CondSplineFallback, tr.key, src,
				fmt.Sprintf("%d key splines for %d segments; using linear", len(k.KeySplines), n-1))
		}
	case ir.CalcLinear, ir.CalcDiscrete:
	default:
		r.condition(CondSplineFallback, tr.key, src, fmt.Sprintf("unknown calc mode %q; using linear", mode))
	}

	if mode == ir.CalcDiscrete {
		tr.fwd = discreteFrames(times, vals)
	} else {
		tr.fwd = easedFrames(times, vals, eases)
	}
	if mismatch(tr.fwd) {
		r.condition(CondInterpolationMismatch, tr.key, src, "adjacent values do not interpolate; later value used verbatim")
	}
	tr.rev = reversed(tr.fwd)
	tr.last = tr.fwd[len(tr.fwd)-1].val
	return tr, nil
}

// applyOrigins folds rotation centres into rotate values ("a cx cy") and
// records the origin of other channels for the output.
func applyOrigins(tr *track, typ geom.TransformType, vals []ir.Value, origins []geom.Point) ([]ir.Value, error) {
	switch {
	case len(origins) == 0:
		return vals, nil
	case len(origins) != 1 && len(origins) != len(vals):
		return nil, malformed("%d transform origins for %d values", len(origins), len(vals))
	}
	at := func(i int) geom.Point {
		if len(origins) == 1 {
			return origins[0]
		}
		return origins[i]
	}
	if typ != geom.TransformRotate {
		o := at(0)
		tr.origin = &o
		return vals, nil
	}
	out := make([]ir.Value, len(vals))
	for i, v := range vals {
		out[i] = v
		if v.Kind == ir.ValueNumber && v.Unit == "" {
			o := at(i)
			out[i] = ir.Tuple(v.Nums[0], o.X, o.Y)
		}
	}
	return out, nil
}

// keyTimes validates authored key times or generates uniform ones: i/(n-1),
// or i/n for discrete animation. Equal neighbours are allowed and jump.
func keyTimes(kt []float64, n int, mode ir.CalcMode) ([]float64, error) {
	if len(kt) == 0 {
		out := make([]float64, n)
		for i := range out {
			switch {
			case mode == ir.CalcDiscrete:
				out[i] = float64(i) / float64(n)
			case n > 1:
				out[i] = float64(i) / float64(n-1)
			}
		}
		return out, nil
	}
	if len(kt) != n {
		return nil, malformed("%d key times for %d values", len(kt), n)
	}
	out := slices.Clone(kt)
	if math.Abs(out[0]) > keyTimeTolerance {
		return nil, malformed("first key time is %v, want 0", out[0])
	}
	out[0] = 0
	for i := 1; i < n; i++ {
		if out[i] < out[i-1] || out[i] > 1+keyTimeTolerance {
			return nil, malformed("key times are not monotonic at %d", i)
		}
	}
	if mode != ir.CalcDiscrete && n > 1 {
		if math.Abs(out[n-1]-1) > keyTimeTolerance {
			return nil, malformed("last key time is %v, want 1", out[n-1])
		}
		out[n-1] = 1
	}
	return out, nil
}

// pacedKeyTimes spaces key times by cumulative value distance.
func pacedKeyTimes(vals []ir.Value) ([]float64, bool) {
	if len(vals) < 2 {
		return nil, false
	}
	cum := make([]float64, len(vals))
	for i := 1; i < len(vals); i++ {
		d, ok := ir.Distance(vals[i-1], vals[i])
		if !ok {
			return nil, false
		}
		cum[i] = cum[i-1] + d
	}
	total := cum[len(cum)-1]
	if total <= 0 {
		return nil, false
	}
	for i := range cum {
		cum[i] /= total
	}
	cum[len(cum)-1] = 1
	return cum, true
}

// discreteFrames holds each value until the next key time and the last one
// until the end of the iteration.
func discreteFrames(times []float64, vals []ir.Value) []frame {
	var out []frame
	for i, v := range vals {
		out = append(out, frame{at: times[i], val: v, ease: ir.Linear})
		if i+1 < len(vals) {
			out = append(out, frame{at: times[i+1], val: v, ease: ir.Linear})
		}
	}
	if last := out[len(out)-1]; last.at < 1 {
		out = append(out, frame{at: 1, val: last.val, ease: ir.Linear})
	}
	return out
}

// easedFrames pairs each segment with its easing. Step easings become
// explicit jumps so that every remaining easing is continuous.
func easedFrames(times []float64, vals []ir.Value, eases []ir.Spline) []frame {
	if len(vals) == 1 {
		return []frame{
			{at: 0, val: vals[0], ease: ir.Linear},
			{at: 1, val: vals[0], ease: ir.Linear},
		}
	}
	var out []frame
	for i, v := range vals {
		if i == len(vals)-1 {
			out = append(out, frame{at: times[i], val: v, ease: ir.Linear})
			break
		}
		switch e := eases[i]; e.Kind {
		case ir.SplineStepStart:
			out = append(out,
				frame{at: times[i], val: v, ease: ir.Linear},
				frame{at: times[i], val: vals[i+1], ease: ir.Linear})
		case ir.SplineStepEnd:
			out = append(out,
				frame{at: times[i], val: v, ease: ir.Linear},
				frame{at: times[i+1], val: v, ease: ir.Linear})
		default:
			out = append(out, frame{at: times[i], val: v, ease: e})
		}
	}
	return out
}

// reversed returns the frames played backwards.
func reversed(fwd []frame) []frame {
	n := len(fwd)
	out := make([]frame, n)
	for k := range n {
		src := fwd[n-1-k]
		ease := ir.Linear
		if n-2-k >= 0 {
			ease = fwd[n-2-k].ease.Reversed()
		}
		out[k] = frame{at: 1 - src.at, val: src.val, ease: ease}
	}
	return out
}

// mismatch reports adjacent frames whose values cannot interpolate.
func mismatch(frames []frame) bool {
	for i := 1; i < len(frames); i++ {
		a, b := frames[i-1].val, frames[i].val
		if a.Kind == ir.ValueLiteral && b.Kind == ir.ValueLiteral {
			continue
		}
		if _, ok := ir.Interpolate(a, b, 0.5); !ok {
			return true
		}
	}
	return false
}


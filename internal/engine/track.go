package engine

import (
	"cmp"
	"fmt"
	"math"

	"github.com/roach88/animsync/internal/geom"
	"github.com/roach88/animsync/internal/interval"
	"github.com/roach88/animsync/internal/ir"
)

// frame is one keyframe of a track's local timeline. Two frames may share a
// fraction: the value jumps there.
type frame struct {
	at  float64
	val ir.Value
	// ease is the easing of the segment from this frame to the next.
	ease ir.Spline
}

// track is one descriptor's contribution to a group. Motion descriptors
// contribute up to two tracks (translate and rotate) sharing src.
type track struct {
	id   int
	src  int // input index
	desc ir.Descriptor
	key  ir.Key

	start, end float64
	fill       ir.FillMode
	group      int64
	groupName  string
	ordering   int

	setter bool
	value  ir.Value // setter value

	dur      float64
	fwd, rev []frame
	last     ir.Value // forward value at the end of the simple duration

	additive   bool
	accumulate bool
	alternate  bool
	reverse    bool
	origin     *geom.Point

	// under returns the sandwich value below this track; set once the
	// group's interval map is built.
	under func(t float64) (ir.Value, bool)

	state ir.SyncState
}

var _ interval.Track = (*track)(nil)

func (tr *track) ID() int { return tr.id }
func (tr *track) Key() ir.Key { return tr.key }
func (tr *track) GroupID() int64 { return tr.group }
func (tr *track) Start() float64 { return tr.start }
func (tr *track) End() float64 { return tr.end }
func (tr *track) Fill() ir.FillMode { return tr.fill }

func (tr *track) String() string {
	return fmt.Sprintf("#%d(%s)", tr.src, tr.key)
}

func (tr *track) infinite() bool {
	return math.IsInf(tr.end, 1)
}

// period is the length after which the track repeats exactly, ignoring
// accumulation: one simple duration, two when alternating.
func (tr *track) period() float64 {
	if tr.alternate {
		return 2 * tr.dur
	}
	return tr.dur
}

// ValueAt evaluates the track at absolute time t within [Start, End).
func (tr *track) ValueAt(t float64) ir.Value {
	if tr.setter {
		return tr.value
	}
	e := math.Max(0, (t-tr.start)/tr.dur)
	i := math.Floor(e)
	u := e - i
	return tr.compose(i, valueAt(tr.frames(i), u), t, true)
}

// FirstValue is the value at Start.
func (tr *track) FirstValue() ir.Value {
	if tr.setter {
		return tr.value
	}
	return tr.compose(0, tr.frames(0)[0].val, tr.start, true)
}

// FinalValue is the left limit at End: the value frozen by a fill.
func (tr *track) FinalValue() ir.Value {
	if tr.setter {
		return tr.value
	}
	if tr.infinite() {
		return tr.last
	}
	e := (tr.end - tr.start) / tr.dur
	i := math.Max(math.Ceil(e)-1, 0)
	u := math.Min(e-i, 1)
	return tr.compose(i, leftValueAt(tr.frames(i), u), tr.end, true)
}

// frames returns the local timeline played in iteration i.
func (tr *track) frames(i float64) []frame {
	odd := math.Mod(i, 2) == 1
	if tr.reverse != (tr.alternate && odd) {
		return tr.rev
	}
	return tr.fwd
}

// compose applies accumulation and additive behaviour to a local value.
func (tr *track) compose(i float64, v ir.Value, t float64, accumulate bool) ir.Value {
	if accumulate && tr.accumulate && i > 0 {
		if sum, ok := ir.Add(v, ir.Scale(tr.last, i)); ok {
			v = sum
		}
	}
	if tr.additive && tr.under != nil {
		if base, ok := tr.under(t); ok {
			if sum, ok := ir.Add(base, v); ok {
				v = sum
			}
		}
	}
	return v
}

// segmentAt returns the last frame index j with frames[j].at <= u.
func segmentAt(frames []frame, u float64) int {
	j := 0
	for j+1 < len(frames) && frames[j+1].at <= u {
		j++
	}
	return j
}

// valueAt evaluates frames right-continuously at u.
func valueAt(frames []frame, u float64) ir.Value {
	j := segmentAt(frames, u)
	if j == len(frames)-1 {
		return frames[j].val
	}
	a, b := frames[j], frames[j+1]
	return lerp(a.val, b.val, a.ease.Ease((u-a.at)/(b.at-a.at)))
}

// leftValueAt evaluates the left limit at u.
func leftValueAt(frames []frame, u float64) ir.Value {
	j := 0
	for j < len(frames) && frames[j].at < u {
		j++
	}
	if j == 0 {
		return frames[0].val
	}
	if j == len(frames) {
		return frames[j-1].val
	}
	a, b := frames[j-1], frames[j]
	return lerp(a.val, b.val, a.ease.Ease((u-a.at)/(b.at-a.at)))
}

// lerp interpolates, returning the endpoints exactly at 0 and 1 so that
// incompatible pairs keep their own values at the keyframes.
func lerp(a, b ir.Value, x float64) ir.Value {
	switch {
	case x <= 0:
		return a
	case x >= 1:
		return b
	}
	v, _ := ir.Interpolate(a, b, x)
	return v
}

// easeFrom returns the easing of the stretch from local fraction ua to
// min(frames[j+1].at, ub), where frames[j].at <= ua.
func easeFrom(frames []frame, j int, ua, ub float64) ir.Spline {
	if j >= len(frames)-1 {
		return ir.Linear
	}
	a, b := frames[j], frames[j+1]
	span := b.at - a.at
	if span <= 0 {
		return ir.Linear
	}
	return a.ease.Sub((ua-a.at)/span, (math.Min(b.at, ub)-a.at)/span)
}

// priority orders tracks: later start first, then the higher ordering
// within a shared group name, then groupId, then input order.
func priority(a, b interval.Track) int {
	x, y := a.(*track), b.(*track)
	if c := cmp.Compare(x.start, y.start); c != 0 {
		return c
	}
	if x.groupName != "" && x.groupName == y.groupName && x.ordering != y.ordering {
		return cmp.Compare(x.ordering, y.ordering)
	}
	if c := cmp.Compare(x.group, y.group); c != 0 {
		return c
	}
	return cmp.Compare(x.id, y.id)
}

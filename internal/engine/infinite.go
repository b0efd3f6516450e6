package engine

import (
	"fmt"
	"math"

	"github.com/roach88/animsync/internal/ir"
)

// maxLoopFactor bounds a shared loop period to this many times the longest
// tail period.
const maxLoopFactor = 64

// groupPlan is the resolved shape of one group before rendering.
type groupPlan struct {
	key    ir.Key
	tracks []*track
	frags  []fragment

	// lone is set when the group is passed through unchanged.
	lone *track

	// tail is the infinite track that plays last, looped from cut with
	// period tailLen.
	tail      *track
	tailStart float64
	cut       float64
	tailLen   float64
}

// planGroup resolves one group.
func (r *run) planGroup(key ir.Key, tracks []*track) (*groupPlan, error) {
	p := &groupPlan{key: key, tracks: tracks}
	if tr := r.passthrough(tracks); tr != nil {
		tr.state |= ir.StateComplete
		p.lone = tr
		return p, nil
	}

	tl := newTimeline(key, tracks)
	if err := tl.resolve(r); err != nil {
		return nil, err
	}
	p.frags = tl.fragments()
	if len(p.frags) == 0 {
		r.condition(CondEmptyGroup, key, -1, "every descriptor of the group was invalidated")
		return p, nil
	}
	if last := p.frags[len(p.frags)-1]; last.ph == phaseActive && math.IsInf(last.to, 1) {
		p.tail = last.tr
		p.tailStart = last.from
		p.cut = last.from
		p.tailLen = last.tr.period()
	}
	return p, nil
}

// passthrough returns the group's only track when it can be emitted with its
// own timing: a plain keyframe nothing else competes with.
func (r *run) passthrough(tracks []*track) *track {
	if len(tracks) != 1 || r.e.keyTimeMode != KeyTimesAllowed {
		return nil
	}
	tr := tracks[0]
	if tr.setter || tr.reverse || tr.alternate || tr.accumulate || tr.additive {
		return nil
	}
	if k, ok := ir.KeyframeOf(tr.desc); !ok || k.RepeatDuration != 0 {
		return nil
	}
	if tr.fill.Has(ir.FillBackwards) && tr.start > 0 {
		return nil
	}
	if tr.infinite() && r.e.alignInfinite {
		return nil
	}
	return tr
}

// alignTails gives every infinite tail the least common multiple of their
// periods and starts them together at the latest tail start. Periods must be
// whole milliseconds and the shared period at most maxLoopFactor times the
// longest one; otherwise the tails stay independent.
func (r *run) alignTails(plans []*groupPlan) {
	if !r.e.alignInfinite {
		return
	}
	var tails []*groupPlan
	for _, p := range plans {
		if p.tail != nil {
			tails = append(tails, p)
		}
	}
	if len(tails) < 2 {
		return
	}

	var longest int64
	start := math.Inf(-1)
	ok := true
	for _, p := range tails {
		if p.tailLen != math.Trunc(p.tailLen) || p.tailLen <= 0 {
			ok = false
		}
		longest = max(longest, int64(p.tailLen))
		start = math.Max(start, p.tailStart)
	}
	var loop int64 = 1
	for _, p := range tails {
		if !ok {
			break
		}
		loop = lcm(loop, int64(p.tailLen))
		ok = loop <= maxLoopFactor*longest
	}
	if !ok {
		for _, p := range tails {
			r.condition(CondAmbiguousInfinite, p.key, p.tail.src,
				fmt.Sprintf("period %v does not align with the other infinite tails", p.tailLen))
		}
		return
	}
	for _, p := range tails {
		p.cut = start
		p.tailLen = float64(loop)
	}
	r.e.logger.Debug("infinite tails aligned", "tails", len(tails), "start", start, "period", loop)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int64) int64 {
	return a / gcd(a, b) * b
}

package engine

import (
	"fmt"
	"math"
	"slices"

	"github.com/roach88/animsync/internal/interval"
	"github.com/roach88/animsync/internal/ir"
)

// phase says which part of a track's timeline a fragment shows.
type phase uint8

const (
	phaseActive phase = iota
	phaseHold
	phaseBackwards
)

func (p phase) String() string {
	switch p {
	case phaseHold:
		return "hold"
	case phaseBackwards:
		return "backwards"
	}
	return "active"
}

// fragment is a maximal stretch [from, to) shown by one track in one phase.
type fragment struct {
	tr       *track
	ph       phase
	from, to float64
	// override replaces the value at from (EQUAL_TIME setter).
	override *ir.Value
}

// timeline resolves ownership of one group's time axis.
type timeline struct {
	key    ir.Key
	tracks []*track // input order
	m      *interval.Map

	// bounds cuts the axis into segments [bounds[k], bounds[k+1]); the last
	// segment is unbounded.
	bounds []float64
	owner  []int // per segment: track index, or -1
	cursor []int // per track: next segment to consider

	overrides map[int]ir.Value // segment -> EQUAL_TIME value
}

func newTimeline(key ir.Key, tracks []*track) *timeline {
	ifaces := make([]interval.Track, len(tracks))
	for i, tr := range tracks {
		ifaces[i] = tr
	}
	m := interval.Build(ifaces, priority, key)
	for _, tr := range tracks {
		id := tr.id
		tr.under = func(t float64) (ir.Value, bool) {
			return m.Underlying(key, t, id)
		}
	}

	bounds := []float64{0}
	for _, tr := range tracks {
		bounds = append(bounds, tr.start)
		if !tr.infinite() {
			bounds = append(bounds, tr.end)
		}
	}
	slices.Sort(bounds)
	bounds = slices.Compact(bounds)

	owner := make([]int, len(bounds))
	for i := range owner {
		owner[i] = -1
	}
	return &timeline{
		key:       key,
		tracks:    tracks,
		m:         m,
		bounds:    bounds,
		owner:     owner,
		cursor:    make([]int, len(tracks)),
		overrides: make(map[int]ir.Value),
	}
}

// segEnd returns the end of segment k.
func (tl *timeline) segEnd(k int) float64 {
	if k+1 < len(tl.bounds) {
		return tl.bounds[k+1]
	}
	return math.Inf(1)
}

// segment returns the index of the segment starting at t, or -1.
func (tl *timeline) segment(t float64) int {
	k, ok := slices.BinarySearch(tl.bounds, t)
	if !ok {
		return -1
	}
	return k
}

// visible reports whether track i shows on segment k. Unfilled setters show
// only at an instant and never own a segment.
func (tl *timeline) visible(i, k int) bool {
	tr := tl.tracks[i]
	if tr.setter && !tr.fill.Holds() {
		return false
	}
	_, vis := interval.Visibility(tr, tl.bounds[k])
	return vis
}

// outranks reports whether track a wins over track b.
func (tl *timeline) outranks(a, b int) bool {
	return priority(tl.tracks[a], tl.tracks[b]) > 0
}

// resolve runs the work queue until every track has swept the axis.
func (tl *timeline) resolve(r *run) error {
	order := make([]int, len(tl.tracks))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return -priority(tl.tracks[a], tl.tracks[b])
	})

	q := newWorkQueue(len(order))
	for _, i := range order {
		q.Enqueue(i)
	}
	guard := newProgressGuard()
	for {
		i, ok := q.TryDequeue()
		if !ok {
			break
		}
		more := tl.step(r, i)
		if !guard.Advance(i, tl.cursor[i]) {
			return fmt.Errorf("%s: track %s at segment %d: %w", tl.key, tl.tracks[i], tl.cursor[i], errStalled)
		}
		if more {
			q.Enqueue(i)
		}
	}
	r.e.logger.Debug("group resolved",
		"key", tl.key.String(),
		"tracks", len(tl.tracks),
		"segments", len(tl.bounds),
		"steps", guard.Steps(),
	)

	tl.fillBackwards()
	tl.equalTime(r)
	tl.finish(r)
	return nil
}

// step lets track i claim its next run of segments, or skip the span held
// by higher-priority tracks. Returns true if the track has segments left.
func (tl *timeline) step(r *run, i int) bool {
	n := len(tl.bounds)
	tr := tl.tracks[i]
	k := tl.cursor[i]
	for k < n && !tl.visible(i, k) {
		k++
	}
	if k == n {
		tl.cursor[i] = n
		return false
	}

	if o := tl.owner[k]; o >= 0 && tl.outranks(o, i) {
		if !tr.state.Has(ir.StateInterrupted) {
			r.e.logger.Debug("descriptor interrupted",
				"key", tl.key.String(), "index", tr.src, "at", tl.bounds[k], "by", tl.tracks[o].src)
		}
		tr.state |= ir.StateInterrupted
		for k < n && tl.visible(i, k) && tl.owner[k] >= 0 && tl.outranks(tl.owner[k], i) {
			k++
		}
		tl.cursor[i] = k
		return k < n
	}

	for k < n && tl.visible(i, k) {
		o := tl.owner[k]
		if o >= 0 && tl.outranks(o, i) {
			break
		}
		if o >= 0 && o != i {
			victim := tl.tracks[o]
			if !victim.state.Has(ir.StateInterrupted) {
				r.e.logger.Debug("descriptor interrupted",
					"key", tl.key.String(), "index", victim.src, "at", tl.bounds[k], "by", tr.src)
			}
			victim.state |= ir.StateInterrupted
		}
		tl.owner[k] = i
		k++
	}
	tl.cursor[i] = k
	return k < n
}

// fillBackwards gives the unowned segments before the backwards holder's
// start to the holder: backward fill is the lowest layer.
func (tl *timeline) fillBackwards() {
	b, ok := tl.m.Backwards(tl.key)
	if !ok {
		return
	}
	holder := b.(*track)
	for k, t := range tl.bounds {
		if t >= holder.start {
			break
		}
		if t >= 0 && tl.owner[k] < 0 {
			tl.owner[k] = indexOf(tl.tracks, holder)
			holder.state |= ir.StateBackwards
		}
	}
}

func indexOf(tracks []*track, tr *track) int {
	return slices.Index(tracks, tr)
}

// equalTime reconciles unfilled setters. A setter that coincides with
// another track's start or finite end, and outranks every such track by
// groupId, sets the value at the start of the segment there. Setters are
// visited in ascending priority so the strongest one is applied last.
func (tl *timeline) equalTime(r *run) {
	var setters []*track
	for _, tr := range tl.tracks {
		if tr.setter && !tr.fill.Holds() {
			setters = append(setters, tr)
		}
	}
	slices.SortStableFunc(setters, func(a, b *track) int { return priority(a, b) })

	for _, s := range setters {
		wins, coincident := true, false
		for _, tr := range tl.tracks {
			if tr == s || (tr.start != s.start && (tr.infinite() || tr.end != s.start)) {
				continue
			}
			coincident = true
			if tr.group >= s.group {
				wins = false
			}
		}
		if !coincident {
			continue
		}
		s.state |= ir.StateEqualTime
		k := tl.segment(s.start)
		if !wins || k < 0 || tl.owner[k] < 0 {
			r.e.logger.Debug("equal-time setter loses",
				"key", tl.key.String(), "index", s.src, "at", s.start)
			continue
		}
		tl.overrides[k] = s.value
		s.state |= ir.StateComplete
	}
}

// finish writes the terminal states.
func (tl *timeline) finish(r *run) {
	n := len(tl.bounds)
	for i, tr := range tl.tracks {
		if tr.state.Terminal() {
			continue
		}
		owned, missed, resumed := false, false, false
		for k := range n {
			switch {
			case tl.owner[k] == i:
				if missed && tr.state.Has(ir.StateInterrupted) {
					resumed = true
				}
				owned = true
			case tl.visible(i, k):
				missed = true
			}
		}
		if resumed {
			tr.state |= ir.StateResume
			r.e.logger.Debug("descriptor resumed", "key", tl.key.String(), "index", tr.src)
		}
		if owned {
			tr.state |= ir.StateComplete
			continue
		}
		tr.state |= ir.StateInvalid
		r.e.logger.Debug("descriptor invalid", "key", tl.key.String(), "index", tr.src)
	}
}

// fragments merges the owned segments into fragments in time order.
func (tl *timeline) fragments() []fragment {
	var out []fragment
	for k, o := range tl.owner {
		if o < 0 {
			continue
		}
		tr := tl.tracks[o]
		from, to := tl.bounds[k], tl.segEnd(k)
		ph := phaseActive
		switch {
		case from < tr.start:
			ph = phaseBackwards
		case tr.setter || from >= tr.end:
			ph = phaseHold
		}
		var override *ir.Value
		if v, ok := tl.overrides[k]; ok {
			override = &v
		}
		if len(out) > 0 && override == nil {
			last := &out[len(out)-1]
			if last.tr == tr && last.ph == ph && last.to == from {
				last.to = to
				continue
			}
		}
		out = append(out, fragment{tr: tr, ph: ph, from: from, to: to, override: override})
	}
	return out
}

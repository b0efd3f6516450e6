package engine

import (
	"math"

	"github.com/roach88/animsync/internal/geom"
	"github.com/roach88/animsync/internal/ir"
)

// keyframe is one absolute-time output keyframe. ease is the easing of the
// segment to the next keyframe.
type keyframe struct {
	t    float64
	v    ir.Value
	ease ir.Spline
}

// emitter collects keyframes and charges them to the run's budget.
type emitter struct {
	key    ir.Key
	budget *keyframeBudget
	kfs    []keyframe
}

func (em *emitter) add(t float64, v ir.Value, ease ir.Spline) error {
	if err := em.budget.Add(em.key, 1); err != nil {
		return err
	}
	em.kfs = append(em.kfs, keyframe{t: t, v: v, ease: ease})
	return nil
}

// renderFragment emits the keyframes of one fragment. An EQUAL_TIME setter
// shows only at its instant: its value is emitted at from, immediately
// followed by the fragment's own value there. normalizeTimes keeps the two
// apart by one ulp.
func (em *emitter) renderFragment(fr fragment) error {
	if fr.override != nil {
		if err := em.add(fr.from, *fr.override, ir.Linear); err != nil {
			return err
		}
	}
	var err error
	switch fr.ph {
	case phaseBackwards:
		err = em.constant(fr.from, fr.to, fr.tr.FirstValue())
	case phaseHold:
		err = em.constant(fr.from, fr.to, fr.tr.FinalValue())
	default:
		err = em.renderActive(fr.tr, fr.from, fr.to, true)
	}
	return err
}

// constant emits v at from and, when bounded, at to.
func (em *emitter) constant(from, to float64, v ir.Value) error {
	if err := em.add(from, v, ir.Linear); err != nil {
		return err
	}
	if math.IsInf(to, 1) {
		return nil
	}
	return em.add(to, v, ir.Linear)
}

// renderActive emits tr over [from, to) one iteration window at a time: the
// value at the window start, every local frame inside the window, and the
// left limit at the window end. With accumulate unset, iterations are not
// summed (used for the infinite tail, which must be periodic).
func (em *emitter) renderActive(tr *track, from, to float64, accumulate bool) error {
	to = math.Min(to, tr.end)
	i := math.Floor(math.Max(0, (from-tr.start)/tr.dur))
	t := from
	for t < to {
		winStart := tr.start + i*tr.dur
		winEnd := math.Min(winStart+tr.dur, to)
		if winEnd <= t {
			i++
			continue
		}
		frames := tr.frames(i)
		u0 := clamp01((t - winStart) / tr.dur)
		u1 := clamp01((winEnd - winStart) / tr.dur)

		j := segmentAt(frames, u0)
		v := tr.compose(i, valueAt(frames, u0), t, accumulate)
		if err := em.add(t, v, easeFrom(frames, j, u0, u1)); err != nil {
			return err
		}
		for k := j + 1; k < len(frames) && frames[k].at < u1; k++ {
			tk := winStart + frames[k].at*tr.dur
			v := tr.compose(i, frames[k].val, tk, accumulate)
			if err := em.add(tk, v, easeFrom(frames, k, frames[k].at, u1)); err != nil {
				return err
			}
		}
		v = tr.compose(i, leftValueAt(frames, u1), winEnd, accumulate)
		if err := em.add(winEnd, v, ir.Linear); err != nil {
			return err
		}
		t = winEnd
		i++
	}
	return nil
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

// dedupe drops the earlier of two keyframes sharing time and value, and the
// middle of three consecutive equal values.
func dedupe(kfs []keyframe, prec int) []keyframe {
	same := func(a, b ir.Value) bool { return a.Format(prec) == b.Format(prec) }
	out := make([]keyframe, 0, len(kfs))
	for _, k := range kfs {
		n := len(out)
		if n > 0 && out[n-1].t == k.t && same(out[n-1].v, k.v) {
			out[n-1] = k
			continue
		}
		if n >= 2 && same(out[n-1].v, k.v) && same(out[n-2].v, k.v) {
			out[n-2].ease = ir.Linear
			out[n-1] = k
			continue
		}
		out = append(out, k)
	}
	return out
}

// splitRuns clips the fragments for the tail cut and splits them at gaps.
func splitRuns(p *groupPlan) [][]fragment {
	frags := p.frags
	if p.tail != nil {
		last := frags[len(frags)-1]
		frags = frags[:len(frags)-1]
		switch {
		case p.cut > last.from:
			last.to = p.cut
			frags = append(frags[:len(frags):len(frags)], last)
		case last.override != nil:
			// The setter instant at the cut closes the finite run.
			last.to = last.from
			frags = append(frags[:len(frags):len(frags)], last)
		}
	}
	var runs [][]fragment
	for i, fr := range frags {
		if i == 0 || frags[i-1].to != fr.from {
			runs = append(runs, nil)
		}
		runs[len(runs)-1] = append(runs[len(runs)-1], fr)
	}
	return runs
}

// renderGroup turns a resolved plan into flattened descriptors.
func (r *run) renderGroup(p *groupPlan) ([]ir.Flat, error) {
	if p.lone != nil {
		f, err := r.loneFlat(p.key, p.lone)
		if err != nil {
			return nil, err
		}
		return []ir.Flat{f}, nil
	}

	var out []ir.Flat
	runs := splitRuns(p)
	for n, frags := range runs {
		em := &emitter{key: p.key, budget: r.budget}
		for _, fr := range frags {
			if err := em.renderFragment(fr); err != nil {
				return nil, err
			}
		}
		last := frags[len(frags)-1]
		holds := n == len(runs)-1 && math.IsInf(last.to, 1)
		kfs := dedupe(em.kfs, r.e.precision)
		origin := runOrigin(frags)
		if r.e.keyTimeMode == KeyTimesSegments {
			out = append(out, r.segmentFlats(p.key, kfs, holds, origin)...)
			continue
		}
		if f, ok := r.runFlat(p.key, kfs, holds, origin); ok {
			out = append(out, f)
		}
	}

	if p.tail != nil {
		f, err := r.tailFlat(p)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func runOrigin(frags []fragment) *geom.Point {
	for _, fr := range frags {
		if fr.tr.origin != nil {
			o := *fr.tr.origin
			return &o
		}
	}
	return nil
}

// runFlat builds the keyframe timeline of one run. A run with no extent
// becomes a setter when it holds and is dropped otherwise.
func (r *run) runFlat(key ir.Key, kfs []keyframe, holds bool, origin *geom.Point) (ir.Flat, bool) {
	base := BaseName(key)
	t0, t1 := kfs[0].t, kfs[len(kfs)-1].t
	if t1 <= t0 {
		if !holds {
			return ir.Flat{}, false
		}
		return r.setterFlat(key, base, t0, kfs[len(kfs)-1].v, origin), true
	}
	f := ir.Flat{
		Name:           r.names.Next(base),
		Key:            key,
		Delay:          t0,
		Duration:       t1 - t0,
		IterationCount: 1,
		Origin:         origin,
	}
	if holds {
		f.Fill = ir.FillForwards
	}
	r.fillKeyframes(&f, kfs, t0, t1-t0)
	return f, true
}

func (r *run) setterFlat(key ir.Key, base string, at float64, v ir.Value, origin *geom.Point) ir.Flat {
	return ir.Flat{
		Name:   r.names.Next(base),
		Key:    key,
		Setter: true,
		Delay:  at,
		Fill:   ir.FillForwards,
		Values: []string{v.Format(r.e.precision)},
		Origin: origin,
	}
}

// segmentFlats emits the run as consecutive from-to segments. Jumps need no
// segment of their own: the next segment starts at the new value. A jump at
// the very end of a holding run becomes a setter.
func (r *run) segmentFlats(key ir.Key, kfs []keyframe, holds bool, origin *geom.Point) []ir.Flat {
	base := BaseName(key)
	var out []ir.Flat
	for i := 0; i+1 < len(kfs); i++ {
		a, b := kfs[i], kfs[i+1]
		last := i+2 == len(kfs)
		if b.t <= a.t {
			if last && holds {
				out = append(out, r.setterFlat(key, base, b.t, b.v, origin))
			}
			continue
		}
		f := ir.Flat{
			Name:           r.names.Next(base),
			Key:            key,
			Delay:          a.t,
			Duration:       b.t - a.t,
			IterationCount: 1,
			Origin:         origin,
		}
		if last && holds {
			f.Fill = ir.FillForwards
		}
		r.fillKeyframes(&f, []keyframe{a, b}, a.t, b.t-a.t)
		out = append(out, f)
	}
	if len(kfs) == 1 && holds {
		out = append(out, r.setterFlat(key, base, kfs[0].t, kfs[0].v, origin))
	}
	return out
}

// tailFlat renders one period of the infinite track from the cut.
func (r *run) tailFlat(p *groupPlan) (ir.Flat, error) {
	em := &emitter{key: p.key, budget: r.budget}
	if err := em.renderActive(p.tail, p.cut, p.cut+p.tailLen, false); err != nil {
		return ir.Flat{}, err
	}
	kfs := dedupe(em.kfs, r.e.precision)
	f := ir.Flat{
		Name:           r.names.Next(BaseName(p.key) + "_tail"),
		Key:            p.key,
		Delay:          p.cut,
		Duration:       p.tailLen,
		IterationCount: ir.Infinite,
		Origin:         runOrigin([]fragment{{tr: p.tail}}),
		Tail:           true,
	}
	r.fillKeyframes(&f, kfs, p.cut, p.tailLen)
	r.e.logger.Debug("infinite tail emitted",
		"key", p.key.String(), "index", p.tail.src, "delay", f.Delay, "period", f.Duration)
	return f, nil
}

// loneFlat passes a single uncontested keyframe descriptor through with its
// own timing, flattening only its calc mode and easing.
func (r *run) loneFlat(key ir.Key, tr *track) (ir.Flat, error) {
	kfs := make([]keyframe, len(tr.fwd))
	for j, fr := range tr.fwd {
		kfs[j] = keyframe{t: fr.at, v: fr.val, ease: easeFrom(tr.fwd, j, fr.at, 1)}
	}
	if err := r.budget.Add(key, len(kfs)); err != nil {
		return ir.Flat{}, err
	}
	count := tr.desc.Common().IterationCount
	if count != ir.Infinite && count <= 0 {
		count = 1
	}
	f := ir.Flat{
		Name:           r.names.Next(BaseName(key)),
		Key:            key,
		Delay:          tr.start,
		Duration:       tr.dur,
		IterationCount: count,
		Fill:           tr.fill,
		Origin:         runOrigin([]fragment{{tr: tr}}),
	}
	r.fillKeyframes(&f, dedupe(kfs, r.e.precision), 0, 1)
	return f, nil
}

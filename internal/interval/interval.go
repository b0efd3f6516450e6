// Package interval indexes the descriptors of each merge group by time and
// answers point-in-time value queries over the sandwich of competing
// animations.
//
// A Map is built once per synchronization from the group's tracks, read
// during the merge, and discarded afterwards. For a fixed track set Get is
// a pure function of (key, time).
package interval

import (
	"math"
	"slices"

	"github.com/roach88/animsync/internal/ir"
)

// Track is one descriptor's contribution to a merge group, as seen by the
// interval map.
type Track interface {
	ID() int
	Key() ir.Key
	GroupID() int64
	// Start is the resolved delay.
	Start() float64
	// End is Start + active duration: +Inf when infinite, Start for setters.
	End() float64
	Fill() ir.FillMode
	// ValueAt evaluates the track within [Start, End).
	ValueAt(t float64) ir.Value
	FirstValue() ir.Value
	// FinalValue is the frozen value at End.
	FinalValue() ir.Value
}

// Compare orders tracks by priority: negative when a loses to b.
type Compare func(a, b Track) int

// DefaultCompare ranks later starts above earlier ones and breaks ties by
// the higher GroupID.
func DefaultCompare(a, b Track) int {
	if a.Start() != b.Start() {
		if a.Start() < b.Start() {
			return -1
		}
		return 1
	}
	switch {
	case a.GroupID() < b.GroupID():
		return -1
	case a.GroupID() > b.GroupID():
		return 1
	}
	return 0
}

// IntervalValue is one entry of a group's time index.
type IntervalValue struct {
	Time  float64
	Value ir.Value
	// Owner is the ID of the track that produced the entry.
	Owner        int
	SegmentStart bool
	SegmentEnd   bool
	Fill         ir.FillMode
	Infinite     bool
	// Seed marks the backwards fill entry at time 0.
	Seed bool
}

type group struct {
	entries   []IntervalValue
	tracks    map[int]Track
	backwards Track
}

// Map is the per-key time index.
type Map struct {
	cmp    Compare
	groups map[ir.Key]*group
}

// Build indexes tracks. When keys is non-empty only those keys are indexed.
// A nil cmp uses DefaultCompare.
func Build(tracks []Track, cmp Compare, keys ...ir.Key) *Map {
	if cmp == nil {
		cmp = DefaultCompare
	}
	m := &Map{cmp: cmp, groups: make(map[ir.Key]*group)}

	sorted := slices.Clone(tracks)
	slices.SortStableFunc(sorted, func(a, b Track) int {
		if a.Start() != b.Start() {
			if a.Start() < b.Start() {
				return -1
			}
			return 1
		}
		return -cmp(a, b)
	})

	for _, tr := range sorted {
		key := tr.Key()
		if len(keys) > 0 && !slices.Contains(keys, key) {
			continue
		}
		g := m.groups[key]
		if g == nil {
			g = &group{tracks: make(map[int]Track)}
			m.groups[key] = g
		}
		g.tracks[tr.ID()] = tr

		if tr.Fill().Has(ir.FillBackwards) && tr.Start() > 0 &&
			(g.backwards == nil || cmp(tr, g.backwards) > 0) {
			g.backwards = tr
		}

		end := tr.End()
		g.entries = append(g.entries, IntervalValue{
			Time:         tr.Start(),
			Value:        tr.FirstValue(),
			Owner:        tr.ID(),
			SegmentStart: true,
			Fill:         tr.Fill(),
			Infinite:     math.IsInf(end, 1),
		})
		if !math.IsInf(end, 1) && tr.Fill().Holds() {
			g.entries = append(g.entries, IntervalValue{
				Time:       end,
				Value:      tr.FinalValue(),
				Owner:      tr.ID(),
				SegmentEnd: true,
				Fill:       tr.Fill(),
			})
		}
	}

	for _, g := range m.groups {
		if b := g.backwards; b != nil {
			g.entries = append(g.entries, IntervalValue{
				Time:  0,
				Value: b.FirstValue(),
				Owner: b.ID(),
				Fill:  b.Fill(),
				Seed:  true,
			})
		}
		slices.SortStableFunc(g.entries, func(a, b IntervalValue) int {
			switch {
			case a.Time < b.Time:
				return -1
			case a.Time > b.Time:
				return 1
			}
			return 0
		})
	}
	return m
}

// Keys returns the indexed keys in stable order.
func (m *Map) Keys() []ir.Key {
	keys := make([]ir.Key, 0, len(m.groups))
	for k := range m.groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, ir.CompareKeys)
	return keys
}

// Entries returns the time-ordered entries of key.
func (m *Map) Entries(key ir.Key) []IntervalValue {
	g := m.groups[key]
	if g == nil {
		return nil
	}
	return slices.Clone(g.entries)
}

// Backwards returns the group's fill-backwards holder, if any.
func (m *Map) Backwards(key ir.Key) (Track, bool) {
	g := m.groups[key]
	if g == nil || g.backwards == nil {
		return nil, false
	}
	return g.backwards, true
}

// Get returns the value visible for key at time t: the highest-priority
// track that is active or holding its final value, else the backwards
// seed. With playing set, a track that is mid-flight at t is preferred over
// a higher-priority frozen one.
func (m *Map) Get(key ir.Key, t float64, playing bool) (ir.Value, bool) {
	tr, active, ok := m.owner(key, t, playing, nil)
	if !ok {
		return ir.Value{}, false
	}
	return valueOf(tr, t, active), true
}

// Owner returns the track whose value Get would report.
func (m *Map) Owner(key ir.Key, t float64) (Track, bool) {
	tr, _, ok := m.owner(key, t, false, nil)
	return tr, ok
}

// Underlying returns the sandwich value at t formed only by tracks ranked
// below the track with the given id. Additive animations add to it.
func (m *Map) Underlying(key ir.Key, t float64, id int) (ir.Value, bool) {
	g := m.groups[key]
	if g == nil {
		return ir.Value{}, false
	}
	self, ok := g.tracks[id]
	if !ok {
		return ir.Value{}, false
	}
	below := func(tr Track) bool { return m.cmp(tr, self) < 0 }
	tr, active, ok := m.owner(key, t, false, below)
	if !ok {
		return ir.Value{}, false
	}
	return valueOf(tr, t, active), true
}

func valueOf(tr Track, t float64, active bool) ir.Value {
	switch {
	case active:
		return tr.ValueAt(t)
	case t < tr.Start():
		return tr.FirstValue()
	}
	return tr.FinalValue()
}

// owner scans the entries at or before t. The boolean active reports
// whether the winner is mid-flight.
func (m *Map) owner(key ir.Key, t float64, playing bool, accept func(Track) bool) (Track, bool, bool) {
	g := m.groups[key]
	if g == nil {
		return nil, false, false
	}
	var best, bestActive Track
	for _, e := range g.entries {
		if e.Time > t {
			break
		}
		if !e.SegmentStart {
			continue
		}
		tr := g.tracks[e.Owner]
		if accept != nil && !accept(tr) {
			continue
		}
		active, visible := Visibility(tr, t)
		if !visible {
			continue
		}
		if best == nil || m.cmp(tr, best) > 0 {
			best = tr
		}
		if active && (bestActive == nil || m.cmp(tr, bestActive) > 0) {
			bestActive = tr
		}
	}
	if playing && bestActive != nil {
		return bestActive, true, true
	}
	if best != nil {
		return best, best == bestActive, true
	}
	if b := g.backwards; b != nil && t < b.Start() && (accept == nil || accept(b)) {
		return b, false, true
	}
	return nil, false, false
}

// Visibility reports whether tr is mid-flight at t, and whether it affects
// the attribute at t at all (mid-flight, or holding its final value).
// Backwards fill is not considered.
func Visibility(tr Track, t float64) (active, visible bool) {
	start, end := tr.Start(), tr.End()
	if t < start {
		return false, false
	}
	if start == end {
		return false, t == start || tr.Fill().Holds()
	}
	if t < end {
		return true, true
	}
	return false, tr.Fill().Holds()
}

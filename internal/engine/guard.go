package engine

// progressGuard tracks each track's cursor across work queue steps.
//
// Every dequeue must move the dequeued track's cursor forward: it either
// claims a run of segments or skips a span held by a higher-priority track.
// A step that leaves the cursor where it was would re-enqueue the same work
// forever. The guard turns that into an error instead of a hang.
type progressGuard struct {
	cursors map[int]int // map[track_id]last_cursor
	steps   int
}

func newProgressGuard() *progressGuard {
	return &progressGuard{cursors: make(map[int]int)}
}

// Advance records that track id moved its cursor to pos.
//
// Returns false if pos does not lie beyond the previously recorded cursor.
func (g *progressGuard) Advance(id, pos int) bool {
	g.steps++
	last, seen := g.cursors[id]
	if seen && pos <= last {
		return false
	}
	g.cursors[id] = pos
	return true
}

// Steps returns the number of recorded steps.
func (g *progressGuard) Steps() int {
	return g.steps
}

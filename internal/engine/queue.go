package engine

// workQueue is the FIFO of pending track ids for one group.
//
// Each dequeue processes one step of one track, which may re-enqueue the
// same id at the back. Interleaving the tracks this way is what lets a
// lower-priority track claim a gap that opens up before a higher-priority
// one returns.
//
// Not safe for concurrent use: a queue lives inside a single group merge.
type workQueue struct {
	ids []int
}

func newWorkQueue(capacity int) *workQueue {
	return &workQueue{ids: make([]int, 0, capacity)}
}

// Enqueue adds a track id to the back of the queue.
func (q *workQueue) Enqueue(id int) {
	q.ids = append(q.ids, id)
}

// TryDequeue removes and returns the front id.
// Returns (0, false) if the queue is empty.
func (q *workQueue) TryDequeue() (int, bool) {
	if len(q.ids) == 0 {
		return 0, false
	}
	id := q.ids[0]
	if len(q.ids) == 1 {
		// Last element - reuse the backing array
		q.ids = q.ids[:0]
	} else {
		q.ids = q.ids[1:]
	}
	return id, true
}

// Len returns the current queue length.
func (q *workQueue) Len() int {
	return len(q.ids)
}

package compiler

import "sync/atomic"

// IDSource hands out the groupIds stamped on compiled descriptors.
// Implemented by Clock and by testutil.DeterministicClock.
type IDSource interface {
	Next() int64
}

// Clock stamps compiled descriptors with groupIds in document order.
// groupId breaks priority ties between descriptors that start together,
// so a clock reused across documents keeps later documents on top.
// Safe for concurrent compiles.
type Clock struct {
	last atomic.Int64
}

// NewClock returns a clock whose first groupId is 1.
func NewClock() *Clock { return &Clock{} }

// NewClockAt returns a clock that continues after last, for appending to
// descriptor sets compiled earlier.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.last.Store(last)
	return c
}

// Next hands out the next groupId.
func (c *Clock) Next() int64 { return c.last.Add(1) }

// Current is the last groupId handed out.
func (c *Clock) Current() int64 { return c.last.Load() }

package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/animsync/internal/ir"
)

// ConditionKind categorizes soft conditions.
type ConditionKind string

const (
	// CondMalformed: the descriptor was dropped (bad lengths, non-monotonic
	// keyTimes, undefined duration, empty motion path).
	CondMalformed ConditionKind = "malformed_descriptor"

	// CondInterpolationMismatch: adjacent values cannot interpolate; the
	// later value is used verbatim.
	CondInterpolationMismatch ConditionKind = "interpolation_mismatch"

	// CondAmbiguousInfinite: infinite tails could not share a loop period.
	CondAmbiguousInfinite ConditionKind = "ambiguous_infinite"

	// CondSplineFallback: a calc mode or spline list was replaced by linear.
	CondSplineFallback ConditionKind = "spline_fallback"

	// CondEmptyGroup: every descriptor of a group was invalidated.
	CondEmptyGroup ConditionKind = "empty_group"
)

// Condition is a problem the engine recovered from locally. Conditions are
// carried on the Result, never returned as errors.
type Condition struct {
	Kind ConditionKind `json:"kind"`
	Key  ir.Key        `json:"key"`
	// Index is the input position of the descriptor, or -1.
	Index   int    `json:"index"`
	Message string `json:"message"`
}

func (c Condition) String() string {
	if c.Index >= 0 {
		return fmt.Sprintf("%s: %s (key=%s, descriptor=%d)", c.Kind, c.Message, c.Key, c.Index)
	}
	return fmt.Sprintf("%s: %s (key=%s)", c.Kind, c.Message, c.Key)
}

// errStalled reports a work queue step that made no progress. It indicates
// an engine bug, never a property of the input.
var errStalled = errors.New("merge work queue stalled")

// IsStalled returns true if the error reports a stalled work queue.
// Uses errors.Is to handle wrapped errors.
func IsStalled(err error) bool {
	return errors.Is(err, errStalled)
}

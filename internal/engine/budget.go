package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/animsync/internal/ir"
)

// keyframeBudget counts the keyframes one synchronisation emits and
// enforces the configured ceiling.
//
// The engine has no suspension point and no cancellation; the budget is
// what bounds a run whose input asks for an enormous number of iterations.
type keyframeBudget struct {
	max     int // Maximum keyframes; <= 0 disables the check
	current int
}

func newKeyframeBudget(max int) *keyframeBudget {
	return &keyframeBudget{max: max}
}

// Add counts n more keyframes emitted for key.
//
// Returns BudgetError once the total exceeds the ceiling.
func (b *keyframeBudget) Add(key ir.Key, n int) error {
	b.current += n
	if b.max > 0 && b.current > b.max {
		return &BudgetError{
			Key:       key,
			Keyframes: b.current,
			Limit:     b.max,
		}
	}
	return nil
}

// Current returns the keyframes counted so far.
func (b *keyframeBudget) Current() int {
	return b.current
}

// BudgetError is returned when a run exceeds the keyframe ceiling. It is
// the only hard error Synchronize returns for well-formed Go input.
type BudgetError struct {
	Key       ir.Key // Group being rendered when the ceiling was crossed
	Keyframes int    // Keyframes emitted, including the offending ones
	Limit     int
}

// Error implements the error interface.
func (e *BudgetError) Error() string {
	return fmt.Sprintf("keyframe budget exceeded while rendering %s: %d keyframes > %d limit",
		e.Key, e.Keyframes, e.Limit)
}

// IsBudgetError returns true if the error is a BudgetError.
// Uses errors.As to handle wrapped errors.
func IsBudgetError(err error) bool {
	var be *BudgetError
	return errors.As(err, &be)
}

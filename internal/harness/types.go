package harness

import (
	"github.com/roach88/animsync/internal/engine"
	"github.com/roach88/animsync/internal/ir"
)

// TargetResult is the synchronised outcome of one scenario target.
type TargetResult struct {
	ID string `json:"id"`

	// Input holds the compiled descriptors in document order.
	Input []ir.Descriptor `json:"-"`

	// Result is the engine's output for this target.
	Result *engine.Result `json:"result"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every assertion held and every run replayed identically.
	Pass bool `json:"pass"`

	// RunID is the run id every target was synchronised under.
	RunID string `json:"run_id"`

	// Targets are in document order.
	Targets []TargetResult `json:"targets"`

	// Errors contains assertion and replay failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Targets: []TargetResult{},
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Target returns the target with the given id. An empty id selects the
// first target.
func (r *Result) Target(id string) (*TargetResult, bool) {
	if len(r.Targets) == 0 {
		return nil, false
	}
	if id == "" {
		return &r.Targets[0], true
	}
	for i := range r.Targets {
		if r.Targets[i].ID == id {
			return &r.Targets[i], true
		}
	}
	return nil, false
}

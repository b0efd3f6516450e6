package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/animsync/internal/engine"
	"github.com/roach88/animsync/internal/ir"
)

// Snapshot captures the synchronised output of a scenario.
// It is serialised as canonical JSON for deterministic comparison.
type Snapshot struct {
	ScenarioName string           `json:"scenario_name"`
	RunID        string           `json:"run_id"`
	Targets      []TargetSnapshot `json:"targets"`
}

// TargetSnapshot is the output of one target. States are the final
// descriptor states in input order.
type TargetSnapshot struct {
	ID         string             `json:"id"`
	Outputs    []ir.Flat          `json:"outputs"`
	Conditions []engine.Condition `json:"conditions,omitempty"`
	States     []string           `json:"states"`
}

// NewSnapshot builds the snapshot of result.
func NewSnapshot(name string, result *Result) *Snapshot {
	s := &Snapshot{ScenarioName: name, RunID: result.RunID}
	for _, t := range result.Targets {
		ts := TargetSnapshot{
			ID:         t.ID,
			Outputs:    t.Result.Outputs,
			Conditions: t.Result.Conditions,
			States:     make([]string, len(t.Result.Descriptors)),
		}
		for i, d := range t.Result.Descriptors {
			ts.States[i] = d.Common().State.String()
		}
		s.Targets = append(s.Targets, ts)
	}
	return s
}

// Canonical returns the canonical JSON form of the snapshot.
func (s *Snapshot) Canonical() ([]byte, error) {
	return ir.CanonicalJSON(s)
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the output doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}

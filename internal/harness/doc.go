// Package harness runs animation conformance scenarios.
//
// A scenario names an animation document, optional engine options and a
// list of assertions over the synchronised result. Run compiles the
// document with deterministic groupIds, synchronises every target under a
// fixed run id, and evaluates the assertions.
//
// Every target's run is also recorded in a fresh in-memory ledger and
// replayed from there. A replay whose output differs from the original run
// fails the scenario.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	document: ../documents/fade.yaml   # or inline targets:
//	options:
//	  keyTimes: segments
//	assertions:
//	  - type: value_at
//	    key: opacity
//	    t: 500
//	    value: "0.5"
//
// # Assertion Types
//
//   - value_at: the merged value of key at time t (or absent: true)
//   - output_count: number of outputs, optionally of one key
//   - state: state bits of the descriptor at index
//   - tail: whether key has a separate infinite tail output
//   - strict_key_times: every output passes ir.Flat.Validate
//   - matrix_at: composed transform matrix at t for the channels in order
//   - condition_count: number of conditions, optionally of one kind
//
// # Golden Files
//
// RunWithGolden compares the canonical output of a scenario against
// testdata/golden/{name}.golden. To regenerate golden files:
//
//	go test ./internal/harness -update
package harness

package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/animsync/internal/compiler"
	"github.com/roach88/animsync/internal/engine"
	"github.com/roach88/animsync/internal/store"
	"github.com/roach88/animsync/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs scenarios with deterministic groupIds and run ids.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	clock  *testutil.DeterministicClock
	runIDs *testutil.FixedRunID
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load the document and apply scenario options
// 2. Compile it with a deterministic clock
// 3. Synchronise every target
// 4. Record each run and replay it from the ledger
// 5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	doc, err := scenario.LoadDocument()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  testutil.NewDeterministicClock(),
		runIDs: testutil.NewFixedRunID(scenario.RunID),
		logger: slog.New(slog.DiscardHandler),
	}

	compiled, err := compiler.Compile(doc, h.clock)
	if err != nil {
		return nil, fmt.Errorf("failed to compile document: %w", err)
	}
	opts, err := compiled.Options.EngineOptions()
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	h.engine = engine.New(append(opts,
		engine.WithLogger(h.logger),
		engine.WithRunIDGenerator(h.runIDs),
	)...)

	results, err := h.engine.SynchronizeTargets(ctx, compiled.ByID())
	if err != nil {
		return nil, fmt.Errorf("failed to synchronize: %w", err)
	}

	result := NewResult()
	result.RunID = h.runIDs.Generate()
	for _, t := range compiled.Targets {
		result.Targets = append(result.Targets, TargetResult{
			ID:     t.ID,
			Input:  t.Descriptors,
			Result: results[t.ID],
		})
	}

	for _, t := range result.Targets {
		if err := h.recordAndReplay(ctx, scenario.Name, compiled.Options, t, result); err != nil {
			return nil, err
		}
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// recordAndReplay writes the run of target t to the ledger under a
// per-target id, replays it, and records a failure on mismatch.
func (h *Harness) recordAndReplay(ctx context.Context, source string, opts *compiler.Options, t TargetResult, result *Result) error {
	run, err := store.NewRun(t.ID, source, opts, t.Input, t.Result)
	if err != nil {
		return fmt.Errorf("target %s: %w", t.ID, err)
	}
	run.ID = run.ID + "/" + t.ID
	if _, _, err := h.store.WriteRun(ctx, run); err != nil {
		return fmt.Errorf("target %s: %w", t.ID, err)
	}

	rr, err := h.store.Replay(ctx, run.ID, engine.WithLogger(h.logger))
	if err != nil {
		return fmt.Errorf("target %s: %w", t.ID, err)
	}
	for _, m := range rr.Mismatches {
		result.AddError(fmt.Sprintf("target %s: replay: %s", t.ID, m))
	}

	h.logger.Debug("run replayed",
		"target", t.ID,
		"run_id", run.ID,
		"match", rr.Match,
	)
	return nil
}

package store

import (
	"context"
	"fmt"

	"github.com/roach88/animsync/internal/engine"
	"github.com/roach88/animsync/internal/ir"
)

// ReplayResult compares a stored run with a fresh synchronisation of its
// stored input.
type ReplayResult struct {
	Run        Run
	Result     *engine.Result
	OutputHash string
	// Match is true when the output hash and every descriptor state agree.
	Match bool
	// Mismatches describes each disagreement, in a stable order.
	Mismatches []string
}

// Replay re-synchronises the stored input of run id with its stored options
// and reports whether the engine still produces the recorded output.
//
// opts are applied after the stored options, so callers may replace the
// logger; they should not change output-shaping settings. The replayed
// result reuses the stored run id.
func (s *Store) Replay(ctx context.Context, id string, opts ...engine.EngineOption) (ReplayResult, error) {
	run, err := s.ReadRun(ctx, id)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}

	stored, err := run.Options.EngineOptions()
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", id, err)
	}
	all := append(stored, engine.WithRunIDGenerator(engine.NewFixedGenerator(run.ID)))
	all = append(all, opts...)

	res, err := engine.New(all...).Synchronize(run.Input)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", id, err)
	}
	hash, err := ir.OutputHash(res.Outputs)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", id, err)
	}

	rr := ReplayResult{Run: run, Result: res, OutputHash: hash}
	if hash != run.OutputHash {
		rr.Mismatches = append(rr.Mismatches,
			fmt.Sprintf("output hash %s, recorded %s", hash, run.OutputHash))
	}
	if len(res.Descriptors) != len(run.States) {
		rr.Mismatches = append(rr.Mismatches,
			fmt.Sprintf("%d descriptor states, recorded %d", len(res.Descriptors), len(run.States)))
	} else {
		for i, d := range res.Descriptors {
			if got := d.Common().State; got != run.States[i] {
				rr.Mismatches = append(rr.Mismatches,
					fmt.Sprintf("descriptor %d state %s, recorded %s", i, got, run.States[i]))
			}
		}
	}
	rr.Match = len(rr.Mismatches) == 0
	return rr, nil
}

// ReplayAll replays every run in ledger order. It stops at the first run
// that cannot be replayed; mismatches do not stop it.
func (s *Store) ReplayAll(ctx context.Context, opts ...engine.EngineOption) ([]ReplayResult, error) {
	runs, err := s.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay all: %w", err)
	}
	out := make([]ReplayResult, 0, len(runs))
	for _, r := range runs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		rr, err := s.Replay(ctx, r.ID, opts...)
		if err != nil {
			return out, err
		}
		out = append(out, rr)
	}
	return out, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/animsync/internal/compiler"
	"github.com/roach88/animsync/internal/engine"
	"github.com/roach88/animsync/internal/ir"
)

// Run is one recorded synchronisation run.
type Run struct {
	ID string
	// Seq is the ledger position, assigned by WriteRun.
	Seq    int64
	Target string
	Source string

	Options    *compiler.Options
	Input      []ir.Descriptor
	InputHash  string
	Output     []ir.Flat
	OutputHash string
	Conditions []engine.Condition
	// States holds the final state of each input descriptor, by position.
	States []ir.SyncState

	EngineVersion string
	IRVersion     string
}

// NewRun assembles the ledger record of res, the result of synchronising
// input with opts.
func NewRun(target, source string, opts *compiler.Options, input []ir.Descriptor, res *engine.Result) (Run, error) {
	inHash, err := ir.InputHash(input)
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}
	outHash, err := ir.OutputHash(res.Outputs)
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}
	states := make([]ir.SyncState, len(res.Descriptors))
	for i, d := range res.Descriptors {
		states[i] = d.Common().State
	}
	return Run{
		ID:            res.RunID,
		Target:        target,
		Source:        source,
		Options:       opts,
		Input:         input,
		InputHash:     inHash,
		Output:        res.Outputs,
		OutputHash:    outHash,
		Conditions:    res.Conditions,
		States:        states,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}, nil
}

// WriteRun appends run to the ledger and returns its seq.
//
// Writing is idempotent on the run id: if the id already exists the
// existing seq is returned with inserted=false and nothing is written.
func (s *Store) WriteRun(ctx context.Context, run Run) (seq int64, inserted bool, err error) {
	if run.ID == "" {
		return 0, false, fmt.Errorf("write run: run id is required")
	}
	opts, err := marshalOptions(run.Options)
	if err != nil {
		return 0, false, fmt.Errorf("write run: %w", err)
	}
	input, err := marshalInput(run.Input)
	if err != nil {
		return 0, false, fmt.Errorf("write run: %w", err)
	}
	output, err := marshalOutput(run.Output)
	if err != nil {
		return 0, false, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	err = tx.QueryRowContext(ctx, `SELECT seq FROM runs WHERE id = ?`, run.ID).Scan(&seq)
	switch {
	case err == nil:
		return seq, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, false, fmt.Errorf("write run: lookup: %w", err)
	}

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return 0, false, fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, target, source, options, input, input_hash, output, output_hash, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		seq,
		run.Target,
		run.Source,
		opts,
		input,
		run.InputHash,
		output,
		run.OutputHash,
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return 0, false, fmt.Errorf("write run: %w", err)
	}

	for i, c := range run.Conditions {
		transform, err := c.Key.Transform.MarshalText()
		if err != nil {
			return 0, false, fmt.Errorf("write run: condition %d: %w", i, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_conditions
			(run_id, idx, kind, key_attribute, key_transform, descriptor, message)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, run.ID, i, string(c.Kind), c.Key.Attribute, string(transform), c.Index, c.Message)
		if err != nil {
			return 0, false, fmt.Errorf("write run: condition %d: %w", i, err)
		}
	}

	for i, st := range run.States {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_states (run_id, idx, state) VALUES (?, ?, ?)
		`, run.ID, i, st.String())
		if err != nil {
			return 0, false, fmt.Errorf("write run: state %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("write run: commit: %w", err)
	}
	return seq, true, nil
}

// DeleteRun removes a run with its conditions and states. Deleting an
// unknown id is not an error.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

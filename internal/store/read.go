package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/animsync/internal/engine"
	"github.com/roach88/animsync/internal/geom"
	"github.com/roach88/animsync/internal/ir"
)

// ErrRunNotFound is returned when a run id is not in the ledger.
var ErrRunNotFound = errors.New("run not found")

// IsNotFound reports whether err is or wraps ErrRunNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// RunSummary is the listing form of a run: identity and hashes, no payloads.
type RunSummary struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	Target     string `json:"target"`
	Source     string `json:"source,omitempty"`
	InputHash  string `json:"input_hash"`
	OutputHash string `json:"output_hash"`
	Conditions int    `json:"conditions"`
}

// ReadRun returns the full record of one run.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var (
		run                 Run
		opts, input, output string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, target, source, options, input, input_hash, output, output_hash, engine_version, ir_version
		FROM runs
		WHERE id = ?
	`, id).Scan(
		&run.ID,
		&run.Seq,
		&run.Target,
		&run.Source,
		&opts,
		&input,
		&run.InputHash,
		&output,
		&run.OutputHash,
		&run.EngineVersion,
		&run.IRVersion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}

	if run.Options, err = unmarshalOptions(opts); err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	if run.Input, err = unmarshalInput(input); err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	if run.Output, err = unmarshalOutput(output); err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	if run.Conditions, err = s.readConditions(ctx, id); err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	if run.States, err = s.readStates(ctx, id); err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

func (s *Store) readConditions(ctx context.Context, id string) ([]engine.Condition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, key_attribute, key_transform, descriptor, message
		FROM run_conditions
		WHERE run_id = ?
		ORDER BY idx ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query conditions: %w", err)
	}
	defer rows.Close()

	var out []engine.Condition
	for rows.Next() {
		var (
			c         engine.Condition
			kind      string
			transform string
		)
		if err := rows.Scan(&kind, &c.Key.Attribute, &transform, &c.Index, &c.Message); err != nil {
			return nil, fmt.Errorf("scan condition: %w", err)
		}
		c.Kind = engine.ConditionKind(kind)
		var typ geom.TransformType
		if err := typ.UnmarshalText([]byte(transform)); err != nil {
			return nil, fmt.Errorf("scan condition: %w", err)
		}
		c.Key.Transform = typ
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conditions: %w", err)
	}
	return out, nil
}

func (s *Store) readStates(ctx context.Context, id string) ([]ir.SyncState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT state FROM run_states WHERE run_id = ? ORDER BY idx ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query states: %w", err)
	}
	defer rows.Close()

	var out []ir.SyncState
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		st, err := ir.ParseSyncState(name)
		if err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate states: %w", err)
	}
	return out, nil
}

// ListRuns returns every run in ledger order.
// Returns an empty slice (not nil) when the ledger is empty.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	return s.listRuns(ctx, "", nil)
}

func (s *Store) listRuns(ctx context.Context, where string, args []any) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.seq, r.target, r.source, r.input_hash, r.output_hash,
		       (SELECT COUNT(*) FROM run_conditions c WHERE c.run_id = r.id)
		FROM runs r
		`+where+`
		ORDER BY r.seq ASC, r.id COLLATE BINARY ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Seq, &r.Target, &r.Source, &r.InputHash, &r.OutputHash, &r.Conditions); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

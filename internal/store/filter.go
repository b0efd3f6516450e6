package store

import (
	"context"
	"strings"
)

// RunFilter selects runs from the ledger. Zero fields match everything;
// set fields are combined with AND.
type RunFilter struct {
	Target     string
	Source     string
	InputHash  string
	OutputHash string
	// WithConditions, when set, keeps only runs that did (true) or did not
	// (false) raise conditions.
	WithConditions *bool
}

// where compiles f to a WHERE clause over the runs table aliased r.
// Values are always bound as parameters, never interpolated. Predicates
// are emitted in a fixed order so equal filters produce equal SQL.
func (f RunFilter) where() (string, []any) {
	var (
		preds  []string
		params []any
	)
	eq := func(column, value string) {
		if value != "" {
			preds = append(preds, "r."+column+" = ?")
			params = append(params, value)
		}
	}
	eq("target", f.Target)
	eq("source", f.Source)
	eq("input_hash", f.InputHash)
	eq("output_hash", f.OutputHash)

	if f.WithConditions != nil {
		exists := "EXISTS (SELECT 1 FROM run_conditions c WHERE c.run_id = r.id)"
		if !*f.WithConditions {
			exists = "NOT " + exists
		}
		preds = append(preds, exists)
	}

	if len(preds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(preds, " AND "), params
}

// FindRuns returns the runs matching f, in ledger order.
func (s *Store) FindRuns(ctx context.Context, f RunFilter) ([]RunSummary, error) {
	where, params := f.where()
	return s.listRuns(ctx, where, params)
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFilterRuns(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	box := createTestRun(t, "run-box", nil)
	_, _, err := s.WriteRun(ctx, box)
	require.NoError(t, err)

	dot := createTestRun(t, "run-dot", nil)
	dot.Target = "dot"
	dot.Source = "dot.yaml"
	_, _, err = s.WriteRun(ctx, dot)
	require.NoError(t, err)
}

func runIDs(runs []RunSummary) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}

func TestFindRuns(t *testing.T) {
	s := createTestStore(t)
	seedFilterRuns(t, s)
	ctx := context.Background()

	withConds, withoutConds := true, false
	tests := []struct {
		name   string
		filter RunFilter
		want   []string
	}{
		{"empty matches all", RunFilter{}, []string{"run-box", "run-dot"}},
		{"target", RunFilter{Target: "dot"}, []string{"run-dot"}},
		{"source", RunFilter{Source: "box.yaml"}, []string{"run-box"}},
		{"target and source disagree", RunFilter{Target: "box", Source: "dot.yaml"}, []string{}},
		{"unknown output hash", RunFilter{OutputHash: "0000"}, []string{}},
		{"with conditions", RunFilter{WithConditions: &withConds}, []string{"run-box", "run-dot"}},
		{"without conditions", RunFilter{WithConditions: &withoutConds}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := s.FindRuns(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, runIDs(runs))
		})
	}
}

func TestFindRuns_ByHashes(t *testing.T) {
	s := createTestStore(t)
	seedFilterRuns(t, s)
	ctx := context.Background()

	got, err := s.ReadRun(ctx, "run-box")
	require.NoError(t, err)

	// Both runs synchronised the same input.
	runs, err := s.FindRuns(ctx, RunFilter{InputHash: got.InputHash})
	require.NoError(t, err)
	assert.Equal(t, []string{"run-box", "run-dot"}, runIDs(runs))

	runs, err = s.FindRuns(ctx, RunFilter{InputHash: got.InputHash, OutputHash: got.OutputHash, Target: "box"})
	require.NoError(t, err)
	assert.Equal(t, []string{"run-box"}, runIDs(runs))
}

func TestRunFilter_Where(t *testing.T) {
	where, params := RunFilter{}.where()
	assert.Empty(t, where)
	assert.Nil(t, params)

	// Values are bound, never interpolated, and predicate order is fixed.
	f := RunFilter{OutputHash: "o'1", Target: "box"}
	where, params = f.where()
	assert.Equal(t, "WHERE r.target = ? AND r.output_hash = ?", where)
	assert.Equal(t, []any{"box", "o'1"}, params)

	again, _ := f.where()
	assert.Equal(t, where, again)
}

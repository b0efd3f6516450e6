package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/animsync/internal/engine"
	"github.com/roach88/animsync/internal/ir"
)

func TestNewRun(t *testing.T) {
	run := createTestRun(t, "run-1", nil)

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "box", run.Target)
	assert.Equal(t, ir.MustInputHash(run.Input), run.InputHash)
	assert.Equal(t, ir.MustOutputHash(run.Output), run.OutputHash)
	assert.Equal(t, ir.EngineVersion, run.EngineVersion)
	assert.Equal(t, ir.IRVersion, run.IRVersion)
	require.Len(t, run.States, 4)
	assert.True(t, run.States[3].Has(ir.StateInvalid))
	require.NotEmpty(t, run.Conditions)
	assert.Equal(t, engine.CondMalformed, run.Conditions[0].Kind)
}

func TestWriteRun_AssignsSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		seq, inserted, err := s.WriteRun(ctx, createTestRun(t, id, nil))
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.Equal(t, int64(i+1), seq)
	}

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, int64(3), runs[2].Seq)
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun(t, "run-1", nil)

	seq1, inserted, err := s.WriteRun(ctx, run)
	require.NoError(t, err)
	assert.True(t, inserted)

	seq2, inserted, err := s.WriteRun(ctx, run)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, seq1, seq2)

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM run_conditions").Scan(&count))
	assert.Equal(t, len(run.Conditions), count)
}

func TestWriteRun_RequiresID(t *testing.T) {
	s := createTestStore(t)
	run := createTestRun(t, "run-1", nil)
	run.ID = ""

	_, _, err := s.WriteRun(context.Background(), run)
	assert.ErrorContains(t, err, "run id is required")
}

func TestDeleteRun_Cascades(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, _, err := s.WriteRun(ctx, createTestRun(t, "run-1", nil))
	require.NoError(t, err)

	require.NoError(t, s.DeleteRun(ctx, "run-1"))
	require.NoError(t, s.DeleteRun(ctx, "missing"))

	for _, table := range []string{"runs", "run_conditions", "run_states"} {
		var count int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
		assert.Zero(t, count, table)
	}
}

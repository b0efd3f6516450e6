package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/animsync/internal/compiler"
	"github.com/roach88/animsync/internal/engine"
	"github.com/roach88/animsync/internal/geom"
	"github.com/roach88/animsync/internal/ir"
	"github.com/roach88/animsync/internal/testutil"
)

// createTestStore creates a new in-memory store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// testInput is a small input that exercises conditions and states: the
// keyframe interrupts, the setter wins, and the last keyframe is malformed.
func testInput() []ir.Descriptor {
	bad := testutil.Keyframe("opacity", 0, ir.Undefined, "0", "1")
	return testutil.Stamp(nil,
		testutil.Keyframe("opacity", 0, 1000, "0", "1"),
		testutil.Frozen(testutil.Setter("opacity", 500, "0.25")),
		testutil.Transform(geom.TransformRotate, 0, 1000, "0", "90"),
		bad,
	)
}

// createTestRun synchronises testInput and returns the ledger record.
func createTestRun(t *testing.T, id string, opts *compiler.Options) Run {
	t.Helper()
	input := testInput()
	eopts, err := opts.EngineOptions()
	require.NoError(t, err)
	eopts = append(eopts, engine.WithRunIDGenerator(engine.NewFixedGenerator(id)))

	res, err := engine.New(eopts...).Synchronize(input)
	require.NoError(t, err)
	run, err := NewRun("box", "box.yaml", opts, input, res)
	require.NoError(t, err)
	return run
}

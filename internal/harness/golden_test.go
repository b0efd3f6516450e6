package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_FadeFreeze(t *testing.T) {
	s, err := LoadScenario(filepath.Join(projectRoot(), "testdata", "scenarios", "fade_freeze.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestAssertGolden_FromResult(t *testing.T) {
	s, err := LoadScenario(filepath.Join(projectRoot(), "testdata", "scenarios", "fade_freeze.yaml"))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, "fade_freeze", result))
}

func TestSnapshot(t *testing.T) {
	snap := NewSnapshot("snap", fadeResult(t))

	assert.Equal(t, "snap", snap.ScenarioName)
	assert.Equal(t, "test-run-default", snap.RunID)
	require.Len(t, snap.Targets, 1)
	assert.Equal(t, "box", snap.Targets[0].ID)
	assert.Equal(t, []string{"COMPLETE"}, snap.Targets[0].States)
	assert.Len(t, snap.Targets[0].Outputs, 1)

	data, err := snap.Canonical()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"snap"`)
	assert.NotContains(t, string(data), "conditions")
}

func TestCanonicalJSONDeterminism(t *testing.T) {
	r := fadeResult(t)
	first, err := NewSnapshot("fade", r).Canonical()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := NewSnapshot("fade", r).Canonical()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

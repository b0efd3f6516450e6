package harness

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectRoot returns the repository root, where testdata/scenarios lives.
func projectRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..")
}

func TestScenarios(t *testing.T) {
	paths, err := FindScenarios(filepath.Join(projectRoot(), "testdata", "scenarios"), "")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario %s failed:\n%v", s.Name, result.Errors)
		})
	}
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "")
	writeFile(t, dir, "a.yml", "")
	writeFile(t, dir, "notes.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writeFile(t, filepath.Join(dir, "nested"), "c.yaml", "")

	paths, err := FindScenarios(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, paths)

	paths, err = FindScenarios(dir, "[ab]")
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	single, err := FindScenarios(filepath.Join(dir, "b.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.yaml")}, single)

	_, err = FindScenarios(dir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")

	_, err = FindScenarios(filepath.Join(dir, "missing"), "")
	assert.True(t, os.IsNotExist(err))
}

func TestRunSuite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fade.yaml", fadeDocument)
	good := writeFile(t, dir, "good.yaml", `
name: good
description: "passes"
document: fade.yaml
assertions:
  - type: value_at
    key: opacity
    t: 500
    value: "5"
`)
	bad := writeFile(t, dir, "bad.yaml", `
name: bad
description: "fails an assertion"
document: fade.yaml
assertions:
  - type: output_count
    count: 3
`)
	broken := writeFile(t, dir, "broken.yaml", "name: [\n")

	result, err := RunSuite(context.Background(), []string{good, bad, broken})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 2, result.Failed)

	require.Len(t, result.Outcomes, 3)
	assert.True(t, result.Outcomes[0].Passed())
	assert.NoError(t, result.Outcomes[1].Err)
	assert.False(t, result.Outcomes[1].Passed())
	assert.Error(t, result.Outcomes[2].Err)
	assert.Nil(t, result.Outcomes[2].Result)
}

func TestRunSuite_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := RunSuite(ctx, []string{"unused.yaml"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.Total)
}

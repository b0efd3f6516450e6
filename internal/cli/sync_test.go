package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/animsync/internal/store"
)

const twoTargetDocument = `targets:
  - id: box
    animations:
      - kind: animate
        attribute: opacity
        values: "0;10;20"
        dur: 1s
        fill: freeze
  - id: dot
    animations:
      - kind: animate
        attribute: r
        from: "5"
        to: "10"
        dur: 1s
`

// decodeSync decodes a JSON sync response.
func decodeSync(t *testing.T, out string) SyncResult {
	t.Helper()
	var resp struct {
		Status string     `json:"status"`
		Data   SyncResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestSyncText(t *testing.T) {
	cmd := NewSyncCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, documentPath("fade.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "box (run ")
	assert.Contains(t, out, "opacity")
	assert.Contains(t, out, "values=0;10")
}

func TestSyncJSON(t *testing.T) {
	cmd := NewSyncCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, documentPath("fade.yaml"))
	require.NoError(t, err)

	result := decodeSync(t, out)
	require.Len(t, result.Targets, 1)
	box := result.Targets[0]
	assert.Equal(t, "box", box.ID)
	assert.NotEmpty(t, box.RunID)
	require.Len(t, box.Outputs, 1)
	assert.Equal(t, "opacity", box.Outputs[0].Name)
	assert.Equal(t, []string{"0", "10"}, box.Outputs[0].Values)
	assert.Equal(t, 1000.0, box.Outputs[0].Duration)
}

func TestSyncCUE(t *testing.T) {
	cmd := NewSyncCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, documentPath("slide.cue"))
	require.NoError(t, err)

	result := decodeSync(t, out)
	require.Len(t, result.Targets, 1)
	assert.Equal(t, "dot", result.Targets[0].ID)
	assert.NotEmpty(t, result.Targets[0].Outputs)
}

func TestSyncCUEPackage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "targets.cue"), []byte(`package scene

targets: [{
	id: "box"
	animations: [{kind: "animate", attribute: "opacity", values: "0;1", dur: "2s"}]
}]
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "options.cue"), []byte(`package scene

options: precision: 2
`), 0o644))

	cmd := NewSyncCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, dir)
	require.NoError(t, err)

	result := decodeSync(t, out)
	require.Len(t, result.Targets, 1)
	require.Len(t, result.Targets[0].Outputs, 1)
	assert.Equal(t, 2000.0, result.Targets[0].Outputs[0].Duration)
}

func TestSyncMultipleTargetsInDocumentOrder(t *testing.T) {
	path := writeDocument(t, "scene.yaml", twoTargetDocument)

	cmd := NewSyncCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, path)
	require.NoError(t, err)

	result := decodeSync(t, out)
	require.Len(t, result.Targets, 2)
	assert.Equal(t, "box", result.Targets[0].ID)
	assert.Equal(t, "dot", result.Targets[1].ID)
	assert.NotEqual(t, result.Targets[0].RunID, result.Targets[1].RunID)
}

func TestSyncTargetFilter(t *testing.T) {
	path := writeDocument(t, "scene.yaml", twoTargetDocument)

	cmd := NewSyncCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, path, "--target", "dot")
	require.NoError(t, err)

	result := decodeSync(t, out)
	require.Len(t, result.Targets, 1)
	assert.Equal(t, "dot", result.Targets[0].ID)
}

func TestSyncUnknownTarget(t *testing.T) {
	path := writeDocument(t, "scene.yaml", twoTargetDocument)

	cmd := NewSyncCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, path, "--target", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeTargets)
	assert.Contains(t, out, `"ghost"`)
}

func TestSyncSegmentsFlag(t *testing.T) {
	path := writeDocument(t, "scene.yaml", twoTargetDocument)

	cmd := NewSyncCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, path, "--target", "box", "--key-times", "segments")
	require.NoError(t, err)

	result := decodeSync(t, out)
	// 0;10;20 over two segments
	assert.Len(t, result.Targets[0].Outputs, 2)
}

func TestSyncFlagOverridesDocumentOptions(t *testing.T) {
	path := writeDocument(t, "scene.yaml", `options:
  keyTimes: segments
`+twoTargetDocument)

	cmd := NewSyncCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, path, "--target", "box", "--key-times", "keytimes")
	require.NoError(t, err)

	result := decodeSync(t, out)
	assert.Len(t, result.Targets[0].Outputs, 1)
}

func TestSyncInvalidOptionFlag(t *testing.T) {
	cmd := NewSyncCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, documentPath("fade.yaml"), "--key-times", "sometimes")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeOptions)
}

func TestSyncBudgetExceeded(t *testing.T) {
	path := writeDocument(t, "scene.yaml", `targets:
  - id: box
    animations:
      - kind: animate
        attribute: opacity
        values: "0;1;0;1;0;1;0;1"
        dur: 1s
`)

	cmd := NewSyncCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, path, "--max-keyframes", "3")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E_BUDGET")
}

func TestSyncMissingDocument(t *testing.T) {
	cmd := NewSyncCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "not found")
}

func TestSyncCompileError(t *testing.T) {
	path := writeDocument(t, "scene.yaml", `targets:
  - id: box
    animations:
      - kind: animateColor
        attribute: fill
        values: "red;blue"
        dur: 1s
`)

	cmd := NewSyncCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeKind, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "animateColor")
}

func TestSyncOutputFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "result.json")

	cmd := NewSyncCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, documentPath("fade.yaml"), "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote result to "+outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var result SyncResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Targets, 1)
	assert.Equal(t, "box", result.Targets[0].ID)
}

func TestSyncRecordsRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	path := writeDocument(t, "scene.yaml", twoTargetDocument)

	cmd := NewSyncCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, path, "--store", dbPath)
	require.NoError(t, err)
	result := decodeSync(t, out)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)

	byTarget := map[string]store.RunSummary{}
	for _, r := range runs {
		byTarget[r.Target] = r
	}
	for _, target := range result.Targets {
		r, ok := byTarget[target.ID]
		require.True(t, ok, "run for %s", target.ID)
		assert.Equal(t, target.RunID, r.ID)
		assert.Equal(t, path, r.Source)
	}
}

func TestSyncVerboseLogsToStderr(t *testing.T) {
	cmd := NewSyncCommand(&RootOptions{Format: "json", Verbose: true})
	out, errOut, err := execute(cmd, documentPath("fade.yaml"))
	require.NoError(t, err)

	decodeSync(t, out)
	assert.Contains(t, errOut, "target box: 1 output(s)")
}

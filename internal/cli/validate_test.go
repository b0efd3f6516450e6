package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/animsync/internal/compiler"
)

const invalidDocument = `targets:
  - id: box
    animations:
      - kind: animate
        attribute: opacity
        values: "0;1;2"
        keyTimes: "0;1"
        dur: 1s
      - kind: animate
        attribute: x
        values: "0;10"
`

func TestValidateValidDocument(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, documentPath("fade.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Document valid: 1 target(s), 1 descriptor(s)")
}

func TestValidateValidDocumentJSON(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, documentPath("slide.cue"))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Targets)
}

func TestValidateNonExistentDocument(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, "/nonexistent/scene.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	_, _, err := execute(cmd, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
}

func TestValidateSyntaxError(t *testing.T) {
	path := writeDocument(t, "broken.cue", "targets: [{\n\tid: \"box\"\n")

	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	_, _, err := execute(cmd, path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeSyntax)
}

func TestValidateDescriptorErrors(t *testing.T) {
	path := writeDocument(t, "scene.yaml", invalidDocument)

	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, compiler.ErrKeyTimesLength)
	assert.Contains(t, out, compiler.ErrDurationUndefined)
	assert.Contains(t, out, "targets[box][0].key_times")
}

func TestValidateDescriptorErrorsJSON(t *testing.T) {
	path := writeDocument(t, "scene.yaml", invalidDocument)

	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Descriptors)
	require.Len(t, resp.Data.Errors, 2)
	require.NotNil(t, resp.Error)
	assert.Equal(t, resp.Data.Errors[0].Code, resp.Error.Code)
}

func TestValidateCompileErrorIsValidationFailure(t *testing.T) {
	path := writeDocument(t, "scene.yaml", `targets:
  - id: box
    animations:
      - kind: animate
        attribute: opacity
        values: "0;1"
        dur: 1s
        direction: sideways
`)

	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeTiming)
	assert.Contains(t, out, `unknown direction "sideways"`)
}

func TestValidateInvalidOptions(t *testing.T) {
	path := writeDocument(t, "scene.yaml", "options:\n  sampleCount: 1\n"+`targets:
  - id: box
    animations:
      - kind: set
        attribute: visibility
        to: hidden
        begin: 1s
`)

	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeOptions)
	assert.Contains(t, out, "options.sampleCount")
}

func TestValidateCUEPackageDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.cue"), []byte(`package scene

targets: [{
	id: "box"
	animations: [{kind: "set", attribute: "visibility", to: "hidden", begin: "1s", fill: "freeze"}]
}]
`), 0o644))

	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Document valid")
}

package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/animsync/internal/compiler"
)

func TestLoadDocumentYAML(t *testing.T) {
	doc, err := LoadDocument(documentPath("fade.yaml"))
	require.NoError(t, err)
	require.Len(t, doc.Targets, 1)
	assert.Equal(t, "box", doc.Targets[0].ID)
}

func TestLoadDocumentCUEFile(t *testing.T) {
	doc, err := LoadDocument(documentPath("slide.cue"))
	require.NoError(t, err)
	require.NotNil(t, doc.Options)
	require.NotNil(t, doc.Options.SampleCount)
	assert.Equal(t, 5, *doc.Options.SampleCount)
}

func TestLoadDocumentNotFound(t *testing.T) {
	_, err := LoadDocument(filepath.Join(t.TempDir(), "missing.yaml"))
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadDocumentCUEPackage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cue"), []byte("package scene\n\ntargets: [{id: \"box\", animations: []}]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.cue"), []byte("package scene\n\noptions: keyTimes: \"segments\"\n"), 0o644))

	doc, err := LoadDocument(dir)
	require.NoError(t, err)
	require.Len(t, doc.Targets, 1)
	require.NotNil(t, doc.Options)
	assert.Equal(t, "segments", doc.Options.KeyTimes)
}

func TestLoadDocumentCUEBuildError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cue"), []byte("package scene\n\noptions: precision: digits\n"), 0o644))

	_, err := LoadDocument(dir)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	// unresolved references surface at load or at build depending on the phase
	assert.Contains(t, []string{ErrCodeLoadFailed, ErrCodeBuildFailed}, loadErr.Code)
	assert.Contains(t, loadErr.Message, "digits")
}

func TestLoadDocumentEmptyDirectory(t *testing.T) {
	_, err := LoadDocument(t.TempDir())
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
}

func TestFindCUEFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cue"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.cue"), nil, 0o644))

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.cue")}, files)
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"yaml", ErrCodeSyntax},
		{"cue", ErrCodeSyntax},
		{"targets", ErrCodeTargets},
		{"targets[1].id", ErrCodeTargets},
		{"targets[0].animations[2].kind", ErrCodeKind},
		{"targets[0].animations[0].values", ErrCodeValues},
		{"targets[0].animations[0].dur", ErrCodeTiming},
		{"targets[0].animations[0].begin", ErrCodeTiming},
		{"targets[0].animations[0].keySplines", ErrCodeKeyTimes},
		{"targets[0].animations[0].pathRef.transform", ErrCodeMotion},
		{"targets[0].animations[0].attribute", ErrCodeAttribute},
		{"options.keyTimes", ErrCodeOptions},
		{"somewhere", ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field))
		})
	}
}

func TestConvertCompileError(t *testing.T) {
	err := convertCompileError(&compiler.CompileError{
		Field:   "targets[0].animations[0].kind",
		Message: `unknown kind "animateColor"`,
	}, "scene.yaml")
	assert.Equal(t, ErrCodeKind, err.Code)
	assert.Equal(t, `targets[0].animations[0].kind: unknown kind "animateColor"`, err.Message)
	assert.Equal(t, `E201: targets[0].animations[0].kind: unknown kind "animateColor"`, err.Error())

	generic := convertCompileError(errors.New("boom"), "scene.yaml")
	assert.Equal(t, ErrCodeGeneric, generic.Code)
	assert.Equal(t, "scene.yaml: boom", generic.Message)
}

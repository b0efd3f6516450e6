package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/animsync/internal/compiler"
)

// LoadError represents an error that occurred while loading or compiling a
// document.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDocument loads an animation document. path may be a YAML file, a CUE
// file, or a directory holding one CUE package.
func LoadDocument(path string) (*compiler.Document, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("document not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing document: %v", err)}
	}
	if info.IsDir() {
		return loadCUEPackage(path)
	}

	doc, err := compiler.LoadFile(path)
	if err != nil {
		return nil, convertCompileError(err, path)
	}
	return doc, nil
}

// loadCUEPackage builds the CUE package in dir and decodes it.
func loadCUEPackage(dir string) (*compiler.Document, error) {
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	doc, err := compiler.DecodeCUE(value)
	if err != nil {
		return nil, convertCompileError(err, dir)
	}
	return doc, nil
}

// FindCUEFiles returns the .cue files directly inside dir. Subdirectories
// are separate packages and are not loaded.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		msg := compileErr.Message
		if compileErr.Field != "" {
			msg = compileErr.Field + ": " + msg
		}
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: msg,
			Pos:     compileErr.Pos,
		}
	}
	if errors.Is(err, os.ErrNotExist) {
		return &LoadError{Code: ErrCodeNotFound, Message: err.Error()}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeStore       = "E008" // Run store error

	// Document errors
	ErrCodeSyntax    = "E200" // YAML or CUE syntax
	ErrCodeKind      = "E201" // Missing or unknown animation kind
	ErrCodeValues    = "E202" // Unparseable values / from / to / by
	ErrCodeTiming    = "E203" // Bad begin, dur, repeat or fill
	ErrCodeKeyTimes  = "E204" // Bad keyTimes or keySplines
	ErrCodeMotion    = "E205" // Bad motion path, rotate or keyPoints
	ErrCodeTargets   = "E206" // Missing targets, ids or animations
	ErrCodeOptions   = "E207" // Invalid options block or flag
	ErrCodeAttribute = "E208" // Missing attribute or transform type
)

// MapFieldToErrorCode maps a compiler error field to an error code. Only the
// last path segment counts: "targets[0].animations[2].dur" maps like "dur".
func MapFieldToErrorCode(field string) string {
	if strings.HasPrefix(field, "options.") {
		return ErrCodeOptions
	}
	leaf := field
	if i := strings.LastIndex(field, "."); i >= 0 {
		leaf = field[i+1:]
	}
	if i := strings.Index(leaf, "["); i >= 0 {
		leaf = leaf[:i]
	}
	switch leaf {
	case "yaml", "cue", "document":
		return ErrCodeSyntax
	case "kind":
		return ErrCodeKind
	case "values", "from", "to", "by":
		return ErrCodeValues
	case "begin", "dur", "repeatCount", "repeatDur", "fill", "direction":
		return ErrCodeTiming
	case "keyTimes", "keySplines":
		return ErrCodeKeyTimes
	case "path", "transform", "rotate", "keyPoints":
		return ErrCodeMotion
	case "targets", "id", "animations":
		return ErrCodeTargets
	case "attribute", "type", "origin":
		return ErrCodeAttribute
	default:
		return ErrCodeGeneric
	}
}

package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/animsync/internal/compiler"
	"github.com/roach88/animsync/internal/geom"
	"github.com/roach88/animsync/internal/ir"
)

// Scenario defines a conformance scenario: an animation document, the
// options to synchronise it with, and assertions over the result.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Document is the path of a YAML or CUE document. Relative paths are
	// resolved against the scenario file's directory.
	Document string `yaml:"document,omitempty"`

	// Targets is an inline document body, used when Document is empty.
	Targets []compiler.Target `yaml:"targets,omitempty"`

	// Options replace the document's options block when set.
	Options *compiler.Options `yaml:"options,omitempty"`

	// Assertions validate the synchronised result.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run id. If empty, runs are tagged
	// "test-run-default" so golden files stay stable.
	RunID string `yaml:"run_id,omitempty"`
}

// Assertion validates one property of the synchronised result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Target selects the target by id. Empty means the first target.
	Target string `yaml:"target,omitempty"`

	// Key is a merge group in ir.Key string form ("opacity",
	// "transform/rotate"). Used by value_at, output_count and tail.
	Key string `yaml:"key,omitempty"`

	// T is the query time in milliseconds (value_at, matrix_at).
	T *float64 `yaml:"t,omitempty"`

	// Value is the expected value at T (value_at). Numeric values compare
	// component-wise within Tolerance.
	Value string `yaml:"value,omitempty"`

	// Absent expects no value at T (value_at).
	Absent bool `yaml:"absent,omitempty"`

	// Tolerance for numeric comparison. Zero means 1e-6.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Count is the expected number of outputs (output_count) or
	// conditions (condition_count).
	Count *int `yaml:"count,omitempty"`

	// Index is the input position of a descriptor within its target (state).
	Index *int `yaml:"index,omitempty"`

	// State lists the state names that must be set, joined with "|" (state).
	State string `yaml:"state,omitempty"`

	// Present is whether the key must have an infinite tail (tail).
	Present *bool `yaml:"present,omitempty"`

	// Order lists transform channels in application order (matrix_at).
	Order []string `yaml:"order,omitempty"`

	// Matrix is the expected affine matrix a b c d e f, SVG order (matrix_at).
	Matrix []float64 `yaml:"matrix,omitempty"`

	// Condition filters condition_count by kind. Empty counts all.
	Condition string `yaml:"condition,omitempty"`
}

// Assertion type constants.
const (
	AssertValueAt        = "value_at"
	AssertOutputCount    = "output_count"
	AssertState          = "state"
	AssertTail           = "tail"
	AssertStrictKeyTimes = "strict_key_times"
	AssertMatrixAt       = "matrix_at"
	AssertConditionCount = "condition_count"
)

// LoadScenario reads and parses a scenario YAML file. The document path
// is resolved against the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the document path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Document != "" && !filepath.IsAbs(scenario.Document) && basePath != "" {
		scenario.Document = filepath.Join(basePath, scenario.Document)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDocument returns the scenario's document with the scenario options
// applied.
func (s *Scenario) LoadDocument() (*compiler.Document, error) {
	doc := &compiler.Document{Targets: s.Targets}
	if s.Document != "" {
		var err error
		if doc, err = compiler.LoadFile(s.Document); err != nil {
			return nil, fmt.Errorf("load document: %w", err)
		}
	}
	if s.Options != nil {
		doc.Options = s.Options
	}
	return doc, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Document == "" && len(s.Targets) == 0:
		return fmt.Errorf("document or targets is required")
	case s.Document != "" && len(s.Targets) > 0:
		return fmt.Errorf("document and targets are mutually exclusive")
	}

	if s.Document != "" {
		if _, err := os.Stat(s.Document); os.IsNotExist(err) {
			return &DocumentNotFoundError{Scenario: s.Name, Path: s.Document}
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needKey := func() error {
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for %s", index, a.Type)
		}
		if _, err := ir.ParseKey(a.Key); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		return nil
	}
	needT := func() error {
		if a.T == nil {
			return fmt.Errorf("assertions[%d]: t is required for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertValueAt:
		if err := needKey(); err != nil {
			return err
		}
		if err := needT(); err != nil {
			return err
		}
		if a.Value == "" && !a.Absent {
			return fmt.Errorf("assertions[%d]: value or absent is required for value_at", index)
		}
	case AssertOutputCount:
		if a.Key != "" {
			if err := needKey(); err != nil {
				return err
			}
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for output_count", index)
		}
	case AssertState:
		if a.Index == nil || *a.Index < 0 {
			return fmt.Errorf("assertions[%d]: non-negative index is required for state", index)
		}
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for state", index)
		}
		if _, err := ir.ParseSyncState(a.State); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertTail:
		if err := needKey(); err != nil {
			return err
		}
		if a.Present == nil {
			return fmt.Errorf("assertions[%d]: present is required for tail", index)
		}
	case AssertStrictKeyTimes:
	case AssertMatrixAt:
		if err := needT(); err != nil {
			return err
		}
		if len(a.Order) == 0 {
			return fmt.Errorf("assertions[%d]: order is required for matrix_at", index)
		}
		for _, name := range a.Order {
			if _, err := geom.ParseTransformType(name); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
		if len(a.Matrix) != 6 {
			return fmt.Errorf("assertions[%d]: matrix needs 6 entries, got %d", index, len(a.Matrix))
		}
	case AssertConditionCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for condition_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

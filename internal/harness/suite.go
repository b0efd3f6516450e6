package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DocumentNotFoundError is returned when a scenario references a document
// file that doesn't exist.
type DocumentNotFoundError struct {
	Scenario string
	Path     string
}

// Error implements the error interface.
func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("scenario %q references document %q which does not exist", e.Scenario, e.Path)
}

// FindScenarios returns the YAML scenario files under dir, sorted. filter is
// an optional filepath.Match pattern applied to the file name without its
// extension. A dir that is itself a file is returned as is.
func FindScenarios(dir, filter string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// Outcome is the result of one scenario file in a suite.
type Outcome struct {
	Path     string
	Scenario *Scenario
	// Result is nil when the scenario could not be loaded or run.
	Result *Result
	// Err is the load or execution error, if any.
	Err error
}

// Passed reports whether the scenario ran and every check held.
func (o Outcome) Passed() bool {
	return o.Err == nil && o.Result != nil && o.Result.Pass
}

// SuiteResult summarises a suite run.
type SuiteResult struct {
	Total    int       `json:"total"`
	Passed   int       `json:"passed"`
	Failed   int       `json:"failed"`
	Outcomes []Outcome `json:"-"`
}

// RunSuite loads and runs each scenario file in order. A scenario that
// fails to load or run is recorded as failed; the suite continues.
// Cancelling ctx stops the suite before the next scenario.
func RunSuite(ctx context.Context, paths []string) (*SuiteResult, error) {
	result := &SuiteResult{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Total++

		out := Outcome{Path: path}
		out.Scenario, out.Err = LoadScenario(path)
		if out.Err == nil {
			out.Result, out.Err = RunContext(ctx, out.Scenario)
		}

		if out.Passed() {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Outcomes = append(result.Outcomes, out)
	}
	return result, nil
}

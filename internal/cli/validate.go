package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/animsync/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                       `json:"valid"`
	Targets     int                        `json:"targets"`
	Descriptors int                        `json:"descriptors"`
	Errors      []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Check a document without synchronising it",
		Long: `Compile an animation document and check every descriptor against the
rules the engine relies on: value counts, keyTimes ordering, spline
counts, durations and motion paths.

The engine drops descriptors that fail these checks with a
malformed_descriptor condition; validate reports them up front.

Exit codes:
  0 - Document valid
  1 - Validation errors found
  2 - Command error (document not found, syntax error)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	doc, err := LoadDocument(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	result := ValidationResult{Targets: len(doc.Targets)}
	for _, t := range doc.Targets {
		formatter.VerboseLog("Validating target: %s (%d animation(s))", t.ID, len(t.Animations))
	}

	compiled, err := compiler.Compile(doc, compiler.NewClock())
	if err != nil {
		result.Errors = append(result.Errors, compileErrorToValidation(err))
		return outputValidationErrors(formatter, result)
	}
	if _, err := compiled.Options.EngineOptions(); err != nil {
		result.Errors = append(result.Errors, compileErrorToValidation(err))
	}
	for _, t := range compiled.Targets {
		result.Descriptors += len(t.Descriptors)
	}
	result.Errors = append(result.Errors, compiler.Validate(compiled)...)

	if len(result.Errors) > 0 {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// compileErrorToValidation converts a compile error to a validation error.
func compileErrorToValidation(err error) compiler.ValidationError {
	var cErr *compiler.CompileError
	if errors.As(err, &cErr) {
		return compiler.ValidationError{
			Field:   cErr.Field,
			Message: cErr.Message,
			Code:    MapFieldToErrorCode(cErr.Field),
		}
	}
	return compiler.ValidationError{
		Field:   "document",
		Message: err.Error(),
		Code:    ErrCodeGeneric,
	}
}

func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	result.Valid = true
	return formatter.Report(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "✓ Document valid: %d target(s), %d descriptor(s)\n",
			result.Targets, result.Descriptors)
		return err
	})
}

func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		if err := formatter.Failure(errs[0].Code, errs[0].Message, result); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "%s\n", err.Field)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}
	return failure
}

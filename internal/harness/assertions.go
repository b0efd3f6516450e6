package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/animsync/internal/engine"
	"github.com/roach88/animsync/internal/geom"
	"github.com/roach88/animsync/internal/ir"
)

const defaultTolerance = 1e-6

// AssertionError is returned when an assertion fails.
// It includes the target's outputs to help debug the failure.
type AssertionError struct {
	Type     string    // Assertion type for categorization
	Target   string    // Target id the assertion ran against
	Expected string    // Human-readable expected outcome
	Actual   string    // Human-readable actual outcome
	Outputs  []ir.Flat // Target outputs for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s (target %s)\n", e.Type, e.Target)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Outputs) > 0 {
		fmt.Fprintf(&buf, "\nOutputs:\n")
		for i, f := range e.Outputs {
			fmt.Fprintf(&buf, "  [%d] %s delay=%v dur=%v count=%v values=%v\n",
				i+1, f.Name, f.Delay, f.Duration, f.IterationCount, f.Values)
		}
	}

	return buf.String()
}

func fail(typ string, t *TargetResult, expected, actual string) error {
	return &AssertionError{
		Type:     typ,
		Target:   t.ID,
		Expected: expected,
		Actual:   actual,
		Outputs:  t.Result.Outputs,
	}
}

// assertValueAt checks the merged value of a key at one instant.
func assertValueAt(t *TargetResult, a Assertion) error {
	key, err := ir.ParseKey(a.Key)
	if err != nil {
		return err
	}
	got, ok := t.Result.ValueAt(key, *a.T)
	switch {
	case a.Absent && !ok:
		return nil
	case a.Absent:
		return fail(AssertValueAt, t, fmt.Sprintf("no value of %s at %v", key, *a.T), got.String())
	case !ok:
		return fail(AssertValueAt, t, fmt.Sprintf("%s = %s at %v", key, a.Value, *a.T), "no value")
	}
	want := ir.ParseValue(key.Attribute, a.Value)
	if !valuesClose(want, got, tolerance(a)) {
		return fail(AssertValueAt, t, fmt.Sprintf("%s = %s at %v", key, want, *a.T), got.String())
	}
	return nil
}

// valuesClose compares numeric values component-wise and everything else
// by formatted text.
func valuesClose(want, got ir.Value, tol float64) bool {
	if want.Kind == ir.ValueLiteral || got.Kind == ir.ValueLiteral {
		return want.String() == got.String()
	}
	if len(want.Nums) != len(got.Nums) || want.Unit != got.Unit {
		return false
	}
	for i := range want.Nums {
		if math.Abs(want.Nums[i]-got.Nums[i]) > tol {
			return false
		}
	}
	return true
}

func tolerance(a Assertion) float64 {
	if a.Tolerance > 0 {
		return a.Tolerance
	}
	return defaultTolerance
}

// assertOutputCount checks the number of outputs, of one key when given.
func assertOutputCount(t *TargetResult, a Assertion) error {
	outputs := t.Result.Outputs
	what := "outputs"
	if a.Key != "" {
		key, err := ir.ParseKey(a.Key)
		if err != nil {
			return err
		}
		outputs = t.Result.ForKey(key)
		what = "outputs of " + key.String()
	}
	if len(outputs) != *a.Count {
		return fail(AssertOutputCount, t,
			fmt.Sprintf("%d %s", *a.Count, what),
			fmt.Sprintf("%d %s", len(outputs), what))
	}
	return nil
}

// assertState checks that every named state bit is set on a descriptor.
func assertState(t *TargetResult, a Assertion) error {
	want, err := ir.ParseSyncState(a.State)
	if err != nil {
		return err
	}
	if *a.Index >= len(t.Result.Descriptors) {
		return fail(AssertState, t,
			fmt.Sprintf("descriptor %d", *a.Index),
			fmt.Sprintf("only %d descriptors", len(t.Result.Descriptors)))
	}
	got := t.Result.Descriptors[*a.Index].Common().State
	if !got.Has(want) {
		return fail(AssertState, t,
			fmt.Sprintf("descriptor %d has %s", *a.Index, want),
			got.String())
	}
	return nil
}

// assertTail checks whether a key has a separate infinite tail.
func assertTail(t *TargetResult, a Assertion) error {
	key, err := ir.ParseKey(a.Key)
	if err != nil {
		return err
	}
	found := false
	for _, f := range t.Result.ForKey(key) {
		if f.Tail {
			found = true
			break
		}
	}
	if found != *a.Present {
		return fail(AssertTail, t,
			fmt.Sprintf("tail present for %s: %v", key, *a.Present),
			fmt.Sprintf("tail present: %v", found))
	}
	return nil
}

// assertStrictKeyTimes checks every output against the Flat invariants:
// key times strictly increasing from 0 to 1 and consistent lengths.
func assertStrictKeyTimes(t *TargetResult, _ Assertion) error {
	for _, f := range t.Result.Outputs {
		if err := f.Validate(); err != nil {
			return fail(AssertStrictKeyTimes, t, "valid outputs", fmt.Sprintf("%s: %v", f.Name, err))
		}
	}
	return nil
}

// assertMatrixAt checks the composed transform at one instant. Matrix is in
// SVG order: a b c d e f.
func assertMatrixAt(t *TargetResult, a Assertion) error {
	order := make([]geom.TransformType, len(a.Order))
	for i, name := range a.Order {
		typ, err := geom.ParseTransformType(name)
		if err != nil {
			return err
		}
		order[i] = typ
	}
	m, err := t.Result.MatrixAt(*a.T, order)
	if err != nil {
		return fail(AssertMatrixAt, t, fmt.Sprintf("matrix %v", a.Matrix), err.Error())
	}
	got := []float64{m[0], m[3], m[1], m[4], m[2], m[5]}
	for i := range got {
		if math.Abs(got[i]-a.Matrix[i]) > tolerance(a) {
			return fail(AssertMatrixAt, t,
				fmt.Sprintf("matrix %v at %v", a.Matrix, *a.T),
				fmt.Sprintf("matrix %v", got))
		}
	}
	return nil
}

// assertConditionCount checks the number of conditions, of one kind when
// given.
func assertConditionCount(t *TargetResult, a Assertion) error {
	n := 0
	for _, c := range t.Result.Conditions {
		if a.Condition == "" || c.Kind == engine.ConditionKind(a.Condition) {
			n++
		}
	}
	if n != *a.Count {
		what := "conditions"
		if a.Condition != "" {
			what = a.Condition + " conditions"
		}
		var msgs []string
		for _, c := range t.Result.Conditions {
			msgs = append(msgs, c.String())
		}
		return fail(AssertConditionCount, t,
			fmt.Sprintf("%d %s", *a.Count, what),
			fmt.Sprintf("%d %s %v", n, what, msgs))
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		target, ok := result.Target(assertion.Target)
		if !ok {
			errors = append(errors, fmt.Sprintf("assertion[%d]: unknown target %q", i, assertion.Target))
			continue
		}

		var err error
		switch assertion.Type {
		case AssertValueAt:
			err = assertValueAt(target, assertion)
		case AssertOutputCount:
			err = assertOutputCount(target, assertion)
		case AssertState:
			err = assertState(target, assertion)
		case AssertTail:
			err = assertTail(target, assertion)
		case AssertStrictKeyTimes:
			err = assertStrictKeyTimes(target, assertion)
		case AssertMatrixAt:
			err = assertMatrixAt(target, assertion)
		case AssertConditionCount:
			err = assertConditionCount(target, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

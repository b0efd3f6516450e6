package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/animsync/internal/geom"
	"github.com/roach88/animsync/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported type for validation

	// Descriptor errors (E101-E109)
	ErrAttributeEmpty    = "E101" // attribute name is required
	ErrDurationUndefined = "E102" // keyframe duration must resolve
	ErrNoValues          = "E103" // at least one value required
	ErrKeyTimesLength    = "E104" // keyTimes must match values
	ErrKeyTimesOrder     = "E105" // keyTimes must rise within [0,1]
	ErrKeySplinesLength  = "E106" // keySplines must match segments
	ErrIterationCount    = "E107" // iteration count must be positive
	ErrRepeatDuration    = "E108" // repeat duration must be positive
	ErrOriginsLength     = "E109" // origins must match values

	// Motion errors (E110-E119)
	ErrMotionNoPath    = "E110" // path, pathRef or values required
	ErrMotionBadPath   = "E111" // path data does not parse
	ErrMotionKeyPoints = "E112" // keyPoints must match keyTimes
	ErrMotionRotate    = "E113" // unknown rotate mode

	// Group errors (E120-E129)
	ErrDuplicateGroupID  = "E120" // groupId must be unique
	ErrInterpolation     = "E121" // adjacent values cannot interpolate
	ErrDuplicateTargetID = "E122" // target ids must be unique
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks descriptors against the rules the engine relies on.
// Returns all errors found (does not fail-fast). Supports a single
// descriptor, a descriptor slice, and a compiled document.
//
// Descriptors that fail here are not rejected by the engine: it drops them
// with a malformed_descriptor condition. Validate reports them up front.
func Validate(v any) []ValidationError {
	switch x := v.(type) {
	case *Compiled:
		return validateCompiled(x)
	case []ir.Descriptor:
		return validateDescriptors(x, "descriptors")
	case ir.Descriptor:
		return validateDescriptor(x, "descriptor")
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validateCompiled(c *Compiled) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i, t := range c.Targets {
		if seen[t.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("targets[%d].id", i),
				Message: fmt.Sprintf("duplicate target id: %q", t.ID),
				Code:    ErrDuplicateTargetID,
			})
		}
		seen[t.ID] = true
		errs = append(errs, validateDescriptors(t.Descriptors, fmt.Sprintf("targets[%s]", t.ID))...)
	}
	return errs
}

func validateDescriptors(ds []ir.Descriptor, prefix string) []ValidationError {
	var errs []ValidationError
	ids := make(map[int64]int)
	for i, d := range ds {
		field := fmt.Sprintf("%s[%d]", prefix, i)
		errs = append(errs, validateDescriptor(d, field)...)

		// E120: groupId is the tie-break and must not repeat
		id := d.Common().GroupID
		if prev, ok := ids[id]; ok {
			errs = append(errs, ValidationError{
				Field:   field + ".group_id",
				Message: fmt.Sprintf("group id %d already used by %s[%d]", id, prefix, prev),
				Code:    ErrDuplicateGroupID,
			})
			continue
		}
		ids[id] = i
	}
	return errs
}

func validateDescriptor(d ir.Descriptor, field string) []ValidationError {
	var errs []ValidationError
	add := func(sub, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:   field + "." + sub,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	// E101: attribute name is required
	if strings.TrimSpace(d.Common().AttributeName) == "" {
		add("attribute_name", ErrAttributeEmpty, "attribute name is required")
	}

	switch v := d.(type) {
	case *ir.Setter:
		return errs
	case *ir.Keyframe:
		validateKeyframe(v, geom.TransformNone, add)
	case *ir.TransformKeyframe:
		validateKeyframe(&v.Keyframe, v.Type, add)
		// E109: origins are empty or one per value
		if len(v.Origins) > 0 && len(v.Origins) != 1 && len(v.Origins) != len(v.Values) {
			add("transform_origins", ErrOriginsLength,
				"%d origins for %d values", len(v.Origins), len(v.Values))
		}
	case *ir.MotionKeyframe:
		validateMotion(v, add)
	default:
		add("kind", ErrUnsupportedType, "unknown descriptor type %T", d)
	}
	return errs
}

type addFunc func(sub, code, format string, args ...any)

func validateTiming(k *ir.Keyframe, add addFunc) {
	// E102: a keyframe needs a resolved simple duration
	if k.Duration <= 0 {
		add("duration", ErrDurationUndefined, "duration must be positive, got %v", k.Duration)
	}

	// E107: iteration count is positive or Infinite
	if k.IterationCount != ir.Infinite && k.IterationCount <= 0 {
		add("iteration_count", ErrIterationCount, "iteration count must be positive, got %v", k.IterationCount)
	}

	// E108: repeat duration is positive, Infinite or unset
	if k.RepeatDuration < 0 && k.RepeatDuration != ir.Infinite {
		add("repeat_duration", ErrRepeatDuration, "repeat duration must be positive, got %v", k.RepeatDuration)
	}
}

func validateKeyframe(k *ir.Keyframe, typ geom.TransformType, add addFunc) {
	validateTiming(k, add)

	// E103: values are required
	if len(k.Values) == 0 {
		add("values", ErrNoValues, "at least one value is required")
		return
	}
	validateKeyTimes(k, add)

	// E121: adjacent values must interpolate unless the mode is discrete
	if k.CalcMode == ir.CalcDiscrete {
		return
	}
	attr := k.AttributeName
	vals := make([]ir.Value, len(k.Values))
	for i, s := range k.Values {
		vals[i] = ir.ParseValue(attr, s)
	}
	if typ != geom.TransformNone {
		vals = ir.PadTransformValues(typ, vals)
	}
	for i := 1; i < len(vals); i++ {
		if _, ok := ir.Interpolate(vals[i-1], vals[i], 0.5); !ok {
			add(fmt.Sprintf("values[%d]", i), ErrInterpolation,
				"cannot interpolate %q to %q", k.Values[i-1], k.Values[i])
		}
	}
}

func validateKeyTimes(k *ir.Keyframe, add addFunc) {
	n := len(k.Values)
	if len(k.KeyTimes) > 0 {
		// E104: one key time per value
		if len(k.KeyTimes) != n {
			add("key_times", ErrKeyTimesLength, "%d key times for %d values", len(k.KeyTimes), n)
		} else {
			// E105: key times rise within [0,1] and start at 0
			for i, t := range k.KeyTimes {
				if t < 0 || t > 1 {
					add(fmt.Sprintf("key_times[%d]", i), ErrKeyTimesOrder, "key time %v outside [0,1]", t)
				}
				if i > 0 && t < k.KeyTimes[i-1] {
					add(fmt.Sprintf("key_times[%d]", i), ErrKeyTimesOrder, "key times must not decrease")
				}
			}
			if k.KeyTimes[0] != 0 {
				add("key_times[0]", ErrKeyTimesOrder, "first key time must be 0, got %v", k.KeyTimes[0])
			}
		}
	}

	// E106: one spline per segment in spline mode
	if k.CalcMode == ir.CalcSpline && n > 1 && len(k.KeySplines) != n-1 {
		add("key_splines", ErrKeySplinesLength, "%d key splines for %d segments", len(k.KeySplines), n-1)
	}
}

func validateMotion(m *ir.MotionKeyframe, add addFunc) {
	validateTiming(&m.Keyframe, add)

	d := m.PathData
	if d == "" && m.PathRef != nil {
		d = m.PathRef.PathData
	}
	switch {
	case d != "":
		// E111: path data must parse to a non-empty path
		p, err := geom.ParsePath(d)
		if err != nil {
			add("path_data", ErrMotionBadPath, "%v", err)
		} else if p.Empty() {
			add("path_data", ErrMotionBadPath, "path is empty")
		}
	case len(m.Values) == 0:
		// E110: something must describe the motion
		add("path_data", ErrMotionNoPath, "path, path reference or values required")
	default:
		validateKeyTimes(&m.Keyframe, add)
	}

	// E112: key points pair with key times
	if len(m.KeyPoints) > 0 && len(m.KeyPoints) != len(m.KeyTimes) {
		add("key_points", ErrMotionKeyPoints, "%d key points for %d key times", len(m.KeyPoints), len(m.KeyTimes))
	}

	// E113: rotate mode
	switch m.Rotate.Mode {
	case "", ir.RotateFixed, ir.RotateAuto, ir.RotateAutoReverse:
	default:
		add("rotate.mode", ErrMotionRotate, "unknown rotate mode %q", m.Rotate.Mode)
	}
}

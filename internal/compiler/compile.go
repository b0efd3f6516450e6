package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/animsync/internal/geom"
	"github.com/roach88/animsync/internal/ir"
)

// Compiled is a document turned into descriptors, one set per target.
type Compiled struct {
	Options *Options
	Targets []CompiledTarget
}

// CompiledTarget holds the descriptors of one target in document order.
type CompiledTarget struct {
	ID          string
	Descriptors []ir.Descriptor
}

// ByID returns the descriptor sets keyed by target id.
func (c *Compiled) ByID() map[string][]ir.Descriptor {
	out := make(map[string][]ir.Descriptor, len(c.Targets))
	for _, t := range c.Targets {
		out[t.ID] = t.Descriptors
	}
	return out
}

// Compile converts doc into descriptors. Every animation is stamped with a
// groupId from ids in document order. Compilation stops at the first
// animation that cannot be converted.
func Compile(doc *Document, ids IDSource) (*Compiled, error) {
	if len(doc.Targets) == 0 {
		return nil, &CompileError{Field: "targets", Message: "at least one target is required"}
	}
	out := &Compiled{Options: doc.Options}
	seen := make(map[string]bool)
	for i, t := range doc.Targets {
		id := t.ID
		if id == "" {
			id = fmt.Sprintf("target%d", i+1)
		}
		if seen[id] {
			return nil, &CompileError{
				Field:   fmt.Sprintf("targets[%d].id", i),
				Message: fmt.Sprintf("duplicate target id %q", id),
			}
		}
		seen[id] = true

		ct := CompiledTarget{ID: id}
		siblings := make(map[string]int)
		for j, a := range t.Animations {
			field := fmt.Sprintf("targets[%d].animations[%d]", i, j)
			d, err := compileAnimation(a, field)
			if err != nil {
				return nil, err
			}
			b := d.Common()
			b.GroupID = ids.Next()
			if a.Group != "" {
				b.GroupName = a.Group
				siblings[a.Group]++
				b.Ordering = siblings[a.Group]
				if a.Ordering != nil {
					b.Ordering = *a.Ordering
				}
			}
			ct.Descriptors = append(ct.Descriptors, d)
		}
		out.Targets = append(out.Targets, ct)
	}
	return out, nil
}

func compileAnimation(a Animation, field string) (ir.Descriptor, error) {
	fail := func(sub, format string, args ...any) error {
		return &CompileError{Field: field + "." + sub, Message: fmt.Sprintf(format, args...)}
	}

	base := ir.Base{AttributeName: a.Attribute, Duration: ir.Undefined, IterationCount: 1}
	delay, ok := parseBegin(a.Begin)
	if !ok {
		return nil, fail("begin", "no offset in %q resolves", a.Begin)
	}
	base.Delay = delay

	fill := strings.Fields(strings.ReplaceAll(a.Fill, ",", " "))
	f, err := ir.ParseFillMode(fill...)
	if err != nil {
		return nil, fail("fill", "%v", err)
	}
	base.Fill = f

	switch a.Kind {
	case "set":
		return compileSet(a, base, fail)
	case "animate", "animateTransform", "animateMotion":
	case "":
		return nil, fail("kind", "kind is required")
	default:
		return nil, fail("kind", "unknown kind %q", a.Kind)
	}

	if err := compileTiming(a, &base, fail); err != nil {
		return nil, err
	}
	k := ir.Keyframe{Base: base}
	if err := compileKeyframe(a, &k, fail); err != nil {
		return nil, err
	}

	switch a.Kind {
	case "animateTransform":
		typ, err := geom.ParseTransformType(a.Type)
		if err != nil || typ == geom.TransformNone {
			return nil, fail("type", "unknown transform type %q", a.Type)
		}
		k.AttributeName = "transform"
		origins, err := parseOrigins(a.Origin)
		if err != nil {
			return nil, fail("origin", "%v", err)
		}
		return &ir.TransformKeyframe{Keyframe: k, Type: typ, Origins: origins}, nil
	case "animateMotion":
		k.AttributeName = "transform"
		return compileMotion(a, k, fail)
	}
	if a.Attribute == "" {
		return nil, fail("attribute", "attribute is required")
	}
	return &k, nil
}

func compileSet(a Animation, base ir.Base, fail func(string, string, ...any) error) (ir.Descriptor, error) {
	if a.To == "" {
		return nil, fail("to", "set requires a to value")
	}
	s := &ir.Setter{Base: base, To: a.To}
	s.Duration = 0
	if a.Type != "" {
		typ, err := geom.ParseTransformType(a.Type)
		if err != nil {
			return nil, fail("type", "unknown transform type %q", a.Type)
		}
		s.Transform = typ
		s.AttributeName = "transform"
	}
	if s.AttributeName == "" {
		return nil, fail("attribute", "attribute is required")
	}
	return s, nil
}

func compileTiming(a Animation, b *ir.Base, fail func(string, string, ...any) error) error {
	if a.Dur != "" {
		d, err := ParseClock(a.Dur)
		if err != nil {
			return fail("dur", "%v", err)
		}
		if d != Indefinite {
			b.Duration = d
		}
	}
	if a.RepeatCount != "" {
		if a.RepeatCount == "indefinite" {
			b.IterationCount = ir.Infinite
		} else {
			n, err := strconv.ParseFloat(a.RepeatCount, 64)
			if err != nil || n <= 0 {
				return fail("repeatCount", "invalid repeat count %q", a.RepeatCount)
			}
			b.IterationCount = n
		}
	} else if a.RepeatDur != "" {
		b.IterationCount = ir.Infinite
	}
	return nil
}

func compileKeyframe(a Animation, k *ir.Keyframe, fail func(string, string, ...any) error) error {
	if a.RepeatDur != "" {
		d, err := ParseClock(a.RepeatDur)
		if err != nil {
			return fail("repeatDur", "%v", err)
		}
		k.RepeatDuration = d
	}

	vals, additive, err := compileValues(a)
	if err != nil {
		return fail("values", "%v", err)
	}
	k.Values = vals
	k.AdditiveSum = additive || a.Additive == "sum"
	k.AccumulateSum = a.Accumulate == "sum"

	if a.KeyTimes != "" {
		for _, s := range splitList(a.KeyTimes) {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fail("keyTimes", "invalid key time %q", s)
			}
			k.KeyTimes = append(k.KeyTimes, v)
		}
	}
	if a.KeySplines != "" {
		for _, s := range splitList(a.KeySplines) {
			sp, err := ir.ParseSpline(s)
			if err != nil {
				return fail("keySplines", "%v", err)
			}
			k.KeySplines = append(k.KeySplines, sp)
		}
	}
	if a.CalcMode != "" {
		k.CalcMode = ir.CalcMode(a.CalcMode)
	}

	switch a.Direction {
	case "", "normal":
	case "reverse":
		k.Reverse = true
	case "alternate":
		k.Alternate = true
	case "alternate-reverse":
		k.Reverse, k.Alternate = true, true
	default:
		return fail("direction", "unknown direction %q", a.Direction)
	}
	return nil
}

// compileValues resolves values, or from/to/by. A by-only animation adds to
// the underlying value.
func compileValues(a Animation) (vals []string, additive bool, err error) {
	if a.Values != "" {
		return splitList(a.Values), false, nil
	}
	switch {
	case a.From != "" && a.To != "":
		return []string{a.From, a.To}, false, nil
	case a.From != "" && a.By != "":
		to, err := addBy(a.Attribute, a.From, a.By)
		if err != nil {
			return nil, false, err
		}
		return []string{a.From, to}, false, nil
	case a.By != "":
		zero := ir.Scale(ir.ParseValue(a.Attribute, a.By), 0)
		return []string{zero.String(), a.By}, true, nil
	case a.To != "":
		return []string{a.To}, false, nil
	case a.Kind == "animateMotion":
		return nil, false, nil
	}
	return nil, false, fmt.Errorf("one of values, from/to, from/by or by is required")
}

func addBy(attr, from, by string) (string, error) {
	sum, ok := ir.Add(ir.ParseValue(attr, from), ir.ParseValue(attr, by))
	if !ok {
		return "", fmt.Errorf("cannot add %q to %q", by, from)
	}
	return sum.String(), nil
}

func compileMotion(a Animation, k ir.Keyframe, fail func(string, string, ...any) error) (ir.Descriptor, error) {
	m := &ir.MotionKeyframe{
		TransformKeyframe: ir.TransformKeyframe{Keyframe: k, Type: geom.TransformTranslate},
		PathData:          a.Path,
		Rotate:            ir.RotatePolicy{Mode: ir.RotateFixed},
	}
	if a.PathRef != nil {
		ts, err := geom.ParseTransformList(a.PathRef.Transform)
		if err != nil {
			return nil, fail("pathRef.transform", "%v", err)
		}
		m.PathRef = &ir.PathRef{ID: a.PathRef.ID, PathData: a.PathRef.D, Transforms: ts}
	}
	if m.PathData == "" && m.PathRef == nil && len(m.Values) == 0 {
		return nil, fail("path", "animateMotion requires path, pathRef or values")
	}

	switch a.Rotate {
	case "", "0":
	case "auto":
		m.Rotate.Mode = ir.RotateAuto
	case "auto-reverse":
		m.Rotate.Mode = ir.RotateAutoReverse
	default:
		angle, err := strconv.ParseFloat(a.Rotate, 64)
		if err != nil {
			return nil, fail("rotate", "invalid rotate %q", a.Rotate)
		}
		m.Rotate.Angle = angle
	}

	if a.KeyPoints != "" {
		for _, s := range splitList(a.KeyPoints) {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fail("keyPoints", "invalid key point %q", s)
			}
			m.KeyPoints = append(m.KeyPoints, v)
		}
	}
	return m, nil
}

// parseOrigins parses "cx cy" or a ';'-separated list of them.
func parseOrigins(s string) ([]geom.Point, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []geom.Point
	for _, item := range splitList(s) {
		nums, err := geom.ParseNumbers(item)
		if err != nil {
			return nil, err
		}
		if len(nums) != 2 {
			return nil, fmt.Errorf("origin %q: want two numbers", item)
		}
		out = append(out, geom.Pt(nums[0], nums[1]))
	}
	return out, nil
}

// splitList splits a ';'-separated SMIL list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ";") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}

package compiler

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Document is an authored animation document: engine options plus the
// animations of one or more targets. Attribute names and value syntax
// follow SVG/SMIL.
type Document struct {
	Options *Options `yaml:"options,omitempty" json:"options,omitempty"`
	Targets []Target `yaml:"targets" json:"targets"`
}

// Target is one animated element.
type Target struct {
	ID         string      `yaml:"id" json:"id"`
	Animations []Animation `yaml:"animations" json:"animations"`
}

// Animation is one SMIL-style animation element.
type Animation struct {
	// Kind is "set", "animate", "animateTransform" or "animateMotion".
	Kind      string `yaml:"kind" json:"kind"`
	Attribute string `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	// Type is the transform channel of animateTransform and of a set on
	// "transform".
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	Begin       string `yaml:"begin,omitempty" json:"begin,omitempty"`
	Dur         string `yaml:"dur,omitempty" json:"dur,omitempty"`
	RepeatCount string `yaml:"repeatCount,omitempty" json:"repeatCount,omitempty"`
	RepeatDur   string `yaml:"repeatDur,omitempty" json:"repeatDur,omitempty"`
	Fill        string `yaml:"fill,omitempty" json:"fill,omitempty"`

	Values     string `yaml:"values,omitempty" json:"values,omitempty"`
	From       string `yaml:"from,omitempty" json:"from,omitempty"`
	To         string `yaml:"to,omitempty" json:"to,omitempty"`
	By         string `yaml:"by,omitempty" json:"by,omitempty"`
	KeyTimes   string `yaml:"keyTimes,omitempty" json:"keyTimes,omitempty"`
	KeySplines string `yaml:"keySplines,omitempty" json:"keySplines,omitempty"`
	CalcMode   string `yaml:"calcMode,omitempty" json:"calcMode,omitempty"`
	Additive   string `yaml:"additive,omitempty" json:"additive,omitempty"`
	Accumulate string `yaml:"accumulate,omitempty" json:"accumulate,omitempty"`
	// Direction is "normal", "reverse", "alternate" or "alternate-reverse".
	Direction string `yaml:"direction,omitempty" json:"direction,omitempty"`
	// Origin is "cx cy", or one origin per value separated by ';'.
	Origin string `yaml:"origin,omitempty" json:"origin,omitempty"`

	// Group and Ordering declare siblings; later siblings win ties.
	Group    string `yaml:"group,omitempty" json:"group,omitempty"`
	Ordering *int   `yaml:"ordering,omitempty" json:"ordering,omitempty"`

	Path      string   `yaml:"path,omitempty" json:"path,omitempty"`
	PathRef   *PathRef `yaml:"pathRef,omitempty" json:"pathRef,omitempty"`
	Rotate    string   `yaml:"rotate,omitempty" json:"rotate,omitempty"`
	KeyPoints string   `yaml:"keyPoints,omitempty" json:"keyPoints,omitempty"`
}

// PathRef is an inline copy of a referenced path element.
type PathRef struct {
	ID        string `yaml:"id,omitempty" json:"id,omitempty"`
	D         string `yaml:"d" json:"d"`
	Transform string `yaml:"transform,omitempty" json:"transform,omitempty"`
}

// LoadFile reads the document at path. Files ending in ".cue" are evaluated
// as CUE; anything else is decoded as YAML.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return ParseCUE(data, path)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a YAML document. Unknown fields are rejected.
func ParseYAML(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, &CompileError{Field: "document", Message: "document is empty"}
		}
		return nil, &CompileError{Field: "yaml", Message: err.Error()}
	}
	return &doc, nil
}

// ParseCUE evaluates CUE source and decodes the document it defines.
// filename is used in error positions.
func ParseCUE(data []byte, filename string) (*Document, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return DecodeCUE(v)
}

// DecodeCUE decodes a CUE value into a Document. The value must be concrete;
// each animation is decoded separately so that errors point at it.
func DecodeCUE(v cue.Value) (*Document, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	doc := &Document{}
	if opts := v.LookupPath(cue.ParsePath("options")); opts.Exists() {
		doc.Options = &Options{}
		if err := opts.Decode(doc.Options); err != nil {
			return nil, formatCUEError(err)
		}
	}

	targets := v.LookupPath(cue.ParsePath("targets"))
	if !targets.Exists() {
		return nil, &CompileError{Field: "targets", Message: "targets are required", Pos: v.Pos()}
	}
	iter, err := targets.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		tv := iter.Value()
		var target Target
		if id := tv.LookupPath(cue.ParsePath("id")); id.Exists() {
			if target.ID, err = id.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		anims := tv.LookupPath(cue.ParsePath("animations"))
		if !anims.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("targets[%d].animations", i),
				Message: "animations are required",
				Pos:     tv.Pos(),
			}
		}
		aiter, err := anims.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for aiter.Next() {
			var a Animation
			if err := aiter.Value().Decode(&a); err != nil {
				return nil, formatCUEError(err)
			}
			target.Animations = append(target.Animations, a)
		}
		doc.Targets = append(doc.Targets, target)
	}
	return doc, nil
}

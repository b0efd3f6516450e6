package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/animsync/internal/compiler"
	"github.com/roach88/animsync/internal/ir"
)

// marshalOptions converts run options to canonical JSON TEXT. Nil options
// are stored as an empty object.
func marshalOptions(opts *compiler.Options) (string, error) {
	if opts == nil {
		return "{}", nil
	}
	data, err := ir.CanonicalJSON(opts)
	if err != nil {
		return "", fmt.Errorf("marshal options: %w", err)
	}
	return string(data), nil
}

// marshalInput converts a descriptor list to canonical JSON TEXT.
func marshalInput(ds []ir.Descriptor) (string, error) {
	if ds == nil {
		ds = []ir.Descriptor{}
	}
	data, err := ir.CanonicalInput(ds)
	if err != nil {
		return "", fmt.Errorf("marshal input: %w", err)
	}
	return string(data), nil
}

// marshalOutput converts flattened outputs to canonical JSON TEXT.
func marshalOutput(out []ir.Flat) (string, error) {
	if out == nil {
		out = []ir.Flat{}
	}
	data, err := ir.CanonicalJSON(out)
	if err != nil {
		return "", fmt.Errorf("marshal output: %w", err)
	}
	return string(data), nil
}

func unmarshalOptions(data string) (*compiler.Options, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var opts compiler.Options
	if err := json.Unmarshal([]byte(data), &opts); err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}
	return &opts, nil
}

func unmarshalInput(data string) ([]ir.Descriptor, error) {
	ds, err := ir.UnmarshalDescriptors([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal input: %w", err)
	}
	return ds, nil
}

func unmarshalOutput(data string) ([]ir.Flat, error) {
	var out []ir.Flat
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal output: %w", err)
	}
	if out == nil {
		out = []ir.Flat{}
	}
	return out, nil
}

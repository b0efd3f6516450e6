package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// envelope carries the variant tag next to the variant body.
type envelope struct {
	Kind Kind            `json:"kind"`
	Body json.RawMessage `json:"descriptor"`
}

// MarshalDescriptor encodes d as {"kind": ..., "descriptor": {...}}.
func MarshalDescriptor(d Descriptor) ([]byte, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal %s descriptor: %w", d.Kind(), err)
	}
	return json.Marshal(envelope{Kind: d.Kind(), Body: body})
}

// UnmarshalDescriptor decodes the form produced by MarshalDescriptor.
// Unknown fields are rejected.
func UnmarshalDescriptor(data []byte) (Descriptor, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode descriptor envelope: %w", err)
	}
	var d Descriptor
	switch env.Kind {
	case KindSetter:
		d = &Setter{}
	case KindKeyframe:
		d = &Keyframe{}
	case KindTransformKeyframe:
		d = &TransformKeyframe{}
	case KindMotionKeyframe:
		d = &MotionKeyframe{}
	default:
		return nil, fmt.Errorf("unknown descriptor kind %q", env.Kind)
	}
	dec := json.NewDecoder(bytes.NewReader(env.Body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(d); err != nil {
		return nil, fmt.Errorf("decode %s descriptor: %w", env.Kind, err)
	}
	return d, nil
}

// MarshalDescriptors encodes a descriptor list as a JSON array of envelopes.
func MarshalDescriptors(ds []Descriptor) ([]byte, error) {
	items := make([]json.RawMessage, len(ds))
	for i, d := range ds {
		b, err := MarshalDescriptor(d)
		if err != nil {
			return nil, fmt.Errorf("descriptor[%d]: %w", i, err)
		}
		items[i] = b
	}
	return json.Marshal(items)
}

// UnmarshalDescriptors decodes the form produced by MarshalDescriptors.
func UnmarshalDescriptors(data []byte) ([]Descriptor, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode descriptor list: %w", err)
	}
	out := make([]Descriptor, len(items))
	for i, raw := range items {
		d, err := UnmarshalDescriptor(raw)
		if err != nil {
			return nil, fmt.Errorf("descriptor[%d]: %w", i, err)
		}
		out[i] = d
	}
	return out, nil
}

// MarshalJSON encodes the fill bitset by name.
func (f FillMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON accepts the names produced by String.
func (f *FillMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseFillMode(strings.Split(s, "|")...)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// MarshalJSON encodes the state bitset by name.
func (s SyncState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the names produced by String.
func (s *SyncState) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	v, err := ParseSyncState(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

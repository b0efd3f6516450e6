package ir

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/roach88/animsync/internal/geom"
)

// Key identifies a merge group: an attribute, optionally narrowed to one
// transform channel.
type Key struct {
	Attribute string             `json:"attribute"`
	Transform geom.TransformType `json:"transform,omitempty"`
}

// AttrKey is shorthand for a plain attribute key.
func AttrKey(attr string) Key {
	return Key{Attribute: attr}
}

// TransformKey is shorthand for a transform channel key.
func TransformKey(t geom.TransformType) Key {
	return Key{Attribute: "transform", Transform: t}
}

// IsTransform reports whether the key addresses a transform channel.
func (k Key) IsTransform() bool {
	return k.Transform != geom.TransformNone
}

// String renders the key for logs and names ("opacity", "transform/rotate").
func (k Key) String() string {
	if k.IsTransform() {
		return k.Attribute + "/" + k.Transform.String()
	}
	return k.Attribute
}

// CompareKeys orders keys by attribute, then transform type.
func CompareKeys(a, b Key) int {
	if c := cmp.Compare(a.Attribute, b.Attribute); c != 0 {
		return c
	}
	return cmp.Compare(a.Transform, b.Transform)
}

// ParseKey parses the String form of a key. A "transform" attribute with no
// channel is a plain attribute key.
func ParseKey(s string) (Key, error) {
	attr, channel, ok := strings.Cut(strings.TrimSpace(s), "/")
	if attr == "" {
		return Key{}, fmt.Errorf("invalid key %q", s)
	}
	if !ok {
		return AttrKey(attr), nil
	}
	typ, err := geom.ParseTransformType(channel)
	if err != nil {
		return Key{}, fmt.Errorf("invalid key %q: %w", s, err)
	}
	return Key{Attribute: attr, Transform: typ}, nil
}

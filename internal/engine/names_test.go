package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/animsync/internal/geom"
	"github.com/roach88/animsync/internal/ir"
)

func TestNameAllocator_Next(t *testing.T) {
	a := NewNameAllocator()

	assert.Equal(t, "opacity", a.Next("opacity"))
	assert.Equal(t, "opacity_2", a.Next("opacity"))
	assert.Equal(t, "fill", a.Next("fill"))
	assert.Equal(t, "opacity_3", a.Next("opacity"))
}

func TestNameAllocator_AvoidsTakenSuffix(t *testing.T) {
	a := NewNameAllocator()

	assert.Equal(t, "x_2", a.Next("x_2"))
	assert.Equal(t, "x", a.Next("x"))
	assert.Equal(t, "x_3", a.Next("x"), "x_2 is already taken")
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "opacity", BaseName(ir.AttrKey("opacity")))
	assert.Equal(t, "transform_rotate", BaseName(ir.TransformKey(geom.TransformRotate)))
	assert.Equal(t, "transform_skewX", BaseName(ir.TransformKey(geom.TransformSkewX)))
}

func TestKeyTimeMode_Parse(t *testing.T) {
	m, err := ParseKeyTimeMode("segments")
	assert.NoError(t, err)
	assert.Equal(t, KeyTimesSegments, m)
	assert.Equal(t, "segments", m.String())

	m, err = ParseKeyTimeMode("")
	assert.NoError(t, err)
	assert.Equal(t, KeyTimesAllowed, m)

	_, err = ParseKeyTimeMode("frames")
	assert.Error(t, err)
}

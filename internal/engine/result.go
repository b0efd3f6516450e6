package engine

import (
	"fmt"

	"github.com/roach88/animsync/internal/geom"
	"github.com/roach88/animsync/internal/ir"
)

// Result is the outcome of one synchronisation run.
type Result struct {
	RunID string `json:"run_id"`
	// Outputs are grouped by key in key order, and in time order within a
	// key; a key's infinite tail comes last.
	Outputs    []ir.Flat   `json:"outputs"`
	Conditions []Condition `json:"conditions,omitempty"`
	// Descriptors are copies of the inputs carrying their final states.
	Descriptors []ir.Descriptor `json:"-"`
}

// ForKey returns the outputs of one group.
func (r *Result) ForKey(k ir.Key) []ir.Flat {
	var out []ir.Flat
	for _, f := range r.Outputs {
		if f.Key == k {
			out = append(out, f)
		}
	}
	return out
}

// ValueAt evaluates the flattened group k at time t. Outputs of one group do
// not overlap except at instants, where the later one wins.
func (r *Result) ValueAt(k ir.Key, t float64) (ir.Value, bool) {
	var (
		val   ir.Value
		found bool
	)
	for _, f := range r.Outputs {
		if f.Key != k {
			continue
		}
		if v, ok := f.ValueAt(t); ok {
			val, found = v, true
		}
	}
	return val, found
}

// MatrixAt composes the transform channels in order at time t. Channels with
// no value at t are skipped.
func (r *Result) MatrixAt(t float64, order []geom.TransformType) (geom.Matrix2D, error) {
	var ts []geom.Transform
	for _, typ := range order {
		k := ir.TransformKey(typ)
		v, ok := r.ValueAt(k, t)
		if !ok {
			continue
		}
		if len(v.Nums) == 0 {
			return geom.Identity(), fmt.Errorf("%s at %v: value %q is not numeric", k, t, v)
		}
		tf := geom.Transform{Type: typ, Params: v.Nums}
		for _, f := range r.ForKey(k) {
			if f.Origin != nil {
				o := *f.Origin
				tf.Origin = &o
				break
			}
		}
		ts = append(ts, tf)
	}
	return geom.Compose(ts)
}

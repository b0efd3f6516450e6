package ir

import (
	"fmt"
	"math"

	"github.com/roach88/animsync/internal/geom"
)

// Flat is one flattened output descriptor. Values are fully expanded:
// no calc mode, no partial markers, KeyTimes strictly increasing from 0
// to 1. A setter Flat has one value and no key times.
type Flat struct {
	Name           string      `json:"name"`
	Key            Key         `json:"key"`
	Setter         bool        `json:"setter,omitempty"`
	Delay          float64     `json:"delay"`
	Duration       float64     `json:"duration"`
	IterationCount float64     `json:"iteration_count"`
	Fill           FillMode    `json:"fill,omitempty"`
	KeyTimes       []float64   `json:"key_times,omitempty"`
	Values         []string    `json:"values"`
	KeySplines     []Spline    `json:"key_splines,omitempty"`
	Origin         *geom.Point `json:"origin,omitempty"`
	// Tail marks the separately looped infinite portion of a group.
	Tail bool `json:"tail,omitempty"`
}

// IsInfinite reports whether the Flat repeats forever.
func (f *Flat) IsInfinite() bool {
	return f.IterationCount == Infinite
}

// End returns the time the Flat stops playing, +Inf when infinite.
func (f *Flat) End() float64 {
	switch {
	case f.Setter:
		return f.Delay
	case f.IsInfinite():
		return math.Inf(1)
	}
	return f.Delay + f.Duration*f.IterationCount
}

// Validate checks the flattened-output guarantees.
func (f *Flat) Validate() error {
	if len(f.Values) == 0 {
		return fmt.Errorf("%s: no values", f.Name)
	}
	if f.Setter {
		if len(f.Values) != 1 || len(f.KeyTimes) != 0 {
			return fmt.Errorf("%s: setter must carry exactly one value", f.Name)
		}
		return nil
	}
	if len(f.KeyTimes) != len(f.Values) {
		return fmt.Errorf("%s: %d key times for %d values", f.Name, len(f.KeyTimes), len(f.Values))
	}
	if f.KeyTimes[0] != 0 || f.KeyTimes[len(f.KeyTimes)-1] != 1 {
		return fmt.Errorf("%s: key times must span [0,1]", f.Name)
	}
	for i := 1; i < len(f.KeyTimes); i++ {
		if f.KeyTimes[i] <= f.KeyTimes[i-1] {
			return fmt.Errorf("%s: key times not strictly increasing at %d", f.Name, i)
		}
	}
	if len(f.KeySplines) != 0 && len(f.KeySplines) != len(f.Values)-1 {
		return fmt.Errorf("%s: %d key splines for %d segments", f.Name, len(f.KeySplines), len(f.Values)-1)
	}
	return nil
}

// ValueAt evaluates the Flat at absolute time t. The boolean is false when
// the Flat does not affect the attribute at t.
func (f *Flat) ValueAt(t float64) (Value, bool) {
	attr := f.Key.Attribute
	if f.Setter {
		if t == f.Delay || (t > f.Delay && f.Fill.Holds()) {
			return ParseValue(attr, f.Values[0]), true
		}
		return Value{}, false
	}
	if t < f.Delay {
		if f.Fill.Has(FillBackwards) {
			return ParseValue(attr, f.Values[0]), true
		}
		return Value{}, false
	}
	if f.Duration <= 0 {
		return Value{}, false
	}
	e := (t - f.Delay) / f.Duration
	if !f.IsInfinite() && e >= f.IterationCount {
		if !f.Fill.Holds() {
			return Value{}, false
		}
		e = f.IterationCount
		i := math.Ceil(e) - 1
		return f.localValue(e - math.Max(i, 0)), true
	}
	return f.localValue(e - math.Floor(e)), true
}

// localValue evaluates one iteration at fraction u.
func (f *Flat) localValue(u float64) Value {
	attr := f.Key.Attribute
	n := len(f.Values)
	j := 0
	for j+1 < n && f.KeyTimes[j+1] <= u {
		j++
	}
	if j == n-1 {
		return ParseValue(attr, f.Values[n-1])
	}
	x := (u - f.KeyTimes[j]) / (f.KeyTimes[j+1] - f.KeyTimes[j])
	if len(f.KeySplines) > 0 {
		x = f.KeySplines[j].Ease(x)
	}
	v, _ := Interpolate(ParseValue(attr, f.Values[j]), ParseValue(attr, f.Values[j+1]), x)
	return v
}

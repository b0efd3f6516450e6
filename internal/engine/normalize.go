package engine

import (
	"math"

	"github.com/roach88/animsync/internal/ir"
)

// fillKeyframes writes the key times, formatted values and key splines of
// kfs into f, with times normalized over [t0, t0+span].
func (r *run) fillKeyframes(f *ir.Flat, kfs []keyframe, t0, span float64) {
	times := make([]float64, len(kfs))
	for i, k := range kfs {
		times[i] = (k.t - t0) / span
	}
	f.KeyTimes = normalizeTimes(times)

	f.Values = make([]string, len(kfs))
	for i, k := range kfs {
		f.Values[i] = k.v.Format(r.e.precision)
	}

	f.KeySplines = nil
	linear := true
	for _, k := range kfs[:len(kfs)-1] {
		if !k.ease.IsLinear() {
			linear = false
			break
		}
	}
	if linear {
		return
	}
	f.KeySplines = make([]ir.Spline, len(kfs)-1)
	for i, k := range kfs[:len(kfs)-1] {
		f.KeySplines[i] = k.ease
	}
}

// normalizeTimes pins the fractions to [0, 1] and makes them strictly
// increasing. Coincident fractions (jumps) are pushed apart by one ulp,
// upward first and then downward from 1 if the upward pass overflowed.
func normalizeTimes(fr []float64) []float64 {
	n := len(fr)
	if n == 0 {
		return fr
	}
	fr[0] = 0
	for i := 1; i < n; i++ {
		fr[i] = math.Max(0, math.Min(1, fr[i]))
		if fr[i] <= fr[i-1] {
			fr[i] = math.Nextafter(fr[i-1], 2)
		}
	}
	if n < 2 {
		return fr
	}
	fr[n-1] = 1
	for i := n - 2; i > 0 && fr[i] >= fr[i+1]; i-- {
		fr[i] = math.Nextafter(fr[i+1], -1)
	}
	return fr
}

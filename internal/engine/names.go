package engine

import (
	"strconv"
	"sync"

	"github.com/roach88/animsync/internal/ir"
)

// NameAllocator hands out unique output names for one synchronisation run.
// The first request for a base gets the base itself, later ones get _2, _3…
//
// Thread-safety: safe for concurrent use via internal mutex.
type NameAllocator struct {
	mu    sync.Mutex
	used  map[string]bool
	count map[string]int
}

// NewNameAllocator returns an empty allocator.
func NewNameAllocator() *NameAllocator {
	return &NameAllocator{
		used:  make(map[string]bool),
		count: make(map[string]int),
	}
}

// Next returns the next unused name derived from base.
func (a *NameAllocator) Next(base string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	for {
		a.count[base]++
		name := base
		if n := a.count[base]; n > 1 {
			name = base + "_" + strconv.Itoa(n)
		}
		if !a.used[name] {
			a.used[name] = true
			return name
		}
	}
}

// BaseName is the output name stem of a group: the attribute, suffixed with
// the transform channel ("transform_rotate").
func BaseName(k ir.Key) string {
	if k.IsTransform() {
		return k.Attribute + "_" + k.Transform.String()
	}
	return k.Attribute
}

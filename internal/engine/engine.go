package engine

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/animsync/internal/ir"
)

// Engine flattens descriptor sets into non-overlapping output timelines.
//
// An Engine holds configuration only. Each Synchronize call builds its own
// run state, so one Engine may serve concurrent calls.
//
// INVARIANTS:
//   - Output depends only on the input descriptors and the options
//   - Groups are processed in key order; conditions follow input order
//     within a group
//   - The caller's descriptors are never mutated
type Engine struct {
	keyTimeMode   KeyTimeMode
	frameRate     float64
	precision     int
	maxKeyframes  int
	sampleCount   int
	alignInfinite bool

	logger *slog.Logger
	runIDs RunIDGenerator
}

// New creates an Engine with default settings, then applies opts.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		keyTimeMode:  KeyTimesAllowed,
		precision:    DefaultPrecision,
		maxKeyframes: DefaultMaxKeyframes,
		sampleCount:  DefaultSampleCount,
		logger:       slog.Default(),
		runIDs:       UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Synchronize is a convenience for New(opts...).Synchronize(descs).
func Synchronize(descs []ir.Descriptor, opts ...EngineOption) (*Result, error) {
	return New(opts...).Synchronize(descs)
}

// run is the state of one Synchronize call.
type run struct {
	e          *Engine
	names      *NameAllocator
	budget     *keyframeBudget
	conditions []Condition
}

// condition records a soft condition and logs it.
func (r *run) condition(kind ConditionKind, key ir.Key, index int, msg string) {
	c := Condition{Kind: kind, Key: key, Index: index, Message: msg}
	r.conditions = append(r.conditions, c)
	r.e.logger.Warn("synchronization condition",
		"kind", string(kind),
		"key", key.String(),
		"index", index,
		"message", msg,
	)
}

// Synchronize merges descs into flattened outputs.
//
// Descriptors that cannot be used are dropped with a condition. The only
// errors are a BudgetError when the output would exceed the keyframe cap and
// an internal stall of the ownership sweep.
func (e *Engine) Synchronize(descs []ir.Descriptor) (*Result, error) {
	r := &run{
		e:      e,
		names:  NewNameAllocator(),
		budget: newKeyframeBudget(e.maxKeyframes),
	}

	clones := make([]ir.Descriptor, len(descs))
	for i, d := range descs {
		clones[i] = d.Clone()
		clones[i].Common().State = 0
	}
	tracks := r.buildTracks(clones)

	groups := make(map[ir.Key][]*track)
	for _, tr := range tracks {
		groups[tr.key] = append(groups[tr.key], tr)
	}
	keys := slices.SortedFunc(maps.Keys(groups), ir.CompareKeys)

	plans := make([]*groupPlan, 0, len(keys))
	for _, key := range keys {
		p, err := r.planGroup(key, groups[key])
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	r.alignTails(plans)

	var outputs []ir.Flat
	for _, p := range plans {
		flats, err := r.renderGroup(p)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, flats...)
	}

	writeStates(clones, tracks)

	res := &Result{
		RunID:       e.runIDs.Generate(),
		Outputs:     outputs,
		Conditions:  r.conditions,
		Descriptors: clones,
	}
	e.logger.Info("synchronized",
		"run_id", res.RunID,
		"descriptors", len(descs),
		"groups", len(plans),
		"outputs", len(outputs),
		"keyframes", r.budget.Current(),
		"conditions", len(r.conditions),
	)
	return res, nil
}

// writeStates copies track states to their descriptors. A motion descriptor
// reports its translate track; its rotate track only adds flags.
func writeStates(descs []ir.Descriptor, tracks []*track) {
	seen := make(map[int]bool)
	for _, tr := range tracks {
		b := descs[tr.src].Common()
		if !seen[tr.src] {
			b.State = tr.state
			seen[tr.src] = true
			continue
		}
		terminal := b.State & (ir.StateComplete | ir.StateInvalid)
		b.State = (b.State|tr.state)&^(ir.StateComplete|ir.StateInvalid) | terminal
	}
}

// SynchronizeTargets synchronizes the descriptor sets of several independent
// targets concurrently. Results are keyed like targets. The first error
// cancels the remaining targets.
func (e *Engine) SynchronizeTargets(ctx context.Context, targets map[string][]ir.Descriptor) (map[string]*Result, error) {
	names := slices.Sorted(maps.Keys(targets))
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	out := make(map[string]*Result, len(names))
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.Synchronize(targets[name])
			if err != nil {
				return fmt.Errorf("target %s: %w", name, err)
			}
			mu.Lock()
			out[name] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

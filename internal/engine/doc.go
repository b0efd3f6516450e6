// Package engine implements the timeline merge engine.
//
// The engine takes the animation descriptors of one target, groups them by
// attribute or transform channel, and flattens each group into keyframe
// timelines that reproduce the combined visual effect of the competing
// animations.
//
// ARCHITECTURE:
//
// Per group, each descriptor becomes a track with a local keyframe list.
// The group's time axis is cut at every start and end into elementary
// segments. A FIFO work queue of track ids, seeded in descending priority,
// hands out ownership of those segments: each dequeue lets one track claim
// its next maximal run, overwriting lower-priority claims and skipping spans
// held by higher ones. Skipped tracks are marked INTERRUPTED and re-enqueued.
// The queue drains when every cursor has reached the end of the axis.
//
// Contiguous owned segments form runs. Each run renders to one flattened
// descriptor; gaps between runs fall back to the attribute's static value.
// When the final segment belongs to an infinitely repeating track, it is
// emitted separately as the infinite tail.
//
// DETERMINISM:
//
// Priority is (delay, same-group ordering, groupId, input order) and nothing
// else: no wall clock, no randomness and no map iteration order enters the
// output. Repeated synchronisation of the same input is byte-identical,
// apart from the run id.
package engine

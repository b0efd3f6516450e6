// Package ir provides the canonical intermediate representation shared by
// every stage of the synchronizer: the input animation descriptors and the
// flattened descriptors the engine emits.
//
// This package contains types, value algebra and serialisation only. All
// other internal packages import ir; ir imports only geom. This keeps the
// descriptor model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Descriptor is a sealed sum type: *Setter, *Keyframe, *TransformKeyframe
//     and *MotionKeyframe are the only implementations.
//   - Descriptors handed to the engine are never mutated; Clone before
//     writing derived fields.
//   - Times are float64 milliseconds. Duration -1 means undefined,
//     IterationCount -1 means infinite.
//   - All JSON tags use snake_case.
//   - Group identity is the structured Key, never a concatenated string.
package ir

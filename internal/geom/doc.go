// Package geom provides the transform and path algebra used by the
// synchronization engine.
//
// It covers three things:
//   - Affine matrices for translate/scale/rotate/skewX/skewY, built on
//     golang.org/x/image/math/f64.Aff3 (row-major 2x3, implicit [0 0 1]).
//   - Transform lists applied to point sets in reverse declaration order,
//     with optional origin adjustment.
//   - SVG path data parsing, serialisation and arc-length sampling for
//     motion paths.
//
// Angles are in degrees everywhere in this package's public API. The y axis
// points down, as in SVG, so a positive rotation is clockwise on screen.
//
// geom imports nothing internal; ir and motion build on it.
package geom

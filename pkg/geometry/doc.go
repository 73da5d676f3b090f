// Package geometry provides the planar primitives shared by every layout,
// overlap removal and routing stage.
//
// Points are gonum r2.Vec values, so the vector helpers of
// gonum.org/v1/gonum/spatial/r2 (Add, Sub, Scale, Norm, Unit) work on them
// directly. On top of that the package supplies:
//
//   - validity predicates and the NaN "undefined" sentinel
//   - [Rect] with segment clipping and inflation
//   - [AttachPoint] for exact rectangle and ellipse boundary intersections
//   - [CurveThroughPoints] for cardinal-spline smoothing of routes
//   - arrowheads and the fixed self-loop glyph
//
// Degenerate directions never produce NaN: zero-length vectors are replaced
// by the epsilon vector before they are normalised.
package geometry

// Package routing computes edge polylines once vertex positions are final.
//
// # Routers
//
// Three strategies implement [Router]:
//
//   - [Simple] draws a straight line between the exact attach points of the
//     two vertex outlines and detours around vertices in the way.
//   - [Bundling] runs a force-directed edge bundling simulation that pulls
//     compatible edges into shared corridors.
//   - [Pathfinder] searches a coarse grid with A* for a path around blocked
//     cells.
//
// Simple and Pathfinder also implement [IncrementalRouter], so a single edge
// can be re-routed after one vertex moved. Bundling is global: every edge
// influences every other one, so it reports Incremental() == false and must
// always re-route the whole graph.
//
// # Routes
//
// A route starts on the source outline and ends on the target outline (or
// BackStep short of it, leaving room for an arrowhead). Self-loops are never
// routed; they are drawn with [geometry.NewSelfLoop]. [OffsetParallel] is a
// separate post-process that fans out straight multi-edges.
//
// # Fallbacks
//
// When Pathfinder cannot find a path, or the path it found still crosses a
// vertex near its ends, it falls back to the direct route and records a
// [Warning] with code UNROUTABLE_EDGE instead of dropping the edge.
package routing

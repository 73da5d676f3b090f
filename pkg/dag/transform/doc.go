// Package transform provides the graph transformations that turn an arbitrary
// directed graph into a proper layered graph.
//
// # Cycle Breaking
//
// [BreakCycles] reverses the back edges found by a depth-first search. The
// reversed edges keep their origin and carry a Reversed flag, so a layout can
// report them and restore their logical direction.
//
// # Layer Assignment
//
// [AssignLayers] computes the row of each node with a longest-path
// traversal. [AssignLayersBounded] additionally caps the number of nodes per
// row; [MaxLayerWidth] derives that cap from a target aspect ratio.
// [TightenLayers] pulls nodes down toward their children to shorten edges.
//
// # Edge Subdivision
//
// [Subdivide] breaks long edges (spanning multiple rows) into chains of
// single-row hops by inserting subdivider nodes:
//
//	Before: a (row 0) → d (row 3)
//	After:  a → s1 → s2 → d
//
// # Usage
//
//	transform.BreakCycles(g)
//	transform.AssignLayers(g)
//	transform.Subdivide(g)
package transform

// Package layout computes vertex positions for a [graph.Graph].
//
// Every algorithm implements [Algorithm]. Inputs are reached lazily through
// a [PositionFunc] and a [SizeFunc]; NeedsOriginalPositions and
// NeedsVertexSizes tell the caller which of them must be provided, so
// measurement can be skipped when an algorithm ignores sizes.
//
// # Algorithms
//
//   - [Random]: uniform placement in a work rectangle, seeded
//   - [KK]: force-directed spring model with optional vertex exchange
//   - [Sugiyama]: layered layout with cycle reversal, dummy vertices and
//     crossing reduction; returns bend points for long edges
//   - [CompoundFDP]: force-directed layout for nested graphs
//
// Vertices without a position start at a random point, and the output never
// contains NaN. Cancelling the context stops an algorithm at the next
// iteration boundary with a partial result and Cancelled set; this is not an
// error.
//
// Parameter structs carry toml and json tags so they can be loaded from
// configuration files directly.
package layout

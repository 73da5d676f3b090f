package dag

import (
	"maps"
	"slices"
)

// CountCrossings returns the total number of edge crossings for the given row orderings.
// It sums the crossings between each pair of consecutive rows. The orders map should
// contain node IDs in left-to-right order for each row. Rows without entries in the
// map are treated as empty.
//
// Example:
//
//	orders := map[int][]dag.NodeID{
//	    0: {0, 1},    // row 0: node 0 on left, node 1 on right
//	    1: {2, 3, 4}, // row 1: three nodes
//	}
//	crossings := dag.CountCrossings(g, orders)
//
// Layered layout calls this after every ordering sweep to keep the best
// ordering seen so far. It runs in O(R × E log V) time where R is the number of rows, E is edges per layer,
// and V is nodes per layer.
func CountCrossings(g *DAG, orders map[int][]NodeID) int {
	rows := slices.Sorted(maps.Keys(orders))
	crossings := 0
	for i := 0; i < len(rows)-1; i++ {
		r := rows[i]
		crossings += CountLayerCrossings(g, orders[r], orders[r+1])
	}
	return crossings
}

// CountLayerCrossings counts edge crossings between two adjacent rows using a
// Fenwick tree (binary indexed tree) for O(E log V) performance where E is the
// number of edges between the rows and V is the number of nodes in the lower row.
//
// Two edges (u1,v1) and (u2,v2) cross if and only if:
//
//	pos(u1) < pos(u2) AND pos(v1) > pos(v2)
//
// This is equivalent to counting inversions in the sequence of target positions
// when edges are sorted by source position. The Fenwick tree enables efficient
// inversion counting compared to the naive O(E²) algorithm.
//
// Returns 0 if either row is empty or nil, as no crossings can exist without edges.
func CountLayerCrossings(g *DAG, upper, lower []NodeID) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}

	lowerPos := PosMap(lower)

	type edge struct{ upper, lower int }
	edges := make([]edge, 0, len(upper)*2)
	for i, nodeID := range upper {
		for _, child := range g.Children(nodeID) {
			if pos, ok := lowerPos[child]; ok {
				edges = append(edges, edge{i, pos})
			}
		}
	}
	if len(edges) < 2 {
		return 0
	}

	// Sort edges by source position, then by target position
	slices.SortFunc(edges, func(a, b edge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	// Count inversions using Fenwick tree
	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		// Query: count edges seen so far with target <= e.lower
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		// Crossings = edges seen so far with target > e.lower
		crossings += total - lessOrEqual

		// Update: increment count at target position
		total++
		for idx := e.lower + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}

// CountPairCrossings counts how many crossings would result from swapping two
// adjacent nodes (left and right) in their row. If useParents is true, considers
// edges to the row above; otherwise, considers edges to the row below.
//
// The transpose step of layered layout uses this to decide whether swapping
// two neighbours reduces crossings. The adjOrder slice should
// contain the node IDs of the adjacent row in left-to-right order.
//
// Returns 0 if either node has no edges to the adjacent row, or if no crossings
// would occur. This function does not modify the graph.
func CountPairCrossings(g *DAG, left, right NodeID, adjOrder []NodeID, useParents bool) int {
	return CountPairCrossingsWithPos(g, left, right, PosMap(adjOrder), useParents)
}

// CountPairCrossingsWithPos is like [CountPairCrossings] but takes a precomputed
// position map for the adjacent row. This avoids repeated calls to [PosMap] when
// checking multiple swaps against the same adjacent row.
//
// The adjPos map should map node IDs to their positions (0-indexed) in the
// adjacent row. Nodes not in the map are ignored.
func CountPairCrossingsWithPos(g *DAG, left, right NodeID, adjPos map[NodeID]int, useParents bool) int {
	var lnbr, rnbr []NodeID
	if useParents {
		lnbr = g.Parents(left)
		rnbr = g.Parents(right)
	} else {
		lnbr = g.Children(left)
		rnbr = g.Children(right)
	}

	crossings := 0
	for _, ln := range lnbr {
		lp, ok := adjPos[ln]
		if !ok {
			continue
		}
		for _, rn := range rnbr {
			// If left's neighbor is to the right of right's neighbor, they cross
			if rp, ok := adjPos[rn]; ok && lp > rp {
				crossings++
			}
		}
	}
	return crossings
}

// RowOrders returns the current left-to-right node order of every row.
func RowOrders(g *DAG) map[int][]NodeID {
	orders := make(map[int][]NodeID, g.RowCount())
	for _, r := range g.RowIDs() {
		orders[r] = NodeIDs(g.NodesInRow(r))
	}
	return orders
}

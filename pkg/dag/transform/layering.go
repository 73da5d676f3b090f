package transform

import (
	"math"

	"github.com/matzehuels/graphlayout/pkg/dag"
)

// AssignLayers assigns nodes to horizontal rows (layers) based on their depth
// in the graph.
//
// AssignLayers uses a longest-path algorithm via topological sort (Kahn's
// algorithm) to compute row assignments. Each node is placed at one plus the
// maximum row of any of its parents, ensuring that:
//   - Source nodes (no incoming edges) are at row 0
//   - All parents are strictly above their children
//
// Existing row assignments in the DAG are overwritten.
//
// AssignLayers assumes the graph is acyclic. Nodes on a cycle never reach
// zero in-degree and stay at row 0; run [BreakCycles] first.
//
// Time complexity is O(V + E).
func AssignLayers(g *dag.DAG) {
	AssignLayersBounded(g, 0)
}

// AssignLayersBounded is [AssignLayers] with a cap on the number of nodes per
// row. A node whose row is full moves to the next row with room. A
// non-positive maxWidth means no cap.
func AssignLayersBounded(g *dag.DAG, maxWidth int) {
	rows := make(map[dag.NodeID]int, g.NodeCount())
	width := make(map[int]int)
	for _, id := range topoOrder(g) {
		row := 0
		for _, p := range g.Parents(id) {
			row = max(row, rows[p]+1)
		}
		for maxWidth > 0 && width[row] >= maxWidth {
			row++
		}
		rows[id] = row
		width[row]++
	}
	g.SetRows(rows)
}

// MaxLayerWidth returns the row capacity that gives a layering of n nodes
// the requested width-to-height ratio: ceil(sqrt(n * widthPerHeight)).
func MaxLayerWidth(n int, widthPerHeight float64) int {
	if n <= 0 || widthPerHeight <= 0 {
		return 0
	}
	return max(1, int(math.Ceil(math.Sqrt(float64(n)*widthPerHeight))))
}

// TightenLayers shortens edges left long by longest-path layering: every node
// with children moves down to the row just above its highest child, visiting
// nodes from the bottom up. Rows that end up empty are closed. maxWidth caps
// the destination row as in [AssignLayersBounded].
func TightenLayers(g *dag.DAG, maxWidth int) {
	order := topoOrder(g)
	rows := make(map[dag.NodeID]int, len(order))
	width := make(map[int]int)
	for _, n := range g.Nodes() {
		rows[n.ID] = n.Row
		width[n.Row]++
	}
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		children := g.Children(id)
		if len(children) == 0 {
			continue
		}
		target := math.MaxInt
		for _, c := range children {
			target = min(target, rows[c]-1)
		}
		if target <= rows[id] || (maxWidth > 0 && width[target] >= maxWidth) {
			continue
		}
		width[rows[id]]--
		rows[id] = target
		width[target]++
	}
	g.SetRows(compactRows(rows))
}

// compactRows renumbers rows so they start at 0 with no empty row in
// between. Relative order is preserved, so edges still point downward.
func compactRows(rows map[dag.NodeID]int) map[dag.NodeID]int {
	used := make(map[int]struct{})
	for _, r := range rows {
		used[r] = struct{}{}
	}
	maxRow := -1
	for r := range used {
		maxRow = max(maxRow, r)
	}
	remap := make(map[int]int, len(used))
	next := 0
	for r := 0; r <= maxRow; r++ {
		if _, ok := used[r]; ok {
			remap[r] = next
			next++
		}
	}
	out := make(map[dag.NodeID]int, len(rows))
	for id, r := range rows {
		out[id] = remap[r]
	}
	return out
}

// topoOrder returns node IDs in Kahn order, seeded by the sources in
// insertion order. Nodes on a cycle are appended at the end.
func topoOrder(g *dag.DAG) []dag.NodeID {
	nodes := g.Nodes()
	inDegree := make(map[dag.NodeID]int, len(nodes))
	queue := make([]dag.NodeID, 0, len(nodes))
	for _, n := range nodes {
		degree := g.InDegree(n.ID)
		inDegree[n.ID] = degree
		if degree == 0 {
			queue = append(queue, n.ID)
		}
	}

	order := make([]dag.NodeID, 0, len(nodes))
	done := make(map[dag.NodeID]bool, len(nodes))
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr)
		done[curr] = true
		for _, child := range g.Children(curr) {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
	for _, n := range nodes {
		if !done[n.ID] {
			order = append(order, n.ID)
		}
	}
	return order
}

package transform

import "github.com/matzehuels/graphlayout/pkg/dag"

// BreakCycles makes g acyclic by reversing every back edge found by a
// depth-first search that starts from the sources (in insertion order) and
// then from any node not yet visited. Reversed edges keep their origin and
// get their Reversed flag toggled, so layout can restore the logical
// direction later. Self-loops cannot be reversed away and are removed.
//
// It returns the number of edges reversed or removed.
func BreakCycles(g *dag.DAG) int {
	const (
		white = iota
		gray
		black
	)

	color := make(map[dag.NodeID]int, g.NodeCount())
	var backEdges [][2]dag.NodeID
	seen := make(map[[2]dag.NodeID]struct{})

	var dfs func(node dag.NodeID)
	dfs = func(node dag.NodeID) {
		color[node] = gray
		for _, child := range g.Children(node) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				e := [2]dag.NodeID{node, child}
				if _, ok := seen[e]; !ok {
					seen[e] = struct{}{}
					backEdges = append(backEdges, e)
				}
			}
		}
		color[node] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	changed := 0
	for _, e := range backEdges {
		if e[0] == e[1] {
			for _, edge := range g.Edges() {
				if edge.From == e[0] && edge.To == e[0] {
					changed++
				}
			}
			g.RemoveEdge(e[0], e[1])
			continue
		}
		changed += g.ReverseEdge(e[0], e[1])
	}
	return changed
}

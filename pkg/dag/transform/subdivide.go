package transform

import (
	"github.com/matzehuels/graphlayout/pkg/dag"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

// Subdivide breaks edges that span multiple rows into sequences of single-row
// edges connected by synthetic subdivider nodes.
//
// Subdivide ensures every edge in the graph connects nodes in consecutive rows
// (parent.Row + 1 == child.Row). Any edge spanning multiple rows is replaced
// by a chain of [dag.NodeKindSubdivider] nodes:
//
//	Before: a (row 0) → d (row 3)
//	After:  a → s1 → s2 → d
//
// Every segment of the chain keeps the Origin and Reversed flag of the edge
// it replaces, and every subdivider records that origin in its Edge field.
// Subdivider IDs are allocated above the largest existing node ID.
//
// Time complexity is O(E·D) where D is the row count.
func Subdivide(g *dag.DAG) {
	next := g.MaxNodeID() + 1
	var toRemove []dag.Edge
	for _, e := range g.Edges() {
		src, srcOK := g.Node(e.From)
		dst, dstOK := g.Node(e.To)
		if !srcOK || !dstOK || dst.Row <= src.Row+1 {
			continue
		}

		toRemove = append(toRemove, e)
		prevID := src.ID
		for row := src.Row + 1; row < dst.Row; row++ {
			id := next
			next++
			mustAddNode(g, dag.Node{
				ID:     id,
				Row:    row,
				Kind:   dag.NodeKindSubdivider,
				Vertex: graph.NoVertex,
				Edge:   e.Origin,
			})
			mustAddEdge(g, dag.Edge{From: prevID, To: id, Origin: e.Origin, Reversed: e.Reversed})
			prevID = id
		}
		mustAddEdge(g, dag.Edge{From: prevID, To: dst.ID, Origin: e.Origin, Reversed: e.Reversed})
	}

	for _, e := range toRemove {
		g.RemoveEdge(e.From, e.To)
	}
}

func mustAddNode(g *dag.DAG, n dag.Node) {
	if err := g.AddNode(n); err != nil {
		panic(err)
	}
}

func mustAddEdge(g *dag.DAG, e dag.Edge) {
	if err := g.AddEdge(e); err != nil {
		panic(err)
	}
}

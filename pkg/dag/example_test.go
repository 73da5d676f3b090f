package dag_test

import (
	"fmt"

	"github.com/matzehuels/graphlayout/pkg/dag"
)

func ExampleDAG_basic() {
	// A simple chain: 0 → 1 → 2
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: 0, Row: 0})
	_ = g.AddNode(dag.Node{ID: 1, Row: 1})
	_ = g.AddNode(dag.Node{ID: 2, Row: 2})
	_ = g.AddEdge(dag.Edge{From: 0, To: 1})
	_ = g.AddEdge(dag.Edge{From: 1, To: 2})

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Rows:", g.RowCount())
	fmt.Println("Valid:", g.Validate() == nil)
	// Output:
	// Nodes: 3
	// Edges: 2
	// Rows: 3
	// Valid: true
}

func ExampleDAG_traversal() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: 0, Row: 0})
	_ = g.AddNode(dag.Node{ID: 1, Row: 1})
	_ = g.AddNode(dag.Node{ID: 2, Row: 1})
	_ = g.AddEdge(dag.Edge{From: 0, To: 1})
	_ = g.AddEdge(dag.Edge{From: 0, To: 2})

	fmt.Println("Children of 0:", g.Children(0))
	fmt.Println("Parents of 1:", g.Parents(1))
	fmt.Println("Out-degree of 0:", g.OutDegree(0))
	// Output:
	// Children of 0: [1 2]
	// Parents of 1: [0]
	// Out-degree of 0: 2
}

func ExampleDAG_ReverseEdge() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: 0})
	_ = g.AddNode(dag.Node{ID: 1})
	_ = g.AddEdge(dag.Edge{From: 1, To: 0, Origin: 7})

	g.ReverseEdge(1, 0)
	e := g.Edges()[0]
	fmt.Println(e.From, "->", e.To, "origin", e.Origin, "reversed", e.Reversed)
	// Output: 0 -> 1 origin 7 reversed true
}

func ExampleCountLayerCrossings() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: 0, Row: 0})
	_ = g.AddNode(dag.Node{ID: 1, Row: 0})
	_ = g.AddNode(dag.Node{ID: 2, Row: 1})
	_ = g.AddNode(dag.Node{ID: 3, Row: 1})

	// 0→3 and 1→2 cross while 0 is left of 1
	_ = g.AddEdge(dag.Edge{From: 0, To: 3})
	_ = g.AddEdge(dag.Edge{From: 1, To: 2})

	lower := []dag.NodeID{2, 3}
	fmt.Println("Crossings:", dag.CountLayerCrossings(g, []dag.NodeID{0, 1}, lower))
	fmt.Println("After reorder:", dag.CountLayerCrossings(g, []dag.NodeID{1, 0}, lower))
	// Output:
	// Crossings: 1
	// After reorder: 0
}

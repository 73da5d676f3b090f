package transform

import (
	"testing"

	"github.com/matzehuels/graphlayout/pkg/dag"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

func build(n int, edges ...[2]dag.NodeID) *dag.DAG {
	g := dag.New()
	for i := range n {
		_ = g.AddNode(dag.Node{ID: dag.NodeID(i)})
	}
	for i, e := range edges {
		_ = g.AddEdge(dag.Edge{From: e[0], To: e[1], Origin: graph.EdgeID(i)})
	}
	return g
}

func countReversed(g *dag.DAG) int {
	n := 0
	for _, e := range g.Edges() {
		if e.Reversed {
			n++
		}
	}
	return n
}

func TestBreakCycles(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		edges     [][2]dag.NodeID
		wantCount int
		wantEdges int
	}{
		{"no cycles", 3, [][2]dag.NodeID{{0, 1}, {1, 2}}, 0, 2},
		{"two-cycle", 2, [][2]dag.NodeID{{0, 1}, {1, 0}}, 1, 2},
		{"triangle", 3, [][2]dag.NodeID{{0, 1}, {1, 2}, {2, 0}}, 1, 3},
		{"two separate cycles", 4, [][2]dag.NodeID{{0, 1}, {1, 0}, {2, 3}, {3, 2}}, 2, 4},
		{"self-loop removed", 1, [][2]dag.NodeID{{0, 0}}, 1, 0},
		{"diamond", 4, [][2]dag.NodeID{{0, 1}, {0, 2}, {1, 3}, {2, 3}}, 0, 4},
		{"parallel back edges", 2, [][2]dag.NodeID{{0, 1}, {1, 0}, {1, 0}}, 2, 3},
		{"empty", 0, nil, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(tt.n, tt.edges...)
			if got := BreakCycles(g); got != tt.wantCount {
				t.Errorf("BreakCycles() = %d, want %d", got, tt.wantCount)
			}
			if g.EdgeCount() != tt.wantEdges {
				t.Errorf("EdgeCount() = %d, want %d", g.EdgeCount(), tt.wantEdges)
			}
		})
	}
}

func TestBreakCycles_ResultIsAcyclic(t *testing.T) {
	g := build(4, [2]dag.NodeID{0, 1}, [2]dag.NodeID{1, 2}, [2]dag.NodeID{2, 3}, [2]dag.NodeID{3, 1})

	if got := BreakCycles(g); got != 1 {
		t.Fatalf("BreakCycles() = %d, want 1", got)
	}
	if got := BreakCycles(g); got != 0 {
		t.Errorf("second BreakCycles() = %d, want 0", got)
	}
	if got := countReversed(g); got != 1 {
		t.Errorf("reversed edges = %d, want 1", got)
	}
}

func TestBreakCycles_KeepsOrigin(t *testing.T) {
	g := build(3, [2]dag.NodeID{0, 1}, [2]dag.NodeID{1, 2}, [2]dag.NodeID{2, 0})
	BreakCycles(g)
	for _, e := range g.Edges() {
		if e.Reversed && (e.Origin != 2 || e.From != 0 || e.To != 2) {
			t.Errorf("reversed edge = %+v, want origin 2 as 0->2", e)
		}
	}
}

func TestAssignLayers_AfterCycleBreak(t *testing.T) {
	g := build(3, [2]dag.NodeID{0, 1}, [2]dag.NodeID{1, 2}, [2]dag.NodeID{2, 0})
	BreakCycles(g)
	AssignLayers(g)

	for _, e := range g.Edges() {
		from, _ := g.Node(e.From)
		to, _ := g.Node(e.To)
		if to.Row <= from.Row {
			t.Errorf("edge %d->%d points upward (rows %d, %d)", e.From, e.To, from.Row, to.Row)
		}
	}
	if g.RowCount() != 3 {
		t.Errorf("RowCount() = %d, want 3", g.RowCount())
	}
}

func TestAssignLayersBounded(t *testing.T) {
	// Star: one source with five children.
	g := build(6,
		[2]dag.NodeID{0, 1}, [2]dag.NodeID{0, 2}, [2]dag.NodeID{0, 3},
		[2]dag.NodeID{0, 4}, [2]dag.NodeID{0, 5})
	AssignLayersBounded(g, 2)

	for _, r := range g.RowIDs() {
		if n := len(g.NodesInRow(r)); n > 2 {
			t.Errorf("row %d has %d nodes, want <= 2", r, n)
		}
	}
	if g.RowCount() != 4 {
		t.Errorf("RowCount() = %d, want 4", g.RowCount())
	}
}

func TestMaxLayerWidth(t *testing.T) {
	tests := []struct {
		n    int
		wph  float64
		want int
	}{
		{9, 1, 3},
		{10, 1, 4},
		{8, 2, 4},
		{1, 0.01, 1},
		{0, 1, 0},
	}
	for _, tt := range tests {
		if got := MaxLayerWidth(tt.n, tt.wph); got != tt.want {
			t.Errorf("MaxLayerWidth(%d, %v) = %d, want %d", tt.n, tt.wph, got, tt.want)
		}
	}
}

func TestTightenLayers(t *testing.T) {
	// 0 → 1 → 2 → 3 and 4 → 3: longest path leaves 4 at row 0.
	g := build(5, [2]dag.NodeID{0, 1}, [2]dag.NodeID{1, 2}, [2]dag.NodeID{2, 3}, [2]dag.NodeID{4, 3})
	AssignLayers(g)
	TightenLayers(g, 0)

	n4, _ := g.Node(4)
	n3, _ := g.Node(3)
	if n4.Row != n3.Row-1 {
		t.Errorf("node 4 row = %d, want %d", n4.Row, n3.Row-1)
	}
	n0, _ := g.Node(0)
	if n0.Row != 0 {
		t.Errorf("node 0 row = %d, want 0", n0.Row)
	}
}

func TestSubdivide_KeepsOriginAndDirection(t *testing.T) {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: 0, Row: 0})
	_ = g.AddNode(dag.Node{ID: 1, Row: 3})
	_ = g.AddEdge(dag.Edge{From: 0, To: 1, Origin: 5, Reversed: true})

	Subdivide(g)

	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if g.EdgeCount() != 3 {
		t.Fatalf("EdgeCount() = %d, want 3", g.EdgeCount())
	}
	for _, e := range g.Edges() {
		if e.Origin != 5 || !e.Reversed {
			t.Errorf("segment %+v lost origin or direction", e)
		}
	}
	for _, n := range g.Nodes() {
		if n.IsSubdivider() && (n.Edge != 5 || n.ID < 2) {
			t.Errorf("subdivider %+v has wrong origin or ID", n)
		}
	}
}

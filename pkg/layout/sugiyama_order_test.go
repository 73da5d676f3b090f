package layout

import (
	"testing"

	"github.com/matzehuels/graphlayout/pkg/dag"
)

func TestExhaustRows_ReversedFan(t *testing.T) {
	// 0→5, 1→4, 2→3: every pair crosses until the top row is reversed.
	d := dag.New()
	for i := 0; i < 6; i++ {
		if err := d.AddNode(dag.Node{ID: dag.NodeID(i), Row: i / 3}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range [][2]dag.NodeID{{0, 5}, {1, 4}, {2, 3}} {
		if err := d.AddEdge(dag.Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatal(err)
		}
	}
	if got := dag.CountCrossings(d, dag.RowOrders(d)); got != 3 {
		t.Fatalf("initial crossings = %d, want 3", got)
	}

	exhaustRows(d, d.RowIDs())

	if got := dag.CountCrossings(d, dag.RowOrders(d)); got != 0 {
		t.Errorf("crossings after exhaustRows() = %d, want 0", got)
	}
}

func TestExhaustRows_SkipsLongRows(t *testing.T) {
	d := dag.New()
	n := exhaustiveRowLimit + 1
	for i := 0; i < 2*n; i++ {
		if err := d.AddNode(dag.Node{ID: dag.NodeID(i), Row: i / n}); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < n; i++ {
		if err := d.AddEdge(dag.Edge{From: dag.NodeID(i), To: dag.NodeID(2*n - 1 - i)}); err != nil {
			t.Fatal(err)
		}
	}
	before := dag.CountCrossings(d, dag.RowOrders(d))

	exhaustRows(d, d.RowIDs())

	if got := dag.CountCrossings(d, dag.RowOrders(d)); got != before {
		t.Errorf("crossings = %d, want untouched %d", got, before)
	}
}

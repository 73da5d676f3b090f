package layout

import (
	"math"
	"slices"

	"github.com/matzehuels/graphlayout/pkg/dag"
	"github.com/matzehuels/graphlayout/pkg/geometry"
)

// coordinates assigns node centers. Rows are stacked top-down, each as tall
// as its tallest node plus LayerDistance. Horizontal positions come from
// one alignment, or the average of all four in balanced mode.
func (s *Sugiyama) coordinates(d *dag.DAG) map[dag.NodeID]geometry.Point {
	rows := d.RowIDs()
	ys := make(map[int]float64, len(rows))
	top := 0.0
	for _, r := range rows {
		h := 0.0
		for _, n := range d.NodesInRow(r) {
			h = max(h, n.Height)
		}
		ys[r] = top + h/2
		top += h + s.params.LayerDistance
	}

	var xs map[dag.NodeID]float64
	if s.params.PositionMode == PositionModeBalanced {
		xs = make(map[dag.NodeID]float64, d.NodeCount())
		for mode := range 4 {
			for id, x := range s.align(d, rows, mode) {
				xs[id] += x / 4
			}
		}
	} else {
		xs = s.align(d, rows, s.params.PositionMode)
	}

	out := make(map[dag.NodeID]geometry.Point, d.NodeCount())
	for _, n := range d.Nodes() {
		out[n.ID] = geometry.Pt(xs[n.ID], ys[n.Row])
	}
	return out
}

// align computes x coordinates for one alignment. Modes 0 and 1 align each
// node with the median of its parents, sweeping top-down; modes 2 and 3
// align with children, sweeping bottom-up. Even modes resolve conflicts by
// pushing right from the left end of a row, odd modes push left from the
// right end. The result is shifted so the leftmost box edge is at 0.
func (s *Sugiyama) align(d *dag.DAG, rows []int, mode int) map[dag.NodeID]float64 {
	up := mode < 2
	fromLeft := mode%2 == 0
	x := make(map[dag.NodeID]float64, d.NodeCount())

	for _, r := range rows {
		nodes := d.NodesInRow(r)
		desired := make([]float64, len(nodes))
		s.place(nodes, desired, fromLeft, x)
	}

	sweep := slices.Clone(rows)
	if !up {
		slices.Reverse(sweep)
	}
	for _, r := range sweep[1:] {
		nodes := d.NodesInRow(r)
		desired := make([]float64, len(nodes))
		for i, n := range nodes {
			nbrs := d.Children(n.ID)
			if up {
				nbrs = d.Parents(n.ID)
			}
			if len(nbrs) == 0 {
				desired[i] = x[n.ID]
				continue
			}
			vals := make([]float64, len(nbrs))
			for j, nb := range nbrs {
				vals[j] = x[nb]
			}
			desired[i] = medianOf(vals)
		}
		s.place(nodes, desired, fromLeft, x)
	}

	minLeft := math.Inf(1)
	for _, n := range d.Nodes() {
		minLeft = math.Min(minLeft, x[n.ID]-n.Width/2)
	}
	for id := range x {
		x[id] -= minLeft
	}
	return x
}

// place moves the nodes of one row as close to their desired x as the
// spacing allows, keeping their order.
func (s *Sugiyama) place(nodes []*dag.Node, desired []float64, fromLeft bool, x map[dag.NodeID]float64) {
	sep := func(a, b *dag.Node) float64 { return (a.Width+b.Width)/2 + s.params.VertexDistance }
	if fromLeft {
		for i, n := range nodes {
			v := desired[i]
			if i > 0 {
				v = math.Max(v, x[nodes[i-1].ID]+sep(nodes[i-1], n))
			}
			x[n.ID] = v
		}
		return
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		v := desired[i]
		if i < len(nodes)-1 {
			v = math.Min(v, x[nodes[i+1].ID]-sep(n, nodes[i+1]))
		}
		x[n.ID] = v
	}
}

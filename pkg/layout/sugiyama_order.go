package layout

import (
	"cmp"
	"context"
	"slices"

	"github.com/matzehuels/graphlayout/pkg/dag"
	"github.com/matzehuels/graphlayout/pkg/dag/perm"
)

// exhaustiveRowLimit is the longest row whose orderings are all tried after
// the sweeps converge.
const exhaustiveRowLimit = 6

// order permutes every row to reduce edge crossings. Each round runs a
// downward and an upward sweep, alternating barycenter and median keys, then
// swaps adjacent nodes while that helps. The best ordering seen is kept; the
// search stops once MaxPermutations rounds in a row bring no improvement or
// no crossing is left. Short rows are then searched exhaustively. It returns
// false if ctx was cancelled, in which case the best ordering so far is
// still applied.
func (s *Sugiyama) order(ctx context.Context, d *dag.DAG) bool {
	rows := d.RowIDs()
	if len(rows) < 2 {
		return true
	}
	best := dag.RowOrders(d)
	bestCrossings := dag.CountCrossings(d, best)

	for round, stale := 0, 0; bestCrossings > 0 && stale < s.params.MaxPermutations; round++ {
		if cancelled(ctx) {
			applyOrders(d, best)
			return false
		}
		median := round%2 == 1
		for _, r := range rows[1:] {
			sortRow(d, r, r-1, true, median)
		}
		for i := len(rows) - 2; i >= 0; i-- {
			sortRow(d, rows[i], rows[i+1], false, median)
		}
		transpose(d, rows)

		orders := dag.RowOrders(d)
		if c := dag.CountCrossings(d, orders); c < bestCrossings {
			best, bestCrossings, stale = orders, c, 0
		} else {
			stale++
		}
	}
	applyOrders(d, best)
	if bestCrossings > 0 {
		exhaustRows(d, rows)
	}
	return true
}

// exhaustRows tries every ordering of rows with at most exhaustiveRowLimit
// nodes and keeps the one with the fewest crossings against both
// neighbouring rows. Other rows are untouched, so the total never grows.
func exhaustRows(d *dag.DAG, rows []int) {
	for i, r := range rows {
		ids := dag.NodeIDs(d.NodesInRow(r))
		if len(ids) < 2 || len(ids) > exhaustiveRowLimit {
			continue
		}
		var above, below []dag.NodeID
		if i > 0 {
			above = dag.NodeIDs(d.NodesInRow(rows[i-1]))
		}
		if i < len(rows)-1 {
			below = dag.NodeIDs(d.NodesInRow(rows[i+1]))
		}
		cost := func(order []dag.NodeID) int {
			return dag.CountLayerCrossings(d, above, order) + dag.CountLayerCrossings(d, order, below)
		}

		best, bestCost := ids, cost(ids)
		candidate := make([]dag.NodeID, len(ids))
		perm.Each(len(ids), func(p []int) bool {
			for j, k := range p {
				candidate[j] = ids[k]
			}
			if c := cost(candidate); c < bestCost {
				best, bestCost = slices.Clone(candidate), c
			}
			return bestCost > 0
		})
		d.SetRowOrder(r, best)
	}
}

func applyOrders(d *dag.DAG, orders map[int][]dag.NodeID) {
	for r, ids := range orders {
		d.SetRowOrder(r, ids)
	}
}

// sortRow reorders row by the barycenter (or median) of each node's
// neighbours in adjRow. Nodes without such neighbours keep their index as
// key; ties keep the current order.
func sortRow(d *dag.DAG, row, adjRow int, useParents, median bool) {
	nodes := d.NodesInRow(row)
	adjPos := dag.PosMap(dag.NodeIDs(d.NodesInRow(adjRow)))

	type keyed struct {
		id  dag.NodeID
		key float64
		idx int
	}
	keys := make([]keyed, len(nodes))
	for i, n := range nodes {
		nbrs := d.Children(n.ID)
		if useParents {
			nbrs = d.Parents(n.ID)
		}
		vals := make([]float64, 0, len(nbrs))
		for _, nb := range nbrs {
			if p, ok := adjPos[nb]; ok {
				vals = append(vals, float64(p))
			}
		}
		key := float64(i)
		switch {
		case len(vals) == 0:
		case median:
			key = medianOf(vals)
		default:
			key = meanOf(vals)
		}
		keys[i] = keyed{n.ID, key, i}
	}
	slices.SortStableFunc(keys, func(a, b keyed) int {
		if c := cmp.Compare(a.key, b.key); c != 0 {
			return c
		}
		return cmp.Compare(a.idx, b.idx)
	})
	ids := make([]dag.NodeID, len(keys))
	for i, k := range keys {
		ids[i] = k.id
	}
	d.SetRowOrder(row, ids)
}

// transpose swaps adjacent nodes of every row while a swap lowers the
// crossings with both neighbouring rows.
func transpose(d *dag.DAG, rows []int) {
	for i, r := range rows {
		var above, below map[dag.NodeID]int
		if i > 0 {
			above = dag.PosMap(dag.NodeIDs(d.NodesInRow(rows[i-1])))
		}
		if i < len(rows)-1 {
			below = dag.PosMap(dag.NodeIDs(d.NodesInRow(rows[i+1])))
		}
		ids := dag.NodeIDs(d.NodesInRow(r))
		cost := func(left, right dag.NodeID) int {
			c := 0
			if above != nil {
				c += dag.CountPairCrossingsWithPos(d, left, right, above, true)
			}
			if below != nil {
				c += dag.CountPairCrossingsWithPos(d, left, right, below, false)
			}
			return c
		}
		for pass := 0; pass < len(ids); pass++ {
			improved := false
			for j := 0; j+1 < len(ids); j++ {
				if cost(ids[j+1], ids[j]) < cost(ids[j], ids[j+1]) {
					ids[j], ids[j+1] = ids[j+1], ids[j]
					improved = true
				}
			}
			if !improved {
				break
			}
		}
		d.SetRowOrder(r, ids)
	}
}

func meanOf(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func medianOf(vals []float64) float64 {
	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	m := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[m]
	}
	return (sorted[m-1] + sorted[m]) / 2
}

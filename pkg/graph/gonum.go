package graph

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Undirected returns a gonum view of the graph with edge directions dropped.
// Self-loops are skipped and parallel edges collapse into one, since
// simple.UndirectedGraph supports neither. Node IDs equal vertex IDs.
func (g *Graph) Undirected() *simple.UndirectedGraph {
	u := simple.NewUndirectedGraph()
	for _, id := range g.VertexIDs() {
		u.AddNode(simple.Node(id))
	}
	for _, e := range g.edges {
		if e == nil || e.IsSelfLoop() {
			continue
		}
		if u.HasEdgeBetween(int64(e.Source), int64(e.Target)) {
			continue
		}
		u.SetEdge(simple.Edge{F: simple.Node(e.Source), T: simple.Node(e.Target)})
	}
	return u
}

// Components returns the connected components of the undirected view. Each
// component is sorted, and components are ordered by their smallest ID.
func (g *Graph) Components() [][]VertexID {
	cc := topo.ConnectedComponents(g.Undirected())
	out := make([][]VertexID, 0, len(cc))
	for _, comp := range cc {
		ids := make([]VertexID, 0, len(comp))
		for _, n := range comp {
			ids = append(ids, VertexID(n.ID()))
		}
		slices.Sort(ids)
		out = append(out, ids)
	}
	slices.SortFunc(out, func(a, b []VertexID) int { return int(a[0] - b[0]) })
	return out
}

// DistanceMatrix holds all-pairs hop counts between vertices.
type DistanceMatrix struct {
	IDs   []VertexID
	index map[VertexID]int
	d     [][]float64
}

// At returns the hop distance between a and b, or +Inf when unreachable.
func (m *DistanceMatrix) At(a, b VertexID) float64 {
	i, ok1 := m.index[a]
	j, ok2 := m.index[b]
	if !ok1 || !ok2 {
		return math.Inf(1)
	}
	return m.d[i][j]
}

// Diameter returns the largest finite distance, or 0 for graphs without edges.
func (m *DistanceMatrix) Diameter() float64 {
	var dia float64
	for _, row := range m.d {
		for _, v := range row {
			if !math.IsInf(v, 0) && v > dia {
				dia = v
			}
		}
	}
	return dia
}

// ShortestPaths computes unweighted all-pairs shortest path lengths over the
// undirected view using gonum's Dijkstra.
func (g *Graph) ShortestPaths() *DistanceMatrix {
	ids := g.VertexIDs()
	all := path.DijkstraAllPaths(g.Undirected())
	m := &DistanceMatrix{
		IDs:   ids,
		index: make(map[VertexID]int, len(ids)),
		d:     make([][]float64, len(ids)),
	}
	for i, a := range ids {
		m.index[a] = i
		m.d[i] = make([]float64, len(ids))
		for j, b := range ids {
			if i == j {
				continue
			}
			m.d[i][j] = all.Weight(int64(a), int64(b))
		}
	}
	return m
}

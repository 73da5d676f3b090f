package dag

import (
	"errors"
	"maps"
	"slices"

	"github.com/matzehuels/graphlayout/pkg/graph"
)

var (
	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [DAG.Validate] when an edge
	// references a node that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrNonConsecutiveRows is returned by [DAG.Validate] when an edge
	// connects nodes that are not in adjacent rows (From.Row+1 != To.Row).
	ErrNonConsecutiveRows = errors.New("edges must connect consecutive rows")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a cycle is detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// NodeID identifies a node of the layered graph. Regular nodes reuse the
// vertex ID of the graph they were built from; subdividers get fresh IDs
// above every vertex ID.
type NodeID int64

// NodeKind distinguishes between original and synthetic nodes created during
// graph transformation.
type NodeKind int

const (
	// NodeKindRegular represents a vertex of the input graph.
	NodeKindRegular NodeKind = iota
	// NodeKindSubdivider represents a dummy node inserted to subdivide an
	// edge that spans more than one row. Its position becomes a bend point of
	// the original edge.
	NodeKindSubdivider
)

// Node is a vertex of the layered graph with an assigned row (layer).
type Node struct {
	ID   NodeID
	Row  int // Layer assignment (0 = top, increasing downward)
	Kind NodeKind

	// Vertex is the originating graph vertex for regular nodes, and
	// graph.NoVertex for subdividers.
	Vertex graph.VertexID
	// Edge is the originating graph edge of a subdivider.
	Edge graph.EdgeID

	Width  float64
	Height float64
}

// IsSubdivider reports whether the node was inserted to break a long edge.
func (n Node) IsSubdivider() bool { return n.Kind == NodeKindSubdivider }

// Edge is a directed connection. After cycle breaking an edge may point
// against its original direction; Reversed records that.
type Edge struct {
	From NodeID
	To   NodeID
	// Origin is the graph edge this segment belongs to.
	Origin   graph.EdgeID
	Reversed bool
}

// DAG is a directed graph organised into rows, used as the working structure
// of layered layout. Node iteration follows insertion order so every
// algorithm running over it is deterministic.
//
// The zero value is not usable - use New. DAG is not safe for concurrent use.
type DAG struct {
	nodes    map[NodeID]*Node
	order    []NodeID
	edges    []Edge
	outgoing map[NodeID][]NodeID
	incoming map[NodeID][]NodeID
	rows     map[int][]*Node
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{
		nodes:    make(map[NodeID]*Node),
		outgoing: make(map[NodeID][]NodeID),
		incoming: make(map[NodeID][]NodeID),
		rows:     make(map[int][]*Node),
	}
}

// AddNode adds a node and indexes it by its Row. Returns ErrDuplicateNodeID
// if the ID is already in use.
func (d *DAG) AddNode(n Node) error {
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := &n
	d.nodes[node.ID] = node
	d.order = append(d.order, node.ID)
	d.rows[node.Row] = append(d.rows[node.Row], node)
	return nil
}

// SetRows updates the row assignments for nodes and rebuilds the row index.
// Nodes not present in the rows map retain their current row. Within a row,
// nodes keep insertion order.
func (d *DAG) SetRows(rows map[NodeID]int) {
	d.rows = make(map[int][]*Node)
	for _, id := range d.order {
		n := d.nodes[id]
		if newRow, ok := rows[id]; ok {
			n.Row = newRow
		}
		d.rows[n.Row] = append(d.rows[n.Row], n)
	}
}

// SetRowOrder replaces the order of nodes within a row. ids must be a
// permutation of the row's current nodes.
func (d *DAG) SetRowOrder(row int, ids []NodeID) {
	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := d.nodes[id]; ok {
			nodes = append(nodes, n)
		}
	}
	d.rows[row] = nodes
}

// AddEdge adds a directed edge between two existing nodes. Multiple edges
// between the same nodes are allowed.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// RemoveEdge removes every edge from→to.
func (d *DAG) RemoveEdge(from, to NodeID) {
	d.edges = slices.DeleteFunc(d.edges, func(e Edge) bool { return e.From == from && e.To == to })
	d.outgoing[from] = slices.DeleteFunc(d.outgoing[from], func(s NodeID) bool { return s == to })
	d.incoming[to] = slices.DeleteFunc(d.incoming[to], func(s NodeID) bool { return s == from })
}

// ReverseEdge flips every edge from→to into to→from, toggling its Reversed
// flag. Returns the number of edges flipped.
func (d *DAG) ReverseEdge(from, to NodeID) int {
	n := 0
	for i := range d.edges {
		e := &d.edges[i]
		if e.From == from && e.To == to {
			e.From, e.To = to, from
			e.Reversed = !e.Reversed
			n++
		}
	}
	if n == 0 {
		return 0
	}
	d.outgoing[from] = slices.DeleteFunc(d.outgoing[from], func(s NodeID) bool { return s == to })
	d.incoming[to] = slices.DeleteFunc(d.incoming[to], func(s NodeID) bool { return s == from })
	for range n {
		d.outgoing[to] = append(d.outgoing[to], from)
		d.incoming[from] = append(d.incoming[from], to)
	}
	return n
}

// Nodes returns all nodes in insertion order. The pointers refer to the
// graph's nodes, so modifications affect the graph.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, 0, len(d.order))
	for _, id := range d.order {
		nodes = append(nodes, d.nodes[id])
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the targets of the node's outgoing edges. The returned
// slice is a read-only view.
func (d *DAG) Children(id NodeID) []NodeID { return d.outgoing[id] }

// Parents returns the sources of the node's incoming edges. The returned
// slice is a read-only view.
func (d *DAG) Parents(id NodeID) []NodeID { return d.incoming[id] }

// OutDegree returns the number of outgoing edges from the node.
func (d *DAG) OutDegree(id NodeID) int { return len(d.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
func (d *DAG) InDegree(id NodeID) int { return len(d.incoming[id]) }

// Node returns the node with the given ID.
func (d *DAG) Node(id NodeID) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// MaxNodeID returns the largest node ID, or -1 for an empty graph.
func (d *DAG) MaxNodeID() NodeID {
	maxID := NodeID(-1)
	for id := range d.nodes {
		if id > maxID {
			maxID = id
		}
	}
	return maxID
}

// NodesInRow returns all nodes assigned to the given row in their current
// left-to-right order.
func (d *DAG) NodesInRow(row int) []*Node { return d.rows[row] }

// RowCount returns the number of distinct rows (layers) in the graph.
func (d *DAG) RowCount() int { return len(d.rows) }

// RowIDs returns all row indices in ascending order.
func (d *DAG) RowIDs() []int {
	return slices.Sorted(maps.Keys(d.rows))
}

// MaxRow returns the highest row index, or 0 if the graph is empty.
func (d *DAG) MaxRow() int {
	if len(d.rows) == 0 {
		return 0
	}
	rowIDs := d.RowIDs()
	return rowIDs[len(rowIDs)-1]
}

// Sources returns nodes with no incoming edges, in insertion order.
func (d *DAG) Sources() []*Node {
	var sources []*Node
	for _, id := range d.order {
		if len(d.incoming[id]) == 0 {
			sources = append(sources, d.nodes[id])
		}
	}
	return sources
}

// Sinks returns nodes with no outgoing edges, in insertion order.
func (d *DAG) Sinks() []*Node {
	var sinks []*Node
	for _, id := range d.order {
		if len(d.outgoing[id]) == 0 {
			sinks = append(sinks, d.nodes[id])
		}
	}
	return sinks
}

// Validate checks graph integrity and returns nil if valid:
//
//  1. All edges connect existing nodes in consecutive rows (From.Row+1 == To.Row)
//  2. The graph is acyclic
//
// Cycle detection runs in O(N+E) time using depth-first search.
func (d *DAG) Validate() error {
	if err := d.validateEdgeConsistency(); err != nil {
		return err
	}
	return d.detectCycles()
}

func (d *DAG) validateEdgeConsistency() error {
	for _, e := range d.edges {
		src, okS := d.nodes[e.From]
		dst, okD := d.nodes[e.To]
		if !okS || !okD {
			return ErrInvalidEdgeEndpoint
		}
		if dst.Row != src.Row+1 {
			return ErrNonConsecutiveRows
		}
	}
	return nil
}

func (d *DAG) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int, len(d.nodes))
	var hasCycle bool

	var dfs func(id NodeID)
	dfs = func(id NodeID) {
		color[id] = gray
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
				return
			}
		}
		color[id] = black
	}

	for _, id := range d.order {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

// PosMap maps each ID to its index in the slice.
func PosMap(ids []NodeID) map[NodeID]int {
	m := make(map[NodeID]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// NodeIDs extracts the ID from each node in a slice.
func NodeIDs(nodes []*Node) []NodeID {
	ids := make([]NodeID, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

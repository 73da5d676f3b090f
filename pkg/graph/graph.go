package graph

import (
	"errors"
	"slices"

	"github.com/matzehuels/graphlayout/pkg/geometry"
)

var (
	// ErrUnknownSourceVertex is returned by [Graph.AddEdge] when the source
	// vertex does not exist.
	ErrUnknownSourceVertex = errors.New("unknown source vertex")

	// ErrUnknownTargetVertex is returned by [Graph.AddEdge] when the target
	// vertex does not exist.
	ErrUnknownTargetVertex = errors.New("unknown target vertex")

	// ErrUnknownVertex is returned by operations that reference a missing vertex.
	ErrUnknownVertex = errors.New("unknown vertex")

	// ErrNestingCycle is returned by [Graph.SetParent] when the new parent is
	// the vertex itself or one of its descendants.
	ErrNestingCycle = errors.New("vertex cannot be nested inside itself")
)

// VertexID identifies a vertex. IDs are arena indices: assigned sequentially,
// never reused, and stable for the lifetime of the graph.
type VertexID int64

// EdgeID identifies an edge, with the same guarantees as [VertexID].
type EdgeID int64

// NoVertex is returned where a vertex reference is absent (e.g. a root's parent).
const NoVertex VertexID = -1

// Metadata stores arbitrary key-value pairs attached to vertices or edges.
type Metadata map[string]any

// Vertex is a node of the graph together with its geometry.
type Vertex struct {
	ID VertexID
	// Key is the caller's external identifier (e.g. the ID in a JSON document).
	Key   string
	Label string
	// Position is the vertex center. It may be geometry.Undefined().
	Position geometry.Point
	Size     geometry.Size
	Shape    geometry.Shape
	Meta     Metadata
}

// NewVertex returns a vertex with an undefined position.
func NewVertex(key string) Vertex {
	return Vertex{Key: key, Label: key, Position: geometry.Undefined()}
}

// Bounds returns the vertex rectangle centred on its position.
func (v Vertex) Bounds() geometry.Rect {
	return geometry.RectFromCenter(v.Position, v.Size)
}

// Edge is a directed connection. Multi-edges and self-loops are allowed.
type Edge struct {
	ID     EdgeID
	Source VertexID
	Target VertexID
	Label  string
	// RoutingPoints is the committed route: the full polyline from source
	// to target after edge routing, or only the layered bend points when no
	// router ran. Nil means a straight edge.
	RoutingPoints []geometry.Point
	Meta          Metadata
}

// IsSelfLoop reports whether the edge starts and ends at the same vertex.
func (e Edge) IsSelfLoop() bool { return e.Source == e.Target }

// Graph is a directed multigraph stored as an arena of vertices and edges.
// Removed entries leave tombstones, so every other ID remains valid.
// Iteration order is always ID order.
//
// The zero value is not usable - use New. Graph is not safe for concurrent
// mutation; layout stages only read it while the pipeline commits results.
type Graph struct {
	vertices []*Vertex
	edges    []*Edge
	out      [][]EdgeID
	in       [][]EdgeID
	parent   map[VertexID]VertexID
	nv, ne   int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{parent: make(map[VertexID]VertexID)}
}

// AddVertex stores v and returns its newly assigned ID. Any ID already set
// on v is ignored.
func (g *Graph) AddVertex(v Vertex) VertexID {
	id := VertexID(len(g.vertices))
	v.ID = id
	if v.Meta == nil {
		v.Meta = Metadata{}
	}
	g.vertices = append(g.vertices, &v)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	g.nv++
	return id
}

// AddEdge stores e and returns its newly assigned ID. Returns
// ErrUnknownSourceVertex or ErrUnknownTargetVertex if an endpoint is missing.
func (g *Graph) AddEdge(e Edge) (EdgeID, error) {
	if !g.HasVertex(e.Source) {
		return 0, ErrUnknownSourceVertex
	}
	if !g.HasVertex(e.Target) {
		return 0, ErrUnknownTargetVertex
	}
	id := EdgeID(len(g.edges))
	e.ID = id
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	e.RoutingPoints = slices.Clone(e.RoutingPoints)
	g.edges = append(g.edges, &e)
	g.out[e.Source] = append(g.out[e.Source], id)
	g.in[e.Target] = append(g.in[e.Target], id)
	g.ne++
	return id, nil
}

// Connect adds an edge from src to dst.
func (g *Graph) Connect(src, dst VertexID) (EdgeID, error) {
	return g.AddEdge(Edge{Source: src, Target: dst})
}

// RemoveEdge deletes the edge. Returns false if it does not exist.
func (g *Graph) RemoveEdge(id EdgeID) bool {
	e := g.edge(id)
	if e == nil {
		return false
	}
	g.out[e.Source] = slices.DeleteFunc(g.out[e.Source], func(x EdgeID) bool { return x == id })
	g.in[e.Target] = slices.DeleteFunc(g.in[e.Target], func(x EdgeID) bool { return x == id })
	g.edges[id] = nil
	g.ne--
	return true
}

// RemoveVertex deletes the vertex together with its incident edges. Children
// of a removed compound vertex are re-parented to its parent.
func (g *Graph) RemoveVertex(id VertexID) bool {
	if !g.HasVertex(id) {
		return false
	}
	for _, e := range slices.Concat(g.out[id], g.in[id]) {
		g.RemoveEdge(e)
	}
	up, hasUp := g.parent[id]
	for child, p := range g.parent {
		if p != id {
			continue
		}
		if hasUp {
			g.parent[child] = up
		} else {
			delete(g.parent, child)
		}
	}
	delete(g.parent, id)
	g.vertices[id] = nil
	g.out[id], g.in[id] = nil, nil
	g.nv--
	return true
}

// HasVertex reports whether id refers to a live vertex.
func (g *Graph) HasVertex(id VertexID) bool { return g.vertex(id) != nil }

// HasEdge reports whether id refers to a live edge.
func (g *Graph) HasEdge(id EdgeID) bool { return g.edge(id) != nil }

// Vertex returns a copy of the vertex.
func (g *Graph) Vertex(id VertexID) (Vertex, bool) {
	v := g.vertex(id)
	if v == nil {
		return Vertex{}, false
	}
	return *v, true
}

// Edge returns a copy of the edge. The routing points are cloned.
func (g *Graph) Edge(id EdgeID) (Edge, bool) {
	e := g.edge(id)
	if e == nil {
		return Edge{}, false
	}
	out := *e
	out.RoutingPoints = slices.Clone(e.RoutingPoints)
	return out, true
}

// VertexIDs returns the live vertex IDs in ascending order.
func (g *Graph) VertexIDs() []VertexID {
	ids := make([]VertexID, 0, g.nv)
	for _, v := range g.vertices {
		if v != nil {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

// EdgeIDs returns the live edge IDs in ascending order.
func (g *Graph) EdgeIDs() []EdgeID {
	ids := make([]EdgeID, 0, g.ne)
	for _, e := range g.edges {
		if e != nil {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Vertices returns copies of all live vertices in ID order.
func (g *Graph) Vertices() []Vertex {
	out := make([]Vertex, 0, g.nv)
	for _, v := range g.vertices {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Edges returns copies of all live edges in ID order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.ne)
	for _, e := range g.edges {
		if e != nil {
			c := *e
			c.RoutingPoints = slices.Clone(e.RoutingPoints)
			out = append(out, c)
		}
	}
	return out
}

// VertexCount returns the number of live vertices.
func (g *Graph) VertexCount() int { return g.nv }

// EdgeCount returns the number of live edges.
func (g *Graph) EdgeCount() int { return g.ne }

// OutEdges returns the IDs of edges leaving id, in insertion order.
func (g *Graph) OutEdges(id VertexID) []EdgeID {
	if !g.HasVertex(id) {
		return nil
	}
	return slices.Clone(g.out[id])
}

// InEdges returns the IDs of edges entering id, in insertion order.
func (g *Graph) InEdges(id VertexID) []EdgeID {
	if !g.HasVertex(id) {
		return nil
	}
	return slices.Clone(g.in[id])
}

// Successors returns the targets of id's outgoing edges (one entry per edge).
func (g *Graph) Successors(id VertexID) []VertexID {
	if !g.HasVertex(id) {
		return nil
	}
	out := make([]VertexID, 0, len(g.out[id]))
	for _, e := range g.out[id] {
		out = append(out, g.edges[e].Target)
	}
	return out
}

// Predecessors returns the sources of id's incoming edges (one entry per edge).
func (g *Graph) Predecessors(id VertexID) []VertexID {
	if !g.HasVertex(id) {
		return nil
	}
	out := make([]VertexID, 0, len(g.in[id]))
	for _, e := range g.in[id] {
		out = append(out, g.edges[e].Source)
	}
	return out
}

// Neighbors returns the distinct vertices adjacent to id in either direction,
// excluding id itself, in ascending order.
func (g *Graph) Neighbors(id VertexID) []VertexID {
	nb := slices.Concat(g.Successors(id), g.Predecessors(id))
	nb = slices.DeleteFunc(nb, func(x VertexID) bool { return x == id })
	slices.Sort(nb)
	return slices.Compact(nb)
}

// Degree returns the number of edge endpoints at id. A self-loop counts twice.
func (g *Graph) Degree(id VertexID) int {
	if !g.HasVertex(id) {
		return 0
	}
	return len(g.out[id]) + len(g.in[id])
}

// IsIsolated reports whether id has no edges other than self-loops.
func (g *Graph) IsIsolated(id VertexID) bool {
	for _, e := range g.out[id] {
		if !g.edges[e].IsSelfLoop() {
			return false
		}
	}
	for _, e := range g.in[id] {
		if !g.edges[e].IsSelfLoop() {
			return false
		}
	}
	return true
}

// EdgesBetween returns the IDs of all edges from src to dst.
func (g *Graph) EdgesBetween(src, dst VertexID) []EdgeID {
	var out []EdgeID
	for _, e := range g.OutEdges(src) {
		if g.edges[e].Target == dst {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// Compound nesting
// =============================================================================

// SetParent nests child inside parent. Passing NoVertex makes child a root.
func (g *Graph) SetParent(child, parent VertexID) error {
	if !g.HasVertex(child) {
		return ErrUnknownVertex
	}
	if parent == NoVertex {
		delete(g.parent, child)
		return nil
	}
	if !g.HasVertex(parent) {
		return ErrUnknownVertex
	}
	for p := parent; p != NoVertex; p = g.Parent(p) {
		if p == child {
			return ErrNestingCycle
		}
	}
	g.parent[child] = parent
	return nil
}

// Parent returns the vertex that contains id, or NoVertex for roots.
func (g *Graph) Parent(id VertexID) VertexID {
	if p, ok := g.parent[id]; ok {
		return p
	}
	return NoVertex
}

// Children returns the vertices directly nested in id, in ascending order.
// Children(NoVertex) returns the roots.
func (g *Graph) Children(id VertexID) []VertexID {
	var out []VertexID
	for _, v := range g.VertexIDs() {
		if g.Parent(v) == id {
			out = append(out, v)
		}
	}
	return out
}

// IsCompound reports whether any vertex is nested in id.
func (g *Graph) IsCompound(id VertexID) bool {
	for _, p := range g.parent {
		if p == id {
			return true
		}
	}
	return false
}

// HasNesting reports whether the graph uses compound vertices at all.
func (g *Graph) HasNesting() bool { return len(g.parent) > 0 }

// Depth returns the nesting depth of id (0 for roots).
func (g *Graph) Depth(id VertexID) int {
	d := 0
	for p := g.Parent(id); p != NoVertex; p = g.Parent(p) {
		d++
	}
	return d
}

// =============================================================================
// Geometry commits
// =============================================================================

// SetPosition sets the vertex center. Returns false for unknown vertices.
func (g *Graph) SetPosition(id VertexID, p geometry.Point) bool {
	v := g.vertex(id)
	if v == nil {
		return false
	}
	v.Position = p
	return true
}

// SetSize sets the vertex size. Returns false for unknown vertices.
func (g *Graph) SetSize(id VertexID, s geometry.Size) bool {
	v := g.vertex(id)
	if v == nil {
		return false
	}
	v.Size = s
	return true
}

// SetRoutingPoints replaces the edge's polyline with a copy of pts.
func (g *Graph) SetRoutingPoints(id EdgeID, pts []geometry.Point) bool {
	e := g.edge(id)
	if e == nil {
		return false
	}
	e.RoutingPoints = slices.Clone(pts)
	return true
}

// Positions returns the current vertex positions keyed by ID.
func (g *Graph) Positions() map[VertexID]geometry.Point {
	out := make(map[VertexID]geometry.Point, g.nv)
	for _, v := range g.vertices {
		if v != nil {
			out[v.ID] = v.Position
		}
	}
	return out
}

// Sizes returns the current vertex sizes keyed by ID.
func (g *Graph) Sizes() map[VertexID]geometry.Size {
	out := make(map[VertexID]geometry.Size, g.nv)
	for _, v := range g.vertices {
		if v != nil {
			out[v.ID] = v.Size
		}
	}
	return out
}

// Clone returns a deep copy that preserves every ID, including tombstones.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		vertices: make([]*Vertex, len(g.vertices)),
		edges:    make([]*Edge, len(g.edges)),
		out:      make([][]EdgeID, len(g.out)),
		in:       make([][]EdgeID, len(g.in)),
		parent:   make(map[VertexID]VertexID, len(g.parent)),
		nv:       g.nv,
		ne:       g.ne,
	}
	for i, v := range g.vertices {
		if v != nil {
			vc := *v
			vc.Meta = cloneMeta(v.Meta)
			c.vertices[i] = &vc
		}
	}
	for i, e := range g.edges {
		if e != nil {
			ec := *e
			ec.RoutingPoints = slices.Clone(e.RoutingPoints)
			ec.Meta = cloneMeta(e.Meta)
			c.edges[i] = &ec
		}
	}
	for i := range g.out {
		c.out[i] = slices.Clone(g.out[i])
		c.in[i] = slices.Clone(g.in[i])
	}
	for k, v := range g.parent {
		c.parent[k] = v
	}
	return c
}

func cloneMeta(m Metadata) Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (g *Graph) vertex(id VertexID) *Vertex {
	if id < 0 || int(id) >= len(g.vertices) {
		return nil
	}
	return g.vertices[id]
}

func (g *Graph) edge(id EdgeID) *Edge {
	if id < 0 || int(id) >= len(g.edges) {
		return nil
	}
	return g.edges[id]
}

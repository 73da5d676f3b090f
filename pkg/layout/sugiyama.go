package layout

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/graphlayout/pkg/dag"
	"github.com/matzehuels/graphlayout/pkg/dag/transform"
	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

// EdgeRouting selects how layered layout shapes the bend points of an edge.
type EdgeRouting int

const (
	// EdgeRoutingTraditional bends edges only at dummy vertices.
	EdgeRoutingTraditional EdgeRouting = iota
	// EdgeRoutingOrthogonal adds corners between layers so every segment is
	// horizontal or vertical.
	EdgeRoutingOrthogonal
)

var edgeRoutingNames = map[EdgeRouting]string{
	EdgeRoutingTraditional: "traditional",
	EdgeRoutingOrthogonal:  "orthogonal",
}

func (r EdgeRouting) String() string {
	if s, ok := edgeRoutingNames[r]; ok {
		return s
	}
	return fmt.Sprintf("EdgeRouting(%d)", int(r))
}

func (r EdgeRouting) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *EdgeRouting) UnmarshalText(b []byte) error {
	name := strings.ToLower(string(b))
	for k, v := range edgeRoutingNames {
		if v == name {
			*r = k
			return nil
		}
	}
	return gerrors.New(gerrors.ErrCodeInvalidConfiguration, "unknown edge routing %q", string(b))
}

// PositionModeBalanced averages the four alignments.
const PositionModeBalanced = -1

// SugiyamaParams configures [Sugiyama].
type SugiyamaParams struct {
	LayerDistance  float64 `toml:"layer_distance" json:"layer_distance"`
	VertexDistance float64 `toml:"vertex_distance" json:"vertex_distance"`
	// PositionMode picks one of the alignments 0-3 (up-left, up-right,
	// down-left, down-right) or PositionModeBalanced.
	PositionMode int `toml:"position_mode" json:"position_mode"`
	// WidthPerHeight is the target aspect ratio used by OptimizeWidth.
	WidthPerHeight     float64     `toml:"width_per_height" json:"width_per_height"`
	OptimizeWidth      bool        `toml:"optimize_width" json:"optimize_width"`
	MinimizeEdgeLength bool        `toml:"minimize_edge_length" json:"minimize_edge_length"`
	EdgeRouting        EdgeRouting `toml:"edge_routing" json:"edge_routing"`
	// MaxPermutations bounds the ordering sweeps that do not reduce the
	// crossing count.
	MaxPermutations int `toml:"max_permutations" json:"max_permutations"`
}

// DefaultSugiyamaParams returns the default layered layout parameters.
func DefaultSugiyamaParams() SugiyamaParams {
	return SugiyamaParams{
		LayerDistance:      15,
		VertexDistance:     15,
		PositionMode:       PositionModeBalanced,
		WidthPerHeight:     1,
		MinimizeEdgeLength: true,
		EdgeRouting:        EdgeRoutingTraditional,
		MaxPermutations:    50,
	}
}

func (p SugiyamaParams) Clone() Params { return p }

func (p SugiyamaParams) Validate() error {
	if p.PositionMode < PositionModeBalanced || p.PositionMode > 3 {
		return gerrors.New(gerrors.ErrCodeInvalidConfiguration,
			"sugiyama.position_mode must be -1 or 0-3, got %d", p.PositionMode)
	}
	if _, ok := edgeRoutingNames[p.EdgeRouting]; !ok {
		return gerrors.New(gerrors.ErrCodeInvalidConfiguration, "sugiyama.edge_routing is unknown")
	}
	return gerrors.First(
		gerrors.ValidateNonNegative("sugiyama.layer_distance", p.LayerDistance),
		gerrors.ValidateNonNegative("sugiyama.vertex_distance", p.VertexDistance),
		gerrors.ValidatePositive("sugiyama.width_per_height", p.WidthPerHeight),
		gerrors.ValidateCount("sugiyama.max_permutations", p.MaxPermutations),
	)
}

// Sugiyama is a layered layout:
//
//  1. back edges found by depth-first search are reversed
//  2. vertices get layers by longest path, optionally capped in width and
//     tightened to shorten edges
//  3. edges spanning several layers are subdivided by dummy nodes
//  4. barycenter and median sweeps with adjacent swaps reduce crossings
//  5. coordinates follow layer and vertex spacing under the chosen alignment
//  6. dummy positions become bend points, read from source to target even
//     for reversed edges
//
// Self-loops are ignored. Vertices without other edges are placed in a row
// below the layered region. The layout is fully deterministic.
type Sugiyama struct {
	params SugiyamaParams
}

// NewSugiyama validates p and returns a layered layout.
func NewSugiyama(p SugiyamaParams) (*Sugiyama, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Sugiyama{params: p}, nil
}

func (s *Sugiyama) NeedsVertexSizes() bool       { return true }
func (s *Sugiyama) NeedsOriginalPositions() bool { return false }

func (s *Sugiyama) Compute(ctx context.Context, g *graph.Graph, pos PositionFunc, size SizeFunc) (*Result, error) {
	if err := checkCallbacks("sugiyama", s, pos, size); err != nil {
		return nil, err
	}
	sizes := vertexSizes(g, size)
	res := newResult(g.VertexCount())
	res.Layers = make(map[graph.VertexID]int)
	res.EdgeRoutes = make(map[graph.EdgeID][]geometry.Point)

	d, isolated := s.build(g, sizes)
	for _, e := range d.Edges() {
		if e.Reversed {
			res.Reversed = append(res.Reversed, e.Origin)
		}
	}
	slices.Sort(res.Reversed)

	if d.NodeCount() > 0 {
		if !s.order(ctx, d) {
			res.Cancelled = true
		}
		centers := s.coordinates(d)
		for _, n := range d.Nodes() {
			if !n.IsSubdivider() {
				res.Positions[n.Vertex] = centers[n.ID]
				res.Layers[n.Vertex] = n.Row
			}
		}
		s.bendPoints(d, centers, res.EdgeRoutes)
	}
	s.placeIsolated(isolated, sizes, res.Positions)
	return res, nil
}

// build converts g into a proper layered graph and returns it together with
// the vertices that take no part in layering.
func (s *Sugiyama) build(g *graph.Graph, sizes map[graph.VertexID]geometry.Size) (*dag.DAG, []graph.VertexID) {
	d := dag.New()
	var isolated []graph.VertexID
	for _, id := range g.VertexIDs() {
		if g.IsIsolated(id) {
			isolated = append(isolated, id)
			continue
		}
		sz := sizes[id]
		_ = d.AddNode(dag.Node{
			ID:     dag.NodeID(id),
			Kind:   dag.NodeKindRegular,
			Vertex: id,
			Edge:   -1,
			Width:  sz.Width,
			Height: sz.Height,
		})
	}
	for _, e := range g.Edges() {
		if e.IsSelfLoop() {
			continue
		}
		_ = d.AddEdge(dag.Edge{From: dag.NodeID(e.Source), To: dag.NodeID(e.Target), Origin: e.ID})
	}

	transform.BreakCycles(d)
	maxWidth := 0
	if s.params.OptimizeWidth {
		maxWidth = transform.MaxLayerWidth(d.NodeCount(), s.params.WidthPerHeight)
	}
	transform.AssignLayersBounded(d, maxWidth)
	if s.params.MinimizeEdgeLength {
		transform.TightenLayers(d, maxWidth)
	}
	transform.Subdivide(d)
	return d, isolated
}

// bendPoints turns subdivider positions into edge routes. Chains are walked
// in layout direction and flipped for reversed edges, so every route reads
// from the logical source to the logical target.
func (s *Sugiyama) bendPoints(d *dag.DAG, centers map[dag.NodeID]geometry.Point, routes map[graph.EdgeID][]geometry.Point) {
	type chain struct {
		points   []geometry.Point
		reversed bool
	}
	type segment struct {
		from   dag.NodeID
		origin graph.EdgeID
	}
	succ := make(map[segment]dag.NodeID, d.EdgeCount())
	for _, e := range d.Edges() {
		succ[segment{e.From, e.Origin}] = e.To
	}
	chains := make(map[graph.EdgeID]*chain)
	var origins []graph.EdgeID

	// Walk every chain from its layered source: segments leaving a regular
	// node start a chain, subdividers extend it.
	for _, e := range d.Edges() {
		from, _ := d.Node(e.From)
		if from.IsSubdivider() {
			continue
		}
		c := &chain{reversed: e.Reversed}
		chains[e.Origin] = c
		origins = append(origins, e.Origin)

		prev := centers[e.From]
		cur := e.To
		for {
			n, _ := d.Node(cur)
			p := centers[cur]
			if s.params.EdgeRouting == EdgeRoutingOrthogonal {
				c.points = append(c.points, orthogonalCorners(prev, p)...)
			}
			if !n.IsSubdivider() {
				break
			}
			c.points = append(c.points, p)
			prev = p
			next, ok := succ[segment{cur, e.Origin}]
			if !ok {
				break
			}
			cur = next
		}
	}

	for _, id := range origins {
		c := chains[id]
		if len(c.points) == 0 {
			continue
		}
		if c.reversed {
			slices.Reverse(c.points)
		}
		routes[id] = c.points
	}
}

// orthogonalCorners returns the two corners of a vertical-horizontal-vertical
// connection from a to b, or nothing when they are vertically aligned.
func orthogonalCorners(a, b geometry.Point) []geometry.Point {
	if math.Abs(a.X-b.X) < geometry.Epsilon {
		return nil
	}
	midY := (a.Y + b.Y) / 2
	return []geometry.Point{geometry.Pt(a.X, midY), geometry.Pt(b.X, midY)}
}

// placeIsolated lays isolated vertices out in one row below everything
// already placed.
func (s *Sugiyama) placeIsolated(ids []graph.VertexID, sizes map[graph.VertexID]geometry.Size, positions map[graph.VertexID]geometry.Point) {
	if len(ids) == 0 {
		return
	}
	top, left := 0.0, 0.0
	if len(positions) > 0 {
		rects := make([]geometry.Rect, 0, len(positions))
		for id, p := range positions {
			rects = append(rects, geometry.RectFromCenter(p, sizes[id]))
		}
		b := geometry.Bounds(rects)
		top = b.Bottom() + s.params.LayerDistance
		left = b.Left()
	}
	rowHeight := 0.0
	for _, id := range ids {
		rowHeight = max(rowHeight, sizes[id].Height)
	}
	x := left
	for _, id := range ids {
		sz := sizes[id]
		positions[id] = geometry.Pt(x+sz.Width/2, top+rowHeight/2)
		x += sz.Width + s.params.VertexDistance
	}
}

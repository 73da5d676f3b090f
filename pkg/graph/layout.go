package graph

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/graphlayout/pkg/geometry"
)

// =============================================================================
// Layout - Computed Geometry Serialization
// =============================================================================

// Layout is the serialized result of a pipeline run: final vertex boxes and
// edge polylines. It is what the CLI writes, the HTTP service returns, and
// the result cache stores.
type Layout struct {
	RunID    string         `json:"run_id,omitempty"`
	Bounds   geometry.Rect  `json:"bounds"`
	Vertices []PlacedVertex `json:"vertices"`
	Edges    []RoutedEdge   `json:"edges"`
	Warnings []string       `json:"warnings,omitempty"`
}

// PlacedVertex is a vertex with its final center and size.
type PlacedVertex struct {
	ID     string         `json:"id"`
	Label  string         `json:"label,omitempty"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Shape  geometry.Shape `json:"shape,omitempty"`
}

// Bounds returns the vertex rectangle.
func (p PlacedVertex) Bounds() geometry.Rect {
	return geometry.RectFromCenter(geometry.Pt(p.X, p.Y), geometry.Size{Width: p.Width, Height: p.Height})
}

// RoutedEdge is an edge with its final polyline. SelfLoop is set instead of
// Points for edges whose source equals their target.
type RoutedEdge struct {
	From     string             `json:"from"`
	To       string             `json:"to"`
	Label    string             `json:"label,omitempty"`
	Points   []geometry.Point   `json:"points,omitempty"`
	SelfLoop *geometry.SelfLoop `json:"self_loop,omitempty"`
}

// ExportLayout captures the committed geometry of g. Vertices without a valid
// position are skipped. selfLoop may be nil to omit loop glyphs.
func ExportLayout(g *Graph, selfLoop *geometry.SelfLoopParams) Layout {
	l := Layout{
		Vertices: make([]PlacedVertex, 0, g.VertexCount()),
		Edges:    make([]RoutedEdge, 0, g.EdgeCount()),
	}
	var rects []geometry.Rect
	for _, v := range g.Vertices() {
		if !geometry.IsValid(v.Position) {
			continue
		}
		size := v.Size.OrUnit()
		l.Vertices = append(l.Vertices, PlacedVertex{
			ID:     KeyOf(v),
			Label:  v.Label,
			X:      v.Position.X,
			Y:      v.Position.Y,
			Width:  size.Width,
			Height: size.Height,
			Shape:  v.Shape,
		})
		rects = append(rects, geometry.RectFromCenter(v.Position, size))
	}
	for _, e := range g.Edges() {
		src, _ := g.Vertex(e.Source)
		dst, _ := g.Vertex(e.Target)
		re := RoutedEdge{From: KeyOf(src), To: KeyOf(dst), Label: e.Label, Points: e.RoutingPoints}
		if e.IsSelfLoop() && selfLoop != nil && !selfLoop.Hide && geometry.IsValid(src.Position) {
			loop := geometry.NewSelfLoop(geometry.RectFromCenter(src.Position, src.Size.OrUnit()), *selfLoop)
			re.SelfLoop = &loop
			re.Points = nil
		}
		l.Edges = append(l.Edges, re)
	}
	l.Bounds = geometry.Bounds(rects)
	return l
}

// MarshalLayout converts a Layout to indented JSON.
func MarshalLayout(l Layout) ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	return data, nil
}

// UnmarshalLayout decodes a Layout from JSON.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	return l, nil
}

// Apply writes the layout's geometry back onto g, matching vertices by key.
// Edges are matched by (from, to) in order, so parallel edges keep their
// relative order. Unknown entries are ignored.
func (l Layout) Apply(g *Graph) {
	byKey := make(map[string]VertexID, g.VertexCount())
	for _, v := range g.Vertices() {
		byKey[KeyOf(v)] = v.ID
	}
	for _, pv := range l.Vertices {
		if id, ok := byKey[pv.ID]; ok {
			g.SetPosition(id, geometry.Pt(pv.X, pv.Y))
			g.SetSize(id, geometry.Size{Width: pv.Width, Height: pv.Height})
		}
	}
	used := make(map[EdgeID]bool)
	for _, re := range l.Edges {
		src, ok1 := byKey[re.From]
		dst, ok2 := byKey[re.To]
		if !ok1 || !ok2 {
			continue
		}
		for _, id := range g.EdgesBetween(src, dst) {
			if used[id] {
				continue
			}
			used[id] = true
			g.SetRoutingPoints(id, re.Points)
			break
		}
	}
}

// Graph rebuilds a graph carrying the layout's geometry. Vertex keys become
// the layout IDs; self-loop glyphs are not kept since they follow from the
// vertex box.
func (l Layout) Graph() *Graph {
	g := New()
	ids := make(map[string]VertexID, len(l.Vertices))
	for _, pv := range l.Vertices {
		v := NewVertex(pv.ID)
		if pv.Label != "" {
			v.Label = pv.Label
		}
		v.Position = geometry.Pt(pv.X, pv.Y)
		v.Size = geometry.Size{Width: pv.Width, Height: pv.Height}
		v.Shape = pv.Shape
		ids[pv.ID] = g.AddVertex(v)
	}
	for _, re := range l.Edges {
		src, ok1 := ids[re.From]
		dst, ok2 := ids[re.To]
		if !ok1 || !ok2 {
			continue
		}
		_, _ = g.AddEdge(Edge{Source: src, Target: dst, Label: re.Label, RoutingPoints: re.Points})
	}
	return g
}

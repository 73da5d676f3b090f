package graph

import (
	"fmt"
	"strconv"

	"github.com/matzehuels/graphlayout/pkg/geometry"
)

// =============================================================================
// Document - Graph Serialization
// =============================================================================

// Document is the canonical JSON form of a graph. Vertices are identified by
// caller-chosen string IDs; edges reference them by ID.
//
//	{
//	  "vertices": [{"id": "a", "width": 80, "height": 40}, {"id": "b"}],
//	  "edges": [{"from": "a", "to": "b"}]
//	}
type Document struct {
	Vertices []VertexDoc `json:"vertices"`
	Edges    []EdgeDoc   `json:"edges"`
}

// VertexDoc is the serialized form of a [Vertex]. X and Y are the vertex
// center; omitting them leaves the position undefined.
type VertexDoc struct {
	ID     string         `json:"id"`
	Label  string         `json:"label,omitempty"`
	X      *float64       `json:"x,omitempty"`
	Y      *float64       `json:"y,omitempty"`
	Width  float64        `json:"width,omitempty"`
	Height float64        `json:"height,omitempty"`
	Shape  geometry.Shape `json:"shape,omitempty"`
	Parent string         `json:"parent,omitempty"`
	Meta   Metadata       `json:"meta,omitempty"`
}

// EdgeDoc is the serialized form of an [Edge].
type EdgeDoc struct {
	From   string           `json:"from"`
	To     string           `json:"to"`
	Label  string           `json:"label,omitempty"`
	Points []geometry.Point `json:"points,omitempty"`
	Meta   Metadata         `json:"meta,omitempty"`
}

// ToGraph builds a Graph from the document. Vertex IDs are assigned in
// document order, so the same document always yields the same IDs.
func ToGraph(doc Document) (*Graph, error) {
	g := New()
	keys := make(map[string]VertexID, len(doc.Vertices))
	for i, vd := range doc.Vertices {
		if vd.ID == "" {
			return nil, fmt.Errorf("vertex %d: id must not be empty", i)
		}
		if _, dup := keys[vd.ID]; dup {
			return nil, fmt.Errorf("vertex %q: duplicate id", vd.ID)
		}
		v := NewVertex(vd.ID)
		if vd.Label != "" {
			v.Label = vd.Label
		}
		if vd.X != nil && vd.Y != nil {
			v.Position = geometry.Pt(*vd.X, *vd.Y)
		}
		v.Size = geometry.Size{Width: vd.Width, Height: vd.Height}
		v.Shape = vd.Shape
		v.Meta = vd.Meta
		keys[vd.ID] = g.AddVertex(v)
	}
	for _, vd := range doc.Vertices {
		if vd.Parent == "" {
			continue
		}
		p, ok := keys[vd.Parent]
		if !ok {
			return nil, fmt.Errorf("vertex %q: unknown parent %q", vd.ID, vd.Parent)
		}
		if err := g.SetParent(keys[vd.ID], p); err != nil {
			return nil, fmt.Errorf("vertex %q: %w", vd.ID, err)
		}
	}
	for i, ed := range doc.Edges {
		src, ok := keys[ed.From]
		if !ok {
			return nil, fmt.Errorf("edge %d: %w %q", i, ErrUnknownSourceVertex, ed.From)
		}
		dst, ok := keys[ed.To]
		if !ok {
			return nil, fmt.Errorf("edge %d: %w %q", i, ErrUnknownTargetVertex, ed.To)
		}
		if _, err := g.AddEdge(Edge{Source: src, Target: dst, Label: ed.Label, RoutingPoints: ed.Points, Meta: ed.Meta}); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// FromGraph converts a Graph to its document form. Vertices without a Key are
// named by their numeric ID.
func FromGraph(g *Graph) Document {
	doc := Document{
		Vertices: make([]VertexDoc, 0, g.VertexCount()),
		Edges:    make([]EdgeDoc, 0, g.EdgeCount()),
	}
	for _, v := range g.Vertices() {
		vd := VertexDoc{
			ID:     KeyOf(v),
			Width:  v.Size.Width,
			Height: v.Size.Height,
			Shape:  v.Shape,
		}
		if v.Label != vd.ID {
			vd.Label = v.Label
		}
		if geometry.IsValid(v.Position) {
			x, y := v.Position.X, v.Position.Y
			vd.X, vd.Y = &x, &y
		}
		if p := g.Parent(v.ID); p != NoVertex {
			pv, _ := g.Vertex(p)
			vd.Parent = KeyOf(pv)
		}
		if len(v.Meta) > 0 {
			vd.Meta = v.Meta
		}
		doc.Vertices = append(doc.Vertices, vd)
	}
	for _, e := range g.Edges() {
		src, _ := g.Vertex(e.Source)
		dst, _ := g.Vertex(e.Target)
		ed := EdgeDoc{From: KeyOf(src), To: KeyOf(dst), Label: e.Label, Points: e.RoutingPoints}
		if len(e.Meta) > 0 {
			ed.Meta = e.Meta
		}
		doc.Edges = append(doc.Edges, ed)
	}
	return doc
}

// KeyOf returns the vertex's external key, or its numeric ID as a string.
func KeyOf(v Vertex) string {
	if v.Key != "" {
		return v.Key
	}
	return strconv.FormatInt(int64(v.ID), 10)
}

package layout

import (
	"context"
	"slices"
	"testing"

	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

func runSugiyama(t *testing.T, g *graph.Graph, p SugiyamaParams) *Result {
	t.Helper()
	s, err := NewSugiyama(p)
	if err != nil {
		t.Fatalf("NewSugiyama() error = %v", err)
	}
	res, err := s.Compute(context.Background(), g, nil, fixedSize(30, 20))
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	assertFinite(t, g, res)
	return res
}

func TestSugiyama_ThreeCycle(t *testing.T) {
	// A→B, B→C, C→A
	g := ring(3)
	res := runSugiyama(t, g, DefaultSugiyamaParams())

	layers := map[int]bool{}
	for _, id := range g.VertexIDs() {
		layers[res.Layers[id]] = true
	}
	if len(layers) != 3 {
		t.Errorf("distinct layers = %d, want 3", len(layers))
	}
	if !slices.Equal(res.Reversed, []graph.EdgeID{2}) {
		t.Errorf("Reversed = %v, want [2]", res.Reversed)
	}
	e, _ := g.Edge(2)
	if e.Source != 2 || e.Target != 0 {
		t.Errorf("edge 2 = %d->%d, want logical C->A (2->0)", e.Source, e.Target)
	}
	if len(res.EdgeRoutes[2]) != 1 {
		t.Errorf("len(EdgeRoutes[2]) = %d, want 1 bend point", len(res.EdgeRoutes[2]))
	}
}

func TestSugiyama_LayeredDAGProperty(t *testing.T) {
	g := build(7,
		[2]graph.VertexID{0, 1}, [2]graph.VertexID{0, 2}, [2]graph.VertexID{1, 3},
		[2]graph.VertexID{2, 3}, [2]graph.VertexID{3, 4}, [2]graph.VertexID{4, 1},
		[2]graph.VertexID{0, 5}, [2]graph.VertexID{5, 6}, [2]graph.VertexID{6, 6})

	for _, opt := range []bool{false, true} {
		p := DefaultSugiyamaParams()
		p.OptimizeWidth = opt
		res := runSugiyama(t, g, p)
		for _, e := range g.Edges() {
			if e.IsSelfLoop() {
				continue
			}
			src, dst := res.Layers[e.Source], res.Layers[e.Target]
			if slices.Contains(res.Reversed, e.ID) {
				src, dst = dst, src
			}
			if src >= dst {
				t.Errorf("optimize=%v: edge %d (%d->%d) layers %d -> %d, want increasing",
					opt, e.ID, e.Source, e.Target, src, dst)
			}
		}
	}
}

func TestSugiyama_NoOverlapWithinLayer(t *testing.T) {
	g := build(6,
		[2]graph.VertexID{0, 2}, [2]graph.VertexID{0, 3}, [2]graph.VertexID{1, 3},
		[2]graph.VertexID{1, 4}, [2]graph.VertexID{1, 5})
	p := DefaultSugiyamaParams()
	for mode := PositionModeBalanced; mode <= 3; mode++ {
		p.PositionMode = mode
		res := runSugiyama(t, g, p)
		ids := g.VertexIDs()
		for i, a := range ids {
			for _, b := range ids[i+1:] {
				if res.Layers[a] != res.Layers[b] {
					continue
				}
				dx := res.Positions[a].X - res.Positions[b].X
				if dx < 0 {
					dx = -dx
				}
				if dx < 30+p.VertexDistance-1e-9 {
					t.Errorf("mode %d: vertices %d and %d are %v apart, want >= %v", mode, a, b, dx, 30+p.VertexDistance)
				}
			}
		}
	}
}

func TestSugiyama_RemovesCrossing(t *testing.T) {
	// a→d and b→c cross in insertion order.
	g := build(4, [2]graph.VertexID{0, 3}, [2]graph.VertexID{1, 2})
	res := runSugiyama(t, g, DefaultSugiyamaParams())

	a, b, c, d := res.Positions[0], res.Positions[1], res.Positions[2], res.Positions[3]
	if (a.X-b.X)*(d.X-c.X) <= 0 {
		t.Errorf("edges cross: a=%v b=%v c=%v d=%v", a, b, c, d)
	}
}

func TestSugiyama_ReversedRouteReadsSourceToTarget(t *testing.T) {
	// 4-cycle: edge 3 (D→A) is laid out A→D across two dummy rows.
	g := ring(4)
	res := runSugiyama(t, g, DefaultSugiyamaParams())

	route := res.EdgeRoutes[3]
	if len(route) != 2 {
		t.Fatalf("len(EdgeRoutes[3]) = %d, want 2", len(route))
	}
	if !(res.Positions[3].Y > route[0].Y && route[0].Y > route[1].Y && route[1].Y > res.Positions[0].Y) {
		t.Errorf("route %v does not run from D (%v) up to A (%v)", route, res.Positions[3], res.Positions[0])
	}
}

func TestSugiyama_OrthogonalRouting(t *testing.T) {
	g := build(3, [2]graph.VertexID{0, 1}, [2]graph.VertexID{0, 2})
	p := DefaultSugiyamaParams()
	p.EdgeRouting = EdgeRoutingOrthogonal
	res := runSugiyama(t, g, p)

	for _, id := range []graph.EdgeID{0, 1} {
		e, _ := g.Edge(id)
		pts := append([]geometry.Point{res.Positions[e.Source]}, res.EdgeRoutes[id]...)
		pts = append(pts, res.Positions[e.Target])
		for i := 1; i < len(pts); i++ {
			if pts[i].X != pts[i-1].X && pts[i].Y != pts[i-1].Y {
				t.Errorf("edge %d segment %v-%v is diagonal", id, pts[i-1], pts[i])
			}
		}
	}
}

func TestSugiyama_IsolatedBelow(t *testing.T) {
	// 2 is isolated, 3 only has a self-loop.
	g := build(4, [2]graph.VertexID{0, 1}, [2]graph.VertexID{3, 3})
	res := runSugiyama(t, g, DefaultSugiyamaParams())

	for _, iso := range []graph.VertexID{2, 3} {
		if _, ok := res.Layers[iso]; ok {
			t.Errorf("isolated vertex %d was layered", iso)
		}
		for _, v := range []graph.VertexID{0, 1} {
			if res.Positions[iso].Y <= res.Positions[v].Y {
				t.Errorf("isolated vertex %d at %v not below %d at %v", iso, res.Positions[iso], v, res.Positions[v])
			}
		}
	}
}

func TestSugiyama_Cancelled(t *testing.T) {
	g := build(4, [2]graph.VertexID{0, 3}, [2]graph.VertexID{1, 2})
	s, _ := NewSugiyama(DefaultSugiyamaParams())
	res, err := s.Compute(cancelledContext(), g, nil, fixedSize(10, 10))
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if !res.Cancelled {
		t.Error("Cancelled = false, want true")
	}
	assertFinite(t, g, res)
}

func TestEdgeRouting_Text(t *testing.T) {
	var r EdgeRouting
	if err := r.UnmarshalText([]byte("Orthogonal")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if r != EdgeRoutingOrthogonal {
		t.Errorf("UnmarshalText() = %v, want orthogonal", r)
	}
	if err := r.UnmarshalText([]byte("zigzag")); err == nil {
		t.Error("UnmarshalText(zigzag) error = nil, want error")
	}
}

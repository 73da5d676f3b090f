package routing

import (
	"context"
	"fmt"
	"math"
	"testing"

	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

// box adds a vertex centred on (x, y).
func box(g *graph.Graph, x, y, w, h float64, shape geometry.Shape) graph.VertexID {
	v := graph.NewVertex(fmt.Sprint(g.VertexCount()))
	v.Position = geometry.Pt(x, y)
	v.Size = geometry.Size{Width: w, Height: h}
	v.Shape = shape
	return g.AddVertex(v)
}

func connect(t *testing.T, g *graph.Graph, a, b graph.VertexID) graph.EdgeID {
	t.Helper()
	id, err := g.Connect(a, b)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func bounds(g *graph.Graph, id graph.VertexID) geometry.Rect {
	v, _ := g.Vertex(id)
	return v.Bounds()
}

func assertAvoids(t *testing.T, route []geometry.Point, ob geometry.Rect) {
	t.Helper()
	for i := 0; i+1 < len(route); i++ {
		if ob.IntersectsSegment(route[i], route[i+1]) {
			t.Errorf("segment %v-%v crosses %v", route[i], route[i+1], ob)
		}
	}
}

func TestSimple_EndpointsOnBoundary(t *testing.T) {
	tests := []struct {
		name  string
		shape geometry.Shape
		x, y  float64
	}{
		{"rectangle right", geometry.ShapeRectangle, 200, 0},
		{"rectangle diagonal", geometry.ShapeRectangle, 150, 130},
		{"ellipse diagonal", geometry.ShapeEllipse, 150, -90},
		{"ellipse below", geometry.ShapeEllipse, 0, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New()
			a := box(g, 0, 0, 60, 40, tt.shape)
			b := box(g, tt.x, tt.y, 50, 30, tt.shape)
			id := connect(t, g, a, b)

			p := DefaultSimpleParams()
			p.BackStep = 0
			s, _ := NewSimple(p)
			res, err := s.Compute(context.Background(), Input{Graph: g})
			if err != nil {
				t.Fatalf("Compute() error: %v", err)
			}
			route := res.Routes[id]
			if len(route) != 2 {
				t.Fatalf("len(route) = %d, want 2", len(route))
			}
			if !geometry.OnBoundary(bounds(g, a), tt.shape, route[0], 1e-9) {
				t.Errorf("start %v not on source outline", route[0])
			}
			if !geometry.OnBoundary(bounds(g, b), tt.shape, route[1], 1e-9) {
				t.Errorf("end %v not on target outline", route[1])
			}
		})
	}
}

func TestSimple_BackStep(t *testing.T) {
	g := graph.New()
	a := box(g, 0, 0, 40, 40, geometry.ShapeRectangle)
	b := box(g, 200, 0, 40, 40, geometry.ShapeRectangle)
	id := connect(t, g, a, b)

	s, _ := NewSimple(DefaultSimpleParams())
	res, _ := s.Compute(context.Background(), Input{Graph: g})
	route := res.Routes[id]
	want := geometry.AttachPoint(bounds(g, b), geometry.ShapeRectangle, geometry.Pt(0, 0))
	if d := geometry.Distance(route[len(route)-1], want); math.Abs(d-10) > 1e-9 {
		t.Errorf("end is %v from the outline, want 10", d)
	}
	if !geometry.OnBoundary(bounds(g, a), geometry.ShapeRectangle, route[0], 1e-9) {
		t.Errorf("start %v not on source outline", route[0])
	}
}

func TestSimple_Detour(t *testing.T) {
	g := graph.New()
	a := box(g, 0, 0, 40, 40, geometry.ShapeRectangle)
	mid := box(g, 200, 0, 50, 50, geometry.ShapeRectangle)
	c := box(g, 400, 0, 40, 40, geometry.ShapeRectangle)
	id := connect(t, g, a, c)

	p := DefaultSimpleParams()
	p.BackStep = 0
	s, _ := NewSimple(p)
	res, _ := s.Compute(context.Background(), Input{Graph: g})
	route := res.Routes[id]
	if len(route) < 3 {
		t.Fatalf("route %v has no detour", route)
	}
	assertAvoids(t, route, bounds(g, mid))
	if !geometry.OnBoundary(bounds(g, a), geometry.ShapeRectangle, route[0], 1e-9) {
		t.Errorf("start %v not on source outline", route[0])
	}
	if !geometry.OnBoundary(bounds(g, c), geometry.ShapeRectangle, route[len(route)-1], 1e-9) {
		t.Errorf("end %v not on target outline", route[len(route)-1])
	}
}

func TestSimple_ComputeSingle(t *testing.T) {
	g := graph.New()
	a := box(g, 0, 0, 40, 40, geometry.ShapeRectangle)
	b := box(g, 100, 100, 40, 40, geometry.ShapeEllipse)
	id := connect(t, g, a, b)
	loop := connect(t, g, a, a)

	s, _ := NewSimple(DefaultSimpleParams())
	in := Input{Graph: g}
	all, _ := s.Compute(context.Background(), in)
	if _, ok := all.Routes[loop]; ok {
		t.Error("self-loop was routed")
	}

	one, err := s.ComputeSingle(context.Background(), in, id)
	if err != nil {
		t.Fatalf("ComputeSingle() error: %v", err)
	}
	if fmt.Sprint(one) != fmt.Sprint(all.Routes[id]) {
		t.Errorf("ComputeSingle() = %v, want %v", one, all.Routes[id])
	}
	if _, err := s.ComputeSingle(context.Background(), in, loop); err == nil {
		t.Error("ComputeSingle(self-loop) succeeded, want error")
	}
	if _, err := s.ComputeSingle(context.Background(), in, 99); !gerrors.Is(err, gerrors.ErrCodeNotFound) {
		t.Errorf("ComputeSingle(99) error = %v, want NOT_FOUND", err)
	}
}

func TestSimple_InvalidPosition(t *testing.T) {
	g := graph.New()
	a := box(g, 0, 0, 40, 40, geometry.ShapeRectangle)
	b := g.AddVertex(graph.NewVertex("unplaced"))
	connect(t, g, a, b)

	s, _ := NewSimple(DefaultSimpleParams())
	_, err := s.Compute(context.Background(), Input{Graph: g})
	if !gerrors.Is(err, gerrors.ErrCodeInvalidInput) {
		t.Errorf("Compute() error = %v, want INVALID_INPUT", err)
	}
}

func TestIncrementalCapability(t *testing.T) {
	simple, _ := NewSimple(DefaultSimpleParams())
	bundling, _ := NewBundling(DefaultBundlingParams())
	pathfinder, _ := NewPathfinder(DefaultPathfinderParams())
	tests := []struct {
		name   string
		router Router
		want   bool
	}{
		{"simple", simple, true},
		{"bundling", bundling, false},
		{"pathfinder", pathfinder, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.router.Incremental(); got != tt.want {
				t.Errorf("Incremental() = %v, want %v", got, tt.want)
			}
			if _, ok := tt.router.(IncrementalRouter); ok != tt.want {
				t.Errorf("implements IncrementalRouter = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestBundling_AttractsParallelEdges(t *testing.T) {
	g := graph.New()
	a := box(g, 0, 0, 20, 20, geometry.ShapeRectangle)
	b := box(g, 400, 0, 20, 20, geometry.ShapeRectangle)
	c := box(g, 0, 40, 20, 20, geometry.ShapeRectangle)
	d := box(g, 400, 40, 20, 20, geometry.ShapeRectangle)
	top := connect(t, g, a, b)
	bottom := connect(t, g, c, d)

	bu, _ := NewBundling(DefaultBundlingParams())
	res, err := bu.Compute(context.Background(), Input{Graph: g})
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	meanY := func(route []geometry.Point) float64 {
		sum := 0.0
		for _, p := range route[1 : len(route)-1] {
			sum += p.Y
		}
		return sum / float64(len(route)-2)
	}
	if r := res.Routes[top]; len(r) < 3 || meanY(r) < 5 {
		t.Errorf("top edge not pulled down: %v", r)
	}
	if r := res.Routes[bottom]; len(r) < 3 || meanY(r) > 35 {
		t.Errorf("bottom edge not pulled up: %v", r)
	}
}

func TestBundling_ThreadingIsDeterministic(t *testing.T) {
	g := graph.New()
	for i := range 20 {
		y := float64(i * 30)
		a := box(g, 0, y, 20, 20, geometry.ShapeRectangle)
		b := box(g, 500, y+float64(i%3)*10, 20, 20, geometry.ShapeRectangle)
		connect(t, g, a, b)
	}
	p := DefaultBundlingParams()
	p.Iterations = 30
	threaded, _ := NewBundling(p)
	p.UseThreading = false
	sequential, _ := NewBundling(p)

	r1, _ := threaded.Compute(context.Background(), Input{Graph: g})
	r2, _ := sequential.Compute(context.Background(), Input{Graph: g})
	for id, route := range r2.Routes {
		if fmt.Sprint(r1.Routes[id]) != fmt.Sprint(route) {
			t.Errorf("edge %d: threaded %v, sequential %v", id, r1.Routes[id], route)
		}
	}
}

func TestBundling_NoSubdivision(t *testing.T) {
	g := graph.New()
	a := box(g, 0, 0, 20, 20, geometry.ShapeRectangle)
	b := box(g, 100, 0, 20, 20, geometry.ShapeRectangle)
	id := connect(t, g, a, b)

	p := DefaultBundlingParams()
	p.SubdivisionPoints = 0
	bu, _ := NewBundling(p)
	res, _ := bu.Compute(context.Background(), Input{Graph: g})
	want := []geometry.Point{geometry.Pt(10, 0), geometry.Pt(90, 0)}
	if fmt.Sprint(res.Routes[id]) != fmt.Sprint(want) {
		t.Errorf("route = %v, want %v", res.Routes[id], want)
	}
}

func TestBundling_Cancelled(t *testing.T) {
	g := graph.New()
	a := box(g, 0, 0, 20, 20, geometry.ShapeRectangle)
	b := box(g, 100, 0, 20, 20, geometry.ShapeRectangle)
	id := connect(t, g, a, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bu, _ := NewBundling(DefaultBundlingParams())
	res, err := bu.Compute(ctx, Input{Graph: g})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Cancelled {
		t.Error("Cancelled = false, want true")
	}
	if len(res.Routes[id]) < 2 {
		t.Errorf("route = %v, want a complete route", res.Routes[id])
	}
}

func TestPathfinder_AvoidsObstacle(t *testing.T) {
	g := graph.New()
	a := box(g, 0, 0, 20, 20, geometry.ShapeRectangle)
	wall := box(g, 300, 0, 200, 200, geometry.ShapeRectangle)
	c := box(g, 600, 0, 20, 20, geometry.ShapeRectangle)
	id := connect(t, g, a, c)

	p := DefaultPathfinderParams()
	p.HorizontalGridSize, p.VerticalGridSize = 50, 50
	pf, _ := NewPathfinder(p)
	res, err := pf.Compute(context.Background(), Input{Graph: g})
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", res.Warnings)
	}
	route := res.Routes[id]
	if len(route) < 3 {
		t.Fatalf("route %v goes straight through the wall", route)
	}
	assertAvoids(t, route, bounds(g, wall))
	if !geometry.OnBoundary(bounds(g, a), geometry.ShapeRectangle, route[0], 1e-9) {
		t.Errorf("start %v not on source outline", route[0])
	}
	if !geometry.OnBoundary(bounds(g, c), geometry.ShapeRectangle, route[len(route)-1], 1e-9) {
		t.Errorf("end %v not on target outline", route[len(route)-1])
	}
}

func TestPathfinder_AvoidsObstacleSmallerThanCell(t *testing.T) {
	g := graph.New()
	a := box(g, 0, 0, 50, 50, geometry.ShapeRectangle)
	mid := box(g, 225, 10, 50, 50, geometry.ShapeRectangle)
	c := box(g, 450, 0, 50, 50, geometry.ShapeRectangle)
	id := connect(t, g, a, c)

	pf, _ := NewPathfinder(DefaultPathfinderParams())
	res, err := pf.Compute(context.Background(), Input{Graph: g})
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", res.Warnings)
	}
	route := res.Routes[id]
	if len(route) < 3 {
		t.Fatalf("route %v goes straight through %v", route, bounds(g, mid))
	}
	assertAvoids(t, route, bounds(g, mid))
}

func TestPathfinder_CrossingLegFallsBack(t *testing.T) {
	g := graph.New()
	a := box(g, 0, 0, 20, 20, geometry.ShapeRectangle)
	// Within a cell of the source, so its cell is left open as the start.
	near := box(g, 30, 0, 10, 10, geometry.ShapeRectangle)
	_ = near
	c :=box(g, 600, 0, 20, 20, geometry.ShapeRectangle)
	id := connect(t, g, a, c)

	pf, _ := NewPathfinder(DefaultPathfinderParams())
	res, err := pf.Compute(context.Background(), Input{Graph: g})
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Edge != id || res.Warnings[0].Code != gerrors.ErrCodeUnroutableEdge {
		t.Fatalf("Warnings = %v, want one UNROUTABLE_EDGE for edge %d", res.Warnings, id)
	}
	if route := res.Routes[id]; len(route) != 2 {
		t.Errorf("fallback route = %v, want direct", route)
	}
}

func TestPathfinder_UnroutableFallsBack(t *testing.T) {
	g := graph.New()
	a := box(g, 0, 0, 20, 20, geometry.ShapeRectangle)
	b := box(g, 1000, 0, 20, 20, geometry.ShapeRectangle)
	id := connect(t, g, a, b)

	p := DefaultPathfinderParams()
	p.SearchTriesLimit = 1
	pf, _ := NewPathfinder(p)
	in := Input{Graph: g}
	res, err := pf.Compute(context.Background(), in)
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Edge != id || res.Warnings[0].Code != gerrors.ErrCodeUnroutableEdge {
		t.Fatalf("Warnings = %v, want one UNROUTABLE_EDGE for edge %d", res.Warnings, id)
	}
	if len(res.Routes[id]) != 2 {
		t.Errorf("fallback route = %v, want direct", res.Routes[id])
	}

	route, err := pf.ComputeSingle(context.Background(), in, id)
	if !gerrors.Is(err, gerrors.ErrCodeUnroutableEdge) {
		t.Errorf("ComputeSingle() error = %v, want UNROUTABLE_EDGE", err)
	}
	if len(route) != 2 {
		t.Errorf("ComputeSingle() route = %v, want direct", route)
	}
}

func TestPathfinder_Heuristics(t *testing.T) {
	for h := range heuristicNames {
		t.Run(h.String(), func(t *testing.T) {
			g := graph.New()
			a := box(g, 0, 0, 20, 20, geometry.ShapeRectangle)
			b := box(g, 500, 300, 20, 20, geometry.ShapeRectangle)
			id := connect(t, g, a, b)

			p := DefaultPathfinderParams()
			p.Heuristic = h
			p.PunishChangeDirection = true
			pf, _ := NewPathfinder(p)
			res, err := pf.Compute(context.Background(), Input{Graph: g})
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Warnings) != 0 {
				t.Errorf("Warnings = %v, want none", res.Warnings)
			}
			for _, pt := range res.Routes[id] {
				if !geometry.IsValid(pt) {
					t.Errorf("route point %v not finite", pt)
				}
			}
		})
	}
}

func TestHeuristic_Text(t *testing.T) {
	var h Heuristic
	if err := h.UnmarshalText([]byte("Euclidean-NoSqr")); err != nil || h != HeuristicEuclideanNoSqr {
		t.Errorf("UnmarshalText() = %v, %v", h, err)
	}
	if err := h.UnmarshalText([]byte("taxicab")); !gerrors.Is(err, gerrors.ErrCodeInvalidConfiguration) {
		t.Errorf("UnmarshalText(taxicab) error = %v, want INVALID_CONFIGURATION", err)
	}
}

func TestOffsetParallel(t *testing.T) {
	g := graph.New()
	a := box(g, 0, 0, 20, 20, geometry.ShapeRectangle)
	b := box(g, 200, 0, 20, 20, geometry.ShapeRectangle)
	c := box(g, 0, 200, 20, 20, geometry.ShapeRectangle)
	e0 := connect(t, g, a, b)
	e1 := connect(t, g, a, b)
	e2 := connect(t, g, a, b)
	single := connect(t, g, a, c)

	s, _ := NewSimple(SimpleParams{})
	res, _ := s.Compute(context.Background(), Input{Graph: g})
	before := fmt.Sprint(res.Routes)
	out := OffsetParallel(res.Routes, g, nil, 5, 0)

	tests := []struct {
		id   graph.EdgeID
		want []geometry.Point
	}{
		{e0, []geometry.Point{geometry.Pt(10, -5), geometry.Pt(190, -5)}},
		{e1, []geometry.Point{geometry.Pt(10, 5), geometry.Pt(190, 5)}},
		{e2, []geometry.Point{geometry.Pt(10, -10), geometry.Pt(190, -10)}},
	}
	for _, tt := range tests {
		got := out[tt.id]
		if len(got) != 2 || geometry.Distance(got[0], tt.want[0]) > 1e-9 || geometry.Distance(got[1], tt.want[1]) > 1e-9 {
			t.Errorf("edge %d = %v, want %v", tt.id, got, tt.want)
		}
	}
	if fmt.Sprint(out[single]) != fmt.Sprint(res.Routes[single]) {
		t.Errorf("single edge changed to %v", out[single])
	}
	if fmt.Sprint(res.Routes) != before {
		t.Error("OffsetParallel modified its input")
	}
}

func TestOffsetParallel_KeepsBackStep(t *testing.T) {
	g := graph.New()
	a := box(g, 0, 0, 20, 20, geometry.ShapeRectangle)
	b := box(g, 200, 0, 20, 20, geometry.ShapeRectangle)
	e0 := connect(t, g, a, b)
	e1 := connect(t, g, a, b)

	p := DefaultSimpleParams()
	s, _ := NewSimple(p)
	res, _ := s.Compute(context.Background(), Input{Graph: g})
	if got := res.Routes[e0][1]; geometry.Distance(got, geometry.Pt(180, 0)) > 1e-9 {
		t.Fatalf("unshifted end = %v, want (180, 0)", got)
	}
	out := OffsetParallel(res.Routes, g, nil, 5, BackStepOf(p))

	tests := []struct {
		id   graph.EdgeID
		want []geometry.Point
	}{
		{e0, []geometry.Point{geometry.Pt(10, -5), geometry.Pt(180, -5)}},
		{e1, []geometry.Point{geometry.Pt(10, 5), geometry.Pt(180, 5)}},
	}
	for _, tt := range tests {
		got := out[tt.id]
		if len(got) != 2 || geometry.Distance(got[0], tt.want[0]) > 1e-9 || geometry.Distance(got[1], tt.want[1]) > 1e-9 {
			t.Errorf("edge %d = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestBackStepOf(t *testing.T) {
	sp := SimpleParams{BackStep: 7}
	tests := []struct {
		name string
		p    Params
		want float64
	}{
		{"simple", sp, 7},
		{"simple pointer", &sp, 7},
		{"pathfinder", DefaultPathfinderParams(), 0},
		{"nil", nil, 0},
	}
	for _, tt := range tests {
		if got := BackStepOf(tt.p); got != tt.want {
			t.Errorf("BackStepOf(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		valid  bool
	}{
		{"simple defaults", DefaultSimpleParams(), true},
		{"simple negative back step", SimpleParams{BackStep: -1}, false},
		{"bundling defaults", DefaultBundlingParams(), true},
		{"bundling threshold above one", BundlingParams{Threshold: 2}, false},
		{"bundling straightening negative", BundlingParams{Straightening: -0.1}, false},
		{"pathfinder defaults", DefaultPathfinderParams(), true},
		{"pathfinder zero grid", PathfinderParams{VerticalGridSize: 1}, false},
		{"pathfinder unknown heuristic", func() Params {
			p := DefaultPathfinderParams()
			p.Heuristic = Heuristic(42)
			return p
		}(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.params.Validate(); (err == nil) != tt.valid {
				t.Errorf("Validate() = %v, want valid %v", err, tt.valid)
			}
		})
	}
}

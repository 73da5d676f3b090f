package pipeline

import (
	"cmp"
	"context"
	"slices"

	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/layout"
	"github.com/matzehuels/graphlayout/pkg/overlap"
	"github.com/matzehuels/graphlayout/pkg/routing"
)

// =============================================================================
// Single stages
// =============================================================================

// The methods below run one stage against the graph's current geometry and
// return its output without committing anything. Sizes come from the
// runner's Measurer.

// ComputeLayout runs only the layout stage. Kind "none" returns the current
// positions, with undefined ones at the origin.
func (r *Runner) ComputeLayout(ctx context.Context, g *graph.Graph, opts Options) (*layout.Result, error) {
	st, err := r.plan(opts)
	if err != nil {
		return nil, err
	}
	if st.layout == nil {
		return &layout.Result{Positions: currentPositions(g)}, nil
	}
	sizes := r.dispatchMeasure(g)
	return st.layout.Compute(ctx, g, positionFunc(g.Positions()), sizeFunc(sizes))
}

// RemoveOverlaps runs only the overlap stage on the current vertex boxes.
// Compound vertices are refitted around their children.
func (r *Runner) RemoveOverlaps(ctx context.Context, g *graph.Graph, opts Options) (*overlap.Result, error) {
	st, err := r.plan(opts)
	if err != nil {
		return nil, err
	}
	rects := rectsOf(currentPositions(g), r.dispatchMeasure(g))
	if st.overlap == nil {
		return &overlap.Result{Rects: rects}, nil
	}
	input, margins := overlapInput(g, rects)
	res, err := st.overlap.Compute(ctx, input)
	if err != nil {
		return nil, err
	}
	for id, rc := range res.Rects {
		rects[id] = rc
	}
	refitCompounds(g, rects, margins)
	res.Rects = rects
	return res, nil
}

// RouteEdges runs only the routing stage around the current vertex boxes.
func (r *Runner) RouteEdges(ctx context.Context, g *graph.Graph, opts Options) (*routing.Result, error) {
	st, err := r.plan(opts)
	if err != nil {
		return nil, err
	}
	if st.router == nil {
		return &routing.Result{Routes: map[graph.EdgeID][]geometry.Point{}}, nil
	}
	in := routing.Input{Graph: g, Rects: rectsOf(currentPositions(g), r.dispatchMeasure(g))}
	res, err := st.router.Compute(ctx, in)
	if err != nil {
		return nil, err
	}
	if st.opts.ParallelEdges.Enabled && !res.Cancelled {
		res.Routes = routing.OffsetParallel(res.Routes, g, in.Rects, st.opts.ParallelEdges.Distance, routing.BackStepOf(st.opts.RoutingParams))
	}
	return res, nil
}

// RouteEdge re-routes a single edge, for example after one of its
// endpoints moved. Routers that only work on all edges at once fail with
// ErrCodeUnsupported.
func (r *Runner) RouteEdge(ctx context.Context, g *graph.Graph, id graph.EdgeID, opts Options) ([]geometry.Point, error) {
	st, err := r.plan(opts)
	if err != nil {
		return nil, err
	}
	if st.router == nil {
		return nil, gerrors.New(gerrors.ErrCodeUnsupported, "routing is disabled")
	}
	inc, ok := st.router.(routing.IncrementalRouter)
	if !ok || !st.router.Incremental() {
		return nil, gerrors.New(gerrors.ErrCodeUnsupported,
			"%s routing cannot re-route a single edge", st.opts.Routing)
	}
	in := routing.Input{Graph: g, Rects: rectsOf(currentPositions(g), r.dispatchMeasure(g))}
	return inc.ComputeSingle(ctx, in, id)
}

func (r *Runner) dispatchMeasure(g *graph.Graph) map[graph.VertexID]geometry.Size {
	var sizes map[graph.VertexID]geometry.Size
	r.Dispatcher.Dispatch(func() { sizes = r.measure(g) })
	return sizes
}

// =============================================================================
// Helpers
// =============================================================================

func positionFunc(m map[graph.VertexID]geometry.Point) layout.PositionFunc {
	return func(id graph.VertexID) geometry.Point {
		if p, ok := m[id]; ok {
			return p
		}
		return geometry.Undefined()
	}
}

func sizeFunc(m map[graph.VertexID]geometry.Size) layout.SizeFunc {
	return func(id graph.VertexID) geometry.Size {
		if s, ok := m[id]; ok {
			return s
		}
		return geometry.UnitSize
	}
}

// currentPositions returns the graph's positions with undefined ones moved
// to the origin.
func currentPositions(g *graph.Graph) map[graph.VertexID]geometry.Point {
	out := g.Positions()
	for id, p := range out {
		if !geometry.IsValid(p) {
			out[id] = geometry.Point{}
		}
	}
	return out
}

func rectsOf(positions map[graph.VertexID]geometry.Point, sizes map[graph.VertexID]geometry.Size) map[graph.VertexID]geometry.Rect {
	out := make(map[graph.VertexID]geometry.Rect, len(positions))
	for id, p := range positions {
		s, ok := sizes[id]
		if !ok {
			s = geometry.UnitSize
		}
		out[id] = geometry.RectFromCenter(p, s)
	}
	return out
}

func centers(rects map[graph.VertexID]geometry.Rect) map[graph.VertexID]geometry.Point {
	out := make(map[graph.VertexID]geometry.Point, len(rects))
	for id, r := range rects {
		out[id] = r.Center()
	}
	return out
}

// margin is how far a compound box extends beyond the bounds of its
// children on each side.
type margin struct {
	left, top, right, bottom float64
}

// overlapInput returns the boxes that take part in overlap removal and the
// margins of the compound vertices left out. Compound vertices contain their
// children, so they are refitted afterwards instead of being separated.
func overlapInput(g *graph.Graph, rects map[graph.VertexID]geometry.Rect) (map[graph.VertexID]geometry.Rect, map[graph.VertexID]margin) {
	input := make(map[graph.VertexID]geometry.Rect, len(rects))
	margins := make(map[graph.VertexID]margin)
	for id, rc := range rects {
		if !g.IsCompound(id) {
			input[id] = rc
			continue
		}
		inner := childBounds(g, id, rects)
		margins[id] = margin{
			left:   inner.Left() - rc.Left(),
			top:    inner.Top() - rc.Top(),
			right:  rc.Right() - inner.Right(),
			bottom: rc.Bottom() - inner.Bottom(),
		}
	}
	return input, margins
}

// refitCompounds rebuilds every compound box around its moved children,
// innermost first, keeping its margins. It returns the new sizes.
func refitCompounds(g *graph.Graph, rects map[graph.VertexID]geometry.Rect, margins map[graph.VertexID]margin) map[graph.VertexID]geometry.Size {
	ids := make([]graph.VertexID, 0, len(margins))
	for id := range margins {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b graph.VertexID) int {
		if c := cmp.Compare(g.Depth(b), g.Depth(a)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	sizes := make(map[graph.VertexID]geometry.Size, len(ids))
	for _, id := range ids {
		m := margins[id]
		inner := childBounds(g, id, rects)
		rc := geometry.Rect{
			X:      inner.Left() - m.left,
			Y:      inner.Top() - m.top,
			Width:  inner.Width + m.left + m.right,
			Height: inner.Height + m.top + m.bottom,
		}
		rects[id] = rc
		sizes[id] = rc.Size()
	}
	return sizes
}

func childBounds(g *graph.Graph, id graph.VertexID, rects map[graph.VertexID]geometry.Rect) geometry.Rect {
	children := g.Children(id)
	boxes := make([]geometry.Rect, 0, len(children))
	for _, c := range children {
		if rc, ok := rects[c]; ok {
			boxes = append(boxes, rc)
		}
	}
	return geometry.Bounds(boxes)
}

package routing

import (
	"context"
	"fmt"

	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

// Kind names an edge routing algorithm.
type Kind string

const (
	KindNone       Kind = "none"
	KindSimple     Kind = "simple"
	KindBundling   Kind = "bundling"
	KindPathfinder Kind = "pathfinder"
)

// Params is a parameter set of one router.
type Params interface {
	Clone() Params
	Validate() error
}

// Input is what every router reads. Rects holds the final vertex rectangles;
// vertices missing from it fall back to their bounds in Graph. Area is the
// region available for routing and may be empty, in which case routers use
// the bounds of all rectangles.
type Input struct {
	Graph *graph.Graph
	Rects map[graph.VertexID]geometry.Rect
	Area  geometry.Rect
}

// Warning reports an edge that was routed by a fallback.
type Warning struct {
	Edge    graph.EdgeID `json:"edge"`
	Code    gerrors.Code `json:"code"`
	Message string       `json:"message"`
}

func (w Warning) String() string { return fmt.Sprintf("edge %d: %s", w.Edge, w.Message) }

// Result holds one route per routed edge. Each route is the full polyline
// from the source attach point to the target attach point. Self-loops never
// appear here.
type Result struct {
	Routes    map[graph.EdgeID][]geometry.Point
	Warnings  []Warning
	Cancelled bool
}

// Router computes routes for all edges of a graph.
type Router interface {
	Compute(ctx context.Context, in Input) (*Result, error)
	// Incremental reports whether single edges can be re-routed on their own.
	Incremental() bool
}

// IncrementalRouter re-routes one edge without touching the others.
type IncrementalRouter interface {
	Router
	ComputeSingle(ctx context.Context, in Input, id graph.EdgeID) ([]geometry.Point, error)
}

func newResult(n int) *Result {
	return &Result{Routes: make(map[graph.EdgeID][]geometry.Point, n)}
}

func cancelled(ctx context.Context) bool { return ctx.Err() != nil }

// endpoint is the routed view of one vertex.
type endpoint struct {
	rect  geometry.Rect
	shape geometry.Shape
}

func (e endpoint) center() geometry.Point { return e.rect.Center() }

func (in Input) endpoint(id graph.VertexID) (endpoint, error) {
	v, ok := in.Graph.Vertex(id)
	if !ok {
		return endpoint{}, gerrors.New(gerrors.ErrCodeNotFound, "vertex %d not found", id)
	}
	r, ok := in.Rects[id]
	if !ok {
		r = v.Bounds()
	}
	if !r.IsValid() {
		return endpoint{}, gerrors.New(gerrors.ErrCodeInvalidInput, "vertex %d has no valid position", id)
	}
	return endpoint{rect: r, shape: v.Shape}, nil
}

// ends resolves both endpoints of an edge.
func (in Input) ends(e graph.Edge) (src, dst endpoint, err error) {
	if src, err = in.endpoint(e.Source); err != nil {
		return
	}
	dst, err = in.endpoint(e.Target)
	return
}

// edge looks up a routable edge.
func (in Input) edge(id graph.EdgeID) (graph.Edge, error) {
	e, ok := in.Graph.Edge(id)
	if !ok {
		return graph.Edge{}, gerrors.New(gerrors.ErrCodeNotFound, "edge %d not found", id)
	}
	if e.IsSelfLoop() {
		return graph.Edge{}, gerrors.New(gerrors.ErrCodeInvalidInput, "edge %d is a self-loop", id)
	}
	return e, nil
}

// routable returns all edges except self-loops, in ID order.
func routable(g *graph.Graph) []graph.Edge {
	var out []graph.Edge
	for _, e := range g.Edges() {
		if !e.IsSelfLoop() {
			out = append(out, e)
		}
	}
	return out
}

// area returns in.Area, or the bounds of every vertex rectangle.
func (in Input) area() geometry.Rect {
	if !in.Area.Size().IsEmpty() {
		return in.Area
	}
	rects := make([]geometry.Rect, 0, in.Graph.VertexCount())
	for _, id := range in.Graph.VertexIDs() {
		if ep, err := in.endpoint(id); err == nil {
			rects = append(rects, ep.rect)
		}
	}
	return geometry.Bounds(rects)
}

// obstacles returns the rectangles of all vertices except the two endpoints.
func (in Input) obstacles(except ...graph.VertexID) []geometry.Rect {
	var out []geometry.Rect
outer:
	for _, id := range in.Graph.VertexIDs() {
		for _, x := range except {
			if id == x {
				continue outer
			}
		}
		if ep, err := in.endpoint(id); err == nil && !ep.rect.Size().IsEmpty() {
			out = append(out, ep.rect)
		}
	}
	return out
}

// attach finishes a route: the first and last points are replaced by the
// exact attach points toward their neighbours in the route, and the last
// one is moved back by backStep.
func attach(src, dst endpoint, waypoints []geometry.Point, backStep float64) []geometry.Point {
	towardSrc, towardDst := dst.center(), src.center()
	if len(waypoints) > 0 {
		towardSrc, towardDst = waypoints[0], waypoints[len(waypoints)-1]
	}
	start := geometry.AttachPoint(src.rect, src.shape, towardSrc)
	end := geometry.AttachPoint(dst.rect, dst.shape, towardDst)
	route := make([]geometry.Point, 0, len(waypoints)+2)
	route = append(route, start)
	route = append(route, waypoints...)
	prev := start
	if len(waypoints) > 0 {
		prev = waypoints[len(waypoints)-1]
	}
	return append(route, geometry.BackStep(end, prev, backStep))
}

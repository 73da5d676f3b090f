package layout

import (
	"context"
	"math/rand/v2"

	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

// Kind names a layout algorithm in the registry and in configuration files.
type Kind string

const (
	KindNone        Kind = "none"
	KindRandom      Kind = "random"
	KindKK          Kind = "kk"
	KindSugiyama    Kind = "sugiyama"
	KindCompoundFDP Kind = "compound-fdp"
)

// DefaultWorkArea is the side of the square in which vertices without a
// position are placed before an algorithm starts.
const DefaultWorkArea = 2000.0

// PositionFunc returns the current position of a vertex, or
// geometry.Undefined() when it has none.
type PositionFunc func(graph.VertexID) geometry.Point

// SizeFunc returns the measured size of a vertex.
type SizeFunc func(graph.VertexID) geometry.Size

// Params is a parameter set of one algorithm. Clone returns a deep copy so
// a run never shares mutable state with its caller.
type Params interface {
	Clone() Params
	Validate() error
}

// Algorithm computes vertex positions for a graph.
//
// Inputs are reached through callbacks so that an algorithm that ignores
// sizes never forces a measurement. Compute fails with
// ErrCodeInvalidConfiguration when a callback the algorithm needs is nil.
// When ctx is cancelled Compute stops at the next iteration boundary and
// returns a partial result with Cancelled set and a nil error.
type Algorithm interface {
	Compute(ctx context.Context, g *graph.Graph, pos PositionFunc, size SizeFunc) (*Result, error)
	NeedsVertexSizes() bool
	NeedsOriginalPositions() bool
}

// Result holds the output of a layout run. Positions has an entry for every
// vertex and never contains NaN.
type Result struct {
	Positions map[graph.VertexID]geometry.Point

	// EdgeRoutes holds bend points computed by layered layout, ordered from
	// source to target. Endpoints are not included.
	EdgeRoutes map[graph.EdgeID][]geometry.Point
	// Layers maps each layered vertex to its layer index.
	Layers map[graph.VertexID]int
	// Reversed lists the edges that were laid out against their direction
	// to break cycles.
	Reversed []graph.EdgeID
	// Sizes holds sizes derived by the algorithm, e.g. compound vertices
	// grown around their children.
	Sizes map[graph.VertexID]geometry.Size

	Cancelled bool
}

func newResult(n int) *Result {
	return &Result{Positions: make(map[graph.VertexID]geometry.Point, n)}
}

func checkCallbacks(name string, a Algorithm, pos PositionFunc, size SizeFunc) error {
	if a.NeedsOriginalPositions() && pos == nil {
		return gerrors.New(gerrors.ErrCodeInvalidConfiguration, "%s layout needs an original position provider", name)
	}
	if a.NeedsVertexSizes() && size == nil {
		return gerrors.New(gerrors.ErrCodeInvalidConfiguration, "%s layout needs a vertex size provider", name)
	}
	return nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// initialPositions reads every vertex position through pos, replacing
// missing or undefined ones with a uniform random point in [0,w]x[0,h].
func initialPositions(g *graph.Graph, pos PositionFunc, rng *rand.Rand, w, h float64) map[graph.VertexID]geometry.Point {
	out := make(map[graph.VertexID]geometry.Point, g.VertexCount())
	for _, id := range g.VertexIDs() {
		p := geometry.Undefined()
		if pos != nil {
			p = pos(id)
		}
		if !geometry.IsValid(p) {
			p = geometry.Pt(rng.Float64()*w, rng.Float64()*h)
		}
		out[id] = p
	}
	return out
}

// vertexSizes reads every vertex size through size; unusable sizes become
// 1x1.
func vertexSizes(g *graph.Graph, size SizeFunc) map[graph.VertexID]geometry.Size {
	out := make(map[graph.VertexID]geometry.Size, g.VertexCount())
	for _, id := range g.VertexIDs() {
		s := geometry.UnitSize
		if size != nil {
			s = size(id).OrUnit()
		}
		out[id] = s
	}
	return out
}

// sanitize replaces non-finite positions with their fallback.
func sanitize(positions, fallback map[graph.VertexID]geometry.Point) {
	for id, p := range positions {
		if !geometry.IsValid(p) {
			positions[id] = fallback[id]
		}
	}
}

func cancelled(ctx context.Context) bool { return ctx.Err() != nil }

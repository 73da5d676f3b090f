package routing

import (
	"context"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

// SimpleParams configures [Simple].
type SimpleParams struct {
	// SideStep is the clearance kept around a vertex when detouring.
	SideStep float64 `toml:"side_step" json:"side_step"`
	// BackStep shortens the route at the target end.
	BackStep   float64 `toml:"back_step" json:"back_step"`
	MaxDetours int     `toml:"max_detours" json:"max_detours"`
}

// DefaultSimpleParams returns the default simple routing parameters.
func DefaultSimpleParams() SimpleParams {
	return SimpleParams{SideStep: 10, BackStep: 10, MaxDetours: 8}
}

func (p SimpleParams) Clone() Params { return p }

func (p SimpleParams) Validate() error {
	return gerrors.First(
		gerrors.ValidateNonNegative("simple.side_step", p.SideStep),
		gerrors.ValidateNonNegative("simple.back_step", p.BackStep),
		gerrors.ValidateCount("simple.max_detours", p.MaxDetours),
	)
}

// Simple connects the centers of both endpoints with a straight line and
// clips it to the exact outline of each shape. Vertices crossed by the line
// are skirted through the corners of their rectangle inflated by SideStep,
// at most MaxDetours times per edge.
type Simple struct {
	params SimpleParams
}

// NewSimple validates p and returns a simple router.
func NewSimple(p SimpleParams) (*Simple, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Simple{params: p}, nil
}

func (s *Simple) Incremental() bool { return true }

func (s *Simple) Compute(ctx context.Context, in Input) (*Result, error) {
	edges := routable(in.Graph)
	res := newResult(len(edges))
	for _, e := range edges {
		if cancelled(ctx) {
			res.Cancelled = true
			break
		}
		route, err := s.route(in, e)
		if err != nil {
			return nil, err
		}
		res.Routes[e.ID] = route
	}
	return res, nil
}

func (s *Simple) ComputeSingle(ctx context.Context, in Input, id graph.EdgeID) ([]geometry.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := in.edge(id)
	if err != nil {
		return nil, err
	}
	return s.route(in, e)
}

func (s *Simple) route(in Input, e graph.Edge) ([]geometry.Point, error) {
	src, dst, err := in.ends(e)
	if err != nil {
		return nil, err
	}
	var waypoints []geometry.Point
	if s.params.MaxDetours > 0 {
		waypoints = s.detour(src.center(), dst.center(), in.obstacles(e.Source, e.Target))
	}
	return attach(src, dst, waypoints, s.params.BackStep), nil
}

// detour returns the interior waypoints of a path from a to b that avoids
// the obstacles, as far as MaxDetours allows.
func (s *Simple) detour(a, b geometry.Point, obstacles []geometry.Rect) []geometry.Point {
	pts := []geometry.Point{a, b}
	for range s.params.MaxDetours {
		i, ob, ok := firstHit(pts, obstacles)
		if !ok {
			break
		}
		via, ok := around(pts[i], pts[i+1], ob, s.params.SideStep)
		if !ok {
			break
		}
		pts = slices.Insert(pts, i+1, via...)
	}
	return pts[1 : len(pts)-1]
}

// firstHit finds the first segment of pts crossing an obstacle and the
// obstacle nearest to that segment's start.
func firstHit(pts []geometry.Point, obstacles []geometry.Rect) (int, geometry.Rect, bool) {
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		ab := r2.Sub(b, a)
		l2 := r2.Dot(ab, ab)
		best, bestT := -1, math.Inf(1)
		for j, ob := range obstacles {
			if !ob.IntersectsSegment(a, b) {
				continue
			}
			t := 0.0
			if l2 > 0 {
				t = r2.Dot(r2.Sub(ob.Center(), a), ab) / l2
			}
			if t < bestT {
				best, bestT = j, t
			}
		}
		if best >= 0 {
			return i, obstacles[best], true
		}
	}
	return 0, geometry.Rect{}, false
}

// around returns the shortest way from a to b through one corner, or two
// adjacent corners, of ob inflated by step, such that no leg crosses ob.
func around(a, b geometry.Point, ob geometry.Rect, step float64) ([]geometry.Point, bool) {
	corners := ob.Inflate(step, step).Corners()
	free := func(pts ...geometry.Point) bool {
		for i := 0; i+1 < len(pts); i++ {
			if ob.IntersectsSegment(pts[i], pts[i+1]) {
				return false
			}
		}
		return true
	}
	length := func(pts ...geometry.Point) float64 {
		l := 0.0
		for i := 0; i+1 < len(pts); i++ {
			l += geometry.Distance(pts[i], pts[i+1])
		}
		return l
	}

	var best []geometry.Point
	bestLen := math.Inf(1)
	for _, c := range corners {
		if free(a, c, b) {
			if l := length(a, c, b); l < bestLen {
				best, bestLen = []geometry.Point{c}, l
			}
		}
	}
	if best != nil {
		return best, true
	}
	for k := range corners {
		c1, c2 := corners[k], corners[(k+1)%len(corners)]
		for _, pair := range [][2]geometry.Point{{c1, c2}, {c2, c1}} {
			if free(a, pair[0], pair[1], b) {
				if l := length(a, pair[0], pair[1], b); l < bestLen {
					best, bestLen = []geometry.Point{pair[0], pair[1]}, l
				}
			}
		}
	}
	return best, best != nil
}

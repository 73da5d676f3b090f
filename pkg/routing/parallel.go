package routing

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

// DefaultParallelDistance is the default spacing between parallel edges.
const DefaultParallelDistance = 5

// OffsetParallel fans out edges that share the same source and target.
// Within each group, in edge ID order, the i-th straight route is shifted
// perpendicular to the line between the vertex centers by
// distance*(1+i/2), alternating sides, and its ends are moved back onto
// the vertex outlines. The target end is then pulled back by backStep, as
// the router did before the shift. Routes with bend points and groups of
// one edge are returned unchanged. The input map is not modified.
func OffsetParallel(routes map[graph.EdgeID][]geometry.Point, g *graph.Graph, rects map[graph.VertexID]geometry.Rect, distance, backStep float64) map[graph.EdgeID][]geometry.Point {
	out := make(map[graph.EdgeID][]geometry.Point, len(routes))
	for id, r := range routes {
		out[id] = r
	}
	if distance == 0 {
		return out
	}

	in := Input{Graph: g, Rects: rects}
	type pair struct{ src, dst graph.VertexID }
	groups := make(map[pair][]graph.EdgeID)
	var order []pair
	for _, e := range routable(g) {
		k := pair{e.Source, e.Target}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e.ID)
	}

	for _, k := range order {
		ids := groups[k]
		if len(ids) < 2 {
			continue
		}
		src, err := in.endpoint(k.src)
		if err != nil {
			continue
		}
		dst, err := in.endpoint(k.dst)
		if err != nil {
			continue
		}
		dir := r2.Sub(dst.center(), src.center())
		normal := geometry.SafeUnit(geometry.Perpendicular(dir))

		for i, id := range ids {
			route, ok := out[id]
			if !ok || len(route) != 2 {
				continue
			}
			mag := distance * float64(1+i/2)
			if i%2 == 1 {
				mag = -mag
			}
			shift := r2.Scale(mag, normal)
			start := geometry.BoundaryPoint(src.rect, src.shape, r2.Add(src.center(), shift), dir)
			end := geometry.BoundaryPoint(dst.rect, dst.shape, r2.Add(dst.center(), shift), r2.Scale(-1, dir))
			out[id] = []geometry.Point{start, geometry.BackStep(end, start, backStep)}
		}
	}
	return out
}

// BackStepOf returns the target back step the router configured by p
// applies to its routes. Only [SimpleParams] carries one.
func BackStepOf(p Params) float64 {
	switch sp := p.(type) {
	case SimpleParams:
		return sp.BackStep
	case *SimpleParams:
		if sp != nil {
			return sp.BackStep
		}
	}
	return 0
}

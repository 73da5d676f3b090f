// Package overlap separates overlapping vertex rectangles while keeping
// displacement small.
//
// Two removers are provided. [FSA] is a force-scan remover: each pass
// pushes overlapping rectangles apart along their cheaper axis, shifting
// everything after them in scan order, and recentres the result. Passes
// alternate between horizontal and vertical. [OneWay] detects overlaps the same way but only ever moves the
// later rectangle, in +x or +y, which keeps an anchored side fixed.
//
// Removers never mutate their input map. Rectangles are scanned in
// coordinate order with ties broken by vertex ID, so degenerate input
// (coincident or zero-size rectangles) resolves deterministically.
package overlap

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

// Kind names an overlap removal algorithm.
type Kind string

const (
	KindNone      Kind = "none"
	KindFSA       Kind = "fsa"
	KindOneWayFSA Kind = "oneway-fsa"
)

// Params is a parameter set of one remover.
type Params interface {
	Clone() Params
	Validate() error
}

// Remover separates overlapping rectangles.
type Remover interface {
	Compute(ctx context.Context, rects map[graph.VertexID]geometry.Rect) (*Result, error)
}

// Result holds the adjusted rectangles, keyed like the input. Sizes are
// unchanged; only positions move.
type Result struct {
	Rects      map[graph.VertexID]geometry.Rect
	Iterations int
	// Unresolved counts the pairs still closer than the gaps when the
	// iteration cap stopped the remover. It is zero after a cancelled run.
	Unresolved int
	Cancelled  bool
}

// tolerance below which an overlap counts as resolved; pushes add it so a
// resolved pair does not register again through rounding.
const tolerance = 1e-6

type item struct {
	id   graph.VertexID
	c    geometry.Point
	size geometry.Size
}

func items(rects map[graph.VertexID]geometry.Rect) []*item {
	out := make([]*item, 0, len(rects))
	for id, r := range rects {
		out = append(out, &item{id: id, c: r.Center(), size: r.Size()})
	}
	slices.SortFunc(out, func(a, b *item) int { return cmp.Compare(a.id, b.id) })
	return out
}

func collect(its []*item) map[graph.VertexID]geometry.Rect {
	out := make(map[graph.VertexID]geometry.Rect, len(its))
	for _, it := range its {
		out[it.id] = geometry.RectFromCenter(it.c, it.size)
	}
	return out
}

// sortAlong orders items by center coordinate on one axis, then by ID.
func sortAlong(its []*item, horizontal bool) {
	slices.SortStableFunc(its, func(a, b *item) int {
		av, bv := a.c.Y, b.c.Y
		if horizontal {
			av, bv = a.c.X, b.c.X
		}
		if c := cmp.Compare(av, bv); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
}

// overlaps returns how far a and b must separate on each axis to keep the
// gaps. Both values are positive exactly when the pair violates the gap.
func overlaps(a, b *item, hgap, vgap float64) (ox, oy float64) {
	ox = (a.size.Width+b.size.Width)/2 + hgap - math.Abs(a.c.X-b.c.X)
	oy = (a.size.Height+b.size.Height)/2 + vgap - math.Abs(a.c.Y-b.c.Y)
	return ox, oy
}

func maxExtent(its []*item, horizontal bool) float64 {
	m := 0.0
	for _, it := range its {
		if horizontal {
			m = math.Max(m, it.size.Width)
		} else {
			m = math.Max(m, it.size.Height)
		}
	}
	return m
}

// beyond reports whether b, and every item sorted after it, is too far
// from a along the scan axis to overlap it.
func beyond(a, b *item, horizontal bool, maxExt, gap float64) bool {
	if horizontal {
		return b.c.X-a.c.X > (a.size.Width+maxExt)/2+gap
	}
	return b.c.Y-a.c.Y > (a.size.Height+maxExt)/2+gap
}

// violations counts the pairs of its that break the gaps on both axes.
func violations(its []*item, hgap, vgap float64) int {
	sortAlong(its, true)
	maxExt := maxExtent(its, true)
	n := 0
	for i, a := range its {
		for _, b := range its[i+1:] {
			if beyond(a, b, true, maxExt, hgap) {
				break
			}
			if ox, oy := overlaps(a, b, hgap, vgap); ox > tolerance && oy > tolerance {
				n++
			}
		}
	}
	return n
}

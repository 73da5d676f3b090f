package overlap

import (
	"context"
	"math"

	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

// FSAParams configures [FSA].
type FSAParams struct {
	HorizontalGap float64 `toml:"horizontal_gap" json:"horizontal_gap"`
	VerticalGap   float64 `toml:"vertical_gap" json:"vertical_gap"`
	// MaxIterations caps the number of scan passes.
	MaxIterations int `toml:"max_iterations" json:"max_iterations"`
}

// DefaultFSAParams returns the default FSA parameters.
func DefaultFSAParams() FSAParams {
	return FSAParams{HorizontalGap: 10, VerticalGap: 10, MaxIterations: 200}
}

func (p FSAParams) Clone() Params { return p }

func (p FSAParams) Validate() error {
	return gerrors.First(
		gerrors.ValidateNonNegative("fsa.horizontal_gap", p.HorizontalGap),
		gerrors.ValidateNonNegative("fsa.vertical_gap", p.VerticalGap),
		gerrors.ValidateCount("fsa.max_iterations", p.MaxIterations),
	)
}

// FSA is the symmetric force-scan remover. Passes alternate between
// horizontal and vertical. A horizontal pass scans rectangles by center x;
// for each one it takes the largest push any later violating rectangle
// needs, among pairs whose horizontal overlap is the smaller one, and
// shifts every later rectangle in scan order by that amount. The pass then
// moves all rectangles back by their mean shift, so the layout spreads
// around its old center. Vertical passes do the same on y. Every shift
// keeps the scan order, so separations never shrink on the pass axis and a
// resolved pair stays resolved. It stops
// after a horizontal and a vertical pass in a row move nothing, or after
// MaxIterations passes.
type FSA struct {
	params FSAParams
}

// NewFSA validates p and returns an FSA remover.
func NewFSA(p FSAParams) (*FSA, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &FSA{params: p}, nil
}

func (f *FSA) Compute(ctx context.Context, rects map[graph.VertexID]geometry.Rect) (*Result, error) {
	its := items(rects)
	res := &Result{}
	quiet := 0
	for res.Iterations < f.params.MaxIterations && quiet < 2 {
		if cancelled(ctx) {
			res.Cancelled = true
			break
		}
		horizontal := res.Iterations%2 == 0
		if f.pass(its, horizontal) {
			quiet = 0
		} else {
			quiet++
		}
		res.Iterations++
	}
	if !res.Cancelled {
		res.Unresolved = violations(its, f.params.HorizontalGap, f.params.VerticalGap)
	}
	res.Rects = collect(its)
	return res, nil
}

func (f *FSA) pass(its []*item, horizontal bool) bool {
	sortAlong(its, horizontal)
	gap := f.params.VerticalGap
	if horizontal {
		gap = f.params.HorizontalGap
	}
	maxExt := maxExtent(its, horizontal)

	// total is the sum of all shifts in this pass.
	total := 0.0
	for i, a := range its {
		push := 0.0
		for _, b := range its[i+1:] {
			if beyond(a, b, horizontal, maxExt, gap) {
				break
			}
			ox, oy := overlaps(a, b, f.params.HorizontalGap, f.params.VerticalGap)
			if ox <= tolerance || oy <= tolerance {
				continue
			}
			if horizontal && ox <= oy {
				push = math.Max(push, ox+tolerance)
			} else if !horizontal && oy < ox {
				push = math.Max(push, oy+tolerance)
			}
		}
		if push == 0 {
			continue
		}
		for k := i + 1; k < len(its); k++ {
			move(its[k], horizontal, push)
			total += push
		}
	}
	if total == 0 {
		return false
	}

	mean := total / float64(len(its))
	for _, it := range its {
		move(it, horizontal, -mean)
	}
	return true
}

func move(it *item, horizontal bool, d float64) {
	if horizontal {
		it.c.X += d
	} else {
		it.c.Y += d
	}
}

func cancelled(ctx context.Context) bool { return ctx.Err() != nil }

package overlap

import (
	"context"
	"fmt"
	"strings"

	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

// Way is the only direction [OneWay] moves rectangles in.
type Way int

const (
	// WayHorizontal moves rectangles toward +x.
	WayHorizontal Way = iota
	// WayVertical moves rectangles toward +y.
	WayVertical
)

func (w Way) String() string {
	switch w {
	case WayHorizontal:
		return "horizontal"
	case WayVertical:
		return "vertical"
	}
	return fmt.Sprintf("Way(%d)", int(w))
}

func (w Way) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

func (w *Way) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "horizontal":
		*w = WayHorizontal
	case "vertical":
		*w = WayVertical
	default:
		return gerrors.New(gerrors.ErrCodeInvalidConfiguration, "unknown overlap direction %q", string(b))
	}
	return nil
}

// OneWayParams configures [OneWay].
type OneWayParams struct {
	HorizontalGap float64 `toml:"horizontal_gap" json:"horizontal_gap"`
	VerticalGap   float64 `toml:"vertical_gap" json:"vertical_gap"`
	MaxIterations int     `toml:"max_iterations" json:"max_iterations"`
	Way           Way     `toml:"way" json:"way"`
}

// DefaultOneWayParams returns the default one-way FSA parameters.
func DefaultOneWayParams() OneWayParams {
	return OneWayParams{HorizontalGap: 10, VerticalGap: 10, MaxIterations: 200, Way: WayHorizontal}
}

func (p OneWayParams) Clone() Params { return p }

func (p OneWayParams) Validate() error {
	if p.Way != WayHorizontal && p.Way != WayVertical {
		return gerrors.New(gerrors.ErrCodeInvalidConfiguration, "oneway.way must be horizontal or vertical")
	}
	return gerrors.First(
		gerrors.ValidateNonNegative("oneway.horizontal_gap", p.HorizontalGap),
		gerrors.ValidateNonNegative("oneway.vertical_gap", p.VerticalGap),
		gerrors.ValidateCount("oneway.max_iterations", p.MaxIterations),
	)
}

// OneWay is the one-directional remover. It scans rectangles along Way and,
// for every violating pair, moves only the later one (by coordinate, then
// vertex ID) forward until the gap holds. The first rectangle of the scan
// order never moves.
type OneWay struct {
	params OneWayParams
}

// NewOneWay validates p and returns a one-way remover.
func NewOneWay(p OneWayParams) (*OneWay, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &OneWay{params: p}, nil
}

func (o *OneWay) Compute(ctx context.Context, rects map[graph.VertexID]geometry.Rect) (*Result, error) {
	its := items(rects)
	horizontal := o.params.Way == WayHorizontal
	gap := o.params.VerticalGap
	if horizontal {
		gap = o.params.HorizontalGap
	}

	res := &Result{}
	for res.Iterations < o.params.MaxIterations {
		if cancelled(ctx) {
			res.Cancelled = true
			break
		}
		res.Iterations++
		if !o.pass(its, horizontal, gap) {
			break
		}
	}
	if !res.Cancelled {
		res.Unresolved = violations(its, o.params.HorizontalGap, o.params.VerticalGap)
	}
	res.Rects = collect(its)
	return res, nil
}

func (o *OneWay) pass(its []*item, horizontal bool, gap float64) bool {
	sortAlong(its, horizontal)
	maxExt := maxExtent(its, horizontal)
	moved := false
	for i, a := range its {
		for _, b := range its[i+1:] {
			if beyond(a, b, horizontal, maxExt, gap) {
				break
			}
			ox, oy := overlaps(a, b, o.params.HorizontalGap, o.params.VerticalGap)
			if ox <= tolerance || oy <= tolerance {
				continue
			}
			if horizontal {
				b.c.X += ox + tolerance
			} else {
				b.c.Y += oy + tolerance
			}
			moved = true
		}
	}
	return moved
}

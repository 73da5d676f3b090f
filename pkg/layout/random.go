package layout

import (
	"context"

	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

// RandomParams configures [Random].
type RandomParams struct {
	Width  float64 `toml:"width" json:"width"`
	Height float64 `toml:"height" json:"height"`
	// AlsoRandomizeValid re-randomizes vertices that already have a
	// position ("shuffle").
	AlsoRandomizeValid bool   `toml:"also_randomize_valid" json:"also_randomize_valid"`
	Seed               uint64 `toml:"seed" json:"seed"`
}

// DefaultRandomParams returns the default Random parameters.
func DefaultRandomParams() RandomParams {
	return RandomParams{Width: DefaultWorkArea, Height: DefaultWorkArea, Seed: 42}
}

func (p RandomParams) Clone() Params { return p }

func (p RandomParams) Validate() error {
	return gerrors.First(
		gerrors.ValidatePositive("random.width", p.Width),
		gerrors.ValidatePositive("random.height", p.Height),
	)
}

// Random places every unplaced vertex uniformly at random inside the work
// rectangle. Equal seeds and equal inputs give equal positions.
type Random struct {
	params RandomParams
}

// NewRandom validates p and returns a Random layout.
func NewRandom(p RandomParams) (*Random, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Random{params: p}, nil
}

func (r *Random) NeedsVertexSizes() bool { return false }

// NeedsOriginalPositions is false when every vertex gets re-randomized.
func (r *Random) NeedsOriginalPositions() bool { return !r.params.AlsoRandomizeValid }

func (r *Random) Compute(ctx context.Context, g *graph.Graph, pos PositionFunc, size SizeFunc) (*Result, error) {
	if err := checkCallbacks("random", r, pos, size); err != nil {
		return nil, err
	}
	if r.params.AlsoRandomizeValid {
		pos = nil
	}
	res := newResult(g.VertexCount())
	res.Positions = initialPositions(g, pos, newRand(r.params.Seed), r.params.Width, r.params.Height)
	res.Cancelled = cancelled(ctx)
	return res, nil
}

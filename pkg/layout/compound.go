package layout

import (
	"context"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

// CompoundParams configures [CompoundFDP].
type CompoundParams struct {
	IdealEdgeLength   float64 `toml:"ideal_edge_length" json:"ideal_edge_length"`
	ElasticConstant   float64 `toml:"elastic_constant" json:"elastic_constant"`
	RepulsionConstant float64 `toml:"repulsion_constant" json:"repulsion_constant"`
	// NestingFactor lengthens edges between vertices at different nesting
	// depths, per level of difference.
	NestingFactor     float64 `toml:"nesting_factor" json:"nesting_factor"`
	GravitationFactor float64 `toml:"gravitation_factor" json:"gravitation_factor"`

	Phase1Iterations int `toml:"phase1_iterations" json:"phase1_iterations"`
	Phase2Iterations int `toml:"phase2_iterations" json:"phase2_iterations"`
	Phase3Iterations int `toml:"phase3_iterations" json:"phase3_iterations"`

	Phase2TemperatureInitialMultiplier float64 `toml:"phase2_temperature_initial_multiplier" json:"phase2_temperature_initial_multiplier"`
	Phase3TemperatureInitialMultiplier float64 `toml:"phase3_temperature_initial_multiplier" json:"phase3_temperature_initial_multiplier"`
	// TemperatureDecreasing scales gravitation down from one phase to the
	// next.
	TemperatureDecreasing float64 `toml:"temperature_decreasing" json:"temperature_decreasing"`
	// TemperatureFactor cools the temperature after every iteration.
	TemperatureFactor           float64 `toml:"temperature_factor" json:"temperature_factor"`
	DisplacementLimitMultiplier float64 `toml:"displacement_limit_multiplier" json:"displacement_limit_multiplier"`
	// SeparationMultiplier times the ideal edge length is the range of the
	// repulsion between siblings.
	SeparationMultiplier float64 `toml:"separation_multiplier" json:"separation_multiplier"`
	// Padding is the margin kept between a compound vertex and its children.
	Padding float64 `toml:"padding" json:"padding"`
	Seed    uint64  `toml:"seed" json:"seed"`
}

// DefaultCompoundParams returns the default compound FDP parameters.
func DefaultCompoundParams() CompoundParams {
	return CompoundParams{
		IdealEdgeLength:                    25,
		ElasticConstant:                    0.005,
		RepulsionConstant:                  150,
		NestingFactor:                      0.2,
		GravitationFactor:                  8,
		Phase1Iterations:                   50,
		Phase2Iterations:                   70,
		Phase3Iterations:                   30,
		Phase2TemperatureInitialMultiplier: 0.5,
		Phase3TemperatureInitialMultiplier: 0.2,
		TemperatureDecreasing:              0.5,
		TemperatureFactor:                  0.95,
		DisplacementLimitMultiplier:        0.5,
		SeparationMultiplier:               15,
		Padding:                            10,
		Seed:                               42,
	}
}

func (p CompoundParams) Clone() Params { return p }

func (p CompoundParams) Validate() error {
	return gerrors.First(
		gerrors.ValidatePositive("compound.ideal_edge_length", p.IdealEdgeLength),
		gerrors.ValidateNonNegative("compound.elastic_constant", p.ElasticConstant),
		gerrors.ValidateNonNegative("compound.repulsion_constant", p.RepulsionConstant),
		gerrors.ValidateNonNegative("compound.nesting_factor", p.NestingFactor),
		gerrors.ValidateNonNegative("compound.gravitation_factor", p.GravitationFactor),
		gerrors.ValidateCount("compound.phase1_iterations", p.Phase1Iterations),
		gerrors.ValidateCount("compound.phase2_iterations", p.Phase2Iterations),
		gerrors.ValidateCount("compound.phase3_iterations", p.Phase3Iterations),
		gerrors.ValidateRange("compound.phase2_temperature_initial_multiplier", p.Phase2TemperatureInitialMultiplier, 0, 1),
		gerrors.ValidateRange("compound.phase3_temperature_initial_multiplier", p.Phase3TemperatureInitialMultiplier, 0, 1),
		gerrors.ValidateRange("compound.temperature_decreasing", p.TemperatureDecreasing, 0, 1),
		gerrors.ValidateRange("compound.temperature_factor", p.TemperatureFactor, 0, 1),
		gerrors.ValidatePositive("compound.displacement_limit_multiplier", p.DisplacementLimitMultiplier),
		gerrors.ValidatePositive("compound.separation_multiplier", p.SeparationMultiplier),
		gerrors.ValidateNonNegative("compound.padding", p.Padding),
	)
}

// CompoundFDP is a force-directed layout for nested graphs, where the
// parent relation of the graph ([graph.Graph.SetParent]) groups vertices
// inside compound vertices.
//
// Only leaves are simulated. A compound vertex moves as the rigid group of
// its leaves and sits at the center of their bounding box. Each iteration
// applies:
//
//   - springs along edges, lengthened by NestingFactor per level of nesting
//     depth difference between the endpoints
//   - size-aware repulsion between siblings closer than the separation range
//   - gravitation of each sibling group toward its barycenter (top level:
//     toward the origin)
//
// The run has three phases with decreasing initial temperature; the step
// limit follows the temperature.
type CompoundFDP struct {
	params CompoundParams
}

// NewCompoundFDP validates p and returns a compound layout.
func NewCompoundFDP(p CompoundParams) (*CompoundFDP, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &CompoundFDP{params: p}, nil
}

func (c *CompoundFDP) NeedsVertexSizes() bool       { return true }
func (c *CompoundFDP) NeedsOriginalPositions() bool { return true }

type fdpState struct {
	g      *graph.Graph
	leaves []graph.VertexID
	pos    map[graph.VertexID]geometry.Point
	sizes  map[graph.VertexID]geometry.Size
	// under maps every vertex to the leaves it contains (itself for a leaf).
	under map[graph.VertexID][]graph.VertexID
}

func (c *CompoundFDP) Compute(ctx context.Context, g *graph.Graph, pos PositionFunc, size SizeFunc) (*Result, error) {
	if err := checkCallbacks("compound-fdp", c, pos, size); err != nil {
		return nil, err
	}
	p := c.params
	side := p.IdealEdgeLength * 2 * math.Ceil(math.Sqrt(float64(g.VertexCount())+1))
	start := initialPositions(g, pos, newRand(p.Seed), side, side)
	st := &fdpState{
		g:     g,
		pos:   make(map[graph.VertexID]geometry.Point, len(start)),
		sizes: vertexSizes(g, size),
		under: make(map[graph.VertexID][]graph.VertexID),
	}
	for _, id := range g.VertexIDs() {
		if !g.IsCompound(id) {
			st.leaves = append(st.leaves, id)
			st.pos[id] = start[id]
		}
	}
	for _, id := range g.VertexIDs() {
		st.under[id] = collectLeaves(g, id)
	}

	res := newResult(len(start))
	phases := []struct {
		iterations int
		temp       float64
		gravity    float64
	}{
		{p.Phase1Iterations, 1, 1},
		{p.Phase2Iterations, p.Phase2TemperatureInitialMultiplier, p.TemperatureDecreasing},
		{p.Phase3Iterations, p.Phase3TemperatureInitialMultiplier, p.TemperatureDecreasing * p.TemperatureDecreasing},
	}
run:
	for _, ph := range phases {
		temp := ph.temp
		for range ph.iterations {
			if cancelled(ctx) {
				res.Cancelled = true
				break run
			}
			c.step(st, temp, ph.gravity)
			temp *= p.TemperatureFactor
		}
	}

	for _, id := range st.leaves {
		res.Positions[id] = st.pos[id]
	}
	res.Sizes = make(map[graph.VertexID]geometry.Size)
	for _, id := range g.VertexIDs() {
		if !g.IsCompound(id) {
			continue
		}
		b := st.bounds(id).Inflate(p.Padding, p.Padding)
		res.Positions[id] = b.Center()
		res.Sizes[id] = b.Size()
	}
	sanitize(res.Positions, start)
	return res, nil
}

func collectLeaves(g *graph.Graph, id graph.VertexID) []graph.VertexID {
	children := g.Children(id)
	if len(children) == 0 {
		return []graph.VertexID{id}
	}
	var out []graph.VertexID
	for _, ch := range children {
		out = append(out, collectLeaves(g, ch)...)
	}
	return out
}

// bounds is the bounding box of the leaves under id.
func (st *fdpState) bounds(id graph.VertexID) geometry.Rect {
	leaves := st.under[id]
	rects := make([]geometry.Rect, len(leaves))
	for i, l := range leaves {
		rects[i] = geometry.RectFromCenter(st.pos[l], st.sizes[l])
	}
	return geometry.Bounds(rects)
}

// unit returns the center and half-diagonal of a vertex, which for a
// compound vertex is derived from its leaves.
func (st *fdpState) unit(id graph.VertexID) (geometry.Point, float64) {
	if len(st.under[id]) == 1 && st.under[id][0] == id {
		s := st.sizes[id]
		return st.pos[id], math.Hypot(s.Width, s.Height) / 2
	}
	b := st.bounds(id)
	return b.Center(), math.Hypot(b.Width, b.Height) / 2
}

// push adds f to every leaf under id, so compound vertices move rigidly.
func (st *fdpState) push(forces map[graph.VertexID]geometry.Point, id graph.VertexID, f geometry.Point) {
	for _, l := range st.under[id] {
		forces[l] = r2.Add(forces[l], f)
	}
}

func (c *CompoundFDP) step(st *fdpState, temp, gravity float64) {
	p := c.params
	g := st.g
	forces := make(map[graph.VertexID]geometry.Point, len(st.leaves))

	for _, e := range g.Edges() {
		if e.IsSelfLoop() {
			continue
		}
		ps, _ := st.unit(e.Source)
		pt, _ := st.unit(e.Target)
		depthDiff := math.Abs(float64(g.Depth(e.Source) - g.Depth(e.Target)))
		ideal := p.IdealEdgeLength * (1 + p.NestingFactor*depthDiff)
		delta := r2.Sub(pt, ps)
		d := r2.Norm(delta)
		f := r2.Scale(p.ElasticConstant*(d-ideal), geometry.SafeUnit(delta))
		st.push(forces, e.Source, f)
		st.push(forces, e.Target, r2.Scale(-1, f))
	}

	groups := append([]graph.VertexID{graph.NoVertex}, g.VertexIDs()...)
	for _, parent := range groups {
		siblings := g.Children(parent)
		if len(siblings) == 0 {
			continue
		}
		centers := make([]geometry.Point, len(siblings))
		radii := make([]float64, len(siblings))
		var bary geometry.Point
		for i, id := range siblings {
			centers[i], radii[i] = st.unit(id)
			bary = r2.Add(bary, centers[i])
		}
		bary = r2.Scale(1/float64(len(siblings)), bary)
		if parent == graph.NoVertex {
			bary = geometry.Point{}
		}

		for i := range siblings {
			for j := i + 1; j < len(siblings); j++ {
				delta := r2.Sub(centers[i], centers[j])
				gap := r2.Norm(delta) - radii[i] - radii[j]
				if gap > p.SeparationMultiplier*p.IdealEdgeLength {
					continue
				}
				gap = math.Max(gap, p.IdealEdgeLength/10)
				dir := geometry.SafeUnit(delta)
				if r2.Norm(delta) < geometry.Epsilon {
					dir = coincidentDirection(i, j, len(siblings))
				}
				f := r2.Scale(p.RepulsionConstant/(gap*gap), dir)
				st.push(forces, siblings[i], f)
				st.push(forces, siblings[j], r2.Scale(-1, f))
			}
			pull := r2.Sub(bary, centers[i])
			st.push(forces, siblings[i], r2.Scale(p.GravitationFactor*p.ElasticConstant*gravity/float64(len(siblings)), pull))
		}
	}

	limit := p.DisplacementLimitMultiplier * p.IdealEdgeLength * temp
	for _, id := range st.leaves {
		move := r2.Scale(p.IdealEdgeLength, forces[id])
		if d := r2.Norm(move); d > limit {
			move = r2.Scale(limit/d, move)
		}
		st.pos[id] = r2.Add(st.pos[id], move)
	}
}

// coincidentDirection spreads units sharing a center deterministically.
func coincidentDirection(i, j, n int) geometry.Point {
	angle := 2 * math.Pi * float64(i*n+j) / float64(n*n)
	return geometry.Pt(math.Cos(angle), math.Sin(angle))
}

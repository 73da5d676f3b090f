package layout

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"

	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

// KKParams configures [KK].
type KKParams struct {
	Width         float64 `toml:"width" json:"width"`
	Height        float64 `toml:"height" json:"height"`
	MaxIterations int     `toml:"max_iterations" json:"max_iterations"`
	// K scales both the spring and the repulsion forces.
	K                float64 `toml:"k" json:"k"`
	AdjustForGravity bool    `toml:"adjust_for_gravity" json:"adjust_for_gravity"`
	ExchangeVertices bool    `toml:"exchange_vertices" json:"exchange_vertices"`
	// LengthFactor multiplies the ideal edge length derived from the box
	// size and the graph diameter.
	LengthFactor float64 `toml:"length_factor" json:"length_factor"`
	// DisconnectedMultiplier sets the graph distance assumed between
	// vertices of different components, as a fraction of the diameter.
	DisconnectedMultiplier float64 `toml:"disconnected_multiplier" json:"disconnected_multiplier"`
	ConvergenceThreshold   float64 `toml:"convergence_threshold" json:"convergence_threshold"`
	Parallel               bool    `toml:"parallel" json:"parallel"`
	Seed                   uint64  `toml:"seed" json:"seed"`
}

// DefaultKKParams returns the default KK parameters.
func DefaultKKParams() KKParams {
	return KKParams{
		Width:                  300,
		Height:                 300,
		MaxIterations:          200,
		K:                      1,
		AdjustForGravity:       true,
		ExchangeVertices:       false,
		LengthFactor:           1,
		DisconnectedMultiplier: 0.5,
		ConvergenceThreshold:   0.1,
		Parallel:               true,
		Seed:                   42,
	}
}

func (p KKParams) Clone() Params { return p }

func (p KKParams) Validate() error {
	return gerrors.First(
		gerrors.ValidatePositive("kk.width", p.Width),
		gerrors.ValidatePositive("kk.height", p.Height),
		gerrors.ValidateCount("kk.max_iterations", p.MaxIterations),
		gerrors.ValidatePositive("kk.k", p.K),
		gerrors.ValidatePositive("kk.length_factor", p.LengthFactor),
		gerrors.ValidateNonNegative("kk.disconnected_multiplier", p.DisconnectedMultiplier),
		gerrors.ValidateNonNegative("kk.convergence_threshold", p.ConvergenceThreshold),
	)
}

// KK is a force-directed layout in the Kamada-Kawai family. Every vertex
// pair repels with a force inversely proportional to its distance, and every
// edge pulls its endpoints toward the ideal length. Steps are limited by a
// linearly cooling temperature. The run ends after MaxIterations, once the
// largest step falls below ConvergenceThreshold, or on cancellation.
//
// With ExchangeVertices set, periodic passes swap vertex pairs whenever the
// swap lowers the Kamada-Kawai stress energy.
type KK struct {
	params KKParams
}

// NewKK validates p and returns a KK layout.
func NewKK(p KKParams) (*KK, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &KK{params: p}, nil
}

func (k *KK) NeedsVertexSizes() bool       { return false }
func (k *KK) NeedsOriginalPositions() bool { return true }

// exchangeEvery is the number of force iterations between exchange passes.
const exchangeEvery = 25

type kkState struct {
	ids   []graph.VertexID
	pos   []geometry.Point
	dist  [][]float64 // graph distances
	edges [][2]int
	adj   [][]int
	ideal float64
}

func (k *KK) Compute(ctx context.Context, g *graph.Graph, pos PositionFunc, size SizeFunc) (*Result, error) {
	if err := checkCallbacks("kk", k, pos, size); err != nil {
		return nil, err
	}
	p := k.params
	start := initialPositions(g, pos, newRand(p.Seed), p.Width, p.Height)
	res := newResult(len(start))
	if len(start) < 2 {
		res.Positions = start
		return res, nil
	}

	st := k.prepare(g, start)
	n := len(st.ids)
	temp0 := math.Min(p.Width, p.Height) / 10
	forces := make([]geometry.Point, n)

	for iter := 0; iter < p.MaxIterations; iter++ {
		if cancelled(ctx) {
			res.Cancelled = true
			break
		}
		if err := k.accumulate(ctx, st, forces); err != nil {
			res.Cancelled = true
			break
		}

		temp := temp0 * (1 - float64(iter)/float64(p.MaxIterations))
		maxStep := 0.0
		for i := range n {
			step := forces[i]
			if d := r2.Norm(step); d > temp {
				step = r2.Scale(temp/d, step)
			}
			st.pos[i] = r2.Add(st.pos[i], step)
			maxStep = math.Max(maxStep, r2.Norm(step))
		}

		if p.ExchangeVertices && (iter+1)%exchangeEvery == 0 {
			k.exchange(ctx, st)
		}
		if maxStep < p.ConvergenceThreshold {
			break
		}
	}

	if p.AdjustForGravity {
		recenter(st.pos, geometry.Pt(p.Width/2, p.Height/2))
	}
	for i, id := range st.ids {
		res.Positions[id] = st.pos[i]
	}
	sanitize(res.Positions, start)
	return res, nil
}

func (k *KK) prepare(g *graph.Graph, start map[graph.VertexID]geometry.Point) *kkState {
	ids := g.VertexIDs()
	index := make(map[graph.VertexID]int, len(ids))
	st := &kkState{ids: ids, pos: make([]geometry.Point, len(ids))}
	for i, id := range ids {
		index[id] = i
		st.pos[i] = start[id]
	}

	dm := g.ShortestPaths()
	dia := dm.Diameter()
	if dia == 0 {
		dia = 1
	}
	unreachable := math.Max(1, dia*k.params.DisconnectedMultiplier)
	st.ideal = math.Min(k.params.Width, k.params.Height) / dia * k.params.LengthFactor

	st.dist = make([][]float64, len(ids))
	for i, a := range ids {
		st.dist[i] = make([]float64, len(ids))
		for j, b := range ids {
			if i == j {
				continue
			}
			d := dm.At(a, b)
			if math.IsInf(d, 0) {
				d = unreachable
			}
			st.dist[i][j] = d
		}
	}

	seen := make(map[[2]int]bool)
	for _, e := range g.Edges() {
		if e.IsSelfLoop() {
			continue
		}
		a, b := index[e.Source], index[e.Target]
		if a > b {
			a, b = b, a
		}
		if !seen[[2]int{a, b}] {
			seen[[2]int{a, b}] = true
			st.edges = append(st.edges, [2]int{a, b})
		}
	}
	st.adj = make([][]int, len(ids))
	for _, e := range st.edges {
		st.adj[e[0]] = append(st.adj[e[0]], e[1])
		st.adj[e[1]] = append(st.adj[e[1]], e[0])
	}
	return st
}

// accumulate computes the net force on every vertex from a snapshot of the
// current positions. Rows are split across workers when Parallel is set;
// each worker only writes its own rows.
func (k *KK) accumulate(ctx context.Context, st *kkState, forces []geometry.Point) error {
	n := len(st.pos)
	snapshot := append([]geometry.Point(nil), st.pos...)
	work := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			forces[i] = k.force(st, snapshot, st.adj[i], i)
		}
	}

	if !k.params.Parallel || n < 64 {
		work(0, n)
		return nil
	}
	workers := runtime.GOMAXPROCS(0)
	chunk := (n + workers - 1) / workers
	eg, egCtx := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			work(lo, hi)
			return nil
		})
	}
	return eg.Wait()
}

func (k *KK) force(st *kkState, snapshot []geometry.Point, neighbors []int, i int) geometry.Point {
	n := len(snapshot)
	l := st.ideal
	var f geometry.Point
	for j := range n {
		if j == i {
			continue
		}
		dir, d := separation(snapshot, i, j)
		f = r2.Add(f, r2.Scale(k.params.K*l*l/math.Max(d, 0.01)/float64(n), dir))
	}
	for _, j := range neighbors {
		dir, d := separation(snapshot, i, j)
		f = r2.Sub(f, r2.Scale(k.params.K*(d-l)/2, dir))
	}
	return f
}

// separation returns the unit vector pointing from j to i and the distance
// between them. Coincident vertices get a direction derived from their
// indices, opposite for i and j.
func separation(pos []geometry.Point, i, j int) (geometry.Point, float64) {
	delta := r2.Sub(pos[i], pos[j])
	d := r2.Norm(delta)
	if d >= geometry.Epsilon {
		return r2.Scale(1/d, delta), d
	}
	lo, hi := min(i, j), max(i, j)
	angle := 2 * math.Pi * float64(lo*31+hi) / float64(len(pos)*32)
	dir := geometry.Pt(math.Cos(angle), math.Sin(angle))
	if i > j {
		dir = r2.Scale(-1, dir)
	}
	return dir, d
}

// exchange tries every vertex pair once and swaps positions whenever that
// lowers the stress energy.
func (k *KK) exchange(ctx context.Context, st *kkState) {
	n := len(st.pos)
	for i := range n {
		if cancelled(ctx) {
			return
		}
		for j := i + 1; j < n; j++ {
			if k.swapDelta(st, i, j) < -1e-9 {
				st.pos[i], st.pos[j] = st.pos[j], st.pos[i]
			}
		}
	}
}

// swapDelta returns the change of the stress energy
// sum k_ij (|p_i - p_j| - L d_ij)^2 if i and j swapped positions.
func (k *KK) swapDelta(st *kkState, i, j int) float64 {
	term := func(a int, pa geometry.Point, m int) float64 {
		d := st.dist[a][m]
		w := k.params.K / (d * d)
		diff := geometry.Distance(pa, st.pos[m]) - st.ideal*d
		return w * diff * diff
	}
	pi, pj := st.pos[i], st.pos[j]
	delta := 0.0
	for m := range st.pos {
		if m == i || m == j {
			continue
		}
		delta += term(i, pj, m) + term(j, pi, m) - term(i, pi, m) - term(j, pj, m)
	}
	return delta
}

// recenter translates all points so their barycenter lies on c.
func recenter(pts []geometry.Point, c geometry.Point) {
	if len(pts) == 0 {
		return
	}
	var sum geometry.Point
	for _, p := range pts {
		sum = r2.Add(sum, p)
	}
	shift := r2.Sub(c, r2.Scale(1/float64(len(pts)), sum))
	for i := range pts {
		pts[i] = r2.Add(pts[i], shift)
	}
}

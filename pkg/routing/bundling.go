package routing

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"

	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/geometry"
)

// BundlingParams configures [Bundling].
type BundlingParams struct {
	// SubdivisionPoints is the number of movable points per edge.
	SubdivisionPoints int `toml:"subdivision_points" json:"subdivision_points"`
	Iterations        int `toml:"iterations" json:"iterations"`
	// SpringConstant is the stiffness holding the points of one edge
	// together.
	SpringConstant float64 `toml:"spring_constant" json:"spring_constant"`
	// Threshold is the compatibility at or above which two edges attract.
	Threshold float64 `toml:"threshold" json:"threshold"`
	// RepulsionCoefficient weights the force between incompatible edges.
	// Negative values push them apart.
	RepulsionCoefficient float64 `toml:"repulsion_coefficient" json:"repulsion_coefficient"`
	// Straightening blends the bundled points back toward the straight line,
	// 0 keeps the bundles, 1 undoes them.
	Straightening float64 `toml:"straightening" json:"straightening"`
	UseThreading  bool    `toml:"use_threading" json:"use_threading"`
}

// DefaultBundlingParams returns the default bundling parameters.
func DefaultBundlingParams() BundlingParams {
	return BundlingParams{
		SubdivisionPoints:    15,
		Iterations:           250,
		SpringConstant:       10,
		Threshold:            0.2,
		RepulsionCoefficient: -0.1,
		Straightening:        0.15,
		UseThreading:         true,
	}
}

func (p BundlingParams) Clone() Params { return p }

func (p BundlingParams) Validate() error {
	return gerrors.First(
		gerrors.ValidateCount("bundling.subdivision_points", p.SubdivisionPoints),
		gerrors.ValidateCount("bundling.iterations", p.Iterations),
		gerrors.ValidateNonNegative("bundling.spring_constant", p.SpringConstant),
		gerrors.ValidateRange("bundling.threshold", p.Threshold, 0, 1),
		gerrors.ValidateFinite("bundling.repulsion_coefficient", p.RepulsionCoefficient),
		gerrors.ValidateRange("bundling.straightening", p.Straightening, 0, 1),
	)
}

// Bundling is force-directed edge bundling. Every edge is split into
// SubdivisionPoints movable points held together by springs. Points of
// compatible edges (similar angle, length and position) attract each other,
// incompatible ones are weighted by RepulsionCoefficient. Each iteration
// moves all points from a snapshot of the previous one with a linearly
// shrinking step.
//
// Every edge takes part in the forces on every other edge, so a single edge
// cannot be re-routed alone. Bundling does not implement
// [IncrementalRouter].
type Bundling struct {
	params BundlingParams
}

// NewBundling validates p and returns a bundling router.
func NewBundling(p BundlingParams) (*Bundling, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Bundling{params: p}, nil
}

func (b *Bundling) Incremental() bool { return false }

type bundleEdge struct {
	src, dst endpoint
	p0, p1   geometry.Point
	length   float64
	pts      []geometry.Point // movable points only
}

func (b *Bundling) Compute(ctx context.Context, in Input) (*Result, error) {
	edges := routable(in.Graph)
	res := newResult(len(edges))
	if len(edges) == 0 {
		return res, nil
	}

	n := b.params.SubdivisionPoints
	bes := make([]*bundleEdge, len(edges))
	moving := false
	for i, e := range edges {
		src, dst, err := in.ends(e)
		if err != nil {
			return nil, err
		}
		be := &bundleEdge{src: src, dst: dst, p0: src.center(), p1: dst.center()}
		be.length = geometry.Distance(be.p0, be.p1)
		be.pts = make([]geometry.Point, n)
		for k := range n {
			be.pts[k] = geometry.Lerp(be.p0, be.p1, float64(k+1)/float64(n+1))
		}
		bes[i] = be
		moving = moving || be.length >= geometry.Epsilon
	}

	if n > 0 && moving {
		weights := b.weights(bes)
		for iter := 0; iter < b.params.Iterations; iter++ {
			if cancelled(ctx) {
				res.Cancelled = true
				break
			}
			step := 0.1 * (1 - float64(iter)/float64(b.params.Iterations))
			if err := b.iterate(ctx, bes, weights, step); err != nil {
				res.Cancelled = true
				break
			}
		}
	}

	for i, e := range edges {
		res.Routes[e.ID] = b.route(bes[i])
	}
	return res, nil
}

// weights returns the signed pairwise force weights.
func (b *Bundling) weights(bes []*bundleEdge) [][]float64 {
	w := make([][]float64, len(bes))
	for i := range bes {
		w[i] = make([]float64, len(bes))
	}
	for i := range bes {
		for j := i + 1; j < len(bes); j++ {
			c := compatibility(bes[i], bes[j])
			v := c
			if c < b.params.Threshold {
				v = b.params.RepulsionCoefficient * c
			}
			w[i][j], w[j][i] = v, v
		}
	}
	return w
}

// compatibility is the product of the angle, scale and position
// compatibility of two edges, in [0, 1].
func compatibility(p, q *bundleEdge) float64 {
	if p.length < geometry.Epsilon || q.length < geometry.Epsilon {
		return 0
	}
	vp, vq := r2.Sub(p.p1, p.p0), r2.Sub(q.p1, q.p0)
	angle := math.Abs(r2.Dot(vp, vq)) / (p.length * q.length)

	avg := (p.length + q.length) / 2
	lo, hi := math.Min(p.length, q.length), math.Max(p.length, q.length)
	scale := 2 / (avg/lo + hi/avg)

	mp := geometry.Lerp(p.p0, p.p1, 0.5)
	mq := geometry.Lerp(q.p0, q.p1, 0.5)
	position := avg / (avg + geometry.Distance(mp, mq))

	return angle * scale * position
}

// iterate moves every point once. New positions are computed from a
// snapshot, so edges can be processed concurrently.
func (b *Bundling) iterate(ctx context.Context, bes []*bundleEdge, weights [][]float64, step float64) error {
	snapshot := make([][]geometry.Point, len(bes))
	for i, be := range bes {
		snapshot[i] = append([]geometry.Point(nil), be.pts...)
	}
	work := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			b.move(bes, snapshot, weights[i], i, step)
		}
	}

	if !b.params.UseThreading || len(bes) < 16 {
		work(0, len(bes))
		return nil
	}
	workers := runtime.GOMAXPROCS(0)
	chunk := (len(bes) + workers - 1) / workers
	eg, egCtx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(bes); lo += chunk {
		hi := min(lo+chunk, len(bes))
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

// move updates the points of edge i. It only writes bes[i]. The step is a
// fraction of the edge's own segment length, so short and long edges settle
// at the same rate.
func (b *Bundling) move(bes []*bundleEdge, snapshot [][]geometry.Point, w []float64, i int, step float64) {
	be := bes[i]
	if be.length < geometry.Epsilon {
		return
	}
	n := len(be.pts)
	seg := be.length / float64(n+1)
	kp := b.params.SpringConstant / float64(n+1)
	cur := snapshot[i]
	dir := r2.Sub(be.p1, be.p0)

	for k := range n {
		prev, next := be.p0, be.p1
		if k > 0 {
			prev = cur[k-1]
		}
		if k < n-1 {
			next = cur[k+1]
		}
		spring := r2.Scale(kp/seg, r2.Sub(r2.Add(prev, next), r2.Scale(2, cur[k])))

		var electro geometry.Point
		total := 0.0
		for j, wj := range w {
			if j == i || wj == 0 {
				continue
			}
			other := bes[j]
			idx := k
			if r2.Dot(dir, r2.Sub(other.p1, other.p0)) < 0 {
				idx = n - 1 - k
			}
			d := r2.Sub(snapshot[j][idx], cur[k])
			dist := r2.Norm(d)
			if dist < geometry.Epsilon {
				continue
			}
			electro = r2.Add(electro, r2.Scale(wj/dist, d))
			total += math.Abs(wj)
		}
		if total > 1 {
			electro = r2.Scale(1/total, electro)
		}
		be.pts[k] = r2.Add(cur[k], r2.Scale(step*seg, r2.Add(spring, electro)))
	}
}

// route straightens the bundled points and clips the result to the two
// endpoint outlines.
func (b *Bundling) route(be *bundleEdge) []geometry.Point {
	n := len(be.pts)
	s := b.params.Straightening
	var waypoints []geometry.Point
	for k, p := range be.pts {
		straight := geometry.Lerp(be.p0, be.p1, float64(k+1)/float64(n+1))
		q := geometry.Lerp(p, straight, s)
		if be.src.rect.Contains(q) || be.dst.rect.Contains(q) {
			continue
		}
		waypoints = append(waypoints, q)
	}
	return attach(be.src, be.dst, geometry.Simplify(waypoints, 1e-9), 0)
}

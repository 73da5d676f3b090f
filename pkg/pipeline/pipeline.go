// Package pipeline runs the layout pipeline: measure vertex sizes, compute a
// layout, remove overlaps and route edges.
//
// # Architecture
//
// A run moves through a fixed sequence of states:
//
//	Idle → MeasuringSizes → LayoutRunning → OverlapRunning → RoutingRunning → Idle
//
// Overlap removal and routing are skipped when their kind is "none". Each
// stage reads the graph and produces an output map; only the [Runner]
// writes results back, through its [Dispatcher], at the end of each stage.
// Cancelling a run stops the current stage at its next checkpoint; stages
// that already finished stay committed.
//
// Algorithms are looked up in a [Registry] by kind, so new algorithms can be
// added without touching the runner.
//
// # Usage
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	res, err := runner.Run(ctx, g, pipeline.Options{
//	    Layout:  layout.KindSugiyama,
//	    Overlap: overlap.KindFSA,
//	    Routing: routing.KindSimple,
//	})
//
// Runs can also be started in the background:
//
//	run, err := runner.Start(ctx, g, opts)
//	// ...
//	run.Cancel()
//	res, err := run.Wait()
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphlayout/pkg/cache"
	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/layout"
	"github.com/matzehuels/graphlayout/pkg/overlap"
	"github.com/matzehuels/graphlayout/pkg/routing"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Config
// =============================================================================

const (
	DefaultLayout  = layout.KindKK
	DefaultOverlap = overlap.KindFSA
	DefaultRouting = routing.KindSimple

	// DefaultParallelDistance separates the routes of parallel edges.
	DefaultParallelDistance = routing.DefaultParallelDistance
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// ParallelEdges controls the offset applied to edges sharing both endpoints.
type ParallelEdges struct {
	Enabled  bool    `json:"enabled" toml:"enabled"`
	Distance float64 `json:"distance,omitempty" toml:"distance"`
}

// Options selects the algorithm of every stage and its parameters. Nil
// parameters mean the registry defaults for the kind.
type Options struct {
	Layout        layout.Kind
	LayoutParams  layout.Params
	Overlap       overlap.Kind
	OverlapParams overlap.Params
	Routing       routing.Kind
	RoutingParams routing.Params

	ParallelEdges ParallelEdges
	// SelfLoop shapes self-loop glyphs. Nil means the defaults.
	SelfLoop *geometry.SelfLoopParams

	// UseCache looks results up in the runner's cache before computing.
	UseCache bool

	// Runtime options (not serialized)
	Logger *log.Logger

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults fills empty kinds and parameters from reg and
// validates every parameter set. A nil reg means DefaultRegistry. The
// method is idempotent.
func (o *Options) ValidateAndSetDefaults(reg *Registry) error {
	if o.validated {
		return nil
	}
	if reg == nil {
		reg = DefaultRegistry()
	}
	if o.Layout == "" {
		o.Layout = DefaultLayout
	}
	if o.Overlap == "" {
		o.Overlap = DefaultOverlap
	}
	if o.Routing == "" {
		o.Routing = DefaultRouting
	}

	if o.Layout != layout.KindNone {
		f, err := reg.Layout(o.Layout)
		if err != nil {
			return err
		}
		if o.LayoutParams == nil {
			o.LayoutParams = f.Defaults()
		}
		if err := o.LayoutParams.Validate(); err != nil {
			return err
		}
	}
	if o.Overlap != overlap.KindNone {
		f, err := reg.Overlap(o.Overlap)
		if err != nil {
			return err
		}
		if o.OverlapParams == nil {
			o.OverlapParams = f.Defaults()
		}
		if err := o.OverlapParams.Validate(); err != nil {
			return err
		}
	}
	if o.Routing != routing.KindNone {
		f, err := reg.Routing(o.Routing)
		if err != nil {
			return err
		}
		if o.RoutingParams == nil {
			o.RoutingParams = f.Defaults()
		}
		if err := o.RoutingParams.Validate(); err != nil {
			return err
		}
	}

	if o.ParallelEdges.Distance == 0 {
		o.ParallelEdges.Distance = DefaultParallelDistance
	}
	if err := gerrors.ValidatePositive("parallel_edges.distance", o.ParallelEdges.Distance); err != nil {
		return err
	}
	if o.SelfLoop == nil {
		sl := geometry.DefaultSelfLoopParams()
		o.SelfLoop = &sl
	}
	if err := gerrors.ValidatePositive("self_loop.radius", o.SelfLoop.Radius); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Clone returns a copy with every parameter set deep-copied, so a run never
// observes edits the caller makes after starting it.
func (o Options) Clone() Options {
	c := o
	if o.LayoutParams != nil {
		c.LayoutParams = o.LayoutParams.Clone()
	}
	if o.OverlapParams != nil {
		c.OverlapParams = o.OverlapParams.Clone()
	}
	if o.RoutingParams != nil {
		c.RoutingParams = o.RoutingParams.Clone()
	}
	if o.SelfLoop != nil {
		sl := *o.SelfLoop
		c.SelfLoop = &sl
	}
	return c
}

// ResultKeyOpts returns the cache key options for o.
func (o *Options) ResultKeyOpts() cache.ResultKeyOpts {
	return cache.ResultKeyOpts{
		Layout:           string(o.Layout),
		LayoutParams:     o.LayoutParams,
		Overlap:          string(o.Overlap),
		OverlapParams:    o.OverlapParams,
		Routing:          string(o.Routing),
		RoutingParams:    o.RoutingParams,
		ParallelEdges:    o.ParallelEdges.Enabled,
		ParallelDistance: o.ParallelEdges.Distance,
		SelfLoop:         o.SelfLoop,
	}
}

// =============================================================================
// Result
// =============================================================================

// Result is the output of a pipeline run.
type Result struct {
	RunID string `json:"run_id"`

	// Positions holds the final vertex centers.
	Positions map[graph.VertexID]geometry.Point `json:"positions"`
	// Rectangles holds the final vertex boxes.
	Rectangles map[graph.VertexID]geometry.Rect `json:"rectangles"`
	// Sizes holds sizes derived by the layout, e.g. grown compound vertices.
	Sizes map[graph.VertexID]geometry.Size `json:"sizes,omitempty"`

	// Routes holds full edge polylines from the router.
	Routes map[graph.EdgeID][]geometry.Point `json:"routes,omitempty"`
	// BendPoints holds the bend points of layered layouts.
	BendPoints map[graph.EdgeID][]geometry.Point `json:"bend_points,omitempty"`
	SelfLoops  map[graph.EdgeID]geometry.SelfLoop `json:"self_loops,omitempty"`
	// Reversed lists edges a layered layout reversed to break cycles.
	Reversed []graph.EdgeID    `json:"reversed,omitempty"`
	Warnings []routing.Warning `json:"warnings,omitempty"`

	Stats     Stats `json:"stats"`
	Cancelled bool  `json:"cancelled"`
	CacheHit  bool  `json:"cache_hit"`
}

// Stats contains run timings and sizes.
type Stats struct {
	VertexCount       int           `json:"vertex_count"`
	EdgeCount         int           `json:"edge_count"`
	MeasureTime       time.Duration `json:"measure_time"`
	LayoutTime        time.Duration `json:"layout_time"`
	OverlapTime       time.Duration `json:"overlap_time"`
	OverlapIterations int           `json:"overlap_iterations"`
	OverlapUnresolved int           `json:"overlap_unresolved,omitempty"`
	RoutingTime       time.Duration `json:"routing_time"`
	TotalTime         time.Duration `json:"total_time"`
}

// Layout exports the geometry committed to g, tagged with the run ID and
// the routing warnings. g must be the graph the run was started on.
func (r *Result) Layout(g *graph.Graph, selfLoop *geometry.SelfLoopParams) graph.Layout {
	l := graph.ExportLayout(g, selfLoop)
	l.RunID = r.RunID
	for _, w := range r.Warnings {
		l.Warnings = append(l.Warnings, w.String())
	}
	return l
}

func newResult(runID string) *Result {
	return &Result{
		RunID:      runID,
		Positions:  make(map[graph.VertexID]geometry.Point),
		Rectangles: make(map[graph.VertexID]geometry.Rect),
		Routes:     make(map[graph.EdgeID][]geometry.Point),
		BendPoints: make(map[graph.EdgeID][]geometry.Point),
		SelfLoops:  make(map[graph.EdgeID]geometry.SelfLoop),
	}
}

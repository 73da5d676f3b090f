package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/graphlayout/pkg/cache"
	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/layout"
	"github.com/matzehuels/graphlayout/pkg/observability"
	"github.com/matzehuels/graphlayout/pkg/overlap"
	"github.com/matzehuels/graphlayout/pkg/routing"
)

// Runner executes pipeline runs and commits their results.
//
// A Runner allows one run per graph at a time: starting a run on a graph
// that already has one in flight cancels and awaits the old run first.
// Runs on different graphs proceed independently, so one Runner can serve
// many callers. The graph must not be structurally modified while a run on
// it is active.
type Runner struct {
	Registry   *Registry
	Cache      cache.Cache
	Keyer      cache.Keyer
	Logger     *log.Logger
	Measurer   Measurer
	Dispatcher Dispatcher
	Applier    Applier
	Events     Events

	mu     sync.Mutex
	active map[*graph.Graph]*Run
}

// NewRunner creates a runner over the default registry.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Registry:   DefaultRegistry(),
		Cache:      cache.Instrument(c, "result"),
		Keyer:      keyer,
		Logger:     logger,
		Measurer:   SizeMeasurer,
		Dispatcher: DirectDispatcher{},
		Applier:    nopApplier{},
	}
}

// stages holds the algorithms of one run, built before any computation.
// Nil stages are skipped.
type stages struct {
	opts    Options
	layout  layout.Algorithm
	overlap overlap.Remover
	router  routing.Router
}

// plan clones and validates opts and builds every stage, so configuration
// errors surface before a run starts.
func (r *Runner) plan(opts Options) (*stages, error) {
	opts = opts.Clone()
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(r.Registry); err != nil {
		return nil, err
	}
	st := &stages{opts: opts}
	if opts.Layout != layout.KindNone {
		f, err := r.Registry.Layout(opts.Layout)
		if err != nil {
			return nil, err
		}
		if st.layout, err = f.New(opts.LayoutParams); err != nil {
			return nil, err
		}
	}
	if opts.Overlap != overlap.KindNone {
		f, err := r.Registry.Overlap(opts.Overlap)
		if err != nil {
			return nil, err
		}
		if st.overlap, err = f.New(opts.OverlapParams); err != nil {
			return nil, err
		}
	}
	if opts.Routing != routing.KindNone {
		f, err := r.Registry.Routing(opts.Routing)
		if err != nil {
			return nil, err
		}
		if st.router, err = f.New(opts.RoutingParams); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// Run executes the pipeline on the calling goroutine and returns when it
// has finished. A cancelled run returns its partial result with Cancelled
// set and a nil error.
func (r *Runner) Run(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	run, st, err := r.prepare(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	r.finish(run, st)
	return run.Wait()
}

// Start begins a run in the background and returns immediately.
// Configuration errors are returned here; failures during the run are
// returned by [Run.Wait].
func (r *Runner) Start(ctx context.Context, g *graph.Graph, opts Options) (*Run, error) {
	run, st, err := r.prepare(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	go r.finish(run, st)
	return run, nil
}

// runContext carries a run's context alongside it until finish.
type runContext struct {
	*stages
	ctx context.Context
}

func (r *Runner) prepare(ctx context.Context, g *graph.Graph, opts Options) (*Run, *runContext, error) {
	if g == nil {
		return nil, nil, gerrors.New(gerrors.ErrCodeInvalidInput, "graph is nil")
	}
	st, err := r.plan(opts)
	if err != nil {
		return nil, nil, err
	}
	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{
		id:     uuid.NewString(),
		graph:  g,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.acquire(run)
	return run, &runContext{stages: st, ctx: runCtx}, nil
}

func (r *Runner) finish(run *Run, rc *runContext) {
	defer run.cancel()
	start := time.Now()
	res, err := r.execute(rc.ctx, run, rc.stages)
	elapsed := time.Since(start)

	cancelled := res != nil && res.Cancelled
	observability.Pipeline().OnRunComplete(rc.ctx, run.id, elapsed, cancelled, err)
	if res != nil {
		res.Stats.TotalTime = elapsed
	}
	run.result, run.err = res, err
	run.setState(StateIdle)
	r.release(run)
	close(run.done)
}

// acquire registers run as the active run on its graph. A run already
// active on the same graph is cancelled and awaited first.
func (r *Runner) acquire(run *Run) {
	for {
		r.mu.Lock()
		if r.active == nil {
			r.active = make(map[*graph.Graph]*Run)
		}
		prev := r.active[run.graph]
		if prev == nil {
			r.active[run.graph] = run
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()

		r.Logger.Debug("cancelling in-flight run", "run", prev.id, "next", run.id)
		prev.Cancel()
		<-prev.Done()
	}
}

func (r *Runner) release(run *Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active[run.graph] == run {
		delete(r.active, run.graph)
	}
}

// Active returns the run in flight on g, or nil.
func (r *Runner) Active(g *graph.Graph) *Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[g]
}

// execute runs every stage of st on run's graph. It returns a partial
// result with Cancelled set when ctx is cancelled between or during stages.
func (r *Runner) execute(ctx context.Context, run *Run, st *stages) (*Result, error) {
	g, opts := run.graph, st.opts
	logger := opts.Logger.With("run", run.id)
	res := newResult(run.id)
	res.Stats.VertexCount = g.VertexCount()
	res.Stats.EdgeCount = g.EdgeCount()


	var sizes map[graph.VertexID]geometry.Size
	cancel := func(state State) (*Result, error) {
		res.Cancelled = true
		if len(res.Positions) == 0 {
			res.Positions = currentPositions(g)
		}
		if len(res.Rectangles) == 0 {
			res.Rectangles = rectsOf(res.Positions, sizes)
		}
		r.Dispatcher.Dispatch(func() {
			if r.Events.OnCancelled != nil {
				r.Events.OnCancelled(run.id, state)
			}
		})
		logger.Info("run cancelled", "stage", state.stage())
		return res, nil
	}

	// Measure sizes on the dispatcher and store them on the graph.
	if ctx.Err() != nil {
		return cancel(StateMeasuringSizes)
	}
	res.Stats.MeasureTime, _ = r.stage(ctx, run, StateMeasuringSizes, logger, func() (bool, error) {
		r.Dispatcher.Dispatch(func() {
			sizes = r.measure(g)
			for id, s := range sizes {
				g.SetSize(id, s)
			}
		})
		return false, nil
	})

	// The key covers the measured sizes, so a measurer change is a miss.
	var cacheKey string
	if opts.UseCache {
		if digest, err := graphDigest(g, sizes); err == nil {
			cacheKey = r.Keyer.ResultKey(digest, opts.ResultKeyOpts())
			if cached, ok := r.cached(ctx, cacheKey); ok {
				cached.RunID, cached.CacheHit = run.id, true
				r.commitCached(g, run.id, st, cached)
				logger.Info("layout from cache", "vertices", g.VertexCount())
				return cached, nil
			}
		}
	}

	// Layout.
	positions := currentPositions(g)
	var stopped bool
	var err error
	res.Stats.LayoutTime, err = r.stage(ctx, run, StateLayoutRunning, logger, func() (bool, error) {
		if st.layout == nil {
			return ctx.Err() != nil, nil
		}
		lr, err := st.layout.Compute(ctx, g, positionFunc(g.Positions()), sizeFunc(sizes))
		if err != nil {
			return false, err
		}
		positions = lr.Positions
		for id, s := range lr.Sizes {
			sizes[id] = s
		}
		res.Sizes = lr.Sizes
		res.Reversed = lr.Reversed
		for id, pts := range lr.EdgeRoutes {
			res.BendPoints[id] = pts
		}
		stopped = lr.Cancelled
		return lr.Cancelled, nil
	})
	res.Positions = positions
	if err != nil {
		return nil, err
	}
	if stopped || ctx.Err() != nil {
		return cancel(StateLayoutRunning)
	}
	rects := rectsOf(positions, sizes)
	res.Rectangles = rects
	r.Dispatcher.Dispatch(func() {
		r.commitPositions(g, positions, res.Sizes)
		if r.Events.OnLayoutDone != nil {
			r.Events.OnLayoutDone(run.id, positions)
		}
	})

	// Overlap removal.
	if st.overlap != nil {
		refitted := make(map[graph.VertexID]geometry.Size)
		res.Stats.OverlapTime, err = r.stage(ctx, run, StateOverlapRunning, logger, func() (bool, error) {
			input, margins := overlapInput(g, rects)
			or, err := st.overlap.Compute(ctx, input)
			if err != nil {
				return false, err
			}
			for id, rc := range or.Rects {
				rects[id] = rc
			}
			for id, sz := range refitCompounds(g, rects, margins) {
				if res.Sizes == nil {
					res.Sizes = make(map[graph.VertexID]geometry.Size)
				}
				res.Sizes[id] = sz
				refitted[id] = sz
			}
			res.Stats.OverlapIterations = or.Iterations
			res.Stats.OverlapUnresolved = or.Unresolved
			if or.Unresolved > 0 {
				logger.Warn("overlaps left at iteration cap", "pairs", or.Unresolved, "iterations", or.Iterations)
			}
			stopped = or.Cancelled
			return or.Cancelled, nil
		})
		positions = centers(rects)
		res.Positions = positions
		if err != nil {
			return nil, err
		}
		if stopped || ctx.Err() != nil {
			return cancel(StateOverlapRunning)
		}
		r.Dispatcher.Dispatch(func() {
			r.commitPositions(g, positions, refitted)
			if r.Events.OnOverlapDone != nil {
				r.Events.OnOverlapDone(run.id, rects)
			}
		})
	}

	// Routing.
	if st.router != nil {
		res.Stats.RoutingTime, err = r.stage(ctx, run, StateRoutingRunning, logger, func() (bool, error) {
			rr, err := st.router.Compute(ctx, routing.Input{Graph: g, Rects: rects})
			if err != nil {
				return false, err
			}
			res.Routes = rr.Routes
			res.Warnings = rr.Warnings
			stopped = rr.Cancelled
			return rr.Cancelled, nil
		})
		if err != nil {
			return nil, err
		}
		for _, w := range res.Warnings {
			logger.Warn("edge routed by fallback", "edge", w.Edge, "code", w.Code, "reason", w.Message)
		}
		if stopped || ctx.Err() != nil {
			return cancel(StateRoutingRunning)
		}
		if opts.ParallelEdges.Enabled {
			res.Routes = routing.OffsetParallel(res.Routes, g, rects, opts.ParallelEdges.Distance, routing.BackStepOf(opts.RoutingParams))
		}
	}
	if !opts.SelfLoop.Hide {
		for _, e := range g.Edges() {
			if e.IsSelfLoop() {
				res.SelfLoops[e.ID] = geometry.NewSelfLoop(rects[e.Source], *opts.SelfLoop)
			}
		}
	}
	routes := res.Routes
	if st.router == nil {
		routes = res.BendPoints
	}
	r.Dispatcher.Dispatch(func() {
		r.commitRoutes(g, routes)
		if st.router != nil && r.Events.OnRoutingDone != nil {
			r.Events.OnRoutingDone(run.id, routes)
		}
	})

	if cacheKey != "" {
		if data, err := json.Marshal(res); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLResult)
		}
	}
	logger.Info("layout complete",
		"vertices", res.Stats.VertexCount,
		"edges", res.Stats.EdgeCount,
		"warnings", len(res.Warnings))
	return res, nil
}

// stage runs fn in state s, reporting it to the hooks and the log.
func (r *Runner) stage(ctx context.Context, run *Run, s State, logger *log.Logger, fn func() (bool, error)) (time.Duration, error) {
	run.setState(s)
	name := s.stage()
	observability.Pipeline().OnStageStart(ctx, run.id, name, run.graph.VertexCount())
	start := time.Now()
	cancelled, err := fn()
	elapsed := time.Since(start)
	observability.Pipeline().OnStageComplete(ctx, run.id, name, elapsed, cancelled, err)
	if err != nil {
		logger.Error("stage failed", "stage", name, "err", err)
	} else {
		logger.Debug("stage done", "stage", name, "duration", elapsed, "cancelled", cancelled)
	}
	return elapsed, err
}

func (r *Runner) cached(ctx context.Context, key string) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false
	}
	return &res, true
}

// commitCached applies a cached result and fires the events of the stages
// st would have run.
func (r *Runner) commitCached(g *graph.Graph, runID string, st *stages, res *Result) {
	routes := res.Routes
	if len(routes) == 0 {
		routes = res.BendPoints
	}
	r.Dispatcher.Dispatch(func() {
		r.commitPositions(g, res.Positions, res.Sizes)
		r.commitRoutes(g, routes)
		if r.Events.OnLayoutDone != nil {
			r.Events.OnLayoutDone(runID, res.Positions)
		}
		if st.overlap != nil && r.Events.OnOverlapDone != nil {
			r.Events.OnOverlapDone(runID, res.Rectangles)
		}
		if st.router != nil && r.Events.OnRoutingDone != nil {
			r.Events.OnRoutingDone(runID, routes)
		}
	})
}

// graphDigest hashes the graph document together with the measured size of
// every vertex, in vertex ID order.
func graphDigest(g *graph.Graph, sizes map[graph.VertexID]geometry.Size) (string, error) {
	data, err := graph.MarshalGraph(g)
	if err != nil {
		return "", err
	}
	for _, id := range g.VertexIDs() {
		s := sizes[id]
		data = fmt.Appendf(data, "\n%d %g %g", id, s.Width, s.Height)
	}
	return cache.Hash(data), nil
}

func (r *Runner) commitPositions(g *graph.Graph, positions map[graph.VertexID]geometry.Point, sizes map[graph.VertexID]geometry.Size) {
	for id, p := range positions {
		g.SetPosition(id, p)
	}
	for id, s := range sizes {
		g.SetSize(id, s)
	}
	r.Applier.ApplyPositions(positions)
}

// commitRoutes replaces the routing points of every edge that is not a
// self-loop; edges without a route become straight.
func (r *Runner) commitRoutes(g *graph.Graph, routes map[graph.EdgeID][]geometry.Point) {
	for _, e := range g.Edges() {
		if !e.IsSelfLoop() {
			g.SetRoutingPoints(e.ID, routes[e.ID])
		}
	}
	r.Applier.ApplyRoutes(routes)
}

func (r *Runner) measure(g *graph.Graph) map[graph.VertexID]geometry.Size {
	sizes := make(map[graph.VertexID]geometry.Size, g.VertexCount())
	for _, id := range g.VertexIDs() {
		sizes[id] = r.Measurer.Measure(g, id).OrUnit()
	}
	return sizes
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/graphlayout/pkg/config"
	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/layout"
	"github.com/matzehuels/graphlayout/pkg/overlap"
	"github.com/matzehuels/graphlayout/pkg/pipeline"
	"github.com/matzehuels/graphlayout/pkg/routing"
)

// Output formats of the layout command.
const (
	outputLayout = "layout" // graph.Layout: vertex boxes and edge polylines
	outputResult = "result" // pipeline.Result with stage statistics
	outputGraph  = "graph"  // the input document with geometry filled in
)

// layoutFlags holds the command-line flags for the layout command. Algorithm
// settings only override the config file when given explicitly.
type layoutFlags struct {
	output  string
	format  string
	noCache bool
	async   bool
	timeout time.Duration

	layout  string
	overlap string
	routing string
	seed    uint64
	hgap    float64
	vgap    float64

	parallelEdges    bool
	parallelDistance float64
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var f layoutFlags

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute a layout for a graph document",
		Long: `Compute a layout for a graph document.

The layout command places the vertices, removes overlaps between them and
routes the edges. Algorithms and their parameters come from the config file;
the flags below override it for a single run.

Results are cached, so laying out the same graph with the same settings again
is instant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyLayoutFlags(cmd.Flags(), &f, cfg)
			return c.runLayout(cmd.Context(), args[0], cfg, f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: <input>.<format>.json)")
	cmd.Flags().StringVarP(&f.format, "format", "f", outputLayout, "output format: layout, result, graph")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.async, "async", false, "run in the background and follow its stages")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "cancel the run after this long and keep the partial result")

	cmd.Flags().StringVarP(&f.layout, "layout", "l", string(pipeline.DefaultLayout), "layout algorithm: none, random, kk, sugiyama, compound-fdp")
	cmd.Flags().StringVar(&f.overlap, "overlap", string(pipeline.DefaultOverlap), "overlap removal: none, fsa, oneway-fsa")
	cmd.Flags().StringVarP(&f.routing, "routing", "r", string(pipeline.DefaultRouting), "edge routing: none, simple, bundling, pathfinder")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "random seed for random, kk and compound-fdp")
	cmd.Flags().Float64Var(&f.hgap, "hgap", 0, "horizontal gap kept by overlap removal")
	cmd.Flags().Float64Var(&f.vgap, "vgap", 0, "vertical gap kept by overlap removal")
	cmd.Flags().BoolVar(&f.parallelEdges, "parallel-edges", false, "spread parallel edges apart")
	cmd.Flags().Float64Var(&f.parallelDistance, "parallel-distance", pipeline.DefaultParallelDistance, "distance between parallel edges")

	return cmd
}

// applyLayoutFlags copies explicitly set flags onto cfg.
func applyLayoutFlags(fs *pflag.FlagSet, f *layoutFlags, cfg *config.Config) {
	if fs.Changed("layout") {
		cfg.Layout.Algorithm = layout.Kind(f.layout)
	}
	if fs.Changed("overlap") {
		cfg.Overlap.Algorithm = overlap.Kind(f.overlap)
	}
	if fs.Changed("routing") {
		cfg.Routing.Algorithm = routing.Kind(f.routing)
	}
	if fs.Changed("seed") {
		cfg.Layout.Random.Seed = f.seed
		cfg.Layout.KK.Seed = f.seed
		cfg.Layout.Compound.Seed = f.seed
	}
	if fs.Changed("hgap") {
		cfg.Overlap.FSA.HorizontalGap = f.hgap
		cfg.Overlap.OneWay.HorizontalGap = f.hgap
	}
	if fs.Changed("vgap") {
		cfg.Overlap.FSA.VerticalGap = f.vgap
		cfg.Overlap.OneWay.VerticalGap = f.vgap
	}
	if fs.Changed("parallel-edges") {
		cfg.Routing.ParallelEdges.Enabled = f.parallelEdges
	}
	if fs.Changed("parallel-distance") {
		cfg.Routing.ParallelEdges.Distance = f.parallelDistance
	}
}

// runLayout loads the graph, runs the pipeline, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, cfg *config.Config, f layoutFlags) error {
	switch f.format {
	case outputLayout, outputResult, outputGraph:
	default:
		return fmt.Errorf("invalid format: %s (must be 'layout', 'result' or 'graph')", f.format)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, cfg, f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := cfg.Options()
	opts.UseCache = !f.noCache
	opts.Logger = c.Logger

	runCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	spinner := newSpinnerWithContext(ctx, stateMessage(pipeline.StateMeasuringSizes))
	spinner.Start()
	runner.Events = pipeline.Events{
		OnLayoutDone: func(string, map[graph.VertexID]geometry.Point) {
			spinner.SetMessage(stateMessage(pipeline.StateOverlapRunning))
		},
		OnOverlapDone: func(string, map[graph.VertexID]geometry.Rect) {
			spinner.SetMessage(stateMessage(pipeline.StateRoutingRunning))
		},
		OnCancelled: func(runID string, st pipeline.State) {
			c.Logger.Debug("run cancelled", "run", runID, "state", st)
		},
	}

	res, err := c.execute(runCtx, runner, g, opts, spinner, f.async)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if res.Cancelled {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		printWarning("Timed out after %s, writing partial layout", f.timeout)
	}

	outputPath := f.output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + "." + f.format + ".json"
	}
	if err := writeLayoutOutput(outputPath, f.format, g, res, opts); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	for _, w := range res.Warnings {
		printWarning("%s", w)
	}
	printStats(g.VertexCount(), g.EdgeCount(), res.Stats.TotalTime, res.CacheHit)
	if f.format == outputLayout {
		printNewline()
		printNextStep("Render", appName+" render "+outputPath)
	}
	return nil
}

// execute runs the pipeline on the calling goroutine, or starts it in the
// background and follows its state on the spinner when async is set.
func (c *CLI) execute(ctx context.Context, runner *pipeline.Runner, g *graph.Graph, opts pipeline.Options, spinner *Spinner, async bool) (*pipeline.Result, error) {
	if !async {
		return runner.Run(ctx, g, opts)
	}
	run, err := runner.Start(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("run started", "run", run.ID())
	spinner.track(run)
	return run.Wait()
}

func writeLayoutOutput(path, format string, g *graph.Graph, res *pipeline.Result, opts pipeline.Options) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case outputGraph:
		return graph.WriteGraphFile(g, path)
	case outputResult:
		data, err = json.MarshalIndent(res, "", "  ")
	case outputLayout:
		data, err = graph.MarshalLayout(res.Layout(g, opts.SelfLoop))
	default:
		err = errors.New("unknown format " + format)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

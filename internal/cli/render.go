package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
	"github.com/matzehuels/graphlayout/pkg/render"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// validFormats is the set of supported render formats.
var validFormats = map[string]bool{formatDOT: true, formatSVG: true}

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output         string   // output file path (or base path for multiple formats)
	formats        []string // output formats: "dot", "svg"
	detailed       bool     // add vertex sizes to labels
	selfLoopRadius float64  // radius of self-loop glyphs; 0 lets Graphviz draw them
}

// renderCommand creates the render command for drawing layout files.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{selfLoopRadius: geometry.DefaultSelfLoopParams().Radius}

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Draw a layout file as DOT or SVG",
		Long: `Draw a layout file produced by 'layout' as DOT or SVG.

Vertices and edges are drawn exactly where the layout put them; Graphviz only
renders the pinned geometry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show vertex sizes in labels")
	cmd.Flags().Float64Var(&opts.selfLoopRadius, "self-loop-radius", opts.selfLoopRadius, "self-loop radius (0 lets Graphviz draw them)")

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatSVG}
	}
	return strings.Split(s, ",")
}

// validateFormats checks that all requested formats are valid.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg' or 'dot')", f)
		}
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// Known format extensions are stripped from output, and the ".layout"
// infix written by the layout command is stripped from input.
func basePath(output, input string) string {
	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		return strings.TrimSuffix(base, "."+outputLayout)
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// runRender loads the layout and writes one file per requested format.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	p := newProgress(c.Logger)
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}
	l, err := graph.UnmarshalLayout(data)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}
	g := l.Graph()
	c.Logger.Debug("layout loaded", "vertices", g.VertexCount(), "edges", g.EdgeCount())

	ropts := render.Options{Detailed: opts.detailed}
	if opts.selfLoopRadius > 0 {
		loop := geometry.DefaultSelfLoopParams()
		loop.Radius = opts.selfLoopRadius
		ropts.SelfLoop = &loop
	}
	dot := render.ToDOT(g, ropts)

	base := basePath(opts.output, input)
	for _, format := range opts.formats {
		path := base + "." + format
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}
		out, err := renderFormat(ctx, dot, format)
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		c.Logger.Debug("rendered", "format", format, "bytes", len(out))
		printSuccess("Rendered %s", format)
		printFile(path)
	}
	p.done(fmt.Sprintf("Rendered %d format(s)", len(opts.formats)))
	return nil
}

func renderFormat(ctx context.Context, dot, format string) ([]byte, error) {
	if format == formatDOT {
		return []byte(dot), nil
	}
	spinner := newSpinnerWithContext(ctx, "Rendering SVG...")
	spinner.Start()
	defer spinner.Stop()
	return render.RenderSVG(ctx, dot)
}

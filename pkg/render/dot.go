package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

// pointsPerInch converts DOT node sizes, which are in inches.
const pointsPerInch = 72.0

// Options configures DOT generation.
type Options struct {
	// Detailed adds the vertex ID and metadata to labels.
	Detailed bool
	// SelfLoop shapes self-loop glyphs; nil draws self-loops as Graphviz
	// would.
	SelfLoop *geometry.SelfLoopParams
}

// ToDOT converts g with its committed geometry to DOT. Vertices without a
// valid position are left for Graphviz to place.
func ToDOT(g *graph.Graph, opts Options) string {
	var rects []geometry.Rect
	for _, v := range g.Vertices() {
		if geometry.IsValid(v.Position) {
			rects = append(rects, geometry.RectFromCenter(v.Position, v.Size.OrUnit()))
		}
	}
	b := geometry.Bounds(rects)
	flip := func(p geometry.Point) string {
		return fmt.Sprintf("%.2f,%.2f", p.X-b.Left(), b.Bottom()-p.Y)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  bb=\"0,0,%.2f,%.2f\";\n", b.Width, b.Height)
	buf.WriteString("  node [style=\"filled\", fillcolor=white, fontsize=10, fixedsize=true];\n")
	buf.WriteString("\n")

	for _, v := range g.Vertices() {
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(v, opts.Detailed)),
			"shape=" + dotShape(v.Shape),
		}
		if geometry.IsValid(v.Position) {
			s := v.Size.OrUnit()
			attrs = append(attrs,
				fmt.Sprintf("pos=\"%s!\"", flip(v.Position)),
				fmt.Sprintf("width=%.4f", s.Width/pointsPerInch),
				fmt.Sprintf("height=%.4f", s.Height/pointsPerInch))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeName(v), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		src, _ := g.Vertex(e.Source)
		dst, _ := g.Vertex(e.Target)
		var attrs []string
		if e.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
		}
		pts := fullRoute(src, dst, e.RoutingPoints)
		if e.IsSelfLoop() && opts.SelfLoop != nil && !opts.SelfLoop.Hide && geometry.IsValid(src.Position) {
			loop := geometry.NewSelfLoop(src.Bounds(), *opts.SelfLoop)
			pts = loop.Polyline(16)
		}
		if len(pts) >= 2 {
			attrs = append(attrs, fmt.Sprintf("pos=%q", splinePos(pts, flip)))
		}
		if len(attrs) > 0 {
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", nodeName(src), nodeName(dst), strings.Join(attrs, ", "))
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", nodeName(src), nodeName(dst))
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeName(v graph.Vertex) string { return graph.KeyOf(v) }

func fmtLabel(v graph.Vertex, detailed bool) string {
	label := v.Label
	if label == "" {
		label = graph.KeyOf(v)
	}
	if !detailed {
		return label
	}
	parts := []string{fmt.Sprintf("id: %d", v.ID)}
	for _, k := range slices.Sorted(maps.Keys(v.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, v.Meta[k]))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func dotShape(s geometry.Shape) string {
	switch s {
	case geometry.ShapeEllipse:
		return "ellipse"
	case geometry.ShapeNone:
		return "plaintext"
	}
	return "box"
}

// fullRoute closes bend points left by a layered layout with the vertex
// attach points. Routes that already start on the source boundary are kept.
func fullRoute(src, dst graph.Vertex, pts []geometry.Point) []geometry.Point {
	if len(pts) == 0 || !geometry.IsValid(src.Position) || !geometry.IsValid(dst.Position) {
		return pts
	}
	if geometry.OnBoundary(src.Bounds(), src.Shape, pts[0], 1e-3) {
		return pts
	}
	out := make([]geometry.Point, 0, len(pts)+2)
	out = append(out, geometry.AttachPoint(src.Bounds(), src.Shape, pts[0]))
	out = append(out, pts...)
	return append(out, geometry.AttachPoint(dst.Bounds(), dst.Shape, pts[len(pts)-1]))
}

// splinePos encodes a polyline as a cubic B-spline whose control points
// repeat every segment end, which Graphviz draws as straight segments.
func splinePos(pts []geometry.Point, flip func(geometry.Point) string) string {
	parts := make([]string, 0, 3*len(pts)-2)
	parts = append(parts, flip(pts[0]))
	for i := 1; i < len(pts); i++ {
		parts = append(parts, flip(pts[i-1]), flip(pts[i]), flip(pts[i]))
	}
	return strings.Join(parts, " ")
}

// RenderSVG draws DOT produced by [ToDOT] without re-running layout.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NOP2)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's fixed-size svg element with one
// that scales with its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// Package render turns a laid-out graph into Graphviz DOT and SVG.
//
// Layout is never delegated to Graphviz. [ToDOT] pins every vertex to its
// committed position and every edge to its committed polyline, and
// [RenderSVG] draws the result with the nop2 engine, which only renders
// the geometry it is given:
//
//	dot := render.ToDOT(g, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//
// Graph coordinates grow downward while Graphviz coordinates grow upward,
// so y is mirrored inside the bounding box. Lengths are in points.
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package render

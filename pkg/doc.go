// Package pkg provides the libraries behind graphlayout, a 2D graph layout
// engine.
//
// # Overview
//
// A layout run takes a [graph] with vertex sizes and produces vertex centers
// and edge polylines in three stages, each with interchangeable algorithms:
//
//  1. [layout] - Place vertices (random, Kamada-Kawai, Sugiyama, compound FDP)
//  2. [overlap] - Push overlapping vertex boxes apart (FSA, one-way FSA)
//  3. [routing] - Route edges around vertices (simple, bundling, pathfinder)
//
// [pipeline] ties the stages together with cancellation, background runs,
// stage events and result caching.
//
// # Architecture
//
//	graph.Document (JSON)
//	         ↓
//	    [graph] package (vertices, edges, nesting)
//	         ↓
//	    [pipeline] package (measure → layout → overlap → routing)
//	         ↓
//	    graph.Layout (JSON) ──→ [render] package (DOT, SVG)
//
// # Quick Start
//
//	g, _ := graph.ReadGraphFile("graph.json")
//
//	runner := pipeline.NewRunner(nil, nil, log.Default())
//	defer runner.Close()
//
//	res, _ := runner.Run(ctx, g, pipeline.Options{
//	    Layout:  layout.KindSugiyama,
//	    Overlap: overlap.KindNone,
//	    Routing: routing.KindSimple,
//	})
//	data, _ := graph.MarshalLayout(res.Layout(g, nil))
//
// # Main Packages
//
// [geometry] - Points, rectangles, curves, arrow heads and self-loop glyphs.
//
// [graph] - The mutable graph model with compound nesting, plus its JSON
// document and layout formats.
//
// [dag] - The layered working graph used by Sugiyama, with cycle breaking,
// layering and edge subdivision in [dag/transform].
//
// [cache] - Result caches on the filesystem or Redis.
//
// [config] - TOML configuration for the CLI and the HTTP service.
//
// [errors] - Coded errors shared by every package.
//
// [observability] - Hooks for pipeline, cache and HTTP metrics.
//
// [geometry]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/geometry
// [graph]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/graph
// [layout]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/layout
// [overlap]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/overlap
// [routing]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/routing
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/pipeline
// [render]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/render
// [dag]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/dag
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/dag/transform
// [cache]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/graphlayout/pkg/observability
package pkg

// Package graph provides the graph model shared by all layout stages and its
// serialization formats.
//
// # Model
//
// [Graph] is a directed multigraph stored as an arena: vertices and edges are
// addressed by [VertexID] and [EdgeID] indices that are assigned in insertion
// order and never reused. Removing an element leaves a tombstone so all other
// IDs stay valid. Every iteration (VertexIDs, Edges, Neighbors, ...) runs in
// ID order, which makes ID order the deterministic tie-break for layout
// algorithms.
//
// Vertices carry their geometry (center position, size, outline shape) and
// may be nested with [Graph.SetParent] to form compound graphs. Edges carry an
// optional routing polyline. Self-loops and parallel edges are allowed.
//
// Accessors return copies. Only the pipeline writes geometry back, through
// [Graph.SetPosition], [Graph.SetSize] and [Graph.SetRoutingPoints].
//
// # gonum interop
//
// [Graph.Undirected] exposes a gonum simple.UndirectedGraph view, which backs
// [Graph.Components] and [Graph.ShortestPaths].
//
// # Serialization
//
// [Document] is the JSON input format:
//
//	{
//	  "vertices": [{"id": "app", "width": 80, "height": 30}, {"id": "lib"}],
//	  "edges": [{"from": "app", "to": "lib"}]
//	}
//
// [Layout] is the JSON output format holding final boxes and polylines.
package graph

// Package dag provides the layered working graph used by Sugiyama-style
// layout.
//
// # Overview
//
// Layered layout places vertices in horizontal rows (layers) with every edge
// pointing downward. This package provides the data structure that
// organizes nodes into rows and, once long edges are subdivided, only
// connects nodes in consecutive rows.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]:
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: 0, Row: 0})
//	g.AddNode(dag.Node{ID: 1, Row: 1})
//	g.AddEdge(dag.Edge{From: 0, To: 1})
//
// Query the graph structure with [DAG.Children], [DAG.Parents], [DAG.NodesInRow],
// and related methods. [DAG.Validate] verifies that every edge joins
// consecutive rows and that the graph is acyclic.
//
// # Node Types
//
//   - [NodeKindRegular]: a vertex of the input graph
//   - [NodeKindSubdivider]: a dummy node breaking a long edge into segments
//
// Every edge segment keeps the [graph.EdgeID] it came from, so the positions of
// subdividers can be turned back into bend points of the original edge.
//
// # Edge Crossings
//
// The [CountCrossings] and [CountLayerCrossings] functions use a Fenwick tree
// (binary indexed tree) to count inversions in O(E log V) time. Layered
// layout evaluates every ordering sweep with them.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use.
//
// The [transform] subpackage provides cycle reversal, layer assignment, and
// edge subdivision.
//
// [transform]: github.com/matzehuels/graphlayout/pkg/dag/transform
package dag

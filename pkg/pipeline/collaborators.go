package pipeline

import (
	"fmt"

	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/graph"
)

// Measurer reports the rendered size of a vertex.
type Measurer interface {
	Measure(g *graph.Graph, id graph.VertexID) geometry.Size
}

// MeasurerFunc adapts a function to Measurer.
type MeasurerFunc func(g *graph.Graph, id graph.VertexID) geometry.Size

func (f MeasurerFunc) Measure(g *graph.Graph, id graph.VertexID) geometry.Size { return f(g, id) }

// SizeMeasurer reads the size stored on the vertex; unusable sizes become
// 1×1.
var SizeMeasurer = MeasurerFunc(func(g *graph.Graph, id graph.VertexID) geometry.Size {
	v, _ := g.Vertex(id)
	return v.Size.OrUnit()
})

// Dispatcher runs fn on the thread that owns the graph and returns once fn
// has completed. Measurement and every commit go through it, so an async
// run never touches shared state from its own goroutine.
type Dispatcher interface {
	Dispatch(fn func())
}

// DirectDispatcher runs fn on the calling goroutine.
type DirectDispatcher struct{}

func (DirectDispatcher) Dispatch(fn func()) { fn() }

// Applier receives committed geometry, for example to move rendered
// elements. It is called on the dispatcher.
type Applier interface {
	ApplyPositions(positions map[graph.VertexID]geometry.Point)
	ApplyRoutes(routes map[graph.EdgeID][]geometry.Point)
}

type nopApplier struct{}

func (nopApplier) ApplyPositions(map[graph.VertexID]geometry.Point) {}
func (nopApplier) ApplyRoutes(map[graph.EdgeID][]geometry.Point)    {}

// Events are progress callbacks, keyed by run ID. Nil callbacks are
// skipped. They are invoked on the dispatcher after the stage's commit.
type Events struct {
	OnLayoutDone  func(runID string, positions map[graph.VertexID]geometry.Point)
	OnOverlapDone func(runID string, rects map[graph.VertexID]geometry.Rect)
	OnRoutingDone func(runID string, routes map[graph.EdgeID][]geometry.Point)
	// OnCancelled fires once when a run stops early; state is the stage
	// that was running.
	OnCancelled func(runID string, state State)
}

// State is the stage a run is in.
type State int32

const (
	StateIdle State = iota
	StateMeasuringSizes
	StateLayoutRunning
	StateOverlapRunning
	StateRoutingRunning
)

var stateNames = [...]string{
	StateIdle:           "idle",
	StateMeasuringSizes: "measuring-sizes",
	StateLayoutRunning:  "layout-running",
	StateOverlapRunning: "overlap-running",
	StateRoutingRunning: "routing-running",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// stage is the hook and log name of the work done in s.
func (s State) stage() string {
	switch s {
	case StateMeasuringSizes:
		return "measure"
	case StateLayoutRunning:
		return "layout"
	case StateOverlapRunning:
		return "overlap"
	case StateRoutingRunning:
		return "routing"
	}
	return "idle"
}

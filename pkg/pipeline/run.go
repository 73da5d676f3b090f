package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/matzehuels/graphlayout/pkg/graph"
)

// Run is a pipeline run in progress. All methods are safe for concurrent
// use.
type Run struct {
	id     string
	graph  *graph.Graph
	cancel context.CancelFunc
	done   chan struct{}
	state  atomic.Int32

	result *Result
	err    error
}

// ID returns the run's unique identifier, as passed to events.
func (r *Run) ID() string { return r.id }

// State returns the stage the run is in; StateIdle once it has finished.
func (r *Run) State() State { return State(r.state.Load()) }

// Cancel asks the run to stop at its next checkpoint. It does not wait.
func (r *Run) Cancel() { r.cancel() }

// Done is closed when the run has finished.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run finishes and returns its outcome. A cancelled
// run returns its partial result with Cancelled set and a nil error.
func (r *Run) Wait() (*Result, error) {
	<-r.done
	return r.result, r.err
}

func (r *Run) setState(s State) { r.state.Store(int32(s)) }

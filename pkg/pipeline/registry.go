package pipeline

import (
	"slices"
	"sync"

	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/layout"
	"github.com/matzehuels/graphlayout/pkg/overlap"
	"github.com/matzehuels/graphlayout/pkg/routing"
)

// LayoutFactory builds a layout algorithm of one kind.
type LayoutFactory struct {
	New      func(layout.Params) (layout.Algorithm, error)
	Defaults func() layout.Params
}

// OverlapFactory builds an overlap remover of one kind.
type OverlapFactory struct {
	New      func(overlap.Params) (overlap.Remover, error)
	Defaults func() overlap.Params
}

// RoutingFactory builds an edge router of one kind.
type RoutingFactory struct {
	New      func(routing.Params) (routing.Router, error)
	Defaults func() routing.Params
}

// Registry maps algorithm kinds to factories. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	layouts  map[layout.Kind]LayoutFactory
	overlaps map[overlap.Kind]OverlapFactory
	routers  map[routing.Kind]RoutingFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		layouts:  make(map[layout.Kind]LayoutFactory),
		overlaps: make(map[overlap.Kind]OverlapFactory),
		routers:  make(map[routing.Kind]RoutingFactory),
	}
}

// DefaultRegistry returns a registry holding every built-in algorithm.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterLayout(layout.KindRandom, NewLayoutFactory(layout.DefaultRandomParams, layout.NewRandom))
	r.RegisterLayout(layout.KindKK, NewLayoutFactory(layout.DefaultKKParams, layout.NewKK))
	r.RegisterLayout(layout.KindSugiyama, NewLayoutFactory(layout.DefaultSugiyamaParams, layout.NewSugiyama))
	r.RegisterLayout(layout.KindCompoundFDP, NewLayoutFactory(layout.DefaultCompoundParams, layout.NewCompoundFDP))

	r.RegisterOverlap(overlap.KindFSA, NewOverlapFactory(overlap.DefaultFSAParams, overlap.NewFSA))
	r.RegisterOverlap(overlap.KindOneWayFSA, NewOverlapFactory(overlap.DefaultOneWayParams, overlap.NewOneWay))

	r.RegisterRouting(routing.KindSimple, NewRoutingFactory(routing.DefaultSimpleParams, routing.NewSimple))
	r.RegisterRouting(routing.KindBundling, NewRoutingFactory(routing.DefaultBundlingParams, routing.NewBundling))
	r.RegisterRouting(routing.KindPathfinder, NewRoutingFactory(routing.DefaultPathfinderParams, routing.NewPathfinder))
	return r
}

// NewLayoutFactory adapts a typed constructor. The factory rejects
// parameters of any other type with ErrCodeInvalidConfiguration.
func NewLayoutFactory[P layout.Params, A layout.Algorithm](defaults func() P, ctor func(P) (A, error)) LayoutFactory {
	return LayoutFactory{
		Defaults: func() layout.Params { return defaults() },
		New: func(p layout.Params) (layout.Algorithm, error) {
			typed, err := paramsAs[P](p, defaults)
			if err != nil {
				return nil, err
			}
			a, err := ctor(typed)
			if err != nil {
				return nil, err
			}
			return a, nil
		},
	}
}

// NewOverlapFactory adapts a typed constructor.
func NewOverlapFactory[P overlap.Params, R overlap.Remover](defaults func() P, ctor func(P) (R, error)) OverlapFactory {
	return OverlapFactory{
		Defaults: func() overlap.Params { return defaults() },
		New: func(p overlap.Params) (overlap.Remover, error) {
			typed, err := paramsAs[P](p, defaults)
			if err != nil {
				return nil, err
			}
			r, err := ctor(typed)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	}
}

// NewRoutingFactory adapts a typed constructor.
func NewRoutingFactory[P routing.Params, R routing.Router](defaults func() P, ctor func(P) (R, error)) RoutingFactory {
	return RoutingFactory{
		Defaults: func() routing.Params { return defaults() },
		New: func(p routing.Params) (routing.Router, error) {
			typed, err := paramsAs[P](p, defaults)
			if err != nil {
				return nil, err
			}
			r, err := ctor(typed)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	}
}

// paramsAs converts p to the constructor's parameter type. Nil means the
// defaults.
func paramsAs[P any](p any, defaults func() P) (P, error) {
	if p == nil {
		return defaults(), nil
	}
	typed, ok := p.(P)
	if !ok {
		var zero P
		return zero, gerrors.New(gerrors.ErrCodeInvalidConfiguration,
			"parameters of type %T do not match %T", p, zero)
	}
	return typed, nil
}

// RegisterLayout adds or replaces the factory for kind.
func (r *Registry) RegisterLayout(kind layout.Kind, f LayoutFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layouts[kind] = f
}

// RegisterOverlap adds or replaces the factory for kind.
func (r *Registry) RegisterOverlap(kind overlap.Kind, f OverlapFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overlaps[kind] = f
}

// RegisterRouting adds or replaces the factory for kind.
func (r *Registry) RegisterRouting(kind routing.Kind, f RoutingFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routers[kind] = f
}

// Layout returns the factory for kind, or an ErrCodeUnknownAlgorithm
// error.
func (r *Registry) Layout(kind layout.Kind) (LayoutFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.layouts[kind]
	if !ok {
		return LayoutFactory{}, unknown("layout", string(kind), sortedKeys(r.layouts))
	}
	return f, nil
}

// Overlap returns the factory for kind.
func (r *Registry) Overlap(kind overlap.Kind) (OverlapFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.overlaps[kind]
	if !ok {
		return OverlapFactory{}, unknown("overlap", string(kind), sortedKeys(r.overlaps))
	}
	return f, nil
}

// Routing returns the factory for kind.
func (r *Registry) Routing(kind routing.Kind) (RoutingFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.routers[kind]
	if !ok {
		return RoutingFactory{}, unknown("routing", string(kind), sortedKeys(r.routers))
	}
	return f, nil
}

// Kinds lists the registered kinds per stage, sorted, without "none".
type Kinds struct {
	Layout  []string `json:"layout"`
	Overlap []string `json:"overlap"`
	Routing []string `json:"routing"`
}

// Kinds returns every registered kind.
func (r *Registry) Kinds() Kinds {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Kinds{
		Layout:  sortedKeys(r.layouts),
		Overlap: sortedKeys(r.overlaps),
		Routing: sortedKeys(r.routers),
	}
}

func sortedKeys[K ~string, V any](m map[K]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, string(k))
	}
	slices.Sort(out)
	return out
}

func unknown(stage, kind string, known []string) error {
	return gerrors.New(gerrors.ErrCodeUnknownAlgorithm,
		"unknown %s algorithm %q (known: %v)", stage, kind, known)
}

// Package cache stores pipeline results keyed by graph content and options.
//
// Three backends implement [Cache]:
//   - [NullCache] never stores anything (caching disabled)
//   - [FileCache] keeps entries as JSON files, for the CLI
//   - [RedisCache] shares entries between server instances
//
// Keys are produced by a [Keyer] so that callers never build them by hand.
// [ScopedKeyer] prefixes every key to separate namespaces on a shared
// backend.
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/graphlayout/pkg/observability"
)

// TTLResult is how long a pipeline result stays cached.
const TTLResult = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the stored data and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ResultKeyOpts are the pipeline options that change a result.
type ResultKeyOpts struct {
	Layout           string  `json:"layout"`
	LayoutParams     any     `json:"layout_params,omitempty"`
	Overlap          string  `json:"overlap"`
	OverlapParams    any     `json:"overlap_params,omitempty"`
	Routing          string  `json:"routing"`
	RoutingParams    any     `json:"routing_params,omitempty"`
	ParallelEdges    bool    `json:"parallel_edges"`
	ParallelDistance float64 `json:"parallel_distance"`
	SelfLoop         any     `json:"self_loop,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// ResultKey identifies a full pipeline result.
	ResultKey(graphHash string, opts ResultKeyOpts) string
}

// DefaultKeyer hashes every key component.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) ResultKey(graphHash string, opts ResultKeyOpts) string {
	return hashKey("result", graphHash, opts)
}

// instrumented reports hits, misses and writes of one key type to the
// observability cache hooks.
type instrumented struct {
	Cache
	keyType string
}

// Instrument wraps c so every access is reported to the cache hooks under
// keyType.
func Instrument(c Cache, keyType string) Cache {
	return &instrumented{Cache: c, keyType: keyType}
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, c.keyType)
		} else {
			observability.Cache().OnCacheMiss(ctx, c.keyType)
		}
	}
	return data, hit, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, c.keyType, len(data))
	}
	return err
}

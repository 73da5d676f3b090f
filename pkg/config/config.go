// Package config loads and saves graphlayout settings as TOML.
//
// A config file names one algorithm per stage and carries the parameters of
// every algorithm, so switching algorithms keeps tuned values around:
//
//	[layout]
//	algorithm = "sugiyama"
//
//	[layout.sugiyama]
//	layer_distance = 40
//
//	[routing]
//	algorithm = "pathfinder"
//
// Missing keys keep their defaults. The file lives at
// $XDG_CONFIG_HOME/graphlayout/config.toml, or ~/.config/graphlayout.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/graphlayout/pkg/cache"
	gerrors "github.com/matzehuels/graphlayout/pkg/errors"
	"github.com/matzehuels/graphlayout/pkg/geometry"
	"github.com/matzehuels/graphlayout/pkg/layout"
	"github.com/matzehuels/graphlayout/pkg/overlap"
	"github.com/matzehuels/graphlayout/pkg/pipeline"
	"github.com/matzehuels/graphlayout/pkg/routing"
)

const (
	appName  = "graphlayout"
	fileName = "config.toml"
)

// Config holds graphlayout configuration.
type Config struct {
	Layout   LayoutConfig            `toml:"layout" json:"layout"`
	Overlap  OverlapConfig           `toml:"overlap" json:"overlap"`
	Routing  RoutingConfig           `toml:"routing" json:"routing"`
	SelfLoop geometry.SelfLoopParams `toml:"self_loop" json:"self_loop"`
	Cache    CacheConfig             `toml:"cache" json:"-"`
	Server   ServerConfig            `toml:"server" json:"-"`
}

// LayoutConfig selects the layout algorithm and holds its parameters.
type LayoutConfig struct {
	Algorithm layout.Kind           `toml:"algorithm" json:"algorithm"`
	Random    layout.RandomParams   `toml:"random" json:"random"`
	KK        layout.KKParams       `toml:"kk" json:"kk"`
	Sugiyama  layout.SugiyamaParams `toml:"sugiyama" json:"sugiyama"`
	Compound  layout.CompoundParams `toml:"compound_fdp" json:"compound_fdp"`
}

// OverlapConfig selects the overlap remover.
type OverlapConfig struct {
	Algorithm overlap.Kind         `toml:"algorithm" json:"algorithm"`
	FSA       overlap.FSAParams    `toml:"fsa" json:"fsa"`
	OneWay    overlap.OneWayParams `toml:"oneway_fsa" json:"oneway_fsa"`
}

// RoutingConfig selects the edge router and the parallel edge spread.
type RoutingConfig struct {
	Algorithm     routing.Kind             `toml:"algorithm" json:"algorithm"`
	Simple        routing.SimpleParams     `toml:"simple" json:"simple"`
	Bundling      routing.BundlingParams   `toml:"bundling" json:"bundling"`
	Pathfinder    routing.PathfinderParams `toml:"pathfinder" json:"pathfinder"`
	ParallelEdges pipeline.ParallelEdges   `toml:"parallel_edges" json:"parallel_edges"`
}

// CacheConfig controls where results are cached.
type CacheConfig struct {
	Backend string `toml:"backend"` // "file", "redis", "none"
	// Dir overrides the file cache directory.
	Dir   string            `toml:"dir"`
	Redis cache.RedisConfig `toml:"redis"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			Algorithm: pipeline.DefaultLayout,
			Random:    layout.DefaultRandomParams(),
			KK:        layout.DefaultKKParams(),
			Sugiyama:  layout.DefaultSugiyamaParams(),
			Compound:  layout.DefaultCompoundParams(),
		},
		Overlap: OverlapConfig{
			Algorithm: pipeline.DefaultOverlap,
			FSA:       overlap.DefaultFSAParams(),
			OneWay:    overlap.DefaultOneWayParams(),
		},
		Routing: RoutingConfig{
			Algorithm:     pipeline.DefaultRouting,
			Simple:        routing.DefaultSimpleParams(),
			Bundling:      routing.DefaultBundlingParams(),
			Pathfinder:    routing.DefaultPathfinderParams(),
			ParallelEdges: pipeline.ParallelEdges{Distance: pipeline.DefaultParallelDistance},
		},
		SelfLoop: geometry.DefaultSelfLoopParams(),
		Cache:    CacheConfig{Backend: BackendFile},
		Server:   ServerConfig{Addr: ":8080"},
	}
}

// ConfigDir returns the graphlayout config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(ConfigDir(), fileName)
}

// Load reads the config file at path, or at [Path] when path is empty.
// A missing file yields the defaults; unknown keys are rejected.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeInvalidConfiguration, err, "read %s", path)
	}
	if err := Decode(data, cfg); err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeInvalidConfiguration, err, "parse %s", path)
	}
	return cfg, nil
}

// Decode merges TOML data into cfg.
func Decode(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return gerrors.New(gerrors.ErrCodeInvalidConfiguration, "unknown key %q", undecoded[0].String())
	}
	return nil
}

// Save writes cfg to path, or to [Path] when path is empty.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists(path string) error {
	if path == "" {
		path = Path()
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return Save(Default(), path)
}

// Options converts the configuration into pipeline options. Only the
// parameters of the selected algorithms are carried over; kinds registered
// outside this package get their registry defaults.
func (c *Config) Options() pipeline.Options {
	opts := pipeline.Options{
		Layout:        c.Layout.Algorithm,
		Overlap:       c.Overlap.Algorithm,
		Routing:       c.Routing.Algorithm,
		ParallelEdges: c.Routing.ParallelEdges,
	}

	switch c.Layout.Algorithm {
	case layout.KindRandom:
		opts.LayoutParams = c.Layout.Random
	case layout.KindKK:
		opts.LayoutParams = c.Layout.KK
	case layout.KindSugiyama:
		opts.LayoutParams = c.Layout.Sugiyama
	case layout.KindCompoundFDP:
		opts.LayoutParams = c.Layout.Compound
	}

	switch c.Overlap.Algorithm {
	case overlap.KindFSA:
		opts.OverlapParams = c.Overlap.FSA
	case overlap.KindOneWayFSA:
		opts.OverlapParams = c.Overlap.OneWay
	}

	switch c.Routing.Algorithm {
	case routing.KindSimple:
		opts.RoutingParams = c.Routing.Simple
	case routing.KindBundling:
		opts.RoutingParams = c.Routing.Bundling
	case routing.KindPathfinder:
		opts.RoutingParams = c.Routing.Pathfinder
	}

	loop := c.SelfLoop
	if loop.Offset == (geometry.Point{}) {
		loop.Offset = geometry.DefaultSelfLoopParams().Offset
	}
	opts.SelfLoop = &loop
	return opts
}

// Validate reports the first invalid setting for the selected algorithms.
func (c *Config) Validate() error {
	opts := c.Options()
	if err := opts.ValidateAndSetDefaults(nil); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone, "":
		return nil
	default:
		return gerrors.New(gerrors.ErrCodeInvalidConfiguration,
			"cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}
}

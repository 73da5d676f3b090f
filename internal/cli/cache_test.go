package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/graphlayout/pkg/cache"
	"github.com/matzehuels/graphlayout/pkg/config"
)

func testCLI() *CLI {
	return New(io.Discard, LogDebug)
}

// writeConfig saves cfg to a temporary file and points c at it.
func writeConfig(t *testing.T, c *CLI, cfg *config.Config) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	c.configPath = path
}

func TestCacheClearCommand(t *testing.T) {
	dir := t.TempDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, k := range []string{"x", "y", "z"} {
		if err := fc.Set(ctx, k, []byte(`{}`), 0); err != nil {
			t.Fatal(err)
		}
	}

	c := testCLI()
	cfg := config.Default()
	cfg.Cache.Dir = dir
	writeConfig(t, c, cfg)

	cmd := c.cacheCommand()
	cmd.SetArgs([]string{"clear"})
	cmd.SetOut(io.Discard)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("cache clear error = %v", err)
	}

	if _, ok, _ := fc.Get(ctx, "x"); ok {
		t.Error("entry still cached after cache clear")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("cache dir missing after cache clear: %v", err)
	}
}

func TestCacheClearSkipsRemoteBackend(t *testing.T) {
	c := testCLI()
	cfg := config.Default()
	cfg.Cache.Backend = config.BackendRedis
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "untouched")
	writeConfig(t, c, cfg)

	cmd := c.cacheCommand()
	cmd.SetArgs([]string{"clear"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("cache clear error = %v", err)
	}
	if _, err := os.Stat(cfg.Cache.Dir); !os.IsNotExist(err) {
		t.Errorf("cache clear touched the file cache for a redis backend")
	}
}

func TestNewCacheBackends(t *testing.T) {
	ctx := context.Background()
	c := testCLI()

	cfg := config.Default()
	cfg.Cache.Dir = t.TempDir()
	store, err := c.newCache(ctx, cfg, false)
	if err != nil {
		t.Fatalf("newCache(file) error = %v", err)
	}
	if _, ok := store.(*cache.FileCache); !ok {
		t.Errorf("newCache(file) = %T, want *cache.FileCache", store)
	}

	store, err = c.newCache(ctx, cfg, true)
	if err != nil {
		t.Fatalf("newCache(noCache) error = %v", err)
	}
	if _, ok := store.(*cache.FileCache); ok {
		t.Error("newCache(noCache) returned a file cache")
	}

	cfg.Cache.Backend = config.BackendNone
	store, err = c.newCache(ctx, cfg, false)
	if err != nil {
		t.Fatalf("newCache(none) error = %v", err)
	}
	if _, ok := store.(*cache.FileCache); ok {
		t.Error("newCache(none) returned a file cache")
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	root := testCLI().RootCommand()

	want := []string{"algorithms", "cache", "layout", "render", "serve"}
	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	for _, name := range want {
		found := false
		for _, g := range got {
			if g == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("RootCommand() subcommands = %s, missing %q", strings.Join(got, ", "), name)
		}
	}
}

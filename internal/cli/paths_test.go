package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/graphlayout/pkg/config"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	if !strings.HasPrefix(dir, home) {
		t.Errorf("cacheDir() = %q, should be under home %q", dir, home)
	}
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", customCache)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(customCache, appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestResolveCacheDir(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	cfg := config.Default()
	got, err := resolveCacheDir(cfg)
	if err != nil {
		t.Fatalf("resolveCacheDir() error: %v", err)
	}
	if want := filepath.Join(xdg, appName); got != want {
		t.Errorf("resolveCacheDir() = %q, want %q", got, want)
	}

	cfg.Cache.Dir = "/srv/layouts"
	if got, _ := resolveCacheDir(cfg); got != "/srv/layouts" {
		t.Errorf("resolveCacheDir() = %q, want configured dir", got)
	}
}

func TestConfigPathOr(t *testing.T) {
	if got := configPathOr("custom.toml"); got != "custom.toml" {
		t.Errorf("configPathOr() = %q, want %q", got, "custom.toml")
	}
	if got := configPathOr(""); got != config.Path() {
		t.Errorf("configPathOr(\"\") = %q, want %q", got, config.Path())
	}
}

package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cursor2d/cursor2d/internal/config"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	custom := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", custom)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(custom, appName); dir != want {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, want)
	}
}

func TestFileCacheDirFromConfig(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/xdg")

	cfg := config.Default()
	dir, err := fileCacheDir(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/xdg", appName) {
		t.Errorf("fileCacheDir() = %q", dir)
	}

	cfg.Cache.Dir = "/var/cache/c2d"
	if dir, _ := fileCacheDir(cfg); dir != "/var/cache/c2d" {
		t.Errorf("fileCacheDir() = %q, want cache.dir", dir)
	}
}

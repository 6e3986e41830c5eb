package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestScriptWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "scene.py")
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(watched, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := newScriptWatcher([]string{watched}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("newScriptWatcher() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changed := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.run(ctx, func(p string) { changed <- p })
	}()

	// Two quick writes settle into one notification.
	if err := os.WriteFile(other, []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(watched, []byte("x = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(watched, []byte("x = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	want, _ := filepath.Abs(watched)
	select {
	case got := <-changed:
		if got != want {
			t.Errorf("changed path = %q, want %q", got, want)
		}
	case <-ctx.Done():
		t.Fatal("no change reported")
	}

	select {
	case got := <-changed:
		t.Errorf("unexpected second change %q", got)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("run() error = %v", err)
	}
}

func TestScriptWatcherMissingDir(t *testing.T) {
	_, err := newScriptWatcher([]string{filepath.Join(t.TempDir(), "gone", "a.py")}, time.Millisecond)
	if err == nil {
		t.Fatal("expected error for a missing directory")
	}
}

func TestSettledWaitsForQuiet(t *testing.T) {
	sw := &scriptWatcher{debounce: time.Second, pending: map[string]time.Time{}}
	now := time.Now()
	sw.pending["/a"] = now.Add(-2 * time.Second)
	sw.pending["/b"] = now

	got := sw.settled(now)
	if len(got) != 1 || got[0] != "/a" {
		t.Errorf("settled() = %v, want [/a]", got)
	}
	if _, ok := sw.pending["/b"]; !ok {
		t.Error("recent change dropped")
	}
}

package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// scriptWatcher reports settled changes to a fixed set of script files.
//
// Parent directories are watched rather than the files so that editors which
// save by rename-and-replace keep triggering events.
type scriptWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
}

func newScriptWatcher(paths []string, debounce time.Duration) (*scriptWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	sw := &scriptWatcher{
		watcher:  w,
		files:    make(map[string]bool),
		debounce: debounce,
		pending:  make(map[string]time.Time),
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, err
		}
		sw.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return sw, nil
}

// run calls onChange with the absolute path of each changed script once it
// has been quiet for the debounce window. It returns when ctx is done.
func (sw *scriptWatcher) run(ctx context.Context, onChange func(path string)) error {
	defer sw.watcher.Close()
	logger := loggerFromContext(ctx)

	tick := sw.debounce / 3
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-sw.watcher.Events:
			if !ok {
				return nil
			}
			sw.handle(ev)

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)

		case <-ticker.C:
			for _, p := range sw.settled(time.Now()) {
				onChange(p)
			}
		}
	}
}

func (sw *scriptWatcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil || !sw.files[name] {
		return
	}
	sw.mu.Lock()
	sw.pending[name] = time.Now()
	sw.mu.Unlock()
}

func (sw *scriptWatcher) settled(now time.Time) []string {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	var out []string
	for p, at := range sw.pending {
		if now.Sub(at) >= sw.debounce {
			out = append(out, p)
			delete(sw.pending, p)
		}
	}
	return out
}

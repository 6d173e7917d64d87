// Package watch re-triggers a compression whenever its source path
// changes on disk, debouncing bursts of events (editors routinely emit
// several writes per save) into a single re-run.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the default quiet period before a burst of events
// triggers one re-run.
const DefaultDebounce = 150 * time.Millisecond

// Watcher watches a single path and calls OnChange, debounced, whenever
// fsnotify reports a write/create/rename for it.
type Watcher struct {
	fsw      *fsnotify.Watcher
	path     string
	debounce time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	timer *time.Timer

	onChange func()
}

// New builds a Watcher for path with the given debounce window.
// debounce <= 0 uses DefaultDebounce. logger may be nil.
func New(path string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %q: %w", path, err)
	}
	return &Watcher{fsw: fsw, path: path, debounce: debounce, logger: logger}, nil
}

// Run blocks, calling onChange (debounced) on every relevant event,
// until ctx is cancelled. It then closes the underlying fsnotify
// watcher and returns.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	w.onChange = onChange
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			w.scheduleFire()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "path", w.path, "error", err)
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// scheduleFire resets the debounce timer, collapsing a burst of events
// into one onChange call after the quiet period.
func (w *Watcher) scheduleFire() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

// Package reload watches the data store for changes and triggers the
// engine's quiesce-and-swap reload.
package reload

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the event bursts a bulk import produces into
// a single reload.
const debounceDelay = 2 * time.Second

// Watcher triggers a reload callback when the watched file changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	reload    func(ctx context.Context) error
}

// NewWatcher watches the given file (via its parent directory, so the
// watch survives file replacement) and invokes reload after changes
// settle.
func NewWatcher(path string, reload func(ctx context.Context) error) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fsWatcher.Add(dir); err != nil {
		if closeErr := fsWatcher.Close(); closeErr != nil {
			log.Printf("[Reload] Error closing watcher: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		path:      filepath.Clean(path),
		reload:    reload,
	}, nil
}

// Run processes file events until the context is canceled. Reload
// failures are logged and the previous snapshot stays in service.
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceDelay)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceDelay)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			log.Printf("[Reload] Data store changed, reloading engine...")
			if err := w.reload(ctx); err != nil {
				log.Printf("[Reload] Reload failed, keeping previous snapshot: %v", err)
			} else {
				log.Printf("[Reload] Engine reloaded")
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("[Reload] Watcher error: %v", err)
		}
	}
}

// Close stops the underlying file watcher.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

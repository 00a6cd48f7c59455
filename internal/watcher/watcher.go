// Package watcher provides debounced file system watching for graph documents.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/nodegraph/internal/log"
)

// Watcher monitors graph document files and reports the ones that changed.
// Editors and document.SaveFile replace files by renaming a temp file over
// them, so the parent directories are watched rather than the files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	paths     map[string]struct{}
	debounce  time.Duration
	onChange  chan string
	done      chan struct{}
	stopOnce  sync.Once
}

// Config holds watcher configuration options.
type Config struct {
	Paths       []string
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for watching paths.
func DefaultConfig(paths ...string) Config {
	return Config{
		Paths:       paths,
		DebounceDur: 100 * time.Millisecond,
	}
}

// New creates a new document watcher.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	paths := make(map[string]struct{}, len(cfg.Paths))
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		paths[abs] = struct{}{}
	}

	return &Watcher{
		fsWatcher: fsw,
		paths:     paths,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan string, len(paths)),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the directories of every path.
// Returns a channel that receives the absolute path of each changed file,
// once per debounce window.
func (w *Watcher) Start() (<-chan string, error) {
	dirs := make(map[string]struct{})
	for p := range w.paths {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
		log.Debug(log.CatWatcher, "Watching directory", "dir", dir)
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources. Stopping twice is safe.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	return err
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var timer *time.Timer
	pending := make(map[string]struct{})

	for {
		var fire <-chan time.Time
		if timer != nil {
			fire = timer.C
		}

		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			path, relevant := w.relevantPath(event)
			if !relevant {
				continue
			}
			pending[path] = struct{}{}

			// Reset or start debounce timer
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-fire:
			timer = nil
			for path := range pending {
				// Non-blocking send - the reader still has this path queued
				select {
				case w.onChange <- path:
				default:
				}
				delete(pending, path)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "File watcher error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// relevantPath reports whether the event touches a watched file.
func (w *Watcher) relevantPath(event fsnotify.Event) (string, bool) {
	// Atomic saves show up as Create of the target
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return "", false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return "", false
	}
	if _, ok := w.paths[abs]; !ok {
		return "", false
	}
	return abs, true
}

// Package configwatch reloads the engine configuration when its source
// files change on disk.
//
// The watcher tracks the parent directories of the reported paths rather
// than the files themselves: editors typically replace config files via
// rename, which would silently detach a file-level watch. After each
// successful reload the watcher is rearmed with the path set of the new
// configuration.
package configwatch

import (
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// newFsWatcherFn is a test seam.
var newFsWatcherFn = fsnotify.NewWatcher

// Source exposes the config paths to watch and the reload to trigger.
// *session.Session satisfies it.
type Source interface {
	// ConfigPaths returns the files the active configuration was loaded
	// from.
	ConfigPaths() []string

	// Reload loads a fresh configuration and makes it active.
	Reload() error
}

// Watcher debounces file change events into configuration reloads.
type Watcher struct {
	source   Source
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	watched map[string]struct{} // absolute file paths being tracked
	timer   *time.Timer
	closed  bool

	done chan struct{}
	wg   sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over source's current config paths and starts its
// event loop. Close must be called to release the underlying OS watches.
func New(source Source, opts ...Option) (*Watcher, error) {
	if source == nil {
		return nil, errors.New("configwatch: source is required")
	}
	fsw, err := newFsWatcherFn()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		source:   source,
		debounce: defaultDebounce,
		watcher:  fsw,
		watched:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.rearm(source.ConfigPaths())

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// rearm replaces the tracked path set. Watch failures are logged and
// skipped; a path that cannot be watched simply does not trigger reloads.
func (w *Watcher) rearm(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	for dir := range watchedDirs(w.watched) {
		if err := w.watcher.Remove(dir); err != nil {
			slog.Debug("[configwatch] failed to remove watch", "dir", dir, "error", err)
		}
	}
	w.watched = make(map[string]struct{}, len(paths))

	dirs := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			slog.Warn("[configwatch] skipping unresolvable config path", "path", path, "error", err)
			continue
		}
		w.watched[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			slog.Warn("[configwatch] failed to watch config directory", "dir", dir, "error", err)
		}
	}
	slog.Debug("[configwatch] armed", "files", len(w.watched), "dirs", len(dirs))
}

func watchedDirs(files map[string]struct{}) map[string]struct{} {
	dirs := make(map[string]struct{}, len(files))
	for f := range files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	return dirs
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("[configwatch] watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	_, tracked := w.watched[abs]
	if tracked && !w.closed {
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timer = time.AfterFunc(w.debounce, w.fire)
	}
	w.mu.Unlock()

	if tracked {
		slog.Debug("[configwatch] change detected", "path", abs, "op", event.Op.String())
	}
}

// fire runs the debounced reload. On success the watcher is rearmed with
// the new configuration's path set; on failure the previous watch set stays
// in place so a later fix retriggers the reload.
func (w *Watcher) fire() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	if err := w.source.Reload(); err != nil {
		slog.Warn("[configwatch] reload failed", "error", err)
		return
	}
	w.rearm(w.source.ConfigPaths())
}

// Close stops the watcher and releases its OS watches. Safe to call more
// than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	close(w.done)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

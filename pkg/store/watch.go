package store

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Event is a notification sent to watcher subscribers.
type Event any

type (
	// EventReload carries a freshly loaded snapshot.
	EventReload struct {
		Store *Store
	}
	// EventError reports a failed reload. The previous snapshot remains
	// valid.
	EventError struct {
		Err error
	}
)

// Watcher watches rule directories and rebuilds the snapshot on changes.
// Subscribers always receive complete snapshots, never partial state.
type Watcher struct {
	watcher   *fsnotify.Watcher
	loader    *Loader
	dirs      []string
	listeners []chan<- Event
	mu        sync.Mutex
}

// NewWatcher creates a [Watcher] over the given rule directories, watching
// each directory tree recursively.
func NewWatcher(loader *Loader, dirs ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher: fw,
		loader:  loader,
		dirs:    dirs,
	}

	for _, dir := range dirs {
		err := w.watchTree(dir)
		if err != nil {
			_ = fw.Close()

			return nil, err
		}
	}

	return w, nil
}

// Subscribe registers a channel to receive [Event] notifications.
func (w *Watcher) Subscribe(ch chan<- Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.listeners = append(w.listeners, ch)
}

// Watch blocks, rebuilding and broadcasting snapshots as rule files change,
// until ctx is canceled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			w.handleEvent(ctx, evt)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			w.broadcast(EventError{Err: err})
		}
	}
}

// Close stops the watcher. Pending events are discarded.
func (w *Watcher) Close() error {
	return w.watcher.Close() //nolint:wrapcheck // Return the original error.
}

func (w *Watcher) handleEvent(ctx context.Context, evt fsnotify.Event) {
	if evt.Has(fsnotify.Chmod) {
		return
	}

	if evt.Has(fsnotify.Create) {
		// New subdirectories need their own watches.
		err := w.watchTree(evt.Name)
		if err != nil {
			slog.Debug("watch new path",
				slog.String("path", evt.Name),
				slog.Any("error", err),
			)
		}
	}

	if !w.relevant(evt) {
		return
	}

	slog.Debug("rule directory changed",
		slog.String("path", evt.Name),
		slog.String("op", evt.Op.String()),
	)

	st, err := w.loader.Load(ctx, w.dirs...)
	if err != nil {
		w.broadcast(EventError{Err: err})

		return
	}

	w.broadcast(EventReload{Store: st})
}

// relevant reports whether the event concerns a rule document or removes a
// watched directory.
func (w *Watcher) relevant(evt fsnotify.Event) bool {
	if w.loader.recognized(filepath.ToSlash(evt.Name)) {
		return true
	}

	// Directory removals and renames can take documents with them.
	return evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename)
}

// broadcast sends the event to all listeners.
func (w *Watcher) broadcast(evt Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, ch := range w.listeners {
		ch <- evt
	}
}

// watchTree adds watches for path and every directory below it. fsnotify
// watches are not recursive.
func (w *Watcher) watchTree(path string) error {
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		return w.watcher.Add(p) //nolint:wrapcheck // Return the original error.
	})
	if err != nil {
		return fmt.Errorf("watch %q: %w", path, err)
	}

	return nil
}

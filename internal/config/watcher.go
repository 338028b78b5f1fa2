package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"keel/pkg/logging"
)

// ChangeOperation describes what happened to the manifest file.
type ChangeOperation string

const (
	OperationWrite  ChangeOperation = "write"
	OperationRemove ChangeOperation = "remove"
)

// ManifestChange is emitted once per debounced burst of file events.
type ManifestChange struct {
	Path      string
	Operation ChangeOperation
	Timestamp time.Time
}

// ManifestWatcher watches the manifest file for changes.
//
// The parent directory is watched rather than the file itself so that
// editors which replace the file through a rename are still observed.
type ManifestWatcher struct {
	mu sync.Mutex

	// path is the absolute manifest path
	path string

	watcher          *fsnotify.Watcher
	debounceInterval time.Duration

	// pending holds the change waiting for its debounce timer
	pending *ManifestChange
	timer   *time.Timer

	stopCh  chan struct{}
	running bool
}

// NewManifestWatcher creates a watcher for the manifest at path.
func NewManifestWatcher(path string, debounceInterval time.Duration) *ManifestWatcher {
	if debounceInterval == 0 {
		debounceInterval = 500 * time.Millisecond
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &ManifestWatcher{
		path:             path,
		debounceInterval: debounceInterval,
		stopCh:           make(chan struct{}),
	}
}

// Path returns the watched manifest path.
func (w *ManifestWatcher) Path() string {
	return w.path
}

// Start begins watching. Changes are sent on changes without blocking; a
// full channel drops the notification.
func (w *ManifestWatcher) Start(ctx context.Context, changes chan<- ManifestChange) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return err
	}

	w.watcher = watcher
	w.running = true
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	go w.processEvents(ctx, watcher, changes)

	logging.Info("ManifestWatcher", "Started watching %s", w.path)
	return nil
}

func (w *ManifestWatcher) processEvents(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- ManifestChange) {
	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return

		case <-w.stopCh:
			w.cancelPending()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event, changes)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("ManifestWatcher", err, "Filesystem watcher error")
		}
	}
}

func (w *ManifestWatcher) handleFsEvent(event fsnotify.Event, changes chan<- ManifestChange) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var operation ChangeOperation
	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		operation = OperationWrite
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		operation = OperationRemove
	default:
		return
	}

	w.debounce(ManifestChange{
		Path:      w.path,
		Operation: operation,
		Timestamp: time.Now(),
	}, changes)
}

// debounce coalesces a burst of events into the last one observed.
func (w *ManifestWatcher) debounce(change ManifestChange, changes chan<- ManifestChange) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = &change
	w.timer = time.AfterFunc(w.debounceInterval, func() {
		w.mu.Lock()
		pending := w.pending
		w.pending = nil
		w.mu.Unlock()

		if pending == nil {
			return
		}
		select {
		case changes <- *pending:
			logging.Debug("ManifestWatcher", "Emitted %s change for %s", pending.Operation, pending.Path)
		default:
			logging.Warn("ManifestWatcher", "Change channel full, dropping %s change for %s", pending.Operation, pending.Path)
		}
	})
}

func (w *ManifestWatcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = nil
}

// Stop gracefully stops the watcher.
func (w *ManifestWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	if w.watcher != nil {
		if err := w.watcher.Close(); err != nil {
			logging.Error("ManifestWatcher", err, "Error closing filesystem watcher")
		}
		w.watcher = nil
	}

	logging.Info("ManifestWatcher", "Stopped watching %s", w.path)
	return nil
}

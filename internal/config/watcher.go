package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a configuration file when it changes and hands the fresh
// value to every registered handler.
//
// The parent directory is watched rather than the file, so editors that save
// by renaming a temporary file over the original are still seen.
type Watcher[T any] struct {
	path     string
	debounce time.Duration
	loader   func(path string) (T, error)
	onError  func(error)
	logger   *slog.Logger

	mu       sync.Mutex
	handlers map[int]func(T)
	nextID   int

	watcher *fsnotify.Watcher
	done    chan struct{}
	stopped sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption[T any] func(*Watcher[T])

// WithDebounce sets how long the file must be quiet before reloading.
// Default is 500ms.
func WithDebounce[T any](d time.Duration) WatcherOption[T] {
	return func(w *Watcher[T]) {
		w.debounce = d
	}
}

// WithErrorHandler sets a callback for reload errors. If not set, errors
// are only logged.
func WithErrorHandler[T any](handler func(error)) WatcherOption[T] {
	return func(w *Watcher[T]) {
		w.onError = handler
	}
}

// NewConfigWatcher creates a watcher for path. loader runs on every change.
func NewConfigWatcher[T any](
	path string,
	loader func(path string) (T, error),
	logger *slog.Logger,
	opts ...WatcherOption[T],
) *Watcher[T] {
	w := &Watcher[T]{
		path:     filepath.Clean(path),
		debounce: 500 * time.Millisecond,
		loader:   loader,
		logger:   logger,
		handlers: make(map[int]func(T)),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// OnReload registers handler and returns a function that removes it.
func (w *Watcher[T]) OnReload(handler func(T)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.handlers[id] = handler
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.handlers, id)
		w.mu.Unlock()
	}
}

// Start begins watching. The directory holding the file must exist.
func (w *Watcher[T]) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher

	w.logger.Info("Config watcher started", "path", w.path, "debounce", w.debounce)
	w.stopped.Add(1)
	go w.watch()
	return nil
}

// Stop ends watching and waits for a pending reload to finish.
func (w *Watcher[T]) Stop() error {
	select {
	case <-w.done:
		return nil
	default:
		close(w.done)
	}
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.stopped.Wait()
	return err
}

func (w *Watcher[T]) watch() {
	defer w.stopped.Done()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			w.logger.Debug("Config watcher stopped")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("Config file change detected", "op", event.Op.String())
			timer.Reset(w.debounce)

		case <-timer.C:
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Config watcher error", "error", err)
		}
	}
}

func (w *Watcher[T]) reload() {
	cfg, err := w.loader(w.path)
	if err != nil {
		w.logger.Warn("Failed to reload config", "path", w.path, "error", err)
		if w.onError != nil {
			w.onError(err)
		}
		return
	}

	w.mu.Lock()
	handlers := make([]func(T), 0, len(w.handlers))
	for _, h := range w.handlers {
		handlers = append(handlers, h)
	}
	w.mu.Unlock()

	w.logger.Info("Config reloaded", "path", w.path)
	for _, h := range handlers {
		h(cfg)
	}
}

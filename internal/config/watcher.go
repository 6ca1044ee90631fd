package config

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a typed settings file when it changes on disk. The loader
// runs fresh on every change so handlers never see a stale snapshot, and
// rapid write bursts (editor saves, scripted rewrites) are debounced into a
// single delivery of the settled file.
type Watcher[T any] struct {
	path     string
	loader   func(path string) (T, error)
	debounce time.Duration
	onError  func(error)
	logger   *slog.Logger

	mu       sync.RWMutex
	handlers []func(T)

	fsw    *fsnotify.Watcher
	ctx    context.Context
	cancel context.CancelFunc
}

// WatcherOption configures a Watcher.
type WatcherOption[T any] func(*Watcher[T])

// WithDebounce overrides the settle window for change bursts.
func WithDebounce[T any](d time.Duration) WatcherOption[T] {
	return func(w *Watcher[T]) { w.debounce = d }
}

// WithErrorHandler routes loader failures to a callback in addition to the
// log, so callers can surface a broken settings file.
func WithErrorHandler[T any](handler func(error)) WatcherOption[T] {
	return func(w *Watcher[T]) { w.onError = handler }
}

// NewConfigWatcher pairs a settings file with its loader. Nothing is watched
// until Start.
func NewConfigWatcher[T any](
	path string,
	loader func(path string) (T, error),
	logger *slog.Logger,
	opts ...WatcherOption[T],
) *Watcher[T] {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher[T]{
		path:     path,
		loader:   loader,
		debounce: 1500 * time.Millisecond,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// OnReload registers a handler for reloaded settings. The returned function
// removes the handler; it is safe to call concurrently with deliveries.
func (w *Watcher[T]) OnReload(handler func(T)) func() {
	w.mu.Lock()
	w.handlers = append(w.handlers, handler)
	idx := len(w.handlers) - 1
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if idx < len(w.handlers) {
			w.handlers[idx] = nil
		}
	}
}

// Start begins watching the file and launches the delivery goroutine.
func (w *Watcher[T]) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.path); err != nil {
		fsw.Close()
		return err
	}
	w.fsw = fsw

	w.logger.Info("Watching settings file", "path", w.path, "debounce", w.debounce)
	go w.run()
	return nil
}

// Stop ends watching. Pending debounced deliveries are discarded.
func (w *Watcher[T]) Stop() error {
	w.cancel()
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func (w *Watcher[T]) run() {
	var settle *time.Timer
	var settled <-chan time.Time

	for {
		select {
		case <-w.ctx.Done():
			if settle != nil {
				settle.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// Write covers in-place edits; Create covers editors that
			// replace the file. Each event restarts the settle window.
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if settle != nil {
					settle.Stop()
				}
				settle = time.NewTimer(w.debounce)
				settled = settle.C
			}

		case <-settled:
			settled = nil
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Settings watch error", "error", err)
		}
	}
}

// reload runs the loader and fans the result out to every live handler.
func (w *Watcher[T]) reload() {
	settings, err := w.loader(w.path)
	if err != nil {
		w.logger.Warn("Settings file changed but failed to load", "path", w.path, "error", err)
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	w.logger.Info("Settings reloaded", "path", w.path)

	w.mu.RLock()
	handlers := make([]func(T), 0, len(w.handlers))
	for _, h := range w.handlers {
		if h != nil {
			handlers = append(handlers, h)
		}
	}
	w.mu.RUnlock()

	for _, handler := range handlers {
		handler(settings)
	}
}

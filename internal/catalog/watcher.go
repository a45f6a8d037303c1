package catalog

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads the static catalog when its file changes on disk.
// Reload failures are logged and swallowed; the previous catalog stays
// active.
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher
	done    chan struct{}
	logger  *zap.Logger
}

// NewWatcher starts watching the store's static catalog file. Returns an
// error when the store was built from embedded defaults (nothing to watch).
func NewWatcher(store *Store, logger *zap.Logger) (*Watcher, error) {
	if store.path == "" {
		return nil, fmt.Errorf("catalog store has no static file to watch")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	if err := fw.Add(store.path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch catalog file: %w", err)
	}

	w := &Watcher{
		store:   store,
		watcher: fw,
		done:    make(chan struct{}),
		logger:  logger,
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := w.store.Reload(); err != nil {
				w.logger.Warn("catalog reload failed", zap.Error(err))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("catalog watcher error", zap.Error(err))
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

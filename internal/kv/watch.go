package kv

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reports keys of a FileBackend whose files were changed by
// another process. Writes made through the backend itself are skipped.
type Watcher struct {
	backend  *FileBackend
	fsw      *fsnotify.Watcher
	logger   *logrus.Logger
	debounce time.Duration

	pendingMu sync.Mutex
	pending   map[string]struct{}

	changes chan string
}

// NewWatcher creates a watcher on the backend's data directory
func NewWatcher(backend *FileBackend, debounce time.Duration, logger *logrus.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		backend:  backend,
		fsw:      fsw,
		logger:   logger,
		debounce: debounce,
		pending:  make(map[string]struct{}),
		changes:  make(chan string, 64),
	}, nil
}

// Changes returns the channel of changed keys. It is closed when the
// watcher stops.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Start begins watching until ctx is done or Stop is called
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(w.backend.Dir()); err != nil {
		return err
	}
	go w.processEvents(ctx)

	w.logger.WithFields(logrus.Fields{
		"dir":      w.backend.Dir(),
		"debounce": w.debounce,
	}).Info("Storage watcher started")
	return nil
}

// Stop closes the underlying fsnotify watcher
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.changes)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("Storage watcher error")

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	key, ok := w.backend.keyFor(event.Name)
	if !ok {
		return
	}
	w.pendingMu.Lock()
	w.pending[key] = struct{}{}
	w.pendingMu.Unlock()
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	for key := range toProcess {
		path, err := w.backend.pathFor(key)
		if err != nil {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				w.logger.WithError(err).WithField("key", key).Warn("Failed to read changed file")
			}
			continue
		}

		newHash := contentHash(content)
		if oldHash, ok := w.backend.hash(key); ok && oldHash == newHash {
			continue
		}
		w.backend.setHash(key, newHash)

		select {
		case w.changes <- key:
			w.logger.WithField("key", key).Debug("External storage change detected")
		case <-ctx.Done():
			return
		default:
			w.logger.WithField("key", key).Warn("Storage change dropped, channel full")
		}
	}
}

// Package watcher reloads the legal article corpus when its files change.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// corpusExtensions are the file types the corpus loader understands.
var corpusExtensions = []string{".json", ".xlsx", ".md", ".txt"}

// Watcher watches the corpus path and invokes onReload after changes settle.
// Any change triggers one whole-corpus reload; articles are not reloaded
// individually, the loader always reads the full set.
type Watcher struct {
	path     string
	onReload func()
	debounce time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
	done    chan struct{}
	started bool
}

// New creates a watcher for the given corpus path. path may be a single
// corpus file or a directory of corpus files.
func New(path string, onReload func(), logger *zap.Logger) *Watcher {
	return &Watcher{
		path:     path,
		onReload: onReload,
		debounce: defaultDebounce,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins watching. It returns immediately; events are processed on a
// background goroutine until Stop is called.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// fsnotify watches directories; for a single corpus file, watch its
	// parent so editor rename-and-replace saves are still seen.
	watchDir := w.path
	if info, err := os.Stat(w.path); err == nil && !info.IsDir() {
		watchDir = filepath.Dir(w.path)
	}
	if err := fw.Add(watchDir); err != nil {
		_ = fw.Close()
		return err
	}

	w.watcher = fw
	w.started = true
	w.logger.Info("watching corpus for changes",
		zap.String("path", w.path),
		zap.Duration("debounce", w.debounce))

	go w.run()
	return nil
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("corpus watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return
	}
	if !w.relevant(ev.Name) {
		return
	}
	w.logger.Debug("corpus file changed",
		zap.String("op", ev.Op.String()),
		zap.String("path", ev.Name))
	w.scheduleReload()
}

// relevant reports whether a change to path should trigger a reload. When
// watching a single file, only that file counts; when watching a directory,
// any file with a corpus extension counts.
func (w *Watcher) relevant(path string) bool {
	if filepath.Clean(path) == filepath.Clean(w.path) {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range corpusExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// scheduleReload coalesces bursts of events into one reload. A multi-file
// corpus update fires many events in quick succession; the index should
// rebuild once, after the last one.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.logger.Info("corpus changed, reloading")
		w.onReload()
	})
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	close(w.done)
}

package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hidrotec/water-metering-worker/internal/recognition"
)

// Dispatch hands one qualifying image file to the ingestion pipeline.
type Dispatch func(ctx context.Context, path string) error

// Watcher monitors one directory for meter photo uploads. Each qualifying
// file is dispatched exactly once per content change: an initial sweep covers
// files already present, then filesystem events drive detection. One
// background worker exists per running watcher; files are dispatched one at
// a time, in event order.
type Watcher struct {
	logger   *zap.Logger
	dispatch Dispatch
	settle   time.Duration

	mu      sync.Mutex // guards lifecycle fields below
	dir     string
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	processedMu sync.Mutex
	processed   map[string]struct{}
}

// New creates a stopped watcher. settle is the pause between detecting a
// file event and reading the file, so a writer can finish.
func New(logger *zap.Logger, dispatch Dispatch, settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = 1500 * time.Millisecond
	}
	return &Watcher{
		logger:    logger,
		dispatch:  dispatch,
		settle:    settle,
		processed: make(map[string]struct{}),
	}
}

// SetDirectory configures the directory to monitor. Takes effect on the next
// Start; callers serialize SetDirectory/Start/Stop among themselves.
func (w *Watcher) SetDirectory(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dir = dir
}

// Directory returns the configured watch directory.
func (w *Watcher) Directory() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir
}

// Running reports whether the background worker is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Start launches the background worker. A no-op when already running. A
// missing or unconfigured directory is logged and left non-fatal so the
// caller can reconfigure and start again.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	dir := w.dir
	if dir == "" {
		w.logger.Warn("no watch directory configured, monitoring not started")
		return nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		w.logger.Error("watch directory not found, monitoring not started",
			zap.String("directory", dir))
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.loop(ctx, dir, fsw)

	w.logger.Info("directory monitoring started", zap.String("directory", dir))
	return nil
}

// Stop signals the worker to exit and waits for it. An in-flight dispatch is
// allowed to finish; no new files are dispatched afterwards. The processed
// set is retained so a restart within the same run does not re-dispatch
// unchanged files.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
	w.logger.Info("directory monitoring stopped")
}

func (w *Watcher) loop(ctx context.Context, dir string, fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	defer fsw.Close()

	w.sweep(ctx, dir)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				w.logger.Warn("filesystem event stream closed, stopping watcher")
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !recognition.IsImageFile(event.Name) {
				continue
			}
			// Let the writer finish before reading the file.
			time.Sleep(w.settle)
			w.process(event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				w.logger.Warn("filesystem error stream closed, stopping watcher")
				return
			}
			w.logger.Error("filesystem watch error", zap.Error(err))
		}
	}
}

// sweep dispatches every qualifying file already present in the directory
// and not yet in the processed set.
func (w *Watcher) sweep(ctx context.Context, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.Error("failed to enumerate existing files", zap.Error(err))
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !recognition.IsImageFile(path) {
			continue
		}

		w.processedMu.Lock()
		if _, done := w.processed[path]; done {
			w.processedMu.Unlock()
			continue
		}
		w.dispatchLocked(path)
		w.processedMu.Unlock()
	}
}

// process handles one create-or-modify event. The path is evicted from the
// processed set first so a file that changed again is reprocessed.
func (w *Watcher) process(path string) {
	w.processedMu.Lock()
	defer w.processedMu.Unlock()

	delete(w.processed, path)
	w.dispatchLocked(path)
}

// dispatchLocked runs the dispatch callback and marks the path processed.
// Callers hold processedMu, which keeps the sweep and the event loop from
// double-dispatching the same file. The dispatch context is detached from
// the stop signal: cancellation only stops new files from being picked up,
// while the one in flight runs to completion and Stop drains it through
// wg.Wait.
func (w *Watcher) dispatchLocked(path string) {
	if err := w.dispatch(context.Background(), path); err != nil {
		w.logger.Error("failed to process file",
			zap.String("file", path),
			zap.Error(err))
	}
	w.processed[path] = struct{}{}
}

package tle

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads a Loader's file whenever it changes on disk. The parent
// directory is watched so editors that replace the file by rename are seen.
type Watcher struct {
	loader   *Loader
	logger   *slog.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatcher creates a watcher for loader's file. Call Run to start it.
func NewWatcher(loader *Loader, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(loader.File())); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(loader.File()), err)
	}
	return &Watcher{
		loader:   loader,
		logger:   logger,
		debounce: defaultDebounce,
		watcher:  fw,
	}, nil
}

// Run processes file events until ctx is cancelled. Bursts of writes within
// the debounce window collapse into a single reload.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	target := filepath.Clean(w.loader.File())
	var pending time.Time
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < w.debounce {
				continue
			}
			pending = time.Time{}
			if _, err := w.loader.LoadFile(); err != nil {
				w.logger.Warn("TLE reload failed, keeping current dataset", "component", "tle", "file", target, "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "component", "tle", "error", err)
		}
	}
}

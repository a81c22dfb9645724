package tle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Loader fills a Store from a remote source, a local file, or the snapshot
// cache, in that order of preference. Loads are serialised; readers of the
// Store are never blocked.
type Loader struct {
	store   *Store
	file    string
	fetcher *Fetcher
	cache   *Cache
	logger  *slog.Logger
	now     func() time.Time

	mu sync.Mutex
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFetcher enables downloading elements before falling back to the file.
func WithFetcher(f *Fetcher) LoaderOption {
	return func(l *Loader) { l.fetcher = f }
}

// WithCache keeps snapshots of fetched data and uses them as a last resort.
func WithCache(c *Cache) LoaderOption {
	return func(l *Loader) { l.cache = c }
}

// NewLoader creates a Loader that reads file and publishes into store.
func NewLoader(store *Store, file string, logger *slog.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		store:  store,
		file:   file,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// File returns the local element file path.
func (l *Loader) File() string {
	return l.file
}

// Store returns the store the loader publishes into.
func (l *Loader) Store() *Store {
	return l.store
}

// Load refreshes the store from the best available source. The current
// dataset is left untouched when every source fails.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	if l.fetcher != nil {
		ds, err := l.loadRemote(ctx)
		if err == nil {
			return ds, nil
		}
		l.logger.Warn("TLE fetch failed, falling back", "component", "tle", "url", l.fetcher.SourceURL(), "error", err)
		errs = append(errs, err)
	}

	if l.file != "" {
		ds, err := l.loadFile()
		if err == nil {
			return ds, nil
		}
		errs = append(errs, err)
	}

	if l.cache != nil {
		data, ts, err := l.cache.LoadLatest()
		if err == nil {
			var ds *Dataset
			if ds, err = l.publish("cache", ts, data); err == nil {
				return ds, nil
			}
		}
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}

	if len(errs) == 0 {
		return nil, ErrNoDataset
	}
	return nil, errors.Join(errs...)
}

// LoadFile reloads the store from the local file only.
func (l *Loader) LoadFile() (*Dataset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadFile()
}

func (l *Loader) loadFile() (*Dataset, error) {
	data, err := os.ReadFile(l.file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", l.file, err)
	}
	return l.publish(l.file, l.now(), data)
}

func (l *Loader) loadRemote(ctx context.Context) (*Dataset, error) {
	data, err := l.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	now := l.now()
	ds, err := l.publish(l.fetcher.SourceURL(), now, data)
	if err != nil {
		return nil, err
	}
	if l.cache != nil {
		if err := l.cache.Write(data, now); err != nil {
			l.logger.Warn("failed to write TLE snapshot", "component", "tle", "error", err)
		}
	}
	return ds, nil
}

// publish parses data and swaps it into the store. An empty result never
// replaces a loaded dataset.
func (l *Loader) publish(source string, ts time.Time, data []byte) (*Dataset, error) {
	entries, err := Parse(bytes.NewReader(data), l.logger)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrEmpty)
	}

	ds := NewDataset(source, ts, entries)
	l.store.Set(ds)
	l.logger.Info("loaded TLE dataset",
		"component", "tle",
		"source", source,
		"count", len(entries),
		"epoch_min", ds.EpochRange.Min.Format(time.RFC3339),
		"epoch_max", ds.EpochRange.Max.Format(time.RFC3339),
	)
	return ds, nil
}

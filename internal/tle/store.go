package tle

import (
	"sync/atomic"
	"time"

	"github.com/Benjamin-Hogan/Launch-Calculator/internal/metrics"
)

// Store provides lock-free read access to the current dataset. Readers
// always see a complete dataset; reloads swap the pointer.
type Store struct {
	dataset atomic.Pointer[Dataset]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current dataset, or nil if none has been loaded.
func (s *Store) Get() *Dataset {
	return s.dataset.Load()
}

// Set atomically replaces the current dataset.
func (s *Store) Set(ds *Dataset) {
	s.dataset.Store(ds)
	metrics.SetTLEDatasetSize(len(ds.Satellites))
}

// AgeSeconds returns the age of the current dataset in seconds, or -1 if
// none is loaded.
func (s *Store) AgeSeconds() float64 {
	ds := s.dataset.Load()
	if ds == nil {
		return -1
	}
	return time.Since(ds.LoadedAt).Seconds()
}

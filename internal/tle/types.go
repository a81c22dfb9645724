package tle

import (
	"errors"
	"time"
)

var (
	// ErrNoDataset is returned when no TLE dataset has been loaded yet.
	ErrNoDataset = errors.New("no TLE dataset loaded")
	// ErrEmpty is returned when a source parses to zero satellites.
	ErrEmpty = errors.New("TLE source contains no valid entries")
)

// Entry is a single satellite's two-line element set.
type Entry struct {
	NORADID int
	Name    string
	Epoch   time.Time
	Line1   string
	Line2   string
}

// EpochRange is the oldest and newest element epoch in a dataset.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Dataset is an immutable set of element sets loaded from one source.
type Dataset struct {
	Source     string
	LoadedAt   time.Time
	EpochRange EpochRange
	Satellites []Entry

	byID map[int]int
}

// NewDataset indexes entries by NORAD ID and computes their epoch range.
// When an ID repeats, the entry with the newest epoch wins the index.
func NewDataset(source string, loadedAt time.Time, entries []Entry) *Dataset {
	ds := &Dataset{
		Source:     source,
		LoadedAt:   loadedAt,
		Satellites: entries,
		byID:       make(map[int]int, len(entries)),
	}
	for i, e := range entries {
		if i == 0 || e.Epoch.Before(ds.EpochRange.Min) {
			ds.EpochRange.Min = e.Epoch
		}
		if i == 0 || e.Epoch.After(ds.EpochRange.Max) {
			ds.EpochRange.Max = e.Epoch
		}
		if j, ok := ds.byID[e.NORADID]; ok && !e.Epoch.After(entries[j].Epoch) {
			continue
		}
		ds.byID[e.NORADID] = i
	}
	return ds
}

// Lookup returns the entry for a NORAD catalogue number.
func (d *Dataset) Lookup(noradID int) (Entry, bool) {
	i, ok := d.byID[noradID]
	if !ok {
		return Entry{}, false
	}
	return d.Satellites[i], true
}

// Metadata describes a dataset without its element sets.
type Metadata struct {
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
	Count    int       `json:"count"`
	EpochMin time.Time `json:"epoch_min"`
	EpochMax time.Time `json:"epoch_max"`
}

// Metadata summarises the dataset.
func (d *Dataset) Metadata() Metadata {
	return Metadata{
		Source:   d.Source,
		LoadedAt: d.LoadedAt,
		Count:    len(d.Satellites),
		EpochMin: d.EpochRange.Min,
		EpochMax: d.EpochRange.Max,
	}
}

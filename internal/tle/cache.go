package tle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	snapshotPrefix = "tle_"
	snapshotSuffix = ".txt"
)

// Cache keeps timestamped snapshots of fetched TLE text on disk so a restart
// without network access still has elements to work with.
type Cache struct {
	dir      string
	maxFiles int
}

// NewCache creates a Cache under dir keeping at most maxFiles snapshots.
func NewCache(dir string, maxFiles int) *Cache {
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return &Cache{dir: dir, maxFiles: maxFiles}
}

// Write stores data as the snapshot for ts and prunes the oldest snapshots.
// The file is written under a temporary name and renamed into place.
func (c *Cache) Write(data []byte, ts time.Time) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	name := snapshotPrefix + strconv.FormatInt(ts.Unix(), 10) + snapshotSuffix
	tmp, err := os.CreateTemp(c.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(c.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming snapshot: %w", err)
	}

	return c.prune()
}

// LoadLatest returns the newest snapshot and its timestamp.
func (c *Cache) LoadLatest() ([]byte, time.Time, error) {
	snaps, err := c.snapshots()
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(snaps) == 0 {
		return nil, time.Time{}, fmt.Errorf("no snapshots in %s: %w", c.dir, ErrNoDataset)
	}

	latest := snaps[len(snaps)-1]
	data, err := os.ReadFile(filepath.Join(c.dir, latest.name))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading snapshot: %w", err)
	}
	return data, latest.ts, nil
}

type snapshot struct {
	name string
	ts   time.Time
}

// snapshots lists snapshot files oldest first.
func (c *Cache) snapshots() ([]snapshot, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing cache dir: %w", err)
	}

	var out []snapshot
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		unix, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, snapshot{name: name, ts: time.Unix(unix, 0).UTC()})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ts.Before(out[j].ts) })
	return out, nil
}

func (c *Cache) prune() error {
	snaps, err := c.snapshots()
	if err != nil {
		return err
	}
	for len(snaps) > c.maxFiles {
		if err := os.Remove(filepath.Join(c.dir, snaps[0].name)); err != nil {
			return fmt.Errorf("pruning snapshot %s: %w", snaps[0].name, err)
		}
		snaps = snaps[1:]
	}
	return nil
}

package visibility

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Benjamin-Hogan/Launch-Calculator/internal/metrics"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/tle"
)

// Sighting is a satellite above the observer's elevation mask.
type Sighting struct {
	NORADID   int     `json:"norad_id"`
	Name      string  `json:"name"`
	Azimuth   float64 `json:"azimuth"`
	Elevation float64 `json:"elevation"`
	RangeKm   float64 `json:"range_km"`
}

// Finder propagates datasets in parallel on a fixed number of workers.
type Finder struct {
	workers int
	logger  *slog.Logger
}

// NewFinder creates a Finder. workers below 1 are treated as 1.
func NewFinder(workers int, logger *slog.Logger) *Finder {
	if workers < 1 {
		workers = 1
	}
	return &Finder{workers: workers, logger: logger}
}

type lookResult struct {
	sighting Sighting
	visible  bool
	err      error
	noradID  int
}

// Visible returns every entry whose elevation seen from obs at t is strictly
// above minElevation degrees, highest first. Entries that fail to propagate
// are logged and skipped. A cancelled ctx stops the search and returns its
// error.
func (f *Finder) Visible(ctx context.Context, entries []tle.Entry, obs Observer, t time.Time, minElevation float64) ([]Sighting, error) {
	start := time.Now()
	gmst := GMST(t)

	jobs := make(chan tle.Entry, f.workers*2)
	results := make(chan lookResult, f.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < f.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range jobs {
				res := look(e, obs, t, gmst, minElevation)
				select {
				case results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, e := range entries {
			select {
			case jobs <- e:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	sightings := make([]Sighting, 0)
	var failures int
	for res := range results {
		switch {
		case res.err != nil:
			failures++
			f.logger.Debug("propagation failed", "component", "visibility", "norad_id", res.noradID, "error", res.err)
		case res.visible:
			sightings = append(sightings, res.sighting)
		}
	}

	metrics.RecordVisibility(time.Since(start), failures)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failures > 0 {
		f.logger.Warn("satellites skipped", "component", "visibility", "failed", failures, "total", len(entries))
	}

	sort.Slice(sightings, func(i, j int) bool {
		if sightings[i].Elevation != sightings[j].Elevation {
			return sightings[i].Elevation > sightings[j].Elevation
		}
		return sightings[i].NORADID < sightings[j].NORADID
	})
	return sightings, nil
}

func look(e tle.Entry, obs Observer, t time.Time, gmst, minElevation float64) lookResult {
	r, v, err := StateAt(e, t)
	if err != nil {
		return lookResult{noradID: e.NORADID, err: err}
	}
	ecef, _ := TEMEToECEF(r, v, gmst)
	la := obs.Look(ecef)
	return lookResult{
		noradID: e.NORADID,
		visible: la.Elevation > minElevation,
		sighting: Sighting{
			NORADID:   e.NORADID,
			Name:      e.Name,
			Azimuth:   la.Azimuth,
			Elevation: la.Elevation,
			RangeKm:   la.RangeKm,
		},
	}
}

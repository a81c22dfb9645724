package visibility

import (
	"context"
	"time"

	"github.com/Benjamin-Hogan/Launch-Calculator/internal/tle"
)

const (
	passCoarseStep  = 30 * time.Second
	passFineStep    = time.Second
	groundTrackStep = 10 * time.Second
	minPassDuration = 10 * time.Second
)

// TrackPoint is the sub-satellite point at one instant of a pass.
type TrackPoint struct {
	Time time.Time `json:"time"`
	Geodetic
	Elevation float64 `json:"elevation"`
}

// Pass is one interval during which a satellite stays above the elevation
// mask. A pass already in progress at the search start rises at the start; one
// still in progress at the end sets at the end.
type Pass struct {
	Rise            time.Time    `json:"rise"`
	Culmination     time.Time    `json:"culmination"`
	Set             time.Time    `json:"set"`
	DurationSeconds float64      `json:"duration_seconds"`
	MaxElevation    float64      `json:"max_elevation"`
	AzimuthAtMax    float64      `json:"azimuth_at_max"`
	RiseAzimuth     float64      `json:"rise_azimuth"`
	SetAzimuth      float64      `json:"set_azimuth"`
	GroundTrack     []TrackPoint `json:"ground_track"`
}

// PassQuery bounds a pass search.
type PassQuery struct {
	Start        time.Time
	Window       time.Duration
	MinElevation float64 // degrees
	MaxPasses    int
}

// Passes predicts the passes of e over obs within q. The window is scanned at
// a coarse step; each detection is traced at one-second resolution from one
// coarse step earlier, so passes shorter than the coarse step can be missed.
func (f *Finder) Passes(ctx context.Context, e tle.Entry, obs Observer, q PassQuery) ([]Pass, error) {
	p, err := NewPropagator(e)
	if err != nil {
		return nil, err
	}

	end := q.Start.Add(q.Window)
	var passes []Pass

	t := q.Start
	for t.Before(end) && len(passes) < q.MaxPasses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pos, err := p.ecef(t)
		if err != nil || obs.Look(pos).Elevation < q.MinElevation {
			t = t.Add(passCoarseStep)
			continue
		}

		from := t.Add(-passCoarseStep)
		if from.Before(q.Start) {
			from = q.Start
		}
		pass, next := p.trace(ctx, obs, from, end, q.MinElevation)
		if pass != nil && pass.Set.Sub(pass.Rise) >= minPassDuration {
			passes = append(passes, *pass)
		}
		t = next.Add(passCoarseStep)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.logger.Debug("passes predicted",
		"component", "visibility",
		"norad_id", e.NORADID,
		"window_hours", q.Window.Hours(),
		"passes", len(passes),
	)
	return passes, nil
}

// trace steps forward from from until the satellite drops below minElevation
// after rising, or end is reached. It returns the pass (nil if it never rose)
// and the time the scan stopped.
func (p *Propagator) trace(ctx context.Context, obs Observer, from, end time.Time, minElevation float64) (*Pass, time.Time) {
	var (
		pass   *Pass
		lastAz float64
	)

	t := from
	for ; t.Before(end); t = t.Add(passFineStep) {
		if ctx.Err() != nil {
			break
		}
		pos, err := p.ecef(t)
		if err != nil {
			continue
		}
		la := obs.Look(pos)
		above := la.Elevation >= minElevation

		if pass == nil {
			if !above {
				continue
			}
			pass = &Pass{
				Rise:         t,
				RiseAzimuth:  la.Azimuth,
				Culmination:  t,
				MaxElevation: la.Elevation,
				AzimuthAtMax: la.Azimuth,
			}
		}
		if !above {
			pass.Set = t
			pass.SetAzimuth = la.Azimuth
			break
		}

		if la.Elevation > pass.MaxElevation {
			pass.MaxElevation = la.Elevation
			pass.Culmination = t
			pass.AzimuthAtMax = la.Azimuth
		}
		if t.Sub(pass.Rise)%groundTrackStep == 0 {
			pass.GroundTrack = append(pass.GroundTrack, TrackPoint{
				Time:      t,
				Geodetic:  ToGeodetic(pos),
				Elevation: la.Elevation,
			})
		}
		lastAz = la.Azimuth
	}

	if pass == nil {
		return nil, t
	}
	if pass.Set.IsZero() {
		pass.Set = t
		pass.SetAzimuth = lastAz
	}
	pass.DurationSeconds = pass.Set.Sub(pass.Rise).Seconds()
	return pass, t
}

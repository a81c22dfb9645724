package visibility

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Benjamin-Hogan/Launch-Calculator/internal/tle"
)

// ErrInvalidTLE is returned for element lines SGP4 cannot be given.
var ErrInvalidTLE = errors.New("invalid TLE")

// Plausible geocentric radii for a propagated state. Anything outside means
// the model diverged (decayed object, stale elements).
const (
	minRadiusKm = 6200.0
	maxRadiusKm = 400000.0
)

// Propagator evaluates SGP4 for one satellite. The model is initialised
// once, so repeated State calls are cheap.
type Propagator struct {
	sat     satellite.Satellite
	noradID int
}

// NewPropagator validates e and initialises its SGP4 model.
func NewPropagator(e tle.Entry) (*Propagator, error) {
	if err := validateLines(e.Line1, e.Line2); err != nil {
		return nil, fmt.Errorf("NORAD %d: %w", e.NORADID, err)
	}

	// go-satellite calls log.Fatal on unparseable input, so lines are
	// validated above before they reach it.
	sat := satellite.TLEToSat(strings.TrimSpace(e.Line1), strings.TrimSpace(e.Line2), satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("NORAD %d: sgp4 init code %d %s", e.NORADID, sat.Error, sat.ErrorStr)
	}
	return &Propagator{sat: sat, noradID: e.NORADID}, nil
}

// State returns the TEME position (km) and velocity (km/s) at t. SGP4 is
// evaluated at whole-second resolution.
func (p *Propagator) State(t time.Time) (r, v r3.Vec, err error) {
	t = t.UTC()
	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	r = r3.Vec{X: pos.X, Y: pos.Y, Z: pos.Z}
	v = r3.Vec{X: vel.X, Y: vel.Y, Z: vel.Z}

	if !finite(r) || !finite(v) {
		return r3.Vec{}, r3.Vec{}, fmt.Errorf("NORAD %d: sgp4 produced a non-finite state", p.noradID)
	}
	if mag := r3.Norm(r); mag < minRadiusKm || mag > maxRadiusKm {
		return r3.Vec{}, r3.Vec{}, fmt.Errorf("NORAD %d: implausible radius %.1f km", p.noradID, mag)
	}
	return r, v, nil
}

// Earth-fixed position of the satellite at t.
func (p *Propagator) ecef(t time.Time) (r3.Vec, error) {
	r, v, err := p.State(t)
	if err != nil {
		return r3.Vec{}, err
	}
	pos, _ := TEMEToECEF(r, v, GMST(t))
	return pos, nil
}

// StateAt propagates e to t. It is a one-shot form of NewPropagator and State.
func StateAt(e tle.Entry, t time.Time) (r, v r3.Vec, err error) {
	p, err := NewPropagator(e)
	if err != nil {
		return r3.Vec{}, r3.Vec{}, err
	}
	return p.State(t)
}

func validateLines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	if len(line1) != 69 || len(line2) != 69 {
		return fmt.Errorf("%w: line lengths %d and %d, expected 69", ErrInvalidTLE, len(line1), len(line2))
	}
	if line1[0] != '1' || line2[0] != '2' {
		return fmt.Errorf("%w: lines must start with 1 and 2", ErrInvalidTLE)
	}
	return nil
}

func finite(p r3.Vec) bool {
	for _, c := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

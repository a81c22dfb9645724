package orbit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// parabolicε is the band around e=1 classified as parabolic.
	parabolicε = 1e-8
	// circularε is the eccentricity below which periapsis direction is undefined.
	circularε = 1e-10
	// equatorialε is the node-vector norm (km^2/s) below which the node is undefined.
	equatorialε = 1e-10

	rad2deg = 180 / math.Pi
)

// ErrNotBound is returned for quantities that only exist on closed orbits.
var ErrNotBound = errors.New("orbit is not bound")

// Norm returns |v|.
func Norm(v r3.Vec) float64 {
	return r3.Norm(v)
}

// AngularMomentum returns h = r × v.
func AngularMomentum(r, v r3.Vec) r3.Vec {
	return r3.Cross(r, v)
}

// SpecificEnergyOf returns the vis-viva specific energy v²/2 − μ/r.
func SpecificEnergyOf(vMag, rMag, mu float64) (float64, error) {
	if rMag <= 0 {
		return 0, fmt.Errorf("radius must be positive, got %g", rMag)
	}
	return vMag*vMag/2 - mu/rMag, nil
}

// SemiMajorAxisOf returns a = −μ/(2ξ). Zero energy (a parabola) has no finite
// semi-major axis and returns an error.
func SemiMajorAxisOf(energy, mu float64) (float64, error) {
	if energy == 0 {
		return 0, errors.New("zero specific energy: semi-major axis is infinite")
	}
	return -mu / (2 * energy), nil
}

// EnergyFromAxis returns ξ = −μ/(2a).
func EnergyFromAxis(a, mu float64) (float64, error) {
	if a == 0 || math.IsInf(a, 0) {
		return 0, fmt.Errorf("semi-major axis %g has no finite energy", a)
	}
	return -mu / (2 * a), nil
}

// EccentricityVector returns e = ((v² − μ/r)·r − (r·v)·v) / μ (Vallado, RV2COE).
func EccentricityVector(r, v r3.Vec, mu float64) (r3.Vec, error) {
	rMag := r3.Norm(r)
	if rMag == 0 {
		return r3.Vec{}, errors.New("zero position vector")
	}
	v2 := r3.Dot(v, v)
	e := r3.Sub(r3.Scale(v2-mu/rMag, r), r3.Scale(r3.Dot(r, v), v))
	return r3.Scale(1/mu, e), nil
}

// Classify returns the conic type for eccentricity e. Values within parabolicε
// of 1 are parabolic.
func Classify(e float64) (Type, error) {
	switch {
	case e < 0 || math.IsNaN(e):
		return "", fmt.Errorf("invalid eccentricity %g", e)
	case scalar.EqualWithinAbs(e, 1, parabolicε):
		return Parabolic, nil
	case e < 1:
		return Elliptical, nil
	default:
		return Hyperbolic, nil
	}
}

// PeriodOf returns 2π√(a³/μ) in seconds for a closed orbit.
func PeriodOf(a, mu float64) (float64, error) {
	if a <= 0 || math.IsInf(a, 0) {
		return 0, ErrNotBound
	}
	return 2 * math.Pi * math.Sqrt(a*a*a/mu), nil
}

// MeanMotionOf returns √(μ/|a|³) in rad/s. Hyperbolic orbits use |a|.
func MeanMotionOf(a, mu float64) (float64, error) {
	if a == 0 || math.IsInf(a, 0) {
		return 0, fmt.Errorf("no mean motion for semi-major axis %g", a)
	}
	a = math.Abs(a)
	return math.Sqrt(mu / (a * a * a)), nil
}

// SemiLatusRectumOf returns p = a(1 − e²).
func SemiLatusRectumOf(a, e float64) float64 {
	return a * (1 - e*e)
}

// SemiLatusRectumFromMomentum returns p = h²/μ.
func SemiLatusRectumFromMomentum(h, mu float64) float64 {
	return h * h / mu
}

// Apsides returns periapsis and apoapsis radii. Periapsis accepts either sign
// convention for hyperbolic semi-major axes. Apoapsis only exists on closed
// orbits; for anything else apoapsis is NaN and ok is false.
func Apsides(a, e float64) (periapsis, apoapsis float64, ok bool, err error) {
	if e < 0 {
		return 0, 0, false, fmt.Errorf("invalid eccentricity %g", e)
	}
	if scalar.EqualWithinAbs(e, 1, parabolicε) {
		return 0, 0, false, errors.New("parabolic orbit: apsides need the semi-latus rectum")
	}
	if e < 1 {
		if a <= 0 {
			return 0, 0, false, fmt.Errorf("elliptical orbit with semi-major axis %g", a)
		}
		return a * (1 - e), a * (1 + e), true, nil
	}
	return math.Abs(a) * (e - 1), math.NaN(), false, nil
}

// NodeVector returns n = k̂ × h.
func NodeVector(h r3.Vec) r3.Vec {
	return r3.Vec{X: -h.Y, Y: h.X, Z: 0}
}

// InclinationOf returns the inclination in degrees.
func InclinationOf(h r3.Vec) (float64, error) {
	hMag := r3.Norm(h)
	if hMag == 0 {
		return 0, errors.New("zero angular momentum: rectilinear motion")
	}
	return math.Acos(clamp(h.Z/hMag)) * rad2deg, nil
}

// RAANOf returns the right ascension of the ascending node in degrees.
func RAANOf(n r3.Vec) (float64, error) {
	nMag := r3.Norm(n)
	if nMag < equatorialε {
		return 0, errors.New("equatorial orbit: ascending node undefined")
	}
	Ω := math.Acos(clamp(n.X / nMag))
	if n.Y < 0 {
		Ω = 2*math.Pi - Ω
	}
	return Ω * rad2deg, nil
}

// ArgPeriapsisOf returns the argument of periapsis in degrees.
func ArgPeriapsisOf(n, e r3.Vec) (float64, error) {
	nMag, eMag := r3.Norm(n), r3.Norm(e)
	if nMag < equatorialε {
		return 0, errors.New("equatorial orbit: ascending node undefined")
	}
	if eMag < circularε {
		return 0, errors.New("circular orbit: periapsis undefined")
	}
	ω := math.Acos(clamp(r3.Dot(n, e) / (nMag * eMag)))
	if e.Z < 0 {
		ω = 2*math.Pi - ω
	}
	return ω * rad2deg, nil
}

// TrueAnomalyOf returns the true anomaly in degrees.
func TrueAnomalyOf(e, r, v r3.Vec) (float64, error) {
	eMag, rMag := r3.Norm(e), r3.Norm(r)
	if eMag < circularε {
		return 0, errors.New("circular orbit: periapsis undefined")
	}
	if rMag == 0 {
		return 0, errors.New("zero position vector")
	}
	ν := math.Acos(clamp(r3.Dot(e, r) / (eMag * rMag)))
	if r3.Dot(r, v) < 0 {
		ν = 2*math.Pi - ν
	}
	return ν * rad2deg, nil
}

// CircularVelocityOf returns √(μ/r).
func CircularVelocityOf(r, mu float64) (float64, error) {
	if r <= 0 {
		return 0, fmt.Errorf("radius must be positive, got %g", r)
	}
	return math.Sqrt(mu / r), nil
}

// EscapeVelocityOf returns √(2μ/r).
func EscapeVelocityOf(r, mu float64) (float64, error) {
	if r <= 0 {
		return 0, fmt.Errorf("radius must be positive, got %g", r)
	}
	return math.Sqrt(2 * mu / r), nil
}

// clamp keeps acos arguments in [-1, 1] against rounding.
func clamp(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}

package orbit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Benjamin-Hogan/Launch-Calculator/internal/engine"
)

// Catalogue returns the ordered two-body rule set. Each call returns a fresh
// slice; callers hand it to engine.NewSolver and never mutate it afterwards.
//
// semi_major_axis and specific_energy derive from each other, so whichever is
// supplied breaks the cycle. semi_latus_rectum has two producers; the first
// one whose inputs are available and defined wins. A parabola has no axis, so
// it gets p from the momentum producer.
func Catalogue() []engine.Rule {
	return []engine.Rule{
		engine.NewRule("norm", []string{R}, []string{RMag}, vectorNorm),
		engine.NewRule("norm", []string{V}, []string{VMag}, vectorNorm),
		engine.NewRule("angular_momentum", []string{R, V}, []string{HVec}, angularMomentum),
		engine.NewRule("norm", []string{HVec}, []string{HMag}, vectorNorm),
		engine.NewRule("vis_viva_energy", []string{VMag, RMag, Mu}, []string{SpecificEnergy},
			scalarRule(func(x []float64) (float64, error) { return SpecificEnergyOf(x[0], x[1], x[2]) })),
		engine.NewRule("semi_major_axis", []string{SpecificEnergy, Mu}, []string{SemiMajorAxis},
			scalarRule(func(x []float64) (float64, error) { return SemiMajorAxisOf(x[0], x[1]) })),
		engine.NewRule("eccentricity_vector", []string{R, V, Mu}, []string{EccentricityVec}, eccentricityVector),
		engine.NewRule("norm", []string{EccentricityVec}, []string{Eccentricity}, vectorNorm),
		engine.NewRule("classify", []string{Eccentricity}, []string{OrbitType}, classify),
		engine.NewRule("period", []string{SemiMajorAxis, Mu}, []string{Period},
			scalarRule(func(x []float64) (float64, error) { return PeriodOf(x[0], x[1]) })),
		engine.NewRule("mean_motion", []string{SemiMajorAxis, Mu}, []string{MeanMotion},
			scalarRule(func(x []float64) (float64, error) { return MeanMotionOf(x[0], x[1]) })),
		engine.NewRule("semi_latus_rectum", []string{SemiMajorAxis, Eccentricity}, []string{SemiLatusRectum},
			scalarRule(func(x []float64) (float64, error) { return SemiLatusRectumOf(x[0], x[1]), nil })),
		engine.NewRule("semi_latus_rectum", []string{HMag, Mu}, []string{SemiLatusRectum},
			scalarRule(func(x []float64) (float64, error) { return SemiLatusRectumFromMomentum(x[0], x[1]), nil })),
		engine.NewRule("apsides", []string{SemiMajorAxis, Eccentricity}, []string{Periapsis, Apoapsis}, apsides),
		engine.NewRule("node_vector", []string{HVec}, []string{NodeVec}, nodeVector),
		engine.NewRule("inclination", []string{HVec}, []string{Inclination},
			vectorRule(func(x []r3.Vec) (float64, error) { return InclinationOf(x[0]) })),
		engine.NewRule("raan", []string{NodeVec}, []string{RAAN},
			vectorRule(func(x []r3.Vec) (float64, error) { return RAANOf(x[0]) })),
		engine.NewRule("argument_of_periapsis", []string{NodeVec, EccentricityVec}, []string{ArgPeriapsis},
			vectorRule(func(x []r3.Vec) (float64, error) { return ArgPeriapsisOf(x[0], x[1]) })),
		engine.NewRule("true_anomaly", []string{EccentricityVec, R, V}, []string{TrueAnomaly},
			vectorRule(func(x []r3.Vec) (float64, error) { return TrueAnomalyOf(x[0], x[1], x[2]) })),
		engine.NewRule("hohmann", []string{R1, R2, Mu}, []string{DV1, DV2, TotalDeltaV, TransferTime}, hohmann),
		engine.NewRule("energy_from_axis", []string{SemiMajorAxis, Mu}, []string{SpecificEnergy},
			scalarRule(func(x []float64) (float64, error) { return EnergyFromAxis(x[0], x[1]) })),
		engine.NewRule("circular_velocity", []string{RMag, Mu}, []string{CircularVelocity},
			scalarRule(func(x []float64) (float64, error) { return CircularVelocityOf(x[0], x[1]) })),
		engine.NewRule("escape_velocity", []string{RMag, Mu}, []string{EscapeVelocity},
			scalarRule(func(x []float64) (float64, error) { return EscapeVelocityOf(x[0], x[1]) })),
	}
}

// scalarRule adapts a single-output formula over scalar inputs. A formula
// error is a domain limit (open orbit, zero energy) and becomes Undefined;
// only malformed inputs fail the rule.
func scalarRule(fn func(x []float64) (float64, error)) engine.Func {
	return func(in []any) ([]any, error) {
		x := make([]float64, len(in))
		for i, v := range in {
			f, err := ToFloat(v)
			if err != nil {
				return nil, fmt.Errorf("input %d: %w", i, err)
			}
			x[i] = f
		}
		return one(fn(x))
	}
}

// vectorRule adapts a single-output formula over vector inputs.
func vectorRule(fn func(x []r3.Vec) (float64, error)) engine.Func {
	return func(in []any) ([]any, error) {
		x := make([]r3.Vec, len(in))
		for i, v := range in {
			vec, err := ToVec(v)
			if err != nil {
				return nil, fmt.Errorf("input %d: %w", i, err)
			}
			x[i] = vec
		}
		return one(fn(x))
	}
}

func one(v float64, err error) ([]any, error) {
	if err != nil {
		return []any{engine.Undefined{Reason: err.Error()}}, nil
	}
	return []any{v}, nil
}

func vectorNorm(in []any) ([]any, error) {
	v, err := ToVec(in[0])
	if err != nil {
		return nil, err
	}
	return []any{Norm(v)}, nil
}

func angularMomentum(in []any) ([]any, error) {
	r, err := ToVec(in[0])
	if err != nil {
		return nil, err
	}
	v, err := ToVec(in[1])
	if err != nil {
		return nil, err
	}
	return []any{AngularMomentum(r, v)}, nil
}

func eccentricityVector(in []any) ([]any, error) {
	r, err := ToVec(in[0])
	if err != nil {
		return nil, err
	}
	v, err := ToVec(in[1])
	if err != nil {
		return nil, err
	}
	mu, err := ToFloat(in[2])
	if err != nil {
		return nil, err
	}
	e, err := EccentricityVector(r, v, mu)
	if err != nil {
		return []any{engine.Undefined{Reason: err.Error()}}, nil
	}
	return []any{e}, nil
}

func classify(in []any) ([]any, error) {
	e, err := ToFloat(in[0])
	if err != nil {
		return nil, err
	}
	t, err := Classify(e)
	if err != nil {
		return []any{engine.Undefined{Reason: err.Error()}}, nil
	}
	return []any{t}, nil
}

func apsides(in []any) ([]any, error) {
	a, err := ToFloat(in[0])
	if err != nil {
		return nil, err
	}
	e, err := ToFloat(in[1])
	if err != nil {
		return nil, err
	}
	rp, ra, closed, err := Apsides(a, e)
	if err != nil {
		u := engine.Undefined{Reason: err.Error()}
		return []any{u, u}, nil
	}
	if !closed {
		return []any{rp, engine.Undefined{Reason: ErrNotBound.Error()}}, nil
	}
	return []any{rp, ra}, nil
}

func nodeVector(in []any) ([]any, error) {
	h, err := ToVec(in[0])
	if err != nil {
		return nil, err
	}
	return []any{NodeVector(h)}, nil
}

func hohmann(in []any) ([]any, error) {
	x := make([]float64, 3)
	for i, v := range in {
		f, err := ToFloat(v)
		if err != nil {
			return nil, err
		}
		x[i] = f
	}
	t, err := Hohmann(x[0], x[1], x[2])
	if err != nil {
		u := engine.Undefined{Reason: err.Error()}
		return []any{u, u, u, u}, nil
	}
	return []any{t.DV1, t.DV2, t.TotalDeltaV, t.TransferTime}, nil
}

// ToFloat converts a numeric quantity value to float64.
func ToFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return math.NaN(), fmt.Errorf("expected a number, got %T", v)
	}
}

// ToVec converts a vector quantity value to r3.Vec. Slices must have exactly
// three components.
func ToVec(v any) (r3.Vec, error) {
	switch x := v.(type) {
	case r3.Vec:
		return x, nil
	case [3]float64:
		return r3.Vec{X: x[0], Y: x[1], Z: x[2]}, nil
	case []float64:
		if len(x) != 3 {
			return r3.Vec{}, fmt.Errorf("expected 3 components, got %d", len(x))
		}
		return r3.Vec{X: x[0], Y: x[1], Z: x[2]}, nil
	default:
		return r3.Vec{}, fmt.Errorf("expected a 3-vector, got %T", v)
	}
}

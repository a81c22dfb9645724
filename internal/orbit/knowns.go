package orbit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vector validates components as a finite 3-vector.
func Vector(components []float64) (r3.Vec, error) {
	if len(components) != 3 {
		return r3.Vec{}, fmt.Errorf("expected 3 components, got %d", len(components))
	}
	for i, c := range components {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return r3.Vec{}, fmt.Errorf("component %d is not finite", i)
		}
	}
	return r3.Vec{X: components[0], Y: components[1], Z: components[2]}, nil
}

// GravitationalParameter validates mu.
func GravitationalParameter(mu float64) error {
	if !(mu > 0) || math.IsInf(mu, 0) {
		return fmt.Errorf("mu must be a positive finite number, got %g", mu)
	}
	return nil
}

// Quantity converts a decoded JSON or TOML value into a catalogue value:
// numbers become float64 and three-element arrays become r3.Vec.
func Quantity(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, errors.New("value is not finite")
		}
		return x, nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case []float64:
		return Vector(x)
	case []any:
		c := make([]float64, len(x))
		for i, e := range x {
			f, err := Quantity(e)
			if err != nil {
				return nil, fmt.Errorf("component %d: %w", i, err)
			}
			n, ok := f.(float64)
			if !ok {
				return nil, fmt.Errorf("component %d is not a number", i)
			}
			c[i] = n
		}
		return Vector(c)
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

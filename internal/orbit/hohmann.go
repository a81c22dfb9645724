package orbit

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRadius is returned for non-positive or non-finite transfer radii.
var ErrInvalidRadius = errors.New("radius must be a positive finite number")

// Transfer holds the result of a two-impulse Hohmann transfer between two
// coplanar circular orbits.
type Transfer struct {
	DV1          float64 `json:"dv1"`           // km/s, first burn (positive = prograde)
	DV2          float64 `json:"dv2"`           // km/s, circularisation burn
	TotalDeltaV  float64 `json:"total_delta_v"` // km/s, |dv1| + |dv2|
	TransferTime float64 `json:"transfer_time"` // s, half the transfer ellipse period
}

// Hohmann computes the transfer from a circular orbit of radius r1 to one of
// radius r2 around a body with gravitational parameter mu.
func Hohmann(r1, r2, mu float64) (Transfer, error) {
	if !validRadius(r1) {
		return Transfer{}, fmt.Errorf("r1=%g: %w", r1, ErrInvalidRadius)
	}
	if !validRadius(r2) {
		return Transfer{}, fmt.Errorf("r2=%g: %w", r2, ErrInvalidRadius)
	}
	if !(mu > 0) || math.IsInf(mu, 0) {
		return Transfer{}, fmt.Errorf("gravitational parameter must be positive, got %g", mu)
	}

	aT := (r1 + r2) / 2
	v1 := math.Sqrt(mu / r1)
	v2 := math.Sqrt(mu / r2)
	vDeparture := math.Sqrt(mu * (2/r1 - 1/aT))
	vArrival := math.Sqrt(mu * (2/r2 - 1/aT))

	dv1 := vDeparture - v1
	dv2 := v2 - vArrival
	return Transfer{
		DV1:          dv1,
		DV2:          dv2,
		TotalDeltaV:  math.Abs(dv1) + math.Abs(dv2),
		TransferTime: math.Pi * math.Sqrt(aT*aT*aT/mu),
	}, nil
}

func validRadius(x float64) bool {
	return x > 0 && !math.IsInf(x, 0)
}

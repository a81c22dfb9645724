package orbit

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		e       float64
		want    Type
		wantErr bool
	}{
		{0, Elliptical, false},
		{0.5, Elliptical, false},
		{1 - 1e-6, Elliptical, false},
		{1, Parabolic, false},
		{1 + 1e-9, Parabolic, false},
		{1 - 1e-9, Parabolic, false},
		{1.5, Hyperbolic, false},
		{-0.1, "", true},
		{math.NaN(), "", true},
	}
	for _, tt := range tests {
		got, err := Classify(tt.e)
		if (err != nil) != tt.wantErr {
			t.Errorf("Classify(%g) error = %v, wantErr %v", tt.e, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Classify(%g) = %q, want %q", tt.e, got, tt.want)
		}
	}
}

func TestSemiMajorAxisOf(t *testing.T) {
	a, err := SemiMajorAxisOf(-EarthMu/14000, EarthMu)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(a, 7000, 1e-9) {
		t.Errorf("a = %g, want 7000", a)
	}

	if _, err := SemiMajorAxisOf(0, EarthMu); err == nil {
		t.Error("zero energy should fail")
	}
}

func TestEnergyAxisRoundTrip(t *testing.T) {
	for _, a := range []float64{6778, 42164, -12000} {
		xi, err := EnergyFromAxis(a, EarthMu)
		if err != nil {
			t.Fatalf("EnergyFromAxis(%g): %v", a, err)
		}
		back, err := SemiMajorAxisOf(xi, EarthMu)
		if err != nil {
			t.Fatalf("SemiMajorAxisOf(%g): %v", xi, err)
		}
		if !scalar.EqualWithinRel(back, a, 1e-12) {
			t.Errorf("round trip %g -> %g", a, back)
		}
	}
}

func TestPeriodOf(t *testing.T) {
	p, err := PeriodOf(42164.17, EarthMu)
	if err != nil {
		t.Fatal(err)
	}
	// Geostationary radius gives one sidereal day.
	if !scalar.EqualWithinAbs(p, 86164.1, 1) {
		t.Errorf("period = %g, want ~86164", p)
	}

	for _, a := range []float64{0, -7000, math.Inf(1)} {
		if _, err := PeriodOf(a, EarthMu); !errors.Is(err, ErrNotBound) {
			t.Errorf("PeriodOf(%g) error = %v, want ErrNotBound", a, err)
		}
	}
}

func TestMeanMotionOfHyperbolicUsesMagnitude(t *testing.T) {
	pos, _ := MeanMotionOf(20000, EarthMu)
	neg, _ := MeanMotionOf(-20000, EarthMu)
	if pos != neg {
		t.Errorf("mean motion %g vs %g", pos, neg)
	}
	if _, err := MeanMotionOf(0, EarthMu); err == nil {
		t.Error("zero axis should fail")
	}
}

func TestApsides(t *testing.T) {
	tests := []struct {
		name    string
		a, e    float64
		rp, ra  float64
		closed  bool
		wantErr bool
	}{
		{"circular", 7000, 0, 7000, 7000, true, false},
		{"elliptical", 7000, 0.01, 6930, 7070, true, false},
		{"hyperbolic negative a", -7000, 1.5, 3500, math.NaN(), false, false},
		{"hyperbolic positive a", 7000, 1.5, 3500, math.NaN(), false, false},
		{"parabolic", 7000, 1, 0, 0, false, true},
		{"negative e", 7000, -0.2, 0, 0, false, true},
		{"elliptical negative a", -7000, 0.3, 0, 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rp, ra, closed, err := Apsides(tt.a, tt.e)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if closed != tt.closed {
				t.Errorf("closed = %v, want %v", closed, tt.closed)
			}
			if !scalar.EqualWithinAbs(rp, tt.rp, 1e-9) {
				t.Errorf("periapsis = %g, want %g", rp, tt.rp)
			}
			if tt.closed && !scalar.EqualWithinAbs(ra, tt.ra, 1e-9) {
				t.Errorf("apoapsis = %g, want %g", ra, tt.ra)
			}
			if !tt.closed && !math.IsNaN(ra) {
				t.Errorf("apoapsis = %g, want NaN", ra)
			}
		})
	}
}

func TestEccentricityVectorCircular(t *testing.T) {
	r := r3.Vec{X: 7000}
	v := r3.Vec{Y: math.Sqrt(EarthMu / 7000)}
	e, err := EccentricityVector(r, v, EarthMu)
	if err != nil {
		t.Fatal(err)
	}
	if n := r3.Norm(e); n > 1e-12 {
		t.Errorf("|e| = %g, want 0", n)
	}

	if _, err := EccentricityVector(r3.Vec{}, v, EarthMu); err == nil {
		t.Error("zero position should fail")
	}
}

func TestOrientationAngles(t *testing.T) {
	// Polar orbit crossing the ascending node on the +Y axis.
	r := r3.Vec{Y: 7000}
	v := r3.Vec{Z: 8}
	h := AngularMomentum(r, v)
	n := NodeVector(h)

	inc, err := InclinationOf(h)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(inc, 90, 1e-9) {
		t.Errorf("inclination = %g, want 90", inc)
	}

	raan, err := RAANOf(n)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(raan, 90, 1e-9) {
		t.Errorf("raan = %g, want 90", raan)
	}

	e, _ := EccentricityVector(r, v, EarthMu)
	w, err := ArgPeriapsisOf(n, e)
	if err != nil {
		t.Fatal(err)
	}
	// Faster than circular at r: periapsis is here, on the node.
	if !scalar.EqualWithinAbs(w, 0, 1e-6) {
		t.Errorf("arg periapsis = %g, want 0", w)
	}

	nu, err := TrueAnomalyOf(e, r, v)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(nu, 0, 1e-6) {
		t.Errorf("true anomaly = %g, want 0", nu)
	}
}

func TestOrientationDegenerate(t *testing.T) {
	equatorial := AngularMomentum(r3.Vec{X: 7000}, r3.Vec{Y: 7.5})
	if _, err := RAANOf(NodeVector(equatorial)); err == nil {
		t.Error("equatorial RAAN should fail")
	}
	if _, err := InclinationOf(r3.Vec{}); err == nil {
		t.Error("zero angular momentum should fail")
	}
	if _, err := ArgPeriapsisOf(r3.Vec{X: 1}, r3.Vec{}); err == nil {
		t.Error("circular argument of periapsis should fail")
	}
	if _, err := TrueAnomalyOf(r3.Vec{}, r3.Vec{X: 7000}, r3.Vec{Y: 7.5}); err == nil {
		t.Error("circular true anomaly should fail")
	}
}

func TestTrueAnomalyOutbound(t *testing.T) {
	// Moving away from the body puts the true anomaly in (0, 180).
	r := r3.Vec{X: 7000}
	v := r3.Vec{X: 1, Y: 7.5}
	e, _ := EccentricityVector(r, v, EarthMu)
	nu, err := TrueAnomalyOf(e, r, v)
	if err != nil {
		t.Fatal(err)
	}
	if nu <= 0 || nu >= 180 {
		t.Errorf("true anomaly = %g, want in (0, 180)", nu)
	}
}

func TestEscapeIsSqrt2Circular(t *testing.T) {
	vc, _ := CircularVelocityOf(7000, EarthMu)
	ve, _ := EscapeVelocityOf(7000, EarthMu)
	if !scalar.EqualWithinRel(ve, vc*math.Sqrt2, 1e-12) {
		t.Errorf("escape %g, circular %g", ve, vc)
	}
	if _, err := CircularVelocityOf(0, EarthMu); err == nil {
		t.Error("zero radius should fail")
	}
}

func TestHohmann(t *testing.T) {
	tr, err := Hohmann(7000, 10000, EarthMu)
	if err != nil {
		t.Fatal(err)
	}
	if tr.DV1 <= 0 || tr.DV2 <= 0 {
		t.Errorf("raising orbit should need two prograde burns, got %+v", tr)
	}
	if !scalar.EqualWithinAbs(tr.TotalDeltaV, tr.DV1+tr.DV2, 1e-12) {
		t.Errorf("total %g != %g + %g", tr.TotalDeltaV, tr.DV1, tr.DV2)
	}
	if !scalar.EqualWithinAbs(tr.TotalDeltaV, 1.2, 0.1) {
		t.Errorf("total delta-v = %g km/s, want ~1.2", tr.TotalDeltaV)
	}
	aT := 8500.0
	if want := math.Pi * math.Sqrt(aT*aT*aT/EarthMu); !scalar.EqualWithinAbs(tr.TransferTime, want, 1e-9) {
		t.Errorf("transfer time = %g, want %g", tr.TransferTime, want)
	}

	down, err := Hohmann(10000, 7000, EarthMu)
	if err != nil {
		t.Fatal(err)
	}
	if down.DV1 >= 0 || down.DV2 >= 0 {
		t.Errorf("lowering orbit should need two retrograde burns, got %+v", down)
	}
	if !scalar.EqualWithinRel(down.TotalDeltaV, tr.TotalDeltaV, 1e-12) {
		t.Errorf("total delta-v not symmetric: %g vs %g", down.TotalDeltaV, tr.TotalDeltaV)
	}
}

func TestHohmannSameRadius(t *testing.T) {
	tr, err := Hohmann(7000, 7000, EarthMu)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(tr.TotalDeltaV, 0, 1e-12) {
		t.Errorf("total delta-v = %g, want 0", tr.TotalDeltaV)
	}
}

func TestHohmannInvalid(t *testing.T) {
	tests := []struct {
		name       string
		r1, r2, mu float64
	}{
		{"zero r1", 0, 7000, EarthMu},
		{"negative r2", 7000, -1, EarthMu},
		{"infinite r2", 7000, math.Inf(1), EarthMu},
		{"zero mu", 7000, 10000, 0},
		{"nan mu", 7000, 10000, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Hohmann(tt.r1, tt.r2, tt.mu); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := Hohmann(0, 7000, EarthMu)
	if !errors.Is(err, ErrInvalidRadius) {
		t.Errorf("error = %v, want ErrInvalidRadius", err)
	}
}

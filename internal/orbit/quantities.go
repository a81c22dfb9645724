// Package orbit holds the two-body formulas and the rule catalogue that wires
// them into the calculation engine.
//
// Units follow the usual astrodynamics convention: km, km/s, km^3/s^2 for the
// gravitational parameter, seconds for times, rad/s for mean motion and
// degrees for angles.
package orbit

// Quantity names understood by the catalogue.
const (
	R  = "r"
	V  = "v"
	Mu = "mu"

	RMag             = "r_mag"
	VMag             = "v_mag"
	HVec             = "h_vec"
	HMag             = "h_mag"
	SpecificEnergy   = "specific_energy"
	SemiMajorAxis    = "semi_major_axis"
	EccentricityVec  = "eccentricity_vec"
	Eccentricity     = "eccentricity"
	OrbitType        = "orbit_type"
	Period           = "period"
	MeanMotion       = "mean_motion"
	SemiLatusRectum  = "semi_latus_rectum"
	Periapsis        = "periapsis"
	Apoapsis         = "apoapsis"
	NodeVec          = "node_vec"
	Inclination      = "inclination"
	RAAN             = "raan"
	ArgPeriapsis     = "arg_periapsis"
	TrueAnomaly      = "true_anomaly"
	CircularVelocity = "circular_velocity"
	EscapeVelocity   = "escape_velocity"

	R1           = "r1"
	R2           = "r2"
	DV1          = "dv1"
	DV2          = "dv2"
	TotalDeltaV  = "total_delta_v"
	TransferTime = "transfer_time"
)

// EarthMu is Earth's gravitational parameter in km^3/s^2.
const EarthMu = 398600.4418

// Type classifies a conic by eccentricity.
type Type string

const (
	Elliptical Type = "elliptical"
	Parabolic  Type = "parabolic"
	Hyperbolic Type = "hyperbolic"
)

func (t Type) String() string { return string(t) }

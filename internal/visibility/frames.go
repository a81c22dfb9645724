// Package visibility propagates element sets with SGP4 and answers which
// satellites an observer on the ground can see.
//
// Frames: SGP4 produces TEME. TEME is rotated to ECEF about Z by GMST only,
// ignoring polar motion and the equation of the equinoxes (tens of metres,
// irrelevant for a visibility mask). Look angles use the SEZ topocentric frame
// (Vallado section 4.4). Distances are km throughout.
package visibility

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	j2000 = 2451545.0

	// OmegaEarth is Earth's rotation rate in rad/s.
	OmegaEarth = 7.292115146706979e-5

	wgs84A  = 6378.137              // km
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared

	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

// JulianDate converts t to a Julian Date.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	y, m := float64(t.Year()), float64(t.Month())
	if m <= 2 {
		y--
		m += 12
	}
	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)
	dayFrac := (float64(t.Hour()) + float64(t.Minute())/60 + (float64(t.Second())+float64(t.Nanosecond())/1e9)/3600) / 24
	return math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + float64(t.Day()) + b - 1524.5 + dayFrac
}

// GMST returns Greenwich Mean Sidereal Time in radians (IAU-82, Vallado eq. 3-47).
func GMST(t time.Time) float64 {
	tu := (JulianDate(t) - j2000) / 36525
	sec := 67310.54841 + (876600*3600+8640184.812866)*tu + 0.093104*tu*tu - 6.2e-6*tu*tu*tu
	sec = math.Mod(sec, 86400)
	if sec < 0 {
		sec += 86400
	}
	return sec / 86400 * 2 * math.Pi
}

// TEMEToECEF rotates a TEME state into Earth-fixed axes for the given GMST.
// Velocity is corrected for Earth rotation: v_ecef = R3(θ)·v_teme − ω × r_ecef.
func TEMEToECEF(r, v r3.Vec, gmst float64) (r3.Vec, r3.Vec) {
	c, s := math.Cos(gmst), math.Sin(gmst)
	rot := func(p r3.Vec) r3.Vec {
		return r3.Vec{X: c*p.X + s*p.Y, Y: -s*p.X + c*p.Y, Z: p.Z}
	}
	rE := rot(r)
	vE := r3.Sub(rot(v), r3.Cross(r3.Vec{Z: OmegaEarth}, rE))
	return rE, vE
}

// Observer is a geodetic ground location with its ECEF position precomputed.
type Observer struct {
	LatDeg float64 `json:"lat"`
	LonDeg float64 `json:"lon"`
	AltM   float64 `json:"alt"`

	lat, lon float64
	ecef     r3.Vec
}

// NewObserver validates a WGS-84 position. Latitude and longitude are
// degrees, altitude is metres above the ellipsoid.
func NewObserver(latDeg, lonDeg, altM float64) (Observer, error) {
	switch {
	case math.IsNaN(latDeg) || latDeg < -90 || latDeg > 90:
		return Observer{}, fmt.Errorf("latitude %g outside [-90, 90]", latDeg)
	case math.IsNaN(lonDeg) || lonDeg < -180 || lonDeg > 360:
		return Observer{}, fmt.Errorf("longitude %g outside [-180, 360]", lonDeg)
	case math.IsNaN(altM) || math.IsInf(altM, 0) || altM < -12000:
		return Observer{}, fmt.Errorf("altitude %g m is not a plausible ground height", altM)
	}

	lat, lon := latDeg*deg2rad, lonDeg*deg2rad
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
	h := altM / 1000

	return Observer{
		LatDeg: latDeg,
		LonDeg: lonDeg,
		AltM:   altM,
		lat:    lat,
		lon:    lon,
		ecef: r3.Vec{
			X: (n + h) * cosLat * math.Cos(lon),
			Y: (n + h) * cosLat * math.Sin(lon),
			Z: (n*(1-wgs84E2) + h) * sinLat,
		},
	}, nil
}

// ECEF returns the observer's Earth-fixed position in km.
func (o Observer) ECEF() r3.Vec {
	return o.ecef
}

// LookAngles is the direction and distance from an observer to a target.
type LookAngles struct {
	Azimuth   float64 // degrees from north, clockwise
	Elevation float64 // degrees above the horizon
	RangeKm   float64
}

// Look computes look angles from o to an ECEF position in km.
func (o Observer) Look(target r3.Vec) LookAngles {
	d := r3.Sub(target, o.ecef)
	sinLat, cosLat := math.Sin(o.lat), math.Cos(o.lat)
	sinLon, cosLon := math.Sin(o.lon), math.Cos(o.lon)

	south := sinLat*cosLon*d.X + sinLat*sinLon*d.Y - cosLat*d.Z
	east := -sinLon*d.X + cosLon*d.Y
	zenith := cosLat*cosLon*d.X + cosLat*sinLon*d.Y + sinLat*d.Z

	rng := r3.Norm(d)
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}
	return LookAngles{
		Azimuth:   az * rad2deg,
		Elevation: math.Asin(zenith/rng) * rad2deg,
		RangeKm:   rng,
	}
}

// Geodetic is a WGS-84 latitude, longitude and height.
type Geodetic struct {
	LatDeg float64 `json:"lat"`
	LonDeg float64 `json:"lon"`
	AltKm  float64 `json:"alt_km"`
}

// ToGeodetic converts an ECEF position in km to geodetic coordinates with
// Bowring's iteration, which converges in a few steps for orbital heights.
func ToGeodetic(p r3.Vec) Geodetic {
	lon := math.Atan2(p.Y, p.X)
	rho := math.Hypot(p.X, p.Y)

	lat := math.Atan2(p.Z, rho*(1-wgs84E2))
	var n float64
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n = wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(p.Z+wgs84E2*n*sinLat, rho)
	}

	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	n = wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = rho/cosLat - n
	} else {
		alt = math.Abs(p.Z)/math.Abs(sinLat) - n*(1-wgs84E2)
	}

	return Geodetic{LatDeg: lat * rad2deg, LonDeg: lon * rad2deg, AltKm: alt}
}

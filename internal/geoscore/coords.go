package geoscore

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

var (
	ErrInvalidSphericalPoint = errors.New("spherical point out of range")
	ErrInvalidCoordinate     = errors.New("coordinate out of range")
)

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// SphericalPoint is a point on the globe mesh in the renderer's convention:
// Phi is the polar angle measured from +Y (the north pole), Theta the azimuth
// around +Y measured from +Z towards +X.
type SphericalPoint struct {
	Radius float64 `json:"radius"`
	Phi    float64 `json:"phi"`
	Theta  float64 `json:"theta"`
}

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate lies inside [-90,90] x [-180,180].
func (c Coordinate) Valid() bool {
	return s2.LatLngFromDegrees(c.Latitude, c.Longitude).IsValid()
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// ToGeographic converts a spherical point to latitude/longitude. The input is
// not validated: out-of-range angles give out-of-range coordinates and NaN
// propagates.
func ToGeographic(p SphericalPoint) Coordinate {
	return Coordinate{
		Latitude:  90 - p.Phi*radToDeg,
		Longitude: p.Theta * radToDeg,
	}
}

// ToGeographicStrict is ToGeographic with range checks on phi and theta. The
// radius must be positive and finite, which rejects the zero point a
// degenerate hit vector converts to.
func ToGeographicStrict(p SphericalPoint) (Coordinate, error) {
	if !finite(p.Radius) || p.Radius <= 0 {
		return Coordinate{}, fmt.Errorf("%w: radius=%v", ErrInvalidSphericalPoint, p.Radius)
	}
	if !finite(p.Phi) || !finite(p.Theta) {
		return Coordinate{}, fmt.Errorf("%w: non-finite angle (phi=%v theta=%v)", ErrInvalidSphericalPoint, p.Phi, p.Theta)
	}
	if p.Phi < 0 || p.Phi > math.Pi {
		return Coordinate{}, fmt.Errorf("%w: phi=%v not in [0, π]", ErrInvalidSphericalPoint, p.Phi)
	}
	if p.Theta < -math.Pi || p.Theta > math.Pi {
		return Coordinate{}, fmt.Errorf("%w: theta=%v not in [-π, π]", ErrInvalidSphericalPoint, p.Theta)
	}
	return ToGeographic(p), nil
}

// FromGeographic places a coordinate on the unit sphere.
func FromGeographic(c Coordinate) SphericalPoint {
	return SphericalPoint{
		Radius: 1,
		Phi:    (90 - c.Latitude) * degToRad,
		Theta:  c.Longitude * degToRad,
	}
}

// SphericalFromCartesian converts a raycast hit position into a spherical point.
// The origin gives the zero point, which ToGeographicStrict rejects.
func SphericalFromCartesian(x, y, z float64) SphericalPoint {
	r := math.Sqrt(x*x + y*y + z*z)
	if r == 0 {
		return SphericalPoint{}
	}
	return SphericalPoint{
		Radius: r,
		Phi:    math.Acos(clamp(y/r, -1, 1)),
		Theta:  math.Atan2(x, z),
	}
}

// Cartesian returns the x, y, z position of the point.
func (p SphericalPoint) Cartesian() (x, y, z float64) {
	sinPhiRadius := math.Sin(p.Phi) * p.Radius
	return sinPhiRadius * math.Sin(p.Theta), math.Cos(p.Phi) * p.Radius, sinPhiRadius * math.Cos(p.Theta)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

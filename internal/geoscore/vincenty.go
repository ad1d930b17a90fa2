package geoscore

import (
	"errors"
	"math"
)

// ErrNoConvergence is returned by DistanceKm for nearly antipodal points,
// where the inverse iteration does not settle.
var ErrNoConvergence = errors.New("vincenty: formula failed to converge")

// WGS84 ellipsoid.
const (
	semiMajorAxis = 6378137.0
	semiMinorAxis = 6356752.3142
	flattening    = 1 / 298.257223563

	maxIterations        = 100
	convergenceThreshold = 1e-12
)

// DistanceKm returns the ellipsoidal surface distance between c1 and c2 in
// kilometres using Vincenty's inverse formula.
//
// On non-convergence it returns NaN together with ErrNoConvergence. The
// iteration is also abandoned as soon as lambda leaves [-π, π]: no solution
// exists there, and it only happens inside the antipodal region.
func DistanceKm(c1, c2 Coordinate) (float64, error) {
	L := math.Remainder((c2.Longitude-c1.Longitude)*degToRad, 2*math.Pi)
	U1 := math.Atan((1 - flattening) * math.Tan(c1.Latitude*degToRad))
	U2 := math.Atan((1 - flattening) * math.Tan(c2.Latitude*degToRad))
	sinU1, cosU1 := math.Sincos(U1)
	sinU2, cosU2 := math.Sincos(U2)

	var (
		lambda     = L
		sinSigma   float64
		cosSigma   float64
		sigma      float64
		cosSqAlpha float64
		cos2SigmaM float64
		converged  bool
	)
	for i := 0; i < maxIterations; i++ {
		sinLambda, cosLambda := math.Sincos(lambda)
		t1 := cosU2 * sinLambda
		t2 := cosU1*sinU2 - sinU1*cosU2*cosLambda
		sinSigma = math.Sqrt(t1*t1 + t2*t2)
		if sinSigma == 0 {
			// coincident points
			return 0, nil
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)

		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha = 1 - sinAlpha*sinAlpha
		if cosSqAlpha != 0 {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		} else {
			// equatorial line
			cos2SigmaM = 0
		}

		C := flattening / 16 * cosSqAlpha * (4 + flattening*(4-3*cosSqAlpha))
		prev := lambda
		lambda = L + (1-C)*flattening*sinAlpha*
			(sigma+C*sinSigma*(cos2SigmaM+C*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

		if math.IsNaN(lambda) || math.Abs(lambda) > math.Pi {
			return math.NaN(), ErrNoConvergence
		}
		if math.Abs(lambda-prev) <= convergenceThreshold {
			converged = true
			break
		}
	}
	if !converged {
		return math.NaN(), ErrNoConvergence
	}

	uSq := cosSqAlpha * (semiMajorAxis*semiMajorAxis - semiMinorAxis*semiMinorAxis) / (semiMinorAxis * semiMinorAxis)
	A := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	B := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := B * sinSigma * (cos2SigmaM + B/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
		B/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	s := semiMinorAxis * A * (sigma - deltaSigma)
	return s / 1000, nil
}

package geoscore

import (
	"github.com/golang/geo/s2"
)

const meanEarthRadiusKm = 6371.0088

// GreatCircleKm is the spherical (haversine) distance in kilometres. It is less
// accurate than DistanceKm but always defined, which makes it the fallback
// for nearly antipodal guesses.
func GreatCircleKm(c1, c2 Coordinate) float64 {
	a := s2.LatLngFromDegrees(c1.Latitude, c1.Longitude)
	b := s2.LatLngFromDegrees(c2.Latitude, c2.Longitude)
	return a.Distance(b).Radians() * meanEarthRadiusKm
}

// Haversine distance (meters) between two WGS84 lat/lng points (degrees).
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	return GreatCircleKm(Coordinate{lat1, lng1}, Coordinate{lat2, lng2}) * 1000
}

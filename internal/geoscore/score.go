package geoscore

import (
	"fmt"
	"math"
)

const (
	DefaultMaxDistanceKm = 5000.0
	DefaultDecayRate     = 3.0
	DefaultToleranceKm   = 20.0
	DefaultMaxPoints     = 1000
)

// Scorer maps a distance to points on an exponential decay curve:
//
//	points = MaxPoints * exp(-d * DecayRate / MaxDistanceKm)
//
// Guesses closer than ToleranceKm get MaxPoints.
type Scorer struct {
	MaxDistanceKm float64
	DecayRate     float64
	ToleranceKm   float64
	MaxPoints     int
}

func DefaultScorer() Scorer {
	return Scorer{
		MaxDistanceKm: DefaultMaxDistanceKm,
		DecayRate:     DefaultDecayRate,
		ToleranceKm:   DefaultToleranceKm,
		MaxPoints:     DefaultMaxPoints,
	}
}

func (s Scorer) Validate() error {
	if !(s.MaxDistanceKm > 0) {
		return fmt.Errorf("max distance must be positive, got %v", s.MaxDistanceKm)
	}
	if !(s.DecayRate > 0) {
		return fmt.Errorf("decay rate must be positive, got %v", s.DecayRate)
	}
	if !(s.ToleranceKm >= 0) {
		return fmt.Errorf("tolerance must not be negative, got %v", s.ToleranceKm)
	}
	if s.MaxPoints <= 0 {
		return fmt.Errorf("max points must be positive, got %d", s.MaxPoints)
	}
	return nil
}

// Score returns an integer score in [0, MaxPoints]. A NaN distance (an
// unscorable guess) is worth 0.
func (s Scorer) Score(distanceKm float64) int {
	if math.IsNaN(distanceKm) {
		return 0
	}
	if distanceKm < s.ToleranceKm {
		return s.MaxPoints
	}

	raw := float64(s.MaxPoints) * math.Exp(-distanceKm*s.DecayRate/s.MaxDistanceKm)
	score := int(math.Round(raw))

	if score < 0 {
		return 0
	}
	if score > s.MaxPoints {
		return s.MaxPoints
	}
	return score
}

// ZeroScoreDistanceKm is the distance beyond which Score rounds to 0.
func (s Scorer) ZeroScoreDistanceKm() float64 {
	// 0.5 = MaxPoints * exp(-d * DecayRate / MaxDistanceKm)
	return math.Log(2*float64(s.MaxPoints)) * s.MaxDistanceKm / s.DecayRate
}

// Score scores a distance with the default constants.
func Score(distanceKm float64) int {
	return DefaultScorer().Score(distanceKm)
}

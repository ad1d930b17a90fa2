package geoscore

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Fallback selects what Evaluate does when Vincenty does not converge.
type Fallback string

const (
	FallbackNone      Fallback = "none"
	FallbackHaversine Fallback = "haversine"
)

func ParseFallback(s string) (Fallback, error) {
	switch Fallback(strings.ToLower(strings.TrimSpace(s))) {
	case FallbackNone, "":
		return FallbackNone, nil
	case FallbackHaversine:
		return FallbackHaversine, nil
	}
	return "", fmt.Errorf("unknown distance fallback %q", s)
}

// ScoreResult is the outcome of one guess.
type ScoreResult struct {
	DistanceKm float64 `json:"distance_km"`
	Points     int     `json:"points"`
	// Approximate is set when the distance came from the spherical fallback.
	Approximate bool `json:"approximate,omitempty"`
}

// Method names the distance algorithm that produced the result.
func (r ScoreResult) Method() string {
	if r.Approximate {
		return string(FallbackHaversine)
	}
	return "vincenty"
}

// Engine combines the distance solver with a Scorer. The zero Fallback
// behaves like FallbackNone. Engine holds no mutable state.
type Engine struct {
	Scorer   Scorer
	Fallback Fallback
}

func NewEngine(scorer Scorer, fallback Fallback) Engine {
	return Engine{Scorer: scorer, Fallback: fallback}
}

// Evaluate scores guess against answer. With FallbackNone a non-convergent
// distance is returned as ErrNoConvergence and the result is zero.
func (e Engine) Evaluate(guess, answer Coordinate) (ScoreResult, error) {
	if !guess.Valid() {
		return ScoreResult{}, fmt.Errorf("%w: guess %s", ErrInvalidCoordinate, guess)
	}
	if !answer.Valid() {
		return ScoreResult{}, fmt.Errorf("%w: answer %s", ErrInvalidCoordinate, answer)
	}

	d, err := DistanceKm(guess, answer)
	approximate := false
	if err != nil {
		if !errors.Is(err, ErrNoConvergence) || e.Fallback != FallbackHaversine {
			return ScoreResult{}, err
		}
		d = GreatCircleKm(guess, answer)
		approximate = true
	}

	return ScoreResult{
		DistanceKm:  d,
		Points:      e.Scorer.Score(d),
		Approximate: approximate,
	}, nil
}

// EvaluatePoint converts a globe click with range checks and scores it.
func (e Engine) EvaluatePoint(p SphericalPoint, answer Coordinate) (ScoreResult, error) {
	guess, err := ToGeographicStrict(p)
	if err != nil {
		return ScoreResult{}, err
	}
	return e.Evaluate(guess, answer)
}

// FormatDistance formats a distance in kilometres for display.
func FormatDistance(km float64) string {
	if math.IsNaN(km) {
		return "?"
	}
	if km < 1 {
		return fmt.Sprintf("%.0f m", km*1000)
	}
	return fmt.Sprintf("%.0f km", km)
}

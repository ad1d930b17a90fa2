package guess

import (
	"math"
	"sort"

	"github.com/susu3304/globeguess/internal/geoscore"
)

type Guess struct {
	ID         int64
	UserID     string
	Coordinate geoscore.Coordinate
	GuessURL   string
}

type GuessResult struct {
	GuessID     int64
	UserID      string
	GuessURL    string
	Score       int
	DistanceKm  float64
	Approximate bool
	Unscored    bool
}

// Rank scores guesses against answer, best first. Ties on score go to the
// shorter distance, then to the earlier guess. Unscored guesses come last.
func Rank(engine geoscore.Engine, answer geoscore.Coordinate, guesses []Guess) []GuessResult {
	results := make([]GuessResult, 0, len(guesses))
	for _, g := range guesses {
		r := GuessResult{GuessID: g.ID, UserID: g.UserID, GuessURL: g.GuessURL}
		res, err := engine.Evaluate(g.Coordinate, answer)
		if err != nil {
			// no convergence, or a stored coordinate out of range
			r.Unscored = true
			r.DistanceKm = math.NaN()
		} else {
			r.Score = res.Points
			r.DistanceKm = res.DistanceKm
			r.Approximate = res.Approximate
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Unscored != b.Unscored {
			return !a.Unscored
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Unscored {
			return false
		}
		return a.DistanceKm < b.DistanceKm
	})
	return results
}

// Package game runs single-player rounds: a session walks through a list of
// locations, each globe click is scored against the current one, and the
// points accumulate into the round total.
//
// The Session value is owned by the caller. The HTTP layer keeps it inside a
// signed round token, so the server holds no per-player state.
package game

import (
	"errors"
	"time"

	"github.com/susu3304/globeguess/internal/location"
)

var (
	ErrGameOver      = errors.New("game is already finished")
	ErrInvalidToken  = errors.New("invalid round token")
	ErrTokenReplayed = errors.New("round token already used")
)

type Session struct {
	ID          string          `json:"id"`
	Region      location.Region `json:"region"`
	LocationIDs []string        `json:"locations"`
	Index       int             `json:"index"`
	Total       int             `json:"total"`
	Scores      []int           `json:"scores,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
}

// Current returns the id of the location to guess next.
func (s *Session) Current() (string, bool) {
	if s.Done() {
		return "", false
	}
	return s.LocationIDs[s.Index], true
}

func (s *Session) Done() bool {
	return s.Index >= len(s.LocationIDs)
}

// Apply books the points of the current location and moves on.
func (s *Session) Apply(points int) error {
	if s.Done() {
		return ErrGameOver
	}
	s.Scores = append(s.Scores, points)
	s.Total += points
	s.Index++
	return nil
}

// RoundSummary is what a finished game reports to the score accumulator.
// TotalScore and Mode match the max-score submission payload.
type RoundSummary struct {
	GameID      string          `json:"game_id"`
	Region      location.Region `json:"region"`
	Mode        string          `json:"mode"`
	TotalScore  int             `json:"totalScore"`
	MaxPossible int             `json:"max_possible"`
	Scores      []int           `json:"scores"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
}

func (s *Session) Summary(maxPoints int, now time.Time) RoundSummary {
	scores := make([]int, len(s.Scores))
	copy(scores, s.Scores)
	return RoundSummary{
		GameID:      s.ID,
		Region:      s.Region,
		Mode:        s.Region.Mode(),
		TotalScore:  s.Total,
		MaxPossible: maxPoints * len(s.LocationIDs),
		Scores:      scores,
		StartedAt:   s.StartedAt,
		FinishedAt:  now,
	}
}

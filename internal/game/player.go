package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/susu3304/globeguess/internal/geoscore"
	"github.com/susu3304/globeguess/internal/location"
	"github.com/susu3304/globeguess/internal/metrics"
)

// GuessEvent is published for every guess, scored or not.
type GuessEvent struct {
	GameID      string          `json:"game_id"`
	Region      location.Region `json:"region"`
	Round       int             `json:"round"`
	LocationID  string          `json:"location_id"`
	DistanceKm  *float64        `json:"distance_km,omitempty"`
	Points      int             `json:"points"`
	Approximate bool            `json:"approximate,omitempty"`
	Unscored    bool            `json:"unscored,omitempty"`
	At          time.Time       `json:"at"`
}

// Sink receives scoring results, e.g. a running-total accumulator or a
// leaderboard writer.
type Sink interface {
	GuessScored(ctx context.Context, ev GuessEvent) error
	RoundFinished(ctx context.Context, summary RoundSummary) error
}

type NopSink struct{}

func (NopSink) GuessScored(context.Context, GuessEvent) error     { return nil }
func (NopSink) RoundFinished(context.Context, RoundSummary) error { return nil }

// Outcome is the result of one guess as shown to the player.
type Outcome struct {
	Location location.Location
	Answer   geoscore.Coordinate
	Guess    geoscore.Coordinate
	Result   geoscore.ScoreResult
	// Unscored is set when no distance could be computed; the guess is
	// worth 0 points and Result.DistanceKm is NaN.
	Unscored bool
	Total    int
	Done     bool
	Summary  *RoundSummary
}

type Player struct {
	Engine  geoscore.Engine
	Catalog *location.Catalog
	Sink    Sink
	Now     func() time.Time
}

func NewPlayer(engine geoscore.Engine, catalog *location.Catalog, sink Sink) *Player {
	if sink == nil {
		sink = NopSink{}
	}
	return &Player{Engine: engine, Catalog: catalog, Sink: sink, Now: time.Now}
}

func (p *Player) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Start draws rounds locations of the region into a new session.
func (p *Player) Start(region location.Region, rounds int, rng *rand.Rand) (*Session, error) {
	locs, err := p.Catalog.Pick(region, rounds, rng)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(locs))
	for i, l := range locs {
		ids[i] = l.ID
	}
	return &Session{
		ID:          uuid.NewString(),
		Region:      region,
		LocationIDs: ids,
		StartedAt:   p.now().UTC(),
	}, nil
}

// Guess scores a globe click against the session's current location and
// advances the session. Clicks outside the valid angle ranges are rejected
// without consuming the location. A guess whose distance does not converge
// (and the engine has no fallback) is booked as 0 points.
func (p *Player) Guess(ctx context.Context, sess *Session, point geoscore.SphericalPoint) (Outcome, error) {
	id, ok := sess.Current()
	if !ok {
		return Outcome{}, ErrGameOver
	}
	loc, err := p.Catalog.Get(id)
	if err != nil {
		return Outcome{}, err
	}
	answer, err := loc.Midpoint()
	if err != nil {
		return Outcome{}, err
	}
	guess, err := geoscore.ToGeographicStrict(point)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Location: loc, Answer: answer, Guess: guess}
	out.Result, err = p.Engine.Evaluate(guess, answer)
	switch {
	case errors.Is(err, geoscore.ErrNoConvergence):
		out.Unscored = true
		out.Result = geoscore.ScoreResult{DistanceKm: math.NaN()}
		slog.Warn("guess could not be scored", "game_id", sess.ID, "location", id, "guess", guess.String())
	case err != nil:
		return Outcome{}, fmt.Errorf("score guess: %w", err)
	}

	round := sess.Index
	if err := sess.Apply(out.Result.Points); err != nil {
		return Outcome{}, err
	}
	out.Total = sess.Total
	out.Done = sess.Done()

	region := sess.Region.String()
	metrics.ObserveGuess(region, out.Result.Method(), out.Result.DistanceKm, out.Result.Points, out.Unscored)

	ev := GuessEvent{
		GameID:      sess.ID,
		Region:      sess.Region,
		Round:       round,
		LocationID:  id,
		Points:      out.Result.Points,
		Approximate: out.Result.Approximate,
		Unscored:    out.Unscored,
		At:          p.now().UTC(),
	}
	if !out.Unscored {
		d := out.Result.DistanceKm
		ev.DistanceKm = &d
	}
	if err := p.Sink.GuessScored(ctx, ev); err != nil {
		slog.Warn("publish guess failed", "game_id", sess.ID, "error", err)
	}

	if out.Done {
		summary := sess.Summary(p.Engine.Scorer.MaxPoints, p.now().UTC())
		out.Summary = &summary
		metrics.RoundsFinished.WithLabelValues(region).Inc()
		if err := p.Sink.RoundFinished(ctx, summary); err != nil {
			slog.Warn("publish round failed", "game_id", sess.ID, "error", err)
		}
	}
	return out, nil
}

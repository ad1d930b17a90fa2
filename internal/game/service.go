package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/susu3304/globeguess/internal/geoscore"
	"github.com/susu3304/globeguess/internal/location"
)

// ReplayGuard remembers spent token ids.
type ReplayGuard interface {
	// Claim marks id as used and reports whether it was unused before.
	Claim(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

// Service ties the player to round tokens: every guess spends the token it
// was made with and returns the next one.
type Service struct {
	Player *Player
	Tokens *Tokens
	Replay ReplayGuard
	Rounds int
}

func NewService(player *Player, tokens *Tokens, replay ReplayGuard, rounds int) *Service {
	return &Service{Player: player, Tokens: tokens, Replay: replay, Rounds: rounds}
}

// NewGame starts a session for the region and returns it with its token.
func (s *Service) NewGame(region location.Region, rounds int, rng *rand.Rand) (*Session, string, error) {
	if rounds <= 0 {
		rounds = s.Rounds
	}
	sess, err := s.Player.Start(region, rounds, rng)
	if err != nil {
		return nil, "", err
	}
	token, err := s.Tokens.Issue(sess)
	if err != nil {
		return nil, "", err
	}
	return sess, token, nil
}

// Guess scores a click for the session inside token. The returned token is
// empty once the game is over.
func (s *Service) Guess(ctx context.Context, token string, point geoscore.SphericalPoint) (Outcome, string, error) {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return Outcome{}, "", err
	}
	sess := claims.Session
	if sess.Done() {
		return Outcome{}, "", ErrGameOver
	}
	// reject malformed clicks before the token is spent
	if _, err := geoscore.ToGeographicStrict(point); err != nil {
		return Outcome{}, "", err
	}

	if s.Replay != nil {
		fresh, err := s.Replay.Claim(ctx, claims.ID, s.Tokens.TTL())
		if err != nil {
			return Outcome{}, "", fmt.Errorf("claim round token: %w", err)
		}
		if !fresh {
			return Outcome{}, "", ErrTokenReplayed
		}
	}

	out, err := s.Player.Guess(ctx, &sess, point)
	if err != nil {
		return Outcome{}, "", err
	}
	if out.Done {
		return out, "", nil
	}
	next, err := s.Tokens.Issue(&sess)
	if err != nil {
		return Outcome{}, "", err
	}
	return out, next, nil
}

// Peek returns the session inside a token without spending it.
func (s *Service) Peek(token string) (*Session, error) {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	return &claims.Session, nil
}

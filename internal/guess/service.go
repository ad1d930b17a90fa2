package guess

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/susu3304/globeguess/internal/db"
	"github.com/susu3304/globeguess/internal/geoscore"
	"github.com/susu3304/globeguess/internal/location"
	"github.com/susu3304/globeguess/internal/metrics"
)

var (
	ErrSessionAlreadyExists = errors.New("a session is already running in this channel")
	ErrNoActiveSession      = errors.New("no active session in this channel")
	ErrAnswerNotSet         = errors.New("no answer has been set")
	ErrAlreadyGuessed       = errors.New("you have already guessed")
	ErrAlreadyRevealed      = errors.New("the answer has already been revealed")
)

// customRegion labels metrics for rounds whose answer is not from the catalogue.
const customRegion = "custom"

type Service struct {
	db      *db.DB
	engine  geoscore.Engine
	catalog *location.Catalog
}

func NewService(database *db.DB, engine geoscore.Engine, catalog *location.Catalog) *Service {
	return &Service{db: database, engine: engine, catalog: catalog}
}

type Session struct {
	ID          int64
	ChannelID   string
	GuildID     int64
	OrganizerID string
	Status      string
	LocationID  *string
	AnswerLat   *float64
	AnswerLng   *float64
	AnswerURL   *string
	Revealed    bool
	CreatedAt   time.Time
	ClosedAt    *time.Time
}

// Answer returns the stored answer, if any.
func (s *Session) Answer() (geoscore.Coordinate, bool) {
	if s.AnswerLat == nil || s.AnswerLng == nil {
		return geoscore.Coordinate{}, false
	}
	return geoscore.Coordinate{Latitude: *s.AnswerLat, Longitude: *s.AnswerLng}, true
}

// StartSession opens a round in the channel. With a region, the answer is
// drawn from the catalogue and the returned location's picture is the
// question; without one the organizer supplies the answer later.
func (s *Service) StartSession(ctx context.Context, channelID string, guildID int64, organizerID string, region *location.Region, rng *rand.Rand) (*location.Location, error) {
	var (
		loc                  *location.Location
		locationID           *string
		answerLat, answerLng *float64
	)
	if region != nil {
		picked, err := s.catalog.Pick(*region, 1, rng)
		if err != nil {
			return nil, err
		}
		mid, err := picked[0].Midpoint()
		if err != nil {
			return nil, err
		}
		loc = &picked[0]
		locationID = &loc.ID
		answerLat, answerLng = &mid.Latitude, &mid.Longitude
	}

	query := `
		INSERT INTO guess_sessions (channel_id, guild_id, organizer_id, status, location_id, answer_lat, answer_lng)
		VALUES ($1, $2, $3, 'active', $4, $5, $6)
	`
	_, err := s.db.Pool().Exec(ctx, query, channelID, guildID, organizerID, locationID, answerLat, answerLng)
	if err != nil {
		// Check for unique constraint violation
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSessionAlreadyExists
		}
		return nil, err
	}
	return loc, nil
}

// StopSession ends the active session in the channel.
func (s *Service) StopSession(ctx context.Context, channelID string) error {
	query := `
		UPDATE guess_sessions
		SET status = 'closed', closed_at = CURRENT_TIMESTAMP
		WHERE channel_id = $1 AND status = 'active'
	`
	result, err := s.db.Pool().Exec(ctx, query, channelID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNoActiveSession
	}
	return nil
}

// GetActiveSession retrieves the active session for the channel.
func (s *Service) GetActiveSession(ctx context.Context, channelID string) (*Session, error) {
	query := `
		SELECT id, channel_id, guild_id, organizer_id, status, location_id, answer_lat, answer_lng,
		       answer_url, revealed, created_at, closed_at
		FROM guess_sessions
		WHERE channel_id = $1 AND status = 'active'
	`
	var sess Session
	err := s.db.Pool().QueryRow(ctx, query, channelID).Scan(
		&sess.ID, &sess.ChannelID, &sess.GuildID, &sess.OrganizerID, &sess.Status,
		&sess.LocationID, &sess.AnswerLat, &sess.AnswerLng, &sess.AnswerURL, &sess.Revealed,
		&sess.CreatedAt, &sess.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveSession
		}
		return nil, err
	}
	return &sess, nil
}

// AddGuess records a user's guess for the active session.
func (s *Service) AddGuess(ctx context.Context, channelID, userID string, c geoscore.Coordinate, guessURL string) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %s", geoscore.ErrInvalidCoordinate, c)
	}
	sess, err := s.GetActiveSession(ctx, channelID)
	if err != nil {
		return err
	}
	if sess.Revealed {
		return ErrAlreadyRevealed
	}

	query := `
		INSERT INTO guess_guesses (session_id, user_id, guess_lat, guess_lng, guess_url)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.Pool().Exec(ctx, query, sess.ID, userID, c.Latitude, c.Longitude, guessURL)
	if err != nil {
		// Check for unique constraint violation
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyGuessed
		}
		return err
	}
	return nil
}

// Reveal is the outcome of /guess answer.
type Reveal struct {
	Answer    geoscore.Coordinate
	AnswerURL string
	Location  *location.Location
	Results   []GuessResult
}

// SetAnswer reveals the answer of the active session and scores every guess.
// A nil answer uses the one drawn from the catalogue at start.
func (s *Service) SetAnswer(ctx context.Context, channelID string, answer *geoscore.Coordinate, answerURL string) (*Reveal, error) {
	sess, err := s.GetActiveSession(ctx, channelID)
	if err != nil {
		return nil, err
	}

	rev := &Reveal{AnswerURL: answerURL}
	region := customRegion
	if sess.LocationID != nil {
		if loc, err := s.catalog.Get(*sess.LocationID); err == nil {
			rev.Location = &loc
			region = loc.Region.String()
		}
	}
	switch stored, ok := sess.Answer(); {
	case answer != nil:
		if !answer.Valid() {
			return nil, fmt.Errorf("%w: %s", geoscore.ErrInvalidCoordinate, answer)
		}
		rev.Answer = *answer
	case ok:
		rev.Answer = stored
	default:
		return nil, ErrAnswerNotSet
	}
	if rev.AnswerURL == "" {
		rev.AnswerURL = MapsURL(rev.Answer)
	}

	tx, err := s.db.Pool().Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	updateQuery := `
		UPDATE guess_sessions
		SET answer_lat = $1, answer_lng = $2, answer_url = $3, revealed = TRUE
		WHERE id = $4
	`
	if _, err := tx.Exec(ctx, updateQuery, rev.Answer.Latitude, rev.Answer.Longitude, rev.AnswerURL, sess.ID); err != nil {
		return nil, err
	}

	guessQuery := `
		SELECT id, user_id, guess_lat, guess_lng, guess_url
		FROM guess_guesses
		WHERE session_id = $1
		ORDER BY created_at ASC
	`
	rows, err := tx.Query(ctx, guessQuery, sess.ID)
	if err != nil {
		return nil, err
	}
	var guesses []Guess
	for rows.Next() {
		var g Guess
		if err := rows.Scan(&g.ID, &g.UserID, &g.Coordinate.Latitude, &g.Coordinate.Longitude, &g.GuessURL); err != nil {
			rows.Close()
			return nil, err
		}
		guesses = append(guesses, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rev.Results = Rank(s.engine, rev.Answer, guesses)

	scoreUpdateQuery := `
		UPDATE guess_guesses
		SET score = $1, distance_km = $2, approximate = $3
		WHERE id = $4
	`
	for _, r := range rev.Results {
		var dist *float64
		if !r.Unscored {
			d := r.DistanceKm
			dist = &d
		}
		if _, err := tx.Exec(ctx, scoreUpdateQuery, r.Score, dist, r.Approximate, r.GuessID); err != nil {
			return nil, err
		}
		method := "vincenty"
		if r.Approximate {
			method = string(geoscore.FallbackHaversine)
		}
		metrics.ObserveGuess(region, method, r.DistanceKm, r.Score, r.Unscored)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rev, nil
}

// ExpireSessions closes active sessions created before the cutoff and
// returns their channel ids.
func (s *Service) ExpireSessions(ctx context.Context, before time.Time) ([]string, error) {
	query := `
		UPDATE guess_sessions
		SET status = 'closed', closed_at = CURRENT_TIMESTAMP
		WHERE status = 'active' AND created_at < $1
		RETURNING channel_id
	`
	rows, err := s.db.Pool().Query(ctx, query, before)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// MapsURL links to a coordinate on Google Maps.
func MapsURL(c geoscore.Coordinate) string {
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%.6f,%.6f", c.Latitude, c.Longitude)
}

// FormatDistance renders a result's distance; unscored guesses show "?".
func FormatDistance(r GuessResult) string {
	if r.Unscored {
		return geoscore.FormatDistance(math.NaN())
	}
	label := geoscore.FormatDistance(r.DistanceKm)
	if r.Approximate {
		label = "~" + label
	}
	return label
}

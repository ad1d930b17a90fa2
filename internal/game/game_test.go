package game

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/susu3304/globeguess/internal/geoscore"
	"github.com/susu3304/globeguess/internal/location"
)

var hamburg = geoscore.Coordinate{Latitude: 54, Longitude: 10}

func testCatalog(t *testing.T) *location.Catalog {
	t.Helper()
	c, err := location.NewCatalog([]location.Location{
		{
			ID: "hamburg", Name: "Hamburg", Image: "/img/hh.jpg", Region: location.Europe,
			Area: location.BoundingBox{
				TopLeft:     geoscore.Coordinate{Latitude: 54.1, Longitude: 9.9},
				BottomRight: geoscore.Coordinate{Latitude: 53.9, Longitude: 10.1},
			},
		},
		{ID: "oslo", Name: "Oslo", Region: location.Europe, Area: location.Point{Coordinate: geoscore.Coordinate{Latitude: 59.9139, Longitude: 10.7522}}},
		{ID: "madrid", Name: "Madrid", Region: location.Europe, Area: location.Point{Coordinate: geoscore.Coordinate{Latitude: 40.4168, Longitude: -3.7038}}},
		{ID: "lima", Name: "Lima", Region: location.Americas, Area: location.Point{Coordinate: geoscore.Coordinate{Latitude: -12.0464, Longitude: -77.0428}}},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

// --- Mock Sink ---

type recordingSink struct {
	mu      sync.Mutex
	guesses []GuessEvent
	rounds  []RoundSummary
	err     error
}

func (s *recordingSink) GuessScored(ctx context.Context, ev GuessEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guesses = append(s.guesses, ev)
	return s.err
}

func (s *recordingSink) RoundFinished(ctx context.Context, summary RoundSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds = append(s.rounds, summary)
	return s.err
}

// --- Mock ReplayGuard ---

type memoryGuard struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (g *memoryGuard) Claim(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = map[string]bool{}
	}
	if g.seen[id] {
		return false, nil
	}
	g.seen[id] = true
	return true, nil
}

func antipodeOf(c geoscore.Coordinate) geoscore.SphericalPoint {
	return geoscore.FromGeographic(geoscore.Coordinate{Latitude: -c.Latitude, Longitude: c.Longitude - 180})
}

// --- Tests ---

func TestSessionApply(t *testing.T) {
	sess := &Session{ID: "g1", Region: location.Americas, LocationIDs: []string{"a", "b"}}

	if id, ok := sess.Current(); !ok || id != "a" {
		t.Fatalf("Current() = %q, %v", id, ok)
	}
	if err := sess.Apply(700); err != nil {
		t.Fatal(err)
	}
	if err := sess.Apply(300); err != nil {
		t.Fatal(err)
	}
	if !sess.Done() {
		t.Error("expected the session to be done")
	}
	if _, ok := sess.Current(); ok {
		t.Error("Current() should report no location after the last one")
	}
	if err := sess.Apply(1); !errors.Is(err, ErrGameOver) {
		t.Errorf("expected ErrGameOver, got %v", err)
	}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sum := sess.Summary(1000, now)
	if sum.TotalScore != 1000 || sum.MaxPossible != 2000 || sum.Mode != "1" || len(sum.Scores) != 2 || !sum.FinishedAt.Equal(now) {
		t.Errorf("unexpected summary %+v", sum)
	}
}

func TestPlayerGuess(t *testing.T) {
	sink := &recordingSink{}
	p := NewPlayer(geoscore.NewEngine(geoscore.DefaultScorer(), geoscore.FallbackNone), testCatalog(t), sink)

	sess := &Session{ID: "g1", Region: location.Europe, LocationIDs: []string{"hamburg", "oslo"}}

	out, err := p.Guess(context.Background(), sess, geoscore.SphericalPoint{Radius: 1, Phi: 0.628, Theta: 0.174})
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if out.Result.Points != 1000 || out.Result.DistanceKm > 5 {
		t.Errorf("unexpected result %+v", out.Result)
	}
	if out.Location.ID != "hamburg" || out.Answer != hamburg {
		t.Errorf("unexpected answer %v at %v", out.Location.ID, out.Answer)
	}
	if out.Total != 1000 || out.Done || sess.Index != 1 {
		t.Errorf("unexpected progress total=%d done=%v index=%d", out.Total, out.Done, sess.Index)
	}

	// Madrid is nowhere near Oslo
	out, err = p.Guess(context.Background(), sess, geoscore.FromGeographic(geoscore.Coordinate{Latitude: 40.4168, Longitude: -3.7038}))
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if out.Result.Points <= 0 || out.Result.Points >= 1000 {
		t.Errorf("unexpected points %d", out.Result.Points)
	}
	if !out.Done || out.Summary == nil || out.Summary.TotalScore != 1000+out.Result.Points {
		t.Errorf("expected a finished game, got %+v", out)
	}

	if len(sink.guesses) != 2 || len(sink.rounds) != 1 {
		t.Fatalf("sink saw %d guesses, %d rounds", len(sink.guesses), len(sink.rounds))
	}
	if ev := sink.guesses[1]; ev.Round != 1 || ev.LocationID != "oslo" || ev.DistanceKm == nil {
		t.Errorf("unexpected guess event %+v", ev)
	}

	if _, err := p.Guess(context.Background(), sess, geoscore.SphericalPoint{Radius: 1, Phi: 1, Theta: 1}); !errors.Is(err, ErrGameOver) {
		t.Errorf("expected ErrGameOver, got %v", err)
	}
}

func TestPlayerGuessInvalidPoint(t *testing.T) {
	p := NewPlayer(geoscore.NewEngine(geoscore.DefaultScorer(), geoscore.FallbackNone), testCatalog(t), nil)
	sess := &Session{ID: "g1", Region: location.Europe, LocationIDs: []string{"hamburg"}}

	_, err := p.Guess(context.Background(), sess, geoscore.SphericalPoint{Radius: 1, Phi: -1, Theta: 0})
	if !errors.Is(err, geoscore.ErrInvalidSphericalPoint) {
		t.Fatalf("expected ErrInvalidSphericalPoint, got %v", err)
	}
	if sess.Index != 0 || sess.Total != 0 {
		t.Errorf("an invalid click must not consume the location: %+v", sess)
	}
}

func TestPlayerGuessUnscored(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	p := NewPlayer(geoscore.NewEngine(geoscore.DefaultScorer(), geoscore.FallbackNone), testCatalog(t), sink)
	sess := &Session{ID: "g1", Region: location.Europe, LocationIDs: []string{"hamburg", "oslo"}}

	out, err := p.Guess(context.Background(), sess, antipodeOf(hamburg))
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if !out.Unscored || out.Result.Points != 0 || !math.IsNaN(out.Result.DistanceKm) {
		t.Errorf("expected an unscored guess, got %+v", out)
	}
	if sess.Index != 1 {
		t.Errorf("an unscored guess still moves on, index=%d", sess.Index)
	}
	if len(sink.guesses) != 1 || sink.guesses[0].DistanceKm != nil || !sink.guesses[0].Unscored {
		t.Errorf("unexpected guess events %+v", sink.guesses)
	}
}

func TestPlayerGuessFallback(t *testing.T) {
	p := NewPlayer(geoscore.NewEngine(geoscore.DefaultScorer(), geoscore.FallbackHaversine), testCatalog(t), nil)
	sess := &Session{ID: "g1", Region: location.Europe, LocationIDs: []string{"hamburg"}}

	out, err := p.Guess(context.Background(), sess, antipodeOf(hamburg))
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if out.Unscored || !out.Result.Approximate || out.Result.DistanceKm < 19000 {
		t.Errorf("expected an approximate antipodal distance, got %+v", out.Result)
	}
}

func TestPlayerStart(t *testing.T) {
	p := NewPlayer(geoscore.Engine{Scorer: geoscore.DefaultScorer()}, testCatalog(t), nil)
	p.Now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	sess, err := p.Start(location.Europe, 2, rand.New(rand.NewPCG(7, 7)))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sess.ID == "" || len(sess.LocationIDs) != 2 || sess.Region != location.Europe || sess.StartedAt.Year() != 2024 {
		t.Errorf("unexpected session %+v", sess)
	}
	if _, err := p.Start(location.AsiaOceania, 2, nil); err == nil {
		t.Error("expected an error for a region without locations")
	}
}

func TestTokens(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tokens := NewTokens("test-secret", time.Hour)
	tokens.now = func() time.Time { return now }

	sess := &Session{ID: "g1", Region: location.AsiaOceania, LocationIDs: []string{"a", "b"}, Index: 1, Total: 420, Scores: []int{420}}
	signed, err := tokens.Issue(sess)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := tokens.Parse(signed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.ID == "" || claims.Session.Region != location.AsiaOceania || claims.Session.Total != 420 || claims.Session.Index != 1 {
		t.Errorf("unexpected claims %+v", claims)
	}

	other := NewTokens("another-secret", time.Hour)
	other.now = tokens.now
	if _, err := other.Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for a foreign secret, got %v", err)
	}

	if _, err := tokens.Parse(signed + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for a tampered token, got %v", err)
	}

	tokens.now = func() time.Time { return now.Add(2 * time.Hour) }
	if _, err := tokens.Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for an expired token, got %v", err)
	}
}

func TestServiceFlow(t *testing.T) {
	sink := &recordingSink{}
	player := NewPlayer(geoscore.NewEngine(geoscore.DefaultScorer(), geoscore.FallbackNone), testCatalog(t), sink)
	svc := NewService(player, NewTokens("test-secret", time.Hour), &memoryGuard{}, 3)

	sess, token, err := svc.NewGame(location.Europe, 0, rand.New(rand.NewPCG(1, 1)))
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if len(sess.LocationIDs) != 3 {
		t.Fatalf("expected the default 3 rounds, got %d", len(sess.LocationIDs))
	}

	peeked, err := svc.Peek(token)
	if err != nil || peeked.ID != sess.ID {
		t.Fatalf("Peek = %+v, %v", peeked, err)
	}

	ctx := context.Background()
	cat := testCatalog(t)
	for i, id := range sess.LocationIDs {
		loc, _ := cat.Get(id)
		mid, _ := loc.Midpoint()

		if _, _, err := svc.Guess(ctx, token, geoscore.SphericalPoint{Radius: 1, Phi: 9, Theta: 0}); !errors.Is(err, geoscore.ErrInvalidSphericalPoint) {
			t.Fatalf("expected ErrInvalidSphericalPoint, got %v", err)
		}

		out, next, err := svc.Guess(ctx, token, geoscore.FromGeographic(mid))
		if err != nil {
			t.Fatalf("round %d: %v", i, err)
		}
		if out.Result.Points != 1000 {
			t.Errorf("round %d: points %d, want 1000", i, out.Result.Points)
		}

		if _, _, err := svc.Guess(ctx, token, geoscore.FromGeographic(mid)); !errors.Is(err, ErrTokenReplayed) {
			t.Errorf("round %d: expected ErrTokenReplayed, got %v", i, err)
		}

		last := i == len(sess.LocationIDs)-1
		if last != (next == "") || last != out.Done {
			t.Fatalf("round %d: done=%v next=%q", i, out.Done, next)
		}
		token = next
	}

	if len(sink.rounds) != 1 || sink.rounds[0].TotalScore != 3000 || sink.rounds[0].MaxPossible != 3000 {
		t.Errorf("unexpected round summaries %+v", sink.rounds)
	}
}

func TestServiceGuardFailure(t *testing.T) {
	player := NewPlayer(geoscore.Engine{Scorer: geoscore.DefaultScorer()}, testCatalog(t), nil)
	svc := NewService(player, NewTokens("s", time.Hour), &memoryGuard{err: errors.New("valkey down")}, 1)

	_, token, err := svc.NewGame(location.Americas, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Guess(context.Background(), token, geoscore.FromGeographic(hamburg)); err == nil {
		t.Error("expected the guard error to surface")
	}
	if _, _, err := svc.Guess(context.Background(), "garbage", geoscore.FromGeographic(hamburg)); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

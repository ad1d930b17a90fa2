package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/susu3304/globeguess/internal/game"
	"github.com/susu3304/globeguess/internal/geoscore"
	"github.com/susu3304/globeguess/internal/location"
)

const maxBodyBytes = 1 << 16

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return false
	}
	return true
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"uptime":    time.Since(a.startedAt).Round(time.Second).String(),
		"locations": a.catalog.Len(),
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string, len(a.checks))
	ready := true
	for name, check := range a.checks {
		if err := check(ctx); err != nil {
			checks[name] = "error: " + err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}

func (a *API) handleListRegions(w http.ResponseWriter, r *http.Request) {
	regions := make([]regionResponse, 0, len(location.Regions))
	for _, reg := range location.Regions {
		regions = append(regions, a.newRegionResponse(reg))
	}
	writeJSON(w, http.StatusOK, regions)
}

// handleListLocations describes one region. Names and images stay out of it:
// a client could otherwise match the round's image to its answer.
func (a *API) handleListLocations(w http.ResponseWriter, r *http.Request) {
	region, err := location.ParseRegion(mux.Vars(r)["region"])
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.newRegionResponse(region))
}

// handleScore scores one guess against a given answer without any game
// state.
func (a *API) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Answer == nil {
		writeError(w, http.StatusBadRequest, "bad_request", "answer is required")
		return
	}

	point, err := req.Guess.spherical()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	guess, err := geoscore.ToGeographicStrict(point)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res, err := a.games.Player.Engine.Evaluate(guess, *req.Answer)
	unscored := false
	switch {
	case errors.Is(err, geoscore.ErrNoConvergence):
		unscored = true
		res = geoscore.ScoreResult{DistanceKm: math.NaN()}
	case err != nil:
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newResultResponse(guess, *req.Answer, res, unscored))
}

func (a *API) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	region, err := location.ParseRegion(req.Region)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if req.Rounds < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "rounds must not be negative")
		return
	}

	sess, token, err := a.games.NewGame(region, req.Rounds, nil)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	next, err := a.nextRound(sess)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newGameResponse{
		GameID:    sess.ID,
		Region:    sess.Region,
		Rounds:    len(sess.LocationIDs),
		MaxPoints: a.games.Player.Engine.Scorer.MaxPoints,
		Next:      *next,
		Token:     token,
	})
}

func (a *API) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "token is required")
		return
	}
	point, err := req.Point.spherical()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	// round index before the guess
	prev, err := a.games.Peek(req.Token)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out, token, err := a.games.Guess(r.Context(), req.Token, point)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := guessResponse{
		Round:    prev.Index,
		Location: newLocationResponse(out.Location),
		Result:   newResultResponse(out.Guess, out.Answer, out.Result, out.Unscored),
		Total:    out.Total,
		Done:     out.Done,
		Token:    token,
		Summary:  out.Summary,
	}
	if !out.Done {
		next, err := a.games.Peek(token)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		if resp.Next, err = a.nextRound(next); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) nextRound(sess *game.Session) (*roundResponse, error) {
	id, ok := sess.Current()
	if !ok {
		return nil, game.ErrGameOver
	}
	loc, err := a.catalog.Get(id)
	if err != nil {
		return nil, err
	}
	return &roundResponse{Round: sess.Index, Image: loc.Image}, nil
}

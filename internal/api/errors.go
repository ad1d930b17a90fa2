package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/susu3304/globeguess/internal/game"
	"github.com/susu3304/globeguess/internal/geoscore"
	"github.com/susu3304/globeguess/internal/location"
)

// APIError is the body of every error response.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIError{Status: status, Code: code, Message: message})
}

// writeDomainError maps package sentinels to HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errMissingPoint),
		errors.Is(err, geoscore.ErrInvalidSphericalPoint),
		errors.Is(err, geoscore.ErrInvalidCoordinate):
		writeError(w, http.StatusBadRequest, "invalid_point", err.Error())
	case errors.Is(err, location.ErrUnknownRegion):
		writeError(w, http.StatusBadRequest, "unknown_region", err.Error())
	case errors.Is(err, location.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, game.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid_token", "round token is invalid or expired")
	case errors.Is(err, game.ErrTokenReplayed):
		writeError(w, http.StatusConflict, "token_replayed", err.Error())
	case errors.Is(err, game.ErrGameOver):
		writeError(w, http.StatusConflict, "game_over", err.Error())
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

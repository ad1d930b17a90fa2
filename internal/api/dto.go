package api

import (
	"errors"
	"fmt"
	"math"

	"github.com/susu3304/globeguess/internal/game"
	"github.com/susu3304/globeguess/internal/geoscore"
	"github.com/susu3304/globeguess/internal/location"
)

var errMissingPoint = errors.New("point needs phi and theta, x, y and z, or latitude and longitude")

// pointRequest is a globe click in any of the three forms the client can
// produce: the spherical angles of the hit, the raw hit vector, or an
// already converted coordinate.
type pointRequest struct {
	Radius *float64 `json:"radius,omitempty"`
	Phi    *float64 `json:"phi,omitempty"`
	Theta  *float64 `json:"theta,omitempty"`

	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	Z *float64 `json:"z,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (p *pointRequest) spherical() (geoscore.SphericalPoint, error) {
	if p == nil {
		return geoscore.SphericalPoint{}, errMissingPoint
	}
	switch {
	case p.Phi != nil && p.Theta != nil:
		r := 1.0
		if p.Radius != nil {
			r = *p.Radius
		}
		return geoscore.SphericalPoint{Radius: r, Phi: *p.Phi, Theta: *p.Theta}, nil
	case p.X != nil && p.Y != nil && p.Z != nil:
		return geoscore.SphericalFromCartesian(*p.X, *p.Y, *p.Z), nil
	case p.Latitude != nil && p.Longitude != nil:
		c := geoscore.Coordinate{Latitude: *p.Latitude, Longitude: *p.Longitude}
		if !c.Valid() {
			return geoscore.SphericalPoint{}, fmt.Errorf("%w: %s", geoscore.ErrInvalidCoordinate, c)
		}
		return geoscore.FromGeographic(c), nil
	}
	return geoscore.SphericalPoint{}, errMissingPoint
}

type scoreRequest struct {
	Guess  *pointRequest        `json:"guess"`
	Answer *geoscore.Coordinate `json:"answer"`
}

type newGameRequest struct {
	Region string `json:"region"`
	Rounds int    `json:"rounds,omitempty"`
}

type guessRequest struct {
	Token string        `json:"token"`
	Point *pointRequest `json:"point"`
}

type regionResponse struct {
	ID        location.Region `json:"id"`
	Mode      string          `json:"mode"`
	Name      string          `json:"name"`
	Locations int             `json:"locations"`
}

func (a *API) newRegionResponse(r location.Region) regionResponse {
	return regionResponse{
		ID:        r,
		Mode:      r.Mode(),
		Name:      r.DisplayName(),
		Locations: len(a.catalog.Region(r)),
	}
}

// locationResponse is only sent after the location has been guessed.
type locationResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

func newLocationResponse(l location.Location) locationResponse {
	return locationResponse{ID: l.ID, Name: l.Name, Image: l.Image}
}

// roundResponse shows the next picture without anything that gives the
// answer away.
type roundResponse struct {
	Round int    `json:"round"`
	Image string `json:"image"`
}

type resultResponse struct {
	Guess         geoscore.Coordinate `json:"guess"`
	Answer        geoscore.Coordinate `json:"answer"`
	DistanceKm    *float64            `json:"distance_km,omitempty"`
	DistanceLabel string              `json:"distance_label"`
	Points        int                 `json:"points"`
	Method        string              `json:"method,omitempty"`
	Approximate   bool                `json:"approximate,omitempty"`
	Unscored      bool                `json:"unscored,omitempty"`
}

func newResultResponse(guess, answer geoscore.Coordinate, res geoscore.ScoreResult, unscored bool) resultResponse {
	out := resultResponse{
		Guess:         guess,
		Answer:        answer,
		DistanceLabel: geoscore.FormatDistance(res.DistanceKm),
		Points:        res.Points,
		Approximate:   res.Approximate,
		Unscored:      unscored,
	}
	if !unscored && !math.IsNaN(res.DistanceKm) {
		d := res.DistanceKm
		out.DistanceKm = &d
		out.Method = res.Method()
	}
	return out
}

type newGameResponse struct {
	GameID    string          `json:"game_id"`
	Region    location.Region `json:"region"`
	Rounds    int             `json:"rounds"`
	MaxPoints int             `json:"max_points"`
	Next      roundResponse   `json:"next"`
	Token     string          `json:"token"`
}

type guessResponse struct {
	Round    int                `json:"round"`
	Location locationResponse   `json:"location"`
	Result   resultResponse     `json:"result"`
	Total    int                `json:"total"`
	Done     bool               `json:"done"`
	Next     *roundResponse     `json:"next,omitempty"`
	Token    string             `json:"token,omitempty"`
	Summary  *game.RoundSummary `json:"summary,omitempty"`
}

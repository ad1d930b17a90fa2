// Package geourl turns what players paste into chat into coordinates:
// Google Maps links (short links are expanded), geo: URIs and plain
// "lat,lng" text.
package geourl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/susu3304/globeguess/internal/geoscore"
)

var ErrNoCoordinates = errors.New("no coordinates found")

const num = `(-?\d+(?:\.\d+)?)`

var (
	reAt     = regexp.MustCompile(`@` + num + `,` + num)
	re3d4d   = regexp.MustCompile(`!3d` + num + `!4d` + num)
	reSearch = regexp.MustCompile(`/search/` + num + `,(?:\+|\s|%20)*` + num)
	reQ      = regexp.MustCompile(`^\s*` + num + `\s*,\s*\+?\s*` + num + `\s*$`)
	reGeo    = regexp.MustCompile(`^geo:` + num + `,` + num + `(?:,-?\d+(?:\.\d+)?)?(?:[;?].*)?$`)
)

// Resolver expands links. The zero value uses a client with a 15s timeout.
type Resolver struct {
	Client *http.Client
}

func NewResolver() *Resolver {
	return &Resolver{Client: &http.Client{
		Timeout: 15 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}}
}

// Resolve returns the coordinate in input and the URL it was read from. Plain
// text and geo: URIs never hit the network; links that already carry
// coordinates are not fetched either.
func (r *Resolver) Resolve(ctx context.Context, input string) (geoscore.Coordinate, string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return geoscore.Coordinate{}, "", ErrNoCoordinates
	}

	if m := reQ.FindStringSubmatch(input); len(m) == 3 {
		return checked(m[1], m[2], input)
	}
	if m := reGeo.FindStringSubmatch(strings.ToLower(input)); len(m) == 3 {
		return checked(m[1], m[2], input)
	}

	u, err := url.Parse(input)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return geoscore.Coordinate{}, "", fmt.Errorf("%w in %q", ErrNoCoordinates, input)
	}
	if lat, lng, ok := extractFromURL(input); ok {
		return validate(lat, lng, input)
	}

	final, err := r.expand(ctx, input)
	if err != nil {
		return geoscore.Coordinate{}, "", err
	}
	lat, lng, ok := extractFromURL(final)
	if !ok {
		return geoscore.Coordinate{}, final, fmt.Errorf("%w in final URL: %s", ErrNoCoordinates, final)
	}
	return validate(lat, lng, final)
}

// expand follows redirects and returns the final URL.
func (r *Resolver) expand(ctx context.Context, input string) (string, error) {
	client := r.Client
	if client == nil {
		client = NewResolver().Client
	}

	req, err := http.NewRequestWithContext(ctx, "GET", input, nil)
	if err != nil {
		return "", err
	}
	// Some endpoints behave better with a UA.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; GeoTools/1.0)")
	req.Header.Set("Accept-Language", "en;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.Request == nil || resp.Request.URL == nil {
		return "", errors.New("failed to determine final URL")
	}
	return resp.Request.URL.String(), nil
}

func extractFromURL(s string) (lat, lng float64, ok bool) {
	// .../@lat,lng,zoom...
	if m := reAt.FindStringSubmatch(s); len(m) == 3 {
		return parse2(m[1], m[2])
	}
	// ...!3dlat!4dlng...
	if m := re3d4d.FindStringSubmatch(s); len(m) == 3 {
		return parse2(m[1], m[2])
	}
	// .../maps/search/lat,+lng
	if m := reSearch.FindStringSubmatch(s); len(m) == 3 {
		return parse2(m[1], m[2])
	}

	// ?q=lat,lng or ?query=lat,lng
	u, err := url.Parse(s)
	if err == nil {
		for _, key := range []string{"q", "query"} {
			if v := u.Query().Get(key); v != "" {
				if mm := reQ.FindStringSubmatch(v); len(mm) == 3 {
					return parse2(mm[1], mm[2])
				}
			}
		}
	}

	return 0, 0, false
}

func parse2(a, b string) (lat, lng float64, ok bool) {
	la, err1 := strconv.ParseFloat(a, 64)
	lo, err2 := strconv.ParseFloat(b, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return la, lo, true
}

func checked(a, b, source string) (geoscore.Coordinate, string, error) {
	lat, lng, ok := parse2(a, b)
	if !ok {
		return geoscore.Coordinate{}, "", fmt.Errorf("%w in %q", ErrNoCoordinates, source)
	}
	return validate(lat, lng, source)
}

func validate(lat, lng float64, source string) (geoscore.Coordinate, string, error) {
	c := geoscore.Coordinate{Latitude: lat, Longitude: lng}
	if !c.Valid() {
		return geoscore.Coordinate{}, source, fmt.Errorf("%w: %s", geoscore.ErrInvalidCoordinate, c)
	}
	return c, source, nil
}

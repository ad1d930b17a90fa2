// Package location holds the quiz answer catalogue: pictures of places
// grouped by game region, each tied to a point or a small bounding box.
package location

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/susu3304/globeguess/internal/geoscore"
)

var (
	ErrUnknownRegion = errors.New("unknown region")
	ErrNoArea        = errors.New("location has neither a point nor a bounding box")
	ErrNotFound      = errors.New("location not found")
)

// Region is a game mode. The numeric value is the mode string the web client
// submits with a finished round ("0" to "3").
type Region int

const (
	Europe Region = iota
	Americas
	AsiaOceania
	AfricaMiddleEast
)

var Regions = []Region{Europe, Americas, AsiaOceania, AfricaMiddleEast}

var regionSlugs = map[Region]string{
	Europe:           "europe",
	Americas:         "americas",
	AsiaOceania:      "asia-oceania",
	AfricaMiddleEast: "africa-middle-east",
}

var regionNames = map[Region]string{
	Europe:           "Europe",
	Americas:         "Americas",
	AsiaOceania:      "Asia & Oceania",
	AfricaMiddleEast: "Africa & Middle East",
}

func (r Region) Valid() bool {
	_, ok := regionSlugs[r]
	return ok
}

func (r Region) String() string {
	if s, ok := regionSlugs[r]; ok {
		return s
	}
	return "region(" + strconv.Itoa(int(r)) + ")"
}

func (r Region) DisplayName() string {
	return regionNames[r]
}

// Mode is the region's numeric mode string.
func (r Region) Mode() string {
	return strconv.Itoa(int(r))
}

// ParseRegion accepts a mode string ("0".."3") or a slug such as "asia-oceania".
func ParseRegion(s string) (Region, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if r := Region(n); r.Valid() {
			return r, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownRegion, s)
	}
	s = strings.NewReplacer("_", "-", " ", "-", "&", "").Replace(s)
	s = strings.ReplaceAll(s, "--", "-")
	for r, slug := range regionSlugs {
		if s == slug {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRegion, s)
}

func (r Region) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRegion, int(r))
	}
	return []byte(r.String()), nil
}

func (r *Region) UnmarshalText(b []byte) error {
	v, err := ParseRegion(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Area is where an answer lies: either a Point or a BoundingBox.
type Area interface {
	Midpoint() geoscore.Coordinate
	area()
}

type Point struct {
	geoscore.Coordinate
}

func (p Point) Midpoint() geoscore.Coordinate { return p.Coordinate }
func (Point) area()                           {}

// BoundingBox is given by its top-left and bottom-right corners. Boxes are
// small, so the plain corner average is used as the answer point.
type BoundingBox struct {
	TopLeft     geoscore.Coordinate
	BottomRight geoscore.Coordinate
}

func (b BoundingBox) Midpoint() geoscore.Coordinate {
	return geoscore.Coordinate{
		Latitude:  (b.TopLeft.Latitude + b.BottomRight.Latitude) / 2,
		Longitude: (b.TopLeft.Longitude + b.BottomRight.Longitude) / 2,
	}
}

func (BoundingBox) area() {}

type Location struct {
	ID     string
	Name   string
	Image  string
	Region Region
	Area   Area
}

// Midpoint is the canonical answer coordinate.
func (l Location) Midpoint() (geoscore.Coordinate, error) {
	if l.Area == nil {
		return geoscore.Coordinate{}, fmt.Errorf("%w: %s", ErrNoArea, l.ID)
	}
	return l.Area.Midpoint(), nil
}

func (l Location) Validate() error {
	if l.ID == "" {
		return errors.New("location id is required")
	}
	if !l.Region.Valid() {
		return fmt.Errorf("location %s: %w: %d", l.ID, ErrUnknownRegion, int(l.Region))
	}
	mid, err := l.Midpoint()
	if err != nil {
		return err
	}
	if box, ok := l.Area.(BoundingBox); ok {
		for _, corner := range []geoscore.Coordinate{box.TopLeft, box.BottomRight} {
			if !corner.Valid() {
				return fmt.Errorf("location %s: corner %w: %s", l.ID, geoscore.ErrInvalidCoordinate, corner)
			}
		}
	}
	if !mid.Valid() {
		return fmt.Errorf("location %s: %w: %s", l.ID, geoscore.ErrInvalidCoordinate, mid)
	}
	return nil
}

package location

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/susu3304/globeguess/internal/geoscore"
)

//go:embed data/locations.json
var defaultData []byte

// record is one entry of the image catalogue file. A location carries either
// latitude/longitude or all four bounding-box corner fields.
type record struct {
	Region      string   `json:"region"`
	Name        string   `json:"location"`
	Image       string   `json:"img_path"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	LatitudeTL  *float64 `json:"latitude_tl,omitempty"`
	LongitudeTL *float64 `json:"longitude_tl,omitempty"`
	LatitudeBR  *float64 `json:"latitude_br,omitempty"`
	LongitudeBR *float64 `json:"longitude_br,omitempty"`
}

type document struct {
	Locations map[string]record `json:"gpsImageData"`
}

func (r record) toLocation(id string) (Location, error) {
	region, err := ParseRegion(r.Region)
	if err != nil {
		return Location{}, fmt.Errorf("location %s: %w", id, err)
	}

	var area Area
	switch {
	case r.LatitudeTL != nil && r.LongitudeTL != nil && r.LatitudeBR != nil && r.LongitudeBR != nil:
		area = BoundingBox{
			TopLeft:     geoscore.Coordinate{Latitude: *r.LatitudeTL, Longitude: *r.LongitudeTL},
			BottomRight: geoscore.Coordinate{Latitude: *r.LatitudeBR, Longitude: *r.LongitudeBR},
		}
	case r.Latitude != nil && r.Longitude != nil:
		area = Point{geoscore.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}}
	default:
		return Location{}, fmt.Errorf("%w: %s", ErrNoArea, id)
	}

	return Location{
		ID:     id,
		Name:   r.Name,
		Image:  r.Image,
		Region: region,
		Area:   area,
	}, nil
}

// LoadJSON reads a catalogue in the {"gpsImageData": {id: {...}}} layout.
func LoadJSON(r io.Reader) ([]Location, error) {
	var doc document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}

	ids := make([]string, 0, len(doc.Locations))
	for id := range doc.Locations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	locs := make([]Location, 0, len(ids))
	for _, id := range ids {
		l, err := doc.Locations[id].toLocation(id)
		if err != nil {
			return nil, err
		}
		locs = append(locs, l)
	}
	return locs, nil
}

// Default is the catalogue compiled into the binary.
func Default() (*Catalog, error) {
	locs, err := LoadJSON(bytes.NewReader(defaultData))
	if err != nil {
		return nil, err
	}
	return NewCatalog(locs)
}

// Open loads a catalogue file, picking the decoder by extension. An empty
// path gives the embedded catalogue.
func Open(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	var (
		locs []Location
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		locs, err = LoadXLSX(path, "")
	case ".json":
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		locs, err = LoadJSON(f)
	default:
		return nil, fmt.Errorf("unsupported location file %q", path)
	}
	if err != nil {
		return nil, err
	}
	return NewCatalog(locs)
}

package location

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestLoadJSON(t *testing.T) {
	in := `{
		"gpsImageData": {
			"hamburg": {"region": "0", "location": "Hamburg", "img_path": "/img/hh.jpg",
				"latitude_tl": 54.1, "longitude_tl": 9.9, "latitude_br": 53.9, "longitude_br": 10.1},
			"lima": {"region": "americas", "location": "Lima", "img_path": "/img/lima.jpg",
				"latitude": -12.0464, "longitude": -77.0428}
		}
	}`

	locs, err := LoadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("got %d locations, want 2", len(locs))
	}

	hh := locs[0]
	if hh.ID != "hamburg" || hh.Name != "Hamburg" || hh.Image != "/img/hh.jpg" || hh.Region != Europe {
		t.Errorf("unexpected location %+v", hh)
	}
	if _, ok := hh.Area.(BoundingBox); !ok {
		t.Errorf("hamburg area = %T, want BoundingBox", hh.Area)
	}
	mid, _ := hh.Midpoint()
	if math.Abs(mid.Latitude-54) > 1e-12 || math.Abs(mid.Longitude-10) > 1e-12 {
		t.Errorf("hamburg midpoint = %v", mid)
	}

	if _, ok := locs[1].Area.(Point); !ok {
		t.Errorf("lima area = %T, want Point", locs[1].Area)
	}
}

func TestLoadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"no area", `{"gpsImageData": {"x": {"region": "0", "latitude": 1}}}`, ErrNoArea},
		{"partial box", `{"gpsImageData": {"x": {"region": "0", "latitude_tl": 1, "longitude_tl": 1, "latitude_br": 0}}}`, ErrNoArea},
		{"bad region", `{"gpsImageData": {"x": {"region": "mars", "latitude": 1, "longitude": 2}}}`, ErrUnknownRegion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadJSON(strings.NewReader(tt.in))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := LoadJSON(strings.NewReader(`{"gpsImageData": {"x": {"lat": 1}}}`)); err == nil {
		t.Error("expected unknown fields to be rejected")
	}
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	for _, r := range Regions {
		if n := len(c.Region(r)); n < 5 {
			t.Errorf("region %s has %d locations, want at least 5", r, n)
		}
	}
}

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "locations.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadXLSX(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"id", "region", "location", "img_path", "latitude_tl", "longitude_tl", "latitude_br", "longitude_br", "latitude", "longitude"},
		{"rome", "0", "Rome", "/img/rome.jpg", 41.92, 12.46, 41.88, 12.52},
		{},
		{"nairobi", "africa-middle-east", "Nairobi", "/img/nbo.jpg", "", "", "", "", "-1,2921", "36,8219"},
	})

	locs, err := LoadXLSX(path, "")
	if err != nil {
		t.Fatalf("LoadXLSX: %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("got %d locations, want 2", len(locs))
	}

	rome, _ := locs[0].Midpoint()
	if locs[0].ID != "rome" || math.Abs(rome.Latitude-41.9) > 1e-9 || math.Abs(rome.Longitude-12.49) > 1e-9 {
		t.Errorf("unexpected rome %+v at %v", locs[0], rome)
	}

	nbo, _ := locs[1].Midpoint()
	if locs[1].Region != AfricaMiddleEast || math.Abs(nbo.Latitude+1.2921) > 1e-9 || math.Abs(nbo.Longitude-36.8219) > 1e-9 {
		t.Errorf("unexpected nairobi %+v at %v", locs[1], nbo)
	}

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Open catalogue has %d locations", c.Len())
	}
}

func TestLoadXLSXErrors(t *testing.T) {
	noID := writeWorkbook(t, [][]interface{}{{"name"}, {"x"}})
	if _, err := LoadXLSX(noID, ""); err == nil {
		t.Error("expected a missing id column to be rejected")
	}

	badNumber := writeWorkbook(t, [][]interface{}{
		{"id", "region", "latitude", "longitude"},
		{"x", "0", "north", "1"},
	})
	if _, err := LoadXLSX(badNumber, ""); err == nil {
		t.Error("expected a bad coordinate to be rejected")
	}
}

func TestOpen(t *testing.T) {
	c, err := Open("")
	if err != nil || c.Len() == 0 {
		t.Fatalf("Open(\"\") = %v, %v", c, err)
	}

	path := filepath.Join(t.TempDir(), "locs.json")
	doc := `{"gpsImageData": {"x": {"region": "1", "latitude": 1, "longitude": 2}}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = Open(path)
	if err != nil || c.Len() != 1 {
		t.Fatalf("Open(json) = %v, %v", c, err)
	}

	if _, err := Open("locations.csv"); err == nil {
		t.Error("expected an unsupported extension to be rejected")
	}
}

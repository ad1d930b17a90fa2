package location

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads locations from a workbook sheet. The first row is a header
// naming the columns (id, region, location, img_path, latitude, longitude,
// latitude_tl, longitude_tl, latitude_br, longitude_br) in any order. An empty
// sheet name means the first sheet. Blank rows are skipped.
func LoadXLSX(path, sheet string) ([]Location, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["id"]; !ok {
		return nil, fmt.Errorf("sheet %q: missing id column", sheet)
	}

	var locs []Location
	for n, row := range rows[1:] {
		cell := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		id := cell("id")
		if id == "" {
			continue
		}

		rec := record{
			Region: cell("region"),
			Name:   cell("location"),
			Image:  cell("img_path"),
		}
		fields := []struct {
			col string
			dst **float64
		}{
			{"latitude", &rec.Latitude},
			{"longitude", &rec.Longitude},
			{"latitude_tl", &rec.LatitudeTL},
			{"longitude_tl", &rec.LongitudeTL},
			{"latitude_br", &rec.LatitudeBR},
			{"longitude_br", &rec.LongitudeBR},
		}
		for _, fld := range fields {
			raw := cell(fld.col)
			if raw == "" {
				continue
			}
			v, err := parseCoord(raw)
			if err != nil {
				return nil, fmt.Errorf("sheet %q row %d column %s: %w", sheet, n+2, fld.col, err)
			}
			*fld.dst = &v
		}

		l, err := rec.toLocation(id)
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", sheet, n+2, err)
		}
		locs = append(locs, l)
	}
	return locs, nil
}

// parseCoord accepts both "41.9" and "41,9".
func parseCoord(val string) (float64, error) {
	val = strings.TrimSpace(strings.ReplaceAll(val, ",", "."))
	return strconv.ParseFloat(val, 64)
}

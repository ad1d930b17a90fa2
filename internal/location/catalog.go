package location

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// Catalog is an immutable set of locations indexed by id and region.
type Catalog struct {
	byID     map[string]Location
	byRegion map[Region][]Location
}

func NewCatalog(locs []Location) (*Catalog, error) {
	c := &Catalog{
		byID:     make(map[string]Location, len(locs)),
		byRegion: make(map[Region][]Location),
	}
	for _, l := range locs {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[l.ID]; dup {
			return nil, fmt.Errorf("duplicate location id %q", l.ID)
		}
		c.byID[l.ID] = l
		c.byRegion[l.Region] = append(c.byRegion[l.Region], l)
	}
	for r := range c.byRegion {
		sort.Slice(c.byRegion[r], func(i, j int) bool {
			return c.byRegion[r][i].ID < c.byRegion[r][j].ID
		})
	}
	return c, nil
}

func (c *Catalog) Len() int {
	return len(c.byID)
}

func (c *Catalog) Get(id string) (Location, error) {
	l, ok := c.byID[id]
	if !ok {
		return Location{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return l, nil
}

// Region returns the region's locations ordered by id.
func (c *Catalog) Region(r Region) []Location {
	src := c.byRegion[r]
	out := make([]Location, len(src))
	copy(out, src)
	return out
}

// Pick draws n distinct locations of a region in random order. n <= 0 or n
// larger than the region means all of them.
func (c *Catalog) Pick(r Region, n int, rng *rand.Rand) ([]Location, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRegion, int(r))
	}
	locs := c.Region(r)
	if len(locs) == 0 {
		return nil, fmt.Errorf("%w: no locations for region %s", ErrNotFound, r)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	rng.Shuffle(len(locs), func(i, j int) { locs[i], locs[j] = locs[j], locs[i] })
	if n > 0 && n < len(locs) {
		locs = locs[:n]
	}
	return locs, nil
}

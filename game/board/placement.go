package board

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"
)

// Placement is the serializable state of one board location
type Placement struct {
	Location    Location    `json:"location"`
	Tile        Tile        `json:"tile"`
	Orientation Orientation `json:"orientation"`
	Tokens      []Player    `json:"tokens,omitempty"`
}

// Placements returns the state of every location in row-major order
func (g *Grid) Placements() []Placement {
	placements := make([]Placement, 0, len(g.cells))
	for _, l := range allLocations {
		placed := g.cells[l.index()]
		placements = append(placements, Placement{
			Location:    l,
			Tile:        placed.Tile,
			Orientation: placed.Orientation,
			Tokens:      placed.Tokens(),
		})
	}
	return placements
}

// Restore rebuilds a grid from the output of Placements and the spare tile.
// It fails with ErrCorruptGrid unless the result is a grid that play could
// have produced: every location filled once, the full tile pool present,
// fixed tiles in place and each token on at most one tile.
func Restore(placements []Placement, spare Tile) (*Grid, error) {
	if len(placements) != Size*Size {
		return nil, fmt.Errorf("%w: %d placements, want %d", ErrCorruptGrid, len(placements), Size*Size)
	}

	g := &Grid{spare: spare}
	for _, p := range placements {
		if !p.Location.Valid() {
			return nil, fmt.Errorf("%w: placement at %s", ErrCorruptGrid, p.Location)
		}
		if g.cells[p.Location.index()] != nil {
			return nil, fmt.Errorf("%w: %s placed twice", ErrCorruptGrid, p.Location)
		}
		if !p.Orientation.Valid() {
			return nil, fmt.Errorf("%w: orientation %d at %s", ErrCorruptGrid, int(p.Orientation), p.Location)
		}
		placed := newPlacedTile(p.Tile, p.Orientation)
		for _, player := range p.Tokens {
			placed.tokens.Put(player)
		}
		g.cells[p.Location.index()] = placed
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the grid invariants: the tile pool is intact, fixed tiles
// sit unrotated at their locations and no token appears twice.
func (g *Grid) Validate() error {
	counts := tileCounts()
	for _, t := range g.Tiles() {
		counts[t]--
		if counts[t] < 0 {
			return fmt.Errorf("%w: extra tile %s", ErrCorruptGrid, describeTile(t))
		}
	}
	for t, n := range counts {
		if n != 0 {
			return fmt.Errorf("%w: missing tile %s", ErrCorruptGrid, describeTile(t))
		}
	}

	for _, f := range fixedTiles {
		placed := g.cells[f.Location.index()]
		if placed.Tile != f.Tile || placed.Orientation != Rotate0 {
			return fmt.Errorf("%w: fixed tile at %s was moved or rotated", ErrCorruptGrid, f.Location)
		}
	}

	seen := mapset.New[Player]()
	for _, l := range allLocations {
		for _, p := range g.cells[l.index()].Tokens() {
			if !p.Valid() {
				return fmt.Errorf("%w: unknown token %d at %s", ErrCorruptGrid, int(p), l)
			}
			if seen.Has(p) {
				return fmt.Errorf("%w: %s stands on two tiles", ErrCorruptGrid, p)
			}
			seen.Put(p)
		}
	}
	return nil
}

func describeTile(t Tile) string {
	if t.Marking.Kind == MarkNone {
		return fmt.Sprintf("%+v", t.Openings)
	}
	return fmt.Sprintf("%+v %s", t.Openings, t.Marking)
}

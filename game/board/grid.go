package board

import (
	"fmt"
	"slices"

	"github.com/zyedidia/generic/mapset"
)

// Rand is the source of randomness used to lay out a new grid.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// PlacedTile is a tile lying on the board at some orientation, together
// with the player tokens standing on it
type PlacedTile struct {
	Tile        Tile
	Orientation Orientation
	tokens      mapset.Set[Player]
}

func newPlacedTile(t Tile, o Orientation) *PlacedTile {
	return &PlacedTile{
		Tile:        t,
		Orientation: o,
		tokens:      mapset.New[Player](),
	}
}

// Openings returns the tile's openings under its orientation
func (p PlacedTile) Openings() Openings {
	return EffectiveOpenings(p.Tile, p.Orientation)
}

// HasToken reports whether player's token stands on the tile
func (p PlacedTile) HasToken(player Player) bool {
	return p.tokens.Has(player)
}

// Tokens returns the players standing on the tile in player order
func (p PlacedTile) Tokens() []Player {
	players := make([]Player, 0, p.tokens.Size())
	p.tokens.Each(func(player Player) {
		players = append(players, player)
	})
	slices.Sort(players)
	return players
}

func (p *PlacedTile) clone() *PlacedTile {
	c := newPlacedTile(p.Tile, p.Orientation)
	p.tokens.Each(func(player Player) {
		c.tokens.Put(player)
	})
	return c
}

// Grid is the 7x7 board plus the spare tile held off the board.
// Every location always holds exactly one tile.
type Grid struct {
	cells      [Size * Size]*PlacedTile
	spare      Tile
	generation uint64
}

// New lays out a fresh board. Fixed tiles go to their locations, the free
// tiles are shuffled onto the remaining locations at random orientations and
// the one left over becomes the spare. Participating players start on their
// start tiles.
func New(rng Rand, players []Player) (*Grid, error) {
	participating, err := participants(players)
	if err != nil {
		return nil, err
	}

	g := &Grid{}
	for _, f := range fixedTiles {
		placed := newPlacedTile(f.Tile, Rotate0)
		if m := f.Tile.Marking; m.Kind == MarkStart && participating.Has(m.Player) {
			placed.tokens.Put(m.Player)
		}
		g.cells[f.Location.index()] = placed
	}

	free := FreeTiles()
	rng.Shuffle(len(free), func(i, j int) {
		free[i], free[j] = free[j], free[i]
	})
	orientations := make([]Orientation, len(free))
	for i := range orientations {
		orientations[i] = Orientations[rng.IntN(len(Orientations))]
	}

	open := make([]Location, 0, len(free)-1)
	for _, l := range allLocations {
		if !IsFixed(l) {
			open = append(open, l)
		}
	}
	if len(open) != len(free)-1 {
		panic(fmt.Sprintf("board catalog: %d free locations for %d free tiles", len(open), len(free)))
	}
	rng.Shuffle(len(open), func(i, j int) {
		open[i], open[j] = open[j], open[i]
	})

	g.spare = free[len(free)-1]
	for i, l := range open {
		o := orientations[i]
		if !placementAllowed(l, EffectiveOpenings(free[i], o)) {
			o = redrawOrientation(rng, l, free[i])
		}
		g.cells[l.index()] = newPlacedTile(free[i], o)
	}

	return g, nil
}

// redrawOrientation picks uniformly among the orientations that keep t's
// paths on the board at l
func redrawOrientation(rng Rand, l Location, t Tile) Orientation {
	valid := make([]Orientation, 0, len(Orientations))
	for _, o := range Orientations {
		if placementAllowed(l, EffectiveOpenings(t, o)) {
			valid = append(valid, o)
		}
	}
	if len(valid) == 0 {
		panic(fmt.Sprintf("board catalog: tile %+v cannot be placed at %s", t, l))
	}
	return valid[rng.IntN(len(valid))]
}

func participants(players []Player) (mapset.Set[Player], error) {
	set := mapset.New[Player]()
	if len(players) == 0 {
		return set, fmt.Errorf("at least one player must participate")
	}
	if len(players) > len(AllPlayers) {
		return set, fmt.Errorf("at most %d players can participate, got %d", len(AllPlayers), len(players))
	}
	for _, p := range players {
		if !p.Valid() {
			return set, fmt.Errorf("unknown player %d", int(p))
		}
		if set.Has(p) {
			return set, fmt.Errorf("player %s listed twice", p)
		}
		set.Put(p)
	}
	return set, nil
}

// placementAllowed reports whether a tile with openings o may lie at l
// without any path leading off the board
func placementAllowed(l Location, o Openings) bool {
	for _, d := range Directions {
		if !o.Has(d) {
			continue
		}
		if _, ok := l.Step(d); !ok {
			return false
		}
	}
	return true
}

func (g *Grid) cell(l Location) (*PlacedTile, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLocation, l)
	}
	return g.cells[l.index()], nil
}

// At returns a copy of the tile placed at l. Later mutations of the grid
// do not show through it.
func (g *Grid) At(l Location) (PlacedTile, error) {
	placed, err := g.cell(l)
	if err != nil {
		return PlacedTile{}, err
	}
	return *placed.clone(), nil
}

// Spare returns the tile held off the board
func (g *Grid) Spare() Tile {
	return g.spare
}

// Generation counts successful mutations of the grid
func (g *Grid) Generation() uint64 {
	return g.generation
}

// Neighbors returns the adjacent locations joined to l by a path: both
// facing sides must be open
func (g *Grid) Neighbors(l Location) ([]Location, error) {
	here, err := g.cell(l)
	if err != nil {
		return nil, err
	}
	openings := here.Openings()

	var neighbors []Location
	for _, d := range Directions {
		if !openings.Has(d) {
			continue
		}
		next, ok := l.Step(d)
		if !ok {
			continue
		}
		if g.cells[next.index()].Openings().Has(d.Opposite()) {
			neighbors = append(neighbors, next)
		}
	}
	return neighbors, nil
}

// ItemAt returns the item printed on the tile at l, if any
func (g *Grid) ItemAt(l Location) (Item, bool, error) {
	placed, err := g.cell(l)
	if err != nil {
		return 0, false, err
	}
	if placed.Tile.Marking.Kind != MarkItem {
		return 0, false, nil
	}
	return placed.Tile.Marking.Item, true, nil
}

// Tokens returns where each player's token currently stands
func (g *Grid) Tokens() map[Player]Location {
	positions := make(map[Player]Location)
	for _, l := range allLocations {
		for _, p := range g.cells[l.index()].Tokens() {
			positions[p] = l
		}
	}
	return positions
}

func (g *Grid) tokenLocation(p Player) (Location, bool) {
	for _, l := range allLocations {
		if g.cells[l.index()].HasToken(p) {
			return l, true
		}
	}
	return Location{}, false
}

// Tiles returns every tile in the game: the 49 on the board in row-major
// order followed by the spare
func (g *Grid) Tiles() []Tile {
	tiles := make([]Tile, 0, len(g.cells)+1)
	for _, placed := range g.cells {
		tiles = append(tiles, placed.Tile)
	}
	return append(tiles, g.spare)
}

// Clone returns a deep copy of the grid
func (g *Grid) Clone() *Grid {
	c := &Grid{spare: g.spare, generation: g.generation}
	for i, placed := range g.cells {
		c.cells[i] = placed.clone()
	}
	return c
}

// Equal reports whether both grids hold the same tiles, orientations,
// tokens and spare
func (g *Grid) Equal(other *Grid) bool {
	if g.spare != other.spare {
		return false
	}
	for i, placed := range g.cells {
		o := other.cells[i]
		if placed.Tile != o.Tile || placed.Orientation != o.Orientation {
			return false
		}
		if !slices.Equal(placed.Tokens(), o.Tokens()) {
			return false
		}
	}
	return true
}

package board

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"
)

var entryPoints = func() []Location {
	var points []Location
	for i := 1; i < Size; i += 2 {
		points = append(points,
			Location{Col: i, Row: 0},
			Location{Col: i, Row: Size - 1},
			Location{Col: 0, Row: i},
			Location{Col: Size - 1, Row: i},
		)
	}
	return points
}()

// EntryPoints returns the 12 edge locations where the spare can be slid in
func EntryPoints() []Location {
	points := make([]Location, len(entryPoints))
	copy(points, entryPoints)
	return points
}

// IsEntryPoint reports whether the spare may be slid in at l
func IsEntryPoint(l Location) bool {
	_, ok := pushDirection(l)
	return ok
}

// pushDirection returns the direction tiles travel when the spare is slid in
// at l
func pushDirection(l Location) (Direction, bool) {
	if !l.Valid() {
		return 0, false
	}
	switch {
	case l.Row == 0 && l.Col%2 == 1:
		return Down, true
	case l.Row == Size-1 && l.Col%2 == 1:
		return Up, true
	case l.Col == 0 && l.Row%2 == 1:
		return Right, true
	case l.Col == Size-1 && l.Row%2 == 1:
		return Left, true
	}
	return 0, false
}

// line returns the locations of the row or column starting at the push-in
// location, ordered towards the push-out end
func line(at Location, d Direction) []Location {
	locations := make([]Location, 0, Size)
	for l, ok := at, true; ok; l, ok = l.Step(d) {
		locations = append(locations, l)
	}
	return locations
}

// PushOut returns the location on the far edge whose tile leaves the board
// when the spare is slid in at at
func PushOut(at Location) (Location, error) {
	d, ok := pushDirection(at)
	if !ok {
		return Location{}, fmt.Errorf("%w: %s is not an entry point", ErrInvalidLocation, at)
	}
	cells := line(at, d)
	return cells[len(cells)-1], nil
}

// InsertSpare slides the spare tile in at an entry point with orientation o.
// Every tile in the line moves one step away from at; the tile pushed off the
// far edge becomes the new spare and any tokens on it move onto the inserted
// tile. On error the grid is left untouched.
func (g *Grid) InsertSpare(at Location, o Orientation) error {
	d, ok := pushDirection(at)
	if !ok {
		return fmt.Errorf("%w: %s is not an entry point", ErrInvalidLocation, at)
	}
	if !o.Valid() {
		return fmt.Errorf("%w: unknown orientation %d", ErrInvalidPlacement, int(o))
	}
	if !placementAllowed(at, EffectiveOpenings(g.spare, o)) {
		return fmt.Errorf("%w: spare opens off the board at %s when rotated %s", ErrInvalidPlacement, at, o)
	}

	cells := line(at, d)
	pushedOut := g.cells[cells[len(cells)-1].index()]

	candidate := newPlacedTile(g.spare, o)
	candidate.tokens = pushedOut.tokens
	pushedOut.tokens = mapset.New[Player]()

	for i := len(cells) - 1; i > 0; i-- {
		g.cells[cells[i].index()] = g.cells[cells[i-1].index()]
	}
	g.cells[at.index()] = candidate
	g.spare = pushedOut.Tile
	g.generation++
	return nil
}

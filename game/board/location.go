package board

import "fmt"

// Size is the number of rows and columns on the board
const Size = 7

// Location is a (column, row) coordinate on the board
type Location struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Valid reports whether the location lies on the board
func (l Location) Valid() bool {
	return l.Col >= 0 && l.Col < Size && l.Row >= 0 && l.Row < Size
}

// String returns the location as "(col, row)"
func (l Location) String() string {
	return fmt.Sprintf("(%d, %d)", l.Col, l.Row)
}

// Step returns the location one cell away in direction d.
// The second result is false when that cell would fall off the board.
func (l Location) Step(d Direction) (Location, bool) {
	next := l
	switch d {
	case Up:
		next.Row--
	case Right:
		next.Col++
	case Down:
		next.Row++
	case Left:
		next.Col--
	default:
		return l, false
	}
	return next, next.Valid()
}

func (l Location) index() int {
	return l.Row*Size + l.Col
}

var allLocations = func() []Location {
	locations := make([]Location, 0, Size*Size)
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			locations = append(locations, Location{Col: col, Row: row})
		}
	}
	return locations
}()

// Locations returns every board location in row-major order
func Locations() []Location {
	locations := make([]Location, len(allLocations))
	copy(locations, allLocations)
	return locations
}

// Direction is one of the four sides of a tile
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

// Directions lists the four directions clockwise from Up
var Directions = [4]Direction{Up, Right, Down, Left}

// Opposite returns the direction facing d
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

package board

import "errors"

var (
	// ErrInvalidLocation is returned for coordinates off the board or
	// locations missing from a connectivity snapshot.
	ErrInvalidLocation = errors.New("invalid location")
	// ErrInvalidPlacement is returned when a tile would open off the board edge.
	ErrInvalidPlacement = errors.New("invalid placement")
	// ErrNoPath is returned when a token cannot reach its destination.
	ErrNoPath = errors.New("no path to destination")
	// ErrTokenNotFound is returned when a player's token is not on the board.
	ErrTokenNotFound = errors.New("token not found on board")
	// ErrStaleComponents is returned when a connectivity snapshot is queried
	// after the grid it was built from has changed.
	ErrStaleComponents = errors.New("connectivity snapshot is stale")
	// ErrCorruptGrid is returned when restoring a grid that breaks the tile
	// pool or token invariants.
	ErrCorruptGrid = errors.New("corrupt grid")
)

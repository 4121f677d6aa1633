package board

import "fmt"

// MoveToken moves p's token to the location to. The move is allowed only when
// a path joins the token's current location and to; otherwise the grid is
// left unchanged.
func (g *Grid) MoveToken(p Player, to Location) error {
	from, ok := g.tokenLocation(p)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTokenNotFound, p)
	}
	if !to.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidLocation, to)
	}

	connected, err := NewComponents(g).Connected(from, to)
	if err != nil {
		return err
	}
	if !connected {
		return fmt.Errorf("%w: %s cannot reach %s from %s", ErrNoPath, p, to, from)
	}
	if from == to {
		return nil
	}

	g.cells[from.index()].tokens.Remove(p)
	g.cells[to.index()].tokens.Put(p)
	g.generation++
	return nil
}

package main

import (
	"fmt"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
	"github.com/wricardo/mcp-training/labyrinth/game/engine"
)

// Turn is a planned insertion followed by a move
type Turn struct {
	Insert      board.Location
	Orientation board.Orientation
	MoveTo      board.Location
	// Reaches is true when MoveTo is the target itself
	Reaches bool
	// Distance is the Manhattan distance left between MoveTo and the target,
	// or -1 when the target tile is off the board
	Distance int
}

// Strategy plans greedy turns: it tries every insertion on a copy of the
// board and keeps the one that lets the token get closest to its target.
type Strategy struct{}

// Target returns where player is heading: the tile holding the item it is
// hunting, or its start tile once every card is found. ok is false when the
// item sits on the spare tile.
func Target(g *board.Grid, state *engine.GameState, player board.Player) (board.Location, bool) {
	ps, found := state.Players[player]
	if !found || ps.Current == nil {
		return board.StartLocation(player)
	}
	for _, l := range board.Locations() {
		if item, ok, _ := g.ItemAt(l); ok && item == *ps.Current {
			return l, true
		}
	}
	return board.Location{}, false
}

func distance(a, b board.Location) int {
	return abs(a.Col-b.Col) + abs(a.Row-b.Row)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Plan picks the turn for player from state, which must be player's own
// view so that its current card is visible.
func (s *Strategy) Plan(state *engine.GameState, player board.Player) (*Turn, error) {
	grid, err := board.Restore(state.Board, state.Spare)
	if err != nil {
		return nil, fmt.Errorf("restore board: %w", err)
	}

	var best *Turn
	for _, at := range board.EntryPoints() {
		for _, o := range board.Orientations {
			g := grid.Clone()
			if err := g.InsertSpare(at, o); err != nil {
				continue
			}
			turn, err := s.bestMove(g, state, player)
			if err != nil {
				return nil, err
			}
			turn.Insert, turn.Orientation = at, o
			if best == nil || better(turn, best) {
				best = turn
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no legal insertion for %s", player)
	}
	return best, nil
}

// bestMove finds the reachable location closest to player's target on g
func (s *Strategy) bestMove(g *board.Grid, state *engine.GameState, player board.Player) (*Turn, error) {
	from, ok := g.Tokens()[player]
	if !ok {
		return nil, fmt.Errorf("%w: %s", board.ErrTokenNotFound, player)
	}
	reachable, err := board.NewComponents(g).Reachable(from)
	if err != nil {
		return nil, err
	}

	target, onBoard := Target(g, state, player)
	if !onBoard {
		return &Turn{MoveTo: from, Distance: -1}, nil
	}

	turn := &Turn{MoveTo: from, Distance: distance(from, target)}
	for _, l := range reachable {
		if d := distance(l, target); d < turn.Distance {
			turn.MoveTo, turn.Distance = l, d
		}
	}
	turn.Reaches = turn.Distance == 0
	return turn, nil
}

// better orders turns: reaching the target first, then the smallest distance
// left. Turns whose target is off the board come last.
func better(a, b *Turn) bool {
	if a.Distance < 0 {
		return false
	}
	if b.Distance < 0 {
		return true
	}
	return a.Distance < b.Distance
}

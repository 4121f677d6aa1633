package engine

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
)

// checkTurn reports why player may not act in phase, if at all
func (e *GameEngine) checkTurn(player board.Player, phase TurnPhase) error {
	if !slices.Contains(e.players, player) {
		return fmt.Errorf("%w: %s", ErrNotParticipating, player)
	}
	if e.gameOver {
		return fmt.Errorf("%w: %s won", ErrGameOver, e.winner)
	}
	if player != e.current {
		return fmt.Errorf("%w: it is %s's turn", ErrWrongPlayer, e.current)
	}
	if phase != e.phase {
		switch e.phase {
		case PhaseInsertTile:
			return fmt.Errorf("%w: insert the spare tile before moving", ErrWrongPhase)
		default:
			return fmt.Errorf("%w: the tile is already inserted, move your token", ErrWrongPhase)
		}
	}
	return nil
}

// InsertTile slides the spare in at at with orientation o. On success the
// player must move next.
func (e *GameEngine) InsertTile(player board.Player, at board.Location, o board.Orientation) error {
	err := e.checkTurn(player, PhaseInsertTile)
	if errors.Is(err, ErrNotParticipating) {
		return err
	}
	if err == nil {
		err = e.grid.InsertSpare(at, o)
	}

	entry := e.addMoveToHistory(player, ActionInsertTile, at, err)
	entry.Orientation = &o
	if err != nil {
		return err
	}

	e.phase = PhaseMove
	e.message = fmt.Sprintf("%s slid the spare in at %s and must now move", player, at)
	return nil
}

// MovePlayer walks player's token to to. Landing on the item the player is
// hunting turns that card over. A player with no cards left who gets back to
// their start tile wins; otherwise the turn passes on.
func (e *GameEngine) MovePlayer(player board.Player, to board.Location) error {
	err := e.checkTurn(player, PhaseMove)
	if errors.Is(err, ErrNotParticipating) {
		return err
	}
	if err == nil {
		err = e.grid.MoveToken(player, to)
	}

	entry := e.addMoveToHistory(player, ActionMovePlayer, to, err)
	if err != nil {
		return err
	}

	cards := e.cards[player]
	e.message = fmt.Sprintf("%s moved to %s", player, to)
	if item, ok, _ := e.grid.ItemAt(to); ok && cards.current != nil && *cards.current == item {
		cards.drawNext()
		entry.ItemFound = &item
		e.message = fmt.Sprintf(e.config.Messages.ItemFound, player, item)
	}

	if start, _ := board.StartLocation(player); cards.current == nil && to == start {
		e.gameOver = true
		e.winner = player
		e.message = fmt.Sprintf(e.config.Messages.Victory, player)
		return nil
	}

	e.current = nextPlayer(e.players, e.current)
	e.phase = PhaseInsertTile
	return nil
}

// addMoveToHistory appends an entry and returns it for the caller to
// complete
func (e *GameEngine) addMoveToHistory(player board.Player, action string, at board.Location, err error) *MoveHistoryEntry {
	entry := MoveHistoryEntry{
		ID:         uuid.NewString(),
		MoveNumber: len(e.history) + 1,
		Player:     player,
		Action:     action,
		Location:   at,
		Success:    err == nil,
		Timestamp:  time.Now().Unix(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	e.history = append(e.history, entry)
	return &e.history[len(e.history)-1]
}

// ReachableFor returns every location player's token could walk to right now
func (e *GameEngine) ReachableFor(player board.Player) ([]board.Location, error) {
	at, ok := e.grid.Tokens()[player]
	if !ok {
		return nil, fmt.Errorf("%w: %s", board.ErrTokenNotFound, player)
	}
	return e.Reachable(at)
}

package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
)

// renderTile draws a tile as three rows of three characters: walls are '#',
// paths are ' ' and the centre shows a token, a start square or an item.
func renderTile(openings board.Openings, center byte) [3]string {
	side := func(open bool) byte {
		if open {
			return ' '
		}
		return '#'
	}
	return [3]string{
		string([]byte{'#', side(openings.Up), '#'}),
		string([]byte{side(openings.Left), center, side(openings.Right)}),
		string([]byte{'#', side(openings.Down), '#'}),
	}
}

func tileCenter(tile board.Tile, tokens []board.Player) byte {
	switch {
	case len(tokens) > 1:
		return '+'
	case len(tokens) == 1:
		return byte('0' + int(tokens[0]))
	case tile.Marking.Kind == board.MarkStart:
		return 'S'
	case tile.Marking.Kind == board.MarkItem:
		return '*'
	}
	return ' '
}

// RenderBoard draws the board as text, followed by the spare tile and a
// legend of items and tokens by location
func RenderBoard(state *GameState) string {
	rows := make([][3]string, board.Size)
	var legend []string
	for _, p := range state.Board {
		cell := renderTile(board.EffectiveOpenings(p.Tile, p.Orientation), tileCenter(p.Tile, p.Tokens))
		for i := range cell {
			rows[p.Location.Row][i] += cell[i]
		}
		if p.Tile.Marking.Kind == board.MarkItem {
			legend = append(legend, fmt.Sprintf("%s %s", p.Location, p.Tile.Marking.Item))
		}
	}

	var b strings.Builder
	b.WriteString("   ")
	for col := 0; col < board.Size; col++ {
		fmt.Fprintf(&b, " %d ", col)
	}
	b.WriteString("\n")
	for row, lines := range rows {
		for i, line := range lines {
			if i == 1 {
				fmt.Fprintf(&b, " %d %s\n", row, line)
			} else {
				fmt.Fprintf(&b, "   %s\n", line)
			}
		}
	}

	spare := renderTile(state.Spare.Openings, tileCenter(state.Spare, nil))
	b.WriteString("\nSpare (unrotated):\n")
	for _, line := range spare {
		fmt.Fprintf(&b, "   %s\n", line)
	}
	if state.Spare.Marking.Kind == board.MarkItem {
		fmt.Fprintf(&b, "   carries the %s\n", state.Spare.Marking.Item)
	}

	if len(legend) > 0 {
		b.WriteString("\nItems: ")
		b.WriteString(strings.Join(legend, ", "))
		b.WriteString("\n")
	}

	players := make([]board.Player, 0, len(state.Players))
	for p := range state.Players {
		players = append(players, p)
	}
	slices.Sort(players)
	for _, p := range players {
		ps := state.Players[p]
		line := fmt.Sprintf("%s at %s, %d found, %d to go", p, ps.Position, len(ps.Found), ps.HiddenCount)
		if ps.Current != nil {
			line += fmt.Sprintf(", hunting the %s", *ps.Current)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// SummarizeState returns a one line description of whose turn it is
func SummarizeState(state *GameState) string {
	if state.GameOver {
		return fmt.Sprintf("Game over, %s won. %s", state.Winner, state.Message)
	}
	switch state.Phase {
	case PhaseInsertTile:
		return fmt.Sprintf("%s to insert the spare tile. %s", state.CurrentPlayer, state.Message)
	default:
		return fmt.Sprintf("%s to move. %s", state.CurrentPlayer, state.Message)
	}
}

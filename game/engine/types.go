package engine

import (
	"errors"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
)

// TurnPhase is the step of the current player's turn
type TurnPhase string

const (
	PhaseInsertTile TurnPhase = "insert_tile"
	PhaseMove       TurnPhase = "move"

	ActionInsertTile = "insert_tile"
	ActionMovePlayer = "move_player"

	// Validation constants
	MinPlayers          = 1
	MaxPlayers          = 4
	WebSocketBufferSize = 256
)

var (
	// ErrWrongPlayer is returned when a player acts out of turn or on behalf of
	// someone else.
	ErrWrongPlayer = errors.New("wrong player")
	// ErrWrongPhase is returned when the command does not match the turn phase.
	ErrWrongPhase = errors.New("wrong turn phase")
	// ErrGameOver is returned for any command after the game has been won.
	ErrGameOver = errors.New("game is over")
	// ErrNotParticipating is returned for players that are not in the game.
	ErrNotParticipating = errors.New("player is not participating")
)

// GameConfig is a game preset loaded from a JSON or YAML file
type GameConfig struct {
	Name           string         `json:"name" yaml:"name"`
	Description    string         `json:"description" yaml:"description"`
	Players        []board.Player `json:"players" yaml:"players"`
	StartingPlayer board.Player   `json:"starting_player" yaml:"starting_player"`
	// Seed makes the board layout and card deal reproducible. A nil seed
	// draws a fresh random game every time.
	Seed     *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	Messages struct {
		Welcome   string `json:"welcome" yaml:"welcome"`
		ItemFound string `json:"item_found" yaml:"item_found"`
		Victory   string `json:"victory" yaml:"victory"`
	} `json:"messages" yaml:"messages"`
}

// PlayerState is one player's position and cards
type PlayerState struct {
	Position board.Location `json:"position"`
	// Current is the item the player is hunting. Nil once every card is found,
	// and hidden from other players in a player's view.
	Current     *board.Item  `json:"current,omitempty"`
	Hidden      []board.Item `json:"hidden,omitempty"`
	HiddenCount int          `json:"hidden_count"`
	Found       []board.Item `json:"found"`
}

// GameState is the complete game state
type GameState struct {
	Board         []board.Placement            `json:"board"`
	Spare         board.Tile                   `json:"spare"`
	CurrentPlayer board.Player                 `json:"current_player"`
	Phase         TurnPhase                    `json:"phase"`
	Players       map[board.Player]PlayerState `json:"players"`
	Viewer        board.Player                 `json:"viewer,omitempty"`
	GameOver      bool                         `json:"game_over"`
	Winner        board.Player                 `json:"winner,omitempty"`
	Message       string                       `json:"message"`
	ConfigName    string                       `json:"config_name"`
	MoveHistory   []MoveHistoryEntry           `json:"move_history"`
	TotalMoves    int                          `json:"total_moves"`
}

// MoveHistoryEntry records one command, accepted or rejected
type MoveHistoryEntry struct {
	ID          string             `json:"id"`
	MoveNumber  int                `json:"move_number"`
	Player      board.Player       `json:"player"`
	Action      string             `json:"action"`
	Location    board.Location     `json:"location"`
	Orientation *board.Orientation `json:"orientation,omitempty"`
	ItemFound   *board.Item        `json:"item_found,omitempty"`
	Success     bool               `json:"success"`
	Error       string             `json:"error,omitempty"`
	Timestamp   int64              `json:"timestamp"`
}

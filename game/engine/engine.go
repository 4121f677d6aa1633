package engine

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state
	State() *GameState
	StateFor(viewer board.Player) (*GameState, error)
	IsGameOver() bool
	Winner() board.Player
	CurrentPlayer() board.Player
	Phase() TurnPhase

	// Turn actions
	InsertTile(player board.Player, at board.Location, o board.Orientation) error
	MovePlayer(player board.Player, to board.Location) error
	Reachable(from board.Location) ([]board.Location, error)

	// Configuration
	GetConfig() *GameConfig

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// Cards is one player's share of the item deck
type Cards struct {
	current *board.Item
	hidden  []board.Item
	found   []board.Item
}

// drawNext moves the current card to the found pile and draws the top hidden card
func (c *Cards) drawNext() {
	if c.current != nil {
		c.found = append(c.found, *c.current)
	}
	if len(c.hidden) == 0 {
		c.current = nil
		return
	}
	next := c.hidden[len(c.hidden)-1]
	c.hidden = c.hidden[:len(c.hidden)-1]
	c.current = &next
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; the dispatcher serializes access to it.
type GameEngine struct {
	config   *GameConfig
	grid     *board.Grid
	cards    map[board.Player]*Cards
	players  []board.Player
	current  board.Player
	phase    TurnPhase
	gameOver bool
	winner   board.Player
	message  string
	history  []MoveHistoryEntry
}

// NewRand returns a random source seeded with seed, or a randomly seeded one
// when seed is nil
func NewRand(seed *uint64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(*seed, *seed))
}

// NewEngine lays out a new board and deals the item cards. A nil rng uses the
// config's seed.
func NewEngine(config *GameConfig, rng board.Rand) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	config = withDefaults(config)
	if rng == nil {
		rng = NewRand(config.Seed)
	}

	e := &GameEngine{config: config}
	if err := e.deal(rng); err != nil {
		return nil, err
	}
	return e, nil
}

// deal builds a fresh board and splits the shuffled deck round-robin,
// starting with the starting player
func (e *GameEngine) deal(rng board.Rand) error {
	grid, err := board.New(rng, e.config.Players)
	if err != nil {
		return fmt.Errorf("failed to lay out board: %w", err)
	}

	players := slices.Clone(e.config.Players)
	slices.Sort(players)

	cards := make(map[board.Player]*Cards, len(players))
	for _, p := range players {
		cards[p] = &Cards{}
	}

	deck := board.Items()
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	p := e.config.StartingPlayer
	for _, item := range deck {
		cards[p].hidden = append(cards[p].hidden, item)
		p = nextPlayer(players, p)
	}
	for _, c := range cards {
		c.drawNext()
	}

	e.grid = grid
	e.players = players
	e.cards = cards
	e.current = e.config.StartingPlayer
	e.phase = PhaseInsertTile
	e.gameOver = false
	e.winner = board.NoPlayer
	e.message = e.config.Messages.Welcome
	return nil
}

// Reset starts a new game with the same configuration. History is kept.
func (e *GameEngine) Reset(rng board.Rand) error {
	if rng == nil {
		rng = NewRand(e.config.Seed)
	}
	return e.deal(rng)
}

// nextPlayer returns the participant after current in seat order
func nextPlayer(players []board.Player, current board.Player) board.Player {
	p := current
	for range board.AllPlayers {
		p = p%board.Player4 + 1
		if slices.Contains(players, p) {
			return p
		}
	}
	return current
}

// RestoreEngine rebuilds an engine from a full state snapshot
func RestoreEngine(config *GameConfig, state *GameState) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("state cannot be nil")
	}
	config = withDefaults(config)

	grid, err := board.Restore(state.Board, state.Spare)
	if err != nil {
		return nil, fmt.Errorf("failed to restore board: %w", err)
	}

	players := slices.Clone(config.Players)
	slices.Sort(players)
	if !slices.Contains(players, state.CurrentPlayer) {
		return nil, fmt.Errorf("restore: current player %s is not playing", state.CurrentPlayer)
	}
	if state.Phase != PhaseInsertTile && state.Phase != PhaseMove {
		return nil, fmt.Errorf("restore: unknown phase %q", state.Phase)
	}

	tokens := grid.Tokens()
	if len(tokens) != len(players) {
		return nil, fmt.Errorf("restore: %d tokens on the board for %d players", len(tokens), len(players))
	}

	dealt := make(map[board.Item]bool)
	deal := func(items ...board.Item) error {
		for _, item := range items {
			if !item.Valid() {
				return fmt.Errorf("restore: unknown card %d", int(item))
			}
			if dealt[item] {
				return fmt.Errorf("restore: card %s dealt twice", item)
			}
			dealt[item] = true
		}
		return nil
	}

	cards := make(map[board.Player]*Cards, len(players))
	for _, p := range players {
		ps, ok := state.Players[p]
		if !ok {
			return nil, fmt.Errorf("restore: no cards for %s", p)
		}
		if at, ok := tokens[p]; !ok || at != ps.Position {
			return nil, fmt.Errorf("restore: %s is not at %s", p, ps.Position)
		}
		c := &Cards{
			hidden: slices.Clone(ps.Hidden),
			found:  slices.Clone(ps.Found),
		}
		if ps.Current != nil {
			current := *ps.Current
			c.current = &current
			if err := deal(current); err != nil {
				return nil, err
			}
		}
		if err := deal(c.hidden...); err != nil {
			return nil, err
		}
		if err := deal(c.found...); err != nil {
			return nil, err
		}
		cards[p] = c
	}
	if len(dealt) != len(board.Items()) {
		return nil, fmt.Errorf("restore: %d of %d cards accounted for, was the state saved from a player's view?", len(dealt), len(board.Items()))
	}

	return &GameEngine{
		config:   config,
		grid:     grid,
		cards:    cards,
		players:  players,
		current:  state.CurrentPlayer,
		phase:    state.Phase,
		gameOver: state.GameOver,
		winner:   state.Winner,
		message:  state.Message,
		history:  slices.Clone(state.MoveHistory),
	}, nil
}

// State returns the complete game state, every player's cards included
func (e *GameEngine) State() *GameState {
	state := &GameState{
		Board:         e.grid.Placements(),
		Spare:         e.grid.Spare(),
		CurrentPlayer: e.current,
		Phase:         e.phase,
		Players:       make(map[board.Player]PlayerState, len(e.players)),
		GameOver:      e.gameOver,
		Winner:        e.winner,
		Message:       e.message,
		ConfigName:    e.config.Name,
		MoveHistory:   slices.Clone(e.history),
		TotalMoves:    len(e.history),
	}

	tokens := e.grid.Tokens()
	for _, p := range e.players {
		c := e.cards[p]
		ps := PlayerState{
			Position:    tokens[p],
			Hidden:      slices.Clone(c.hidden),
			HiddenCount: len(c.hidden),
			Found:       slices.Clone(c.found),
		}
		if c.current != nil {
			current := *c.current
			ps.Current = &current
		}
		if ps.Found == nil {
			ps.Found = []board.Item{}
		}
		state.Players[p] = ps
	}
	return state
}

// StateFor returns the state as viewer sees it: nobody's hidden cards, and
// only the viewer's own current card. NoPlayer gets a spectator view.
func (e *GameEngine) StateFor(viewer board.Player) (*GameState, error) {
	if viewer != board.NoPlayer && !slices.Contains(e.players, viewer) {
		return nil, fmt.Errorf("%w: %s", ErrNotParticipating, viewer)
	}

	state := e.State()
	state.Viewer = viewer
	for p, ps := range state.Players {
		ps.Hidden = nil
		if p != viewer {
			ps.Current = nil
		}
		state.Players[p] = ps
	}
	return state, nil
}

// IsGameOver returns whether a player has won
func (e *GameEngine) IsGameOver() bool {
	return e.gameOver
}

// Winner returns the winning player, or NoPlayer while the game is running
func (e *GameEngine) Winner() board.Player {
	return e.winner
}

// CurrentPlayer returns the player whose turn it is
func (e *GameEngine) CurrentPlayer() board.Player {
	return e.current
}

// Phase returns the current turn phase
func (e *GameEngine) Phase() TurnPhase {
	return e.phase
}

// Players returns the participating players in seat order
func (e *GameEngine) Players() []board.Player {
	return slices.Clone(e.players)
}

// Position returns where player's token stands
func (e *GameEngine) Position(player board.Player) (board.Location, bool) {
	at, ok := e.grid.Tokens()[player]
	return at, ok
}

// Reachable returns every location a token at from could walk to
func (e *GameEngine) Reachable(from board.Location) ([]board.Location, error) {
	return board.NewComponents(e.grid).Reachable(from)
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return slices.Clone(e.history)
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	last := e.history[len(e.history)-1]
	return &last
}

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
	"github.com/wricardo/mcp-training/labyrinth/game/engine"
)

// ErrStopped is returned for requests made after the dispatcher has exited.
var ErrStopped = errors.New("dispatcher stopped")

// CommandKind names a player command
type CommandKind string

const (
	// NoOp returns the sender's view of the game without changing it
	NoOp       CommandKind = "noop"
	InsertTile CommandKind = "insert_tile"
	MovePlayer CommandKind = "move_player"
)

// Command is a player's request to change the game
type Command struct {
	Kind        CommandKind
	Player      board.Player // token to move, MovePlayer only
	Location    board.Location
	Orientation board.Orientation // InsertTile only
}

func (c Command) String() string {
	switch c.Kind {
	case InsertTile:
		return fmt.Sprintf("insert_tile at %s rotated %s", c.Location, c.Orientation)
	case MovePlayer:
		return fmt.Sprintf("move_player %s to %s", c.Player, c.Location)
	}
	return string(c.Kind)
}

// Response carries the sender's view of the game after a command, or the
// reason it was rejected
type Response struct {
	State *engine.GameState
	Err   error
}

// Request is one command sent to the dispatcher. Respond must have room for
// one response; the dispatcher never blocks on it.
type Request struct {
	SentBy  board.Player
	Command Command
	Respond chan<- Response
}

type job struct {
	fn   func(*engine.GameEngine) error
	done chan error
}

// Dispatcher owns a game engine and applies requests to it one at a time
// from a single goroutine
type Dispatcher struct {
	engine   *engine.GameEngine
	requests chan Request
	jobs     chan job
	done     chan struct{}
	logger   *slog.Logger
}

// New creates a dispatcher for e. Call Run to start it.
func New(e *engine.GameEngine, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		engine:   e,
		requests: make(chan Request),
		jobs:     make(chan job),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// Requests returns the channel commands are sent on
func (d *Dispatcher) Requests() chan<- Request {
	return d.requests
}

// Done is closed once Run has returned
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Run processes requests until ctx is cancelled
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return

		case req := <-d.requests:
			d.handle(req)

		case j := <-d.jobs:
			j.done <- j.fn(d.engine)
		}
	}
}

func (d *Dispatcher) handle(req Request) {
	d.logger.Debug("command received", "sent_by", req.SentBy, "command", req.Command)

	state, err := d.apply(req)
	if err != nil {
		d.logger.Debug("command rejected", "sent_by", req.SentBy, "command", req.Command, "error", err)
		req.Respond <- Response{Err: err}
		return
	}
	req.Respond <- Response{State: state}
}

func (d *Dispatcher) apply(req Request) (*engine.GameState, error) {
	e := d.engine
	cmd := req.Command

	switch cmd.Kind {
	case NoOp:
	case InsertTile:
		if err := e.InsertTile(req.SentBy, cmd.Location, cmd.Orientation); err != nil {
			return nil, err
		}
	case MovePlayer:
		if cmd.Player != req.SentBy {
			return nil, fmt.Errorf("%w: %s cannot move %s", engine.ErrWrongPlayer, req.SentBy, cmd.Player)
		}
		if err := e.MovePlayer(req.SentBy, cmd.Location); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown command %q", cmd.Kind)
	}
	return e.StateFor(req.SentBy)
}

// Execute sends a command and waits for the response
func (d *Dispatcher) Execute(ctx context.Context, sentBy board.Player, cmd Command) (*engine.GameState, error) {
	respond := make(chan Response, 1)
	req := Request{SentBy: sentBy, Command: cmd, Respond: respond}

	select {
	case d.requests <- req:
	case <-d.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// The dispatcher answers every request it accepted.
	resp := <-respond
	return resp.State, resp.Err
}

// Do runs fn on the dispatcher goroutine, serialized with commands. fn must
// not keep the engine after returning.
func (d *Dispatcher) Do(ctx context.Context, fn func(*engine.GameEngine) error) error {
	j := job{fn: fn, done: make(chan error, 1)}

	select {
	case d.jobs <- j:
	case <-d.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-j.done
}

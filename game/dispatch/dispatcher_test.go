package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
	"github.com/wricardo/mcp-training/labyrinth/game/engine"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *engine.GameEngine) {
	t.Helper()
	seed := uint64(3)
	config := engine.DefaultConfig()
	config.Players = []board.Player{board.Player1, board.Player2}
	config.StartingPlayer = board.Player1
	config.Seed = &seed

	e, err := engine.NewEngine(config, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	d := New(e, nil)
	go d.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-d.Done()
	})
	return d, e
}

// insertCommand finds an insertion the engine will accept without running it
func insertCommand(t *testing.T, d *Dispatcher) Command {
	t.Helper()
	var cmd Command
	err := d.Do(context.Background(), func(e *engine.GameEngine) error {
		state := e.State()
		grid, err := board.Restore(state.Board, state.Spare)
		if err != nil {
			return err
		}
		for _, at := range board.EntryPoints() {
			for _, o := range board.Orientations {
				if grid.Clone().InsertSpare(at, o) == nil {
					cmd = Command{Kind: InsertTile, Location: at, Orientation: o}
					return nil
				}
			}
		}
		return errors.New("spare fits nowhere")
	})
	require.NoError(t, err)
	return cmd
}

func TestExecuteNoOp(t *testing.T) {
	d, _ := newTestDispatcher(t)

	state, err := d.Execute(context.Background(), board.Player2, Command{Kind: NoOp})
	require.NoError(t, err)
	assert.Equal(t, board.Player2, state.Viewer)
	assert.Equal(t, board.Player1, state.CurrentPlayer)
	assert.NotNil(t, state.Players[board.Player2].Current)
	assert.Nil(t, state.Players[board.Player1].Current, "other players' cards stay hidden")
}

func TestExecuteTurn(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	_, err := d.Execute(ctx, board.Player2, insertCommand(t, d))
	assert.ErrorIs(t, err, engine.ErrWrongPlayer)

	state, err := d.Execute(ctx, board.Player1, insertCommand(t, d))
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseMove, state.Phase)

	_, err = d.Execute(ctx, board.Player1, Command{Kind: MovePlayer, Player: board.Player2, Location: board.Location{}})
	assert.ErrorIs(t, err, engine.ErrWrongPlayer, "players only move their own token")

	at := state.Players[board.Player1].Position
	state, err = d.Execute(ctx, board.Player1, Command{Kind: MovePlayer, Player: board.Player1, Location: at})
	require.NoError(t, err)
	assert.Equal(t, board.Player2, state.CurrentPlayer)
	assert.Equal(t, engine.PhaseInsertTile, state.Phase)
}

func TestExecuteUnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Execute(context.Background(), board.Player1, Command{Kind: "teleport"})
	assert.ErrorContains(t, err, "unknown command")
}

func TestExecuteNotParticipating(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Execute(context.Background(), board.Player4, Command{Kind: NoOp})
	assert.ErrorIs(t, err, engine.ErrNotParticipating)
}

func TestRequestsChannel(t *testing.T) {
	d, _ := newTestDispatcher(t)

	respond := make(chan Response, 1)
	d.Requests() <- Request{SentBy: board.Player1, Command: Command{Kind: NoOp}, Respond: respond}

	select {
	case resp := <-respond:
		require.NoError(t, resp.Err)
		assert.Equal(t, board.Player1, resp.State.Viewer)
	case <-time.After(time.Second):
		t.Fatal("no response")
	}
}

func TestConcurrentCommandsAreSerialized(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()
	cmd := insertCommand(t, d)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Execute(ctx, board.Player1, cmd)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, engine.ErrWrongPhase)
	}
	assert.Equal(t, 1, succeeded, "exactly one insertion per turn")
}

func TestDo(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var current board.Player
	err := d.Do(context.Background(), func(e *engine.GameEngine) error {
		current = e.CurrentPlayer()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, board.Player1, current)

	boom := errors.New("boom")
	err = d.Do(context.Background(), func(*engine.GameEngine) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestStoppedDispatcher(t *testing.T) {
	e, err := engine.NewEngine(engine.DefaultConfig(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	d := New(e, nil)
	go d.Run(ctx)
	cancel()
	<-d.Done()

	_, err = d.Execute(context.Background(), board.Player1, Command{Kind: NoOp})
	assert.ErrorIs(t, err, ErrStopped)
	err = d.Do(context.Background(), func(*engine.GameEngine) error { return nil })
	assert.ErrorIs(t, err, ErrStopped)
}

func TestExecuteContextCancelled(t *testing.T) {
	e, err := engine.NewEngine(engine.DefaultConfig(), nil)
	require.NoError(t, err)
	d := New(e, nil) // never started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = d.Execute(ctx, board.Player1, Command{Kind: NoOp})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "noop", Command{Kind: NoOp}.String())
	assert.Contains(t, Command{Kind: MovePlayer, Player: board.Player2, Location: board.Location{Col: 1, Row: 2}}.String(), "player2")
}

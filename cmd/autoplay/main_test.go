package main

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/labyrinth/api"
	"github.com/wricardo/mcp-training/labyrinth/game/board"
	"github.com/wricardo/mcp-training/labyrinth/game/config"
	"github.com/wricardo/mcp-training/labyrinth/game/engine"
	"github.com/wricardo/mcp-training/labyrinth/game/service"
	"github.com/wricardo/mcp-training/labyrinth/game/session"
)

func seededConfig(seed uint64) *engine.GameConfig {
	cfg := engine.DefaultConfig()
	cfg.Players = []board.Player{board.Player1, board.Player3}
	cfg.Seed = &seed
	return cfg
}

func TestStrategyPlansLegalTurns(t *testing.T) {
	eng, err := engine.NewEngine(seededConfig(5), nil)
	require.NoError(t, err)

	strategy := &Strategy{}
	for turn := 0; turn < 40 && !eng.IsGameOver(); turn++ {
		player := eng.CurrentPlayer()
		state, err := eng.StateFor(player)
		require.NoError(t, err)

		plan, err := strategy.Plan(state, player)
		require.NoError(t, err)
		require.NoError(t, eng.InsertTile(player, plan.Insert, plan.Orientation), "turn %d", turn)
		require.NoError(t, eng.MovePlayer(player, plan.MoveTo), "turn %d", turn)
	}
}

func TestStrategyPrefersReachingTheTarget(t *testing.T) {
	eng, err := engine.NewEngine(seededConfig(9), nil)
	require.NoError(t, err)
	state, err := eng.StateFor(board.Player1)
	require.NoError(t, err)

	plan, err := (&Strategy{}).Plan(state, board.Player1)
	require.NoError(t, err)

	if plan.Distance >= 0 {
		assert.Equal(t, plan.Distance == 0, plan.Reaches)
	}
	assert.True(t, plan.MoveTo.Valid())
	assert.True(t, board.IsEntryPoint(plan.Insert))
}

func TestTarget(t *testing.T) {
	eng, err := engine.NewEngine(seededConfig(3), nil)
	require.NoError(t, err)
	state, err := eng.StateFor(board.Player3)
	require.NoError(t, err)
	grid, err := board.Restore(state.Board, state.Spare)
	require.NoError(t, err)

	current := state.Players[board.Player3].Current
	require.NotNil(t, current)
	if at, ok := Target(grid, state, board.Player3); ok {
		item, found, err := grid.ItemAt(at)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, *current, item)
	}

	// With every card found the token heads home
	ps := state.Players[board.Player3]
	ps.Current = nil
	state.Players[board.Player3] = ps
	home, ok := Target(grid, state, board.Player3)
	require.True(t, ok)
	start, _ := board.StartLocation(board.Player3)
	assert.Equal(t, start, home)
}

func TestBetter(t *testing.T) {
	near := &Turn{Distance: 1}
	far := &Turn{Distance: 4}
	offBoard := &Turn{Distance: -1}

	assert.True(t, better(near, far))
	assert.False(t, better(far, near))
	assert.True(t, better(far, offBoard))
	assert.False(t, better(offBoard, far))
}

func TestPlayAgainstServer(t *testing.T) {
	dir := t.TempDir()
	preset := `{"name": "Duel", "description": "two players", "players": ["player1", "player2"], "starting_player": "player2", "seed": 21}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "duel.json"), []byte(preset), 0644))

	configs, err := config.NewManager(dir)
	require.NoError(t, err)
	sessions := session.NewManager(nil)
	defer sessions.Close(context.Background())

	ts := httptest.NewServer(api.NewServer(service.NewGameService(sessions, configs, nil), nil, nil))
	defer ts.Close()

	ctx := context.Background()
	client := NewClient(ts.URL)
	info, err := client.CreateSession(ctx, "duel")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	result, err := Play(ctx, client, Options{MaxTurns: 20}, logger)
	require.NoError(t, err)
	assert.True(t, result.Turns == 20 || result.Winner != board.NoPlayer)

	var history service.HistoryResponse
	require.NoError(t, client.do(ctx, "GET", "/api/sessions/"+info.ID+"/history", nil, &history))
	assert.Equal(t, 2*result.Turns, history.TotalMoves, "every planned command is accepted")

	_, err = client.Resume(ctx, "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

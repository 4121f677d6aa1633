package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
)

func TestAnalyze(t *testing.T) {
	report, err := Analyze(Options{Boards: 20, Seed: 42})
	require.NoError(t, err)

	assert.Equal(t, 20, report.Boards)
	assert.GreaterOrEqual(t, report.MinComponents, 1)
	assert.LessOrEqual(t, report.MinComponents, report.MaxComponents)
	assert.LessOrEqual(t, report.AvgLargest(), float64(board.Size*board.Size))
	assert.LessOrEqual(t, report.StartsConnected, report.Boards)
	assert.Zero(t, report.RejectedInserts)

	for _, p := range board.AllPlayers {
		// A token can always stay on its own tile
		assert.GreaterOrEqual(t, report.AvgReachable(p), 1.0, p.String())
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a, err := Analyze(Options{Boards: 5, Insertions: 3, Seed: 7})
	require.NoError(t, err)
	b, err := Analyze(Options{Boards: 5, Insertions: 3, Seed: 7})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestAnalyzeRejectsBadOptions(t *testing.T) {
	_, err := Analyze(Options{Boards: 0})
	assert.Error(t, err)

	_, err = Analyze(Options{Boards: 1, Insertions: -1})
	assert.Error(t, err)
}

func TestPrintReport(t *testing.T) {
	opts := Options{Boards: 3, Insertions: 2, Seed: 1}
	report, err := Analyze(opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintReport(&buf, opts, report)
	out := buf.String()

	assert.Contains(t, out, "=== 3 boards, seed 1, 2 insertions each ===")
	assert.Contains(t, out, "Components: avg")
	assert.Contains(t, out, "Rejected insertions:")
	assert.Contains(t, out, "player4 reaches")
}

package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveToken(t *testing.T) {
	g := verticalGrid()
	g.cells[Location{2, 0}.index()].tokens.Put(Player1)

	require.NoError(t, g.MoveToken(Player1, Location{2, 6}))
	assert.Equal(t, map[Player]Location{Player1: {2, 6}}, g.Tokens())

	from, _ := g.At(Location{2, 0})
	assert.Empty(t, from.Tokens())
	assert.Equal(t, uint64(1), g.Generation())
}

func TestAtIsASnapshot(t *testing.T) {
	g := verticalGrid()
	g.cells[Location{2, 0}.index()].tokens.Put(Player1)

	snapshot, err := g.At(Location{2, 0})
	require.NoError(t, err)
	require.NoError(t, g.MoveToken(Player1, Location{2, 6}))

	assert.Equal(t, []Player{Player1}, snapshot.Tokens())
	assert.True(t, snapshot.HasToken(Player1))
	now, _ := g.At(Location{2, 0})
	assert.Empty(t, now.Tokens())
}

func TestMoveTokenWithoutPath(t *testing.T) {
	g := verticalGrid()
	g.cells[Location{2, 0}.index()].tokens.Put(Player1)
	before := g.Clone()

	err := g.MoveToken(Player1, Location{3, 0})
	assert.ErrorIs(t, err, ErrNoPath)
	assert.True(t, g.Equal(before))
	assert.Equal(t, before.Generation(), g.Generation())
}

func TestMoveTokenErrors(t *testing.T) {
	g := newTestGrid(t, 2, Player1, Player2)
	before := g.Clone()

	err := g.MoveToken(Player3, Location{0, 6})
	assert.ErrorIs(t, err, ErrTokenNotFound)

	err = g.MoveToken(Player1, Location{0, 7})
	assert.ErrorIs(t, err, ErrInvalidLocation)

	assert.True(t, g.Equal(before))
}

func TestMoveTokenInPlace(t *testing.T) {
	g := newTestGrid(t, 2, Player1)

	require.NoError(t, g.MoveToken(Player1, Location{0, 0}))
	assert.Equal(t, Location{0, 0}, g.Tokens()[Player1])
}

func TestMoveTokenToEveryReachableLocation(t *testing.T) {
	g := newTestGrid(t, 17, Player2)
	start := Location{6, 0}

	reachable, err := NewComponents(g).Reachable(start)
	require.NoError(t, err)

	for _, l := range reachable {
		require.NoError(t, g.MoveToken(Player2, l))
		assert.Equal(t, l, g.Tokens()[Player2])
		require.NoError(t, g.MoveToken(Player2, start))
	}
}

func TestMoveTokenSharesTile(t *testing.T) {
	g := verticalGrid()
	g.cells[Location{4, 1}.index()].tokens.Put(Player1)
	g.cells[Location{4, 5}.index()].tokens.Put(Player2)

	require.NoError(t, g.MoveToken(Player1, Location{4, 5}))
	placed, _ := g.At(Location{4, 5})
	assert.Equal(t, []Player{Player1, Player2}, placed.Tokens())
}

package board

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func newTestGrid(t *testing.T, seed uint64, players ...Player) *Grid {
	t.Helper()
	if len(players) == 0 {
		players = AllPlayers[:]
	}
	g, err := New(testRand(seed), players)
	require.NoError(t, err)
	return g
}

// verticalGrid fills every location and the spare with a straight up/down
// tile, so each column is one component and no two columns touch.
func verticalGrid() *Grid {
	g := &Grid{spare: lineVertical}
	for _, l := range allLocations {
		g.cells[l.index()] = newPlacedTile(lineVertical, Rotate0)
	}
	return g
}

func TestLocations(t *testing.T) {
	locations := Locations()
	require.Len(t, locations, Size*Size)
	assert.Equal(t, Location{Col: 0, Row: 0}, locations[0])
	assert.Equal(t, Location{Col: 1, Row: 0}, locations[1])
	assert.Equal(t, Location{Col: 0, Row: 1}, locations[Size])
	assert.Equal(t, Location{Col: 6, Row: 6}, locations[len(locations)-1])

	// callers get their own copy
	locations[0] = Location{Col: 5, Row: 5}
	assert.Equal(t, Location{Col: 0, Row: 0}, Locations()[0])
}

func TestLocationStep(t *testing.T) {
	_, ok := Location{Col: 0, Row: 0}.Step(Up)
	assert.False(t, ok)
	_, ok = Location{Col: 0, Row: 0}.Step(Left)
	assert.False(t, ok)
	_, ok = Location{Col: 6, Row: 6}.Step(Down)
	assert.False(t, ok)

	next, ok := Location{Col: 3, Row: 3}.Step(Right)
	assert.True(t, ok)
	assert.Equal(t, Location{Col: 4, Row: 3}, next)
}

func TestNewLaysOutLegalBoard(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		g := newTestGrid(t, seed)

		require.NoError(t, g.Validate(), "seed %d", seed)
		assert.Len(t, g.Tiles(), 50)

		for _, l := range allLocations {
			placed, err := g.At(l)
			require.NoError(t, err)
			assert.True(t, placementAllowed(l, placed.Openings()), "seed %d: tile at %s opens off the board", seed, l)
		}
		assert.Equal(t, uint64(0), g.Generation())
	}
}

func TestNewPlacesParticipatingTokens(t *testing.T) {
	g := newTestGrid(t, 7, Player1, Player3)

	tokens := g.Tokens()
	assert.Len(t, tokens, 2)
	assert.Equal(t, Location{Col: 0, Row: 0}, tokens[Player1])
	assert.Equal(t, Location{Col: 0, Row: 6}, tokens[Player3])

	start, err := g.At(Location{Col: 6, Row: 0})
	require.NoError(t, err)
	assert.Empty(t, start.Tokens(), "player2 is not playing")
}

func TestNewIsDeterministicForSeed(t *testing.T) {
	a := newTestGrid(t, 42)
	b := newTestGrid(t, 42)
	c := newTestGrid(t, 43)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestNewRejectsBadParticipants(t *testing.T) {
	tests := []struct {
		name    string
		players []Player
	}{
		{"none", nil},
		{"duplicate", []Player{Player1, Player1}},
		{"unknown", []Player{Player1, Player(9)}},
		{"nobody", []Player{NoPlayer}},
		{"too many", []Player{Player1, Player2, Player3, Player4, Player1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(testRand(1), tt.players)
			assert.Error(t, err)
		})
	}
}

func TestRedrawOrientationOnlyPicksLegalOrientations(t *testing.T) {
	rng := testRand(3)
	corner := Location{Col: 0, Row: 0}
	for i := 0; i < 100; i++ {
		o := redrawOrientation(rng, corner, cornerRightUp)
		assert.Equal(t, Rotate90, o, "only a right/down corner fits the top left corner")
	}

	edge := Location{Col: 3, Row: 0}
	for i := 0; i < 100; i++ {
		o := redrawOrientation(rng, edge, teeUp)
		assert.True(t, placementAllowed(edge, EffectiveOpenings(teeUp, o)))
	}
}

func TestAtRejectsOffBoard(t *testing.T) {
	g := newTestGrid(t, 1)
	for _, l := range []Location{{-1, 0}, {0, 7}, {7, 7}, {3, -2}} {
		_, err := g.At(l)
		assert.ErrorIs(t, err, ErrInvalidLocation)
	}
}

func TestNeighbors(t *testing.T) {
	g := verticalGrid()

	neighbors, err := g.Neighbors(Location{Col: 3, Row: 3})
	require.NoError(t, err)
	assert.Equal(t, []Location{{Col: 3, Row: 2}, {Col: 3, Row: 4}}, neighbors)

	neighbors, err = g.Neighbors(Location{Col: 0, Row: 0})
	require.NoError(t, err)
	assert.Equal(t, []Location{{Col: 0, Row: 1}}, neighbors, "the upward opening leads off the board")

	// a horizontal tile next to vertical ones has no neighbors
	g.cells[Location{Col: 3, Row: 3}.index()].Orientation = Rotate90
	neighbors, err = g.Neighbors(Location{Col: 3, Row: 3})
	require.NoError(t, err)
	assert.Empty(t, neighbors)

	neighbors, err = g.Neighbors(Location{Col: 3, Row: 2})
	require.NoError(t, err)
	assert.Equal(t, []Location{{Col: 3, Row: 1}}, neighbors)

	_, err = g.Neighbors(Location{Col: 9, Row: 0})
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

func TestItemAt(t *testing.T) {
	g := newTestGrid(t, 5)

	item, ok, err := g.ItemAt(Location{Col: 2, Row: 0})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Goblet, item)

	_, ok, err = g.ItemAt(Location{Col: 0, Row: 0})
	require.NoError(t, err)
	assert.False(t, ok, "start tiles carry no item")

	_, _, err = g.ItemAt(Location{Col: 0, Row: -1})
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

func TestCloneIsIndependent(t *testing.T) {
	g := newTestGrid(t, 11)
	c := g.Clone()
	require.True(t, g.Equal(c))

	require.NoError(t, c.InsertSpare(Location{Col: 0, Row: 1}, legalOrientation(t, c, Location{Col: 0, Row: 1})))
	assert.False(t, g.Equal(c))
	assert.NoError(t, g.Validate())
	assert.NoError(t, c.Validate())
}

package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectedIsReflexive(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		c := NewComponents(newTestGrid(t, seed))
		for _, l := range allLocations {
			connected, err := c.Connected(l, l)
			require.NoError(t, err)
			assert.True(t, connected, "seed %d: %s", seed, l)
		}
	}
}

func TestConnectedVerticalColumns(t *testing.T) {
	c := NewComponents(verticalGrid())

	connected, err := c.Connected(Location{2, 0}, Location{2, 6})
	require.NoError(t, err)
	assert.True(t, connected)

	connected, err = c.Connected(Location{2, 0}, Location{3, 0})
	require.NoError(t, err)
	assert.False(t, connected)

	assert.Equal(t, Size, c.Count())
	for _, size := range c.Sizes() {
		assert.Equal(t, Size, size)
	}

	reachable, err := c.Reachable(Location{4, 3})
	require.NoError(t, err)
	require.Len(t, reachable, Size)
	for row, l := range reachable {
		assert.Equal(t, Location{4, row}, l)
	}
}

func TestConnectedAgreesWithNeighbors(t *testing.T) {
	g := newTestGrid(t, 31)
	c := NewComponents(g)

	total := 0
	for _, size := range c.Sizes() {
		total += size
	}
	assert.Equal(t, Size*Size, total)

	for _, l := range allLocations {
		neighbors, err := g.Neighbors(l)
		require.NoError(t, err)
		for _, n := range neighbors {
			connected, err := c.Connected(l, n)
			require.NoError(t, err)
			assert.True(t, connected, "%s and %s are adjacent", l, n)

			back, err := g.Neighbors(n)
			require.NoError(t, err)
			assert.Contains(t, back, l, "adjacency must be symmetric")
		}
	}
}

func TestLabelsAreStableForSameGrid(t *testing.T) {
	g := newTestGrid(t, 12)
	a, b := NewComponents(g), NewComponents(g)

	for _, l := range allLocations {
		la, err := a.Label(l)
		require.NoError(t, err)
		lb, err := b.Label(l)
		require.NoError(t, err)
		assert.Equal(t, la, lb)
	}
}

func TestConnectedRejectsOffBoard(t *testing.T) {
	c := NewComponents(verticalGrid())

	_, err := c.Connected(Location{0, 0}, Location{0, 7})
	assert.ErrorIs(t, err, ErrInvalidLocation)

	_, err = c.Reachable(Location{-1, 0})
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

func TestComponentsGoStaleAfterMutation(t *testing.T) {
	g := newTestGrid(t, 13)
	c := NewComponents(g)

	at := Location{Col: 5, Row: 0}
	require.NoError(t, g.InsertSpare(at, legalOrientation(t, g, at)))

	_, err := c.Connected(Location{0, 0}, Location{0, 0})
	assert.ErrorIs(t, err, ErrStaleComponents)
	_, err = c.Label(Location{0, 0})
	assert.ErrorIs(t, err, ErrStaleComponents)

	fresh := NewComponents(g)
	connected, err := fresh.Connected(Location{0, 0}, Location{0, 0})
	require.NoError(t, err)
	assert.True(t, connected)
}

func TestComponentsIgnoreFailedMutations(t *testing.T) {
	g := newTestGrid(t, 13)
	c := NewComponents(g)

	require.Error(t, g.InsertSpare(Location{0, 0}, Rotate0))
	_, err := c.Connected(Location{0, 0}, Location{6, 6})
	assert.NoError(t, err)
}

package board

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"
)

// Components partitions the board into groups of mutually reachable
// locations. It is a snapshot: once the grid it was built from changes,
// every query fails with ErrStaleComponents.
type Components struct {
	grid       *Grid
	generation uint64
	labels     map[Location]int
	count      int
}

// NewComponents labels every location of g. Two locations get the same label
// exactly when a path of connected tiles joins them.
func NewComponents(g *Grid) *Components {
	c := &Components{
		grid:       g,
		generation: g.generation,
		labels:     make(map[Location]int, len(g.cells)),
	}

	visited := mapset.New[Location]()
	for _, start := range allLocations {
		if visited.Has(start) {
			continue
		}
		label := c.count
		c.count++

		stack := []Location{start}
		visited.Put(start)
		for len(stack) > 0 {
			l := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			c.labels[l] = label

			neighbors, _ := g.Neighbors(l)
			for _, n := range neighbors {
				if visited.Has(n) {
					continue
				}
				visited.Put(n)
				stack = append(stack, n)
			}
		}
	}
	return c
}

func (c *Components) check(locations ...Location) error {
	if c.grid.generation != c.generation {
		return fmt.Errorf("%w: built at generation %d, grid is at %d", ErrStaleComponents, c.generation, c.grid.generation)
	}
	for _, l := range locations {
		if _, ok := c.labels[l]; !ok {
			return fmt.Errorf("%w: %s", ErrInvalidLocation, l)
		}
	}
	return nil
}

// Connected reports whether a path joins a and b
func (c *Components) Connected(a, b Location) (bool, error) {
	if err := c.check(a, b); err != nil {
		return false, err
	}
	return c.labels[a] == c.labels[b], nil
}

// Label returns the component label of l. Labels are only meaningful when
// compared with other labels from the same snapshot.
func (c *Components) Label(l Location) (int, error) {
	if err := c.check(l); err != nil {
		return 0, err
	}
	return c.labels[l], nil
}

// Count returns the number of components
func (c *Components) Count() int {
	return c.count
}

// Reachable returns every location connected to from, in row-major order.
// from itself is always included.
func (c *Components) Reachable(from Location) ([]Location, error) {
	if err := c.check(from); err != nil {
		return nil, err
	}
	label := c.labels[from]
	var reachable []Location
	for _, l := range allLocations {
		if c.labels[l] == label {
			reachable = append(reachable, l)
		}
	}
	return reachable, nil
}

// Sizes returns the number of locations in each component, indexed by label
func (c *Components) Sizes() []int {
	sizes := make([]int, c.count)
	for _, label := range c.labels {
		sizes[label]++
	}
	return sizes
}

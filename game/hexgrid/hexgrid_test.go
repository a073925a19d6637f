package hexgrid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPreservesArrayInvariant(t *testing.T) {
	coords := []HecsCoord{
		{0, 0, 0}, {1, 0, 0}, {0, 2, -1}, {1, -3, 4}, {1, 1, 1},
	}
	for _, a := range coords {
		for _, b := range coords {
			sum := Add(a, b)
			assert.Contains(t, []int{0, 1}, sum.A, "Add(%v, %v)", a, b)
		}
	}
}

func TestAddCarryRule(t *testing.T) {
	// Both coordinates in array 1: the carry bumps row and column.
	sum := Add(HecsCoord{1, 2, 3}, HecsCoord{1, 4, 5})
	assert.Equal(t, HecsCoord{0, 7, 9}, sum)

	// Mixed arrays: no carry.
	sum = Add(HecsCoord{0, 2, 3}, HecsCoord{1, 4, 5})
	assert.Equal(t, HecsCoord{1, 6, 8}, sum)
}

func TestNegateRoundTrip(t *testing.T) {
	coords := []HecsCoord{
		{0, 0, 0}, {1, 0, 0}, {0, -2, 5}, {1, 3, -4},
	}
	for _, c := range coords {
		assert.Equal(t, Origin(), Add(c, c.Negate()), "negate of %v", c)
	}
}

func TestSubInvertsAdd(t *testing.T) {
	a := HecsCoord{1, 2, -1}
	b := HecsCoord{0, -3, 4}
	d := Sub(a, b)
	assert.True(t, Add(b, d).Equals(a))
}

func TestNeighborsAreUnitDistance(t *testing.T) {
	starts := []HecsCoord{Origin(), {1, 0, 0}, {0, 3, -2}, {1, -1, 5}}
	for _, start := range starts {
		neighbors := start.Neighbors()
		require.Len(t, neighbors, 6)
		for _, n := range neighbors {
			assert.InDelta(t, 1.0, start.DistanceTo(n), 1e-9,
				"%v -> %v", start, n)
		}
	}
}

func TestNeighborsDistinct(t *testing.T) {
	seen := map[HecsCoord]bool{}
	for _, n := range Origin().Neighbors() {
		assert.False(t, seen[n], "duplicate neighbor %v", n)
		seen[n] = true
	}
}

func TestCartesianOrigin(t *testing.T) {
	x, y := Origin().Cartesian()
	assert.Zero(t, x)
	assert.Zero(t, y)

	x, y = HecsCoord{1, 0, 0}.Cartesian()
	assert.InDelta(t, 0.5, x, 1e-9)
	assert.InDelta(t, math.Sqrt(3)/2, y, 1e-9)
}

func TestNeighborAtHeading(t *testing.T) {
	origin := Origin()
	assert.Equal(t, origin.UpRight(), origin.NeighborAtHeading(0))
	assert.Equal(t, origin.Right(), origin.NeighborAtHeading(60))
	assert.Equal(t, origin.DownRight(), origin.NeighborAtHeading(120))
	assert.Equal(t, origin.DownLeft(), origin.NeighborAtHeading(180))
	assert.Equal(t, origin.Left(), origin.NeighborAtHeading(240))
	assert.Equal(t, origin.UpLeft(), origin.NeighborAtHeading(300))
	// Headings wrap.
	assert.Equal(t, origin.UpRight(), origin.NeighborAtHeading(360))
	assert.Equal(t, origin.UpLeft(), origin.NeighborAtHeading(-60))
}

func TestDisplacementChainMatchesProjection(t *testing.T) {
	// Walking two steps right and one up-right lands 2.5 cells east-ish.
	pos := Origin()
	pos = Add(pos, Origin().Right())
	pos = Add(pos, Origin().Right())
	pos = Add(pos, Origin().UpRight())
	x, y := pos.Cartesian()
	assert.InDelta(t, 2.5, x, 1e-9)
	assert.InDelta(t, -math.Sqrt(3)/2, y, 1e-9)
}

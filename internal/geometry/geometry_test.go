package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLess(t *testing.T) {
	assert.True(t, Less(Coord{X: 0, Y: 5}, Coord{X: 1, Y: 0}))
	assert.True(t, Less(Coord{X: 1, Y: 0}, Coord{X: 1, Y: 1}))
	assert.False(t, Less(Coord{X: 1, Y: 1}, Coord{X: 1, Y: 1}))
}

func TestFinite(t *testing.T) {
	assert.True(t, Finite(Coord{X: 1e300, Y: -3}))
	assert.False(t, Finite(Coord{X: math.NaN(), Y: 0}))
	assert.False(t, Finite(Coord{X: 0, Y: math.Inf(-1)}))
}

func TestDist(t *testing.T) {
	assert.Equal(t, 5.0, Dist(Coord{X: 1, Y: 1}, Coord{X: 4, Y: 5}))
	assert.Equal(t, 0.0, Dist(Coord{X: 2, Y: 2}, Coord{X: 2, Y: 2}))
}

package meshblock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadnet/internal/geometry"
)

func TestKeyIgnoresStartAndOrientation(t *testing.T) {
	k := newKernel()
	ccw := polygon(t, k, c(0, 0), c(1, 0), c(1, 1), c(0, 1), c(0, 0))
	cw := polygon(t, k, c(1, 1), c(1, 0), c(0, 0), c(0, 1), c(1, 1))
	assert.Equal(t, Key(k, ccw), Key(k, cw))
	assert.Equal(t, "0 0,0 1,1 1,1 0", Key(k, ccw))
}

func TestKeyDistinguishesGeometry(t *testing.T) {
	k := newKernel()
	a := polygon(t, k, c(0, 0), c(1, 0), c(1, 1), c(0, 1), c(0, 0))
	// 同一形状但多一个共线顶点，几何相等但顶点不同
	b := polygon(t, k, c(0, 0), c(0.5, 0), c(1, 0), c(1, 1), c(0, 1), c(0, 0))
	assert.NotEqual(t, Key(k, a), Key(k, b))
}

func TestKeyWithHole(t *testing.T) {
	k := newKernel()
	g, err := k.NewPolygon([][]geometry.Coord{
		{c(0, 0), c(4, 0), c(4, 4), c(0, 4), c(0, 0)},
		{c(1, 1), c(1, 2), c(2, 2), c(2, 1), c(1, 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, "0 0,0 4,4 4,4 0|1 1,1 2,2 2,2 1", Key(k, g))
}

func TestRingKeyFractional(t *testing.T) {
	r := []geometry.Coord{c(0.1, 0.25), c(2, 0.25), c(2, 3e-7), c(0.1, 0.25)}
	assert.Equal(t, "0.1 0.25,2 3e-07,2 0.25", ringKey(r))
}

func TestRingKeyNegativeZero(t *testing.T) {
	nz := math.Copysign(0, -1)
	pos := []geometry.Coord{c(0, 0), c(1, 0), c(1, 1), c(0, 1), c(0, 0)}
	neg := []geometry.Coord{c(nz, 0), c(1, nz), c(1, 1), c(nz, 1), c(nz, 0)}
	assert.Equal(t, ringKey(pos), ringKey(neg))
	assert.Equal(t, "0 0,0 1,1 1,1 0", ringKey(neg))
}

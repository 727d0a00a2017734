package meshblock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadnet/internal/network"
)

func TestSubdivisionTwoSquares(t *testing.T) {
	k := newKernel()
	idx, sub := build(t, k, twoSquares())
	require.Equal(t, 2, sub.Len())
	// 按规范键排序：左侧正方形在前
	assert.Equal(t, "0 0,0 1,1 1,1 0", sub.Keys[0])
	assert.Equal(t, "1 0,1 1,2 1,2 0", sub.Keys[1])

	assert.Equal(t, []int{0, 1}, sub.CoveredBy[pos(t, idx, "S")])
	assert.Equal(t, []int{0, 1}, sub.BoundaryCoveredBy[pos(t, idx, "S")])
	assert.Equal(t, []int{0}, sub.CoveredBy[pos(t, idx, "L2")])
	assert.Equal(t, []int{1}, sub.CoveredBy[pos(t, idx, "R1")])
	for i := range idx.Arcs {
		assert.Empty(t, sub.Within[i])
	}
}

func TestSubdivisionDeadends(t *testing.T) {
	k := newKernel()
	arcs := append(twoSquares(),
		arc("inside", c(0.2, 0.2), c(0.5, 0.5)),
		arc("outside", c(3, 3), c(4, 4)),
	)
	idx, sub := build(t, k, arcs)
	require.Equal(t, 2, sub.Len())

	in := pos(t, idx, "inside")
	assert.Equal(t, []int{0}, sub.Within[in])
	assert.Equal(t, []int{0}, sub.CoveredBy[in])
	assert.Empty(t, sub.BoundaryCoveredBy[in])

	out := pos(t, idx, "outside")
	assert.Empty(t, sub.Within[out])
	assert.Empty(t, sub.CoveredBy[out])
}

func TestSubdivisionEmpty(t *testing.T) {
	k := newKernel()
	idx, sub := build(t, k, []network.Arc{arc("x", c(0, 0), c(1, 1))})
	assert.Equal(t, 0, sub.Len())
	assert.Len(t, sub.CoveredBy, idx.Len())
	assert.Empty(t, sub.CoveredBy[0])
}

func TestSubdivisionStableAcrossInputOrder(t *testing.T) {
	k := newKernel()
	arcs := twoSquares()
	_, first := build(t, k, arcs)
	reversed := make([]network.Arc, len(arcs))
	for i, a := range arcs {
		reversed[len(arcs)-1-i] = a
	}
	_, second := build(t, k, reversed)
	assert.Equal(t, first.Keys, second.Keys)
}

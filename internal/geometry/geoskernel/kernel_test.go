package geoskernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadnet/internal/geometry"
)

func c(x, y float64) geometry.Coord { return geometry.Coord{X: x, Y: y} }

func mustLine(t *testing.T, k *Kernel, cs ...geometry.Coord) geometry.Geometry {
	t.Helper()
	g, err := k.NewLineString(cs)
	require.NoError(t, err)
	return g
}

func square(x0, y0 float64) [][]geometry.Coord {
	return [][]geometry.Coord{{c(x0, y0), c(x0+1, y0), c(x0+1, y0+1), c(x0, y0+1), c(x0, y0)}}
}

func TestPredicates(t *testing.T) {
	k := New()
	a := mustLine(t, k, c(0, 0), c(2, 2))
	b := mustLine(t, k, c(0, 2), c(2, 0))
	o := mustLine(t, k, c(1, 1), c(3, 3))
	assert.True(t, k.Crosses(a, b))
	assert.False(t, k.Overlaps(a, b))
	assert.True(t, k.Overlaps(a, o))
	assert.True(t, k.Equals(a, mustLine(t, k, c(2, 2), c(0, 0))))
	assert.InDelta(t, 2.8284271247461903, k.Length(a), 1e-12)

	sq, err := k.NewPolygon(square(0, 0))
	require.NoError(t, err)
	edge := mustLine(t, k, c(0, 0), c(1, 0))
	assert.True(t, k.CoveredBy(edge, sq))
	assert.True(t, k.Covers(sq, edge))
	assert.False(t, k.Within(edge, sq))
	assert.True(t, k.CoveredBy(edge, k.Boundary(sq)))
	assert.True(t, k.Within(mustLine(t, k, c(0.2, 0.2), c(0.8, 0.8)), sq))
}

func TestNewLineStringNeedsTwoVertices(t *testing.T) {
	_, err := New().NewLineString([]geometry.Coord{c(0, 0)})
	assert.Error(t, err)
}

func TestPolygonizeNodesCrossings(t *testing.T) {
	k := New()
	// 两条对角线与外框：节点化后得到 4 个三角形
	lines := []geometry.Geometry{
		mustLine(t, k, c(0, 0), c(2, 0), c(2, 2), c(0, 2), c(0, 0)),
		mustLine(t, k, c(0, 0), c(2, 2)),
		mustLine(t, k, c(0, 2), c(2, 0)),
	}
	polys, err := k.Polygonize(lines)
	require.NoError(t, err)
	assert.Len(t, polys, 4)

	none, err := k.Polygonize(nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUnionAndRings(t *testing.T) {
	k := New()
	left, err := k.NewPolygon(square(0, 0))
	require.NoError(t, err)
	right, err := k.NewPolygon(square(1, 0))
	require.NoError(t, err)
	u, err := k.Union([]geometry.Geometry{left, right})
	require.NoError(t, err)
	rings := k.Rings(u)
	require.Len(t, rings, 1)
	assert.Equal(t, rings[0][0], rings[0][len(rings[0])-1])

	_, err = k.Union(nil)
	assert.Error(t, err)
}

func TestIndexQuery(t *testing.T) {
	k := New()
	gs := []geometry.Geometry{
		mustLine(t, k, c(0, 0), c(1, 0)),
		mustLine(t, k, c(10, 10), c(11, 10)),
		mustLine(t, k, c(0.5, -1), c(0.5, 1)),
	}
	idx, err := k.NewIndex(gs)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, idx.Query(gs[0]))
	assert.Equal(t, []int{1}, idx.Query(gs[1]))
}

func TestWKBCodec(t *testing.T) {
	k := New()
	l := mustLine(t, k, c(0, 0), c(1, 2), c(3, 4))
	coords, err := k.LineCoords(k.ToWKB(l))
	require.NoError(t, err)
	assert.Equal(t, []geometry.Coord{c(0, 0), c(1, 2), c(3, 4)}, coords)

	sq, err := k.NewPolygon(square(0, 0))
	require.NoError(t, err)
	back, err := k.PolygonFromWKB(k.ToWKB(sq))
	require.NoError(t, err)
	assert.True(t, k.Equals(sq, back))

	_, err = k.LineCoords(k.ToWKB(sq))
	assert.ErrorIs(t, err, ErrGeometryType)
	_, err = k.PolygonFromWKB(k.ToWKB(l))
	assert.ErrorIs(t, err, ErrGeometryType)
}

func TestFromFloatsRejectsShortCoordinate(t *testing.T) {
	_, err := fromFloats([][]float64{{0, 0}, {5}, {1, 1}})
	assert.ErrorIs(t, err, ErrGeometryType)

	got, err := fromFloats([][]float64{{0, 0, 9}, {1, 1}})
	require.NoError(t, err)
	assert.Equal(t, []geometry.Coord{c(0, 0), c(1, 1)}, got)
}

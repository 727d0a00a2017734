package meshblock

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"roadnet/internal/geometry"
	"roadnet/internal/geometry/geoskernel"
	"roadnet/internal/network"
)

func c(x, y float64) geometry.Coord { return geometry.Coord{X: x, Y: y} }

func arc(id string, cs ...geometry.Coord) network.Arc { return network.Arc{ID: id, Coords: cs} }

// twoSquares：共用边 S 的两个单位正方形，左侧 [0,1]x[0,1]，右侧 [1,2]x[0,1]
func twoSquares() []network.Arc {
	return []network.Arc{
		arc("S", c(1, 0), c(1, 1)),
		arc("L1", c(1, 0), c(0, 0)),
		arc("L2", c(0, 0), c(0, 1), c(1, 1)),
		arc("R1", c(1, 0), c(2, 0)),
		arc("R2", c(2, 0), c(2, 1), c(1, 1)),
	}
}

func triangle() []network.Arc {
	return []network.Arc{
		arc("a", c(0, 0), c(1, 0)),
		arc("b", c(1, 0), c(0, 1)),
		arc("c", c(0, 1), c(0, 0)),
	}
}

func build(t *testing.T, k geometry.Kernel, arcs []network.Arc) (*network.Index, *Subdivision) {
	t.Helper()
	idx, err := network.BuildIndex(k, arcs)
	require.NoError(t, err)
	sub, err := BuildSubdivision(k, idx)
	require.NoError(t, err)
	return idx, sub
}

func polygon(t *testing.T, k geometry.Kernel, ring ...geometry.Coord) geometry.Geometry {
	t.Helper()
	g, err := k.NewPolygon([][]geometry.Coord{ring})
	require.NoError(t, err)
	return g
}

func pos(t *testing.T, idx *network.Index, id string) int {
	t.Helper()
	i, ok := idx.Pos(id)
	require.True(t, ok, id)
	return i
}

// seqMinter：可预测的标识
type seqMinter struct{ n int }

func (m *seqMinter) Mint() string {
	m.n++
	return fmt.Sprintf("mb-%d", m.n)
}

func newKernel() *geoskernel.Kernel { return geoskernel.New() }

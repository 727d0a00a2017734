package validate

import (
	"roadnet/internal/geometry"
)

// nodeIntersection：弧段只能在端点处相连
// 端点与另一条弧段（顶点数大于 2）的内部顶点重合时，标记该端点所在弧段
func nodeIntersection(in *Input) (Finding, error) {
	x := in.Index
	interior := make(map[geometry.Coord][]int)
	for i, a := range x.Arcs {
		if len(a.Coords) <= 2 {
			continue
		}
		seen := make(map[geometry.Coord]struct{}, len(a.Coords)-2)
		for _, c := range a.Coords[1 : len(a.Coords)-1] {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			interior[c] = append(interior[c], i)
		}
	}
	touchesOther := func(i int, c geometry.Coord) bool {
		for _, owner := range interior[c] {
			if owner != i {
				return true
			}
		}
		return false
	}
	return Finding{IDs: flagWhere(x, func(i int) bool {
		return touchesOther(i, x.Start[i]) || touchesOther(i, x.End[i])
	})}, nil
}

// segmentation：弧段不得穿越（必须在每个交点处打断）
func segmentation(in *Input) (Finding, error) {
	x := in.Index
	return Finding{IDs: flagWhere(x, func(i int) bool {
		for _, j := range x.Tree.Query(x.Geoms[i]) {
			if j != i && in.Kernel.Crosses(x.Geoms[i], x.Geoms[j]) {
				return true
			}
		}
		return false
	})}, nil
}

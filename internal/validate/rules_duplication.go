package validate

import (
	"roadnet/internal/geometry"
)

// dupKey：长度与无序端点对，几何相等的弧段必然落在同一组
type dupKey struct {
	length float64
	a, b   geometry.Coord
}

// duplicated：弧段不得重复
// 先按长度与端点对分组，组内两两做几何相等判定
func duplicated(in *Input) (Finding, error) {
	x := in.Index
	groups := make(map[dupKey][]int)
	var order []dupKey
	for i := range x.Arcs {
		a, b := x.Start[i], x.End[i]
		if geometry.Less(b, a) {
			a, b = b, a
		}
		k := dupKey{length: x.Length[i], a: a, b: b}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}
	ids := IDSet{}
	for _, k := range order {
		members := groups[k]
		if len(members) < 2 {
			continue
		}
		for p, i := range members {
			for _, j := range members[p+1:] {
				if in.Kernel.Equals(x.Geoms[i], x.Geoms[j]) {
					ids.Add(x.Arcs[i].ID)
					ids.Add(x.Arcs[j].ID)
				}
			}
		}
	}
	return Finding{IDs: ids}, nil
}

// overlap：弧段之间不得部分重叠（共享正长度子线但不相等）
func overlap(in *Input) (Finding, error) {
	x := in.Index
	return Finding{IDs: flagWhere(x, func(i int) bool {
		for _, j := range x.Tree.Query(x.Geoms[i]) {
			if j != i && in.Kernel.Overlaps(x.Geoms[i], x.Geoms[j]) {
				return true
			}
		}
		return false
	})}, nil
}

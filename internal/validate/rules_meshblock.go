package validate

import (
	"errors"

	"roadnet/internal/network"
)

var errNoSubdivision = errors.New("meshblock rules need a subdivision")

// meshblockCount：弧段只能被 1 或 2 个面覆盖
func meshblockCount(in *Input) (Finding, error) {
	if in.Subdivision == nil {
		return Finding{}, errNoSubdivision
	}
	s := in.Subdivision
	return Finding{IDs: flagWhere(in.Index, func(i int) bool {
		n := len(s.CoveredBy[i])
		return n != 1 && n != 2
	})}, nil
}

// meshblockBoundary：边界类弧段必须落在某个面的边界上
func meshblockBoundary(in *Input) (Finding, error) {
	if in.Subdivision == nil {
		return Finding{}, errNoSubdivision
	}
	x, s := in.Index, in.Subdivision
	return Finding{IDs: flagWhere(x, func(i int) bool {
		return x.Arcs[i].Class == network.Boundary && len(s.BoundaryCoveredBy[i]) == 0
	})}, nil
}

// meshblockDeadend：断头弧段必须完全位于恰好一个面内
func meshblockDeadend(in *Input) (Finding, error) {
	if in.Subdivision == nil {
		return Finding{}, errNoSubdivision
	}
	x, s := in.Index, in.Subdivision
	return Finding{IDs: flagWhere(x, func(i int) bool {
		return x.Deadend[i] && len(s.Within[i]) != 1
	})}, nil
}

// 包 network：道路弧段与每次运行重算的派生属性（端点、相邻顶点对、长度、简单性、节点度）
package network

import (
	"roadnet/internal/geometry"
)

// Classification：弧段分类
type Classification int

const (
	// Normal 普通道路弧段
	Normal Classification = iota
	// Excluded 不参与拓扑（如轮渡线）
	Excluded
	// Boundary 行政边界弧段，必须落在某个面的边界上
	Boundary
)

func (c Classification) String() string {
	switch c {
	case Excluded:
		return "excluded"
	case Boundary:
		return "boundary"
	default:
		return "normal"
	}
}

// Arc：一条折线记录
// Left/Right 为上一次运行持久化的左右面标识，空串表示未关联
type Arc struct {
	ID     string
	Coords []geometry.Coord
	Class  Classification
	Left   string
	Right  string
}

// Pair：相邻两顶点，A 按字典序不大于 B，距离计算与方向无关
type Pair struct {
	A geometry.Coord
	B geometry.Coord
}

func newPair(a, b geometry.Coord) Pair {
	if geometry.Less(b, a) {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

func (p Pair) Dist() float64 { return geometry.Dist(p.A, p.B) }

// orderedPairs：第 i 对为 (顶点 i, 顶点 i+1)，每对内部规范排序
func orderedPairs(coords []geometry.Coord) []Pair {
	if len(coords) < 2 {
		return nil
	}
	out := make([]Pair, len(coords)-1)
	for i := 0; i+1 < len(coords); i++ {
		out[i] = newPair(coords[i], coords[i+1])
	}
	return out
}

package network

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"roadnet/internal/geometry"
	"roadnet/internal/logger"
)

// ErrMalformedArc：几何无法度量或分类，整次运行中止
var ErrMalformedArc = errors.New("malformed arc")

// Index：弧段派生属性，按下标与 Arcs 对齐
// 背景：多个规则共用端点、顶点对和空间索引，每次运行只计算一次
// 约束：弧段集合变化后必须重建；Excluded 弧段不进入索引
type Index struct {
	Arcs    []Arc
	Geoms   []geometry.Geometry
	Start   []geometry.Coord
	End     []geometry.Coord
	Pairs   [][]Pair
	Length  []float64
	Simple  []bool
	Deadend []bool
	// Degree 节点度：该坐标上弧段端点的个数
	Degree map[geometry.Coord]int
	Tree   geometry.Index

	pos map[string]int
}

// BuildIndex：校验输入形状并生成派生属性；弧段按 id 排序以保证结果确定
func BuildIndex(k geometry.Kernel, arcs []Arc) (*Index, error) {
	kept := make([]Arc, 0, len(arcs))
	skipped := 0
	for _, a := range arcs {
		if a.Class == Excluded {
			skipped++
			continue
		}
		kept = append(kept, a)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].ID < kept[j].ID })

	n := len(kept)
	x := &Index{
		Arcs:    kept,
		Geoms:   make([]geometry.Geometry, n),
		Start:   make([]geometry.Coord, n),
		End:     make([]geometry.Coord, n),
		Pairs:   make([][]Pair, n),
		Length:  make([]float64, n),
		Simple:  make([]bool, n),
		Deadend: make([]bool, n),
		Degree:  make(map[geometry.Coord]int, 2*n),
		pos:     make(map[string]int, n),
	}
	for i, a := range kept {
		if err := checkShape(a); err != nil {
			return nil, err
		}
		if _, dup := x.pos[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrMalformedArc, a.ID)
		}
		x.pos[a.ID] = i
		g, err := k.NewLineString(a.Coords)
		if err != nil {
			return nil, fmt.Errorf("%w: arc %q: %v", ErrMalformedArc, a.ID, err)
		}
		length := k.Length(g)
		if math.IsNaN(length) || math.IsInf(length, 0) {
			return nil, fmt.Errorf("%w: arc %q: length not measurable", ErrMalformedArc, a.ID)
		}
		x.Geoms[i] = g
		x.Start[i] = a.Coords[0]
		x.End[i] = a.Coords[len(a.Coords)-1]
		x.Pairs[i] = orderedPairs(a.Coords)
		x.Length[i] = length
		x.Simple[i] = k.IsSimple(g)
		x.Degree[x.Start[i]]++
		x.Degree[x.End[i]]++
	}
	for i := range kept {
		x.Deadend[i] = x.Degree[x.Start[i]] == 1 || x.Degree[x.End[i]] == 1
	}
	tree, err := k.NewIndex(x.Geoms)
	if err != nil {
		return nil, err
	}
	x.Tree = tree
	logger.L().Debug("arc_index_built", "arcs", n, "excluded", skipped, "nodes", len(x.Degree), "deadends", len(x.Deadends()))
	return x, nil
}

func checkShape(a Arc) error {
	if a.ID == "" {
		return fmt.Errorf("%w: empty id", ErrMalformedArc)
	}
	if len(a.Coords) < 2 {
		return fmt.Errorf("%w: arc %q has %d vertices", ErrMalformedArc, a.ID, len(a.Coords))
	}
	for _, c := range a.Coords {
		if !geometry.Finite(c) {
			return fmt.Errorf("%w: arc %q has non-finite coordinate", ErrMalformedArc, a.ID)
		}
	}
	return nil
}

func (x *Index) Len() int { return len(x.Arcs) }

// Pos：按 id 查找下标
func (x *Index) Pos(id string) (int, bool) {
	i, ok := x.pos[id]
	return i, ok
}

// Deadends：至少一个端点度为 1 的弧段下标
func (x *Index) Deadends() []int {
	var out []int
	for i, d := range x.Deadend {
		if d {
			out = append(out, i)
		}
	}
	return out
}

func (x *Index) NonDeadends() []int {
	var out []int
	for i, d := range x.Deadend {
		if !d {
			out = append(out, i)
		}
	}
	return out
}

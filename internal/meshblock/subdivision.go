package meshblock

import (
	"fmt"
	"sort"

	"roadnet/internal/geometry"
	"roadnet/internal/logger"
	"roadnet/internal/network"
)

// Subdivision：非断头弧段围成的面集合及每条弧段与面的覆盖关系
// CoveredBy/BoundaryCoveredBy/Within 均按弧段下标与 network.Index 对齐，元素为 Faces 的下标
type Subdivision struct {
	Faces      []geometry.Geometry
	Keys       []string
	Boundaries []geometry.Geometry

	// CoveredBy 覆盖该弧段的面（含落在面边界上的情况），用于计数规则与左右面判定
	CoveredBy [][]int
	// BoundaryCoveredBy 边界覆盖该弧段的面，用于边界规则
	BoundaryCoveredBy [][]int
	// Within 完全位于面内部的面，仅计算断头弧段
	Within [][]int
}

func (s *Subdivision) Len() int { return len(s.Faces) }

// recoverKernel：内核谓词失败以 panic 抛出，转为错误向上传递
func recoverKernel(op string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: kernel failure: %v", op, r)
	}
}

// BuildSubdivision：节点化并多边形化非断头弧段，再为每条弧段计算覆盖关系
// 背景：面的提取顺序没有语义，按规范键排序使输出在多次运行间稳定
func BuildSubdivision(k geometry.Kernel, idx *network.Index) (sub *Subdivision, err error) {
	defer recoverKernel("subdivision", &err)

	nd := idx.NonDeadends()
	lines := make([]geometry.Geometry, len(nd))
	for i, a := range nd {
		lines[i] = idx.Geoms[a]
	}
	polys, err := k.Polygonize(lines)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(polys))
	order := make([]int, len(polys))
	for i, p := range polys {
		keys[i] = Key(k, p)
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return keys[order[a]] < keys[order[b]] })

	sub = &Subdivision{
		Faces:             make([]geometry.Geometry, len(polys)),
		Keys:              make([]string, len(polys)),
		Boundaries:        make([]geometry.Geometry, len(polys)),
		CoveredBy:         make([][]int, idx.Len()),
		BoundaryCoveredBy: make([][]int, idx.Len()),
		Within:            make([][]int, idx.Len()),
	}
	for i, o := range order {
		sub.Faces[i] = polys[o]
		sub.Keys[i] = keys[o]
		sub.Boundaries[i] = k.Boundary(polys[o])
	}
	if len(sub.Faces) == 0 {
		logger.L().Warn("subdivision_empty", "non_deadends", len(nd))
		return sub, nil
	}
	tree, err := k.NewIndex(sub.Faces)
	if err != nil {
		return nil, err
	}
	for i := range idx.Arcs {
		g := idx.Geoms[i]
		for _, f := range tree.Query(g) {
			if k.CoveredBy(g, sub.Faces[f]) {
				sub.CoveredBy[i] = append(sub.CoveredBy[i], f)
			}
			if k.CoveredBy(g, sub.Boundaries[f]) {
				sub.BoundaryCoveredBy[i] = append(sub.BoundaryCoveredBy[i], f)
			}
			if idx.Deadend[i] && k.Within(g, sub.Faces[f]) {
				sub.Within[i] = append(sub.Within[i], f)
			}
		}
	}
	logger.L().Debug("subdivision_built", "faces", len(sub.Faces), "non_deadends", len(nd))
	return sub, nil
}

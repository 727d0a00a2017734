// 包 geometry：几何内核的窄能力接口；校验、面构建与身份对齐逻辑只依赖此处定义
package geometry

import (
	"math"

	"seehuhn.de/go/geom/vec"
)

// Coord：平面坐标，直接复用 vec.Vec2 以获得向量运算；可作为 map 键
type Coord = vec.Vec2

// Geometry：内核持有的不透明几何句柄
// 约束：只能回传给创建它的同一个 Kernel，不同内核之间不可混用
type Geometry any

// Kernel：几何内核能力集合
// 背景：不在本仓库内实现通用几何内核；规则/解析器通过此接口调用外部库，测试时可替换为脚本化实现
// 约束：谓词语义与 OGC/DE-9IM 一致（crosses/overlaps/covered_by/covers/within/equals）
type Kernel interface {
	NewLineString(coords []Coord) (Geometry, error)
	NewPolygon(rings [][]Coord) (Geometry, error)

	Length(g Geometry) float64
	IsSimple(g Geometry) bool

	Crosses(a, b Geometry) bool
	Overlaps(a, b Geometry) bool
	CoveredBy(a, b Geometry) bool
	Covers(a, b Geometry) bool
	Within(a, b Geometry) bool
	Equals(a, b Geometry) bool

	// Boundary 返回面的边界线
	Boundary(g Geometry) Geometry
	// Polygonize 先对全部线做节点化合并，再提取其围成的有界多边形
	Polygonize(lines []Geometry) ([]Geometry, error)
	// Union 合并（溶解）一组面
	Union(gs []Geometry) (Geometry, error)
	// Rings 返回面（含多面）的全部环，首尾闭合点保留
	Rings(g Geometry) [][]Coord

	// NewIndex 为一组几何建立空间索引，Query 返回包围盒相交的下标
	NewIndex(gs []Geometry) (Index, error)
}

// Index：一次运行内构建一次的空间索引
type Index interface {
	// Query 返回候选下标（升序），仅做包围盒过滤，调用方再做精确谓词
	Query(g Geometry) []int
}

// Less：坐标字典序比较（先 X 后 Y）
func Less(a, b Coord) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// Finite：坐标两个分量均为有限数
func Finite(c Coord) bool {
	return !math.IsNaN(c.X) && !math.IsNaN(c.Y) && !math.IsInf(c.X, 0) && !math.IsInf(c.Y, 0)
}

// Dist：欧氏距离
func Dist(a, b Coord) float64 {
	return b.Sub(a).Length()
}

// 包 geoskernel：基于 GEOS（github.com/twpayne/go-geos）的几何内核实现
package geoskernel

import (
	"errors"
	"fmt"
	"sort"

	"github.com/twpayne/go-geos"

	"roadnet/internal/geometry"
)

// ErrGeometryType：WKB 解码得到的几何类型与预期不符
var ErrGeometryType = errors.New("unexpected geometry type")

// Kernel：GEOS 上下文的薄封装
// 约束：单个 Kernel 只在一个 goroutine 中使用；同一运行内创建的几何必须来自同一上下文
type Kernel struct {
	ctx *geos.Context
}

var _ geometry.Kernel = (*Kernel)(nil)

func New() *Kernel { return &Kernel{ctx: geos.NewContext()} }

func unwrap(g geometry.Geometry) *geos.Geom { return g.(*geos.Geom) }

// guard：GEOS 异常以 panic 形式抛出，此处转为错误返回
func guard(op string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("geos %s: %v", op, r)
	}
}

func toFloats(coords []geometry.Coord) [][]float64 {
	out := make([][]float64, len(coords))
	for i, c := range coords {
		out[i] = []float64{c.X, c.Y}
	}
	return out
}

// fromFloats：只取前两维，不足两维的坐标报 ErrGeometryType
func fromFloats(cs [][]float64) ([]geometry.Coord, error) {
	out := make([]geometry.Coord, len(cs))
	for i, c := range cs {
		if len(c) < 2 {
			return nil, fmt.Errorf("%w: coordinate %d has %d ordinates", ErrGeometryType, i, len(c))
		}
		out[i] = geometry.Coord{X: c[0], Y: c[1]}
	}
	return out, nil
}

// ringCoords：GEOS 的坐标序列至少带 XY 两维
func ringCoords(ring *geos.Geom) []geometry.Coord {
	seq := ring.CoordSeq()
	out := make([]geometry.Coord, seq.Size())
	for i := range out {
		out[i] = geometry.Coord{X: seq.X(i), Y: seq.Y(i)}
	}
	return out
}

func (k *Kernel) NewLineString(coords []geometry.Coord) (g geometry.Geometry, err error) {
	if len(coords) < 2 {
		return nil, fmt.Errorf("linestring needs at least 2 vertices, got %d", len(coords))
	}
	defer guard("linestring", &err)
	return k.ctx.NewLineString(toFloats(coords)), nil
}

func (k *Kernel) NewPolygon(rings [][]geometry.Coord) (g geometry.Geometry, err error) {
	if len(rings) == 0 {
		return nil, errors.New("polygon needs a shell")
	}
	defer guard("polygon", &err)
	coordss := make([][][]float64, len(rings))
	for i, r := range rings {
		coordss[i] = toFloats(r)
	}
	return k.ctx.NewPolygon(coordss), nil
}

func (k *Kernel) Length(g geometry.Geometry) float64 { return unwrap(g).Length() }
func (k *Kernel) IsSimple(g geometry.Geometry) bool  { return unwrap(g).IsSimple() }

func (k *Kernel) Crosses(a, b geometry.Geometry) bool   { return unwrap(a).Crosses(unwrap(b)) }
func (k *Kernel) Overlaps(a, b geometry.Geometry) bool  { return unwrap(a).Overlaps(unwrap(b)) }
func (k *Kernel) CoveredBy(a, b geometry.Geometry) bool { return unwrap(a).CoveredBy(unwrap(b)) }
func (k *Kernel) Covers(a, b geometry.Geometry) bool    { return unwrap(a).Covers(unwrap(b)) }
func (k *Kernel) Within(a, b geometry.Geometry) bool    { return unwrap(a).Within(unwrap(b)) }
func (k *Kernel) Equals(a, b geometry.Geometry) bool    { return unwrap(a).Equals(unwrap(b)) }

func (k *Kernel) Boundary(g geometry.Geometry) geometry.Geometry { return unwrap(g).Boundary() }

// Polygonize：unary union 完成节点化（交点、接触点均成为节点），再提取多边形
func (k *Kernel) Polygonize(lines []geometry.Geometry) (polys []geometry.Geometry, err error) {
	if len(lines) == 0 {
		return nil, nil
	}
	defer guard("polygonize", &err)
	parts := make([]*geos.Geom, len(lines))
	for i, l := range lines {
		parts[i] = unwrap(l).Clone()
	}
	noded := k.ctx.NewCollection(geos.TypeIDMultiLineString, parts).UnaryUnion()
	collection := k.ctx.Polygonize([]*geos.Geom{noded})
	n := collection.NumGeometries()
	polys = make([]geometry.Geometry, 0, n)
	for i := 0; i < n; i++ {
		polys = append(polys, collection.Geometry(i).Clone())
	}
	return polys, nil
}

func (k *Kernel) Union(gs []geometry.Geometry) (u geometry.Geometry, err error) {
	if len(gs) == 0 {
		return nil, errors.New("union of empty set")
	}
	defer guard("union", &err)
	parts := make([]*geos.Geom, len(gs))
	for i, g := range gs {
		parts[i] = unwrap(g).Clone()
	}
	return k.ctx.NewCollection(geos.TypeIDGeometryCollection, parts).UnaryUnion(), nil
}

func (k *Kernel) Rings(g geometry.Geometry) [][]geometry.Coord {
	var out [][]geometry.Coord
	var walk func(gg *geos.Geom)
	walk = func(gg *geos.Geom) {
		switch gg.TypeID() {
		case geos.TypeIDPolygon:
			out = append(out, ringCoords(gg.ExteriorRing()))
			for i := 0; i < gg.NumInteriorRings(); i++ {
				out = append(out, ringCoords(gg.InteriorRing(i)))
			}
		case geos.TypeIDMultiPolygon, geos.TypeIDGeometryCollection:
			for i := 0; i < gg.NumGeometries(); i++ {
				walk(gg.Geometry(i))
			}
		}
	}
	walk(unwrap(g))
	return out
}

// strIndex：GEOS STRtree，值为输入下标
type strIndex struct {
	tree *geos.STRtree
}

func (k *Kernel) NewIndex(gs []geometry.Geometry) (geometry.Index, error) {
	tree := k.ctx.NewSTRtree(10)
	for i, g := range gs {
		if err := tree.Insert(unwrap(g), i); err != nil {
			return nil, fmt.Errorf("strtree insert %d: %w", i, err)
		}
	}
	return &strIndex{tree: tree}, nil
}

func (s *strIndex) Query(g geometry.Geometry) []int {
	var out []int
	s.tree.Query(unwrap(g), func(v any) {
		out = append(out, v.(int))
	})
	sort.Ints(out)
	return out
}

// LineCoords：解码线的 WKB；单部件 MultiLineString 视为普通线
func (k *Kernel) LineCoords(wkb []byte) (coords []geometry.Coord, err error) {
	defer guard("wkb", &err)
	g, err := k.ctx.NewGeomFromWKB(wkb)
	if err != nil {
		return nil, err
	}
	if g.TypeID() == geos.TypeIDMultiLineString && g.NumGeometries() == 1 {
		g = g.Geometry(0)
	}
	if g.TypeID() != geos.TypeIDLineString {
		return nil, fmt.Errorf("%w: want linestring, got type %v", ErrGeometryType, g.TypeID())
	}
	return fromFloats(g.CoordSeq().ToCoords())
}

// PolygonFromWKB：解码面的 WKB；单部件 MultiPolygon 视为普通面
func (k *Kernel) PolygonFromWKB(wkb []byte) (poly geometry.Geometry, err error) {
	defer guard("wkb", &err)
	g, err := k.ctx.NewGeomFromWKB(wkb)
	if err != nil {
		return nil, err
	}
	if g.TypeID() == geos.TypeIDMultiPolygon && g.NumGeometries() == 1 {
		g = g.Geometry(0).Clone()
	}
	if g.TypeID() != geos.TypeIDPolygon {
		return nil, fmt.Errorf("%w: want polygon, got type %v", ErrGeometryType, g.TypeID())
	}
	return g, nil
}

func (k *Kernel) ToWKB(g geometry.Geometry) []byte { return unwrap(g).ToWKB() }

// 包 source：离线模式的 GeoJSON 输入（弧段、上次的面）与 JSON 报告输出
package source

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	geojson "github.com/paulmach/go.geojson"

	"roadnet/internal/config"
	"roadnet/internal/geometry"
	"roadnet/internal/logger"
	"roadnet/internal/meshblock"
	"roadnet/internal/network"
)

func readCollection(path string) (*geojson.FeatureCollection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// LoadArcs：读取 LineString 要素；属性名取自数据集配置（编号、类型、左右面）
// 约束：编号缺省时使用要素 id；单部件 MultiLineString 视为折线
func LoadArcs(path string, cfg *config.Config) ([]network.Arc, error) {
	fc, err := readCollection(path)
	if err != nil {
		return nil, fmt.Errorf("load arcs: %w", err)
	}
	seg := cfg.Segment
	arcs := make([]network.Arc, 0, len(fc.Features))
	for i, f := range fc.Features {
		id := propString(f.Properties, seg.IDCol)
		if id == "" {
			id = idString(f.ID)
		}
		if f.Geometry == nil {
			return nil, fmt.Errorf("feature %d (%q): %w: no geometry", i, id, network.ErrMalformedArc)
		}
		line, err := lineOf(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d (%q): %w: %v", i, id, network.ErrMalformedArc, err)
		}
		coords, err := toCoords(line)
		if err != nil {
			return nil, fmt.Errorf("feature %d (%q): %w: %v", i, id, network.ErrMalformedArc, err)
		}
		code, err := propInt(f.Properties, seg.TypeCol)
		if err != nil {
			return nil, fmt.Errorf("feature %d (%q): %w", i, id, err)
		}
		arcs = append(arcs, network.Arc{
			ID:     id,
			Coords: coords,
			Class:  cfg.Classify(code),
			Left:   propString(f.Properties, seg.LeftCol),
			Right:  propString(f.Properties, seg.RightCol),
		})
	}
	logger.L().Info("arcs_loaded", "path", path, "count", len(arcs))
	return arcs, nil
}

// LoadFaces：读取 Polygon 要素作为上次的面；path 为空时返回空集合
func LoadFaces(path string, cfg *config.Config, k geometry.Kernel) ([]meshblock.Face, error) {
	if path == "" {
		return nil, nil
	}
	fc, err := readCollection(path)
	if err != nil {
		return nil, fmt.Errorf("load faces: %w", err)
	}
	mb := cfg.Meshblock
	faces := make([]meshblock.Face, 0, len(fc.Features))
	for i, f := range fc.Features {
		id := propString(f.Properties, mb.IDCol)
		if id == "" {
			id = idString(f.ID)
		}
		if id == "" {
			return nil, fmt.Errorf("face feature %d: missing id", i)
		}
		if f.Geometry == nil {
			return nil, fmt.Errorf("face %q: no geometry", id)
		}
		rings, err := polygonOf(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("face %q: %w", id, err)
		}
		cr := make([][]geometry.Coord, len(rings))
		for j, r := range rings {
			if cr[j], err = toCoords(r); err != nil {
				return nil, fmt.Errorf("face %q ring %d: %w", id, j, err)
			}
		}
		g, err := k.NewPolygon(cr)
		if err != nil {
			return nil, fmt.Errorf("face %q: %w", id, err)
		}
		faces = append(faces, meshblock.Face{ID: id, ParentID: propString(f.Properties, mb.ParentCol), Geom: g})
	}
	logger.L().Info("faces_loaded", "path", path, "count", len(faces))
	return faces, nil
}

func lineOf(g *geojson.Geometry) ([][]float64, error) {
	switch {
	case g.IsLineString():
		return g.LineString, nil
	case g.IsMultiLineString() && len(g.MultiLineString) == 1:
		return g.MultiLineString[0], nil
	}
	return nil, fmt.Errorf("geometry %s is not a single line", g.Type)
}

func polygonOf(g *geojson.Geometry) ([][][]float64, error) {
	switch {
	case g.IsPolygon():
		return g.Polygon, nil
	case g.IsMultiPolygon() && len(g.MultiPolygon) == 1:
		return g.MultiPolygon[0], nil
	}
	return nil, fmt.Errorf("geometry %s is not a single polygon", g.Type)
}

// toCoords：只取前两维
// 约束：不足两维的坐标直接报错，不能跳过后把折线当作合法输入
func toCoords(pts [][]float64) ([]geometry.Coord, error) {
	out := make([]geometry.Coord, 0, len(pts))
	for i, p := range pts {
		if len(p) < 2 {
			return nil, fmt.Errorf("position %d has %d ordinates", i, len(p))
		}
		out = append(out, geometry.Coord{X: p[0], Y: p[1]})
	}
	return out, nil
}

func propString(props map[string]any, k string) string {
	v, ok := props[k]
	if !ok || v == nil {
		return ""
	}
	return idString(v)
}

func idString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return ""
	}
}

// propInt：缺省为 0；字符串必须是整数，否则渡轮或边界弧段会被悄悄当作普通弧段
func propInt(props map[string]any, k string) (int, error) {
	switch x := props[k].(type) {
	case float64:
		return int(x), nil
	case int:
		return x, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("property %s=%q is not an integer", k, x)
		}
		return n, nil
	default:
		return 0, nil
	}
}

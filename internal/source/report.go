package source

import (
	"encoding/json"
	"os"

	geojson "github.com/paulmach/go.geojson"

	"roadnet/internal/geometry"
	"roadnet/internal/meshblock"
	"roadnet/internal/pipeline"
	"roadnet/internal/validate"
)

// Report：离线模式的运行报告
type Report struct {
	Dataset   string                                `json:"dataset"`
	Clean     bool                                  `json:"clean"`
	Rules     []RuleReport                          `json:"rules"`
	Exports   map[string]*geojson.FeatureCollection `json:"exports,omitempty"`
	Faces     *geojson.FeatureCollection            `json:"faces,omitempty"`
	Links     []meshblock.Link                      `json:"links,omitempty"`
	Changeset *ChangesetReport                      `json:"changeset,omitempty"`
}

type RuleReport struct {
	Code    int      `json:"code"`
	Name    string   `json:"name"`
	Invalid []string `json:"invalid"`
}

type ChangesetReport struct {
	Added       []string         `json:"added"`
	Removed     []string         `json:"removed"`
	Relinked    []meshblock.Link `json:"relinked"`
	ParentReset []string         `json:"parent_reset"`
}

// BuildReport：规则结果始终输出；面、左右面与变更只在校验通过时存在
func BuildReport(k geometry.Kernel, dataset string, out *pipeline.Outcome) *Report {
	r := &Report{Dataset: dataset, Clean: out.Clean()}
	res := out.Validation
	for _, row := range res.Summary() {
		r.Rules = append(r.Rules, RuleReport{
			Code:    int(row.Code),
			Name:    row.Name,
			Invalid: nonNil(res.Errors[row.Code].Sorted()),
		})
	}
	if len(res.Exports) > 0 {
		r.Exports = make(map[string]*geojson.FeatureCollection, len(res.Exports))
		for name, pairs := range res.Exports {
			r.Exports[name] = exportCollection(pairs)
		}
	}
	rec := out.Reconciliation
	if rec == nil {
		return r
	}
	r.Faces = geojson.NewFeatureCollection()
	for _, f := range rec.Faces {
		feat := geojson.NewPolygonFeature(toFloats(k.Rings(f.Geom)))
		feat.ID = f.ID
		feat.SetProperty("parent", f.ParentID)
		r.Faces.AddFeature(feat)
	}
	r.Links = rec.Links
	cs := rec.Changeset
	added := make([]string, len(cs.Added))
	for i, f := range cs.Added {
		added[i] = f.ID
	}
	r.Changeset = &ChangesetReport{
		Added:       added,
		Removed:     nonNil(cs.Removed),
		Relinked:    cs.Relinked,
		ParentReset: nonNil(cs.ParentReset),
	}
	if r.Changeset.Relinked == nil {
		r.Changeset.Relinked = []meshblock.Link{}
	}
	return r
}

func exportCollection(pairs []validate.ClusterPair) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range pairs {
		feat := geojson.NewMultiPointFeature([]float64{p.A.X, p.A.Y}, []float64{p.B.X, p.B.Y})
		feat.SetProperty("segment_id", p.ArcID)
		fc.AddFeature(feat)
	}
	return fc
}

func toFloats(rings [][]geometry.Coord) [][][]float64 {
	out := make([][][]float64, len(rings))
	for i, r := range rings {
		out[i] = make([][]float64, len(r))
		for j, c := range r {
			out[i][j] = []float64{c.X, c.Y}
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// WriteReport：缩进 JSON 写入文件
func WriteReport(path string, r *Report) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

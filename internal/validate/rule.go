// 包 validate：道路弧段网络的拓扑规则；每条规则独立求值，结果为违规弧段标识集合
package validate

import (
	"sort"

	"roadnet/internal/geometry"
	"roadnet/internal/meshblock"
	"roadnet/internal/network"
)

// Code：规则编号；百位表示类别（1 构造、2 重复、3 连通、4 面）
type Code int

const (
	CodeZeroLength       Code = 101
	CodeSimple           Code = 102
	CodeClusterTolerance Code = 103
	CodeDuplicated       Code = 201
	CodeOverlap          Code = 202
	CodeNodeIntersection Code = 301
	CodeSegmentation     Code = 302
	CodeMeshblockCount   Code = 401
	CodeMeshblockBound   Code = 402
	CodeMeshblockDeadend Code = 403
)

// ExportClusterTolerance：簇容差规则导出的诊断点集名称
const ExportClusterTolerance = "reference_cluster_tolerance"

// DefaultMinVertexDist：相邻顶点最小间距
const DefaultMinVertexDist = 0.01

// IDSet：弧段标识集合
type IDSet map[string]struct{}

func (s IDSet) Add(id string) { s[id] = struct{}{} }

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted：升序标识列表
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ClusterPair：间距低于容差的一对相邻顶点
type ClusterPair struct {
	ArcID string
	A     geometry.Coord
	B     geometry.Coord
}

// Input：规则求值所需的只读数据
type Input struct {
	Kernel        geometry.Kernel
	Index         *network.Index
	Subdivision   *meshblock.Subdivision
	MinVertexDist float64
}

// Finding：单条规则的结果；Export 仅部分规则填写
type Finding struct {
	IDs        IDSet
	ExportName string
	Export     []ClusterPair
}

// Rule：规则能力接口
type Rule interface {
	Code() Code
	Name() string
	Evaluate(in *Input) (Finding, error)
}

type ruleFunc struct {
	code Code
	name string
	fn   func(in *Input) (Finding, error)
}

func (r ruleFunc) Code() Code                          { return r.code }
func (r ruleFunc) Name() string                        { return r.name }
func (r ruleFunc) Evaluate(in *Input) (Finding, error) { return r.fn(in) }

// DefaultRules：全部规则，按编号升序
func DefaultRules() []Rule {
	return []Rule{
		ruleFunc{CodeZeroLength, "construction_zero_length", zeroLength},
		ruleFunc{CodeSimple, "construction_simple", simple},
		ruleFunc{CodeClusterTolerance, "construction_cluster_tolerance", clusterTolerance},
		ruleFunc{CodeDuplicated, "duplication_duplicated", duplicated},
		ruleFunc{CodeOverlap, "duplication_overlap", overlap},
		ruleFunc{CodeNodeIntersection, "connectivity_node_intersection", nodeIntersection},
		ruleFunc{CodeSegmentation, "connectivity_segmentation", segmentation},
		ruleFunc{CodeMeshblockCount, "meshblock_count", meshblockCount},
		ruleFunc{CodeMeshblockBound, "meshblock_boundary", meshblockBoundary},
		ruleFunc{CodeMeshblockDeadend, "meshblock_deadend", meshblockDeadend},
	}
}

// flagWhere：对每条弧段应用判定函数
func flagWhere(x *network.Index, pred func(i int) bool) IDSet {
	ids := IDSet{}
	for i, a := range x.Arcs {
		if pred(i) {
			ids.Add(a.ID)
		}
	}
	return ids
}

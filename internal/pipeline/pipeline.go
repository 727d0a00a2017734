// 包 pipeline：单次批处理编排：弧段索引 → 拓扑规则 → 闸门 → 左右面判定 → 面标识对齐
package pipeline

import (
	"fmt"

	"roadnet/internal/geometry"
	"roadnet/internal/logger"
	"roadnet/internal/meshblock"
	"roadnet/internal/network"
	"roadnet/internal/validate"
)

// Options：运行参数，零值使用各组件默认值
type Options struct {
	MinVertexDist       float64
	ParityMaxIterations int
	Minter              meshblock.Minter
}

type Pipeline struct {
	kernel     geometry.Kernel
	validator  *validate.Validator
	resolver   *meshblock.Resolver
	reconciler *meshblock.Reconciler
}

func New(k geometry.Kernel, opts Options) *Pipeline {
	return &Pipeline{
		kernel:     k,
		validator:  validate.NewValidator(k, opts.MinVertexDist),
		resolver:   meshblock.NewResolver(k, opts.ParityMaxIterations),
		reconciler: meshblock.NewReconciler(k, opts.Minter),
	}
}

// Outcome：一次运行的结果；Reconciliation 仅在校验全部通过时非空
type Outcome struct {
	Validation     *validate.Result
	Index          *network.Index
	Subdivision    *meshblock.Subdivision
	Sides          []meshblock.Sides
	Reconciliation *meshblock.Reconciliation
}

func (o *Outcome) Clean() bool { return o.Validation != nil && o.Validation.Clean() }

// Run：执行完整流程
// 背景：拓扑有误的网络重建的面没有意义，面对齐以校验完全通过为前提
// 约束：任何错误都中止整次运行，不返回部分结果；本函数不落库
func (p *Pipeline) Run(arcs []network.Arc, previous []meshblock.Face) (*Outcome, error) {
	l := logger.L()

	done := logger.Stage("arc_index")
	idx, err := network.BuildIndex(p.kernel, arcs)
	done()
	if err != nil {
		return nil, err
	}

	done = logger.Stage("subdivision")
	sub, err := meshblock.BuildSubdivision(p.kernel, idx)
	done()
	if err != nil {
		return nil, fmt.Errorf("build subdivision: %w", err)
	}

	done = logger.Stage("validate")
	res, err := p.validator.Run(idx, sub)
	done()
	if err != nil {
		return nil, err
	}
	out := &Outcome{Validation: res, Index: idx, Subdivision: sub}
	for _, row := range res.Summary() {
		l.Info("validation_summary", "code", int(row.Code), "name", row.Name, "invalid", row.Invalid)
	}
	if !res.Clean() {
		l.Warn("reconcile_skipped", "reason", "validation_failed")
		return out, nil
	}

	done = logger.Stage("parity")
	sides, err := p.resolver.ResolveAll(idx, sub)
	done()
	if err != nil {
		return nil, err
	}
	out.Sides = sides

	done = logger.Stage("reconcile")
	rec, err := p.reconciler.Reconcile(idx, sub, sides, previous)
	done()
	if err != nil {
		return nil, err
	}
	out.Reconciliation = rec
	return out, nil
}

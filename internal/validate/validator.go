package validate

import (
	"errors"
	"fmt"
	"sort"

	"roadnet/internal/geometry"
	"roadnet/internal/logger"
	"roadnet/internal/meshblock"
	"roadnet/internal/network"
)

// ErrRuleFailed：规则求值过程中的意外失败，整次校验中止
var ErrRuleFailed = errors.New("rule evaluation failed")

// RuleError：携带失败规则编号与名称
type RuleError struct {
	Code Code
	Name string
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %d (%s): %v", e.Code, e.Name, e.Err)
}

func (e *RuleError) Unwrap() []error { return []error{ErrRuleFailed, e.Err} }

// Result：规则编号到违规弧段集合的映射，以及具名诊断导出
type Result struct {
	Errors  map[Code]IDSet
	Names   map[Code]string
	Exports map[string][]ClusterPair
}

// Codes：已求值的规则编号（升序）
func (r *Result) Codes() []Code {
	out := make([]Code, 0, len(r.Errors))
	for c := range r.Errors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clean：所有规则均无违规
func (r *Result) Clean() bool {
	for _, ids := range r.Errors {
		if len(ids) > 0 {
			return false
		}
	}
	return true
}

// SummaryRow：汇总表的一行
type SummaryRow struct {
	Code    Code
	Name    string
	Invalid int
}

func (r *Result) Summary() []SummaryRow {
	codes := r.Codes()
	out := make([]SummaryRow, len(codes))
	for i, c := range codes {
		out[i] = SummaryRow{Code: c, Name: r.Names[c], Invalid: len(r.Errors[c])}
	}
	return out
}

// Validator：按编号升序依次执行规则
type Validator struct {
	kernel        geometry.Kernel
	rules         []Rule
	minVertexDist float64
}

// NewValidator：rules 为空时使用 DefaultRules；minVertexDist 非正时使用默认容差
func NewValidator(k geometry.Kernel, minVertexDist float64, rules ...Rule) *Validator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	sorted := append([]Rule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Code() < sorted[j].Code() })
	if minVertexDist <= 0 {
		minVertexDist = DefaultMinVertexDist
	}
	return &Validator{kernel: k, rules: sorted, minVertexDist: minVertexDist}
}

// Run：执行全部规则；任一规则失败即返回错误，不返回部分结果
// 约束：规则之间互不短路，违规不会中止后续规则
func (v *Validator) Run(idx *network.Index, sub *meshblock.Subdivision) (*Result, error) {
	in := &Input{Kernel: v.kernel, Index: idx, Subdivision: sub, MinVertexDist: v.minVertexDist}
	res := &Result{
		Errors:  make(map[Code]IDSet, len(v.rules)),
		Names:   make(map[Code]string, len(v.rules)),
		Exports: make(map[string][]ClusterPair),
	}
	l := logger.L()
	for _, r := range v.rules {
		l.Info("rule_apply", "code", int(r.Code()), "name", r.Name())
		f, err := evaluate(r, in)
		if err != nil {
			l.Error("rule_error", "code", int(r.Code()), "name", r.Name(), "err", err)
			return nil, &RuleError{Code: r.Code(), Name: r.Name(), Err: err}
		}
		if f.IDs == nil {
			f.IDs = IDSet{}
		}
		res.Errors[r.Code()] = f.IDs
		res.Names[r.Code()] = r.Name()
		if len(f.Export) > 0 {
			res.Exports[f.ExportName] = f.Export
		}
		l.Debug("rule_done", "code", int(r.Code()), "invalid", len(f.IDs))
	}
	return res, nil
}

// evaluate：内核以 panic 报告的失败转为错误
func evaluate(r Rule, in *Input) (f Finding, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("kernel failure: %v", p)
		}
	}()
	return r.Evaluate(in)
}

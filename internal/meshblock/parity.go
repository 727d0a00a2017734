package meshblock

import (
	"errors"
	"fmt"
	"math"

	"roadnet/internal/geometry"
	"roadnet/internal/network"
)

// NoFace：左或右侧没有面（网络外侧）
const NoFace = -1

// DefaultMaxIterations：探测旋转角从 1° 起逐次减半，48 次后已小于 1e-14 弧度
const DefaultMaxIterations = 48

var ErrParityNotConverged = errors.New("parity resolution did not converge")

// ParityError：某条弧段的左右面探测超过迭代上限
type ParityError struct {
	ArcID      string
	Iterations int
}

func (e *ParityError) Error() string {
	return fmt.Sprintf("arc %q: parity resolution did not converge after %d probes", e.ArcID, e.Iterations)
}

func (e *ParityError) Unwrap() error { return ErrParityNotConverged }

// Sides：弧段行进方向左右两侧的面下标
type Sides struct {
	Left  int
	Right int
}

// Resolver：左右面判定
type Resolver struct {
	kernel        geometry.Kernel
	maxIterations int
}

func NewResolver(k geometry.Kernel, maxIterations int) *Resolver {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Resolver{kernel: k, maxIterations: maxIterations}
}

// Resolve：对 1 或 2 个候选面判定左右
// 背景：面可能绕回并同时接触弧段两侧，叉积符号无法区分，改为围绕首段做角度递减的探测
// 约束：从 p0 出发、长度为首段一半的探测线，每轮旋转角减半并反号；恰好一个候选覆盖探测线时停止。
// 该轮旋转角为正（逆时针）时覆盖者为左面，否则为右面；另一侧取另一个候选，只有一个候选时取 NoFace
func (r *Resolver) Resolve(arcID string, coords []geometry.Coord, candidates []int, faces []geometry.Geometry) (Sides, error) {
	if len(candidates) == 0 || len(candidates) > 2 {
		return Sides{NoFace, NoFace}, fmt.Errorf("arc %q: want 1 or 2 candidate faces, got %d", arcID, len(candidates))
	}
	if len(coords) < 2 {
		return Sides{NoFace, NoFace}, fmt.Errorf("arc %q: need 2 vertices for parity probe", arcID)
	}
	cand := [2]int{candidates[0], NoFace}
	if len(candidates) == 2 {
		cand[1] = candidates[1]
	}

	p0, p1 := coords[0], coords[1]
	dir := p1.Sub(p0)
	theta := math.Atan2(dir.Y, dir.X)
	if theta < 0 {
		theta += 2 * math.Pi
	}
	d := dir.Length() / 2
	rot := math.Pi / 180

	for it := 0; it < r.maxIterations; it++ {
		a := theta + rot
		tip := p0.Add(geometry.Coord{X: math.Cos(a), Y: math.Sin(a)}.Mul(d))
		probe, err := r.kernel.NewLineString([]geometry.Coord{p0, tip})
		if err != nil {
			return Sides{NoFace, NoFace}, fmt.Errorf("arc %q: probe: %w", arcID, err)
		}
		var cov [2]bool
		for s, f := range cand {
			if f != NoFace {
				cov[s] = r.kernel.Covers(faces[f], probe)
			}
		}
		if cov[0] != cov[1] {
			hit, miss := cand[0], cand[1]
			if cov[1] {
				hit, miss = cand[1], cand[0]
			}
			if rot > 0 {
				return Sides{Left: hit, Right: miss}, nil
			}
			return Sides{Left: miss, Right: hit}, nil
		}
		rot = -rot / 2
	}
	return Sides{NoFace, NoFace}, &ParityError{ArcID: arcID, Iterations: r.maxIterations}
}

// ResolveAll：为索引中每条弧段判定左右面
// 只被一个面覆盖时左右同为该面（含位于面内部的断头弧段）；未被覆盖时两侧均为 NoFace
func (r *Resolver) ResolveAll(idx *network.Index, sub *Subdivision) (sides []Sides, err error) {
	defer recoverKernel("parity", &err)
	sides = make([]Sides, idx.Len())
	for i, arc := range idx.Arcs {
		cands := sub.CoveredBy[i]
		switch len(cands) {
		case 0:
			sides[i] = Sides{NoFace, NoFace}
		case 1:
			sides[i] = Sides{cands[0], cands[0]}
		default:
			s, err := r.Resolve(arc.ID, arc.Coords, cands, sub.Faces)
			if err != nil {
				return nil, err
			}
			sides[i] = s
		}
	}
	return sides, nil
}

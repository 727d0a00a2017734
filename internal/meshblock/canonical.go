// 包 meshblock：由弧段网络构建面（meshblock），判定弧段左右面，并与上次持久化的面对齐标识
package meshblock

import (
	"sort"
	"strconv"
	"strings"

	"roadnet/internal/geometry"
)

// Key：面几何的规范字符串，用作“几何完全相等”的查找键
// 背景：多边形化的起点与环方向不稳定，同一几何在不同运行中坐标序列可能不同
// 约束：每个环去掉闭合点，从字典序最小的顶点起读，正反两个方向取较小者；多个环排序后拼接
func Key(k geometry.Kernel, g geometry.Geometry) string {
	rings := k.Rings(g)
	parts := make([]string, 0, len(rings))
	for _, r := range rings {
		parts = append(parts, ringKey(r))
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

func ringKey(r []geometry.Coord) string {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		r = r[:len(r)-1]
	}
	n := len(r)
	if n == 0 {
		return ""
	}
	r = unsignZero(r)
	m := 0
	for i := range r {
		if geometry.Less(r[i], r[m]) {
			m = i
		}
	}
	fwd := make([]geometry.Coord, n)
	bwd := make([]geometry.Coord, n)
	for i := 0; i < n; i++ {
		fwd[i] = r[(m+i)%n]
		bwd[i] = r[(m-i+n)%n]
	}
	seq := fwd
	for i := 0; i < n; i++ {
		if fwd[i] != bwd[i] {
			if geometry.Less(bwd[i], fwd[i]) {
				seq = bwd
			}
			break
		}
	}
	var b strings.Builder
	for i, c := range seq {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(c.X, 'g', -1, 64))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(c.Y, 'g', -1, 64))
	}
	return b.String()
}

// unsignZero：-0 与 0 坐标相等，但 FormatFloat 写法不同，这里统一为 0
func unsignZero(r []geometry.Coord) []geometry.Coord {
	out := make([]geometry.Coord, len(r))
	for i, c := range r {
		if c.X == 0 {
			c.X = 0
		}
		if c.Y == 0 {
			c.Y = 0
		}
		out[i] = c
	}
	return out
}

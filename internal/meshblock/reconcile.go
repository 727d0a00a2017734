package meshblock

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"roadnet/internal/geometry"
	"roadnet/internal/logger"
	"roadnet/internal/network"
)

// NoParent：面不属于任何上级分组
const NoParent = ""

// ErrAmbiguousFace：上次持久化的面中有两个几何完全相同，标识复用无法确定
var ErrAmbiguousFace = errors.New("ambiguous previous face geometry")

// Face：面记录
type Face struct {
	ID       string
	ParentID string
	Geom     geometry.Geometry
}

// Link：弧段左右面标识，空串表示该侧无面
type Link struct {
	ArcID string `json:"arc_id"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Changeset：需由调用方在单个事务内落库的变更
type Changeset struct {
	Added       []Face
	Removed     []string
	Relinked    []Link
	ParentReset []string
}

func (c *Changeset) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Relinked) == 0 && len(c.ParentReset) == 0
}

// Reconciliation：对齐结果，Faces 为完整的新面集合，Links 与索引中的弧段一一对应
type Reconciliation struct {
	Faces     []Face
	Links     []Link
	Changeset Changeset
}

// Minter：为未匹配的新面生成全局唯一标识
type Minter interface {
	Mint() string
}

// UUIDMinter：随机 UUID
type UUIDMinter struct{}

func (UUIDMinter) Mint() string { return uuid.NewString() }

// Reconciler：按几何完全相等把新面映射到上次的面
type Reconciler struct {
	kernel geometry.Kernel
	minter Minter
}

func NewReconciler(k geometry.Kernel, m Minter) *Reconciler {
	if m == nil {
		m = UUIDMinter{}
	}
	return &Reconciler{kernel: k, minter: m}
}

// Reconcile：复用匹配面的标识与上级分组，未匹配面生成新标识；再按分组溶解几何校验上级分组，
// 最后计算新增/删除的面和左右面发生变化的弧段
// 约束：只计算不落库；查找表只在本次调用内有效
func (r *Reconciler) Reconcile(idx *network.Index, sub *Subdivision, sides []Sides, previous []Face) (rec *Reconciliation, err error) {
	defer recoverKernel("reconcile", &err)
	if len(sides) != idx.Len() {
		return nil, fmt.Errorf("reconcile: %d sides for %d arcs", len(sides), idx.Len())
	}

	byKey := make(map[string]int, len(previous))
	for i, f := range previous {
		key := Key(r.kernel, f.Geom)
		if j, dup := byKey[key]; dup {
			return nil, fmt.Errorf("%w: faces %q and %q", ErrAmbiguousFace, previous[j].ID, f.ID)
		}
		byKey[key] = i
	}

	faces := make([]Face, sub.Len())
	matched := 0
	for i, g := range sub.Faces {
		if j, ok := byKey[sub.Keys[i]]; ok {
			faces[i] = Face{ID: previous[j].ID, ParentID: previous[j].ParentID, Geom: g}
			matched++
			continue
		}
		faces[i] = Face{ID: r.minter.Mint(), ParentID: NoParent, Geom: g}
	}

	reset, err := r.checkParents(faces, previous)
	if err != nil {
		return nil, err
	}

	rec = &Reconciliation{Faces: faces, Links: make([]Link, idx.Len())}
	cs := &rec.Changeset
	cs.ParentReset = reset

	prevIDs := make(map[string]struct{}, len(previous))
	for _, f := range previous {
		prevIDs[f.ID] = struct{}{}
	}
	newIDs := make(map[string]struct{}, len(faces))
	for _, f := range faces {
		newIDs[f.ID] = struct{}{}
		if _, ok := prevIDs[f.ID]; !ok {
			cs.Added = append(cs.Added, f)
		}
	}
	for id := range prevIDs {
		if _, ok := newIDs[id]; !ok {
			cs.Removed = append(cs.Removed, id)
		}
	}
	sort.Strings(cs.Removed)

	faceID := func(f int) string {
		if f == NoFace {
			return ""
		}
		return faces[f].ID
	}
	for i, arc := range idx.Arcs {
		l := Link{ArcID: arc.ID, Left: faceID(sides[i].Left), Right: faceID(sides[i].Right)}
		rec.Links[i] = l
		if l.Left != arc.Left || l.Right != arc.Right {
			cs.Relinked = append(cs.Relinked, l)
		}
	}

	logger.L().Info("reconcile_done",
		"faces", len(faces), "matched", matched, "added", len(cs.Added), "removed", len(cs.Removed),
		"relinked", len(cs.Relinked), "parent_reset", len(cs.ParentReset))
	return rec, nil
}

// checkParents：新面按上级分组溶解，与上次同一分组的溶解几何比对；不一致时整组重置为 NoParent
// 返回被重置的面标识（升序）
func (r *Reconciler) checkParents(faces []Face, previous []Face) ([]string, error) {
	groups := make(map[string][]int)
	for i, f := range faces {
		if f.ParentID != NoParent {
			groups[f.ParentID] = append(groups[f.ParentID], i)
		}
	}
	if len(groups) == 0 {
		return nil, nil
	}
	prevGroups := make(map[string][]geometry.Geometry)
	for _, f := range previous {
		if _, ok := groups[f.ParentID]; ok {
			prevGroups[f.ParentID] = append(prevGroups[f.ParentID], f.Geom)
		}
	}

	parents := make([]string, 0, len(groups))
	for p := range groups {
		parents = append(parents, p)
	}
	sort.Strings(parents)

	var reset []string
	for _, p := range parents {
		members := groups[p]
		geoms := make([]geometry.Geometry, len(members))
		for i, m := range members {
			geoms[i] = faces[m].Geom
		}
		same := false
		if prev, ok := prevGroups[p]; ok {
			cur, err := r.dissolve(geoms)
			if err != nil {
				return nil, fmt.Errorf("parent %q: %w", p, err)
			}
			old, err := r.dissolve(prev)
			if err != nil {
				return nil, fmt.Errorf("parent %q: %w", p, err)
			}
			same = cur == old
		}
		if same {
			continue
		}
		logger.L().Debug("parent_reset", "parent", p, "faces", len(members))
		for _, m := range members {
			faces[m].ParentID = NoParent
			reset = append(reset, faces[m].ID)
		}
	}
	sort.Strings(reset)
	return reset, nil
}

func (r *Reconciler) dissolve(gs []geometry.Geometry) (string, error) {
	u, err := r.kernel.Union(gs)
	if err != nil {
		return "", err
	}
	return Key(r.kernel, u), nil
}

// 包 store：PostGIS 数据访问层，读取弧段与上次的面，落库校验标记、诊断导出与面变更
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"roadnet/internal/config"
	"roadnet/internal/geometry"
	"roadnet/internal/logger"
	"roadnet/internal/meshblock"
	"roadnet/internal/network"
	"roadnet/internal/validate"
)

// Codec：WKB 与内核几何之间的转换
type Codec interface {
	LineCoords(wkb []byte) ([]geometry.Coord, error)
	PolygonFromWKB(wkb []byte) (geometry.Geometry, error)
	ToWKB(g geometry.Geometry) []byte
}

// Store：持有连接、数据集描述与几何编解码器
type Store struct {
	db    *sql.DB
	cfg   *config.Config
	codec Codec
}

func AttachDB(db *sql.DB, cfg *config.Config, codec Codec) *Store {
	return &Store{db: db, cfg: cfg, codec: codec}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func qi(name string) string { return pq.QuoteIdentifier(name) }

func (s *Store) table(name string) string { return qi(s.cfg.Schema) + "." + qi(name) }

// LoadArcs：读取全部弧段（含轮渡等排除类），按分类编码标注
// 约束：几何强制为二维；单部件 MultiLineString 视为折线
func (s *Store) LoadArcs(ctx context.Context) ([]network.Arc, error) {
	seg := s.cfg.Segment
	q := fmt.Sprintf(`SELECT %s::text, ST_AsBinary(ST_Force2D(%s)), COALESCE(%s, 0), COALESCE(%s::text, ''), COALESCE(%s::text, '') FROM %s ORDER BY 1`,
		qi(seg.IDCol), qi(s.cfg.GeomCol), qi(seg.TypeCol), qi(seg.LeftCol), qi(seg.RightCol), s.table(seg.Table))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load arcs: %w", err)
	}
	defer rows.Close()
	var arcs []network.Arc
	for rows.Next() {
		var (
			a    network.Arc
			wkb  []byte
			code int
		)
		if err := rows.Scan(&a.ID, &wkb, &code, &a.Left, &a.Right); err != nil {
			return nil, fmt.Errorf("load arcs: %w", err)
		}
		a.Coords, err = s.codec.LineCoords(wkb)
		if err != nil {
			return nil, fmt.Errorf("arc %q: %w: %v", a.ID, network.ErrMalformedArc, err)
		}
		a.Class = s.cfg.Classify(code)
		arcs = append(arcs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load arcs: %w", err)
	}
	logger.L().Info("arcs_loaded", "table", s.cfg.Dataset(), "count", len(arcs))
	return arcs, nil
}

// LoadFaces：读取上次持久化的面；表为空时返回空切片
func (s *Store) LoadFaces(ctx context.Context) ([]meshblock.Face, error) {
	mb := s.cfg.Meshblock
	q := fmt.Sprintf(`SELECT %s::text, COALESCE(%s::text, ''), ST_AsBinary(ST_Force2D(%s)) FROM %s ORDER BY 1`,
		qi(mb.IDCol), qi(mb.ParentCol), qi(s.cfg.GeomCol), s.table(mb.Table))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load faces: %w", err)
	}
	defer rows.Close()
	var faces []meshblock.Face
	for rows.Next() {
		var (
			f   meshblock.Face
			wkb []byte
		)
		if err := rows.Scan(&f.ID, &f.ParentID, &wkb); err != nil {
			return nil, fmt.Errorf("load faces: %w", err)
		}
		f.Geom, err = s.codec.PolygonFromWKB(wkb)
		if err != nil {
			return nil, fmt.Errorf("face %q: %w", f.ID, err)
		}
		faces = append(faces, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load faces: %w", err)
	}
	logger.L().Info("faces_loaded", "table", s.cfg.Schema+"."+mb.Table, "count", len(faces))
	return faces, nil
}

// FlagColumn：规则编号对应的标记列名
func FlagColumn(c validate.Code) string { return fmt.Sprintf("v%d", int(c)) }

// Persist：一次运行的全部写入（标记列、诊断表、面变更）在同一事务内提交
// 背景：分开提交时，中途失败会留下新标记与旧面并存的状态
// 约束：cs 为 nil 表示校验未通过，面与弧段左右面保持不变
func (s *Store) Persist(ctx context.Context, res *validate.Result, pairs []validate.ClusterPair, cs *meshblock.Changeset) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.writeFlags(ctx, tx, res); err != nil {
			return err
		}
		if err := s.writeClusterExport(ctx, tx, pairs); err != nil {
			return err
		}
		if cs == nil {
			return nil
		}
		return s.applyChangeset(ctx, tx, cs)
	})
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// writeFlags：每条规则先删除 v<code> 列；有违规时重建为 INTEGER DEFAULT 0 并把违规弧段置 1
func (s *Store) writeFlags(ctx context.Context, tx *sql.Tx, res *validate.Result) error {
	seg := s.cfg.Segment
	t := s.table(seg.Table)
	for _, c := range res.Codes() {
		col := qi(FlagColumn(c))
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s DROP COLUMN IF EXISTS %s`, t, col)); err != nil {
			return fmt.Errorf("drop flag %d: %w", c, err)
		}
		ids := res.Errors[c].Sorted()
		if len(ids) == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s INTEGER DEFAULT 0`, t, col)); err != nil {
			return fmt.Errorf("add flag %d: %w", c, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET %s = 1 WHERE %s::text = ANY($1)`, t, col, qi(seg.IDCol)), pq.Array(ids)); err != nil {
			return fmt.Errorf("set flag %d: %w", c, err)
		}
		logger.L().Debug("flags_written", "code", int(c), "arcs", len(ids))
	}
	return nil
}

// writeClusterExport：重建诊断表，每个过近顶点对写一行 MultiPoint
func (s *Store) writeClusterExport(ctx context.Context, tx *sql.Tx, pairs []validate.ClusterPair) error {
	t := s.table(s.cfg.Export.ClusterTable)
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, t)); err != nil {
		return fmt.Errorf("drop export: %w", err)
	}
	create := fmt.Sprintf(`CREATE TABLE %s (segment_id TEXT NOT NULL, geom geometry(MultiPoint, %d) NOT NULL)`, t, s.cfg.SRID)
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	if len(pairs) > 0 {
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s(segment_id, geom) VALUES($1, ST_SetSRID(ST_Collect(ST_MakePoint($2, $3), ST_MakePoint($4, $5)), $6))`, t))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range pairs {
			if _, err := stmt.ExecContext(ctx, p.ArcID, p.A.X, p.A.Y, p.B.X, p.B.Y, s.cfg.SRID); err != nil {
				return fmt.Errorf("export pair of %q: %w", p.ArcID, err)
			}
		}
	}
	logger.L().Info("cluster_export_written", "table", s.cfg.Export.ClusterTable, "rows", len(pairs))
	return nil
}

// applyChangeset：删除消失的面、写入新增面、清空被重置的上级分组、更新弧段左右面
// 约束：空串写为 NULL
func (s *Store) applyChangeset(ctx context.Context, tx *sql.Tx, cs *meshblock.Changeset) error {
	if cs.Empty() {
		logger.L().Info("changeset_empty")
		return nil
	}
	mb := s.cfg.Meshblock
	seg := s.cfg.Segment
	faces := s.table(mb.Table)

	if len(cs.Removed) > 0 {
		q := fmt.Sprintf(`DELETE FROM %s WHERE %s::text = ANY($1)`, faces, qi(mb.IDCol))
		if _, err := tx.ExecContext(ctx, q, pq.Array(cs.Removed)); err != nil {
			return fmt.Errorf("remove faces: %w", err)
		}
	}
	if len(cs.Added) > 0 {
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s(%s, %s, %s) VALUES($1, NULLIF($2, ''), ST_SetSRID(ST_GeomFromWKB($3), $4))`,
			faces, qi(mb.IDCol), qi(mb.ParentCol), qi(s.cfg.GeomCol)))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, f := range cs.Added {
			if _, err := stmt.ExecContext(ctx, f.ID, f.ParentID, s.codec.ToWKB(f.Geom), s.cfg.SRID); err != nil {
				return fmt.Errorf("add face %q: %w", f.ID, err)
			}
		}
	}
	if len(cs.ParentReset) > 0 {
		q := fmt.Sprintf(`UPDATE %s SET %s = NULL WHERE %s::text = ANY($1)`, faces, qi(mb.ParentCol), qi(mb.IDCol))
		if _, err := tx.ExecContext(ctx, q, pq.Array(cs.ParentReset)); err != nil {
			return fmt.Errorf("reset parents: %w", err)
		}
	}
	if len(cs.Relinked) > 0 {
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`UPDATE %s SET %s = NULLIF($1, ''), %s = NULLIF($2, '') WHERE %s::text = $3`,
			s.table(seg.Table), qi(seg.LeftCol), qi(seg.RightCol), qi(seg.IDCol)))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, l := range cs.Relinked {
			if _, err := stmt.ExecContext(ctx, l.Left, l.Right, l.ArcID); err != nil {
				return fmt.Errorf("relink arc %q: %w", l.ArcID, err)
			}
		}
	}
	logger.L().Info("changeset_applied",
		"added", len(cs.Added), "removed", len(cs.Removed), "parent_reset", len(cs.ParentReset), "relinked", len(cs.Relinked))
	return nil
}

package migrate

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"roadnet/internal/config"
	"roadnet/internal/logger"
)

// 背景：首次运行自动创建面表与弧段左右面字段，保障后续对齐结果落库
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
func EnsureSchema(db *sql.DB, cfg *config.Config) error {
	qi := pq.QuoteIdentifier
	mb := cfg.Meshblock
	seg := cfg.Segment
	faces := qi(cfg.Schema) + "." + qi(mb.Table)
	arcs := qi(cfg.Schema) + "." + qi(seg.Table)
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, qi(cfg.Schema)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            %s TEXT PRIMARY KEY,
            %s TEXT,
            %s geometry(Polygon, %d) NOT NULL
        )`, faces, qi(mb.IDCol), qi(mb.ParentCol), qi(cfg.GeomCol), cfg.SRID),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIST (%s)`,
			qi(mb.Table+"_"+cfg.GeomCol+"_gist"), faces, qi(cfg.GeomCol)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s)`,
			qi(mb.Table+"_"+mb.ParentCol+"_idx"), faces, qi(mb.ParentCol)),
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s TEXT`, arcs, qi(seg.LeftCol)),
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s TEXT`, arcs, qi(seg.RightCol)),
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("schema step %d: %w", i, err)
		}
	}
	logger.L().Debug("schema_done")
	return nil
}

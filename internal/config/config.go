// 包 config：数据集描述（表名、字段、分类编码、阈值），来自 YAML 文件与环境变量
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"roadnet/internal/network"
)

// Config：一次校验运行针对的数据集
type Config struct {
	Schema    string          `yaml:"schema" validate:"required,ident"`
	GeomCol   string          `yaml:"geom_col" validate:"required,ident"`
	SRID      int             `yaml:"srid" validate:"gte=0"`
	Segment   SegmentConfig   `yaml:"segment"`
	Meshblock MeshblockConfig `yaml:"meshblock"`
	Topology  TopologyConfig  `yaml:"topology"`
	Export    ExportConfig    `yaml:"export"`
}

// SegmentConfig：弧段表
type SegmentConfig struct {
	Table         string `yaml:"table" validate:"required,ident"`
	IDCol         string `yaml:"id_col" validate:"required,ident"`
	TypeCol       string `yaml:"type_col" validate:"required,ident"`
	LeftCol       string `yaml:"left_col" validate:"required,ident"`
	RightCol      string `yaml:"right_col" validate:"required,ident"`
	ExcludedTypes []int  `yaml:"excluded_types"`
	BoundaryTypes []int  `yaml:"boundary_types"`
}

// MeshblockConfig：面表
type MeshblockConfig struct {
	Table     string `yaml:"table" validate:"required,ident"`
	IDCol     string `yaml:"id_col" validate:"required,ident"`
	ParentCol string `yaml:"parent_col" validate:"required,ident"`
}

type TopologyConfig struct {
	MinVertexDist       float64 `yaml:"min_vertex_dist" validate:"gt=0"`
	ParityMaxIterations int     `yaml:"parity_max_iterations" validate:"gt=0,lte=1000"`
}

type ExportConfig struct {
	ClusterTable string `yaml:"cluster_table" validate:"required,ident"`
}

// Default：与原有道路网数据模型一致的缺省值（轮渡 2 排除，边界 3）
func Default() *Config {
	return &Config{
		Schema:  "public",
		GeomCol: "geom",
		SRID:    3347,
		Segment: SegmentConfig{
			Table:         "segment",
			IDCol:         "segment_id",
			TypeCol:       "segment_type",
			LeftCol:       "bb_uid_l",
			RightCol:      "bb_uid_r",
			ExcludedTypes: []int{2},
			BoundaryTypes: []int{3},
		},
		Meshblock: MeshblockConfig{
			Table:     "basic_block",
			IDCol:     "bb_uid",
			ParentCol: "parent_uid",
		},
		Topology: TopologyConfig{
			MinVertexDist:       0.01,
			ParityMaxIterations: 48,
		},
		Export: ExportConfig{ClusterTable: "reference_cluster_tolerance"},
	}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	// 表名与字段名会拼入 SQL，限制为普通标识符
	_ = configValidate.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
		return identRe.MatchString(fl.Field().String())
	})
}

// Load：先取缺省值，再叠加 YAML（path 为空时跳过）与环境变量，最后做字段校验
// 约束：SEGMENT_SCHEMA、SEGMENT_GEOM_COL 覆盖文件中的值
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if v := os.Getenv("SEGMENT_SCHEMA"); v != "" {
		cfg.Schema = v
	}
	if v := os.Getenv("SEGMENT_GEOM_COL"); v != "" {
		cfg.GeomCol = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Classify：弧段类型编码映射为分类
func (c *Config) Classify(typeCode int) network.Classification {
	for _, t := range c.Segment.ExcludedTypes {
		if t == typeCode {
			return network.Excluded
		}
	}
	for _, t := range c.Segment.BoundaryTypes {
		if t == typeCode {
			return network.Boundary
		}
	}
	return network.Normal
}

// Dataset：锁与汇总使用的数据集名称 schema.table
func (c *Config) Dataset() string { return c.Schema + "." + c.Segment.Table }

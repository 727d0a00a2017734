// 程序入口：道路弧段拓扑校验与面标识维护；子命令 validate、schema
package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"roadnet/internal/config"
	"roadnet/internal/logger"
)

var (
	configPath string
	schemaFlag string
	geomFlag   string

	rootCmd = &cobra.Command{
		Use:           "segment-validate",
		Short:         "Validate road segment topology and maintain meshblock faces",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load(".env")
			_ = godotenv.Load(filepath.Join("data", "env", ".env"))
			logger.Setup().Debug("log_init_ok")
		},
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "dataset description (YAML); defaults apply when empty")
	pf.StringVar(&schemaFlag, "schema", "", "schema holding the segment and meshblock tables (overrides SEGMENT_SCHEMA)")
	pf.StringVar(&geomFlag, "geom-col", "", "geometry column name (overrides SEGMENT_GEOM_COL)")
	rootCmd.AddCommand(validateCmd, schemaCmd)
}

// loadConfig：文件与环境变量之上再叠加命令行参数
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if schemaFlag != "" {
		cfg.Schema = schemaFlag
	}
	if geomFlag != "" {
		cfg.GeomCol = geomFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.L().Debug("config_loaded", "dataset", cfg.Dataset(), "geom_col", cfg.GeomCol, "srid", cfg.SRID)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.L().Error("command_failed", "err", err)
		os.Exit(1)
	}
}

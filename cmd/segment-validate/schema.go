package main

import (
	"github.com/spf13/cobra"

	"roadnet/internal/logger"
	"roadnet/internal/migrate"
	"roadnet/internal/utils"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the meshblock table and the segment link columns if missing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := migrate.EnsureSchema(db, cfg); err != nil {
			return err
		}
		logger.L().Info("schema_ok", "dataset", cfg.Dataset(), "meshblock", cfg.Meshblock.Table)
		return nil
	},
}

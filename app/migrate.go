package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tenantgate/tenantgate/internal/daemon"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logCloser, err := loadConfig()
		if err != nil {
			return err
		}

		defer func() { _ = logCloser.Close() }()

		_, db, err := daemon.OpenStore(cmd.Context(), &cfg)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if sqlDB, dbErr := db.DB(); dbErr == nil {
			defer func() { _ = sqlDB.Close() }()
		}

		log.Info().Str("engine", cfg.DB.GormEngine).Msg("database migrated")

		return nil
	},
}

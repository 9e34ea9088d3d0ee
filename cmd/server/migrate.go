package main

import (
	"fmt"

	"github.com/anonto42/farmfeed/backend/internal/router"
	"github.com/anonto42/farmfeed/backend/pkg/config"
	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

func newMigrateCommand(migrate runFunc) *cobra.Command {
	flags := map[string]cobraflags.Flag{
		envFileFlag: &cobraflags.StringFlag{
			Name:  envFileFlag,
			Value: "",
			Usage: "Env file to load before reading the environment (defaults to .env)",
		},
	}
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrate(cmd, options{EnvFile: flags[envFileFlag].GetString()})
		},
	}
	registerFlags(migrateCmd, flags)
	return migrateCmd
}

func runMigrate(_ *cobra.Command, opts options) error {
	cfg, err := config.Load(envFiles(opts.EnvFile)...)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := config.InitDB(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}
	defer db.CloseDB()

	if err := router.Migrate(db.Postgres); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	logger.Info("schema migrated")
	return nil
}

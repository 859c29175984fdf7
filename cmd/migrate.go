package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/shop-backoffice/internal"
	"github.com/frahmantamala/shop-backoffice/internal/core/datamodel"
	"github.com/frahmantamala/shop-backoffice/internal/store"
	"github.com/frahmantamala/shop-backoffice/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run db migration files under db/migrations directory",
	}
	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "db/migrations", "sql migrations directory")
}

// gooseDriver maps the configured GORM driver to a database/sql driver name
// and goose dialect. The SQL files are written for postgres only.
func gooseDriver(driver string) (string, string, error) {
	switch driver {
	case "postgres":
		return "pgx", "postgres", nil
	}
	return "", "", fmt.Errorf("no sql migrations for database driver %q", driver)
}

// migrateModels brings a sqlite development database up to date from the
// GORM models instead of the postgres SQL files.
func migrateModels(cfg internal.DatabaseConfig) error {
	db, err := store.Open(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := db.AutoMigrate(datamodel.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	if cfg.Database.Driver == "sqlite" {
		if migrateRollback {
			return fmt.Errorf("rollback is not supported for sqlite")
		}
		if err := migrateModels(cfg.Database); err != nil {
			return err
		}
		lg.Info("models migrated", "driver", cfg.Database.Driver)
		return nil
	}

	sqlDriver, dialect, err := gooseDriver(cfg.Database.Driver)
	if err != nil {
		return err
	}

	db, err := goose.OpenDBWithDriver(sqlDriver, cfg.Database.Source)
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer db.Close()

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose: %w", err)
	}
	goose.SetTableName("schema_migrations")

	command := "up"
	if migrateRollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, db, migrateDir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("goose version: %w", err)
	}
	lg.Info("migrations applied", "command", command, "version", version, "dir", migrateDir)
	return nil
}

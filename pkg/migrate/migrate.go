package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pharmwatch/pharmwatch-backend/pkg/config"
	"github.com/pharmwatch/pharmwatch-backend/pkg/db"
	"github.com/pharmwatch/pharmwatch-backend/pkg/logger"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Run executes a goose command against the embedded migration set.
func Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, "migrations", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up migrates the database to the latest schema version. The ingester calls
// this before every batch so a fresh database file bootstraps itself.
func Up(ctx context.Context, db *sql.DB) error {
	return Run(ctx, db, "up")
}

// MaybeRun applies pending migrations when auto-migration is enabled in
// config. Binaries call this at startup so a fresh database file is usable
// without a separate migrate step.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.DB.AutoMigrate {
		return nil
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("getting sql db handle: %w", err)
	}
	if err := Up(ctx, sqlDB); err != nil {
		return err
	}
	if logg != nil {
		logg.Info(ctx, "migrations applied")
	}
	return nil
}

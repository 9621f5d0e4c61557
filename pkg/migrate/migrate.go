package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/kartlane/storefront-backend/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Up applies all pending migrations against the provided database handle.
func Up(ctx context.Context, sqlDB *sql.DB, logg *logger.Logger) error {
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "database migrations applied")
	}
	return nil
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, sqlDB *sql.DB) error {
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return goose.DownContext(ctx, sqlDB, "migrations")
}

// Status prints the migration ledger to stdout.
func Status(ctx context.Context, sqlDB *sql.DB) error {
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return goose.StatusContext(ctx, sqlDB, "migrations")
}

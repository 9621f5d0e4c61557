package migrate

import (
	"context"
	"database/sql"

	"github.com/kartlane/storefront-backend/pkg/config"
	"github.com/kartlane/storefront-backend/pkg/logger"
)

// MaybeRunDev applies migrations on boot for local development. Production
// deploys run the migrate binary explicitly.
func MaybeRunDev(ctx context.Context, cfg *config.Config, sqlDB *sql.DB, logg *logger.Logger) error {
	if !cfg.App.IsDev() || !cfg.Flags.AutoMigrate {
		return nil
	}
	if logg != nil {
		logg.Info(ctx, "auto-migrate enabled, applying pending migrations")
	}
	return Up(ctx, sqlDB, logg)
}

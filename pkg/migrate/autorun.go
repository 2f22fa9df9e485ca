package migrate

import (
	"context"
	"fmt"

	"github.com/mercantile/storefront/pkg/config"
	"github.com/mercantile/storefront/pkg/db"
	"github.com/mercantile/storefront/pkg/logger"
)

// MaybeRunDev prepares the schema in dev when AutoMigrate is on: goose for
// postgres, gorm AutoMigrate for the sqlite dev database.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": client.Driver()})

	if client.Driver() == db.DriverSQLite {
		logg.Info(ctx, "auto-migrating sqlite schema")
		return client.AutoMigrate(ctx)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running goose migrations (dev auto-run)")
	if err := Run(ctx, sqlDB, "", "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}

package migrate

import (
	"context"
	"fmt"

	"github.com/jarvis4everyone/subscription-backend/pkg/config"
	"github.com/jarvis4everyone/subscription-backend/pkg/db"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
)

// MaybeRunDev migrates to the newest embedded version at boot, but only in the
// dev environment with AUTO_MIGRATE on. Other environments run cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	versions, err := EmbeddedVersions()
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		return nil
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "target_version": versions[len(versions)-1]})
	logg.Info(ctx, "migrate.autorun_started")
	if err := Run(ctx, sqlDB, "up"); err != nil {
		return fmt.Errorf("auto-migrate up: %w", err)
	}
	logg.Info(ctx, "migrate.autorun_completed")
	return nil
}

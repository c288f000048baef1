package bootstrap

import (
	"GreenSnapAPI/internal/config"
	"GreenSnapAPI/internal/repository"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// OpenStore builds the report store selected by STORE_DRIVER. db is the shared
// Postgres pool and is only used by the postgres driver.
func OpenStore(ctx context.Context, cfg *config.AppConfig, db *sql.DB) (repository.ReportStore, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		store := repository.NewPostgresReportStore(db)
		if cfg.DBMigrate {
			if err := store.Migrate(ctx); err != nil {
				return nil, fmt.Errorf("failed to migrate report schema: %w", err)
			}
			slog.Info("Report schema migrated")
		}
		return store, nil

	case config.StoreDriverMongo:
		client, err := config.InitMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := repository.NewMongoReportStore(client, cfg.MongoDB)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("failed to create report indexes: %w", err)
		}
		return store, nil

	case config.StoreDriverMemory:
		slog.Warn("Using in-memory report store, data is lost on restart")
		return repository.NewMemoryReportStore(), nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

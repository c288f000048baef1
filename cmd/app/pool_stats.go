package main

import (
	"GreenSnapAPI/internal/bootstrap"
	"context"
	"database/sql"
	"time"
)

func recordPoolStats(ctx context.Context, app *bootstrap.App, db *sql.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			app.Metrics.RecordDBPoolStats(stats.OpenConnections, stats.InUse, stats.Idle, stats.WaitCount, stats.WaitDuration)
		}
	}
}

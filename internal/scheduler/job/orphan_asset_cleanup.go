package job

import (
	"context"
	"log/slog"
)

const orphanAssetBatchSize = 100

type OrphanAssetQueue interface {
	List(ctx context.Context, limit int64) ([]string, error)
	Remove(ctx context.Context, deleteKey string) error
}

type AssetDeleter interface {
	Delete(ctx context.Context, deleteKey string) error
}

// RunOrphanAssetCleanup retries deletion of queued assets. Keys that still fail
// stay queued for the next run.
func RunOrphanAssetCleanup(ctx context.Context, queue OrphanAssetQueue, storage AssetDeleter) (int, error) {
	keys, err := queue.List(ctx, orphanAssetBatchSize)
	if err != nil {
		slog.Error("Failed to list orphan assets", "error", err)
		return 0, err
	}

	slog.Info("Found orphan asset candidates", "count", len(keys))

	deleted := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		if err := storage.Delete(ctx, key); err != nil {
			slog.Error("Failed to delete orphan asset", "key", key, "error", err)
			continue
		}

		if err := queue.Remove(ctx, key); err != nil {
			slog.Error("Failed to dequeue orphan asset", "key", key, "error", err)
			continue
		}
		deleted++
	}

	slog.Info("Orphan asset cleanup finished", "deleted", deleted, "remaining", len(keys)-deleted)
	return deleted, nil
}

package repository

import (
	"GreenSnapAPI/internal/adapter"
	"context"
)

const orphanAssetKey = "orphan_assets"

// OrphanAssetRepository queues delete keys of uploaded images that could not be
// removed right away. The scheduler drains it.
type OrphanAssetRepository struct {
	redisAdapter *adapter.RedisAdapter
}

func NewOrphanAssetRepository(redisAdapter *adapter.RedisAdapter) *OrphanAssetRepository {
	return &OrphanAssetRepository{
		redisAdapter: redisAdapter,
	}
}

func (r *OrphanAssetRepository) Add(ctx context.Context, deleteKey string) error {
	return r.redisAdapter.Client().SAdd(ctx, orphanAssetKey, deleteKey).Err()
}

func (r *OrphanAssetRepository) List(ctx context.Context, limit int64) ([]string, error) {
	return r.redisAdapter.Client().SRandMemberN(ctx, orphanAssetKey, limit).Result()
}

func (r *OrphanAssetRepository) Remove(ctx context.Context, deleteKey string) error {
	return r.redisAdapter.Client().SRem(ctx, orphanAssetKey, deleteKey).Err()
}

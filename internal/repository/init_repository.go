package repository

import (
	"GreenSnapAPI/internal/adapter"

	"gorm.io/gorm"
)

type Repository struct {
	Report      ReportStore
	User        *UserRepository
	RateLimit   *RateLimitRepository
	OrphanAsset *OrphanAssetRepository
}

// NewRepository groups the repositories. redisAdapter may be nil, in which case
// rate limiting falls back to memory and orphaned assets are only logged.
func NewRepository(store ReportStore, db *gorm.DB, redisAdapter *adapter.RedisAdapter) *Repository {
	repo := &Repository{
		Report: store,
		User:   NewUserRepository(db),
	}
	if redisAdapter != nil {
		repo.RateLimit = NewRateLimitRepository(redisAdapter)
		repo.OrphanAsset = NewOrphanAssetRepository(redisAdapter)
	}
	return repo
}

package scheduler

import (
	"GreenSnapAPI/internal/config"
	"GreenSnapAPI/internal/scheduler/job"
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// orphanCleanupTimeoutFactor scales CleanupTimeout to cover a whole batch.
const orphanCleanupTimeoutFactor = 20

type Scheduler struct {
	cfg     *config.AppConfig
	cron    *cron.Cron
	orphans job.OrphanAssetQueue
	storage job.AssetDeleter
}

func New(cfg *config.AppConfig, orphans job.OrphanAssetQueue, storage job.AssetDeleter) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		cron:    cron.New(),
		orphans: orphans,
		storage: storage,
	}
}

func (s *Scheduler) Start() error {
	slog.Info("Starting Scheduler...")

	if err := s.registerJobs(); err != nil {
		return err
	}

	s.cron.Start()
	slog.Info("Scheduler started successfully")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) registerJobs() error {
	_, err := s.cron.AddFunc(s.cfg.OrphanCleanupCron, func() {
		slog.Info("Starting Orphan Asset Cleanup Job")
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CleanupTimeout*orphanCleanupTimeoutFactor)
		defer cancel()
		if _, err := job.RunOrphanAssetCleanup(ctx, s.orphans, s.storage); err != nil {
			slog.Error("Orphan Asset Cleanup Job failed", "error", err)
		} else {
			slog.Info("Orphan Asset Cleanup Job completed")
		}
	})
	if err != nil {
		slog.Error("Failed to register Orphan Asset Cleanup job", "error", err)
		return err
	}

	slog.Info("Registered Orphan Asset Cleanup Job", "schedule", s.cfg.OrphanCleanupCron)
	return nil
}

package service

import (
	"GreenSnapAPI/internal/entity"
	"GreenSnapAPI/internal/metrics"
	"GreenSnapAPI/internal/repository"
	"context"
	"log/slog"
	"time"
)

// assetJanitor removes uploads that ended up unreferenced after a failed write.
type assetJanitor struct {
	store   repository.ReportStore
	images  ImageHost
	orphans OrphanQueue
	metrics *metrics.Metrics
	timeout time.Duration
}

// release deletes photo unless the stored report already references it, which
// happens when the write committed but the caller saw an error (for example a
// cancellation racing the commit). It runs detached from ctx cancellation and
// never returns an error.
func (j *assetJanitor) release(ctx context.Context, reportID string, photo entity.PhotoRef, referenced func(*entity.Report) bool) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), j.timeout)
	defer cancel()

	if r, err := j.store.GetByID(ctx, reportID); err == nil && referenced(r) {
		slog.Info("Uploaded asset is referenced by the stored report, keeping it", "reportID", reportID, "key", photo.DeleteKey)
		j.metrics.ObserveCleanup(metrics.OutcomeSkipped)
		return
	}

	if err := j.images.Delete(ctx, photo.DeleteKey); err != nil {
		slog.Error("Failed to delete orphaned asset", "error", err, "reportID", reportID, "key", photo.DeleteKey)
		j.metrics.ObserveCleanup(metrics.OutcomeFailure)

		if j.orphans != nil {
			if qErr := j.orphans.Add(ctx, photo.DeleteKey); qErr != nil {
				slog.Error("Failed to queue orphaned asset", "error", qErr, "key", photo.DeleteKey)
			}
		}
		return
	}

	j.metrics.ObserveCleanup(metrics.OutcomeSuccess)
}

func resolutionReferences(photo entity.PhotoRef) func(*entity.Report) bool {
	return func(r *entity.Report) bool {
		return r.Resolution != nil && r.Resolution.Photo.DeleteKey == photo.DeleteKey
	}
}

func reportReferences(photo entity.PhotoRef) func(*entity.Report) bool {
	return func(r *entity.Report) bool {
		return r.Photo.DeleteKey == photo.DeleteKey
	}
}

package service

import (
	"GreenSnapAPI/internal/config"
	"GreenSnapAPI/internal/entity"
	"GreenSnapAPI/internal/helper"
	"GreenSnapAPI/internal/metrics"
	"GreenSnapAPI/internal/model"
	"GreenSnapAPI/internal/repository"
	"GreenSnapAPI/internal/websocket"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
)

// ResolutionService runs a supervisor resolution end to end: upload the
// evidence photo, transition the report, and clean the upload up if the
// transition does not happen.
type ResolutionService struct {
	cfg       *config.AppConfig
	validator *validator.Validate
	store     repository.ReportStore
	authz     SupervisorAuthorizer
	lifecycle *LifecycleService
	images    ImageHost
	notifier  Notifier
	metrics   *metrics.Metrics
	janitor   *assetJanitor
}

func NewResolutionService(
	cfg *config.AppConfig,
	validator *validator.Validate,
	store repository.ReportStore,
	authz SupervisorAuthorizer,
	lifecycle *LifecycleService,
	images ImageHost,
	orphans OrphanQueue,
	notifier Notifier,
	m *metrics.Metrics,
) *ResolutionService {
	return &ResolutionService{
		cfg:       cfg,
		validator: validator,
		store:     store,
		authz:     authz,
		lifecycle: lifecycle,
		images:    images,
		notifier:  notifier,
		metrics:   m,
		janitor: &assetJanitor{
			store:   store,
			images:  images,
			orphans: orphans,
			metrics: m,
			timeout: cfg.CleanupTimeout,
		},
	}
}

func (s *ResolutionService) ResolveReport(ctx context.Context, actorID, reportID string, req model.ResolveReportRequest) (*model.ReportResponse, error) {
	if err := requireSupervisor(ctx, s.authz, actorID); err != nil {
		return nil, err
	}

	target, location, err := s.validateRequest(req)
	if err != nil {
		return nil, err
	}

	current, err := s.store.GetByID(ctx, reportID)
	if err != nil {
		return nil, storeError(err, "get report")
	}
	if !current.Status.CanTransitionTo(target) {
		return nil, helper.NewInvalidTransitionError("report is already " + string(current.Status))
	}

	photo, err := s.images.Upload(ctx, req.Image, s.cfg.StorageResolutionFolder)
	if err != nil {
		s.metrics.ObserveUploadFailure(s.cfg.StorageResolutionFolder)
		s.metrics.ObserveResolution(string(target), metrics.OutcomeFailure)
		if isCancelled(err) {
			return nil, helper.NewPersistenceError(msgRequestCancelled)
		}
		slog.Error("Failed to upload resolution image", "error", err, "reportID", reportID)
		return nil, helper.NewUploadError("failed to upload resolution image")
	}

	updated, err := s.lifecycle.Resolve(ctx, reportID, actorID, ResolutionData{
		Status:   target,
		Photo:    photo,
		Location: location,
	})
	if err != nil {
		s.metrics.ObserveResolution(string(target), metrics.OutcomeFailure)
		s.janitor.release(ctx, reportID, photo, resolutionReferences(photo))
		return nil, err
	}

	s.metrics.ObserveResolution(string(target), metrics.OutcomeSuccess)

	resp := model.ToReportResponse(updated)
	s.publish(updated, resp, actorID)

	return &resp, nil
}

func (s *ResolutionService) validateRequest(req model.ResolveReportRequest) (entity.ReportStatus, entity.GeoPoint, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", entity.GeoPoint{}, helper.NewValidationError("status, longitude, latitude and image are required")
	}

	target, err := entity.ParseReportStatus(req.Status)
	if err != nil || !target.IsTerminal() {
		return "", entity.GeoPoint{}, helper.NewValidationError("status must be resolved or out-of-scope")
	}

	location, err := entity.NewGeoPoint(*req.Longitude, *req.Latitude)
	if err != nil {
		return "", entity.GeoPoint{}, helper.NewValidationError(err.Error())
	}

	if len(req.Image) == 0 {
		return "", entity.GeoPoint{}, helper.NewValidationError("image is required")
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(req.Image)) > s.cfg.MaxUploadBytes {
		return "", entity.GeoPoint{}, helper.NewValidationError(fmt.Sprintf("image must not exceed %d bytes", s.cfg.MaxUploadBytes))
	}
	if _, _, err := helper.DetectImage(req.Image); err != nil {
		return "", entity.GeoPoint{}, helper.NewValidationError("image must be a jpeg, png, webp or gif image")
	}

	return target, location, nil
}

func (s *ResolutionService) publish(r *entity.Report, resp model.ReportResponse, actorID string) {
	if s.notifier == nil {
		return
	}

	event := websocket.Event{
		Type:    websocket.EventReportResolved,
		Payload: resp,
		Meta: &websocket.EventMeta{
			Timestamp: time.Now().UnixMilli(),
			ReportID:  r.ID,
			ActorID:   actorID,
		},
	}
	s.notifier.BroadcastToSupervisors(event)
	s.notifier.BroadcastToUser(r.OwnerID, event)
}

package service

import (
	"GreenSnapAPI/internal/config"
	"GreenSnapAPI/internal/constant"
	"GreenSnapAPI/internal/entity"
	"GreenSnapAPI/internal/helper"
	"GreenSnapAPI/internal/metrics"
	"GreenSnapAPI/internal/model"
	"GreenSnapAPI/internal/repository"
	"GreenSnapAPI/internal/websocket"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ReportService struct {
	cfg       *config.AppConfig
	validator *validator.Validate
	store     repository.ReportStore
	images    ImageHost
	notifier  Notifier
	metrics   *metrics.Metrics
	janitor   *assetJanitor
}

func NewReportService(
	cfg *config.AppConfig,
	validator *validator.Validate,
	store repository.ReportStore,
	images ImageHost,
	orphans OrphanQueue,
	notifier Notifier,
	m *metrics.Metrics,
) *ReportService {
	return &ReportService{
		cfg:       cfg,
		validator: validator,
		store:     store,
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

// CreateReport uploads the photo and stores a new pending report owned by ownerID.
func (s *ReportService) CreateReport(ctx context.Context, ownerID string, req model.CreateReportRequest) (*model.ReportResponse, error) {
	if ownerID == "" {
		return nil, helper.NewUnauthorizedError("")
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Details = strings.TrimSpace(req.Details)
	req.Address = strings.TrimSpace(req.Address)

	if err := s.validator.Struct(req); err != nil {
		slog.Warn("Validation failed", "error", err)
		return nil, helper.NewValidationError("title, details, address, location, photo timestamp and photo are required")
	}

	reportType, err := entity.ParseReportType(req.ReportType)
	if err != nil {
		return nil, helper.NewValidationError(err.Error())
	}

	location, err := entity.NewGeoPoint(*req.Longitude, *req.Latitude)
	if err != nil {
		return nil, helper.NewValidationError(err.Error())
	}

	if len(req.Photo) == 0 {
		return nil, helper.NewValidationError("photo is required")
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(req.Photo)) > s.cfg.MaxUploadBytes {
		return nil, helper.NewValidationError(fmt.Sprintf("photo must not exceed %d bytes", s.cfg.MaxUploadBytes))
	}
	if _, _, err := helper.DetectImage(req.Photo); err != nil {
		return nil, helper.NewValidationError("photo must be a jpeg, png, webp or gif image")
	}

	photo, err := s.images.Upload(ctx, req.Photo, s.cfg.StorageReportFolder)
	if err != nil {
		s.metrics.ObserveUploadFailure(s.cfg.StorageReportFolder)
		if isCancelled(err) {
			return nil, helper.NewPersistenceError(msgRequestCancelled)
		}
		slog.Error("Failed to upload report photo", "error", err, "ownerID", ownerID)
		return nil, helper.NewUploadError("failed to upload report photo")
	}

	draft := &entity.Report{
		ID:             helper.NewID(),
		Title:          req.Title,
		Details:        req.Details,
		Address:        req.Address,
		Location:       location,
		Photo:          photo,
		PhotoTimestamp: req.PhotoTimestamp,
		ReportType:     reportType,
		Status:         entity.StatusPending,
		OwnerID:        ownerID,
	}

	created, err := s.store.Create(ctx, draft)
	if err != nil {
		s.janitor.release(ctx, draft.ID, photo, reportReferences(photo))
		return nil, storeError(err, "create report")
	}

	resp := model.ToReportResponse(created)

	if s.notifier != nil {
		s.notifier.BroadcastToSupervisors(websocket.Event{
			Type:    websocket.EventReportCreated,
			Payload: resp,
			Meta: &websocket.EventMeta{
				Timestamp: time.Now().UnixMilli(),
				ReportID:  created.ID,
				ActorID:   ownerID,
			},
		})
	}

	return &resp, nil
}

func (s *ReportService) GetReport(ctx context.Context, reportID string) (*model.ReportResponse, error) {
	r, err := s.store.GetByID(ctx, reportID)
	if err != nil {
		return nil, storeError(err, "get report")
	}
	resp := model.ToReportResponse(r)
	return &resp, nil
}

// ListNear returns reports around a point, nearest first.
func (s *ReportService) ListNear(ctx context.Context, q model.NearReportsQuery) ([]model.NearbyReportResponse, error) {
	if q.Longitude == nil || q.Latitude == nil {
		return nil, helper.NewValidationError("longitude and latitude are required")
	}

	center, err := entity.NewGeoPoint(*q.Longitude, *q.Latitude)
	if err != nil {
		return nil, helper.NewValidationError(err.Error())
	}

	if q.RadiusMeters < 0 || q.RadiusMeters > s.cfg.NearMaxRadiusMeters {
		return nil, helper.NewValidationError(fmt.Sprintf("radius must be between 0 and %.0f meters", s.cfg.NearMaxRadiusMeters))
	}

	var status entity.ReportStatus
	if q.Status != "" {
		status, err = entity.ParseReportStatus(q.Status)
		if err != nil {
			return nil, helper.NewValidationError(err.Error())
		}
	}

	limit := q.Limit
	if limit == 0 {
		limit = constant.DefaultNearLimit
	}
	if limit < 1 || limit > constant.MaxNearLimit {
		return nil, helper.NewValidationError(fmt.Sprintf("limit must be between 1 and %d", constant.MaxNearLimit))
	}

	items := make([]model.NearbyReportResponse, 0)
	for r, err := range s.store.Near(ctx, repository.NearQuery{
		Point:        center,
		RadiusMeters: q.RadiusMeters,
		Status:       status,
		Limit:        limit,
	}) {
		if err != nil {
			return nil, storeError(err, "near reports")
		}
		items = append(items, model.NearbyReportResponse{
			ReportResponse: model.ToReportResponse(r),
			DistanceMeters: center.DistanceMeters(r.Location),
		})
	}

	return items, nil
}

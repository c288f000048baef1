package service

import (
	"GreenSnapAPI/internal/entity"
	"GreenSnapAPI/internal/helper"
	"GreenSnapAPI/internal/repository"
	"context"
	"time"
)

type ResolutionData struct {
	Status   entity.ReportStatus
	Photo    entity.PhotoRef
	Location entity.GeoPoint
}

func (d ResolutionData) validate() error {
	if !d.Status.IsTerminal() {
		return helper.NewValidationError("status must be resolved or out-of-scope")
	}
	if err := d.Photo.Validate(); err != nil {
		return helper.NewValidationError("resolution photo is required")
	}
	if err := d.Location.Validate(); err != nil {
		return helper.NewValidationError(err.Error())
	}
	return nil
}

// LifecycleService owns the report state machine. Resolve is the only
// transition: pending to resolved or out-of-scope, exactly once.
type LifecycleService struct {
	store repository.ReportStore
	authz SupervisorAuthorizer
	now   func() time.Time
}

func NewLifecycleService(store repository.ReportStore, authz SupervisorAuthorizer) *LifecycleService {
	return &LifecycleService{
		store: store,
		authz: authz,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *LifecycleService) Resolve(ctx context.Context, reportID, actorID string, data ResolutionData) (*entity.Report, error) {
	if err := requireSupervisor(ctx, s.authz, actorID); err != nil {
		return nil, err
	}

	if err := data.validate(); err != nil {
		return nil, err
	}

	current, err := s.store.GetByID(ctx, reportID)
	if err != nil {
		return nil, storeError(err, "get report")
	}
	if !current.Status.CanTransitionTo(data.Status) {
		return nil, helper.NewInvalidTransitionError("report is already " + string(current.Status))
	}

	updated, err := s.store.Update(ctx, reportID, repository.ReportPatch{
		ExpectedStatus: entity.StatusPending,
		Status:         data.Status,
		Resolution: &entity.Resolution{
			ResolvedBy: actorID,
			ResolvedAt: s.now(),
			Photo:      data.Photo,
			Location:   data.Location,
		},
	})
	if err != nil {
		return nil, storeError(err, "resolve report")
	}

	return updated, nil
}

package service

import (
	"GreenSnapAPI/internal/constant"
	"GreenSnapAPI/internal/entity"
	"GreenSnapAPI/internal/helper"
	"GreenSnapAPI/internal/metrics"
	"GreenSnapAPI/internal/model"
	"GreenSnapAPI/internal/repository"
	"context"
	"log/slog"
)

type TriageService struct {
	store   repository.ReportStore
	authz   SupervisorAuthorizer
	users   UserDirectory
	metrics *metrics.Metrics
}

func NewTriageService(store repository.ReportStore, authz SupervisorAuthorizer, users UserDirectory, m *metrics.Metrics) *TriageService {
	return &TriageService{
		store:   store,
		authz:   authz,
		users:   users,
		metrics: m,
	}
}

// ownerLookup memoizes owner summaries for the duration of one call.
type ownerLookup struct {
	ctx     context.Context
	users   UserDirectory
	metrics *metrics.Metrics
	found   map[string]*entity.OwnerSummary
	failed  map[string]bool
}

func (s *TriageService) newOwnerLookup(ctx context.Context) *ownerLookup {
	return &ownerLookup{
		ctx:     ctx,
		users:   s.users,
		metrics: s.metrics,
		found:   make(map[string]*entity.OwnerSummary),
		failed:  make(map[string]bool),
	}
}

func (l *ownerLookup) get(ownerID string) (*entity.OwnerSummary, bool) {
	if summary, ok := l.found[ownerID]; ok {
		return summary, true
	}
	if l.failed[ownerID] {
		return nil, false
	}

	summary, err := l.users.GetSummary(l.ctx, ownerID)
	if err != nil {
		slog.Warn("Owner summary unavailable", "error", err, "ownerID", ownerID)
		l.failed[ownerID] = true
		return nil, false
	}
	l.found[ownerID] = summary
	return summary, true
}

func (l *ownerLookup) item(r *entity.Report) model.TriageItem {
	item := model.TriageItem{ReportResponse: model.ToReportResponse(r)}
	summary, ok := l.get(r.OwnerID)
	if !ok {
		item.OwnerDegraded = true
		l.metrics.ObserveDegradedOwner()
		return item
	}
	item.Owner = model.ToOwnerSummaryDTO(summary)
	return item
}

func parseListQuery(q model.ListReportsQuery) (repository.ReportFilter, repository.ReportSort, int, error) {
	var filter repository.ReportFilter

	if q.Status != "" {
		status, err := entity.ParseReportStatus(q.Status)
		if err != nil {
			return filter, 0, 0, helper.NewValidationError(err.Error())
		}
		filter.Status = status
	}

	if q.ReportType != "" {
		rt, err := entity.ParseReportType(q.ReportType)
		if err != nil {
			return filter, 0, 0, helper.NewValidationError(err.Error())
		}
		filter.ReportType = rt
	}

	var sort repository.ReportSort
	switch q.Sort {
	case "", constant.SortNewest:
		sort = repository.SortNewestFirst
	case constant.SortOldest:
		sort = repository.SortOldestFirst
	default:
		return filter, 0, 0, helper.NewValidationError("sort must be newest or oldest")
	}

	limit := q.Limit
	if limit == 0 {
		limit = constant.DefaultTriageLimit
	}
	if limit < 1 || limit > constant.MaxTriageLimit {
		return filter, 0, 0, helper.NewValidationError("limit must be between 1 and 50")
	}

	return filter, sort, limit, nil
}

// ListForSupervisor returns one page of reports joined with owner summaries.
// A failed owner lookup degrades the item instead of failing the page.
func (s *TriageService) ListForSupervisor(ctx context.Context, actorID string, q model.ListReportsQuery) ([]model.TriageItem, helper.PaginationMeta, error) {
	var meta helper.PaginationMeta

	if err := requireSupervisor(ctx, s.authz, actorID); err != nil {
		return nil, meta, err
	}

	filter, sort, limit, err := parseListQuery(q)
	if err != nil {
		return nil, meta, err
	}

	reports := make([]*entity.Report, 0, limit+1)
	for r, err := range s.store.List(ctx, filter, sort, repository.Page{Cursor: q.Cursor, Limit: limit + 1}) {
		if err != nil {
			return nil, meta, storeError(err, "list reports")
		}
		reports = append(reports, r)
	}

	if len(reports) > limit {
		meta.HasNext = true
		reports = reports[:limit]
		last := reports[len(reports)-1]
		meta.NextCursor = helper.EncodeCursor(last.CreatedTime, last.ID)
	}

	owners := s.newOwnerLookup(ctx)
	items := make([]model.TriageItem, 0, len(reports))
	for _, r := range reports {
		item := owners.item(r)
		if item.OwnerDegraded {
			meta.DegradedIDs = append(meta.DegradedIDs, r.ID)
		}
		items = append(items, item)
	}

	return items, meta, nil
}

func (s *TriageService) GetForSupervisor(ctx context.Context, actorID, reportID string) (*model.TriageItem, error) {
	if err := requireSupervisor(ctx, s.authz, actorID); err != nil {
		return nil, err
	}

	r, err := s.store.GetByID(ctx, reportID)
	if err != nil {
		return nil, storeError(err, "get report")
	}

	item := s.newOwnerLookup(ctx).item(r)
	return &item, nil
}

package repository

import (
	"GreenSnapAPI/internal/entity"
	"GreenSnapAPI/internal/helper"
	"context"
	"errors"
	"fmt"
	"iter"
	"time"
)

var (
	ErrNotFound       = errors.New("report not found")
	ErrStatusConflict = errors.New("report status changed concurrently")
	ErrInvalidCursor  = errors.New("invalid cursor")
)

type ReportSort int

const (
	SortNewestFirst ReportSort = iota
	SortOldestFirst
)

// ReportFilter selects reports by status and, optionally, report type. An empty
// Status means pending.
type ReportFilter struct {
	Status     entity.ReportStatus
	ReportType entity.ReportType
}

func (f ReportFilter) status() entity.ReportStatus {
	if f.Status == "" {
		return entity.StatusPending
	}
	return f.Status
}

func (f ReportFilter) matches(r *entity.Report) bool {
	if r.Status != f.status() {
		return false
	}
	return f.ReportType == "" || r.ReportType == f.ReportType
}

// Page is a keyset position. Limit <= 0 means no limit.
type Page struct {
	Cursor string
	Limit  int
}

type NearQuery struct {
	Point        entity.GeoPoint
	RadiusMeters float64
	Status       entity.ReportStatus
	Limit        int
}

// ReportPatch is applied atomically by Update. When ExpectedStatus is set the
// write only happens if the stored status still equals it.
type ReportPatch struct {
	ExpectedStatus entity.ReportStatus
	Status         entity.ReportStatus
	Resolution     *entity.Resolution
}

// ReportStore persists reports. List and Near return lazy single-use sequences
// that run the query when iterated.
type ReportStore interface {
	Create(ctx context.Context, draft *entity.Report) (*entity.Report, error)
	GetByID(ctx context.Context, id string) (*entity.Report, error)
	List(ctx context.Context, filter ReportFilter, sort ReportSort, page Page) iter.Seq2[*entity.Report, error]
	Update(ctx context.Context, id string, patch ReportPatch) (*entity.Report, error)
	Near(ctx context.Context, q NearQuery) iter.Seq2[*entity.Report, error]
	Close(ctx context.Context) error
}

// prepareDraft fills store-assigned fields and checks the result is a valid
// pending report.
func prepareDraft(draft *entity.Report, newID func() string, now func() time.Time) (*entity.Report, error) {
	if draft == nil {
		return nil, fmt.Errorf("%w: draft is required", entity.ErrInvalidReport)
	}

	r := draft.Clone()
	if r.ID == "" {
		r.ID = newID()
	}
	if r.CreatedTime.IsZero() {
		r.CreatedTime = now()
	}
	r.CreatedTime = r.CreatedTime.UTC().Truncate(time.Microsecond)
	r.PhotoTimestamp = r.PhotoTimestamp.UTC()
	if r.ReportType == "" {
		r.ReportType = entity.TypeStandard
	}
	r.Status = entity.StatusPending
	r.Resolution = nil

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (p ReportPatch) apply(r *entity.Report) (*entity.Report, error) {
	next := r.Clone()
	if p.Status != "" {
		next.Status = p.Status
	}
	if p.Resolution != nil {
		res := *p.Resolution
		res.ResolvedAt = res.ResolvedAt.UTC().Truncate(time.Microsecond)
		next.Resolution = &res
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

func decodePageCursor(cursor string) (time.Time, string, bool, error) {
	if cursor == "" {
		return time.Time{}, "", false, nil
	}
	t, id, err := helper.DecodeCursor(cursor)
	if err != nil {
		return time.Time{}, "", false, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return t, id, true, nil
}

// after reports whether r sorts strictly after the keyset position (t, id).
func after(sort ReportSort, r *entity.Report, t time.Time, id string) bool {
	if r.CreatedTime.Equal(t) {
		return r.ID > id
	}
	if sort == SortOldestFirst {
		return r.CreatedTime.After(t)
	}
	return r.CreatedTime.Before(t)
}

func errSeq(err error) iter.Seq2[*entity.Report, error] {
	return func(yield func(*entity.Report, error) bool) {
		yield(nil, err)
	}
}

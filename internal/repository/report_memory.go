package repository

import (
	"GreenSnapAPI/internal/entity"
	"GreenSnapAPI/internal/helper"
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"
)

// MemoryReportStore keeps reports in process. Near scans every report.
type MemoryReportStore struct {
	mu      sync.RWMutex
	reports map[string]*entity.Report
	newID   func() string
	now     func() time.Time
}

func NewMemoryReportStore() *MemoryReportStore {
	return &MemoryReportStore{
		reports: make(map[string]*entity.Report),
		newID:   helper.NewID,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryReportStore) Create(ctx context.Context, draft *entity.Report) (*entity.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, err := prepareDraft(draft, s.newID, s.now)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[r.ID]; exists {
		return nil, fmt.Errorf("%w: id %s already used", entity.ErrInvalidReport, r.ID)
	}
	s.reports[r.ID] = r
	return r.Clone(), nil
}

func (s *MemoryReportStore) GetByID(ctx context.Context, id string) (*entity.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryReportStore) List(ctx context.Context, filter ReportFilter, sort ReportSort, page Page) iter.Seq2[*entity.Report, error] {
	return func(yield func(*entity.Report, error) bool) {
		cursorTime, cursorID, hasCursor, err := decodePageCursor(page.Cursor)
		if err != nil {
			yield(nil, err)
			return
		}

		matched := s.snapshot(func(r *entity.Report) bool {
			if !filter.matches(r) {
				return false
			}
			return !hasCursor || after(sort, r, cursorTime, cursorID)
		})

		slices.SortFunc(matched, func(a, b *entity.Report) int {
			if c := a.CreatedTime.Compare(b.CreatedTime); c != 0 {
				if sort == SortOldestFirst {
					return c
				}
				return -c
			}
			return cmp.Compare(a.ID, b.ID)
		})

		for i, r := range matched {
			if page.Limit > 0 && i >= page.Limit {
				return
			}
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (s *MemoryReportStore) Update(ctx context.Context, id string, patch ReportPatch) (*entity.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.ExpectedStatus != "" && current.Status != patch.ExpectedStatus {
		return nil, ErrStatusConflict
	}

	next, err := patch.apply(current)
	if err != nil {
		return nil, err
	}
	s.reports[id] = next
	return next.Clone(), nil
}

func (s *MemoryReportStore) Near(ctx context.Context, q NearQuery) iter.Seq2[*entity.Report, error] {
	return func(yield func(*entity.Report, error) bool) {
		type hit struct {
			report   *entity.Report
			distance float64
		}

		var hits []hit
		for _, r := range s.snapshot(func(r *entity.Report) bool {
			return q.Status == "" || r.Status == q.Status
		}) {
			d := q.Point.DistanceMeters(r.Location)
			if d <= q.RadiusMeters {
				hits = append(hits, hit{report: r, distance: d})
			}
		}

		slices.SortFunc(hits, func(a, b hit) int {
			if c := cmp.Compare(a.distance, b.distance); c != 0 {
				return c
			}
			return cmp.Compare(a.report.ID, b.report.ID)
		})

		for i, h := range hits {
			if q.Limit > 0 && i >= q.Limit {
				return
			}
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(h.report, nil) {
				return
			}
		}
	}
}

func (s *MemoryReportStore) Close(ctx context.Context) error {
	return nil
}

func (s *MemoryReportStore) snapshot(keep func(*entity.Report) bool) []*entity.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Report, 0, len(s.reports))
	for _, r := range s.reports {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}

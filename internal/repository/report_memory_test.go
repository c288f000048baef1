package repository

import (
	"GreenSnapAPI/internal/entity"
	"GreenSnapAPI/internal/helper"
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func draftAt(t *testing.T, id string, lon, lat float64, created time.Time) *entity.Report {
	t.Helper()
	loc, err := entity.NewGeoPoint(lon, lat)
	require.NoError(t, err)
	return &entity.Report{
		ID:             id,
		Title:          "Dumped tyres",
		Details:        "Pile of tyres by the river",
		Location:       loc,
		Address:        "River road",
		Photo:          entity.PhotoRef{URL: "https://cdn/" + id + ".jpg", DeleteKey: "reports/" + id + ".jpg"},
		CreatedTime:    created,
		PhotoTimestamp: created.Add(-time.Hour),
		OwnerID:        "owner-" + id,
	}
}

func resolution(t *testing.T, by string) *entity.Resolution {
	t.Helper()
	loc, err := entity.NewGeoPoint(10.0001, 20.0001)
	require.NoError(t, err)
	return &entity.Resolution{
		ResolvedBy: by,
		ResolvedAt: baseTime.Add(time.Hour),
		Photo:      entity.PhotoRef{URL: "https://cdn/res.jpg", DeleteKey: "resolutions/res.jpg"},
		Location:   loc,
	}
}

func collect(t *testing.T, seq iter.Seq2[*entity.Report, error]) []*entity.Report {
	t.Helper()
	var out []*entity.Report
	for r, err := range seq {
		require.NoError(t, err)
		out = append(out, r)
	}
	return out
}

func ids(reports []*entity.Report) []string {
	out := make([]string, 0, len(reports))
	for _, r := range reports {
		out = append(out, r.ID)
	}
	return out
}

func TestMemoryCreateAssignsDefaults(t *testing.T) {
	s := NewMemoryReportStore()
	ctx := context.Background()

	d := draftAt(t, "", 10, 20, time.Time{})
	d.Status = entity.StatusResolved
	d.Resolution = resolution(t, "sup")

	created, err := s.Create(ctx, d)
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedTime.IsZero())
	assert.Equal(t, entity.StatusPending, created.Status)
	assert.Equal(t, entity.TypeStandard, created.ReportType)
	assert.Nil(t, created.Resolution)

	got, err := s.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.Nil(t, got.Resolution)
	assert.Equal(t, 10.0, got.Location.Longitude())
	assert.Equal(t, 20.0, got.Location.Latitude())
}

func TestMemoryCreateRejectsInvalidDraft(t *testing.T) {
	s := NewMemoryReportStore()

	d := draftAt(t, "a", 10, 20, baseTime)
	d.Location = entity.GeoPoint{Type: entity.GeometryPoint, Coordinates: [2]float64{200, 20}}
	_, err := s.Create(context.Background(), d)
	assert.ErrorIs(t, err, entity.ErrInvalidReport)

	d = draftAt(t, "b", 10, 20, baseTime)
	d.Address = ""
	_, err = s.Create(context.Background(), d)
	assert.ErrorIs(t, err, entity.ErrInvalidReport)
}

func TestMemoryCreateRejectsReusedID(t *testing.T) {
	s := NewMemoryReportStore()
	ctx := context.Background()

	_, err := s.Create(ctx, draftAt(t, "dup", 10, 20, baseTime))
	require.NoError(t, err)
	_, err = s.Create(ctx, draftAt(t, "dup", 11, 21, baseTime))
	assert.ErrorIs(t, err, entity.ErrInvalidReport)
}

func TestMemoryGetByIDNotFound(t *testing.T) {
	_, err := NewMemoryReportStore().GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReturnsCopies(t *testing.T) {
	s := NewMemoryReportStore()
	ctx := context.Background()

	created, err := s.Create(ctx, draftAt(t, "a", 10, 20, baseTime))
	require.NoError(t, err)
	created.Title = "mutated"

	got, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Dumped tyres", got.Title)
}

func seedOrdering(t *testing.T, s *MemoryReportStore) {
	t.Helper()
	ctx := context.Background()
	for _, d := range []*entity.Report{
		draftAt(t, "c", 10, 20, baseTime),
		draftAt(t, "a", 10, 20, baseTime),
		draftAt(t, "b", 10, 20, baseTime.Add(time.Minute)),
		draftAt(t, "d", 10, 20, baseTime.Add(-time.Minute)),
	} {
		_, err := s.Create(ctx, d)
		require.NoError(t, err)
	}

	hazardous := draftAt(t, "h", 10, 20, baseTime.Add(2*time.Minute))
	hazardous.ReportType = entity.TypeHazardous
	_, err := s.Create(ctx, hazardous)
	require.NoError(t, err)

	resolved := draftAt(t, "r", 10, 20, baseTime.Add(time.Hour))
	_, err = s.Create(ctx, resolved)
	require.NoError(t, err)
	_, err = s.Update(ctx, "r", ReportPatch{
		ExpectedStatus: entity.StatusPending,
		Status:         entity.StatusResolved,
		Resolution:     resolution(t, "sup"),
	})
	require.NoError(t, err)
}

func TestMemoryListDefaultsToPendingNewestFirst(t *testing.T) {
	s := NewMemoryReportStore()
	seedOrdering(t, s)

	got := collect(t, s.List(context.Background(), ReportFilter{}, SortNewestFirst, Page{}))
	assert.Equal(t, []string{"h", "b", "a", "c", "d"}, ids(got))
}

func TestMemoryListOldestFirstAndTypeFilter(t *testing.T) {
	s := NewMemoryReportStore()
	seedOrdering(t, s)
	ctx := context.Background()

	got := collect(t, s.List(ctx, ReportFilter{Status: entity.StatusPending}, SortOldestFirst, Page{}))
	assert.Equal(t, []string{"d", "a", "c", "b", "h"}, ids(got))

	got = collect(t, s.List(ctx, ReportFilter{ReportType: entity.TypeHazardous}, SortNewestFirst, Page{}))
	assert.Equal(t, []string{"h"}, ids(got))

	got = collect(t, s.List(ctx, ReportFilter{Status: entity.StatusResolved}, SortNewestFirst, Page{}))
	assert.Equal(t, []string{"r"}, ids(got))
}

func TestMemoryListKeysetPagination(t *testing.T) {
	s := NewMemoryReportStore()
	seedOrdering(t, s)
	ctx := context.Background()

	var all []string
	cursor := ""
	for range 10 {
		page := collect(t, s.List(ctx, ReportFilter{}, SortNewestFirst, Page{Cursor: cursor, Limit: 2}))
		if len(page) == 0 {
			break
		}
		all = append(all, ids(page)...)
		last := page[len(page)-1]
		cursor = helper.EncodeCursor(last.CreatedTime, last.ID)
	}

	assert.Equal(t, []string{"h", "b", "a", "c", "d"}, all)
}

func TestMemoryListInvalidCursor(t *testing.T) {
	s := NewMemoryReportStore()
	for _, err := range s.List(context.Background(), ReportFilter{}, SortNewestFirst, Page{Cursor: "%%%"}) {
		assert.ErrorIs(t, err, ErrInvalidCursor)
	}
}

func TestMemoryListIsLazy(t *testing.T) {
	s := NewMemoryReportStore()
	ctx := context.Background()

	seq := s.List(ctx, ReportFilter{}, SortNewestFirst, Page{})

	_, err := s.Create(ctx, draftAt(t, "late", 10, 20, baseTime))
	require.NoError(t, err)

	assert.Equal(t, []string{"late"}, ids(collect(t, seq)))
}

func TestMemoryNear(t *testing.T) {
	s := NewMemoryReportStore()
	ctx := context.Background()

	for _, d := range []*entity.Report{
		draftAt(t, "exact", 10, 20, baseTime),
		draftAt(t, "close", 10.001, 20, baseTime),
		draftAt(t, "medium", 10.01, 20, baseTime),
		draftAt(t, "far", 11, 20, baseTime),
	} {
		_, err := s.Create(ctx, d)
		require.NoError(t, err)
	}

	center, _ := entity.NewGeoPoint(10, 20)

	got := collect(t, s.Near(ctx, NearQuery{Point: center, RadiusMeters: 2000}))
	assert.Equal(t, []string{"exact", "close", "medium"}, ids(got))
	for _, r := range got {
		assert.LessOrEqual(t, center.DistanceMeters(r.Location), 2000.0)
	}

	got = collect(t, s.Near(ctx, NearQuery{Point: center, RadiusMeters: 0}))
	assert.Equal(t, []string{"exact"}, ids(got))

	got = collect(t, s.Near(ctx, NearQuery{Point: center, RadiusMeters: 2000, Limit: 1}))
	assert.Equal(t, []string{"exact"}, ids(got))

	got = collect(t, s.Near(ctx, NearQuery{Point: center, RadiusMeters: 2000, Status: entity.StatusResolved}))
	assert.Empty(t, got)
}

func TestMemoryNearTiesBrokenByID(t *testing.T) {
	s := NewMemoryReportStore()
	ctx := context.Background()
	for _, id := range []string{"z", "m", "b"} {
		_, err := s.Create(ctx, draftAt(t, id, 5, 5, baseTime))
		require.NoError(t, err)
	}

	center, _ := entity.NewGeoPoint(5, 5)
	got := collect(t, s.Near(ctx, NearQuery{Point: center, RadiusMeters: 10}))
	assert.Equal(t, []string{"b", "m", "z"}, ids(got))
}

func TestMemoryUpdate(t *testing.T) {
	s := NewMemoryReportStore()
	ctx := context.Background()
	_, err := s.Create(ctx, draftAt(t, "a", 10, 20, baseTime))
	require.NoError(t, err)

	_, err = s.Update(ctx, "missing", ReportPatch{Status: entity.StatusResolved, Resolution: resolution(t, "sup")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Update(ctx, "a", ReportPatch{Status: entity.StatusResolved})
	assert.ErrorIs(t, err, entity.ErrInvalidReport, "terminal status without resolution")

	updated, err := s.Update(ctx, "a", ReportPatch{
		ExpectedStatus: entity.StatusPending,
		Status:         entity.StatusOutOfScope,
		Resolution:     resolution(t, "sup"),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOutOfScope, updated.Status)

	_, err = s.Update(ctx, "a", ReportPatch{
		ExpectedStatus: entity.StatusPending,
		Status:         entity.StatusResolved,
		Resolution:     resolution(t, "other"),
	})
	assert.ErrorIs(t, err, ErrStatusConflict)

	got, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOutOfScope, got.Status)
	assert.Equal(t, "sup", got.Resolution.ResolvedBy)
}

func TestMemoryConcurrentConditionalUpdates(t *testing.T) {
	s := NewMemoryReportStore()
	ctx := context.Background()
	_, err := s.Create(ctx, draftAt(t, "a", 10, 20, baseTime))
	require.NoError(t, err)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes []string
		conflicts int
	)

	patches := make([]ReportPatch, workers)
	for i := range workers {
		status := entity.StatusResolved
		if i%2 == 1 {
			status = entity.StatusOutOfScope
		}
		patches[i] = ReportPatch{
			ExpectedStatus: entity.StatusPending,
			Status:         status,
			Resolution:     resolution(t, fmt.Sprintf("sup-%d", i)),
		}
	}

	for i := range workers {
		wg.Add(1)
		go func(patch ReportPatch) {
			defer wg.Done()
			actor := patch.Resolution.ResolvedBy
			_, err := s.Update(ctx, "a", patch)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes = append(successes, actor)
			case errors.Is(err, ErrStatusConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(patches[i])
	}
	wg.Wait()

	require.Len(t, successes, 1)
	assert.Equal(t, workers-1, conflicts)

	got, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, successes[0], got.Resolution.ResolvedBy)
}

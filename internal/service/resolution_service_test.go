package service

import (
	"GreenSnapAPI/internal/config"
	"GreenSnapAPI/internal/entity"
	"GreenSnapAPI/internal/helper"
	"GreenSnapAPI/internal/model"
	"GreenSnapAPI/internal/repository"
	"GreenSnapAPI/internal/websocket"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolutionFixture struct {
	svc      *ResolutionService
	store    *hookStore
	images   *fakeImages
	orphans  *fakeOrphans
	notifier *fakeNotifier
}

func newResolutionFixture(t *testing.T) *resolutionFixture {
	t.Helper()
	cfg := testConfig()
	store := newHookStore()
	authz := newFakeAuthz("sup", "sup2")
	images := &fakeImages{}
	orphans := &fakeOrphans{}
	notifier := newFakeNotifier()

	seedReport(t, store, "r1", 10, 20, t0, "owner")

	lifecycle := NewLifecycleService(store, authz)
	svc := NewResolutionService(cfg, config.NewValidator(), store, authz, lifecycle, images, orphans, notifier, nil)

	return &resolutionFixture{svc: svc, store: store, images: images, orphans: orphans, notifier: notifier}
}

func resolveRequest(status string, lon, lat float64) model.ResolveReportRequest {
	return model.ResolveReportRequest{
		Status:    status,
		Longitude: float(lon),
		Latitude:  float(lat),
		Image:     pngBytes,
	}
}

func (f *resolutionFixture) stored(t *testing.T) *entity.Report {
	t.Helper()
	r, err := f.store.GetByID(context.Background(), "r1")
	require.NoError(t, err)
	return r
}

func TestResolveReportSuccess(t *testing.T) {
	f := newResolutionFixture(t)

	resp, err := f.svc.ResolveReport(context.Background(), "sup", "r1", resolveRequest("resolved", 10.0005, 20.0005))
	require.NoError(t, err)

	assert.Equal(t, entity.StatusResolved, resp.Status)
	require.NotNil(t, resp.Resolution)
	assert.Equal(t, "sup", resp.Resolution.ResolvedBy)
	require.Len(t, f.images.uploads, 1)
	assert.Equal(t, f.images.uploads[0].URL, resp.Resolution.PhotoURL)
	assert.Equal(t, "resolutions/1.png", f.stored(t).Resolution.Photo.DeleteKey)
	assert.Empty(t, f.images.deleted())

	require.Len(t, f.notifier.supervisors, 1)
	assert.Equal(t, websocket.EventReportResolved, f.notifier.supervisors[0].Type)
	assert.Len(t, f.notifier.users["owner"], 1)
}

func TestResolveReportOutOfScope(t *testing.T) {
	f := newResolutionFixture(t)

	resp, err := f.svc.ResolveReport(context.Background(), "sup", "r1", resolveRequest("out-of-scope", 10, 20))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOutOfScope, resp.Status)
	assert.NotNil(t, resp.Resolution)
}

// Scenario B: invalid longitude fails validation and nothing is uploaded.
func TestResolveReportInvalidLocation(t *testing.T) {
	f := newResolutionFixture(t)

	_, err := f.svc.ResolveReport(context.Background(), "sup", "r1", resolveRequest("resolved", 200, 20))
	requireKind(t, err, helper.KindValidation)

	assert.Empty(t, f.images.uploads)
	assert.Equal(t, entity.StatusPending, f.stored(t).Status)
}

func TestResolveReportRequestValidation(t *testing.T) {
	f := newResolutionFixture(t)
	ctx := context.Background()

	req := resolveRequest("pending", 10, 20)
	_, err := f.svc.ResolveReport(ctx, "sup", "r1", req)
	requireKind(t, err, helper.KindValidation)

	req = resolveRequest("resolved", 10, 20)
	req.Image = nil
	_, err = f.svc.ResolveReport(ctx, "sup", "r1", req)
	requireKind(t, err, helper.KindValidation)

	req = resolveRequest("resolved", 10, 20)
	req.Latitude = nil
	_, err = f.svc.ResolveReport(ctx, "sup", "r1", req)
	requireKind(t, err, helper.KindValidation)

	req = resolveRequest("resolved", 10, 20)
	req.Image = make([]byte, testConfig().MaxUploadBytes+1)
	_, err = f.svc.ResolveReport(ctx, "sup", "r1", req)
	requireKind(t, err, helper.KindValidation)

	assert.Empty(t, f.images.uploads)
}

func TestResolveReportUnauthorizedDoesNotUpload(t *testing.T) {
	f := newResolutionFixture(t)

	_, err := f.svc.ResolveReport(context.Background(), "owner", "r1", resolveRequest("resolved", 10, 20))
	requireKind(t, err, helper.KindUnauthorized)
	assert.Empty(t, f.images.uploads)
}

func TestResolveReportPreReadAvoidsUpload(t *testing.T) {
	f := newResolutionFixture(t)
	ctx := context.Background()

	_, err := f.svc.ResolveReport(ctx, "sup", "missing", resolveRequest("resolved", 10, 20))
	requireKind(t, err, helper.KindNotFound)

	_, err = f.svc.ResolveReport(ctx, "sup", "r1", resolveRequest("resolved", 10, 20))
	require.NoError(t, err)

	_, err = f.svc.ResolveReport(ctx, "sup2", "r1", resolveRequest("out-of-scope", 10, 20))
	requireKind(t, err, helper.KindInvalidTransition)

	assert.Len(t, f.images.uploads, 1)
	assert.Equal(t, "sup", f.stored(t).Resolution.ResolvedBy)
}

func TestResolveReportUploadFailure(t *testing.T) {
	f := newResolutionFixture(t)
	f.images.uploadErr = errors.New("host unreachable")

	_, err := f.svc.ResolveReport(context.Background(), "sup", "r1", resolveRequest("resolved", 10, 20))
	requireKind(t, err, helper.KindUpload)

	r := f.stored(t)
	assert.Equal(t, entity.StatusPending, r.Status)
	assert.Nil(t, r.Resolution)
	assert.Empty(t, f.notifier.supervisors)
}

// Scenario C: upload succeeds, store update fails, asset is deleted, report stays pending.
func TestResolveReportPersistenceFailureCleansUp(t *testing.T) {
	f := newResolutionFixture(t)
	f.store.updateErr = errors.New("write timeout")

	_, err := f.svc.ResolveReport(context.Background(), "sup", "r1", resolveRequest("resolved", 10, 20))
	requireKind(t, err, helper.KindPersistence)

	require.Len(t, f.images.uploads, 1)
	assert.Equal(t, []string{f.images.uploads[0].DeleteKey}, f.images.deleted())
	assert.Equal(t, entity.StatusPending, f.stored(t).Status)
	assert.Empty(t, f.orphans.keys)
}

func TestResolveReportCleanupFailureIsQueued(t *testing.T) {
	f := newResolutionFixture(t)
	f.store.updateErr = errors.New("write timeout")
	f.images.deleteErr = errors.New("delete failed")

	_, err := f.svc.ResolveReport(context.Background(), "sup", "r1", resolveRequest("resolved", 10, 20))
	requireKind(t, err, helper.KindPersistence)

	assert.Equal(t, []string{"resolutions/1.png"}, f.orphans.keys)
}

func TestResolveReportLostRaceCleansUp(t *testing.T) {
	f := newResolutionFixture(t)

	var once bool
	f.store.beforeWrite = func() {
		if once {
			return
		}
		once = true
		_, err := NewLifecycleService(f.store.MemoryReportStore, newFakeAuthz("sup2")).Resolve(context.Background(), "r1", "sup2",
			ResolutionData{
				Status:   entity.StatusOutOfScope,
				Photo:    entity.PhotoRef{URL: "https://cdn.test/other.png", DeleteKey: "resolutions/other.png"},
				Location: entity.GeoPoint{Type: entity.GeometryPoint, Coordinates: [2]float64{10, 20}},
			})
		require.NoError(t, err)
	}

	_, err := f.svc.ResolveReport(context.Background(), "sup", "r1", resolveRequest("resolved", 10, 20))
	requireKind(t, err, helper.KindInvalidTransition)

	assert.Equal(t, []string{"resolutions/1.png"}, f.images.deleted())
	r := f.stored(t)
	assert.Equal(t, entity.StatusOutOfScope, r.Status)
	assert.Equal(t, "sup2", r.Resolution.ResolvedBy)
}

// A cancellation that lands after the write committed must not delete the
// asset the stored report now references.
func TestResolveReportCancelledAfterCommitKeepsAsset(t *testing.T) {
	f := newResolutionFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.store.afterUpdate = cancel

	wrapped := &cancellingStore{hookStore: f.store}
	lifecycle := NewLifecycleService(wrapped, newFakeAuthz("sup"))
	svc := NewResolutionService(testConfig(), config.NewValidator(), wrapped, newFakeAuthz("sup"), lifecycle, f.images, f.orphans, f.notifier, nil)

	_, err := svc.ResolveReport(ctx, "sup", "r1", resolveRequest("resolved", 10, 20))
	appErr := requireKind(t, err, helper.KindPersistence)
	assert.Equal(t, msgRequestCancelled, appErr.Message)

	assert.Empty(t, f.images.deleted())
	r := f.stored(t)
	assert.Equal(t, entity.StatusResolved, r.Status)
	assert.Equal(t, "resolutions/1.png", r.Resolution.Photo.DeleteKey)
}

// cancellingStore reports ctx cancellation from Update even when the write
// went through, as a driver does when cancellation races the commit.
type cancellingStore struct {
	*hookStore
}

func (s *cancellingStore) Update(ctx context.Context, id string, patch repository.ReportPatch) (*entity.Report, error) {
	r, err := s.hookStore.Update(ctx, id, patch)
	if err == nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return r, err
}

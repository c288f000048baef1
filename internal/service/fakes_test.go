package service

import (
	"GreenSnapAPI/internal/config"
	"GreenSnapAPI/internal/entity"
	"GreenSnapAPI/internal/helper"
	"GreenSnapAPI/internal/repository"
	"GreenSnapAPI/internal/websocket"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		StorageReportFolder:     "reports",
		StorageResolutionFolder: "resolutions",
		MaxUploadBytes:          1 << 20,
		NearMaxRadiusMeters:     50000,
		CleanupTimeout:          time.Second,
		JWTSecret:               "test-secret",
		JWTExp:                  3600,
	}
}

type fakeAuthz struct {
	supervisors map[string]bool
	err         error
}

func newFakeAuthz(supervisors ...string) *fakeAuthz {
	a := &fakeAuthz{supervisors: make(map[string]bool)}
	for _, s := range supervisors {
		a.supervisors[s] = true
	}
	return a
}

func (a *fakeAuthz) IsSupervisor(ctx context.Context, userID string) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	return a.supervisors[userID], nil
}

type fakeImages struct {
	mu        sync.Mutex
	uploadErr error
	deleteErr error
	uploads   []entity.PhotoRef
	deletes   []string
	seq       int
}

func (f *fakeImages) Upload(ctx context.Context, data []byte, folder string) (entity.PhotoRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return entity.PhotoRef{}, f.uploadErr
	}
	f.seq++
	key := fmt.Sprintf("%s/%d.png", folder, f.seq)
	ref := entity.PhotoRef{URL: "https://cdn.test/" + key, DeleteKey: key}
	f.uploads = append(f.uploads, ref)
	return ref, nil
}

func (f *fakeImages) Delete(ctx context.Context, deleteKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, deleteKey)
	return f.deleteErr
}

func (f *fakeImages) deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletes...)
}

type fakeUsers struct {
	mu        sync.Mutex
	summaries map[string]*entity.OwnerSummary
	failing   map[string]bool
	calls     map[string]int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		summaries: make(map[string]*entity.OwnerSummary),
		failing:   make(map[string]bool),
		calls:     make(map[string]int),
	}
}

func (f *fakeUsers) GetSummary(ctx context.Context, userID string) (*entity.OwnerSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[userID]++
	if f.failing[userID] {
		return nil, errors.New("user directory unavailable")
	}
	s, ok := f.summaries[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return s, nil
}

type fakeOrphans struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeOrphans) Add(ctx context.Context, deleteKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, deleteKey)
	return nil
}

type fakeNotifier struct {
	mu          sync.Mutex
	supervisors []websocket.Event
	users       map[string][]websocket.Event
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{users: make(map[string][]websocket.Event)}
}

func (f *fakeNotifier) BroadcastToSupervisors(event websocket.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.supervisors = append(f.supervisors, event)
}

func (f *fakeNotifier) BroadcastToUser(userID string, event websocket.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[userID] = append(f.users[userID], event)
}

// hookStore wraps the memory store so tests can fail or intercept writes.
type hookStore struct {
	*repository.MemoryReportStore
	updateErr   error
	createErr   error
	beforeWrite func()
	afterUpdate func()
}

func (s *hookStore) Create(ctx context.Context, draft *entity.Report) (*entity.Report, error) {
	if s.beforeWrite != nil {
		s.beforeWrite()
	}
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.MemoryReportStore.Create(ctx, draft)
}

func (s *hookStore) Update(ctx context.Context, id string, patch repository.ReportPatch) (*entity.Report, error) {
	if s.beforeWrite != nil {
		s.beforeWrite()
	}
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	r, err := s.MemoryReportStore.Update(ctx, id, patch)
	if s.afterUpdate != nil {
		s.afterUpdate()
	}
	return r, err
}

func newHookStore() *hookStore {
	return &hookStore{MemoryReportStore: repository.NewMemoryReportStore()}
}

func seedReport(t *testing.T, store repository.ReportStore, id string, lon, lat float64, created time.Time, owner string) *entity.Report {
	t.Helper()
	loc, err := entity.NewGeoPoint(lon, lat)
	require.NoError(t, err)
	r, err := store.Create(context.Background(), &entity.Report{
		ID:             id,
		Title:          "Illegal dumping",
		Details:        "Bags of rubbish in the woods",
		Location:       loc,
		Address:        "Forest lane",
		Photo:          entity.PhotoRef{URL: "https://cdn.test/reports/" + id, DeleteKey: "reports/" + id},
		CreatedTime:    created,
		PhotoTimestamp: created.Add(-time.Minute),
		OwnerID:        owner,
	})
	require.NoError(t, err)
	return r
}

func float(v float64) *float64 {
	return &v
}

func requireKind(t *testing.T, err error, kind helper.ErrorKind) *helper.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, kind, appErr.Kind, "message: %s", appErr.Message)
	return appErr
}

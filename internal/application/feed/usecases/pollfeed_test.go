package usecases

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stixgate/internal/domain/feed"
	vo "stixgate/internal/domain/feed/valueobjects"
	"stixgate/internal/domain/stix"
	"stixgate/internal/infrastructure/cache"
	"stixgate/internal/infrastructure/ratelimit"
	"stixgate/internal/infrastructure/taxii"
	"stixgate/internal/shared/config"
	"stixgate/internal/shared/errors"
	"stixgate/internal/shared/logger"
)

type mockSourceRepository struct {
	mock.Mock
}

func (m *mockSourceRepository) Create(ctx context.Context, source *feed.Source) error {
	args := m.Called(ctx, source)
	return args.Error(0)
}

func (m *mockSourceRepository) Update(ctx context.Context, source *feed.Source) error {
	args := m.Called(ctx, source)
	return args.Error(0)
}

func (m *mockSourceRepository) GetByID(ctx context.Context, id uint) (*feed.Source, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feed.Source), args.Error(1)
}

func (m *mockSourceRepository) List(ctx context.Context) ([]*feed.Source, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*feed.Source), args.Error(1)
}

func (m *mockSourceRepository) ListActive(ctx context.Context) ([]*feed.Source, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*feed.Source), args.Error(1)
}

func (m *mockSourceRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockLogRepository struct {
	mock.Mock
}

func (m *mockLogRepository) Create(ctx context.Context, log *feed.ConsumptionLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *mockLogRepository) Update(ctx context.Context, log *feed.ConsumptionLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *mockLogRepository) GetLatestForFeed(ctx context.Context, feedID uint) (*feed.ConsumptionLog, error) {
	args := m.Called(ctx, feedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feed.ConsumptionLog), args.Error(1)
}

func (m *mockLogRepository) ListForFeed(ctx context.Context, feedID uint, limit int) ([]*feed.ConsumptionLog, error) {
	args := m.Called(ctx, feedID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*feed.ConsumptionLog), args.Error(1)
}

func (m *mockLogRepository) ListFailedSince(ctx context.Context, since time.Time) ([]*feed.ConsumptionLog, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*feed.ConsumptionLog), args.Error(1)
}

func (m *mockLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockObjectRepository struct {
	mock.Mock
}

func (m *mockObjectRepository) Upsert(ctx context.Context, obj *stix.Object) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *mockObjectRepository) GetByStixID(ctx context.Context, stixID string) (*stix.Object, error) {
	args := m.Called(ctx, stixID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stix.Object), args.Error(1)
}

func (m *mockObjectRepository) ListBySourceOrg(ctx context.Context, sourceOrgID uint, limit, offset int) ([]*stix.Object, error) {
	args := m.Called(ctx, sourceOrgID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*stix.Object), args.Error(1)
}

func (m *mockObjectRepository) CountBySourceOrg(ctx context.Context, sourceOrgID uint) (int64, error) {
	args := m.Called(ctx, sourceOrgID)
	return args.Get(0).(int64), args.Error(1)
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any)           {}
func (noopLogger) Info(msg string, args ...any)            {}
func (noopLogger) Warn(msg string, args ...any)            {}
func (noopLogger) Error(msg string, args ...any)           {}
func (l noopLogger) With(args ...any) logger.Interface     { return l }
func (l noopLogger) Named(name string) logger.Interface    { return l }
func (noopLogger) Debugw(msg string, keysAndValues ...any) {}
func (noopLogger) Infow(msg string, keysAndValues ...any)  {}
func (noopLogger) Warnw(msg string, keysAndValues ...any)  {}
func (noopLogger) Errorw(msg string, keysAndValues ...any) {}

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	err := client.Ping(ctx).Err()
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	return client
}

func validIndicator(id string) map[string]any {
	return map[string]any{
		"type":            "indicator",
		"spec_version":    "2.1",
		"id":              "indicator--" + id,
		"created":         "2026-03-14T09:21:33.742Z",
		"modified":        "2026-03-14T09:21:33.742Z",
		"pattern":         "[ipv4-addr:value = '203.0.113.77']",
		"pattern_type":    "stix",
		"indicator_types": []any{"malicious-activity"},
	}
}

func brokenIndicator(id string) map[string]any {
	obj := validIndicator(id)
	delete(obj, "pattern")
	return obj
}

func pollSource(t *testing.T, apiRoot string, rateLimit int, active bool) *feed.Source {
	t.Helper()
	now := time.Now().UTC()
	source, err := feed.ReconstructSource(
		1,
		"circl-osint",
		apiRoot+"taxii2/",
		apiRoot,
		"col-1",
		vo.IntervalHourly,
		vo.AuthNone,
		nil,
		5*time.Second,
		rateLimit,
		1,
		active,
		nil,
		now, now, 1,
	)
	require.NoError(t, err)
	return source
}

func testFeedConfig() config.FeedConfig {
	return config.FeedConfig{
		RequestTimeout:       5 * time.Second,
		MaxPages:             10,
		PageLimit:            100,
		RetryInitialInterval: 10 * time.Millisecond,
		RetryMaxInterval:     20 * time.Millisecond,
		RetryMaxAttempts:     2,
	}
}

type pollFixture struct {
	uc         *PollFeedUseCase
	sourceRepo *mockSourceRepository
	logRepo    *mockLogRepository
	objectRepo *mockObjectRepository
	lock       *cache.FeedPollLock
	cursors    *cache.PollCursorStore
}

func newPollFixture(t *testing.T) *pollFixture {
	t.Helper()
	client := setupTestRedis(t)

	f := &pollFixture{
		sourceRepo: new(mockSourceRepository),
		logRepo:    new(mockLogRepository),
		objectRepo: new(mockObjectRepository),
		lock:       cache.NewFeedPollLock(client),
		cursors:    cache.NewPollCursorStore(client),
	}
	f.uc = NewPollFeedUseCase(
		f.sourceRepo,
		f.logRepo,
		f.objectRepo,
		stix.NewFactory(),
		f.lock,
		f.cursors,
		ratelimit.NewRedisRateLimiter(client),
		testFeedConfig(),
		noopLogger{},
	)
	return f
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, envelope taxii.Envelope, dateAddedLast time.Time) {
	t.Helper()
	if !dateAddedLast.IsZero() {
		w.Header().Set("X-TAXII-Date-Added-Last", dateAddedLast.Format(time.RFC3339Nano))
	}
	require.NoError(t, json.NewEncoder(w).Encode(envelope))
}

func TestPollFeedUseCase_PaginatesAndAdvancesCursor(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	pageOne := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	pageTwo := time.Date(2026, 3, 14, 10, 5, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api1/collections/col-1/objects/", r.URL.Path)
		if r.URL.Query().Get("offset") == "" {
			writeEnvelope(t, w, taxii.Envelope{
				More: true,
				Objects: []map[string]any{
					validIndicator("0b1f4f9e-5ad5-4b07-9d4c-4e1f3f0a6f01"),
					validIndicator("0b1f4f9e-5ad5-4b07-9d4c-4e1f3f0a6f02"),
				},
			}, pageOne)
			return
		}
		require.Equal(t, "2", r.URL.Query().Get("offset"))
		writeEnvelope(t, w, taxii.Envelope{
			Objects: []map[string]any{
				validIndicator("0b1f4f9e-5ad5-4b07-9d4c-4e1f3f0a6f03"),
			},
		}, pageTwo)
	}))
	defer srv.Close()

	f.sourceRepo.On("GetByID", mock.Anything, uint(1)).Return(pollSource(t, srv.URL+"/api1/", 0, true), nil)
	f.sourceRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.logRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.logRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.objectRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result, err := f.uc.Execute(ctx, 1, false)
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, vo.StatusSuccess, result.Status)
	assert.Equal(t, 3, result.ObjectsRetrieved)
	assert.Equal(t, 3, result.ObjectsProcessed)
	assert.Equal(t, 0, result.ObjectsFailed)

	f.objectRepo.AssertNumberOfCalls(t, "Upsert", 3)
	f.sourceRepo.AssertCalled(t, "Update", mock.Anything, mock.Anything)

	cursor, err := f.cursors.GetCursor(ctx, 1)
	require.NoError(t, err)
	assert.True(t, pageTwo.Equal(cursor), "cursor advances to the latest date-added bound")
}

func TestPollFeedUseCase_EmptyPageWithMoreSetEndsPoll(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeEnvelope(t, w, taxii.Envelope{More: true}, time.Time{})
	}))
	defer srv.Close()

	f.sourceRepo.On("GetByID", mock.Anything, uint(1)).Return(pollSource(t, srv.URL+"/api1/", 0, true), nil)
	f.sourceRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.logRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.logRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	result, err := f.uc.Execute(ctx, 1, false)
	require.NoError(t, err)

	// A server that keeps claiming more data without returning objects would
	// otherwise be re-queried at the same offset for every remaining page.
	assert.Equal(t, int64(1), hits.Load())
	assert.Equal(t, vo.StatusSuccess, result.Status)
	assert.Equal(t, 0, result.ObjectsRetrieved)
}

func TestPollFeedUseCase_InvalidObjectsDowngradeToPartial(t *testing.T) {
	f := newPollFixture(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, taxii.Envelope{
			Objects: []map[string]any{
				validIndicator("0b1f4f9e-5ad5-4b07-9d4c-4e1f3f0a6f01"),
				brokenIndicator("0b1f4f9e-5ad5-4b07-9d4c-4e1f3f0a6f02"),
				validIndicator("0b1f4f9e-5ad5-4b07-9d4c-4e1f3f0a6f03"),
			},
		}, time.Now().UTC())
	}))
	defer srv.Close()

	f.sourceRepo.On("GetByID", mock.Anything, uint(1)).Return(pollSource(t, srv.URL+"/api1/", 0, true), nil)
	f.sourceRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.logRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.logRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.objectRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	result, err := f.uc.Execute(context.Background(), 1, false)
	require.NoError(t, err)

	assert.Equal(t, vo.StatusPartial, result.Status)
	assert.Equal(t, 3, result.ObjectsRetrieved)
	assert.Equal(t, 2, result.ObjectsProcessed)
	assert.Equal(t, 1, result.ObjectsFailed)
	assert.Contains(t, result.ErrorMessage, "indicator--0b1f4f9e-5ad5-4b07-9d4c-4e1f3f0a6f02")
}

func TestPollFeedUseCase_DryRunPersistsNothing(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, taxii.Envelope{
			Objects: []map[string]any{
				validIndicator("0b1f4f9e-5ad5-4b07-9d4c-4e1f3f0a6f01"),
			},
		}, time.Now().UTC())
	}))
	defer srv.Close()

	f.sourceRepo.On("GetByID", mock.Anything, uint(1)).Return(pollSource(t, srv.URL+"/api1/", 0, true), nil)

	result, err := f.uc.Execute(ctx, 1, true)
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, vo.StatusSuccess, result.Status)
	assert.Equal(t, 1, result.ObjectsProcessed)

	f.logRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.logRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.objectRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	f.sourceRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)

	cursor, err := f.cursors.GetCursor(ctx, 1)
	require.NoError(t, err)
	assert.True(t, cursor.IsZero(), "dry runs never move the cursor")
}

func TestPollFeedUseCase_SkipsWhenLockedByAnotherWorker(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	acquired, err := f.lock.TryAcquire(ctx, 1, "another-worker", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	f.sourceRepo.On("GetByID", mock.Anything, uint(1)).Return(pollSource(t, srv.URL+"/api1/", 0, true), nil)

	result, err := f.uc.Execute(ctx, 1, false)
	require.NoError(t, err)

	assert.True(t, result.Skipped)
	assert.Equal(t, int64(0), hits.Load())
	f.logRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPollFeedUseCase_RequestFailureMarksLogFailed(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	f.sourceRepo.On("GetByID", mock.Anything, uint(1)).Return(pollSource(t, srv.URL+"/api1/", 0, true), nil)
	f.sourceRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.logRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.logRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	result, err := f.uc.Execute(ctx, 1, false)
	require.NoError(t, err)

	assert.Equal(t, vo.StatusFailure, result.Status)
	assert.Equal(t, 0, result.ObjectsRetrieved)
	assert.Contains(t, result.ErrorMessage, "retries exhausted")

	// A failed poll leaves the cursor alone so the window is re-fetched.
	cursor, err := f.cursors.GetCursor(ctx, 1)
	require.NoError(t, err)
	assert.True(t, cursor.IsZero())
}

func TestPollFeedUseCase_InactiveFeedIsRejected(t *testing.T) {
	f := newPollFixture(t)

	f.sourceRepo.On("GetByID", mock.Anything, uint(1)).Return(pollSource(t, "https://taxii.example.org/api1/", 0, false), nil)

	_, err := f.uc.Execute(context.Background(), 1, false)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestPollFeedUseCase_ReleasesLockAfterPoll(t *testing.T) {
	f := newPollFixture(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, taxii.Envelope{}, time.Time{})
	}))
	defer srv.Close()

	f.sourceRepo.On("GetByID", mock.Anything, uint(1)).Return(pollSource(t, srv.URL+"/api1/", 0, true), nil)
	f.sourceRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.logRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.logRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	_, err := f.uc.Execute(ctx, 1, false)
	require.NoError(t, err)

	acquired, err := f.lock.TryAcquire(ctx, 1, "next-worker", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nexoratech/riskvault/internal/cache"
	"github.com/nexoratech/riskvault/internal/engine"
	"github.com/nexoratech/riskvault/internal/models"
)

type fakeFetcher struct {
	events []models.InputEvent
	err    error
	calls  int
}

func (f *fakeFetcher) FetchEvents(context.Context, models.TimeRange) ([]models.InputEvent, error) {
	f.calls++
	return f.events, f.err
}

type fakeStore struct {
	stored []models.AnalysisResult
	err    error
}

func (f *fakeStore) StoreReport(_ context.Context, result models.AnalysisResult) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, result)
	return nil
}

type fakePublisher struct {
	published []models.AnalysisResult
}

func (f *fakePublisher) PublishCritical(result models.AnalysisResult) {
	f.published = append(f.published, result)
}

type memoryCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{store: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.store[key]; ok {
		return append([]byte(nil), v...), nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryCache) SetNX(_ context.Context, key string, value []byte, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[key]; ok {
		return false, nil
	}
	m.store[key] = append([]byte(nil), value...)
	return true, nil
}

func (m *memoryCache) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

func (m *memoryCache) Close() error { return nil }

func newTestService(fetcher EventFetcher, store ReportStore, publisher CriticalPublisher, resultCache cache.Provider, ttl time.Duration) *AnalysisService {
	svc := NewAnalysisService(nil, engine.NewPipeline(nil, nil), models.DefaultTunables(), fetcher, store, publisher, resultCache, ttl)
	id := 0
	svc.newID = func() string {
		id++
		return "report-" + string(rune('0'+id))
	}
	svc.now = func() time.Time { return time.Unix(1_760_000_000, 0).UTC() }
	return svc
}

func inlineRequest() models.AnalysisRequest {
	return models.AnalysisRequest{
		Events: []models.InputEvent{
			{Timestamp: "2025-11-01 09:01:00", EventType: "failed_login", SourceIP: "10.0.0.10"},
			{Timestamp: "2025-11-01 09:01:10", EventType: "failed_login", SourceIP: "10.0.0.10"},
			{Timestamp: "2025-11-01 09:01:20", EventType: "failed_login", SourceIP: "10.0.0.10"},
		},
	}
}

func TestAnalyzeStampsReportIdentity(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil, 0)

	result, err := svc.Analyze(context.Background(), inlineRequest())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.ReportID == "" {
		t.Fatalf("report id not assigned")
	}
	if result.CreatedAt.IsZero() {
		t.Fatalf("created_at not assigned")
	}
	if result.EventCount != 3 {
		t.Fatalf("event count %d, want 3", result.EventCount)
	}
}

func TestAnalyzeFetchesWhenTimeRangeGiven(t *testing.T) {
	fetcher := &fakeFetcher{events: inlineRequest().Events}
	svc := newTestService(fetcher, nil, nil, nil, 0)

	tr := models.TimeRange{Start: time.Unix(0, 0), End: time.Unix(3600, 0)}
	result, err := svc.Analyze(context.Background(), models.AnalysisRequest{TimeRange: &tr})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected one fetch, got %d", fetcher.calls)
	}
	if result.EventCount != 3 {
		t.Fatalf("event count %d, want 3", result.EventCount)
	}
}

func TestAnalyzeTimeRangeWithoutFetcher(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil, 0)

	tr := models.TimeRange{Start: time.Unix(0, 0), End: time.Unix(3600, 0)}
	if _, err := svc.Analyze(context.Background(), models.AnalysisRequest{TimeRange: &tr}); err == nil {
		t.Fatalf("expected error when no normalizer is configured")
	}
}

func TestAnalyzeFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("normalizer down")}
	svc := newTestService(fetcher, nil, nil, nil, 0)

	tr := models.TimeRange{Start: time.Unix(0, 0), End: time.Unix(3600, 0)}
	if _, err := svc.Analyze(context.Background(), models.AnalysisRequest{TimeRange: &tr}); err == nil {
		t.Fatalf("expected fetch error to propagate")
	}
}

func TestAnalyzeMemoizesResults(t *testing.T) {
	svc := newTestService(nil, nil, nil, newMemoryCache(), time.Minute)

	first, err := svc.Analyze(context.Background(), inlineRequest())
	if err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	second, err := svc.Analyze(context.Background(), inlineRequest())
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if first.ReportID != second.ReportID {
		t.Fatalf("memoized run must return the original report, got %s vs %s", first.ReportID, second.ReportID)
	}
}

func TestAnalyzeOverridesChangeCacheKey(t *testing.T) {
	svc := newTestService(nil, nil, nil, newMemoryCache(), time.Minute)

	first, err := svc.Analyze(context.Background(), inlineRequest())
	if err != nil {
		t.Fatalf("first analyze: %v", err)
	}

	threshold := 500
	req := inlineRequest()
	req.Overrides = &models.TunableOverrides{CriticalRPNThreshold: &threshold}
	second, err := svc.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if first.ReportID == second.ReportID {
		t.Fatalf("different tunables must not share a memoized report")
	}
}

func TestAnalyzeArchivesAndPublishes(t *testing.T) {
	store := &fakeStore{}
	publisher := &fakePublisher{}
	svc := newTestService(nil, store, publisher, nil, 0)

	result, err := svc.Analyze(context.Background(), inlineRequest())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(store.stored) != 1 || store.stored[0].ReportID != result.ReportID {
		t.Fatalf("report not archived: %+v", store.stored)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("critical publisher not invoked")
	}
}

func TestAnalyzeArchiveFailureIsNonFatal(t *testing.T) {
	store := &fakeStore{err: errors.New("archive down")}
	svc := newTestService(nil, store, nil, nil, 0)

	if _, err := svc.Analyze(context.Background(), inlineRequest()); err != nil {
		t.Fatalf("archive failure must not fail the analysis: %v", err)
	}
}

func TestAnalyzeStructuralDefectPropagates(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil, 0)

	req := models.AnalysisRequest{Events: []models.InputEvent{
		{Timestamp: "2025-11-01 09:00:00", EventType: "error", SourceIP: ""},
	}}
	var structural *engine.StructuralError
	if _, err := svc.Analyze(context.Background(), req); !errors.As(err, &structural) {
		t.Fatalf("expected structural error, got %v", err)
	}
}

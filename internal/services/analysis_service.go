package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nexoratech/riskvault/internal/cache"
	"github.com/nexoratech/riskvault/internal/engine"
	"github.com/nexoratech/riskvault/internal/metrics"
	"github.com/nexoratech/riskvault/internal/models"
	"github.com/nexoratech/riskvault/internal/patterns"
	"github.com/nexoratech/riskvault/internal/utils"
)

// EventFetcher pulls normalized events for a time range.
type EventFetcher interface {
	FetchEvents(ctx context.Context, tr models.TimeRange) ([]models.InputEvent, error)
}

// ReportStore persists completed reports.
type ReportStore interface {
	StoreReport(ctx context.Context, result models.AnalysisResult) error
}

// CriticalPublisher fans critical summary rows out to subscribers.
type CriticalPublisher interface {
	PublishCritical(result models.AnalysisResult)
}

// AnalysisService orchestrates one analysis: resolve the input events, run the
// engine, stamp report identity, then archive and notify. The engine output is
// a pure function of (inputs, tunables); identity stamping lives here so that
// purity survives memoization.
type AnalysisService struct {
	logger       *slog.Logger
	pipeline     *engine.Pipeline
	fetcher      EventFetcher
	store        ReportStore
	publisher    CriticalPublisher
	resultCache  cache.Provider
	resultsTTL   time.Duration
	baseTunables models.Tunables
	miner        *patterns.Miner
	latencies    *utils.LatencyTracker

	now   func() time.Time
	newID func() string
}

// NewAnalysisService constructs the service facade. fetcher, store, publisher
// and resultCache may each be nil; the corresponding step is skipped.
func NewAnalysisService(logger *slog.Logger, pipeline *engine.Pipeline, baseTunables models.Tunables, fetcher EventFetcher, store ReportStore, publisher CriticalPublisher, resultCache cache.Provider, resultsTTL time.Duration) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	if resultCache == nil {
		resultCache = cache.NoopProvider{}
	}
	return &AnalysisService{
		logger:       logger,
		pipeline:     pipeline,
		fetcher:      fetcher,
		store:        store,
		publisher:    publisher,
		resultCache:  resultCache,
		resultsTTL:   resultsTTL,
		baseTunables: baseTunables,
		miner:        patterns.NewMiner(logger, nil),
		latencies:    utils.NewLatencyTracker(1024),
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
	}
}

// Analyze resolves the request input, runs the engine and returns the stamped
// report. Re-running an identical request within the memoization TTL returns
// the original report, ReportID included.
func (s *AnalysisService) Analyze(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, error) {
	if s.pipeline == nil {
		return models.AnalysisResult{}, fmt.Errorf("pipeline not configured")
	}

	tunables := req.Overrides.Apply(s.baseTunables)

	inputs := req.Events
	if len(inputs) == 0 && req.TimeRange != nil {
		if s.fetcher == nil {
			return models.AnalysisResult{}, fmt.Errorf("time range requested but no normalizer configured")
		}
		s.logger.Debug("fetching events from normalizer",
			slog.Float64("window_seconds", utils.WindowSeconds(req.TimeRange.Start, req.TimeRange.End)))
		fetched, err := s.fetcher.FetchEvents(ctx, *req.TimeRange)
		if err != nil {
			metrics.ObserveAnalysis(0, metrics.OutcomeError)
			return models.AnalysisResult{}, utils.NewAppError("analysis.fetch_events", "normalizer fetch failed", err)
		}
		inputs = fetched
	}

	cacheKey := s.resultKey(inputs, tunables)
	if cacheKey != "" {
		if data, err := s.resultCache.Get(ctx, cacheKey); err == nil {
			var cached models.AnalysisResult
			if err := json.Unmarshal(data, &cached); err == nil {
				s.logger.Debug("analysis served from cache", slog.String("report_id", cached.ReportID))
				return cached, nil
			}
		}
	}

	start := time.Now()
	result, err := s.pipeline.Analyze(ctx, inputs, tunables)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveAnalysis(duration, metrics.OutcomeError)
		s.logger.Error("analysis failed", slog.Any("error", err))
		return models.AnalysisResult{}, err
	}

	result.ReportID = s.newID()
	result.CreatedAt = s.now()

	s.latencies.Observe(duration)
	metrics.ObserveAnalysis(duration, metrics.OutcomeSuccess)
	metrics.CountScoredEvents(result.Events)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("analysis latency",
			slog.Duration("p95", s.latencies.Percentile(95)),
			slog.Duration("avg", s.latencies.Average()),
			slog.Int("samples", count))
	}

	if cacheKey != "" {
		if data, err := json.Marshal(result); err == nil {
			_ = s.resultCache.Set(ctx, cacheKey, data, s.resultsTTL)
		}
	}

	if s.miner != nil {
		if offenders, err := s.miner.Mine(ctx, result.ReportID, result.Events); err == nil && len(offenders) > 0 {
			s.logger.Info("recurring offenders detected",
				slog.String("report_id", result.ReportID),
				slog.Int("offenders", len(offenders)),
				slog.String("top_source", offenders[0].SourceIP))
		}
	}

	if s.store != nil {
		if err := s.store.StoreReport(ctx, result); err != nil {
			s.logger.Warn("report archival failed", slog.String("report_id", result.ReportID), slog.Any("error", err))
		}
	}
	if s.publisher != nil {
		s.publisher.PublishCritical(result)
	}

	return result, nil
}

// LatencyP95 returns the current p95 analysis latency.
func (s *AnalysisService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}

// resultKey digests the fully resolved invocation. An empty key disables
// memoization for the call.
func (s *AnalysisService) resultKey(inputs []models.InputEvent, tunables models.Tunables) string {
	if s.resultsTTL <= 0 {
		return ""
	}
	payload, err := json.Marshal(struct {
		Inputs   []models.InputEvent `json:"inputs"`
		Tunables models.Tunables     `json:"tunables"`
	}{Inputs: inputs, Tunables: tunables})
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return "riskvault:result:" + hex.EncodeToString(sum[:])
}

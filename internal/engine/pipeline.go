package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nexoratech/riskvault/internal/classify"
	"github.com/nexoratech/riskvault/internal/detect"
	"github.com/nexoratech/riskvault/internal/models"
	"github.com/nexoratech/riskvault/internal/utils"
)

// scanMinDestinations is the fixed distinct-destination count that marks a
// source as scanning.
const scanMinDestinations = 3

// StructuralError reports a record missing a required field. Structural
// defects are fatal for the run: the engine refuses to score partial input.
type StructuralError struct {
	Field  string
	Record int
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("record %d: required field %q is missing", e.Record, e.Field)
}

// ConfigError marks a rejected degenerate configuration.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "invalid configuration: " + e.Err.Error() }

func (e *ConfigError) Unwrap() error { return e.Err }

// Pipeline runs one stateless analysis pass: structural validation, event
// construction, pattern detection, risk scoring, classification and
// aggregation. It holds no per-run state, so a single Pipeline serves
// concurrent runs.
type Pipeline struct {
	logger     *slog.Logger
	classifier *classify.Classifier
	actions    *ActionEngine
}

// NewPipeline constructs a Pipeline. actions may be nil (built-in guidance
// only).
func NewPipeline(logger *slog.Logger, actions *ActionEngine) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:     logger,
		classifier: classify.NewClassifier(),
		actions:    actions,
	}
}

// Analyze scores the supplied events under the given tunables and returns the
// full scored sequence plus the per-event-type summary. The output is a pure
// function of (inputs, tunables): re-running the same invocation yields
// identical results.
func (p *Pipeline) Analyze(ctx context.Context, inputs []models.InputEvent, tunables models.Tunables) (models.AnalysisResult, error) {
	if err := tunables.Validate(); err != nil {
		return models.AnalysisResult{}, &ConfigError{Err: err}
	}

	events, classes, err := p.buildEvents(inputs)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	bruteForce := detect.NewBruteForceDetector(
		time.Duration(tunables.BurstWindowSeconds)*time.Second,
		tunables.BurstAttemptThreshold,
	)
	scan := detect.NewScanDetector(scanMinDestinations)
	watchlist := detect.NewWatchlistDetector(tunables.Watchlist)

	// Each detector reads the shared event slice and writes only its own
	// result slice, so the three can run in parallel without locks.
	var (
		bursts      []detect.Burst
		scanFlags   []bool
		watchFlags  []bool
		detectGroup sync.WaitGroup
	)
	detectGroup.Add(3)
	go func() {
		defer detectGroup.Done()
		bursts = bruteForce.Detect(events, classes)
	}()
	go func() {
		defer detectGroup.Done()
		scanFlags = scan.Detect(events, classes)
	}()
	go func() {
		defer detectGroup.Done()
		watchFlags = watchlist.Detect(events)
	}()
	detectGroup.Wait()

	if err := ctx.Err(); err != nil {
		return models.AnalysisResult{}, err
	}

	sourceCounts := make(map[string]int, len(events))
	for _, ev := range events {
		sourceCounts[ev.SourceIP]++
	}

	scorer := NewScorer(tunables.DefaultDetectability)
	riskClassifier := NewRiskClassifier(tunables.CriticalRPNThreshold)

	for i := range events {
		ev := &events[i]
		ev.IsFailedLogin = classes[i].FailedLogin
		ev.BurstCount = bursts[i].Count
		ev.IsBruteForce = bursts[i].Flagged
		ev.IsScan = scanFlags[i]
		ev.IsWatchlisted = watchFlags[i]
		scorer.Score(ev, classes[i], sourceCounts[ev.SourceIP])
		ev.RiskLevel = riskClassifier.Level(ev.RPN)
	}

	aggregator := NewAggregator(riskClassifier, p.actions)
	summary := aggregator.Summarize(events, classes)

	return models.AnalysisResult{
		Events:     events,
		Summary:    summary,
		EventCount: len(events),
	}, nil
}

// buildEvents converts raw records into events, enforcing the structural
// contract (source_ip present on every record) and flagging unparseable
// timestamps per record instead of dropping them.
func (p *Pipeline) buildEvents(inputs []models.InputEvent) ([]models.Event, []classify.Class, error) {
	events := make([]models.Event, len(inputs))
	classes := make([]classify.Class, len(inputs))

	for i, in := range inputs {
		if strings.TrimSpace(in.SourceIP) == "" {
			return nil, nil, &StructuralError{Field: "source_ip", Record: i}
		}

		class := p.classifier.Classify(in.EventType)
		ev := models.Event{
			EventType:     in.EventType,
			SourceIP:      in.SourceIP,
			DestinationIP: in.DestinationIP,
			Username:      in.Username,
			Message:       in.Message,
		}
		if ts, err := utils.ParseTimestamp(in.Timestamp); err == nil {
			ev.Timestamp = ts
			ev.TimestampValid = true
		} else {
			p.logger.Debug("unparseable timestamp, excluding record from windowed analysis",
				slog.Int("record", i), slog.String("value", in.Timestamp))
		}

		events[i] = ev
		classes[i] = class
	}

	return events, classes, nil
}

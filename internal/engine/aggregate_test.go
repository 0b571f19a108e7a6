package engine

import (
	"testing"

	"github.com/nexoratech/riskvault/internal/classify"
	"github.com/nexoratech/riskvault/internal/models"
)

func scoredEvent(eventType, src string, severity, probability, detectability int) models.Event {
	return models.Event{
		EventType:     eventType,
		SourceIP:      src,
		Severity:      severity,
		Probability:   probability,
		Detectability: detectability,
		RPN:           severity * probability * detectability,
	}
}

func summarize(t *testing.T, events []models.Event) []models.EventTypeSummary {
	t.Helper()
	classifier := classify.NewClassifier()
	classes := make([]classify.Class, len(events))
	for i, ev := range events {
		classes[i] = classifier.Classify(ev.EventType)
	}
	aggregator := NewAggregator(NewRiskClassifier(200), nil)
	return aggregator.Summarize(events, classes)
}

func TestAggregatorGroupsAndCounts(t *testing.T) {
	events := []models.Event{
		scoredEvent("failed_login", "10.0.0.10", 8, 5, 5),
		scoredEvent("failed_login", "10.0.0.10", 8, 5, 5),
		scoredEvent("failed_login", "10.0.0.11", 7, 3, 5),
		scoredEvent("conn_attempt", "203.0.113.9", 6, 5, 5),
		scoredEvent("conn_attempt", "203.0.113.9", 7, 5, 5),
	}

	rows := summarize(t, events)
	if len(rows) != 2 {
		t.Fatalf("expected 2 summary rows, got %d", len(rows))
	}

	byType := make(map[string]models.EventTypeSummary, len(rows))
	for _, row := range rows {
		byType[row.EventType] = row
	}

	fl := byType["failed_login"]
	if fl.OccurrenceCount != 3 {
		t.Fatalf("failed_login occurrences %d, want 3", fl.OccurrenceCount)
	}
	if fl.UniqueSourceCount != 2 {
		t.Fatalf("failed_login unique sources %d, want 2", fl.UniqueSourceCount)
	}
	if fl.UniqueSourceCount > fl.OccurrenceCount {
		t.Fatalf("unique sources must never exceed occurrences")
	}
	if fl.Severity != 8 || fl.Probability != 5 || fl.RPN != 200 {
		t.Fatalf("failed_login aggregates should be group maxima: %+v", fl)
	}

	ca := byType["conn_attempt"]
	if ca.OccurrenceCount != 2 || ca.UniqueSourceCount != 1 {
		t.Fatalf("conn_attempt counts wrong: %+v", ca)
	}
}

func TestAggregatorReclassifiesAggregateRPN(t *testing.T) {
	events := []models.Event{
		scoredEvent("error", "10.0.0.1", 8, 3, 5),
		scoredEvent("error", "10.0.0.2", 9, 8, 5),
	}

	rows := summarize(t, events)
	if rows[0].RPN != 360 {
		t.Fatalf("aggregate rpn %d, want 360", rows[0].RPN)
	}
	if rows[0].RiskLevel != models.RiskCritical {
		t.Fatalf("aggregate rpn 360 > 200 must classify critical, got %s", rows[0].RiskLevel)
	}
}

func TestAggregatorSuggestedActions(t *testing.T) {
	events := []models.Event{
		scoredEvent("failed_login", "a", 7, 3, 5),
		scoredEvent("portscan", "b", 6, 3, 5),
		scoredEvent("process_crash", "c", 9, 3, 5),
		scoredEvent("info", "d", 3, 3, 5),
	}

	rows := summarize(t, events)
	actions := make(map[string]string, len(rows))
	for _, row := range rows {
		actions[row.EventType] = row.SuggestedAction
	}

	if actions["failed_login"] != builtinActions[classify.ActionAccount] {
		t.Fatalf("failed_login action %q", actions["failed_login"])
	}
	if actions["portscan"] != builtinActions[classify.ActionNetwork] {
		t.Fatalf("portscan action %q", actions["portscan"])
	}
	if actions["process_crash"] != builtinActions[classify.ActionService] {
		t.Fatalf("process_crash action %q", actions["process_crash"])
	}
	if actions["info"] != builtinActions[classify.ActionMonitor] {
		t.Fatalf("info action %q", actions["info"])
	}
}

func TestAggregatorDeterministicOrder(t *testing.T) {
	events := []models.Event{
		scoredEvent("warning", "a", 6, 3, 5),
		scoredEvent("error", "b", 8, 5, 5),
		scoredEvent("info", "c", 3, 3, 5),
	}

	rows := summarize(t, events)
	for i := 1; i < len(rows); i++ {
		if rows[i].RPN > rows[i-1].RPN {
			t.Fatalf("summary not sorted by rpn descending")
		}
	}
}

func TestAggregatorMergesCaseVariants(t *testing.T) {
	events := []models.Event{
		scoredEvent("Failed_Login", "a", 7, 3, 5),
		scoredEvent("failed_login", "b", 7, 3, 5),
	}

	rows := summarize(t, events)
	if len(rows) != 1 {
		t.Fatalf("case variants of one type must share a row, got %d rows", len(rows))
	}
	if rows[0].EventType != "failed_login" {
		t.Fatalf("summary key should be the normalized type, got %q", rows[0].EventType)
	}
}

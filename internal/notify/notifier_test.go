package notify

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nexoratech/riskvault/internal/models"
)

type fakePublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func sampleResult() models.AnalysisResult {
	return models.AnalysisResult{
		ReportID: "report-1",
		Summary: []models.EventTypeSummary{
			{EventType: "failed_login", RPN: 360, RiskLevel: models.RiskCritical, OccurrenceCount: 12, SuggestedAction: "Lock account"},
			{EventType: "info", RPN: 45, RiskLevel: models.RiskLow, OccurrenceCount: 3},
		},
	}
}

func TestPublishCriticalFiltersLevels(t *testing.T) {
	pub := &fakePublisher{}
	n := &Notifier{conn: pub, subject: "riskvault.summary.critical"}

	n.PublishCritical(sampleResult())

	if len(pub.payloads) != 1 {
		t.Fatalf("expected one critical message, got %d", len(pub.payloads))
	}
	if pub.subjects[0] != "riskvault.summary.critical" {
		t.Fatalf("unexpected subject %q", pub.subjects[0])
	}

	var msg CriticalSummary
	if err := json.Unmarshal(pub.payloads[0], &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if msg.ReportID != "report-1" || msg.EventType != "failed_login" || msg.RPN != 360 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestPublishCriticalAbsorbsFailures(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	n := &Notifier{conn: pub, subject: "riskvault.summary.critical"}

	// Must not panic or propagate the broker error.
	n.PublishCritical(sampleResult())
}

func TestPublishCriticalNilNotifier(t *testing.T) {
	var n *Notifier
	n.PublishCritical(sampleResult())
}

package patterns

import (
	"context"
	"testing"
	"time"

	"github.com/nexoratech/riskvault/internal/models"
)

type fakeOffenderStore struct {
	stored int
}

func (f *fakeOffenderStore) StoreOffenders(_ context.Context, _ string, offenders []OffenderPattern) error {
	f.stored += len(offenders)
	return nil
}

func TestMinerFlagsRecurringOffenders(t *testing.T) {
	store := &fakeOffenderStore{}
	miner := NewMiner(nil, store)

	now := time.Now()
	events := []models.Event{
		{SourceIP: "10.0.0.10", Timestamp: now, TimestampValid: true, IsBruteForce: true, RPN: 200, RiskLevel: models.RiskModerate},
		{SourceIP: "10.0.0.10", Timestamp: now.Add(time.Minute), TimestampValid: true, IsBruteForce: true, RPN: 280, RiskLevel: models.RiskCritical},
		{SourceIP: "203.0.113.9", Timestamp: now, TimestampValid: true, IsScan: true, IsWatchlisted: true, RPN: 210, RiskLevel: models.RiskCritical},
		{SourceIP: "10.0.0.99", Timestamp: now, TimestampValid: true, RPN: 45, RiskLevel: models.RiskLow},
	}

	offenders, err := miner.Mine(context.Background(), "report-1", events)
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if len(offenders) != 2 {
		t.Fatalf("expected 2 offenders, got %d: %+v", len(offenders), offenders)
	}
	if offenders[0].SourceIP != "10.0.0.10" || offenders[0].MaxRPN != 280 {
		t.Fatalf("offenders not sorted by max rpn: %+v", offenders)
	}
	if offenders[0].CriticalEvents != 1 || offenders[0].EventCount != 2 {
		t.Fatalf("unexpected counts: %+v", offenders[0])
	}
	if len(offenders[1].Behaviors) != 2 {
		t.Fatalf("scan+watchlist source should carry both behaviors: %+v", offenders[1])
	}
	if store.stored != 2 {
		t.Fatalf("expected offenders to be stored, got %d", store.stored)
	}
}

func TestMinerIgnoresQuietSources(t *testing.T) {
	miner := NewMiner(nil, nil)

	events := []models.Event{
		{SourceIP: "10.0.0.1", RPN: 90, RiskLevel: models.RiskLow},
		{SourceIP: "10.0.0.2", RPN: 150, RiskLevel: models.RiskModerate},
	}

	offenders, err := miner.Mine(context.Background(), "report-1", events)
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if len(offenders) != 0 {
		t.Fatalf("unflagged sources must not be reported: %+v", offenders)
	}
}

func TestMinerEmptyInput(t *testing.T) {
	miner := NewMiner(nil, nil)
	offenders, err := miner.Mine(context.Background(), "report-1", nil)
	if err != nil || offenders != nil {
		t.Fatalf("empty input should yield nothing, got %v %v", offenders, err)
	}
}

package engine

import (
	"github.com/nexoratech/riskvault/internal/classify"
	"github.com/nexoratech/riskvault/internal/models"
)

// Severity domain is 1-9 inclusive; escalations never push past the cap.
const severityCap = 9

const (
	bruteForceSeverityFloor = 8
	scanSeverityFloor       = 7
	watchlistSeverityFloor  = 8
)

// Scorer derives the AMDEC triplet (Severity, Probability, Detectability) and
// the resulting RPN for each event. It reads detector flags already merged
// onto the event and writes the score fields exactly once.
type Scorer struct {
	defaultDetectability int
}

// NewScorer constructs a Scorer using the operator-supplied detectability
// (clamped to [1,10], default 5). Detectability is constant per run today;
// per-event overrides would slot in here.
func NewScorer(defaultDetectability int) *Scorer {
	if defaultDetectability < 1 || defaultDetectability > 10 {
		defaultDetectability = 5
	}
	return &Scorer{defaultDetectability: defaultDetectability}
}

// Score fills Severity, Probability, Detectability and RPN. sourceCount is
// the total number of events the source produced across the whole input.
func (s *Scorer) Score(ev *models.Event, class classify.Class, sourceCount int) {
	severity := class.BaseSeverity
	if ev.IsBruteForce && severity < bruteForceSeverityFloor {
		severity = bruteForceSeverityFloor
	}
	if ev.IsScan && severity < scanSeverityFloor {
		severity = scanSeverityFloor
	}
	if ev.IsWatchlisted && severity < watchlistSeverityFloor {
		severity = watchlistSeverityFloor
	}
	if severity > severityCap {
		severity = severityCap
	}

	ev.Severity = severity
	ev.Probability = probabilityBucket(sourceCount)
	ev.Detectability = s.defaultDetectability
	ev.RPN = ev.Severity * ev.Probability * ev.Detectability
}

// probabilityBucket maps a source's total occurrence count to the discrete
// probability scores {3, 5, 8}.
func probabilityBucket(count int) int {
	switch {
	case count >= 10:
		return 8
	case count >= 3:
		return 5
	default:
		return 3
	}
}

package patterns

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/nexoratech/riskvault/internal/models"
)

// Store abstracts persistence for mined offender patterns.
type Store interface {
	StoreOffenders(ctx context.Context, reportID string, offenders []OffenderPattern) error
}

// OffenderPattern summarises one source IP that keeps showing up in risky
// events within a report.
type OffenderPattern struct {
	SourceIP       string    `json:"source_ip"`
	EventCount     int       `json:"event_count"`
	Behaviors      []string  `json:"behaviors"`
	MaxRPN         int       `json:"max_rpn"`
	CriticalEvents int       `json:"critical_events"`
	LastSeen       time.Time `json:"last_seen"`
}

// Miner derives recurring-offender patterns from a scored event sequence.
type Miner struct {
	store  Store
	logger *slog.Logger
}

// NewMiner constructs a Miner; store may be nil for dry runs.
func NewMiner(logger *slog.Logger, store Store) *Miner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Miner{store: store, logger: logger}
}

// Mine aggregates per-source behaviour and returns the sources that exhibit
// at least one detected pattern or a critical event. Results are sorted by
// max RPN descending so the worst offender comes first.
func (m *Miner) Mine(ctx context.Context, reportID string, events []models.Event) ([]OffenderPattern, error) {
	if len(events) == 0 {
		return nil, nil
	}

	stats := make(map[string]*sourceAggregate)
	for _, ev := range events {
		agg := ensureAggregate(stats, ev.SourceIP)
		agg.count++
		if ev.RPN > agg.maxRPN {
			agg.maxRPN = ev.RPN
		}
		if ev.RiskLevel == models.RiskCritical {
			agg.criticalCount++
		}
		if ev.TimestampValid && ev.Timestamp.After(agg.lastSeen) {
			agg.lastSeen = ev.Timestamp
		}
		if ev.IsBruteForce {
			agg.behaviors["brute_force"] = struct{}{}
		}
		if ev.IsScan {
			agg.behaviors["scan"] = struct{}{}
		}
		if ev.IsWatchlisted {
			agg.behaviors["watchlist"] = struct{}{}
		}
	}

	offenders := make([]OffenderPattern, 0, len(stats))
	for source, agg := range stats {
		if len(agg.behaviors) == 0 && agg.criticalCount == 0 {
			continue
		}
		behaviors := make([]string, 0, len(agg.behaviors))
		for b := range agg.behaviors {
			behaviors = append(behaviors, b)
		}
		sort.Strings(behaviors)
		offenders = append(offenders, OffenderPattern{
			SourceIP:       source,
			EventCount:     agg.count,
			Behaviors:      behaviors,
			MaxRPN:         agg.maxRPN,
			CriticalEvents: agg.criticalCount,
			LastSeen:       agg.lastSeen,
		})
	}

	sort.Slice(offenders, func(i, j int) bool {
		if offenders[i].MaxRPN != offenders[j].MaxRPN {
			return offenders[i].MaxRPN > offenders[j].MaxRPN
		}
		return offenders[i].SourceIP < offenders[j].SourceIP
	})

	if m.store != nil && len(offenders) > 0 {
		if err := m.store.StoreOffenders(ctx, reportID, offenders); err != nil {
			m.logger.Warn("offender store failed", slog.Any("error", err))
		}
	}

	return offenders, nil
}

type sourceAggregate struct {
	count         int
	maxRPN        int
	criticalCount int
	lastSeen      time.Time
	behaviors     map[string]struct{}
}

func ensureAggregate(m map[string]*sourceAggregate, source string) *sourceAggregate {
	agg, ok := m[source]
	if !ok {
		agg = &sourceAggregate{behaviors: make(map[string]struct{})}
		m[source] = agg
	}
	return agg
}

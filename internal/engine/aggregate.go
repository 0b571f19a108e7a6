package engine

import (
	"sort"

	"github.com/nexoratech/riskvault/internal/classify"
	"github.com/nexoratech/riskvault/internal/models"
)

// Aggregator rolls scored events up into one summary row per event type.
//
// Aggregation strategy: the group MAXIMUM of Severity, Probability,
// Detectability and RPN, applied consistently to all four fields. The summary
// answers "how bad can this event type get", so the hottest event in the
// group defines the row.
type Aggregator struct {
	classifier *RiskClassifier
	actions    *ActionEngine
}

// NewAggregator constructs an Aggregator re-using the run's risk classifier
// for the aggregate RPN and the action engine for remediation text.
func NewAggregator(classifier *RiskClassifier, actions *ActionEngine) *Aggregator {
	if classifier == nil {
		classifier = NewRiskClassifier(0)
	}
	return &Aggregator{classifier: classifier, actions: actions}
}

type typeGroup struct {
	summary models.EventTypeSummary
	sources map[string]struct{}
	action  classify.ActionKey
}

// Summarize groups events by normalized event type and emits rows sorted by
// aggregate RPN descending, event type ascending on ties. The sort keeps the
// output deterministic; callers are free to re-order for presentation.
func (a *Aggregator) Summarize(events []models.Event, classes []classify.Class) []models.EventTypeSummary {
	groups := make(map[string]*typeGroup)

	for i, ev := range events {
		key := classes[i].Key
		group, ok := groups[key]
		if !ok {
			group = &typeGroup{
				summary: models.EventTypeSummary{EventType: key},
				sources: make(map[string]struct{}),
				action:  classes[i].Action,
			}
			groups[key] = group
		}
		group.summary.OccurrenceCount++
		group.sources[ev.SourceIP] = struct{}{}
		if ev.Severity > group.summary.Severity {
			group.summary.Severity = ev.Severity
		}
		if ev.Probability > group.summary.Probability {
			group.summary.Probability = ev.Probability
		}
		if ev.Detectability > group.summary.Detectability {
			group.summary.Detectability = ev.Detectability
		}
		if ev.RPN > group.summary.RPN {
			group.summary.RPN = ev.RPN
		}
	}

	rows := make([]models.EventTypeSummary, 0, len(groups))
	for key, group := range groups {
		row := group.summary
		row.UniqueSourceCount = len(group.sources)
		row.RiskLevel = a.classifier.Level(row.RPN)
		row.SuggestedAction = a.actions.Suggest(key, group.action)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].RPN != rows[j].RPN {
			return rows[i].RPN > rows[j].RPN
		}
		return rows[i].EventType < rows[j].EventType
	})

	return rows
}

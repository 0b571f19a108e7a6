// Package notify publishes critical summary rows to NATS so downstream
// responders can react without polling the report archive.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nexoratech/riskvault/internal/models"
)

// publisher is the slice of the NATS connection the notifier uses.
type publisher interface {
	Publish(subject string, data []byte) error
}

// Notifier emits one message per critical summary row. Publish failures are
// logged and absorbed so notification problems never fail an analysis.
type Notifier struct {
	logger  *slog.Logger
	conn    publisher
	subject string
	closer  func()
}

// CriticalSummary is the wire shape of one published message.
type CriticalSummary struct {
	ReportID        string    `json:"report_id"`
	EventType       string    `json:"event_type"`
	RPN             int       `json:"rpn"`
	OccurrenceCount int       `json:"occurrence_count"`
	SuggestedAction string    `json:"suggested_action"`
	CreatedAt       time.Time `json:"created_at"`
}

// New connects to the NATS server at url. Connection failure is returned so
// the caller can decide whether to boot without notifications.
func New(url, subject string, logger *slog.Logger) (*Notifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if subject == "" {
		return nil, fmt.Errorf("notify subject is required")
	}
	conn, err := nats.Connect(url,
		nats.Name("riskvault"),
		nats.Timeout(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Notifier{
		logger:  logger,
		conn:    conn,
		subject: subject,
		closer:  conn.Close,
	}, nil
}

// PublishCritical sends one message per critical row in the result summary.
func (n *Notifier) PublishCritical(result models.AnalysisResult) {
	if n == nil || n.conn == nil {
		return
	}
	logger := n.logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, row := range result.Summary {
		if row.RiskLevel != models.RiskCritical {
			continue
		}
		msg := CriticalSummary{
			ReportID:        result.ReportID,
			EventType:       row.EventType,
			RPN:             row.RPN,
			OccurrenceCount: row.OccurrenceCount,
			SuggestedAction: row.SuggestedAction,
			CreatedAt:       result.CreatedAt,
		}
		data, err := json.Marshal(msg)
		if err != nil {
			logger.Warn("marshal critical summary failed", "event_type", row.EventType, "error", err)
			continue
		}
		if err := n.conn.Publish(n.subject, data); err != nil {
			logger.Warn("publish critical summary failed", "event_type", row.EventType, "error", err)
		}
	}
}

// Close drains the underlying connection.
func (n *Notifier) Close() {
	if n != nil && n.closer != nil {
		n.closer()
	}
}

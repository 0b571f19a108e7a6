package models

import "time"

// InputEvent is one normalized record as delivered by the normalizer
// collaborator. Timestamp stays a string until the engine parses it, so an
// unparseable value can be surfaced as a per-record defect instead of being
// dropped during decoding.
type InputEvent struct {
	Timestamp     string `json:"timestamp"`
	EventType     string `json:"event_type"`
	SourceIP      string `json:"source_ip"`
	DestinationIP string `json:"destination_ip,omitempty"`
	Username      string `json:"username,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Event is a scored security log entry. The derived fields below the input
// block are written exactly once during an analysis run and never mutated
// afterwards.
type Event struct {
	Timestamp      time.Time `json:"timestamp"`
	TimestampValid bool      `json:"timestamp_valid"`
	EventType      string    `json:"event_type"`
	SourceIP       string    `json:"source_ip"`
	DestinationIP  string    `json:"destination_ip,omitempty"`
	Username       string    `json:"username,omitempty"`
	Message        string    `json:"message,omitempty"`

	IsFailedLogin bool `json:"is_failed_login"`
	BurstCount    int  `json:"burst_count"`
	IsBruteForce  bool `json:"is_brute_force"`
	IsScan        bool `json:"is_scan"`
	IsWatchlisted bool `json:"is_watchlisted"`

	Severity      int       `json:"severity"`
	Probability   int       `json:"probability"`
	Detectability int       `json:"detectability"`
	RPN           int       `json:"rpn"`
	RiskLevel     RiskLevel `json:"risk_level"`
}

// RiskLevel is the discrete band derived from an RPN.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskCritical RiskLevel = "critical"
)

// EventTypeSummary is one aggregated row per distinct event type. Severity,
// Probability, Detectability and RPN hold the group maximum; the max strategy
// is applied consistently to all four fields.
type EventTypeSummary struct {
	EventType         string    `json:"event_type"`
	Severity          int       `json:"severity"`
	Probability       int       `json:"probability"`
	Detectability     int       `json:"detectability"`
	RPN               int       `json:"rpn"`
	UniqueSourceCount int       `json:"unique_source_count"`
	OccurrenceCount   int       `json:"occurrence_count"`
	RiskLevel         RiskLevel `json:"risk_level"`
	SuggestedAction   string    `json:"suggested_action"`
}

// Fields renders the event as a flat field→value row for tabular consumers.
func (e Event) Fields() map[string]any {
	return map[string]any{
		"timestamp":       e.Timestamp,
		"timestamp_valid": e.TimestampValid,
		"event_type":      e.EventType,
		"source_ip":       e.SourceIP,
		"destination_ip":  e.DestinationIP,
		"username":        e.Username,
		"message":         e.Message,
		"is_failed_login": e.IsFailedLogin,
		"burst_count":     e.BurstCount,
		"is_brute_force":  e.IsBruteForce,
		"is_scan":         e.IsScan,
		"is_watchlisted":  e.IsWatchlisted,
		"severity":        e.Severity,
		"probability":     e.Probability,
		"detectability":   e.Detectability,
		"rpn":             e.RPN,
		"risk_level":      string(e.RiskLevel),
	}
}

// Fields renders the summary row as a flat field→value map.
func (s EventTypeSummary) Fields() map[string]any {
	return map[string]any{
		"event_type":          s.EventType,
		"severity":            s.Severity,
		"probability":         s.Probability,
		"detectability":       s.Detectability,
		"rpn":                 s.RPN,
		"unique_source_count": s.UniqueSourceCount,
		"occurrence_count":    s.OccurrenceCount,
		"risk_level":          string(s.RiskLevel),
		"suggested_action":    s.SuggestedAction,
	}
}

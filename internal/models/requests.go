package models

import "time"

// AnalysisRequest describes one engine invocation. Either Events is supplied
// inline or TimeRange selects a window to fetch from the normalizer.
type AnalysisRequest struct {
	Events    []InputEvent      `json:"events,omitempty"`
	TimeRange *TimeRange        `json:"time_range,omitempty"`
	Overrides *TunableOverrides `json:"overrides,omitempty"`
}

// TimeRange bounds a normalizer fetch.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AnalysisResult is the full output of one run: every scored event plus the
// per-event-type summary table, sorted by aggregate RPN descending.
type AnalysisResult struct {
	ReportID   string             `json:"report_id"`
	Events     []Event            `json:"events"`
	Summary    []EventTypeSummary `json:"summary"`
	EventCount int                `json:"event_count"`
	CreatedAt  time.Time          `json:"created_at"`
}

package detect

import (
	"strings"

	"github.com/nexoratech/riskvault/internal/models"
)

// WatchlistDetector marks events whose source appears on a static,
// operator-supplied list of known-bad identifiers. Pure set membership, no
// state beyond the list itself.
type WatchlistDetector struct {
	entries map[string]struct{}
}

// NewWatchlistDetector builds a detector from the configured identifiers.
// Entries are trimmed; empty entries are ignored.
func NewWatchlistDetector(watchlist []string) *WatchlistDetector {
	entries := make(map[string]struct{}, len(watchlist))
	for _, entry := range watchlist {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		entries[entry] = struct{}{}
	}
	return &WatchlistDetector{entries: entries}
}

// Detect returns an index-aligned slice marking events from watchlisted
// sources.
func (d *WatchlistDetector) Detect(events []models.Event) []bool {
	results := make([]bool, len(events))
	if len(d.entries) == 0 {
		return results
	}
	for i, ev := range events {
		_, results[i] = d.entries[ev.SourceIP]
	}
	return results
}

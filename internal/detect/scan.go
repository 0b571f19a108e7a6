package detect

import (
	"github.com/nexoratech/riskvault/internal/classify"
	"github.com/nexoratech/riskvault/internal/models"
)

// ScanDetector spots reconnaissance: one source probing several distinct
// destinations. The count runs over the entire input, not a time window; a
// source touching enough distinct hosts is treated as scanning regardless of
// pacing.
type ScanDetector struct {
	minDestinations int
}

// NewScanDetector constructs a detector requiring minDestinations distinct
// destination IPs (default 3).
func NewScanDetector(minDestinations int) *ScanDetector {
	if minDestinations <= 0 {
		minDestinations = 3
	}
	return &ScanDetector{minDestinations: minDestinations}
}

// Detect counts the distinct non-empty destination IPs each source contacted
// across its connection/scan events, then flags every event belonging to a
// source that met the minimum. The flag is source-level on purpose: once a
// source is scanning, all of its traffic in the batch is suspect.
func (d *ScanDetector) Detect(events []models.Event, classes []classify.Class) []bool {
	destinations := make(map[string]map[string]struct{})
	for i, ev := range events {
		if !classes[i].ScanEligible || ev.DestinationIP == "" {
			continue
		}
		set, ok := destinations[ev.SourceIP]
		if !ok {
			set = make(map[string]struct{})
			destinations[ev.SourceIP] = set
		}
		set[ev.DestinationIP] = struct{}{}
	}

	flagged := make(map[string]struct{}, len(destinations))
	for src, set := range destinations {
		if len(set) >= d.minDestinations {
			flagged[src] = struct{}{}
		}
	}

	results := make([]bool, len(events))
	for i, ev := range events {
		_, results[i] = flagged[ev.SourceIP]
	}
	return results
}

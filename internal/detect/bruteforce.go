package detect

import (
	"sort"
	"time"

	"github.com/nexoratech/riskvault/internal/classify"
	"github.com/nexoratech/riskvault/internal/models"
)

// Burst is the brute-force detector's per-event verdict.
type Burst struct {
	Count   int
	Flagged bool
}

// BruteForceDetector flags failed-login bursts from a single source within a
// trailing time window.
type BruteForceDetector struct {
	window    time.Duration
	threshold int
}

// NewBruteForceDetector constructs a detector with the given window and
// attempt threshold (defaults 60s / 3 when out of range).
func NewBruteForceDetector(window time.Duration, threshold int) *BruteForceDetector {
	if window <= 0 {
		window = 60 * time.Second
	}
	if threshold < 2 {
		threshold = 3
	}
	return &BruteForceDetector{window: window, threshold: threshold}
}

// Detect computes, for every failed-login event with a valid timestamp, the
// number of failed logins its source produced in the closed interval
// [t-window, t], the event itself included. Each event reports its own local
// burst intensity so the scorer can escalate at the point of detection, not
// only at the end of a burst. Events that are not failed logins, or whose
// timestamp did not parse, keep a zero count and are never flagged.
//
// The result slice is index-aligned with the input; the detector writes only
// into it and never touches the events, so source groups are safe to process
// concurrently by the caller.
func (d *BruteForceDetector) Detect(events []models.Event, classes []classify.Class) []Burst {
	results := make([]Burst, len(events))

	groups := make(map[string][]int)
	for i, ev := range events {
		if !classes[i].FailedLogin || !ev.TimestampValid {
			continue
		}
		groups[ev.SourceIP] = append(groups[ev.SourceIP], i)
	}

	for _, idxs := range groups {
		sort.SliceStable(idxs, func(a, b int) bool {
			return events[idxs[a]].Timestamp.Before(events[idxs[b]].Timestamp)
		})

		// Sweep the sorted per-source sequence with two trailing pointers:
		// lo is the first index inside [t-window, t], up the last index with
		// timestamp <= t. Both only move forward, so each source costs
		// O(n log n) for the sort, O(n) for the scan. Extending up past hi
		// matters when several attempts share a timestamp: every event in a
		// tie must see the full tied group, not just its predecessors.
		lo, up := 0, 0
		for hi, idx := range idxs {
			at := events[idx].Timestamp
			cutoff := at.Add(-d.window)
			for events[idxs[lo]].Timestamp.Before(cutoff) {
				lo++
			}
			if up < hi {
				up = hi
			}
			for up+1 < len(idxs) && !events[idxs[up+1]].Timestamp.After(at) {
				up++
			}
			count := up - lo + 1
			results[idx] = Burst{Count: count, Flagged: count >= d.threshold}
		}
	}

	return results
}

package models

import "fmt"

// Tunables are the operator-set thresholds for one analysis run. They are
// supplied once per run and read-only from then on; no engine component
// mutates them.
type Tunables struct {
	DefaultDetectability  int      `json:"default_detectability" yaml:"defaultDetectability"`
	CriticalRPNThreshold  int      `json:"critical_rpn_threshold" yaml:"criticalRPNThreshold"`
	BurstWindowSeconds    int      `json:"burst_window_seconds" yaml:"burstWindowSeconds"`
	BurstAttemptThreshold int      `json:"burst_attempt_threshold" yaml:"burstAttemptThreshold"`
	Watchlist             []string `json:"watchlist,omitempty" yaml:"watchlist"`
}

// DefaultTunables returns the documented defaults (mirroring the operator UI
// defaults of the normalizer/dashboard collaborators).
func DefaultTunables() Tunables {
	return Tunables{
		DefaultDetectability:  5,
		CriticalRPNThreshold:  200,
		BurstWindowSeconds:    60,
		BurstAttemptThreshold: 3,
	}
}

// Validate rejects tunables outside their documented ranges. A critical RPN
// threshold below 100 would collapse the moderate band, so it is refused
// rather than silently producing degenerate classifications.
func (t Tunables) Validate() error {
	if t.DefaultDetectability < 1 || t.DefaultDetectability > 10 {
		return fmt.Errorf("default_detectability %d outside [1,10]", t.DefaultDetectability)
	}
	if t.CriticalRPNThreshold < 100 || t.CriticalRPNThreshold > 1000 {
		return fmt.Errorf("critical_rpn_threshold %d outside [100,1000]", t.CriticalRPNThreshold)
	}
	if t.BurstWindowSeconds < 10 || t.BurstWindowSeconds > 300 {
		return fmt.Errorf("burst_window_seconds %d outside [10,300]", t.BurstWindowSeconds)
	}
	if t.BurstAttemptThreshold < 2 || t.BurstAttemptThreshold > 50 {
		return fmt.Errorf("burst_attempt_threshold %d outside [2,50]", t.BurstAttemptThreshold)
	}
	return nil
}

// TunableOverrides carries optional per-request replacements for individual
// tunables. Nil fields keep the configured value.
type TunableOverrides struct {
	DefaultDetectability  *int     `json:"default_detectability,omitempty"`
	CriticalRPNThreshold  *int     `json:"critical_rpn_threshold,omitempty"`
	BurstWindowSeconds    *int     `json:"burst_window_seconds,omitempty"`
	BurstAttemptThreshold *int     `json:"burst_attempt_threshold,omitempty"`
	Watchlist             []string `json:"watchlist,omitempty"`
}

// Apply layers the overrides on top of base and returns the result.
func (o *TunableOverrides) Apply(base Tunables) Tunables {
	if o == nil {
		return base
	}
	if o.DefaultDetectability != nil {
		base.DefaultDetectability = *o.DefaultDetectability
	}
	if o.CriticalRPNThreshold != nil {
		base.CriticalRPNThreshold = *o.CriticalRPNThreshold
	}
	if o.BurstWindowSeconds != nil {
		base.BurstWindowSeconds = *o.BurstWindowSeconds
	}
	if o.BurstAttemptThreshold != nil {
		base.BurstAttemptThreshold = *o.BurstAttemptThreshold
	}
	if o.Watchlist != nil {
		base.Watchlist = append([]string(nil), o.Watchlist...)
	}
	return base
}

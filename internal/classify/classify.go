package classify

import (
	"strings"
	"sync"
)

// ActionKey selects which remediation guidance an event type maps to.
type ActionKey string

const (
	// ActionAccount covers credential abuse (failed logins, lockouts).
	ActionAccount ActionKey = "account"
	// ActionNetwork covers connection attempts and scanning.
	ActionNetwork ActionKey = "network"
	// ActionService covers crashes and critical service faults.
	ActionService ActionKey = "service"
	// ActionMonitor is the fallback guidance for everything else.
	ActionMonitor ActionKey = "monitor"
)

// Class is everything the engine derives from an event_type string: base
// severity for the risk scorer, detector eligibility, and the suggested-action
// category. Severity lookup, detector gating and action selection all read
// from the same Class so the substring rules live in exactly one place.
type Class struct {
	// Key is the normalized (lower-cased, trimmed) event type. Empty input
	// normalizes to "unknown".
	Key          string
	BaseSeverity int
	FailedLogin  bool
	ScanEligible bool
	Action       ActionKey
}

// baseSeverity maps known event types to their AMDEC severity base. Types not
// listed here score the unmatched default of 5; that is the designed-for path
// for free-text categories, never an error.
var baseSeverity = map[string]int{
	"critical":      9,
	"process_crash": 9,
	"error":         8,
	"failed_login":  7,
	"conn_attempt":  6,
	"warning":       6,
	"info":          3,
	"success":       2,
}

const unmatchedSeverity = 5

// failedLoginVocabulary flags event types that feed the brute-force window.
var failedLoginVocabulary = []string{"failed_login", "failed_auth", "login_failed"}

// scanVocabulary flags event types that feed the scan detector's
// distinct-destination count.
var scanVocabulary = []string{"conn", "scan", "portscan"}

// actionRules is an ordered (pattern, action) list; the first rule whose
// keywords match wins.
var actionRules = []struct {
	keywords []string
	action   ActionKey
}{
	{keywords: []string{"failed", "login"}, action: ActionAccount},
	{keywords: []string{"conn", "scan"}, action: ActionNetwork},
	{keywords: []string{"process", "critical"}, action: ActionService},
}

// Classifier resolves event types to their Class, caching the result per
// distinct type so repeated substring checks are paid once per vocabulary
// word, not once per event.
type Classifier struct {
	mu    sync.RWMutex
	cache map[string]Class
}

// NewClassifier constructs an empty Classifier.
func NewClassifier() *Classifier {
	return &Classifier{cache: make(map[string]Class)}
}

// Classify returns the Class for the given raw event type.
func (c *Classifier) Classify(eventType string) Class {
	key := Normalize(eventType)

	c.mu.RLock()
	class, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return class
	}

	class = compute(key)
	c.mu.Lock()
	c.cache[key] = class
	c.mu.Unlock()
	return class
}

// Normalize lower-cases and trims an event type; empty values become
// "unknown" so they have a stable aggregation key.
func Normalize(eventType string) string {
	key := strings.ToLower(strings.TrimSpace(eventType))
	if key == "" {
		return "unknown"
	}
	return key
}

func compute(key string) Class {
	class := Class{
		Key:          key,
		BaseSeverity: unmatchedSeverity,
		Action:       ActionMonitor,
	}
	if sev, ok := baseSeverity[key]; ok {
		class.BaseSeverity = sev
	}
	class.FailedLogin = containsAny(key, failedLoginVocabulary)
	class.ScanEligible = containsAny(key, scanVocabulary)
	for _, rule := range actionRules {
		if containsAny(key, rule.keywords) {
			class.Action = rule.action
			break
		}
	}
	return class
}

func containsAny(value string, words []string) bool {
	for _, w := range words {
		if strings.Contains(value, w) {
			return true
		}
	}
	return false
}

package engine

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nexoratech/riskvault/internal/classify"
)

// builtinActions is the default remediation guidance per action category.
var builtinActions = map[classify.ActionKey]string{
	classify.ActionAccount: "Lock account / Investigate source IP / Enforce MFA",
	classify.ActionNetwork: "Block IP / Add firewall rule / Review threat intel",
	classify.ActionService: "Investigate service / Patch / Restore from backup",
	classify.ActionMonitor: "Monitor / Investigate",
}

// ActionEngine resolves suggested remediation text for summary rows. An
// optional YAML action pack supplies ordered keyword rules that take priority
// over the built-in table; the built-ins always remain as the fallback.
type ActionEngine struct {
	rules  []ActionRule
	logger *slog.Logger
}

// ActionRule is one pack entry: the first rule whose keywords appear in the
// event type wins.
type ActionRule struct {
	ID       string   `yaml:"id"`
	Contains []string `yaml:"contains"`
	Action   string   `yaml:"action"`
}

// ActionPackFile is the YAML root structure.
type ActionPackFile struct {
	Rules []ActionRule `yaml:"rules"`
}

// NewActionEngine loads an action pack from path. An empty or missing path
// yields an engine serving only the built-in guidance.
func NewActionEngine(path string, logger *slog.Logger) (*ActionEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	engine := &ActionEngine{logger: logger}
	if path == "" {
		return engine, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return engine, nil
		}
		return nil, err
	}
	var pack ActionPackFile
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, err
	}
	engine.rules = pack.Rules
	return engine, nil
}

// Suggest returns the remediation text for a normalized event type and its
// action category. Safe on a nil receiver (built-ins only).
func (e *ActionEngine) Suggest(eventType string, key classify.ActionKey) string {
	if e != nil {
		for _, rule := range e.rules {
			if rule.Action == "" {
				continue
			}
			for _, kw := range rule.Contains {
				if kw != "" && strings.Contains(eventType, strings.ToLower(kw)) {
					return rule.Action
				}
			}
		}
	}
	if action, ok := builtinActions[key]; ok {
		return action
	}
	return builtinActions[classify.ActionMonitor]
}

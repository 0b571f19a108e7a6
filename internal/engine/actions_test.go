package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nexoratech/riskvault/internal/classify"
)

func TestActionEnginePackOverridesBuiltins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "actions.yaml")
	if err := os.WriteFile(path, []byte(`rules:
  - id: ssh-bursts
    contains: ["failed_login"]
    action: "Quarantine host / Rotate credentials"
`), 0644); err != nil {
		t.Fatalf("write pack: %v", err)
	}

	engine, err := NewActionEngine(path, nil)
	if err != nil {
		t.Fatalf("new action engine: %v", err)
	}

	if got := engine.Suggest("failed_login", classify.ActionAccount); got != "Quarantine host / Rotate credentials" {
		t.Fatalf("pack rule should win, got %q", got)
	}
	if got := engine.Suggest("conn_attempt", classify.ActionNetwork); got != builtinActions[classify.ActionNetwork] {
		t.Fatalf("unmatched type should fall back to builtin, got %q", got)
	}
}

func TestActionEngineMissingPack(t *testing.T) {
	engine, err := NewActionEngine("does-not-exist.yaml", nil)
	if err != nil {
		t.Fatalf("missing pack should not error: %v", err)
	}
	if got := engine.Suggest("info", classify.ActionMonitor); got != builtinActions[classify.ActionMonitor] {
		t.Fatalf("expected builtin fallback, got %q", got)
	}
}

func TestActionEngineNilReceiver(t *testing.T) {
	var engine *ActionEngine
	if got := engine.Suggest("failed_login", classify.ActionAccount); got != builtinActions[classify.ActionAccount] {
		t.Fatalf("nil engine should serve builtins, got %q", got)
	}
}

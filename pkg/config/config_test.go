package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecode_Full(t *testing.T) {
	input := `
mode: jit
log_level: debug
verbose: true
timings: true
fallback: false
limits:
  max_depth: 50
  max_iterations: 1000
  native_stack_budget: 65536
repl:
  history_file: /tmp/h
  prompt: "mj> "
`
	cfg, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Mode != "jit" || cfg.LogLevel != "debug" || !cfg.Verbose || !cfg.Timings || cfg.Fallback {
		t.Errorf("unexpected top-level fields: %+v", cfg)
	}
	limits := cfg.EvalLimits()
	if limits.MaxDepth != 50 || limits.MaxIterations != 1000 || limits.NativeStackBudget != 65536 {
		t.Errorf("unexpected limits: %+v", limits)
	}
	if cfg.REPL.HistoryFile != "/tmp/h" || cfg.REPL.Prompt != "mj> " {
		t.Errorf("unexpected repl section: %+v", cfg.REPL)
	}
}

func TestDecode_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader("limits:\n  max_depth: 7\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := Default()
	if cfg.Limits.MaxDepth != 7 {
		t.Errorf("MaxDepth = %d, want 7", cfg.Limits.MaxDepth)
	}
	if cfg.Limits.MaxIterations != def.Limits.MaxIterations {
		t.Errorf("MaxIterations = %d, want default %d", cfg.Limits.MaxIterations, def.Limits.MaxIterations)
	}
	if cfg.Mode != def.Mode || cfg.REPL.Prompt != def.REPL.Prompt || !cfg.Fallback {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestDecode_Empty(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mode != Default().Mode {
		t.Errorf("Mode = %s, want default", cfg.Mode)
	}
}

func TestDecode_UnknownKey(t *testing.T) {
	_, err := Decode(strings.NewReader("mode: jit\ncolour: red\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestDecode_ValidationIssues(t *testing.T) {
	_, err := Decode(strings.NewReader("mode: turbo\nlog_level: loud\nlimits:\n  max_depth: -1\n"))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Issues) != 3 {
		t.Errorf("expected 3 issues, got %d: %v", len(verr.Issues), verr.Issues)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mathjit.yaml")
	if err := os.WriteFile(path, []byte("mode: interpreter\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mode != "interpreter" {
		t.Errorf("Mode = %s", cfg.Mode)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()

	path, err := Discover(dir)
	if err != nil || path != "" {
		t.Fatalf("empty dir: path %q err %v", path, err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".MathJIT.yaml"), []byte("mode: jit\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "MATHJIT.YML"), []byte("mode: jit\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err = Discover(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(dir, "MATHJIT.YML"); path != want {
		t.Errorf("Discover() = %s, want %s", path, want)
	}

	if _, err := Discover(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

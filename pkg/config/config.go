// Package config loads the optional YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zurustar/mathjit/pkg/engine"
	"github.com/zurustar/mathjit/pkg/eval"
	"github.com/zurustar/mathjit/pkg/fileutil"
)

// DefaultNames are the file names Discover looks for, in order.
var DefaultNames = []string{"mathjit.yaml", "mathjit.yml", ".mathjit.yaml"}

// Config mirrors the configuration file.
type Config struct {
	Mode     string `yaml:"mode"`
	LogLevel string `yaml:"log_level"`
	Verbose  bool   `yaml:"verbose"`
	Timings  bool   `yaml:"timings"`
	Fallback bool   `yaml:"fallback"`
	Limits   Limits `yaml:"limits"`
	REPL     REPL   `yaml:"repl"`
}

// Limits holds the execution limits section.
type Limits struct {
	MaxDepth          int   `yaml:"max_depth"`
	MaxIterations     int64 `yaml:"max_iterations"`
	NativeStackBudget int64 `yaml:"native_stack_budget"`
}

// REPL holds the interactive session section.
type REPL struct {
	HistoryFile string `yaml:"history_file"`
	Prompt      string `yaml:"prompt"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	limits := eval.DefaultLimits()
	return &Config{
		Mode:     string(engine.ModeInterpret),
		LogLevel: "info",
		Fallback: true,
		Limits: Limits{
			MaxDepth:          limits.MaxDepth,
			MaxIterations:     limits.MaxIterations,
			NativeStackBudget: limits.NativeStackBudget,
		},
		REPL: REPL{
			HistoryFile: ".mathjit_history",
			Prompt:      "> ",
		},
	}
}

// EvalLimits converts the limits section.
func (c *Config) EvalLimits() eval.Limits {
	return eval.Limits{
		MaxDepth:          c.Limits.MaxDepth,
		MaxIterations:     c.Limits.MaxIterations,
		NativeStackBudget: c.Limits.NativeStackBudget,
	}
}

// ValidationError aggregates configuration problems.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	cfg, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", absPath, err)
	}
	return cfg, nil
}

// Discover looks for one of DefaultNames in dir, ignoring case. It
// returns "" without error when there is none.
func Discover(dir string) (string, error) {
	name, err := fileutil.FindFirst(os.DirFS(dir), ".", DefaultNames...)
	if errors.Is(err, fileutil.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	return filepath.Join(dir, filepath.FromSlash(name)), nil
}

// Decode parses YAML from r over the defaults and validates the result.
// Empty input yields the defaults.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var issues []string
	if _, err := engine.ParseMode(c.Mode); err != nil {
		issues = append(issues, err.Error())
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("invalid log level: %s", c.LogLevel))
	}
	if c.Limits.MaxDepth < 0 {
		issues = append(issues, fmt.Sprintf("limits.max_depth must be non-negative, got %d", c.Limits.MaxDepth))
	}
	if c.Limits.MaxIterations < 0 {
		issues = append(issues, fmt.Sprintf("limits.max_iterations must be non-negative, got %d", c.Limits.MaxIterations))
	}
	if c.Limits.NativeStackBudget < 0 {
		issues = append(issues, fmt.Sprintf("limits.native_stack_budget must be non-negative, got %d", c.Limits.NativeStackBudget))
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

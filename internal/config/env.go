package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/standardbeagle/lcq/internal/debug"
)

// Environment variables read by the engine
const (
	EnvPrewarmVar   = "AST_PREWARM"
	EnvMaxIssuesVar = "AST_MAX_ISSUES"
)

// Issue cap bounds applied to AST_MAX_ISSUES and max_issues settings
const (
	MinMaxIssues = 10
	MaxMaxIssues = 500
)

// ClampMaxIssues keeps an issue cap within [MinMaxIssues, MaxMaxIssues]
func ClampMaxIssues(n int) int {
	return min(max(n, MinMaxIssues), MaxMaxIssues)
}

// EnvPrewarm reports whether AST_PREWARM is set to a non-empty value
func EnvPrewarm() bool {
	return strings.TrimSpace(os.Getenv(EnvPrewarmVar)) != ""
}

// EnvMaxIssues returns the clamped AST_MAX_ISSUES value. Unset or
// unparseable values report false.
func EnvMaxIssues() (int, bool) {
	raw := strings.TrimSpace(os.Getenv(EnvMaxIssuesVar))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		debug.Log("CONFIG", "ignoring %s=%q: %v\n", EnvMaxIssuesVar, raw, err)
		return 0, false
	}
	return ClampMaxIssues(n), true
}

// ApplyEnv overlays environment settings onto cfg
func ApplyEnv(cfg *Config) {
	if EnvPrewarm() {
		cfg.Analysis.Prewarm = true
	}
	if n, ok := EnvMaxIssues(); ok {
		cfg.Analysis.MaxIssues = n
		cfg.Hook.MaxIssues = n
	}
}

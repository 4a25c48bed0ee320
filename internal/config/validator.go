package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"

	lcqerrors "github.com/standardbeagle/lcq/internal/errors"
	"github.com/standardbeagle/lcq/internal/types"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults.
// Failures are *errors.ConfigError naming the offending section.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProjectConfig(&cfg.Project); err != nil {
		return lcqerrors.NewConfigError("project", cfg.Project.Root, err)
	}
	if err := v.validateAnalysisConfig(&cfg.Analysis); err != nil {
		return lcqerrors.NewConfigError("analysis", cfg.Analysis.Mode, err)
	}
	if err := v.validateScanConfig(&cfg.Scan); err != nil {
		return lcqerrors.NewConfigError("scan", "", err)
	}
	if err := v.validateCacheConfig(&cfg.Cache); err != nil {
		return lcqerrors.NewConfigError("cache", cfg.Cache.File, err)
	}
	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return lcqerrors.NewConfigError("exclude", pattern, errors.New("invalid glob pattern"))
		}
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProjectConfig(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateAnalysisConfig(a *Analysis) error {
	switch a.Mode {
	case "", ModeSingle, ModeMulti:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeSingle, ModeMulti, a.Mode)
	}
	if a.MaxIssues < 0 {
		return fmt.Errorf("max_issues cannot be negative, got %d", a.MaxIssues)
	}
	if a.MaxSourceSize < 0 {
		return fmt.Errorf("max_source_size cannot be negative, got %d", a.MaxSourceSize)
	}
	if a.MaxSourceSize > 100*1024*1024 {
		return fmt.Errorf("max_source_size should not exceed 100MB, got %d", a.MaxSourceSize)
	}
	if a.TimeoutMs < 0 {
		return fmt.Errorf("timeout_ms cannot be negative, got %d", a.TimeoutMs)
	}
	return nil
}

func (v *Validator) validateScanConfig(s *Scan) error {
	if s.MaxDepth < 0 {
		return fmt.Errorf("max_depth cannot be negative, got %d", s.MaxDepth)
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", s.Workers)
	}
	return nil
}

func (v *Validator) validateCacheConfig(c *Cache) error {
	if c.TTLSeconds < 0 {
		return fmt.Errorf("ttl_seconds cannot be negative, got %d", c.TTLSeconds)
	}
	if c.Enabled && c.File == "" {
		return errors.New("cache file cannot be empty when the cache is enabled")
	}
	return nil
}

// setSmartDefaults fills zero values left by a partial config
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Analysis.Mode == "" {
		cfg.Analysis.Mode = ModeSingle
	}
	if cfg.Analysis.MaxIssues > 0 {
		cfg.Analysis.MaxIssues = ClampMaxIssues(cfg.Analysis.MaxIssues)
	}
	if cfg.Analysis.MaxSourceSize == 0 {
		cfg.Analysis.MaxSourceSize = types.DefaultMaxSourceSize
	}
	if cfg.Analysis.TimeoutMs == 0 {
		cfg.Analysis.TimeoutMs = DefaultTimeoutMs
	}
	if cfg.Scan.MaxDepth == 0 {
		cfg.Scan.MaxDepth = DefaultMaxDepth
	}
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = DefaultCacheTTLSeconds
	}
	if cfg.Hook.MaxIssues == 0 {
		cfg.Hook.MaxIssues = DefaultHookMaxIssues
	}
	cfg.Hook.MaxIssues = ClampMaxIssues(cfg.Hook.MaxIssues)
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = DefaultWatchDebounceMs
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}

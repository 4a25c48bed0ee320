package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/standardbeagle/lcq/internal/types"
)

// ConfigFileName is looked up in the home directory and the project root
const ConfigFileName = ".lcq.kdl"

// Defaults shared by the loader and the validator
const (
	DefaultMaxDepth        = 10
	DefaultTimeoutMs       = 5000
	DefaultCacheFile       = ".claude_project_cache.json"
	DefaultCacheTTLSeconds = 300
	DefaultHookMaxIssues   = 100
	DefaultWatchDebounceMs = 300

	ModeSingle = "single"
	ModeMulti  = "multi"
)

type Config struct {
	Version  int
	Project  Project
	Analysis Analysis
	Scan     Scan
	Cache    Cache
	Hook     Hook
	Watch    Watch
	// Exclude holds doublestar globs matched against root-relative paths
	Exclude []string
}

type Project struct {
	Root string
	Name string
}

type Analysis struct {
	Mode          string // "single" or "multi"
	MaxIssues     int    // 0 = keep every issue
	MaxSourceSize int64
	TimeoutMs     int // per-file budget in the project driver
	Prewarm       bool
}

type Scan struct {
	MaxDepth         int
	Workers          int // 0 = GOMAXPROCS
	RespectGitignore bool
	// Exclude holds substrings; a path containing any of them is skipped
	Exclude []string
}

type Cache struct {
	Enabled    bool
	File       string
	TTLSeconds int
}

type Hook struct {
	MaxIssues int
}

type Watch struct {
	DebounceMs int
}

// Default returns the configuration used when no .lcq.kdl exists
func Default(root string) *Config {
	if root == "" {
		root, _ = os.Getwd()
	}
	return &Config{
		Version: 1,
		Project: Project{Root: root, Name: filepath.Base(root)},
		Analysis: Analysis{
			Mode:          ModeSingle,
			MaxSourceSize: types.DefaultMaxSourceSize,
			TimeoutMs:     DefaultTimeoutMs,
		},
		Scan: Scan{
			MaxDepth:         DefaultMaxDepth,
			Workers:          runtime.GOMAXPROCS(0),
			RespectGitignore: true,
			Exclude:          defaultScanSubstrings(),
		},
		Cache: Cache{
			Enabled:    true,
			File:       DefaultCacheFile,
			TTLSeconds: DefaultCacheTTLSeconds,
		},
		Hook:    Hook{MaxIssues: DefaultHookMaxIssues},
		Watch:   Watch{DebounceMs: DefaultWatchDebounceMs},
		Exclude: getDefaultExclusions(),
	}
}

func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

// LoadWithRoot reads ~/.lcq.kdl and <rootDir>/.lcq.kdl, merges them and
// applies environment overrides. An explicit path replaces the project file.
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}
	absRoot, err := filepath.Abs(searchDir)
	if err != nil {
		absRoot = searchDir
	}

	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != absRoot {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	var projectConfig *Config
	if path != "" {
		projectConfig, err = LoadKDLFile(path, absRoot)
	} else {
		projectConfig, err = LoadKDL(absRoot)
	}
	if err != nil {
		return nil, err
	}

	var cfg *Config
	switch {
	case baseConfig != nil && projectConfig != nil:
		cfg = mergeConfigs(baseConfig, projectConfig)
	case projectConfig != nil:
		cfg = projectConfig
	case baseConfig != nil:
		baseConfig.Project.Root = absRoot
		baseConfig.Project.Name = filepath.Base(absRoot)
		cfg = baseConfig
	default:
		cfg = Default(absRoot)
	}

	cfg.EnrichExclusionsWithBuildArtifacts()
	ApplyEnv(cfg)
	return cfg, nil
}

// mergeConfigs lets the project file win while keeping the union of both
// exclusion lists.
func mergeConfigs(base, project *Config) *Config {
	merged := *project
	if len(base.Exclude) > 0 {
		merged.Exclude = DeduplicatePatterns(append(append([]string{}, base.Exclude...), project.Exclude...))
	}
	if len(base.Scan.Exclude) > 0 {
		merged.Scan.Exclude = DeduplicatePatterns(append(append([]string{}, base.Scan.Exclude...), project.Scan.Exclude...))
	}
	return &merged
}

// EnrichExclusionsWithBuildArtifacts adds output directories declared by
// the project's build files.
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}
	detected := NewBuildArtifactDetector(c.Project.Root).DetectOutputDirectories()
	if len(detected) > 0 {
		c.Exclude = DeduplicatePatterns(append(c.Exclude, detected...))
	}
}

// CachePath resolves the cache file against the project root
func (c *Config) CachePath() string {
	if filepath.IsAbs(c.Cache.File) {
		return c.Cache.File
	}
	return filepath.Join(c.Project.Root, c.Cache.File)
}

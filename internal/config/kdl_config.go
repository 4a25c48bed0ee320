package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/lcq/internal/debug"
)

// LoadKDL loads <dir>/.lcq.kdl; a missing file yields nil, nil
func LoadKDL(dir string) (*Config, error) {
	kdlPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}
	return LoadKDLFile(kdlPath, dir)
}

// LoadKDLFile parses a specific config file. Relative roots resolve against
// defaultRoot.
func LoadKDLFile(path, defaultRoot string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	absDefault, err := filepath.Abs(defaultRoot)
	if err != nil {
		absDefault = defaultRoot
	}
	cfg, err := parseKDL(string(content), absDefault)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Clean(filepath.Join(absDefault, cfg.Project.Root))
	}
	if cfg.Project.Name == "" {
		cfg.Project.Name = filepath.Base(cfg.Project.Root)
	}
	return cfg, nil
}

func parseKDL(content, root string) (*Config, error) {
	cfg := Default(root)

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "project":
			for _, cn := range n.Children { // project { root "."; name "foo" }
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "analysis":
			parseAnalysisSection(cfg, n)
		case "scan":
			parseScanSection(cfg, n)
		case "cache":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Cache.Enabled = b
					}
				case "file":
					if s, ok := firstStringArg(cn); ok {
						cfg.Cache.File = s
					}
				case "ttl_seconds":
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.TTLSeconds = v
					}
				}
			}
		case "hook":
			for _, cn := range n.Children {
				if nodeName(cn) == "max_issues" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Hook.MaxIssues = v
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				if nodeName(cn) == "debounce_ms" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		case "exclude":
			// an exclude block replaces the default globs
			cfg.Exclude = collectStringArgs(n)
		default:
			debug.Log("CONFIG", "ignoring unknown config node %q\n", nodeName(n))
		}
	}

	return cfg, nil
}

func parseAnalysisSection(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "mode":
			if s, ok := firstStringArg(cn); ok {
				cfg.Analysis.Mode = strings.ToLower(s)
			}
		case "max_issues":
			if v, ok := firstIntArg(cn); ok {
				cfg.Analysis.MaxIssues = v
			}
		case "max_source_size":
			if v, ok := firstIntArg(cn); ok {
				cfg.Analysis.MaxSourceSize = int64(v)
			}
			if s, ok := firstStringArg(cn); ok {
				if sz, err := parseSize(s); err == nil {
					cfg.Analysis.MaxSourceSize = sz
				}
			}
		case "timeout_ms":
			if v, ok := firstIntArg(cn); ok {
				cfg.Analysis.TimeoutMs = v
			}
		case "prewarm":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Analysis.Prewarm = b
			}
		}
	}
}

func parseScanSection(cfg *Config, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "max_depth":
			if v, ok := firstIntArg(cn); ok {
				cfg.Scan.MaxDepth = v
			}
		case "workers":
			if v, ok := firstIntArg(cn); ok {
				cfg.Scan.Workers = v
			}
		case "respect_gitignore":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Scan.RespectGitignore = b
			}
		case "exclude":
			cfg.Scan.Exclude = collectStringArgs(cn)
		}
	}
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case bool:
		return v, true
	case string:
		return parseBool(v), true
	}
	return false, false
}

// collectStringArgs accepts both `exclude "a" "b"` and block form
// `exclude { "a"; "b" }` where each child's name is the value.
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	numStr := s
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}
	return num * multiplier, nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}

// defaultScanSubstrings are path fragments never worth analysing
func defaultScanSubstrings() []string {
	return []string{"node_modules", ".git/", "__pycache__", "/target/", "/vendor/"}
}

// getDefaultExclusions mirrors the usual build, dependency and editor
// directories as doublestar globs.
func getDefaultExclusions() []string {
	return []string{
		// Build outputs
		"**/target/**",
		"**/build/**",
		"**/dist/**",
		"**/out/**",
		"**/_build/**",
		"**/bin/**",
		"**/obj/**",
		"**/coverage/**",
		"**/.next/**",
		"**/.nuxt/**",
		"**/.output/**",
		"**/.vercel/**",

		// Package managers
		"**/node_modules/**",
		"**/.npm/**",
		"**/.yarn/**",
		"**/.pnpm/**",
		"**/.cargo/**",
		"**/vendor/**",

		// VCS and editors
		"**/.git/**",
		"**/.svn/**",
		"**/.hg/**",
		"**/.vscode/**",
		"**/.idea/**",

		// Temp and language caches
		"**/tmp/**",
		"**/temp/**",
		"**/__pycache__/**",
		"**/.pytest_cache/**",
		"**/.gradle/**",

		// Minified and generated
		"**/*.min.js",
		"**/*.bundle.js",
	}
}

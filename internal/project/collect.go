package project

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/lcq/internal/config"
	"github.com/standardbeagle/lcq/internal/debug"
	lcqerrors "github.com/standardbeagle/lcq/internal/errors"
	"github.com/standardbeagle/lcq/internal/parser"
)

// CollectOptions controls which files a project run visits
type CollectOptions struct {
	// MaxDepth bounds recursion; files directly under root are at depth 0
	MaxDepth int
	// ExcludeSubstrings skips any path whose full path contains one of them
	ExcludeSubstrings []string
	// ExcludeGlobs are doublestar patterns matched against root-relative,
	// slash-separated paths
	ExcludeGlobs []string
	// Gitignore, when set, skips paths the project's .gitignore ignores
	Gitignore *config.GitignoreParser
}

// OptionsFromConfig derives collection options from the scan and exclude
// sections of cfg, loading .gitignore when the config asks for it.
func OptionsFromConfig(cfg *config.Config) CollectOptions {
	opts := CollectOptions{
		MaxDepth:          cfg.Scan.MaxDepth,
		ExcludeSubstrings: cfg.Scan.Exclude,
		ExcludeGlobs:      cfg.Exclude,
	}
	if cfg.Scan.RespectGitignore {
		gp := config.NewGitignoreParser()
		if err := gp.LoadGitignore(cfg.Project.Root); err != nil {
			debug.LogProject("failed to load .gitignore: %v\n", err)
		} else if gp.Len() > 0 {
			opts.Gitignore = gp
		}
	}
	return opts
}

// collector walks one root
type collector struct {
	root    string
	opts    CollectOptions
	visited map[string]bool
	files   []string
}

// CollectFiles lists the parser-backed source files under root, sorted.
// Only an unreadable root is an error; unreadable subdirectories are
// logged and skipped.
func CollectFiles(root string, opts CollectOptions) ([]string, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = config.DefaultMaxDepth
	}
	c := &collector{root: root, opts: opts, visited: make(map[string]bool)}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, lcqerrors.NewFileError("read directory", root, err)
	}
	c.markVisited(root)
	c.walk(root, entries, 0)

	sort.Strings(c.files)
	debug.LogProject("collected %d files under %s\n", len(c.files), root)
	return c.files, nil
}

func (c *collector) walk(dir string, entries []os.DirEntry, depth int) {
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			isDir = info.IsDir()
		}

		if c.excluded(path, isDir) {
			continue
		}

		if isDir {
			if depth+1 > c.opts.MaxDepth || !c.markVisited(path) {
				continue
			}
			children, err := os.ReadDir(path)
			if err != nil {
				debug.LogProject("skipping unreadable directory %s: %v\n", path, err)
				continue
			}
			c.walk(path, children, depth+1)
			continue
		}

		if lang, ok := parser.FromPath(path); ok && parser.IsParserBacked(lang) {
			c.files = append(c.files, path)
		}
	}
}

// markVisited records the real path of dir and reports whether it is new
func (c *collector) markVisited(dir string) bool {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}
	if c.visited[resolved] {
		return false
	}
	c.visited[resolved] = true
	return true
}

func (c *collector) excluded(path string, isDir bool) bool {
	for _, s := range c.opts.ExcludeSubstrings {
		if s != "" && strings.Contains(path, s) {
			return true
		}
	}

	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range c.opts.ExcludeGlobs {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
		if isDir {
			// "**/dist/**" should prune the dist directory itself
			if matched, _ := doublestar.Match(pattern, rel+"/"); matched {
				return true
			}
		}
	}

	return c.opts.Gitignore != nil && c.opts.Gitignore.ShouldIgnore(rel, isDir)
}

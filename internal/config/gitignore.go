package config

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GitignoreParser matches paths against the patterns of a .gitignore file
type GitignoreParser struct {
	patterns []GitignorePattern
}

type GitignorePattern struct {
	Pattern   string
	Negate    bool
	Directory bool
	Absolute  bool
	// glob is the doublestar form used for matching
	glob string
}

// NewGitignoreParser creates a new gitignore parser
func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{}
}

// LoadGitignore loads patterns from <rootPath>/.gitignore. A missing file
// is not an error.
func (gp *GitignoreParser) LoadGitignore(rootPath string) error {
	file, err := os.Open(filepath.Join(rootPath, ".gitignore"))
	if err != nil {
		return nil
	}
	defer file.Close()
	return gp.scanAndParsePatterns(file)
}

func (gp *GitignoreParser) scanAndParsePatterns(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		gp.AddPattern(line)
	}
	return scanner.Err()
}

// AddPattern adds a single pattern line
func (gp *GitignoreParser) AddPattern(line string) {
	gp.patterns = append(gp.patterns, parsePattern(line))
}

// Len reports the number of loaded patterns
func (gp *GitignoreParser) Len() int {
	return len(gp.patterns)
}

func parsePattern(line string) GitignorePattern {
	p := GitignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.Negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.Absolute = true
		line = line[1:]
	}
	p.Pattern = line

	// unanchored patterns without a slash match at any depth
	switch {
	case p.Absolute || strings.Contains(line, "/"):
		p.glob = line
	default:
		p.glob = "**/" + line
	}
	return p
}

// ShouldIgnore reports whether the root-relative path is ignored. Later
// patterns win, so a negation can re-include a path.
func (gp *GitignoreParser) ShouldIgnore(path string, isDir bool) bool {
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")
	ignored := false
	for _, p := range gp.patterns {
		if p.matches(path, isDir) {
			ignored = !p.Negate
		}
	}
	return ignored
}

func (p GitignorePattern) matches(path string, isDir bool) bool {
	if !p.Directory || isDir {
		if ok, _ := doublestar.Match(p.glob, path); ok {
			return true
		}
	}
	// anything below a matching directory is ignored too
	if ok, _ := doublestar.Match(p.glob+"/**/*", path); ok {
		return true
	}
	return false
}

// GetExclusionPatterns returns the non-negated patterns as doublestar globs
func (gp *GitignoreParser) GetExclusionPatterns() []string {
	var exclusions []string
	for _, p := range gp.patterns {
		if p.Negate {
			continue
		}
		if p.Directory {
			exclusions = append(exclusions, p.glob+"/**")
		} else {
			exclusions = append(exclusions, p.glob)
		}
	}
	return exclusions
}

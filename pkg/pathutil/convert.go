// Package pathutil converts between the absolute paths used internally and
// the root-relative paths shown to users.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/lcq/internal/types"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.go", "/home/user/project") → "src/main.go"
//   - ToRelative("/other/location/file.go", "/home/user/project") → "/other/location/file.go" (outside root)
//   - ToRelative("src/main.go", "/home/user/project") → "src/main.go" (already relative)
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}
	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		// e.g. different drives on Windows
		return absPath
	}

	// Outside the root the absolute path is clearer
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return absPath
	}

	return relPath
}

// ToRelativeIssues returns a copy of issues with FilePath made relative to
// rootDir. The input slice is not modified.
func ToRelativeIssues(issues []types.Issue, rootDir string) []types.Issue {
	if len(issues) == 0 {
		return issues
	}

	converted := make([]types.Issue, len(issues))
	copy(converted, issues)
	for i := range converted {
		converted[i].FilePath = ToRelative(converted[i].FilePath, rootDir)
	}
	return converted
}

// ToRelativeScore returns a shallow copy of score whose issues carry
// root-relative paths.
func ToRelativeScore(score *types.QualityScore, rootDir string) *types.QualityScore {
	if score == nil {
		return nil
	}
	out := *score
	out.Issues = ToRelativeIssues(score.Issues, rootDir)
	return &out
}

package metrics

import (
	"math"
	"path"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/lcq/internal/types"
)

// FileImportance ranks a project file in [0, 1] from its root-relative path
// and extension. Core sources and manifests score highest, vendored or
// minified files are damped.
func FileImportance(relPath, ext string) float64 {
	relPath = filepath.ToSlash(relPath)
	ext = normalizeExt(ext)

	score := baseImportance(relPath, ext)

	name := path.Base(relPath)
	if strings.Contains(name, "main.") ||
		strings.Contains(name, "index.") ||
		strings.Contains(name, "app.") {
		score += 0.3
	}
	if strings.HasPrefix(relPath, "src/") {
		score += 0.2
	}
	if strings.Contains(relPath, "vendor/") ||
		strings.Contains(relPath, "generated/") ||
		strings.Contains(relPath, ".min.") {
		score *= 0.3
	}
	return math.Min(score, 1.0)
}

func baseImportance(relPath, ext string) float64 {
	switch {
	case ext == "rs" || ext == "go" || ext == "java" || ext == "cpp":
		return 1.0
	case ext == "js" || ext == "ts" || ext == "py" || ext == "rb":
		return 0.9
	case (ext == "toml" || ext == "yaml" || ext == "json") && strings.Contains(relPath, "config"):
		return 0.8
	case ext == "toml" && relPath == "Cargo.toml":
		return 1.0
	case ext == "json" && relPath == "package.json":
		return 1.0
	case strings.Contains(relPath, "test"):
		return 0.7
	case ext == "md" && relPath == "README.md":
		return 0.8
	case ext == "md":
		return 0.5
	default:
		return 0.3
	}
}

// ComplexityScore folds per-file metrics into a 0-10 scale weighted
// 40/30/20/10 across cyclomatic, cognitive, nesting and parameters.
func ComplexityScore(m types.ComplexityMetrics) float64 {
	cyclo := math.Min(float64(m.CyclomaticComplexity)/10.0, 10.0)
	cognitive := math.Min(float64(m.CognitiveComplexity)/20.0, 10.0)
	nesting := math.Min(float64(m.NestingDepth)/5.0, 10.0)
	params := math.Min(float64(m.ParameterCount)/20.0, 10.0)
	return math.Min(cyclo*0.4+cognitive*0.3+nesting*0.2+params*0.1, 10.0)
}

// IsTestPath reports whether a root-relative path looks like test code
func IsTestPath(relPath string) bool {
	lower := strings.ToLower(filepath.ToSlash(relPath))
	return strings.Contains(lower, "test") || strings.Contains(lower, ".spec.") || strings.Contains(lower, "/spec/")
}

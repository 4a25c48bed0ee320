package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/lcq/internal/types"
)

func TestFileImportance(t *testing.T) {
	tests := []struct {
		path string
		ext  string
		want float64
	}{
		{"src/main.rs", "rs", 1.0},
		{"tests/test.rs", "rs", 1.0},
		{"lib/util.py", "py", 0.9},
		{"lib/app.py", "py", 1.0},
		{"app.d/util.py", "py", 0.9},
		{"src/util.py", "py", 1.0},
		{"Cargo.toml", "toml", 1.0},
		{"package.json", "json", 1.0},
		{"config/app.yaml", "yaml", 1.0},
		{"config/settings.yaml", "yaml", 0.8},
		{"test/fixtures/data.txt", "txt", 0.7},
		{"README.md", "md", 0.8},
		{"docs/guide.md", "md", 0.5},
		{"assets/logo.svg", "svg", 0.3},
		{"vendor/lib/x.go", "go", 0.3},
		{"public/app.min.css", "css", 0.18},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.InDelta(t, tt.want, FileImportance(tt.path, tt.ext), 1e-9)
		})
	}
}

func TestFileImportance_Bounded(t *testing.T) {
	for _, p := range []string{"src/main.go", "src/index.ts", "vendor/app.min.js", "x"} {
		got := FileImportance(p, "")
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestComplexityScore(t *testing.T) {
	simple := types.ComplexityMetrics{CyclomaticComplexity: 1, CognitiveComplexity: 1, FunctionCount: 1}
	complex := types.ComplexityMetrics{
		CyclomaticComplexity: 10,
		CognitiveComplexity:  20,
		NestingDepth:         5,
		ParameterCount:       20,
	}
	huge := types.ComplexityMetrics{
		CyclomaticComplexity: 10000,
		CognitiveComplexity:  10000,
		NestingDepth:         10000,
		ParameterCount:       10000,
	}

	assert.InDelta(t, 0.055, ComplexityScore(simple), 1e-9)
	assert.InDelta(t, 1.0, ComplexityScore(complex), 1e-9)
	assert.InDelta(t, 10.0, ComplexityScore(huge), 1e-9)
	assert.Equal(t, 0.0, ComplexityScore(types.ComplexityMetrics{}))
}

func TestIsTestPath(t *testing.T) {
	assert.True(t, IsTestPath("tests/foo.rs"))
	assert.True(t, IsTestPath("pkg/foo_test.go"))
	assert.True(t, IsTestPath("web/app.spec.ts"))
	assert.False(t, IsTestPath("src/main.go"))
}

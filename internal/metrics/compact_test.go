package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lcq/internal/types"
)

func structureOf(paths ...string) ProjectStructure {
	files := make([]types.FileDescriptor, 0, len(paths))
	for _, p := range paths {
		files = append(files, types.FileDescriptor{Path: p, Extension: filepath.Ext(p)})
	}
	return ProjectStructure{Root: "/repo", Files: files}
}

func fixedMetrics() *ProjectMetrics {
	return &ProjectMetrics{
		TotalLinesOfCode: 100,
		CodeByLanguage: map[string]LanguageStats{
			"rs": {FileCount: 2, LinesOfCode: 80, AverageCyclomatic: 3.3, AverageCognitive: 4.0},
			"js": {FileCount: 1, LinesOfCode: 20, AverageCyclomatic: 1, AverageCognitive: 0.5},
		},
		FileImportanceScores: map[string]float64{
			"src/main.rs":      1.0,
			"src/lib.rs":       1.0,
			"web/app.js":       0.9,
			"README.md":        0.8,
			"docs/a.md":        0.5,
			"assets/logo.png":  0.3,
			"vendor/x/y.rs":    0.3,
			"tests/fixture.rs": 1.0,
		},
		ProjectComplexityScore:      0.42,
		TestCoverageEstimate:        0.5,
		DocumentationRatio:          0.2,
		AverageCyclomaticComplexity: 3.5,
		AverageCognitiveComplexity:  4.2,
		MaxCyclomaticComplexity:     12,
		MaxCognitiveComplexity:      15,
		ComplexityDistribution:      ComplexityDistribution{Low: 8, Medium: 5, High: 2},
	}
}

func TestCompress_Tree(t *testing.T) {
	s := structureOf(
		"src/main.rs",
		"src/lib.rs",
		"tests/fixtures/data.json",
		"Cargo.toml",
		"README.md",
		"src/components/button.ts",
		"scripts/run.py",
		"node_modules/x/index.js",
	)
	c := Compress(s, fixedMetrics())

	assert.Equal(t,
		"Cargo.toml,README.md;nm/x[index:j];s[lib:r,main:r];s/c[button:t];scripts[run:p];t/fx[data:jn]",
		c.Tree)
}

func TestCompress_Metrics(t *testing.T) {
	c := Compress(structureOf("a.rs"), fixedMetrics())

	assert.Equal(t, uint8(CompactFormatVersion), c.FormatVersion)
	assert.Equal(t, "L100,j:20/1/1.0/0.5,r:80/2/3.3/4.0;Q4/50/20;C3.5/4.2/12/15/8+5+2+0", c.Metrics)
	assert.Equal(t, (len(c.Tree+";"+c.Metrics)+2)/3, c.TokenEstimate)
}

func TestCompress_ImportantFiles(t *testing.T) {
	c := Compress(structureOf("a.rs"), fixedMetrics())
	assert.Equal(t, []string{"lib.rs", "main.rs", "fixture.rs", "app.js", "README.md"}, c.ImportantFiles)
}

func TestCompress_EmptyProject(t *testing.T) {
	c := Compress(ProjectStructure{}, NewAggregator().Finish())
	assert.Equal(t, "", c.Tree)
	assert.Equal(t, "L0,;Q0/0/0;C0.0/0.0/0/0/0+0+0+0", c.Metrics)
	assert.Empty(t, c.ImportantFiles)
}

func TestCompactRoundTrip(t *testing.T) {
	for _, c := range []CompressedStructure{
		Compress(structureOf("src/main.rs", "README.md"), fixedMetrics()),
		Compress(ProjectStructure{}, NewAggregator().Finish()),
	} {
		wire := c.String()
		parsed, err := ParseCompact(wire)
		require.NoError(t, err)
		assert.Equal(t, wire, parsed.String())
		assert.Equal(t, c.Tree, parsed.Tree)
		assert.Equal(t, c.TokenEstimate, parsed.TokenEstimate)
	}
}

func TestParseCompact_Errors(t *testing.T) {
	for _, bad := range []string{
		"",
		"V3|tree|metrics|files",
		"X3|t|m|f|T1",
		"Vx|t|m|f|T1",
		"V3|t|m|f|1",
		"V3|t|m|f|Tmany",
	} {
		_, err := ParseCompact(bad)
		assert.Error(t, err, bad)
	}
}

func TestIncrementalUpdate(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "a.go"), []byte("package a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.py"), []byte("x"), 0o644))

	got := IncrementalUpdate(root, []string{
		filepath.Join(root, "src", "a.go"),
		"b.py",
		"gone.rs",
	})
	assert.Equal(t, "INCREMENTAL[MOD:src/a.go:10b,MOD:b.py:1b]", got)
	assert.Equal(t, "INCREMENTAL[]", IncrementalUpdate(root, nil))
}

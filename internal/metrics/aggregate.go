package metrics

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/standardbeagle/lcq/internal/types"
)

// HighComplexityThreshold is the per-file ComplexityScore above which a
// file counts as high complexity.
const HighComplexityThreshold = 7.0

// FileSample is one analysed (or merely counted) project file
type FileSample struct {
	Path      string // root-relative, slash separated
	Extension string // without the dot
	Size      int64
	Lines     LineCounts
	// Metrics is nil for files that were counted but not analysed
	Metrics *types.ComplexityMetrics
}

// NewFileSample classifies content lines for path
func NewFileSample(relPath string, content []byte, m *types.ComplexityMetrics) FileSample {
	relPath = filepath.ToSlash(relPath)
	ext := normalizeExt(filepath.Ext(relPath))
	return FileSample{
		Path:      relPath,
		Extension: ext,
		Size:      int64(len(content)),
		Lines:     CountLines(string(content), ext),
		Metrics:   m,
	}
}

// SampleFromCounts rebuilds a sample from previously computed figures
func SampleFromCounts(relPath string, size int64, lines LineCounts, m *types.ComplexityMetrics) FileSample {
	relPath = filepath.ToSlash(relPath)
	return FileSample{
		Path:      relPath,
		Extension: normalizeExt(filepath.Ext(relPath)),
		Size:      size,
		Lines:     lines,
		Metrics:   m,
	}
}

// ProjectMetrics is the project-wide summary
type ProjectMetrics struct {
	TotalLinesOfCode       int                      `json:"total_lines_of_code"`
	TotalFiles             int                      `json:"total_files"`
	TotalSizeBytes         int64                    `json:"total_size_bytes"`
	CodeByLanguage         map[string]LanguageStats `json:"code_by_language"`
	FileImportanceScores   map[string]float64       `json:"file_importance_scores"`
	ProjectComplexityScore float64                  `json:"project_complexity_score"`
	TestCoverageEstimate   float64                  `json:"test_coverage_estimate"`
	DocumentationRatio     float64                  `json:"documentation_ratio"`

	AverageCyclomaticComplexity float64                `json:"average_cyclomatic_complexity"`
	AverageCognitiveComplexity  float64                `json:"average_cognitive_complexity"`
	MaxCyclomaticComplexity     int                    `json:"max_cyclomatic_complexity"`
	MaxCognitiveComplexity      int                    `json:"max_cognitive_complexity"`
	HighComplexityFiles         int                    `json:"high_complexity_files"`
	ComplexityDistribution      ComplexityDistribution `json:"complexity_distribution"`
}

// LanguageStats holds the metrics for one extension
type LanguageStats struct {
	FileCount           int     `json:"file_count"`
	LinesOfCode         int     `json:"lines_of_code"`
	LinesOfComments     int     `json:"lines_of_comments"`
	BlankLines          int     `json:"blank_lines"`
	AverageFileSize     int64   `json:"average_file_size"`
	ComplexityEstimate  float64 `json:"complexity_estimate"`
	AverageCyclomatic   float64 `json:"average_cyclomatic"`
	AverageCognitive    float64 `json:"average_cognitive"`
	MaxCyclomatic       int     `json:"max_cyclomatic"`
	MaxCognitive        int     `json:"max_cognitive"`
	TotalFunctions      int     `json:"total_functions"`
	AverageNestingDepth float64 `json:"average_nesting_depth"`
}

// ComplexityDistribution buckets files by cyclomatic complexity:
// low 0-3, medium 4-7, high 8-10, extreme above 10.
type ComplexityDistribution struct {
	Low     int `json:"low_complexity"`
	Medium  int `json:"medium_complexity"`
	High    int `json:"high_complexity"`
	Extreme int `json:"extreme_complexity"`
}

func (d *ComplexityDistribution) add(cyclomatic int) {
	switch {
	case cyclomatic <= 3:
		d.Low++
	case cyclomatic <= 7:
		d.Medium++
	case cyclomatic <= 10:
		d.High++
	default:
		d.Extreme++
	}
}

// languageAccumulator carries running sums until Finish
type languageAccumulator struct {
	files     int
	lines     LineCounts
	size      int64
	analysed  int
	cycSum    int
	cogSum    int
	nestSum   int
	scoreSum  float64
	maxCyc    int
	maxCog    int
	functions int
}

// Aggregator folds FileSamples into ProjectMetrics. It is not safe for
// concurrent use; the project driver feeds it from its collector.
type Aggregator struct {
	languages  map[string]*languageAccumulator
	importance map[string]float64
	lines      LineCounts
	size       int64
	files      int

	analysed     int
	cycSum       int
	cogSum       int
	scoreSum     float64
	maxCyc       int
	maxCog       int
	highFiles    int
	distribution ComplexityDistribution

	testFiles   int
	sourceFiles int
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		languages:  make(map[string]*languageAccumulator),
		importance: make(map[string]float64),
	}
}

// Add records one file
func (a *Aggregator) Add(s FileSample) {
	ext := normalizeExt(s.Extension)
	if ext == "" {
		ext = normalizeExt(filepath.Ext(s.Path))
	}

	a.files++
	a.size += s.Size
	a.lines.add(s.Lines)
	a.importance[s.Path] = FileImportance(s.Path, ext)

	acc, ok := a.languages[ext]
	if !ok {
		acc = &languageAccumulator{}
		a.languages[ext] = acc
	}
	acc.files++
	acc.size += s.Size
	acc.lines.add(s.Lines)

	if s.Metrics == nil {
		return
	}

	m := *s.Metrics
	score := ComplexityScore(m)

	acc.analysed++
	acc.cycSum += m.CyclomaticComplexity
	acc.cogSum += m.CognitiveComplexity
	acc.nestSum += m.NestingDepth
	acc.scoreSum += score
	acc.functions += m.FunctionCount
	acc.maxCyc = max(acc.maxCyc, m.CyclomaticComplexity)
	acc.maxCog = max(acc.maxCog, m.CognitiveComplexity)

	a.analysed++
	a.cycSum += m.CyclomaticComplexity
	a.cogSum += m.CognitiveComplexity
	a.scoreSum += score
	a.maxCyc = max(a.maxCyc, m.CyclomaticComplexity)
	a.maxCog = max(a.maxCog, m.CognitiveComplexity)
	if score > HighComplexityThreshold {
		a.highFiles++
	}
	a.distribution.add(m.CyclomaticComplexity)

	if IsTestPath(s.Path) {
		a.testFiles++
	} else {
		a.sourceFiles++
	}
}

// Finish computes the summary. The aggregator may keep receiving samples
// afterwards; each call reflects everything added so far.
func (a *Aggregator) Finish() *ProjectMetrics {
	pm := &ProjectMetrics{
		TotalLinesOfCode:        a.lines.Code,
		TotalFiles:              a.files,
		TotalSizeBytes:          a.size,
		CodeByLanguage:          make(map[string]LanguageStats, len(a.languages)),
		FileImportanceScores:    make(map[string]float64, len(a.importance)),
		MaxCyclomaticComplexity: a.maxCyc,
		MaxCognitiveComplexity:  a.maxCog,
		HighComplexityFiles:     a.highFiles,
		ComplexityDistribution:  a.distribution,
	}

	for path, score := range a.importance {
		pm.FileImportanceScores[path] = score
	}

	for ext, acc := range a.languages {
		stats := LanguageStats{
			FileCount:       acc.files,
			LinesOfCode:     acc.lines.Code,
			LinesOfComments: acc.lines.Comment,
			BlankLines:      acc.lines.Blank,
			AverageFileSize: acc.size / int64(acc.files),
			MaxCyclomatic:   acc.maxCyc,
			MaxCognitive:    acc.maxCog,
			TotalFunctions:  acc.functions,
		}
		if acc.analysed > 0 {
			n := float64(acc.analysed)
			stats.ComplexityEstimate = acc.scoreSum / n
			stats.AverageCyclomatic = float64(acc.cycSum) / n
			stats.AverageCognitive = float64(acc.cogSum) / n
			stats.AverageNestingDepth = float64(acc.nestSum) / n
		}
		pm.CodeByLanguage[ext] = stats
	}

	if a.analysed > 0 {
		n := float64(a.analysed)
		pm.ProjectComplexityScore = a.scoreSum / n
		pm.AverageCyclomaticComplexity = float64(a.cycSum) / n
		pm.AverageCognitiveComplexity = float64(a.cogSum) / n
	}

	switch {
	case a.sourceFiles > 0:
		pm.TestCoverageEstimate = min(float64(a.testFiles)/float64(a.sourceFiles), 1.0)
	case a.testFiles > 0:
		pm.TestCoverageEstimate = 1.0
	}

	if documented := a.lines.Code + a.lines.Comment; documented > 0 {
		pm.DocumentationRatio = float64(a.lines.Comment) / float64(documented)
	}
	return pm
}

// SortedLanguages returns the language keys ordered by file count, then name
func (pm *ProjectMetrics) SortedLanguages() []string {
	langs := make([]string, 0, len(pm.CodeByLanguage))
	for lang := range pm.CodeByLanguage {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		a, b := pm.CodeByLanguage[langs[i]], pm.CodeByLanguage[langs[j]]
		if a.FileCount != b.FileCount {
			return a.FileCount > b.FileCount
		}
		return langs[i] < langs[j]
	})
	return langs
}

// FormatAsJSON returns stats formatted as a JSON-serializable map
func (pm *ProjectMetrics) FormatAsJSON() map[string]interface{} {
	languageStats := make([]map[string]interface{}, 0, len(pm.CodeByLanguage))
	for _, lang := range pm.SortedLanguages() {
		stats := pm.CodeByLanguage[lang]
		languageStats = append(languageStats, map[string]interface{}{
			"language":       lang,
			"files":          stats.FileCount,
			"lines_of_code":  stats.LinesOfCode,
			"comments":       stats.LinesOfComments,
			"blanks":         stats.BlankLines,
			"avg_cyclomatic": stats.AverageCyclomatic,
			"avg_cognitive":  stats.AverageCognitive,
			"max_cyclomatic": stats.MaxCyclomatic,
			"functions":      stats.TotalFunctions,
		})
	}

	return map[string]interface{}{
		"summary": map[string]interface{}{
			"total_files":         pm.TotalFiles,
			"total_lines_of_code": pm.TotalLinesOfCode,
			"total_size_mb":       float64(pm.TotalSizeBytes) / 1024.0 / 1024.0,
			"test_coverage":       pm.TestCoverageEstimate,
			"documentation_ratio": pm.DocumentationRatio,
		},
		"languages": languageStats,
		"complexity": map[string]interface{}{
			"score":          pm.ProjectComplexityScore,
			"avg_cyclomatic": pm.AverageCyclomaticComplexity,
			"avg_cognitive":  pm.AverageCognitiveComplexity,
			"max_cyclomatic": pm.MaxCyclomaticComplexity,
			"max_cognitive":  pm.MaxCognitiveComplexity,
			"high_files":     pm.HighComplexityFiles,
			"distribution":   pm.ComplexityDistribution,
		},
	}
}

// FormatAsText returns stats formatted as human-readable text
func (pm *ProjectMetrics) FormatAsText() string {
	var sb strings.Builder

	sb.WriteString("╔════════════════════════════════════════════════════════════════╗\n")
	sb.WriteString("║            LIGHTNING CODE QUALITY - PROJECT REPORT             ║\n")
	sb.WriteString("╚════════════════════════════════════════════════════════════════╝\n\n")

	sb.WriteString("📊 SUMMARY\n")
	sb.WriteString("─────────────────────────────────────────────────────────────────\n")
	sb.WriteString(fmt.Sprintf("  Total Files:        %d\n", pm.TotalFiles))
	sb.WriteString(fmt.Sprintf("  Lines of Code:      %d\n", pm.TotalLinesOfCode))
	sb.WriteString(fmt.Sprintf("  Total Size:         %.2f MB\n", float64(pm.TotalSizeBytes)/1024.0/1024.0))
	sb.WriteString(fmt.Sprintf("  Test Coverage Est.: %.0f%%\n", pm.TestCoverageEstimate*100))
	sb.WriteString(fmt.Sprintf("  Documentation:      %.0f%%\n", pm.DocumentationRatio*100))

	sb.WriteString("\n📈 LANGUAGE DISTRIBUTION\n")
	sb.WriteString("─────────────────────────────────────────────────────────────────\n")
	for _, lang := range pm.SortedLanguages() {
		stats := pm.CodeByLanguage[lang]
		sb.WriteString(fmt.Sprintf("  %-8s %5d files  %8d loc  cyc %5.1f  cog %5.1f\n",
			lang+":",
			stats.FileCount,
			stats.LinesOfCode,
			stats.AverageCyclomatic,
			stats.AverageCognitive,
		))
	}

	d := pm.ComplexityDistribution
	sb.WriteString("\n📏 COMPLEXITY\n")
	sb.WriteString("─────────────────────────────────────────────────────────────────\n")
	sb.WriteString(fmt.Sprintf("  Project Score:      %.2f / 10\n", pm.ProjectComplexityScore))
	sb.WriteString(fmt.Sprintf("  Avg Cyclomatic:     %.1f (max %d)\n", pm.AverageCyclomaticComplexity, pm.MaxCyclomaticComplexity))
	sb.WriteString(fmt.Sprintf("  Avg Cognitive:      %.1f (max %d)\n", pm.AverageCognitiveComplexity, pm.MaxCognitiveComplexity))
	sb.WriteString(fmt.Sprintf("  High Complexity:    %d files\n", pm.HighComplexityFiles))
	sb.WriteString(fmt.Sprintf("  Distribution:       low %d  medium %d  high %d  extreme %d\n",
		d.Low, d.Medium, d.High, d.Extreme))

	return sb.String()
}

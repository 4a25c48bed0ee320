package metrics

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/standardbeagle/lcq/internal/types"
)

// CompactFormatVersion is bumped whenever the compact layout changes
const CompactFormatVersion = 3

// ImportantFileCount caps CompressedStructure.ImportantFiles
const ImportantFileCount = 5

// ProjectStructure is the file listing of a scanned project
type ProjectStructure struct {
	Root  string                 `json:"root"`
	Files []types.FileDescriptor `json:"files"`
}

// CompressedStructure is the terse project summary handed to prompts
type CompressedStructure struct {
	FormatVersion  uint8    `json:"format_version"`
	Tree           string   `json:"tree"`
	Metrics        string   `json:"metrics"`
	ImportantFiles []string `json:"important_files"`
	TokenEstimate  int      `json:"token_estimate"`
}

var dirAbbreviations = map[string]string{
	"src":          "s",
	"tests":        "t",
	"docs":         "d",
	"node_modules": "nm",
	"target":       "tg",
	"bin":          "b",
	"lib":          "l",
	"examples":     "ex",
	"fixtures":     "fx",
	"components":   "c",
}

// extAbbreviations is checked in order
var extAbbreviations = []struct{ ext, short string }{
	{".js", ":j"},
	{".rs", ":r"},
	{".py", ":p"},
	{".ts", ":t"},
	{".json", ":jn"},
}

var langAbbreviations = map[string]string{
	"rs":   "r",
	"js":   "j",
	"py":   "p",
	"ts":   "t",
	"java": "jv",
	"cpp":  "c+",
	"go":   "g",
	"rb":   "rb",
}

// Compress renders structure and metrics in the compact form
func Compress(structure ProjectStructure, pm *ProjectMetrics) CompressedStructure {
	tree := compressTree(structure.Files)
	metricsStr := compressMetrics(pm)

	return CompressedStructure{
		FormatVersion:  CompactFormatVersion,
		Tree:           tree,
		Metrics:        metricsStr,
		ImportantFiles: importantFiles(pm.FileImportanceScores, ImportantFileCount),
		TokenEstimate:  (len(tree+";"+metricsStr) + 2) / 3,
	}
}

func compressTree(files []types.FileDescriptor) string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, filepath.ToSlash(f.Path))
	}
	sort.Strings(paths)

	groups := make(map[string][]string)
	for _, p := range paths {
		dir, file := path.Split(p)
		if dir == "" {
			groups[""] = append(groups[""], p)
			continue
		}
		parts := strings.Split(strings.TrimSuffix(dir, "/"), "/")
		for i, part := range parts {
			if short, ok := dirAbbreviations[part]; ok {
				parts[i] = short
			}
		}
		key := strings.Join(parts, "/")
		groups[key] = append(groups[key], abbreviateFile(file))
	}

	dirs := make([]string, 0, len(groups))
	for dir := range groups {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	parts := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if dir == "" {
			parts = append(parts, strings.Join(groups[dir], ","))
		} else {
			parts = append(parts, fmt.Sprintf("%s[%s]", dir, strings.Join(groups[dir], ",")))
		}
	}
	return strings.Join(parts, ";")
}

func abbreviateFile(name string) string {
	for _, a := range extAbbreviations {
		if strings.HasSuffix(name, a.ext) {
			return strings.TrimSuffix(name, a.ext) + a.short
		}
	}
	return name
}

func compressMetrics(pm *ProjectMetrics) string {
	langs := make([]string, 0, len(pm.CodeByLanguage))
	for lang := range pm.CodeByLanguage {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	entries := make([]string, 0, len(langs))
	for _, lang := range langs {
		stats := pm.CodeByLanguage[lang]
		short := lang
		if s, ok := langAbbreviations[lang]; ok {
			short = s
		}
		entries = append(entries, fmt.Sprintf("%s:%d/%d/%.1f/%.1f",
			short, stats.LinesOfCode, stats.FileCount, stats.AverageCyclomatic, stats.AverageCognitive))
	}
	metricsStr := fmt.Sprintf("L%d,%s", pm.TotalLinesOfCode, strings.Join(entries, ","))

	quality := fmt.Sprintf("Q%.0f/%.0f/%.0f",
		pm.ProjectComplexityScore*10.0,
		pm.TestCoverageEstimate*100.0,
		pm.DocumentationRatio*100.0)

	d := pm.ComplexityDistribution
	complexity := fmt.Sprintf("C%.1f/%.1f/%d/%d/%d+%d+%d+%d",
		pm.AverageCyclomaticComplexity,
		pm.AverageCognitiveComplexity,
		pm.MaxCyclomaticComplexity,
		pm.MaxCognitiveComplexity,
		d.Low, d.Medium, d.High, d.Extreme)

	return metricsStr + ";" + quality + ";" + complexity
}

// importantFiles returns the basenames of the n highest scoring paths.
// Equal scores fall back to path order.
func importantFiles(scores map[string]float64, n int) []string {
	paths := make([]string, 0, len(scores))
	for p := range scores {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		if scores[paths[i]] != scores[paths[j]] {
			return scores[paths[i]] > scores[paths[j]]
		}
		return paths[i] < paths[j]
	})

	out := make([]string, 0, min(n, len(paths)))
	for _, p := range paths[:min(n, len(paths))] {
		out = append(out, path.Base(p))
	}
	return out
}

// String renders the on-wire form:
//
//	V<version>|<tree>|<metrics>|<important,files>|T<token estimate>
func (c CompressedStructure) String() string {
	return fmt.Sprintf("V%d|%s|%s|%s|T%d",
		c.FormatVersion, c.Tree, c.Metrics, strings.Join(c.ImportantFiles, ","), c.TokenEstimate)
}

// ParseCompact reads the output of CompressedStructure.String
func ParseCompact(s string) (CompressedStructure, error) {
	fields := strings.Split(s, "|")
	if len(fields) != 5 {
		return CompressedStructure{}, fmt.Errorf("compact form: expected 5 fields, got %d", len(fields))
	}

	if !strings.HasPrefix(fields[0], "V") {
		return CompressedStructure{}, fmt.Errorf("compact form: missing version marker in %q", fields[0])
	}
	version, err := strconv.ParseUint(fields[0][1:], 10, 8)
	if err != nil {
		return CompressedStructure{}, fmt.Errorf("compact form: bad version %q: %w", fields[0], err)
	}

	if !strings.HasPrefix(fields[4], "T") {
		return CompressedStructure{}, fmt.Errorf("compact form: missing token marker in %q", fields[4])
	}
	tokens, err := strconv.Atoi(fields[4][1:])
	if err != nil {
		return CompressedStructure{}, fmt.Errorf("compact form: bad token estimate %q: %w", fields[4], err)
	}

	c := CompressedStructure{
		FormatVersion:  uint8(version),
		Tree:           fields[1],
		Metrics:        fields[2],
		ImportantFiles: []string{},
		TokenEstimate:  tokens,
	}
	if fields[3] != "" {
		c.ImportantFiles = strings.Split(fields[3], ",")
	}
	return c, nil
}

package display

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/standardbeagle/lcq/internal/analysis"
	"github.com/standardbeagle/lcq/internal/project"
	"github.com/standardbeagle/lcq/internal/types"
	"github.com/standardbeagle/lcq/pkg/pathutil"
)

// Output formats
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatCompact = "compact"
)

// ReportFormatter renders scores and project results for the terminal
type ReportFormatter struct {
	options FormatterOptions
}

// FormatterOptions controls report formatting
type FormatterOptions struct {
	Format      string // "text", "json", "compact"
	ShowMetrics bool   // Append complexity metrics to single-file reports
	AgentMode   bool   // Severity markers for agent consumption
	MaxFiles    int    // Files listed in project text reports, 0 = all
	Indent      string
}

// NewReportFormatter creates a new report formatter
func NewReportFormatter(options FormatterOptions) *ReportFormatter {
	if options.Indent == "" {
		options.Indent = "  "
	}
	if options.Format == "" {
		options.Format = FormatText
	}
	return &ReportFormatter{options: options}
}

// ParseFormat validates a --format value
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatCompact:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json or compact)", s)
	}
}

// FileReport is the JSON shape of a single-file analysis
type FileReport struct {
	Path    string                   `json:"path,omitempty"`
	Score   *types.QualityScore      `json:"score"`
	Metrics *types.ComplexityMetrics `json:"metrics,omitempty"`
}

// FormatScore renders one file's score
func (rf *ReportFormatter) FormatScore(path string, score *types.QualityScore, m *types.ComplexityMetrics) string {
	if score == nil {
		return "No score available"
	}
	switch rf.options.Format {
	case FormatJSON:
		return marshal(FileReport{Path: path, Score: score, Metrics: m})
	case FormatCompact:
		return rf.compactScore(path, score)
	default:
		return rf.textScore(path, score, m)
	}
}

func (rf *ReportFormatter) textScore(path string, score *types.QualityScore, m *types.ComplexityMetrics) string {
	var sb strings.Builder
	if path != "" {
		sb.WriteString(path)
		sb.WriteString("\n")
	}
	sb.WriteString(analysis.Summary(score))
	sb.WriteString("\n")
	if score.Message != "" {
		sb.WriteString(rf.options.Indent + score.Message + "\n")
	}

	if len(score.Issues) == 0 {
		sb.WriteString("No issues found\n")
	} else {
		fmt.Fprintf(&sb, "\nIssues (%d):\n", score.TotalIssues)
		for _, issue := range score.Issues {
			sb.WriteString(rf.options.Indent)
			if rf.options.AgentMode {
				sb.WriteString(severityMarker(issue.Severity) + " ")
			}
			fmt.Fprintf(&sb, "%d:%d %-8s %s [%s]", issue.Line, issue.Column, issue.Severity, issue.Message, issue.RuleID)
			if issue.PointsDeducted > 0 {
				fmt.Fprintf(&sb, " (-%d)", issue.PointsDeducted)
			}
			sb.WriteString("\n")
		}
	}

	if rf.options.ShowMetrics && m != nil {
		sb.WriteString("\nComplexity:\n")
		fmt.Fprintf(&sb, "%scyclomatic %d, cognitive %d, nesting %d\n", rf.options.Indent,
			m.CyclomaticComplexity, m.CognitiveComplexity, m.NestingDepth)
		fmt.Fprintf(&sb, "%sfunctions %d, parameters %d, returns %d, lines %d\n", rf.options.Indent,
			m.FunctionCount, m.ParameterCount, m.ReturnPoints, m.LineCount)
	}
	return sb.String()
}

func (rf *ReportFormatter) compactScore(path string, score *types.QualityScore) string {
	counts := map[types.Severity]int{}
	for _, issue := range score.Issues {
		counts[issue.Severity]++
	}
	line := fmt.Sprintf("%d/%d C%d M%d m%d", score.TotalScore, types.MaxTotal,
		counts[types.SeverityCritical], counts[types.SeverityMajor], counts[types.SeverityMinor])
	if path != "" {
		line = path + " " + line
	}
	return line
}

// ProjectReport is the JSON shape of a project run
type ProjectReport struct {
	Root     string          `json:"root"`
	Files    []FileReport    `json:"files"`
	Failures []FailureReport `json:"failures"`
	Summary  interface{}     `json:"summary"`
	Compact  string          `json:"compact"`
}

// FailureReport is one failed file
type FailureReport struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// FormatProject renders a project run
func (rf *ReportFormatter) FormatProject(res *project.Result) string {
	if res == nil {
		return "No project data available"
	}
	switch rf.options.Format {
	case FormatJSON:
		return rf.jsonProject(res)
	case FormatCompact:
		return res.Compact().String()
	default:
		return rf.textProject(res)
	}
}

func (rf *ReportFormatter) jsonProject(res *project.Result) string {
	report := ProjectReport{
		Root:     res.Root,
		Files:    make([]FileReport, 0, len(res.Results)),
		Failures: make([]FailureReport, 0, len(res.Failures)),
		Compact:  res.Compact().String(),
	}
	for _, fr := range res.Results {
		report.Files = append(report.Files, FileReport{
			Path:    pathutil.ToRelative(fr.Path, res.Root),
			Score:   pathutil.ToRelativeScore(fr.Score, res.Root),
			Metrics: fr.Metrics,
		})
	}
	for _, ff := range res.Failures {
		report.Failures = append(report.Failures, FailureReport{Path: pathutil.ToRelative(ff.Path, res.Root), Error: ff.Err.Error()})
	}
	if res.Metrics != nil {
		report.Summary = res.Metrics.FormatAsJSON()
	}
	return marshal(report)
}

func (rf *ReportFormatter) textProject(res *project.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analysed %d files in %s (%d failed", len(res.Results)+len(res.Failures),
		res.Duration.Round(time.Millisecond), len(res.Failures))
	if cached := res.CachedCount(); cached > 0 {
		fmt.Fprintf(&sb, ", %d from cache", cached)
	}
	sb.WriteString(")\n\n")

	// Lowest scores first
	files := append([]project.FileResult(nil), res.Results...)
	sort.SliceStable(files, func(i, j int) bool { return files[i].Score.TotalScore < files[j].Score.TotalScore })
	if rf.options.MaxFiles > 0 && len(files) > rf.options.MaxFiles {
		files = files[:rf.options.MaxFiles]
	}
	for _, fr := range files {
		marker := ""
		if rf.options.AgentMode {
			marker = scoreMarker(fr.Score.TotalScore) + " "
		}
		fmt.Fprintf(&sb, "%s%s%4d/%d  %2d issues  %s\n", rf.options.Indent, marker, fr.Score.TotalScore,
			types.MaxTotal, fr.Score.TotalIssues, pathutil.ToRelative(fr.Path, res.Root))
	}

	if len(res.Failures) > 0 {
		sb.WriteString("\nFailures:\n")
		for _, ff := range res.Failures {
			fmt.Fprintf(&sb, "%s%s: %v\n", rf.options.Indent, pathutil.ToRelative(ff.Path, res.Root), ff.Err)
		}
	}

	if res.Metrics != nil {
		sb.WriteString("\n")
		sb.WriteString(res.Metrics.FormatAsText())
	}
	return sb.String()
}

func severityMarker(s types.Severity) string {
	switch s {
	case types.SeverityCritical:
		return "🔴"
	case types.SeverityMajor:
		return "🟡"
	default:
		return "🟢"
	}
}

func scoreMarker(total int) string {
	switch {
	case total >= 900:
		return "🟢"
	case total >= 700:
		return "🟡"
	default:
		return "🔴"
	}
}

func marshal(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

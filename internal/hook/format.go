package hook

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/lcq/internal/analysis"
	"github.com/standardbeagle/lcq/internal/config"
	"github.com/standardbeagle/lcq/internal/types"
)

var severityGroups = []struct {
	severity types.Severity
	title    string
}{
	{types.SeverityCritical, "\n🔴 CRITICAL (P1 - Fix immediately):"},
	{types.SeverityMajor, "\n🟡 MAJOR (P2 - Fix soon):"},
	{types.SeverityMinor, "\n🟢 MINOR (P3 - Nice to fix):"},
}

// MaxIssuesFromEnv returns the AST_MAX_ISSUES cap, or the hook default
func MaxIssuesFromEnv() int {
	if n, ok := config.EnvMaxIssues(); ok {
		return n
	}
	return config.DefaultHookMaxIssues
}

// FormatIssues renders the issue block for the assistant. A clean score
// renders as the empty string. maxIssues is clamped to the AST_MAX_ISSUES
// bounds.
func FormatIssues(score *types.QualityScore, maxIssues int) string {
	if score == nil || len(score.Issues) == 0 {
		return ""
	}
	maxIssues = config.ClampMaxIssues(maxIssues)

	issues := append([]types.Issue(nil), score.Issues...)
	types.SortIssuesBySeverity(issues)
	total := max(len(issues), score.TotalIssues)
	if len(issues) > maxIssues {
		issues = issues[:maxIssues]
	}

	var sb strings.Builder
	sb.Grow(2000)
	sb.WriteString("\n\nAST DETECTED ISSUES (Automated, top sorted):\n")
	for _, group := range severityGroups {
		first := true
		for _, issue := range issues {
			if issue.Severity != group.severity {
				continue
			}
			if first {
				sb.WriteString(group.title)
				sb.WriteByte('\n')
				first = false
			}
			fmt.Fprintf(&sb, "  Line %d: %s [%s] (-%d points)\n",
				issue.Line, issue.Message, issue.RuleID, issue.PointsDeducted)
		}
	}
	if total > len(issues) {
		fmt.Fprintf(&sb, "\n… truncated: showing %d of %d issues (AST_MAX_ISSUES).\n", len(issues), total)
	}
	sb.WriteString("\nNote: Use AST issues as baseline. Add context-aware insights.\n")
	return sb.String()
}

// FormatContext is the additionalContext for an analysed file: the score
// summary followed by the issue block, or nothing for a clean file.
func FormatContext(score *types.QualityScore, maxIssues int) string {
	block := FormatIssues(score, maxIssues)
	if block == "" {
		return ""
	}
	return analysis.Summary(score) + block
}

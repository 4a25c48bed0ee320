package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lcq/internal/parser"
	"github.com/standardbeagle/lcq/internal/types"
)

// MaxLineLength is the longest line accepted without a LINE001 issue
const MaxLineLength = 120

// Function-level limits shared by both rule engines
const (
	MaxParameters   = 5
	MaxNestingDepth = 4
)

var (
	sensitiveWords = []string{"password", "api_key", "secret", "token"}
	// values mentioning these come from somewhere other than a literal
	indirectSources = []string{"getenv", "env", "config", "input"}
)

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// isSQLShaped is a deliberately coarse detector for statements built as text
func isSQLShaped(text string) bool {
	return (strings.Contains(text, "SELECT") && strings.Contains(text, "WHERE")) ||
		(strings.Contains(text, "INSERT") && strings.Contains(text, "VALUES")) ||
		(strings.Contains(text, "UPDATE") && strings.Contains(text, "SET")) ||
		(strings.Contains(text, "DELETE") && strings.Contains(text, "FROM"))
}

func newIssue(node *tree_sitter.Node, sev types.Severity, cat types.Category, ruleID, msg string, points int) types.Issue {
	pos := node.StartPosition()
	return types.Issue{
		Severity:       sev,
		Category:       cat,
		Message:        msg,
		Line:           int(pos.Row) + 1,
		Column:         int(pos.Column) + 1,
		RuleID:         ruleID,
		PointsDeducted: points,
	}
}

// longLineIssues scans source line by line. Length is measured in runes
// with any trailing carriage return excluded.
func longLineIssues(source string) []types.Issue {
	var issues []types.Issue
	line := 0
	for len(source) > 0 {
		line++
		end := strings.IndexByte(source, '\n')
		var text string
		if end < 0 {
			text, source = source, ""
		} else {
			text, source = source[:end], source[end+1:]
		}
		text = strings.TrimSuffix(text, "\r")
		n := utf8.RuneCountInString(text)
		if n <= MaxLineLength {
			continue
		}
		issues = append(issues, types.Issue{
			Severity:       types.SeverityMinor,
			Category:       types.CategoryLongLine,
			Message:        fmt.Sprintf("Line too long (%d > %d chars)", n, MaxLineLength),
			Line:           line,
			Column:         MaxLineLength + 1,
			RuleID:         "LINE001",
			PointsDeducted: (n-MaxLineLength)/10 + 1,
		})
	}
	return issues
}

// functionIssues runs the per-function checks: parameters, complexity, nesting
func functionIssues(cls *classifier, fn *tree_sitter.Node, withParams, withComplexity, withNesting bool) []types.Issue {
	var issues []types.Issue
	if withParams {
		if n := countParameters(cls.lang, cls.table, fn); n > MaxParameters {
			issues = append(issues, newIssue(fn, types.SeverityMinor, types.CategoryTooManyParameters, "PARAMS001",
				fmt.Sprintf("Function has too many parameters (%d > %d)", n, MaxParameters), 15))
		}
	}
	if !withComplexity && !withNesting {
		return issues
	}
	scan := scanFunction(cls.role, fn)
	if withComplexity {
		if threshold := ComplexityThreshold(cls.lang); scan.complexity > threshold {
			issues = append(issues, newIssue(fn, types.SeverityMinor, types.CategoryHighComplexity, "AST003",
				fmt.Sprintf("High cyclomatic complexity: %d (threshold: %d)", scan.complexity, threshold),
				(scan.complexity-threshold)*5))
		}
	}
	if withNesting && scan.maxDepth > MaxNestingDepth {
		issues = append(issues, newIssue(fn, types.SeverityMinor, types.CategoryDeepNesting, "NEST001",
			fmt.Sprintf("Deep nesting detected (level %d)", scan.maxDepth), (scan.maxDepth-MaxNestingDepth)*10))
	}
	return issues
}

// unreachableAfter reports the statement following a return-like node, if any
func unreachableAfter(table *parser.KindTable, node *tree_sitter.Node) (types.Issue, bool) {
	next := node.NextNamedSibling()
	if next == nil || isClosingOrComment(table, next) {
		return types.Issue{}, false
	}
	return newIssue(next, types.SeverityMajor, types.CategoryUnreachableCode, "AST002",
		"Unreachable code after return statement", 30), true
}

// assignedValue finds the value side of an assignment-shaped node
func assignedValue(node *tree_sitter.Node) *tree_sitter.Node {
	for _, field := range []string{"right", "value"} {
		if v := node.ChildByFieldName(field); v != nil {
			return firstOfList(v)
		}
	}
	// grammars without fields: the first named node after "="
	seenEquals := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if !child.IsNamed() {
			if child.Kind() == "=" || child.Kind() == ":=" {
				seenEquals = true
			}
			continue
		}
		if seenEquals {
			return firstOfList(child)
		}
		// C# wraps the value in an equals_value_clause
		if child.Kind() == "equals_value_clause" && child.NamedChildCount() > 0 {
			return child.NamedChild(0)
		}
	}
	return nil
}

// firstOfList unwraps Go expression lists to their first element
func firstOfList(v *tree_sitter.Node) *tree_sitter.Node {
	if v.Kind() == "expression_list" && v.NamedChildCount() > 0 {
		return v.NamedChild(0)
	}
	return v
}

func isStringNode(table *parser.KindTable, node *tree_sitter.Node) bool {
	if node == nil {
		return false
	}
	if table != nil && table.Is(parser.String, node) {
		return true
	}
	kind := node.Kind()
	return strings.Contains(kind, "string") && !strings.Contains(kind, "content") &&
		!strings.Contains(kind, "fragment")
}

// credentialAssignment reports an assignment of a string literal whose text
// names a credential and does not read it from somewhere else.
func credentialAssignment(table *parser.KindTable, node *tree_sitter.Node, src []byte) (types.Issue, bool) {
	text := strings.ToLower(node.Utf8Text(src))
	if !containsAny(text, sensitiveWords) || containsAny(text, indirectSources) {
		return types.Issue{}, false
	}
	if !isStringNode(table, assignedValue(node)) {
		return types.Issue{}, false
	}
	return newIssue(node, types.SeverityCritical, types.CategoryHardcodedCredentials, "SEC001",
		"Hardcoded credentials in assignment", 50), true
}

const sqlInterpolationMessage = "SQL injection risk in string interpolation - use parameterized queries"

// sqlInjection checks one node for SQL text assembled from runtime values.
// Only interpolating or concatenating contexts are considered.
func sqlInjection(lang parser.Language, table *parser.KindTable, node *tree_sitter.Node, src []byte) (types.Issue, bool) {
	if lang == parser.LanguagePython && node.Kind() == "string_content" {
		parent := node.Parent()
		if parent == nil || !isPythonFString(parent, src) || !isSQLShaped(node.Utf8Text(src)) {
			return types.Issue{}, false
		}
		return newIssue(node, types.SeverityCritical, types.CategorySqlInjection, "SEC001",
			"SQL injection risk in f-string - use parameterized queries", 50), true
	}

	if !table.Is(parser.String, node) {
		return types.Issue{}, false
	}
	if !interpolates(lang, node) && !concatenated(node, src) {
		return types.Issue{}, false
	}
	if !isSQLShaped(node.Utf8Text(src)) {
		return types.Issue{}, false
	}
	return newIssue(node, types.SeverityMajor, types.CategorySqlInjection, "SEC001", sqlInterpolationMessage, 50), true
}

func isPythonFString(str *tree_sitter.Node, src []byte) bool {
	if str.Kind() != "string" {
		return false
	}
	prefix := str.Utf8Text(src)
	if i := strings.IndexAny(prefix, `"'`); i >= 0 {
		prefix = prefix[:i]
	}
	return strings.ContainsAny(prefix, "fF")
}

// interpolates reports string literals that splice runtime values
func interpolates(lang parser.Language, node *tree_sitter.Node) bool {
	switch lang {
	case parser.LanguageCSharp:
		if strings.HasPrefix(node.Kind(), "interpolated_string") {
			return true
		}
	case parser.LanguagePython:
		// f-strings are handled on their content nodes
		return false
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "template_substitution", "interpolation", "variable_name", "member_access_expression",
			"subscript_expression", "dynamic_variable_name":
			return true
		}
	}
	return false
}

var formatCallees = []string{"Sprintf", "format", "Format", "printf"}

// concatenated reports a string used as an operand of + . or %, or passed to
// a formatting call.
func concatenated(node *tree_sitter.Node, src []byte) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case "binary_expression", "binary_operator", "binary":
		op := parent.ChildByFieldName("operator")
		if op == nil {
			for i := uint(0); i < parent.ChildCount(); i++ {
				if c := parent.Child(i); c != nil && !c.IsNamed() {
					op = c
					break
				}
			}
		}
		if op == nil {
			return false
		}
		switch op.Kind() {
		case "+", ".", "%":
			return true
		}
	case "argument_list", "arguments":
		call := parent.Parent()
		if call == nil {
			return false
		}
		fn := call.ChildByFieldName("function")
		if fn == nil {
			return false
		}
		name := fn.Utf8Text(src)
		for _, callee := range formatCallees {
			if strings.HasSuffix(name, callee) {
				return true
			}
		}
	case "attribute":
		// "...".format(x) in Python
		if attr := parent.ChildByFieldName("attribute"); attr != nil && attr.Utf8Text(src) == "format" {
			return true
		}
	}
	return false
}

// literalBody strips a literal's prefix letters (f, r, b, @, $) and quotes
func literalBody(text string) string {
	if i := strings.IndexAny(text, "`'\""); i >= 0 && i <= 3 {
		text = text[i:]
	}
	return strings.Trim(text, "`'\"")
}

// credentialLiteral applies the string-literal credential heuristics
func credentialLiteral(table *parser.KindTable, node *tree_sitter.Node, src []byte) (types.Issue, bool) {
	if !isStringNode(table, node) || isStringNode(table, node.Parent()) {
		return types.Issue{}, false
	}
	raw := literalBody(node.Utf8Text(src))
	lower := strings.ToLower(raw)
	suspicious := (strings.HasPrefix(raw, "sk-") && len(raw) > 10) ||
		((strings.Contains(lower, "password=") || strings.Contains(lower, "secret=") ||
			strings.Contains(lower, "token=")) && len(raw) > 8)
	if !suspicious {
		return types.Issue{}, false
	}
	return newIssue(node, types.SeverityCritical, types.CategoryHardcodedCredentials, "SEC001",
		"Hardcoded credential detected in string", 50), true
}

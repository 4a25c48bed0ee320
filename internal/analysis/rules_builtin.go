package analysis

import (
	"fmt"
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lcq/internal/parser"
	"github.com/standardbeagle/lcq/internal/types"
)

var unfinishedWork = regexp.MustCompile(`(?i)\b(TODO|FIXME|TBD|XXX|HACK|WIP|UNFINISHED|STUB)\b`)

// TodoRule flags unfinished-work markers, preferring comment nodes
type TodoRule struct{}

func (TodoRule) ID() string { return "TODO001" }

func (TodoRule) Check(tree *tree_sitter.Tree, source []byte, lang parser.Language) []types.Issue {
	cls, ok := ruleContext(tree, lang)
	if !ok {
		return nil
	}
	var issues []types.Issue
	sawComment := false
	walk(tree.RootNode(), func(n *tree_sitter.Node) {
		if !cls.table.Is(parser.Comment, n) {
			return
		}
		sawComment = true
		start := n.StartPosition()
		for i, line := range strings.Split(n.Utf8Text(source), "\n") {
			loc := unfinishedWork.FindStringIndex(line)
			if loc == nil {
				continue
			}
			col := loc[0] + 1
			if i == 0 {
				col += int(start.Column)
			}
			issues = append(issues, types.Issue{
				Severity:       types.SeverityMajor,
				Category:       types.CategoryUnfinishedWork,
				Message:        "Unfinished work marker in comment (TODO/FIXME/TBD/...)",
				Line:           int(start.Row) + 1 + i,
				Column:         col,
				RuleID:         "TODO001",
				PointsDeducted: 15,
			})
		}
	})
	if sawComment {
		return issues
	}

	for i, line := range strings.Split(string(source), "\n") {
		if unfinishedWork.MatchString(line) {
			issues = append(issues, types.Issue{
				Severity:       types.SeverityMajor,
				Category:       types.CategoryUnfinishedWork,
				Message:        "Unfinished work marker (TODO/FIXME/TBD/...)",
				Line:           i + 1,
				Column:         1,
				RuleID:         "TODO001",
				PointsDeducted: 15,
			})
		}
	}
	return issues
}

// UnhandledErrorRule flags panicking unwraps, discarded Go errors and
// empty exception handlers.
type UnhandledErrorRule struct{}

func (UnhandledErrorRule) ID() string { return "UNHANDLED_ERROR" }

func (UnhandledErrorRule) Check(tree *tree_sitter.Tree, source []byte, lang parser.Language) []types.Issue {
	cls, ok := ruleContext(tree, lang)
	if !ok {
		return nil
	}
	table := cls.table
	var issues []types.Issue
	walk(tree.RootNode(), func(n *tree_sitter.Node) {
		switch {
		case table.Is(parser.Call, n):
			switch calleeName(n, source) {
			case "unwrap":
				issues = append(issues, newIssue(n, types.SeverityMajor, types.CategoryUnhandledError, "AST001",
					"Using .unwrap() without error handling", 50))
			case "expect":
				issues = append(issues, newIssue(n, types.SeverityMajor, types.CategoryUnhandledError, "AST001",
					"Using .expect() without error handling", 50))
			}
		case lang == parser.LanguageGo && table.Is(parser.Assignment, n):
			if discardsGoError(n, source) {
				issues = append(issues, newIssue(n, types.SeverityMajor, types.CategoryUnhandledError, "AST001",
					"Error return value discarded with _", 50))
			}
		case table.Is(parser.Catch, n):
			if handlerIsEmpty(table, n) {
				issues = append(issues, newIssue(n, types.SeverityMajor, types.CategoryUnhandledError, "AST001",
					"Empty exception handler swallows errors", 50))
			}
		}
	})
	return issues
}

// calleeName returns the last segment of a call's callee
func calleeName(call *tree_sitter.Node, src []byte) string {
	var callee *tree_sitter.Node
	for _, field := range []string{"function", "method", "name"} {
		if callee = call.ChildByFieldName(field); callee != nil {
			break
		}
	}
	if callee == nil {
		return ""
	}
	name := callee.Utf8Text(src)
	if i := strings.LastIndexAny(name, ".:>"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}

// discardsGoError matches "v, _ := f()" and "_ = f()" where the blank
// identifier takes the last result of a call.
func discardsGoError(n *tree_sitter.Node, src []byte) bool {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil {
		return false
	}
	value := firstOfList(right)
	if value.Kind() != "call_expression" {
		return false
	}
	count := left.NamedChildCount()
	if count == 0 {
		return strings.TrimSpace(left.Utf8Text(src)) == "_"
	}
	last := left.NamedChild(count - 1)
	return last != nil && last.Utf8Text(src) == "_"
}

func handlerIsEmpty(table *parser.KindTable, handler *tree_sitter.Node) bool {
	body := handler.ChildByFieldName("body")
	if body == nil {
		for i := int(handler.NamedChildCount()) - 1; i >= 0; i-- {
			c := handler.NamedChild(uint(i))
			if c != nil && (table.Is(parser.Block, c) || c.Kind() == "then") {
				body = c
				break
			}
		}
	}
	if body == nil {
		// Ruby rescue with no statements has no body node at all
		return handler.Kind() == "rescue"
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		c := body.NamedChild(i)
		if c == nil || table.Is(parser.Comment, c) || c.Kind() == "pass_statement" {
			continue
		}
		return false
	}
	return true
}

// SecurityPatternRule runs the credential and SQL checks as its own walk,
// plus heuristics for credential-looking string literals.
type SecurityPatternRule struct{}

func (SecurityPatternRule) ID() string { return "SECURITY_PATTERN" }

func (SecurityPatternRule) Check(tree *tree_sitter.Tree, source []byte, lang parser.Language) []types.Issue {
	cls, ok := ruleContext(tree, lang)
	if !ok {
		return nil
	}
	table := cls.table
	var issues []types.Issue
	flagged := make(map[uintptr]bool)
	walk(tree.RootNode(), func(n *tree_sitter.Node) {
		if table.Is(parser.Assignment, n) {
			if issue, ok := credentialAssignment(table, n, source); ok {
				issues = append(issues, issue)
				if v := assignedValue(n); v != nil {
					flagged[v.Id()] = true
				}
			}
		}
		if issue, ok := sqlInjection(lang, table, n, source); ok {
			issues = append(issues, issue)
			return
		}
		if flagged[n.Id()] {
			return
		}
		if issue, ok := credentialLiteral(table, n, source); ok {
			issues = append(issues, issue)
		}
	})
	return issues
}

// ResourceLeakRule flags handles opened without a visible cleanup path
type ResourceLeakRule struct{}

func (ResourceLeakRule) ID() string { return "RESOURCE_LEAK" }

const resourceLeakMessage = "Potential resource leak - ensure proper cleanup"

var javaResources = map[string]bool{
	"FileInputStream": true, "FileOutputStream": true, "FileReader": true,
	"FileWriter": true, "Socket": true, "RandomAccessFile": true,
}

func (ResourceLeakRule) Check(tree *tree_sitter.Tree, source []byte, lang parser.Language) []types.Issue {
	cls, ok := ruleContext(tree, lang)
	if !ok {
		return nil
	}
	table := cls.table
	var issues []types.Issue
	leak := func(n *tree_sitter.Node) {
		issues = append(issues, newIssue(n, types.SeverityMajor, types.CategoryResourceLeak, "RES001",
			resourceLeakMessage, 50))
	}

	walk(tree.RootNode(), func(n *tree_sitter.Node) {
		if !table.Is(parser.Call, n) {
			return
		}
		switch lang {
		case parser.LanguagePython:
			fn := n.ChildByFieldName("function")
			if fn != nil && fn.Utf8Text(source) == "open" && !hasAncestor(n, "with_statement", nil) {
				leak(n)
			}
		case parser.LanguageGo:
			fn := n.ChildByFieldName("function")
			if fn == nil {
				return
			}
			switch fn.Utf8Text(source) {
			case "os.Open", "os.Create", "os.OpenFile":
				if owner := enclosingFunction(cls, n); owner != nil && !containsKind(owner, "defer_statement") {
					leak(n)
				}
			}
		case parser.LanguageJava:
			if n.Kind() != "object_creation_expression" {
				return
			}
			typ := n.ChildByFieldName("type")
			if typ != nil && javaResources[typ.Utf8Text(source)] &&
				!hasAncestor(n, "resource_specification", nil) {
				leak(n)
			}
		case parser.LanguageCSharp:
			if n.Kind() != "object_creation_expression" {
				return
			}
			typ := n.ChildByFieldName("type")
			if typ != nil && strings.HasSuffix(typ.Utf8Text(source), "Stream") &&
				!hasAncestor(n, "using_statement", nil) && !isUsingDeclaration(n, source) {
				leak(n)
			}
		case parser.LanguageC, parser.LanguageCpp:
			fn := n.ChildByFieldName("function")
			if fn == nil || fn.Utf8Text(source) != "fopen" {
				return
			}
			if owner := enclosingFunction(cls, n); owner != nil && !strings.Contains(owner.Utf8Text(source), "fclose") {
				leak(n)
			}
		}
	})
	return issues
}

// hasAncestor walks parents until kind is found or stop returns true
func hasAncestor(n *tree_sitter.Node, kind string, stop func(*tree_sitter.Node) bool) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == kind {
			return true
		}
		if stop != nil && stop(p) {
			return false
		}
	}
	return false
}

func enclosingFunction(cls *classifier, n *tree_sitter.Node) *tree_sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if cls.table.Is(parser.Function, p) {
			return p
		}
	}
	return nil
}

func containsKind(root *tree_sitter.Node, kind string) bool {
	found := false
	walk(root, func(n *tree_sitter.Node) {
		if n.Kind() == kind {
			found = true
		}
	})
	return found
}

func isUsingDeclaration(n *tree_sitter.Node, src []byte) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == "local_declaration_statement" {
			return strings.HasPrefix(strings.TrimSpace(p.Utf8Text(src)), "using")
		}
	}
	return false
}

// DeadCodeRule flags statements after a return
type DeadCodeRule struct{}

func (DeadCodeRule) ID() string { return "DEAD_CODE" }

func (DeadCodeRule) Check(tree *tree_sitter.Tree, source []byte, lang parser.Language) []types.Issue {
	cls, ok := ruleContext(tree, lang)
	if !ok {
		return nil
	}
	var issues []types.Issue
	walk(tree.RootNode(), func(n *tree_sitter.Node) {
		if cls.table.Is(parser.Return, n) && isReturnStatement(n) {
			if issue, ok := unreachableAfter(cls.table, n); ok {
				issues = append(issues, issue)
			}
		}
	})
	return issues
}

// ComplexityRule flags functions above the language's cyclomatic threshold
type ComplexityRule struct{}

func (ComplexityRule) ID() string { return "COMPLEXITY" }

func (ComplexityRule) Check(tree *tree_sitter.Tree, source []byte, lang parser.Language) []types.Issue {
	cls, ok := ruleContext(tree, lang)
	if !ok {
		return nil
	}
	var issues []types.Issue
	walk(tree.RootNode(), func(n *tree_sitter.Node) {
		if cls.table.Is(parser.Function, n) {
			issues = append(issues, functionIssues(cls, n, false, true, false)...)
		}
	})
	return issues
}

// LongLineRule is the line-length pre-pass as a standalone rule
type LongLineRule struct{}

func (LongLineRule) ID() string { return "LONG_LINE" }

func (LongLineRule) Check(_ *tree_sitter.Tree, source []byte, _ parser.Language) []types.Issue {
	return longLineIssues(string(source))
}

// Long method limits
const (
	MaxMethodLines      = 100
	MaxMethodStatements = 50
)

// LongMethodRule flags functions over the line or statement budget
type LongMethodRule struct{}

func (LongMethodRule) ID() string { return "LONG_METHOD" }

func (LongMethodRule) Check(tree *tree_sitter.Tree, source []byte, lang parser.Language) []types.Issue {
	cls, ok := ruleContext(tree, lang)
	if !ok {
		return nil
	}
	var issues []types.Issue
	walk(tree.RootNode(), func(n *tree_sitter.Node) {
		if !cls.table.Is(parser.Function, n) {
			return
		}
		lines := int(n.EndPosition().Row-n.StartPosition().Row) + 1
		statements := 0
		walk(n, func(s *tree_sitter.Node) {
			if strings.HasSuffix(s.Kind(), "_statement") {
				statements++
			}
		})
		if lines > MaxMethodLines || statements > MaxMethodStatements {
			issues = append(issues, newIssue(n, types.SeverityMinor, types.CategoryLongMethod, "GEN001",
				fmt.Sprintf("Method too long (%d lines, %d statements)", lines, statements), 10))
		}
	})
	return issues
}

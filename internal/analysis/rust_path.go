package analysis

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	lcqerrors "github.com/standardbeagle/lcq/internal/errors"
	"github.com/standardbeagle/lcq/internal/parser"
	"github.com/standardbeagle/lcq/internal/types"
)

// RustComplexityThreshold is the cyclomatic limit on the Rust path
const RustComplexityThreshold = 10

var panickingMacros = map[string]bool{"panic": true, "todo": true, "unimplemented": true}

// rustIssues parses Rust with its own grammar and runs the Rust visitor.
// Rust never goes through the kind tables.
func rustIssues(src []byte) ([]types.Issue, string, error) {
	p := tree_sitter.NewParser()
	defer p.Close()
	if err := p.SetLanguage(parser.RustGrammar()); err != nil {
		return nil, "", fmt.Errorf("binding Rust grammar: %w", err)
	}
	tree := p.Parse(src, nil)
	if tree == nil {
		return nil, "", lcqerrors.ParseFailed("Rust")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return []types.Issue{parseErrorIssue(root)}, ParseErrorMessage, nil
	}

	issues := longLineIssues(string(src))
	walk(root, func(n *tree_sitter.Node) {
		issues = append(issues, rustCheck(n, src)...)
	})
	types.SortIssues(issues)
	return issues, "", nil
}

func rustCheck(n *tree_sitter.Node, src []byte) []types.Issue {
	var out []types.Issue
	switch n.Kind() {
	case "function_item":
		out = append(out, rustFunctionIssues(n)...)
	case "call_expression":
		fn := n.ChildByFieldName("function")
		if fn == nil || fn.Kind() != "field_expression" {
			break
		}
		field := fn.ChildByFieldName("field")
		if field == nil {
			break
		}
		switch field.Utf8Text(src) {
		case "unwrap":
			out = append(out, newIssue(n, types.SeverityMajor, types.CategoryUnhandledError, "AST001",
				"Using .unwrap() without error handling", 50))
		case "expect":
			out = append(out, newIssue(n, types.SeverityMajor, types.CategoryUnhandledError, "AST001",
				"Using .expect() without error handling", 50))
		}
	case "macro_invocation":
		name := macroName(n, src)
		if panickingMacros[name] {
			out = append(out, newIssue(n, types.SeverityMajor, types.CategoryUnhandledError, "AST001",
				fmt.Sprintf("Use of %s!() aborts instead of returning an error", name), 50))
		}
		if name == "format" && formatsSQL(n, src) {
			out = append(out, newIssue(n, types.SeverityMajor, types.CategorySqlInjection, "SEC001",
				sqlInterpolationMessage, 50))
		}
	case "expression_statement":
		if endsFlow(n, src) {
			if next := n.NextNamedSibling(); next != nil && !strings.HasSuffix(next.Kind(), "comment") {
				out = append(out, newIssue(next, types.SeverityMajor, types.CategoryUnreachableCode, "AST002",
					"Unreachable code after return statement", 30))
			}
		}
	case "let_declaration":
		pattern := n.ChildByFieldName("pattern")
		value := n.ChildByFieldName("value")
		if pattern == nil || value == nil {
			break
		}
		if !strings.Contains(value.Kind(), "string_literal") {
			break
		}
		if containsAny(strings.ToLower(pattern.Utf8Text(src)), sensitiveWords) {
			out = append(out, newIssue(n, types.SeverityCritical, types.CategoryHardcodedCredentials, "SEC001",
				"Hardcoded credentials in assignment", 50))
		}
	}
	return out
}

func macroName(n *tree_sitter.Node, src []byte) string {
	m := n.ChildByFieldName("macro")
	if m == nil {
		return ""
	}
	name := m.Utf8Text(src)
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	return name
}

// endsFlow reports statements that leave the enclosing block
func endsFlow(stmt *tree_sitter.Node, src []byte) bool {
	if stmt.NamedChildCount() == 0 {
		return false
	}
	expr := stmt.NamedChild(0)
	switch expr.Kind() {
	case "return_expression", "break_expression", "continue_expression":
		return true
	case "macro_invocation":
		return macroName(expr, src) == "panic"
	}
	return false
}

func formatsSQL(n *tree_sitter.Node, src []byte) bool {
	found := false
	walk(n, func(c *tree_sitter.Node) {
		if found || !strings.Contains(c.Kind(), "string_literal") {
			return
		}
		text := c.Utf8Text(src)
		found = strings.Contains(text, "{") && isSQLShaped(text)
	})
	return found
}

// rustRole classifies Rust nodes with the same roles the kind tables use
func rustRole(n *tree_sitter.Node) nodeRole {
	switch n.Kind() {
	case "function_item", "closure_expression":
		return roleFunction
	case "if_expression":
		if p := n.Parent(); p != nil && p.Kind() == "else_clause" {
			return roleContinuation
		}
		return roleNestingDecision
	case "while_expression", "for_expression", "loop_expression":
		return roleNestingDecision
	case "match_expression":
		return roleFlatDecision
	case "match_arm":
		return roleCase
	case "return_expression":
		return roleReturn
	case "impl_item", "trait_item", "mod_item":
		return roleScope
	case "binary_expression":
		if op := n.ChildByFieldName("operator"); op != nil {
			if k := op.Kind(); k == "&&" || k == "||" {
				return roleLogical
			}
		}
	}
	return roleOther
}

func rustFunctionIssues(fn *tree_sitter.Node) []types.Issue {
	var issues []types.Issue
	if params := fn.ChildByFieldName("parameters"); params != nil {
		n := 0
		for i := uint(0); i < params.NamedChildCount(); i++ {
			switch params.NamedChild(i).Kind() {
			case "parameter", "self_parameter", "variadic_parameter":
				n++
			}
		}
		if n > MaxParameters {
			issues = append(issues, newIssue(fn, types.SeverityMinor, types.CategoryTooManyParameters, "PARAMS001",
				fmt.Sprintf("Function has too many parameters (%d > %d)", n, MaxParameters), 15))
		}
	}

	scan := scanFunction(rustRole, fn)
	if scan.complexity > RustComplexityThreshold {
		issues = append(issues, newIssue(fn, types.SeverityMinor, types.CategoryHighComplexity, "AST003",
			fmt.Sprintf("High cyclomatic complexity: %d (threshold: %d)", scan.complexity, RustComplexityThreshold),
			(scan.complexity-RustComplexityThreshold)*5))
	}
	if scan.maxDepth > MaxNestingDepth {
		issues = append(issues, newIssue(fn, types.SeverityMinor, types.CategoryDeepNesting, "NEST001",
			fmt.Sprintf("Deep nesting detected (level %d)", scan.maxDepth), (scan.maxDepth-MaxNestingDepth)*10))
	}
	return issues
}

package analysis

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lcq/internal/parser"
	"github.com/standardbeagle/lcq/internal/types"
)

// SinglePassEngine emits every fast check in one descent of the tree
type SinglePassEngine struct{}

// Analyze returns the issues for tree sorted by (line, column, rule id)
func (SinglePassEngine) Analyze(tree *tree_sitter.Tree, source []byte, lang parser.Language) ([]types.Issue, error) {
	table, err := parser.KindTableForTree(lang, tree)
	if err != nil {
		return nil, err
	}
	cls := newClassifier(lang, table)

	issues := longLineIssues(string(source))

	stack := []*tree_sitter.Node{tree.RootNode()}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		issues = append(issues, checkNode(cls, node, source)...)

		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			if child := node.Child(uint(i)); child != nil {
				stack = append(stack, child)
			}
		}
	}

	types.SortIssues(issues)
	return issues, nil
}

func checkNode(cls *classifier, node *tree_sitter.Node, src []byte) []types.Issue {
	if !node.IsNamed() {
		return nil
	}
	var out []types.Issue
	table := cls.table

	switch cls.role(node) {
	case roleFunction:
		out = append(out, functionIssues(cls, node, true, true, true)...)
	case roleReturn:
		if isReturnStatement(node) {
			if issue, ok := unreachableAfter(table, node); ok {
				out = append(out, issue)
			}
		}
	}

	if table.Is(parser.Assignment, node) {
		if issue, ok := credentialAssignment(table, node, src); ok {
			out = append(out, issue)
		}
	}
	if issue, ok := sqlInjection(cls.lang, table, node, src); ok {
		out = append(out, issue)
	}
	return out
}

// isReturnStatement excludes yield, which is return-like for metrics but
// does not end control flow.
func isReturnStatement(node *tree_sitter.Node) bool {
	return node.Kind() != "yield"
}

package analysis

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lcq/internal/parser"
)

// nodeRole is the classification a language handler assigns to a node
type nodeRole uint8

const (
	roleOther nodeRole = iota
	roleFunction
	roleScope
	// roleNestingDecision adds 1 + depth cognitive and opens a scope
	roleNestingDecision
	// roleContinuation is elif/elsif/else-if: the enclosing if's penalty, no new scope
	roleContinuation
	// roleFlatDecision is a branch point that nests but adds no cognitive weight
	roleFlatDecision
	roleCase
	roleTry
	roleCatch
	roleReturn
	roleLogical
)

// isDecision reports whether the role adds a cyclomatic path
func (r nodeRole) isDecision() bool {
	switch r {
	case roleNestingDecision, roleContinuation, roleFlatDecision, roleCase, roleTry, roleCatch, roleLogical:
		return true
	}
	return false
}

// opensScope reports whether children of the node sit one level deeper
func (r nodeRole) opensScope() bool {
	switch r {
	case roleFunction, roleScope, roleNestingDecision, roleFlatDecision:
		return true
	}
	return false
}

// langProfile holds the per-language knobs the handlers need beyond the kind table
type langProfile struct {
	// complexityThreshold is the per-function cyclomatic limit for AST003
	complexityThreshold int
	// switchNests makes switch statements carry the nesting penalty
	switchNests bool
}

var profiles = map[parser.Language]langProfile{
	parser.LanguagePython:     {complexityThreshold: 8},
	parser.LanguageJavaScript: {complexityThreshold: 10, switchNests: true},
	parser.LanguageTypeScript: {complexityThreshold: 10, switchNests: true},
	parser.LanguageJava:       {complexityThreshold: 12},
	parser.LanguageCSharp:     {complexityThreshold: 12},
	parser.LanguageGo:         {complexityThreshold: 8},
	parser.LanguageC:          {complexityThreshold: 10},
	parser.LanguageCpp:        {complexityThreshold: 10},
	parser.LanguagePHP:        {complexityThreshold: 10},
	parser.LanguageRuby:       {complexityThreshold: 10},
	parser.LanguageZig:        {complexityThreshold: 10},
}

const defaultComplexityThreshold = 10

// ComplexityThreshold returns the per-function cyclomatic limit for lang
func ComplexityThreshold(lang parser.Language) int {
	if p, ok := profiles[lang]; ok && p.complexityThreshold > 0 {
		return p.complexityThreshold
	}
	return defaultComplexityThreshold
}

var logicalOperators = map[string]bool{
	"&&": true, "||": true, "??": true, "and": true, "or": true,
}

// classifier maps nodes to roles using the kind table fast path
type classifier struct {
	lang    parser.Language
	table   *parser.KindTable
	profile langProfile
}

func newClassifier(lang parser.Language, table *parser.KindTable) *classifier {
	return &classifier{lang: lang, table: table, profile: profiles[lang]}
}

func (c *classifier) role(node *tree_sitter.Node) nodeRole {
	if !node.IsNamed() {
		return roleOther
	}
	t := c.table
	switch {
	case t.Is(parser.Function, node):
		return roleFunction
	case t.Is(parser.ElseIf, node):
		return roleContinuation
	case t.Is(parser.If, node):
		if c.continuesIf(node) {
			return roleContinuation
		}
		return roleNestingDecision
	case t.Is(parser.Loop, node):
		return roleNestingDecision
	case t.Is(parser.Switch, node):
		if c.profile.switchNests {
			return roleNestingDecision
		}
		return roleFlatDecision
	case t.Is(parser.Case, node):
		if isDefaultArm(node) {
			return roleOther
		}
		return roleCase
	case t.Is(parser.Try, node):
		return roleTry
	case t.Is(parser.Catch, node):
		return roleCatch
	case t.Is(parser.Return, node):
		return roleReturn
	case t.Is(parser.Logical, node):
		if hasLogicalOperator(node) {
			return roleLogical
		}
		return roleOther
	case t.Is(parser.Class, node):
		return roleScope
	}
	return roleOther
}

// continuesIf reports whether an if node is the else branch of another if,
// either directly (Go, Java, C#) or through an else clause (JS, C++).
func (c *classifier) continuesIf(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	if parent.Kind() == "else_clause" {
		gp := parent.Parent()
		return gp != nil && c.table.Is(parser.If, gp)
	}
	if c.table.Is(parser.If, parent) {
		alt := parent.ChildByFieldName("alternative")
		return alt != nil && alt.Id() == node.Id()
	}
	return false
}

// isDefaultArm reports a switch arm that only carries the default label
func isDefaultArm(node *tree_sitter.Node) bool {
	if node.ChildCount() == 0 {
		return false
	}
	first := node.Child(0)
	if first == nil {
		return false
	}
	return first.Kind() == "default"
}

// hasLogicalOperator inspects the operator field, or the anonymous children
// when a grammar does not expose one.
func hasLogicalOperator(node *tree_sitter.Node) bool {
	if op := node.ChildByFieldName("operator"); op != nil {
		return logicalOperators[op.Kind()]
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && !child.IsNamed() && logicalOperators[child.Kind()] {
			return true
		}
	}
	return false
}

// isClosingOrComment is the unreachable-code exemption for the node after a return
func isClosingOrComment(table *parser.KindTable, node *tree_sitter.Node) bool {
	kind := node.Kind()
	if kind == "}" || kind == "end" || strings.Contains(kind, "comment") {
		return true
	}
	return table.Is(parser.Comment, node)
}

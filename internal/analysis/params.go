package analysis

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lcq/internal/debug"
	"github.com/standardbeagle/lcq/internal/parser"
)

// countParameters returns the number of declared parameters of a
// function-like node. Unknown list shapes count as zero.
func countParameters(lang parser.Language, table *parser.KindTable, fn *tree_sitter.Node) int {
	// arrow functions may take a single bare identifier
	if p := fn.ChildByFieldName("parameter"); p != nil {
		return 1
	}

	list := findParameterList(lang, table, fn)
	if list == nil {
		if hasParameterSyntax(fn) {
			debug.LogAnalysis("%s: no parameter list recognised for %s at line %d\n",
				parser.DisplayName(lang), fn.Kind(), fn.StartPosition().Row+1)
		}
		return 0
	}

	count := 0
	for i := uint(0); i < list.NamedChildCount(); i++ {
		child := list.NamedChild(i)
		if child == nil || !table.Is(parser.Parameter, child) {
			continue
		}
		if lang == parser.LanguageGo {
			count += goDeclaredNames(child)
			continue
		}
		count++
	}
	return count
}

func findParameterList(lang parser.Language, table *parser.KindTable, fn *tree_sitter.Node) *tree_sitter.Node {
	if list := fn.ChildByFieldName("parameters"); list != nil && table.Is(parser.ParameterList, list) {
		return list
	}
	for i := uint(0); i < fn.NamedChildCount(); i++ {
		child := fn.NamedChild(i)
		if child != nil && table.Is(parser.ParameterList, child) {
			return child
		}
	}
	if lang == parser.LanguageC || lang == parser.LanguageCpp {
		// int *(*f)(int a) nests the parameter list under declarator fields
		for d := fn.ChildByFieldName("declarator"); d != nil; d = d.ChildByFieldName("declarator") {
			if d.Kind() == "function_declarator" {
				return d.ChildByFieldName("parameters")
			}
		}
	}
	return nil
}

// goDeclaredNames counts the names in a Go parameter declaration:
// "a, b int" declares two, an unnamed "int" declares one.
func goDeclaredNames(decl *tree_sitter.Node) int {
	names := 0
	for i := uint(0); i < decl.NamedChildCount(); i++ {
		if c := decl.NamedChild(i); c != nil && c.Kind() == "identifier" {
			names++
		}
	}
	if names == 0 {
		return 1
	}
	return names
}

func hasParameterSyntax(fn *tree_sitter.Node) bool {
	for i := uint(0); i < fn.ChildCount(); i++ {
		if c := fn.Child(i); c != nil && c.Kind() == "(" {
			return true
		}
	}
	return false
}

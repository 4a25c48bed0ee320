package parser

import (
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lcqerrors "github.com/standardbeagle/lcq/internal/errors"
)

func TestKindTableNotApplicable(t *testing.T) {
	for _, lang := range []Language{LanguageRust, LanguageJSON, LanguageYAML, LanguageTOML} {
		_, err := KindTableFor(lang)
		assert.Equal(t, lcqerrors.ErrorTypeNotApplicable, lcqerrors.KindOf(err), lang)
	}
}

func TestKindTableBuiltOnce(t *testing.T) {
	a, err := KindTableFor(LanguagePython)
	require.NoError(t, err)
	b, err := KindTableFor(LanguagePython)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestKindTableResolvesCoreConstructs(t *testing.T) {
	for _, lang := range ParserBacked() {
		if lang == LanguageZig {
			continue
		}
		table, err := KindTableFor(lang)
		require.NoError(t, err, lang)
		assert.NotEmpty(t, table.Resolved(Function), "%s has no function kinds", lang)
		assert.NotEmpty(t, table.Resolved(If), "%s has no if kinds", lang)
		assert.NotEmpty(t, table.Resolved(Return), "%s has no return kinds", lang)
	}
}

func findFirst(root *tree_sitter.Node, kind string) *tree_sitter.Node {
	stack := []*tree_sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Kind() == kind && n.IsNamed() {
			return n
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.Child(uint(i)))
		}
	}
	return nil
}

func TestKindTableIs(t *testing.T) {
	src := []byte("def f(a, b=1):\n    if a:\n        return b\n")
	tree, err := Default().Parse(LanguagePython, VariantDefault, src)
	require.NoError(t, err)
	defer tree.Close()

	table, err := KindTableFor(LanguagePython)
	require.NoError(t, err)

	fn := findFirst(tree.RootNode(), "function_definition")
	require.NotNil(t, fn)
	assert.True(t, table.Is(Function, fn))
	assert.False(t, table.Is(If, fn))

	ifNode := findFirst(tree.RootNode(), "if_statement")
	require.NotNil(t, ifNode)
	assert.True(t, table.Is(If, ifNode))
	assert.True(t, table.Any(ifNode, Loop, If))

	// the "if" keyword token is anonymous and never matches
	kw := ifNode.Child(0)
	require.NotNil(t, kw)
	assert.False(t, kw.IsNamed())
	assert.False(t, table.Is(If, kw))
}

func TestKindTableFallsBackToNames(t *testing.T) {
	table := &KindTable{lang: LanguagePython}
	table.entries[Loop] = []kindEntry{{name: "for_statement", id: 0}}
	table.ids[Loop] = map[uint16]struct{}{}
	table.fallback[Loop] = true

	src := []byte("for x in y:\n    pass\n")
	tree, err := Default().Parse(LanguagePython, VariantDefault, src)
	require.NoError(t, err)
	defer tree.Close()

	loop := findFirst(tree.RootNode(), "for_statement")
	require.NotNil(t, loop)
	assert.True(t, table.Is(Loop, loop))
}

func TestConstructString(t *testing.T) {
	assert.Equal(t, "function", Function.String())
	assert.Equal(t, "block", Block.String())
	assert.Equal(t, "unknown", numConstructs.String())
}

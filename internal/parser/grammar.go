package parser

import (
	"strings"
	"unsafe"

	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	lcqerrors "github.com/standardbeagle/lcq/internal/errors"
)

// Variant selects a grammar dialect within one language
type Variant uint8

const (
	VariantDefault Variant = iota
	// VariantTSX is the TypeScript grammar with JSX support
	VariantTSX
)

// VariantForPath picks the dialect a file should be parsed with
func VariantForPath(lang Language, path string) Variant {
	if lang == LanguageTypeScript && strings.EqualFold(strings.TrimPrefix(extOf(path), "."), "tsx") {
		return VariantTSX
	}
	return VariantDefault
}

func extOf(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 && !strings.ContainsAny(path[i:], `/\`) {
		return path[i:]
	}
	return ""
}

// Grammar is the shared, read-only handle for one language
type Grammar struct {
	lang Language
	main *tree_sitter.Language
	tsx  *tree_sitter.Language
}

// Language returns the tag this grammar serves
func (g *Grammar) Language() Language { return g.lang }

// TS returns the tree-sitter language for the requested dialect
func (g *Grammar) TS(v Variant) *tree_sitter.Language {
	if v == VariantTSX && g.tsx != nil {
		return g.tsx
	}
	return g.main
}

var grammarLoaders = map[Language]func() unsafe.Pointer{
	LanguagePython:     tree_sitter_python.Language,
	LanguageJavaScript: tree_sitter_javascript.Language,
	LanguageTypeScript: tree_sitter_typescript.LanguageTypescript,
	LanguageJava:       tree_sitter_java.Language,
	LanguageCSharp:     tree_sitter_csharp.Language,
	LanguageGo:         tree_sitter_go.Language,
	// C sources parse with the C++ grammar
	LanguageC:    tree_sitter_cpp.Language,
	LanguageCpp:  tree_sitter_cpp.Language,
	LanguagePHP:  tree_sitter_php.LanguagePHP,
	LanguageRuby: tree_sitter_ruby.Language,
	LanguageZig:  tree_sitter_zig.Language,
}

// GrammarHandle loads the grammar for lang. Rust and the config formats have
// their own analysis paths and are refused with GrammarUnsupportedHere.
// Callers normally go through Cache, which loads each grammar once.
func GrammarHandle(lang Language) (*Grammar, error) {
	if !IsKnown(lang) {
		return nil, lcqerrors.UnsupportedLanguage(string(lang))
	}
	if !IsParserBacked(lang) {
		return nil, lcqerrors.GrammarUnsupportedHere(DisplayName(lang))
	}
	load, ok := grammarLoaders[lang]
	if !ok {
		return nil, lcqerrors.UnsupportedLanguage(string(lang))
	}

	g := &Grammar{lang: lang, main: tree_sitter.NewLanguage(load())}
	if lang == LanguageTypeScript {
		g.tsx = tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	}
	return g, nil
}

// RustGrammar returns the grammar used by the dedicated Rust path. It is
// deliberately not reachable through GrammarHandle.
func RustGrammar() *tree_sitter.Language {
	rustOnce.Do(func() {
		rustLanguage = tree_sitter.NewLanguage(tree_sitter_rust.Language())
	})
	return rustLanguage
}

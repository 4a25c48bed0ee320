package parser

import (
	"path/filepath"
	"strings"

	"github.com/hbollon/go-edlib"

	lcqerrors "github.com/standardbeagle/lcq/internal/errors"
)

// Language identifies a supported source language
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageJava       Language = "java"
	LanguageCSharp     Language = "csharp"
	LanguageGo         Language = "go"
	LanguageC          Language = "c"
	LanguageCpp        Language = "cpp"
	LanguagePHP        Language = "php"
	LanguageRuby       Language = "ruby"
	LanguageZig        Language = "zig"

	// Languages analysed without the shared grammar path
	LanguageRust Language = "rust"
	LanguageJSON Language = "json"
	LanguageYAML Language = "yaml"
	LanguageTOML Language = "toml"
)

type languageInfo struct {
	display      string
	extensions   []string
	parserBacked bool
}

var languages = map[Language]languageInfo{
	LanguagePython:     {"Python", []string{"py"}, true},
	LanguageJavaScript: {"JavaScript", []string{"js", "mjs", "cjs", "jsx"}, true},
	LanguageTypeScript: {"TypeScript", []string{"ts", "tsx"}, true},
	LanguageJava:       {"Java", []string{"java"}, true},
	LanguageCSharp:     {"C#", []string{"cs"}, true},
	LanguageGo:         {"Go", []string{"go"}, true},
	LanguageC:          {"C", []string{"c", "h"}, true},
	LanguageCpp:        {"C++", []string{"cpp", "cc", "cxx", "hpp", "hxx"}, true},
	LanguagePHP:        {"PHP", []string{"php"}, true},
	LanguageRuby:       {"Ruby", []string{"rb"}, true},
	LanguageZig:        {"Zig", []string{"zig"}, true},
	LanguageRust:       {"Rust", []string{"rs"}, false},
	LanguageJSON:       {"JSON", []string{"json"}, false},
	LanguageYAML:       {"YAML", []string{"yml", "yaml"}, false},
	LanguageTOML:       {"TOML", []string{"toml"}, false},
}

// parserBackedOrder fixes iteration order for preloading and listings
var parserBackedOrder = []Language{
	LanguagePython, LanguageJavaScript, LanguageTypeScript, LanguageJava,
	LanguageCSharp, LanguageGo, LanguageC, LanguageCpp, LanguagePHP,
	LanguageRuby, LanguageZig,
}

var allOrder = append(append([]Language{}, parserBackedOrder...),
	LanguageRust, LanguageJSON, LanguageYAML, LanguageTOML)

var extensionIndex = func() map[string]Language {
	idx := make(map[string]Language)
	for lang, info := range languages {
		for _, ext := range info.extensions {
			idx[ext] = lang
		}
	}
	return idx
}()

// FromExtension resolves a file extension (with or without the leading dot,
// any case) to a language.
func FromExtension(ext string) (Language, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	lang, ok := extensionIndex[ext]
	return lang, ok
}

// FromPath resolves a language from the extension of path
func FromPath(path string) (Language, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", false
	}
	return FromExtension(ext)
}

// FromName accepts a language tag, a display name or an extension.
// Unknown names yield an UnsupportedLanguage error carrying the closest
// known name as a suggestion.
func FromName(name string) (Language, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if _, ok := languages[Language(key)]; ok {
		return Language(key), nil
	}
	for _, lang := range allOrder {
		if strings.ToLower(languages[lang].display) == key {
			return lang, nil
		}
	}
	if lang, ok := FromExtension(key); ok {
		return lang, nil
	}

	err := lcqerrors.UnsupportedLanguage(name)
	if suggestion := suggest(key); suggestion != "" {
		err.Operation += ", did you mean " + suggestion + "?"
	}
	return "", err
}

func suggest(key string) string {
	if key == "" {
		return ""
	}
	best := ""
	bestScore := float32(0.7)
	for _, lang := range allOrder {
		score, err := edlib.StringsSimilarity(key, string(lang), edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = string(lang), score
		}
	}
	return best
}

// DisplayName returns the human-readable label of lang
func DisplayName(lang Language) string {
	if info, ok := languages[lang]; ok {
		return info.display
	}
	return string(lang)
}

func (l Language) String() string {
	return DisplayName(l)
}

// IsParserBacked reports whether lang is analysed through the shared grammar path
func IsParserBacked(lang Language) bool {
	info, ok := languages[lang]
	return ok && info.parserBacked
}

// IsKnown reports whether lang is a recognised tag
func IsKnown(lang Language) bool {
	_, ok := languages[lang]
	return ok
}

// ParserBacked lists the parser-backed languages in a stable order
func ParserBacked() []Language {
	return append([]Language(nil), parserBackedOrder...)
}

// All lists every known language in a stable order
func All() []Language {
	return append([]Language(nil), allOrder...)
}

// Extensions returns the extensions (without dot) mapped to lang
func Extensions(lang Language) []string {
	return append([]string(nil), languages[lang].extensions...)
}

package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lcqerrors "github.com/standardbeagle/lcq/internal/errors"
)

func TestFromExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want Language
	}{
		{"rs", LanguageRust},
		{".py", LanguagePython},
		{"JS", LanguageJavaScript},
		{"mjs", LanguageJavaScript},
		{"cjs", LanguageJavaScript},
		{"jsx", LanguageJavaScript},
		{"ts", LanguageTypeScript},
		{".TSX", LanguageTypeScript},
		{"java", LanguageJava},
		{"cs", LanguageCSharp},
		{"go", LanguageGo},
		{"c", LanguageC},
		{"h", LanguageC},
		{"cpp", LanguageCpp},
		{"cc", LanguageCpp},
		{"cxx", LanguageCpp},
		{"hpp", LanguageCpp},
		{"hxx", LanguageCpp},
		{"php", LanguagePHP},
		{"rb", LanguageRuby},
		{"zig", LanguageZig},
		{"json", LanguageJSON},
		{"yml", LanguageYAML},
		{"yaml", LanguageYAML},
		{"toml", LanguageTOML},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			got, ok := FromExtension(tt.ext)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, ext := range []string{"", "md", "txt", "exe", "pyc"} {
		_, ok := FromExtension(ext)
		assert.False(t, ok, "extension %q should not resolve", ext)
	}
}

func TestEveryExtensionMapsToOneLanguage(t *testing.T) {
	seen := make(map[string]Language)
	for _, lang := range All() {
		for _, ext := range Extensions(lang) {
			if prev, dup := seen[ext]; dup {
				t.Fatalf("extension %s mapped to both %s and %s", ext, prev, lang)
			}
			seen[ext] = lang
		}
	}
}

func TestFromPath(t *testing.T) {
	lang, ok := FromPath("src/app/Main.JAVA")
	require.True(t, ok)
	assert.Equal(t, LanguageJava, lang)

	_, ok = FromPath("Makefile")
	assert.False(t, ok)
}

func TestFromName(t *testing.T) {
	for _, name := range []string{"python", "Python", "py", "C#", "csharp", "c++", "rust"} {
		_, err := FromName(name)
		assert.NoError(t, err, name)
	}

	_, err := FromName("pythn")
	require.Error(t, err)
	assert.True(t, errors.Is(err, lcqerrors.ErrUnsupportedLanguage))
	assert.Contains(t, err.Error(), "did you mean python?")
}

func TestDisplayName(t *testing.T) {
	want := map[Language]string{
		LanguageRust: "Rust", LanguagePython: "Python", LanguageJavaScript: "JavaScript",
		LanguageTypeScript: "TypeScript", LanguageJava: "Java", LanguageCSharp: "C#",
		LanguageGo: "Go", LanguageC: "C", LanguageCpp: "C++", LanguagePHP: "PHP",
		LanguageRuby: "Ruby", LanguageZig: "Zig", LanguageJSON: "JSON", LanguageYAML: "YAML",
		LanguageTOML: "TOML",
	}
	for lang, name := range want {
		assert.Equal(t, name, DisplayName(lang))
	}
}

func TestParserBacked(t *testing.T) {
	for _, lang := range ParserBacked() {
		assert.True(t, IsParserBacked(lang), lang)
	}
	for _, lang := range []Language{LanguageRust, LanguageJSON, LanguageYAML, LanguageTOML} {
		assert.False(t, IsParserBacked(lang), lang)
	}
}

func TestGrammarHandleRefusesSeparatePaths(t *testing.T) {
	for _, lang := range []Language{LanguageRust, LanguageJSON, LanguageYAML, LanguageTOML} {
		_, err := GrammarHandle(lang)
		require.Error(t, err)
		assert.Equal(t, lcqerrors.ErrorTypeGrammarUnsupported, lcqerrors.KindOf(err), lang)
	}

	_, err := GrammarHandle(Language("cobol"))
	assert.True(t, errors.Is(err, lcqerrors.ErrUnsupportedLanguage))
}

func TestVariantForPath(t *testing.T) {
	assert.Equal(t, VariantTSX, VariantForPath(LanguageTypeScript, "ui/App.tsx"))
	assert.Equal(t, VariantDefault, VariantForPath(LanguageTypeScript, "ui/app.ts"))
	assert.Equal(t, VariantDefault, VariantForPath(LanguageJavaScript, "ui/App.tsx"))
}

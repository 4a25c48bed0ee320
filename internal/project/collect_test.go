package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lcq/internal/config"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func relAll(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestCollectFiles_FiltersByLanguage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "app.py", "x = 1\n")
	writeFile(t, root, "lib.rs", "fn main() {}\n")
	writeFile(t, root, "Cargo.toml", "[package]\n")
	writeFile(t, root, "README.md", "# hi\n")
	writeFile(t, root, "web/index.tsx", "export const A = 1;\n")

	files, err := CollectFiles(root, CollectOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py", "main.go", "web/index.tsx"}, relAll(t, root, files))
}

func TestCollectFiles_MaxDepth(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.js", "1")
	writeFile(t, root, "one/b.js", "1")
	writeFile(t, root, "one/two/c.js", "1")

	files, err := CollectFiles(root, CollectOptions{MaxDepth: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js", "one/b.js"}, relAll(t, root, files))

	files, err = CollectFiles(root, CollectOptions{})
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestCollectFiles_Exclusions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/keep.py", "x = 1\n")
	writeFile(t, root, "node_modules/dep/index.js", "1")
	writeFile(t, root, "dist/bundle.js", "1")
	writeFile(t, root, "src/gen/skip.py", "x = 1\n")
	writeFile(t, root, "logs/debug.ts", "1")
	writeFile(t, root, ".gitignore", "logs/\n")

	gp := config.NewGitignoreParser()
	require.NoError(t, gp.LoadGitignore(root))

	files, err := CollectFiles(root, CollectOptions{
		ExcludeSubstrings: []string{"node_modules"},
		ExcludeGlobs:      []string{"**/dist/**", "src/gen/**"},
		Gitignore:         gp,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/keep.py"}, relAll(t, root, files))
}

func TestCollectFiles_MissingRoot(t *testing.T) {
	_, err := CollectFiles(filepath.Join(t.TempDir(), "absent"), CollectOptions{})
	assert.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "tmp/\n")

	cfg := config.Default(root)
	opts := OptionsFromConfig(cfg)
	assert.Equal(t, config.DefaultMaxDepth, opts.MaxDepth)
	assert.Equal(t, cfg.Scan.Exclude, opts.ExcludeSubstrings)
	assert.Equal(t, cfg.Exclude, opts.ExcludeGlobs)
	require.NotNil(t, opts.Gitignore)
	assert.True(t, opts.Gitignore.ShouldIgnore("tmp", true))

	cfg.Scan.RespectGitignore = false
	assert.Nil(t, OptionsFromConfig(cfg).Gitignore)
}

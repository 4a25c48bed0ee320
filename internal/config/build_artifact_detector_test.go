package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestBuildArtifactDetector_PackageJSON(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{
  "scripts": {"build": "tsc --outDir ./compiled", "lint": "eslint ."},
  "build": {"outDir": "site"}
}`)

	got := NewBuildArtifactDetector(root).DetectOutputDirectories()
	assert.ElementsMatch(t, []string{"**/compiled/**", "**/site/**"}, got)
}

func TestBuildArtifactDetector_CargoProfilesAndPoetry(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Cargo.toml", `
[package]
name = "demo"

[profile.release]
target-dir = "rel-out"
`)
	writeFile(t, root, "pyproject.toml", `
[tool.poetry.build]
target-dir = "wheelhouse/"
`)

	got := NewBuildArtifactDetector(root).DetectOutputDirectories()
	assert.ElementsMatch(t, []string{"**/rel-out/**", "**/wheelhouse/**"}, got)
}

func TestBuildArtifactDetector_IgnoresBrokenAndDot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tsconfig.json", `{"compilerOptions": {"outDir": "."}}`)
	writeFile(t, root, "Cargo.toml", `not = [valid`)

	assert.Empty(t, NewBuildArtifactDetector(root).DetectOutputDirectories())
}

func TestDeduplicatePatterns(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, DeduplicatePatterns([]string{"a", "b", "a", "c", "b"}))
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lcq/internal/config"
	"github.com/standardbeagle/lcq/internal/version"
)

const unreachableJS = "function f(){ return 1; console.log('x'); }\n"

// runCLI runs the app in-process with stdin and returns stdout
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("AST_MAX_ISSUES", "")
	t.Setenv("AST_PREWARM", "")

	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"lcq"}, args...))
	return stdout.String(), err
}

func setupTestProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"src/ok.py":  "def ok():\n    return 1\n",
		"web/app.js": unreachableJS,
		"README.md":  "# demo\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, version.FullInfo()+"\n", out)
}

func TestLanguagesCommand(t *testing.T) {
	out, err := runCLI(t, "", "languages")
	require.NoError(t, err)
	assert.Contains(t, out, "Python")
	assert.Contains(t, out, "tree-sitter")
	assert.Regexp(t, `Rust\s+dedicated\s+rs`, out)
}

func TestScoreCommand(t *testing.T) {
	root := t.TempDir()

	out, err := runCLI(t, unreachableJS, "--root", root, "score", "--lang", "js", "--format", "compact", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<stdin> "), out)
	assert.NotContains(t, out, "1000/1000")

	_, err = runCLI(t, "x", "--root", root, "score", "--lang", "pyton")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean python?")

	_, err = runCLI(t, "x", "--root", root, "score", "--lang", "go", "file.go")
	assert.Error(t, err)

	_, err = runCLI(t, "   ", "--root", root, "score", "--lang", "go")
	assert.Error(t, err)
}

func TestAnalyzeCommand(t *testing.T) {
	root := setupTestProject(t)
	path := filepath.Join(root, "web", "app.js")

	out, err := runCLI(t, "", "--root", root, "analyze", "--format", "json", "--metrics", path)
	require.NoError(t, err)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.NotNil(t, report["metrics"])

	out, err = runCLI(t, "", "--root", root, "analyze", path)
	require.NoError(t, err)
	assert.Contains(t, out, "[AST002]")

	_, err = runCLI(t, "", "--root", root, "analyze", filepath.Join(root, "README.md"))
	assert.Error(t, err)
	_, err = runCLI(t, "", "--root", root, "analyze")
	assert.Error(t, err)
	_, err = runCLI(t, "", "--root", root, "analyze", "--format", "xml", path)
	assert.Error(t, err)
}

func TestProjectCommand(t *testing.T) {
	root := setupTestProject(t)

	out, err := runCLI(t, "", "project", "--format", "json", root)
	require.NoError(t, err)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report["files"], 2)

	cachePath := filepath.Join(root, config.DefaultCacheFile)
	assert.FileExists(t, cachePath)

	// the second run is served from the saved cache
	out, err = runCLI(t, "", "project", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Analysed 2 files")
	assert.Contains(t, out, "2 from cache")

	out, err = runCLI(t, "", "--root", root, "project", "--format", "compact", "--cache=false")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "V"), out)
}

func TestProjectCommand_NoCache(t *testing.T) {
	root := setupTestProject(t)
	_, err := runCLI(t, "", "project", "--cache=false", root)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(root, config.DefaultCacheFile))
}

func TestProjectCommand_Strict(t *testing.T) {
	root := setupTestProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin.go"), []byte("package a\x00\x00"), 0o644))

	out, err := runCLI(t, "", "project", "--strict", "--cache=false", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Analysis failed for 1 files")
	assert.Contains(t, out, "Failures:")

	_, err = runCLI(t, "", "project", "--cache=false", root)
	assert.NoError(t, err)
}

func TestProjectCommand_BadRoot(t *testing.T) {
	root := setupTestProject(t)
	_, err := runCLI(t, "", "project", filepath.Join(root, "missing"))
	assert.Error(t, err)
	_, err = runCLI(t, "", "project", filepath.Join(root, "README.md"))
	assert.Error(t, err)
}

func TestProjectCommand_Exclude(t *testing.T) {
	root := setupTestProject(t)
	out, err := runCLI(t, "", "--exclude", "web/**", "project", "--format", "json", "--cache=false", root)
	require.NoError(t, err)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report["files"], 1)
}

func TestHookCommand(t *testing.T) {
	root := setupTestProject(t)
	payload := `{"tool_name":"Write","cwd":"` + filepath.ToSlash(root) + `","tool_input":{"file_path":"web/app.js"}}`

	out, err := runCLI(t, payload, "--root", root, "hook")
	require.NoError(t, err)

	var envelope struct {
		HookSpecificOutput struct {
			HookEventName     string `json:"hookEventName"`
			AdditionalContext string `json:"additionalContext"`
		} `json:"hookSpecificOutput"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &envelope))
	assert.Equal(t, "PostToolUse", envelope.HookSpecificOutput.HookEventName)
	assert.Contains(t, envelope.HookSpecificOutput.AdditionalContext, "[AST002]")

	out, err = runCLI(t, `{"tool_name":"Read"}`, "--root", root, "hook")
	require.NoError(t, err)
	assert.Contains(t, out, `"additionalContext":""`)

	_, err = runCLI(t, "not json", "--root", root, "hook")
	assert.Error(t, err)
}

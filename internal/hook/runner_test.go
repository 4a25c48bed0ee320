package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lcq/internal/analysis"
	"github.com/standardbeagle/lcq/internal/cache"
)

const unreachableJS = "function f(){ return 1; console.log('x'); }\n"

func newTestRunner(results *cache.ResultCache) *Runner {
	scorer := analysis.NewScorer(analysis.WithPrewarm(false), analysis.WithMaxIssues(0))
	return NewRunner(scorer, Options{MaxIssues: 100, Results: results})
}

func runJSON(t *testing.T, r *Runner, payload string) Output {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, r.Handle(context.Background(), strings.NewReader(payload), &out))

	var decoded Output
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, EventPostToolUse, decoded.HookSpecificOutput.HookEventName)
	return decoded
}

func TestHandle_EnvelopeShape(t *testing.T) {
	var out bytes.Buffer
	err := newTestRunner(nil).Handle(context.Background(), strings.NewReader(`{"tool_name":"Read"}`), &out)
	require.NoError(t, err)
	assert.Equal(t, `{"hookSpecificOutput":{"hookEventName":"PostToolUse","additionalContext":""}}`+"\n", out.String())
}

func TestRun_PassThrough(t *testing.T) {
	r := newTestRunner(nil)
	tests := []struct {
		name    string
		payload string
	}{
		{"other tool", `{"tool_name":"Bash","tool_input":{"file_path":"a.js","content":"` + "function f(){ return 1; g(); }" + `"}}`},
		{"markdown", `{"tool_name":"Write","tool_input":{"file_path":"README.md","content":"# hi"}}`},
		{"yaml", `{"tool_name":"Write","tool_input":{"file_path":"ci.yml","content":"a: 1"}}`},
		{"upper-case json", `{"tool_name":"Write","tool_input":{"file_path":"CONFIG.JSON","content":"{\"password\": \"hunter22\"}"}}`},
		{"upper-case markdown", `{"tool_name":"Write","tool_input":{"file_path":"README.MD","content":"# hi"}}`},
		{"unknown extension", `{"tool_name":"Write","tool_input":{"file_path":"data.bin","content":"x"}}`},
		{"no file path", `{"tool_name":"Write","tool_input":{"content":"x = 1"}}`},
		{"empty content", `{"tool_name":"Write","tool_input":{"file_path":"/nonexistent/a.py","content":""}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runJSON(t, r, tt.payload)
			assert.Equal(t, "", out.HookSpecificOutput.AdditionalContext)
		})
	}
}

func TestRun_ReadsFileFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte(unreachableJS), 0o644))

	// the edit fragment alone is clean; the file on disk is not
	in := &Input{
		ToolName:  ToolEdit,
		Cwd:       dir,
		ToolInput: ToolInput{FilePath: "app.js", NewString: "let x = 1;"},
	}
	ctx := newTestRunner(nil).Run(context.Background(), in).HookSpecificOutput.AdditionalContext

	assert.True(t, strings.HasPrefix(ctx, "Quality score: "), ctx)
	assert.Contains(t, ctx, "AST DETECTED ISSUES (Automated, top sorted):")
	assert.Contains(t, ctx, "🟡 MAJOR (P2 - Fix soon):")
	assert.Contains(t, ctx, "[AST002]")
}

func TestRun_CleanFileHasNoContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ok.py")
	require.NoError(t, os.WriteFile(path, []byte("def ok():\n    return 1\n"), 0o644))

	out := newTestRunner(nil).Run(context.Background(), &Input{ToolName: ToolWrite, ToolInput: ToolInput{FilePath: path}})
	assert.Equal(t, "", out.HookSpecificOutput.AdditionalContext)
}

func TestRun_FallbackContent(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.js")
	r := newTestRunner(nil)

	t.Run("write", func(t *testing.T) {
		out := r.Run(context.Background(), &Input{ToolName: ToolWrite,
			ToolInput: ToolInput{FilePath: missing, Content: unreachableJS}})
		assert.Contains(t, out.HookSpecificOutput.AdditionalContext, "[AST002]")
	})

	t.Run("edit", func(t *testing.T) {
		out := r.Run(context.Background(), &Input{ToolName: ToolEdit,
			ToolInput: ToolInput{FilePath: missing, OldString: "x", NewString: unreachableJS}})
		assert.Contains(t, out.HookSpecificOutput.AdditionalContext, "[AST002]")
	})

	t.Run("multi edit", func(t *testing.T) {
		out := r.Run(context.Background(), &Input{ToolName: ToolMultiEdit,
			ToolInput: ToolInput{FilePath: missing, Edits: []Edit{
				{NewString: "function f(){"},
				{NewString: ""},
				{NewString: "return 1; console.log('x'); }"},
			}}})
		assert.Contains(t, out.HookSpecificOutput.AdditionalContext, "[AST002]")
	})
}

func TestFallbackContent_MultiEditJoinAndLimit(t *testing.T) {
	in := &Input{ToolName: ToolMultiEdit, ToolInput: ToolInput{Edits: []Edit{
		{NewString: "a"}, {NewString: ""}, {NewString: "b"},
	}}}
	assert.Equal(t, "a\nb", in.fallbackContent())

	in.ToolInput.Edits = make([]Edit, MaxEdits+5)
	for i := range in.ToolInput.Edits {
		in.ToolInput.Edits[i].NewString = "x"
	}
	assert.Equal(t, MaxEdits, strings.Count(in.fallbackContent(), "x"))
}

func TestRun_BinaryFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.py")
	require.NoError(t, os.WriteFile(path, []byte("x\x00\x00\x00"), 0o644))

	out := newTestRunner(nil).Run(context.Background(), &Input{ToolName: ToolWrite,
		ToolInput: ToolInput{FilePath: path, Content: "def ok():\n    return 1\n"}})
	assert.Equal(t, "", out.HookSpecificOutput.AdditionalContext)
}

func TestRun_AnalysisFailureStillEnvelopes(t *testing.T) {
	scorer := analysis.NewScorer(analysis.WithPrewarm(false), analysis.WithMaxSourceSize(8))
	r := NewRunner(scorer, Options{})
	out := r.Run(context.Background(), &Input{ToolName: ToolWrite,
		ToolInput: ToolInput{FilePath: filepath.Join(t.TempDir(), "big.js"), Content: unreachableJS}})
	assert.True(t, strings.HasPrefix(out.HookSpecificOutput.AdditionalContext, "AST analysis failed: "))
}

func TestRun_UsesResultCache(t *testing.T) {
	results := cache.NewResultCache(cache.DefaultResultCacheConfig())
	defer results.Close()
	r := newTestRunner(results)

	in := &Input{ToolName: ToolWrite, ToolInput: ToolInput{FilePath: "/nonexistent/a.js", Content: unreachableJS}}
	first := r.Run(context.Background(), in)
	second := r.Run(context.Background(), in)

	assert.Equal(t, first, second)
	stats := results.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestReadInput_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "tool_name=Write"},
		{"missing tool name", `{"tool_input":{}}`},
		{"wrong type", `{"tool_name":42}`},
		{"wrong nested type", `{"tool_name":"Write","tool_input":{"file_path":7}}`},
		{"bad edits", `{"tool_name":"MultiEdit","tool_input":{"edits":"nope"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadInput(strings.NewReader(tt.payload))
			assert.Error(t, err)
		})
	}
}

func TestReadInput_SizeLimit(t *testing.T) {
	payload := `{"tool_name":"Write","tool_input":{"content":"` + strings.Repeat("a", MaxInputSize) + `"}}`
	_, err := ReadInput(strings.NewReader(payload))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum size of 10MB")
}

func TestReadInput_Optional(t *testing.T) {
	in, err := ReadInput(strings.NewReader(`{"tool_name":"Edit","tool_input":{"file_path":"a.go","new_string":"x"},` +
		`"cwd":"/w","session_id":"s","transcript_path":"/t","hook_event_name":"PostToolUse","extra":true}`))
	require.NoError(t, err)
	assert.Equal(t, "a.go", in.ToolInput.FilePath)
	assert.Equal(t, "/w", in.Cwd)
	assert.Equal(t, filepath.Join("/w", "a.go"), in.resolvePath())
}

func TestHandle_MalformedInput(t *testing.T) {
	var out bytes.Buffer
	err := newTestRunner(nil).Handle(context.Background(), strings.NewReader("{"), &out)
	assert.Error(t, err)
	assert.Empty(t, out.String())
}

func TestWriteOutput_NoHTMLEscaping(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteOutput(&out, NewOutput("a < b && c > d")))
	assert.Contains(t, out.String(), `"a < b && c > d"`)
}

func TestRun_WhitespaceOnly(t *testing.T) {
	out := newTestRunner(nil).Run(context.Background(), &Input{ToolName: ToolWrite,
		ToolInput: ToolInput{FilePath: "/nonexistent/a.py", Content: "  \n\t\n"}})
	assert.Equal(t, "", out.HookSpecificOutput.AdditionalContext)
}

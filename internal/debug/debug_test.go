package debug

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveAndRestoreState() func() {
	originalDebug := EnableDebug
	originalMode := MCPMode
	originalOutput := debugOutput
	originalFile := debugFile
	return func() {
		EnableDebug = originalDebug
		MCPMode = originalMode
		debugOutput = originalOutput
		debugFile = originalFile
	}
}

func TestIsDebugEnabled(t *testing.T) {
	defer saveAndRestoreState()()
	t.Setenv("DEBUG", "")

	EnableDebug = "false"
	MCPMode = false
	assert.False(t, IsDebugEnabled())

	EnableDebug = "true"
	assert.True(t, IsDebugEnabled())

	MCPMode = true
	assert.False(t, IsDebugEnabled(), "MCP mode always suppresses output")

	MCPMode = false
	EnableDebug = "false"
	t.Setenv("DEBUG", "1")
	assert.True(t, IsDebugEnabled())
}

func TestLogComponents(t *testing.T) {
	defer saveAndRestoreState()()
	EnableDebug = "true"
	MCPMode = false

	tests := []struct {
		name    string
		logFunc func(string, ...interface{})
		prefix  string
	}{
		{"analysis", LogAnalysis, "[DEBUG:ANALYSIS]"},
		{"project", LogProject, "[DEBUG:PROJECT]"},
		{"cache", LogCache, "[DEBUG:CACHE]"},
		{"hook", LogHook, "[DEBUG:HOOK]"},
		{"mcp", LogMCP, "[DEBUG:MCP]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetDebugOutput(&buf)
			tt.logFunc("handled %d files\n", 3)
			assert.Contains(t, buf.String(), tt.prefix)
			assert.Contains(t, buf.String(), "handled 3 files")
		})
	}
}

func TestLogSuppressedInMCPMode(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "true"
	MCPMode = true
	Log("TEST", "should not appear")
	CatastrophicError("nor this")

	assert.Empty(t, buf.String())
}

func TestFatalReturnsError(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	MCPMode = false
	err := Fatal("cannot write %s", "output")
	require.Error(t, err)
	assert.Equal(t, "fatal error: cannot write output", err.Error())
	assert.Contains(t, buf.String(), "[FATAL]")
}

func TestNoOutputWithNilWriter(t *testing.T) {
	defer saveAndRestoreState()()

	SetDebugOutput(nil)
	EnableDebug = "true"
	MCPMode = false

	Printf("test %s", "message")
	Log("TEST", "test %s", "message")
	_ = Fatal("test %s", "message")
	CatastrophicError("test %s", "message")
}

func TestConcurrentLogging(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "true"
	MCPMode = false

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			LogProject("worker %d\n", id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, bytes.Count(buf.Bytes(), []byte("[DEBUG:PROJECT]")))
}

func TestInitDebugLogFile(t *testing.T) {
	defer saveAndRestoreState()()

	logPath, err := InitDebugLogFile()
	require.NoError(t, err)
	defer os.Remove(logPath)

	EnableDebug = "true"
	MCPMode = false
	Printf("Test log message\n")

	require.NoError(t, CloseDebugLog())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Test log message")
}

package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EnableDebug can be flipped at build time:
// go build -ldflags "-X github.com/standardbeagle/lcq/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// MCPMode suppresses all output while stdio carries the MCP protocol
var MCPMode = false

var (
	debugOutput io.Writer
	debugFile   *os.File
	debugMutex  sync.Mutex
)

// SetMCPMode toggles MCP mode
func SetMCPMode(enabled bool) {
	MCPMode = enabled
}

// SetDebugOutput sets the writer for debug output. nil disables output.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// InitDebugLogFile routes debug output to a timestamped file under the temp
// directory and returns its path. Call CloseDebugLog when done.
func InitDebugLogFile() (string, error) {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	logDir := filepath.Join(os.TempDir(), "lcq-debug-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("debug-%s-%d.log", time.Now().Format("2006-01-02T150405"), os.Getpid()))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugFile = file
	debugOutput = file
	return logPath, nil
}

// CloseDebugLog closes the debug log file if one is open
func CloseDebugLog() error {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if debugFile == nil {
		return nil
	}
	err := debugFile.Close()
	debugFile = nil
	debugOutput = nil
	return err
}

// IsDebugEnabled reports whether debug output is on. MCP mode always wins.
func IsDebugEnabled() bool {
	if MCPMode {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("DEBUG")
	return v == "1" || v == "true"
}

func emit(prefix, format string, args ...interface{}) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	if debugOutput == nil {
		return
	}
	fmt.Fprintf(debugOutput, prefix+format, args...)
}

// Printf prints when debug is enabled and an output is configured
func Printf(format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	emit("[DEBUG] ", format, args...)
}

// Log writes a component-tagged debug line
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	emit("[DEBUG:"+component+"] ", format, args...)
}

// LogAnalysis logs single-file analysis events
func LogAnalysis(format string, args ...interface{}) {
	Log("ANALYSIS", format, args...)
}

// LogProject logs project driver events
func LogProject(format string, args ...interface{}) {
	Log("PROJECT", format, args...)
}

// LogCache logs cache events
func LogCache(format string, args ...interface{}) {
	Log("CACHE", format, args...)
}

// LogHook logs hook processing
func LogHook(format string, args ...interface{}) {
	Log("HOOK", format, args...)
}

// LogMCP logs MCP server events
func LogMCP(format string, args ...interface{}) {
	Log("MCP", format, args...)
}

// Fatal logs a fatal message (outside MCP mode) and returns it as an error.
// Callers decide whether to exit.
func Fatal(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if !MCPMode {
		emit("[FATAL] ", "%s\n", msg)
	}
	return fmt.Errorf("fatal error: %s", msg)
}

// CatastrophicError logs a system-level failure outside MCP mode
func CatastrophicError(format string, args ...interface{}) {
	if MCPMode {
		return
	}
	emit("[CATASTROPHIC] ", format, args...)
}

// Package hook implements the post-edit hook protocol: a JSON object on stdin
// describing the edit, a JSON envelope on stdout carrying the analysis as
// additional context for the assistant.
package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

const (
	// MaxInputSize bounds the stdin payload
	MaxInputSize = 10 * 1024 * 1024
	// MaxEdits bounds how many MultiEdit fragments are aggregated
	MaxEdits = 1000

	EventPostToolUse = "PostToolUse"
)

// Tool names that modify files
const (
	ToolWrite     = "Write"
	ToolEdit      = "Edit"
	ToolMultiEdit = "MultiEdit"
)

// Input is the object the assistant writes to stdin
type Input struct {
	ToolName       string    `json:"tool_name"`
	ToolInput      ToolInput `json:"tool_input"`
	Cwd            string    `json:"cwd,omitempty"`
	TranscriptPath string    `json:"transcript_path,omitempty"`
	SessionID      string    `json:"session_id,omitempty"`
	HookEventName  string    `json:"hook_event_name,omitempty"`
}

// ToolInput carries the arguments of the tool call that triggered the hook
type ToolInput struct {
	FilePath  string `json:"file_path,omitempty"`
	Content   string `json:"content,omitempty"`
	OldString string `json:"old_string,omitempty"`
	NewString string `json:"new_string,omitempty"`
	Edits     []Edit `json:"edits,omitempty"`
}

// Edit is one MultiEdit replacement
type Edit struct {
	OldString string `json:"old_string,omitempty"`
	NewString string `json:"new_string,omitempty"`
}

// Output is the envelope written to stdout
type Output struct {
	HookSpecificOutput SpecificOutput `json:"hookSpecificOutput"`
}

// SpecificOutput holds the context handed back to the assistant
type SpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

// NewOutput wraps context in a PostToolUse envelope
func NewOutput(context string) Output {
	return Output{HookSpecificOutput: SpecificOutput{
		HookEventName:     EventPostToolUse,
		AdditionalContext: context,
	}}
}

func stringProp() *jsonschema.Schema { return &jsonschema.Schema{Type: "string"} }

var inputSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"tool_name"},
	Properties: map[string]*jsonschema.Schema{
		"tool_name": {Type: "string", Description: "Name of the tool that ran"},
		"tool_input": {
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file_path":  stringProp(),
				"content":    stringProp(),
				"old_string": stringProp(),
				"new_string": stringProp(),
				"edits": {
					Type: "array",
					Items: &jsonschema.Schema{
						Type: "object",
						Properties: map[string]*jsonschema.Schema{
							"old_string": stringProp(),
							"new_string": stringProp(),
						},
					},
				},
			},
		},
		"cwd":             stringProp(),
		"transcript_path": stringProp(),
		"session_id":      stringProp(),
		"hook_event_name": stringProp(),
	},
}

var (
	resolveOnce    sync.Once
	resolvedSchema *jsonschema.Resolved
	resolveErr     error
)

func schema() (*jsonschema.Resolved, error) {
	resolveOnce.Do(func() {
		resolvedSchema, resolveErr = inputSchema.Resolve(nil)
	})
	return resolvedSchema, resolveErr
}

// ReadInput reads and validates one hook payload from r
func ReadInput(r io.Reader) (*Input, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("input exceeds maximum size of %dMB", MaxInputSize/1024/1024)
	}
	return ParseInput(data)
}

// ParseInput validates data against the input schema and decodes it
func ParseInput(data []byte) (*Input, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse input JSON: %w", err)
	}
	resolved, err := schema()
	if err != nil {
		return nil, fmt.Errorf("invalid input schema: %w", err)
	}
	if err := resolved.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid hook input: %w", err)
	}

	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to decode hook input: %w", err)
	}
	return &in, nil
}

// modifiesFiles reports whether the tool is one whose edits are analysed
func (in *Input) modifiesFiles() bool {
	switch in.ToolName {
	case ToolWrite, ToolEdit, ToolMultiEdit:
		return true
	}
	return false
}

var passThroughSuffixes = []string{".md", ".txt", ".json", ".toml", ".yaml", ".yml"}

// isNonCode reports paths whose edits are never analysed
func isNonCode(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range passThroughSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// fallbackContent is the edited text carried in the tool call itself, used
// when the file cannot be read back from disk.
func (in *Input) fallbackContent() string {
	switch in.ToolName {
	case ToolWrite:
		return in.ToolInput.Content
	case ToolEdit:
		return in.ToolInput.NewString
	case ToolMultiEdit:
		var sb strings.Builder
		valid := 0
		for i, edit := range in.ToolInput.Edits {
			if i >= MaxEdits {
				break
			}
			if edit.NewString == "" {
				continue
			}
			if valid > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(edit.NewString)
			valid++
		}
		return sb.String()
	}
	return ""
}

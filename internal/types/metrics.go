package types

import "time"

// DefaultMaxSourceSize is the largest source body accepted for analysis.
const DefaultMaxSourceSize = 10 * 1024 * 1024

// ComplexityMetrics summarises one source body
type ComplexityMetrics struct {
	CyclomaticComplexity int `json:"cyclomatic_complexity"`
	CognitiveComplexity  int `json:"cognitive_complexity"`
	NestingDepth         int `json:"nesting_depth"`
	FunctionCount        int `json:"function_count"`
	ParameterCount       int `json:"parameter_count"`
	ReturnPoints         int `json:"return_points"`
	LineCount            int `json:"line_count"`
}

// FileDescriptor identifies a project file for caching and reporting
type FileDescriptor struct {
	Path      string    `json:"path"`
	Extension string    `json:"extension"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mod_time"`
}

// CountLines counts lines the way a line iterator does: a trailing newline
// does not start a new line, and empty input has none.
func CountLines(source string) int {
	if source == "" {
		return 0
	}
	n := 0
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			n++
		}
	}
	if source[len(source)-1] != '\n' {
		n++
	}
	return n
}

package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds for the code quality engine
type ErrorType string

const (
	// Input errors
	ErrorTypeEmptySource         ErrorType = "empty_source"
	ErrorTypeSourceTooLarge      ErrorType = "source_too_large"
	ErrorTypeUnsupportedLanguage ErrorType = "unsupported_language"

	// Grammar errors
	ErrorTypeGrammarUnsupported ErrorType = "grammar_unsupported_here"
	ErrorTypeNotApplicable      ErrorType = "not_applicable"
	ErrorTypeParseFailed        ErrorType = "parse_failed"

	// Runtime errors
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeIO           ErrorType = "io"
	ErrorTypeCacheCorrupt ErrorType = "cache_corrupt"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// Sentinels for errors.Is checks. Structured errors unwrap to the sentinel
// matching their Type.
var (
	ErrEmptySource            = errors.New("source code cannot be empty")
	ErrSourceTooLarge         = errors.New("source code too large")
	ErrUnsupportedLanguage    = errors.New("unsupported language")
	ErrGrammarUnsupportedHere = errors.New("grammar not available on the tree-sitter path")
	ErrNotApplicable          = errors.New("node-kind table not applicable")
	ErrParseFailed            = errors.New("source code contains syntax errors")
	ErrTimeout                = errors.New("analysis timeout")
	ErrIO                     = errors.New("i/o failure")
	ErrCacheCorrupt           = errors.New("cache corrupt")
)

var sentinels = map[ErrorType]error{
	ErrorTypeEmptySource:         ErrEmptySource,
	ErrorTypeSourceTooLarge:      ErrSourceTooLarge,
	ErrorTypeUnsupportedLanguage: ErrUnsupportedLanguage,
	ErrorTypeGrammarUnsupported:  ErrGrammarUnsupportedHere,
	ErrorTypeNotApplicable:       ErrNotApplicable,
	ErrorTypeParseFailed:         ErrParseFailed,
	ErrorTypeTimeout:             ErrTimeout,
	ErrorTypeIO:                  ErrIO,
	ErrorTypeCacheCorrupt:        ErrCacheCorrupt,
}

// AnalysisError describes a failure while analyzing one source body
type AnalysisError struct {
	Type       ErrorType
	Language   string
	FilePath   string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewAnalysisError creates an analysis error of the given kind
func NewAnalysisError(kind ErrorType, language, op string, err error) *AnalysisError {
	return &AnalysisError{
		Type:       kind,
		Language:   language,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithFile adds file information to the error
func (e *AnalysisError) WithFile(path string) *AnalysisError {
	e.FilePath = path
	return e
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	msg := e.Operation
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", e.Operation, e.Underlying)
	}
	if e.FilePath != "" {
		return fmt.Sprintf("%s failed for %s: %s", e.Type, e.FilePath, msg)
	}
	return msg
}

// Unwrap returns the underlying error and the kind sentinel
func (e *AnalysisError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Underlying != nil {
		out = append(out, e.Underlying)
	}
	if s, ok := sentinels[e.Type]; ok && s != e.Underlying {
		out = append(out, s)
	}
	return out
}

// Is reports whether target is the same kind of analysis error
func (e *AnalysisError) Is(target error) bool {
	other, ok := target.(*AnalysisError)
	return ok && other.Type == e.Type
}

// EmptySource reports an empty or whitespace-only source
func EmptySource(language string) *AnalysisError {
	return NewAnalysisError(ErrorTypeEmptySource, language, "Source code cannot be empty", nil)
}

// SourceTooLarge reports a source over the size limit
func SourceTooLarge(language string, size, limit int64) *AnalysisError {
	op := fmt.Sprintf("Source code too large (%d bytes > %d bytes)", size, limit)
	return NewAnalysisError(ErrorTypeSourceTooLarge, language, op, nil)
}

// UnsupportedLanguage reports an unrecognized language or extension
func UnsupportedLanguage(name string) *AnalysisError {
	return NewAnalysisError(ErrorTypeUnsupportedLanguage, name, fmt.Sprintf("Unsupported language %q", name), nil)
}

// GrammarUnsupportedHere reports a tree-sitter request for a language with its own path
func GrammarUnsupportedHere(language string) *AnalysisError {
	op := fmt.Sprintf("%s is not analyzed through the tree-sitter path", language)
	return NewAnalysisError(ErrorTypeGrammarUnsupported, language, op, nil)
}

// NotApplicable reports a node-kind table request for a language without one
func NotApplicable(language string) *AnalysisError {
	op := fmt.Sprintf("no node-kind table for %s", language)
	return NewAnalysisError(ErrorTypeNotApplicable, language, op, nil)
}

// ParseFailed reports a tree with the error flag set
func ParseFailed(language string) *AnalysisError {
	return NewAnalysisError(ErrorTypeParseFailed, language, "Source code contains syntax errors", nil)
}

// Timeout reports an analysis that exceeded its wall-clock budget
func Timeout(language string, budget time.Duration) *AnalysisError {
	op := fmt.Sprintf("Analysis timeout: %s code analysis exceeded %s timeout", language, budget)
	return NewAnalysisError(ErrorTypeTimeout, language, op, nil)
}

// KindOf returns the error kind carried by err, or "" when none
func KindOf(err error) ErrorType {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Type
	}
	var fe *FileError
	if errors.As(err, &fe) {
		return fe.Type
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ErrorTypeConfig
	}
	for kind, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return ""
}

// FileError represents a file or cache I/O failure
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates an I/O error for a file operation
func NewFileError(op, path string, err error) *FileError {
	return &FileError{
		Type:       ErrorTypeIO,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewCacheCorruptError creates an error for an undecodable cache file
func NewCacheCorruptError(path string, err error) *FileError {
	return &FileError{
		Type:       ErrorTypeCacheCorrupt,
		Path:       path,
		Operation:  "decode",
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error and the kind sentinel
func (e *FileError) Unwrap() []error {
	return []error{e.Underlying, sentinels[e.Type]}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

package analysis

import (
	"context"
	"strings"
	"time"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lcq/internal/debug"
	lcqerrors "github.com/standardbeagle/lcq/internal/errors"
	"github.com/standardbeagle/lcq/internal/parser"
	"github.com/standardbeagle/lcq/internal/types"
)

// Analyzer computes complexity metrics for tree-sitter backed languages
type Analyzer struct {
	cache         *parser.Cache
	maxSourceSize int64
}

// AnalyzerOption configures an Analyzer
type AnalyzerOption func(*Analyzer)

// WithAnalyzerCache uses c instead of the process-wide parser cache
func WithAnalyzerCache(c *parser.Cache) AnalyzerOption {
	return func(a *Analyzer) { a.cache = c }
}

// WithAnalyzerMaxSourceSize overrides the source size limit
func WithAnalyzerMaxSourceSize(n int64) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxSourceSize = n
		}
	}
}

// NewAnalyzer creates an analyzer with the default cache and size limit
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{cache: parser.Default(), maxSourceSize: types.DefaultMaxSourceSize}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// validateSource applies the checks shared by every analysis entry point.
// Order matters: emptiness first, then size, then the language.
func validateSource(source string, lang parser.Language, limit int64) error {
	name := parser.DisplayName(lang)
	if strings.TrimSpace(source) == "" {
		return lcqerrors.EmptySource(name)
	}
	if int64(len(source)) > limit {
		return lcqerrors.SourceTooLarge(name, int64(len(source)), limit)
	}
	if !parser.IsKnown(lang) {
		return lcqerrors.UnsupportedLanguage(string(lang))
	}
	return nil
}

// AnalyzeComplexity parses source and returns its complexity metrics
func (a *Analyzer) AnalyzeComplexity(source string, lang parser.Language) (*types.ComplexityMetrics, error) {
	return a.analyzeComplexity(source, lang, "")
}

// AnalyzeComplexityForPath is AnalyzeComplexity with the grammar dialect
// picked from path (.tsx sources use the TSX grammar).
func (a *Analyzer) AnalyzeComplexityForPath(source string, lang parser.Language, path string) (*types.ComplexityMetrics, error) {
	return a.analyzeComplexity(source, lang, path)
}

func (a *Analyzer) analyzeComplexity(source string, lang parser.Language, path string) (*types.ComplexityMetrics, error) {
	if err := validateSource(source, lang, a.maxSourceSize); err != nil {
		return nil, err
	}
	if !parser.IsParserBacked(lang) {
		return nil, lcqerrors.GrammarUnsupportedHere(parser.DisplayName(lang))
	}

	src := []byte(source)
	tree, err := a.cache.Parse(lang, parser.VariantForPath(lang, path), src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, lcqerrors.ParseFailed(parser.DisplayName(lang))
	}
	return metricsForTree(lang, tree, source)
}

func metricsForTree(lang parser.Language, tree *tree_sitter.Tree, source string) (*types.ComplexityMetrics, error) {
	table, err := parser.KindTableForTree(lang, tree)
	if err != nil {
		return nil, err
	}
	v := NewComplexityVisitor(lang, table)
	v.Visit(tree.RootNode())
	m := v.Metrics()
	m.LineCount = types.CountLines(source)
	return &m, nil
}

// AnalyzeComplexityWithTimeout bounds AnalyzeComplexity by timeout. On
// expiry the worker is abandoned; it only touches its own parser and tree.
func (a *Analyzer) AnalyzeComplexityWithTimeout(ctx context.Context, source string, lang parser.Language,
	timeout time.Duration) (*types.ComplexityMetrics, error) {
	return RunWithBudget(ctx, lang, timeout, func() (*types.ComplexityMetrics, error) {
		return a.AnalyzeComplexity(source, lang)
	})
}

type outcome[T any] struct {
	value T
	err   error
}

// RunWithBudget runs fn on its own goroutine and gives up after timeout or
// when ctx is done.
func RunWithBudget[T any](ctx context.Context, lang parser.Language, timeout time.Duration, fn func() (T, error)) (T, error) {
	done := make(chan outcome[T], 1)
	go func() {
		v, err := fn()
		done <- outcome[T]{value: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case out := <-done:
		return out.value, out.err
	case <-timer.C:
		debug.LogAnalysis("%s analysis abandoned after %s\n", parser.DisplayName(lang), timeout)
		return zero, lcqerrors.Timeout(parser.DisplayName(lang), timeout)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

var defaultAnalyzer = NewAnalyzer()

// AnalyzeComplexity uses the process-wide analyzer
func AnalyzeComplexity(source string, lang parser.Language) (*types.ComplexityMetrics, error) {
	return defaultAnalyzer.AnalyzeComplexity(source, lang)
}

// AnalyzeComplexityWithTimeout uses the process-wide analyzer
func AnalyzeComplexityWithTimeout(ctx context.Context, source string, lang parser.Language,
	timeout time.Duration) (*types.ComplexityMetrics, error) {
	return defaultAnalyzer.AnalyzeComplexityWithTimeout(ctx, source, lang, timeout)
}

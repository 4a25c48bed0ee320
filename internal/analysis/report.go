package analysis

import (
	"context"
	"time"

	lcqerrors "github.com/standardbeagle/lcq/internal/errors"
	"github.com/standardbeagle/lcq/internal/parser"
	"github.com/standardbeagle/lcq/internal/types"
)

// Report is the full single-file outcome used by project runs
type Report struct {
	Score *types.QualityScore
	// Metrics is nil for sources that failed to parse and for languages
	// without a shared grammar.
	Metrics *types.ComplexityMetrics
}

// Report scores source and, when a grammar is available, measures its
// complexity. A parse failure leaves Metrics nil and is reported only
// through the score.
func (s *Scorer) Report(source string, lang parser.Language, path string) (*Report, error) {
	score, err := s.score(source, lang, path)
	if err != nil {
		return nil, err
	}
	r := &Report{Score: score}
	if !parser.IsParserBacked(lang) || score.Message == ParseErrorMessage {
		return r, nil
	}

	a := &Analyzer{cache: s.cache, maxSourceSize: s.maxSourceSize}
	m, err := a.analyzeComplexity(source, lang, path)
	switch {
	case err == nil:
		r.Metrics = m
	case lcqerrors.KindOf(err) != lcqerrors.ErrorTypeParseFailed:
		return nil, err
	}
	return r, nil
}

// ReportWithTimeout bounds Report by timeout
func (s *Scorer) ReportWithTimeout(ctx context.Context, source string, lang parser.Language, path string,
	timeout time.Duration) (*Report, error) {
	return RunWithBudget(ctx, lang, timeout, func() (*Report, error) {
		return s.Report(source, lang, path)
	})
}

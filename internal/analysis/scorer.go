package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lcq/internal/config"
	"github.com/standardbeagle/lcq/internal/debug"
	lcqerrors "github.com/standardbeagle/lcq/internal/errors"
	"github.com/standardbeagle/lcq/internal/parser"
	"github.com/standardbeagle/lcq/internal/types"
)

// Mode selects the rule engine for tree-sitter backed languages
type Mode string

const (
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
)

// ParseErrorMessage is attached to scores of sources that failed to parse
const ParseErrorMessage = "parse error: source contains syntax errors"

// Scorer turns sources into quality scores. It is safe for concurrent use.
type Scorer struct {
	cache         *parser.Cache
	registry      *Registry
	mode          Mode
	maxIssues     int
	maxSourceSize int64
	prewarm       bool
}

// ScorerOption configures a Scorer
type ScorerOption func(*Scorer)

// WithMode picks the single-pass or multi-pass engine
func WithMode(m Mode) ScorerOption {
	return func(s *Scorer) {
		if m == ModeMulti {
			s.mode = ModeMulti
		} else {
			s.mode = ModeSingle
		}
	}
}

// WithMaxIssues truncates the issue list after deductions. Zero keeps all.
func WithMaxIssues(n int) ScorerOption {
	return func(s *Scorer) {
		if n > 0 {
			s.maxIssues = config.ClampMaxIssues(n)
		}
	}
}

// WithMaxSourceSize overrides the source size limit
func WithMaxSourceSize(n int64) ScorerOption {
	return func(s *Scorer) {
		if n > 0 {
			s.maxSourceSize = n
		}
	}
}

// WithRegistry sets the rules used in multi-pass mode
func WithRegistry(r *Registry) ScorerOption {
	return func(s *Scorer) { s.registry = r }
}

// WithParserCache uses c instead of the process-wide parser cache
func WithParserCache(c *parser.Cache) ScorerOption {
	return func(s *Scorer) { s.cache = c }
}

// WithPrewarm loads every grammar during construction
func WithPrewarm(on bool) ScorerOption {
	return func(s *Scorer) { s.prewarm = on }
}

// FromConfig maps the analysis section of cfg to scorer options
func FromConfig(cfg *config.Config) []ScorerOption {
	if cfg == nil {
		return nil
	}
	return []ScorerOption{
		WithMode(Mode(cfg.Analysis.Mode)),
		WithMaxIssues(cfg.Analysis.MaxIssues),
		WithMaxSourceSize(cfg.Analysis.MaxSourceSize),
		WithPrewarm(cfg.Analysis.Prewarm),
	}
}

// NewScorer builds a scorer. AST_PREWARM and AST_MAX_ISSUES are honoured
// unless an option overrides them.
func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{
		cache:         parser.Default(),
		mode:          ModeSingle,
		maxSourceSize: types.DefaultMaxSourceSize,
		prewarm:       config.EnvPrewarm(),
	}
	if n, ok := config.EnvMaxIssues(); ok {
		s.maxIssues = n
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = DefaultRegistry()
	}
	if s.prewarm {
		if err := s.cache.PreloadAll(context.Background()); err != nil {
			debug.LogAnalysis("grammar preload failed: %v\n", err)
		}
	}
	return s
}

// Mode reports the configured engine
func (s *Scorer) Mode() Mode { return s.mode }

// Analyze scores source written in lang
func (s *Scorer) Analyze(source string, lang parser.Language) (*types.QualityScore, error) {
	return s.score(source, lang, "")
}

// AnalyzeFile scores source as the contents of path. The language and any
// grammar dialect come from the path's extension.
func (s *Scorer) AnalyzeFile(path, source string) (*types.QualityScore, error) {
	lang, ok := parser.FromPath(path)
	if !ok {
		return nil, lcqerrors.UnsupportedLanguage(path).WithFile(path)
	}
	return s.score(source, lang, path)
}

// AnalyzeWithTimeout is AnalyzeFile (or Analyze when path is empty) bounded
// by timeout.
func (s *Scorer) AnalyzeWithTimeout(ctx context.Context, source string, lang parser.Language, path string,
	timeout time.Duration) (*types.QualityScore, error) {
	return RunWithBudget(ctx, lang, timeout, func() (*types.QualityScore, error) {
		return s.score(source, lang, path)
	})
}

func (s *Scorer) score(source string, lang parser.Language, path string) (*types.QualityScore, error) {
	if err := validateSource(source, lang, s.maxSourceSize); err != nil {
		if lcqerrors.KindOf(err) == lcqerrors.ErrorTypeEmptySource {
			return types.NewQualityScore(), err
		}
		return nil, err
	}

	var (
		issues  []types.Issue
		message string
		err     error
	)
	switch {
	case lang == parser.LanguageRust:
		issues, message, err = rustIssues([]byte(source))
	case !parser.IsParserBacked(lang):
		issues = configIssues(lang, source)
	default:
		issues, message, err = s.treeIssues(source, lang, path)
	}
	if err != nil {
		if path != "" {
			if ae, ok := err.(*lcqerrors.AnalysisError); ok {
				ae.WithFile(path)
			}
		}
		return nil, err
	}

	score := types.NewQualityScore()
	applyDeductions(score, issues)
	s.finish(score, issues, source, path)
	if message != "" {
		score.Message = message
	}
	return score, nil
}

func (s *Scorer) treeIssues(source string, lang parser.Language, path string) ([]types.Issue, string, error) {
	src := []byte(source)
	tree, err := s.cache.Parse(lang, parser.VariantForPath(lang, path), src)
	if err != nil {
		return nil, "", err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return []types.Issue{parseErrorIssue(root)}, ParseErrorMessage, nil
	}

	if s.mode == ModeMulti {
		return s.registry.Run(tree, src, lang), "", nil
	}
	issues, err := SinglePassEngine{}.Analyze(tree, src, lang)
	return issues, "", err
}

// parseErrorIssue anchors PARSE001 at the first error or missing node
func parseErrorIssue(root *tree_sitter.Node) types.Issue {
	at := root
	stack := []*tree_sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.IsError() || n.IsMissing() {
			at = n
			break
		}
		if !n.HasError() {
			continue
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			if c := n.Child(uint(i)); c != nil {
				stack = append(stack, c)
			}
		}
	}
	return newIssue(at, types.SeverityMinor, types.CategoryNamingConvention, "PARSE001", ParseErrorMessage, 0)
}

// applyDeductions is the only place score components are reduced
func applyDeductions(score *types.QualityScore, issues []types.Issue) {
	for _, issue := range issues {
		switch issue.Category {
		case types.CategoryUnhandledError:
			score.FunctionalityScore = types.SaturatingSub(score.FunctionalityScore, 50)
		case types.CategoryInfiniteLoop:
			score.FunctionalityScore = types.SaturatingSub(score.FunctionalityScore, 60)
		case types.CategoryDeadCode, types.CategoryUnreachableCode:
			score.FunctionalityScore = types.SaturatingSub(score.FunctionalityScore, 20)
		case types.CategoryNullPointerRisk:
			score.ReliabilityScore = types.SaturatingSub(score.ReliabilityScore, 40)
		case types.CategoryResourceLeak:
			score.ReliabilityScore = types.SaturatingSub(score.ReliabilityScore, 50)
		case types.CategoryHighComplexity, types.CategoryLongMethod:
			score.MaintainabilityScore = types.SaturatingSub(score.MaintainabilityScore, issue.PointsDeducted)
		case types.CategoryUnfinishedWork:
			score.MaintainabilityScore = types.SaturatingSub(score.MaintainabilityScore, 15)
		case types.CategorySqlInjection, types.CategoryHardcodedCredentials:
			score.SecurityScore = types.SaturatingSub(score.SecurityScore, 50)
		}
	}
	score.Recompute()
}

// finish sorts, clamps positions, stamps the path and applies truncation
func (s *Scorer) finish(score *types.QualityScore, issues []types.Issue, source, path string) {
	lines := max(types.CountLines(source), 1)
	for i := range issues {
		issues[i].Line = min(max(issues[i].Line, 1), lines)
		issues[i].Column = max(issues[i].Column, 1)
		if path != "" {
			issues[i].FilePath = path
		}
	}
	types.SortIssues(issues)

	score.TotalIssues = len(issues)
	if s.maxIssues > 0 && len(issues) > s.maxIssues {
		issues = issues[:s.maxIssues]
		score.Message = fmt.Sprintf("truncated: showing %d of %d issues (AST_MAX_ISSUES)", s.maxIssues, score.TotalIssues)
	}
	if issues == nil {
		issues = []types.Issue{}
	}
	score.Issues = issues
}

// Summary renders the one-line score summary used by reports
func Summary(score *types.QualityScore) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quality score: %d/%d", score.TotalScore, types.MaxTotal)
	fmt.Fprintf(&b, " (functionality %d/%d, reliability %d/%d, maintainability %d/%d,",
		score.FunctionalityScore, types.MaxFunctionality, score.ReliabilityScore, types.MaxReliability,
		score.MaintainabilityScore, types.MaxMaintainability)
	fmt.Fprintf(&b, " performance %d/%d, security %d/%d, standards %d/%d)",
		score.PerformanceScore, types.MaxPerformance, score.SecurityScore, types.MaxSecurity,
		score.StandardsScore, types.MaxStandards)
	return b.String()
}

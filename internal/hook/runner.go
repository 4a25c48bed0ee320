package hook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/standardbeagle/lcq/internal/analysis"
	"github.com/standardbeagle/lcq/internal/cache"
	"github.com/standardbeagle/lcq/internal/config"
	"github.com/standardbeagle/lcq/internal/debug"
	lcqerrors "github.com/standardbeagle/lcq/internal/errors"
	"github.com/standardbeagle/lcq/internal/parser"
	"github.com/standardbeagle/lcq/internal/security"
	"github.com/standardbeagle/lcq/internal/types"
)

const (
	// DefaultTimeout bounds one hook analysis
	DefaultTimeout = 8 * time.Second
	// MaxFileSize bounds the file read back from disk
	MaxFileSize = 10 * 1024 * 1024

	guardThresholdKB = 256
)

// Runner turns hook payloads into output envelopes
type Runner struct {
	scorer    *analysis.Scorer
	results   *cache.ResultCache
	guard     *security.ContentGuard
	maxIssues int
	timeout   time.Duration
}

// Options configures a Runner
type Options struct {
	MaxIssues int           // 0 = AST_MAX_ISSUES or the hook default
	Timeout   time.Duration // 0 = DefaultTimeout
	Results   *cache.ResultCache
}

// NewRunner creates a runner. The scorer should keep every issue; the
// runner applies its own cap when formatting.
func NewRunner(scorer *analysis.Scorer, opts Options) *Runner {
	if opts.MaxIssues <= 0 {
		opts.MaxIssues = MaxIssuesFromEnv()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Runner{
		scorer:    scorer,
		results:   opts.Results,
		guard:     security.NewContentGuard(guardThresholdKB),
		maxIssues: config.ClampMaxIssues(opts.MaxIssues),
		timeout:   opts.Timeout,
	}
}

// NewRunnerFromConfig builds the scorer and runner for the hook command
func NewRunnerFromConfig(cfg *config.Config, results *cache.ResultCache) *Runner {
	opts := append(analysis.FromConfig(cfg), analysis.WithMaxIssues(0))
	r := NewRunner(analysis.NewScorer(opts...), Options{Results: results})
	if cfg != nil && cfg.Hook.MaxIssues > 0 {
		r.maxIssues = config.ClampMaxIssues(cfg.Hook.MaxIssues)
	}
	return r
}

// Handle reads one payload from r and writes the envelope to w. Only
// malformed input and write failures are returned as errors.
func (r *Runner) Handle(ctx context.Context, in io.Reader, w io.Writer) error {
	input, err := ReadInput(in)
	if err != nil {
		return err
	}
	return WriteOutput(w, r.Run(ctx, input))
}

// WriteOutput encodes out as one line of JSON
func WriteOutput(w io.Writer, out Output) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Run analyses the edited file and returns the envelope. Non-code files,
// unknown languages and empty content produce an empty context.
func (r *Runner) Run(ctx context.Context, in *Input) Output {
	if !in.modifiesFiles() {
		return NewOutput("")
	}
	path := in.ToolInput.FilePath
	if path == "" || isNonCode(path) {
		return NewOutput("")
	}
	lang, ok := parser.FromPath(path)
	if !ok {
		debug.LogHook("unsupported file type: %s\n", path)
		return NewOutput("")
	}

	content := r.readContent(in.resolvePath())
	if content == "" {
		content = in.fallbackContent()
	}
	if content == "" {
		return NewOutput("")
	}

	score, err := r.score(ctx, content, lang, path)
	if lcqerrors.KindOf(err) == lcqerrors.ErrorTypeEmptySource {
		return NewOutput("")
	}
	if err != nil {
		debug.LogHook("analysis failed for %s: %v\n", path, err)
		return NewOutput(fmt.Sprintf("AST analysis failed: %v", err))
	}
	return NewOutput(FormatContext(score, r.maxIssues))
}

func (r *Runner) score(ctx context.Context, content string, lang parser.Language, path string) (*types.QualityScore, error) {
	scope := string(lang) + ":" + path
	if r.results != nil {
		if cached := r.results.Get(scope, content); cached != nil {
			return cached, nil
		}
	}
	score, err := r.scorer.AnalyzeWithTimeout(ctx, content, lang, path, r.timeout)
	if err != nil {
		return nil, err
	}
	if r.results != nil {
		r.results.Put(scope, content, score)
	}
	return score, nil
}

func (in *Input) resolvePath() string {
	path := in.ToolInput.FilePath
	if !filepath.IsAbs(path) && in.Cwd != "" {
		path = filepath.Join(in.Cwd, path)
	}
	return path
}

// readContent returns the file as it is on disk after the edit, or "" when
// it cannot be read back as text.
func (r *Runner) readContent(path string) string {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	if info.Size() > MaxFileSize {
		debug.LogHook("%s exceeds %dMB, using tool input\n", path, MaxFileSize/1024/1024)
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		debug.LogHook("could not read %s: %v\n", path, err)
		return ""
	}
	if err := r.guard.Check(path, data); err != nil {
		debug.LogHook("rejected %s: %v\n", path, err)
		return ""
	}
	return string(data)
}

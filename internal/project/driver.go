package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/standardbeagle/lcq/internal/analysis"
	"github.com/standardbeagle/lcq/internal/cache"
	"github.com/standardbeagle/lcq/internal/config"
	"github.com/standardbeagle/lcq/internal/debug"
	lcqerrors "github.com/standardbeagle/lcq/internal/errors"
	"github.com/standardbeagle/lcq/internal/metrics"
	"github.com/standardbeagle/lcq/internal/parser"
	"github.com/standardbeagle/lcq/internal/security"
	"github.com/standardbeagle/lcq/internal/types"
)

// Pipeline constants
const (
	outcomeBufferSize  = 100
	collectorIdleTick  = 100 * time.Millisecond
	DefaultFileTimeout = 5 * time.Second
	// Files above this size must look like their language to be analysed
	guardThresholdKB = 256
)

// FileResult is a successfully analysed file
type FileResult struct {
	Path    string
	Score   *types.QualityScore
	Metrics *types.ComplexityMetrics // nil when the file failed to parse
	Sample  metrics.FileSample
	Cached  bool
}

// FileFailure is a file whose analysis produced an error
type FileFailure struct {
	Path string
	Err  error
}

func (f FileFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

func (f FileFailure) Unwrap() error { return f.Err }

// Result is the outcome of a project run. Results and Failures are sorted
// by path and together hold exactly one entry per collected file.
type Result struct {
	Root      string
	Results   []FileResult
	Failures  []FileFailure
	Metrics   *metrics.ProjectMetrics
	Structure metrics.ProjectStructure
	Duration  time.Duration
}

// Compact renders the compressed summary of the run
func (r *Result) Compact() metrics.CompressedStructure {
	return metrics.Compress(r.Structure, r.Metrics)
}

// CachedCount reports how many results were served from the project cache
func (r *Result) CachedCount() int {
	n := 0
	for _, fr := range r.Results {
		if fr.Cached {
			n++
		}
	}
	return n
}

// Options configures a Driver
type Options struct {
	Collect     CollectOptions
	Workers     int           // 0 = GOMAXPROCS
	FileTimeout time.Duration // 0 = DefaultFileTimeout
	// Cache, when set, short-circuits unchanged files and records fresh outcomes
	Cache *cache.ProjectCache
	// OnProgress is called on the collecting goroutine after every outcome
	OnProgress func(done, total int)
}

// analyzeFunc produces the report for one file's content
type analyzeFunc func(ctx context.Context, path string, content []byte) (*analysis.Report, error)

// Driver fans per-file analysis out over a worker pool
type Driver struct {
	scorer  *analysis.Scorer
	guard   *security.ContentGuard
	opts    Options
	analyze analyzeFunc
}

// NewDriver creates a driver scoring files with scorer
func NewDriver(scorer *analysis.Scorer, opts Options) *Driver {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.FileTimeout <= 0 {
		opts.FileTimeout = DefaultFileTimeout
	}
	d := &Driver{
		scorer: scorer,
		guard:  security.NewContentGuard(guardThresholdKB),
		opts:   opts,
	}
	d.analyze = d.analyzeContent
	return d
}

// NewDriverFromConfig wires scorer, collection options and budgets from cfg
func NewDriverFromConfig(cfg *config.Config, pc *cache.ProjectCache) *Driver {
	return NewDriver(analysis.NewScorer(analysis.FromConfig(cfg)...), Options{
		Collect:     OptionsFromConfig(cfg),
		Workers:     cfg.Scan.Workers,
		FileTimeout: time.Duration(cfg.Analysis.TimeoutMs) * time.Millisecond,
		Cache:       pc,
	})
}

// SetProgress replaces the progress callback
func (d *Driver) SetProgress(fn func(done, total int)) {
	d.opts.OnProgress = fn
}

func (d *Driver) analyzeContent(ctx context.Context, path string, content []byte) (*analysis.Report, error) {
	lang, ok := parser.FromPath(path)
	if !ok {
		return nil, lcqerrors.UnsupportedLanguage(filepath.Ext(path)).WithFile(path)
	}
	return d.scorer.ReportWithTimeout(ctx, string(content), lang, path, d.opts.FileTimeout)
}

// AnalyzeProject collects files under root and analyses them in parallel.
// Per-file errors land in Result.Failures; the returned error is reserved
// for an unreadable root or a cancelled context.
func (d *Driver) AnalyzeProject(ctx context.Context, root string) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	files, err := CollectFiles(absRoot, d.opts.Collect)
	if err != nil {
		return nil, err
	}
	return d.run(ctx, absRoot, files)
}

// AnalyzeProjectStrict is AnalyzeProject that fails when any file failed
func (d *Driver) AnalyzeProjectStrict(ctx context.Context, root string) (*Result, error) {
	res, err := d.AnalyzeProject(ctx, root)
	if err != nil {
		return nil, err
	}
	if err := StrictError(res.Failures); err != nil {
		return res, err
	}
	return res, nil
}

// StrictError aggregates failures into one error, or returns nil
func StrictError(failures []FileFailure) error {
	if len(failures) == 0 {
		return nil
	}
	lines := make([]string, len(failures))
	errs := make([]error, len(failures))
	for i, f := range failures {
		lines[i] = f.Error()
		errs[i] = f
	}
	return &StrictFailure{
		Message: fmt.Sprintf("Analysis failed for %d files:\n%s", len(failures), strings.Join(lines, "\n")),
		Errs:    errs,
	}
}

// StrictFailure is returned by the strict variant
type StrictFailure struct {
	Message string
	Errs    []error
}

func (e *StrictFailure) Error() string   { return e.Message }
func (e *StrictFailure) Unwrap() []error { return e.Errs }

// AnalyzeFiles analyses an explicit set of files under root, as the
// watcher does for changed paths. Relative paths are joined onto root.
func (d *Driver) AnalyzeFiles(ctx context.Context, root string, paths []string) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	files := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(absRoot, p)
		}
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	sort.Strings(files)
	return d.run(ctx, absRoot, files)
}

// run is the fork-join core: a feeder, a fixed worker pool and a collector
// on the calling goroutine draining both outcome channels.
func (d *Driver) run(ctx context.Context, root string, files []string) (*Result, error) {
	start := time.Now()
	res := &Result{Root: root, Results: []FileResult{}, Failures: []FileFailure{}}

	jobs := make(chan string)
	results := make(chan FileResult, outcomeBufferSize)
	failures := make(chan FileFailure, outcomeBufferSize)

	go func() {
		defer close(jobs)
		for _, f := range files {
			select {
			case jobs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	workers := min(d.opts.Workers, max(len(files), 1))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				fr, err := d.processFile(ctx, root, path)
				if err != nil {
					failures <- FileFailure{Path: path, Err: err}
				} else {
					results <- fr
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
		close(failures)
	}()

	ticker := time.NewTicker(collectorIdleTick)
	defer ticker.Stop()

	total := len(files)
	done := 0
	resultsCh, failuresCh := results, failures
	for resultsCh != nil || failuresCh != nil {
		select {
		case fr, ok := <-resultsCh:
			if !ok {
				resultsCh = nil
				continue
			}
			res.Results = append(res.Results, fr)
		case ff, ok := <-failuresCh:
			if !ok {
				failuresCh = nil
				continue
			}
			debug.LogProject("analysis failed for %s: %v\n", ff.Path, ff.Err)
			res.Failures = append(res.Failures, ff)
		case <-ticker.C:
			continue
		}
		done++
		if d.opts.OnProgress != nil {
			d.opts.OnProgress(done, total)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(res.Results, func(i, j int) bool { return res.Results[i].Path < res.Results[j].Path })
	sort.Slice(res.Failures, func(i, j int) bool { return res.Failures[i].Path < res.Failures[j].Path })

	res.Structure = buildStructure(root, files)
	agg := metrics.NewAggregator()
	for _, fr := range res.Results {
		agg.Add(fr.Sample)
	}
	res.Metrics = agg.Finish()
	res.Duration = time.Since(start)

	if d.opts.Cache != nil {
		d.opts.Cache.SetSummary(&res.Structure, res.Metrics)
	}
	debug.LogProject("analysed %d files under %s in %s (%d failed, %d cached)\n",
		total, root, res.Duration, len(res.Failures), res.CachedCount())
	return res, nil
}

// processFile produces exactly one outcome for path
func (d *Driver) processFile(ctx context.Context, root, path string) (FileResult, error) {
	rel := relPath(root, path)

	if pc := d.opts.Cache; pc != nil && !pc.NeedsUpdate(path) {
		if fh, ok := pc.Lookup(path); ok && fh.Entry != nil {
			if fh.Entry.Failed() {
				return FileResult{}, errors.New(fh.Entry.Error)
			}
			if fh.Entry.Score != nil {
				var lines metrics.LineCounts
				if fh.Entry.Lines != nil {
					lines = *fh.Entry.Lines
				}
				return FileResult{
					Path:    path,
					Score:   fh.Entry.Score,
					Metrics: fh.Entry.Metrics,
					Sample:  metrics.SampleFromCounts(rel, fh.Size, lines, fh.Entry.Metrics),
					Cached:  true,
				}, nil
			}
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return FileResult{}, lcqerrors.NewFileError("read", path, err)
	}
	if err := d.guard.Check(path, content); err != nil {
		return FileResult{}, lcqerrors.NewFileError("read", path, err)
	}

	report, err := d.analyze(ctx, path, content)
	if err != nil {
		d.remember(path, content, cache.Entry{Error: err.Error(), ErrorKind: lcqerrors.KindOf(err)})
		return FileResult{}, err
	}

	sample := metrics.NewFileSample(rel, content, report.Metrics)
	d.remember(path, content, cache.Entry{
		Score:   report.Score,
		Metrics: report.Metrics,
		Lines:   &sample.Lines,
	})
	return FileResult{
		Path:    path,
		Score:   report.Score,
		Metrics: report.Metrics,
		Sample:  sample,
	}, nil
}

// remember records an outcome in the project cache. Timeouts and
// cancellations depend on load, not content, so they are never cached.
func (d *Driver) remember(path string, content []byte, entry cache.Entry) {
	pc := d.opts.Cache
	if pc == nil {
		return
	}
	if entry.Error != "" && (entry.ErrorKind == lcqerrors.ErrorTypeTimeout || entry.ErrorKind == "") {
		return
	}
	if err := pc.Record(path, content, entry); err != nil {
		debug.LogCache("not caching %s: %v\n", path, err)
	}
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func buildStructure(root string, files []string) metrics.ProjectStructure {
	s := metrics.ProjectStructure{Root: root, Files: make([]types.FileDescriptor, 0, len(files))}
	for _, f := range files {
		fd := types.FileDescriptor{
			Path:      relPath(root, f),
			Extension: strings.TrimPrefix(filepath.Ext(f), "."),
		}
		if info, err := os.Stat(f); err == nil {
			fd.Size = info.Size()
			fd.ModTime = info.ModTime()
		}
		s.Files = append(s.Files, fd)
	}
	return s
}

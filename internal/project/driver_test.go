package project

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lcq/internal/analysis"
	"github.com/standardbeagle/lcq/internal/cache"
	lcqerrors "github.com/standardbeagle/lcq/internal/errors"
	"github.com/standardbeagle/lcq/internal/parser"
	"github.com/standardbeagle/lcq/internal/types"
)

func newTestDriver(opts Options) *Driver {
	return NewDriver(analysis.NewScorer(analysis.WithPrewarm(false)), opts)
}

// sampleProject writes two clean files, one with issues, one that does not
// parse and one binary file masquerading as Go.
func sampleProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "src/hello.py", "def hello():\n    return 'world'\n")
	writeFile(t, root, "src/util.go", "package util\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n")
	writeFile(t, root, "web/app.js", "function f(){ return 1; console.log('x'); }\n")
	writeFile(t, root, "web/broken.ts", "function (\n")
	writeFile(t, root, "bin.go", "package a\x00\x00\x00")
	writeFile(t, root, "notes.md", "# notes\n")
	return root
}

func TestAnalyzeProject_OneOutcomePerFile(t *testing.T) {
	root := sampleProject(t)

	res, err := newTestDriver(Options{Workers: 3}).AnalyzeProject(context.Background(), root)
	require.NoError(t, err)

	var paths []string
	for _, r := range res.Results {
		paths = append(paths, relPath(res.Root, r.Path))
	}
	assert.Equal(t, []string{"src/hello.py", "src/util.go", "web/app.js", "web/broken.ts"}, paths)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "bin.go", relPath(res.Root, res.Failures[0].Path))
	assert.Equal(t, lcqerrors.ErrorTypeIO, lcqerrors.KindOf(res.Failures[0].Err))

	assert.Len(t, res.Structure.Files, 5)
	assert.Equal(t, 4, res.Metrics.TotalFiles)
}

func TestAnalyzeProject_Outcomes(t *testing.T) {
	root := sampleProject(t)

	res, err := newTestDriver(Options{}).AnalyzeProject(context.Background(), root)
	require.NoError(t, err)

	byPath := make(map[string]FileResult)
	for _, r := range res.Results {
		byPath[relPath(res.Root, r.Path)] = r
	}

	hello := byPath["src/hello.py"]
	assert.Equal(t, types.MaxTotal, hello.Score.TotalScore)
	require.NotNil(t, hello.Metrics)
	assert.Equal(t, 1, hello.Metrics.FunctionCount)
	assert.Equal(t, "py", hello.Sample.Extension)

	app := byPath["web/app.js"]
	assert.Less(t, app.Score.FunctionalityScore, types.MaxFunctionality)

	broken := byPath["web/broken.ts"]
	assert.Equal(t, analysis.ParseErrorMessage, broken.Score.Message)
	assert.Nil(t, broken.Metrics)
}

func TestAnalyzeProjectStrict(t *testing.T) {
	root := sampleProject(t)

	res, err := newTestDriver(Options{}).AnalyzeProjectStrict(context.Background(), root)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.True(t, strings.HasPrefix(err.Error(), "Analysis failed for 1 files:\n"), err.Error())
	assert.Contains(t, err.Error(), filepath.Join(res.Root, "bin.go")+": ")
	assert.Equal(t, lcqerrors.ErrorTypeIO, lcqerrors.KindOf(err))

	require.NoError(t, os.Remove(filepath.Join(root, "bin.go")))
	res, err = newTestDriver(Options{}).AnalyzeProjectStrict(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, res.Results, 4)
}

func TestStrictError_Nil(t *testing.T) {
	assert.NoError(t, StrictError(nil))
}

func TestAnalyzeProject_Progress(t *testing.T) {
	root := sampleProject(t)

	var calls, lastDone, lastTotal int
	d := newTestDriver(Options{OnProgress: func(done, total int) {
		calls++
		lastDone, lastTotal = done, total
	}})
	_, err := d.AnalyzeProject(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 5, calls)
	assert.Equal(t, 5, lastDone)
	assert.Equal(t, 5, lastTotal)
}

func TestAnalyzeProject_EmptyRoot(t *testing.T) {
	res, err := newTestDriver(Options{}).AnalyzeProject(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 0, res.Metrics.TotalFiles)
}

func TestAnalyzeProject_Timeout(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "slow.py", "x = 1\n")
	writeFile(t, root, "fast.py", "y = 2\n")

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	d := newTestDriver(Options{FileTimeout: 30 * time.Millisecond})
	base := d.analyze
	d.analyze = func(ctx context.Context, path string, content []byte) (*analysis.Report, error) {
		if filepath.Base(path) != "slow.py" {
			return base(ctx, path, content)
		}
		return analysis.RunWithBudget(ctx, parser.LanguagePython, d.opts.FileTimeout, func() (*analysis.Report, error) {
			<-release
			return nil, errors.New("released")
		})
	}

	res, err := d.AnalyzeProject(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "slow.py", filepath.Base(res.Failures[0].Path))
	assert.ErrorIs(t, res.Failures[0].Err, lcqerrors.ErrTimeout)
}

func TestAnalyzeProject_Cancelled(t *testing.T) {
	root := sampleProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestDriver(Options{}).AnalyzeProject(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeProject_UsesCache(t *testing.T) {
	root := sampleProject(t)
	pc := cache.NewProjectCache(root)

	var analysed int64
	d := newTestDriver(Options{Cache: pc})
	base := d.analyze
	d.analyze = func(ctx context.Context, path string, content []byte) (*analysis.Report, error) {
		atomic.AddInt64(&analysed, 1)
		return base(ctx, path, content)
	}

	first, err := d.AnalyzeProject(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, int64(4), atomic.LoadInt64(&analysed))
	assert.Equal(t, 0, first.CachedCount())
	assert.NotNil(t, pc.Metrics, "the run summary is attached to the cache")

	second, err := d.AnalyzeProject(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, int64(4), atomic.LoadInt64(&analysed), "unchanged files are not re-analysed")
	assert.Equal(t, 4, second.CachedCount())
	assert.Equal(t, first.Metrics.TotalLinesOfCode, second.Metrics.TotalLinesOfCode)
	assert.Len(t, second.Failures, 1)

	writeFile(t, root, "src/hello.py", "def hello():\n    return 'changed world'\n")
	third, err := d.AnalyzeProject(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, int64(5), atomic.LoadInt64(&analysed))
	assert.Equal(t, 3, third.CachedCount())
}

func TestAnalyzeFiles_Relative(t *testing.T) {
	root := sampleProject(t)

	res, err := newTestDriver(Options{}).AnalyzeFiles(context.Background(), root,
		[]string{"web/app.js", "src/hello.py", "web/app.js"})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "src/hello.py", relPath(res.Root, res.Results[0].Path))
	assert.Equal(t, "web/app.js", relPath(res.Root, res.Results[1].Path))
}

func TestAnalyzeFiles_MissingFile(t *testing.T) {
	res, err := newTestDriver(Options{}).AnalyzeFiles(context.Background(), t.TempDir(), []string{"gone.py"})
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, lcqerrors.ErrorTypeIO, lcqerrors.KindOf(res.Failures[0].Err))
}

func TestResult_Compact(t *testing.T) {
	root := sampleProject(t)
	res, err := newTestDriver(Options{}).AnalyzeProject(context.Background(), root)
	require.NoError(t, err)

	c := res.Compact()
	assert.Contains(t, c.Tree, "s[hello:p,util.go]")
	assert.True(t, strings.HasPrefix(c.Metrics, "L"))
	assert.Positive(t, c.TokenEstimate)
}

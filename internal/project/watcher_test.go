package project

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReanalysesChangedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.py", "x = 1\n")

	batches := make(chan *Result, 4)
	w, err := NewWatcher(newTestDriver(Options{}), root, 20*time.Millisecond, func(res *Result, err error) {
		if err == nil {
			batches <- res
		}
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	writeFile(t, root, "src/a.py", "def f():\n    return 1\n")
	writeFile(t, root, "notes.md", "ignored\n")

	select {
	case res := <-batches:
		require.Len(t, res.Results, 1)
		assert.Equal(t, filepath.Join(w.root, "src", "a.py"), res.Results[0].Path)
		require.NotNil(t, res.Results[0].Metrics)
		assert.Equal(t, 1, res.Results[0].Metrics.FunctionCount)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch after writing a watched file")
	}
}

func TestWatcher_SkipsExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/dep/index.js", "1")
	writeFile(t, root, "src/main.go", "package main\n")

	d := newTestDriver(Options{Collect: CollectOptions{ExcludeSubstrings: []string{"node_modules"}}})
	w, err := NewWatcher(d, root, 10*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	watched := w.watcher.WatchList()
	assert.Contains(t, watched, w.root)
	assert.Contains(t, watched, filepath.Join(w.root, "src"))
	assert.NotContains(t, watched, filepath.Join(w.root, "node_modules"))
}

func TestWatcher_StopWithPendingBatch(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(newTestDriver(Options{}), root, time.Hour, func(*Result, error) {
		t.Error("batch must not run after Stop")
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())

	w.schedule(filepath.Join(w.root, "a.go"))
	assert.NoError(t, w.Stop())
}

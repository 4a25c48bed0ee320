package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lcq/internal/metrics"
	"github.com/standardbeagle/lcq/internal/types"
)

func writeSource(t *testing.T, root, rel, content string) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func TestProjectCache_SaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	full := writeSource(t, root, "src/main.rs", "fn main() {}\n")

	pc := NewProjectCache(root)
	score := types.NewQualityScore()
	require.NoError(t, pc.Record(full, []byte("fn main() {}\n"), Entry{
		Score:   score,
		Metrics: &types.ComplexityMetrics{CyclomaticComplexity: 1, FunctionCount: 1},
		Lines:   &metrics.LineCounts{Code: 1},
	}))
	pc.SetSummary(&metrics.ProjectStructure{Root: root}, &metrics.ProjectMetrics{TotalFiles: 1})

	path := filepath.Join(root, ".cache", DefaultCacheFileName)
	require.NoError(t, Save(path, pc))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, uint8(ProjectCacheVersion), loaded.Version)
	assert.Equal(t, pc.Root, loaded.Root)
	assert.Equal(t, 1, loaded.Len())
	assert.Equal(t, 1, loaded.Metrics.TotalFiles)

	fh, ok := loaded.Lookup("src/main.rs")
	require.True(t, ok)
	assert.Equal(t, "src/main.rs", fh.Path)
	assert.Equal(t, int64(13), fh.Size)
	assert.Equal(t, ContentHash([]byte("fn main() {}\n")), fh.Hash)
	require.NotNil(t, fh.Entry)
	assert.Equal(t, types.MaxTotal, fh.Entry.Score.TotalScore)
	assert.Equal(t, 1, fh.Entry.Metrics.CyclomaticComplexity)
	assert.False(t, fh.Entry.Failed())
}

func TestProjectCache_WireFieldNames(t *testing.T) {
	pc := NewProjectCache(t.TempDir())
	data, err := json.Marshal(pc)
	require.NoError(t, err)

	for _, field := range []string{`"version":3`, `"cache_timestamp"`, `"file_hashes":{}`} {
		assert.Contains(t, string(data), field)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	pc, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.NoError(t, err)
	assert.Nil(t, pc)
}

func TestLoad_CorruptFile(t *testing.T) {
	path := writeSource(t, t.TempDir(), "cache.json", "{not json")
	pc, err := Load(path)
	assert.NoError(t, err)
	assert.Nil(t, pc)
}

func TestLoad_VersionMismatch(t *testing.T) {
	stale := map[string]any{
		"version":         ProjectCacheVersion - 1,
		"root":            "/x",
		"cache_timestamp": time.Now().Unix(),
		"file_hashes":     map[string]any{},
	}
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	path := writeSource(t, t.TempDir(), "cache.json", string(data))

	pc, err := Load(path)
	assert.NoError(t, err)
	assert.Nil(t, pc)
}

func TestLoad_Expiry(t *testing.T) {
	old := map[string]any{
		"version":         ProjectCacheVersion,
		"root":            "/x",
		"cache_timestamp": time.Now().Add(-time.Hour).Unix(),
	}
	data, err := json.Marshal(old)
	require.NoError(t, err)
	path := writeSource(t, t.TempDir(), "cache.json", string(data))

	pc, err := Load(path)
	assert.NoError(t, err)
	assert.Nil(t, pc, "an hour old cache is past the default TTL")

	pc, err = LoadWithTTL(path, 0)
	require.NoError(t, err)
	require.NotNil(t, pc)
	assert.NotNil(t, pc.Files, "file map is allocated even when absent on disk")
}

func TestProjectCache_NeedsUpdate(t *testing.T) {
	root := t.TempDir()
	full := writeSource(t, root, "a.py", "x = 1\n")

	pc := NewProjectCache(root)
	assert.True(t, pc.NeedsUpdate("a.py"), "unknown files need analysis")

	require.NoError(t, pc.Record("a.py", []byte("x = 1\n"), Entry{}))
	assert.False(t, pc.NeedsUpdate("a.py"))
	assert.False(t, pc.NeedsUpdate(full), "absolute paths resolve to the same key")

	// same size, different content, mtime forced back to the recorded value
	fh, _ := pc.Lookup("a.py")
	require.NoError(t, os.WriteFile(full, []byte("x = 2\n"), 0o644))
	require.NoError(t, os.Chtimes(full, fh.ModTime, fh.ModTime))
	assert.True(t, pc.NeedsUpdate("a.py"), "hash mismatch forces an update")

	require.NoError(t, os.Remove(full))
	assert.True(t, pc.NeedsUpdate("a.py"))
}

func TestProjectCache_ChangedFiles(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "same.go", "package a\n")
	grown := writeSource(t, root, "grown.go", "package a\n")
	gone := writeSource(t, root, "gone.go", "package a\n")

	pc := NewProjectCache(root)
	for _, rel := range []string{"same.go", "grown.go", "gone.go"} {
		require.NoError(t, pc.Record(rel, []byte("package a\n"), Entry{}))
	}

	require.NoError(t, os.WriteFile(grown, []byte("package a\n\nvar x = 1\n"), 0o644))
	require.NoError(t, os.Remove(gone))

	assert.Equal(t, []string{gone, grown}, pc.ChangedFiles(""))
}

func TestProjectCache_RecordErrors(t *testing.T) {
	pc := NewProjectCache(t.TempDir())
	assert.Error(t, pc.Record("missing.rs", nil, Entry{}))
	assert.Equal(t, 0, pc.Len())
}

func TestProjectCache_FailedEntry(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "bad.rs", "fn (")

	pc := NewProjectCache(root)
	require.NoError(t, pc.Record("bad.rs", []byte("fn ("), Entry{Error: "parse failed", ErrorKind: "parse_failed"}))

	fh, ok := pc.Lookup("bad.rs")
	require.True(t, ok)
	assert.True(t, fh.Entry.Failed())
}

func TestProjectCache_PruneAndForget(t *testing.T) {
	root := t.TempDir()
	pc := NewProjectCache(root)
	for _, rel := range []string{"a.js", "b.js", "c.js"} {
		writeSource(t, root, rel, "1")
		require.NoError(t, pc.Record(rel, []byte("1"), Entry{}))
	}

	assert.Equal(t, 1, pc.Prune([]string{"a.js", filepath.Join(root, "b.js")}))
	assert.Equal(t, 2, pc.Len())

	pc.Forget("a.js")
	_, ok := pc.Lookup("a.js")
	assert.False(t, ok)
	assert.Contains(t, pc.String(), "files=1")
}

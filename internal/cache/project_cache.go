package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/lcq/internal/debug"
	lcqerrors "github.com/standardbeagle/lcq/internal/errors"
	"github.com/standardbeagle/lcq/internal/metrics"
	"github.com/standardbeagle/lcq/internal/types"
)

// Persisted cache constants
const (
	ProjectCacheVersion  = 3
	DefaultCacheFileName = ".claude_project_cache.json"
	DefaultProjectTTL    = 300 * time.Second
)

// Entry is the analysis outcome stored alongside a file's metadata
type Entry struct {
	Score     *types.QualityScore      `json:"score,omitempty"`
	Metrics   *types.ComplexityMetrics `json:"metrics,omitempty"`
	Lines     *metrics.LineCounts      `json:"lines,omitempty"`
	Error     string                   `json:"error,omitempty"`
	ErrorKind lcqerrors.ErrorType      `json:"error_kind,omitempty"`
}

// Failed reports whether the cached outcome was a failure
func (e *Entry) Failed() bool {
	return e != nil && e.Error != ""
}

// FileHash is the cached metadata for one file
type FileHash struct {
	Path    string    `json:"path"`
	ModTime time.Time `json:"modified_time"`
	Size    int64     `json:"size"`
	// Hash is the hex xxhash64 of the content; empty when not recorded
	Hash  string `json:"hash,omitempty"`
	Entry *Entry `json:"entry,omitempty"`
}

// ProjectCache is the on-disk record of a previous project run. Keys of
// Files are root-relative, slash-separated paths.
type ProjectCache struct {
	Version   uint8                     `json:"version"`
	Root      string                    `json:"root"`
	Timestamp int64                     `json:"cache_timestamp"`
	Structure *metrics.ProjectStructure `json:"structure,omitempty"`
	Metrics   *metrics.ProjectMetrics   `json:"metrics,omitempty"`
	Files     map[string]FileHash       `json:"file_hashes"`

	mu sync.RWMutex
}

// NewProjectCache returns an empty cache for root
func NewProjectCache(root string) *ProjectCache {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &ProjectCache{
		Version:   ProjectCacheVersion,
		Root:      root,
		Timestamp: time.Now().Unix(),
		Files:     make(map[string]FileHash),
	}
}

// ContentHash is the hash stored in FileHash.Hash
func ContentHash(content []byte) string {
	return strconv.FormatUint(xxhash.Sum64(content), 16)
}

// Load reads a cache file written by Save. A missing, expired, foreign
// version or undecodable file yields (nil, nil); only read failures are
// errors.
func Load(path string) (*ProjectCache, error) {
	return LoadWithTTL(path, DefaultProjectTTL)
}

// LoadWithTTL is Load with an explicit expiry. ttl <= 0 never expires.
func LoadWithTTL(path string, ttl time.Duration) (*ProjectCache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, lcqerrors.NewFileError("load cache", path, err)
	}

	var c ProjectCache
	if err := json.Unmarshal(data, &c); err != nil {
		debug.LogCache("%v\n", lcqerrors.NewCacheCorruptError(path, err))
		return nil, nil
	}

	if c.Version != ProjectCacheVersion {
		debug.LogCache("discarding cache %s: version %d, want %d\n", path, c.Version, ProjectCacheVersion)
		return nil, nil
	}
	if ttl > 0 && time.Since(time.Unix(c.Timestamp, 0)) > ttl {
		debug.LogCache("discarding expired cache %s\n", path)
		return nil, nil
	}
	if c.Files == nil {
		c.Files = make(map[string]FileHash)
	}
	return &c, nil
}

// Save stamps the cache and writes it through a temp file and rename so
// readers never see a partial file.
func Save(path string, c *ProjectCache) error {
	c.mu.Lock()
	c.Version = ProjectCacheVersion
	c.Timestamp = time.Now().Unix()
	data, err := json.MarshalIndent(c, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return lcqerrors.NewFileError("encode cache", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return lcqerrors.NewFileError("save cache", path, err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return lcqerrors.NewFileError("save cache", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return lcqerrors.NewFileError("save cache", path, err)
	}
	debug.LogCache("saved %d entries to %s\n", len(c.Files), path)
	return nil
}

// key turns an absolute or root-relative path into a map key
func (c *ProjectCache) key(path string) string {
	if filepath.IsAbs(path) {
		if rel, err := filepath.Rel(c.Root, path); err == nil {
			path = rel
		}
	}
	return filepath.ToSlash(filepath.Clean(path))
}

func (c *ProjectCache) fullPath(key string) string {
	return filepath.Join(c.Root, filepath.FromSlash(key))
}

// Lookup returns the cached record for path
func (c *ProjectCache) Lookup(path string) (FileHash, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fh, ok := c.Files[c.key(path)]
	return fh, ok
}

// Len reports the number of cached files
func (c *ProjectCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Files)
}

// NeedsUpdate reports whether path must be re-analysed. A file is up to
// date when size and mtime match and, if a hash was recorded, the current
// content hashes the same.
func (c *ProjectCache) NeedsUpdate(path string) bool {
	fh, ok := c.Lookup(path)
	if !ok {
		return true
	}

	full := c.fullPath(c.key(path))
	info, err := os.Stat(full)
	if err != nil {
		return true
	}
	if info.Size() != fh.Size || !info.ModTime().Equal(fh.ModTime) {
		return true
	}
	if fh.Hash == "" {
		return false
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return true
	}
	return ContentHash(content) != fh.Hash
}

// ChangedFiles lists cached files whose size or mtime no longer matches,
// including files that disappeared. Paths are joined onto root and sorted.
func (c *ProjectCache) ChangedFiles(root string) []string {
	if root == "" {
		root = c.Root
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var changed []string
	for key, fh := range c.Files {
		full := filepath.Join(root, filepath.FromSlash(key))
		info, err := os.Stat(full)
		if err != nil || info.Size() != fh.Size || !info.ModTime().Equal(fh.ModTime) {
			changed = append(changed, full)
		}
	}
	sort.Strings(changed)
	return changed
}

// Record stores metadata, content hash and outcome for path. content should
// be the bytes that were analysed.
func (c *ProjectCache) Record(path string, content []byte, entry Entry) error {
	key := c.key(path)
	info, err := os.Stat(c.fullPath(key))
	if err != nil {
		return lcqerrors.NewFileError("stat", path, err)
	}

	fh := FileHash{
		Path:    key,
		ModTime: info.ModTime(),
		Size:    info.Size(),
		Hash:    ContentHash(content),
		Entry:   &entry,
	}

	c.mu.Lock()
	c.Files[key] = fh
	c.mu.Unlock()
	return nil
}

// Forget drops path from the cache
func (c *ProjectCache) Forget(path string) {
	c.mu.Lock()
	delete(c.Files, c.key(path))
	c.mu.Unlock()
}

// Prune removes entries whose key is not in keep
func (c *ProjectCache) Prune(keep []string) int {
	wanted := make(map[string]bool, len(keep))
	for _, p := range keep {
		wanted[c.key(p)] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key := range c.Files {
		if !wanted[key] {
			delete(c.Files, key)
			removed++
		}
	}
	return removed
}

// SetSummary attaches the project structure and metrics of the last run
func (c *ProjectCache) SetSummary(structure *metrics.ProjectStructure, pm *metrics.ProjectMetrics) {
	c.mu.Lock()
	c.Structure = structure
	c.Metrics = pm
	c.mu.Unlock()
}

func (c *ProjectCache) String() string {
	return fmt.Sprintf("ProjectCache{root=%s files=%d version=%d}", c.Root, c.Len(), c.Version)
}

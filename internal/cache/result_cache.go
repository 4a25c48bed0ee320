package cache

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/lcq/internal/types"
)

// Result cache configuration constants
const (
	DefaultMaxResultEntries = 400
	DefaultResultTTL        = 2 * time.Hour
	DefaultCleanupInterval  = 10 * time.Minute
	EstimatedBytesPerEntry  = 322.0
)

// cachedResult is one memoised score
type cachedResult struct {
	score       *types.QualityScore
	cachedAt    int64 // Unix nano for atomic compare
	accessCount int64
}

// ResultCache memoises quality scores keyed by scope and content hash.
// Lookups are lock-free (sync.Map) and counters are atomic.
type ResultCache struct {
	entries sync.Map // map[string]*cachedResult

	maxEntries int
	ttlNanos   int64

	hits          int64
	misses        int64
	evictions     int64
	totalRequests int64
	count         int64

	createdAt   time.Time
	lastCleanup int64

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// ResultCacheConfig defines configuration options
type ResultCacheConfig struct {
	MaxEntries int
	TTL        time.Duration
	// CleanupInterval > 0 starts a background sweeper; Close stops it
	CleanupInterval time.Duration
}

// DefaultResultCacheConfig returns default configuration without a sweeper
func DefaultResultCacheConfig() ResultCacheConfig {
	return ResultCacheConfig{
		MaxEntries: DefaultMaxResultEntries,
		TTL:        DefaultResultTTL,
	}
}

// NewResultCache creates a new cache
func NewResultCache(config ResultCacheConfig) *ResultCache {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultMaxResultEntries
	}
	if config.TTL <= 0 {
		config.TTL = DefaultResultTTL
	}
	now := time.Now()
	rc := &ResultCache{
		maxEntries:  config.MaxEntries,
		ttlNanos:    config.TTL.Nanoseconds(),
		createdAt:   now,
		lastCleanup: now.UnixNano(),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		go rc.startAutoCleanup(config.CleanupInterval)
	} else {
		close(rc.done)
	}
	return rc
}

// resultKey combines the scope (language, file path) with the content hash
func resultKey(scope string, content []byte) string {
	var b strings.Builder
	b.Grow(len(scope) + 17)
	b.WriteString(scope)
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(xxhash.Sum64(content), 16))
	return b.String()
}

// Get returns a copy of the cached score for content, or nil
func (rc *ResultCache) Get(scope string, content []byte) *types.QualityScore {
	atomic.AddInt64(&rc.totalRequests, 1)
	now := time.Now().UnixNano()

	key := resultKey(scope, content)
	if val, ok := rc.entries.Load(key); ok {
		cached := val.(*cachedResult)
		if now-atomic.LoadInt64(&cached.cachedAt) <= atomic.LoadInt64(&rc.ttlNanos) {
			atomic.AddInt64(&cached.accessCount, 1)
			atomic.AddInt64(&rc.hits, 1)
			return cloneScore(cached.score)
		}
		// Expired - delete lazily
		if rc.entries.CompareAndDelete(key, val) {
			atomic.AddInt64(&rc.count, -1)
		}
	}

	atomic.AddInt64(&rc.misses, 1)
	return nil
}

// Put stores a copy of score with size limiting
func (rc *ResultCache) Put(scope string, content []byte, score *types.QualityScore) {
	if score == nil {
		return
	}
	cached := &cachedResult{
		score:       cloneScore(score),
		cachedAt:    time.Now().UnixNano(),
		accessCount: 1,
	}

	key := resultKey(scope, content)
	if _, loaded := rc.entries.Swap(key, cached); !loaded {
		if atomic.AddInt64(&rc.count, 1) > int64(rc.maxEntries) {
			rc.evictOldest()
		}
	}
}

// evictOldest removes the oldest entry
func (rc *ResultCache) evictOldest() {
	var oldestKey interface{}
	oldestTime := time.Now().UnixNano()

	rc.entries.Range(func(key, value interface{}) bool {
		cachedAt := atomic.LoadInt64(&value.(*cachedResult).cachedAt)
		if cachedAt < oldestTime {
			oldestTime = cachedAt
			oldestKey = key
		}
		return true
	})

	if oldestKey != nil {
		if _, ok := rc.entries.LoadAndDelete(oldestKey); ok {
			atomic.AddInt64(&rc.count, -1)
			atomic.AddInt64(&rc.evictions, 1)
		}
	}
}

// CleanExpired removes expired entries
func (rc *ResultCache) CleanExpired() int {
	now := time.Now().UnixNano()
	ttl := atomic.LoadInt64(&rc.ttlNanos)
	cleaned := int64(0)
	live := int64(0)

	rc.entries.Range(func(key, value interface{}) bool {
		if now-atomic.LoadInt64(&value.(*cachedResult).cachedAt) > ttl {
			rc.entries.Delete(key)
			cleaned++
		} else {
			live++
		}
		return true
	})

	atomic.StoreInt64(&rc.count, live)
	atomic.AddInt64(&rc.evictions, cleaned)
	atomic.StoreInt64(&rc.lastCleanup, now)
	return int(cleaned)
}

// startAutoCleanup runs periodic cleanup until Close
func (rc *ResultCache) startAutoCleanup(interval time.Duration) {
	defer close(rc.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rc.CleanExpired()
		case <-rc.stop:
			return
		}
	}
}

// Close stops the background sweeper, if any
func (rc *ResultCache) Close() {
	rc.stopOnce.Do(func() { close(rc.stop) })
	<-rc.done
}

// ResultCacheStats holds cache statistics
type ResultCacheStats struct {
	Hits              int64
	Misses            int64
	Evictions         int64
	TotalRequests     int64
	HitRate           float64
	Entries           int
	CreatedAt         time.Time
	LastCleanup       time.Time
	Uptime            time.Duration
	EstimatedMemoryKB float64
	Status            string
}

// Stats returns cache statistics
func (rc *ResultCache) Stats() ResultCacheStats {
	hits := atomic.LoadInt64(&rc.hits)
	total := atomic.LoadInt64(&rc.totalRequests)

	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	entries := int(atomic.LoadInt64(&rc.count))

	return ResultCacheStats{
		Hits:              hits,
		Misses:            atomic.LoadInt64(&rc.misses),
		Evictions:         atomic.LoadInt64(&rc.evictions),
		TotalRequests:     total,
		HitRate:           hitRate,
		Entries:           entries,
		CreatedAt:         rc.createdAt,
		LastCleanup:       time.Unix(0, atomic.LoadInt64(&rc.lastCleanup)),
		Uptime:            time.Since(rc.createdAt),
		EstimatedMemoryKB: float64(entries) * EstimatedBytesPerEntry / 1024,
		Status:            getHealthStatus(hitRate),
	}
}

// Clear removes all entries and resets statistics
func (rc *ResultCache) Clear() {
	rc.entries.Range(func(key, _ interface{}) bool {
		rc.entries.Delete(key)
		return true
	})

	atomic.StoreInt64(&rc.hits, 0)
	atomic.StoreInt64(&rc.misses, 0)
	atomic.StoreInt64(&rc.evictions, 0)
	atomic.StoreInt64(&rc.totalRequests, 0)
	atomic.StoreInt64(&rc.count, 0)
	atomic.StoreInt64(&rc.lastCleanup, time.Now().UnixNano())
}

// UpdateTTL updates TTL and cleans expired entries
func (rc *ResultCache) UpdateTTL(ttl time.Duration) {
	atomic.StoreInt64(&rc.ttlNanos, ttl.Nanoseconds())
	rc.CleanExpired()
}

func getHealthStatus(hitRate float64) string {
	switch {
	case hitRate >= 0.95:
		return "excellent"
	case hitRate >= 0.85:
		return "good"
	case hitRate >= 0.70:
		return "fair"
	default:
		return "poor"
	}
}

// cloneScore copies s so cached values never alias caller-owned issues
func cloneScore(s *types.QualityScore) *types.QualityScore {
	if s == nil {
		return nil
	}
	out := *s
	if s.Issues != nil {
		out.Issues = append([]types.Issue(nil), s.Issues...)
	}
	return &out
}

package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/altinukshini/bk-tui/internal/logs"
)

// LogCache keeps processed job logs in memory, keyed by job. An entry is
// reused only while the raw content it was built from is unchanged, so a
// running job's growing log is reprocessed on every refresh.
type LogCache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	maxEntries int
	now        func() time.Time
}

// CacheMeta identifies the job a cached log belongs to.
type CacheMeta struct {
	Pipeline    string
	BuildNumber int
	JobID       string
	JobName     string
}

// Key is the cache key for the job.
func (m CacheMeta) Key() string {
	return fmt.Sprintf("%s/%d/%s", m.Pipeline, m.BuildNumber, m.JobID)
}

// CacheEntry is a read-only view of one cached log.
type CacheEntry struct {
	CacheMeta
	StoredAt     time.Time
	LastAccessed time.Time
	Size         int64
	Lines        int
}

type entry struct {
	meta         CacheMeta
	raw          string
	lines        []logs.Line
	storedAt     time.Time
	lastAccessed time.Time
}

func NewLogCache(maxEntries int) *LogCache {
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &LogCache{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Lines returns the processed form of content for the job, processing it
// only when the cached copy is missing or stale.
func (lc *LogCache) Lines(meta CacheMeta, content string) []logs.Line {
	key := meta.Key()
	now := lc.now()

	lc.mu.Lock()
	if e, ok := lc.entries[key]; ok && e.raw == content {
		e.lastAccessed = now
		lines := e.lines
		lc.mu.Unlock()
		return lines
	}
	lc.mu.Unlock()

	lines := logs.ProcessContent(content)

	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.entries[key] = &entry{
		meta:         meta,
		raw:          content,
		lines:        lines,
		storedAt:     now,
		lastAccessed: now,
	}
	lc.evictLocked()
	return lines
}

// Cached returns the processed lines last stored for the job without
// touching its recency.
func (lc *LogCache) Cached(meta CacheMeta) ([]logs.Line, bool) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	e, ok := lc.entries[meta.Key()]
	if !ok {
		return nil, false
	}
	return e.lines, true
}

// ForBuild returns the cached jobs of one build, in no particular order.
func (lc *LogCache) ForBuild(pipeline string, number int) []CacheMeta {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	var metas []CacheMeta
	for _, e := range lc.entries {
		if e.meta.Pipeline == pipeline && e.meta.BuildNumber == number {
			metas = append(metas, e.meta)
		}
	}
	return metas
}

// Has reports whether a processed log for the job is cached.
func (lc *LogCache) Has(meta CacheMeta) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	_, ok := lc.entries[meta.Key()]
	return ok
}

// evictLocked drops least recently used entries over the cap.
func (lc *LogCache) evictLocked() {
	if len(lc.entries) <= lc.maxEntries {
		return
	}
	keys := make([]string, 0, len(lc.entries))
	for k := range lc.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return lc.entries[keys[i]].lastAccessed.Before(lc.entries[keys[j]].lastAccessed)
	})
	for _, k := range keys[:len(keys)-lc.maxEntries] {
		delete(lc.entries, k)
	}
}

// ListEntries returns all entries, most recently used first.
func (lc *LogCache) ListEntries() []CacheEntry {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	result := make([]CacheEntry, 0, len(lc.entries))
	for _, e := range lc.entries {
		result = append(result, CacheEntry{
			CacheMeta:    e.meta,
			StoredAt:     e.storedAt,
			LastAccessed: e.lastAccessed,
			Size:         int64(len(e.raw)),
			Lines:        len(e.lines),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastAccessed.After(result[j].LastAccessed)
	})
	return result
}

// DeleteEntry removes a single cache entry.
func (lc *LogCache) DeleteEntry(meta CacheMeta) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	delete(lc.entries, meta.Key())
}

// DeleteAll removes all cache entries.
func (lc *LogCache) DeleteAll() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.entries = make(map[string]*entry)
}

// TotalSize returns the raw bytes held by the cache.
func (lc *LogCache) TotalSize() int64 {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	var total int64
	for _, e := range lc.entries {
		total += int64(len(e.raw))
	}
	return total
}

package linkmap

import (
	"fmt"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/linkmap-analysis/pkg/model"
)

// DefaultCacheSize is the number of sources a Cache remembers.
const DefaultCacheSize = 64

// Digest returns the xxhash64 of a map file text as 16 hex digits.
func Digest(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(text))
}

type cacheEntry struct {
	digest string
	report *model.MapReport
}

// CacheStats counts cache lookups.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// Cache memoizes reports per source. An entry is only reused while the text
// of the source has the digest it was parsed from, so a changed file is
// always parsed again.
//
// Reports returned by the cache are shared and must not be modified.
type Cache struct {
	entries *lru.Cache[string, cacheEntry]
	opts    []Option
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCache creates a Cache holding up to size sources. opts apply to every
// document the cache parses.
func NewCache(size int, opts ...Option) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create report cache: %w", err)
	}

	return &Cache{entries: entries, opts: opts}, nil
}

// Report returns the report of text for source, parsing it unless the cached
// entry for source was built from the same text. The second result reports
// whether the cached entry was used.
func (c *Cache) Report(source, text string) (*model.MapReport, bool) {
	digest := Digest(text)

	if e, ok := c.entries.Get(source); ok && e.digest == digest {
		c.hits.Add(1)
		return e.report, true
	}

	c.misses.Add(1)
	report := NewDocument(text, c.opts...).Report(source)
	c.entries.Add(source, cacheEntry{digest: digest, report: report})

	return report, false
}

// Invalidate drops the entry of source.
func (c *Cache) Invalidate(source string) {
	c.entries.Remove(source)
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Stats returns the lookup counters and the current number of entries.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.entries.Len(),
	}
}

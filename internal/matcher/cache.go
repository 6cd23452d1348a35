package matcher

import (
	"regexp"
	"sync"
	"sync/atomic"
)

// Cache deduplicates regex compilation within a single run. A pattern
// string (including inline flags) compiles at most once regardless of how
// many files or workers use it; concurrent requests for the same pattern
// block on one compilation instead of compiling twice.
//
// The cache is owned by the per-invocation scan context, never global.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry

	hits     atomic.Int64
	compiles atomic.Int64
}

type cacheEntry struct {
	once sync.Once
	re   *regexp.Regexp
	err  error
}

// NewCache creates an empty compilation cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Get returns the compiled regex for pattern, compiling it on first use.
func (c *Cache) Get(pattern string) (*regexp.Regexp, error) {
	c.mu.Lock()
	e, ok := c.entries[pattern]
	if !ok {
		e = &cacheEntry{}
		c.entries[pattern] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		c.compiles.Add(1)
		e.re, e.err = regexp.Compile(pattern)
	})
	if ok {
		c.hits.Add(1)
	}
	return e.re, e.err
}

// Hits returns the number of Get calls served without compiling.
func (c *Cache) Hits() int64 { return c.hits.Load() }

// Compiles returns the number of patterns actually compiled.
func (c *Cache) Compiles() int64 { return c.compiles.Load() }

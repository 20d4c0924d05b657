package fhirpath

import (
	"container/list"
	"sync"
)

// ExpressionCache is a bounded LRU cache mapping expression source text to
// its parsed Expression, so a long-running server evaluating the same
// expressions repeatedly (search parameter extraction, invariant checking)
// pays the parse cost once. Grounded on robertoAraneda/gofhir's
// fhirpath.ExpressionCache (pkg/fhirpath/cache.go): container/list +
// sync.RWMutex, hit/miss counters, promote-on-hit.
type ExpressionCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	lru     *list.List
	limit   int

	hits   int64
	misses int64
}

type cacheEntry struct {
	key  string
	expr Expression
	elem *list.Element
}

// CacheStats is a point-in-time snapshot of an ExpressionCache's usage.
type CacheStats struct {
	Size   int
	Limit  int
	Hits   int64
	Misses int64
}

// NewExpressionCache creates a cache holding at most limit entries, evicting
// the least-recently-used expression once full. limit <= 0 means unbounded.
func NewExpressionCache(limit int) *ExpressionCache {
	return &ExpressionCache{
		entries: make(map[string]*cacheEntry),
		lru:     list.New(),
		limit:   limit,
	}
}

// Get returns the parsed Expression for src, parsing and caching it on a
// miss.
func (c *ExpressionCache) Get(src string) (Expression, error) {
	c.mu.RLock()
	if e, ok := c.entries[src]; ok {
		c.mu.RUnlock()
		c.mu.Lock()
		c.lru.MoveToFront(e.elem)
		c.hits++
		c.mu.Unlock()
		return e.expr, nil
	}
	c.mu.RUnlock()

	expr, err := Parse(src)
	if err != nil {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return Expression{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[src]; ok {
		c.lru.MoveToFront(e.elem)
		c.hits++
		return e.expr, nil
	}
	c.misses++
	if c.limit > 0 && len(c.entries) >= c.limit {
		c.evictLRU()
	}
	entry := &cacheEntry{key: src, expr: expr}
	entry.elem = c.lru.PushFront(entry)
	c.entries[src] = entry
	return expr, nil
}

// MustGet is Get, panicking on a parse error. For cache warm-up with known
// expressions.
func (c *ExpressionCache) MustGet(src string) Expression {
	expr, err := c.Get(src)
	if err != nil {
		panic(err)
	}
	return expr
}

func (c *ExpressionCache) evictLRU() {
	back := c.lru.Back()
	if back == nil {
		return
	}
	entry := back.Value.(*cacheEntry)
	c.lru.Remove(back)
	delete(c.entries, entry.key)
}

// Clear drops every cached expression, resetting hit/miss counters.
func (c *ExpressionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	c.lru = list.New()
	c.hits, c.misses = 0, 0
}

// Size reports the number of currently cached expressions.
func (c *ExpressionCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache's hit/miss counters.
func (c *ExpressionCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{Size: len(c.entries), Limit: c.limit, Hits: c.hits, Misses: c.misses}
}

// HitRate returns the cache's hit rate as a percentage in [0, 100].
func (c *ExpressionCache) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total) * 100
}

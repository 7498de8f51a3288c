// Package cache provides a thread-safe LRU cache of parsed expressions.
//
// Report definitions repeat the same formulas many times (every detail cell
// of a wide table, the same Sum in each group footer). Parsing is pure, so
// the unbound AST of a formula can be shared between expressions, between
// compilations and between goroutines. Binding is never cached: it depends
// on where the expression sits in the document.
//
// # Example
//
//	c := cache.New(1024)
//	expr, err := c.GetOrParse("Sum(Fields!Amount.Value)", parser.Parse)
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/sandrolain/gordl/pkg/types"
)

// entry is a cache entry stored in the doubly-linked list.
type entry struct {
	key  string
	expr *types.Expression
}

// Cache is a thread-safe LRU (Least Recently Used) cache for parsed
// expressions. Once the capacity is reached, the least recently accessed
// entry is evicted.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports cache effectiveness.
type Stats struct {
	Len    int
	Hits   int64
	Misses int64
}

// New creates a new LRU cache with the given capacity.
// capacity must be > 0; if <= 0, a default of 256 is used.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get retrieves a parsed expression and marks it most recently used.
func (c *Cache) Get(source string) (*types.Expression, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[source]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.ll.MoveToFront(el)
	return el.Value.(*entry).expr, true
}

// Set inserts or replaces an expression in the cache.
// If at capacity, the least recently used entry is evicted first.
func (c *Cache) Set(source string, expr *types.Expression) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[source]; ok {
		el.Value.(*entry).expr = expr
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.capacity {
		c.evictLocked()
	}

	c.items[source] = c.ll.PushFront(&entry{key: source, expr: expr})
}

// GetOrParse returns the cached expression for source, or calls parse and
// caches its result. Parse errors are not cached.
func (c *Cache) GetOrParse(source string, parse func(string) (*types.Expression, error)) (*types.Expression, error) {
	if expr, ok := c.Get(source); ok {
		return expr, nil
	}
	expr, err := parse(source)
	if err != nil {
		return nil, err
	}
	c.Set(source, expr)
	return expr, nil
}

// Len returns the number of entries currently in the cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the maximum number of entries the cache can hold.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of the hit and miss counters.
func (c *Cache) Stats() Stats {
	return Stats{Len: c.Len(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// evictLocked removes the least recently used entry.
// Must be called with c.mu held.
func (c *Cache) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}

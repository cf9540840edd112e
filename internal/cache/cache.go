// Package cache memoizes finished search results in a bounded LRU store.
package cache

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/xdearboy/bookkeeper/internal/catalog"
)

// DefaultCapacity is the number of result lists kept before eviction.
const DefaultCapacity = 50

// ResultCache maps a search key to the final, ranked book list for it.
// Entries have no TTL; the least recently used entry is evicted when full.
// It is safe for concurrent use.
type ResultCache struct {
	entries  *lru.Cache[string, []catalog.Book]
	capacity int
}

// New creates a ResultCache holding at most capacity entries.
// A non-positive capacity uses DefaultCapacity.
func New(capacity int) (*ResultCache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[string, []catalog.Book](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	return &ResultCache{entries: entries, capacity: capacity}, nil
}

// Get returns a copy of the cached list for key and marks it recently used.
func (c *ResultCache) Get(key string) ([]catalog.Book, bool) {
	books, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	slog.Debug("Cache hit", "key", key, "books", len(books))
	return slices.Clone(books), true
}

// Put stores a copy of books under key, evicting the oldest entry if needed.
func (c *ResultCache) Put(key string, books []catalog.Book) {
	if evicted := c.entries.Add(key, slices.Clone(books)); evicted {
		slog.Debug("Cache evicted least recently used entry", "capacity", c.Capacity())
	}
}

// EvictAll removes every entry.
func (c *ResultCache) EvictAll() {
	n := c.entries.Len()
	c.entries.Purge()
	if n > 0 {
		slog.Debug("Cache cleared", "entries", n)
	}
}

// Len returns the number of cached entries.
func (c *ResultCache) Len() int {
	return c.entries.Len()
}

// Capacity returns the maximum number of entries.
func (c *ResultCache) Capacity() int {
	return c.capacity
}

// SearchKey builds the key for a full search: "<query>_<maxResults>".
func SearchKey(normalizedQuery string, maxResults int) string {
	return normalizedQuery + "_" + strconv.Itoa(maxResults)
}

// PageKey builds the key for a paginated search: "<query>_page_<page>".
func PageKey(normalizedQuery string, page int) string {
	return normalizedQuery + "_page_" + strconv.Itoa(page)
}

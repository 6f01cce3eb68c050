package history

import (
	"github.com/patrickmn/go-cache"
)

// Cache remembers capture outcomes per pane target for one run, so several
// processes in the same pane cost a single capture. Failures are cached too.
type Cache struct {
	c *cache.Cache
}

// Result is one cached capture outcome.
type Result struct {
	Bytes uint64
	Err   error
}

// NewCache creates an empty cache. Entries never expire; the cache lives
// only as long as one report.
func NewCache() *Cache {
	return &Cache{c: cache.New(cache.NoExpiration, 0)}
}

// Lookup returns the cached outcome for target.
func (c *Cache) Lookup(target string) (Result, bool) {
	v, ok := c.c.Get(target)
	if !ok {
		return Result{}, false
	}
	return v.(Result), true
}

// Store records the outcome of a capture.
func (c *Cache) Store(target string, bytes uint64, err error) {
	c.c.Set(target, Result{Bytes: bytes, Err: err}, cache.NoExpiration)
}

// Len returns the number of cached targets.
func (c *Cache) Len() int {
	return c.c.ItemCount()
}

package query

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// Cache stores query results by key. Implementations must be safe for
// concurrent use. Cached values are shared, so callers must not modify
// what they get back from a Facade.
type Cache interface {
	Get(key string) (interface{}, bool)
	Add(key string, val interface{})
}

// NopCache never stores anything.
type NopCache struct{}

// Get always misses.
func (NopCache) Get(key string) (interface{}, bool) { return nil, false }

// Add does nothing.
func (NopCache) Add(key string, val interface{}) {}

// LRUCache is a Cache evicting the least recently used result once it holds
// size results.
type LRUCache struct {
	c *lru.Cache[string, interface{}]
}

// NewLRUCache returns an LRUCache holding up to size results.
func NewLRUCache(size int) (*LRUCache, error) {
	c, err := lru.New[string, interface{}](size)
	if err != nil {
		return nil, errors.Wrap(err, "creating lru cache")
	}
	return &LRUCache{c: c}, nil
}

// Get implements Cache.
func (l *LRUCache) Get(key string) (interface{}, bool) { return l.c.Get(key) }

// Add implements Cache.
func (l *LRUCache) Add(key string, val interface{}) { l.c.Add(key, val) }

// Len returns the number of cached results.
func (l *LRUCache) Len() int { return l.c.Len() }

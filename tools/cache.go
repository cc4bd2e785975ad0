package tools

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of distinct tool sets whose schemas are kept.
const DefaultCacheSize = 10

// Cache memoizes derived schemas by set fingerprint, evicting the least
// recently used entry beyond its capacity.
type Cache struct {
	entries *lru.Cache[string, []Schema]
}

// NewCache returns a cache holding up to size sets; size <= 0 uses DefaultCacheSize.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, []Schema](size)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &Cache{entries: entries}
}

// Schemas returns the schemas for set, deriving them on a miss.
// The returned slice is shared between callers and must not be modified.
func (c *Cache) Schemas(set *Set) []Schema {
	key := set.Fingerprint()
	if schemas, ok := c.entries.Get(key); ok {
		return schemas
	}
	schemas := DeriveSchemas(set.Definitions())
	c.entries.Add(key, schemas)
	return schemas
}

// Contains reports whether schemas for set are cached, without touching recency.
func (c *Cache) Contains(set *Set) bool {
	return c.entries.Contains(set.Fingerprint())
}

// Len returns the number of cached sets.
func (c *Cache) Len() int { return c.entries.Len() }

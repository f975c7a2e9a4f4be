// Package assetcache is an explicit, injectable cache for bytes derived from
// bundle files, keyed by a content or identity fingerprint. It replaces
// ambient per-type caches: each consumer owns its Cache, bounds it by a byte
// budget and clears it when it is done.
//
// Entries are evicted least-recently-used first once the budget is exceeded.
// Concurrent Load calls for the same fingerprint share one fill.
package assetcache

import (
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/golang/groupcache/singleflight"
	digest "github.com/opencontainers/go-digest"

	"github.com/joshuapare/bundlekit/internal/metrics"
)

// Fingerprint identifies a cached item.
type Fingerprint = digest.Digest

// ContentFingerprint fingerprints data by its content.
func ContentFingerprint(data []byte) Fingerprint {
	return digest.FromBytes(data)
}

// KeyFingerprint fingerprints an identity made of parts, such as a bundle
// path and an entry path.
func KeyFingerprint(parts ...string) Fingerprint {
	return digest.FromString(strings.Join(parts, "\x00"))
}

// Cache is a byte-budgeted LRU of owned buffers. It is safe for concurrent
// use. Returned slices are shared with the cache and must not be modified.
type Cache struct {
	mu     sync.Mutex
	lru    *lru.Cache
	size   int64
	budget int64

	fills singleflight.Group
}

// New returns a cache holding at most budget bytes. A budget of 0 disables
// storage; Load still de-duplicates concurrent fills.
func New(budget int64) *Cache {
	c := &Cache{lru: lru.New(0), budget: budget}
	c.lru.OnEvicted = func(_ lru.Key, v interface{}) {
		c.size -= int64(len(v.([]byte)))
	}
	return c
}

// Get returns the cached bytes for fp.
func (c *Cache) Get(fp Fingerprint) ([]byte, bool) {
	c.mu.Lock()
	v, ok := c.lru.Get(fp)
	c.mu.Unlock()
	if !ok {
		metrics.AssetCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.AssetCacheLookups.WithLabelValues("hit").Inc()
	return v.([]byte), true
}

// Put stores data under fp, taking ownership of it, and evicts older entries
// until the cache fits its budget. Items larger than the whole budget are
// not stored; Put reports whether data was kept.
func (c *Cache) Put(fp Fingerprint, data []byte) bool {
	n := int64(len(data))
	if n > c.budget || c.budget == 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(fp)
	for c.size+n > c.budget && c.lru.Len() > 0 {
		c.lru.RemoveOldest()
		metrics.AssetCacheEvictions.Inc()
	}
	c.lru.Add(fp, data)
	c.size += n
	return true
}

// Evict drops fp and reports whether it was present.
func (c *Cache) Evict(fp Fingerprint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lru.Get(fp); !ok {
		return false
	}
	c.lru.Remove(fp)
	return true
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.lru.Clear()
	c.size = 0
	c.mu.Unlock()
}

// Len is the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Size is the number of cached bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Budget is the configured byte budget.
func (c *Cache) Budget() int64 { return c.budget }

// Load returns the cached bytes for fp, calling fill on a miss and caching
// its result. Concurrent loads of one fingerprint run fill once.
func (c *Cache) Load(fp Fingerprint, fill func() ([]byte, error)) ([]byte, error) {
	if data, ok := c.Get(fp); ok {
		return data, nil
	}
	v, err := c.fills.Do(string(fp), func() (interface{}, error) {
		if data, ok := c.Get(fp); ok {
			return data, nil
		}
		data, err := fill()
		if err != nil {
			return nil, err
		}
		c.Put(fp, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

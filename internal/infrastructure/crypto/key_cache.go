// Package crypto implements signing-key caching and resolution for the
// tidecat auth core: the TTL+LRU key cache, the OIDC key resolver, and the
// internal self-signed security context.
package crypto

import (
	"container/list"
	"crypto/rsa"
	"sync"
	"time"

	"github.com/tidecat/tidecat/pkg/errors"
)

// CachedKey is verified public-key material held by the key cache. Entries
// are never mutated after insertion; a refresh replaces the entry.
type CachedKey struct {
	KeyID     string
	Key       *rsa.PublicKey
	Algorithm string
	CachedAt  time.Time
	ExpiresAt time.Time
}

func (k *CachedKey) expired(now time.Time) bool {
	return !now.Before(k.ExpiresAt)
}

// KeyCacheStats is a diagnostic snapshot of the cache.
type KeyCacheStats struct {
	Size         int
	TTLSeconds   int64
	MaxKeys      int
	ExpiredCount int
	ActiveCount  int
}

// KeyCache is a thread-safe, TTL-expiring, capacity-bounded store of verified
// signing keys, with least-recently-accessed eviction. Both Get and Put count
// as access. Expired entries are removed opportunistically on read and before
// every insert; there is no background sweep.
type KeyCache struct {
	mu      sync.RWMutex
	entries map[string]*list.Element
	order   *list.List // front = most recently accessed
	ttl     time.Duration
	maxKeys int
	onEvict func(keyID string)
	now     func() time.Time
}

type cacheEntry struct {
	keyID string
	key   *CachedKey
}

// NewKeyCache creates a key cache with the given TTL and capacity. Both must
// be positive.
func NewKeyCache(ttl time.Duration, maxKeys int) *KeyCache {
	if ttl <= 0 {
		panic("key cache TTL must be positive")
	}
	if maxKeys <= 0 {
		panic("key cache capacity must be positive")
	}
	return &KeyCache{
		entries: make(map[string]*list.Element, maxKeys),
		order:   list.New(),
		ttl:     ttl,
		maxKeys: maxKeys,
		now:     time.Now,
	}
}

// SetEvictionHook installs a callback invoked for every LRU eviction. Must be
// called during wiring, before the cache is shared.
func (c *KeyCache) SetEvictionHook(fn func(keyID string)) {
	c.onEvict = fn
}

// Get returns the cached key for keyId, or nil if absent or expired. An
// expired hit is removed as a side effect. A live hit is promoted to most
// recently accessed.
func (c *KeyCache) Get(keyID string) *CachedKey {
	if keyID == "" {
		return nil
	}

	c.mu.RLock()
	elem, ok := c.entries[keyID]
	if !ok {
		c.mu.RUnlock()
		return nil
	}
	key := elem.Value.(*cacheEntry).key
	expired := key.expired(c.now())
	c.mu.RUnlock()

	// Both the expiry removal and the LRU promotion mutate; re-check under
	// the write lock since the entry may have changed in between.
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok = c.entries[keyID]
	if !ok {
		return nil
	}
	key = elem.Value.(*cacheEntry).key
	if expired || key.expired(c.now()) {
		c.removeLocked(elem)
		return nil
	}
	c.order.MoveToFront(elem)
	return key
}

// Put inserts or replaces the key under keyId, stamping it with the cache
// TTL. Expired entries are purged first; if the insert exceeds capacity the
// least-recently-accessed entries are evicted.
func (c *KeyCache) Put(keyID string, key *rsa.PublicKey, algorithm string) error {
	if keyID == "" {
		return errors.InvalidRequest("key id cannot be empty")
	}
	if key == nil {
		return errors.InvalidRequest("key cannot be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.purgeExpiredLocked(now)

	cached := &CachedKey{
		KeyID:     keyID,
		Key:       key,
		Algorithm: algorithm,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}

	if elem, ok := c.entries[keyID]; ok {
		elem.Value.(*cacheEntry).key = cached
		c.order.MoveToFront(elem)
		return nil
	}

	c.entries[keyID] = c.order.PushFront(&cacheEntry{keyID: keyID, key: cached})

	for len(c.entries) > c.maxKeys {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		evicted := oldest.Value.(*cacheEntry).keyID
		c.removeLocked(oldest)
		if c.onEvict != nil {
			c.onEvict(evicted)
		}
	}

	return nil
}

// Remove deletes the entry for keyId, reporting whether it was present.
func (c *KeyCache) Remove(keyID string) bool {
	if keyID == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[keyID]
	if !ok {
		return false
	}
	c.removeLocked(elem)
	return true
}

// Clear drops all entries.
func (c *KeyCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element, c.maxKeys)
	c.order.Init()
}

// Size returns the number of entries, including not-yet-purged expired ones.
func (c *KeyCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a diagnostic snapshot.
func (c *KeyCache) Stats() KeyCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	expired := 0
	for _, elem := range c.entries {
		if elem.Value.(*cacheEntry).key.expired(now) {
			expired++
		}
	}

	return KeyCacheStats{
		Size:         len(c.entries),
		TTLSeconds:   int64(c.ttl / time.Second),
		MaxKeys:      c.maxKeys,
		ExpiredCount: expired,
		ActiveCount:  len(c.entries) - expired,
	}
}

func (c *KeyCache) removeLocked(elem *list.Element) {
	delete(c.entries, elem.Value.(*cacheEntry).keyID)
	c.order.Remove(elem)
}

func (c *KeyCache) purgeExpiredLocked(now time.Time) {
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if elem.Value.(*cacheEntry).key.expired(now) {
			c.removeLocked(elem)
		}
		elem = next
	}
}

package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ValidationCache memoizes successful validation results keyed by a hash of
// the token. Entries never outlive the token itself: the TTL is capped at
// the remaining token lifetime. Failed validations are not cached.
type ValidationCache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]*cacheEntry
	sfGroup singleflight.Group // collapses concurrent misses for one token
	now     func() time.Time
}

type cacheEntry struct {
	claims    *TrustClaims
	expiresAt time.Time
}

// NewValidationCache creates a cache whose entries live for at most ttl.
// Default: 1 minute.
func NewValidationCache(ttl time.Duration) *ValidationCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ValidationCache{
		ttl:     ttl,
		entries: make(map[string]*cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached claims for a token, or (nil, false) on miss or
// expiry. Expired entries are evicted lazily.
func (c *ValidationCache) Get(token string) (*TrustClaims, bool) {
	key := cacheKey(token)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.claims, true
}

// Do runs validate for the token, collapsing concurrent calls for the same
// token into one execution, and caches a successful result.
func (c *ValidationCache) Do(token string, validate func() (*TrustClaims, error)) (*TrustClaims, error) {
	key := cacheKey(token)

	result, err, _ := c.sfGroup.Do(key, func() (any, error) {
		claims, err := validate()
		if err != nil {
			return nil, err
		}
		c.store(key, claims)
		return claims, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*TrustClaims), nil
}

func (c *ValidationCache) store(key string, claims *TrustClaims) {
	expiry := c.now().Add(c.ttl)
	if tokenExpiry := time.Unix(claims.ExpiresAt, 0); tokenExpiry.Before(expiry) {
		expiry = tokenExpiry
	}

	c.mu.Lock()
	c.entries[key] = &cacheEntry{claims: claims, expiresAt: expiry}
	c.mu.Unlock()
}

// Purge removes all cached entries.
func (c *ValidationCache) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// cacheKey hashes the token so the cache never holds raw token material as a
// map key.
func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

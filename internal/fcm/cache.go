package fcm

import (
	"sync"
	"time"
)

// ExpiryMargin is subtracted from a cached token's expiry before reuse.
const ExpiryMargin = 60 * time.Second

// TokenCache is a single-entry store for the current access token.
// Get returns the token only while expiry minus ExpiryMargin is after now.
type TokenCache interface {
	Get(now time.Time) (string, bool)
	Set(token string, expiry time.Time)
}

// MemoryCache is the in-process TokenCache.
//
// The mutex only protects the cell. Callers racing past an expired entry
// each perform their own exchange and the last Set wins; any valid token
// is as good as another, so misses are not coalesced.
type MemoryCache struct {
	mu     sync.RWMutex
	token  string
	expiry int64 // unix seconds
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(now time.Time) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" {
		return "", false
	}
	if c.expiry-int64(ExpiryMargin/time.Second) > now.Unix() {
		return c.token, true
	}
	return "", false
}

func (c *MemoryCache) Set(token string, expiry time.Time) {
	c.mu.Lock()
	c.token = token
	c.expiry = expiry.Unix()
	c.mu.Unlock()
}

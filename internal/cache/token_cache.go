package cache

import (
	"time"

	"github.com/datamon/datamon-api/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
)

const tokenCacheName = "webhook_tokens"

// TokenCache keeps recently resolved token→project mappings in memory so the
// hot ingestion path skips one store round trip. Entries are short-lived and
// purged on webhook deletion; a deleted token can therefore keep working for
// at most the TTL on other instances, which matches the store's own
// last-writer-wins semantics.
type TokenCache struct {
	cache *gocache.Cache
}

// NewTokenCache creates a token cache with the given TTL in seconds
func NewTokenCache(ttlSeconds int) *TokenCache {
	ttl := time.Duration(ttlSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &TokenCache{
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Get returns the cached project id for a token
func (c *TokenCache) Get(token string) (string, bool) {
	value, found := c.cache.Get(token)
	if !found {
		metrics.CacheMisses.WithLabelValues(tokenCacheName).Inc()
		return "", false
	}

	metrics.CacheHits.WithLabelValues(tokenCacheName).Inc()
	projectID, ok := value.(string)
	return projectID, ok
}

// Put stores a resolved token→project mapping
func (c *TokenCache) Put(token, projectID string) {
	c.cache.SetDefault(token, projectID)
}

// Invalidate drops a token, called when the webhook is deleted
func (c *TokenCache) Invalidate(token string) {
	c.cache.Delete(token)
}

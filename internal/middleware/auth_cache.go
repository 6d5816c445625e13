package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	tenantCacheTTL   = 5 * time.Minute
	negativeCacheTTL = 30 * time.Second
	maxCacheEntries  = 10000
)

// errCachedNotFound is returned for negative cache hits.
var errCachedNotFound = errors.New("tenant not found (cached)")

// hashKey returns a hex-encoded SHA-256 hash of the API key so raw keys
// are never stored in memory.
func hashKey(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(h[:])
}

// CachedTenantLookup wraps a TenantLookup with bounded in-memory caches.
// Failed lookups are cached separately with a shorter TTL.
type CachedTenantLookup struct {
	inner    TenantLookup
	hits     *expirable.LRU[string, string]
	failures *expirable.LRU[string, struct{}]
}

// NewCachedTenantLookup creates a caching wrapper around the given TenantLookup.
func NewCachedTenantLookup(inner TenantLookup) *CachedTenantLookup {
	return &CachedTenantLookup{
		inner:    inner,
		hits:     expirable.NewLRU[string, string](maxCacheEntries, nil, tenantCacheTTL),
		failures: expirable.NewLRU[string, struct{}](maxCacheEntries, nil, negativeCacheTTL),
	}
}

// GetTenantByAPIKey returns a cached tenant ID or delegates to the inner lookup.
// Failed lookups are negatively cached for 30s to prevent brute-force DB hammering.
func (c *CachedTenantLookup) GetTenantByAPIKey(ctx context.Context, apiKey string) (string, error) {
	hk := hashKey(apiKey)

	if tenantID, ok := c.hits.Get(hk); ok {
		return tenantID, nil
	}

	if c.failures.Contains(hk) {
		return "", errCachedNotFound
	}

	tenantID, err := c.inner.GetTenantByAPIKey(ctx, apiKey)
	if err != nil {
		c.failures.Add(hk, struct{}{})
		return "", err
	}

	c.hits.Add(hk, tenantID)

	return tenantID, nil
}

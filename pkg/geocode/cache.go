package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"go.uber.org/zap"
)

// Cache persists geocoding results by address key.
type Cache interface {
	// GetGeocode returns the cached result for key, or nil when absent or
	// expired.
	GetGeocode(ctx context.Context, key string) (*Result, error)
	// PutGeocode stores result under key, replacing any previous entry.
	PutGeocode(ctx context.Context, key, query string, result Result) error
}

// CacheKey returns the SHA-256 hex of the normalized query: lowercased,
// trimmed, internal whitespace collapsed.
func CacheKey(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:])
}

// Cached serves results from a Cache before falling back to the wrapped
// client. Cache failures are logged and never fail a lookup.
type Cached struct {
	next        Client
	cache       Cache
	cacheMisses bool
}

// CachedOption configures Cached.
type CachedOption func(*Cached)

// WithNegativeCaching also stores unmatched results, so known-bad addresses
// are not sent upstream again until the entry expires.
func WithNegativeCaching(enabled bool) CachedOption {
	return func(c *Cached) {
		c.cacheMisses = enabled
	}
}

// NewCached wraps next with cache.
func NewCached(next Client, cache Cache, opts ...CachedOption) *Cached {
	c := &Cached{next: next, cache: cache}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Geocode implements Client.
func (c *Cached) Geocode(ctx context.Context, query string) (*Result, error) {
	key := CacheKey(query)

	cached, err := c.cache.GetGeocode(ctx, key)
	if err != nil {
		zap.L().Warn("geocode cache: lookup failed", zap.String("key", key[:12]), zap.Error(err))
	}
	if cached != nil && (cached.Matched || c.cacheMisses) {
		zap.L().Debug("geocode cache hit", zap.String("key", key[:12]), zap.Bool("matched", cached.Matched))
		cached.Cached = true
		return cached, nil
	}

	result, err := c.next.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}
	if result.Matched || c.cacheMisses {
		if err := c.cache.PutGeocode(ctx, key, query, *result); err != nil {
			zap.L().Warn("geocode cache: store failed", zap.String("key", key[:12]), zap.Error(err))
		}
	}
	return result, nil
}

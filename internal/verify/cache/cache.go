// Package cache provides the content-addressed store of completed
// verification results. Keys are hashes of (source, normalized identifier) so
// raw identifiers never appear in storage keys or logs. Concurrent lookups
// for the same key share one in-flight provider call.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"driveid/internal/verify/models"
	"driveid/pkg/platform/sentinel"
)

// Key derives the cache key for a source and an already-normalized
// identifier.
func Key(source, normalizedID string) string {
	sum := sha256.Sum256([]byte(source + ":" + normalizedID))
	return "verify:" + source + ":" + hex.EncodeToString(sum[:])
}

// Store is the persistence interface behind the cache. Implementations
// return sentinel.ErrNotFound for missing or expired entries.
type Store interface {
	Find(ctx context.Context, key string) (*models.SourceResult, error)
	Save(ctx context.Context, key string, result *models.SourceResult, ttl time.Duration) error
}

// FetchFunc performs the underlying (expensive) verification call.
type FetchFunc func(ctx context.Context) (*models.SourceResult, error)

// Cache fronts a Store with single-flight de-duplication. A nil *Cache or a
// Cache with caching disabled degrades to calling the fetch function with
// de-duplication only.
type Cache struct {
	store   Store
	enabled bool
	group   singleflight.Group
}

// New builds a Cache. A nil store disables persistence but keeps in-flight
// de-duplication.
func New(store Store, enabled bool) *Cache {
	return &Cache{store: store, enabled: enabled && store != nil}
}

// GetOrFetch returns the cached result for key when present, otherwise runs
// fetch (once per key across concurrent callers) and caches the outcome when
// it succeeded. Cached hits are returned as frozen snapshots with FromCache
// set; they are never re-validated or re-scored.
func (c *Cache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) (*models.SourceResult, error) {
	if c == nil {
		return fetch(ctx)
	}

	if c.enabled {
		cached, err := c.store.Find(ctx, key)
		switch {
		case err == nil:
			hit := *cached
			hit.FromCache = true
			return &hit, nil
		case !errors.Is(err, sentinel.ErrNotFound):
			// A broken cache must not block verification.
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		result, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if c.enabled && result.Succeeded {
			_ = c.store.Save(ctx, key, result, ttl)
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.SourceResult), nil
}

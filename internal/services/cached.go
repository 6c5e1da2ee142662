package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/opsdesk/opsdesk-api/internal/cache"
)

// fetchCached is the read-through path every list query goes through: try
// the cache, fall back to the repository, store the result registered under
// the entity kinds the query read. Cache failures degrade to a plain fetch.
func fetchCached[T any](ctx context.Context, c cache.Cache, businessID uint64, key string, reads []cache.Entity, fetch func() (T, error)) (T, error) {
	if c != nil {
		var cached T
		hit, err := c.GetJSON(ctx, key, &cached)
		if err != nil {
			log.WithError(err).WithField("key", key).Warn("cache read failed")
		} else if hit {
			return cached, nil
		}
	}

	value, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}

	if c != nil {
		if err := c.SetJSON(ctx, businessID, key, value, reads...); err != nil {
			log.WithError(err).WithField("key", key).Warn("cache write failed")
		}
	}
	return value, nil
}

// invalidate declares the entity kinds a mutation wrote. The cache drops
// every registered query over them; a failure only risks staleness, never
// correctness, so it is logged and swallowed.
func invalidate(ctx context.Context, c cache.Cache, businessID uint64, wrote ...cache.Entity) {
	if c == nil {
		return
	}
	if err := c.Invalidate(ctx, businessID, wrote...); err != nil {
		log.WithError(err).WithField("business_id", businessID).Warn("cache invalidation failed")
	}
}

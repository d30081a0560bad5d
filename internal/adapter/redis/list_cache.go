package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/sportz/internal/adapter/metrics"
	"github.com/pscheid92/sportz/internal/domain"
)

const (
	keyPrefix = "sportz:"

	scopeMatches    = "matches"
	scopeCommentary = "commentary"

	// generationTTL outlives every entry, so an expired generation can never
	// expose entries written under its old value.
	generationTTL = 24 * time.Hour
)

// ListCache caches list responses in Redis. Each scope has a generation
// counter; entries are keyed by generation, so invalidation is a single INCR
// and superseded entries simply age out.
type ListCache struct {
	rdb     goredis.Cmdable
	ttl     time.Duration
	metrics *metrics.CacheMetrics
}

var _ domain.ListCache = (*ListCache)(nil)

func NewListCache(rdb goredis.Cmdable, ttl time.Duration, m *metrics.CacheMetrics) *ListCache {
	return &ListCache{rdb: rdb, ttl: ttl, metrics: m}
}

func (c *ListCache) GetMatches(ctx context.Context, limit int) ([]domain.Match, domain.CacheVersion, bool) {
	return lookup[domain.Match](ctx, c, scopeMatches, matchesScopeKey(), limit)
}

func (c *ListCache) SetMatches(ctx context.Context, limit int, version domain.CacheVersion, matches []domain.Match) {
	store(ctx, c, matchesScopeKey(), limit, version, matches)
}

func (c *ListCache) InvalidateMatches(ctx context.Context) {
	c.invalidate(ctx, scopeMatches, matchesScopeKey())
}

func (c *ListCache) GetCommentary(ctx context.Context, matchID int64, limit int) ([]domain.Commentary, domain.CacheVersion, bool) {
	return lookup[domain.Commentary](ctx, c, scopeCommentary, commentaryScopeKey(matchID), limit)
}

func (c *ListCache) SetCommentary(ctx context.Context, matchID int64, limit int, version domain.CacheVersion, entries []domain.Commentary) {
	store(ctx, c, commentaryScopeKey(matchID), limit, version, entries)
}

func (c *ListCache) InvalidateCommentary(ctx context.Context, matchID int64) {
	c.invalidate(ctx, scopeCommentary, commentaryScopeKey(matchID))
}

func (c *ListCache) generation(ctx context.Context, scopeKey string) (domain.CacheVersion, error) {
	gen, err := c.rdb.Get(ctx, generationKey(scopeKey)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return domain.NoCacheVersion, err
	}
	return domain.CacheVersion(gen), nil
}

func (c *ListCache) invalidate(ctx context.Context, scope, scopeKey string) {
	key := generationKey(scopeKey)
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, generationTTL)
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "Failed to invalidate list cache", "scope", scopeKey, "error", err)
		return
	}
	c.metrics.Invalidations.WithLabelValues(scope).Inc()
}

func lookup[T any](ctx context.Context, c *ListCache, scope, scopeKey string, limit int) ([]T, domain.CacheVersion, bool) {
	version, err := c.generation(ctx, scopeKey)
	if err != nil {
		slog.WarnContext(ctx, "List cache generation read failed", "scope", scopeKey, "error", err)
		c.metrics.Misses.WithLabelValues(scope).Inc()
		return nil, domain.NoCacheVersion, false
	}

	data, err := c.rdb.Get(ctx, entryKey(scopeKey, version, limit)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.WarnContext(ctx, "List cache GET failed", "scope", scopeKey, "error", err)
		}
		c.metrics.Misses.WithLabelValues(scope).Inc()
		return nil, version, false
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		slog.WarnContext(ctx, "Failed to unmarshal cached list", "scope", scopeKey, "error", err)
		c.metrics.Misses.WithLabelValues(scope).Inc()
		return nil, version, false
	}

	c.metrics.Hits.WithLabelValues(scope).Inc()
	return items, version, true
}

func store[T any](ctx context.Context, c *ListCache, scopeKey string, limit int, version domain.CacheVersion, items []T) {
	if version == domain.NoCacheVersion {
		return
	}
	if items == nil {
		items = []T{}
	}

	encoded, err := json.Marshal(items)
	if err != nil {
		slog.WarnContext(ctx, "Failed to marshal list for cache", "scope", scopeKey, "error", err)
		return
	}

	if err := c.rdb.Set(ctx, entryKey(scopeKey, version, limit), encoded, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Failed to populate list cache", "scope", scopeKey, "error", err)
	}
}

func matchesScopeKey() string {
	return keyPrefix + scopeMatches
}

func commentaryScopeKey(matchID int64) string {
	return keyPrefix + scopeCommentary + ":" + strconv.FormatInt(matchID, 10)
}

func generationKey(scopeKey string) string {
	return scopeKey + ":gen"
}

func entryKey(scopeKey string, version domain.CacheVersion, limit int) string {
	return fmt.Sprintf("%s:g%d:l%d", scopeKey, version, limit)
}

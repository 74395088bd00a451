// Package cache provides the forecast result cache and Redis decorators for
// repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"forecast_backend/internal/feature/candles/domain/entity"
	"forecast_backend/internal/feature/candles/usecase"
)

// TTLFunc returns the expiry for an entry written now.
type TTLFunc func() time.Duration

// FixedTTL returns a TTLFunc that always yields d.
func FixedTTL(d time.Duration) TTLFunc {
	return func() time.Duration { return d }
}

// UntilDailyClose expires entries at the next 00:00 UTC, when new daily
// candles are ingested.
func UntilDailyClose() time.Duration {
	return TimeUntilNextDailyClose(time.Now())
}

// CachingCandleRepository decorates a CandleRepository with Redis caching.
// Concurrent misses for one key share a single database read.
type CachingCandleRepository struct {
	inner     usecase.CandleRepository
	rdb       *redis.Client
	ttl       TTLFunc
	namespace string
	group     singleflight.Group
}

var _ usecase.CandleRepository = (*CachingCandleRepository)(nil)

// NewCachingCandleRepository decorates inner with Redis caching.
// A nil ttl defaults to 5 minutes and an empty namespace to "candles".
func NewCachingCandleRepository(rdb *redis.Client, ttl TTLFunc, inner usecase.CandleRepository, namespace string) *CachingCandleRepository {
	if ttl == nil {
		ttl = FixedTTL(5 * time.Minute)
	}
	if namespace == "" {
		namespace = "candles"
	}
	return &CachingCandleRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// UpsertBatch writes through to the inner repository and then drops every
// cached query of the affected symbol/interval pairs.
func (c *CachingCandleRepository) UpsertBatch(ctx context.Context, candles []entity.Candle) error {
	if err := c.inner.UpsertBatch(ctx, candles); err != nil {
		return err
	}
	if c.rdb == nil || len(candles) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	for _, cd := range candles {
		prefix := c.cacheKeyPrefix(cd.Symbol, cd.Interval)
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		// best effort
		_ = c.deleteByPattern(ctx, prefix+"*")
	}
	return nil
}

// Find returns cached candles or reads them from the inner repository.
func (c *CachingCandleRepository) Find(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error) {
	if c.rdb == nil {
		return c.inner.Find(ctx, symbol, interval, outputsize)
	}

	key := c.cacheKey(symbol, interval, outputsize)
	if out, ok := c.read(ctx, key); ok {
		return out, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		out, err := c.inner.Find(ctx, symbol, interval, outputsize)
		if err != nil {
			return nil, err
		}
		if ttl := c.ttl(); ttl > 0 {
			if b, err := json.Marshal(out); err == nil {
				_ = c.rdb.Set(ctx, key, b, ttl).Err()
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]entity.Candle), nil
}

func (c *CachingCandleRepository) read(ctx context.Context, key string) ([]entity.Candle, bool) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil || len(b) == 0 {
		return nil, false
	}
	var out []entity.Candle
	if err := json.Unmarshal(b, &out); err != nil {
		_ = c.rdb.Del(ctx, key).Err()
		return nil, false
	}
	return out, true
}

func (c *CachingCandleRepository) cacheKey(symbol, interval string, outputsize int) string {
	return fmt.Sprintf("%s%d", c.cacheKeyPrefix(symbol, interval), outputsize)
}

func (c *CachingCandleRepository) cacheKeyPrefix(symbol, interval string) string {
	return fmt.Sprintf("%s:%s:%s:", c.namespace, safe(symbol), safe(interval))
}

// deleteByPattern removes every key matching pattern using SCAN.
func (c *CachingCandleRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			return nil
		}
	}
}

// safe replaces characters that would break the key layout.
func safe(s string) string {
	return strings.NewReplacer(" ", "_", ":", "_").Replace(s)
}

package cache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"forecast_backend/internal/feature/forecast/domain/entity"
)

// Clock supplies the current time to the cache.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// CacheEntry is one stored forecast. Entries are replaced, never mutated.
type CacheEntry struct {
	Key       string
	Result    entity.ForecastResult
	CreatedAt time.Time
}

// ResultStore persists cache entries.
type ResultStore interface {
	// Load returns the entry under key. ok is false when nothing is stored.
	Load(ctx context.Context, key string) (entry CacheEntry, ok bool, err error)
	// Save replaces the entry under entry.Key.
	Save(ctx context.Context, entry CacheEntry, ttl time.Duration) error
}

// HitRecorder observes cache lookups.
type HitRecorder interface {
	ObserveCacheLookup(hit bool)
}

// ResultCache returns the last computed forecast for a key while it is
// younger than the TTL and recomputes it otherwise.
type ResultCache struct {
	store        ResultStore
	ttl          time.Duration
	clock        Clock
	singleFlight bool
	group        singleflight.Group
	recorder     HitRecorder
}

// Option configures a ResultCache.
type Option func(*ResultCache)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(rc *ResultCache) { rc.clock = c }
}

// WithSingleFlight toggles sharing one computation between concurrent
// callers of the same key. It is on by default.
func WithSingleFlight(on bool) Option {
	return func(rc *ResultCache) { rc.singleFlight = on }
}

// WithHitRecorder reports every lookup to r.
func WithHitRecorder(r HitRecorder) Option {
	return func(rc *ResultCache) { rc.recorder = r }
}

// NewResultCache creates a ResultCache over store. A ttl <= 0 disables
// caching and every Get computes.
func NewResultCache(store ResultStore, ttl time.Duration, opts ...Option) *ResultCache {
	rc := &ResultCache{
		store:        store,
		ttl:          ttl,
		clock:        ClockFunc(time.Now),
		singleFlight: true,
	}
	for _, o := range opts {
		o(rc)
	}
	return rc
}

// TTL returns the configured time to live.
func (rc *ResultCache) TTL() time.Duration { return rc.ttl }

// Get returns the cached result for key if it is fresh, else the result of
// compute, which is then stored. Failed computations are not cached.
//
// A fill runs under a context detached from ctx: a caller whose ctx ends
// stops waiting with ctx.Err(), while the fill completes and is stored for
// the callers sharing it and for later lookups.
func (rc *ResultCache) Get(ctx context.Context, key string, compute func(context.Context) (entity.ForecastResult, error)) (entity.ForecastResult, error) {
	if rc.ttl <= 0 || rc.store == nil {
		return compute(ctx)
	}

	if res, ok := rc.lookup(ctx, key); ok {
		return res, nil
	}

	fillCtx := context.WithoutCancel(ctx)
	var ch <-chan singleflight.Result
	if rc.singleFlight {
		ch = rc.group.DoChan(key, func() (interface{}, error) {
			return rc.fill(fillCtx, key, compute)
		})
	} else {
		own := make(chan singleflight.Result, 1)
		go func() {
			v, err := rc.fill(fillCtx, key, compute)
			own <- singleflight.Result{Val: v, Err: err}
		}()
		ch = own
	}

	select {
	case <-ctx.Done():
		return entity.ForecastResult{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return entity.ForecastResult{}, r.Err
		}
		return r.Val.(entity.ForecastResult), nil
	}
}

func (rc *ResultCache) lookup(ctx context.Context, key string) (entity.ForecastResult, bool) {
	entry, ok, err := rc.store.Load(ctx, key)
	if err != nil {
		slog.Warn("result cache read failed", "key", key, "error", err)
		ok = false
	}
	hit := ok && rc.clock.Now().Sub(entry.CreatedAt) < rc.ttl
	if rc.recorder != nil {
		rc.recorder.ObserveCacheLookup(hit)
	}
	return entry.Result, hit
}

func (rc *ResultCache) fill(ctx context.Context, key string, compute func(context.Context) (entity.ForecastResult, error)) (entity.ForecastResult, error) {
	res, err := compute(ctx)
	if err != nil {
		return entity.ForecastResult{}, err
	}
	entry := CacheEntry{Key: key, Result: res, CreatedAt: rc.clock.Now()}
	if err := rc.store.Save(ctx, entry, rc.ttl); err != nil {
		slog.Warn("result cache write failed", "key", key, "error", err)
	}
	return res, nil
}

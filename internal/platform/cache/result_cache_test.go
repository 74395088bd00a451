package cache

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecast_backend/internal/feature/forecast/domain/entity"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type hitCounter struct{ hits, misses atomic.Int32 }

func (h *hitCounter) ObserveCacheLookup(hit bool) {
	if hit {
		h.hits.Add(1)
		return
	}
	h.misses.Add(1)
}

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleResult(future float64) entity.ForecastResult {
	return entity.ForecastResult{
		Symbol:               "BTC",
		Interval:             "1d",
		Historical:           []entity.PricePoint{{Date: t0.AddDate(0, 0, -1), Close: 0.1 + 0.2}},
		TestDates:            []time.Time{t0},
		TestActual:           []float64{64123.45},
		TestPredictions:      []float64{1.0 / 3.0},
		FutureDate:           t0,
		FuturePrediction:     future,
		PercentageDifference: 12.5,
		LossHistory:          []float64{0.25, 0.125},
		GeneratedAt:          t0,
	}
}

func counting(calls *atomic.Int32, res entity.ForecastResult) func(context.Context) (entity.ForecastResult, error) {
	return func(context.Context) (entity.ForecastResult, error) {
		calls.Add(1)
		return res, nil
	}
}

func TestResultCache_TTL(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: t0}
	hits := &hitCounter{}
	rc := NewResultCache(NewMemoryStore(), 60*time.Minute, WithClock(clock), WithHitRecorder(hits))
	ctx := context.Background()

	var calls atomic.Int32
	first, err := rc.Get(ctx, "k", counting(&calls, sampleResult(1)))
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	second, err := rc.Get(ctx, "k", counting(&calls, sampleResult(2)))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	clock.Advance(2 * time.Minute)
	third, err := rc.Get(ctx, "k", counting(&calls, sampleResult(3)))
	require.NoError(t, err)
	assert.Equal(t, 3.0, third.FuturePrediction)
	assert.Equal(t, int32(2), calls.Load())

	assert.Equal(t, int32(1), hits.hits.Load())
	assert.Equal(t, int32(2), hits.misses.Load())
}

func TestResultCache_ExactlyAtTTLRecomputes(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: t0}
	rc := NewResultCache(NewMemoryStore(), time.Minute, WithClock(clock))
	var calls atomic.Int32

	_, err := rc.Get(context.Background(), "k", counting(&calls, sampleResult(1)))
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = rc.Get(context.Background(), "k", counting(&calls, sampleResult(1)))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestResultCache_Disabled(t *testing.T) {
	t.Parallel()

	rc := NewResultCache(NewMemoryStore(), 0)
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		_, err := rc.Get(context.Background(), "k", counting(&calls, sampleResult(1)))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestResultCache_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	rc := NewResultCache(NewMemoryStore(), time.Hour)
	boom := errors.New("boom")
	_, err := rc.Get(context.Background(), "k", func(context.Context) (entity.ForecastResult, error) {
		return entity.ForecastResult{}, boom
	})
	assert.ErrorIs(t, err, boom)

	var calls atomic.Int32
	_, err = rc.Get(context.Background(), "k", counting(&calls, sampleResult(1)))
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestResultCache_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	rc := NewResultCache(NewMemoryStore(), time.Hour)
	a, err := rc.Get(context.Background(), "forecast:BTC:1d", counting(new(atomic.Int32), sampleResult(1)))
	require.NoError(t, err)
	b, err := rc.Get(context.Background(), "forecast:ETH:1d", counting(new(atomic.Int32), sampleResult(2)))
	require.NoError(t, err)
	assert.NotEqual(t, a.FuturePrediction, b.FuturePrediction)
}

func TestResultCache_SingleFlight(t *testing.T) {
	t.Parallel()

	rc := NewResultCache(NewMemoryStore(), time.Hour)
	release := make(chan struct{})
	var calls atomic.Int32
	compute := func(context.Context) (entity.ForecastResult, error) {
		calls.Add(1)
		<-release
		return sampleResult(1), nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]entity.ForecastResult, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := rc.Get(context.Background(), "k", compute)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, 1.0, r.FuturePrediction)
	}
}

// TestResultCache_CancelledCallerDoesNotFailOthers は先頭の呼び出し元が中断しても
// 同じキーを待つ他の呼び出し元は結果を受け取り、結果が保存されることを検証します。
func TestResultCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	t.Parallel()

	for _, singleFlight := range []bool{true, false} {
		t.Run(map[bool]string{true: "single-flight", false: "independent"}[singleFlight], func(t *testing.T) {
			t.Parallel()

			rc := NewResultCache(NewMemoryStore(), time.Hour, WithSingleFlight(singleFlight))
			release := make(chan struct{})
			started := make(chan struct{}, 2)
			var calls atomic.Int32
			compute := func(ctx context.Context) (entity.ForecastResult, error) {
				calls.Add(1)
				started <- struct{}{}
				select {
				case <-release:
					return sampleResult(3), nil
				case <-ctx.Done():
					return entity.ForecastResult{}, ctx.Err()
				}
			}

			ctxA, cancelA := context.WithCancel(context.Background())
			errA := make(chan error, 1)
			go func() {
				_, err := rc.Get(ctxA, "k", compute)
				errA <- err
			}()
			<-started

			type outcome struct {
				res entity.ForecastResult
				err error
			}
			doneB := make(chan outcome, 1)
			go func() {
				res, err := rc.Get(context.Background(), "k", compute)
				doneB <- outcome{res, err}
			}()
			time.Sleep(20 * time.Millisecond)

			cancelA()
			assert.ErrorIs(t, <-errA, context.Canceled)

			close(release)
			b := <-doneB
			require.NoError(t, b.err)
			assert.Equal(t, 3.0, b.res.FuturePrediction)

			// 中断された計算も完了後に保存される
			before := calls.Load()
			res, err := rc.Get(context.Background(), "k", compute)
			require.NoError(t, err)
			assert.Equal(t, 3.0, res.FuturePrediction)
			assert.Equal(t, before, calls.Load())
			if singleFlight {
				assert.Equal(t, int32(1), calls.Load())
			}
		})
	}
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) (CacheEntry, bool, error) {
	return CacheEntry{}, false, errors.New("down")
}

func (failingStore) Save(context.Context, CacheEntry, time.Duration) error {
	return errors.New("down")
}

func TestResultCache_StoreFailureFallsBackToCompute(t *testing.T) {
	t.Parallel()

	rc := NewResultCache(failingStore{}, time.Hour)
	var calls atomic.Int32
	res, err := rc.Get(context.Background(), "k", counting(&calls, sampleResult(7)))
	require.NoError(t, err)
	assert.Equal(t, 7.0, res.FuturePrediction)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRedisStore_RoundTripIsExact(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()
	store := NewRedisStore(rdb)

	entry := CacheEntry{Key: "forecast:BTC:1d", Result: sampleResult(65432.123456789), CreatedAt: t0}
	payload, err := json.Marshal(toStored(entry))
	require.NoError(t, err)

	mock.ExpectSet("forecast:BTC:1d", payload, time.Hour).SetVal("OK")
	require.NoError(t, store.Save(context.Background(), entry, time.Hour))

	mock.ExpectGet("forecast:BTC:1d").SetVal(string(payload))
	got, ok, err := store.Load(context.Background(), "forecast:BTC:1d")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Degenerate(t *testing.T) {
	t.Parallel()

	res := sampleResult(1)
	res.PercentageDifference = math.NaN()
	res.Degenerate = true
	stored := toStored(CacheEntry{Key: "k", Result: res, CreatedAt: t0})
	assert.Nil(t, stored.PercentageDifference)

	b, err := json.Marshal(stored)
	require.NoError(t, err)

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()
	mock.ExpectGet("k").SetVal(string(b))

	got, ok, err := NewRedisStore(rdb).Load(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Result.Degenerate)
	assert.True(t, math.IsNaN(got.Result.PercentageDifference))
}

func TestRedisStore_MissAndCorruption(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()
	store := NewRedisStore(rdb)

	mock.ExpectGet("forecast:BTC:1d").RedisNil()
	_, ok, err := store.Load(context.Background(), "forecast:BTC:1d")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectGet("forecast:BTC:1d").SetVal("{not json")
	mock.ExpectDel("forecast:BTC:1d").SetVal(1)
	_, ok, err = store.Load(context.Background(), "forecast:BTC:1d")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectGet("forecast:BTC:1d").SetErr(errors.New("connection refused"))
	_, _, err = store.Load(context.Background(), "forecast:BTC:1d")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultCache_RedisHitWithinTTL(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	clock := &fakeClock{now: t0.Add(30 * time.Minute)}
	rc := NewResultCache(NewRedisStore(rdb), time.Hour, WithClock(clock))

	entry := CacheEntry{Key: "forecast:BTC:1d", Result: sampleResult(5), CreatedAt: t0}
	payload, err := json.Marshal(toStored(entry))
	require.NoError(t, err)
	mock.ExpectGet("forecast:BTC:1d").SetVal(string(payload))

	var calls atomic.Int32
	got, err := rc.Get(context.Background(), "forecast:BTC:1d", counting(&calls, sampleResult(9)))
	require.NoError(t, err)
	assert.Equal(t, entry.Result, got)
	assert.Zero(t, calls.Load())
	assert.NoError(t, mock.ExpectationsWereMet())
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"forecast_backend/internal/feature/forecast/domain/entity"
)

// RedisStore keeps entries as JSON in Redis so they survive process restarts
// and are shared between replicas.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// storedEntry is the Redis representation of a CacheEntry. JSON has no NaN,
// so the percentage difference of a degenerate result is stored as null.
type storedEntry struct {
	Key                  string              `json:"key"`
	CreatedAt            time.Time           `json:"createdAt"`
	Symbol               string              `json:"symbol"`
	Interval             string              `json:"interval"`
	Historical           []entity.PricePoint `json:"historical"`
	TestDates            []time.Time         `json:"testDates"`
	TestActual           []float64           `json:"testActual"`
	TestPredictions      []float64           `json:"testPredictions"`
	FutureDate           time.Time           `json:"futureDate"`
	FuturePrediction     float64             `json:"futurePrediction"`
	PercentageDifference *float64            `json:"percentageDifference"`
	Degenerate           bool                `json:"degenerate"`
	LossHistory          []float64           `json:"lossHistory"`
	GeneratedAt          time.Time           `json:"generatedAt"`
}

func toStored(e CacheEntry) storedEntry {
	r := e.Result
	s := storedEntry{
		Key:              e.Key,
		CreatedAt:        e.CreatedAt,
		Symbol:           r.Symbol,
		Interval:         r.Interval,
		Historical:       r.Historical,
		TestDates:        r.TestDates,
		TestActual:       r.TestActual,
		TestPredictions:  r.TestPredictions,
		FutureDate:       r.FutureDate,
		FuturePrediction: r.FuturePrediction,
		Degenerate:       r.Degenerate,
		LossHistory:      r.LossHistory,
		GeneratedAt:      r.GeneratedAt,
	}
	if !math.IsNaN(r.PercentageDifference) && !math.IsInf(r.PercentageDifference, 0) {
		pct := r.PercentageDifference
		s.PercentageDifference = &pct
	}
	return s
}

func (s storedEntry) toEntry() CacheEntry {
	pct := math.NaN()
	if s.PercentageDifference != nil {
		pct = *s.PercentageDifference
	}
	return CacheEntry{
		Key:       s.Key,
		CreatedAt: s.CreatedAt,
		Result: entity.ForecastResult{
			Symbol:               s.Symbol,
			Interval:             s.Interval,
			Historical:           s.Historical,
			TestDates:            s.TestDates,
			TestActual:           s.TestActual,
			TestPredictions:      s.TestPredictions,
			FutureDate:           s.FutureDate,
			FuturePrediction:     s.FuturePrediction,
			PercentageDifference: pct,
			Degenerate:           s.Degenerate,
			LossHistory:          s.LossHistory,
			GeneratedAt:          s.GeneratedAt,
		},
	}
}

// Load implements ResultStore. Corrupted entries are deleted and reported as a miss.
func (s *RedisStore) Load(ctx context.Context, key string) (CacheEntry, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return CacheEntry{}, false, nil
	}
	if err != nil {
		return CacheEntry{}, false, err
	}
	var st storedEntry
	if err := json.Unmarshal(b, &st); err != nil {
		_ = s.rdb.Del(ctx, key).Err()
		return CacheEntry{}, false, nil
	}
	return st.toEntry(), true, nil
}

// Save implements ResultStore. The Redis key expires together with the entry.
func (s *RedisStore) Save(ctx context.Context, entry CacheEntry, ttl time.Duration) error {
	b, err := json.Marshal(toStored(entry))
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, entry.Key, b, ttl).Err()
}

package di

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"forecast_backend/internal/feature/forecast/usecase"
	"forecast_backend/internal/platform/cache"
	"forecast_backend/internal/platform/events"
	"forecast_backend/internal/platform/metrics"
	"forecast_backend/internal/shared/worker"
)

// NewResultStore creates a ResultStore implementation.
// If Redis is available, it returns a Redis-backed implementation.
// Otherwise, it falls back to an in-process map.
func NewResultStore(rdb *redis.Client) cache.ResultStore {
	if rdb != nil {
		return cache.NewRedisStore(rdb)
	}
	slog.Warn("redis unavailable, forecast results cached in memory")
	return cache.NewMemoryStore()
}

// NewPublisher returns a Kafka publisher when KAFKA_BROKERS is set, or nil.
// The returned close function is always safe to call.
func NewPublisher(cfg events.Config) (*events.KafkaPublisher, func()) {
	if !cfg.Enabled() {
		return nil, func() {}
	}
	p, err := events.NewKafkaPublisher(cfg)
	if err != nil {
		slog.Error("kafka publisher disabled", "error", err)
		return nil, func() {}
	}
	slog.Info("publishing forecast events", "topic", cfg.Topic, "brokers", cfg.Brokers)
	return p, func() {
		if err := p.Close(); err != nil {
			slog.Error("failed to close kafka writer", "error", err)
		}
	}
}

// NewForecastUsecase wires the pipeline to its market, cache, worker pool,
// metrics and optional publisher.
func NewForecastUsecase(cfg usecase.Config, market usecase.MarketRepository, rdb *redis.Client,
	m *metrics.Metrics, pub *events.KafkaPublisher) (*usecase.ForecastUsecase, error) {
	rc := cache.NewResultCache(NewResultStore(rdb), cfg.CacheTTL, cache.WithHitRecorder(m))
	opts := []usecase.Option{usecase.WithRecorder(m)}
	if pub != nil {
		opts = append(opts, usecase.WithPublisher(pub))
	}
	return usecase.NewForecastUsecase(cfg, market, rc, worker.NewPool(cfg.Workers), opts...)
}

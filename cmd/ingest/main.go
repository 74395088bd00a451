package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"forecast_backend/internal/app/di"
	candlesadapters "forecast_backend/internal/feature/candles/adapters"
	"forecast_backend/internal/feature/candles/usecase"
	symbollistadapters "forecast_backend/internal/feature/symbollist/adapters"
	symbollistusecase "forecast_backend/internal/feature/symbollist/usecase"
	"forecast_backend/internal/platform/cache"
	infradb "forecast_backend/internal/platform/db"
	"forecast_backend/internal/platform/logger"
	infraredis "forecast_backend/internal/platform/redis"
	"forecast_backend/internal/shared/ratelimiter"
)

// Binanceの重み制限に対して十分に余裕を持たせた値
const (
	requestsPerWindow = 20
	window            = time.Second
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	logger.Init("forecast-ingest")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := infradb.Open(infradb.LoadConfigFromEnv())
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}

	// 保存後にcandlesキャッシュを無効化するため、Redisがあればデコレーター経由で書き込む
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfig()); err == nil {
		rdb = tmp
		defer rdb.Close()
	}

	symbolUC := symbollistusecase.NewSymbolUsecase(symbollistadapters.NewSymbolRepository(db))
	if err := symbolUC.SeedDefaults(ctx); err != nil {
		slog.Error("failed to seed symbols", "error", err)
		os.Exit(1)
	}
	candleRepo := cache.NewCachingCandleRepository(rdb, cache.UntilDailyClose, candlesadapters.NewCandleRepository(db), "candles")
	uc := usecase.NewIngestUsecase(di.NewMarket(), candleRepo, ratelimiter.NewRateLimiter(requestsPerWindow, window))

	symbols, err := symbolUC.ListActiveCodes(ctx)
	if err != nil {
		slog.Error("failed to load symbols", "error", err)
		os.Exit(1)
	}

	sum, err := uc.IngestAll(ctx, symbols)
	if err != nil {
		slog.Error("ingest aborted", "error", err, "succeeded", sum.Succeeded, "failed", sum.Failed)
		os.Exit(1)
	}
	slog.Info("ingest ok", "symbols", len(symbols), "succeeded", sum.Succeeded, "failed", sum.Failed, "candles", sum.Candles)
	if sum.Failed > 0 {
		os.Exit(2)
	}
}

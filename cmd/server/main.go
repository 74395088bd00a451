package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"forecast_backend/internal/app/di"
	"forecast_backend/internal/app/router"
	candlesadapters "forecast_backend/internal/feature/candles/adapters"
	candleshandler "forecast_backend/internal/feature/candles/transport/handler"
	candlesusecase "forecast_backend/internal/feature/candles/usecase"
	forecasthandler "forecast_backend/internal/feature/forecast/transport/handler"
	forecastusecase "forecast_backend/internal/feature/forecast/usecase"
	symbollistadapters "forecast_backend/internal/feature/symbollist/adapters"
	symbollisthandler "forecast_backend/internal/feature/symbollist/transport/handler"
	symbollistusecase "forecast_backend/internal/feature/symbollist/usecase"
	"forecast_backend/internal/platform/cache"
	infradb "forecast_backend/internal/platform/db"
	"forecast_backend/internal/platform/events"
	platformhandler "forecast_backend/internal/platform/http/handler"
	jwtmw "forecast_backend/internal/platform/jwt"
	"forecast_backend/internal/platform/logger"
	"forecast_backend/internal/platform/metrics"
	infraredis "forecast_backend/internal/platform/redis"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	logger.Init("forecast-server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	forecastCfg, err := forecastusecase.LoadConfig()
	if err != nil {
		slog.Error("invalid forecast configuration", "error", err)
		os.Exit(1)
	}

	// db
	db, err := infradb.Open(infradb.LoadConfigFromEnv())
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("database handle unavailable", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Redis
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfig()); err != nil {
		slog.Warn("Redis unavailable. Running without shared cache.", "error", err)
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	m := metrics.New(nil)
	pub, closePub := di.NewPublisher(events.LoadConfig())
	defer closePub()

	// Repository
	symbolRepo := symbollistadapters.NewSymbolRepository(db)
	candleRepo := candlesadapters.NewCandleRepository(db)
	// Redisキャッシュでラップ（日足確定の00:00 UTCまで有効）
	cachedCandleRepo := cache.NewCachingCandleRepository(rdb, cache.UntilDailyClose, candleRepo, "candles")

	// Usecase
	forecastUC, err := di.NewForecastUsecase(forecastCfg, di.NewMarket(), rdb, m, pub)
	if err != nil {
		slog.Error("failed to build forecast usecase", "error", err)
		os.Exit(1)
	}
	symbolUC := symbollistusecase.NewSymbolUsecase(symbolRepo)
	if err := symbolUC.SeedDefaults(ctx); err != nil {
		slog.Error("failed to seed symbols", "error", err)
	}
	candlesUC := candlesusecase.NewCandlesUsecase(cachedCandleRepo)

	// Handler
	checks := map[string]platformhandler.Checker{"db": sqlDB.PingContext}
	if rdb != nil {
		checks["redis"] = infraredis.Ping(rdb)
	}
	handlers := router.Handlers{
		Forecast: forecasthandler.NewForecastHandler(forecastUC),
		Candles:  candleshandler.NewCandlesHandler(candlesUC),
		Symbols:  symbollisthandler.NewSymbolHandler(symbolUC),
		Health:   platformhandler.NewHealthHandler(checks),
	}

	secret := jwtmw.SecretFromEnv()
	if secret == "" {
		slog.Warn("JWT_SECRET is not set. API routes are unauthenticated.")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router.NewRouter(handlers, m, secret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("serving", "addr", srv.Addr,
			"cache_ttl", forecastCfg.CacheTTL, "workers", forecastCfg.Workers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

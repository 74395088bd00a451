package router

import (
	"github.com/gin-gonic/gin"

	candleshandler "forecast_backend/internal/feature/candles/transport/handler"
	forecasthandler "forecast_backend/internal/feature/forecast/transport/handler"
	symbollisthandler "forecast_backend/internal/feature/symbollist/transport/handler"
	platformhandler "forecast_backend/internal/platform/http/handler"
	jwtmw "forecast_backend/internal/platform/jwt"
	"forecast_backend/internal/platform/metrics"
)

// Handlers はルーターに登録するハンドラー群です。
type Handlers struct {
	Forecast *forecasthandler.ForecastHandler
	Candles  *candleshandler.CandlesHandler
	Symbols  *symbollisthandler.SymbolHandler
	Health   *platformhandler.HealthHandler
}

// NewRouter はルートを登録したgin.Engineを返します。
// jwtSecret が空でなければ /api, /candles, /symbols にBearerトークンを要求します。
func NewRouter(h Handlers, m *metrics.Metrics, jwtSecret string) *gin.Engine {
	r := gin.Default()
	if m != nil {
		r.Use(m.GinMiddleware())
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// 認証不要
	// 導通確認用
	r.GET("/healthz", h.Health.Health)
	r.HEAD("/healthz", h.Health.Health)
	r.OPTIONS("/healthz", h.Health.Health)

	// JWT_SECRET 設定時のみ認証必須
	guarded := r.Group("/")
	if jwtSecret != "" {
		guarded.Use(jwtmw.AuthRequired(jwtSecret))
	}
	{
		guarded.GET("/api/results", h.Forecast.GetResults)
		guarded.GET("/candles/:code", h.Candles.GetCandlesHandler)
		guarded.GET("/symbols", h.Symbols.List)
	}

	return r
}

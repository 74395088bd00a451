// Package handler はforecastフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"forecast_backend/internal/feature/forecast/domain"
	"forecast_backend/internal/feature/forecast/domain/entity"
	"forecast_backend/internal/feature/forecast/transport/http/dto"
)

// ForecastUsecase はフォーキャストのユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type ForecastUsecase interface {
	Forecast(ctx context.Context, symbol, interval string) (entity.ForecastResult, error)
}

// ForecastHandler はフォーキャストのHTTPリクエストを処理します。
type ForecastHandler struct {
	uc ForecastUsecase
}

// NewForecastHandler はForecastHandlerを生成します。
func NewForecastHandler(uc ForecastUsecase) *ForecastHandler {
	return &ForecastHandler{uc: uc}
}

// GetResults は銘柄と時間足を受け取り、予測結果をJSONで返します。
// 内部エラーの詳細はレスポンスに含めません。
//
// エンドポイント例:
// GET /api/results?symbol=BTC&interval=1d
func (h *ForecastHandler) GetResults(c *gin.Context) {
	symbol := c.Query("symbol")
	interval := c.Query("interval")

	res, err := h.uc.Forecast(c.Request.Context(), symbol, interval)
	if err != nil {
		category := "internal"
		switch {
		case errors.Is(err, domain.ErrInsufficientData):
			category = "insufficient_data"
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			category = "cancelled"
		}
		slog.Error("forecast request failed", "symbol", symbol, "interval", interval, "category", category, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, dto.NewForecastResponse(res))
}

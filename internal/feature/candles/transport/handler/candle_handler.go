// Package handler はcandlesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"forecast_backend/internal/feature/candles/domain/entity"
	"forecast_backend/internal/feature/candles/transport/http/dto"
	"forecast_backend/internal/feature/candles/usecase"
)

// CandlesUsecase はローソク足データ操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type CandlesUsecase interface {
	GetCandles(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error)
}

// CandlesHandler はローソク足データのHTTPリクエストを処理します。
type CandlesHandler struct {
	uc CandlesUsecase
}

// NewCandlesHandler は指定されたusecaseでCandlesHandlerの新しいインスタンスを生成します。
func NewCandlesHandler(uc CandlesUsecase) *CandlesHandler {
	return &CandlesHandler{uc: uc}
}

// GetCandlesHandler は銘柄コードと時間足を受け取り、保存済みのローソク足データをJSONで返します。
//
// エンドポイント例:
// GET /candles/:code?interval=1d&outputsize=200
func (h *CandlesHandler) GetCandlesHandler(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	interval := c.DefaultQuery("interval", usecase.DefaultInterval)
	// 変換失敗時は0を渡し、usecaseでデフォルト値に置き換える
	outputsize, _ := strconv.Atoi(c.DefaultQuery("outputsize", strconv.Itoa(usecase.DefaultOutputSize)))

	candles, err := h.uc.GetCandles(c.Request.Context(), code, interval, outputsize)
	if err != nil {
		slog.Error("failed to get candles", "symbol", code, "interval", interval, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to get candles"})
		return
	}

	c.JSON(http.StatusOK, dto.NewCandleResponses(candles))
}

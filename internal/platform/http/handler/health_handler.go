// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// checkTimeout は依存先チェック1件あたりの上限時間です。
const checkTimeout = 2 * time.Second

// Checker は依存先（DB, Redisなど）の疎通確認関数です。
type Checker func(ctx context.Context) error

// HealthHandler は /healthz を処理します。
type HealthHandler struct {
	checks map[string]Checker
}

// NewHealthHandler は名前付きの依存先チェックを持つHealthHandlerを生成します。
// nilのチェックは無視されます。
func NewHealthHandler(checks map[string]Checker) *HealthHandler {
	cs := make(map[string]Checker, len(checks))
	for name, c := range checks {
		if c != nil {
			cs[name] = c
		}
	}
	return &HealthHandler{checks: cs}
}

// Health はすべての依存先が応答すれば200、いずれかが失敗すれば503を返します。
// HEADはボディなし、OPTIONSは204を返し、キャッシュを防止します。
func (h *HealthHandler) Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}

	status := http.StatusOK
	details := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		err := check(ctx)
		cancel()
		if err != nil {
			slog.Warn("health check failed", "dependency", name, "error", err)
			details[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		details[name] = "ok"
	}

	if c.Request.Method == http.MethodHead {
		c.Status(status)
		return
	}

	body := gin.H{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(details) > 0 {
		body["checks"] = details
	}
	c.JSON(status, body)
}

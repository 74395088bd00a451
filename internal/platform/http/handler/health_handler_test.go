package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupRouter(checks map[string]Checker) *gin.Engine {
	h := NewHealthHandler(checks)
	r := gin.New()
	r.GET("/healthz", h.Health)
	r.HEAD("/healthz", h.Health)
	r.OPTIONS("/healthz", h.Health)
	return r
}

func ok(context.Context) error     { return nil }
func broken(context.Context) error { return errors.New("dial tcp: connection refused") }

func TestHealth_ResponseStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		method         string
		checks         map[string]Checker
		expectedStatus int
		expectedBody   string
	}{
		{name: "GET without checks", method: http.MethodGet, expectedStatus: http.StatusOK, expectedBody: `{"status":"ok"}`},
		{name: "GET all healthy", method: http.MethodGet, checks: map[string]Checker{"db": ok, "redis": ok}, expectedStatus: http.StatusOK, expectedBody: `{"status":"ok","checks":{"db":"ok","redis":"ok"}}`},
		{name: "GET one failing", method: http.MethodGet, checks: map[string]Checker{"db": ok, "redis": broken}, expectedStatus: http.StatusServiceUnavailable, expectedBody: `{"status":"degraded","checks":{"db":"ok","redis":"unavailable"}}`},
		{name: "nil check is ignored", method: http.MethodGet, checks: map[string]Checker{"redis": nil}, expectedStatus: http.StatusOK, expectedBody: `{"status":"ok"}`},
		{name: "HEAD healthy", method: http.MethodHead, checks: map[string]Checker{"db": ok}, expectedStatus: http.StatusOK},
		{name: "HEAD failing", method: http.MethodHead, checks: map[string]Checker{"db": broken}, expectedStatus: http.StatusServiceUnavailable},
		{name: "OPTIONS skips checks", method: http.MethodOptions, checks: map[string]Checker{"db": broken}, expectedStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/healthz", nil)
			setupRouter(tt.checks).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			} else {
				assert.Zero(t, w.Body.Len())
			}
		})
	}
}

func TestHealth_ErrorNotExposed(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	setupRouter(map[string]Checker{"db": broken}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotContains(t, w.Body.String(), "connection refused")
}

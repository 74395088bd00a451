package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultClientConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultClientConfig(8 * time.Second)
	assert.Equal(t, 8*time.Second, cfg.Timeout)
	assert.Equal(t, 4*time.Second, cfg.ResponseHeaderTimeout)
	assert.Equal(t, 16, cfg.MaxIdleConnsPerHost)

	// 0以下は10秒
	assert.Equal(t, 10*time.Second, DefaultClientConfig(0).Timeout)
}

func TestNewHTTPClient_Transport(t *testing.T) {
	t.Parallel()

	c := NewHTTPClient(6 * time.Second)
	assert.Equal(t, 6*time.Second, c.Timeout)

	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 16, tr.MaxIdleConnsPerHost)
	assert.Equal(t, 3*time.Second, tr.ResponseHeaderTimeout)
	assert.True(t, tr.ForceAttemptHTTP2)
}

// TestNewClient_ResponseHeaderTimeout はヘッダーを返さないサーバーで打ち切られることを検証します。
func TestNewClient_ResponseHeaderTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	cfg := DefaultClientConfig(5 * time.Second)
	cfg.ResponseHeaderTimeout = 50 * time.Millisecond
	start := time.Now()
	_, err := NewClient(cfg).Get(srv.URL)

	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

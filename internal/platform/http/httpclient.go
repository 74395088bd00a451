// Package http は外部API呼び出し用のHTTPクライアントを提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

// ClientConfig は単一の外部APIホスト向けのトランスポート設定です。
type ClientConfig struct {
	Timeout               time.Duration // リクエスト全体（ボディ読み込みを含む）
	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration // 送信完了からレスポンスヘッダー受信まで
	IdleConnTimeout       time.Duration
	MaxIdleConnsPerHost   int
}

// DefaultClientConfig は取引所API（単一ホスト、小さなJSON、レート制限あり）向けの設定を返します。
//
//   - 接続先は1ホストのみのため、アイドル接続はホスト単位で確保する
//     （http.Transportの既定値2では並列取得時に接続を使い回せない）
//   - klinesは最大1000件でもヘッダーは即時に返るため、ヘッダー待ちは全体の半分で打ち切る
func DefaultClientConfig(timeout time.Duration) ClientConfig {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return ClientConfig{
		Timeout:               timeout,
		DialTimeout:           3 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ResponseHeaderTimeout: timeout / 2,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   16,
	}
}

// NewHTTPClient はDefaultClientConfig(timeout)でクライアントを作成します。
func NewHTTPClient(timeout time.Duration) *http.Client {
	return NewClient(DefaultClientConfig(timeout))
}

// NewClient はcfgからクライアントを作成します。
// http.DefaultClientにはタイムアウトがないため、外部呼び出しには常にこちらを使うこと。
func NewClient(cfg ClientConfig) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          cfg.MaxIdleConnsPerHost,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
	}
	return &http.Client{Timeout: cfg.Timeout, Transport: t}
}

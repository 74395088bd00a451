// Package binance provides a client for the Binance spot market data API.
package binance

import (
	"os"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the public spot API endpoint.
	DefaultBaseURL = "https://api.binance.com"
	// DefaultQuoteAsset is appended to base asset symbols ("BTC" -> "BTCUSDT").
	DefaultQuoteAsset = "USDT"
)

// Config holds configuration for the Binance client.
type Config struct {
	BaseURL    string        // e.g. "https://api.binance.com"
	QuoteAsset string        // quote asset appended to symbols
	Timeout    time.Duration // HTTP request timeout
	// MaxAttempts is the number of tries per request. 1 disables retries.
	MaxAttempts int
	RetryDelay  time.Duration
}

// LoadConfig loads Binance configuration from environment variables.
func LoadConfig() Config {
	cfg := Config{
		BaseURL:     os.Getenv("BINANCE_BASE_URL"),
		QuoteAsset:  os.Getenv("BINANCE_QUOTE_ASSET"),
		Timeout:     10 * time.Second,
		MaxAttempts: 1,
		RetryDelay:  500 * time.Millisecond,
	}
	if n, err := strconv.Atoi(os.Getenv("BINANCE_MAX_ATTEMPTS")); err == nil && n > 0 {
		cfg.MaxAttempts = n
	}
	return cfg.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.QuoteAsset == "" {
		c.QuoteAsset = DefaultQuoteAsset
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	return c
}

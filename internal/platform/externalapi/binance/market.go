package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"forecast_backend/internal/feature/candles/domain/entity"
	"forecast_backend/internal/feature/candles/usecase"
	"forecast_backend/internal/feature/forecast/domain"
	"forecast_backend/internal/platform/externalapi/binance/dto"
)

// maxLimit is the largest page /api/v3/klines serves.
const maxLimit = 1000

// BinanceMarket fetches klines from Binance.
type BinanceMarket struct {
	cfg    Config
	client *http.Client
}

var _ usecase.MarketRepository = (*BinanceMarket)(nil)

// NewBinanceMarket creates a BinanceMarket.
func NewBinanceMarket(cfg Config, client *http.Client) *BinanceMarket {
	return &BinanceMarket{cfg: cfg.withDefaults(), client: client}
}

// PairSymbol returns the exchange symbol of a base asset, e.g. "btc" -> "BTCUSDT".
func (b *BinanceMarket) PairSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.HasSuffix(s, b.cfg.QuoteAsset) && len(s) > len(b.cfg.QuoteAsset) {
		return s
	}
	return s + b.cfg.QuoteAsset
}

// GetTimeSeries returns up to outputsize candles in ascending time order.
// outputsize <= 0 uses the provider default (500). Every failure is a
// *domain.TransportError.
func (b *BinanceMarket) GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error) {
	q := url.Values{}
	q.Set("symbol", b.PairSymbol(symbol))
	q.Set("interval", interval)
	if outputsize > 0 {
		q.Set("limit", strconv.Itoa(min(outputsize, maxLimit)))
	}
	u := fmt.Sprintf("%s/api/v3/klines?%s", strings.TrimRight(b.cfg.BaseURL, "/"), q.Encode())

	var (
		klines []dto.Kline
		err    error
	)
	for attempt := 1; attempt <= b.cfg.MaxAttempts; attempt++ {
		var retryable bool
		klines, retryable, err = b.fetch(ctx, u)
		if err == nil || !retryable || attempt == b.cfg.MaxAttempts {
			break
		}
		slog.Warn("binance request failed, retrying", "symbol", symbol, "interval", interval, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, &domain.TransportError{Symbol: symbol, Interval: interval, Err: ctx.Err()}
		case <-time.After(b.cfg.RetryDelay):
		}
	}
	if err != nil {
		return nil, &domain.TransportError{Symbol: symbol, Interval: interval, Err: err}
	}

	candles := make([]entity.Candle, 0, len(klines))
	for _, k := range klines {
		candles = append(candles, entity.Candle{
			Symbol:   symbol,
			Interval: interval,
			Time:     time.UnixMilli(k.OpenTime).UTC(),
			Open:     k.Open.InexactFloat64(),
			High:     k.High.InexactFloat64(),
			Low:      k.Low.InexactFloat64(),
			Close:    k.Close.InexactFloat64(),
			Volume:   k.Volume.InexactFloat64(),
		})
	}
	return candles, nil
}

// fetch performs one request. retryable reports whether another attempt may succeed.
func (b *BinanceMarket) fetch(ctx context.Context, u string) (klines []dto.Kline, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	res, err := b.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		var apiErr dto.APIError
		_ = json.NewDecoder(res.Body).Decode(&apiErr)
		retryable = res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests
		if apiErr.Msg != "" {
			return nil, retryable, fmt.Errorf("binance http %d: %s (code %d)", res.StatusCode, apiErr.Msg, apiErr.Code)
		}
		return nil, retryable, fmt.Errorf("binance http %d", res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(&klines); err != nil {
		return nil, false, fmt.Errorf("decode klines: %w", err)
	}
	return klines, false, nil
}

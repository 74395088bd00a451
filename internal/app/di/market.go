// Package di provides dependency injection factories for creating application components.
package di

import (
	"forecast_backend/internal/platform/externalapi/binance"
	infrahttp "forecast_backend/internal/platform/http"
)

// NewMarket creates a fully configured BinanceMarket with HTTP client.
func NewMarket() *binance.BinanceMarket {
	cfg := binance.LoadConfig()
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return binance.NewBinanceMarket(cfg, httpClient)
}

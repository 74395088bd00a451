// Package entity defines the domain models for the candles feature.
package entity

import "time"

// Candle represents OHLCV (Open, High, Low, Close, Volume) kline data
// for a crypto asset at a specific time interval.
type Candle struct {
	Symbol   string    // Base asset symbol (e.g., "BTC", "ETH")
	Interval string    // Kline interval (e.g., "1d", "1w", "1M")
	Time     time.Time // Open time of this candle period
	Open     float64   // Opening price
	High     float64   // Highest price during this period
	Low      float64   // Lowest price during this period
	Close    float64   // Closing price
	Volume   float64   // Traded base-asset volume
}

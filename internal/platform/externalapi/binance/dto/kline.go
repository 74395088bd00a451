// Package dto holds Binance wire formats.
package dto

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kline is one row of GET /api/v3/klines. Binance sends each kline as a
// fixed-width array; only the first six fields are read:
//
//	[openTime, "open", "high", "low", "close", "volume", closeTime, ...]
type Kline struct {
	OpenTime int64 // milliseconds since epoch
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
	Volume   decimal.Decimal
}

// UnmarshalJSON decodes the array form.
func (k *Kline) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) < 6 {
		return fmt.Errorf("kline has %d fields, want at least 6", len(raw))
	}
	if err := json.Unmarshal(raw[0], &k.OpenTime); err != nil {
		return fmt.Errorf("open time: %w", err)
	}
	fields := []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"open", &k.Open}, {"high", &k.High}, {"low", &k.Low}, {"close", &k.Close}, {"volume", &k.Volume},
	}
	for i, f := range fields {
		if err := f.dst.UnmarshalJSON(raw[i+1]); err != nil {
			return fmt.Errorf("%s %s: %w", f.name, raw[i+1], err)
		}
	}
	return nil
}

// APIError is the body Binance returns with 4xx/5xx responses.
type APIError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Package entity defines the domain models of the forecasting pipeline.
package entity

import (
	"time"

	candle "forecast_backend/internal/feature/candles/domain/entity"
)

// EnrichedCandle is a Candle plus the indicators derived from the closes up to
// and including it. Indicator values are 0 until their lookback is satisfied.
type EnrichedCandle struct {
	candle.Candle

	SMA map[int]float64 // keyed by period
	RSI float64

	smaReady map[int]bool
	rsiReady bool
}

// NewEnrichedCandle wraps c with empty indicator fields.
func NewEnrichedCandle(c candle.Candle) EnrichedCandle {
	return EnrichedCandle{
		Candle:   c,
		SMA:      map[int]float64{},
		smaReady: map[int]bool{},
	}
}

// SetSMA records a defined SMA value for period p.
func (e *EnrichedCandle) SetSMA(p int, v float64) {
	e.SMA[p] = v
	e.smaReady[p] = true
}

// SetRSI records a defined RSI value.
func (e *EnrichedCandle) SetRSI(v float64) {
	e.RSI = v
	e.rsiReady = true
}

// SMAReady reports whether the SMA for period p is defined at this candle.
func (e EnrichedCandle) SMAReady(p int) bool { return e.smaReady[p] }

// RSIReady reports whether the RSI is defined at this candle.
func (e EnrichedCandle) RSIReady() bool { return e.rsiReady }

// Features assembles the model input vector in FeatureVector order.
func (e EnrichedCandle) Features() FeatureVector {
	var f FeatureVector
	f[FeatureOpen] = e.Open
	f[FeatureHigh] = e.High
	f[FeatureLow] = e.Low
	f[FeatureClose] = e.Close
	f[FeatureVolume] = e.Volume
	f[FeatureRSI] = e.RSI
	return f
}

// PricePoint is a (date, close) pair of the historical series.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// Package indicator computes causal technical indicators over a candle sequence.
package indicator

import (
	talib "github.com/markcheno/go-talib"

	candle "forecast_backend/internal/feature/candles/domain/entity"
	"forecast_backend/internal/feature/forecast/domain/entity"
)

const (
	// DefaultRSIPeriod is the Wilder RSI lookback.
	DefaultRSIPeriod = 14

	SMASignalPeriod = 3
	SMAFastPeriod   = 5
	SMASlowPeriod   = 8
)

// DefaultSMAPeriods are the signal, fast and slow averages attached to every candle.
var DefaultSMAPeriods = []int{SMASignalPeriod, SMAFastPeriod, SMASlowPeriod}

// Engine derives SMA and RSI values for each candle.
// Value i only depends on candles[0..i].
type Engine struct {
	smaPeriods []int
	rsiPeriod  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithSMAPeriods replaces the default SMA periods.
func WithSMAPeriods(periods ...int) Option {
	return func(e *Engine) { e.smaPeriods = append([]int(nil), periods...) }
}

// WithRSIPeriod replaces the default RSI period.
func WithRSIPeriod(p int) Option {
	return func(e *Engine) { e.rsiPeriod = p }
}

// NewEngine creates an Engine with the default periods unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		smaPeriods: append([]int(nil), DefaultSMAPeriods...),
		rsiPeriod:  DefaultRSIPeriod,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich returns one EnrichedCandle per input candle, in input order.
func (e *Engine) Enrich(candles []candle.Candle) []entity.EnrichedCandle {
	out := make([]entity.EnrichedCandle, len(candles))
	for i, c := range candles {
		out[i] = entity.NewEnrichedCandle(c)
	}
	closes := Closes(candles)

	for _, p := range e.smaPeriods {
		values := SMA(closes, p)
		for i := range out {
			if SMADefined(i, p, len(closes)) {
				out[i].SetSMA(p, values[i])
			}
		}
	}

	rsi := RSI(closes, e.rsiPeriod)
	for i := range out {
		if RSIDefined(i, e.rsiPeriod, len(closes)) {
			out[i].SetRSI(rsi[i])
		}
	}
	return out
}

// Closes extracts the close prices in order.
func Closes(candles []candle.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// SMA returns the simple moving average series of closes for period p.
// Entries before index p-1 are 0.
func SMA(closes []float64, p int) []float64 {
	if p < 1 || len(closes) < p {
		return make([]float64, len(closes))
	}
	return talib.Sma(closes, p)
}

// SMADefined reports whether SMA(p) at index i is defined for a series of length n.
func SMADefined(i, p, n int) bool {
	return p >= 1 && n >= p && i >= p-1
}

// RSI returns the Wilder relative strength index series of closes for period p.
// Entries before index p are 0.
func RSI(closes []float64, p int) []float64 {
	if p < 2 || len(closes) <= p {
		return make([]float64, len(closes))
	}
	return talib.Rsi(closes, p)
}

// RSIDefined reports whether RSI(p) at index i is defined for a series of length n.
func RSIDefined(i, p, n int) bool {
	return p >= 2 && n > p && i >= p
}

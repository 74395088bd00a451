// Package assembler turns normalized model output into a ForecastResult.
package assembler

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	candle "forecast_backend/internal/feature/candles/domain/entity"
	"forecast_backend/internal/feature/forecast/domain"
	"forecast_backend/internal/feature/forecast/domain/entity"
	"forecast_backend/internal/feature/forecast/normalize"
)

// FutureDateMode selects the date attached to the future prediction.
type FutureDateMode string

const (
	// FutureDateLastTest labels the future prediction with the last test date.
	// This is a placeholder kept for compatibility with existing clients.
	FutureDateLastTest FutureDateMode = "last"
	// FutureDateNextInterval labels it with the last test date plus one interval.
	FutureDateNextInterval FutureDateMode = "next"
)

// ParseFutureDateMode validates a mode string. The empty string selects FutureDateLastTest.
func ParseFutureDateMode(s string) (FutureDateMode, error) {
	switch FutureDateMode(s) {
	case "", FutureDateLastTest:
		return FutureDateLastTest, nil
	case FutureDateNextInterval:
		return FutureDateNextInterval, nil
	}
	return "", fmt.Errorf("unknown future date mode %q", s)
}

// Input is everything one pipeline run hands to the assembler.
type Input struct {
	Symbol   string
	Interval string
	Candles  []candle.Candle
	Dataset  entity.Dataset
	Scales   entity.Scales

	// Normalized model outputs.
	TestPredictions  []float64
	FuturePrediction float64

	LossHistory []float64
}

// Assembler builds ForecastResults.
type Assembler struct {
	futureDate FutureDateMode
	now        func() time.Time
}

// New creates an Assembler.
func New(mode FutureDateMode) *Assembler {
	if mode == "" {
		mode = FutureDateLastTest
	}
	return &Assembler{futureDate: mode, now: time.Now}
}

// Assemble denormalizes the predictions with the close scale and derives the
// future date and the percentage difference.
func (a *Assembler) Assemble(in Input) (entity.ForecastResult, error) {
	ds := in.Dataset
	if len(ds.TestRecords) <= ds.InputSize {
		return entity.ForecastResult{}, &domain.InsufficientDataError{
			Stage: "test partition", Have: len(ds.TestRecords), Need: ds.InputSize + 1,
		}
	}
	labelled := ds.TestRecords[ds.InputSize:]
	if len(in.TestPredictions) != len(labelled) {
		return entity.ForecastResult{}, fmt.Errorf("got %d test predictions for %d test records", len(in.TestPredictions), len(labelled))
	}

	closeScale := in.Scales.Close()
	res := entity.ForecastResult{
		Symbol:          in.Symbol,
		Interval:        in.Interval,
		Historical:      make([]entity.PricePoint, len(in.Candles)),
		TestDates:       make([]time.Time, len(labelled)),
		TestActual:      make([]float64, len(labelled)),
		TestPredictions: make([]float64, len(labelled)),
		LossHistory:     append([]float64(nil), in.LossHistory...),
		GeneratedAt:     a.now().UTC(),
	}
	for i, c := range in.Candles {
		res.Historical[i] = entity.PricePoint{Date: c.Time, Close: c.Close}
	}
	for i, r := range labelled {
		res.TestDates[i] = r.Time
		res.TestActual[i] = normalize.Denormalize(r.Close(), closeScale)
		res.TestPredictions[i] = normalize.Denormalize(in.TestPredictions[i], closeScale)
	}
	res.FuturePrediction = normalize.Denormalize(in.FuturePrediction, closeScale)

	lastDate := res.TestDates[len(res.TestDates)-1]
	res.FutureDate = lastDate
	if a.futureDate == FutureDateNextInterval {
		next, err := NextIntervalTime(lastDate, in.Interval)
		if err != nil {
			return entity.ForecastResult{}, err
		}
		res.FutureDate = next
	}

	lastPrediction := res.TestPredictions[len(res.TestPredictions)-1]
	pct, err := PercentageDifference(res.FuturePrediction, lastPrediction)
	if err != nil {
		slog.Warn("percentage difference undefined", "symbol", in.Symbol, "interval", in.Interval, "error", err)
		res.Degenerate = true
	}
	res.PercentageDifference = pct
	return res, nil
}

// PercentageDifference returns (future-last)/last*100. A zero last value
// yields NaN and ErrDegenerateMetric.
func PercentageDifference(future, last float64) (float64, error) {
	if last == 0 {
		return math.NaN(), domain.ErrDegenerateMetric
	}
	return (future - last) / last * 100, nil
}

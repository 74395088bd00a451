package entity

import "time"

// ForecastResult is the immutable output of one pipeline invocation.
type ForecastResult struct {
	Symbol   string
	Interval string

	Historical      []PricePoint
	TestDates       []time.Time
	TestActual      []float64
	TestPredictions []float64

	FutureDate       time.Time
	FuturePrediction float64

	// PercentageDifference is NaN when Degenerate is set.
	PercentageDifference float64
	Degenerate           bool

	LossHistory []float64
	GeneratedAt time.Time
}

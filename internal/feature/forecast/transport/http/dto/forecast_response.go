// Package dto はフォーキャストAPIのレスポンスDTOを定義します。
package dto

import (
	"math"
	"time"

	"forecast_backend/internal/feature/forecast/domain/entity"
)

// PricePointResponse は過去の終値1件です。
type PricePointResponse struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// ForecastResponse は GET /api/results のレスポンスDTOです。
type ForecastResponse struct {
	Historical       []PricePointResponse `json:"historical"`
	TestDates        []string             `json:"testDates"`
	TestActual       []float64            `json:"testActual"`
	TestPredictions  []float64            `json:"testPredictions"`
	FutureDate       string               `json:"futureDate"`
	FuturePrediction float64              `json:"futurePrediction"`
	// 分母が0の場合はnull
	PercentageDifference *float64  `json:"percentageDifference"`
	LossHistory          []float64 `json:"lossHistory"`
}

// ErrorResponse はエラーレスポンスDTOです。
type ErrorResponse struct {
	Error string `json:"error"`
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// NewForecastResponse はドメインの予測結果をレスポンスDTOに変換します。
func NewForecastResponse(res entity.ForecastResult) ForecastResponse {
	out := ForecastResponse{
		Historical:       make([]PricePointResponse, 0, len(res.Historical)),
		TestDates:        make([]string, 0, len(res.TestDates)),
		TestActual:       append(make([]float64, 0, len(res.TestActual)), res.TestActual...),
		TestPredictions:  append(make([]float64, 0, len(res.TestPredictions)), res.TestPredictions...),
		FutureDate:       formatDate(res.FutureDate),
		FuturePrediction: res.FuturePrediction,
		LossHistory:      append(make([]float64, 0, len(res.LossHistory)), res.LossHistory...),
	}
	for _, p := range res.Historical {
		out.Historical = append(out.Historical, PricePointResponse{Date: formatDate(p.Date), Close: p.Close})
	}
	for _, d := range res.TestDates {
		out.TestDates = append(out.TestDates, formatDate(d))
	}
	if !res.Degenerate && !math.IsNaN(res.PercentageDifference) && !math.IsInf(res.PercentageDifference, 0) {
		pct := res.PercentageDifference
		out.PercentageDifference = &pct
	}
	return out
}

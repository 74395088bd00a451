// Package dataset slices a normalized candle sequence into fixed-length input
// windows with next-step labels, split chronologically into train and test.
package dataset

import (
	"forecast_backend/internal/feature/forecast/domain"
	"forecast_backend/internal/feature/forecast/domain/entity"
)

const (
	// DefaultInputSize is the number of timesteps per window.
	DefaultInputSize = 7
	// DefaultMinRecords is the smallest sequence the pipeline accepts.
	DefaultMinRecords = 30
)

// SplitIndex returns floor(0.8*n), the first index of the test partition.
func SplitIndex(n int) int {
	if n <= 0 {
		return 0
	}
	return n * 4 / 5
}

// Windows slides a window of inputSize records over records. Window i covers
// records[i, i+inputSize) and is labelled with the close of records[i+inputSize].
func Windows(records []entity.NormalizedCandle, inputSize int) []entity.Window {
	if inputSize <= 0 || len(records) <= inputSize {
		return nil
	}
	out := make([]entity.Window, 0, len(records)-inputSize)
	for i := 0; i+inputSize < len(records); i++ {
		out = append(out, entity.Window{
			Inputs: Inputs(records[i : i+inputSize]),
			Label:  records[i+inputSize].Close(),
		})
	}
	return out
}

// Inputs copies the feature vectors of records.
func Inputs(records []entity.NormalizedCandle) []entity.FeatureVector {
	in := make([]entity.FeatureVector, len(records))
	for i, r := range records {
		in[i] = r.Features
	}
	return in
}

// Builder builds datasets for a fixed window size.
type Builder struct {
	inputSize  int
	minRecords int
}

// NewBuilder creates a Builder. Non-positive arguments select the defaults.
func NewBuilder(inputSize, minRecords int) *Builder {
	if inputSize <= 0 {
		inputSize = DefaultInputSize
	}
	if minRecords <= 0 {
		minRecords = DefaultMinRecords
	}
	return &Builder{inputSize: inputSize, minRecords: minRecords}
}

// InputSize returns the window length.
func (b *Builder) InputSize() int { return b.inputSize }

// CheckSufficient fails with *domain.InsufficientDataError unless a sequence of
// n records yields at least one training window, one test window and the
// future window. The test partition needs inputSize+1 records, so the
// effective minimum can exceed minRecords: with inputSize 7 it is 36
// (35 records split 28/7).
func (b *Builder) CheckSufficient(n int) error {
	if n < b.minRecords {
		return &domain.InsufficientDataError{Stage: "records", Have: n, Need: b.minRecords}
	}
	split := SplitIndex(n)
	if split < b.inputSize+1 {
		return &domain.InsufficientDataError{Stage: "training partition", Have: split, Need: b.inputSize + 1}
	}
	if n-split < b.inputSize+1 {
		return &domain.InsufficientDataError{Stage: "test partition", Have: n - split, Need: b.inputSize + 1}
	}
	return nil
}

// Build splits records at SplitIndex and windows each partition on its own,
// so no window spans the boundary.
func (b *Builder) Build(records []entity.NormalizedCandle) (entity.Dataset, error) {
	if err := b.CheckSufficient(len(records)); err != nil {
		return entity.Dataset{}, err
	}
	split := SplitIndex(len(records))
	train, test := records[:split], records[split:]
	return entity.Dataset{
		InputSize:    b.inputSize,
		SplitIndex:   split,
		TrainRecords: train,
		TestRecords:  test,
		Train:        Windows(train, b.inputSize),
		Test:         Windows(test, b.inputSize),
	}, nil
}

// FutureWindow returns the inputs built from the last inputSize test records.
func FutureWindow(ds entity.Dataset) []entity.FeatureVector {
	n := len(ds.TestRecords)
	if n < ds.InputSize || ds.InputSize <= 0 {
		return nil
	}
	return Inputs(ds.TestRecords[n-ds.InputSize:])
}

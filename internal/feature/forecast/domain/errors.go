// Package domain defines domain-level errors for the forecast feature.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport indicates that candle retrieval from the market provider failed.
	ErrTransport = errors.New("candle transport failed")

	// ErrInsufficientData indicates that too few usable records were supplied to
	// build a training set, a test window and the future window.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDegenerateMetric indicates a zero denominator in a derived metric.
	ErrDegenerateMetric = errors.New("degenerate metric")

	// ErrEmptySequence is returned when a scale is requested for no records.
	ErrEmptySequence = errors.New("empty sequence")

	// ErrNotTrained is returned when predicting with an untrained model.
	ErrNotTrained = errors.New("model is not trained")

	// ErrAlreadyTrained is returned when training a model twice.
	// A new model must be constructed to retrain.
	ErrAlreadyTrained = errors.New("model is already trained")
)

// TransportError carries the request that failed at the provider.
type TransportError struct {
	Symbol   string
	Interval string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s/%s: %v", e.Symbol, e.Interval, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransport) hold for any *TransportError.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// InsufficientDataError reports how many records a stage had versus needed.
type InsufficientDataError struct {
	Stage string
	Have  int
	Need  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: have %d records, need %d", e.Stage, e.Have, e.Need)
}

// Is makes errors.Is(err, ErrInsufficientData) hold for any *InsufficientDataError.
func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

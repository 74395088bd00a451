package entity

import "time"

// Indices into FeatureVector. The order is fixed and shared by training,
// testing and future windows.
const (
	FeatureOpen = iota
	FeatureHigh
	FeatureLow
	FeatureClose
	FeatureVolume
	FeatureRSI

	NumFeatures
)

// FeatureNames lists the feature names in vector order.
var FeatureNames = [NumFeatures]string{"open", "high", "low", "close", "volume", "rsi"}

// FeatureVector is one timestep of model input.
type FeatureVector [NumFeatures]float64

// Scales holds the per-feature scale factors of one pipeline run.
type Scales [NumFeatures]float64

// Close returns the scale factor of the close feature.
func (s Scales) Close() float64 { return s[FeatureClose] }

// NormalizedCandle is an enriched candle mapped through Scales.
type NormalizedCandle struct {
	Time     time.Time
	Features FeatureVector
}

// Close returns the normalized close.
func (n NormalizedCandle) Close() float64 { return n.Features[FeatureClose] }

// Window is an input sequence of consecutive feature vectors and the
// normalized close of the record that follows it.
type Window struct {
	Inputs []FeatureVector
	Label  float64
}

// Dataset is the chronologically split set of windows.
type Dataset struct {
	InputSize    int
	SplitIndex   int
	TrainRecords []NormalizedCandle
	TestRecords  []NormalizedCandle
	Train        []Window
	Test         []Window
}

// TrainingRun is the outcome of fitting a model.
type TrainingRun struct {
	LossHistory []float64
}

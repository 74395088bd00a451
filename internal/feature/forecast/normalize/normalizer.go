// Package normalize maps enriched candles into a bounded range by per-feature
// max scaling and back.
package normalize

import (
	"fmt"

	"forecast_backend/internal/feature/forecast/domain"
	"forecast_backend/internal/feature/forecast/domain/entity"
)

// Mode selects which records the scale factors are computed from.
type Mode string

const (
	// ScaleWholeDataset computes scales over every record before the split.
	// This leaks the test range into the training scale and is kept for
	// parity with the reference output.
	ScaleWholeDataset Mode = "dataset"
	// ScaleTrainingOnly computes scales over the training prefix only and
	// applies them to the test and future records.
	ScaleTrainingOnly Mode = "train"
)

// ParseMode validates a mode string. The empty string selects ScaleWholeDataset.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ScaleWholeDataset:
		return ScaleWholeDataset, nil
	case ScaleTrainingOnly:
		return ScaleTrainingOnly, nil
	}
	return "", fmt.Errorf("unknown scaling mode %q", s)
}

// Fit returns scale = max(value) for every feature over records.
func Fit(records []entity.EnrichedCandle) (entity.Scales, error) {
	var scales entity.Scales
	if len(records) == 0 {
		return scales, domain.ErrEmptySequence
	}
	scales = entity.Scales(records[0].Features())
	for _, r := range records[1:] {
		f := r.Features()
		for i := range scales {
			if f[i] > scales[i] {
				scales[i] = f[i]
			}
		}
	}
	return scales, nil
}

// Normalize maps every record through scales.
func Normalize(records []entity.EnrichedCandle, scales entity.Scales) []entity.NormalizedCandle {
	out := make([]entity.NormalizedCandle, len(records))
	for i, r := range records {
		f := r.Features()
		for j := range f {
			f[j] = NormalizeValue(f[j], scales[j])
		}
		out[i] = entity.NormalizedCandle{Time: r.Time, Features: f}
	}
	return out
}

// NormalizeValue returns v/scale, or 0 when scale is 0.
func NormalizeValue(v, scale float64) float64 {
	if scale == 0 {
		return 0
	}
	return v / scale
}

// Denormalize is the inverse of NormalizeValue for a non-zero scale.
func Denormalize(v, scale float64) float64 {
	return v * scale
}

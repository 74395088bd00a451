package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forecast_backend/internal/feature/forecast/domain"
	"forecast_backend/internal/feature/forecast/domain/entity"
)

func sequence(n int) []entity.NormalizedCandle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]entity.NormalizedCandle, n)
	for i := range out {
		var f entity.FeatureVector
		for j := range f {
			f[j] = float64(i*10 + j)
		}
		out[i] = entity.NormalizedCandle{Time: base.AddDate(0, 0, i), Features: f}
	}
	return out
}

func TestWindows_CountAndLabels(t *testing.T) {
	t.Parallel()

	for _, w := range []int{1, 3, 7} {
		for _, l := range []int{0, 1, w, w + 1, 20} {
			records := sequence(l)
			windows := Windows(records, w)

			want := l - w
			if want < 0 {
				want = 0
			}
			require.Len(t, windows, want, "L=%d w=%d", l, w)

			for i, win := range windows {
				require.Len(t, win.Inputs, w)
				assert.Equal(t, records[i+w].Close(), win.Label)
				assert.Equal(t, records[i].Features, win.Inputs[0])
				assert.Equal(t, records[i+w-1].Features, win.Inputs[w-1])
			}
		}
	}
}

func TestWindows_CopiesInputs(t *testing.T) {
	t.Parallel()

	records := sequence(10)
	windows := Windows(records, 3)
	records[0].Features[entity.FeatureClose] = -1

	assert.NotEqual(t, -1.0, windows[0].Inputs[0][entity.FeatureClose])
}

func TestSplitIndex(t *testing.T) {
	t.Parallel()

	tests := []struct{ n, want int }{
		{0, 0}, {1, 0}, {5, 4}, {10, 8}, {39, 31}, {40, 32}, {500, 400},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitIndex(tt.n), "n=%d", tt.n)
	}
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	records := sequence(40)
	ds, err := NewBuilder(7, 30).Build(records)
	require.NoError(t, err)

	assert.Equal(t, 32, ds.SplitIndex)
	assert.Len(t, ds.TrainRecords, 32)
	assert.Len(t, ds.TestRecords, 8)
	assert.Len(t, ds.Train, 25)
	require.Len(t, ds.Test, 1)

	// The only test window is built from the test partition alone.
	assert.Equal(t, records[32].Features, ds.Test[0].Inputs[0])
	assert.Equal(t, records[39].Close(), ds.Test[0].Label)
	// The last training window ends before the boundary.
	assert.Equal(t, records[31].Close(), ds.Train[24].Label)

	future := FutureWindow(ds)
	require.Len(t, future, 7)
	assert.Equal(t, records[33].Features, future[0])
	assert.Equal(t, records[39].Features, future[6])
}

func TestBuilder_Insufficient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		n         int
		inputSize int
		stage     string
	}{
		{"below minimum", 10, 7, "records"},
		{"empty", 0, 7, "records"},
		{"test partition too short", 30, 7, "test partition"},
		{"above minimum but test partition too short", 35, 7, "test partition"},
		{"training partition too short", 30, 25, "training partition"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewBuilder(tt.inputSize, 30).Build(sequence(tt.n))
			require.ErrorIs(t, err, domain.ErrInsufficientData)

			var ide *domain.InsufficientDataError
			require.ErrorAs(t, err, &ide)
			assert.Equal(t, tt.stage, ide.Stage)
		})
	}
}

// TestBuilder_EffectiveMinimum は入力長7で36件が十分となる最小件数であることを検証します。
func TestBuilder_EffectiveMinimum(t *testing.T) {
	t.Parallel()

	b := NewBuilder(7, 30)

	var ide *domain.InsufficientDataError
	require.ErrorAs(t, b.CheckSufficient(35), &ide)
	assert.Equal(t, 7, ide.Have)
	assert.Equal(t, 8, ide.Need)

	ds, err := b.Build(sequence(36))
	require.NoError(t, err)
	assert.Equal(t, 28, ds.SplitIndex)
	assert.Len(t, ds.Test, 1)
}

func TestNewBuilder_Defaults(t *testing.T) {
	t.Parallel()

	b := NewBuilder(0, -1)
	assert.Equal(t, DefaultInputSize, b.InputSize())
	assert.Equal(t, DefaultMinRecords, b.minRecords)
}

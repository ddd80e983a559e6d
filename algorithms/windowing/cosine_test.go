package windowing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		kind  string
		first float64
		mid   float64
	}{
		{"hann", 0, 1},
		{"", 0, 1},
		{"Hamming", 0.08, 1},
		{"blackman", 0, 1},
		{"rectangular", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			w, err := New(tt.kind, 8)
			require.NoError(t, err)
			coeffs := w.GetCoefficients()
			require.Len(t, coeffs, 8)
			assert.InDelta(t, tt.first, coeffs[0], 1e-12)
			assert.InDelta(t, tt.mid, coeffs[4], 1e-12)
		})
	}

	_, err := New("kaiser", 8)
	assert.Error(t, err)
	_, err = New("hann", 0)
	assert.Error(t, err)
}

func TestCosineSumApply(t *testing.T) {
	w := NewHamming(4)
	assert.Equal(t, "hamming", w.GetType())
	assert.Equal(t, 4, w.GetSize())

	out := w.Apply([]float64{1, 1, 1, 1})
	assert.InDeltaSlice(t, w.GetCoefficients(), out, 1e-12)
	assert.Nil(t, w.Apply([]float64{1}))

	frame := []float64{2, 2, 2, 2}
	require.NoError(t, NewRectangular(4).ApplyInPlace(frame))
	assert.Equal(t, []float64{2, 2, 2, 2}, frame)
	assert.Error(t, w.ApplyInPlace(frame[:3]))
}

package windowing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodicHann(t *testing.T) {
	h := NewPeriodicHann(4)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 0.5}, h.GetCoefficients(), 1e-12)
}

func TestSymmetricHann(t *testing.T) {
	h := NewHann(5, true)
	coeffs := h.GetCoefficients()
	require.Len(t, coeffs, 5)
	assert.InDelta(t, 0, coeffs[0], 1e-12)
	assert.InDelta(t, 1, coeffs[2], 1e-12)
	assert.InDelta(t, 0, coeffs[4], 1e-12)
}

func TestPeriodicHannOverlapAdd(t *testing.T) {
	// periodic Hann at 75% overlap sums to a constant 2
	const n, hop = 16, 4
	coeffs := NewPeriodicHann(n).GetCoefficients()
	sum := make([]float64, n*4)
	for start := 0; start+n <= len(sum); start += hop {
		for i, c := range coeffs {
			sum[start+i] += c
		}
	}
	for i := n; i < len(sum)-n; i++ {
		assert.InDelta(t, 2.0, sum[i], 1e-9)
	}
}

func TestApply(t *testing.T) {
	h := NewPeriodicHann(4)

	out := h.Apply([]float64{2, 2, 2, 2})
	assert.InDeltaSlice(t, []float64{0, 1, 2, 1}, out, 1e-12)
	assert.Nil(t, h.Apply([]float64{1}))

	sig := []float64{1, 1, 1, 1}
	require.NoError(t, h.ApplyInPlace(sig))
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 0.5}, sig, 1e-12)
	assert.Error(t, h.ApplyInPlace([]float64{1, 2}))
}

func TestDegenerateSizes(t *testing.T) {
	assert.Empty(t, NewPeriodicHann(0).GetCoefficients())
	assert.Equal(t, []float64{1}, NewPeriodicHann(1).GetCoefficients())
}

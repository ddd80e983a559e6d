package chroma

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-genre/algorithms/spectral"
	"github.com/RyanBlaney/sonido-genre/algorithms/windowing"
)

const (
	sampleRate = 22050
	fftSize    = 2048
)

func powerSpectrogram(t *testing.T, freq float64) [][]float64 {
	t.Helper()
	signal := make([]float64, sampleRate)
	for i := range signal {
		signal[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	res, err := spectral.NewSTFT().Compute(signal, spectral.STFTParams{
		WindowSize: fftSize,
		HopSize:    512,
		SampleRate: sampleRate,
		Center:     true,
		Window:     windowing.NewPeriodicHann(fftSize),
	})
	require.NoError(t, err)
	return res.Power()
}

func TestChromaSTFT_PitchClasses(t *testing.T) {
	cs := NewChromaSTFTDefault(sampleRate, fftSize)

	tests := []struct {
		name string
		freq float64
		want int
	}{
		{"A4", 440, 9},
		{"C5", 523.25, 0},
		{"E4", 329.63, 4},
		{"G3", 196.00, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chromagram := cs.ComputeFrames(powerSpectrogram(t, tt.freq))
			mid := chromagram[len(chromagram)/2]

			require.Len(t, mid, NumChroma)
			assert.Equal(t, tt.want, cs.GetDominantChroma([][]float64{mid})[0])
			assert.InDelta(t, 1.0, mid[tt.want], 1e-12, "frames are max-normalized")
		})
	}
}

func TestChromaSTFT_SilentFramesStayZero(t *testing.T) {
	cs := NewChromaSTFTDefault(sampleRate, fftSize)
	chromagram := cs.ComputeFrames([][]float64{make([]float64, fftSize/2+1)})
	assert.Equal(t, make([]float64, NumChroma), chromagram[0])
}

func TestChromaSTFT_FilterBankShape(t *testing.T) {
	cs := NewChromaSTFTDefault(sampleRate, fftSize)
	require.Len(t, cs.weights, NumChroma)
	for _, row := range cs.weights {
		assert.Len(t, row, fftSize/2+1)
		for _, w := range row {
			assert.GreaterOrEqual(t, w, 0.0)
		}
	}
	assert.Len(t, cs.GetChromaLabels(), NumChroma)
	assert.Zero(t, cs.GetTuning())
}

func TestFloorMod(t *testing.T) {
	assert.InDelta(t, 2.0, floorMod(-10, 12), 1e-12)
	assert.InDelta(t, 5.5, floorMod(17.5, 12), 1e-12)
}

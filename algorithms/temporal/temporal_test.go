package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sampleRate = 22050
	hopSize    = 512
	fftSize    = 2048
)

// clickEnvelope builds an onset envelope with one impulse every period frames
func clickEnvelope(frames, period int) []float64 {
	env := make([]float64, frames)
	for i := 0; i < frames; i += period {
		env[i] = 1
	}
	return env
}

func TestOnsetStrength_AlignmentAndLength(t *testing.T) {
	// constant energy with a single jump at frame 5
	mel := make([][]float64, 10)
	for i := range mel {
		level := 1e-6
		if i >= 5 {
			level = 1
		}
		mel[i] = []float64{level, level, level}
	}

	env := NewOnsetDetection().OnsetStrength(mel, fftSize, hopSize)
	require.Len(t, env, len(mel))

	// flux index 4 (frame 5 vs 4) is shifted by lag 1 + 2048/(2*512) = 3
	peak := 0
	for i, v := range env {
		if v > env[peak] {
			peak = i
		}
	}
	assert.Equal(t, 4+3, peak)
	assert.InDelta(t, 60, env[peak], 1e-9)
	assert.Zero(t, env[0])
}

func TestOnsetStrength_Empty(t *testing.T) {
	assert.Empty(t, NewOnsetDetection().OnsetStrength(nil, fftSize, hopSize))
}

func TestEstimateTempo_PeriodicClicks(t *testing.T) {
	te := NewTempoEstimation()

	// 21 frames at 22050/512 frames per second is about 123 BPM
	env := clickEnvelope(1200, 21)
	bpm := te.EstimateTempo(env, sampleRate, hopSize)

	want := lagToBPM(21, sampleRate, hopSize)
	assert.InDelta(t, want, bpm, 0.5)
}

func TestEstimateTempo_Silence(t *testing.T) {
	te := NewTempoEstimation()
	assert.Zero(t, te.EstimateTempo(make([]float64, 500), sampleRate, hopSize))
	assert.Zero(t, te.EstimateTempo(nil, sampleRate, hopSize))
	assert.Zero(t, te.EstimateTempo([]float64{1, 0, 1}, sampleRate, 0))
}

func TestEstimateTempo_RespectsMaxTempo(t *testing.T) {
	te := NewTempoEstimation()
	bpm := te.EstimateTempo(clickEnvelope(1200, 4), sampleRate, hopSize)
	assert.Less(t, bpm, te.MaxTempo)
	assert.Greater(t, bpm, 0.0)
}

func TestLinearRampPad(t *testing.T) {
	out := linearRampPad([]float64{4, 2}, 2)
	assert.InDeltaSlice(t, []float64{0, 2, 4, 2, 1, 0}, out, 1e-12)
	assert.Equal(t, []float64{1}, linearRampPad([]float64{1}, 0))
}

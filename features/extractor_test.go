package features

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-genre/transcode"
)

const sampleRate = 22050

type fakeDecoder struct {
	audio *transcode.AudioData
	err   error
	calls int
}

func (f *fakeDecoder) DecodeFile(ctx context.Context, path string) (*transcode.AudioData, error) {
	f.calls++
	return f.audio, f.err
}

func sine(freq float64, seconds float64) *transcode.AudioData {
	pcm := make([]float64, int(seconds*sampleRate))
	for i := range pcm {
		pcm[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return transcode.NewAudioData(pcm, sampleRate)
}

func whiteNoise(seconds float64) *transcode.AudioData {
	rng := rand.New(rand.NewPCG(1, 2))
	pcm := make([]float64, int(seconds*sampleRate))
	for i := range pcm {
		pcm[i] = rng.Float64()*2 - 1
	}
	return transcode.NewAudioData(pcm, sampleRate)
}

func TestLayout(t *testing.T) {
	assert.Equal(t, 52, VectorLength)
	assert.Equal(t, 11, OffsetTempo)
	assert.Equal(t, 12, OffsetMFCCMean)
	assert.Equal(t, 38, OffsetChroma)
	assert.Equal(t, 50, OffsetZCR)

	var v Vector
	assert.Len(t, v.Spectral(), 11)
	assert.Len(t, v.MFCC(), 26)
	assert.Len(t, v.Chroma(), 12)
}

func TestFromSlice(t *testing.T) {
	_, err := FromSlice(make([]float64, 48))
	assert.ErrorIs(t, err, ErrInvalidLength)

	values := make([]float64, VectorLength)
	values[OffsetTempo] = 120
	v, err := FromSlice(values)
	require.NoError(t, err)
	assert.Equal(t, 120.0, v.Rhythm())

	// Values is a copy
	out := v.Values()
	out[0] = 1
	assert.Zero(t, v[0])
}

func TestFirstNonFinite(t *testing.T) {
	var v Vector
	assert.Equal(t, -1, v.FirstNonFinite())
	v[7] = math.NaN()
	assert.Equal(t, 7, v.FirstNonFinite())
	v[3] = math.Inf(1)
	assert.Equal(t, 3, v.FirstNonFinite())
}

func TestExtract_FixedLengthForAnyDuration(t *testing.T) {
	for _, seconds := range []float64{5, 30, 120} {
		dec := &fakeDecoder{audio: whiteNoise(seconds)}
		e := NewExtractor(nil, dec)

		v, audio, err := e.Extract(context.Background(), "noise.wav")
		require.NoError(t, err, "duration %v", seconds)
		assert.Len(t, v.Values(), VectorLength)
		assert.Equal(t, -1, v.FirstNonFinite())
		assert.LessOrEqual(t, audio.Duration, 30*time.Second)
		assert.Equal(t, 1, dec.calls)
	}
}

func TestExtract_ZeroCrossingSineVersusNoise(t *testing.T) {
	e := NewExtractor(nil, nil)

	tone, err := e.ExtractWaveform(sine(440, 5))
	require.NoError(t, err)
	noise, err := e.ExtractWaveform(whiteNoise(5))
	require.NoError(t, err)

	toneZCR, _ := tone.ZeroCrossing()
	noiseZCR, _ := noise.ZeroCrossing()

	// 440 Hz crosses zero 880 times a second
	assert.InDelta(t, 880.0/sampleRate, toneZCR, 0.005)
	assert.Greater(t, noiseZCR, 10*toneZCR)
}

func TestExtract_ToneFeatures(t *testing.T) {
	v, err := NewExtractor(nil, nil).ExtractWaveform(sine(440, 5))
	require.NoError(t, err)

	assert.InDelta(t, 440, v[OffsetCentroid], 40)
	assert.Greater(t, v[OffsetRolloff], 400.0)
	assert.Less(t, v[OffsetRolloff], 600.0)

	// A is pitch class 9 and chroma is max-normalized per frame
	chroma := v.Chroma()
	for k, c := range chroma {
		if k != 9 {
			assert.Less(t, c, chroma[9])
		}
	}
	assert.InDelta(t, 1.0, chroma[9], 0.05)
}

func TestExtract_Deterministic(t *testing.T) {
	e := NewExtractor(nil, nil)
	a, err := e.ExtractWaveform(whiteNoise(3))
	require.NoError(t, err)
	b, err := e.ExtractWaveform(whiteNoise(3))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExtract_Silence(t *testing.T) {
	v, err := NewExtractor(nil, nil).ExtractWaveform(transcode.NewAudioData(make([]float64, sampleRate), sampleRate))
	require.NoError(t, err)
	assert.Zero(t, v.Rhythm())
	assert.Equal(t, -1, v.FirstNonFinite())
}

func TestExtract_Errors(t *testing.T) {
	e := NewExtractor(nil, &fakeDecoder{err: errors.New("boom")})
	_, _, err := e.Extract(context.Background(), "missing.mp3")
	assert.ErrorIs(t, err, ErrExtraction)
	assert.ErrorContains(t, err, "boom")

	_, err = e.ExtractWaveform(transcode.NewAudioData(nil, sampleRate))
	assert.ErrorIs(t, err, ErrExtraction)
	assert.ErrorIs(t, err, transcode.ErrEmptyAudio)

	_, _, err = NewExtractor(nil, nil).Extract(context.Background(), "x.wav")
	assert.ErrorIs(t, err, ErrExtraction)

	// octave bands up to 6.4 kHz do not fit under a 4 kHz Nyquist
	// centroid and rolloff are computed before contrast fails
	tone := sine(440, 1)
	tone.SampleRate = 8000
	v, err := e.ExtractWaveform(tone)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.Equal(t, Vector{}, v)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"negative duration", func(c *Config) { c.MaxDuration = -time.Second }},
		{"unbounded duration", func(c *Config) { c.MaxDuration = 0 }},
		{"contrast above nyquist", func(c *Config) { c.SampleRate = 12800 }},
		{"contrast fmin", func(c *Config) { c.ContrastFMin = 0 }},
		{"fft size", func(c *Config) { c.FFTSize = 1 }},
		{"hop larger than fft", func(c *Config) { c.HopSize = 4096 }},
		{"too few mels", func(c *Config) { c.NumMels = 8 }},
		{"roll percent", func(c *Config) { c.RollPercent = 1 }},
		{"contrast bands", func(c *Config) { c.ContrastBands = 4 }},
		{"tuning", func(c *Config) { c.Tuning = 0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

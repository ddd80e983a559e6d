package spectrogram

import (
	"fmt"

	"github.com/RyanBlaney/sonido-genre/algorithms/spectral"
	"github.com/RyanBlaney/sonido-genre/algorithms/windowing"
	"github.com/RyanBlaney/sonido-genre/transcode"
)

// MelSpectrogram is a decibel-scaled mel power spectrogram
type MelSpectrogram struct {
	DB          [][]float64 // Time x Mel, dB relative to the loudest cell
	CenterFreqs []float64   // Hz, one per mel band
	Times       []float64 // seconds, center of each frame
	SampleRate  int
}

// Frames returns the number of time frames
func (m *MelSpectrogram) Frames() int { return len(m.DB) }

// Bands returns the number of mel bands
func (m *MelSpectrogram) Bands() int { return len(m.CenterFreqs) }

// FrameTime returns the time in seconds at the center of frame t
func (m *MelSpectrogram) FrameTime(t int) float64 {
	return m.Times[t]
}

// ComputeMel computes the mel spectrogram that Render draws
func ComputeMel(audio *transcode.AudioData, cfg RenderConfig) (*MelSpectrogram, error) {
	if audio.IsEmpty() {
		return nil, transcode.ErrEmptyAudio
	}

	window, err := windowing.New(cfg.Window, cfg.FFTSize)
	if err != nil {
		return nil, err
	}

	stft, err := spectral.NewSTFT().Compute(audio.PCM, spectral.STFTParams{
		WindowSize: cfg.FFTSize,
		HopSize:    cfg.HopSize,
		SampleRate: audio.SampleRate,
		Center:     true,
		Window:     window,
	})
	if err != nil {
		return nil, fmt.Errorf("stft: %w", err)
	}

	fb, err := spectral.NewMelScale().NewMelFilterBank(cfg.NumMels, cfg.FFTSize, audio.SampleRate, 0, cfg.FMax)
	if err != nil {
		return nil, err
	}

	mel := fb.ApplyFrames(stft.Power())
	return &MelSpectrogram{
		DB:          spectral.NewPowerSpectrum().ToDB(mel, spectral.PeakDBParams()),
		CenterFreqs: fb.CenterFreq,
		Times:       stft.FrameTimes(),
		SampleRate:  audio.SampleRate,
	}, nil
}

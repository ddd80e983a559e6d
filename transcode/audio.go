package transcode

import (
	"errors"
	"time"
)

var (
	// ErrEmptyAudio is returned when decoding yields no samples at all.
	ErrEmptyAudio = errors.New("no audio samples decoded")

	// ErrNoAudioStream is returned when the input has no audio stream to decode.
	ErrNoAudioStream = errors.New("no audio streams found")
)

// AudioData represents a decoded mono waveform
type AudioData struct {
	PCM        []float64      `json:"-"` // Samples in [-1, 1]
	SampleRate int            `json:"sample_rate"`
	Channels   int            `json:"channels"`
	Duration   time.Duration  `json:"duration"`
	Timestamp  time.Time      `json:"timestamp"`
	Source     *AudioMetadata `json:"source,omitempty"`
}

// NewAudioData wraps already decoded mono samples.
func NewAudioData(pcm []float64, sampleRate int) *AudioData {
	return &AudioData{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   1,
		Duration:   samplesToDuration(len(pcm), sampleRate),
		Timestamp:  time.Now(),
	}
}

// Truncate returns a view of the waveform limited to maxDuration. The PCM
// slice is shared with the receiver. A non-positive maxDuration, or a
// waveform already shorter than it, returns the receiver unchanged.
func (a *AudioData) Truncate(maxDuration time.Duration) *AudioData {
	if a == nil || maxDuration <= 0 || a.SampleRate <= 0 {
		return a
	}

	maxSamples := int(maxDuration.Seconds() * float64(a.SampleRate))
	if len(a.PCM) <= maxSamples {
		return a
	}

	out := *a
	out.PCM = a.PCM[:maxSamples]
	out.Duration = samplesToDuration(maxSamples, a.SampleRate)
	return &out
}

// IsEmpty reports whether there is nothing to analyze.
func (a *AudioData) IsEmpty() bool {
	return a == nil || len(a.PCM) == 0 || a.SampleRate <= 0
}

func samplesToDuration(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

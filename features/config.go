package features

import (
	"fmt"
	"math"
	"time"

	"github.com/RyanBlaney/sonido-genre/algorithms/spectral"
)

// Config holds the analysis parameters of the feature extractor
type Config struct {
	SampleRate  int           `json:"sample_rate"`
	MaxDuration time.Duration `json:"max_duration"`
	FFTSize     int           `json:"fft_size"`
	HopSize     int           `json:"hop_size"`

	NumMels     int     `json:"num_mels"`
	RollPercent float64 `json:"roll_percent"`

	ContrastBands    int     `json:"contrast_bands"`
	ContrastFMin     float64 `json:"contrast_fmin"`
	ContrastQuantile float64 `json:"contrast_quantile"`

	// Tuning deviation in fractions of a chroma bin
	Tuning float64 `json:"tuning"`

	// ZCR framing follows the STFT when zero
	ZCRFrameSize int `json:"zcr_frame_size"`
	ZCRHopSize   int `json:"zcr_hop_size"`
}

// DefaultConfig returns the parameters the genre scorer was tuned against
func DefaultConfig() *Config {
	return &Config{
		SampleRate:       22050,
		MaxDuration:      30 * time.Second,
		FFTSize:          2048,
		HopSize:          512,
		NumMels:          128,
		RollPercent:      spectral.DefaultRollPercent,
		ContrastBands:    NumContrast - 1,
		ContrastFMin:     200,
		ContrastQuantile: 0.02,
	}
}

// Validate checks that the configuration produces a vector of the fixed layout
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.MaxDuration <= 0 {
		return fmt.Errorf("max duration must be positive, got %s", c.MaxDuration)
	}
	if c.FFTSize < 2 {
		return fmt.Errorf("fft size must be at least 2, got %d", c.FFTSize)
	}
	if c.HopSize <= 0 || c.HopSize > c.FFTSize {
		return fmt.Errorf("hop size must be in (0, %d], got %d", c.FFTSize, c.HopSize)
	}
	if c.NumMels < NumMFCC {
		return fmt.Errorf("num mels must be at least %d, got %d", NumMFCC, c.NumMels)
	}
	if c.RollPercent <= 0 || c.RollPercent >= 1 {
		return fmt.Errorf("roll percent must be in (0, 1), got %f", c.RollPercent)
	}
	if c.ContrastBands != NumContrast-1 {
		return fmt.Errorf("contrast bands must be %d, got %d", NumContrast-1, c.ContrastBands)
	}
	if c.ContrastFMin <= 0 {
		return fmt.Errorf("contrast fmin must be positive, got %f", c.ContrastFMin)
	}
	// the top octave edge has to stay below Nyquist
	if edge := c.ContrastFMin * math.Pow(2, float64(c.ContrastBands-1)); edge >= float64(c.SampleRate)/2 {
		return fmt.Errorf("contrast band edge %.0f Hz must be below Nyquist %.0f Hz", edge, float64(c.SampleRate)/2)
	}
	if c.Tuning < -0.5 || c.Tuning >= 0.5 {
		return fmt.Errorf("tuning must be in [-0.5, 0.5), got %f", c.Tuning)
	}
	return nil
}

func (c *Config) zcrFraming() (frame, hop int) {
	frame, hop = c.ZCRFrameSize, c.ZCRHopSize
	if frame <= 0 {
		frame = c.FFTSize
	}
	if hop <= 0 {
		hop = c.HopSize
	}
	return frame, hop
}

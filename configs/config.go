package configs

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-genre/classifier"
	"github.com/RyanBlaney/sonido-genre/features"
	"github.com/RyanBlaney/sonido-genre/logging"
	"github.com/RyanBlaney/sonido-genre/spectrogram"
	"github.com/RyanBlaney/sonido-genre/transcode"
)

// OutputFormats accepted by the CLI
var OutputFormats = []string{"json", "yaml", "table"}

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`

	// Decoding
	Audio AudioConfig `mapstructure:"audio"`

	// Feature extraction
	Features FeaturesConfig `mapstructure:"features"`

	// Spectrogram image
	Spectrogram SpectrogramConfig `mapstructure:"spectrogram"`

	// Genre scoring
	Scorer ScorerConfig `mapstructure:"scorer"`

	// HTTP upload service
	Server ServerConfig `mapstructure:"server"`
}

// AudioConfig contains decoder settings
type AudioConfig struct {
	SampleRate      int           `mapstructure:"sample_rate"`
	MaxDuration     time.Duration `mapstructure:"max_duration"`
	ResampleQuality string        `mapstructure:"resample_quality"`
	FFmpegPath      string        `mapstructure:"ffmpeg_path"`
	FFprobePath     string        `mapstructure:"ffprobe_path"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// FeaturesConfig contains feature extraction settings
type FeaturesConfig struct {
	FFTSize     int     `mapstructure:"fft_size"`
	HopSize     int     `mapstructure:"hop_size"`
	MelBins     int     `mapstructure:"mel_bins"`
	RollPercent float64 `mapstructure:"roll_percent"`
	Tuning      float64 `mapstructure:"tuning"`
}

// SpectrogramConfig contains image settings
type SpectrogramConfig struct {
	MelBins int     `mapstructure:"mel_bins"`
	FMax    float64 `mapstructure:"fmax"`
	Window  string  `mapstructure:"window"`
	Width   float64 `mapstructure:"width"`  // inches
	Height  float64 `mapstructure:"height"` // inches
	DPI     int     `mapstructure:"dpi"`
	Title   string  `mapstructure:"title"`
}

// ScorerConfig contains genre scoring settings
type ScorerConfig struct {
	NoiseStdDev float64 `mapstructure:"noise_stddev"`
	Seed        uint64  `mapstructure:"seed"` // 0 seeds from the clock
}

// ServerConfig contains HTTP upload service settings
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TempDir         string        `mapstructure:"temp_dir"`
}

// Load applies defaults and decodes the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	config.LogLevel = strings.ToLower(strings.TrimSpace(config.LogLevel))
	config.OutputFormat = strings.ToLower(strings.TrimSpace(config.OutputFormat))

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if !slices.Contains(OutputFormats, c.OutputFormat) {
		return fmt.Errorf("output format must be one of %s, got %q", strings.Join(OutputFormats, ", "), c.OutputFormat)
	}

	if c.Audio.Timeout <= 0 {
		return fmt.Errorf("decoder timeout must be positive")
	}

	if err := transcode.NewDecoder(c.DecoderConfig()).ValidateConfig(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}

	if err := c.FeatureConfig().Validate(); err != nil {
		return fmt.Errorf("features: %w", err)
	}

	if err := c.RenderConfig().Validate(); err != nil {
		return fmt.Errorf("spectrogram: %w", err)
	}

	if c.Scorer.NoiseStdDev < 0 {
		return fmt.Errorf("scorer noise stddev cannot be negative")
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server max upload bytes must be positive")
	}

	return nil
}

// Level returns the parsed log level, debug when verbose is set
func (c *Config) Level() logging.Level {
	if c.Verbose {
		return logging.DebugLevel
	}
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return logging.InfoLevel
	}
	return level
}

// DecoderConfig builds the transcode configuration
func (c *Config) DecoderConfig() *transcode.DecoderConfig {
	dc := transcode.DefaultDecoderConfig()
	dc.TargetSampleRate = c.Audio.SampleRate
	dc.MaxDuration = c.Audio.MaxDuration
	dc.ResampleQuality = c.Audio.ResampleQuality
	dc.Timeout = c.Audio.Timeout
	if c.Audio.FFmpegPath != "" {
		dc.FFmpegPath = c.Audio.FFmpegPath
	}
	if c.Audio.FFprobePath != "" {
		dc.FFprobePath = c.Audio.FFprobePath
	}
	return dc
}

// FeatureConfig builds the feature extractor configuration
func (c *Config) FeatureConfig() *features.Config {
	fc := features.DefaultConfig()
	fc.SampleRate = c.Audio.SampleRate
	fc.MaxDuration = c.Audio.MaxDuration
	fc.FFTSize = c.Features.FFTSize
	fc.HopSize = c.Features.HopSize
	fc.NumMels = c.Features.MelBins
	fc.RollPercent = c.Features.RollPercent
	fc.Tuning = c.Features.Tuning
	return fc
}

// RenderConfig builds the spectrogram renderer configuration
func (c *Config) RenderConfig() spectrogram.RenderConfig {
	rc := spectrogram.DefaultRenderConfig()
	rc.NumMels = c.Spectrogram.MelBins
	rc.FMax = c.Spectrogram.FMax
	rc.Window = c.Spectrogram.Window
	rc.FFTSize = c.Features.FFTSize
	rc.HopSize = c.Features.HopSize
	rc.WidthInches = c.Spectrogram.Width
	rc.HeightInches = c.Spectrogram.Height
	rc.DPI = c.Spectrogram.DPI
	rc.Title = c.Spectrogram.Title
	return rc
}

// NoiseSource builds the scorer jitter. A zero stddev scores deterministically.
func (c *Config) NoiseSource() classifier.NoiseSource {
	if c.Scorer.NoiseStdDev == 0 {
		return classifier.ZeroNoise{}
	}
	return classifier.NewGaussianNoise(c.Scorer.NoiseStdDev, c.Scorer.Seed)
}

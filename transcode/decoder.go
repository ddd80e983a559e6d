package transcode

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-genre/logging"
)

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"`
	TargetChannels   int           `json:"target_channels"`
	MaxDuration      time.Duration `json:"max_duration"`
	ResampleQuality  string        `json:"resample_quality"` // "fast", "medium", "high"
	FFmpegPath       string        `json:"ffmpeg_path"`
	FFprobePath      string        `json:"ffprobe_path"`
	Timeout          time.Duration `json:"timeout"` // per ffmpeg/ffprobe invocation
}

// DefaultDecoderConfig returns the analysis defaults: 22.05 kHz mono, first 30 seconds.
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 22050,
		TargetChannels:   1,
		MaxDuration:      30 * time.Second,
		ResampleQuality:  "high",
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		Timeout:          60 * time.Second,
	}
}

// AudioMetadata holds detected audio properties from FFprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	Format     string  `json:"format"`
}

// Decoder turns audio files into mono float64 PCM using FFmpeg
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{"component": "audio_decoder"}),
	}
}

// Config returns the decoder configuration
func (d *Decoder) Config() DecoderConfig {
	return *d.config
}

// DecodeFile decodes the first audio stream of filename, downmixed to mono,
// resampled to the target rate and truncated to MaxDuration.
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	logger := d.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "DecodeFile",
		"filename": filename,
	})

	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("cannot open audio file: %w", err)
	}

	logger.Debug("Starting audio file decode")

	metadata, err := d.probeAudioFile(ctx, filename)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
		"input_bitrate":     metadata.Bitrate,
	})

	args := d.buildFFmpegArgs(filename, metadata)
	output, err := d.run(ctx, d.config.FFmpegPath, args)
	if err != nil {
		logger.Error(err, "FFmpeg decode failed")
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	audio, err := d.processFFmpegOutput(output, metadata)
	if err != nil {
		return nil, err
	}

	logger.Debug("FFmpeg decode completed", logging.Fields{
		"output_samples":  len(audio.PCM),
		"output_duration": audio.Duration.Seconds(),
	})

	return audio, nil
}

// run executes a binary with the per-invocation timeout and returns its stdout.
// Stderr from a failed process is folded into the returned error.
func (d *Decoder) run(ctx context.Context, bin string, args []string) ([]byte, error) {
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, bin, args...)

	d.logger.Debug("Running command", logging.Fields{
		"command": bin + " " + strings.Join(args, " "),
	})

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("%s: %w, stderr: %s", bin, err, strings.TrimSpace(string(exitError.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", bin, err)
	}
	return output, nil
}

// probeAudioFile uses ffprobe to get audio information from a file
func (d *Decoder) probeAudioFile(ctx context.Context, filename string) (*AudioMetadata, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		filename,
	}

	output, err := d.run(ctx, d.config.FFprobePath, args)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeOutput(output)
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, ErrNoAudioStream
	}

	stream := probe.Streams[0]

	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil {
		sampleRate = 0 // unknown; ffmpeg resamples regardless
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	bitrate, err := strconv.Atoi(stream.BitRate)
	if err != nil {
		bitrate = 0
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}

// buildFFmpegArgs builds the ffmpeg arguments based on configuration and metadata
func (d *Decoder) buildFFmpegArgs(filename string, metadata *AudioMetadata) []string {
	args := []string{"-v", "error", "-i", filename, "-map", "0:a:0", "-vn"}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", d.config.MaxDuration.Seconds()))
	}

	args = append(args,
		"-f", "f64le",
		"-ac", strconv.Itoa(d.config.TargetChannels),
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
	)

	if metadata != nil && metadata.SampleRate != d.config.TargetSampleRate {
		if filter := resampleFilter(d.config.ResampleQuality); filter != "" {
			args = append(args, "-af", filter)
		}
	}

	return append(args, "pipe:1")
}

func resampleFilter(quality string) string {
	switch quality {
	case "fast":
		return "aresample=resampler=soxr:precision=16"
	case "medium":
		return "aresample=resampler=soxr:precision=20"
	case "high":
		return "aresample=resampler=soxr:precision=28"
	default:
		return ""
	}
}

// processFFmpegOutput converts raw ffmpeg output into AudioData
func (d *Decoder) processFFmpegOutput(output []byte, inputMetadata *AudioMetadata) (*AudioData, error) {
	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}

	// ffmpeg already downmixed; keep one interleaved channel only
	if d.config.TargetChannels > 1 {
		samples = downmix(samples, d.config.TargetChannels)
	}

	audio := NewAudioData(samples, d.config.TargetSampleRate)
	audio.Source = inputMetadata
	return audio, nil
}

// downmix averages interleaved channels into a single channel
func downmix(interleaved []float64, channels int) []float64 {
	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := range frames {
		var sum float64
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

// bytesToFloat64 converts raw little-endian float64 bytes to []float64
func bytesToFloat64(data []byte) []float64 {
	if len(data)%8 != 0 {
		data = data[:len(data)-(len(data)%8)]
	}

	if len(data) == 0 {
		return nil
	}

	sampleCount := len(data) / 8
	samples := make([]float64, sampleCount)

	for i := range sampleCount {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}

// ValidateConfig validates the decoder configuration
func (d *Decoder) ValidateConfig() error {
	if d.config.TargetSampleRate <= 0 {
		return fmt.Errorf("target sample rate must be positive: %d", d.config.TargetSampleRate)
	}

	if d.config.TargetChannels <= 0 || d.config.TargetChannels > 8 {
		return fmt.Errorf("target channels must be between 1 and 8: %d", d.config.TargetChannels)
	}

	if d.config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %v", d.config.Timeout)
	}

	if d.config.MaxDuration < 0 {
		return fmt.Errorf("max duration must not be negative: %v", d.config.MaxDuration)
	}

	switch d.config.ResampleQuality {
	case "", "fast", "medium", "high":
	default:
		return fmt.Errorf("unknown resample quality %q", d.config.ResampleQuality)
	}

	return nil
}

// CheckAvailability checks that ffmpeg and ffprobe can be executed
func (d *Decoder) CheckAvailability() error {
	if _, err := exec.LookPath(d.config.FFmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}

	if _, err := exec.LookPath(d.config.FFprobePath); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", d.config.FFprobePath, err)
	}

	return nil
}

// SupportedFormats returns the file extensions, without the dot, the decoder is expected to handle
func SupportedFormats() []string {
	return []string{
		"mp3", "wav", "flac", "ogg", "opus", "m4a", "aac", "wma", "webm", "mp4",
	}
}

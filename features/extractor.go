package features

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/sonido-genre/algorithms/chroma"
	"github.com/RyanBlaney/sonido-genre/algorithms/spectral"
	"github.com/RyanBlaney/sonido-genre/algorithms/temporal"
	"github.com/RyanBlaney/sonido-genre/algorithms/windowing"
	"github.com/RyanBlaney/sonido-genre/logging"
	"github.com/RyanBlaney/sonido-genre/transcode"
)

// ErrExtraction wraps every failure to produce a feature vector.
var ErrExtraction = errors.New("feature extraction failed")

// Decoder turns an audio file into a mono waveform
type Decoder interface {
	DecodeFile(ctx context.Context, path string) (*transcode.AudioData, error)
}

// Extractor computes the genre feature vector of a waveform
type Extractor struct {
	config  *Config
	decoder Decoder
	logger  logging.Logger
}

// NewExtractor creates an extractor. A nil config uses DefaultConfig.
func NewExtractor(config *Config, decoder Decoder) *Extractor {
	if config == nil {
		config = DefaultConfig()
	}
	return &Extractor{
		config:  config,
		decoder: decoder,
		logger: logging.WithFields(logging.Fields{
			"component": "feature_extractor",
		}),
	}
}

// Config returns a copy of the extractor configuration
func (e *Extractor) Config() Config {
	return *e.config
}

// Extract decodes path and computes its feature vector. The decoded waveform
// is returned as well so it can be rendered without decoding twice.
func (e *Extractor) Extract(ctx context.Context, path string) (Vector, *transcode.AudioData, error) {
	logger := e.logger.WithFields(logging.Fields{
		"function": "Extract",
		"path":     path,
	})

	if e.decoder == nil {
		return Vector{}, nil, fmt.Errorf("%w: no decoder configured", ErrExtraction)
	}

	start := time.Now()
	audio, err := e.decoder.DecodeFile(ctx, path)
	if err != nil {
		logger.Error(err, "Failed to decode audio")
		return Vector{}, nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	audio = audio.Truncate(e.config.MaxDuration)

	logger.Debug("Audio decoded", logging.Fields{
		"samples":     len(audio.PCM),
		"sample_rate": audio.SampleRate,
		"decode_time": time.Since(start).String(),
	})

	v, err := e.ExtractWaveform(audio)
	if err != nil {
		return Vector{}, nil, err
	}
	return v, audio, nil
}

// ExtractWaveform computes the feature vector of an in-memory waveform
func (e *Extractor) ExtractWaveform(audio *transcode.AudioData) (Vector, error) {
	var v Vector

	if audio.IsEmpty() {
		return Vector{}, fmt.Errorf("%w: %w", ErrExtraction, transcode.ErrEmptyAudio)
	}
	audio = audio.Truncate(e.config.MaxDuration)

	logger := e.logger.WithFields(logging.Fields{
		"function":    "ExtractWaveform",
		"samples":     len(audio.PCM),
		"sample_rate": audio.SampleRate,
	})
	start := time.Now()

	sr := audio.SampleRate
	cfg := e.config

	stft, err := spectral.NewSTFT().Compute(audio.PCM, spectral.STFTParams{
		WindowSize: cfg.FFTSize,
		HopSize:    cfg.HopSize,
		SampleRate: sr,
		Center:     true,
		Window:     windowing.NewPeriodicHann(cfg.FFTSize),
	})
	if err != nil {
		return Vector{}, fmt.Errorf("%w: stft: %w", ErrExtraction, err)
	}
	magnitude := stft.Magnitude
	power := stft.Power()

	// Spectral shape, on magnitudes
	centroid := spectral.NewSpectralCentroid(sr, cfg.FFTSize).ComputeFrames(magnitude)
	v[OffsetCentroid], v[OffsetCentroid+1] = stat.PopMeanVariance(centroid, nil)

	rolloff := spectral.NewSpectralRolloff(sr, cfg.FFTSize, cfg.RollPercent).ComputeFrames(magnitude)
	v[OffsetRolloff], v[OffsetRolloff+1] = stat.PopMeanVariance(rolloff, nil)

	sc, err := spectral.NewSpectralContrast(sr, cfg.FFTSize, spectral.SpectralContrastParams{
		NumBands: cfg.ContrastBands,
		FMin:     cfg.ContrastFMin,
		Quantile: cfg.ContrastQuantile,
	})
	if err != nil {
		return Vector{}, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	copy(v[OffsetContrast:OffsetContrast+NumContrast], columnMeans(sc.ComputeFrames(magnitude), NumContrast))

	// Mel power feeds both MFCC and the onset envelope
	fb, err := spectral.NewMelScale().NewMelFilterBank(cfg.NumMels, cfg.FFTSize, sr, 0, 0)
	if err != nil {
		return Vector{}, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	mel := fb.ApplyFrames(power)

	envelope := temporal.NewOnsetDetection().OnsetStrength(mel, cfg.FFTSize, cfg.HopSize)
	v[OffsetTempo] = temporal.NewTempoEstimation().EstimateTempo(envelope, sr, cfg.HopSize)

	mfcc, err := spectral.NewMFCC(NumMFCC, cfg.NumMels).ComputeFrames(mel)
	if err != nil {
		return Vector{}, fmt.Errorf("%w: mfcc: %w", ErrExtraction, err)
	}
	for k := range NumMFCC {
		v[OffsetMFCCMean+k], v[OffsetMFCCVar+k] = stat.PopMeanVariance(column(mfcc, k), nil)
	}

	cs := chroma.NewChromaSTFT(sr, cfg.FFTSize, chroma.Params{Tuning: cfg.Tuning})
	copy(v[OffsetChroma:OffsetChroma+NumChroma], columnMeans(cs.ComputeFrames(power), NumChroma))

	frame, hop := cfg.zcrFraming()
	zcr := spectral.NewZeroCrossingRateWithParams(frame, hop, true)
	v[OffsetZCR], v[OffsetZCR+1] = zcr.ComputeStatistics(zcr.ComputeFrames(audio.PCM))

	if i := v.FirstNonFinite(); i >= 0 {
		err := fmt.Errorf("%w: non-finite value %v at index %d", ErrExtraction, v[i], i)
		logger.Error(err, "Feature vector rejected")
		return Vector{}, err
	}

	logger.Debug("Features extracted", logging.Fields{
		"frames":  stft.TimeFrames,
		"tempo":   v[OffsetTempo],
		"elapsed": time.Since(start).String(),
	})
	return v, nil
}

func column(m [][]float64, k int) []float64 {
	out := make([]float64, len(m))
	for t, row := range m {
		out[t] = row[k]
	}
	return out
}

func columnMeans(m [][]float64, width int) []float64 {
	means := make([]float64, width)
	for k := range width {
		means[k] = stat.Mean(column(m, k), nil)
	}
	return means
}

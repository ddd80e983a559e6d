package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-genre/classifier"
	"github.com/RyanBlaney/sonido-genre/features"
	"github.com/RyanBlaney/sonido-genre/logging"
	"github.com/RyanBlaney/sonido-genre/transcode"
)

// FeatureExtractor produces feature vectors from files and waveforms
type FeatureExtractor interface {
	Extract(ctx context.Context, path string) (features.Vector, *transcode.AudioData, error)
	ExtractWaveform(audio *transcode.AudioData) (features.Vector, error)
}

// Renderer produces the spectrogram image of a waveform
type Renderer interface {
	Render(audio *transcode.AudioData) ([]byte, error)
}

// Scorer ranks genres for a feature vector
type Scorer interface {
	Score(v features.Vector) (*classifier.Classification, error)
}

// Analyzer runs one file through extraction, rendering and scoring
type Analyzer struct {
	extractor FeatureExtractor
	renderer  Renderer
	scorer    Scorer
	logger    logging.Logger
}

// NewAnalyzer wires the stages together. A nil logger uses the global logger.
func NewAnalyzer(extractor FeatureExtractor, renderer Renderer, scorer Scorer, logger logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Analyzer{
		extractor: extractor,
		renderer:  renderer,
		scorer:    scorer,
		logger:    logger.WithFields(logging.Fields{"component": "analyzer"}),
	}
}

// Analyze decodes path once and produces the merged result
func (a *Analyzer) Analyze(ctx context.Context, path string) (*Result, error) {
	if path == "" {
		return nil, ErrInvalidArguments
	}

	runID := uuid.NewString()
	logger := a.logger.WithFields(logging.Fields{
		"run_id": runID,
		"path":   path,
	})
	logger.Info("Analyzing audio file")

	start := time.Now()
	vector, audio, err := a.extractor.Extract(ctx, path)
	if err != nil {
		logger.Error(err, "Feature extraction failed")
		return nil, err
	}
	logger.Debug("Features extracted", logging.Fields{"elapsed": time.Since(start).String()})

	return a.finish(ctx, logger, runID, vector, audio)
}

// AnalyzeWaveform analyzes an in-memory waveform
func (a *Analyzer) AnalyzeWaveform(ctx context.Context, audio *transcode.AudioData) (*Result, error) {
	runID := uuid.NewString()
	logger := a.logger.WithFields(logging.Fields{"run_id": runID})

	vector, err := a.extractor.ExtractWaveform(audio)
	if err != nil {
		logger.Error(err, "Feature extraction failed")
		return nil, err
	}
	return a.finish(ctx, logger, runID, vector, audio)
}

func (a *Analyzer) finish(ctx context.Context, logger logging.Logger, runID string, vector features.Vector, audio *transcode.AudioData) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	img, err := a.renderer.Render(audio)
	if err != nil {
		logger.Error(err, "Spectrogram rendering failed")
		return nil, err
	}
	logger.Debug("Spectrogram rendered", logging.Fields{
		"bytes":   len(img),
		"elapsed": time.Since(start).String(),
	})

	c, err := a.scorer.Score(vector)
	if err != nil {
		logger.Error(err, "Scoring failed")
		return nil, fmt.Errorf("score: %w", err)
	}

	logger.Info("Analysis complete", logging.Fields{
		"genre":      c.Genre,
		"confidence": c.Confidence,
	})

	return &Result{
		Genre:          c.Genre,
		Confidence:     c.Confidence,
		TopGenres:      c.TopGenres,
		TopConfidences: c.TopConfidences,
		Spectrogram:    base64.StdEncoding.EncodeToString(img),
		RunID:          runID,
		Scores:         c.Scores,
		Features:       vector,
		Duration:       audio.Duration.Seconds(),
	}, nil
}

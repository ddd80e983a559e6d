package pipeline

import (
	"errors"

	"github.com/RyanBlaney/sonido-genre/classifier"
	"github.com/RyanBlaney/sonido-genre/features"
	"github.com/RyanBlaney/sonido-genre/spectrogram"
)

// ErrInvalidArguments is returned when the caller did not supply exactly one input.
var ErrInvalidArguments = errors.New("expected exactly one audio file argument")

// Result is the document written for a successful analysis
type Result struct {
	Genre          classifier.Genre   `json:"genre" yaml:"genre"`
	Confidence     float64            `json:"confidence" yaml:"confidence"`
	TopGenres      []classifier.Genre `json:"top_genres" yaml:"top_genres"`
	TopConfidences []float64          `json:"top_confidences" yaml:"top_confidences"`
	Spectrogram    string             `json:"spectrogram" yaml:"spectrogram"` // base64 PNG

	RunID    string             `json:"-" yaml:"-"`
	Scores   []classifier.Score `json:"-" yaml:"-"`
	Features features.Vector    `json:"-" yaml:"-"`
	Duration float64            `json:"-" yaml:"-"` // seconds analyzed
}

// ErrorResult is the document written for any failure
type ErrorResult struct {
	Error string `json:"error" yaml:"error"`
}

// Failure wraps err in the error document
func Failure(err error) ErrorResult {
	if err == nil {
		err = errors.New("unknown error")
	}
	return ErrorResult{Error: "Error analyzing audio: " + err.Error()}
}

// Error kinds reported by Kind
const (
	KindExtraction       = "extraction_failure"
	KindRender           = "render_failure"
	KindInvalidVector    = "invalid_feature_vector"
	KindInvalidArguments = "invalid_arguments"
	KindUnknown          = "unknown"
)

// Kind classifies an analysis error
func Kind(err error) string {
	switch {
	case errors.Is(err, features.ErrExtraction):
		return KindExtraction
	case errors.Is(err, spectrogram.ErrRender):
		return KindRender
	case errors.Is(err, classifier.ErrInvalidFeatureVector):
		return KindInvalidVector
	case errors.Is(err, ErrInvalidArguments):
		return KindInvalidArguments
	default:
		return KindUnknown
	}
}

package classifier

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/sonido-genre/features"
	"github.com/RyanBlaney/sonido-genre/logging"
)

// ErrInvalidFeatureVector is returned for vectors of the wrong length or with non-finite values.
var ErrInvalidFeatureVector = errors.New("invalid feature vector")

// TopN is the number of genres reported in the short list
const TopN = 3

// Score is the confidence assigned to one genre
type Score struct {
	Genre      Genre   `json:"genre"`
	Confidence float64 `json:"confidence"`
}

// Classification is the ranked outcome of scoring one vector
type Classification struct {
	Genre          Genre     `json:"genre"`
	Confidence     float64   `json:"confidence"`
	TopGenres      []Genre   `json:"top_genres"`
	TopConfidences []float64 `json:"top_confidences"`
	Scores         []Score   `json:"scores"` // all genres, best first
}

// Scorer turns feature vectors into genre confidences with fixed rules
type Scorer struct {
	noise  NoiseSource
	logger logging.Logger
}

// NewScorer creates a scorer. A nil noise source scores deterministically.
func NewScorer(noise NoiseSource) *Scorer {
	if noise == nil {
		noise = ZeroNoise{}
	}
	return &Scorer{
		noise: noise,
		logger: logging.WithFields(logging.Fields{
			"component": "genre_scorer",
		}),
	}
}

// ScoreValues validates a raw slice and scores it
func (s *Scorer) ScoreValues(values []float64) (*Classification, error) {
	v, err := features.FromSlice(values)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFeatureVector, err)
	}
	return s.Score(v)
}

// Score ranks all genres for v. Confidences are in [0, 1] and sum to 1.
func (s *Scorer) Score(v features.Vector) (*Classification, error) {
	if i := v.FirstNonFinite(); i >= 0 {
		return nil, fmt.Errorf("%w: value %v at index %d", ErrInvalidFeatureVector, v[i], i)
	}

	norm := normalize(v)
	r := regions{
		spectral: norm[features.SpectralStart:features.SpectralEnd],
		rhythm:   norm[features.RhythmIndex],
		mfcc:     norm[features.MFCCStart:features.MFCCEnd],
		chroma:   norm[features.ChromaStart:features.ChromaEnd],
	}

	raw := make([]float64, NumGenres)
	for i, rule := range rules {
		raw[i] = baseScore + rule(r) + s.noise.Sample()
	}

	conf := distribute(raw)

	scores := make([]Score, NumGenres)
	for i, g := range Genres {
		scores[i] = Score{Genre: g, Confidence: conf[i]}
	}
	slices.SortStableFunc(scores, func(a, b Score) int {
		switch {
		case a.Confidence > b.Confidence:
			return -1
		case a.Confidence < b.Confidence:
			return 1
		}
		return 0
	})

	c := &Classification{
		Genre:      scores[0].Genre,
		Confidence: scores[0].Confidence,
		Scores:     scores,
	}
	for _, sc := range scores[:TopN] {
		c.TopGenres = append(c.TopGenres, sc.Genre)
		c.TopConfidences = append(c.TopConfidences, sc.Confidence)
	}

	s.logger.Debug("Scored feature vector", logging.Fields{
		"genre":      c.Genre,
		"confidence": c.Confidence,
	})
	return c, nil
}

// normalize standardizes the vector with one mean and population standard
// deviation taken over all of its values. A constant vector maps to zeros.
func normalize(v features.Vector) []float64 {
	values := v.Values()
	mean, std := stat.PopMeanStdDev(values, nil)

	out := make([]float64, len(values))
	if std == 0 || math.IsNaN(std) {
		return out
	}
	for i, x := range values {
		out[i] = (x - mean) / std
	}
	return out
}

// distribute clips raw scores to [0, 1] and rescales them to sum to 1.
// If nothing survives clipping every genre gets the same share.
func distribute(raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, x := range raw {
		out[i] = math.Max(0, math.Min(1, x))
	}

	total := floats.Sum(out)
	if total <= 0 {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out
	}
	floats.Scale(1/total, out)
	return out
}

package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-genre/classifier"
	"github.com/RyanBlaney/sonido-genre/features"
	"github.com/RyanBlaney/sonido-genre/logging"
	"github.com/RyanBlaney/sonido-genre/spectrogram"
	"github.com/RyanBlaney/sonido-genre/transcode"
)

const sampleRate = 22050

type fakeDecoder struct {
	audio *transcode.AudioData
	err   error
}

func (f fakeDecoder) DecodeFile(ctx context.Context, path string) (*transcode.AudioData, error) {
	return f.audio, f.err
}

type failingRenderer struct{}

func (failingRenderer) Render(*transcode.AudioData) ([]byte, error) {
	return nil, spectrogram.ErrRender
}

func tone(seconds float64) *transcode.AudioData {
	pcm := make([]float64, int(seconds*sampleRate))
	for i := range pcm {
		pcm[i] = 0.4*math.Sin(2*math.Pi*330*float64(i)/sampleRate) + 0.1*math.Sin(2*math.Pi*2000*float64(i)/sampleRate)
	}
	return transcode.NewAudioData(pcm, sampleRate)
}

func newAnalyzer(dec features.Decoder) *Analyzer {
	return NewAnalyzer(
		features.NewExtractor(nil, dec),
		spectrogram.NewRenderer(spectrogram.DefaultRenderConfig()),
		classifier.NewScorer(classifier.ZeroNoise{}),
		&logging.NoOpLogger{},
	)
}

func TestAnalyze_Success(t *testing.T) {
	a := newAnalyzer(fakeDecoder{audio: tone(3)})

	res, err := a.Analyze(context.Background(), "song.wav")
	require.NoError(t, err)

	assert.True(t, res.Genre.Valid())
	assert.Equal(t, res.Genre, res.TopGenres[0])
	assert.Len(t, res.TopGenres, 3)
	assert.Len(t, res.TopConfidences, 3)
	assert.NotEmpty(t, res.RunID)
	assert.InDelta(t, 3.0, res.Duration, 1e-9)

	img, err := base64.StdEncoding.DecodeString(res.Spectrogram)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))

	// only the public fields are serialized
	raw, err := json.Marshal(res)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.ElementsMatch(t, []string{"genre", "confidence", "top_genres", "top_confidences", "spectrogram"}, keys(doc))
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := newAnalyzer(fakeDecoder{audio: tone(2)})
	first, err := a.Analyze(context.Background(), "a.wav")
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), "a.wav")
	require.NoError(t, err)

	assert.Equal(t, first.Genre, second.Genre)
	assert.Equal(t, first.TopConfidences, second.TopConfidences)
	assert.Equal(t, first.Spectrogram, second.Spectrogram)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestAnalyze_Errors(t *testing.T) {
	_, err := newAnalyzer(fakeDecoder{err: errors.New("no such file")}).Analyze(context.Background(), "missing.mp3")
	require.Error(t, err)
	assert.Equal(t, KindExtraction, Kind(err))
	assert.Equal(t, "Error analyzing audio: feature extraction failed: no such file", Failure(err).Error)

	_, err = newAnalyzer(fakeDecoder{}).Analyze(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidArguments)

	a := NewAnalyzer(features.NewExtractor(nil, fakeDecoder{audio: tone(1)}), failingRenderer{}, classifier.NewScorer(nil), nil)
	_, err = a.Analyze(context.Background(), "x.wav")
	assert.Equal(t, KindRender, Kind(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newAnalyzer(nil).AnalyzeWaveform(ctx, tone(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeWaveform(t *testing.T) {
	res, err := newAnalyzer(nil).AnalyzeWaveform(context.Background(), tone(1))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Spectrogram)

	_, err = newAnalyzer(nil).AnalyzeWaveform(context.Background(), transcode.NewAudioData(nil, sampleRate))
	assert.Equal(t, KindExtraction, Kind(err))
}

func TestKind(t *testing.T) {
	assert.Equal(t, KindInvalidVector, Kind(classifier.ErrInvalidFeatureVector))
	assert.Equal(t, KindInvalidArguments, Kind(ErrInvalidArguments))
	assert.Equal(t, KindUnknown, Kind(errors.New("other")))
	assert.Equal(t, "Error analyzing audio: unknown error", Failure(nil).Error)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-genre/transcode"
)

type fakeDecoder struct {
	audio *transcode.AudioData
	err   error
}

func (f fakeDecoder) DecodeFile(ctx context.Context, path string) (*transcode.AudioData, error) {
	return f.audio, f.err
}

func chord(seconds float64) *transcode.AudioData {
	const sr = 22050
	pcm := make([]float64, int(seconds*sr))
	for i := range pcm {
		x := float64(i) / sr
		pcm[i] = 0.3*math.Sin(2*math.Pi*261.63*x) + 0.3*math.Sin(2*math.Pi*329.63*x) + 0.3*math.Sin(2*math.Pi*392.00*x)
	}
	return transcode.NewAudioData(pcm, sr)
}

func execute(t *testing.T, dec fakeDecoder, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("SONIDO_GENRE_SCORER_NOISE_STDDEV", "0")

	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	a.decoder = dec
	code := run(context.Background(), a, args)
	return code, stdout.String(), stderr.String()
}

func decodeError(t *testing.T, out string) string {
	t.Helper()
	var doc map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	require.Len(t, doc, 1)
	return doc["error"]
}

func TestRun_ArgumentCount(t *testing.T) {
	for _, args := range [][]string{{}, {"a.mp3", "b.mp3"}} {
		code, out, _ := execute(t, fakeDecoder{}, args...)
		assert.Equal(t, 1, code)
		assert.Equal(t, "Invalid arguments. Usage: sonido-genre <audio_file_path>", decodeError(t, out))
		assert.Equal(t, 1, strings.Count(out, "\n"), "exactly one document")
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	code, out, _ := execute(t, fakeDecoder{}, "--bogus", "a.mp3")
	assert.Equal(t, 1, code)
	assert.Contains(t, decodeError(t, out), "Invalid arguments")
}

func TestRun_DecodeFailure(t *testing.T) {
	code, out, _ := execute(t, fakeDecoder{err: errors.New("file not found")}, "missing.mp3")
	assert.Equal(t, 1, code)

	msg := decodeError(t, out)
	assert.True(t, strings.HasPrefix(msg, "Error analyzing audio: "), msg)
	assert.Contains(t, msg, "file not found")
}

func TestRun_ReservedWordsAreFiles(t *testing.T) {
	for _, name := range []string{"help", "completion"} {
		t.Run(name, func(t *testing.T) {
			code, out, _ := execute(t, fakeDecoder{err: errors.New("no such file")}, name)
			assert.Equal(t, 1, code)

			msg := decodeError(t, out)
			assert.True(t, strings.HasPrefix(msg, "Error analyzing audio: "), msg)
			assert.Contains(t, msg, "no such file")
		})
	}
}

func TestRun_Success(t *testing.T) {
	code, out, _ := execute(t, fakeDecoder{audio: chord(3)}, "song.wav")
	require.Equal(t, 0, code, out)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	for _, key := range []string{"genre", "confidence", "top_genres", "top_confidences", "spectrogram"} {
		assert.Contains(t, doc, key)
	}
	assert.Len(t, doc["top_genres"], 3)
	assert.NotEmpty(t, doc["spectrogram"])
}

func TestRun_Deterministic(t *testing.T) {
	_, first, _ := execute(t, fakeDecoder{audio: chord(2)}, "a.wav")
	_, second, _ := execute(t, fakeDecoder{audio: chord(2)}, "a.wav")
	assert.Equal(t, first, second)
}

func TestRun_YAMLOutput(t *testing.T) {
	code, out, _ := execute(t, fakeDecoder{audio: chord(2)}, "-o", "yaml", "song.wav")
	require.Equal(t, 0, code, out)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "genre")
	assert.Contains(t, doc, "top_confidences")
}

func TestRun_TableOutput(t *testing.T) {
	code, out, _ := execute(t, fakeDecoder{audio: chord(2)}, "--output", "table", "song.wav")
	require.Equal(t, 0, code, out)

	assert.Contains(t, out, "Genre:")
	assert.Contains(t, out, "Confidence")
	assert.Contains(t, out, "Classical")
	assert.Contains(t, out, "Hiphop")
	assert.Contains(t, out, "%")
}

func TestRun_InvalidConfiguration(t *testing.T) {
	code, out, _ := execute(t, fakeDecoder{audio: chord(1)}, "--output", "csv", "song.wav")
	assert.Equal(t, 1, code)
	assert.Contains(t, decodeError(t, out), "output format")
}

func TestRun_HelpGoesToStderr(t *testing.T) {
	code, out, errOut := execute(t, fakeDecoder{}, "--help")
	assert.Equal(t, 0, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "sonido-genre")
}

func TestRun_VerboseLogsToStderr(t *testing.T) {
	code, out, errOut := execute(t, fakeDecoder{audio: chord(1)}, "-v", "song.wav")
	require.Equal(t, 0, code)
	assert.Contains(t, errOut, "Analysis complete")
	assert.NotContains(t, out, "Analysis complete")
}

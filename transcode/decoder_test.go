package transcode

import (
	"context"
	"encoding/binary"
	"math"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesToFloat64(t *testing.T) {
	want := []float64{0, 0.5, -1, 0.25}
	raw := make([]byte, len(want)*8+3) // trailing partial sample is dropped
	for i, v := range want {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}

	assert.Equal(t, want, bytesToFloat64(raw))
	assert.Nil(t, bytesToFloat64(nil))
	assert.Nil(t, bytesToFloat64([]byte{1, 2, 3}))
}

func TestParseFFprobeOutput(t *testing.T) {
	t.Run("audio stream", func(t *testing.T) {
		out := []byte(`{"streams":[{"codec_type":"audio","codec_name":"mp3","sample_rate":"44100",
			"channels":2,"duration":"12.5","bit_rate":"192000","codec_long_name":"MP3"}]}`)

		meta, err := parseFFprobeOutput(out)
		require.NoError(t, err)
		assert.Equal(t, 44100, meta.SampleRate)
		assert.Equal(t, 2, meta.Channels)
		assert.Equal(t, "mp3", meta.Codec)
		assert.InDelta(t, 12.5, meta.Duration, 1e-9)
		assert.Equal(t, 192000, meta.Bitrate)
	})

	t.Run("no streams", func(t *testing.T) {
		_, err := parseFFprobeOutput([]byte(`{"streams":[]}`))
		assert.ErrorIs(t, err, ErrNoAudioStream)
	})

	t.Run("video stream", func(t *testing.T) {
		_, err := parseFFprobeOutput([]byte(`{"streams":[{"codec_type":"video","channels":0}]}`))
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := parseFFprobeOutput([]byte(`not json`))
		assert.Error(t, err)
	})
}

func TestBuildFFmpegArgs(t *testing.T) {
	d := NewDecoder(nil)

	args := d.buildFFmpegArgs("song.mp3", &AudioMetadata{SampleRate: 44100})
	assert.Contains(t, args, "-t")
	assert.Contains(t, args, "30.000")
	assert.Contains(t, args, "22050")
	assert.Contains(t, args, "aresample=resampler=soxr:precision=28")
	assert.Equal(t, "pipe:1", args[len(args)-1])

	// no resample filter when the input already matches
	args = d.buildFFmpegArgs("song.wav", &AudioMetadata{SampleRate: 22050})
	assert.NotContains(t, args, "-af")

	cfg := DefaultDecoderConfig()
	cfg.MaxDuration = 0
	args = NewDecoder(cfg).buildFFmpegArgs("song.wav", nil)
	assert.NotContains(t, args, "-t")
}

func TestProcessFFmpegOutput(t *testing.T) {
	d := NewDecoder(nil)

	_, err := d.processFFmpegOutput(nil, &AudioMetadata{})
	assert.ErrorIs(t, err, ErrEmptyAudio)

	raw := make([]byte, 22050*8)
	audio, err := d.processFFmpegOutput(raw, &AudioMetadata{Codec: "pcm_s16le"})
	require.NoError(t, err)
	assert.Equal(t, 22050, audio.SampleRate)
	assert.Equal(t, 1, audio.Channels)
	assert.Equal(t, time.Second, audio.Duration)
	assert.Equal(t, "pcm_s16le", audio.Source.Codec)
}

func TestDownmix(t *testing.T) {
	assert.Equal(t, []float64{0.5, 0}, downmix([]float64{1, 0, 0.5, -0.5}, 2))
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, NewDecoder(nil).ValidateConfig())

	cfg := DefaultDecoderConfig()
	cfg.TargetSampleRate = 0
	assert.Error(t, NewDecoder(cfg).ValidateConfig())

	cfg = DefaultDecoderConfig()
	cfg.ResampleQuality = "ultra"
	assert.Error(t, NewDecoder(cfg).ValidateConfig())

	cfg = DefaultDecoderConfig()
	cfg.TargetChannels = 9
	assert.Error(t, NewDecoder(cfg).ValidateConfig())
}

func TestTruncate(t *testing.T) {
	audio := NewAudioData(make([]float64, 22050*5), 22050)

	short := audio.Truncate(2 * time.Second)
	assert.Len(t, short.PCM, 44100)
	assert.Equal(t, 2*time.Second, short.Duration)
	assert.Len(t, audio.PCM, 22050*5, "receiver is not modified")

	assert.Same(t, audio, audio.Truncate(10*time.Second))
	assert.Same(t, audio, audio.Truncate(0))
}

func TestIsEmpty(t *testing.T) {
	var nilAudio *AudioData
	assert.True(t, nilAudio.IsEmpty())
	assert.True(t, NewAudioData(nil, 22050).IsEmpty())
	assert.False(t, NewAudioData([]float64{0}, 22050).IsEmpty())
}

func TestDecodeFile_MissingFile(t *testing.T) {
	_, err := NewDecoder(nil).DecodeFile(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	assert.Error(t, err)
}

func TestDecodeFile_FFmpeg(t *testing.T) {
	d := NewDecoder(nil)
	if err := d.CheckAvailability(); err != nil {
		t.Skipf("ffmpeg not available: %v", err)
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	gen := exec.Command("ffmpeg", "-v", "error", "-f", "lavfi",
		"-i", "sine=frequency=440:sample_rate=44100:duration=2", "-ac", "2", path)
	require.NoError(t, gen.Run())

	audio, err := d.DecodeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 22050, audio.SampleRate)
	assert.InDelta(t, 44100, len(audio.PCM), 2048)
	assert.Equal(t, 2, audio.Source.Channels)
}

package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/atis-broadcast/internal/audio"
	"github.com/maauso/atis-broadcast/internal/audio/audiotest"
	"github.com/maauso/atis-broadcast/internal/mapping"
	"github.com/maauso/atis-broadcast/internal/prompt"
)

func words(ws ...string) []prompt.Token {
	tokens := make([]prompt.Token, len(ws))
	for i, w := range ws {
		if w == "<delay>" {
			tokens[i] = prompt.Delay()
			continue
		}
		tokens[i] = prompt.Word(w)
	}
	return tokens
}

func TestCompile_EndToEndDuration(t *testing.T) {
	dir := t.TempDir()
	audiotest.WriteWAV(t, dir, "a.wav", audiotest.Tone(t, audiotest.Mono8k, time.Second, 0.5))
	audiotest.WriteWAV(t, dir, "b.wav", audiotest.Tone(t, audiotest.Mono8k, time.Second, 0.5))
	table := mapping.Table{"a": "a.wav", "b": "b.wav"}

	result, err := New(dir).Compile(context.Background(), words("A", "<delay>", "B"), table)

	require.NoError(t, err)
	assert.Equal(t, audiotest.Mono8k, result.Format)
	assert.Equal(t, audiotest.Mono8k, result.Clip.Format())
	assert.Equal(t, 2700*time.Millisecond, result.Clip.Duration())
	assert.Equal(t, 1, result.Delays)
	assert.Equal(t, map[string]int{StrategyMapping: 2}, result.StrategyCounts())
}

func TestCompile_TrimsBeforeAppending(t *testing.T) {
	dir := t.TempDir()
	padded := audiotest.Join(t,
		audio.Silence(audiotest.Mono8k, 200*time.Millisecond),
		audiotest.Tone(t, audiotest.Mono8k, 500*time.Millisecond, 0.5),
		audio.Silence(audiotest.Mono8k, 300*time.Millisecond),
	)
	audiotest.WriteWAV(t, dir, "knots.wav", padded)

	result, err := New(dir).Compile(context.Background(), words("KNOTS"), mapping.Table{})

	require.NoError(t, err)
	assert.Equal(t, 600*time.Millisecond, result.Clip.Duration())
}

func TestCompile_SilentClipContributesOnlyGap(t *testing.T) {
	dir := t.TempDir()
	audiotest.WriteWAV(t, dir, "a.wav", audiotest.Tone(t, audiotest.Mono8k, 200*time.Millisecond, 0.5))
	audiotest.WriteWAV(t, dir, "hush.wav", audio.Silence(audiotest.Mono8k, 400*time.Millisecond))

	result, err := New(dir).Compile(context.Background(), words("A", "HUSH"), nil)

	require.NoError(t, err)
	assert.Equal(t, 400*time.Millisecond, result.Clip.Duration())
}

func TestCompile_CanonicalFormatFromFirstResolvableToken(t *testing.T) {
	dir := t.TempDir()
	audiotest.WriteWAV(t, dir, "alpha.wav", audiotest.Tone(t, audiotest.Stereo16k, 200*time.Millisecond, 0.5))
	audiotest.WriteWAV(t, dir, "bravo.wav", audiotest.Tone(t, audiotest.Mono8k, 200*time.Millisecond, 0.5))

	result, err := New(dir).Compile(context.Background(), words("<delay>", "ALPHA", "BRAVO"), mapping.Table{})

	require.NoError(t, err)
	assert.Equal(t, audiotest.Stereo16k, result.Format)
	assert.Equal(t, audiotest.Stereo16k, result.Clip.Format())
	assert.Equal(t, 1100*time.Millisecond, result.Clip.Duration())
	assert.Equal(t, map[string]int{StrategyConvention: 2}, result.StrategyCounts())
}

func TestCompile_NormalizesToCanonicalFormat(t *testing.T) {
	dir := t.TempDir()
	audiotest.WriteWAV(t, dir, "a.wav", audiotest.Tone(t, audiotest.Mono8k, 200*time.Millisecond, 0.5))
	audiotest.WriteWAV(t, dir, "b.wav", audiotest.Tone(t, audiotest.Stereo16k, 200*time.Millisecond, 0.5))

	result, err := New(dir).Compile(context.Background(), words("A", "B"), nil)

	require.NoError(t, err)
	assert.Equal(t, audiotest.Mono8k, result.Clip.Format())
	assert.Equal(t, 4800, result.Clip.Frames())
}

func TestCompile_MappingTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	audiotest.WriteWAV(t, dir, "wind.wav", audiotest.Tone(t, audiotest.Mono8k, 800*time.Millisecond, 0.5))
	audiotest.WriteWAV(t, dir, "surface_wind.wav", audiotest.Tone(t, audiotest.Mono8k, 300*time.Millisecond, 0.5))

	result, err := New(dir).Compile(context.Background(), words("Wind"), mapping.Table{"wind": "surface_wind.wav"})

	require.NoError(t, err)
	assert.Equal(t, 400*time.Millisecond, result.Clip.Duration())
	require.Len(t, result.Resolutions, 1)
	assert.Equal(t, StrategyMapping, result.Resolutions[0].Strategy)
	assert.Equal(t, filepath.Join(dir, "surface_wind.wav"), result.Resolutions[0].Path)
}

func TestCompile_EmptyMappedFilenameFallsBackToConvention(t *testing.T) {
	dir := t.TempDir()
	audiotest.WriteWAV(t, dir, "knots.wav", audiotest.Tone(t, audiotest.Mono8k, 200*time.Millisecond, 0.5))
	table, err := mapping.Parse(strings.NewReader("knots\t\tx\n"))
	require.NoError(t, err)

	result, err := New(dir).Compile(context.Background(), words("KNOTS"), table)

	require.NoError(t, err)
	require.Len(t, result.Resolutions, 1)
	assert.Equal(t, StrategyConvention, result.Resolutions[0].Strategy)
	assert.Equal(t, filepath.Join(dir, "knots.wav"), result.Resolutions[0].Path)

	result, err = New(dir).Compile(context.Background(), words("KNOTS"), mapping.Table{"knots": ""})

	require.NoError(t, err)
	assert.Equal(t, StrategyConvention, result.Resolutions[0].Strategy)
}

func TestCompile_ClipNotFound(t *testing.T) {
	dir := t.TempDir()
	audiotest.WriteWAV(t, dir, "knots.wav", audiotest.Tone(t, audiotest.Mono8k, 200*time.Millisecond, 0.5))

	result, err := New(dir).Compile(context.Background(), words("KNOTS", "FOO"), mapping.Table{"knots": "knots.wav"})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrClipNotFound)
	var notFound *ClipNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "FOO", notFound.Token)
}

func TestCompile_UnresolvedWordBeforeCanonical(t *testing.T) {
	dir := t.TempDir()
	audiotest.WriteWAV(t, dir, "a.wav", audiotest.Tone(t, audiotest.Mono8k, 200*time.Millisecond, 0.5))

	_, err := New(dir).Compile(context.Background(), words("FOO", "A"), nil)

	var notFound *ClipNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "FOO", notFound.Token)
}

func TestCompile_NoResolvableAudio(t *testing.T) {
	tests := []struct {
		name   string
		tokens []prompt.Token
	}{
		{"empty", nil},
		{"only delays", words("<delay>", "<delay>")},
		{"nothing resolves", words("FOO", "BAR")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(t.TempDir()).Compile(context.Background(), tt.tokens, mapping.Table{})
			assert.ErrorIs(t, err, ErrNoResolvableAudio)
		})
	}
}

func TestCompile_DecodeError(t *testing.T) {
	dir := t.TempDir()
	audiotest.WriteWAV(t, dir, "a.wav", audiotest.Tone(t, audiotest.Mono8k, 200*time.Millisecond, 0.5))
	bad := filepath.Join(dir, "broken.wav")
	require.NoError(t, os.WriteFile(bad, []byte("not a wave file"), 0o600))

	_, err := New(dir).Compile(context.Background(), words("A", "Broken"), nil)

	assert.ErrorIs(t, err, ErrDecode)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "Broken", decodeErr.Token)
	assert.Equal(t, bad, decodeErr.Path)
}

func TestCompile_MappedFileMissingIsDecodeError(t *testing.T) {
	dir := t.TempDir()

	_, err := New(dir).Compile(context.Background(), words("QNH"), mapping.Table{"qnh": "qnh_missing.wav"})

	assert.ErrorIs(t, err, ErrDecode)
}

func TestCompile_UnsupportedChannelConversion(t *testing.T) {
	dir := t.TempDir()
	threeCh := audio.Format{SampleRate: 8000, BitDepth: 16, Channels: 3}
	audiotest.WriteWAV(t, dir, "a.wav", audiotest.Tone(t, audiotest.Stereo16k, 200*time.Millisecond, 0.5))
	audiotest.WriteWAV(t, dir, "b.wav", audiotest.Tone(t, threeCh, 200*time.Millisecond, 0.5))

	_, err := New(dir).Compile(context.Background(), words("A", "B"), nil)

	assert.ErrorIs(t, err, audio.ErrUnsupportedChannels)
}

func TestCompile_CustomTiming(t *testing.T) {
	dir := t.TempDir()
	audiotest.WriteWAV(t, dir, "a.wav", audiotest.Tone(t, audiotest.Mono8k, 200*time.Millisecond, 0.5))

	c := New(dir, WithGap(50*time.Millisecond), WithDelay(time.Second))
	result, err := c.Compile(context.Background(), words("A", "<delay>", "A"), nil)

	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, result.Clip.Duration())
}

func TestCompile_ContextCancelled(t *testing.T) {
	dir := t.TempDir()
	audiotest.WriteWAV(t, dir, "a.wav", audiotest.Tone(t, audiotest.Mono8k, 200*time.Millisecond, 0.5))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(dir).Compile(ctx, words("A"), nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolver(t *testing.T) {
	dir := t.TempDir()
	audiotest.WriteWAV(t, dir, "delta.wav", audiotest.Tone(t, audiotest.Mono8k, 10*time.Millisecond, 0.5))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "echo.wav"), 0o750))

	r := NewDefaultResolver(dir, mapping.Table{"charlie": "c.wav"})

	res, err := r.Resolve("CHARLIE")
	require.NoError(t, err)
	assert.Equal(t, Resolution{Token: "CHARLIE", Path: filepath.Join(dir, "c.wav"), Strategy: StrategyMapping}, res)

	res, err = r.Resolve("Delta")
	require.NoError(t, err)
	assert.Equal(t, StrategyConvention, res.Strategy)
	assert.Equal(t, filepath.Join(dir, "delta.wav"), res.Path)

	_, err = r.Resolve("echo")
	assert.ErrorIs(t, err, ErrClipNotFound)
}

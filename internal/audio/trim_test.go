package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrim_StripsLeadingAndTrailingSilence(t *testing.T) {
	clip := concat(t,
		Silence(mono8k, 200*time.Millisecond),
		squareWave(t, mono8k, 500*time.Millisecond, 16000),
		Silence(mono8k, 300*time.Millisecond),
	)

	trimmed := Trim(clip, DefaultTrimOpts())

	assert.Equal(t, 500*time.Millisecond, trimmed.Duration())
	assert.Equal(t, mono8k, trimmed.Format())
	for _, v := range trimmed.Samples() {
		require.NotZero(t, v)
	}
}

func TestTrim_KeepsInteriorSilence(t *testing.T) {
	clip := concat(t,
		Silence(mono8k, 100*time.Millisecond),
		squareWave(t, mono8k, 200*time.Millisecond, 16000),
		Silence(mono8k, 150*time.Millisecond),
		squareWave(t, mono8k, 200*time.Millisecond, 16000),
		Silence(mono8k, 100*time.Millisecond),
	)

	trimmed := Trim(clip, DefaultTrimOpts())

	assert.Equal(t, 550*time.Millisecond, trimmed.Duration())
}

func TestTrim_AllSilentYieldsEmptyClip(t *testing.T) {
	tests := []struct {
		name string
		clip Clip
	}{
		{"digital silence", Silence(mono8k, time.Second)},
		{"below threshold", squareWave(t, mono8k, time.Second, 100)},
		{"shorter than window", Silence(mono8k, 20*time.Millisecond)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trimmed := Trim(tt.clip, DefaultTrimOpts())
			assert.Zero(t, trimmed.Frames())
			assert.Equal(t, mono8k, trimmed.Format())
		})
	}
}

func TestTrim_LoudClipUnchanged(t *testing.T) {
	clip := squareWave(t, mono8k, 300*time.Millisecond, 8000)

	trimmed := Trim(clip, DefaultTrimOpts())

	assert.Equal(t, clip.Samples(), trimmed.Samples())
}

func TestTrim_ShortLoudClipKept(t *testing.T) {
	clip := squareWave(t, mono8k, 10*time.Millisecond, 8000)

	trimmed := Trim(clip, DefaultTrimOpts())

	assert.Equal(t, clip.Frames(), trimmed.Frames())
}

func TestTrim_EmptyClip(t *testing.T) {
	trimmed := Trim(Clip{format: mono8k}, DefaultTrimOpts())
	assert.Zero(t, trimmed.Frames())
}

func TestTrim_ThresholdIsConfigurable(t *testing.T) {
	// -40 dBFS of 16-bit full scale is ~328; 1000 is above it, below -20 dBFS (~3277).
	clip := concat(t,
		Silence(mono8k, 100*time.Millisecond),
		squareWave(t, mono8k, 200*time.Millisecond, 1000),
	)

	assert.Equal(t, 200*time.Millisecond, Trim(clip, DefaultTrimOpts()).Duration())
	assert.Zero(t, Trim(clip, TrimOpts{SilenceThreshDB: -20, MinSilenceMs: 50}).Frames())
}

func TestTrim_Deterministic(t *testing.T) {
	clip := concat(t,
		Silence(mono8k, 75*time.Millisecond),
		squareWave(t, mono8k, 125*time.Millisecond, 12000),
		Silence(mono8k, 60*time.Millisecond),
	)

	first := Trim(clip, DefaultTrimOpts())
	second := Trim(clip, DefaultTrimOpts())

	assert.Equal(t, first.Samples(), second.Samples())
}

func TestDetectSilence_Ranges(t *testing.T) {
	clip := concat(t,
		Silence(mono8k, 200*time.Millisecond),
		squareWave(t, mono8k, 500*time.Millisecond, 16000),
		Silence(mono8k, 300*time.Millisecond),
	)

	got := detectSilence(clip, DefaultTrimOpts())

	assert.Equal(t, []interval{{0, 200}, {700, 1000}}, got)
	assert.Equal(t, []interval{{200, 700}}, detectNonsilent(clip, DefaultTrimOpts()))
}

func TestDetectSilence_ShortGapNotSilence(t *testing.T) {
	// A 30 ms pause is shorter than the 50 ms window and never forms a silent run.
	clip := concat(t,
		squareWave(t, mono8k, 100*time.Millisecond, 16000),
		Silence(mono8k, 30*time.Millisecond),
		squareWave(t, mono8k, 100*time.Millisecond, 16000),
	)

	assert.Empty(t, detectSilence(clip, DefaultTrimOpts()))
}

// Package audiotest provides synthetic clips and WAV fixtures for tests.
package audiotest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maauso/atis-broadcast/internal/audio"
)

// Mono8k is 8 kHz, 16-bit, mono.
var Mono8k = audio.Format{SampleRate: 8000, BitDepth: 16, Channels: 1}

// Stereo16k is 16 kHz, 16-bit, stereo.
var Stereo16k = audio.Format{SampleRate: 16000, BitDepth: 16, Channels: 2}

// Tone returns a square wave lasting d at the given fraction of full scale.
// The period is eight frames, so every sample has the same magnitude.
func Tone(t *testing.T, format audio.Format, d time.Duration, level float64) audio.Clip {
	t.Helper()

	frames := int(int64(d) * int64(format.SampleRate) / int64(time.Second))
	amplitude := int(level * float64(int(1)<<(format.BitDepth-1)-1))
	samples := make([]int, frames*format.Channels)
	for f := 0; f < frames; f++ {
		v := amplitude
		if (f/4)%2 == 1 {
			v = -amplitude
		}
		for k := 0; k < format.Channels; k++ {
			samples[f*format.Channels+k] = v
		}
	}

	clip, err := audio.NewClip(format, samples)
	if err != nil {
		t.Fatalf("build tone: %v", err)
	}
	return clip
}

// Join concatenates clips of the same format.
func Join(t *testing.T, clips ...audio.Clip) audio.Clip {
	t.Helper()
	if len(clips) == 0 {
		t.Fatal("Join needs at least one clip")
	}

	buf := audio.NewBuffer(clips[0].Format())
	for _, c := range clips {
		if err := buf.Append(c); err != nil {
			t.Fatalf("join clips: %v", err)
		}
	}
	return buf.Clip()
}

// WriteWAV encodes the clip to dir/name and returns the full path.
func WriteWAV(t *testing.T, dir, name string, clip audio.Clip) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	if err := audio.Encode(f, clip); err != nil {
		_ = f.Close()
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
	return path
}

// Package audio provides the in-memory PCM clip model used to assemble
// broadcasts, together with WAV decoding/encoding, silence trimming and
// format normalization.
package audio

import (
	"errors"
	"fmt"
	"time"
)

// Static errors for clip operations.
var (
	// ErrUnsupportedBitDepth is returned for sample widths other than 8, 16, 24 or 32 bits.
	ErrUnsupportedBitDepth = errors.New("audio: unsupported bit depth")
	// ErrUnsupportedChannels is returned when a channel layout cannot be converted.
	ErrUnsupportedChannels = errors.New("audio: unsupported channel conversion")
	// ErrInvalidFormat is returned when a format has a non-positive rate or channel count.
	ErrInvalidFormat = errors.New("audio: invalid format")
	// ErrFormatMismatch is returned when appending a clip whose format differs from the buffer.
	ErrFormatMismatch = errors.New("audio: format mismatch")
	// ErrPartialFrame is returned when sample data is not a whole number of frames.
	ErrPartialFrame = errors.New("audio: sample count is not a multiple of the channel count")
)

// Format describes the layout of PCM samples in a clip.
type Format struct {
	// SampleRate is the number of frames per second (Hz).
	SampleRate int `json:"sample_rate"`
	// BitDepth is the sample width in bits.
	BitDepth int `json:"bit_depth"`
	// Channels is the number of interleaved channels.
	Channels int `json:"channels"`
}

// Validate checks that the format can be represented as integer PCM.
func (f Format) Validate() error {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, f)
	}
	switch f.BitDepth {
	case 8, 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, f.BitDepth)
	}
}

// String returns a compact representation such as "8000Hz/16bit/1ch".
func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dbit/%dch", f.SampleRate, f.BitDepth, f.Channels)
}

// maxAmplitude is the full-scale magnitude for the format's bit depth.
func (f Format) maxAmplitude() int {
	return 1 << (f.BitDepth - 1)
}

// framesFor converts a duration to a whole number of frames, rounding down.
func (f Format) framesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(int64(d) * int64(f.SampleRate) / int64(time.Second))
}

// Clip is a decoded PCM segment. Samples are signed and interleaved by channel.
// A Clip is never modified in place; every transformation returns a new Clip.
type Clip struct {
	format Format
	data   []int
}

// NewClip creates a clip from interleaved signed samples. The samples are copied.
func NewClip(format Format, samples []int) (Clip, error) {
	if err := format.Validate(); err != nil {
		return Clip{}, err
	}
	if len(samples)%format.Channels != 0 {
		return Clip{}, ErrPartialFrame
	}
	data := make([]int, len(samples))
	copy(data, samples)
	return Clip{format: format, data: data}, nil
}

// Silence returns a clip of digital silence lasting d.
func Silence(format Format, d time.Duration) Clip {
	return Clip{format: format, data: make([]int, format.framesFor(d)*format.Channels)}
}

// Format returns the clip's sample layout.
func (c Clip) Format() Format {
	return c.format
}

// Frames returns the number of frames (samples per channel).
func (c Clip) Frames() int {
	if c.format.Channels == 0 {
		return 0
	}
	return len(c.data) / c.format.Channels
}

// Duration returns the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.format.SampleRate == 0 {
		return 0
	}
	return time.Duration(int64(c.Frames()) * int64(time.Second) / int64(c.format.SampleRate))
}

// Samples returns a copy of the interleaved sample data.
func (c Clip) Samples() []int {
	out := make([]int, len(c.data))
	copy(out, c.data)
	return out
}

// Slice returns the frames in [start, end). Bounds are clamped to the clip.
func (c Clip) Slice(start, end int) Clip {
	frames := c.Frames()
	start = clamp(start, 0, frames)
	end = clamp(end, start, frames)
	ch := c.format.Channels
	data := make([]int, (end-start)*ch)
	copy(data, c.data[start*ch:end*ch])
	return Clip{format: c.format, data: data}
}

// Buffer accumulates clips of a single format in append order.
type Buffer struct {
	format Format
	data   []int
}

// NewBuffer creates an empty buffer for the given format.
func NewBuffer(format Format) *Buffer {
	return &Buffer{format: format}
}

// Append adds a clip to the end of the buffer.
// Returns ErrFormatMismatch if the clip has not been normalized to the buffer format.
func (b *Buffer) Append(c Clip) error {
	if c.format != b.format {
		return fmt.Errorf("%w: buffer %s, clip %s", ErrFormatMismatch, b.format, c.format)
	}
	b.data = append(b.data, c.data...)
	return nil
}

// AppendSilence adds d of digital silence.
func (b *Buffer) AppendSilence(d time.Duration) {
	b.data = append(b.data, make([]int, b.format.framesFor(d)*b.format.Channels)...)
}

// Duration returns the length of the audio accumulated so far.
func (b *Buffer) Duration() time.Duration {
	return Clip{format: b.format, data: b.data}.Duration()
}

// Clip returns the accumulated audio as a clip.
func (b *Buffer) Clip() Clip {
	data := make([]int, len(b.data))
	copy(data, b.data)
	return Clip{format: b.format, data: data}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

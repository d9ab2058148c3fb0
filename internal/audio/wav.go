package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV format tags accepted by the decoder.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// ErrUnsupportedEncoding is returned for WAV files that do not carry integer PCM.
var ErrUnsupportedEncoding = errors.New("audio: only integer PCM WAV is supported")

// Decode reads a complete PCM WAV stream into a clip.
func Decode(r io.ReadSeeker) (Clip, error) {
	d := wav.NewDecoder(r)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("read pcm: %w", err)
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return Clip{}, fmt.Errorf("%w: format tag %d", ErrUnsupportedEncoding, d.WavAudioFormat)
	}

	format := Format{
		SampleRate: int(d.SampleRate),
		BitDepth:   int(d.BitDepth),
		Channels:   int(d.NumChans),
	}
	if err := format.Validate(); err != nil {
		return Clip{}, err
	}

	data := buf.Data
	// go-audio exposes 8-bit WAV samples as unsigned bytes.
	if format.BitDepth == 8 {
		for i := range data {
			data[i] -= 128
		}
	}
	// Drop a trailing partial frame from truncated files.
	data = data[:len(data)-len(data)%format.Channels]

	return Clip{format: format, data: data}, nil
}

// DecodeFile opens and decodes the WAV file at path.
func DecodeFile(path string) (Clip, error) {
	f, err := os.Open(path) // #nosec G304 - path comes from the asset resolver
	if err != nil {
		return Clip{}, fmt.Errorf("open wav: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// Encode writes the clip as an uncompressed PCM WAV stream.
// The writer must be seekable so the RIFF sizes can be patched on close.
func Encode(w io.WriteSeeker, c Clip) error {
	if err := c.format.Validate(); err != nil {
		return err
	}

	data := c.data
	if c.format.BitDepth == 8 {
		data = make([]int, len(c.data))
		for i, v := range c.data {
			data[i] = v + 128
		}
	}

	enc := wav.NewEncoder(w, c.format.SampleRate, c.format.BitDepth, c.format.Channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Data: data,
		Format: &goaudio.Format{
			NumChannels: c.format.Channels,
			SampleRate:  c.format.SampleRate,
		},
		SourceBitDepth: c.format.BitDepth,
	}

	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		return fmt.Errorf("write pcm: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

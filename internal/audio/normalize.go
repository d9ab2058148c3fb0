package audio

import (
	"fmt"
	"math"
)

// Normalize converts a clip to the target format. The sample rate is
// converted first, then the sample width, then the channel layout.
// A clip that already matches is returned unchanged.
func Normalize(c Clip, target Format) (Clip, error) {
	if err := target.Validate(); err != nil {
		return Clip{}, err
	}
	if err := c.format.Validate(); err != nil {
		return Clip{}, err
	}

	out := c
	if out.format.SampleRate != target.SampleRate {
		out = resample(out, target.SampleRate)
	}
	if out.format.BitDepth != target.BitDepth {
		out = convertBitDepth(out, target.BitDepth)
	}
	if out.format.Channels != target.Channels {
		var err error
		out, err = convertChannels(out, target.Channels)
		if err != nil {
			return Clip{}, err
		}
	}
	return out, nil
}

// resample changes the frame rate using linear interpolation between
// neighbouring frames of each channel. Duration is preserved to within one frame.
func resample(c Clip, rate int) Clip {
	format := c.format
	format.SampleRate = rate

	in := c.Frames()
	if in == 0 {
		return Clip{format: format}
	}

	ch := c.format.Channels
	out := int(math.Round(float64(in) * float64(rate) / float64(c.format.SampleRate)))
	step := float64(c.format.SampleRate) / float64(rate)
	data := make([]int, out*ch)

	for j := 0; j < out; j++ {
		pos := float64(j) * step
		i0 := int(pos)
		if i0 >= in {
			i0 = in - 1
		}
		i1 := i0 + 1
		if i1 >= in {
			i1 = in - 1
		}
		frac := pos - float64(i0)
		for k := 0; k < ch; k++ {
			a := float64(c.data[i0*ch+k])
			b := float64(c.data[i1*ch+k])
			data[j*ch+k] = int(math.Round(a + (b-a)*frac))
		}
	}
	return Clip{format: format, data: data}
}

// convertBitDepth rescales samples to a new width by shifting.
func convertBitDepth(c Clip, depth int) Clip {
	format := c.format
	format.BitDepth = depth

	shift := depth - c.format.BitDepth
	data := make([]int, len(c.data))
	for i, v := range c.data {
		if shift > 0 {
			data[i] = v << shift
		} else {
			data[i] = v >> -shift
		}
	}
	return Clip{format: format, data: data}
}

// convertChannels mixes down to mono by averaging, or fans mono out by
// duplication. Other layout changes are not supported.
func convertChannels(c Clip, channels int) (Clip, error) {
	format := c.format
	format.Channels = channels
	src := c.format.Channels
	frames := c.Frames()
	data := make([]int, frames*channels)

	switch {
	case channels == 1:
		for f := 0; f < frames; f++ {
			sum := 0
			for _, v := range c.data[f*src : (f+1)*src] {
				sum += v
			}
			data[f] = int(math.Round(float64(sum) / float64(src)))
		}
	case src == 1:
		for f := 0; f < frames; f++ {
			for k := 0; k < channels; k++ {
				data[f*channels+k] = c.data[f]
			}
		}
	default:
		return Clip{}, fmt.Errorf("%w: %d to %d channels", ErrUnsupportedChannels, src, channels)
	}
	return Clip{format: format, data: data}, nil
}

package audio

import "math"

// TrimOpts configures silence detection for Trim.
type TrimOpts struct {
	// SilenceThreshDB is the RMS level in dBFS at or below which audio is
	// considered silence.
	// Default: -40 dBFS.
	SilenceThreshDB float64

	// MinSilenceMs is the width of the detection window in milliseconds.
	// Only runs of silence at least this long are trimmed.
	// Default: 50 milliseconds.
	MinSilenceMs int
}

// DefaultTrimOpts returns the default options for trimming word clips.
func DefaultTrimOpts() TrimOpts {
	return TrimOpts{
		SilenceThreshDB: -40,
		MinSilenceMs:    50,
	}
}

// interval is a half-open [start, end) range in milliseconds.
type interval struct {
	start int
	end   int
}

// Trim strips leading and trailing silence, returning the span from the start
// of the first non-silent region to the end of the last one. A clip with no
// non-silent region yields a zero-length clip of the same format.
func Trim(c Clip, opts TrimOpts) Clip {
	if c.Frames() == 0 {
		return Clip{format: c.format}
	}

	regions := detectNonsilent(c, opts)
	if len(regions) == 0 {
		return Clip{format: c.format}
	}

	first, last := regions[0], regions[len(regions)-1]
	return c.Slice(c.msToFrame(first.start), c.endFrame(last.end))
}

// lengthMs returns the clip length in whole milliseconds.
func (c Clip) lengthMs() int {
	return int(int64(c.Frames()) * 1000 / int64(c.format.SampleRate))
}

// msToFrame maps a millisecond offset to a frame index, rounding down.
func (c Clip) msToFrame(ms int) int {
	return int(int64(ms) * int64(c.format.SampleRate) / 1000)
}

// endFrame maps an exclusive millisecond bound to a frame index. The clip's
// final millisecond boundary maps past the last frame so no tail samples are lost.
func (c Clip) endFrame(ms int) int {
	if ms >= c.lengthMs() {
		return c.Frames()
	}
	return c.msToFrame(ms)
}

// detectNonsilent returns the complement of the silent ranges of the clip.
func detectNonsilent(c Clip, opts TrimOpts) []interval {
	length := c.lengthMs()
	silences := detectSilence(c, opts)

	if len(silences) == 0 {
		return []interval{{start: 0, end: length}}
	}
	if silences[0].start == 0 && silences[0].end == length {
		return nil
	}

	var regions []interval
	prevEnd := 0
	for _, s := range silences {
		regions = append(regions, interval{start: prevEnd, end: s.start})
		prevEnd = s.end
	}
	if prevEnd != length {
		regions = append(regions, interval{start: prevEnd, end: length})
	}
	if regions[0].start == 0 && regions[0].end == 0 {
		regions = regions[1:]
	}
	return regions
}

// detectSilence slides a MinSilenceMs window over the clip in 1 ms steps and
// merges every window whose RMS is at or below the threshold into silent ranges.
func detectSilence(c Clip, opts TrimOpts) []interval {
	minLen := opts.MinSilenceMs
	if minLen < 1 {
		minLen = 1
	}
	length := c.lengthMs()
	threshold := math.Pow(10, opts.SilenceThreshDB/20) * float64(c.format.maxAmplitude())
	energy := c.energyPrefix()

	// A clip shorter than one window is judged as a whole.
	if length < minLen {
		if rms(energy, c.format.Channels, 0, c.Frames()) <= threshold {
			return []interval{{start: 0, end: length}}
		}
		return nil
	}

	var starts []int
	for i := 0; i <= length-minLen; i++ {
		from, to := c.msToFrame(i), c.endFrame(i+minLen)
		if rms(energy, c.format.Channels, from, to) <= threshold {
			starts = append(starts, i)
		}
	}
	if len(starts) == 0 {
		return nil
	}

	var silences []interval
	rangeStart, prev := starts[0], starts[0]
	for _, s := range starts[1:] {
		continuous := s == prev+1
		hasGap := s > prev+minLen
		if !continuous && hasGap {
			silences = append(silences, interval{start: rangeStart, end: prev + minLen})
			rangeStart = s
		}
		prev = s
	}
	silences = append(silences, interval{start: rangeStart, end: prev + minLen})

	return silences
}

// energyPrefix returns cumulative squared sample values per frame, summed over
// channels, so any window's RMS is available in constant time.
func (c Clip) energyPrefix() []float64 {
	ch := c.format.Channels
	prefix := make([]float64, c.Frames()+1)
	for f := 0; f < c.Frames(); f++ {
		sum := 0.0
		for _, v := range c.data[f*ch : (f+1)*ch] {
			sum += float64(v) * float64(v)
		}
		prefix[f+1] = prefix[f] + sum
	}
	return prefix
}

// rms returns the root-mean-square sample value over frames [from, to).
func rms(prefix []float64, channels, from, to int) float64 {
	n := (to - from) * channels
	if n <= 0 {
		return 0
	}
	return math.Sqrt((prefix[to] - prefix[from]) / float64(n))
}

package audio

import (
	"fmt"
	"math"
	"time"
)

// MaxTempo bounds speed-up during fitting. A clip needing more than 2x
// acceleration is truncated instead of rendered unintelligibly fast.
const MaxTempo = 2.0

// FitStrategy tags how a clip was reconciled with its cue window.
type FitStrategy string

const (
	FitExact     FitStrategy = "exact"
	FitPadded    FitStrategy = "padded"
	FitScaled    FitStrategy = "scaled"
	FitTruncated FitStrategy = "truncated"
	// FitSilence marks a window filled with silence after a synthesis failure.
	FitSilence FitStrategy = "silence"
)

// Placement locates a clip on the output timeline.
type Placement struct {
	Index int // cue index, for diagnostics
	Start time.Duration
	End   time.Duration
}

// Window returns the allotted duration.
func (p Placement) Window() time.Duration {
	return p.End - p.Start
}

// FittedClip is a clip adjusted to occupy exactly its placement window.
type FittedClip struct {
	Placement Placement
	Buffer    Buffer
	Strategy  FitStrategy
}

// SilentClip produces a fitted clip of pure silence for the placement window.
func SilentClip(f Format, p Placement) FittedClip {
	return FittedClip{
		Placement: p,
		Buffer:    NewSilence(f, p.Window()),
		Strategy:  FitSilence,
	}
}

// Fit reconciles a synthesized clip's natural duration with its cue window.
//
// Shorter clips are padded with trailing silence so narration starts at the
// cue's on-screen moment. Longer clips are linearly resampled up to MaxTempo
// acceleration; past that bound the clip is truncated. The result always
// spans the window to within one frame.
func Fit(clip Buffer, p Placement) (FittedClip, error) {
	if err := clip.Format.validate(); err != nil {
		return FittedClip{}, fmt.Errorf("fit cue %d: %w", p.Index, err)
	}
	window := p.Window()
	if window <= 0 {
		return FittedClip{}, fmt.Errorf("fit cue %d: window %v is not positive", p.Index, window)
	}

	f := clip.Format
	targetFrames := f.FramesFor(window)
	if targetFrames == 0 {
		targetFrames = 1
	}
	naturalFrames := clip.Frames()

	switch {
	case naturalFrames == 0:
		return SilentClip(f, p), nil
	case naturalFrames == targetFrames:
		return FittedClip{Placement: p, Buffer: clip, Strategy: FitExact}, nil
	case naturalFrames < targetFrames:
		padded := make([]byte, targetFrames*f.FrameBytes())
		copy(padded, clip.PCM[:naturalFrames*f.FrameBytes()])
		return FittedClip{Placement: p, Buffer: Buffer{Format: f, PCM: padded}, Strategy: FitPadded}, nil
	}

	tempo := float64(naturalFrames) / float64(targetFrames)
	if tempo > MaxTempo {
		truncated := make([]byte, targetFrames*f.FrameBytes())
		copy(truncated, clip.PCM[:targetFrames*f.FrameBytes()])
		return FittedClip{Placement: p, Buffer: Buffer{Format: f, PCM: truncated}, Strategy: FitTruncated}, nil
	}

	return FittedClip{Placement: p, Buffer: resample(clip, targetFrames), Strategy: FitScaled}, nil
}

// resample stretches or compresses the clip to exactly targetFrames using
// per-channel linear interpolation. Deterministic for identical inputs.
func resample(clip Buffer, targetFrames int) Buffer {
	f := clip.Format
	naturalFrames := clip.Frames()
	out := make([]byte, targetFrames*f.FrameBytes())

	if targetFrames == 1 || naturalFrames == 1 {
		for ch := 0; ch < f.Channels; ch++ {
			putSampleAt(out, ch, sampleAt(clip.PCM, ch))
		}
		return Buffer{Format: f, PCM: out}
	}

	step := float64(naturalFrames-1) / float64(targetFrames-1)
	for i := 0; i < targetFrames; i++ {
		pos := float64(i) * step
		i0 := int(pos)
		if i0 >= naturalFrames-1 {
			i0 = naturalFrames - 2
		}
		frac := pos - float64(i0)
		for ch := 0; ch < f.Channels; ch++ {
			s0 := float64(sampleAt(clip.PCM, i0*f.Channels+ch))
			s1 := float64(sampleAt(clip.PCM, (i0+1)*f.Channels+ch))
			mixed := s0 + frac*(s1-s0)
			putSampleAt(out, i*f.Channels+ch, int16(math.RoundToEven(mixed)))
		}
	}
	return Buffer{Format: f, PCM: out}
}

package audio

import (
	"fmt"
	"sort"
	"time"
)

// Assemble places fitted clips at their absolute offsets in a silent buffer
// spanning exactly the total duration.
//
// Overlapping clips indicate a scheduler bug upstream and are reported as an
// error rather than mixed; the normalized timeline guarantees disjoint
// windows, so a violation here is an internal consistency failure.
func Assemble(f Format, clips []FittedClip, total time.Duration) (Buffer, error) {
	if err := f.validate(); err != nil {
		return Buffer{}, fmt.Errorf("assemble: %w", err)
	}
	if total <= 0 {
		return Buffer{}, fmt.Errorf("assemble: total duration %v is not positive", total)
	}

	track := NewSilence(f, total)
	totalBytes := len(track.PCM)

	ordered := make([]FittedClip, len(clips))
	copy(ordered, clips)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Placement.Start < ordered[j].Placement.Start
	})

	prevEnd := 0
	prevIndex := 0
	for _, clip := range ordered {
		if clip.Buffer.Format != f {
			return Buffer{}, fmt.Errorf("assemble: cue %d format %+v does not match track format %+v",
				clip.Placement.Index, clip.Buffer.Format, f)
		}
		start := f.FramesFor(clip.Placement.Start) * f.FrameBytes()
		end := start + len(clip.Buffer.PCM)
		if start < prevEnd {
			return Buffer{}, fmt.Errorf("assemble: cue %d overlaps cue %d", clip.Placement.Index, prevIndex)
		}
		if end > totalBytes {
			return Buffer{}, fmt.Errorf("assemble: cue %d extends past track end", clip.Placement.Index)
		}
		copy(track.PCM[start:end], clip.Buffer.PCM)
		prevEnd = end
		prevIndex = clip.Placement.Index
	}
	return track, nil
}

package audio

import (
	"strings"
	"testing"
	"time"
)

func fittedTone(t *testing.T, f Format, index int, start, end time.Duration, value int16) FittedClip {
	t.Helper()
	clip := toneBuffer(t, f, end-start, value)
	fitted, err := Fit(clip, Placement{Index: index, Start: start, End: end})
	if err != nil {
		t.Fatalf("fit clip %d: %v", index, err)
	}
	return fitted
}

func regionIsSilent(b Buffer, from, to time.Duration) bool {
	f := b.Format
	start := f.FramesFor(from) * f.FrameBytes()
	end := f.FramesFor(to) * f.FrameBytes()
	for _, by := range b.PCM[start:end] {
		if by != 0 {
			return false
		}
	}
	return true
}

func TestAssembleTwoCuesWithSilenceGaps(t *testing.T) {
	f := DefaultFormat()
	clips := []FittedClip{
		fittedTone(t, f, 1, time.Second, 3*time.Second, 2000),
		fittedTone(t, f, 2, 3500*time.Millisecond, 5*time.Second, 3000),
	}

	track, err := Assemble(f, clips, 6*time.Second)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if track.Frames() != f.FramesFor(6*time.Second) {
		t.Fatalf("track length %d frames, want %d", track.Frames(), f.FramesFor(6*time.Second))
	}

	silent := []struct{ from, to time.Duration }{
		{0, time.Second},
		{3 * time.Second, 3500 * time.Millisecond},
		{5 * time.Second, 6 * time.Second},
	}
	for _, region := range silent {
		if !regionIsSilent(track, region.from, region.to) {
			t.Fatalf("expected silence in [%v, %v)", region.from, region.to)
		}
	}
	if regionIsSilent(track, time.Second, 3*time.Second) {
		t.Fatal("expected narration in first cue window")
	}
	if regionIsSilent(track, 3500*time.Millisecond, 5*time.Second) {
		t.Fatal("expected narration in second cue window")
	}
}

func TestAssembleZeroClipsIsAllSilence(t *testing.T) {
	f := DefaultFormat()
	track, err := Assemble(f, nil, 2*time.Second)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if !regionIsSilent(track, 0, 2*time.Second) {
		t.Fatal("expected pure silence track")
	}
	if track.Duration() != 2*time.Second {
		t.Fatalf("track duration %v, want 2s", track.Duration())
	}
}

func TestAssembleRejectsOverlap(t *testing.T) {
	f := DefaultFormat()
	clips := []FittedClip{
		fittedTone(t, f, 1, 0, 2*time.Second, 2000),
		fittedTone(t, f, 2, time.Second, 3*time.Second, 3000),
	}
	_, err := Assemble(f, clips, 4*time.Second)
	if err == nil || !strings.Contains(err.Error(), "overlap") {
		t.Fatalf("expected overlap error, got %v", err)
	}
}

func TestAssembleRejectsClipPastTrackEnd(t *testing.T) {
	f := DefaultFormat()
	clips := []FittedClip{fittedTone(t, f, 1, 3*time.Second, 5*time.Second, 2000)}
	_, err := Assemble(f, clips, 4*time.Second)
	if err == nil {
		t.Fatal("expected error for clip past track end")
	}
}

func TestAssembleDeterministic(t *testing.T) {
	f := DefaultFormat()
	clips := []FittedClip{
		fittedTone(t, f, 1, 0, time.Second, 1000),
		fittedTone(t, f, 2, 2*time.Second, 3*time.Second, -1000),
	}
	first, err := Assemble(f, clips, 4*time.Second)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	second, err := Assemble(f, clips, 4*time.Second)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if string(first.PCM) != string(second.PCM) {
		t.Fatal("assembling twice produced different tracks")
	}
}

// Package timeline normalizes parsed subtitle cues into a non-overlapping,
// monotonically increasing schedule bounded by the video duration.
package timeline

import (
	"fmt"
	"sort"
	"time"

	"saysubs/internal/srt"
)

// MinGap is the silence inserted between clipped adjacent cues so that a
// clipped cue never butts directly against its successor.
const MinGap = 10 * time.Millisecond

// Timeline is the normalized cue schedule. Immutable once built.
type Timeline struct {
	Cues  []srt.Cue
	Total time.Duration
}

// DroppedCueWarning records a cue removed during normalization. Non-fatal;
// collected and reported, never returned as an error.
type DroppedCueWarning struct {
	Index  int
	Start  time.Duration
	End    time.Duration
	Reason string
}

func (w DroppedCueWarning) String() string {
	return fmt.Sprintf("cue %d [%s - %s] dropped: %s",
		w.Index, srt.FormatTimestamp(w.Start), srt.FormatTimestamp(w.End), w.Reason)
}

// InvalidTimelineError reports a degenerate cue set or video duration.
type InvalidTimelineError struct {
	Reason string
}

func (e *InvalidTimelineError) Error() string {
	return "invalid timeline: " + e.Reason
}

// Normalize sorts, clips, and bounds the raw cue sequence.
//
// Cues are stable-sorted by start time so identical starts keep source order.
// A cue overlapping its successor is clipped to end MinGap before the next
// start; cues whose window collapses to zero or less are dropped. The final
// cue is clamped to the video duration, and cues starting at or beyond the
// video end are dropped.
func Normalize(cues []srt.Cue, total time.Duration) (Timeline, []DroppedCueWarning, error) {
	if total <= 0 {
		return Timeline{}, nil, &InvalidTimelineError{Reason: fmt.Sprintf("video duration %v is not positive", total)}
	}
	if len(cues) == 0 {
		return Timeline{}, nil, &InvalidTimelineError{Reason: "no cues to schedule"}
	}

	sorted := make([]srt.Cue, len(cues))
	copy(sorted, cues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var warnings []DroppedCueWarning
	kept := make([]srt.Cue, 0, len(sorted))
	for i, cue := range sorted {
		if cue.Start >= total {
			warnings = append(warnings, DroppedCueWarning{
				Index: cue.Index, Start: cue.Start, End: cue.End,
				Reason: "starts after video end",
			})
			continue
		}
		end := cue.End
		if i+1 < len(sorted) {
			if limit := sorted[i+1].Start - MinGap; end > limit {
				end = limit
			}
		}
		if end > total {
			end = total
		}
		if end-cue.Start <= 0 {
			warnings = append(warnings, DroppedCueWarning{
				Index: cue.Index, Start: cue.Start, End: cue.End,
				Reason: "window collapsed by overlap clipping",
			})
			continue
		}
		cue.End = end
		kept = append(kept, cue)
	}

	return Timeline{Cues: kept, Total: total}, warnings, nil
}

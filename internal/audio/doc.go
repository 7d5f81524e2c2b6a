// Package audio owns the PCM timeline work: fitting synthesized clips into
// their cue windows and assembling the continuous narration track.
//
// All buffers are interleaved signed 16-bit little-endian PCM. Durations are
// expressed in whole frames; every fitting path lands on the target window
// length to within one frame, which is the invariant assembly depends on.
package audio

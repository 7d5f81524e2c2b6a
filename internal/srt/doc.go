// Package srt parses SubRip subtitle files into typed cues.
//
// The parser tolerates the messiness common in real-world SRT files:
// byte-order marks, CRLF line endings, blank trailing lines, multi-line cue
// text, and either comma or period as the millisecond separator. Strict mode
// fails on the first malformed block; lenient mode skips malformed blocks and
// reports them as warnings so one bad cue never discards a whole file.
//
// Timestamps round-trip at millisecond precision: FormatTimestamp applied to
// ParseTimestamp output reproduces the canonical `HH:MM:SS,mmm` form.
package srt

// Package pipeline orchestrates a full narration run: probe the source video,
// parse and schedule subtitle cues, synthesize and fit each cue on a bounded
// worker pool, assemble the continuous track, and mux it into a new output
// container.
//
// Cue synthesis is embarrassingly parallel once the timeline is fixed: every
// worker owns a disjoint region of the output track, so the only
// synchronization is the completion barrier before assembly. Per-cue synthesis
// failures substitute silence and never abort the batch; parse, timeline, and
// mux failures are fatal to the run. Cancellation propagates through the
// context into every in-flight external process.
package pipeline

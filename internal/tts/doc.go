// Package tts wraps the external text-to-speech capability behind the Engine
// interface and owns the text cleanup applied before synthesis.
//
// The production engine drives the macOS `say` command and decodes its AIFF
// output into canonical PCM via ffmpeg. Command execution is injectable so
// tests can run without either tool installed; Fake provides a deterministic
// in-process engine for pipeline tests.
package tts

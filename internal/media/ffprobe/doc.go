// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The pipeline uses it to learn the source video's duration before building
// the narration timeline, and to verify that muxed output actually carries a
// decodable audio stream.
package ffprobe

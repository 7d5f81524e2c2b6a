package audio

import (
	"fmt"
	"time"
)

const (
	// DefaultSampleRate matches the canonical narration track format.
	DefaultSampleRate = 48000
	// DefaultChannels is stereo, the format ffmpeg decodes TTS output into.
	DefaultChannels = 2

	bytesPerSample = 2 // s16le
)

// Format describes the PCM layout of a buffer.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat returns the canonical narration format (48 kHz stereo s16le).
func DefaultFormat() Format {
	return Format{SampleRate: DefaultSampleRate, Channels: DefaultChannels}
}

// FrameBytes returns the byte width of one interleaved frame.
func (f Format) FrameBytes() int {
	return f.Channels * bytesPerSample
}

// FramesFor converts a duration to a whole frame count, rounding to nearest.
func (f Format) FramesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	frames := (int64(d)*int64(f.SampleRate) + int64(time.Second)/2) / int64(time.Second)
	return int(frames)
}

// DurationOf converts a frame count back to a duration.
func (f Format) DurationOf(frames int) time.Duration {
	if frames <= 0 || f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(frames) * int64(time.Second) / int64(f.SampleRate))
}

func (f Format) validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate %d is not positive", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("channel count %d is not positive", f.Channels)
	}
	return nil
}

// Buffer holds interleaved s16le PCM samples.
type Buffer struct {
	Format Format
	PCM    []byte
}

// NewSilence allocates a zeroed buffer spanning the given duration.
func NewSilence(f Format, d time.Duration) Buffer {
	return Buffer{Format: f, PCM: make([]byte, f.FramesFor(d)*f.FrameBytes())}
}

// Frames returns the number of complete frames in the buffer.
func (b Buffer) Frames() int {
	fb := b.Format.FrameBytes()
	if fb == 0 {
		return 0
	}
	return len(b.PCM) / fb
}

// Duration returns the buffer length as a duration.
func (b Buffer) Duration() time.Duration {
	return b.Format.DurationOf(b.Frames())
}

// Empty reports whether the buffer carries no complete frame.
func (b Buffer) Empty() bool {
	return b.Frames() == 0
}

func sampleAt(pcm []byte, index int) int16 {
	off := index * bytesPerSample
	return int16(uint16(pcm[off]) | uint16(pcm[off+1])<<8)
}

func putSampleAt(pcm []byte, index int, value int16) {
	off := index * bytesPerSample
	pcm[off] = byte(uint16(value))
	pcm[off+1] = byte(uint16(value) >> 8)
}

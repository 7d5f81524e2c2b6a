package audio

import (
	"encoding/binary"
	"fmt"
	"os"
)

// EncodeWAV wraps the buffer's PCM payload in a RIFF/WAVE header. The
// narration track only ever travels to ffmpeg, so a plain PCM WAV container
// is all that is needed.
func EncodeWAV(b Buffer) ([]byte, error) {
	if err := b.Format.validate(); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	data := b.PCM
	byteRate := b.Format.SampleRate * b.Format.FrameBytes()

	out := make([]byte, 0, 44+len(data))
	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(36+len(data)))
	out = append(out, "WAVE"...)
	out = append(out, "fmt "...)
	out = binary.LittleEndian.AppendUint32(out, 16)
	out = binary.LittleEndian.AppendUint16(out, 1) // PCM
	out = binary.LittleEndian.AppendUint16(out, uint16(b.Format.Channels))
	out = binary.LittleEndian.AppendUint32(out, uint32(b.Format.SampleRate))
	out = binary.LittleEndian.AppendUint32(out, uint32(byteRate))
	out = binary.LittleEndian.AppendUint16(out, uint16(b.Format.FrameBytes()))
	out = binary.LittleEndian.AppendUint16(out, 16) // bits per sample
	out = append(out, "data"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	out = append(out, data...)
	return out, nil
}

// WriteWAV encodes the buffer and writes it to path with 0o644 permissions.
func WriteWAV(path string, b Buffer) error {
	encoded, err := EncodeWAV(b)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return nil
}

package tts

import (
	"context"
	"fmt"

	"saysubs/internal/audio"
)

// Voice describes one installed system voice.
type Voice struct {
	Name        string
	Language    string // BCP 47-ish tag as reported by the platform, e.g. en_US
	Description string
}

// Engine converts text into decoded PCM audio.
type Engine interface {
	// Synthesize renders the text with the named voice. An empty voice selects
	// the platform default. The returned buffer is never empty on success.
	Synthesize(ctx context.Context, text, voice string) (audio.Buffer, error)

	// Voices enumerates the voices the platform provides.
	Voices(ctx context.Context) ([]Voice, error)
}

// SynthesisError reports a failed or empty synthesis for one piece of text.
type SynthesisError struct {
	Text  string
	Voice string
	Err   error
}

func (e *SynthesisError) Error() string {
	text := e.Text
	if runes := []rune(text); len(runes) > 40 {
		text = string(runes[:40]) + "..."
	}
	return fmt.Sprintf("synthesize %q (voice %q): %v", text, e.Voice, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

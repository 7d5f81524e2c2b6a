package tts

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"saysubs/internal/audio"
)

// Fake is a deterministic in-process engine for tests. Output duration grows
// with text length and the sample payload is derived from the text, so two
// runs over identical input produce byte-identical audio.
type Fake struct {
	Format audio.Format
	// SecondsPerRune scales synthetic speech duration. Defaults to 60 ms/rune.
	SecondsPerRune time.Duration
	// Fail lists texts whose synthesis should fail.
	Fail map[string]bool

	mu sync.Mutex
	// Calls records every synthesized text in call order.
	Calls []string
}

// NewFake returns a fake engine in the canonical narration format.
func NewFake() *Fake {
	return &Fake{Format: audio.DefaultFormat(), SecondsPerRune: 60 * time.Millisecond}
}

func (f *Fake) Synthesize(_ context.Context, text, voice string) (audio.Buffer, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, text)
	f.mu.Unlock()
	if f.Fail[text] {
		return audio.Buffer{}, &SynthesisError{Text: text, Voice: voice, Err: context.DeadlineExceeded}
	}
	perRune := f.SecondsPerRune
	if perRune <= 0 {
		perRune = 60 * time.Millisecond
	}
	duration := time.Duration(len([]rune(text))) * perRune
	if duration <= 0 {
		duration = perRune
	}

	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(text))
	seed := int16(hasher.Sum32()%2000) + 500

	buf := audio.NewSilence(f.Format, duration)
	for i := 0; i+1 < len(buf.PCM); i += 2 {
		buf.PCM[i] = byte(uint16(seed))
		buf.PCM[i+1] = byte(uint16(seed) >> 8)
	}
	return buf, nil
}

func (f *Fake) Voices(context.Context) ([]Voice, error) {
	return []Voice{
		{Name: "Samantha", Language: "en_US", Description: "Test voice"},
		{Name: "Thomas", Language: "fr_FR", Description: "Voix de test"},
	}, nil
}

var _ Engine = (*Fake)(nil)

package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"saysubs/internal/audio"
	"saysubs/internal/logging"
)

func pcmFor(f audio.Format, d time.Duration) []byte {
	return make([]byte, f.FramesFor(d)*f.FrameBytes())
}

func TestSaySynthesizeDecodesPCM(t *testing.T) {
	f := audio.DefaultFormat()
	var commands [][]string
	runner := func(_ context.Context, name string, args ...string) ([]byte, error) {
		commands = append(commands, append([]string{name}, args...))
		if name == "ffmpeg" {
			return pcmFor(f, 1500*time.Millisecond), nil
		}
		return nil, nil
	}

	engine := NewSay(logging.NewNop(),
		WithCommandRunner(runner),
		WithWorkDir(t.TempDir()),
	)
	buf, err := engine.Synthesize(context.Background(), "Hello there", "Samantha")
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if buf.Duration() != 1500*time.Millisecond {
		t.Fatalf("unexpected duration %v", buf.Duration())
	}
	if len(commands) != 2 {
		t.Fatalf("expected say then ffmpeg, got %d commands", len(commands))
	}
	say := strings.Join(commands[0], " ")
	if !strings.Contains(say, "-v Samantha") || !strings.Contains(say, "-r 200") {
		t.Fatalf("unexpected say invocation: %s", say)
	}
	ffmpeg := strings.Join(commands[1], " ")
	if !strings.Contains(ffmpeg, "-f s16le") || !strings.Contains(ffmpeg, "-ar 48000") {
		t.Fatalf("unexpected ffmpeg invocation: %s", ffmpeg)
	}
}

func TestSayRetriesWithoutVoice(t *testing.T) {
	f := audio.DefaultFormat()
	var sayCalls int
	runner := func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name == "say" {
			sayCalls++
			for _, arg := range args {
				if arg == "-v" {
					return nil, fmt.Errorf("voice not installed")
				}
			}
			return nil, nil
		}
		return pcmFor(f, time.Second), nil
	}

	engine := NewSay(logging.NewNop(), WithCommandRunner(runner), WithWorkDir(t.TempDir()))
	if _, err := engine.Synthesize(context.Background(), "Hello", "Ghost"); err != nil {
		t.Fatalf("expected fallback to default voice, got %v", err)
	}
	if sayCalls != 2 {
		t.Fatalf("expected 2 say invocations, got %d", sayCalls)
	}
}

func TestSayEmptyAudioIsSynthesisError(t *testing.T) {
	runner := func(_ context.Context, name string, _ ...string) ([]byte, error) {
		return nil, nil // ffmpeg yields zero PCM bytes
	}
	engine := NewSay(logging.NewNop(), WithCommandRunner(runner), WithWorkDir(t.TempDir()))
	_, err := engine.Synthesize(context.Background(), "Hello", "")
	var synthErr *SynthesisError
	if !errors.As(err, &synthErr) {
		t.Fatalf("expected *SynthesisError, got %v", err)
	}
}

func TestSayRejectsEmptyText(t *testing.T) {
	engine := NewSay(logging.NewNop(), WithWorkDir(t.TempDir()))
	var synthErr *SynthesisError
	if _, err := engine.Synthesize(context.Background(), "   ", ""); !errors.As(err, &synthErr) {
		t.Fatalf("expected *SynthesisError for blank text, got %v", err)
	}
}

func TestSayVoicesParsing(t *testing.T) {
	output := strings.Join([]string{
		"Alex                en_US    # Most people recognize me by my voice.",
		"Amélie              fr_CA    # Bonjour, je m'appelle Amélie.",
		"Bad News            en_US    # The light you see at the end of the tunnel.",
		"",
	}, "\n")
	runner := func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return []byte(output), nil
	}
	engine := NewSay(logging.NewNop(), WithCommandRunner(runner))
	voices, err := engine.Voices(context.Background())
	if err != nil {
		t.Fatalf("voices failed: %v", err)
	}
	if len(voices) != 3 {
		t.Fatalf("expected 3 voices, got %d", len(voices))
	}
	if voices[0].Name != "Alex" || voices[0].Language != "en_US" {
		t.Fatalf("unexpected first voice: %+v", voices[0])
	}
	if voices[2].Name != "Bad News" {
		t.Fatalf("multi-word voice name mangled: %+v", voices[2])
	}
	if !strings.Contains(voices[1].Description, "Amélie") {
		t.Fatalf("description lost: %+v", voices[1])
	}
}

func TestSayVoicesFailure(t *testing.T) {
	runner := func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return nil, fmt.Errorf("say: command not found")
	}
	engine := NewSay(logging.NewNop(), WithCommandRunner(runner))
	if _, err := engine.Voices(context.Background()); err == nil {
		t.Fatal("expected error when say fails")
	}
}

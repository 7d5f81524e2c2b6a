package tts

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"saysubs/internal/audio"
	"saysubs/internal/logging"
)

// commandRunner executes an external command and returns its stdout.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultCommandRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, tail(detail, 4))
	}
	return stdout.Bytes(), nil
}

func tail(text string, lines int) string {
	split := strings.Split(text, "\n")
	if len(split) > lines {
		split = split[len(split)-lines:]
	}
	return strings.Join(split, " | ")
}

// Say synthesizes speech through the macOS `say` command and decodes the
// resulting AIFF into canonical PCM with ffmpeg.
type Say struct {
	sayBinary    string
	ffmpegBinary string
	format       audio.Format
	rateWPM      int
	workDir      string
	logger       *slog.Logger
	run          commandRunner
}

// SayOption configures the Say engine.
type SayOption func(*Say)

// WithSayBinary overrides the `say` binary path.
func WithSayBinary(binary string) SayOption {
	return func(s *Say) {
		if strings.TrimSpace(binary) != "" {
			s.sayBinary = binary
		}
	}
}

// WithFFmpegBinary overrides the ffmpeg binary path.
func WithFFmpegBinary(binary string) SayOption {
	return func(s *Say) {
		if strings.TrimSpace(binary) != "" {
			s.ffmpegBinary = binary
		}
	}
}

// WithFormat sets the decoded PCM format.
func WithFormat(f audio.Format) SayOption {
	return func(s *Say) { s.format = f }
}

// WithRateWPM sets the speaking rate in words per minute.
func WithRateWPM(rate int) SayOption {
	return func(s *Say) {
		if rate > 0 {
			s.rateWPM = rate
		}
	}
}

// WithWorkDir sets the directory for intermediate AIFF files.
func WithWorkDir(dir string) SayOption {
	return func(s *Say) {
		if strings.TrimSpace(dir) != "" {
			s.workDir = dir
		}
	}
}

// WithCommandRunner injects a custom command runner for tests.
func WithCommandRunner(r commandRunner) SayOption {
	return func(s *Say) {
		if r != nil {
			s.run = r
		}
	}
}

// NewSay constructs the production engine.
func NewSay(logger *slog.Logger, opts ...SayOption) *Say {
	s := &Say{
		sayBinary:    "say",
		ffmpegBinary: "ffmpeg",
		format:       audio.DefaultFormat(),
		rateWPM:      200,
		workDir:      os.TempDir(),
		logger:       logging.NewComponentLogger(logger, "tts"),
		run:          defaultCommandRunner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize renders text to PCM. The intermediate AIFF lives only for the
// duration of the call.
func (s *Say) Synthesize(ctx context.Context, text, voice string) (audio.Buffer, error) {
	if strings.TrimSpace(text) == "" {
		return audio.Buffer{}, &SynthesisError{Text: text, Voice: voice, Err: fmt.Errorf("empty text")}
	}

	tmp, err := os.CreateTemp(s.workDir, "say-*.aiff")
	if err != nil {
		return audio.Buffer{}, &SynthesisError{Text: text, Voice: voice, Err: fmt.Errorf("create temp aiff: %w", err)}
	}
	aiffPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(aiffPath)

	args := []string{"-o", aiffPath}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	args = append(args, "-r", strconv.Itoa(s.rateWPM), text)
	if _, err := s.run(ctx, s.sayBinary, args...); err != nil {
		// Voice packs go missing; one retry with the platform default voice
		// mirrors how the tool behaves interactively.
		if voice == "" {
			return audio.Buffer{}, &SynthesisError{Text: text, Voice: voice, Err: err}
		}
		s.logger.Warn("say failed with requested voice, retrying with default",
			logging.String("voice", voice), logging.Error(err))
		fallback := append([]string{"-o", aiffPath, "-r", strconv.Itoa(s.rateWPM)}, text)
		if _, err := s.run(ctx, s.sayBinary, fallback...); err != nil {
			return audio.Buffer{}, &SynthesisError{Text: text, Voice: voice, Err: err}
		}
	}

	pcm, err := s.decode(ctx, aiffPath)
	if err != nil {
		return audio.Buffer{}, &SynthesisError{Text: text, Voice: voice, Err: err}
	}
	buf := audio.Buffer{Format: s.format, PCM: pcm}
	if buf.Empty() {
		return audio.Buffer{}, &SynthesisError{Text: text, Voice: voice, Err: fmt.Errorf("synthesizer produced no audio")}
	}
	s.logger.Debug("synthesized cue audio",
		logging.String("voice", voice),
		logging.Duration("natural_duration", buf.Duration()),
	)
	return buf, nil
}

// decode converts the AIFF into raw interleaved s16le on stdout.
func (s *Say) decode(ctx context.Context, aiffPath string) ([]byte, error) {
	args := []string{
		"-v", "error", "-nostdin",
		"-i", aiffPath,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(s.format.SampleRate),
		"-ac", strconv.Itoa(s.format.Channels),
		"-",
	}
	pcm, err := s.run(ctx, s.ffmpegBinary, args...)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(aiffPath), err)
	}
	return pcm, nil
}

var voiceLine = regexp.MustCompile(`^(\S[^#]*?)\s{2,}(\S+)\s*(?:#\s*(.*))?$`)

// Voices parses `say -v ?` output into structured voice entries.
func (s *Say) Voices(ctx context.Context) ([]Voice, error) {
	output, err := s.run(ctx, s.sayBinary, "-v", "?")
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	var voices []Voice
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			continue
		}
		match := voiceLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		voices = append(voices, Voice{
			Name:        strings.TrimSpace(match[1]),
			Language:    strings.TrimSpace(match[2]),
			Description: strings.TrimSpace(match[3]),
		})
	}
	if len(voices) == 0 {
		return nil, fmt.Errorf("list voices: no parsable entries in %q output", s.sayBinary)
	}
	return voices, nil
}

var _ Engine = (*Say)(nil)

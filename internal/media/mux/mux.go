// Package mux joins the assembled narration track with the source video using
// ffmpeg. The video stream is copied untouched; only the audio is encoded.
package mux

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"saysubs/internal/logging"
	"saysubs/internal/media/ffprobe"
)

// Request describes one audio replacement operation.
type Request struct {
	VideoPath  string
	AudioPath  string // WAV narration track
	OutputPath string // defaults to DefaultOutputPath(VideoPath)
	Bitrate    string // AAC bitrate, defaults to 192k
	SampleRate int
	Channels   int
}

// Result reports a completed mux.
type Result struct {
	OutputPath string
	Encoder    string
}

// MuxError reports a failed external mux invocation.
type MuxError struct {
	Encoder string
	Err     error
}

func (e *MuxError) Error() string {
	return fmt.Sprintf("mux with %s: %v", e.Encoder, e.Err)
}

func (e *MuxError) Unwrap() error {
	return e.Err
}

// DefaultOutputPath places the output next to the source video.
func DefaultOutputPath(videoPath string) string {
	dir := filepath.Dir(videoPath)
	base := filepath.Base(videoPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+"_tts_audio.mp4")
}

type commandRunner func(ctx context.Context, name string, args ...string) error

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		lines := strings.Split(detail, "\n")
		if len(lines) > 6 {
			lines = lines[len(lines)-6:]
		}
		return fmt.Errorf("%s: %w: %s", name, err, strings.Join(lines, " | "))
	}
	return nil
}

type probeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Muxer replaces a video's audio track with the assembled narration.
type Muxer struct {
	ffmpegBinary  string
	ffprobeBinary string
	logger        *slog.Logger
	run           commandRunner
	probe         probeFunc
}

// Option configures the muxer.
type Option func(*Muxer)

// WithFFmpegBinary overrides the ffmpeg binary path.
func WithFFmpegBinary(binary string) Option {
	return func(m *Muxer) {
		if strings.TrimSpace(binary) != "" {
			m.ffmpegBinary = binary
		}
	}
}

// WithFFprobeBinary overrides the ffprobe binary used for output verification.
func WithFFprobeBinary(binary string) Option {
	return func(m *Muxer) {
		if strings.TrimSpace(binary) != "" {
			m.ffprobeBinary = binary
		}
	}
}

// WithCommandRunner injects a custom command runner for tests.
func WithCommandRunner(r commandRunner) Option {
	return func(m *Muxer) {
		if r != nil {
			m.run = r
		}
	}
}

// WithProbe injects a custom output verifier for tests.
func WithProbe(p probeFunc) Option {
	return func(m *Muxer) {
		if p != nil {
			m.probe = p
		}
	}
}

// New constructs a muxer.
func New(logger *slog.Logger, opts ...Option) *Muxer {
	m := &Muxer{
		ffmpegBinary:  "ffmpeg",
		ffprobeBinary: "ffprobe",
		logger:        logging.NewComponentLogger(logger, "mux"),
		run:           defaultCommandRunner,
		probe:         ffprobe.Inspect,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Hardware AAC first where available, then the portable encoders.
var encoderChain = []struct {
	name  string
	extra []string
}{
	{name: "aac_at"},
	{name: "aac"},
	{name: "aac", extra: []string{"-strict", "-2"}},
}

// ReplaceAudio muxes the narration into a new container. The write is atomic:
// ffmpeg targets a temp file which is verified and renamed on success, so a
// failed run never leaves a partial output at the destination.
func (m *Muxer) ReplaceAudio(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.VideoPath) == "" {
		return Result{}, fmt.Errorf("video path is required")
	}
	if strings.TrimSpace(req.AudioPath) == "" {
		return Result{}, fmt.Errorf("audio path is required")
	}
	if _, err := os.Stat(req.VideoPath); err != nil {
		return Result{}, fmt.Errorf("source video not found: %w", err)
	}
	if _, err := os.Stat(req.AudioPath); err != nil {
		return Result{}, fmt.Errorf("narration track not found: %w", err)
	}

	output := req.OutputPath
	if strings.TrimSpace(output) == "" {
		output = DefaultOutputPath(req.VideoPath)
	}
	ext := filepath.Ext(output)
	tmpPath := strings.TrimSuffix(output, ext) + ".partial" + ext

	var lastErr error
	for _, encoder := range encoderChain {
		args := m.buildArgs(req, encoder.name, encoder.extra, tmpPath)
		m.logger.Debug("executing ffmpeg mux",
			logging.String("encoder", encoder.name),
			logging.String("output", output),
		)
		if err := m.run(ctx, m.ffmpegBinary, args...); err != nil {
			_ = os.Remove(tmpPath)
			lastErr = &MuxError{Encoder: encoder.name, Err: err}
			if ctx.Err() != nil {
				return Result{}, lastErr
			}
			m.logger.Warn("encoder failed, trying next", logging.String("encoder", encoder.name), logging.Error(err))
			continue
		}
		if err := m.verify(ctx, tmpPath); err != nil {
			_ = os.Remove(tmpPath)
			lastErr = &MuxError{Encoder: encoder.name, Err: err}
			if ctx.Err() != nil {
				return Result{}, lastErr
			}
			m.logger.Warn("output verification failed, trying next encoder",
				logging.String("encoder", encoder.name), logging.Error(err))
			continue
		}
		if err := os.Rename(tmpPath, output); err != nil {
			_ = os.Remove(tmpPath)
			return Result{}, &MuxError{Encoder: encoder.name, Err: fmt.Errorf("finalize output: %w", err)}
		}
		m.logger.Info("narration muxed",
			logging.String("encoder", encoder.name),
			logging.String("output", output),
		)
		return Result{OutputPath: output, Encoder: encoder.name}, nil
	}
	if lastErr == nil {
		lastErr = &MuxError{Encoder: "none", Err: fmt.Errorf("no encoder attempted")}
	}
	return Result{}, lastErr
}

func (m *Muxer) buildArgs(req Request, encoder string, extra []string, tmpPath string) []string {
	bitrate := req.Bitrate
	if strings.TrimSpace(bitrate) == "" {
		bitrate = "192k"
	}
	sampleRate := req.SampleRate
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	channels := req.Channels
	if channels <= 0 {
		channels = 2
	}
	args := []string{
		"-y", "-nostdin", "-v", "error",
		"-i", req.VideoPath,
		"-i", req.AudioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", encoder,
		"-b:a", bitrate,
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-movflags", "+faststart",
		"-shortest",
	}
	args = append(args, extra...)
	return append(args, tmpPath)
}

// verify confirms the muxed container actually carries decodable audio.
func (m *Muxer) verify(ctx context.Context, path string) error {
	result, err := m.probe(ctx, m.ffprobeBinary, path)
	if err != nil {
		return fmt.Errorf("probe output: %w", err)
	}
	if result.AudioStreamCount() == 0 {
		return fmt.Errorf("output has no audio stream")
	}
	if result.VideoStreamCount() == 0 {
		return fmt.Errorf("output has no video stream")
	}
	if result.Duration() <= 0 {
		return fmt.Errorf("output has no reported duration")
	}
	return nil
}

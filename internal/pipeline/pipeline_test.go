package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"saysubs/internal/audio"
	"saysubs/internal/config"
	"saysubs/internal/logging"
	"saysubs/internal/media/ffprobe"
	"saysubs/internal/media/mux"
	"saysubs/internal/srt"
	"saysubs/internal/timeline"
	"saysubs/internal/tts"
)

const testSubtitles = `1
00:00:01,000 --> 00:00:03,000
Hello

2
00:00:03,500 --> 00:00:05,000
World
`

type fakeMuxer struct {
	mu       sync.Mutex
	requests []mux.Request
	fail     bool
}

func (f *fakeMuxer) ReplaceAudio(_ context.Context, req mux.Request) (mux.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.fail {
		return mux.Result{}, &mux.MuxError{Encoder: "aac", Err: fmt.Errorf("exit status 1")}
	}
	return mux.Result{OutputPath: req.OutputPath, Encoder: "aac"}, nil
}

func fixedProber(seconds string) prober {
	return func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{CodecType: "video"}},
			Format:  ffprobe.Format{Duration: seconds},
		}, nil
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = dir
	cfg.Paths.LogDir = dir
	cfg.Paths.JournalPath = filepath.Join(dir, "journal.db")
	return &cfg
}

func writeInputs(t *testing.T, subtitles string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	video := filepath.Join(dir, "demo.mp4")
	if err := os.WriteFile(video, []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	subs := filepath.Join(dir, "demo.srt")
	if err := os.WriteFile(subs, []byte(subtitles), 0o644); err != nil {
		t.Fatalf("write subtitles: %v", err)
	}
	return video, subs
}

func TestRunProducesOutput(t *testing.T) {
	video, subs := writeInputs(t, testSubtitles)
	muxer := &fakeMuxer{}
	p := New(testConfig(t), tts.NewFake(), logging.NewNop(),
		WithMuxer(muxer), WithProber(fixedProber("6.0")))

	var events []Event
	result, err := p.Run(context.Background(), Request{
		VideoPath:    video,
		SubtitlePath: subs,
		Voice:        "Samantha",
		Progress:     func(e Event) { events = append(events, e) },
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.CueCount != 2 || result.DroppedCues != 0 || result.SubstitutedCues != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	want := filepath.Join(filepath.Dir(video), "demo_tts_audio.mp4")
	if result.OutputPath != want {
		t.Fatalf("output path %s, want %s", result.OutputPath, want)
	}

	if len(muxer.requests) != 1 {
		t.Fatalf("expected one mux call, got %d", len(muxer.requests))
	}
	if _, err := os.Stat(muxer.requests[0].AudioPath); !os.IsNotExist(err) {
		t.Fatal("work directory should be cleaned up after the run")
	}

	var stages []Stage
	for _, event := range events {
		stages = append(stages, event.Stage)
	}
	joined := fmt.Sprint(stages)
	for _, stage := range []Stage{StageProbe, StageParse, StageSchedule, StageSynthesize, StageAssemble, StageMux, StageDone} {
		if !strings.Contains(joined, string(stage)) {
			t.Fatalf("missing %s event in %v", stage, stages)
		}
	}
}

func TestRunSubstitutesSilenceOnSynthesisFailure(t *testing.T) {
	var blocks []string
	for i := 1; i <= 10; i++ {
		start := time.Duration(i) * 2 * time.Second
		end := start + time.Second
		blocks = append(blocks, fmt.Sprintf("%d\n%s --> %s\nLine %d\n",
			i, srt.FormatTimestamp(start), srt.FormatTimestamp(end), i))
	}
	video, subs := writeInputs(t, strings.Join(blocks, "\n"))

	engine := tts.NewFake()
	engine.Fail = map[string]bool{"Line 4": true}

	muxer := &fakeMuxer{}
	p := New(testConfig(t), engine, logging.NewNop(),
		WithMuxer(muxer), WithProber(fixedProber("30.0")))

	result, err := p.Run(context.Background(), Request{VideoPath: video, SubtitlePath: subs})
	if err != nil {
		t.Fatalf("run should survive one bad cue: %v", err)
	}
	if result.CueCount != 10 {
		t.Fatalf("expected 10 cues, got %d", result.CueCount)
	}
	if result.SubstitutedCues != 1 {
		t.Fatalf("expected 1 substituted cue, got %d", result.SubstitutedCues)
	}
}

func TestRunFailsOnMuxError(t *testing.T) {
	video, subs := writeInputs(t, testSubtitles)
	muxer := &fakeMuxer{fail: true}
	p := New(testConfig(t), tts.NewFake(), logging.NewNop(),
		WithMuxer(muxer), WithProber(fixedProber("6.0")))

	_, err := p.Run(context.Background(), Request{VideoPath: video, SubtitlePath: subs})
	if err == nil {
		t.Fatal("expected mux failure to abort the run")
	}
}

func TestRunFailsOnEmptySubtitles(t *testing.T) {
	video, subs := writeInputs(t, "")
	p := New(testConfig(t), tts.NewFake(), logging.NewNop(),
		WithMuxer(&fakeMuxer{}), WithProber(fixedProber("6.0")))

	_, err := p.Run(context.Background(), Request{VideoPath: video, SubtitlePath: subs})
	if err == nil {
		t.Fatal("expected empty subtitle file to fail")
	}
}

func TestRunFailsOnMissingInputs(t *testing.T) {
	p := New(testConfig(t), tts.NewFake(), logging.NewNop(), WithMuxer(&fakeMuxer{}))
	_, err := p.Run(context.Background(), Request{VideoPath: "/missing.mp4", SubtitlePath: "/missing.srt"})
	if err == nil {
		t.Fatal("expected error for missing inputs")
	}
}

func TestRunCancellation(t *testing.T) {
	video, subs := writeInputs(t, testSubtitles)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(testConfig(t), tts.NewFake(), logging.NewNop(),
		WithMuxer(&fakeMuxer{}), WithProber(fixedProber("6.0")))
	if _, err := p.Run(ctx, Request{VideoPath: video, SubtitlePath: subs}); err == nil {
		t.Fatal("expected cancelled run to fail")
	}
}

// Two passes over the same timeline with the deterministic fake engine must
// produce byte-identical assembled tracks.
func TestSynthesizeAssembleIdempotent(t *testing.T) {
	cues, _, err := srt.Parse([]byte(testSubtitles), srt.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tl, _, err := timeline.Normalize(cues, 6*time.Second)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	p := New(testConfig(t), tts.NewFake(), logging.NewNop(), WithMuxer(&fakeMuxer{}))
	emit := func(Event) {}

	build := func() audio.Buffer {
		clips, substituted, err := p.synthesizeClips(context.Background(), tl, "", logging.NewNop(), emit)
		if err != nil {
			t.Fatalf("synthesize: %v", err)
		}
		if substituted != 0 {
			t.Fatalf("unexpected substitutions: %d", substituted)
		}
		track, err := audio.Assemble(p.format(), clips, tl.Total)
		if err != nil {
			t.Fatalf("assemble: %v", err)
		}
		return track
	}

	first := build()
	second := build()
	if string(first.PCM) != string(second.PCM) {
		t.Fatal("identical inputs produced different assembled tracks")
	}
	if first.Duration() != 6*time.Second {
		t.Fatalf("track duration %v, want 6s", first.Duration())
	}
}

func TestOutputLockPreventsConcurrentRuns(t *testing.T) {
	video, subs := writeInputs(t, testSubtitles)

	started := make(chan struct{})
	release := make(chan struct{})
	slowProbe := func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		close(started)
		<-release
		return fixedProber("6.0")(ctx, binary, path)
	}

	p1 := New(testConfig(t), tts.NewFake(), logging.NewNop(),
		WithMuxer(&fakeMuxer{}), WithProber(slowProbe))
	p2 := New(testConfig(t), tts.NewFake(), logging.NewNop(),
		WithMuxer(&fakeMuxer{}), WithProber(fixedProber("6.0")))

	done := make(chan error, 1)
	go func() {
		_, err := p1.Run(context.Background(), Request{VideoPath: video, SubtitlePath: subs})
		done <- err
	}()
	<-started

	if _, err := p2.Run(context.Background(), Request{VideoPath: video, SubtitlePath: subs}); err == nil {
		t.Fatal("expected second run to fail while lock is held")
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
}

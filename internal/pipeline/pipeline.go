package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"saysubs/internal/audio"
	"saysubs/internal/config"
	"saysubs/internal/journal"
	"saysubs/internal/logging"
	"saysubs/internal/media/ffprobe"
	"saysubs/internal/media/mux"
	"saysubs/internal/srt"
	"saysubs/internal/timeline"
	"saysubs/internal/tts"
)

// Stage identifies a phase of the run for progress reporting.
type Stage string

const (
	StageProbe      Stage = "probe"
	StageParse      Stage = "parse"
	StageSchedule   Stage = "schedule"
	StageSynthesize Stage = "synthesize"
	StageAssemble   Stage = "assemble"
	StageMux        Stage = "mux"
	StageDone       Stage = "done"
)

// Event is a progress update. CueIndex is zero for stage-level events.
type Event struct {
	Stage    Stage
	CueIndex int
	CueCount int
	Message  string
}

// ProgressFunc receives progress events. It may be invoked from multiple
// goroutines; the pipeline serializes calls.
type ProgressFunc func(Event)

// Request describes one narration run.
type Request struct {
	VideoPath    string
	SubtitlePath string
	Voice        string
	Progress     ProgressFunc
}

// Result summarizes a successful run.
type Result struct {
	RunID           string
	OutputPath      string
	VideoDuration   time.Duration
	CueCount        int
	SkippedBlocks   int // malformed subtitle blocks skipped by lenient parsing
	DroppedCues     int // cues removed during timeline normalization
	SubstitutedCues int // cues replaced with silence after synthesis failure
}

// AudioReplacer is the mux capability the pipeline delegates to.
type AudioReplacer interface {
	ReplaceAudio(ctx context.Context, req mux.Request) (mux.Result, error)
}

type prober func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Pipeline wires the narration stages together.
type Pipeline struct {
	cfg    *config.Config
	engine tts.Engine
	muxer  AudioReplacer
	probe  prober
	store  *journal.Store
	logger *slog.Logger
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithMuxer overrides the mux capability, mainly for tests.
func WithMuxer(m AudioReplacer) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.muxer = m
		}
	}
}

// WithProber overrides video inspection, mainly for tests.
func WithProber(pr prober) Option {
	return func(p *Pipeline) {
		if pr != nil {
			p.probe = pr
		}
	}
}

// WithJournal records runs in the given store.
func WithJournal(store *journal.Store) Option {
	return func(p *Pipeline) { p.store = store }
}

// New constructs a pipeline around the given engine.
func New(cfg *config.Config, engine tts.Engine, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		engine: engine,
		probe:  ffprobe.Inspect,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
	p.muxer = mux.New(logger,
		mux.WithFFmpegBinary(cfg.Tools.FFmpeg),
		mux.WithFFprobeBinary(cfg.Tools.FFprobe),
	)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) format() audio.Format {
	return audio.Format{SampleRate: p.cfg.Audio.SampleRate, Channels: p.cfg.Audio.Channels}
}

// Run executes the full narration pipeline. The source files are never
// mutated; output appears atomically at its final path only after a
// successful mux.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	emit := newEmitter(req.Progress)

	if _, err := os.Stat(req.VideoPath); err != nil {
		return Result{}, fmt.Errorf("source video: %w", err)
	}
	if _, err := os.Stat(req.SubtitlePath); err != nil {
		return Result{}, fmt.Errorf("subtitle file: %w", err)
	}
	outputPath := mux.DefaultOutputPath(req.VideoPath)

	// One writer per output path at a time.
	lock := flock.New(outputPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire output lock: %w", err)
	}
	if !locked {
		return Result{}, fmt.Errorf("another run is already writing %s", outputPath)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	runID := p.beginJournal(ctx, req)
	logger := p.logger
	if runID != "" {
		logger = logger.With(logging.String(logging.FieldRunID, runID))
	}

	result, err := p.run(ctx, req, outputPath, logger, emit)
	result.RunID = runID
	if err != nil {
		p.failJournal(ctx, runID, err)
		return Result{RunID: runID}, err
	}
	p.completeJournal(ctx, runID, result)
	emit(Event{Stage: StageDone, Message: result.OutputPath})
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, outputPath string, logger *slog.Logger, emit ProgressFunc) (Result, error) {
	emit(Event{Stage: StageProbe, Message: req.VideoPath})
	probed, err := p.probe(ctx, p.cfg.Tools.FFprobe, req.VideoPath)
	if err != nil {
		return Result{}, fmt.Errorf("probe video: %w", err)
	}
	if probed.VideoStreamCount() == 0 {
		return Result{}, fmt.Errorf("probe video: %s has no video stream", req.VideoPath)
	}
	total := probed.Duration()
	if total <= 0 {
		return Result{}, fmt.Errorf("probe video: %s has no usable duration", req.VideoPath)
	}

	emit(Event{Stage: StageParse, Message: req.SubtitlePath})
	data, err := os.ReadFile(req.SubtitlePath)
	if err != nil {
		return Result{}, fmt.Errorf("read subtitles: %w", err)
	}
	cues, parseWarnings, err := srt.Parse(data, srt.Options{Lenient: p.cfg.Pipeline.LenientParse})
	if err != nil {
		return Result{}, err
	}
	for _, warning := range parseWarnings {
		logger.Warn("subtitle block skipped", logging.Int("block", warning.Block), logging.String("reason", warning.Reason))
	}

	emit(Event{Stage: StageSchedule, CueCount: len(cues)})
	tl, dropped, err := timeline.Normalize(cues, total)
	if err != nil {
		return Result{}, err
	}
	for _, warning := range dropped {
		logger.Warn("cue dropped during scheduling", logging.Int(logging.FieldCue, warning.Index), logging.String("reason", warning.Reason))
	}

	clips, substituted, err := p.synthesizeClips(ctx, tl, req.Voice, logger, emit)
	if err != nil {
		return Result{}, err
	}

	emit(Event{Stage: StageAssemble, CueCount: len(tl.Cues)})
	track, err := audio.Assemble(p.format(), clips, total)
	if err != nil {
		return Result{}, err
	}

	workDir, err := os.MkdirTemp(p.cfg.Paths.WorkDir, "narrate-")
	if err != nil {
		return Result{}, fmt.Errorf("create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	wavPath := filepath.Join(workDir, "narration.wav")
	if err := audio.WriteWAV(wavPath, track); err != nil {
		return Result{}, err
	}

	emit(Event{Stage: StageMux, Message: outputPath})
	muxed, err := p.muxer.ReplaceAudio(ctx, mux.Request{
		VideoPath:  req.VideoPath,
		AudioPath:  wavPath,
		OutputPath: outputPath,
		Bitrate:    p.cfg.Audio.Bitrate,
		SampleRate: p.cfg.Audio.SampleRate,
		Channels:   p.cfg.Audio.Channels,
	})
	if err != nil {
		return Result{}, err
	}

	logger.Info("narration complete",
		logging.String("output", muxed.OutputPath),
		logging.Int("cues", len(tl.Cues)),
		logging.Int("dropped", len(dropped)),
		logging.Int("substituted", substituted),
	)
	return Result{
		OutputPath:      muxed.OutputPath,
		VideoDuration:   total,
		CueCount:        len(tl.Cues),
		SkippedBlocks:   len(parseWarnings),
		DroppedCues:     len(dropped),
		SubstitutedCues: substituted,
	}, nil
}

func (p *Pipeline) workerCount(cueCount int) int {
	workers := p.cfg.Pipeline.Workers
	if workers < 1 {
		workers = 1
	}
	if cueCount < workers {
		workers = cueCount
	}
	return workers
}

// synthesizeClips renders every cue concurrently. Each cue owns a disjoint
// window of the output timeline, so workers never contend; the WaitGroup is
// the completion barrier assembly depends on.
func (p *Pipeline) synthesizeClips(ctx context.Context, tl timeline.Timeline, voice string, logger *slog.Logger, emit ProgressFunc) ([]audio.FittedClip, int, error) {
	format := p.format()
	clips := make([]audio.FittedClip, len(tl.Cues))

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		substituted int
	)
	sem := make(chan struct{}, p.workerCount(len(tl.Cues)))

	for i, cue := range tl.Cues {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(slot int, cue srt.Cue) {
			defer wg.Done()
			defer func() { <-sem }()

			placement := audio.Placement{Index: cue.Index, Start: cue.Start, End: cue.End}
			clips[slot] = p.renderCue(ctx, cue, placement, format, voice, logger, &mu, &substituted)
			emit(Event{Stage: StageSynthesize, CueIndex: cue.Index, CueCount: len(tl.Cues)})
		}(i, cue)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return clips, substituted, nil
}

func (p *Pipeline) renderCue(ctx context.Context, cue srt.Cue, placement audio.Placement, format audio.Format, voice string, logger *slog.Logger, mu *sync.Mutex, substituted *int) audio.FittedClip {
	text := tts.CleanText(cue.Text)
	if text == "" {
		// Nothing speakable remains after cleaning; leave the window silent.
		return audio.SilentClip(format, placement)
	}

	clip, err := p.engine.Synthesize(ctx, text, voice)
	if err != nil {
		if ctx.Err() != nil {
			return audio.SilentClip(format, placement)
		}
		logger.Warn("synthesis failed, substituting silence",
			logging.Int(logging.FieldCue, cue.Index),
			logging.Error(err),
		)
		mu.Lock()
		*substituted++
		mu.Unlock()
		return audio.SilentClip(format, placement)
	}

	fitted, err := audio.Fit(clip, placement)
	if err != nil {
		logger.Warn("fitting failed, substituting silence",
			logging.Int(logging.FieldCue, cue.Index),
			logging.Error(err),
		)
		mu.Lock()
		*substituted++
		mu.Unlock()
		return audio.SilentClip(format, placement)
	}
	if fitted.Strategy != audio.FitExact {
		logger.Debug("clip fitted",
			logging.Int(logging.FieldCue, cue.Index),
			logging.String("strategy", string(fitted.Strategy)),
			logging.Duration("natural", clip.Duration()),
			logging.Duration("window", placement.Window()),
		)
	}
	return fitted
}

func newEmitter(progress ProgressFunc) ProgressFunc {
	if progress == nil {
		return func(Event) {}
	}
	var mu sync.Mutex
	return func(event Event) {
		mu.Lock()
		defer mu.Unlock()
		progress(event)
	}
}

func (p *Pipeline) beginJournal(ctx context.Context, req Request) string {
	if p.store == nil {
		return ""
	}
	id, err := p.store.Begin(ctx, req.VideoPath, req.SubtitlePath, req.Voice)
	if err != nil {
		p.logger.Warn("journal unavailable", logging.Error(err))
		return ""
	}
	return id
}

func (p *Pipeline) completeJournal(ctx context.Context, id string, result Result) {
	if p.store == nil || id == "" {
		return
	}
	err := p.store.Complete(context.WithoutCancel(ctx), id, journal.Outcome{
		OutputPath:      result.OutputPath,
		CueCount:        result.CueCount,
		DroppedCues:     result.DroppedCues,
		SubstitutedCues: result.SubstitutedCues,
	})
	if err != nil {
		p.logger.Warn("journal update failed", logging.Error(err))
	}
}

func (p *Pipeline) failJournal(ctx context.Context, id string, runErr error) {
	if p.store == nil || id == "" {
		return
	}
	// Record the failure even when the run was cancelled.
	if err := p.store.Fail(context.WithoutCancel(ctx), id, runErr.Error()); err != nil {
		p.logger.Warn("journal update failed", logging.Error(err))
	}
}

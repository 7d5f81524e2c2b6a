package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"saysubs/internal/pipeline"
)

func newNarrateCommand(ctx *commandContext) *cobra.Command {
	var voice string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "narrate <video> <subtitles>",
		Short: "Synthesize a narration track from an SRT file and mux it into a new video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			store, err := ctx.openJournal(cfg)
			if err != nil {
				return fmt.Errorf("open run journal: %w", err)
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			progress := func(event pipeline.Event) {
				if quiet {
					return
				}
				switch event.Stage {
				case pipeline.StageProbe:
					fmt.Fprintf(out, "Probing %s\n", event.Message)
				case pipeline.StageParse:
					fmt.Fprintf(out, "Parsing %s\n", event.Message)
				case pipeline.StageSchedule:
					fmt.Fprintf(out, "Scheduling %d cues\n", event.CueCount)
				case pipeline.StageSynthesize:
					fmt.Fprintf(out, "Synthesized cue %d/%d\n", event.CueIndex, event.CueCount)
				case pipeline.StageAssemble:
					fmt.Fprintln(out, "Assembling narration track")
				case pipeline.StageMux:
					fmt.Fprintf(out, "Writing %s\n", event.Message)
				}
			}

			p := pipeline.New(cfg, ctx.newEngine(cfg, logger), logger, pipeline.WithJournal(store))
			started := time.Now()
			result, err := p.Run(runCtx, pipeline.Request{
				VideoPath:    args[0],
				SubtitlePath: args[1],
				Voice:        voice,
				Progress:     progress,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Done in %s: %s\n", time.Since(started).Round(time.Second), result.OutputPath)
			if result.SkippedBlocks > 0 {
				fmt.Fprintf(out, "  %d malformed subtitle block(s) skipped\n", result.SkippedBlocks)
			}
			if result.DroppedCues > 0 {
				fmt.Fprintf(out, "  %d cue(s) dropped during scheduling\n", result.DroppedCues)
			}
			if result.SubstitutedCues > 0 {
				fmt.Fprintf(out, "  %d cue(s) replaced with silence after synthesis failures\n", result.SubstitutedCues)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&voice, "voice", "v", "", "Voice to synthesize with (system default when empty)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress per-stage progress output")
	return cmd
}

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"saysubs/internal/media/ffprobe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <video>",
		Short: "Inspect a media file's streams and duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := ffprobe.Inspect(cmd.Context(), cfg.Tools.FFprobe, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File: %s\n", args[0])
			fmt.Fprintf(out, "Container: %s\n", result.Format.FormatName)
			fmt.Fprintf(out, "Duration: %s\n", formatClock(result.Duration()))
			fmt.Fprintf(out, "Streams: %d video, %d audio\n\n", result.VideoStreamCount(), result.AudioStreamCount())

			rows := make([][]string, 0, len(result.Streams))
			for _, stream := range result.Streams {
				rows = append(rows, []string{
					strconv.Itoa(stream.Index),
					stream.CodecType,
					stream.CodecName,
					streamDetail(stream),
				})
			}
			table := renderTable(
				[]string{"#", "Type", "Codec", "Detail"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(out, table)
			return nil
		},
	}
}

func streamDetail(stream ffprobe.Stream) string {
	switch stream.CodecType {
	case "video":
		if stream.Width > 0 && stream.Height > 0 {
			return fmt.Sprintf("%dx%d", stream.Width, stream.Height)
		}
	case "audio":
		if stream.SampleRate != "" {
			return fmt.Sprintf("%s Hz, %d ch", stream.SampleRate, stream.Channels)
		}
	}
	return ""
}

func formatClock(d time.Duration) string {
	if d <= 0 {
		return "unknown"
	}
	d = d.Round(time.Second)
	hours := d / time.Hour
	minutes := (d % time.Hour) / time.Minute
	seconds := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

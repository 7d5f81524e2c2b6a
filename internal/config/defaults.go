package config

const (
	defaultWorkDir     = "~/.local/share/saysubs/work"
	defaultLogDir      = "~/.local/share/saysubs/logs"
	defaultJournalPath = "~/.local/share/saysubs/journal.db"
	defaultFFmpeg      = "ffmpeg"
	defaultFFprobe     = "ffprobe"
	defaultSay         = "say"
	defaultSampleRate  = 48000
	defaultChannels    = 2
	defaultRateWPM     = 200
	defaultBitrate     = "192k"
	defaultWorkers     = 4
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:     defaultWorkDir,
			LogDir:      defaultLogDir,
			JournalPath: defaultJournalPath,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
			Say:     defaultSay,
		},
		Audio: Audio{
			SampleRate: defaultSampleRate,
			Channels:   defaultChannels,
			RateWPM:    defaultRateWPM,
			Bitrate:    defaultBitrate,
		},
		Pipeline: Pipeline{
			Workers:      defaultWorkers,
			LenientParse: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

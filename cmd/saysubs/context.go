package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"saysubs/internal/audio"
	"saysubs/internal/config"
	"saysubs/internal/journal"
	"saysubs/internal/logging"
	"saysubs/internal/tts"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// newEngine builds the speech engine configured for the host say binary.
func (c *commandContext) newEngine(cfg *config.Config, logger *slog.Logger) tts.Engine {
	return tts.NewSay(logger,
		tts.WithSayBinary(cfg.Tools.Say),
		tts.WithFFmpegBinary(cfg.Tools.FFmpeg),
		tts.WithFormat(audio.Format{SampleRate: cfg.Audio.SampleRate, Channels: cfg.Audio.Channels}),
		tts.WithRateWPM(cfg.Audio.RateWPM),
		tts.WithWorkDir(cfg.Paths.WorkDir),
	)
}

func (c *commandContext) openJournal(cfg *config.Config) (*journal.Store, error) {
	return journal.Open(cfg.Paths.JournalPath)
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.NewFromConfig(cfg)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

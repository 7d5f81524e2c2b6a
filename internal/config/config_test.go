package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize defaults: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Fatalf("unexpected default workers: %d", cfg.Pipeline.Workers)
	}
	if !cfg.Pipeline.LenientParse {
		t.Fatal("lenient parse should default on")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[tools]
ffmpeg = "/opt/ffmpeg/bin/ffmpeg"

[audio]
rate_wpm = 180

[pipeline]
workers = 2
lenient_parse = false

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected load metadata: exists=%v path=%s", exists, resolved)
	}
	if cfg.Tools.FFmpeg != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("ffmpeg override lost: %s", cfg.Tools.FFmpeg)
	}
	if cfg.Audio.RateWPM != 180 {
		t.Fatalf("rate override lost: %d", cfg.Audio.RateWPM)
	}
	if cfg.Pipeline.Workers != 2 || cfg.Pipeline.LenientParse {
		t.Fatalf("pipeline overrides lost: %+v", cfg.Pipeline)
	}
	// Untouched sections keep defaults.
	if cfg.Audio.SampleRate != 48000 {
		t.Fatalf("sample rate default lost: %d", cfg.Audio.SampleRate)
	}
}

func TestLoadRejectsMissingExplicitPath(t *testing.T) {
	if _, _, _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad workers": "[pipeline]\nworkers = 50\n",
		"bad level":   "[logging]\nlevel = \"verbose\"\n",
		"bad rate":    "[audio]\nrate_wpm = 10\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	expanded, err := ExpandPath("~/logs")
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	if !strings.HasPrefix(expanded, home) {
		t.Fatalf("expected %q under %q", expanded, home)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	if _, _, _, err := Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}

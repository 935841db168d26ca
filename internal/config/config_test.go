package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.SeekConcurrency < 1 {
		t.Errorf("SeekConcurrency = %d", cfg.SeekConcurrency)
	}
	if cfg.PageDuration != 5*time.Second || cfg.PDFDPI != 96 {
		t.Errorf("unexpected media defaults: %+v", cfg)
	}
}

func TestParseFlags(t *testing.T) {
	cfg, err := Parse("nle", []string{"-at", "1500", "-fps", "25", "-debug", "-play", "-page-duration", "2s"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.PlayheadMs != 1500 || cfg.FPS != 25 || !cfg.Debug || !cfg.Play {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.Media().PageDuration != 2*time.Second {
		t.Errorf("Media().PageDuration = %v", cfg.Media().PageDuration)
	}
	if !cfg.Compositor().Debug {
		t.Error("Compositor().Debug = false")
	}
}

func TestParseFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nle.yaml")
	body := "media_dir: /srv/media\nfps: 24\nseek_timeout: 750ms\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Parse("nle", []string{"-config", path, "-fps", "60"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.MediaDir != "/srv/media" {
		t.Errorf("MediaDir = %q, want value from file", cfg.MediaDir)
	}
	if cfg.SeekTimeout != 750*time.Millisecond {
		t.Errorf("SeekTimeout = %v", cfg.SeekTimeout)
	}
	if cfg.FPS != 60 {
		t.Errorf("FPS = %d, explicit flag must win over the file", cfg.FPS)
	}
	if cfg.LogLevel != "debug" || cfg.ConfigPath != path {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestParseRejects(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "unknown.yaml")
	if err := os.WriteFile(unknown, []byte("colour: red\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"bad level", []string{"-log-level", "loud"}},
		{"negative playhead", []string{"-at", "-5"}},
		{"zero workers", []string{"-seek-workers", "0"}},
		{"unknown flag", []string{"-nope"}},
		{"missing file", []string{"-config", filepath.Join(dir, "missing.yaml")}},
		{"unknown key", []string{"-config", unknown}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse("nle", tt.args); err == nil {
				t.Errorf("Parse(%v) succeeded", tt.args)
			}
		})
	}
}

func TestLoadFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path, Default())
	if err != nil {
		t.Fatalf("empty file: %v", err)
	}
	if cfg.ProjectsDir != "projects" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestNewLogger(t *testing.T) {
	log := NewLogger("debug", true)
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v", log.GetLevel())
	}
	if _, ok := log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("formatter = %T", log.Formatter)
	}

	log = NewLogger("bogus", false)
	if log.GetLevel() != logrus.InfoLevel {
		t.Errorf("fallback level = %v", log.GetLevel())
	}
}

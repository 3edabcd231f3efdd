package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subgen/internal/config"
	"subgen/internal/services"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subgen.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GROQ_API_KEY", "")

	cfg, resolved, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.ASR.Backend != "local" {
		t.Fatalf("unexpected asr backend: %q", cfg.ASR.Backend)
	}
	if cfg.ASR.WhisperModel != "base" {
		t.Fatalf("unexpected whisper model: %q", cfg.ASR.WhisperModel)
	}
	if !cfg.LLM.Enhancer.Enabled {
		t.Fatal("expected enhancer enabled by default")
	}
	if cfg.LLM.Translator.Enabled {
		t.Fatal("expected translator disabled by default")
	}
	if cfg.Subtitles.Mode != "soft" {
		t.Fatalf("unexpected subtitle mode: %q", cfg.Subtitles.Mode)
	}
	if cfg.Subtitles.BoxOpacity != 0.6 {
		t.Fatalf("unexpected box opacity: %v", cfg.Subtitles.BoxOpacity)
	}
	if cfg.Processing.Audio.SampleRate != 16000 || !cfg.Processing.Audio.Mono {
		t.Fatalf("unexpected audio defaults: %+v", cfg.Processing.Audio)
	}
	if cfg.LLM.BaseURL != "https://api.groq.com/openai/v1" {
		t.Fatalf("unexpected llm base url: %q", cfg.LLM.BaseURL)
	}
}

func TestLoadExplicitMissingPathFails(t *testing.T) {
	_, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadMalformedTOMLFails(t *testing.T) {
	path := writeConfig(t, "[asr\nbackend = local")
	_, _, err := config.Load(path)
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestLoadIgnoresUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[asr]\nbackend = \"groq\"\nfuture_knob = 42\n")
	cfg, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ASR.Backend != "groq" {
		t.Fatalf("unexpected backend: %q", cfg.ASR.Backend)
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"bad asr backend", func(c *config.Config) { c.ASR.Backend = "cloud" }, "asr.backend"},
		{"bad subtitle mode", func(c *config.Config) { c.Subtitles.Mode = "blend" }, "subtitles.mode"},
		{"opacity above one", func(c *config.Config) { c.Subtitles.BoxOpacity = 1.5 }, "subtitles.box_opacity"},
		{"opacity below zero", func(c *config.Config) { c.Subtitles.BoxOpacity = -0.1 }, "subtitles.box_opacity"},
		{"bad llm backend", func(c *config.Config) { c.LLM.Backend = "mistral" }, "llm.backend"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Fatalf("error %q does not name field %q", err.Error(), tc.field)
			}
		})
	}
}

func TestValidateAcceptsOpacityBoundaries(t *testing.T) {
	for _, opacity := range []float64{0.0, 1.0} {
		cfg := config.Default()
		cfg.Subtitles.BoxOpacity = opacity
		if err := cfg.Validate(); err != nil {
			t.Fatalf("opacity %v rejected: %v", opacity, err)
		}
	}
}

func TestGroqAPIKeyFallsBackToEnvironment(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "env-key")
	path := writeConfig(t, "")
	cfg, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.GroqAPIKey != "env-key" {
		t.Fatalf("expected env key, got %q", cfg.API.GroqAPIKey)
	}
}

func TestCreateSampleWritesParsableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "subgen.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

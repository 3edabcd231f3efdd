package config_test

import (
	"testing"

	"subgen/internal/config"
)

func strptr(v string) *string   { return &v }
func f64ptr(v float64) *float64 { return &v }

func TestApplyOnlyTouchesProvidedFields(t *testing.T) {
	cfg := config.Default()
	cfg.Video.URL = "https://example.com/watch?v=keep"

	config.Overrides{
		ASRBackend: strptr("groq"),
		BoxOpacity: f64ptr(0.9),
	}.Apply(&cfg)

	if cfg.ASR.Backend != "groq" {
		t.Fatalf("backend override not applied: %q", cfg.ASR.Backend)
	}
	if cfg.Subtitles.BoxOpacity != 0.9 {
		t.Fatalf("opacity override not applied: %v", cfg.Subtitles.BoxOpacity)
	}
	if cfg.Video.URL != "https://example.com/watch?v=keep" {
		t.Fatalf("absent override clobbered url: %q", cfg.Video.URL)
	}
	if cfg.Subtitles.Mode != "soft" {
		t.Fatalf("absent override clobbered mode: %q", cfg.Subtitles.Mode)
	}
}

func TestTargetLanguageOverrideEnablesTranslation(t *testing.T) {
	cfg := config.Default()
	if cfg.LLM.Translator.Enabled {
		t.Fatal("precondition: translator disabled by default")
	}

	config.Overrides{TargetLanguage: strptr("Spanish")}.Apply(&cfg)

	if !cfg.LLM.Translator.Enabled {
		t.Fatal("expected target language override to enable translation")
	}
	if cfg.LLM.Translator.TargetLanguage != "Spanish" {
		t.Fatalf("unexpected target language: %q", cfg.LLM.Translator.TargetLanguage)
	}
}

func TestEmptyTargetLanguageOverrideDoesNotEnableTranslation(t *testing.T) {
	cfg := config.Default()
	config.Overrides{TargetLanguage: strptr("")}.Apply(&cfg)
	if cfg.LLM.Translator.Enabled {
		t.Fatal("empty target language must not enable translation")
	}
}

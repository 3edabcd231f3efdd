package config

import "strings"

// Overrides carries command-line values layered over a loaded configuration.
// Nil fields were not provided and leave the configuration untouched; an
// explicitly provided empty string still overrides.
type Overrides struct {
	URL            *string
	InputLanguage  *string
	ASRBackend     *string
	WhisperModel   *string
	LLMBackend     *string
	SubtitleMode   *string
	TargetLanguage *string
	BoxOpacity     *float64
}

// Apply layers the overrides onto cfg. Supplying a non-empty target language
// also enables translation; asking for a language is taken as asking for the
// translation itself.
func (o Overrides) Apply(cfg *Config) {
	if o.URL != nil {
		cfg.Video.URL = *o.URL
	}
	if o.InputLanguage != nil {
		cfg.Video.InputLanguage = *o.InputLanguage
	}
	if o.ASRBackend != nil {
		cfg.ASR.Backend = *o.ASRBackend
	}
	if o.WhisperModel != nil {
		cfg.ASR.WhisperModel = *o.WhisperModel
	}
	if o.LLMBackend != nil {
		cfg.LLM.Backend = *o.LLMBackend
	}
	if o.SubtitleMode != nil {
		cfg.Subtitles.Mode = *o.SubtitleMode
	}
	if o.TargetLanguage != nil {
		cfg.LLM.Translator.TargetLanguage = *o.TargetLanguage
		if strings.TrimSpace(*o.TargetLanguage) != "" {
			cfg.LLM.Translator.Enabled = true
		}
	}
	if o.BoxOpacity != nil {
		cfg.Subtitles.BoxOpacity = *o.BoxOpacity
	}
}

package config

import (
	"strings"

	"subgen/internal/services"
)

// Validate ensures the configuration is usable. Violations are reported as
// ErrValidation naming the offending field.
func (c *Config) Validate() error {
	if err := c.validateASR(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateSeparation(); err != nil {
		return err
	}
	return nil
}

func validationError(field, message string) error {
	return services.Wrap(services.ErrValidation, "config", field, message, nil)
}

func (c *Config) validateASR() error {
	switch ASRBackend(strings.TrimSpace(c.ASR.Backend)) {
	case ASRBackendLocal, ASRBackendGroq:
	default:
		return validationError("asr.backend", "must be \"local\" or \"groq\"")
	}
	if strings.TrimSpace(c.ASR.WhisperModel) == "" {
		return validationError("asr.whisper_model", "must be set")
	}
	return nil
}

func (c *Config) validateLLM() error {
	switch LLMBackend(strings.TrimSpace(c.LLM.Backend)) {
	case LLMBackendGroq, LLMBackendOpenAI:
	default:
		return validationError("llm.backend", "must be \"groq\" or \"openai\"")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return validationError("llm.timeout_seconds", "must be positive")
	}
	if c.LLM.Enhancer.Temperature < 0 || c.LLM.Enhancer.Temperature > 2 {
		return validationError("llm.enhancer.temperature", "must be between 0 and 2")
	}
	if c.LLM.Translator.Temperature < 0 || c.LLM.Translator.Temperature > 2 {
		return validationError("llm.translator.temperature", "must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	switch SubtitleMode(strings.TrimSpace(c.Subtitles.Mode)) {
	case SubtitleModeSoft, SubtitleModeBurn:
	default:
		return validationError("subtitles.mode", "must be \"soft\" or \"burn\"")
	}
	if c.Subtitles.BoxOpacity < 0.0 || c.Subtitles.BoxOpacity > 1.0 {
		return validationError("subtitles.box_opacity", "must be between 0.0 and 1.0")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if c.Processing.Audio.SampleRate <= 0 {
		return validationError("processing.audio.sample_rate", "must be positive")
	}
	if strings.TrimSpace(c.Processing.Output.Root) == "" {
		return validationError("processing.output.root", "must be set")
	}
	return nil
}

func (c *Config) validateSeparation() error {
	if !c.Separation.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Separation.StemType) == "" {
		return validationError("separation.stem_type", "must be set when separation.enabled is true")
	}
	if c.Separation.SampleRate <= 0 {
		return validationError("separation.sample_rate", "must be positive")
	}
	return nil
}

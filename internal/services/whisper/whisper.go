// Package whisper runs local speech recognition through the
// whisper-ctranslate2 CLI (faster-whisper under the hood), launched with uvx
// so no Python environment management leaks into this process.
package whisper

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"subgen/internal/logging"
	"subgen/internal/segments"
	"subgen/internal/services"
)

// Command names for the local ASR toolchain.
const (
	UVXCommand     = "uvx"
	WhisperCommand = "whisper-ctranslate2"
)

// Config captures runtime settings for local transcription.
type Config struct {
	Model                string
	Device               string
	ComputeType          string
	BeamSize             int
	VADFilter            bool
	MinSilenceDurationMS int
	WordTimestamps       bool
	Temperature          float64
}

// Service provides local transcription.
type Service struct {
	cfg    Config
	logger *slog.Logger
	run    services.CommandRunner
}

// NewService creates a local transcription service.
func NewService(cfg Config, logger *slog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logging.WithComponent(logger, "whisper"),
		run:    services.RunCommand,
	}
}

// WithCommandRunner overrides how commands are executed (for tests).
func (s *Service) WithCommandRunner(run services.CommandRunner) {
	if s != nil && run != nil {
		s.run = run
	}
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return "base"
}

// whisperOutput is the JSON document the CLI writes alongside the audio.
type whisperOutput struct {
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe runs the CLI against the audio file and normalizes its JSON
// output into the canonical transcript document.
func (s *Service) Transcribe(ctx context.Context, audioPath, outputDir, languageHint string) (segments.Document, error) {
	if audioPath == "" {
		return segments.Document{}, services.Wrap(services.ErrValidation, "transcribe", "local", "audio path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return segments.Document{}, services.Wrap(services.ErrCommandFailed, "transcribe", "ensure output dir", outputDir, err)
	}

	args := s.buildArgs(audioPath, outputDir, languageHint)
	s.logger.Info("transcribing locally",
		logging.String("audio", audioPath),
		logging.String("model", s.Model()))
	if _, err := s.run(ctx, UVXCommand, args...); err != nil {
		return segments.Document{}, services.Wrap(services.ErrCommandFailed, "transcribe", WhisperCommand, audioPath, err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return segments.Document{}, services.Wrap(services.ErrNotFound, "transcribe", "whisper output", jsonPath, err)
	}

	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return segments.Document{}, services.Wrap(services.ErrParse, "transcribe", "whisper output", jsonPath, err)
	}

	doc := segments.Document{Language: out.Language}
	for _, seg := range out.Segments {
		end := seg.End
		if end < seg.Start {
			end = seg.Start
		}
		doc.Segments = append(doc.Segments, segments.Segment{
			Start: seg.Start,
			End:   end,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return doc, nil
}

func (s *Service) buildArgs(audioPath, outputDir, languageHint string) []string {
	args := []string{
		WhisperCommand,
		audioPath,
		"--model", s.Model(),
		"--output_format", "json",
		"--output_dir", outputDir,
		"--temperature", strconv.FormatFloat(s.cfg.Temperature, 'f', -1, 64),
	}
	if s.cfg.Device != "" {
		args = append(args, "--device", s.cfg.Device)
	}
	if s.cfg.ComputeType != "" {
		args = append(args, "--compute_type", s.cfg.ComputeType)
	}
	if s.cfg.BeamSize > 0 {
		args = append(args, "--beam_size", strconv.Itoa(s.cfg.BeamSize))
	}
	if s.cfg.VADFilter {
		args = append(args, "--vad_filter", "True")
		if s.cfg.MinSilenceDurationMS > 0 {
			args = append(args, "--vad_min_silence_duration_ms", strconv.Itoa(s.cfg.MinSilenceDurationMS))
		}
	}
	if s.cfg.WordTimestamps {
		args = append(args, "--word_timestamps", "True")
	}
	if languageHint != "" {
		args = append(args, "--language", languageHint)
	}
	return args
}

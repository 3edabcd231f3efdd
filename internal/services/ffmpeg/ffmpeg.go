// Package ffmpeg invokes the ffmpeg binary for audio extraction and for
// attaching subtitles to the final video, either as a soft mov_text track or
// burned into the frames through an ASS render.
package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"subgen/internal/logging"
	"subgen/internal/services"
)

// Binary is the ffmpeg executable name resolved from PATH.
const Binary = "ffmpeg"

// Service wraps ffmpeg invocations. A custom command runner can be injected
// for tests.
type Service struct {
	logger *slog.Logger
	run    services.CommandRunner
}

// NewService constructs an ffmpeg service.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		logger: logging.WithComponent(logger, "ffmpeg"),
		run:    services.RunCommand,
	}
}

// WithCommandRunner overrides how commands are executed (for tests).
func (s *Service) WithCommandRunner(run services.CommandRunner) {
	if s != nil && run != nil {
		s.run = run
	}
}

// ExtractAudio demuxes the audio stream into a PCM WAV file at the requested
// sample rate, optionally downmixed to mono.
func (s *Service) ExtractAudio(ctx context.Context, inputVideo, outputAudio string, sampleRateHz int, mono bool) error {
	args := []string{
		"-y",
		"-i", inputVideo,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(sampleRateHz),
	}
	if mono {
		args = append(args, "-ac", "1")
	}
	args = append(args, outputAudio)

	s.logger.Debug("extracting audio",
		logging.String("input", inputVideo),
		logging.String("output", outputAudio),
		logging.Int("sample_rate", sampleRateHz),
		logging.Bool("mono", mono))

	if _, err := s.run(ctx, Binary, args...); err != nil {
		return services.Wrap(services.ErrCommandFailed, "extract-audio", "ffmpeg", inputVideo, err)
	}
	return nil
}

// AddSubtitlesSoft muxes an SRT file as a selectable subtitle track without
// re-encoding video or audio. MP4 containers require the mov_text codec.
func (s *Service) AddSubtitlesSoft(ctx context.Context, inputVideo, srtPath, outputPath, language string) error {
	if language == "" {
		language = "eng"
	}
	args := []string{
		"-y",
		"-i", inputVideo,
		"-i", srtPath,
		"-c", "copy",
		"-c:s", "mov_text",
		"-metadata:s:s:0", "language=" + language,
		outputPath,
	}

	s.logger.Debug("muxing soft subtitles",
		logging.String("video", inputVideo),
		logging.String("srt", srtPath),
		logging.String("output", outputPath))

	if _, err := s.run(ctx, Binary, args...); err != nil {
		return services.Wrap(services.ErrCommandFailed, "render-subtitles", "ffmpeg soft mux", outputPath, err)
	}
	return nil
}

// BurnSubtitles renders an ASS subtitle file directly into the video frames,
// copying the audio stream unchanged.
func (s *Service) BurnSubtitles(ctx context.Context, inputVideo, assPath, outputPath string) error {
	args := []string{
		"-y",
		"-i", inputVideo,
		"-vf", fmt.Sprintf("ass=%s", assPath),
		"-c:a", "copy",
		outputPath,
	}

	s.logger.Debug("burning subtitles",
		logging.String("video", inputVideo),
		logging.String("ass", assPath),
		logging.String("output", outputPath))

	if _, err := s.run(ctx, Binary, args...); err != nil {
		return services.Wrap(services.ErrCommandFailed, "render-subtitles", "ffmpeg burn", outputPath, err)
	}
	return nil
}

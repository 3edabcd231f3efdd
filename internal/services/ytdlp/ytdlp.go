// Package ytdlp fetches source videos with the yt-dlp tool. Acquisition is
// idempotent: when the work item already holds the finalized media file the
// download is skipped and the existing file is reported.
package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"subgen/internal/logging"
	"subgen/internal/services"
	"subgen/internal/workdir"
)

// Binary is the yt-dlp executable name resolved from PATH.
const Binary = "yt-dlp"

// Info describes a fetched (or already present) video.
type Info struct {
	ID    string
	Title string
	Path  string
}

// Service downloads videos into a temporary root before the pipeline
// relocates them into the work item tree.
type Service struct {
	logger  *slog.Logger
	workdir *workdir.Manager
	run     services.CommandRunner
}

// NewService constructs an acquisition service.
func NewService(logger *slog.Logger, manager *workdir.Manager) *Service {
	return &Service{
		logger:  logging.WithComponent(logger, "ytdlp"),
		workdir: manager,
		run:     services.RunCommand,
	}
}

// WithCommandRunner overrides how commands are executed (for tests).
func (s *Service) WithCommandRunner(run services.CommandRunner) {
	if s != nil && run != nil {
		s.run = run
	}
}

// metadataProbe is the subset of yt-dlp's JSON output we consume.
type metadataProbe struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Fetch resolves the video's stable identifier, probes the work item layout
// for an already-downloaded copy, and downloads into tmpRoot only when
// nothing is there yet.
func (s *Service) Fetch(ctx context.Context, url, tmpRoot string) (Info, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Info{}, services.Wrap(services.ErrValidation, "acquire", "fetch", "url required", nil)
	}

	meta, err := s.probe(ctx, url)
	if err != nil {
		return Info{}, err
	}

	if existing, ok := s.workdir.VideoDownloaded(meta.ID); ok {
		s.logger.Info("video already downloaded, skipping fetch",
			logging.String("video_id", meta.ID),
			logging.String("path", existing))
		return Info{ID: meta.ID, Title: meta.Title, Path: existing}, nil
	}

	if err := os.MkdirAll(tmpRoot, 0o755); err != nil {
		return Info{}, fmt.Errorf("create download root %q: %w", tmpRoot, err)
	}

	outputTemplate := filepath.Join(tmpRoot, "%(id)s.%(ext)s")
	args := []string{
		"--format", "bestvideo+bestaudio/best",
		"--merge-output-format", "mp4",
		"--output", outputTemplate,
		"--no-playlist",
		"--quiet",
		url,
	}

	s.logger.Info("downloading video", logging.String("url", url), logging.String("video_id", meta.ID))
	if _, err := s.run(ctx, Binary, args...); err != nil {
		return Info{}, services.Wrap(services.ErrCommandFailed, "acquire", "yt-dlp download", url, err)
	}

	path := filepath.Join(tmpRoot, meta.ID+".mp4")
	if _, err := os.Stat(path); err != nil {
		return Info{}, services.Wrap(services.ErrNotFound, "acquire", "downloaded media", path, err)
	}
	return Info{ID: meta.ID, Title: meta.Title, Path: path}, nil
}

// probe asks yt-dlp for the video metadata without downloading anything.
func (s *Service) probe(ctx context.Context, url string) (metadataProbe, error) {
	output, err := s.run(ctx, Binary, "--dump-json", "--no-playlist", "--quiet", url)
	if err != nil {
		return metadataProbe{}, services.Wrap(services.ErrCommandFailed, "acquire", "yt-dlp probe", url, err)
	}
	var meta metadataProbe
	if err := json.Unmarshal(output, &meta); err != nil {
		return metadataProbe{}, services.Wrap(services.ErrParse, "acquire", "yt-dlp probe", "metadata json", err)
	}
	if strings.TrimSpace(meta.ID) == "" {
		return metadataProbe{}, services.Wrap(services.ErrBackend, "acquire", "yt-dlp probe", "no video id in metadata", nil)
	}
	return meta, nil
}

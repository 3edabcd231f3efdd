// Package workdir manages the per-video directory tree that every pipeline
// stage reads from and writes to. The tree is the unit of idempotent
// reprocessing: artifacts accumulate across runs and are never deleted here.
package workdir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvOutputsRoot overrides the configured outputs root when set.
const EnvOutputsRoot = "SUBGEN_OUTPUTS_ROOT"

// MetadataFile is written at the work item root once acquisition completes.
const MetadataFile = "metadata.json"

// Dirs exposes the resolved paths of a work item's fixed subdirectories.
type Dirs struct {
	Root        string
	Video       string
	Audio       string
	Separated   string
	Transcripts string
	Enhanced    string
	Translated  string
	Subtitled   string
}

// Metadata is the persisted identity of a work item.
type Metadata struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
}

// Manager resolves work item directories under a configurable outputs root.
type Manager struct {
	outputsRoot string
}

// NewManager builds a manager rooted at outputsRoot. The SUBGEN_OUTPUTS_ROOT
// environment variable takes precedence over the supplied path.
func NewManager(outputsRoot string) *Manager {
	if env := strings.TrimSpace(os.Getenv(EnvOutputsRoot)); env != "" {
		outputsRoot = env
	}
	if strings.TrimSpace(outputsRoot) == "" {
		outputsRoot = "outputs"
	}
	if abs, err := filepath.Abs(outputsRoot); err == nil {
		outputsRoot = abs
	}
	return &Manager{outputsRoot: outputsRoot}
}

// OutputsRoot returns the resolved root under which work items live.
func (m *Manager) OutputsRoot() string {
	return m.outputsRoot
}

// Resolve creates (if absent) and returns the directory tree for a video ID.
// Creation is idempotent; MkdirAll only fails when a path component exists as
// a non-directory.
func (m *Manager) Resolve(videoID string) (Dirs, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return Dirs{}, fmt.Errorf("resolve work item: video id required")
	}
	root := filepath.Join(m.outputsRoot, videoID)
	dirs := Dirs{
		Root:        root,
		Video:       filepath.Join(root, "video"),
		Audio:       filepath.Join(root, "audio"),
		Separated:   filepath.Join(root, "separated"),
		Transcripts: filepath.Join(root, "transcripts"),
		Enhanced:    filepath.Join(root, "enhanced"),
		Translated:  filepath.Join(root, "translated"),
		Subtitled:   filepath.Join(root, "subtitled"),
	}
	for _, dir := range []string{dirs.Root, dirs.Video, dirs.Audio, dirs.Separated, dirs.Transcripts, dirs.Enhanced, dirs.Translated, dirs.Subtitled} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Dirs{}, fmt.Errorf("create work directory %q: %w", dir, err)
		}
	}
	return dirs, nil
}

// VideoDownloaded reports whether the finalized media file already exists for
// the given video ID. This is the cross-run idempotence gate the acquisition
// adapter probes before fetching.
func (m *Manager) VideoDownloaded(videoID string) (string, bool) {
	path := filepath.Join(m.outputsRoot, videoID, "video", videoID+".mp4")
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// WriteMetadata persists the work item's identity at the tree root.
func (d Dirs) WriteMetadata(meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	path := filepath.Join(d.Root, MetadataFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write metadata %q: %w", path, err)
	}
	return nil
}

// ReadMetadata loads a previously written metadata file.
func (d Dirs) ReadMetadata() (Metadata, error) {
	path := filepath.Join(d.Root, MetadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read metadata %q: %w", path, err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("parse metadata %q: %w", path, err)
	}
	return meta, nil
}

// Package pipeline sequences the stages that turn a video URL into a
// subtitled file: acquire, extract audio, optionally separate vocals,
// transcribe, optionally enhance and translate, then render subtitles.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"subgen/internal/config"
	"subgen/internal/history"
	"subgen/internal/logging"
	"subgen/internal/segments"
	"subgen/internal/services"
	"subgen/internal/services/ffmpeg"
	"subgen/internal/services/separator"
	"subgen/internal/services/ytdlp"
	"subgen/internal/translate"
	"subgen/internal/workdir"
)

// Fetcher acquires the source video.
type Fetcher interface {
	Fetch(ctx context.Context, url, tmpRoot string) (ytdlp.Info, error)
}

// AudioExtractor demuxes the audio track into a WAV file.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, inputVideo, outputAudio string, sampleRateHz int, mono bool) error
}

// AudioSeparator isolates stems from the extracted audio.
type AudioSeparator interface {
	Separate(ctx context.Context, req separator.Request) (separator.Result, error)
}

// Transcriber produces a transcript document from an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, outputDir, languageHint string) (segments.Document, error)
}

// TranscriberFunc adapts a function to the Transcriber interface.
type TranscriberFunc func(ctx context.Context, audioPath, outputDir, languageHint string) (segments.Document, error)

// Transcribe implements Transcriber.
func (f TranscriberFunc) Transcribe(ctx context.Context, audioPath, outputDir, languageHint string) (segments.Document, error) {
	return f(ctx, audioPath, outputDir, languageHint)
}

// Enhancer cleans up a transcript.
type Enhancer interface {
	Enhance(ctx context.Context, doc segments.Document) (segments.Document, error)
}

// Translator renders a transcript into another language.
type Translator interface {
	Translate(ctx context.Context, doc segments.Document, targetLanguage string) (segments.Document, error)
}

// SubtitleRenderer attaches subtitles to the final video.
type SubtitleRenderer interface {
	AddSubtitlesSoft(ctx context.Context, inputVideo, srtPath, outputPath, language string) error
	BurnSubtitles(ctx context.Context, inputVideo, assPath, outputPath string) error
}

// RunLedger persists run outcomes.
type RunLedger interface {
	StartRun(ctx context.Context, run history.Run) (string, error)
	FinishRun(ctx context.Context, id, status, errMessage, outputPath string) error
}

// Deps bundles the stage adapters the orchestrator drives. Separator,
// Enhancer, Translator, and Ledger may be nil when their stage is disabled.
type Deps struct {
	Fetcher    Fetcher
	Extractor  AudioExtractor
	Separator  AudioSeparator
	LocalASR   Transcriber
	RemoteASR  Transcriber
	Enhancer   Enhancer
	Translator Translator
	Renderer   SubtitleRenderer
	Ledger     RunLedger
}

// Result is the manifest of one completed run. Optional stage artifacts are
// present only when the stage actually ran.
type Result struct {
	RunID          string `json:"run_id"`
	VideoID        string `json:"video_id"`
	Title          string `json:"title"`
	VideoPath      string `json:"video"`
	AudioPath      string `json:"audio"`
	SeparatedAudio string `json:"separated_audio,omitempty"`
	TranscriptJSON string `json:"asr_json"`
	TranscriptSRT  string `json:"asr_srt"`
	EnhancedJSON   string `json:"enhanced_json,omitempty"`
	EnhancedSRT    string `json:"enhanced_srt,omitempty"`
	TranslatedJSON string `json:"translated_json,omitempty"`
	TranslatedSRT  string `json:"translated_srt,omitempty"`
	Language       string `json:"language,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
	FinalVideo     string `json:"final_video"`
}

// Orchestrator runs the pipeline end to end for a single URL.
type Orchestrator struct {
	cfg      *config.Config
	workdirs *workdir.Manager
	deps     Deps
	logger   *slog.Logger
}

// New validates the required adapters and constructs an orchestrator.
func New(cfg *config.Config, workdirs *workdir.Manager, deps Deps, logger *slog.Logger) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline: config required")
	}
	if workdirs == nil {
		return nil, fmt.Errorf("pipeline: workdir manager required")
	}
	for name, dep := range map[string]any{
		"fetcher":   deps.Fetcher,
		"extractor": deps.Extractor,
		"renderer":  deps.Renderer,
	} {
		if dep == nil {
			return nil, fmt.Errorf("pipeline: %s adapter required", name)
		}
	}
	return &Orchestrator{
		cfg:      cfg,
		workdirs: workdirs,
		deps:     deps,
		logger:   logging.WithComponent(logger, "pipeline"),
	}, nil
}

// Run executes every stage for the given URL and returns the artifact
// manifest. Acquire, ExtractAudio, Transcribe, and RenderSubtitles failures
// abort the run; separation, enhancement, and translation degrade to the
// previous stage's output with a warning.
func (o *Orchestrator) Run(ctx context.Context, url string) (Result, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		url = strings.TrimSpace(o.cfg.Video.URL)
	}
	if url == "" {
		return Result{}, services.Wrap(services.ErrValidation, "run", "input", "video url required", nil)
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	result := Result{RunID: runID}

	tmpRoot := filepath.Join(o.workdirs.OutputsRoot(), "tmp_downloads")
	if err := os.MkdirAll(tmpRoot, 0o755); err != nil {
		return result, fmt.Errorf("create download staging dir: %w", err)
	}

	o.logger.Info("acquiring video", logging.String("url", url))
	info, err := o.deps.Fetcher.Fetch(ctx, url, tmpRoot)
	if err != nil {
		return result, err
	}
	result.VideoID = info.ID
	result.Title = info.Title
	ctx = services.WithVideoID(ctx, info.ID)

	dirs, err := o.workdirs.Resolve(info.ID)
	if err != nil {
		return result, err
	}

	lock := flock.New(filepath.Join(dirs.Root, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return result, fmt.Errorf("acquire work item lock: %w", err)
	}
	if !locked {
		return result, services.Wrap(services.ErrValidation, "run", "lock", fmt.Sprintf("video %s is already being processed", info.ID), nil)
	}
	defer func() { _ = lock.Unlock() }()

	ledgerID := o.recordStart(ctx, info, url)
	runErr := o.runStages(ctx, info, dirs, &result)
	o.recordFinish(ctx, ledgerID, runErr, result.FinalVideo)
	return result, runErr
}

func (o *Orchestrator) runStages(ctx context.Context, info ytdlp.Info, dirs workdir.Dirs, result *Result) error {
	videoPath := filepath.Join(dirs.Video, info.ID+".mp4")
	if info.Path != videoPath {
		if err := moveFile(info.Path, videoPath); err != nil {
			return fmt.Errorf("relocate video: %w", err)
		}
	}
	result.VideoPath = videoPath

	if err := dirs.WriteMetadata(workdir.Metadata{VideoID: info.ID, Title: info.Title}); err != nil {
		return err
	}

	audioPath := filepath.Join(dirs.Audio, "audio.wav")
	o.logger.Info("extracting audio", logging.String("output", audioPath))
	if err := o.deps.Extractor.ExtractAudio(ctx, videoPath, audioPath,
		o.cfg.Processing.Audio.SampleRate, o.cfg.Processing.Audio.Mono); err != nil {
		return err
	}
	result.AudioPath = audioPath

	transcriptionInput := o.separate(ctx, audioPath, dirs, result)

	doc, err := o.transcribe(ctx, transcriptionInput, dirs, result)
	if err != nil {
		return err
	}

	doc, srtPath := o.enhance(ctx, doc, dirs, result)
	doc, srtPath = o.translateStage(ctx, doc, srtPath, dirs, result)
	result.Language = doc.Language
	result.TargetLanguage = doc.TargetLanguage

	return o.render(ctx, videoPath, srtPath, doc, dirs, result)
}

// separate runs the optional vocal separation stage. Any failure falls back
// to the original extracted audio.
func (o *Orchestrator) separate(ctx context.Context, audioPath string, dirs workdir.Dirs, result *Result) string {
	if !o.cfg.Separation.Enabled || o.deps.Separator == nil {
		return audioPath
	}

	o.logger.Info("separating vocals", logging.String("model", o.cfg.Separation.Model))
	res, err := o.deps.Separator.Separate(ctx, separator.Request{
		AudioPath:      audioPath,
		OutputDir:      dirs.Separated,
		Model:          o.cfg.Separation.Model,
		OutputFormat:   o.cfg.Separation.OutputFormat,
		SampleRate:     o.cfg.Separation.SampleRate,
		AutoSelectBest: o.cfg.Separation.AutoSelectBest,
		StemType:       o.cfg.Separation.StemType,
	})
	if err != nil {
		o.logger.Warn("vocal separation failed, continuing with original audio", logging.Error(err))
		return audioPath
	}

	stem := strings.TrimSpace(o.cfg.Separation.StemType)
	if stem == "" {
		stem = "vocals"
	}
	path, ok := res.Stems[stem]
	if !ok {
		o.logger.Warn("separation produced no matching stem, continuing with original audio",
			logging.String("stem", stem))
		return audioPath
	}
	if res.ModelSwitched {
		o.logger.Warn("separation model was substituted",
			logging.String("requested", res.RequestedModel),
			logging.String("actual", res.ActualModel))
	}
	result.SeparatedAudio = path
	return path
}

func (o *Orchestrator) transcribe(ctx context.Context, audioPath string, dirs workdir.Dirs, result *Result) (segments.Document, error) {
	backend := config.ASRBackend(strings.TrimSpace(o.cfg.ASR.Backend))
	var transcriber Transcriber
	switch backend {
	case config.ASRBackendLocal:
		transcriber = o.deps.LocalASR
	case config.ASRBackendGroq:
		transcriber = o.deps.RemoteASR
	default:
		return segments.Document{}, services.Wrap(services.ErrUnsupportedBackend, "transcribe", "select backend", string(backend), nil)
	}
	if transcriber == nil {
		return segments.Document{}, services.Wrap(services.ErrUnsupportedBackend, "transcribe", "select backend",
			fmt.Sprintf("%s backend not configured", backend), nil)
	}

	o.logger.Info("transcribing", logging.String("backend", string(backend)))
	doc, err := transcriber.Transcribe(ctx, audioPath, dirs.Transcripts, o.cfg.Video.InputLanguage)
	if err != nil {
		return segments.Document{}, err
	}
	if doc.Language == "" {
		doc.Language = strings.TrimSpace(o.cfg.Video.InputLanguage)
	}

	base := "asr_" + string(backend)
	jsonPath := filepath.Join(dirs.Transcripts, base+".json")
	srtPath := filepath.Join(dirs.Transcripts, base+".srt")
	if err := segments.WriteDocument(jsonPath, doc); err != nil {
		return segments.Document{}, err
	}
	if err := segments.WriteSRT(srtPath, doc.Segments); err != nil {
		return segments.Document{}, err
	}
	result.TranscriptJSON = jsonPath
	result.TranscriptSRT = srtPath
	return doc, nil
}

// enhance runs the optional LLM cleanup stage, falling back to the raw
// transcript on any failure.
func (o *Orchestrator) enhance(ctx context.Context, doc segments.Document, dirs workdir.Dirs, result *Result) (segments.Document, string) {
	srtPath := result.TranscriptSRT
	if !o.cfg.LLM.Enhancer.Enabled {
		return doc, srtPath
	}
	if !o.llmBackendSupported() {
		o.logger.Warn("unsupported llm backend, skipping enhancement",
			logging.String("backend", o.cfg.LLM.Backend))
		return doc, srtPath
	}
	if o.deps.Enhancer == nil {
		o.logger.Warn("enhancer not configured, skipping enhancement")
		return doc, srtPath
	}

	enhanced, err := o.deps.Enhancer.Enhance(ctx, doc)
	if err != nil {
		o.logger.Warn("enhancement failed, continuing with raw transcript", logging.Error(err))
		return doc, srtPath
	}

	jsonPath := filepath.Join(dirs.Enhanced, "enhanced.json")
	enhancedSRT := filepath.Join(dirs.Enhanced, "enhanced.srt")
	if err := segments.WriteDocument(jsonPath, enhanced); err != nil {
		o.logger.Warn("writing enhanced transcript failed, continuing with raw transcript", logging.Error(err))
		return doc, srtPath
	}
	if err := segments.WriteSRT(enhancedSRT, enhanced.Segments); err != nil {
		o.logger.Warn("writing enhanced srt failed, continuing with raw transcript", logging.Error(err))
		return doc, srtPath
	}
	result.EnhancedJSON = jsonPath
	result.EnhancedSRT = enhancedSRT
	return enhanced, enhancedSRT
}

// translateStage runs the optional translation stage. Partial configuration
// or a stage failure keeps the prior segment set.
func (o *Orchestrator) translateStage(ctx context.Context, doc segments.Document, srtPath string, dirs workdir.Dirs, result *Result) (segments.Document, string) {
	target := strings.TrimSpace(o.cfg.LLM.Translator.TargetLanguage)
	if o.cfg.LLM.Translator.Enabled && target == "" {
		o.logger.Warn("translation enabled without a target language, skipping")
		return doc, srtPath
	}
	if !o.cfg.TranslationActive() {
		return doc, srtPath
	}
	if !o.llmBackendSupported() {
		o.logger.Warn("unsupported llm backend, skipping translation",
			logging.String("backend", o.cfg.LLM.Backend))
		return doc, srtPath
	}
	if o.deps.Translator == nil {
		o.logger.Warn("translator not configured, skipping translation")
		return doc, srtPath
	}

	translated, err := o.deps.Translator.Translate(ctx, doc, target)
	if err != nil {
		o.logger.Warn("translation failed, continuing with prior transcript", logging.Error(err))
		return doc, srtPath
	}

	code := translate.FileCode(target)
	jsonPath := filepath.Join(dirs.Translated, "translated_"+code+".json")
	translatedSRT := filepath.Join(dirs.Translated, "translated_"+code+".srt")
	if err := segments.WriteDocument(jsonPath, translated); err != nil {
		o.logger.Warn("writing translated transcript failed, continuing with prior transcript", logging.Error(err))
		return doc, srtPath
	}
	if err := segments.WriteSRT(translatedSRT, translated.Segments); err != nil {
		o.logger.Warn("writing translated srt failed, continuing with prior transcript", logging.Error(err))
		return doc, srtPath
	}
	result.TranslatedJSON = jsonPath
	result.TranslatedSRT = translatedSRT
	return translated, translatedSRT
}

// render attaches the last completed segment set to the video.
func (o *Orchestrator) render(ctx context.Context, videoPath, srtPath string, doc segments.Document, dirs workdir.Dirs, result *Result) error {
	mode := config.SubtitleMode(strings.TrimSpace(o.cfg.Subtitles.Mode))
	o.logger.Info("rendering subtitles", logging.String("mode", string(mode)))

	switch mode {
	case config.SubtitleModeSoft:
		output := filepath.Join(dirs.Subtitled, "with_subtitles_soft.mp4")
		language := subtitleLanguageTag(o.cfg.Subtitles.Language, doc)
		if err := o.deps.Renderer.AddSubtitlesSoft(ctx, videoPath, srtPath, output, language); err != nil {
			return err
		}
		result.FinalVideo = output
	case config.SubtitleModeBurn:
		assPath := filepath.Join(dirs.Subtitled, "subtitles.ass")
		if err := ffmpeg.WriteASS(assPath, doc.Segments, o.cfg.Subtitles.BoxOpacity); err != nil {
			return err
		}
		output := filepath.Join(dirs.Subtitled, "with_subtitles_burned.mp4")
		if err := o.deps.Renderer.BurnSubtitles(ctx, videoPath, assPath, output); err != nil {
			return err
		}
		result.FinalVideo = output
	default:
		return services.Wrap(services.ErrValidation, "render-subtitles", "select mode", string(mode), nil)
	}
	return nil
}

func (o *Orchestrator) llmBackendSupported() bool {
	switch config.LLMBackend(strings.TrimSpace(o.cfg.LLM.Backend)) {
	case config.LLMBackendGroq, config.LLMBackendOpenAI:
		return true
	}
	return false
}

func (o *Orchestrator) recordStart(ctx context.Context, info ytdlp.Info, url string) string {
	if o.deps.Ledger == nil {
		return ""
	}
	id, err := o.deps.Ledger.StartRun(ctx, history.Run{
		VideoID:        info.ID,
		Title:          info.Title,
		URL:            url,
		ASRBackend:     o.cfg.ASR.Backend,
		SubtitleMode:   o.cfg.Subtitles.Mode,
		TargetLanguage: o.cfg.LLM.Translator.TargetLanguage,
	})
	if err != nil {
		o.logger.Warn("recording run start failed", logging.Error(err))
		return ""
	}
	return id
}

func (o *Orchestrator) recordFinish(ctx context.Context, ledgerID string, runErr error, outputPath string) {
	if o.deps.Ledger == nil || ledgerID == "" {
		return
	}
	status := history.StatusCompleted
	message := ""
	if runErr != nil {
		status = history.StatusFailed
		message = runErr.Error()
	}
	if err := o.deps.Ledger.FinishRun(ctx, ledgerID, status, message, outputPath); err != nil {
		o.logger.Warn("recording run outcome failed", logging.Error(err))
	}
}

// subtitleLanguageTag picks the mov_text language metadata value: explicit
// config wins, then the translated target, then the source language.
func subtitleLanguageTag(configured string, doc segments.Document) string {
	if tag := strings.TrimSpace(configured); tag != "" {
		return tag
	}
	if tag := strings.TrimSpace(doc.TargetLanguage); tag != "" {
		return translate.FileCode(tag)
	}
	return strings.TrimSpace(doc.Language)
}

// moveFile renames src to dst, copying across filesystems when rename fails.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"subgen/internal/config"
	"subgen/internal/enhance"
	"subgen/internal/pipeline"
	"subgen/internal/services/ffmpeg"
	"subgen/internal/services/groq"
	"subgen/internal/services/separator"
	"subgen/internal/services/whisper"
	"subgen/internal/services/ytdlp"
	"subgen/internal/translate"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		urlFlag       string
		inputLanguage string
		asrBackend    string
		whisperModel  string
		llmBackend    string
		subtitleMode  string
		targetLang    string
		boxOpacity    float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline for a video URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			overrides := config.Overrides{}
			if cmd.Flags().Changed("url") {
				overrides.URL = &urlFlag
			}
			if cmd.Flags().Changed("input-language") {
				overrides.InputLanguage = &inputLanguage
			}
			if cmd.Flags().Changed("asr-backend") {
				overrides.ASRBackend = &asrBackend
			}
			if cmd.Flags().Changed("whisper-model") {
				overrides.WhisperModel = &whisperModel
			}
			if cmd.Flags().Changed("llm-backend") {
				overrides.LLMBackend = &llmBackend
			}
			if cmd.Flags().Changed("subtitle-mode") {
				overrides.SubtitleMode = &subtitleMode
			}
			if cmd.Flags().Changed("target-language") {
				overrides.TargetLanguage = &targetLang
			}
			if cmd.Flags().Changed("box-opacity") {
				overrides.BoxOpacity = &boxOpacity
			}
			overrides.Apply(cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			workdirs, err := ctx.workdirs()
			if err != nil {
				return err
			}
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			remote := groq.NewClient(groq.Config{
				APIKey: cfg.API.GroqAPIKey,
				Model:  cfg.ASR.GroqModel,
			}, logger)

			fw := cfg.Advanced.FasterWhisper
			deps := pipeline.Deps{
				Fetcher:   ytdlp.NewService(logger, workdirs),
				Extractor: ffmpeg.NewService(logger),
				Separator: separator.NewService(logger),
				LocalASR: whisper.NewService(whisper.Config{
					Model:                cfg.ASR.WhisperModel,
					Device:               fw.Device,
					ComputeType:          fw.ComputeType,
					BeamSize:             fw.BeamSize,
					VADFilter:            fw.VADFilter,
					MinSilenceDurationMS: fw.MinSilenceDurationMS,
					WordTimestamps:       fw.WordTimestamps,
					Temperature:          fw.Temperature,
				}, logger),
				RemoteASR:  remoteTranscriber(remote),
				Enhancer:   enhance.NewService(newChatClient(cfg, cfg.LLM.Enhancer.Temperature), logger),
				Translator: translate.NewService(newChatClient(cfg, cfg.LLM.Translator.Temperature), logger),
				Renderer:   ffmpeg.NewService(logger),
				Ledger:     store,
			}

			orch, err := pipeline.New(cfg, workdirs, deps, logger)
			if err != nil {
				return err
			}
			result, err := orch.Run(cmd.Context(), urlFlag)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVar(&urlFlag, "url", "", "Video URL to process")
	cmd.Flags().StringVar(&inputLanguage, "input-language", "", "Source language hint for transcription")
	cmd.Flags().StringVar(&asrBackend, "asr-backend", "", "Speech recognition backend (local, groq)")
	cmd.Flags().StringVar(&whisperModel, "whisper-model", "", "Whisper model for the local backend")
	cmd.Flags().StringVar(&llmBackend, "llm-backend", "", "Chat completion backend (groq, openai)")
	cmd.Flags().StringVar(&subtitleMode, "subtitle-mode", "", "Subtitle attachment mode (soft, burn)")
	cmd.Flags().StringVar(&targetLang, "target-language", "", "Translate subtitles into this language (enables translation)")
	cmd.Flags().Float64Var(&boxOpacity, "box-opacity", 0, "Background box opacity for burned-in subtitles (0.0-1.0)")

	return cmd
}

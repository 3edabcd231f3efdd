package main

import (
	"context"

	"subgen/internal/config"
	"subgen/internal/pipeline"
	"subgen/internal/segments"
	"subgen/internal/services/groq"
	"subgen/internal/services/llm"
)

// remoteTranscriber adapts the remote speech client to the pipeline's
// transcriber shape; the remote backend has no output directory.
func remoteTranscriber(client *groq.Client) pipeline.Transcriber {
	return pipeline.TranscriberFunc(func(ctx context.Context, audioPath, _, languageHint string) (segments.Document, error) {
		return client.Transcribe(ctx, audioPath, languageHint)
	})
}

// newChatClient builds a chat completion client for one LLM stage. Enhancer
// and translator share the connection settings but run at different
// temperatures.
func newChatClient(cfg *config.Config, temperature float64) *llm.Client {
	return llm.NewClient(llm.Config{
		APIKey:         cfg.API.GroqAPIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Temperature:    temperature,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
}

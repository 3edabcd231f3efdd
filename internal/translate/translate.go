// Package translate renders transcript segments into a target language with
// an LLM, keeping timing boundaries fixed so the subtitles stay in sync.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"subgen/internal/enhance"
	"subgen/internal/logging"
	"subgen/internal/segments"
	"subgen/internal/services"
)

const systemPromptTemplate = `You will receive a JSON array of subtitle segments with fields: start, end, text. Translate the text content to %s while preserving the exact timing boundaries. Keep the same number of segments and maintain natural flow for subtitles. Return a JSON object with a single key 'segments' mapping to the translated array. Do not include any prose, explanation, or markdown; return JSON only.

Example input:
[
  {"start": 0.0, "end": 1.2, "text": "Hello everybody, welcome to the show."},
  {"start": 1.2, "end": 2.6, "text": "I'm your host."}
]

Example output (for Spanish):
{
  "segments": [
    {"start": 0.0, "end": 1.2, "text": "Hola a todos, bienvenidos al programa."},
    {"start": 1.2, "end": 2.6, "text": "Soy su anfitrión."}
  ]
}`

// Service runs the translation stage.
type Service struct {
	client enhance.Completer
	logger *slog.Logger
}

// NewService constructs the translation stage.
func NewService(client enhance.Completer, logger *slog.Logger) *Service {
	return &Service{
		client: client,
		logger: logging.WithComponent(logger, "translate"),
	}
}

// Translate sends the segments through the LLM and returns a new document in
// the target language. The target may be a language name ("Spanish") or a
// BCP 47 tag ("es"); both are normalized for the prompt.
func (s *Service) Translate(ctx context.Context, doc segments.Document, targetLanguage string) (segments.Document, error) {
	targetLanguage = strings.TrimSpace(targetLanguage)
	if targetLanguage == "" {
		return segments.Document{}, services.Wrap(services.ErrValidation, "translate", "input", "target language required", nil)
	}
	if len(doc.Segments) == 0 {
		return segments.Document{}, services.Wrap(services.ErrValidation, "translate", "input", "no segments to translate", nil)
	}

	displayName := DisplayName(targetLanguage)
	payload, err := json.Marshal(doc.Segments)
	if err != nil {
		return segments.Document{}, fmt.Errorf("translate: encode segments: %w", err)
	}

	s.logger.Info("translating transcript",
		logging.Int("segments", len(doc.Segments)),
		logging.String("target", displayName),
		logging.String("model", s.client.Model()))

	content, err := s.client.CompleteJSON(ctx, fmt.Sprintf(systemPromptTemplate, displayName), string(payload))
	if err != nil {
		return segments.Document{}, err
	}

	translated, err := enhance.DecodeSegmentPayload(content)
	if err != nil {
		return segments.Document{}, services.Wrap(services.ErrParse, "translate", "response", "segment payload", err)
	}
	if len(translated) != len(doc.Segments) {
		s.logger.Warn("segment count changed during translation",
			logging.Int("before", len(doc.Segments)),
			logging.Int("after", len(translated)))
	}

	return segments.Document{
		Language:       doc.Language,
		TargetLanguage: targetLanguage,
		Segments:       translated,
	}, nil
}

// DisplayName resolves a language identifier to an English name for the
// prompt. BCP 47 tags become their display name ("es" -> "Spanish");
// anything else passes through as given.
func DisplayName(identifier string) string {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return trimmed
	}
	// Plain names ("Spanish", "Brazilian Portuguese") are used verbatim;
	// only short tag-looking identifiers go through the matcher.
	if len(trimmed) > 11 || strings.ContainsAny(trimmed, " _") {
		return trimmed
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return trimmed
}

// FileCode normalizes a language identifier into the token used in artifact
// file names: lowercased, spaces replaced with underscores.
func FileCode(identifier string) string {
	code := strings.ToLower(strings.TrimSpace(identifier))
	return strings.ReplaceAll(code, " ", "_")
}

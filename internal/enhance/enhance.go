// Package enhance cleans up raw ASR output with an LLM: spelling,
// punctuation, casing, and obvious recognition mistakes. Timing boundaries
// are carried through untouched.
package enhance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"subgen/internal/logging"
	"subgen/internal/segments"
	"subgen/internal/services"
	"subgen/internal/services/llm"
)

const systemPrompt = `You will receive a JSON array of segments with fields: start, end, text. Improve spelling, punctuation, casing, and fix obvious ASR mistakes without changing meaning. Preserve timing boundaries and keep the same number of segments where possible. Return a JSON object with a single key 'segments' mapping to the improved array. Do not include any prose, explanation, or markdown; return JSON only.

Example input:
[
  {"start": 0.0, "end": 1.2, "text": "hello everbody welcome 2 the show"},
  {"start": 1.2, "end": 2.6, "text": "im your host"}
]

Example output:
{
  "segments": [
    {"start": 0.0, "end": 1.2, "text": "Hello everybody, welcome to the show."},
    {"start": 1.2, "end": 2.6, "text": "I'm your host."}
  ]
}`

// Completer is the chat API surface this stage needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Model() string
}

// Service runs the enhancement stage.
type Service struct {
	client Completer
	logger *slog.Logger
}

// NewService constructs the enhancement stage.
func NewService(client Completer, logger *slog.Logger) *Service {
	return &Service{
		client: client,
		logger: logging.WithComponent(logger, "enhance"),
	}
}

// Enhance sends the transcript segments through the LLM and returns a new
// document with the cleaned text. Ordering is preserved; a segment-count
// drift is tolerated with a warning since some models merge or split lines.
func (s *Service) Enhance(ctx context.Context, doc segments.Document) (segments.Document, error) {
	if len(doc.Segments) == 0 {
		return segments.Document{}, services.Wrap(services.ErrValidation, "enhance", "input", "no segments to enhance", nil)
	}

	payload, err := json.Marshal(doc.Segments)
	if err != nil {
		return segments.Document{}, fmt.Errorf("enhance: encode segments: %w", err)
	}

	s.logger.Info("enhancing transcript",
		logging.Int("segments", len(doc.Segments)),
		logging.String("model", s.client.Model()))

	content, err := s.client.CompleteJSON(ctx, systemPrompt, string(payload))
	if err != nil {
		return segments.Document{}, err
	}

	enhanced, err := DecodeSegmentPayload(content)
	if err != nil {
		return segments.Document{}, services.Wrap(services.ErrParse, "enhance", "response", "segment payload", err)
	}
	if len(enhanced) != len(doc.Segments) {
		s.logger.Warn("segment count changed during enhancement",
			logging.Int("before", len(doc.Segments)),
			logging.Int("after", len(enhanced)))
	}

	out := segments.Document{Language: doc.Language, Segments: enhanced}
	return out, nil
}

// DecodeSegmentPayload accepts either {"segments": [...]} or a bare array,
// which is what models actually return in practice.
func DecodeSegmentPayload(content string) ([]segments.Segment, error) {
	var wrapped struct {
		Segments []segments.Segment `json:"segments"`
	}
	if err := llm.DecodeJSON(content, &wrapped); err == nil && wrapped.Segments != nil {
		return wrapped.Segments, nil
	}
	var bare []segments.Segment
	if err := llm.DecodeJSON(content, &bare); err != nil {
		return nil, err
	}
	if bare == nil {
		return nil, fmt.Errorf("payload contains no segments")
	}
	return bare, nil
}
